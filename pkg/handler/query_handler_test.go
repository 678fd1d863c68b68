package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"metricore-grafana-plugin/pkg/client"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockFetcher struct {
	calls    int
	lastReq  client.DataRequest
	response *client.DataResponse
	err      error
}

func (m *mockFetcher) FetchData(ctx context.Context, req client.DataRequest) (*client.DataResponse, error) {
	m.calls++
	m.lastReq = req
	return m.response, m.err
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func dataQuery(refID, payload string) backend.DataQuery {
	return backend.DataQuery{
		RefID:     refID,
		JSON:      []byte(payload),
		TimeRange: backend.TimeRange{From: time.UnixMilli(1600000000000), To: time.UnixMilli(1600003600000)},
		Interval:  10 * time.Second,
	}
}

func TestHandleQueryData(t *testing.T) {
	fetcher := &mockFetcher{
		response: &client.DataResponse{
			Data: []client.Row{
				{T: 1600000000, K: strPtr("web-01"), D: []*float64{floatPtr(1), floatPtr(2)}},
				{T: 1600000010, K: strPtr("web-01"), D: []*float64{floatPtr(3), floatPtr(4)}},
			},
		},
	}

	req := &backend.QueryDataRequest{
		Queries: []backend.DataQuery{
			dataQuery("A", `{"target": "net.bytes.total", "segmentBy": "host.name"}`),
			dataQuery("B", `{"target": "cpu.used.percent"}`),
		},
	}

	response := HandleQueryData(context.Background(), fetcher, req)

	require.Equal(t, 1, fetcher.calls, "one request must produce one fetch")

	sent := fetcher.lastReq
	require.Len(t, sent.Metrics, 2)
	assert.Equal(t, "net.bytes.total", sent.Metrics[0].ID)
	assert.Equal(t, "cpu.used.percent", sent.Metrics[1].ID)
	assert.Equal(t, "host.name", sent.Metrics[1].SegmentBy, "second target inherits the first target's segmentBy")
	assert.Equal(t, 10, sent.Paging.Limit)
	assert.False(t, sent.Last)

	require.NotNil(t, sent.Time)
	assert.Equal(t, int64(1600000000), sent.Time.From)
	assert.Equal(t, int64(1600003600), sent.Time.To)
	assert.Equal(t, int64(10), sent.Time.Sampling)

	require.Len(t, response.Responses, 2)

	respA := response.Responses["A"]
	require.NoError(t, respA.Error)
	require.Len(t, respA.Frames, 1)
	assert.Equal(t, data.Labels{"host.name": "web-01"}, respA.Frames[0].Fields[1].Labels)
	assert.Equal(t, 1.0, *(respA.Frames[0].Fields[1].At(0).(*float64)))

	respB := response.Responses["B"]
	require.NoError(t, respB.Error)
	require.Len(t, respB.Frames, 1)
	assert.Equal(t, 2.0, *(respB.Frames[0].Fields[1].At(0).(*float64)), "second target reads the second column")
}

func TestHandleQueryDataParseErrorIsPerQuery(t *testing.T) {
	fetcher := &mockFetcher{
		response: &client.DataResponse{
			Data: []client.Row{{T: 1600000000, D: []*float64{floatPtr(1)}}},
		},
	}

	req := &backend.QueryDataRequest{
		Queries: []backend.DataQuery{
			dataQuery("A", `{"target": "net.bytes.total"}`),
			dataQuery("Z", `{not json`),
		},
	}

	response := HandleQueryData(context.Background(), fetcher, req)

	require.Error(t, response.Responses["Z"].Error)
	assert.Contains(t, response.Responses["Z"].Error.Error(), "error parsing query JSON")

	require.NoError(t, response.Responses["A"].Error)
	assert.Len(t, response.Responses["A"].Frames, 1)
	require.Len(t, fetcher.lastReq.Metrics, 1)
}

func TestHandleQueryDataAllHiddenSkipsFetch(t *testing.T) {
	fetcher := &mockFetcher{}

	req := &backend.QueryDataRequest{
		Queries: []backend.DataQuery{
			dataQuery("A", `{"target": "net.bytes.total", "hide": true}`),
			dataQuery("B", `{"target": "cpu.used.percent", "hide": true}`),
		},
	}

	response := HandleQueryData(context.Background(), fetcher, req)

	assert.Equal(t, 0, fetcher.calls, "an all-hidden set must not reach the API")
	require.Len(t, response.Responses, 2)
	for refID, resp := range response.Responses {
		assert.NoError(t, resp.Error, "refId %s", refID)
		assert.Empty(t, resp.Frames, "refId %s", refID)
	}
}

func TestHandleQueryDataPlaceholderAnswersEmpty(t *testing.T) {
	fetcher := &mockFetcher{
		response: &client.DataResponse{
			Data: []client.Row{{T: 1600000000, D: []*float64{floatPtr(9)}}},
		},
	}

	req := &backend.QueryDataRequest{
		Queries: []backend.DataQuery{
			dataQuery("A", `{"target": "select metric"}`),
			dataQuery("B", `{"target": "cpu.used.percent"}`),
		},
	}

	response := HandleQueryData(context.Background(), fetcher, req)

	require.Len(t, fetcher.lastReq.Metrics, 1)
	assert.Equal(t, "cpu.used.percent", fetcher.lastReq.Metrics[0].ID)

	respA, ok := response.Responses["A"]
	require.True(t, ok, "dropped targets still answer")
	assert.NoError(t, respA.Error)
	assert.Empty(t, respA.Frames)

	assert.Len(t, response.Responses["B"].Frames, 1)
}

func TestHandleQueryDataFetchErrorLandsOnEveryTarget(t *testing.T) {
	fetcher := &mockFetcher{err: errors.New("connection refused")}

	req := &backend.QueryDataRequest{
		Queries: []backend.DataQuery{
			dataQuery("A", `{"target": "net.bytes.total"}`),
			dataQuery("B", `{"target": "cpu.used.percent"}`),
		},
	}

	response := HandleQueryData(context.Background(), fetcher, req)

	for _, refID := range []string{"A", "B"} {
		err := response.Responses[refID].Error
		require.Error(t, err, "refId %s", refID)

		var execErr *QueryExecutionError
		assert.ErrorAs(t, err, &execErr)
	}
}

func TestHandleQueryDataSubstitutionFailureSkipsFetch(t *testing.T) {
	fetcher := &mockFetcher{}

	req := &backend.QueryDataRequest{
		Queries: []backend.DataQuery{
			dataQuery("A", `{"target": "$metrics", "scopedVars": {"metrics": {"value": ["a.metric", "b.metric"]}}}`),
		},
	}

	response := HandleQueryData(context.Background(), fetcher, req)

	assert.Equal(t, 0, fetcher.calls)
	require.Error(t, response.Responses["A"].Error)
}

func TestHandleQueryDataSingleDataPoint(t *testing.T) {
	fetcher := &mockFetcher{
		response: &client.DataResponse{
			Data: []client.Row{
				{T: 1600003600, K: strPtr("web-01"), D: []*float64{floatPtr(10)}},
				{T: 1600003600, K: strPtr("web-02"), D: []*float64{floatPtr(20)}},
			},
		},
	}

	req := &backend.QueryDataRequest{
		Queries: []backend.DataQuery{
			dataQuery("A", `{"target": "net.bytes.total", "segmentBy": "host.name", "isTabularFormat": true, "pageLimit": 5}`),
		},
	}

	response := HandleQueryData(context.Background(), fetcher, req)

	assert.True(t, fetcher.lastReq.Last, "tabular panels fetch the last data point only")
	assert.Equal(t, 5, fetcher.lastReq.Paging.Limit)

	respA := response.Responses["A"]
	require.Len(t, respA.Frames, 1)
	assert.Equal(t, data.VisType(data.VisTypeTable), respA.Frames[0].Meta.PreferredVisualization)
	assert.Equal(t, 2, respA.Frames[0].Fields[0].Len())
}
