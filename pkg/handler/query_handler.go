// Package handler turns Grafana query requests into Metricore API calls
// and maps the responses back onto each panel target. Targets in one
// request are reconciled together, fetched in a single api/data call,
// and demultiplexed by refID.
package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/backend/log"

	"metricore-grafana-plugin/pkg/client"
	"metricore-grafana-plugin/pkg/formatter"
	"metricore-grafana-plugin/pkg/metrics"
	"metricore-grafana-plugin/pkg/queryset"
	"metricore-grafana-plugin/pkg/templating"
	"metricore-grafana-plugin/pkg/utils"
)

// QueryExecutionError represents a failure running a reconciled query
// set against the Metricore API.
type QueryExecutionError struct {
	Msg string
	Err error // Wrapped error
}

func (e *QueryExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("query execution error: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("query execution error: %s", e.Msg)
}

func (e *QueryExecutionError) Unwrap() error {
	return e.Err
}

// DataFetcher is the slice of the Metricore client the query path needs.
type DataFetcher interface {
	FetchData(ctx context.Context, req client.DataRequest) (*client.DataResponse, error)
}

// HandleQueryData reconciles every query in req into one set, fetches
// it, and fans the rows back out to each target's refID. Targets that
// fall out during reconciliation (placeholders, hidden rows) get empty
// responses; per-query JSON errors land on their own refID only.
func HandleQueryData(ctx context.Context, fetcher DataFetcher, req *backend.QueryDataRequest) *backend.QueryDataResponse {
	start := time.Now()
	metrics.IncConcurrentQueries()
	defer metrics.DecConcurrentQueries()

	var reqErr error
	defer func() { metrics.RecordQuery(time.Since(start), reqErr) }()

	response := backend.NewQueryDataResponse()

	set, parseErrs := queryset.Build(req)
	for refID, err := range parseErrs {
		log.DefaultLogger.Error("Error parsing query JSON", "refId", refID, "error", err)
		response.Responses[refID] = backend.DataResponse{
			Error: fmt.Errorf("error parsing query JSON: %w", err),
		}
	}

	normalized, window, err := queryset.Normalize(set, templating.Service{})
	if err != nil {
		log.DefaultLogger.Error("Query set normalization failed", "error", err)
		reqErr = err
		for _, target := range set.Targets {
			response.Responses[target.RefID] = backend.DataResponse{Error: err}
		}
		return response
	}

	// Every parsed target answers, even the ones dropped during
	// normalization.
	for _, target := range set.Targets {
		response.Responses[target.RefID] = backend.DataResponse{}
	}

	if len(normalized.Targets) == 0 {
		log.DefaultLogger.Debug("No visible targets after normalization, skipping fetch")
		return response
	}

	result, err := fetcher.FetchData(ctx, buildDataRequest(normalized, window))
	if err != nil {
		log.DefaultLogger.Error("Data query failed", "error", err)
		reqErr = err
		queryErr := &QueryExecutionError{Msg: "data query failed", Err: err}
		for _, target := range normalized.Targets {
			response.Responses[target.RefID] = backend.DataResponse{Error: queryErr}
		}
		return response
	}

	for i, target := range normalized.Targets {
		response.Responses[target.RefID] = formatter.FormatQueryResults(result.Data, i, formatter.Options{
			RefID:     target.RefID,
			Metric:    target.Target,
			SegmentBy: target.SegmentBy,
			Tabular:   target.IsSingleDataPoint,
		})
	}
	return response
}

// buildDataRequest maps a normalized set onto the wire format. Paging
// and the single data point flag are panel-wide, so they come from the
// first target.
func buildDataRequest(set queryset.QuerySet, window *utils.UserTime) client.DataRequest {
	specs := make([]client.MetricSpec, len(set.Targets))
	for i, target := range set.Targets {
		specs[i] = client.MetricSpec{
			ID:               target.Target,
			TimeAggregation:  target.TimeAggregation,
			GroupAggregation: target.GroupAggregation,
			SegmentBy:        target.SegmentBy,
			Filter:           target.Filter,
		}
	}

	first := set.Targets[0]
	return client.DataRequest{
		Metrics: specs,
		Paging: client.Paging{
			Limit:     first.PageLimitValue(),
			Direction: first.SortDirection,
		},
		Time: window,
		Last: first.IsSingleDataPoint,
	}
}
