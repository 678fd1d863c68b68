// Package formatter converts Metricore API responses into Grafana data
// frames: per-segment time series for graph panels and flat tables for
// tabular or single data point queries.
package formatter

import (
	"time"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
	"github.com/grafana/grafana-plugin-sdk-go/data"

	"metricore-grafana-plugin/pkg/client"
	"metricore-grafana-plugin/pkg/utils"
)

// FormatLabelValue renders a label or segment value for display. The
// API reports missing segments as null; those show up as n/a.
func FormatLabelValue(value *string) string {
	if value == nil {
		return "n/a"
	}
	return *value
}

// Options describe how one target's column of an api/data response
// should be shaped.
type Options struct {
	RefID     string
	Metric    string
	SegmentBy string
	// Tabular selects flat table rendering (tabular panels and single
	// data point queries) instead of per-segment time series.
	Tabular bool
}

// FormatQueryResults turns one response column into the DataResponse
// for the target that requested it.
func FormatQueryResults(rows []client.Row, column int, opts Options) backend.DataResponse {
	resp := backend.DataResponse{}
	if len(rows) == 0 {
		return resp
	}

	log.DefaultLogger.Debug("Formatting query results", "refId", opts.RefID, "rows", len(rows), "tabular", opts.Tabular)

	if opts.Tabular {
		resp.Frames = append(resp.Frames, buildTableFrame(rows, column, opts))
		return resp
	}
	resp.Frames = append(resp.Frames, buildSeriesFrames(rows, column, opts)...)
	return resp
}

// buildSeriesFrames groups rows by segment value, one frame per
// segment in first-seen order, so repeated refreshes keep series
// colors stable.
func buildSeriesFrames(rows []client.Row, column int, opts Options) []*data.Frame {
	type group struct {
		times  []time.Time
		values []*float64
	}

	segmented := opts.SegmentBy != ""
	var order []string
	groups := map[string]*group{}

	for _, row := range rows {
		key := ""
		if segmented {
			key = FormatLabelValue(row.K)
		}
		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
			order = append(order, key)
		}
		g.times = append(g.times, time.Unix(row.T, 0))
		g.values = append(g.values, valueAt(row, column))
	}

	frames := make([]*data.Frame, 0, len(order))
	for _, key := range order {
		g := groups[key]

		var labels map[string]string
		if segmented {
			labels = map[string]string{opts.SegmentBy: key}
		}

		frame := data.NewFrame(utils.SeriesFrameName,
			data.NewField(utils.TimeFieldName, nil, g.times),
			data.NewField(opts.Metric, labels, g.values),
		)
		frame.RefID = opts.RefID
		frame.Meta = &data.FrameMeta{PreferredVisualization: data.VisTypeGraph}
		frames = append(frames, frame)
	}
	return frames
}

// buildTableFrame flattens rows into one table: a segment column when
// the query was segmented, then the metric values.
func buildTableFrame(rows []client.Row, column int, opts Options) *data.Frame {
	frame := data.NewFrame(utils.TabularFrameName)

	if opts.SegmentBy != "" {
		segments := make([]string, len(rows))
		for i, row := range rows {
			segments[i] = FormatLabelValue(row.K)
		}
		frame.Fields = append(frame.Fields, data.NewField(opts.SegmentBy, nil, segments))
	}

	values := make([]*float64, len(rows))
	for i, row := range rows {
		values[i] = valueAt(row, column)
	}
	frame.Fields = append(frame.Fields, data.NewField(opts.Metric, nil, values))

	frame.RefID = opts.RefID
	frame.Meta = &data.FrameMeta{PreferredVisualization: data.VisTypeTable}
	return frame
}

// valueAt picks the column's value from a row, nil when the API sent a
// short or null entry.
func valueAt(row client.Row, column int) *float64 {
	if column < 0 || column >= len(row.D) {
		return nil
	}
	return row.D[column]
}
