package handler

import (
	"context"

	"metricore-grafana-plugin/pkg/client"
	"metricore-grafana-plugin/pkg/formatter"
	"metricore-grafana-plugin/pkg/labelsort"
	"metricore-grafana-plugin/pkg/utils"
)

// Catalog is the slice of the catalog service the find path needs.
type Catalog interface {
	QueryLabelValues(ctx context.Context, label string, window *utils.UserTime) ([]*string, error)
	FindMetrics(ctx context.Context, includeNonNumeric bool) ([]client.MetricDescriptor, error)
}

// MetricFindRequest describes one variable editor lookup.
type MetricFindRequest struct {
	// Query names a label whose values should be listed. Empty means
	// list the metric catalog instead.
	Query             string
	SortMode          int
	IncludeNonNumeric bool
	Window            *utils.UserTime
}

// MetricFindValue is one option offered to the editor.
type MetricFindValue struct {
	Text      string `json:"text"`
	IsNumeric *bool  `json:"isNumeric,omitempty"`
}

// HandleMetricFind answers variable editor lookups. With a query it
// returns that label's values over the window, nulls dropped and the
// rest ordered by the editor's sort mode. Without one it returns the
// metric catalog, numeric entries only unless the caller opted in.
func HandleMetricFind(ctx context.Context, catalog Catalog, req MetricFindRequest) ([]MetricFindValue, error) {
	if req.Query != "" {
		values, err := catalog.QueryLabelValues(ctx, req.Query, req.Window)
		if err != nil {
			return nil, err
		}

		nonNull := make([]*string, 0, len(values))
		for _, v := range values {
			if v != nil {
				nonNull = append(nonNull, v)
			}
		}
		labelsort.Sort(nonNull, req.SortMode)

		out := make([]MetricFindValue, len(nonNull))
		for i, v := range nonNull {
			out[i] = MetricFindValue{Text: formatter.FormatLabelValue(v)}
		}
		return out, nil
	}

	descriptors, err := catalog.FindMetrics(ctx, req.IncludeNonNumeric)
	if err != nil {
		return nil, err
	}

	out := make([]MetricFindValue, len(descriptors))
	for i, d := range descriptors {
		isNumeric := d.IsNumeric
		out[i] = MetricFindValue{Text: d.Name, IsNumeric: &isNumeric}
	}
	return out, nil
}
