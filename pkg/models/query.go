package models

import (
	"metricore-grafana-plugin/pkg/templating"
)

// QueryModel represents one metric query row a user configured in a panel.
// This struct is unmarshaled from the JSON data in backend.DataQuery.
//
// IsTabularFormat is tri-state: the query editor may leave it unset, and the
// distinction between "unset" and "explicitly false" changes how segmentation
// and filter fields are inherited across the panel's targets.
type QueryModel struct {
	Target            string                `json:"target"`
	TimeAggregation   string                `json:"timeAggregation,omitempty"`
	GroupAggregation  string                `json:"groupAggregation,omitempty"`
	SegmentBy         string                `json:"segmentBy,omitempty"`
	Filter            string                `json:"filter,omitempty"`
	PageLimit         any                   `json:"pageLimit,omitempty"` // number or string, coerced during normalization
	SortDirection     string                `json:"sortDirection,omitempty"`
	IsSingleDataPoint bool                  `json:"isSingleDataPoint,omitempty"`
	IsTabularFormat   *bool                 `json:"isTabularFormat,omitempty"`
	Hide              bool                  `json:"hide,omitempty"`
	ScopedVars        templating.ScopedVars `json:"scopedVars,omitempty"`
}

// TabularExplicitlyFalse reports whether the editor stored an explicit false
// for the tabular flag, as opposed to leaving it unset.
func (q QueryModel) TabularExplicitlyFalse() bool {
	return q.IsTabularFormat != nil && !*q.IsTabularFormat
}

// Tabular reports whether the tabular flag is set and true.
func (q QueryModel) Tabular() bool {
	return q.IsTabularFormat != nil && *q.IsTabularFormat
}
