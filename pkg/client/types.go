package client

import (
	"metricore-grafana-plugin/pkg/utils"
)

// MetricSpec is one requested metric in a data query.
type MetricSpec struct {
	ID               string `json:"id"`
	TimeAggregation  string `json:"timeAggregation"`
	GroupAggregation string `json:"groupAggregation"`
	SegmentBy        string `json:"segmentBy,omitempty"`
	Filter           string `json:"filter,omitempty"`
}

// Paging bounds how many segments come back for a query.
type Paging struct {
	Limit     int    `json:"limit"`
	Direction string `json:"direction,omitempty"`
}

// DataRequest is the POST api/data payload.
type DataRequest struct {
	Metrics []MetricSpec    `json:"metrics"`
	Paging  Paging          `json:"paging"`
	Time    *utils.UserTime `json:"time,omitempty"`
	Last    bool            `json:"last,omitempty"`
}

// Row is one sample: an epoch-second timestamp, an optional segment
// value, and one value per requested metric. Nulls stay null.
type Row struct {
	T int64      `json:"t"`
	K *string    `json:"k,omitempty"`
	D []*float64 `json:"d"`
}

// DataResponse is the POST api/data reply.
type DataResponse struct {
	Data []Row `json:"data"`
}

// MetricDescriptor is one metric catalog entry.
type MetricDescriptor struct {
	Name      string `json:"name"`
	IsNumeric bool   `json:"isNumeric"`
}

// MetricsResponse is the GET api/metrics reply.
type MetricsResponse struct {
	Metrics []MetricDescriptor `json:"metrics"`
}

// LabelValuesRequest asks for the values a label takes over a window.
type LabelValuesRequest struct {
	Label string          `json:"label"`
	Time  *utils.UserTime `json:"time,omitempty"`
}

// LabelValuesResponse lists label values; entries can be null.
type LabelValuesResponse struct {
	Values []*string `json:"values"`
}

// SegmentationsResponse lists the dimensions a metric can segment by.
type SegmentationsResponse struct {
	Segmentations []string `json:"segmentations"`
}
