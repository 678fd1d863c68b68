// Package utils defines shared constants and time helpers used throughout the
// Metricore Grafana plugin. Constants cover the defaults applied to blank panel
// targets as well as field and frame names used when building Grafana DataFrames.
package utils

const (
	// PlaceholderTarget is the sentinel the query editor stores before the user
	// picks a metric. Targets still carrying it are skipped entirely.
	PlaceholderTarget = "select metric"

	// Defaults applied to a brand-new (blank) target.
	DefaultMetricID         = "net.bytes.total"
	DefaultTimeAggregation  = "timeAvg"
	DefaultGroupAggregation = "avg"
	DefaultPageLimit        = 10

	// Field names used in Grafana DataFrames.
	TimeFieldName    = "time"
	ValueFieldName   = "value"
	SegmentFieldName = "segment"

	// Frame names.
	SeriesFrameName  = "series"
	TabularFrameName = "table"
)
