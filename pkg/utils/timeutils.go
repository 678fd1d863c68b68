package utils

import (
	"github.com/grafana/grafana-plugin-sdk-go/backend"
)

// UserTime is the time constraint attached to a Metricore data request:
// integer epoch seconds plus an optional sampling granularity in seconds.
type UserTime struct {
	From     int64 `json:"from"`
	To       int64 `json:"to"`
	Sampling int64 `json:"sampling,omitempty"`
}

// DeriveUserTime converts a host-supplied millisecond-resolution range into
// epoch seconds. Conversion truncates toward zero; sub-second precision is
// discarded, never rounded. Sampling is attached only when an interval was
// supplied. A nil range yields nil, meaning "no time constraint".
func DeriveUserTime(timeRange *backend.TimeRange, intervalMs int64) *UserTime {
	if timeRange == nil {
		return nil
	}
	ut := &UserTime{
		From: timeRange.From.UnixMilli() / 1000,
		To:   timeRange.To.UnixMilli() / 1000,
	}
	if intervalMs != 0 {
		ut.Sampling = intervalMs / 1000
	}
	return ut
}
