package utils

import (
	"testing"
	"time"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveUserTime(t *testing.T) {
	tests := []struct {
		name       string
		timeRange  *backend.TimeRange
		intervalMs int64
		want       *UserTime
	}{
		{
			name: "truncates sub-second precision",
			timeRange: &backend.TimeRange{
				From: time.UnixMilli(1600000000500),
				To:   time.UnixMilli(1600003600999),
			},
			intervalMs: 15000,
			want:       &UserTime{From: 1600000000, To: 1600003600, Sampling: 15},
		},
		{
			name: "no interval leaves sampling unset",
			timeRange: &backend.TimeRange{
				From: time.UnixMilli(1600000000000),
				To:   time.UnixMilli(1600003600000),
			},
			want: &UserTime{From: 1600000000, To: 1600003600},
		},
		{
			name: "interval below one second truncates to zero",
			timeRange: &backend.TimeRange{
				From: time.UnixMilli(1600000000000),
				To:   time.UnixMilli(1600000060000),
			},
			intervalMs: 500,
			want:       &UserTime{From: 1600000000, To: 1600000060},
		},
		{
			name:       "nil range means no constraint",
			timeRange:  nil,
			intervalMs: 15000,
			want:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveUserTime(tt.timeRange, tt.intervalMs)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want.From, got.From)
			assert.Equal(t, tt.want.To, got.To)
			assert.Equal(t, tt.want.Sampling, got.Sampling)
		})
	}
}

func TestDeriveUserTimeTruncatesNotRounds(t *testing.T) {
	// 999ms of sub-second precision must be discarded, not rounded up.
	tr := &backend.TimeRange{
		From: time.UnixMilli(1599999999999),
		To:   time.UnixMilli(1600000000001),
	}
	got := DeriveUserTime(tr, 0)
	require.NotNil(t, got)
	assert.Equal(t, int64(1599999999), got.From)
	assert.Equal(t, int64(1600000000), got.To)
}
