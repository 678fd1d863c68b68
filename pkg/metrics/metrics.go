// Package metrics records the plugin's own operational counters. The
// collectors register on the default Prometheus registry, which the
// plugin SDK gathers when Grafana collects backend metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "metricore",
		Subsystem: "datasource",
		Name:      "queries_total",
		Help:      "Data queries handled, by outcome.",
	}, []string{"outcome"})

	queryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "metricore",
		Subsystem: "datasource",
		Name:      "query_duration_seconds",
		Help:      "End-to-end latency of one data query request.",
		Buckets:   prometheus.DefBuckets,
	})

	concurrentQueries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "metricore",
		Subsystem: "datasource",
		Name:      "concurrent_queries",
		Help:      "Data query requests currently in flight.",
	})
)

// RecordQuery records the outcome and duration of a completed query.
func RecordQuery(duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	queriesTotal.WithLabelValues(outcome).Inc()
	queryDuration.Observe(duration.Seconds())
}

// IncConcurrentQueries marks one query request entering the handler.
func IncConcurrentQueries() {
	concurrentQueries.Inc()
}

// DecConcurrentQueries marks one query request leaving the handler.
func DecConcurrentQueries() {
	concurrentQueries.Dec()
}
