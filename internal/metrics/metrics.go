// Package metrics provides Prometheus collectors for monitoring.
//
// Key metrics:
//   - Poll cycle counts, failures, and durations
//   - Points fetched from the API and written to the database
//   - Insert conflicts (already-present observations)
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PollCycles counts completed poll cycles.
	PollCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "glassnode_poll_cycles_total",
		Help: "Number of completed metric poll cycles.",
	})

	// JobFetches counts per-metric fetch attempts by outcome.
	JobFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "glassnode_job_fetches_total",
		Help: "Number of per-metric fetch attempts.",
	}, []string{"metric", "outcome"})

	// FetchDuration observes per-metric fetch latency.
	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "glassnode_fetch_duration_seconds",
		Help:    "Latency of metric fetches.",
		Buckets: prometheus.DefBuckets,
	}, []string{"metric"})

	// PointsFetched counts flattened observation records produced by fetches.
	PointsFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "glassnode_points_fetched_total",
		Help: "Number of observation records flattened from API responses.",
	})

	// PointsWritten counts observation rows inserted into the database.
	PointsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "glassnode_points_written_total",
		Help: "Number of observation rows inserted.",
	})

	// WriteConflicts counts rows skipped because they already existed.
	WriteConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "glassnode_write_conflicts_total",
		Help: "Number of observation rows skipped as already present.",
	})
)
