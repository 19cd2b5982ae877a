// Package metrics provides Prometheus metrics for the export service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConversionsTotal tracks conversion runs by outcome
	ConversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "entityexport",
			Subsystem: "conversion",
			Name:      "runs_total",
			Help:      "Total number of conversion runs by status",
		},
		[]string{"status"},
	)

	// ConversionDuration tracks end-to-end run duration in seconds
	ConversionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "entityexport",
			Subsystem: "conversion",
			Name:      "run_duration_seconds",
			Help:      "Duration of conversion runs in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// RecordsEmitted tracks record files written per entity
	RecordsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "entityexport",
			Subsystem: "export",
			Name:      "records_total",
			Help:      "Total number of record files written by entity",
		},
		[]string{"entity"},
	)

	// RecordsSkipped tracks records that could not be written
	RecordsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "entityexport",
			Subsystem: "export",
			Name:      "records_skipped_total",
			Help:      "Total number of records skipped after a write failure",
		},
		[]string{"entity"},
	)

	// RowsRejected tracks rows filtered out of a pass by rule
	RowsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "entityexport",
			Subsystem: "transform",
			Name:      "rows_rejected_total",
			Help:      "Total number of rows rejected by entity and reason",
		},
		[]string{"entity", "reason"},
	)

	// ConversionsInFlight tracks conversions holding a limiter slot
	ConversionsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "entityexport",
			Subsystem: "conversion",
			Name:      "in_flight",
			Help:      "Number of conversions currently running",
		},
	)

	// WorkspacesPurged tracks expired run workspaces removed by the janitor
	WorkspacesPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "entityexport",
			Subsystem: "workspace",
			Name:      "purged_total",
			Help:      "Total number of expired workspaces removed",
		},
	)

	// RateLimitHits tracks requests rejected by the rate limiter
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "entityexport",
			Subsystem: "ratelimit",
			Name:      "hits_total",
			Help:      "Total number of rate limited requests",
		},
		[]string{"limit_name"},
	)
)

// RecordConversion records a finished run
func RecordConversion(status string, durationSeconds float64) {
	ConversionsTotal.WithLabelValues(status).Inc()
	ConversionDuration.Observe(durationSeconds)
}

// RecordExport records the outcome of one entity pass
func RecordExport(entity string, written, skipped int) {
	RecordsEmitted.WithLabelValues(entity).Add(float64(written))
	if skipped > 0 {
		RecordsSkipped.WithLabelValues(entity).Add(float64(skipped))
	}
}

// RecordRejections records rows filtered out of a pass
func RecordRejections(entity string, mismatched, duplicates, expired int) {
	RowsRejected.WithLabelValues(entity, "mismatch").Add(float64(mismatched))
	RowsRejected.WithLabelValues(entity, "duplicate").Add(float64(duplicates))
	RowsRejected.WithLabelValues(entity, "expired").Add(float64(expired))
}
