// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WaveScoresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wave_scores_total",
			Help: "Total number of wave scores submitted",
		},
		[]string{"heat", "surfer"},
	)

	HeatTotals = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "heat_total_points",
			Help:    "Distribution of settled heat totals (best-2 sums)",
			Buckets: prometheus.LinearBuckets(0, 2, 11),
		},
	)

	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlements_total",
			Help: "Finalize runs by outcome",
		},
		[]string{"outcome"},
	)

	PayoutFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_payout_failures_total",
			Help: "Failed settlement writes by step",
		},
		[]string{"step"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
