// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_requests_total",
			Help: "Total number of match requests by engine and outcome",
		},
		[]string{"engine", "status"},
	)

	MatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "match_duration_seconds",
			Help:    "Duration of engine match calls in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 15, 30, 60, 95},
		},
		[]string{"engine"},
	)

	MatchResultsReturned = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "match_results_returned",
			Help:    "Number of results returned per match request",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
		[]string{"engine"},
	)

	CandidatePoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "candidate_pool_size",
			Help: "Number of candidates in the current pool snapshot",
		},
	)

	CandidatePoolFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "candidate_pool_fallbacks_total",
			Help: "Times a request was served from a cached pool because the loader failed",
		},
		[]string{"source"},
	)

	RankerAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranker_attempts_total",
			Help: "External ranker HTTP attempts by outcome",
		},
		[]string{"outcome"},
	)
)
