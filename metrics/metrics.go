// Package metrics provides the Prometheus metrics of the symptoms API.
//
// HTTP:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//   - rate_limiter_buckets_total: Gauge of tracked client IPs
//
// Matching and dataset:
//   - match_queries_total: Counter with strategy and outcome labels
//   - match_best_score: Histogram of the best overlap score per query
//   - generation_requests_total: Counter with status label
//   - dataset_conditions: Gauge of conditions in the current snapshot
//   - dataset_reloads_total: Counter with status label
//
// All metrics are registered with the Prometheus default registry during package
// initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen in last ~5 minutes)",
		},
	)

	MatchQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_queries_total",
			Help: "Answered queries by strategy and outcome kind",
		},
		[]string{"strategy", "outcome"},
	)

	MatchBestScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "match_best_score",
			Help:    "Best overlap score of queries that matched",
			Buckets: []float64{.1, .2, .3, .4, .5, .6, .7, .8, .9, 1},
		},
	)

	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_requests_total",
			Help: "Fallback generation attempts by status",
		},
		[]string{"status"},
	)

	DatasetConditions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dataset_conditions",
			Help: "Number of conditions in the current dataset snapshot",
		},
	)

	DatasetReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataset_reloads_total",
			Help: "Dataset loads by status",
		},
		[]string{"status"},
	)
)

// Label values
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

func init() {
	prometheus.MustRegister(
		HTTPRequestTotals,
		HTTPRequestDuration,
		HTTPRequestInFlight,
		RateLimiterBucketsTotal,
		MatchQueriesTotal,
		MatchBestScore,
		GenerationRequestsTotal,
		DatasetConditions,
		DatasetReloadsTotal,
	)
}
