package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cache Metrics
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookreview_cache_requests_total",
			Help: "Cache lookups by keyspace and result (hit, miss, error)",
		},
		[]string{"keyspace", "result"},
	)

	// External Source Metrics
	SourceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookreview_source_requests_total",
			Help: "External source calls by source and outcome (success, empty, failure, rejected)",
		},
		[]string{"source", "outcome"},
	)

	SourceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookreview_source_request_duration_seconds",
			Help:    "Duration of external source calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"source"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bookreview_circuit_breaker_state",
			Help: "Circuit breaker state per source (0=closed, 1=half-open, 2=open)",
		},
		[]string{"source"},
	)

	// Reconciliation Metrics
	ReconcileOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookreview_reconcile_total",
			Help: "Reconciliation outcomes (matched_id, matched_name, created, error)",
		},
		[]string{"outcome"},
	)

	// Search Metrics
	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookreview_search_duration_seconds",
			Help:    "End-to-end author search latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode", "external"},
	)

	// HTTP Metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookreview_http_requests_total",
			Help: "HTTP requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)
)

// RecordCache records a cache lookup outcome
func RecordCache(keyspace string, hit bool, err error) {
	result := "miss"
	switch {
	case err != nil:
		result = "error"
	case hit:
		result = "hit"
	}
	CacheRequests.WithLabelValues(keyspace, result).Inc()
}

// RecordSearch records search latency
func RecordSearch(mode string, external bool, start time.Time) {
	SearchDuration.WithLabelValues(mode, strconv.FormatBool(external)).Observe(time.Since(start).Seconds())
}

// RecordHTTP records a finished HTTP request
func RecordHTTP(route, method string, status int) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}
