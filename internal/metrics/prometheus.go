package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Webhook metrics
var (
	WebhookRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erasure_webhook_requests_total",
			Help: "Total number of deletion webhook requests by outcome",
		},
		[]string{"outcome"}, // processed, ignored, malformed, unauthorized, error
	)

	RuleDeletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erasure_rule_deletions_total",
			Help: "Total number of per-rule datastore deletions",
		},
		[]string{"result"}, // success, permanent_failure, transient_failure
	)

	DatastoreRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "erasure_datastore_request_duration_seconds",
			Help:    "Duration of datastore delete calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"}, // HTTP status code, or "error" when no response
	)
)

// API metrics
var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	APIAuthFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "api_auth_failures_total",
			Help: "Total number of admin API authentication failures",
		},
	)
)

// Database metrics
var (
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordPoolStats publishes connection pool gauges.
func RecordPoolStats(acquired, idle int32) {
	DBConnectionsActive.Set(float64(acquired))
	DBConnectionsIdle.Set(float64(idle))
}
