// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Protocol Metrics
	PaloRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palo_requests_total",
			Help: "Total number of upstream protocol calls",
		},
		[]string{"call", "outcome"},
	)

	PaloRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "palo_request_duration_seconds",
			Help:    "Upstream protocol call duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"call"},
	)

	// Session Pool Metrics
	PoolActiveSessions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "palo_pool_active_sessions",
			Help: "Sessions currently held, saved or logging in",
		},
		[]string{"endpoint"},
	)

	PoolPendingRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "palo_pool_pending_requests",
			Help: "Callers waiting for a session",
		},
		[]string{"endpoint"},
	)

	PoolQueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palo_pool_queued_total",
			Help: "Total number of acquisitions that had to queue",
		},
		[]string{"endpoint"},
	)

	PoolLoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palo_pool_logins_total",
			Help: "Total number of login attempts",
		},
		[]string{"endpoint", "result"},
	)

	// Metadata Cache Metrics
	SchemaDiscoveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palo_schema_discoveries_total",
			Help: "Total number of metadata listings issued",
		},
		[]string{"stage"},
	)

	SchemaResets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palo_schema_resets_total",
			Help: "Total number of metadata cache resets",
		},
		[]string{"reason"},
	)

	FormsCacheEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forms_cache_events_total",
			Help: "Row-definition cache hits, misses and invalidations",
		},
		[]string{"event"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit counts a rejected request.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordPaloRequest records one upstream protocol call.
func RecordPaloRequest(call, outcome string, duration time.Duration) {
	PaloRequestsTotal.WithLabelValues(call, outcome).Inc()
	PaloRequestDuration.WithLabelValues(call).Observe(duration.Seconds())
}

// RecordPoolState publishes the current pool gauges.
func RecordPoolState(endpoint string, active, pending int) {
	PoolActiveSessions.WithLabelValues(endpoint).Set(float64(active))
	PoolPendingRequests.WithLabelValues(endpoint).Set(float64(pending))
}

// RecordPoolQueued counts an acquisition that had to wait.
func RecordPoolQueued(endpoint string) {
	PoolQueuedTotal.WithLabelValues(endpoint).Inc()
}

// RecordPoolLogin counts a login attempt.
func RecordPoolLogin(endpoint string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	PoolLoginsTotal.WithLabelValues(endpoint, result).Inc()
}

// RecordDiscovery counts a metadata listing.
func RecordDiscovery(stage string) {
	SchemaDiscoveries.WithLabelValues(stage).Inc()
}

// RecordSchemaReset counts a cache reset.
func RecordSchemaReset(reason string) {
	SchemaResets.WithLabelValues(reason).Inc()
}

// RecordFormsCache counts a row-definition cache event.
func RecordFormsCache(event string) {
	FormsCacheEvents.WithLabelValues(event).Inc()
}
