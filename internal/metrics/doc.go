// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered with the default registry through promauto
and exposed at /metrics in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

API Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: In-flight requests (gauge)
  - api_rate_limit_hits_total: Rate limit rejections (counter)
    Labels: endpoint

Protocol Metrics:
  - palo_requests_total: Upstream protocol calls (counter)
    Labels: call, outcome (success, mismatch, error)
  - palo_request_duration_seconds: Upstream call latency (histogram)
    Labels: call

Session Pool Metrics:
  - palo_pool_active_sessions: Sessions held or logging in (gauge)
    Labels: endpoint
  - palo_pool_pending_requests: Callers waiting for a session (gauge)
    Labels: endpoint
  - palo_pool_queued_total: Acquisitions that had to queue (counter)
    Labels: endpoint
  - palo_pool_logins_total: Login attempts (counter)
    Labels: endpoint, result

Metadata Cache Metrics:
  - palo_schema_discoveries_total: Discovery listings issued (counter)
    Labels: stage (databases, cubes, dimensions, elements)
  - palo_schema_resets_total: Cache resets (counter)
    Labels: reason (explicit, stale)
  - forms_cache_events_total: Row-definition cache events (counter)
    Labels: event (hit, miss, invalidate)

Circuit Breaker Metrics:
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open (gauge)
    Labels: name
  - circuit_breaker_requests_total: Calls through the breaker (counter)
    Labels: name, result (success, failure, rejected)
  - circuit_breaker_consecutive_failures: Current failure streak (gauge)
    Labels: name
  - circuit_breaker_state_transitions_total: State changes (counter)
    Labels: name, from_state, to_state

# Usage

Record helpers keep label handling in one place:

	start := time.Now()
	resp, err := doCall()
	metrics.RecordPaloRequest("/cell/values", "success", time.Since(start))
*/
package metrics
