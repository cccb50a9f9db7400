// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

// Package middleware provides HTTP middleware for the gateway router.
//
// All middleware has the chi signature func(http.Handler) http.Handler:
//
//   - RequestID: accepts or generates X-Request-ID and seeds the logging
//     context with request and correlation IDs
//   - PrometheusMetrics: request counts and latency by route pattern
//   - AccessLog: one structured log line per request
//   - SecurityHeaders: conservative response headers for a JSON API
//
// Typical ordering:
//
//	r := chi.NewRouter()
//	r.Use(middleware.RequestID)
//	r.Use(middleware.AccessLog)
//	r.Use(middleware.PrometheusMetrics)
//	r.Use(middleware.SecurityHeaders)
package middleware
