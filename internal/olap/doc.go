// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

// Package olap orchestrates gateway requests against a PALO server.
//
// A Service turns name-addressed requests (database, cube, dimension and
// element names, ranges and lists) into protocol calls. Each request runs
// on one pooled session:
//
//	discover -> resolve names -> fetch or write cells -> decode
//
// Discovery only runs for catalog stages that are missing. When a name
// cannot be resolved, the database coherence token is checked with the
// server; if it moved, the cached database is cleared and the request is
// replayed once from the start. A cell call answered with a token
// mismatch is replayed the same way. Callers never see the stale
// intermediate failure.
//
// Errors carry an HTTP status through *RequestError; StatusOf maps any
// error returned by the Service.
package olap
