// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

/*
Package palo implements the HTTP query protocol spoken by PALO OLAP servers.

Every call is a GET against a fixed path with ordered query parameters. The
server answers with line-delimited records whose fields are separated by
semicolons and optionally quoted:

	12;"Biker";7;8;0;0;1459;

Besides the body, responses carry coherence tokens in the X-PALO-DB,
X-PALO-CB and X-PALO-DIM headers. A token changes whenever the schema or data
of its scope changes; callers compare it with a cached copy to detect stale
metadata. The server rejects a request sent with an outdated token with a 400
whose body starts with "5001;", which Client reports as ErrTokenMismatch.

# Sessions

Login returns a Session holding the server-issued id and its advertised idle
timeout. A Session is not safe for concurrent use; the pool hands it to one
request at a time. When a call on a freshly reused session fails, Client logs
in again once with the remembered credentials and resubmits the same request.

# Resilience

Each Client wraps its transport in a circuit breaker (sony/gobreaker). Only
network errors and 5xx responses count as failures; 4xx replies and token
mismatches are protocol answers, not outages. The transport is instrumented
with otelhttp so upstream calls show up as client spans.
*/
package palo
