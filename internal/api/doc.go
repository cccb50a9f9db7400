// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

/*
Package api exposes the gateway over HTTP using the Chi router.

Routes:

	GET  /apalo/data         read one cell or a range of cells
	PUT  /apalo/data         write cells (JSON array or CSV body)
	GET  /apalo/elements     list dimension elements, batchable
	GET  /apalo/table        rows from a form file or an expanded dimension
	GET  /apalo/clear-cache  reset cached metadata (admin)
	GET  /apalo/diag         pool statistics (admin)
	GET  /health             liveness
	GET  /metrics            Prometheus

Element names, cubes and databases are passed by name. Dims is a
semicolon-separated list with one entry per cube dimension; an entry
starting with "=" is a range expanded against that dimension:

	GET /apalo/data?db=Biker&cube=Orders&dims=2024;"=Jan,Feb";All Products;Units

Successful responses are the JSON value itself. Failures use an envelope:

	{"error": {"status": 400, "message": "Missing cube parameter", "request_id": "..."}}
*/
package api
