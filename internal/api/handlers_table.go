// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/tomtom215/cubegate/internal/olap"
	"github.com/tomtom215/cubegate/internal/rangespec"
)

// getTable handles GET /apalo/table.
func (rt *Router) getTable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := olap.TableRequest{
		DB:           rangespec.RemoveQuotes(q.Get("db"), false),
		Cube:         q.Get("cube"),
		Dims:         rangespec.SplitFields(q.Get("dims")),
		Form:         q.Get("form"),
		Expand:       q.Get("expand"),
		Level:        intParam(q, "level"),
		Indent:       intParam(q, "indent"),
		NonEmpty:     bool(olap.ParseFlag(q.Get("nonempty"))),
		NumberFormat: q.Get("numberformat"),
		Headers:      q.Get("headers"),
	}
	rows, err := rt.svc.GetTable(r.Context(), req)
	olap.Respond(newResponder(w, r), rows, err)
}

// intParam returns a non-negative integer parameter, or -1 when it is
// missing or invalid.
func intParam(q url.Values, key string) int {
	n, err := strconv.Atoi(q.Get(key))
	if err != nil || n < 0 {
		return -1
	}
	return n
}
