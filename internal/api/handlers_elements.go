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

// getElements handles GET /apalo/elements. dim may be a bracketed list,
// in which case format, type, level and parent must be lists of the same
// length when given. A single dimension is answered with its listing
// directly rather than a one-element array.
func (rt *Router) getElements(w http.ResponseWriter, r *http.Request) {
	db, queries, msg := parseElementQueries(r.URL.Query())
	if msg != "" {
		respondError(w, r, http.StatusBadRequest, msg)
		return
	}

	lists, err := rt.svc.GetElements(r.Context(), db, queries)
	var out any = lists
	if err == nil && len(lists) == 1 {
		out = lists[0]
	}
	olap.Respond(newResponder(w, r), out, err)
}

// parseElementQueries returns a non-empty message for invalid parameters.
func parseElementQueries(q url.Values) (string, []olap.ElementQuery, string) {
	db := rangespec.RemoveQuotes(q.Get("db"), false)
	if db == "" {
		return "", nil, "Missing or invalid db parameter"
	}
	dims, err := rangespec.ParseValueList(q.Get("dim"))
	if err != nil || len(dims) == 0 {
		return "", nil, "Missing or invalid dim parameter"
	}

	queries := make([]olap.ElementQuery, len(dims))
	for i, d := range dims {
		queries[i] = olap.ElementQuery{Dimension: d, Format: olap.FormatFlat, Type: olap.TypeAll}
	}

	formats, msg := paramList(q, "format", len(dims), "Invalid format parameter.")
	if msg != "" {
		return "", nil, msg
	}
	for i, f := range formats {
		v, ok := olap.ParseFormat(f)
		if !ok {
			return "", nil, "Invalid format parameter."
		}
		queries[i].Format = v
	}

	types, msg := paramList(q, "type", len(dims), "Invalid type parameter.")
	if msg != "" {
		return "", nil, msg
	}
	for i, t := range types {
		v, ok := olap.ParseElementType(t)
		if !ok {
			return "", nil, "Invalid type parameter"
		}
		queries[i].Type = v
	}

	levels, msg := paramList(q, "level", len(dims), "Invalid level parameter.")
	if msg != "" {
		return "", nil, msg
	}
	for i, l := range levels {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			return "", nil, "Invalid level parameter"
		}
		queries[i].Level = n
	}

	parents, msg := paramList(q, "parent", len(dims), "Invalid parent parameter.")
	if msg != "" {
		return "", nil, msg
	}
	for i, p := range parents {
		queries[i].Parent = p
		queries[i].HasParent = true
	}

	return db, queries, ""
}

// paramList parses an optional list parameter that must have n entries.
func paramList(q url.Values, key string, n int, invalid string) ([]string, string) {
	vals, err := rangespec.ParseValueList(q.Get(key))
	if err != nil {
		return nil, invalid
	}
	if vals == nil {
		return nil, ""
	}
	if len(vals) != n {
		return nil, invalid
	}
	return vals, ""
}
