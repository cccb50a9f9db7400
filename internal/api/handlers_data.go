// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cubegate/internal/olap"
	"github.com/tomtom215/cubegate/internal/rangespec"
)

// dataRequest reads db, cube and dims from the query string.
func dataRequest(q url.Values) olap.DataRequest {
	return olap.DataRequest{
		DB:   rangespec.RemoveQuotes(q.Get("db"), false),
		Cube: q.Get("cube"),
		Dims: rangespec.SplitFields(q.Get("dims")),
	}
}

// getData handles GET /apalo/data.
func (rt *Router) getData(w http.ResponseWriter, r *http.Request) {
	res, err := rt.svc.GetData(r.Context(), dataRequest(r.URL.Query()))
	var values []any
	if res != nil {
		values = res.Values
	}
	olap.Respond(newResponder(w, r), values, err)
}

// putData handles PUT /apalo/data. The body is a JSON array when it
// starts with '[', otherwise a comma-separated list with '"' quoting.
func (rt *Router) putData(w http.ResponseWriter, r *http.Request) {
	if !rt.svc.WritesEnabled() {
		respondError(w, r, http.StatusBadRequest, "Data updates are disabled for this application.")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, rt.opts.MaxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, http.StatusBadRequest, "Body is too large.")
			return
		}
		respondError(w, r, http.StatusBadRequest, "Unable to read request body")
		return
	}

	values, err := parseValues(body)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	req := dataRequest(r.URL.Query())
	req.Values = values
	result, err := rt.svc.SetData(r.Context(), req)
	olap.Respond(newResponder(w, r), result, err)
}

func parseValues(body []byte) ([]any, error) {
	body = bytes.TrimLeft(body, " \t\r\n")
	if len(body) > 0 && body[0] == '[' {
		var values []any
		if err := json.Unmarshal(body, &values); err != nil {
			return nil, fmt.Errorf("invalid JSON body: %v", err)
		}
		return values, nil
	}

	tokens, err := rangespec.Parse(string(bytes.TrimRight(body, " \t\r\n")), rangespec.ListOptions())
	if err != nil {
		return nil, fmt.Errorf("invalid value list: %v", err)
	}
	values := make([]any, len(tokens))
	for i, t := range tokens {
		values[i] = t
	}
	return values, nil
}
