// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

// QuerySemicolons escapes raw semicolons in the query string. Element
// addresses such as dims=A;Units use ';' as a field separator, and
// url.ParseQuery drops any pair holding an unescaped one.
func QuerySemicolons(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.RawQuery, ";") {
			r2 := new(http.Request)
			*r2 = *r
			r2.URL = new(url.URL)
			*r2.URL = *r.URL
			r2.URL.RawQuery = strings.ReplaceAll(r.URL.RawQuery, ";", "%3B")
			r = r2
		}
		next.ServeHTTP(w, r)
	})
}
