// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package api

import (
	"net/http"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cubegate/internal/auth"
	"github.com/tomtom215/cubegate/internal/olap"
	"github.com/tomtom215/cubegate/internal/palo"
)

func decode(t *testing.T, body []byte) any {
	t.Helper()
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	return v
}

// TestGetData tests a cell read with raw and escaped separators
func TestGetData(t *testing.T) {
	t.Parallel()

	f := newFixture(t, olap.Config{}, Options{})
	for _, target := range []string{
		"/apalo/data?db=Biker&cube=Sales&dims=A;Units",
		"/apalo/data?" + query("db", `"Biker"`, "cube", "Sales", "dims", "A;Units"),
	} {
		rec := f.do(t, http.MethodGet, target, "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, body %s", target, rec.Code, rec.Body)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
			t.Errorf("Content-Type = %q", ct)
		}
		if got := decode(t, rec.Body.Bytes()); !reflect.DeepEqual(got, []any{30.0}) {
			t.Errorf("%s: body = %#v, want [30]", target, got)
		}
	}
	if q := f.up.lastQuery(palo.PathCellValue); q.Get("path") != "2,9" {
		t.Errorf("cell path = %q, want 2,9", q.Get("path"))
	}
	if n := f.up.count(palo.PathLogin); n != 1 {
		t.Errorf("logins = %d, want 1", n)
	}
}

// TestGetDataErrors tests the error envelope for rejected reads
func TestGetDataErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cfg    olap.Config
		query  string
		status int
		msg    string
	}{
		{
			name:   "missing db",
			query:  query("cube", "Sales", "dims", "A;Units"),
			status: http.StatusBadRequest,
			msg:    "Missing db parameter",
		},
		{
			name:   "database not permitted",
			cfg:    olap.Config{AllowDatabases: []string{"Demo"}},
			query:  query("db", "Biker", "cube", "Sales", "dims", "A;Units"),
			status: http.StatusBadRequest,
			msg:    "The requested database is not permitted for this application.",
		},
		{
			name:   "unknown database",
			query:  query("db", "Nope", "cube", "Sales", "dims", "A;Units"),
			status: http.StatusBadRequest,
			msg:    "The database is not defined on the specified OLAP server.",
		},
		{
			name:   "unknown cube",
			query:  query("db", "Biker", "cube", "Orders", "dims", "A;Units"),
			status: http.StatusBadRequest,
			msg:    "Cube 'Orders' is not defined in the database.",
		},
		{
			name:   "dimension count",
			query:  query("db", "Biker", "cube", "Sales", "dims", "A"),
			status: http.StatusBadRequest,
			msg:    "Wrong number of dimension elements supplied (should be 2)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, tt.cfg, Options{})
			rec := f.do(t, http.MethodGet, "/apalo/data?"+tt.query, "", nil)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body)
			}
			e := errorOf(t, rec)
			if e.Message != tt.msg || e.Status != tt.status {
				t.Errorf("error = %+v, want %d %q", e, tt.status, tt.msg)
			}
			if e.RequestID == "" {
				t.Error("error envelope has no request_id")
			}
		})
	}
}

// TestPutDataDisabled tests that writes are refused before any upstream call
func TestPutDataDisabled(t *testing.T) {
	t.Parallel()

	f := newFixture(t, olap.Config{}, Options{})
	rec := f.do(t, http.MethodPut, "/apalo/data?"+query("db", "Biker", "cube", "Sales", "dims", "A;Units"), "[1]", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if e := errorOf(t, rec); e.Message != "Data updates are disabled for this application." {
		t.Errorf("message = %q", e.Message)
	}
	if n := f.up.total(); n != 0 {
		t.Errorf("upstream calls = %d, want 0", n)
	}
}

// TestPutData tests JSON and comma-separated write bodies
func TestPutData(t *testing.T) {
	t.Parallel()

	f := newFixture(t, olap.Config{AllowSetData: true}, Options{})

	rec := f.do(t, http.MethodPut, "/apalo/data?"+query("db", "Biker", "cube", "Sales", "dims", "A;Units"), "[12.5]", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("JSON status = %d, body %s", rec.Code, rec.Body)
	}
	if got := decode(t, rec.Body.Bytes()); got != "OK" {
		t.Errorf("JSON body = %#v, want OK", got)
	}
	if q := f.up.lastQuery(palo.PathCellReplace); q.Get("path") != "2,9" || q.Get("value") != "12.5" {
		t.Errorf("replace query = %v", q)
	}

	rec = f.do(t, http.MethodPut, "/apalo/data?"+query("db", "Biker", "cube", "Sales", "dims", `"=A,B";Units`), `1,"x y"`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, body %s", rec.Code, rec.Body)
	}
	if q := f.up.lastQuery(palo.PathCellReplaceAll); q.Get("paths") != "2,9:3,9" || q.Get("values") != "1:x y" {
		t.Errorf("replace_bulk query = %v", q)
	}

	rec = f.do(t, http.MethodPut, "/apalo/data?"+query("db", "Biker", "cube", "Sales", "dims", `"=A,B";Units`), "[1]", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short status = %d, want 400", rec.Code)
	}
	if e := errorOf(t, rec); e.Message != "Wrong number of values supplied (should be 2)" {
		t.Errorf("short message = %q", e.Message)
	}
}

// TestPutDataBody tests oversized and malformed bodies
func TestPutDataBody(t *testing.T) {
	t.Parallel()

	f := newFixture(t, olap.Config{AllowSetData: true}, Options{MaxBody: 8})
	target := "/apalo/data?" + query("db", "Biker", "cube", "Sales", "dims", "A;Units")

	rec := f.do(t, http.MethodPut, target, "[1,2,3,4,5,6]", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("large status = %d, want 400", rec.Code)
	}
	if e := errorOf(t, rec); e.Message != "Body is too large." {
		t.Errorf("large message = %q", e.Message)
	}

	rec = f.do(t, http.MethodPut, target, "[1,", nil)
	if e := errorOf(t, rec); rec.Code != http.StatusBadRequest || !strings.HasPrefix(e.Message, "invalid JSON body") {
		t.Errorf("malformed = %d %q", rec.Code, e.Message)
	}
	if n := f.up.total(); n != 0 {
		t.Errorf("upstream calls = %d, want 0", n)
	}
}

// TestParseValues tests write body decoding
func TestParseValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		body string
		want []any
	}{
		{`[1, "a", null]`, []any{1.0, "a", nil}},
		{"  \n[2]", []any{2.0}},
		{`1,"a,b", c`, []any{"1", "a,b", "c"}},
		{"1-3", []any{"1-3"}},
	}
	for _, tt := range tests {
		got, err := parseValues([]byte(tt.body))
		if err != nil {
			t.Errorf("parseValues(%q) error = %v", tt.body, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseValues(%q) = %#v, want %#v", tt.body, got, tt.want)
		}
	}
	for _, body := range []string{`"open`, `[1,`} {
		if _, err := parseValues([]byte(body)); err == nil {
			t.Errorf("parseValues(%q): expected error", body)
		}
	}
}

// TestGetElements tests single and batched element listings
func TestGetElements(t *testing.T) {
	t.Parallel()

	f := newFixture(t, olap.Config{}, Options{})

	rec := f.do(t, http.MethodGet, "/apalo/elements?db=Biker&dim=Product", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if got := decode(t, rec.Body.Bytes()); !reflect.DeepEqual(got, []any{"Total", "A", "B", "B1"}) {
		t.Errorf("single = %#v", got)
	}

	rec = f.do(t, http.MethodGet, "/apalo/elements?"+query("db", "Biker", "dim", "[Measure,Product]", "type", "[all,base]"), "", nil)
	want := []any{[]any{"Units"}, []any{"A", "B1"}}
	if got := decode(t, rec.Body.Bytes()); !reflect.DeepEqual(got, want) {
		t.Errorf("batch = %#v, want %#v", got, want)
	}

	rec = f.do(t, http.MethodGet, "/apalo/elements?"+query("db", "Biker", "dim", "Product", "format", "hierarchy"), "", nil)
	want = []any{[]any{"Total", "A", []any{"B", "B1"}}}
	if got := decode(t, rec.Body.Bytes()); !reflect.DeepEqual(got, want) {
		t.Errorf("hierarchy = %#v, want %#v", got, want)
	}

	rec = f.do(t, http.MethodGet, "/apalo/elements?"+query("db", "Biker", "dim", "Product", "parent", "B"), "", nil)
	if got := decode(t, rec.Body.Bytes()); !reflect.DeepEqual(got, []any{"B1"}) {
		t.Errorf("children = %#v", got)
	}
}

// TestGetElementsInvalid tests parameter validation
func TestGetElementsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		msg   string
	}{
		{"no db", query("dim", "Product"), "Missing or invalid db parameter"},
		{"no dim", query("db", "Biker"), "Missing or invalid dim parameter"},
		{"unclosed dim", query("db", "Biker", "dim", "[A,B"), "Missing or invalid dim parameter"},
		{"format count", query("db", "Biker", "dim", "[A,B]", "format", "[flat]"), "Invalid format parameter."},
		{"format value", query("db", "Biker", "dim", "A", "format", "xml"), "Invalid format parameter."},
		{"type count", query("db", "Biker", "dim", "[A,B]", "type", "[all]"), "Invalid type parameter."},
		{"type value", query("db", "Biker", "dim", "A", "type", "leaf"), "Invalid type parameter"},
		{"level value", query("db", "Biker", "dim", "A", "level", "-1"), "Invalid level parameter"},
		{"parent count", query("db", "Biker", "dim", "[A,B]", "parent", "[x]"), "Invalid parent parameter."},
	}

	f := newFixture(t, olap.Config{}, Options{})
	for _, tt := range tests {
		rec := f.do(t, http.MethodGet, "/apalo/elements?"+tt.query, "", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tt.name, rec.Code)
			continue
		}
		if e := errorOf(t, rec); e.Message != tt.msg {
			t.Errorf("%s: message = %q, want %q", tt.name, e.Message, tt.msg)
		}
	}
	if n := f.up.total(); n != 0 {
		t.Errorf("upstream calls = %d, want 0", n)
	}
}

// TestGetTable tests an expanded table with suppressed empty rows
func TestGetTable(t *testing.T) {
	t.Parallel()

	f := newFixture(t, olap.Config{}, Options{})
	rec := f.do(t, http.MethodGet, "/apalo/table?"+query(
		"db", "Biker", "cube", "Sales", "dims", `"Total";Units`,
		"expand", "Product", "level", "0", "indent", "2", "nonempty", "1", "numberformat", "0,",
	), "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	want := []any{
		[]any{"Total", "30"},
		[]any{"  A", "30"},
	}
	if got := decode(t, rec.Body.Bytes()); !reflect.DeepEqual(got, want) {
		t.Errorf("rows = %#v, want %#v", got, want)
	}

	rec = f.do(t, http.MethodGet, "/apalo/table?"+query("db", "Biker", "cube", "Sales", "dims", "A;Units"), "", nil)
	if e := errorOf(t, rec); rec.Code != http.StatusBadRequest || e.Message != "Missing form or expand parameter" {
		t.Errorf("no source = %d %q", rec.Code, e.Message)
	}
}

// TestIntParam tests optional integer parameters
func TestIntParam(t *testing.T) {
	t.Parallel()

	tests := map[string]int{"": -1, "x": -1, "-2": -1, "0": 0, "3": 3}
	for in, want := range tests {
		q := map[string][]string{"level": {in}}
		if got := intParam(q, "level"); got != want {
			t.Errorf("intParam(%q) = %d, want %d", in, got, want)
		}
	}
}

// TestAdminOpen tests the admin routes without a token manager
func TestAdminOpen(t *testing.T) {
	t.Parallel()

	f := newFixture(t, olap.Config{}, Options{})

	rec := f.do(t, http.MethodGet, "/apalo/clear-cache", "", nil)
	if e := errorOf(t, rec); rec.Code != http.StatusBadRequest || e.Message != "Missing db parameter" {
		t.Errorf("clear-cache without db = %d %q", rec.Code, e.Message)
	}

	rec = f.do(t, http.MethodGet, "/apalo/clear-cache?db=*", "", nil)
	if rec.Code != http.StatusOK || decode(t, rec.Body.Bytes()) != "OK" {
		t.Errorf("clear-cache = %d %s", rec.Code, rec.Body)
	}

	tests := []struct {
		query string
		msg   string
	}{
		{"", "Missing func parameter"},
		{"?func=dump", "Bad function"},
	}
	for _, tt := range tests {
		rec := f.do(t, http.MethodGet, "/apalo/diag"+tt.query, "", nil)
		if e := errorOf(t, rec); rec.Code != http.StatusBadRequest || e.Message != tt.msg {
			t.Errorf("diag%s = %d %q, want %q", tt.query, rec.Code, e.Message, tt.msg)
		}
	}

	f.do(t, http.MethodGet, "/apalo/data?db=Biker&cube=Sales&dims=A;Units", "", nil)
	rec = f.do(t, http.MethodGet, "/apalo/diag?func=stats", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("diag status = %d", rec.Code)
	}
	var stats []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if len(stats) != 1 || stats[0]["Server"] == nil {
		t.Errorf("stats = %v, want one endpoint", stats)
	}
}

// TestAdminToken tests bearer token enforcement on the admin routes
func TestAdminToken(t *testing.T) {
	t.Parallel()

	m, err := auth.NewJWTManager(strings.Repeat("s", 32), time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager error = %v", err)
	}
	admin, err := m.GenerateToken("ops", auth.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken error = %v", err)
	}
	viewer, err := m.GenerateToken("dash", "viewer")
	if err != nil {
		t.Fatalf("GenerateToken error = %v", err)
	}

	f := newFixture(t, olap.Config{}, Options{Admin: m})
	bearer := func(tok string) http.Header {
		return http.Header{"Authorization": {"Bearer " + tok}}
	}

	tests := []struct {
		name   string
		header http.Header
		status int
	}{
		{"no token", nil, http.StatusUnauthorized},
		{"garbage", bearer("not-a-token"), http.StatusUnauthorized},
		{"wrong role", bearer(viewer), http.StatusForbidden},
		{"admin", bearer(admin), http.StatusOK},
	}
	for _, tt := range tests {
		rec := f.do(t, http.MethodGet, "/apalo/clear-cache?db=Biker", "", tt.header)
		if rec.Code != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.name, rec.Code, tt.status)
		}
	}

	// Data routes stay open.
	rec := f.do(t, http.MethodGet, "/apalo/data?db=Biker&cube=Sales&dims=A;Units", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("data status = %d, want 200", rec.Code)
	}
}

// TestHealth tests the health report before and after shutdown
func TestHealth(t *testing.T) {
	t.Parallel()

	f := newFixture(t, olap.Config{}, Options{Version: "1.2.3"})

	rec := f.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var h healthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &h); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if h.Status != "ok" || h.Version != "1.2.3" {
		t.Errorf("health = %+v", h)
	}

	f.svc.Shutdown()
	rec = f.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status after shutdown = %d, want 503", rec.Code)
	}
	rec = f.do(t, http.MethodGet, "/apalo/clear-cache?db=*", "", nil)
	if e := errorOf(t, rec); rec.Code != http.StatusInternalServerError || e.Message != "Server is shut down" {
		t.Errorf("clear-cache after shutdown = %d %q", rec.Code, e.Message)
	}
	rec = f.do(t, http.MethodGet, "/apalo/data?db=Biker&cube=Sales&dims=A;Units", "", nil)
	if e := errorOf(t, rec); rec.Code != http.StatusInternalServerError || e.Message != "Server is shut down" {
		t.Errorf("data after shutdown = %d %q, want 500", rec.Code, e.Message)
	}
}

// TestRouting tests unknown routes and methods
func TestRouting(t *testing.T) {
	t.Parallel()

	f := newFixture(t, olap.Config{}, Options{})
	tests := []struct {
		method string
		target string
		status int
		msg    string
	}{
		{http.MethodGet, "/apalo/", http.StatusBadRequest, "No function specified."},
		{http.MethodGet, "/apalo/nope", http.StatusNotFound, "Not found"},
		{http.MethodGet, "/elsewhere", http.StatusNotFound, "Not found"},
		{http.MethodDelete, "/apalo/data", http.StatusMethodNotAllowed, "Method not allowed"},
	}
	for _, tt := range tests {
		rec := f.do(t, tt.method, tt.target, "", nil)
		if rec.Code != tt.status {
			t.Errorf("%s %s: status = %d, want %d", tt.method, tt.target, rec.Code, tt.status)
			continue
		}
		if e := errorOf(t, rec); e.Message != tt.msg {
			t.Errorf("%s %s: message = %q, want %q", tt.method, tt.target, e.Message, tt.msg)
		}
	}

	rec := f.do(t, http.MethodGet, "/apalo/", "", http.Header{"X-Request-Id": {"trace-42"}})
	if got := rec.Header().Get("X-Request-ID"); got != "trace-42" {
		t.Errorf("X-Request-ID = %q, want trace-42", got)
	}
	if e := errorOf(t, rec); e.RequestID != "trace-42" {
		t.Errorf("request_id = %q, want trace-42", e.RequestID)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}

// TestRateLimit tests rejection past the per-client limit
func TestRateLimit(t *testing.T) {
	t.Parallel()

	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitRequests = 2
	f := newFixture(t, olap.Config{}, Options{Middleware: cfg})

	for i := 0; i < 2; i++ {
		if rec := f.do(t, http.MethodGet, "/apalo/", "", nil); rec.Code != http.StatusBadRequest {
			t.Fatalf("request %d: status = %d, want 400", i, rec.Code)
		}
	}
	rec := f.do(t, http.MethodGet, "/apalo/", "", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if e := errorOf(t, rec); e.Message != "Too many requests" {
		t.Errorf("message = %q", e.Message)
	}

	// Health is outside the limited group.
	if rec := f.do(t, http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}

// TestSanitizeLogValue tests control character escaping
func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"plain":        "plain",
		"a\nb":         `a\x0ab`,
		"tab\there":    `tab\x09here`,
		"del\x7f":      `del\x7f`,
		"unicode é ok": "unicode é ok",
	}
	for in, want := range tests {
		if got := sanitizeLogValue(in); got != want {
			t.Errorf("sanitizeLogValue(%q) = %q, want %q", in, got, want)
		}
	}
}
