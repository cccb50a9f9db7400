// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cubegate/internal/olap"
	"github.com/tomtom215/cubegate/internal/palo"
	"github.com/tomtom215/cubegate/internal/pool"
	"github.com/tomtom215/cubegate/internal/registry"
)

// upstream is a PALO server holding one cube, Biker/Sales, over the
// dimensions Product (Total > A, B > B1) and Measure (Units).
type upstream struct {
	mu      sync.Mutex
	calls   map[string]int
	queries map[string]url.Values
	cells   map[string]string
}

var productElements = `1;"Total";0;0;0;0;4;0;;0;2,3` + "\n" +
	`2;"A";0;0;0;1;1;0;;0;` + "\n" +
	`3;"B";0;0;0;1;4;0;;0;4` + "\n" +
	`4;"B1";0;0;0;2;1;0;;0;` + "\n"

func newUpstream() *upstream {
	return &upstream{
		calls:   make(map[string]int),
		queries: make(map[string]url.Values),
		cells:   map[string]string{"1,9": "30", "2,9": "30", "3,9": "0", "4,9": "0"},
	}
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	u.mu.Lock()
	u.calls[r.URL.Path]++
	u.queries[r.URL.Path] = q
	u.mu.Unlock()

	switch r.URL.Path {
	case palo.PathLogin:
		_, _ = io.WriteString(w, "sid-1;300;\n")
	case palo.PathLogout, palo.PathCellReplace, palo.PathCellReplaceAll:
		_, _ = io.WriteString(w, "1;\n")
	case palo.PathDatabases:
		_, _ = io.WriteString(w, `1;"Biker";7;2;0;0;`+"\n")
	case palo.PathCubes:
		w.Header().Set(palo.HeaderDatabaseToken, "db-1")
		_, _ = io.WriteString(w, `7;"Sales";2;10,11;0;0;0`+"\n")
	case palo.PathDimensions:
		_, _ = io.WriteString(w, `10;"Product";4;3;0;0;0;-1;-1`+"\n"+`11;"Measure";1;1;0;0;0;-1;-1`+"\n")
	case palo.PathElements:
		switch q.Get("dimension") {
		case "10":
			_, _ = io.WriteString(w, productElements)
		case "11":
			_, _ = io.WriteString(w, `9;"Units";0;0;0;0;1;0;;0;`+"\n")
		default:
			http.Error(w, "1000;no such dimension", http.StatusBadRequest)
		}
	case palo.PathCellValue, palo.PathCellValues:
		paths := q.Get("path")
		if paths == "" {
			paths = q.Get("paths")
		}
		var b strings.Builder
		for _, p := range strings.Split(paths, ":") {
			b.WriteString("1;1;" + u.cells[p] + "\n")
		}
		_, _ = io.WriteString(w, b.String())
	default:
		http.Error(w, "1000;unexpected path", http.StatusBadRequest)
	}
}

func (u *upstream) count(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls[path]
}

func (u *upstream) total() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	n := 0
	for _, c := range u.calls {
		n += c
	}
	return n
}

func (u *upstream) lastQuery(path string) url.Values {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.queries[path]
}

type fixture struct {
	up  *upstream
	svc *olap.Service
	h   http.Handler
}

// newFixture serves a fresh upstream and returns the gateway handler
// bound to it. cfg.Endpoint and cfg.Credentials are filled in.
func newFixture(t *testing.T, cfg olap.Config, opts Options) *fixture {
	t.Helper()
	up := newUpstream()
	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}

	reg := registry.New(registry.Options{
		Client: palo.Config{Timeout: 5 * time.Second},
		Pool:   pool.DefaultConfig(),
	})
	cfg.Endpoint = palo.NewEndpoint(u.Hostname(), u.Port())
	cfg.Credentials = palo.Credentials{User: "admin", Password: "admin"}
	svc := olap.NewService(reg, cfg, nil)
	return &fixture{up: up, svc: svc, h: NewRouter(svc, opts).Handler()}
}

func (f *fixture) do(t *testing.T, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	return rec
}

// errorOf decodes the error envelope of rec.
func errorOf(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var env errorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope %q: %v", rec.Body.String(), err)
	}
	return env.Error
}

func query(kv ...string) string {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Set(kv[i], kv[i+1])
	}
	return v.Encode()
}
