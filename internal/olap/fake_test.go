// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package olap

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/cubegate/internal/palo"
	"github.com/tomtom215/cubegate/internal/pool"
	"github.com/tomtom215/cubegate/internal/registry"
)

// fakePalo serves a scripted PALO protocol. Handlers can be replaced per
// test; every request is counted by path.
type fakePalo struct {
	t *testing.T

	mu       sync.Mutex
	calls    map[string]int
	queries  map[string][]url.Values
	handlers map[string]http.HandlerFunc
	elements map[string]string
}

func newFakePalo(t *testing.T) *fakePalo {
	t.Helper()
	f := &fakePalo{
		t:        t,
		calls:    make(map[string]int),
		queries:  make(map[string][]url.Values),
		handlers: make(map[string]http.HandlerFunc),
		elements: make(map[string]string),
	}
	f.handle(palo.PathLogin, text("sid-1;300;\n"))
	f.handle(palo.PathLogout, text("1;\n"))
	f.handle(palo.PathDatabases, text(`1;"Biker";7;2;0;0;`+"\n"))
	f.handle(palo.PathElements, func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		body, ok := f.elements[r.URL.Query().Get("dimension")]
		f.mu.Unlock()
		if !ok {
			http.Error(w, "1000;no such dimension", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(body))
	})
	return f
}

func (f *fakePalo) handle(path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[path] = h
}

func (f *fakePalo) setElements(dimID, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.elements[dimID] = body
}

func (f *fakePalo) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func (f *fakePalo) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakePalo) lastQuery(path string) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := f.queries[path]
	if len(q) == 0 {
		return nil
	}
	return q[len(q)-1]
}

func (f *fakePalo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls[r.URL.Path]++
	f.queries[r.URL.Path] = append(f.queries[r.URL.Path], r.URL.Query())
	h, ok := f.handlers[r.URL.Path]
	f.mu.Unlock()
	if !ok {
		http.Error(w, "1000;unexpected path", http.StatusBadRequest)
		return
	}
	h(w, r)
}

// start serves f and returns a Service bound to it.
func (f *fakePalo) start(cfg Config, forms FormSource) *Service {
	f.t.Helper()
	srv := httptest.NewServer(f)
	f.t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	if err != nil {
		f.t.Fatalf("parse server URL: %v", err)
	}
	reg := registry.New(registry.Options{
		Client: palo.Config{Timeout: 5 * time.Second},
		Pool:   pool.DefaultConfig(),
	})
	cfg.Endpoint = palo.NewEndpoint(u.Hostname(), u.Port())
	cfg.Credentials = palo.Credentials{User: "admin", Password: "admin"}
	return NewService(reg, cfg, forms)
}

func text(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}
}

func withToken(header, token, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(header, token)
		_, _ = w.Write([]byte(body))
	}
}

// element renders a dimension/elements row.
func element(id int, name string, depth int, children string) string {
	typ := "1"
	if children != "" {
		typ = "4"
	}
	return strconv.Itoa(id) + `;"` + name + `";0;0;0;` + strconv.Itoa(depth) + ";" + typ + ";0;;0;" + children + "\n"
}

// salesFixture is a two-dimensional cube: Product x Measure.
//
//	Total
//	  A
//	  B
//	    B1
func salesFixture(f *fakePalo) {
	f.handle(palo.PathCubes, withToken(palo.HeaderDatabaseToken, "db-1", `7;"Sales";2;10,11;0;0;0`+"\n"))
	f.handle(palo.PathDimensions, text(
		`10;"Product";4;3;0;0;0;-1;-1`+"\n"+
			`11;"Measure";1;1;0;0;0;-1;-1`+"\n"))
	f.setElements("10",
		element(1, "Total", 0, "2,3")+
			element(2, "A", 1, "")+
			element(3, "B", 1, "4")+
			element(4, "B1", 2, ""))
	f.setElements("11", element(9, "Units", 0, ""))
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
