// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package palo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeServer records requests and routes them by path.
type fakeServer struct {
	mu       sync.Mutex
	requests []*http.Request
	routes   map[string]http.HandlerFunc
}

func newFakeServer(t *testing.T, routes map[string]http.HandlerFunc) (*fakeServer, *Client) {
	t.Helper()
	fs := &fakeServer{routes: routes}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		fs.requests = append(fs.requests, r)
		fs.mu.Unlock()
		h, ok := fs.routes[r.URL.Path]
		if !ok {
			http.Error(w, "1000;unknown path", http.StatusBadRequest)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}
	return fs, NewClient(NewEndpoint(u.Hostname(), u.Port()), Config{Timeout: 5 * time.Second})
}

func (fs *fakeServer) count(path string) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	n := 0
	for _, r := range fs.requests {
		if r.URL.Path == path {
			n++
		}
	}
	return n
}

func (fs *fakeServer) last(path string) *http.Request {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for i := len(fs.requests) - 1; i >= 0; i-- {
		if fs.requests[i].URL.Path == path {
			return fs.requests[i]
		}
	}
	return nil
}

func reply(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}
}

// TestLogin tests session creation and password parameter selection
func TestLogin(t *testing.T) {
	t.Parallel()

	fs, c := newFakeServer(t, map[string]http.HandlerFunc{
		PathLogin: reply("abc123;300;\n"),
	})

	sess, err := c.Login(context.Background(), Credentials{User: "admin", Password: "secret"})
	if err != nil {
		t.Fatalf("Login error = %v", err)
	}
	if sess.ID != "abc123" || sess.Timeout != 300*time.Second || !sess.Busy {
		t.Errorf("session = %+v, want id abc123, 300s timeout, busy", sess)
	}
	q := fs.last(PathLogin).URL.Query()
	if q.Get("extern_password") != "secret" || q.Has("password") {
		t.Errorf("query = %v, want extern_password only", q)
	}

	if _, err := c.Login(context.Background(), Credentials{User: "admin", Password: "0xABCDEF"}); err != nil {
		t.Fatalf("Login error = %v", err)
	}
	q = fs.last(PathLogin).URL.Query()
	if q.Get("password") != "abcdef" || q.Has("extern_password") {
		t.Errorf("query = %v, want password=abcdef", q)
	}
}

// TestLoginRejected tests that a refused login is an auth error
func TestLoginRejected(t *testing.T) {
	t.Parallel()

	_, c := newFakeServer(t, map[string]http.HandlerFunc{
		PathLogin: func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "1018;authentication failed", http.StatusBadRequest)
		},
	})
	_, err := c.Login(context.Background(), Credentials{User: "x", Password: "y"})
	if !errors.Is(err, ErrAuth) {
		t.Errorf("Login error = %v, want ErrAuth", err)
	}
}

// TestSendTokenMismatch tests detection of the stale token reply
func TestSendTokenMismatch(t *testing.T) {
	t.Parallel()

	fs, c := newFakeServer(t, map[string]http.HandlerFunc{
		PathLogin: reply("fresh;600;"),
		PathCellValue: func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "5001;cube token outdated", http.StatusBadRequest)
		},
	})

	// A reused session reconnects once before the mismatch is reported.
	sess := &Session{ID: "s1", Timeout: time.Minute, Reused: true, Creds: Credentials{User: "u", Password: "p"}}
	_, _, err := c.ReadCells(context.Background(), sess, 1, 2, [][]int{{1, 2}}, "7")
	if !errors.Is(err, ErrTokenMismatch) {
		t.Errorf("ReadCells error = %v, want ErrTokenMismatch", err)
	}
	if fs.count(PathLogin) != 1 || fs.count(PathCellValue) != 2 || sess.ID != "fresh" {
		t.Errorf("logins = %d, cell calls = %d, session %q; want 1, 2, fresh",
			fs.count(PathLogin), fs.count(PathCellValue), sess.ID)
	}

	// A fresh session reports it directly.
	_, _, err = c.ReadCells(context.Background(), sess, 1, 2, [][]int{{1, 2}}, "7")
	if !errors.Is(err, ErrTokenMismatch) {
		t.Errorf("ReadCells error = %v, want ErrTokenMismatch", err)
	}
	if n := fs.count(PathLogin); n != 1 {
		t.Errorf("logins = %d, want 1", n)
	}
}

// TestSendRetriesReusedSession tests the reconnect after a reused session fails
func TestSendRetriesReusedSession(t *testing.T) {
	t.Parallel()

	fs, c := newFakeServer(t, map[string]http.HandlerFunc{
		PathLogin: reply("fresh;600;"),
		PathDatabases: func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("sid") != "fresh" {
				http.Error(w, "1015;invalid session", http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte("1;Biker;7;8;0;0;\n"))
		},
	})

	sess := &Session{ID: "stale", Timeout: time.Minute, Reused: true, Creds: Credentials{User: "u", Password: "p"}}
	dbs, _, err := c.ListDatabases(context.Background(), sess)
	if err != nil {
		t.Fatalf("ListDatabases error = %v", err)
	}
	if len(dbs) != 1 || dbs[0].Name != "Biker" {
		t.Errorf("databases = %+v, want Biker", dbs)
	}
	if sess.ID != "fresh" || sess.Reused {
		t.Errorf("session = %+v, want id fresh and not reused", sess)
	}
	if n := fs.count(PathDatabases); n != 2 {
		t.Errorf("database calls = %d, want 2", n)
	}
}

// TestSendNoRetryForFreshSession tests that a new session failure is reported
func TestSendNoRetryForFreshSession(t *testing.T) {
	t.Parallel()

	fs, c := newFakeServer(t, map[string]http.HandlerFunc{
		PathLogin: reply("fresh;600;"),
		PathDatabases: func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "1015;invalid session", http.StatusBadRequest)
		},
	})

	sess := &Session{ID: "s", Timeout: time.Minute}
	_, _, err := c.ListDatabases(context.Background(), sess)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadRequest {
		t.Fatalf("error = %v, want StatusError 400", err)
	}
	if !errors.Is(err, ErrTransport) {
		t.Errorf("error = %v, want ErrTransport", err)
	}
	if fs.count(PathLogin) != 0 {
		t.Errorf("login calls = %d, want 0", fs.count(PathLogin))
	}
}

// TestReadCells tests single and bulk cell reads
func TestReadCells(t *testing.T) {
	t.Parallel()

	fs, c := newFakeServer(t, map[string]http.HandlerFunc{
		PathCellValue: func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set(HeaderCubeToken, "42")
			_, _ = w.Write([]byte(`1;1;"1234.5"` + "\n"))
		},
		PathCellValues: reply("1;1;10;\n2;1;\"a \"\"b\"\"\";\n"),
	})
	sess := &Session{ID: "s", Timeout: time.Minute}

	cells, tok, err := c.ReadCells(context.Background(), sess, 1, 3, [][]int{{0, 1, 2}}, "41")
	if err != nil {
		t.Fatalf("ReadCells error = %v", err)
	}
	if len(cells) != 1 || !cells[0].Numeric() || cells[0].Value != "1234.5" {
		t.Errorf("cells = %+v, want one numeric 1234.5", cells)
	}
	if tok.Cube != "42" || sess.Tokens.Cube != "42" {
		t.Errorf("cube token = %q (session %q), want 42", tok.Cube, sess.Tokens.Cube)
	}
	r := fs.last(PathCellValue)
	if got := r.URL.Query().Get("path"); got != "0,1,2" {
		t.Errorf("path = %q, want 0,1,2", got)
	}
	if got := r.Header.Get(HeaderCubeToken); got != "41" {
		t.Errorf("X-PALO-CB = %q, want 41", got)
	}

	cells, _, err = c.ReadCells(context.Background(), sess, 1, 3, [][]int{{0, 1}, {0, 2}}, "")
	if err != nil {
		t.Fatalf("ReadCells error = %v", err)
	}
	if len(cells) != 2 || cells[1].Value != `a "b"` || cells[1].Numeric() {
		t.Errorf("cells = %+v", cells)
	}
	if got := fs.last(PathCellValues).URL.Query().Get("paths"); got != "0,1:0,2" {
		t.Errorf("paths = %q, want 0,1:0,2", got)
	}

	if _, _, err := c.ReadCells(context.Background(), sess, 1, 3, [][]int{{1}, {2}, {3}}, ""); !errors.Is(err, ErrResponseFormat) {
		t.Errorf("short reply error = %v, want ErrResponseFormat", err)
	}
}

// TestWriteCells tests value encoding for cell writes
func TestWriteCells(t *testing.T) {
	t.Parallel()

	fs, c := newFakeServer(t, map[string]http.HandlerFunc{
		PathCellReplace:    reply("1;\n"),
		PathCellReplaceAll: reply("1;\n"),
	})
	sess := &Session{ID: "s", Timeout: time.Minute}

	if _, err := c.WriteCells(context.Background(), sess, 1, 2, [][]int{{1, 2}}, []any{12.5}, ""); err != nil {
		t.Fatalf("WriteCells error = %v", err)
	}
	if got := fs.last(PathCellReplace).URL.RawQuery; !strings.Contains(got, "value=12.5") {
		t.Errorf("query = %q, want value=12.5", got)
	}

	if _, err := c.WriteCells(context.Background(), sess, 1, 2, [][]int{{1}, {2}}, []any{"a b", 3.0}, ""); err != nil {
		t.Fatalf("WriteCells error = %v", err)
	}
	if got := fs.last(PathCellReplaceAll).URL.RawQuery; !strings.Contains(got, "values=a%20b:3") || !strings.Contains(got, "paths=1:2") {
		t.Errorf("query = %q, want values=a%%20b:3 and paths=1:2", got)
	}
}

// TestListings tests schema listing decoders and tokens
func TestListings(t *testing.T) {
	t.Parallel()

	_, c := newFakeServer(t, map[string]http.HandlerFunc{
		PathCubes: func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set(HeaderDatabaseToken, "db-9")
			_, _ = w.Write([]byte("3;\"Orders\";2;0,1;0;0;0;\n4;\"Broken\";1;0;0;0;-1;\n"))
		},
		PathDimensions: reply("0;Years;5;2;0;0;0;7;8;\n"),
		PathElements: func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set(HeaderDimensionToken, "dim-3")
			_, _ = w.Write([]byte("0;All;0;1;0;0;4;0;;2;1,2;1,1;\n1; \"2023\" ;1;0;1;1;1;1;0;0;;;\n"))
		},
	})
	sess := &Session{ID: "s", Timeout: time.Minute}
	ctx := context.Background()

	cubes, tok, err := c.ListCubes(ctx, sess, 1)
	if err != nil {
		t.Fatalf("ListCubes error = %v", err)
	}
	if tok.Database != "db-9" {
		t.Errorf("database token = %q, want db-9", tok.Database)
	}
	if len(cubes) != 1 || cubes[0].Name != "Orders" || cubes[0].DimensionCount != 2 || len(cubes[0].DimensionIDs) != 2 {
		t.Errorf("cubes = %+v", cubes)
	}

	dims, _, err := c.ListDimensions(ctx, sess, 1)
	if err != nil {
		t.Fatalf("ListDimensions error = %v", err)
	}
	if len(dims) != 1 || dims[0].Name != "Years" || dims[0].AttrID != 7 || dims[0].AttrCubeID != 8 {
		t.Errorf("dimensions = %+v", dims)
	}

	elems, tok, err := c.ListElements(ctx, sess, 1, 0, "")
	if err != nil {
		t.Fatalf("ListElements error = %v", err)
	}
	if tok.Dimension != "dim-3" {
		t.Errorf("dimension token = %q, want dim-3", tok.Dimension)
	}
	if len(elems) != 2 || elems[0].ChildIDs != "1,2" || elems[0].Type != 4 || elems[1].ChildIDs != "" || elems[1].Depth != 1 || elems[1].Name != "2023" {
		t.Errorf("elements = %+v", elems)
	}
}

// TestLogoutClearsID tests that logout happens once
func TestLogoutClearsID(t *testing.T) {
	t.Parallel()

	fs, c := newFakeServer(t, map[string]http.HandlerFunc{PathLogout: reply("1;")})
	sess := &Session{ID: "s"}
	if err := c.Logout(context.Background(), sess); err != nil {
		t.Fatalf("Logout error = %v", err)
	}
	if err := c.Logout(context.Background(), sess); err != nil {
		t.Fatalf("second Logout error = %v", err)
	}
	if sess.ID != "" || fs.count(PathLogout) != 1 {
		t.Errorf("id = %q, logout calls = %d, want empty and 1", sess.ID, fs.count(PathLogout))
	}
}
