// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package palo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tomtom215/cubegate/internal/logging"
	"github.com/tomtom215/cubegate/internal/metrics"
)

// Config configures a Client.
type Config struct {
	// Timeout bounds each HTTP call. Zero disables the limit.
	Timeout time.Duration
	// Quote is the field quote character in responses.
	Quote byte
	Breaker BreakerConfig
	// Transport overrides the base round tripper. Tests use it.
	Transport http.RoundTripper
}

// Client speaks the PALO protocol to one endpoint.
type Client struct {
	endpoint Endpoint
	baseURL  string
	http     *http.Client
	breaker  *breaker
	quote    byte
	now      func() time.Time
	log      zerolog.Logger
}

// NewClient creates a client for ep.
func NewClient(ep Endpoint, cfg Config) *Client {
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	if cfg.Quote == 0 {
		cfg.Quote = '"'
	}
	if cfg.Breaker.FailureThreshold == 0 {
		cfg.Breaker = DefaultBreakerConfig()
	}
	return &Client{
		endpoint: ep,
		baseURL:  ep.BaseURL(),
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(base),
		},
		breaker: newBreaker("palo-"+ep.String(), cfg.Breaker),
		quote:   cfg.Quote,
		now:     time.Now,
		log:     logging.WithComponent("palo").With().Str("endpoint", ep.String()).Logger(),
	}
}

// Endpoint returns the server this client talks to.
func (c *Client) Endpoint() Endpoint {
	return c.endpoint
}

// BreakerState reports the circuit breaker state.
func (c *Client) BreakerState() string {
	return c.breaker.State()
}

// Login authenticates and returns a busy session. Passwords written as
// 0x-prefixed hex digests are sent as password, anything else as
// extern_password.
func (c *Client) Login(ctx context.Context, creds Credentials) (*Session, error) {
	req := NewRequest(PathLogin).Add("user", creds.User)
	if hex, ok := strings.CutPrefix(creds.Password, "0x"); ok {
		req.Add("password", strings.ToLower(hex))
	} else {
		req.Add("extern_password", creds.Password)
	}

	resp, err := c.roundTrip(ctx, req, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuth, err)
	}
	rows, err := resp.Records(c.quote, loginFields)
	if err != nil || len(rows) == 0 {
		return nil, fmt.Errorf("%w: %w: bad login reply %q", ErrAuth, ErrResponseFormat, resp.Body)
	}
	secs, err := strconv.Atoi(strings.TrimSpace(rows[0][1]))
	if err != nil {
		return nil, fmt.Errorf("%w: %w: session timeout %q", ErrAuth, ErrResponseFormat, rows[0][1])
	}

	c.log.Debug().Str("user", creds.User).Int("timeout_s", secs).Msg("Logged in")
	return &Session{
		ID:       rows[0][0],
		Timeout:  time.Duration(secs) * time.Second,
		LastUsed: c.now(),
		Creds:    creds,
		Busy:     true,
	}, nil
}

// Logout ends the server session. The session id is cleared first, so a
// session is logged out at most once.
func (c *Client) Logout(ctx context.Context, sess *Session) error {
	if sess == nil || sess.ID == "" {
		return nil
	}
	req := NewRequest(PathLogout).Add("sid", sess.ID)
	sess.ID = ""
	_, err := c.roundTrip(ctx, req, nil)
	return err
}

// Send issues req on sess and records the response tokens on the session.
//
// When sess was just taken from the pool and the call fails for any
// reason, token mismatches included, the session is assumed to have
// expired server side: Send logs in again with the remembered credentials,
// substitutes the new id and resubmits once. Logouts are never retried.
func (c *Client) Send(ctx context.Context, sess *Session, req *Request, hdr http.Header) (*Response, error) {
	req.Set("sid", sess.ID)
	resp, err := c.sessionTrip(ctx, sess, req, hdr)
	if err == nil || !sess.Reused || req.Path == PathLogout {
		return resp, err
	}

	sess.Reused = false
	c.log.Info().Err(err).Str("path", req.Path).Msg("Reused session failed, reconnecting")
	fresh, lerr := c.Login(ctx, sess.Creds)
	if lerr != nil {
		sess.ID = ""
		return nil, lerr
	}
	sess.ID = fresh.ID
	sess.Timeout = fresh.Timeout
	req.Set("sid", sess.ID)
	return c.sessionTrip(ctx, sess, req, hdr)
}

func (c *Client) sessionTrip(ctx context.Context, sess *Session, req *Request, hdr http.Header) (*Response, error) {
	resp, err := c.roundTrip(ctx, req, hdr)
	sess.LastUsed = c.now()
	if err != nil {
		return nil, err
	}
	sess.Reused = false
	sess.Tokens = resp.Tokens
	return resp, nil
}

// roundTrip performs one GET through the breaker.
func (c *Client) roundTrip(ctx context.Context, req *Request, hdr http.Header) (*Response, error) {
	start := time.Now()
	resp, err := c.breaker.execute(func() (*Response, error) {
		return c.do(ctx, req, hdr)
	})
	metrics.RecordPaloRequest(req.Path, outcome(err), time.Since(start))
	if err != nil {
		c.log.Debug().Err(err).Str("path", req.Path).Msg("Protocol call failed")
	}
	return resp, err
}

func (c *Client) do(ctx context.Context, req *Request, hdr http.Header) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+req.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", ErrTransport, err)
	}
	for k, v := range hdr {
		httpReq.Header[k] = v
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTransport, req.Path, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		body := readBodyForError(httpResp.Body)
		if httpResp.StatusCode == http.StatusBadRequest && strings.HasPrefix(body, mismatchPrefix) {
			return nil, fmt.Errorf("%w: %s", ErrTokenMismatch, req.Path)
		}
		return nil, &StatusError{Path: req.Path, Code: httpResp.StatusCode, Body: strings.TrimSpace(body)}
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrTransport, req.Path, err)
	}
	return &Response{Path: req.Path, Body: string(body), Tokens: tokensFrom(httpResp.Header)}, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrTokenMismatch):
		return "mismatch"
	default:
		return "error"
	}
}
