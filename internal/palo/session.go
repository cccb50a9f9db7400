// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package palo

import (
	"net"
	"strings"
	"time"
)

// DefaultPort is the port PALO servers listen on unless configured otherwise.
const DefaultPort = "7777"

// Endpoint identifies a PALO server.
type Endpoint struct {
	Host string
	Port string
}

// NewEndpoint returns an Endpoint, defaulting the port.
func NewEndpoint(host, port string) Endpoint {
	if port == "" {
		port = DefaultPort
	}
	return Endpoint{Host: host, Port: port}
}

// String returns host:port.
func (e Endpoint) String() string {
	return net.JoinHostPort(strings.TrimPrefix(strings.TrimPrefix(e.Host, "https://"), "http://"), e.Port)
}

// BaseURL returns the URL prefix for protocol calls. Hosts without a
// scheme are reached over plain HTTP.
func (e Endpoint) BaseURL() string {
	switch {
	case strings.HasPrefix(e.Host, "https://"):
		return "https://" + e.String()
	default:
		return "http://" + e.String()
	}
}

// Credentials authenticate a login.
type Credentials struct {
	User     string
	Password string
}

// Tokens holds the coherence tokens carried by a response.
type Tokens struct {
	Database  string
	Cube      string
	Dimension string
}

// Session is an authenticated server handle.
//
// Busy and Reused are owned by the pool and only change under its lock.
// The remaining fields are touched by the single request holding the
// session.
type Session struct {
	ID       string
	Timeout  time.Duration
	LastUsed time.Time
	Creds    Credentials
	Tokens   Tokens

	Busy   bool
	Reused bool
}

// Expired reports whether the session has idled past its advertised
// timeout less margin.
func (s *Session) Expired(now time.Time, margin time.Duration) bool {
	return now.Sub(s.LastUsed) > s.Timeout-margin
}
