// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package palo

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport covers network failures and unexpected HTTP status codes.
	ErrTransport = errors.New("palo: transport failure")

	// ErrAuth is returned when the server refuses a login.
	ErrAuth = errors.New("palo: login failed")

	// ErrTokenMismatch signals that the server rejected a stale coherence token.
	ErrTokenMismatch = errors.New("palo: coherence token mismatch")

	// ErrResponseFormat is returned for records with too few fields or
	// fields that do not parse.
	ErrResponseFormat = errors.New("palo: malformed response")
)

// mismatchPrefix starts the body of a 400 reply to an outdated token.
const mismatchPrefix = "5001;"

// StatusError reports a non-200 reply. It unwraps to ErrTransport.
type StatusError struct {
	Path string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("palo: %s returned status %d: %s", e.Path, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrTransport
}

// IsServerFault reports whether the reply indicates an upstream outage.
func (e *StatusError) IsServerFault() bool {
	return e.Code >= 500
}
