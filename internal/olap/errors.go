// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package olap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tomtom215/cubegate/internal/palo"
	"github.com/tomtom215/cubegate/internal/pool"
)

var (
	// ErrValidation marks bad caller input.
	ErrValidation = errors.New("invalid request")

	// ErrNotFound marks a cube, dimension or element that the server
	// confirmed does not exist.
	ErrNotFound = errors.New("not defined")

	// ErrShutdown is returned once the service stopped taking requests.
	ErrShutdown = errors.New("server is shut down")

	// errStale signals that cached metadata was cleared and the request
	// must be replayed.
	errStale = errors.New("cached metadata is stale")
)

// Kind classifies request failures.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindAuth
	KindTransport
	KindFormat
	KindShutdown
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuth:
		return "auth"
	case KindTransport:
		return "transport"
	case KindFormat:
		return "response_format"
	case KindShutdown:
		return "shutdown"
	default:
		return "internal"
	}
}

// RequestError is a terminal request failure with the status and message
// reported to the caller.
type RequestError struct {
	Kind   Kind
	Status int
	Msg    string
	Err    error
}

func (e *RequestError) Error() string {
	if e.Err != nil && e.Err.Error() != e.Msg {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func validationf(format string, args ...any) *RequestError {
	return &RequestError{Kind: KindValidation, Status: http.StatusBadRequest, Msg: fmt.Sprintf(format, args...), Err: ErrValidation}
}

func notFoundf(format string, args ...any) *RequestError {
	return &RequestError{Kind: KindNotFound, Status: http.StatusBadRequest, Msg: fmt.Sprintf(format, args...), Err: ErrNotFound}
}

// Classify returns err as a *RequestError, mapping protocol and pool
// errors to their kinds. It returns nil for a nil error.
func Classify(err error) *RequestError {
	if err == nil {
		return nil
	}
	var re *RequestError
	if errors.As(err, &re) {
		return re
	}

	switch {
	case errors.Is(err, ErrShutdown), errors.Is(err, pool.ErrClosed):
		return &RequestError{Kind: KindShutdown, Status: http.StatusInternalServerError, Msg: "Server is shut down", Err: err}
	case errors.Is(err, palo.ErrAuth):
		return &RequestError{Kind: KindAuth, Status: http.StatusInternalServerError, Msg: "Server login failed ->" + err.Error(), Err: err}
	case errors.Is(err, palo.ErrResponseFormat):
		return &RequestError{Kind: KindFormat, Status: http.StatusInternalServerError, Msg: "Unexpected server response: " + err.Error(), Err: err}
	case errors.Is(err, palo.ErrTransport), errors.Is(err, palo.ErrTokenMismatch):
		return &RequestError{Kind: KindTransport, Status: http.StatusInternalServerError, Msg: "Server request failed, error: " + err.Error(), Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &RequestError{Kind: KindTransport, Status: http.StatusServiceUnavailable, Msg: "Request abandoned: " + err.Error(), Err: err}
	default:
		return &RequestError{Kind: KindInternal, Status: http.StatusInternalServerError, Msg: err.Error(), Err: err}
	}
}

// StatusOf returns the HTTP status and caller message for err.
func StatusOf(err error) (int, string) {
	re := Classify(err)
	if re == nil {
		return http.StatusOK, ""
	}
	return re.Status, re.Msg
}

// forcesLogout reports whether the session used for a failed request must
// not be reused.
func forcesLogout(err error) bool {
	return errors.Is(err, palo.ErrTransport) ||
		errors.Is(err, palo.ErrResponseFormat) ||
		errors.Is(err, palo.ErrAuth)
}
