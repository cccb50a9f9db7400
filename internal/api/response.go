// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cubegate/internal/logging"
)

// ErrorBody is the error envelope payload.
type ErrorBody struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// httpResponder writes the outcome of one gateway call. It implements
// olap.Responder.
type httpResponder struct {
	w    http.ResponseWriter
	r    *http.Request
	done bool
}

func newResponder(w http.ResponseWriter, r *http.Request) *httpResponder {
	return &httpResponder{w: w, r: r}
}

// Deliver writes v as a 200 JSON response.
func (h *httpResponder) Deliver(v any) {
	if h.done {
		return
	}
	h.done = true
	respondJSON(h.w, h.r, http.StatusOK, v)
}

// Fail writes the error envelope.
func (h *httpResponder) Fail(status int, msg string) {
	if h.done {
		return
	}
	h.done = true
	respondError(h.w, h.r, status, msg)
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Failed to write JSON response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	log := logging.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error().Int("status", status).Str("error", sanitizeLogValue(msg)).Str("path", r.URL.Path).Msg("Request failed")
	} else {
		log.Debug().Int("status", status).Str("error", sanitizeLogValue(msg)).Str("path", r.URL.Path).Msg("Request rejected")
	}
	respondJSON(w, r, status, errorEnvelope{Error: ErrorBody{
		Status:    status,
		Message:   msg,
		RequestID: logging.RequestIDFromContext(r.Context()),
	}})
}

// failAuth adapts respondError to auth.FailFunc.
func failAuth(w http.ResponseWriter, r *http.Request, status int, msg string) {
	respondError(w, r, status, msg)
}

// sanitizeLogValue escapes control characters so messages echoing
// request input cannot forge log lines.
func sanitizeLogValue(s string) string {
	if !strings.ContainsFunc(s, isControl) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		if isControl(r) {
			fmt.Fprintf(&b, "\\x%02x", r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}
