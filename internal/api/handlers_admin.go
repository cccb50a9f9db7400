// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/cubegate/internal/logging"
	"github.com/tomtom215/cubegate/internal/registry"
	"github.com/tomtom215/cubegate/internal/validation"
)

type clearCacheQuery struct {
	DB string `query:"db" validate:"required"`
}

type diagQuery struct {
	Func string `query:"func" validate:"required,oneof=stats"`
}

// clearCache handles GET /apalo/clear-cache. db names one database or
// "*" for all of them.
func (rt *Router) clearCache(w http.ResponseWriter, r *http.Request) {
	q := clearCacheQuery{DB: r.URL.Query().Get("db")}
	if err := validation.ValidateStruct(&q); err != nil {
		respondError(w, r, http.StatusBadRequest, "Missing db parameter")
		return
	}
	if rt.svc.IsShutdown() {
		respondError(w, r, http.StatusInternalServerError, "Server is shut down")
		return
	}
	n := rt.svc.ResetCache(q.DB)
	logging.Ctx(r.Context()).Info().Str("database", sanitizeLogValue(q.DB)).Int("endpoints", n).Msg("Cache cleared on request")
	respondJSON(w, r, http.StatusOK, "OK")
}

// diag handles GET /apalo/diag.
func (rt *Router) diag(w http.ResponseWriter, r *http.Request) {
	q := diagQuery{Func: r.URL.Query().Get("func")}
	if err := validation.ValidateStruct(&q); err != nil {
		msg := "Bad function"
		if err.Fields()[0].Tag() == "required" {
			msg = "Missing func parameter"
		}
		respondError(w, r, http.StatusBadRequest, msg)
		return
	}
	respondJSON(w, r, http.StatusOK, rt.svc.Stats())
}

type healthStatus struct {
	Status    string           `json:"status"`
	Version   string           `json:"version,omitempty"`
	Uptime    float64          `json:"uptime_seconds"`
	Endpoints []registry.Stats `json:"endpoints"`
}

// health reports liveness. It answers 503 once shutdown has begun.
func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	h := healthStatus{
		Status:    "ok",
		Version:   rt.opts.Version,
		Uptime:    time.Since(rt.start).Seconds(),
		Endpoints: rt.svc.Stats(),
	}
	status := http.StatusOK
	if rt.svc.IsShutdown() {
		h.Status = "shutting_down"
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, r, status, h)
}
