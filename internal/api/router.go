// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tomtom215/cubegate/internal/auth"
	"github.com/tomtom215/cubegate/internal/middleware"
	"github.com/tomtom215/cubegate/internal/olap"
)

// DefaultMaxBody bounds PUT bodies when Options.MaxBody is unset.
const DefaultMaxBody = 1000 * 1000

// Options configures the router.
type Options struct {
	Middleware *ChiMiddlewareConfig
	// MaxBody bounds PUT /apalo/data bodies in bytes.
	MaxBody int64
	// Admin guards the admin routes. Nil leaves them open.
	Admin   *auth.JWTManager
	Version string
}

// Router serves the gateway API.
type Router struct {
	svc   *olap.Service
	opts  Options
	mw    *ChiMiddleware
	start time.Time
}

// NewRouter returns a Router over svc.
func NewRouter(svc *olap.Service, opts Options) *Router {
	if opts.MaxBody <= 0 {
		opts.MaxBody = DefaultMaxBody
	}
	return &Router{
		svc:   svc,
		opts:  opts,
		mw:    NewChiMiddleware(opts.Middleware),
		start: time.Now(),
	}
}

// Handler builds the route tree.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.QuerySemicolons)
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.AccessLog)
	r.Use(rt.mw.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", rt.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/apalo", func(r chi.Router) {
		r.Use(rt.mw.RateLimit())
		r.Use(middleware.SecurityHeaders)
		r.Use(middleware.PrometheusMetrics)
		r.Use(chimiddleware.Compress(5))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			respondError(w, r, http.StatusBadRequest, "No function specified.")
		})
		r.Get("/data", rt.getData)
		r.Put("/data", rt.putData)
		r.Get("/elements", rt.getElements)
		r.Get("/table", rt.getTable)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(rt.opts.Admin, auth.RoleAdmin, failAuth))
			r.Get("/clear-cache", rt.clearCache)
			r.Get("/diag", rt.diag)
		})
	})

	return otelhttp.NewHandler(r, "cubegate",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
