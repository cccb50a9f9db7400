// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tomtom215/cubegate/internal/api"
	"github.com/tomtom215/cubegate/internal/auth"
	"github.com/tomtom215/cubegate/internal/config"
	"github.com/tomtom215/cubegate/internal/forms"
	"github.com/tomtom215/cubegate/internal/logging"
	"github.com/tomtom215/cubegate/internal/observability"
	"github.com/tomtom215/cubegate/internal/olap"
	"github.com/tomtom215/cubegate/internal/registry"
	"github.com/tomtom215/cubegate/internal/supervisor"
	"github.com/tomtom215/cubegate/internal/supervisor/services"
)

// app holds the wired components of one server run.
type app struct {
	cfg    *config.Config
	reg    *registry.Registry
	forms  *forms.Store
	svc    *olap.Service
	server *http.Server
}

func newApp(cfg *config.Config) (*app, error) {
	maxBody, err := cfg.API.MaxBodyBytes()
	if err != nil {
		return nil, err
	}

	var admin *auth.JWTManager
	if cfg.Security.AdminJWTSecret != "" {
		admin, err = auth.NewJWTManager(cfg.Security.AdminJWTSecret, 0)
		if err != nil {
			return nil, fmt.Errorf("admin tokens: %w", err)
		}
	} else {
		logging.Warn().Msg("security.admin_jwt_secret is not set, /apalo/clear-cache and /apalo/diag are unauthenticated")
	}

	reg := registry.New(registry.Options{
		Client: cfg.ClientConfig(),
		Pool:   cfg.Palo.PoolConfig(),
	})
	store := forms.New(cfg.Forms.Dir, forms.Options{
		CacheSize: cfg.Forms.CacheSize,
		CacheTTL:  cfg.Forms.CacheTTL,
	})
	svc := olap.NewService(reg, olap.Config{
		Endpoint:       cfg.Palo.Endpoint(),
		Credentials:    cfg.Palo.Credentials(),
		AllowDatabases: cfg.Palo.AllowDatabases,
		AllowSetData:   cfg.Palo.AllowSetData,
		MaxCells:       cfg.Palo.MaxCells,
		MaxRange:       cfg.Palo.MaxRange,
	}, store)

	mw := api.DefaultChiMiddlewareConfig()
	mw.CORSAllowedOrigins = cfg.Security.CORSOrigins
	mw.RateLimitRequests = cfg.Security.RateLimitRequests
	mw.RateLimitWindow = cfg.Security.RateLimitWindow
	mw.RateLimitDisabled = cfg.Security.RateLimitDisabled

	router := api.NewRouter(svc, api.Options{
		Middleware: mw,
		MaxBody:    maxBody,
		Admin:      admin,
		Version:    version,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(logging.NewSlogHandler(logging.WithComponent("http")), slog.LevelWarn),
	}

	return &app{cfg: cfg, reg: reg, forms: store, svc: svc, server: server}, nil
}

// tree builds the supervisor tree over a's services.
func (a *app) tree() (*supervisor.SupervisorTree, error) {
	tc := supervisor.DefaultTreeConfig()
	tc.ShutdownTimeout = max(a.cfg.Server.ShutdownTimeout, a.cfg.Palo.ShutdownGrace) + time.Second

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), tc)
	if err != nil {
		return nil, err
	}
	tree.AddUpstreamService(services.NewSessionSweeperService(a.reg, a.cfg.Palo.SweepInterval))
	tree.AddUpstreamService(services.NewDrainService(a.svc, a.reg, a.cfg.Palo.ShutdownGrace))
	if a.cfg.Forms.Watch {
		tree.AddFormsService(forms.NewWatcher(a.forms))
	}
	tree.AddAPIService(services.NewHTTPServerService(a.server, a.cfg.Server.ShutdownTimeout))
	return tree, nil
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	shutdownTracer, err := observability.InitTracer(observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		Service:     cfg.Tracing.Service,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(flushCtx); err != nil {
			logging.Warn().Err(err).Msg("Trace flush failed")
		}
	}()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	tree, err := a.tree()
	if err != nil {
		return err
	}

	logging.Info().
		Str("version", version).
		Str("addr", cfg.Server.Addr()).
		Str("palo", cfg.Palo.Endpoint().String()).
		Bool("allow_set_data", cfg.Palo.AllowSetData).
		Strs("allow_databases", cfg.Palo.AllowDatabases).
		Str("forms_dir", cfg.Forms.Dir).
		Msg("Starting Cubegate")

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree stopped")
	}
	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}
	logging.Info().Msg("Cubegate stopped")
	return nil
}
