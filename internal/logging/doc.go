// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

// Package logging provides zerolog-based structured logging for Cubegate.
//
// A single global logger is configured once from main with Init and used
// through the level helpers or through component loggers:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	log := logging.WithComponent("pool")
//	log.Debug().Str("endpoint", ep).Msg("session reused")
//
//	logging.Ctx(ctx).Warn().Err(err).Msg("replaying request")
//
// Ctx attaches the request and correlation IDs stored on the context by the
// HTTP middleware, so a request can be followed from the API handler down to
// the individual PALO calls it issued.
//
// NewSlogLogger bridges the global logger to log/slog for libraries that only
// speak slog, such as the suture supervisor event hook.
//
// Always terminate an event chain with Msg or Send; an unterminated chain is
// never written.
package logging
