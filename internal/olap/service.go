// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package olap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cubegate/internal/logging"
	"github.com/tomtom215/cubegate/internal/metrics"
	"github.com/tomtom215/cubegate/internal/palo"
	"github.com/tomtom215/cubegate/internal/rangespec"
	"github.com/tomtom215/cubegate/internal/registry"
	"github.com/tomtom215/cubegate/internal/schema"
)

// DefaultMaxCells caps the number of addresses of one cell request.
const DefaultMaxCells = 1000

// Config configures a Service.
type Config struct {
	Endpoint    palo.Endpoint
	Credentials palo.Credentials

	// AllowDatabases restricts requests to these databases when non-empty.
	AllowDatabases []string

	// AllowSetData enables cell writes.
	AllowSetData bool

	MaxCells int
	MaxRange int
}

// Service executes gateway requests against one configured endpoint.
type Service struct {
	reg   *registry.Registry
	cfg   Config
	forms FormSource
	log   zerolog.Logger

	shutdown atomic.Bool
}

// NewService returns a Service. forms may be nil when table requests by
// form are not served.
func NewService(reg *registry.Registry, cfg Config, forms FormSource) *Service {
	if cfg.MaxCells <= 0 {
		cfg.MaxCells = DefaultMaxCells
	}
	if cfg.MaxRange <= 0 {
		cfg.MaxRange = rangespec.DefaultMaxRange
	}
	return &Service{reg: reg, cfg: cfg, forms: forms, log: logging.WithComponent("olap")}
}

// Shutdown makes every later request fail with ErrShutdown.
func (s *Service) Shutdown() {
	s.shutdown.Store(true)
}

// IsShutdown reports whether Shutdown was called.
func (s *Service) IsShutdown() bool {
	return s.shutdown.Load()
}

// WritesEnabled reports whether SetData is allowed.
func (s *Service) WritesEnabled() bool {
	return s.cfg.AllowSetData
}

// ResetCache clears cached metadata of db, or of every database for "*".
// A full reset also drops cached forms. It returns the number of
// endpoints affected.
func (s *Service) ResetCache(db string) int {
	db = rangespec.RemoveQuotes(db, true)
	if db == "*" {
		if inv, ok := s.forms.(formInvalidator); ok {
			inv.InvalidateAll()
		}
	}
	n := s.reg.Reset(s.cfg.Endpoint.Host, db)
	if n > 0 {
		metrics.RecordSchemaReset("manual")
	}
	s.log.Info().Str("database", db).Int("endpoints", n).Msg("Metadata cache reset")
	return n
}

// Stats returns pool statistics of every endpoint.
func (s *Service) Stats() []registry.Stats {
	return s.reg.Stats()
}

// checkDatabase enforces the database allow list.
func (s *Service) checkDatabase(db string) error {
	if s.shutdown.Load() {
		return ErrShutdown
	}
	if db == "" {
		return validationf("Missing db parameter")
	}
	if len(s.cfg.AllowDatabases) == 0 {
		return nil
	}
	for _, allowed := range s.cfg.AllowDatabases {
		if allowed == db {
			return nil
		}
	}
	return validationf("The requested database is not permitted for this application.")
}

// exchange is one request's hold on a pooled session.
type exchange struct {
	state  *registry.State
	client *palo.Client
	sess   *palo.Session
	log    *zerolog.Logger
}

// run executes fn on a pooled session. Sessions that saw a transport,
// format or authentication failure, or whose fn panicked, are logged out
// instead of returned.
func (s *Service) run(ctx context.Context, fn func(x *exchange) error) (err error) {
	if s.shutdown.Load() {
		return ErrShutdown
	}
	st := s.reg.State(s.cfg.Endpoint)
	sess, err := st.Pool.Acquire(ctx, s.cfg.Credentials)
	if err != nil {
		return err
	}

	ctx = logging.ContextWithNewCorrelationID(ctx)
	x := &exchange{state: st, client: st.Client, sess: sess, log: logging.Ctx(ctx)}
	done := false
	defer func() {
		switch {
		case !done:
			x.log.Error().Msg("Discarding session after panic")
			st.Pool.Discard(sess)
		case forcesLogout(err):
			x.log.Warn().Err(err).Msg("Discarding session after failure")
			st.Pool.Discard(sess)
		default:
			st.Pool.Release(sess)
		}
	}()
	err = fn(x)
	done = true
	return err
}

// Loader methods bind the exchange session to the catalog.

func (x *exchange) ListDatabases(ctx context.Context) ([]palo.DatabaseRecord, palo.Tokens, error) {
	return x.client.ListDatabases(ctx, x.sess)
}

func (x *exchange) ListCubes(ctx context.Context, dbID int) ([]palo.CubeRecord, palo.Tokens, error) {
	return x.client.ListCubes(ctx, x.sess, dbID)
}

func (x *exchange) ListDimensions(ctx context.Context, dbID int) ([]palo.DimensionRecord, palo.Tokens, error) {
	return x.client.ListDimensions(ctx, x.sess, dbID)
}

func (x *exchange) ListElements(ctx context.Context, dbID, dimID int, parent string) ([]palo.ElementRecord, palo.Tokens, error) {
	return x.client.ListElements(ctx, x.sess, dbID, dimID, parent)
}

// prepare returns the named database with cubes and dimensions cached.
func (x *exchange) prepare(ctx context.Context, name string) (*schema.Database, error) {
	db, err := x.state.Catalog.EnsureDatabase(ctx, x, name)
	if errors.Is(err, schema.ErrDatabaseNotFound) {
		return nil, notFoundf("The database is not defined on the specified OLAP server.")
	}
	if err != nil {
		return nil, err
	}
	if err := db.EnsureCubes(ctx, x); err != nil {
		return nil, err
	}
	if err := db.EnsureDimensions(ctx, x); err != nil {
		return nil, err
	}
	return db, nil
}

// structuralMiss decides whether a failed name lookup is genuine. With a
// database token cached, the server is asked for its current token; a
// different one means the cache is stale, so it is cleared and errStale
// is returned. Otherwise miss is returned.
func (x *exchange) structuralMiss(ctx context.Context, db *schema.Database, miss *RequestError) error {
	local := db.Token.Get()
	if local == "" {
		return miss
	}
	tok, err := x.client.DatabaseInfo(ctx, x.sess, db.ID, local)
	switch {
	case errors.Is(err, palo.ErrTokenMismatch):
		return x.invalidate(db, "database_token")
	case err != nil:
		x.log.Debug().Err(err).Str("database", db.Name).Msg("Token check failed, reporting miss")
		return miss
	case tok.Database != "" && tok.Database != local:
		return x.invalidate(db, "database_token")
	}
	return miss
}

// invalidate clears db and signals a replay.
func (x *exchange) invalidate(db *schema.Database, reason string) error {
	db.Reset()
	metrics.RecordSchemaReset(reason)
	x.log.Info().Str("database", db.Name).Str("reason", reason).Msg("Cached metadata is stale, replaying request")
	return errStale
}

// replay runs fn, running it once more after a stale cache was cleared.
func (x *exchange) replay(fn func() error) error {
	err := fn()
	if !errors.Is(err, errStale) {
		return err
	}
	err = fn()
	if errors.Is(err, errStale) {
		return fmt.Errorf("%w: coherence tokens changed again during replay", palo.ErrTransport)
	}
	return err
}

// dequote removes surrounding quotes from a request parameter.
func dequote(s string) string {
	return rangespec.RemoveQuotes(strings.TrimSpace(s), false)
}
