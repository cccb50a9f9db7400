// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/cubegate/internal/logging"
	"github.com/tomtom215/cubegate/internal/metrics"
	"github.com/tomtom215/cubegate/internal/palo"
)

// ErrClosed is returned by Acquire after Shutdown.
var ErrClosed = errors.New("session pool is shut down")

// Authenticator opens and closes server sessions.
type Authenticator interface {
	Login(ctx context.Context, creds palo.Credentials) (*palo.Session, error)
	Logout(ctx context.Context, sess *palo.Session) error
}

// Config sizes a pool.
type Config struct {
	MaxSessions  int
	SaveSessions int
	// SafetyMargin is subtracted from a session's advertised timeout when
	// deciding whether it may be reused.
	SafetyMargin time.Duration
	// LoginRate limits logins per second. Zero means unlimited.
	LoginRate  float64
	LoginBurst int
	// LogoutTimeout bounds background logouts.
	LogoutTimeout time.Duration
}

// DefaultConfig returns three active and two saved sessions.
func DefaultConfig() Config {
	return Config{
		MaxSessions:   3,
		SaveSessions:  2,
		SafetyMargin:  10 * time.Second,
		LogoutTimeout: 10 * time.Second,
	}
}

// Stats is a snapshot of pool counters.
type Stats struct {
	TotalRequests       int64
	ActiveSessions      int
	PendingRequests     int
	MaxPendingRequests  int
	TotalQueuedRequests int64
	SavedSessions       int
}

type result struct {
	sess *palo.Session
	err  error
}

type waiter struct {
	creds palo.Credentials
	ch    chan result
}

// Pool manages the sessions of one endpoint.
type Pool struct {
	name    string
	auth    Authenticator
	cfg     Config
	limiter *rate.Limiter
	now     func() time.Time
	log     zerolog.Logger

	mu       sync.Mutex
	slots    []*palo.Session
	owned    map[*palo.Session]struct{}
	reserved int
	pending  []*waiter
	closed   bool

	totalRequests int64
	totalQueued   int64
	maxPending    int
}

// New creates a pool named after its endpoint.
func New(name string, auth Authenticator, cfg Config) *Pool {
	def := DefaultConfig()
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = def.MaxSessions
	}
	if cfg.SaveSessions < 0 {
		cfg.SaveSessions = 0
	}
	if cfg.LogoutTimeout <= 0 {
		cfg.LogoutTimeout = def.LogoutTimeout
	}
	p := &Pool{
		name:  name,
		auth:  auth,
		cfg:   cfg,
		now:   time.Now,
		owned: make(map[*palo.Session]struct{}),
		log:   logging.WithComponent("pool").With().Str("endpoint", name).Logger(),
	}
	if cfg.LoginRate > 0 {
		burst := cfg.LoginBurst
		if burst <= 0 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(cfg.LoginRate), burst)
	}
	return p
}

// Acquire returns a busy session, blocking while the pool is saturated.
func (p *Pool) Acquire(ctx context.Context, creds palo.Credentials) (*palo.Session, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	var (
		sess    *palo.Session
		login   bool
		expired []*palo.Session
	)
	// Capacity freed while others are queued belongs to them.
	if len(p.pending) == 0 {
		sess, login, expired = p.tryAcquireLocked(creds)
	}
	if sess == nil && !login {
		w := &waiter{creds: creds, ch: make(chan result, 1)}
		p.pending = append(p.pending, w)
		p.totalQueued++
		if len(p.pending) > p.maxPending {
			p.maxPending = len(p.pending)
		}
		depth := len(p.pending)
		p.recordLocked()
		p.mu.Unlock()
		metrics.RecordPoolQueued(p.name)
		p.logoutAll(expired)
		p.log.Debug().Int("pending", depth).Msg("Session ceiling reached, queued")
		return p.wait(ctx, w)
	}
	p.recordLocked()
	p.mu.Unlock()

	p.logoutAll(expired)
	if sess != nil {
		return sess, nil
	}
	return p.login(ctx, creds)
}

func (p *Pool) wait(ctx context.Context, w *waiter) (*palo.Session, error) {
	select {
	case r := <-w.ch:
		return r.sess, r.err
	case <-ctx.Done():
		p.mu.Lock()
		removed := p.removeWaiterLocked(w)
		p.recordLocked()
		p.mu.Unlock()
		if !removed {
			// Already served; hand the session back once it arrives.
			go func() {
				if r := <-w.ch; r.sess != nil {
					p.Release(r.sess)
				}
			}()
		}
		return nil, ctx.Err()
	}
}

// tryAcquireLocked scans the saved slots for a reusable session. Expired
// sessions it meets are removed and returned for logout. When nothing is
// reusable and the ceiling allows, it reserves an active slot and reports
// that the caller must log in.
func (p *Pool) tryAcquireLocked(creds palo.Credentials) (*palo.Session, bool, []*palo.Session) {
	var expired []*palo.Session
	now := p.now()
	for i, s := range p.slots {
		if s == nil || s.Busy {
			continue
		}
		if s.Expired(now, p.cfg.SafetyMargin) {
			p.slots[i] = nil
			p.disownLocked(s)
			expired = append(expired, s)
			continue
		}
		s.Busy = true
		s.Reused = true
		s.Creds = creds
		p.totalRequests++
		return s, false, expired
	}
	if p.activeLocked() < p.cfg.MaxSessions {
		p.totalRequests++
		p.reserved++
		return nil, true, expired
	}
	return nil, false, expired
}

// login completes a reservation made by tryAcquireLocked.
func (p *Pool) login(ctx context.Context, creds palo.Credentials) (*palo.Session, error) {
	err := p.waitLogin(ctx)
	var sess *palo.Session
	if err == nil {
		sess, err = p.auth.Login(ctx, creds)
	}

	p.mu.Lock()
	p.reserved--
	var expired []*palo.Session
	if err == nil {
		sess.Busy = true
		p.owned[sess] = struct{}{}
	} else {
		expired = p.dispatchLocked()
	}
	p.recordLocked()
	p.mu.Unlock()

	metrics.RecordPoolLogin(p.name, err == nil)
	if err != nil {
		p.log.Warn().Err(err).Str("user", creds.User).Msg("Login failed")
		p.logoutAll(expired)
		return nil, fmt.Errorf("login to %s: %w", p.name, err)
	}
	return sess, nil
}

func (p *Pool) waitLogin(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

// Release returns a session after a successful request. It is saved for
// reuse if a slot is free, and logged out otherwise.
func (p *Pool) Release(sess *palo.Session) {
	if sess == nil {
		return
	}
	p.mu.Lock()
	sess.Busy = false
	idx, free := -1, -1
	for i, s := range p.slots {
		if s == sess {
			idx = i
			break
		}
		if s == nil && free < 0 {
			free = i
		}
	}

	if idx < 0 {
		if free < 0 {
			free = len(p.slots)
		}
		if p.closed || free >= p.cfg.SaveSessions || sess.ID == "" {
			p.disownLocked(sess)
			p.unlockAndLogout(sess)
			return
		}
		if free == len(p.slots) {
			p.slots = append(p.slots, sess)
		} else {
			p.slots[free] = sess
		}
	} else if p.closed || sess.ID == "" {
		p.slots[idx] = nil
		p.disownLocked(sess)
		p.unlockAndLogout(sess)
		return
	}
	p.unlockAndLogout(nil)
}

// Discard logs a session out and frees its slot. It is used when a request
// failed in a way that leaves the session suspect.
func (p *Pool) Discard(sess *palo.Session) {
	if sess == nil {
		return
	}
	p.mu.Lock()
	for i, s := range p.slots {
		if s == sess {
			p.slots[i] = nil
		}
	}
	p.disownLocked(sess)
	p.unlockAndLogout(sess)
}

// unlockAndLogout hands freed capacity to queued callers, then releases mu
// and logs out sess, if any, along with sessions found expired. Capacity
// changes hands before mu is released so no newcomer can take it first.
func (p *Pool) unlockAndLogout(sess *palo.Session) {
	expired := p.dispatchLocked()
	p.recordLocked()
	p.mu.Unlock()

	if sess != nil {
		p.logout(sess)
	}
	p.logoutAll(expired)
}

// dispatchLocked hands sessions to queued callers, oldest first, until the
// queue is empty or the pool is saturated. It returns expired sessions for
// the caller to log out after unlocking.
func (p *Pool) dispatchLocked() []*palo.Session {
	var stale []*palo.Session
	for len(p.pending) > 0 && !p.closed {
		w := p.pending[0]
		sess, login, expired := p.tryAcquireLocked(w.creds)
		stale = append(stale, expired...)
		if sess == nil && !login {
			break
		}
		p.pending[0] = nil
		p.pending = p.pending[1:]
		if sess != nil {
			w.ch <- result{sess: sess}
			continue
		}
		go func() {
			s, err := p.login(context.Background(), w.creds)
			w.ch <- result{sess: s, err: err}
		}()
	}
	return stale
}

func (p *Pool) removeWaiterLocked(w *waiter) bool {
	for i, x := range p.pending {
		if x == w {
			p.pending = append(p.pending[:i], p.pending[i+1:]...)
			return true
		}
	}
	return false
}

// disownLocked drops a session from the active count. Repeated calls for
// the same session are no-ops.
func (p *Pool) disownLocked(sess *palo.Session) {
	delete(p.owned, sess)
}

// activeLocked counts sessions handed out or saved plus logins in flight.
func (p *Pool) activeLocked() int {
	return len(p.owned) + p.reserved
}

func (p *Pool) logout(sess *palo.Session) {
	if sess.ID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.LogoutTimeout)
	defer cancel()
	if err := p.auth.Logout(ctx, sess); err != nil {
		p.log.Debug().Err(err).Msg("Logout failed")
	}
}

func (p *Pool) logoutAll(sessions []*palo.Session) {
	for _, s := range sessions {
		p.log.Debug().Msg("Logging out expired session")
		p.logout(s)
	}
}
