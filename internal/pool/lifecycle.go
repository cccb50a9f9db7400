// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package pool

import (
	"context"
	"sync"

	"github.com/tomtom215/cubegate/internal/metrics"
	"github.com/tomtom215/cubegate/internal/palo"
)

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	saved := 0
	for _, s := range p.slots {
		if s != nil {
			saved++
		}
	}
	return Stats{
		TotalRequests:       p.totalRequests,
		ActiveSessions:      p.activeLocked(),
		PendingRequests:     len(p.pending),
		MaxPendingRequests:  p.maxPending,
		TotalQueuedRequests: p.totalQueued,
		SavedSessions:       saved,
	}
}

// Sweep logs out idle saved sessions past their deadline and returns how
// many were removed.
func (p *Pool) Sweep() int {
	p.mu.Lock()
	var expired []*palo.Session
	now := p.now()
	for i, s := range p.slots {
		if s == nil || s.Busy || !s.Expired(now, p.cfg.SafetyMargin) {
			continue
		}
		p.slots[i] = nil
		p.disownLocked(s)
		expired = append(expired, s)
	}
	n := len(expired)
	expired = append(expired, p.dispatchLocked()...)
	p.recordLocked()
	p.mu.Unlock()

	p.logoutAll(expired)
	return n
}

// Shutdown closes the pool. Queued callers fail with ErrClosed, idle saved
// sessions are logged out now and busy ones when they are returned. It
// reports whether any logout was attempted.
func (p *Pool) Shutdown(ctx context.Context) bool {
	p.mu.Lock()
	p.closed = true
	pending := p.pending
	p.pending = nil
	var idle []*palo.Session
	for i, s := range p.slots {
		if s == nil || s.Busy {
			continue
		}
		p.slots[i] = nil
		p.disownLocked(s)
		idle = append(idle, s)
	}
	busy := p.activeLocked()
	p.recordLocked()
	p.mu.Unlock()

	for _, w := range pending {
		w.ch <- result{err: ErrClosed}
	}

	var wg sync.WaitGroup
	for _, s := range idle {
		wg.Add(1)
		go func(s *palo.Session) {
			defer wg.Done()
			if err := p.auth.Logout(ctx, s); err != nil {
				p.log.Warn().Err(err).Msg("Logout during shutdown failed")
			}
		}(s)
	}
	wg.Wait()

	p.log.Info().Int("logged_out", len(idle)).Int("busy", busy).Msg("Session pool shut down")
	return len(idle) > 0 || busy > 0
}

func (p *Pool) recordLocked() {
	metrics.RecordPoolState(p.name, p.activeLocked(), len(p.pending))
}
