// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

// Package registry owns the per-server state of the gateway: one protocol
// client, metadata catalog and session pool for every PALO endpoint that
// has been addressed. State lives for the whole process.
package registry

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tomtom215/cubegate/internal/logging"
	"github.com/tomtom215/cubegate/internal/palo"
	"github.com/tomtom215/cubegate/internal/pool"
	"github.com/tomtom215/cubegate/internal/schema"
)

// State is everything the gateway keeps for one endpoint.
type State struct {
	Endpoint palo.Endpoint
	Client   *palo.Client
	Catalog  *schema.Catalog
	Pool     *pool.Pool
}

// Options configures the state built for new endpoints.
type Options struct {
	Client palo.Config
	Pool   pool.Config
}

// Stats reports pool counters for one endpoint.
type Stats struct {
	Server string `json:"Server"`
	pool.Stats
	Breaker string `json:"Breaker"`
}

// Registry maps endpoints to their state.
type Registry struct {
	opts Options

	mu     sync.RWMutex
	states map[palo.Endpoint]*State
}

// New creates an empty registry.
func New(opts Options) *Registry {
	return &Registry{opts: opts, states: make(map[palo.Endpoint]*State)}
}

// State returns the state for ep, creating it on first use.
func (r *Registry) State(ep palo.Endpoint) *State {
	r.mu.RLock()
	st, ok := r.states[ep]
	r.mu.RUnlock()
	if ok {
		return st
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.states[ep]; ok {
		return st
	}
	client := palo.NewClient(ep, r.opts.Client)
	st = &State{
		Endpoint: ep,
		Client:   client,
		Catalog:  schema.NewCatalog(),
		Pool:     pool.New(ep.String(), client, r.opts.Pool),
	}
	r.states[ep] = st
	log := logging.WithComponent("registry")
	log.Info().Str("endpoint", ep.String()).Msg("Registered OLAP endpoint")
	return st
}

func (r *Registry) snapshot() []*State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*State, 0, len(r.states))
	for _, st := range r.states {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Endpoint.String() < out[j].Endpoint.String() })
	return out
}

// Reset clears cached metadata of db, or every database when db is "*",
// on all endpoints whose host matches host. It returns the number of
// endpoints affected.
func (r *Registry) Reset(host, db string) int {
	n := 0
	for _, st := range r.snapshot() {
		if !strings.EqualFold(st.Endpoint.Host, host) {
			continue
		}
		if st.Catalog.Reset(db) {
			n++
		}
	}
	return n
}

// Stats returns pool statistics for every endpoint.
func (r *Registry) Stats() []Stats {
	states := r.snapshot()
	out := make([]Stats, 0, len(states))
	for _, st := range states {
		out = append(out, Stats{Server: st.Endpoint.String(), Stats: st.Pool.Stats(), Breaker: st.Client.BreakerState()})
	}
	return out
}

// Sweep expires idle saved sessions on every endpoint.
func (r *Registry) Sweep() int {
	n := 0
	for _, st := range r.snapshot() {
		n += st.Pool.Sweep()
	}
	return n
}

// Shutdown closes every pool concurrently and reports whether any logout
// was attempted.
func (r *Registry) Shutdown(ctx context.Context) bool {
	states := r.snapshot()
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		attempted bool
	)
	for _, st := range states {
		wg.Add(1)
		go func(st *State) {
			defer wg.Done()
			if st.Pool.Shutdown(ctx) {
				mu.Lock()
				attempted = true
				mu.Unlock()
			}
		}(st)
	}
	wg.Wait()
	return attempted
}
