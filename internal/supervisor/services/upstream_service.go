// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package services

import (
	"context"
	"time"

	"github.com/tomtom215/cubegate/internal/logging"
)

// Sweeper drops idle sessions that are about to expire.
type Sweeper interface {
	Sweep() int
}

// SessionSweeperService sweeps saved sessions on a fixed interval so a
// quiet gateway does not hand out sessions the server already expired.
type SessionSweeperService struct {
	sweeper  Sweeper
	interval time.Duration
}

// NewSessionSweeperService returns a sweeper running every interval. A
// non-positive interval means 30s.
func NewSessionSweeperService(s Sweeper, interval time.Duration) *SessionSweeperService {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &SessionSweeperService{sweeper: s, interval: interval}
}

// Serve implements suture.Service.
func (s *SessionSweeperService) Serve(ctx context.Context) error {
	log := logging.WithComponent("sweeper")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := s.sweeper.Sweep(); n > 0 {
				log.Debug().Int("sessions", n).Msg("Swept expiring sessions")
			}
		}
	}
}

func (s *SessionSweeperService) String() string {
	return "session-sweeper"
}

// Gateway is the request side of shutdown.
type Gateway interface {
	Shutdown()
}

// SessionCloser logs out pooled sessions.
type SessionCloser interface {
	Shutdown(ctx context.Context) bool
}

// DrainService waits for its context to end, then stops the gateway from
// accepting requests and logs out idle sessions within grace.
type DrainService struct {
	gateway  Gateway
	sessions SessionCloser
	grace    time.Duration
}

// NewDrainService returns a DrainService. A non-positive grace means 5s.
func NewDrainService(g Gateway, sessions SessionCloser, grace time.Duration) *DrainService {
	if grace <= 0 {
		grace = 5 * time.Second
	}
	return &DrainService{gateway: g, sessions: sessions, grace: grace}
}

// Serve implements suture.Service.
func (d *DrainService) Serve(ctx context.Context) error {
	<-ctx.Done()

	log := logging.WithComponent("drain")
	d.gateway.Shutdown()

	closeCtx, cancel := context.WithTimeout(context.Background(), d.grace)
	defer cancel()
	start := time.Now()
	attempted := d.sessions.Shutdown(closeCtx)
	log.Info().
		Bool("logouts", attempted).
		Dur("elapsed", time.Since(start)).
		Msg("Upstream sessions closed")
	return ctx.Err()
}

func (d *DrainService) String() string {
	return "drain"
}
