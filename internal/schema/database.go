// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package schema

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/tomtom215/cubegate/internal/logging"
	"github.com/tomtom215/cubegate/internal/metrics"
)

// Token is a coherence token safe for concurrent access.
type Token struct {
	p atomic.Pointer[string]
}

// Get returns the token, or "" if none was recorded.
func (t *Token) Get() string {
	if s := t.p.Load(); s != nil {
		return *s
	}
	return ""
}

// Set records a token.
func (t *Token) Set(s string) {
	t.p.Store(&s)
}

// Database is a cached server database.
type Database struct {
	ID     int
	Name   string
	Status int
	Token  Token

	mu         sync.Mutex
	cubes      map[string]*Cube
	dimensions map[string]*Dimension
	dimsByID   map[int]*Dimension
}

// Cube is a cached cube.
type Cube struct {
	ID             int
	Name           string
	Status         int
	DimensionIDs   []int
	DimensionCount int
	Token          Token
}

// EnsureCubes lists cubes unless they are cached. The listing's database
// token becomes the database token.
func (d *Database) EnsureCubes(ctx context.Context, l Loader) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cubes != nil {
		return nil
	}

	records, tok, err := l.ListCubes(ctx, d.ID)
	if err != nil {
		return fmt.Errorf("list cubes of %s: %w", d.Name, err)
	}
	metrics.RecordDiscovery("cubes")
	d.Token.Set(tok.Database)

	cubes := make(map[string]*Cube, len(records))
	for _, r := range records {
		n := r.DimensionCount
		if n > len(r.DimensionIDs) {
			log := logging.WithComponent("schema")
			log.Warn().Str("database", d.Name).Str("cube", r.Name).
				Int("declared", n).Int("listed", len(r.DimensionIDs)).Msg("Cube dimension count exceeds listed dimensions, clamping")
			n = len(r.DimensionIDs)
		}
		cubes[r.Name] = &Cube{ID: r.ID, Name: r.Name, Status: r.Status, DimensionIDs: r.DimensionIDs[:n], DimensionCount: n}
	}
	d.cubes = cubes
	return nil
}

// EnsureDimensions lists dimensions unless they are cached.
func (d *Database) EnsureDimensions(ctx context.Context, l Loader) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dimensions != nil {
		return nil
	}

	records, tok, err := l.ListDimensions(ctx, d.ID)
	if err != nil {
		return fmt.Errorf("list dimensions of %s: %w", d.Name, err)
	}
	metrics.RecordDiscovery("dimensions")
	if tok.Database != "" {
		d.Token.Set(tok.Database)
	}

	byName := make(map[string]*Dimension, len(records))
	byID := make(map[int]*Dimension, len(records))
	for _, r := range records {
		dim := &Dimension{
			ID:           r.ID,
			Name:         r.Name,
			Type:         r.Type,
			ElementCount: r.ElementCount,
			LevelCount:   r.LevelCount,
			AttrID:       r.AttrID,
			AttrCubeID:   r.AttrCubeID,
		}
		byName[r.Name] = dim
		byID[r.ID] = dim
	}
	d.dimensions = byName
	d.dimsByID = byID
	return nil
}

// EnsureElements returns the element set of dim, listing it if it is not
// cached.
func (d *Database) EnsureElements(ctx context.Context, l Loader, dim *Dimension) (*ElementSet, error) {
	if set := dim.Elements(); set != nil {
		return set, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if set := dim.Elements(); set != nil {
		return set, nil
	}

	records, tok, err := l.ListElements(ctx, d.ID, dim.ID, "")
	if err != nil {
		return nil, fmt.Errorf("list elements of %s: %w", dim.Name, err)
	}
	metrics.RecordDiscovery("elements")
	dim.Token.Set(tok.Dimension)

	set := newElementSet(records, "")
	dim.elements.Store(set)
	return set, nil
}

// Cube returns a cached cube by name.
func (d *Database) Cube(name string) (*Cube, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.cubes[name]
	return c, ok
}

// Dimension returns a cached dimension by name.
func (d *Database) Dimension(name string) (*Dimension, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dim, ok := d.dimensions[name]
	return dim, ok
}

// DimensionByID returns a cached dimension by id.
func (d *Database) DimensionByID(id int) (*Dimension, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dim, ok := d.dimsByID[id]
	return dim, ok
}

// Discovered reports whether cubes and dimensions are both cached.
func (d *Database) Discovered() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cubes != nil && d.dimensions != nil
}

// Reset drops cubes, dimensions and their elements along with the
// database token.
func (d *Database) Reset() {
	d.mu.Lock()
	d.cubes = nil
	d.dimensions = nil
	d.dimsByID = nil
	d.Token.Set("")
	d.mu.Unlock()
}
