// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tomtom215/cubegate/internal/metrics"
	"github.com/tomtom215/cubegate/internal/palo"
)

// AllDatabases resets every database of a catalog.
const AllDatabases = "*"

// ErrDatabaseNotFound is returned when the server has no such database.
var ErrDatabaseNotFound = errors.New("database is not defined on the server")

// Presence is the result of a cache lookup.
type Presence int

const (
	// Unknown means the database list has not been discovered.
	Unknown Presence = iota
	// Absent means the server does not have the database.
	Absent
	// Present means the database is cached.
	Present
)

func (p Presence) String() string {
	switch p {
	case Absent:
		return "absent"
	case Present:
		return "present"
	default:
		return "unknown"
	}
}

// Loader fetches metadata listings. It is normally a palo.Client bound to
// the session of the current request.
type Loader interface {
	ListDatabases(ctx context.Context) ([]palo.DatabaseRecord, palo.Tokens, error)
	ListCubes(ctx context.Context, dbID int) ([]palo.CubeRecord, palo.Tokens, error)
	ListDimensions(ctx context.Context, dbID int) ([]palo.DimensionRecord, palo.Tokens, error)
	ListElements(ctx context.Context, dbID, dimID int, parent string) ([]palo.ElementRecord, palo.Tokens, error)
}

// Catalog is the metadata cache of one endpoint.
type Catalog struct {
	mu        sync.Mutex
	databases map[string]*Database
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{}
}

// Database looks up a database by name without touching the network.
func (c *Catalog) Database(name string) (*Database, Presence) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.databases == nil {
		return nil, Unknown
	}
	db, ok := c.databases[strings.ToLower(name)]
	if !ok {
		return nil, Absent
	}
	return db, Present
}

// EnsureDatabase returns the named database, listing databases first if
// they have not been discovered.
func (c *Catalog) EnsureDatabase(ctx context.Context, l Loader, name string) (*Database, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.databases == nil {
		records, _, err := l.ListDatabases(ctx)
		if err != nil {
			return nil, fmt.Errorf("list databases: %w", err)
		}
		metrics.RecordDiscovery("databases")
		dbs := make(map[string]*Database, len(records))
		for _, r := range records {
			key := strings.ToLower(r.Name)
			dbs[key] = &Database{ID: r.ID, Name: key, Status: r.Status}
		}
		c.databases = dbs
	}

	db, ok := c.databases[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrDatabaseNotFound, name)
	}
	return db, nil
}

// Reset clears cached metadata for name, or for every database when name
// is AllDatabases. It reports whether anything was cleared.
func (c *Catalog) Reset(name string) bool {
	if name == AllDatabases {
		c.mu.Lock()
		cleared := c.databases != nil
		c.databases = nil
		c.mu.Unlock()
		return cleared
	}
	db, presence := c.Database(name)
	if presence != Present {
		return false
	}
	db.Reset()
	return true
}
