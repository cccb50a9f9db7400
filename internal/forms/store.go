// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

// Package forms loads row definition files used by table requests.
//
// A form named "sales" lives at <dir>/sales.txt. Each non-blank line that
// does not start with ';' is one table row. Fields are separated by ';'
// and replace the @N placeholders of the request dims. A line starting
// with '=' carries a JSON options object as its first field:
//
//	; revenue block
//	={"desc":"Revenue","dec":2};Revenue;Actual
//	Units;Actual
package forms

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cubegate/internal/cache"
	"github.com/tomtom215/cubegate/internal/logging"
	"github.com/tomtom215/cubegate/internal/metrics"
	"github.com/tomtom215/cubegate/internal/olap"
	"github.com/tomtom215/cubegate/internal/rangespec"
)

// Ext is the file extension of row definition files.
const Ext = ".txt"

var (
	// ErrInvalidName is returned for form names that are empty or would
	// leave the forms directory.
	ErrInvalidName = errors.New("invalid form name")

	// ErrInvalidForm is returned when a file cannot be parsed.
	ErrInvalidForm = errors.New("invalid form")
)

// Options bound the parsed form cache.
type Options struct {
	// CacheSize is the number of parsed forms kept; 0 means
	// cache.DefaultCapacity.
	CacheSize int
	// CacheTTL re-reads a form once its cached copy is this old; 0 keeps
	// it until invalidated.
	CacheTTL time.Duration
}

// Store caches parsed forms from a directory. It implements
// olap.FormSource.
type Store struct {
	dir   string
	log   zerolog.Logger
	cache *cache.LRU[*olap.Form]
}

// New returns a Store reading forms from dir.
func New(dir string, opts Options) *Store {
	return &Store{
		dir:   dir,
		log:   logging.WithComponent("forms"),
		cache: cache.NewLRU[*olap.Form](opts.CacheSize, opts.CacheTTL),
	}
}

// Dir returns the forms directory.
func (s *Store) Dir() string { return s.dir }

// Load returns the named form, parsing it on first use.
func (s *Store) Load(name string) (*olap.Form, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	if f, ok := s.cache.Get(name); ok {
		metrics.RecordFormsCache("hit")
		return f, nil
	}
	metrics.RecordFormsCache("miss")

	f, err := s.read(name)
	if err != nil {
		metrics.RecordFormsCache("error")
		return nil, err
	}

	s.cache.Add(name, f)
	s.log.Debug().Str("form", name).Int("rows", len(f.Rows)).Msg("Form loaded")
	return f, nil
}

// Invalidate drops the cached copy of the named form.
func (s *Store) Invalidate(name string) {
	if s.cache.Remove(name) {
		metrics.RecordFormsCache("invalidate")
		s.log.Debug().Str("form", name).Msg("Form invalidated")
	}
}

// InvalidateAll empties the cache.
func (s *Store) InvalidateAll() {
	if s.cache.Clear() > 0 {
		metrics.RecordFormsCache("invalidate")
	}
}

// Cached reports the number of cached forms.
func (s *Store) Cached() int {
	return s.cache.Len()
}

func (s *Store) read(name string) (*olap.Form, error) {
	path := filepath.Join(s.dir, name+Ext)
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open form %q: %w", name, err)
	}
	defer file.Close()

	return Parse(name, file)
}

// Parse reads a form from r.
func Parse(name string, r io.Reader) (*olap.Form, error) {
	form := &olap.Form{Name: name}
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == ';' {
			continue
		}
		row, err := parseRow(line)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrInvalidForm, name, n, err)
		}
		form.Rows = append(form.Rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read form %q: %w", name, err)
	}
	return form, nil
}

func parseRow(line string) (olap.FormRow, error) {
	var row olap.FormRow
	hasOpts := line[0] == '='
	if hasOpts {
		line = line[1:]
	}
	fields := rangespec.SplitFields(line)
	if hasOpts {
		if len(fields) == 0 {
			return row, errors.New("missing options object")
		}
		if err := json.Unmarshal([]byte(fields[0]), &row.Options); err != nil {
			return row, fmt.Errorf("options: %w", err)
		}
		fields = fields[1:]
	}
	row.Vars = fields
	return row, nil
}

// nameFromPath maps a file in dir to its form name.
func nameFromPath(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, Ext) {
		return "", false
	}
	name := strings.TrimSuffix(base, Ext)
	return name, validName(name)
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "\x00")
}
