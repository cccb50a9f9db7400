// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package palo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tomtom215/cubegate/internal/rangespec"
)

// Minimum field counts per listing.
const (
	databaseFields  = 6
	cubeFields      = 3
	dimensionFields = 9
	elementFields   = 7
	cellFields      = 2
	loginFields     = 2
)

// CellTypeNumeric marks a numeric cell value.
const CellTypeNumeric = 1

// DatabaseRecord is one row of server/databases.
type DatabaseRecord struct {
	ID     int
	Name   string
	Status int
}

// CubeRecord is one row of database/cubes.
type CubeRecord struct {
	ID             int
	Name           string
	Status         int
	DimensionCount int
	DimensionIDs   []int
}

// DimensionRecord is one row of database/dimensions.
type DimensionRecord struct {
	ID           int
	Name         string
	ElementCount int
	LevelCount   int
	Type         int
	AttrID       int
	AttrCubeID   int
}

// ElementRecord is one row of dimension/elements.
type ElementRecord struct {
	ID       int
	Name     string
	Depth    int
	Type     int
	ChildIDs string
}

// Cell is one value of cell/value or cell/values.
type Cell struct {
	Type   int
	Exists bool
	Value  string
}

// Numeric reports whether the cell holds a number.
func (c Cell) Numeric() bool {
	return c.Type == CellTypeNumeric
}

// atoi parses an integer field, returning -1 when it does not parse.
func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return -1
	}
	return n
}

func atoiOr(s string, def int) int {
	if n := atoi(s); n >= 0 {
		return n
	}
	return def
}

// decodeDatabases keeps rows with a non-negative id and status.
func decodeDatabases(rows [][]string) []DatabaseRecord {
	out := make([]DatabaseRecord, 0, len(rows))
	for _, f := range rows {
		id, status := atoi(f[0]), atoi(f[4])
		if id < 0 || status < 0 {
			continue
		}
		out = append(out, DatabaseRecord{ID: id, Name: strings.TrimSpace(f[1]), Status: status})
	}
	return out
}

func decodeCubes(rows [][]string) []CubeRecord {
	out := make([]CubeRecord, 0, len(rows))
	for _, f := range rows {
		id := atoi(f[0])
		status := 0
		if len(f) >= 7 {
			status = atoi(f[6])
		}
		if id < 0 || status < 0 {
			continue
		}
		c := CubeRecord{ID: id, Name: strings.TrimSpace(f[1]), Status: status, DimensionCount: atoiOr(f[2], 0)}
		if len(f) > 3 && f[3] != "" {
			for _, d := range strings.Split(f[3], ",") {
				c.DimensionIDs = append(c.DimensionIDs, atoi(d))
			}
		}
		out = append(out, c)
	}
	return out
}

func decodeDimensions(rows [][]string) []DimensionRecord {
	out := make([]DimensionRecord, 0, len(rows))
	for _, f := range rows {
		id := atoi(f[0])
		if id < 0 {
			continue
		}
		out = append(out, DimensionRecord{
			ID:           id,
			Name:         strings.TrimSpace(f[1]),
			ElementCount: atoiOr(f[2], 0),
			LevelCount:   atoiOr(f[3], 0),
			Type:         atoiOr(f[6], 0),
			AttrID:       atoi(f[7]),
			AttrCubeID:   atoi(f[8]),
		})
	}
	return out
}

func decodeElements(rows [][]string, quote byte) []ElementRecord {
	out := make([]ElementRecord, 0, len(rows))
	for _, f := range rows {
		id := atoi(f[0])
		if id < 0 {
			continue
		}
		e := ElementRecord{
			ID:    id,
			Name:  rangespec.Unquote(f[1], quote, true),
			Depth: atoiOr(f[5], 0),
			Type:  atoiOr(f[6], 0),
		}
		if len(f) > 10 {
			e.ChildIDs = strings.TrimSpace(f[10])
		}
		out = append(out, e)
	}
	return out
}

func decodeCells(rows [][]string, want int) ([]Cell, error) {
	if len(rows) < want {
		return nil, fmt.Errorf("%w: got %d cell values, want %d", ErrResponseFormat, len(rows), want)
	}
	out := make([]Cell, want)
	for i := range out {
		f := rows[i]
		typ, err := strconv.Atoi(strings.TrimSpace(f[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: cell type %q", ErrResponseFormat, f[0])
		}
		out[i] = Cell{Type: typ, Exists: strings.TrimSpace(f[1]) == "1"}
		if len(f) > 2 {
			out[i].Value = f[2]
		}
	}
	return out, nil
}
