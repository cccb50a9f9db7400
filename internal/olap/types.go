// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package olap

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// DataRequest addresses cells of a cube. Each entry of Dims names one
// element per cube dimension, in cube order; an entry starting with "="
// is a range or list expanded against that dimension.
type DataRequest struct {
	DB      string
	Cube    string
	Dims    []string
	Values  []any
	Options *Options
}

// Options control how returned values are rendered. They come from form
// file rows and from table requests.
type Options struct {
	Desc     string   `json:"desc,omitempty"`
	Mult     *float64 `json:"mult,omitempty"`
	Dec      *int     `json:"dec,omitempty"`
	Form     string   `json:"form,omitempty"`
	NonEmpty Flag     `json:"nonempty,omitempty"`
}

// Flag is a boolean that also accepts the numbers and strings operators
// write in form files ("nonempty": 1, "nonempty": "true").
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = false
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = Flag(truthy(s))
	default:
		*f = Flag(truthy(string(b)))
	}
	return nil
}

// ParseFlag interprets a query or form value as a Flag.
func ParseFlag(s string) Flag {
	return Flag(truthy(s))
}

func truthy(s string) bool {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n != 0
	}
	return s != "" && !strings.EqualFold(s, "false")
}

// DataResult is the decoded answer of a cell read.
type DataResult struct {
	// Values holds one entry per address, prefixed by Options.Desc when
	// set. Entries are float64 or string.
	Values []any

	// Headers lists the subscripts of the last range dimension.
	Headers []string

	// AllEmpty is set when Options.NonEmpty was requested and every value
	// was empty or zero.
	AllEmpty bool
}

// Format selects flat or hierarchical element output.
type Format byte

const (
	FormatFlat      Format = 'F'
	FormatHierarchy Format = 'H'
)

// ElementType filters elements by kind.
type ElementType byte

const (
	TypeAll          ElementType = 'A'
	TypeBase         ElementType = 'B'
	TypeConsolidated ElementType = 'C'
)

// ParseFormat reads a format from the first letter of s.
func ParseFormat(s string) (Format, bool) {
	switch f := Format(firstUpper(s)); f {
	case FormatFlat, FormatHierarchy:
		return f, true
	}
	return 0, false
}

// ParseElementType reads an element type from the first letter of s.
func ParseElementType(s string) (ElementType, bool) {
	switch t := ElementType(firstUpper(s)); t {
	case TypeAll, TypeBase, TypeConsolidated:
		return t, true
	}
	return 0, false
}

func firstUpper(s string) byte {
	if s == "" {
		return 0
	}
	c := s[0]
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	return c
}

// ElementQuery asks for the elements of one dimension.
type ElementQuery struct {
	Dimension string
	// Parent restricts output to the children of this element when
	// HasParent is set.
	Parent    string
	HasParent bool
	Format    Format
	Type      ElementType
	// Level caps hierarchy depth; 0 means unlimited.
	Level int
}

// TableRequest asks for a table of rows, built either from a form file
// or by expanding one dimension below the element named in Dims.
type TableRequest struct {
	DB   string
	Cube string
	Dims []string

	Form   string
	Expand string

	// Level and Indent default to 1 when negative. A Level of 0 expands
	// the whole subtree.
	Level        int
	Indent       int
	NonEmpty     bool
	NumberFormat string

	// Headers, when non-empty, requests a header row of range subscripts
	// led by this text if rows carry descriptions.
	Headers string
}

// Form is a parsed row definition file.
type Form struct {
	Name string
	Rows []FormRow
}

// FormRow is one line of a form. Vars replace the @N placeholders of the
// request dims.
type FormRow struct {
	Vars    []string
	Options Options
}

// FormSource loads forms by name.
type FormSource interface {
	Load(name string) (*Form, error)
}

// formInvalidator is implemented by form sources that cache.
type formInvalidator interface {
	InvalidateAll()
}
