// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package olap

import (
	"context"
	"net/http"
	"strings"

	"github.com/tomtom215/cubegate/internal/schema"
)

const (
	defaultTableLevel  = 1
	defaultTableIndent = 1
)

type tableRow struct {
	dims []string
	opts *Options
}

// GetTable reads one row of cells per form line, or per element of the
// expanded dimension's subtree. All rows are read on one session. Rows
// marked nonempty whose values are all empty or zero are left out.
func (s *Service) GetTable(ctx context.Context, req TableRequest) ([][]any, error) {
	if err := s.checkData(DataRequest{DB: req.DB, Cube: req.Cube, Dims: req.Dims}); err != nil {
		return nil, err
	}
	if req.Form == "" && req.Expand == "" {
		return nil, validationf("Missing form or expand parameter")
	}

	var rows []tableRow
	if req.Form != "" {
		var err error
		if rows, err = s.formRows(req); err != nil {
			return nil, err
		}
	}

	var out [][]any
	err := s.run(ctx, func(x *exchange) error {
		if req.Form == "" {
			err := x.replay(func() error {
				var err error
				rows, err = expandRows(ctx, x, req)
				return err
			})
			if err != nil {
				return err
			}
		}

		c := newTableCollector(req.Headers)
		for _, row := range rows {
			c.rowDesc = row.opts != nil && row.opts.Desc != ""
			res, err := s.readCells(ctx, x, DataRequest{DB: req.DB, Cube: req.Cube, Dims: row.dims, Options: row.opts})
			Respond(c, res, err)
			if c.failed {
				return err
			}
		}
		out = c.rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// formRows substitutes each form line into the request dims.
func (s *Service) formRows(req TableRequest) ([]tableRow, error) {
	if s.forms == nil {
		return nil, &RequestError{Kind: KindValidation, Status: http.StatusBadRequest, Msg: "Definition file does not exist or is not valid", Err: ErrValidation}
	}
	form, err := s.forms.Load(req.Form)
	if err != nil {
		s.log.Warn().Err(err).Str("form", req.Form).Msg("Form could not be loaded")
		return nil, &RequestError{Kind: KindValidation, Status: http.StatusBadRequest, Msg: "Definition file does not exist or is not valid", Err: err}
	}
	if len(form.Rows) == 0 {
		return nil, &RequestError{Kind: KindInternal, Status: http.StatusInternalServerError, Msg: "Definition file is not valid"}
	}

	rows := make([]tableRow, 0, len(form.Rows))
	for _, fr := range form.Rows {
		opts := fr.Options
		rows = append(rows, tableRow{dims: substitute(req.Dims, fr.Vars), opts: &opts})
	}
	return rows, nil
}

// substitute replaces @N dims with the Nth var. Placeholders without a
// matching var are left as they are.
func substitute(dims, vars []string) []string {
	out := make([]string, len(dims))
	copy(out, dims)
	for i, d := range out {
		rest, ok := strings.CutPrefix(d, "@")
		if !ok {
			continue
		}
		if n, ok := leadingInt(rest); ok && n >= 1 && n <= len(vars) {
			out[i] = vars[n-1]
		}
	}
	return out
}

func leadingInt(s string) (int, bool) {
	n, digits := 0, 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
		digits++
		if digits > 6 {
			return 0, false
		}
	}
	return n, digits > 0
}

// expandRows lists the parent element named at the expanded dimension's
// position, then its descendants down to the requested level, each
// described with indentation by depth.
func expandRows(ctx context.Context, x *exchange, req TableRequest) ([]tableRow, error) {
	db, err := x.prepare(ctx, req.DB)
	if err != nil {
		return nil, err
	}
	expand := dequote(req.Expand)
	dim, ok := db.Dimension(expand)
	if !ok {
		return nil, x.structuralMiss(ctx, db, notFoundf("Dimension '%s' is not defined in the database.", expand))
	}
	set, err := db.EnsureElements(ctx, x, dim)
	if err != nil {
		return nil, err
	}
	cubeName := dequote(req.Cube)
	cube, ok := db.Cube(cubeName)
	if !ok {
		return nil, x.structuralMiss(ctx, db, notFoundf("Cube '%s' does not exist.", cubeName))
	}
	pos := -1
	for i, id := range cube.DimensionIDs {
		if id == dim.ID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, notFoundf("Dimension '%s' is not in the cube '%s'.", dim.Name, cube.Name)
	}

	dims := make([]string, len(req.Dims))
	for i, d := range req.Dims {
		dims[i] = dequote(d)
	}
	if pos >= len(dims) {
		return nil, validationf("Wrong number of dimension elements supplied (should be %d)", cube.DimensionCount)
	}
	parent := dims[pos]
	root, ok := set.ByName(parent)
	if !ok {
		return nil, notFoundf("Parent element does not exist")
	}

	level, indent := req.Level, req.Indent
	if level < 0 {
		level = defaultTableLevel
	}
	if indent < 0 {
		indent = defaultTableIndent
	}
	base := numberOptions(req.NumberFormat)

	at := func(name string) []string {
		d := make([]string, len(dims))
		copy(d, dims)
		d[pos] = name
		return d
	}

	first := base
	first.Desc = parent
	rows := []tableRow{{dims: at(parent), opts: &first}}

	var add func(e *schema.Element, depth int)
	add = func(e *schema.Element, depth int) {
		o := base
		o.Desc = strings.Repeat(" ", indent*depth) + e.Name
		o.NonEmpty = Flag(req.NonEmpty)
		rows = append(rows, tableRow{dims: at(e.Name), opts: &o})
		if !e.IsBase() && (level == 0 || depth < level) {
			for _, child := range set.Children(e) {
				add(child, depth+1)
			}
		}
	}
	for _, child := range set.Children(root) {
		add(child, 1)
	}
	return rows, nil
}

// numberOptions reads "<decimals><form chars>", e.g. "2$,(".
func numberOptions(spec string) Options {
	spec = dequote(spec)
	var o Options
	if spec == "" {
		return o
	}
	if c := spec[0]; c >= '0' && c <= '9' {
		dec := int(c - '0')
		o.Dec = &dec
	}
	o.Form = spec[1:]
	return o
}
