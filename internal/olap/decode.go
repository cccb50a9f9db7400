// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package olap

import (
	"strconv"
	"strings"

	"github.com/tomtom215/cubegate/internal/numfmt"
	"github.com/tomtom215/cubegate/internal/palo"
)

// render is Options resolved for decoding.
type render struct {
	opts    *Options
	dec     int
	hasDec  bool
	form    numfmt.Form
	hasForm bool
}

func newRender(o *Options) *render {
	r := &render{opts: o}
	if o == nil {
		return r
	}
	if o.Dec != nil {
		r.hasDec = true
		r.dec = *o.Dec
		if r.dec < 0 || r.dec > numfmt.MaxDecimals {
			r.dec = 0
		}
	}
	if o.Form != "" {
		r.hasForm = true
		r.form = numfmt.ParseForm(o.Form)
	}
	return r
}

// decode converts cells to result values.
func decode(cells []palo.Cell, o *Options) *DataResult {
	r := newRender(o)
	res := &DataResult{Values: make([]any, 0, len(cells)+1)}
	if o != nil && o.Desc != "" {
		res.Values = append(res.Values, o.Desc)
	}
	allEmpty := true
	for _, c := range cells {
		v, empty := r.value(c)
		if !empty {
			allEmpty = false
		}
		res.Values = append(res.Values, v)
	}
	res.AllEmpty = o != nil && bool(o.NonEmpty) && allEmpty
	return res
}

// value decodes one cell and reports whether it counts as empty. Numeric
// cells holding no value read as 0.
func (r *render) value(c palo.Cell) (any, bool) {
	if !c.Numeric() {
		return c.Value, c.Value == ""
	}
	n, ok := parseNumber(c.Value)
	if !ok {
		return c.Value, c.Value == ""
	}
	if r.opts == nil {
		return n, n == 0
	}

	if bool(r.opts.NonEmpty) && r.hasDec {
		n = numfmt.Round(n, r.dec)
	}
	empty := n == 0
	if r.opts.Mult != nil {
		n *= *r.opts.Mult
	}
	paren := r.form.NegParens && n < 0
	if paren {
		n = -n
	}

	var out any = n
	switch {
	case r.hasForm:
		dec := -1
		if r.hasDec {
			dec = r.dec
		}
		out = r.form.Format(n, dec)
	case r.hasDec:
		out = numfmt.Fixed(n, r.dec)
	}
	if paren {
		if f, isNum := out.(float64); isNum {
			out = strconv.FormatFloat(f, 'f', -1, 64)
		}
		out = "(" + out.(string) + ")"
	}
	return out, empty
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	n, err := strconv.ParseFloat(s, 64)
	return n, err == nil
}
