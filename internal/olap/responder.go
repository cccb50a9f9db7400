// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package olap

// Responder receives the outcome of a request: either one Deliver or one
// Fail.
type Responder interface {
	Deliver(v any)
	Fail(status int, msg string)
}

// Respond reports v or err to r.
func Respond(r Responder, v any, err error) {
	if err != nil {
		status, msg := StatusOf(err)
		r.Fail(status, msg)
		return
	}
	r.Deliver(v)
}

// tableCollector accumulates table rows. The first failure stops
// collection.
type tableCollector struct {
	headers string
	rows    [][]any
	first   bool

	// rowDesc is set while the pending row carries a description.
	rowDesc bool

	failed bool
	status int
	msg    string
}

func newTableCollector(headers string) *tableCollector {
	return &tableCollector{headers: headers, rows: [][]any{}, first: true}
}

// Deliver takes a *DataResult for the next row.
func (c *tableCollector) Deliver(v any) {
	res, ok := v.(*DataResult)
	if !ok {
		return
	}
	first := c.first
	c.first = false
	if first && c.headers != "" && len(res.Headers) > 0 {
		row := make([]any, 0, len(res.Headers)+1)
		if c.rowDesc {
			row = append(row, dequote(c.headers))
		}
		for _, h := range res.Headers {
			row = append(row, h)
		}
		c.rows = append(c.rows, row)
	}
	if res.AllEmpty {
		return
	}
	c.rows = append(c.rows, res.Values)
}

func (c *tableCollector) Fail(status int, msg string) {
	c.failed = true
	c.status = status
	c.msg = msg
}
