// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package palo

import (
	"net/url"
	"strconv"
	"strings"
)

// Protocol paths.
const (
	PathLogin          = "/server/login"
	PathLogout         = "/server/logout"
	PathDatabases      = "/server/databases"
	PathDatabaseInfo   = "/database/info"
	PathCubes          = "/database/cubes"
	PathDimensions     = "/database/dimensions"
	PathElements       = "/dimension/elements"
	PathCellValue      = "/cell/value"
	PathCellValues     = "/cell/values"
	PathCellReplace    = "/cell/replace"
	PathCellReplaceAll = "/cell/replace_bulk"
)

type param struct {
	key   string
	value string
	raw   bool
}

// Request is a protocol call: a path and its ordered query parameters.
type Request struct {
	Path   string
	params []param
}

// NewRequest creates a request for path.
func NewRequest(path string) *Request {
	return &Request{Path: path}
}

// Add appends an escaped parameter.
func (r *Request) Add(key, value string) *Request {
	r.params = append(r.params, param{key: key, value: value})
	return r
}

// AddInt appends an integer parameter.
func (r *Request) AddInt(key string, value int) *Request {
	return r.AddRaw(key, strconv.Itoa(value))
}

// AddRaw appends a parameter whose value is already encoded.
func (r *Request) AddRaw(key, value string) *Request {
	r.params = append(r.params, param{key: key, value: value, raw: true})
	return r
}

// Set replaces the first parameter named key, or appends it.
func (r *Request) Set(key, value string) *Request {
	for i := range r.params {
		if r.params[i].key == key {
			r.params[i].value = value
			r.params[i].raw = false
			return r
		}
	}
	return r.Add(key, value)
}

// Get returns the unencoded value of the first parameter named key.
func (r *Request) Get(key string) string {
	for _, p := range r.params {
		if p.key == key {
			return p.value
		}
	}
	return ""
}

// Encode returns the path and query string in parameter order.
func (r *Request) Encode() string {
	var b strings.Builder
	b.WriteString(r.Path)
	for i, p := range r.params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(p.key)
		b.WriteByte('=')
		if p.raw {
			b.WriteString(p.value)
		} else {
			b.WriteString(Escape(p.value))
		}
	}
	return b.String()
}

// Escape percent-encodes s for a query value, spaces as %20.
func Escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// JoinIDs renders an element address as comma-joined ids.
func JoinIDs(ids []int) string {
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(id))
	}
	return b.String()
}

// JoinPaths renders several addresses, colon-separated.
func JoinPaths(paths [][]int) string {
	parts := make([]string, len(paths))
	for i, p := range paths {
		parts[i] = JoinIDs(p)
	}
	return strings.Join(parts, ":")
}
