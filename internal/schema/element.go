// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package schema

import (
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/tomtom215/cubegate/internal/palo"
)

// Dimension is a cached dimension.
type Dimension struct {
	ID           int
	Name         string
	Type         int
	ElementCount int
	LevelCount   int
	AttrID       int
	AttrCubeID   int
	Token        Token

	elements atomic.Pointer[ElementSet]
}

// Elements returns the cached element set, or nil.
func (d *Dimension) Elements() *ElementSet {
	return d.elements.Load()
}

// Element is a node of a dimension hierarchy. It is never modified after
// its set is built.
type Element struct {
	ID       int
	Name     string
	Type     int
	Depth    int
	ChildIDs string
}

// IsBase reports whether the element has no children.
func (e *Element) IsBase() bool {
	return e.ChildIDs == ""
}

// ElementSet is an immutable snapshot of a dimension's elements.
type ElementSet struct {
	ParentFilter string

	order  []*Element
	byName map[string]*Element
	byID   map[int]*Element
}

func newElementSet(records []palo.ElementRecord, parent string) *ElementSet {
	s := &ElementSet{
		ParentFilter: parent,
		order:        make([]*Element, 0, len(records)),
		byName:       make(map[string]*Element, len(records)),
		byID:         make(map[int]*Element, len(records)),
	}
	for _, r := range records {
		e := &Element{ID: r.ID, Name: r.Name, Type: r.Type, Depth: r.Depth, ChildIDs: r.ChildIDs}
		s.order = append(s.order, e)
		s.byName[e.Name] = e
		s.byID[e.ID] = e
	}
	return s
}

// Len returns the number of elements.
func (s *ElementSet) Len() int {
	return len(s.order)
}

// All returns the elements in server order. The slice must not be modified.
func (s *ElementSet) All() []*Element {
	return s.order
}

// ByName looks up an element by exact name.
func (s *ElementSet) ByName(name string) (*Element, bool) {
	e, ok := s.byName[name]
	return e, ok
}

// ByID looks up an element by id.
func (s *ElementSet) ByID(id int) (*Element, bool) {
	e, ok := s.byID[id]
	return e, ok
}

// Children returns the known children of e in listed order.
func (s *ElementSet) Children(e *Element) []*Element {
	if e.IsBase() {
		return nil
	}
	parts := strings.Split(e.ChildIDs, ",")
	out := make([]*Element, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		if child, ok := s.byID[id]; ok {
			out = append(out, child)
		}
	}
	return out
}
