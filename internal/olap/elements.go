// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package olap

import (
	"context"

	"github.com/tomtom215/cubegate/internal/schema"
)

// GetElements returns one element listing per query. A listing is a
// slice of names in flat format; in hierarchy format a consolidated
// element is a slice holding its name followed by its children.
//
// Dimensions whose elements are already cached are answered without
// acquiring a session.
func (s *Service) GetElements(ctx context.Context, db string, queries []ElementQuery) ([][]any, error) {
	if err := s.checkDatabase(db); err != nil {
		return nil, err
	}
	if len(queries) == 0 {
		return nil, validationf("Missing or invalid dim parameter")
	}

	if sets, ok := s.cachedElements(db, queries); ok {
		return listElements(sets, queries)
	}

	var sets []*namedSet
	err := s.run(ctx, func(x *exchange) error {
		return x.replay(func() error {
			var err error
			sets, err = x.elementSets(ctx, db, queries)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return listElements(sets, queries)
}

type namedSet struct {
	dim *schema.Dimension
	set *schema.ElementSet
}

func (s *Service) cachedElements(db string, queries []ElementQuery) ([]*namedSet, bool) {
	d, presence := s.reg.State(s.cfg.Endpoint).Catalog.Database(db)
	if presence != schema.Present {
		return nil, false
	}
	out := make([]*namedSet, len(queries))
	for i, q := range queries {
		dim, ok := d.Dimension(q.Dimension)
		if !ok {
			return nil, false
		}
		set := dim.Elements()
		if set == nil {
			return nil, false
		}
		out[i] = &namedSet{dim: dim, set: set}
	}
	return out, true
}

func (x *exchange) elementSets(ctx context.Context, db string, queries []ElementQuery) ([]*namedSet, error) {
	d, err := x.prepare(ctx, db)
	if err != nil {
		return nil, err
	}
	out := make([]*namedSet, len(queries))
	for i, q := range queries {
		dim, ok := d.Dimension(q.Dimension)
		if !ok {
			return nil, x.structuralMiss(ctx, d, notFoundf("Dimension '%s' is not defined in the database.", q.Dimension))
		}
		set, err := d.EnsureElements(ctx, x, dim)
		if err != nil {
			return nil, err
		}
		out[i] = &namedSet{dim: dim, set: set}
	}
	return out, nil
}

func listElements(sets []*namedSet, queries []ElementQuery) ([][]any, error) {
	out := make([][]any, len(queries))
	for i, q := range queries {
		list, err := elementList(sets[i], q)
		if err != nil {
			return nil, err
		}
		out[i] = list
	}
	return out, nil
}

// elementList builds the listing of one dimension. With a parent, its
// direct children are listed and the type filter does not apply.
func elementList(ns *namedSet, q ElementQuery) ([]any, error) {
	set := ns.set
	out := []any{}
	if q.HasParent {
		root, ok := set.ByName(q.Parent)
		if !ok {
			return nil, notFoundf("Parent element does not exist for dimension '%s'.", ns.dim.Name)
		}
		for _, child := range set.Children(root) {
			if q.Format == FormatHierarchy {
				out = append(out, descend(set, child, 1, q.Level))
			} else {
				out = append(out, child.Name)
			}
		}
		return out, nil
	}

	for _, e := range set.All() {
		if (q.Type == TypeBase && !e.IsBase()) || (q.Type == TypeConsolidated && e.IsBase()) {
			continue
		}
		switch {
		case q.Format != FormatHierarchy:
			out = append(out, e.Name)
		case e.Depth == 0:
			out = append(out, descend(set, e, 1, q.Level))
		}
	}
	return out, nil
}

// descend renders e and, while level is below maxLevel (or maxLevel is 0), its
// subtree. Leaves and cut-off nodes render as bare names.
func descend(set *schema.ElementSet, e *schema.Element, level, maxLevel int) any {
	if e.IsBase() || (maxLevel > 0 && level >= maxLevel) {
		return e.Name
	}
	node := []any{e.Name}
	for _, child := range set.Children(e) {
		node = append(node, descend(set, child, level+1, maxLevel))
	}
	return node
}
