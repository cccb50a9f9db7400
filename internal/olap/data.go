// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package olap

import (
	"context"
	"errors"
	"strings"

	"github.com/tomtom215/cubegate/internal/palo"
	"github.com/tomtom215/cubegate/internal/rangespec"
	"github.com/tomtom215/cubegate/internal/schema"
)

// GetData reads the cells addressed by req.
func (s *Service) GetData(ctx context.Context, req DataRequest) (*DataResult, error) {
	if err := s.checkData(req); err != nil {
		return nil, err
	}
	var res *DataResult
	err := s.run(ctx, func(x *exchange) error {
		var err error
		res, err = s.readCells(ctx, x, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// SetData writes req.Values to the cells addressed by req, one value per
// address in address order. It returns "OK".
func (s *Service) SetData(ctx context.Context, req DataRequest) (string, error) {
	if !s.cfg.AllowSetData {
		return "", validationf("Data updates are disabled for this application.")
	}
	if err := s.checkData(req); err != nil {
		return "", err
	}
	err := s.run(ctx, func(x *exchange) error {
		return x.replay(func() error {
			return s.writeOnce(ctx, x, req)
		})
	})
	if err != nil {
		return "", err
	}
	return "OK", nil
}

func (s *Service) checkData(req DataRequest) error {
	if err := s.checkDatabase(req.DB); err != nil {
		return err
	}
	if req.Cube == "" {
		return validationf("Missing cube parameter")
	}
	if len(req.Dims) == 0 {
		return validationf("Missing dims parameter")
	}
	return nil
}

func (s *Service) readCells(ctx context.Context, x *exchange, req DataRequest) (*DataResult, error) {
	var res *DataResult
	err := x.replay(func() error {
		var err error
		res, err = s.readOnce(ctx, x, req)
		return err
	})
	return res, err
}

// address is a resolved cell request.
type address struct {
	db      *schema.Database
	cube    *schema.Cube
	paths   [][]int
	headers []string
}

// resolve maps req's names to element ids and builds the address list.
func (s *Service) resolve(ctx context.Context, x *exchange, req DataRequest) (*address, error) {
	db, err := x.prepare(ctx, req.DB)
	if err != nil {
		return nil, err
	}
	cube, ok := db.Cube(dequote(req.Cube))
	if !ok {
		return nil, x.structuralMiss(ctx, db, notFoundf("Cube '%s' is not defined in the database.", dequote(req.Cube)))
	}
	if cube.DimensionCount != len(req.Dims) {
		return nil, x.structuralMiss(ctx, db, validationf("Wrong number of dimension elements supplied (should be %d)", cube.DimensionCount))
	}

	addr := &address{db: db, cube: cube}
	ids := make([][]int, len(req.Dims))
	for i, raw := range req.Dims {
		pos := i + 1
		dim, ok := db.DimensionByID(cube.DimensionIDs[i])
		if !ok {
			return nil, x.structuralMiss(ctx, db, notFoundf("Dimension position %d for Cube '%s' is not defined.", pos, cube.Name))
		}
		set, err := db.EnsureElements(ctx, x, dim)
		if err != nil {
			return nil, err
		}

		name := rangespec.RemoveQuotes(raw, false)
		names := []string{name}
		if spec, ok := strings.CutPrefix(name, "="); ok {
			names, err = s.rangeNames(spec)
			if err != nil {
				return nil, validationf("Error in dimension position %d: %v", pos, err)
			}
			addr.headers = names
		}

		ids[i] = make([]int, len(names))
		for j, n := range names {
			e, ok := set.ByName(n)
			if !ok {
				return nil, x.structuralMiss(ctx, db, notFoundf("Element '%s' in dimension position %d is not defined.", n, pos))
			}
			ids[i][j] = e.ID
		}
	}

	if n := rangespec.ProductSize(ids); n > s.cfg.MaxCells {
		return nil, validationf("There is a maximum of %d total elements in a single range request.", s.cfg.MaxCells)
	}
	addr.paths = rangespec.CartesianProduct(ids)
	return addr, nil
}

// rangeNames expands the value after a leading "=". A value quoted as a
// whole, ="A,B", is read as the list inside the quotes.
func (s *Service) rangeNames(spec string) ([]string, error) {
	opts := rangespec.Options{Separator: ',', Quote: '"', Ranges: true, MaxRange: s.cfg.MaxRange}
	names, err := rangespec.Parse(spec, opts)
	if err != nil {
		return nil, err
	}
	if len(names) == 1 && strings.HasPrefix(strings.TrimSpace(spec), `"`) && strings.IndexByte(names[0], ',') >= 0 {
		return rangespec.Parse(names[0], opts)
	}
	return names, nil
}

func (s *Service) readOnce(ctx context.Context, x *exchange, req DataRequest) (*DataResult, error) {
	addr, err := s.resolve(ctx, x, req)
	if err != nil {
		return nil, err
	}
	cells, tok, err := x.client.ReadCells(ctx, x.sess, addr.db.ID, addr.cube.ID, addr.paths, addr.cube.Token.Get())
	if err := x.checkCubeToken(addr, tok, err); err != nil {
		return nil, err
	}

	res := decode(cells, req.Options)
	res.Headers = addr.headers
	return res, nil
}

func (s *Service) writeOnce(ctx context.Context, x *exchange, req DataRequest) error {
	addr, err := s.resolve(ctx, x, req)
	if err != nil {
		return err
	}
	if len(req.Values) != len(addr.paths) {
		return validationf("Wrong number of values supplied (should be %d)", len(addr.paths))
	}
	tok, err := x.client.WriteCells(ctx, x.sess, addr.db.ID, addr.cube.ID, addr.paths, req.Values, addr.cube.Token.Get())
	return x.checkCubeToken(addr, tok, err)
}

// checkCubeToken treats a mismatch answer, or a cube token different from
// the cached one, as a stale cache. The server token is cached otherwise.
func (x *exchange) checkCubeToken(addr *address, tok palo.Tokens, err error) error {
	if errors.Is(err, palo.ErrTokenMismatch) {
		return x.invalidate(addr.db, "cube_token")
	}
	if err != nil {
		return err
	}
	if cached := addr.cube.Token.Get(); cached != "" && tok.Cube != "" && cached != tok.Cube {
		return x.invalidate(addr.db, "cube_token")
	}
	if tok.Cube != "" {
		addr.cube.Token.Set(tok.Cube)
	}
	return nil
}
