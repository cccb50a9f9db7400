// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package palo

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// ListDatabases returns the normal databases on the server.
func (c *Client) ListDatabases(ctx context.Context, sess *Session) ([]DatabaseRecord, Tokens, error) {
	req := NewRequest(PathDatabases).
		AddRaw("show_normal", "1").
		AddRaw("show_system", "0").
		AddRaw("show_user_info", "0")
	rows, resp, err := c.list(ctx, sess, req, databaseFields)
	if err != nil {
		return nil, Tokens{}, err
	}
	return decodeDatabases(rows), resp.Tokens, nil
}

// ListCubes returns the normal cubes of a database. The response's
// database token is returned alongside.
func (c *Client) ListCubes(ctx context.Context, sess *Session, dbID int) ([]CubeRecord, Tokens, error) {
	rows, resp, err := c.list(ctx, sess, schemaRequest(PathCubes, dbID), cubeFields)
	if err != nil {
		return nil, Tokens{}, err
	}
	return decodeCubes(rows), resp.Tokens, nil
}

// ListDimensions returns the normal dimensions of a database.
func (c *Client) ListDimensions(ctx context.Context, sess *Session, dbID int) ([]DimensionRecord, Tokens, error) {
	rows, resp, err := c.list(ctx, sess, schemaRequest(PathDimensions, dbID), dimensionFields)
	if err != nil {
		return nil, Tokens{}, err
	}
	return decodeDimensions(rows), resp.Tokens, nil
}

// ListElements returns the elements of a dimension in server order,
// optionally restricted to the children of parent.
func (c *Client) ListElements(ctx context.Context, sess *Session, dbID, dimID int, parent string) ([]ElementRecord, Tokens, error) {
	req := NewRequest(PathElements).AddInt("database", dbID).AddInt("dimension", dimID)
	if parent != "" {
		req.Add("parent", parent)
	}
	rows, resp, err := c.list(ctx, sess, req, elementFields)
	if err != nil {
		return nil, Tokens{}, err
	}
	return decodeElements(rows, c.quote), resp.Tokens, nil
}

// DatabaseInfo asks for the current tokens of a database, presenting
// token as the one held locally.
func (c *Client) DatabaseInfo(ctx context.Context, sess *Session, dbID int, token string) (Tokens, error) {
	req := NewRequest(PathDatabaseInfo).AddInt("database", dbID)
	resp, err := c.Send(ctx, sess, req, tokenHeader(HeaderDatabaseToken, token))
	if err != nil {
		return Tokens{}, err
	}
	return resp.Tokens, nil
}

// ReadCells reads one value per address. A single address uses
// cell/value, several use cell/values.
func (c *Client) ReadCells(ctx context.Context, sess *Session, dbID, cubeID int, paths [][]int, cubeToken string) ([]Cell, Tokens, error) {
	req := c.cellRequest(PathCellValue, PathCellValues, dbID, cubeID, paths)
	resp, err := c.Send(ctx, sess, req, tokenHeader(HeaderCubeToken, cubeToken))
	if err != nil {
		return nil, Tokens{}, err
	}
	rows, err := resp.Records(c.quote, cellFields)
	if err != nil {
		return nil, Tokens{}, err
	}
	cells, err := decodeCells(rows, len(paths))
	if err != nil {
		return nil, Tokens{}, err
	}
	return cells, resp.Tokens, nil
}

// WriteCells replaces one value per address. Numbers are written as-is,
// anything else is percent-encoded.
func (c *Client) WriteCells(ctx context.Context, sess *Session, dbID, cubeID int, paths [][]int, values []any, cubeToken string) (Tokens, error) {
	req := c.cellRequest(PathCellReplace, PathCellReplaceAll, dbID, cubeID, paths)
	encoded := make([]string, len(values))
	for i, v := range values {
		encoded[i] = EncodeValue(v)
	}
	if len(paths) == 1 {
		req.AddRaw("value", encoded[0])
	} else {
		req.AddRaw("values", strings.Join(encoded, ":"))
	}
	resp, err := c.Send(ctx, sess, req, tokenHeader(HeaderCubeToken, cubeToken))
	if err != nil {
		return Tokens{}, err
	}
	return resp.Tokens, nil
}

// EncodeValue renders a cell value for a write request.
func EncodeValue(v any) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case string:
		return Escape(n)
	case nil:
		return ""
	default:
		return Escape(stringify(n))
	}
}

func stringify(v any) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	if b, ok := v.(bool); ok {
		return strconv.FormatBool(b)
	}
	return ""
}

func (c *Client) cellRequest(single, bulk string, dbID, cubeID int, paths [][]int) *Request {
	if len(paths) == 1 {
		return NewRequest(single).AddInt("database", dbID).AddInt("cube", cubeID).AddRaw("path", JoinIDs(paths[0]))
	}
	return NewRequest(bulk).AddInt("database", dbID).AddInt("cube", cubeID).AddRaw("paths", JoinPaths(paths))
}

func (c *Client) list(ctx context.Context, sess *Session, req *Request, minFields int) ([][]string, *Response, error) {
	resp, err := c.Send(ctx, sess, req, nil)
	if err != nil {
		return nil, nil, err
	}
	rows, err := resp.Records(c.quote, minFields)
	if err != nil {
		return nil, nil, err
	}
	return rows, resp, nil
}

func schemaRequest(path string, dbID int) *Request {
	return NewRequest(path).
		AddInt("database", dbID).
		AddRaw("show_normal", "1").
		AddRaw("show_system", "0").
		AddRaw("show_attribute", "1").
		AddRaw("show_info", "0")
}

func tokenHeader(name, token string) http.Header {
	if token == "" {
		return nil
	}
	h := http.Header{}
	h.Set(name, token)
	return h
}
