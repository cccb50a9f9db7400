// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package palo

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBodySize limits how much of a failed reply is read for diagnostics.
const maxErrorBodySize = 64 * 1024

// Coherence token headers.
const (
	HeaderDatabaseToken  = "X-PALO-DB"
	HeaderCubeToken      = "X-PALO-CB"
	HeaderDimensionToken = "X-PALO-DIM"
)

// Response is a successful protocol reply.
type Response struct {
	Path   string
	Body   string
	Tokens Tokens
}

// Records splits the body into records of at least minFields fields.
func (r *Response) Records(quote byte, minFields int) ([][]string, error) {
	return ParseRecords(r.Body, quote, minFields)
}

func tokensFrom(h http.Header) Tokens {
	return Tokens{
		Database:  h.Get(HeaderDatabaseToken),
		Cube:      h.Get(HeaderCubeToken),
		Dimension: h.Get(HeaderDimensionToken),
	}
}

// readBodyForError reads at most maxErrorBodySize bytes of a failed reply.
func readBodyForError(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return "(failed to read response body)"
	}
	if len(body) == maxErrorBodySize {
		return string(body) + "\n... (truncated)"
	}
	return string(body)
}

// ParseRecords splits body into newline-delimited records. Blank lines are
// skipped. A record with fewer than minFields fields is ErrResponseFormat.
func ParseRecords(body string, quote byte, minFields int) ([][]string, error) {
	var out [][]string
	for n, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := SplitRecord(line, ';', quote)
		if len(fields) < minFields {
			return nil, fmt.Errorf("%w: line %d has %d fields, want at least %d", ErrResponseFormat, n+1, len(fields), minFields)
		}
		out = append(out, fields)
	}
	return out, nil
}

// SplitRecord splits one record on sep. A field opening with quote runs to
// the matching closing quote, with a doubled quote read as a literal one;
// the quotes are removed. A trailing separator yields a final empty field.
func SplitRecord(line string, sep, quote byte) []string {
	var (
		fields []string
		b      strings.Builder
	)
	i := 0
	for {
		b.Reset()
		if i < len(line) && line[i] == quote {
			i++
			for i < len(line) {
				if line[i] == quote {
					if i+1 < len(line) && line[i+1] == quote {
						b.WriteByte(quote)
						i += 2
						continue
					}
					i++
					break
				}
				b.WriteByte(line[i])
				i++
			}
		}
		for i < len(line) && line[i] != sep {
			b.WriteByte(line[i])
			i++
		}
		fields = append(fields, b.String())
		if i >= len(line) {
			return fields
		}
		i++
	}
}
