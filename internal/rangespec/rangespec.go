// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package rangespec

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultMaxRange is the largest number of tokens a single numeric range may expand to.
const DefaultMaxRange = 1000

var (
	// ErrUnterminatedQuote is returned when a quoted token has no closing quote.
	ErrUnterminatedQuote = errors.New("unterminated quoted token")

	// ErrMissingSeparator is returned when a quoted token is followed by
	// something other than a separator or a range dash.
	ErrMissingSeparator = errors.New("missing separator after quoted token")

	// ErrInvalidRange is returned for non-numeric or descending range bounds.
	ErrInvalidRange = errors.New("invalid range")

	// ErrRangeTooLarge is returned when a range expands past Options.MaxRange.
	ErrRangeTooLarge = errors.New("range too large")
)

// Options controls tokenization.
type Options struct {
	Separator byte
	Quote     byte
	Ranges    bool
	MaxRange  int
}

// DefaultOptions returns comma-separated, double-quoted options with ranges enabled.
func DefaultOptions() Options {
	return Options{Separator: ',', Quote: '"', Ranges: true, MaxRange: DefaultMaxRange}
}

// ListOptions returns DefaultOptions with range expansion disabled. Value
// lists and write bodies are parsed this way so "1-2" stays a literal.
func ListOptions() Options {
	o := DefaultOptions()
	o.Ranges = false
	return o
}

// Parse splits spec into its tokens, expanding numeric ranges when enabled.
func Parse(spec string, opts Options) ([]string, error) {
	if opts.Separator == 0 {
		opts.Separator = ','
	}
	if opts.Quote == 0 {
		opts.Quote = '"'
	}
	if opts.MaxRange <= 0 {
		opts.MaxRange = DefaultMaxRange
	}

	var (
		out     []string
		start   string
		inRange bool
		pos     int
	)

	emit := func(tok string) error {
		if !inRange {
			out = append(out, tok)
			return nil
		}
		inRange = false
		expanded, err := expand(start, tok, opts.MaxRange)
		if err != nil {
			return err
		}
		out = append(out, expanded...)
		return nil
	}

	for {
		pos = skipSpace(spec, pos)
		if pos >= len(spec) {
			break
		}

		if spec[pos] == opts.Quote {
			tok, next, err := readQuoted(spec, pos, opts.Quote)
			if err != nil {
				return nil, err
			}
			pos = skipSpace(spec, next)
			if opts.Ranges && !inRange && pos < len(spec) && spec[pos] == '-' {
				start = tok
				inRange = true
				pos++
				continue
			}
			if pos < len(spec) && spec[pos] != opts.Separator {
				return nil, fmt.Errorf("%w at offset %d", ErrMissingSeparator, pos)
			}
			pos++
			if err := emit(tok); err != nil {
				return nil, err
			}
			continue
		}

		end := strings.IndexByte(spec[pos:], opts.Separator)
		if end < 0 {
			end = len(spec) - pos
		}
		raw := spec[pos : pos+end]
		if opts.Ranges && !inRange {
			if i := strings.IndexByte(raw, '-'); i > 0 {
				start = strings.TrimSpace(raw[:i])
				inRange = true
				pos += i + 1
				continue
			}
		}
		pos += end + 1
		if err := emit(strings.TrimSpace(raw)); err != nil {
			return nil, err
		}
	}

	if inRange {
		return nil, fmt.Errorf("%w: %q has no end bound", ErrInvalidRange, start)
	}
	return out, nil
}

// readQuoted reads a quoted token starting at spec[pos] and returns it with
// the offset just past its closing quote.
func readQuoted(spec string, pos int, quote byte) (string, int, error) {
	var b strings.Builder
	i := pos + 1
	for i < len(spec) {
		c := spec[i]
		if c != quote {
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 < len(spec) && spec[i+1] == quote {
			b.WriteByte(quote)
			i += 2
			continue
		}
		return b.String(), i + 1, nil
	}
	return "", 0, fmt.Errorf("%w starting at offset %d", ErrUnterminatedQuote, pos)
}

func expand(lo, hi string, max int) ([]string, error) {
	from, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return nil, fmt.Errorf("%w: start %q is not numeric", ErrInvalidRange, lo)
	}
	to, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return nil, fmt.Errorf("%w: end %q is not numeric", ErrInvalidRange, hi)
	}
	if from > to {
		return nil, fmt.Errorf("%w: %d-%d is descending", ErrInvalidRange, from, to)
	}
	// The difference is taken unsigned so extreme bounds cannot wrap.
	if uint64(to)-uint64(from) >= uint64(max) {
		return nil, fmt.Errorf("%w: %d-%d exceeds %d elements", ErrRangeTooLarge, from, to, max)
	}
	out := make([]string, 0, to-from+1)
	for n := from; n <= to; n++ {
		out = append(out, strconv.Itoa(n))
	}
	return out, nil
}

func skipSpace(s string, pos int) int {
	for pos < len(s) && (s[pos] == ' ' || s[pos] == '\t' || s[pos] == '\r' || s[pos] == '\n') {
		pos++
	}
	return pos
}

// RemoveQuotes strips a leading double quote and, if present, the matching
// trailing one. With trim set, surrounding whitespace is removed first.
func RemoveQuotes(s string, trim bool) string {
	return Unquote(s, '"', trim)
}

// Unquote is RemoveQuotes for an arbitrary quote character.
func Unquote(s string, quote byte, trim bool) string {
	if trim {
		s = strings.TrimSpace(s)
	}
	if len(s) == 0 || s[0] != quote {
		return s
	}
	s = s[1:]
	if n := len(s); n > 0 && s[n-1] == quote {
		s = s[:n-1]
	}
	return s
}

// ParseValueList interprets a query value that may name several items.
// "[a,b]" is a list parsed without range expansion; any other non-empty
// value is a single dequoted item. An empty value yields nil.
func ParseValueList(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "[") {
		return []string{RemoveQuotes(s, false)}, nil
	}
	end := strings.LastIndexByte(s, ']')
	if end < 0 {
		return nil, fmt.Errorf("list %q is missing a closing bracket", s)
	}
	return Parse(s[1:end], ListOptions())
}

var fieldPattern = regexp.MustCompile(`("[^"]*")|[^;]+`)

// SplitFields splits a semicolon-separated parameter into fields, keeping
// quoted runs intact. Quotes are left in place.
func SplitFields(s string) []string {
	return fieldPattern.FindAllString(s, -1)
}
