// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

// Package numfmt renders cell values for display using the compact form
// codes of the data API:
//
//	$  currency (US dollars, two decimals unless set)
//	%  percent (value times 100, no decimals unless set)
//	,  thousands grouping
//	(  negatives in parentheses
//
// Output follows en-US conventions.
package numfmt

import (
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// MaxDecimals is the largest supported number of fraction digits.
const MaxDecimals = 10

// defaultMaxFraction is the fraction precision used when none is given.
const defaultMaxFraction = 3

// Style selects currency or percent rendering.
type Style int

const (
	Decimal Style = iota
	Currency
	Percent
)

// Form is a parsed form string.
type Form struct {
	Style     Style
	Grouping  bool
	NegParens bool
}

// ParseForm interprets form codes. Unknown characters are ignored; when
// both $ and % appear the last one wins.
func ParseForm(s string) Form {
	var f Form
	for _, c := range s {
		switch c {
		case '$':
			f.Style = Currency
		case '%':
			f.Style = Percent
		case ',':
			f.Grouping = true
		case '(':
			f.NegParens = true
		}
	}
	return f
}

// Format renders v with dec fraction digits, or the style default when dec
// is negative. Negative-parenthesis handling is left to the caller.
func (f Form) Format(v float64, dec int) string {
	if f.Style == Percent {
		v *= 100
	}
	if dec < 0 {
		switch f.Style {
		case Currency:
			dec = 2
		case Percent:
			dec = 0
		}
	}

	neg := v < 0
	var s string
	if dec >= 0 {
		s = Fixed(math.Abs(v), dec)
	} else {
		s = trimFraction(Fixed(math.Abs(v), defaultMaxFraction))
	}
	if isZero(s) {
		neg = false
	}
	if f.Grouping {
		s = Group(s)
	}

	switch f.Style {
	case Currency:
		s = "$" + s
	case Percent:
		s += "%"
	}
	if neg {
		s = "-" + s
	}
	return s
}

// Fixed renders v with exactly dec fraction digits, rounding halves away
// from zero.
func Fixed(v float64, dec int) string {
	return strconv.FormatFloat(Round(v, dec), 'f', dec, 64)
}

// Round rounds v half away from zero to dec fraction digits.
func Round(v float64, dec int) float64 {
	p := math.Pow10(dec)
	return math.Round(v*p) / p
}

// Group inserts thousands separators into the integer part of an unsigned
// decimal string.
func Group(s string) string {
	intPart, frac, hasFrac := strings.Cut(s, ".")
	n, err := strconv.ParseInt(intPart, 10, 64)
	var grouped string
	if err == nil {
		grouped = humanize.Comma(n)
	} else {
		grouped = groupDigits(intPart)
	}
	if hasFrac {
		return grouped + "." + frac
	}
	return grouped
}

func groupDigits(s string) string {
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}

func trimFraction(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func isZero(s string) bool {
	return strings.Trim(s, "0.") == ""
}
