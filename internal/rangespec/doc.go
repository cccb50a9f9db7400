// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

/*
Package rangespec parses the compact element-addressing notation used by
the data API.

A range specification is a separator-delimited list of element names:

	2023,2024,"Jan, Feb",Q1
	1-12
	"2020"-"2024"

Tokens may be quoted; a doubled quote character inside a quoted token is a
literal quote. When ranges are enabled, two numeric bounds joined by a dash
expand to every integer in between, inclusive and ascending:

	names, err := rangespec.Parse("1-3,Total", rangespec.DefaultOptions())
	// names == []string{"1", "2", "3", "Total"}

CartesianProduct flattens the per-dimension name lists of a multi-range
cell request into one address list, with the rightmost list varying
fastest.
*/
package rangespec
