// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package rangespec

// CartesianProduct returns every combination taking one item from each list.
// The rightmost list varies fastest. An empty input yields a single empty
// tuple; any empty list yields no tuples.
func CartesianProduct[T any](lists [][]T) [][]T {
	out := [][]T{{}}
	for _, list := range lists {
		next := make([][]T, 0, len(out)*len(list))
		for _, prefix := range out {
			for _, item := range list {
				tuple := make([]T, len(prefix)+1)
				copy(tuple, prefix)
				tuple[len(prefix)] = item
				next = append(next, tuple)
			}
		}
		out = next
	}
	return out
}

// ProductSize returns the number of tuples CartesianProduct would produce.
func ProductSize[T any](lists [][]T) int {
	n := 1
	for _, list := range lists {
		n *= len(list)
	}
	return n
}
