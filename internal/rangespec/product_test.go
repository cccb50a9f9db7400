// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package rangespec

import (
	"reflect"
	"testing"
)

// TestCartesianProduct tests ordering with the rightmost list varying fastest
func TestCartesianProduct(t *testing.T) {
	t.Parallel()

	got := CartesianProduct([][]string{{"a", "b"}, {"1", "2"}})
	want := [][]string{{"a", "1"}, {"a", "2"}, {"b", "1"}, {"b", "2"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CartesianProduct = %v, want %v", got, want)
	}
}

// TestCartesianProductEdges tests empty and singleton inputs
func TestCartesianProductEdges(t *testing.T) {
	t.Parallel()

	if got := CartesianProduct[int](nil); len(got) != 1 || len(got[0]) != 0 {
		t.Errorf("CartesianProduct(nil) = %v, want one empty tuple", got)
	}
	if got := CartesianProduct([][]int{{1, 2}, {}}); len(got) != 0 {
		t.Errorf("CartesianProduct with empty list = %v, want none", got)
	}
	got := CartesianProduct([][]int{{7}, {1, 2, 3}, {9}})
	want := [][]int{{7, 1, 9}, {7, 2, 9}, {7, 3, 9}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CartesianProduct = %v, want %v", got, want)
	}
	if n := ProductSize([][]int{{1, 2}, {1, 2, 3}}); n != 6 {
		t.Errorf("ProductSize = %d, want 6", n)
	}
}
