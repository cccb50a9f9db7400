// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package rangespec

import (
	"errors"
	"reflect"
	"strconv"
	"testing"
)

// TestParse tests tokenization and range expansion
func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		spec string
		want []string
	}{
		{"single", "Jan", []string{"Jan"}},
		{"list", "Jan,Feb, Mar", []string{"Jan", "Feb", "Mar"}},
		{"numeric range", "1-3", []string{"1", "2", "3"}},
		{"range then literal", "2023-2024,Total", []string{"2023", "2024", "Total"}},
		{"quoted with separator", `"Jan, Feb",Mar`, []string{"Jan, Feb", "Mar"}},
		{"quoted range bounds", `"1" - "2"`, []string{"1", "2"}},
		{"doubled quote escape", `"say ""hi""",x`, []string{`say "hi"`, "x"}},
		{"leading dash is literal", "-5", []string{"-5"}},
		{"empty", "", nil},
		{"whitespace only", "   ", nil},
		{"spaces around range", " 4 - 5 ", []string{"4", "5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.spec, DefaultOptions())
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.spec, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %q, want %q", tt.spec, got, tt.want)
			}
		})
	}
}

// TestParseErrors tests malformed specifications
func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		spec string
		want error
	}{
		{"unterminated quote", `"Jan,Feb`, ErrUnterminatedQuote},
		{"junk after quote", `"Jan"x,Feb`, ErrMissingSeparator},
		{"descending", "5-3", ErrInvalidRange},
		{"non-numeric start", "a-3", ErrInvalidRange},
		{"non-numeric end", "1-b", ErrInvalidRange},
		{"dangling quoted range", `"1"-`, ErrInvalidRange},
		{"too large", "1-1001", ErrRangeTooLarge},
		{"int64 span", "0-9223372036854775807", ErrRangeTooLarge},
		{"full int64 span", `"-9223372036854775808"-9223372036854775807`, ErrRangeTooLarge},
		{"one past the limit near max", "9223372036854774807-9223372036854775807", ErrRangeTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tt.spec, DefaultOptions())
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse(%q) error = %v, want %v", tt.spec, err, tt.want)
			}
		})
	}
}

// TestParseRangeSize tests that an inclusive range yields end-start+1 ascending tokens
func TestParseRangeSize(t *testing.T) {
	t.Parallel()

	got, err := Parse("1-1000", DefaultOptions())
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	if len(got) != 1000 {
		t.Fatalf("len = %d, want 1000", len(got))
	}
	for i, tok := range got {
		if tok != strconv.Itoa(i+1) {
			t.Fatalf("token %d = %q, want %q", i, tok, strconv.Itoa(i+1))
		}
	}
}

// TestParseListOptions tests that ranges are literal when disabled
func TestParseListOptions(t *testing.T) {
	t.Parallel()

	got, err := Parse("1-2,x", ListOptions())
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	want := []string{"1-2", "x"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse = %q, want %q", got, want)
	}
}

// TestRemoveQuotes tests quote stripping
func TestRemoveQuotes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		trim bool
		want string
	}{
		{`"abc"`, false, "abc"},
		{`"abc`, false, "abc"},
		{`abc`, false, "abc"},
		{` "abc" `, true, "abc"},
		{` "abc" `, false, ` "abc" `},
		{`=A,B`, false, `=A,B`},
	}
	for _, tt := range tests {
		if got := RemoveQuotes(tt.in, tt.trim); got != tt.want {
			t.Errorf("RemoveQuotes(%q, %v) = %q, want %q", tt.in, tt.trim, got, tt.want)
		}
	}
}

// TestUnquote tests quote stripping with a configured quote character
func TestUnquote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    string
		quote byte
		trim  bool
		want  string
	}{
		{`'abc'`, '\'', false, "abc"},
		{` 'abc' `, '\'', true, "abc"},
		{`"abc"`, '\'', false, `"abc"`},
		{`'`, '\'', false, ""},
		{``, '"', true, ""},
	}
	for _, tt := range tests {
		if got := Unquote(tt.in, tt.quote, tt.trim); got != tt.want {
			t.Errorf("Unquote(%q, %q, %v) = %q, want %q", tt.in, tt.quote, tt.trim, got, tt.want)
		}
	}
}

// TestParseValueList tests bracketed and single query values
func TestParseValueList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{"", nil, false},
		{"Products", []string{"Products"}, false},
		{`"Products"`, []string{"Products"}, false},
		{"[Products,Months]", []string{"Products", "Months"}, false},
		{"[1-2]", []string{"1-2"}, false},
		{"[Products", nil, true},
	}
	for _, tt := range tests {
		got, err := ParseValueList(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseValueList(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseValueList(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestSplitFields tests semicolon splitting with quoted runs
func TestSplitFields(t *testing.T) {
	t.Parallel()

	got := SplitFields(`2024;"=Jan,Feb";All Products`)
	want := []string{"2024", `"=Jan,Feb"`, "All Products"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitFields = %q, want %q", got, want)
	}

	got = SplitFields(`"a;b";c`)
	want = []string{`"a;b"`, "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitFields = %q, want %q", got, want)
	}
}
