package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefixMatch(t *testing.T) {
	tests := []struct {
		label string
		tail  string
		want  bool
	}{
		{label: "'name']", tail: "", want: true},
		{label: "'name']", tail: "'na", want: true},
		{label: "'name']", tail: "'name']", want: true},
		{label: "'name']", tail: "'Na", want: false},
		{label: "0]", tail: "'", want: false},
		{label: "10]", tail: "1", want: true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PrefixMatch(tt.label, tt.tail), "PrefixMatch(%q, %q)", tt.label, tt.tail)
	}
}

func TestLongestCommonPrefix(t *testing.T) {
	tests := []struct {
		a, b string
		want string
	}{
		{a: "", b: "'name']", want: ""},
		{a: "'na", b: "'name']", want: "'na"},
		{a: "'nx", b: "'name']", want: "'n"},
		{a: "abc", b: "abc", want: "abc"},
		{a: "'é", b: "'è']", want: "'"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LongestCommonPrefix(tt.a, tt.b), "LongestCommonPrefix(%q, %q)", tt.a, tt.b)
	}
}

func TestEscapeMappingString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "it's", want: `it\'s`},
		{in: `a\b`, want: `a\\b`},
		{in: "line\nbreak", want: `line\nbreak`},
		{in: "tab\there", want: `tab\there`},
		{in: `\'`, want: `\\\'`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EscapeMappingString(tt.in), "EscapeMappingString(%q)", tt.in)
	}
}
