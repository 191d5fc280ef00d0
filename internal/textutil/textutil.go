// Package textutil holds the string helpers used to build and rank
// bracket-access completion labels.
package textutil

import "strings"

// PrefixMatch reports whether label starts with tail. The comparison is
// case-sensitive and an empty tail matches every label.
func PrefixMatch(label, tail string) bool {
	return strings.HasPrefix(label, tail)
}

// LongestCommonPrefix returns the longest byte prefix shared by a and b,
// trimmed back so it never ends inside a multi-byte rune.
func LongestCommonPrefix(a, b string) string {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	for i > 0 && i < len(a) && !runeStart(a[i]) {
		i--
	}
	return a[:i]
}

func runeStart(b byte) bool { return b&0xC0 != 0x80 }

var mappingEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// EscapeMappingString escapes s for use inside a single-quoted key literal:
// backslashes, single quotes and line breaks or tabs.
func EscapeMappingString(s string) string {
	return mappingEscaper.Replace(s)
}
