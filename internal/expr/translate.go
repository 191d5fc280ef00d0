package expr

import "strings"

// Roots are the $-prefixed names an expression may reference.
var Roots = []string{
	"json", "binary", "input", "node", "prevNode",
	"vars", "workflow", "execution",
	"runIndex", "itemIndex", "now", "today",
}

var rootSet = func() map[string]bool {
	m := make(map[string]bool, len(Roots))
	for _, r := range Roots {
		m[r] = true
	}
	return m
}()

// translate rewrites workflow expression syntax into CEL: $json becomes
// json and $('Name') becomes node['Name']. String literals are copied
// unchanged. Unknown $names are kept so that compilation reports them.
func translate(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	// true marks a paren opened by $( that must close with ].
	var parens []bool
	var quote byte
	for i := 0; i < len(src); i++ {
		c := src[i]
		if quote != 0 {
			b.WriteByte(c)
			switch c {
			case '\\':
				if i+1 < len(src) {
					i++
					b.WriteByte(src[i])
				}
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
			b.WriteByte(c)
		case '(':
			parens = append(parens, false)
			b.WriteByte(c)
		case ')':
			if n := len(parens); n > 0 {
				call := parens[n-1]
				parens = parens[:n-1]
				if call {
					b.WriteByte(']')
					continue
				}
			}
			b.WriteByte(c)
		case '$':
			if i+1 < len(src) && src[i+1] == '(' {
				parens = append(parens, true)
				b.WriteString("node[")
				i++
				continue
			}
			name := identAt(src, i+1)
			if rootSet[name] {
				b.WriteString(name)
				i += len(name)
				continue
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func identAt(s string, i int) string {
	j := i
	for j < len(s) {
		c := s[j]
		isLetter := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		if !isLetter && (j == i || c < '0' || c > '9') {
			break
		}
		j++
	}
	return s[i:j]
}
