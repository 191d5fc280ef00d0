package expr

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrUnterminated is returned for a {{ without a matching }}.
var ErrUnterminated = errors.New("unterminated expression")

// segment is either literal text or an expression taken from {{ }}.
type segment struct {
	text string
	expr bool
}

// parseTemplate splits a template into literal and expression segments.
// A leading '=' marks the value as a template and is dropped.
func parseTemplate(tmpl string) ([]segment, error) {
	tmpl = strings.TrimPrefix(tmpl, "=")
	var segs []segment
	for {
		open := strings.Index(tmpl, "{{")
		if open < 0 {
			if tmpl != "" {
				segs = append(segs, segment{text: tmpl})
			}
			return segs, nil
		}
		if open > 0 {
			segs = append(segs, segment{text: tmpl[:open]})
		}
		body := tmpl[open+2:]
		end := closingBraces(body)
		if end < 0 {
			return nil, errors.Wrapf(ErrUnterminated, "at offset %d", open)
		}
		segs = append(segs, segment{text: strings.TrimSpace(body[:end]), expr: true})
		tmpl = body[end+2:]
	}
}

// closingBraces finds the "}}" that ends an expression body, skipping
// string literals and nested map literals. It returns -1 when there is none.
func closingBraces(body string) int {
	depth := 0
	var quote byte
	for i := 0; i < len(body); i++ {
		c := body[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '{':
			depth++
		case '}':
			if depth == 0 && i+1 < len(body) && body[i+1] == '}' {
				return i
			}
			if depth > 0 {
				depth--
			}
		}
	}
	return -1
}
