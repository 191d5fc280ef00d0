package completion

import (
	"strings"
	"unicode/utf8"
)

// DefaultLookback bounds how far before the cursor the extractor looks.
const DefaultLookback = 250

// DefaultDenylist holds match texts whose roots can be indexed but not
// introspected.
var DefaultDenylist = []string{"$input[", "$now[", "$today["}

// lineBefore returns the text of the cursor's line up to the cursor, limited
// to lookback bytes, and the offset where it starts.
func lineBefore(text string, cursor, lookback int) (string, int) {
	lineStart := strings.LastIndexByte(text[:cursor], '\n') + 1
	start := max(lineStart, cursor-lookback)
	for start < cursor && !utf8.RuneStart(text[start]) {
		start++
	}
	return text[start:cursor], start
}

// matchBracketAccess finds the bracket-access text ending at the cursor: it
// starts at the first '$' on the window that has a '[' somewhere after it.
func matchBracketAccess(req Request, lookback int) (Match, bool) {
	if req.Cursor < 0 || req.Cursor > len(req.Text) {
		return Match{}, false
	}
	window, offset := lineBefore(req.Text, req.Cursor, lookback)
	lastBracket := strings.LastIndexByte(window, '[')
	if lastBracket < 0 {
		return Match{}, false
	}
	dollar := strings.IndexByte(window[:lastBracket], '$')
	if dollar < 0 {
		return Match{}, false
	}
	return Match{
		Text: window[dollar:],
		From: offset + dollar,
		To:   req.Cursor,
	}, true
}

// splitAccess splits m at its last '['.
func splitAccess(m Match) Access {
	i := strings.LastIndexByte(m.Text, '[')
	if i < 0 {
		return Access{Base: m.Text}
	}
	return Access{Base: m.Text[:i], Tail: m.Text[i+1:]}
}

// extract decides whether req is in a bracket-access context.
func (p *Provider) extract(req Request) (Match, Access, bool) {
	m, ok := matchBracketAccess(req, p.lookback)
	if !ok {
		return Match{}, Access{}, false
	}
	if m.Text == "" && !req.Explicit {
		return Match{}, Access{}, false
	}
	if _, denied := p.denylist[m.Text]; denied {
		return Match{}, Access{}, false
	}
	return m, splitAccess(m), true
}
