// Package formatter renders command output as tables, JSON or YAML.
package formatter

import (
	"os"
	"strings"

	runewidth "github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const (
	columnSep        = "  "
	ellipsis         = "..."
	defaultTermWidth = 120
	minColumnWidth   = 4
)

// RenderTable renders headers and rows as aligned columns measured in display
// cells. When maxWidth is positive the last column is truncated to fit.
func RenderTable(headers []string, rows [][]string, maxWidth int) string {
	widths := columnWidths(headers, rows)
	if maxWidth > 0 && len(widths) > 0 {
		fixed := 0
		for _, w := range widths[:len(widths)-1] {
			fixed += w + len(columnSep)
		}
		last := maxWidth - fixed
		if last < minColumnWidth {
			last = minColumnWidth
		}
		if widths[len(widths)-1] > last {
			widths[len(widths)-1] = last
		}
	}

	var b strings.Builder
	writeRow(&b, headers, widths)
	total := 0
	for i, w := range widths {
		if i > 0 {
			total += len(columnSep)
		}
		total += w
	}
	b.WriteString(strings.Repeat("─", total))
	b.WriteString("\n")
	for _, row := range rows {
		writeRow(&b, row, widths)
	}
	return b.String()
}

func columnWidths(headers []string, rows [][]string) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if w := runewidth.StringWidth(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

func writeRow(b *strings.Builder, cells []string, widths []int) {
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		cell = Truncate(cell, w)
		if i == len(widths)-1 {
			b.WriteString(strings.TrimRight(cell, " "))
			break
		}
		b.WriteString(runewidth.FillRight(cell, w))
		b.WriteString(columnSep)
	}
	b.WriteString("\n")
}

// Truncate shortens s to width display cells, ending in "..." when cut.
func Truncate(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= len(ellipsis) {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, ellipsis)
}

// TerminalWidth returns the width of the terminal behind f, or 0 when f is
// not a terminal.
func TerminalWidth(f *os.File) int {
	if f == nil || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return defaultTermWidth
	}
	return w
}
