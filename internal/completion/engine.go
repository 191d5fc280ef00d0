//revive:disable:exported
package completion

import (
	"github.com/oakwood-commons/exprsense/internal/textutil"
	"github.com/oakwood-commons/exprsense/pkg/value"
)

// Request is one completion attempt. Cursor is a byte offset into Text.
type Request struct {
	Text       string // document text, or at least the current line up to the cursor
	Cursor     int    // byte offset of the cursor in Text
	Explicit   bool   // true when the user asked for completion, false while typing
	TargetNode string // node the expression is evaluated relative to, may be empty
}

// Match is the bracket-access text that ends at the cursor.
type Match struct {
	Text string
	From int
	To   int
}

// Access splits a Match at its last '['.
// Base + "[" + Tail == Match.Text.
type Access struct {
	Base string
	Tail string
}

// Kind tags a completion option for the host editor.
type Kind string

const (
	KindKeyword Kind = "keyword"
)

// Option is a single candidate. Label is always a valid bracket-access
// continuation such as 0] or 'name'].
type Option struct {
	Label string `json:"label" yaml:"label"`
	Kind  Kind   `json:"kind" yaml:"kind"`
}

// Result is a non-empty, already filtered set of options. The host replaces
// the range [From, To) with the chosen label. From, To and the ranges from
// GetMatch are byte offsets, not character counts; hosts that count UTF-16
// units or runes convert them.
type Result struct {
	From    int      `json:"from" yaml:"from"`
	To      int      `json:"to" yaml:"to"`
	Tail    string   `json:"tail" yaml:"tail"`
	Options []Option `json:"options" yaml:"options"`
	// Filter is always false: the options are already filtered and the host
	// must not filter them again.
	Filter bool `json:"filter" yaml:"filter"`
}

// GetMatch returns the [start, end) byte range of opt.Label that matches the
// typed tail, for highlighting.
func (r *Result) GetMatch(opt Option) (start, end int) {
	return 0, len(textutil.LongestCommonPrefix(r.Tail, opt.Label))
}

// Resolver evaluates an expression template relative to a target node.
// Implementations may fail or panic on malformed input; the provider
// contains both.
type Resolver interface {
	Resolve(template, targetNode string) (value.Value, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(template, targetNode string) (value.Value, error)

func (f ResolverFunc) Resolve(template, targetNode string) (value.Value, error) {
	return f(template, targetNode)
}

//revive:enable:exported
