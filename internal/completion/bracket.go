package completion

import (
	"strconv"

	"github.com/oakwood-commons/exprsense/internal/textutil"
	"github.com/oakwood-commons/exprsense/pkg/value"
)

// DefaultSkipKeys are runtime bookkeeping keys that never hold user data.
var DefaultSkipKeys = []string{"__ob__", "pairedItem"}

// isNumericKey reports whether key is written exactly as a non-negative
// decimal integer, so "0" and "12" qualify but "01", "+1", "-1" and "1.5" do not.
func isNumericKey(key string) bool {
	n, err := strconv.Atoi(key)
	if err != nil || n < 0 {
		return false
	}
	return strconv.Itoa(n) == key
}

// bracketLabel renders key as the text that completes an open '['.
func bracketLabel(key string) string {
	if isNumericKey(key) {
		return key + "]"
	}
	return "'" + textutil.EscapeMappingString(key) + "']"
}

// buildOptions lists the keys of an object or the indices of an array as
// bracket-access options. Any other value has no options.
func (p *Provider) buildOptions(v value.Value) []Option {
	if !v.IsIndexable() {
		return nil
	}
	keys := v.Keys()
	options := make([]Option, 0, len(keys))
	for _, key := range keys {
		if _, skip := p.skipKeys[key]; skip {
			continue
		}
		options = append(options, Option{Label: bracketLabel(key), Kind: KindKeyword})
	}
	return options
}

// filterOptions keeps the options whose label starts with tail.
func filterOptions(options []Option, tail string) []Option {
	if tail == "" {
		return options
	}
	kept := options[:0:0]
	for _, opt := range options {
		if textutil.PrefixMatch(opt.Label, tail) {
			kept = append(kept, opt)
		}
	}
	return kept
}
