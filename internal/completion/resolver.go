package completion

import (
	"github.com/oakwood-commons/exprsense/pkg/value"
)

// wrapTemplate turns a bare expression into a resolvable template.
func wrapTemplate(base string) string {
	return "={{ " + base + " }}"
}

// resolve evaluates base relative to targetNode. Errors and panics from the
// resolver both come back as ok == false; only the failure reason is logged.
func (p *Provider) resolve(base, targetNode string) (v value.Value, ok bool) {
	defer func() {
		if recover() != nil {
			p.logger.V(1).Info("resolver panicked", "base", base, "reason", "panic")
			v, ok = value.Null(), false
		}
	}()
	got, err := p.resolver.Resolve(wrapTemplate(base), targetNode)
	if err != nil {
		p.logger.V(1).Info("base did not resolve", "base", base, "reason", "error")
		return value.Null(), false
	}
	return got, true
}
