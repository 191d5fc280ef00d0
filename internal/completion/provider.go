// Package completion offers bracket-access completions for workflow
// expressions. Typing $json['cus inside an expression resolves $json and
// proposes its keys as 'customer'] style continuations.
package completion

import (
	"github.com/go-logr/logr"
)

// Provider runs the extract, resolve and build pipeline. It holds only
// read-only configuration, so one Provider may serve concurrent requests.
type Provider struct {
	resolver Resolver
	denylist map[string]struct{}
	skipKeys map[string]struct{}
	lookback int
	logger   logr.Logger
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithDenylist adds match texts that never produce completions. The
// defaults in DefaultDenylist always apply.
func WithDenylist(texts ...string) ProviderOption {
	return func(p *Provider) {
		for _, t := range texts {
			if t != "" {
				p.denylist[t] = struct{}{}
			}
		}
	}
}

// WithSkipKeys adds keys that are never offered. The defaults in
// DefaultSkipKeys always apply.
func WithSkipKeys(keys ...string) ProviderOption {
	return func(p *Provider) {
		for _, k := range keys {
			p.skipKeys[k] = struct{}{}
		}
	}
}

// WithLookback sets how many bytes before the cursor are inspected.
// Non-positive values keep DefaultLookback.
func WithLookback(n int) ProviderOption {
	return func(p *Provider) {
		if n > 0 {
			p.lookback = n
		}
	}
}

// WithLogger sets the logger used for debug traces.
func WithLogger(lgr logr.Logger) ProviderOption {
	return func(p *Provider) {
		p.logger = lgr
	}
}

// NewProvider creates a Provider that resolves bases with r.
func NewProvider(r Resolver, opts ...ProviderOption) *Provider {
	p := &Provider{
		resolver: r,
		denylist: make(map[string]struct{}, len(DefaultDenylist)),
		skipKeys: make(map[string]struct{}, len(DefaultSkipKeys)),
		lookback: DefaultLookback,
		logger:   logr.Discard(),
	}
	for _, t := range DefaultDenylist {
		p.denylist[t] = struct{}{}
	}
	for _, k := range DefaultSkipKeys {
		p.skipKeys[k] = struct{}{}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Complete returns the options for req, or nil when there is nothing to
// offer. A nil result covers every failure: no bracket context, a denied
// root, a base that does not resolve, a value without keys, or a tail that
// filters everything out.
func (p *Provider) Complete(req Request) *Result {
	if p == nil || p.resolver == nil {
		return nil
	}
	match, access, ok := p.extract(req)
	if !ok {
		return nil
	}
	v, ok := p.resolve(access.Base, req.TargetNode)
	if !ok {
		return nil
	}
	options := filterOptions(p.buildOptions(v), access.Tail)
	if len(options) == 0 {
		p.logger.V(1).Info("no completions", "base", access.Base, "tail", access.Tail, "kind", v.Kind().String())
		return nil
	}
	return &Result{
		From:    match.To - len(access.Tail),
		To:      match.To,
		Tail:    access.Tail,
		Options: options,
		Filter:  false,
	}
}
