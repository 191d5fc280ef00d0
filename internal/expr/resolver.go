package expr

import (
	"github.com/oakwood-commons/exprsense/pkg/value"
)

// ScopeSource supplies the root bindings for a target node.
type ScopeSource interface {
	Scope(targetNode string) (map[string]value.Value, error)
}

// Resolver evaluates templates against scopes from a ScopeSource. It
// satisfies the completion Resolver contract.
type Resolver struct {
	eval   *Evaluator
	source ScopeSource
}

// NewResolver pairs an evaluator with a scope source.
func NewResolver(eval *Evaluator, source ScopeSource) *Resolver {
	return &Resolver{eval: eval, source: source}
}

// Resolve evaluates template relative to targetNode.
func (r *Resolver) Resolve(template, targetNode string) (value.Value, error) {
	scope, err := r.source.Scope(targetNode)
	if err != nil {
		return value.Null(), err
	}
	return r.eval.Evaluate(template, scope)
}
