package expr

import (
	"sort"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/decls"
	"github.com/google/cel-go/common/types"
)

// Function describes one callable overload for listings.
type Function struct {
	Name  string `json:"name" yaml:"name"`
	Usage string `json:"usage" yaml:"usage"`
}

// Functions lists the functions and macros available to expressions,
// sorted by name then usage.
func (e *Evaluator) Functions() []Function {
	return DiscoverFunctionsFromEnv(e.Environment())
}

// DiscoverFunctionsFromEnv lists the functions declared in env, one entry per
// overload, plus its macros. Operators are skipped.
func DiscoverFunctionsFromEnv(env *cel.Env) []Function {
	seen := make(map[Function]bool)
	out := make([]Function, 0, 100)
	add := func(f Function) {
		if seen[f] {
			return
		}
		seen[f] = true
		out = append(out, f)
	}

	for _, fn := range env.Functions() {
		if isOperator(fn.Name()) {
			continue
		}
		for _, o := range fn.OverloadDecls() {
			add(Function{Name: fn.Name(), Usage: usageFromOverload(fn.Name(), o)})
		}
	}
	for _, m := range env.Macros() {
		if isOperator(m.Function()) {
			continue
		}
		add(Function{Name: m.Function(), Usage: "macro"})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Usage < out[j].Usage
	})
	return out
}

// isOperator filters out operator-style internal declarations.
func isOperator(name string) bool {
	if strings.HasPrefix(name, "@") {
		return true
	}
	if strings.HasPrefix(name, "_") && strings.HasSuffix(name, "_") {
		return true
	}
	switch name {
	case "!_", "-_", "_[_]", "_?_:_":
		return true
	}
	return false
}

func typeLabel(t *types.Type) string {
	if t == nil {
		return "any"
	}
	if name := t.DeclaredTypeName(); name != "" {
		return name
	}
	if name := t.TypeName(); name != "" {
		return name
	}
	return "any"
}

func formatParams(params []*types.Type) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = typeLabel(p)
	}
	return strings.Join(parts, ", ")
}

// usageFromOverload renders an overload as recv.name(args) -> result or
// name(args) -> result.
func usageFromOverload(name string, o *decls.OverloadDecl) string {
	params := o.ArgTypes()
	call := name + "(" + formatParams(params) + ")"
	if o.IsMemberFunction() && len(params) > 0 {
		call = typeLabel(params[0]) + "." + name + "(" + formatParams(params[1:]) + ")"
	}
	if o.ResultType() == nil {
		return call
	}
	return call + " -> " + typeLabel(o.ResultType())
}
