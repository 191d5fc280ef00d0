// Package expr evaluates workflow expression templates such as
// "={{ $json['id'] }}" with CEL.
package expr

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
	celext "github.com/google/cel-go/ext"

	"github.com/oakwood-commons/exprsense/pkg/value"
)

// Scope binds root names (without the leading $) to values.
type Scope map[string]value.Value

// Evaluator compiles and evaluates expressions. It holds no per-request
// state and is safe for concurrent use.
type Evaluator struct {
	env *cel.Env
}

// NewEvaluator creates an evaluator with every root declared and the
// workflow helper functions installed.
func NewEvaluator(opts ...cel.EnvOption) (*Evaluator, error) {
	env, err := newStandardCELEnv(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create CEL environment")
	}
	return &Evaluator{env: env}, nil
}

// Environment returns the CEL environment for introspection.
func (e *Evaluator) Environment() *cel.Env {
	return e.env
}

// newStandardCELEnv creates the environment with common extensions.
// ext.Lists is left out: its first() and last() would overlap with the
// node handle helpers.
func newStandardCELEnv(opts ...cel.EnvOption) (*cel.Env, error) {
	allOpts := make([]cel.EnvOption, 0, len(Roots)+8+len(opts))
	for _, root := range Roots {
		allOpts = append(allOpts, cel.Variable(root, cel.DynType))
	}
	allOpts = append(allOpts,
		cel.CustomTypeAdapter(valueAdapter),
		celext.Strings(),
		celext.Encoders(),
		celext.Math(),
		cel.Function("first",
			cel.MemberOverload("dyn_first", []*cel.Type{cel.DynType}, cel.DynType,
				cel.UnaryBinding(firstItem))),
		cel.Function("last",
			cel.MemberOverload("dyn_last", []*cel.Type{cel.DynType}, cel.DynType,
				cel.UnaryBinding(lastItem))),
		cel.Function("all",
			cel.MemberOverload("dyn_all", []*cel.Type{cel.DynType}, cel.DynType,
				cel.UnaryBinding(allItems))),
	)
	allOpts = append(allOpts, opts...)
	return cel.NewEnv(allOpts...)
}

// itemsOf returns the list behind a receiver: the receiver itself when it is
// a list, or the "items" field of a node handle.
func itemsOf(recv ref.Val) (traits.Lister, ref.Val) {
	switch v := recv.(type) {
	case traits.Lister:
		return v, nil
	case traits.Mapper:
		if items, found := v.Find(types.String("items")); found {
			if l, ok := items.(traits.Lister); ok {
				return l, nil
			}
		}
	}
	return nil, types.NewErr("no items to select from %s", recv.Type().TypeName())
}

func firstItem(recv ref.Val) ref.Val {
	l, errVal := itemsOf(recv)
	if errVal != nil {
		return errVal
	}
	if l.Size().Equal(types.IntZero) == types.True {
		return types.NullValue
	}
	return l.Get(types.IntZero)
}

func lastItem(recv ref.Val) ref.Val {
	l, errVal := itemsOf(recv)
	if errVal != nil {
		return errVal
	}
	size, ok := l.Size().(types.Int)
	if !ok || size == 0 {
		return types.NullValue
	}
	return l.Get(size - 1)
}

func allItems(recv ref.Val) ref.Val {
	l, errVal := itemsOf(recv)
	if errVal != nil {
		return errVal
	}
	return l
}

// Evaluate resolves a template against scope. A template that is a single
// {{ }} segment yields the raw value; anything else is rendered as a string.
func (e *Evaluator) Evaluate(tmpl string, scope Scope) (value.Value, error) {
	segs, err := parseTemplate(tmpl)
	if err != nil {
		return value.Null(), err
	}
	if len(segs) == 1 && segs[0].expr {
		return e.EvaluateExpression(segs[0].text, scope)
	}
	var b strings.Builder
	for _, seg := range segs {
		if !seg.expr {
			b.WriteString(seg.text)
			continue
		}
		v, err := e.EvaluateExpression(seg.text, scope)
		if err != nil {
			return value.Null(), err
		}
		b.WriteString(v.Text())
	}
	return value.String(b.String()), nil
}

// EvaluateExpression evaluates one expression body, without {{ }}. Panics
// raised while evaluating are returned as errors.
func (e *Evaluator) EvaluateExpression(src string, scope Scope) (result value.Value, err error) {
	if strings.TrimSpace(src) == "" {
		return value.Null(), errors.New("empty expression")
	}
	defer func() {
		if r := recover(); r != nil {
			result, err = value.Null(), errors.Newf("evaluation panicked: %v", r)
		}
	}()

	// Compile the expression (parse + type check)
	ast, issues := e.env.Compile(translate(src))
	if issues != nil && issues.Err() != nil {
		return value.Null(), errors.Wrap(issues.Err(), "compilation error")
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return value.Null(), errors.Wrap(err, "program error")
	}

	out, _, err := prg.Eval(activation(scope))
	if err != nil {
		return value.Null(), errors.Wrap(err, "eval error")
	}
	return toValue(out)
}

// activation binds every root. Roots missing from scope are null so that
// referencing them fails at runtime instead of at compile time.
func activation(scope Scope) map[string]any {
	vars := make(map[string]any, len(Roots))
	for _, root := range Roots {
		v, ok := scope[root]
		if !ok {
			vars[root] = types.NullValue
			continue
		}
		vars[root] = valueAdapter.NativeToValue(v)
	}
	return vars
}
