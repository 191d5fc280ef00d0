package expr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/exprsense/pkg/value"
)

func testScope() Scope {
	item := value.NewObject().
		Set("json", value.NewObject().Set("id", value.Int(7)).Value()).
		Value()
	fetch := value.NewObject().
		Set("item", item).
		Set("items", value.Array(item, value.NewObject().Set("json", value.NewObject().Set("id", value.Int(8)).Value()).Value())).
		Set("params", value.NewObject().Set("url", value.String("https://example.test")).Value()).
		Set("isExecuted", value.Bool(true)).
		Value()
	empty := value.NewObject().
		Set("item", value.Null()).
		Set("items", value.Array()).
		Value()
	return Scope{
		"json": value.NewObject().
			Set("name", value.String("Ada")).
			Set("zeta", value.Int(1)).
			Set("alpha", value.Array(value.String("a"), value.String("b"))).
			Set("0", value.String("zero key")).
			Value(),
		"input": fetch,
		"node":  value.NewObject().Set("Fetch", fetch).Set("Empty", empty).Value(),
		"now":   value.Time(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)),
	}
}

func newTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	e, err := NewEvaluator()
	require.NoError(t, err)
	return e
}

func TestEvaluateRawValues(t *testing.T) {
	e := newTestEvaluator(t)
	scope := testScope()

	tests := []struct {
		name string
		tmpl string
		want any
	}{
		{name: "field", tmpl: "={{ $json.name }}", want: "Ada"},
		{name: "bracket", tmpl: "={{ $json['name'] }}", want: "Ada"},
		{name: "array index", tmpl: "={{ $json['alpha'][1] }}", want: "b"},
		{name: "integer index into object", tmpl: "={{ $json[0] }}", want: "zero key"},
		{name: "node call", tmpl: "={{ $('Fetch').item.json.id }}", want: int64(7)},
		{name: "node call double quotes", tmpl: `={{ $("Fetch").params.url }}`, want: "https://example.test"},
		{name: "node bracket", tmpl: "={{ $node['Fetch'].isExecuted }}", want: true},
		{name: "first", tmpl: "={{ $input.first().json.id }}", want: int64(7)},
		{name: "last", tmpl: "={{ $input.last().json.id }}", want: int64(8)},
		{name: "all", tmpl: "={{ size($input.all()) }}", want: int64(2)},
		{name: "first of empty", tmpl: "={{ $('Empty').first() }}", want: nil},
		{name: "string extension", tmpl: "={{ $json.name.upperAscii() }}", want: "ADA"},
		{name: "arithmetic", tmpl: "={{ $json.zeta + 41 }}", want: int64(42)},
		{name: "no equals prefix", tmpl: "{{ $json.name }}", want: "Ada"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Evaluate(tt.tmpl, scope)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Scalar())
		})
	}
}

func TestEvaluateKeepsObjectOrder(t *testing.T) {
	e := newTestEvaluator(t)
	got, err := e.Evaluate("={{ $json }}", testScope())
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "zeta", "alpha", "0"}, got.Keys())

	got, err = e.Evaluate("={{ $('Fetch') }}", testScope())
	require.NoError(t, err)
	assert.Equal(t, []string{"item", "items", "params", "isExecuted"}, got.Keys())
}

func TestEvaluateArray(t *testing.T) {
	e := newTestEvaluator(t)
	got, err := e.Evaluate("={{ $json.alpha }}", testScope())
	require.NoError(t, err)
	assert.Equal(t, value.KindArray, got.Kind())
	assert.Equal(t, []string{"0", "1"}, got.Keys())
}

func TestEvaluateMapLiteralSortsKeys(t *testing.T) {
	e := newTestEvaluator(t)
	got, err := e.Evaluate("={{ {'b': 1, 'a': {'y': 2, 'x': 3}} }}", testScope())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Keys())
	inner, _ := got.Get("a")
	assert.Equal(t, []string{"x", "y"}, inner.Keys())
}

func TestEvaluateTimestamp(t *testing.T) {
	e := newTestEvaluator(t)
	got, err := e.Evaluate("={{ $now }}", testScope())
	require.NoError(t, err)
	assert.Equal(t, value.KindTime, got.Kind())
}

func TestEvaluateInterpolation(t *testing.T) {
	e := newTestEvaluator(t)
	got, err := e.Evaluate("=Hello {{ $json.name }}, item {{ $input.item.json.id }}!", testScope())
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada, item 7!", got.Scalar())

	got, err = e.Evaluate("=plain text", testScope())
	require.NoError(t, err)
	assert.Equal(t, "plain text", got.Scalar())
}

func TestEvaluateErrors(t *testing.T) {
	e := newTestEvaluator(t)
	scope := testScope()
	for name, tmpl := range map[string]string{
		"unknown root":      "={{ $nope }}",
		"unbalanced parens": "={{ $json.((( }}",
		"missing key":       "={{ $json.missing }}",
		"missing node":      "={{ $('Nope').item }}",
		"unbound root":      "={{ $vars.region }}",
		"unterminated":      "={{ $json",
		"empty":             "={{ }}",
		"first of scalar":   "={{ $json.name.first() }}",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := e.Evaluate(tmpl, scope)
			assert.Error(t, err)
		})
	}
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "$json.a", want: "json.a"},
		{in: "$('Node A').item", want: "node['Node A'].item"},
		{in: "$(\"N\").first().json", want: "node[\"N\"].first().json"},
		{in: "$('a').all().map(x, size(x))", want: "node['a'].all().map(x, size(x))"},
		{in: "$(name($json)).item", want: "node[name(json)].item"},
		{in: "'$json stays'", want: "'$json stays'"},
		{in: `"it\"s $json"`, want: `"it\"s $json"`},
		{in: "$unknown.x", want: "$unknown.x"},
		{in: "$jsonx", want: "$jsonx"},
		{in: "$prevNode.name + $runIndex", want: "prevNode.name + runIndex"},
		{in: "$(", want: "node["},
		{in: "a)", want: "a)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, translate(tt.in), "translate(%q)", tt.in)
	}
}

func TestParseTemplate(t *testing.T) {
	segs, err := parseTemplate("=a {{ x }} b {{ {'k': {'j': 1}} }}")
	require.NoError(t, err)
	assert.Equal(t, []segment{
		{text: "a "},
		{text: "x", expr: true},
		{text: " b "},
		{text: "{'k': {'j': 1}}", expr: true},
	}, segs)

	segs, err = parseTemplate("={{ '}}' }}")
	require.NoError(t, err)
	assert.Equal(t, []segment{{text: "'}}'", expr: true}}, segs)

	_, err = parseTemplate("={{ open")
	assert.ErrorIs(t, err, ErrUnterminated)
}

func TestFunctions(t *testing.T) {
	e := newTestEvaluator(t)
	fns := e.Functions()
	require.NotEmpty(t, fns)

	var names []string
	for _, f := range fns {
		names = append(names, f.Name)
		assert.NotContains(t, f.Name, "_==_")
	}
	assert.Contains(t, names, "first")
	assert.Contains(t, names, "upperAscii")
	assert.Contains(t, names, "filter")
}

func TestEnvironmentDeclaresRoots(t *testing.T) {
	env := newTestEvaluator(t).Environment()
	require.NotNil(t, env)
	for _, root := range Roots {
		_, iss := env.Compile(root)
		assert.NoError(t, iss.Err(), root)
	}
	_, iss := env.Compile("missing")
	assert.Error(t, iss.Err())
}

type staticScopes map[string]Scope

func (s staticScopes) Scope(target string) (map[string]value.Value, error) {
	scope, ok := s[target]
	if !ok {
		return nil, assert.AnError
	}
	return scope, nil
}

func TestResolver(t *testing.T) {
	r := NewResolver(newTestEvaluator(t), staticScopes{"Set": testScope()})

	got, err := r.Resolve("={{ $json.name }}", "Set")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Scalar())

	_, err = r.Resolve("={{ $json.name }}", "Other")
	assert.ErrorIs(t, err, assert.AnError)
}
