package workflow

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/oakwood-commons/exprsense/pkg/value"
)

// Handle is the object a node reference such as $('Name') or $input
// evaluates to. json and parameter serve the older $node["Name"].json form.
func (n *Node) Handle() value.Value {
	item := value.Null()
	if len(n.Output) > 0 {
		item = n.Output[0]
	}
	return value.NewObject().
		Set("item", item).
		Set("items", value.Array(n.Output...)).
		Set("params", n.Parameters).
		Set("isExecuted", value.Bool(len(n.Output) > 0)).
		Set("json", n.firstItemField("json")).
		Set("parameter", n.Parameters).
		Value()
}

// firstItemField returns key of the first output item when it is an object
// or array, otherwise an empty object.
func (n *Node) firstItemField(key string) value.Value {
	if len(n.Output) > 0 {
		if v, ok := n.Output[0].Get(key); ok && v.IsIndexable() {
			return v
		}
	}
	return value.NewObject().Value()
}

func emptyHandle() value.Value {
	return (&Node{Parameters: value.NewObject().Value()}).Handle()
}

// Scope builds the root bindings for expressions evaluated in target. An
// empty target uses DefaultTarget.
func (s *Snapshot) Scope(target string) (map[string]value.Value, error) {
	if target == "" {
		target = s.DefaultTarget()
	}
	node, ok := s.byName[target]
	if !ok {
		return nil, errors.WithHint(
			errors.Wrapf(ErrNodeNotFound, "%q", target),
			"check the node name against the snapshot's nodes list")
	}

	input := emptyHandle()
	json := value.NewObject().Value()
	binary := value.NewObject().Value()
	prevName := ""
	if len(node.Parents) > 0 {
		prev := s.byName[node.Parents[0]]
		prevName = prev.Name
		input = prev.Handle()
		json = prev.firstItemField("json")
		binary = prev.firstItemField("binary")
	}

	handles := value.NewObject()
	for _, n := range s.Nodes {
		handles.Set(n.Name, n.Handle())
	}

	now := s.clock()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	return map[string]value.Value{
		"json":   json,
		"binary": binary,
		"input":  input,
		"node":   handles.Value(),
		"prevNode": value.NewObject().
			Set("name", value.String(prevName)).
			Set("outputIndex", value.Int(0)).
			Set("runIndex", value.Int(0)).
			Value(),
		"vars":      s.Vars,
		"workflow":  s.Workflow,
		"execution": s.Execution,
		"runIndex":  value.Int(0),
		"itemIndex": value.Int(0),
		"now":       value.Time(now),
		"today":     value.Time(today),
	}, nil
}
