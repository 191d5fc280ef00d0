// Package workflow models an execution snapshot: the nodes of a workflow,
// their parameters and output items, and the variables expressions can see.
package workflow

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr"

	"github.com/oakwood-commons/exprsense/pkg/loader"
	"github.com/oakwood-commons/exprsense/pkg/value"
)

// ErrNodeNotFound is returned when a target node is not in the snapshot.
var ErrNodeNotFound = errors.New("node not found")

// Node is one step of the workflow with the items it produced.
type Node struct {
	Name       string
	Parents    []string
	Parameters value.Value
	// Output holds one object per item, usually with json, binary and
	// pairedItem keys.
	Output []value.Value
}

// Snapshot is a frozen view of a workflow execution.
type Snapshot struct {
	Workflow   value.Value
	Execution  value.Value
	Vars       value.Value
	ActiveNode string
	Nodes      []*Node

	byName map[string]*Node
	clock  func() time.Time
}

// Option configures a Snapshot.
type Option func(*Snapshot)

// WithClock sets the clock behind $now and $today.
func WithClock(clock func() time.Time) Option {
	return func(s *Snapshot) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// Load reads a snapshot file in any format the loader understands.
func Load(path string, lgr logr.Logger, opts ...Option) (*Snapshot, error) {
	root, err := loader.LoadFileWithLogger(path, lgr)
	if err != nil {
		return nil, err
	}
	snap, err := FromValue(root, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "snapshot %s", path)
	}
	lgr.V(1).Info("loaded workflow snapshot", "path", path, "nodes", len(snap.Nodes))
	return snap, nil
}

// FromValue builds a snapshot from a decoded document.
func FromValue(root value.Value, opts ...Option) (*Snapshot, error) {
	if root.Kind() != value.KindObject {
		return nil, errors.Newf("snapshot must be an object, got %s", root.Kind())
	}
	s := &Snapshot{
		Workflow:  objectOrEmpty(root, "workflow"),
		Execution: objectOrEmpty(root, "execution"),
		Vars:      objectOrEmpty(root, "vars"),
		byName:    make(map[string]*Node),
		clock:     time.Now,
	}
	if active, ok := root.Get("activeNode"); ok && active.Kind() == value.KindString {
		s.ActiveNode = active.Text()
	}

	nodes, _ := root.Get("nodes")
	if nodes.Kind() != value.KindArray {
		return nil, errors.New("snapshot has no nodes list")
	}
	for i, raw := range nodes.Items() {
		n, err := nodeFromValue(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "nodes[%d]", i)
		}
		if _, dup := s.byName[n.Name]; dup {
			return nil, errors.Newf("nodes[%d]: duplicate node name %q", i, n.Name)
		}
		s.byName[n.Name] = n
		s.Nodes = append(s.Nodes, n)
	}
	for _, n := range s.Nodes {
		for _, p := range n.Parents {
			if _, ok := s.byName[p]; !ok {
				return nil, errors.Wrapf(ErrNodeNotFound, "parent %q of %q", p, n.Name)
			}
		}
	}
	if s.ActiveNode != "" {
		if _, ok := s.byName[s.ActiveNode]; !ok {
			return nil, errors.Wrapf(ErrNodeNotFound, "active node %q", s.ActiveNode)
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func nodeFromValue(raw value.Value) (*Node, error) {
	if raw.Kind() != value.KindObject {
		return nil, errors.Newf("node must be an object, got %s", raw.Kind())
	}
	name, _ := raw.Get("name")
	if name.Kind() != value.KindString || name.Text() == "" {
		return nil, errors.New("node has no name")
	}
	n := &Node{Name: name.Text(), Parameters: objectOrEmpty(raw, "parameters")}

	if parents, ok := raw.Get("parents"); ok {
		for _, p := range parents.Items() {
			if p.Kind() != value.KindString {
				return nil, errors.Newf("node %q: parent names must be strings", n.Name)
			}
			n.Parents = append(n.Parents, p.Text())
		}
	}
	if output, ok := raw.Get("output"); ok {
		for i, item := range output.Items() {
			if item.Kind() != value.KindObject {
				return nil, errors.Newf("node %q: output[%d] must be an object", n.Name, i)
			}
			n.Output = append(n.Output, item)
		}
	}
	return n, nil
}

func objectOrEmpty(v value.Value, key string) value.Value {
	if got, ok := v.Get(key); ok && got.Kind() == value.KindObject {
		return got
	}
	return value.NewObject().Value()
}

// Node returns the node called name.
func (s *Snapshot) Node(name string) (*Node, bool) {
	n, ok := s.byName[name]
	return n, ok
}

// DefaultTarget is the node used when a request names none: the active
// node, else the last node listed.
func (s *Snapshot) DefaultTarget() string {
	if s.ActiveNode != "" {
		return s.ActiveNode
	}
	if len(s.Nodes) == 0 {
		return ""
	}
	return s.Nodes[len(s.Nodes)-1].Name
}
