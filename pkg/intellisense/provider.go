// Package intellisense provides bracket-access completion for workflow
// expressions.
//
// # Basic Usage
//
// Load a workflow snapshot, build a resolver for it and ask for completions
// at a cursor position:
//
//	snap, err := intellisense.LoadSnapshot("workflow.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	resolver, err := intellisense.NewWorkflowResolver(snap)
//	if err != nil {
//		log.Fatal(err)
//	}
//	provider := intellisense.NewBracketProvider(resolver)
//
//	text := "={{ $json['cus"
//	result := provider.Complete(intellisense.Request{Text: text, Cursor: len(text)})
//	if result != nil {
//		for _, opt := range result.Options {
//			fmt.Println(opt.Label)
//		}
//	}
//
// A nil result means there is nothing to offer, whatever the reason.
package intellisense

import (
	"github.com/go-logr/logr"

	"github.com/oakwood-commons/exprsense/internal/completion"
	"github.com/oakwood-commons/exprsense/internal/expr"
	"github.com/oakwood-commons/exprsense/internal/workflow"
)

// Request is one completion attempt.
type Request = completion.Request

// Result is a non-empty set of filtered options.
type Result = completion.Result

// Option is a single completion candidate.
type Option = completion.Option

// Kind tags completion options.
type Kind = completion.Kind

// KindKeyword is the kind of every bracket-access option.
const KindKeyword = completion.KindKeyword

// Resolver evaluates an expression template relative to a target node.
type Resolver = completion.Resolver

// ResolverFunc adapts a function to Resolver.
type ResolverFunc = completion.ResolverFunc

// Provider produces bracket-access completions.
type Provider = completion.Provider

// ProviderOption configures a Provider.
type ProviderOption = completion.ProviderOption

// Snapshot is a workflow execution the expressions resolve against.
type Snapshot = workflow.Snapshot

// Provider options.
var (
	WithDenylist = completion.WithDenylist
	WithSkipKeys = completion.WithSkipKeys
	WithLookback = completion.WithLookback
	WithLogger   = completion.WithLogger
)

// ErrNodeNotFound is returned when a target node is not in a snapshot.
var ErrNodeNotFound = workflow.ErrNodeNotFound

// NewBracketProvider creates a provider that resolves bases with r.
func NewBracketProvider(r Resolver, opts ...ProviderOption) *Provider {
	return completion.NewProvider(r, opts...)
}

// LoadSnapshot reads a workflow snapshot from a JSON, YAML or TOML file.
func LoadSnapshot(path string) (*Snapshot, error) {
	return workflow.Load(path, logr.Discard())
}

// NewWorkflowResolver returns a Resolver that evaluates templates against
// snap.
func NewWorkflowResolver(snap *Snapshot) (Resolver, error) {
	eval, err := expr.NewEvaluator()
	if err != nil {
		return nil, err
	}
	return expr.NewResolver(eval, snap), nil
}
