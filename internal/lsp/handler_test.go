package lsp

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/oakwood-commons/exprsense/internal/completion"
	"github.com/oakwood-commons/exprsense/pkg/value"
)

const testURI = "file:///workflow/expression.txt"

// targetResolver resolves $json to an object whose keys name the target node.
func targetResolver() completion.ResolverFunc {
	return func(template, target string) (value.Value, error) {
		switch template {
		case "={{ $json }}":
			return value.NewObject().
				Set("node", value.String(target)).
				Set("naïve", value.Int(1)).
				Set("🎉party", value.Int(2)).
				Value(), nil
		case "={{ $panic }}":
			panic("resolver exploded")
		}
		return value.Null(), errors.New("unknown")
	}
}

func newTestHandler(t *testing.T, opts Options) *Handler {
	t.Helper()
	if opts.Resolver == nil {
		opts.Resolver = targetResolver()
	}
	return NewHandler(opts)
}

func openDoc(t *testing.T, h *Handler, text string) {
	t.Helper()
	require.NoError(t, h.TextDocumentDidOpen(nil, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: testURI, LanguageID: "plaintext", Version: 1, Text: text},
	}))
}

func completeAt(t *testing.T, h *Handler, line, character int) *protocol.CompletionList {
	t.Helper()
	res, err := h.TextDocumentCompletion(nil, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
			Position:     protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(character)},
		},
	})
	require.NoError(t, err)
	if res == nil {
		return nil
	}
	list, ok := res.(*protocol.CompletionList)
	require.True(t, ok, "unexpected result type %T", res)
	return list
}

func itemLabels(list *protocol.CompletionList) []string {
	if list == nil {
		return nil
	}
	out := make([]string, len(list.Items))
	for i, item := range list.Items {
		out[i] = item.Label
	}
	return out
}

func TestInitializeCapabilities(t *testing.T) {
	h := newTestHandler(t, Options{Version: "1.2.3"})
	res, err := h.Initialize(nil, &protocol.InitializeParams{})
	require.NoError(t, err)

	init, ok := res.(protocol.InitializeResult)
	require.True(t, ok)
	require.NotNil(t, init.Capabilities.CompletionProvider)
	assert.Equal(t, []string{"[", "'"}, init.Capabilities.CompletionProvider.TriggerCharacters)
	assert.Equal(t, "exprsense", init.ServerInfo.Name)
	assert.Equal(t, "1.2.3", *init.ServerInfo.Version)
}

func TestCompletionItems(t *testing.T) {
	h := newTestHandler(t, Options{TargetNode: "Set"})
	openDoc(t, h, "first line\nx = {{ $json['n")

	list := completeAt(t, h, 1, len("x = {{ $json['n"))
	require.NotNil(t, list)
	assert.False(t, list.IsIncomplete)
	assert.Equal(t, []string{"'node']", "'naïve']"}, itemLabels(list))

	item := list.Items[0]
	require.NotNil(t, item.Kind)
	assert.Equal(t, protocol.CompletionItemKindKeyword, *item.Kind)
	assert.Equal(t, "'node']", *item.FilterText)
	assert.Equal(t, "00000", *item.SortText)
	assert.Equal(t, "00001", *list.Items[1].SortText)

	edit, ok := item.TextEdit.(protocol.TextEdit)
	require.True(t, ok)
	assert.Equal(t, "'node']", edit.NewText)
	assert.Equal(t, protocol.Position{Line: 1, Character: 13}, edit.Range.Start)
	assert.Equal(t, protocol.Position{Line: 1, Character: 15}, edit.Range.End)
}

func TestCompletionUTF16Columns(t *testing.T) {
	h := newTestHandler(t, Options{})
	// "🎉" is two UTF-16 units and four bytes.
	line := "🎉 {{ $json['🎉"
	openDoc(t, h, line)

	list := completeAt(t, h, 0, utf16Len(line))
	require.NotNil(t, list)
	assert.Equal(t, []string{"'🎉party']"}, itemLabels(list))

	edit := list.Items[0].TextEdit.(protocol.TextEdit)
	assert.Equal(t, protocol.UInteger(12), edit.Range.Start.Character)
	assert.Equal(t, protocol.UInteger(15), edit.Range.End.Character)
}

func TestCompletionNone(t *testing.T) {
	h := newTestHandler(t, Options{})
	openDoc(t, h, "no brackets here\n{{ $json['zzz\n{{ $panic[")

	assert.Nil(t, completeAt(t, h, 0, 5))
	assert.Nil(t, completeAt(t, h, 1, len("{{ $json['zzz")))
	assert.Nil(t, completeAt(t, h, 2, len("{{ $panic[")))

	res, err := h.TextDocumentCompletion(nil, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file:///not-open"},
		},
	})
	assert.NoError(t, err)
	assert.Nil(t, res)
}

func TestCompletionWithoutResolver(t *testing.T) {
	h := NewHandler(Options{})
	openDoc(t, h, "{{ $json[")
	assert.Nil(t, completeAt(t, h, 0, len("{{ $json[")))
}

func TestDidChangeIncremental(t *testing.T) {
	h := newTestHandler(t, Options{})
	openDoc(t, h, "{{ $json }}")

	err := h.TextDocumentDidChange(nil, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: testURI},
			Version:                2,
		},
		ContentChanges: []any{
			protocol.TextDocumentContentChangeEvent{
				Range: &protocol.Range{
					Start: protocol.Position{Line: 0, Character: 8},
					End:   protocol.Position{Line: 0, Character: 8},
				},
				Text: "['",
			},
		},
	})
	require.NoError(t, err)

	text, ok := h.documents.get(testURI)
	require.True(t, ok)
	assert.Equal(t, "{{ $json[' }}", text)
	assert.Equal(t, []string{"'node']", "'naïve']", "'🎉party']"}, itemLabels(completeAt(t, h, 0, 10)))
}

func TestDidChangeWholeAndClose(t *testing.T) {
	h := newTestHandler(t, Options{})
	openDoc(t, h, "old")

	require.NoError(t, h.TextDocumentDidChange(nil, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: testURI},
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "new text"}},
	}))
	text, _ := h.documents.get(testURI)
	assert.Equal(t, "new text", text)

	require.NoError(t, h.TextDocumentDidClose(nil, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	}))
	_, ok := h.documents.get(testURI)
	assert.False(t, ok)

	err := h.TextDocumentDidChange(nil, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: testURI},
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "x"}},
	})
	assert.Error(t, err)
}

func TestDocumentLimit(t *testing.T) {
	s := newDocumentStore()
	for i := 0; i < maxDocuments; i++ {
		require.NoError(t, s.open("file:///"+strings.Repeat("a", i+1), ""))
	}
	assert.ErrorIs(t, s.open("file:///overflow", ""), ErrTooManyDocuments)
	assert.NoError(t, s.open("file:///a", "reopen is allowed"))
}

func TestConfigurationChangesTarget(t *testing.T) {
	h := newTestHandler(t, Options{TargetNode: "First"})
	openDoc(t, h, "{{ $json['node'")

	require.NoError(t, h.WorkspaceDidChangeConfiguration(nil, &protocol.DidChangeConfigurationParams{
		Settings: map[string]any{"exprsense": map[string]any{"targetNode": "Second"}},
	}))
	h.mu.RLock()
	assert.Equal(t, "Second", h.target)
	h.mu.RUnlock()

	require.NoError(t, h.WorkspaceDidChangeConfiguration(nil, &protocol.DidChangeConfigurationParams{
		Settings: map[string]any{"targetNode": "Third"},
	}))
	h.mu.RLock()
	assert.Equal(t, "Third", h.target)
	h.mu.RUnlock()
}

func TestInitializeLoadsDataFile(t *testing.T) {
	var loaded string
	h := NewHandler(Options{
		LoadResolver: func(path string) (completion.Resolver, error) {
			loaded = path
			return targetResolver(), nil
		},
	})
	_, err := h.Initialize(nil, &protocol.InitializeParams{
		InitializationOptions: map[string]any{"dataFile": "/tmp/workflow.yaml", "targetNode": "Set"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/workflow.yaml", loaded)

	openDoc(t, h, "$json[")
	assert.Len(t, completeAt(t, h, 0, 6).Items, 3)

	failing := NewHandler(Options{
		LoadResolver: func(string) (completion.Resolver, error) { return nil, errors.New("bad file") },
	})
	_, err = failing.Initialize(nil, &protocol.InitializeParams{
		InitializationOptions: map[string]any{"dataFile": "missing.yaml"},
	})
	assert.Error(t, err)
}

func TestUTF16Len(t *testing.T) {
	assert.Equal(t, 0, utf16Len(""))
	assert.Equal(t, 3, utf16Len("abc"))
	assert.Equal(t, 1, utf16Len("é"))
	assert.Equal(t, 2, utf16Len("🎉"))
}

func TestDataFileReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a": 1}`), 0o600))

	h := NewHandler(Options{
		LoadResolver: func(p string) (completion.Resolver, error) {
			data, err := os.ReadFile(p)
			if err != nil {
				return nil, err
			}
			v, err := value.DecodeJSON(data)
			if err != nil {
				return nil, err
			}
			return completion.ResolverFunc(func(string, string) (value.Value, error) { return v, nil }), nil
		},
		WatchData:     true,
		WatchDebounce: 10 * time.Millisecond,
	})
	t.Cleanup(func() { _ = h.Close() })

	require.NoError(t, h.LoadDataFile(path))
	openDoc(t, h, "$json[")
	assert.Equal(t, []string{"'a']"}, itemLabels(completeAt(t, h, 0, 6)))

	require.NoError(t, os.WriteFile(path, []byte(`{"b": 1, "c": 2}`), 0o600))
	want := []string{"'b']", "'c']"}
	require.Eventually(t, func() bool {
		return reflect.DeepEqual(want, itemLabels(completeAt(t, h, 0, 6)))
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, h.Close())
	assert.NoError(t, h.Close(), "closing twice is harmless")
}
