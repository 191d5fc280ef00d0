// Package lsp serves bracket-access completions over the Language Server
// Protocol.
package lsp

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/oakwood-commons/exprsense/internal/completion"
)

// ResolverLoader builds a resolver from a snapshot file.
type ResolverLoader func(path string) (completion.Resolver, error)

// Options configure a Handler.
type Options struct {
	Name       string
	Version    string
	TargetNode string
	Resolver   completion.Resolver
	// LoadResolver is used when the client names a data file in its
	// initialization options.
	LoadResolver    ResolverLoader
	ProviderOptions []completion.ProviderOption
	Logger          logr.Logger
	// WatchData reloads the data file when it changes on disk.
	WatchData     bool
	WatchDebounce time.Duration
}

// initOptions are read from the initialize request and from
// workspace/didChangeConfiguration settings.
type initOptions struct {
	DataFile   string `json:"dataFile"`
	TargetNode string `json:"targetNode"`
}

// Handler implements the LSP methods exprsense supports.
type Handler struct {
	opts      Options
	documents *documentStore
	logger    logr.Logger

	mu       sync.RWMutex
	provider *completion.Provider
	target   string
	dataFile string
	watcher  *fileWatcher
}

// NewHandler creates a handler. The provider is built from opts.Resolver
// and replaced when the client supplies a data file.
func NewHandler(opts Options) *Handler {
	if opts.Name == "" {
		opts.Name = "exprsense"
	}
	h := &Handler{
		opts:      opts,
		documents: newDocumentStore(),
		logger:    opts.Logger,
		target:    opts.TargetNode,
	}
	if opts.Resolver != nil {
		h.provider = h.newProvider(opts.Resolver)
	}
	return h
}

func (h *Handler) newProvider(r completion.Resolver) *completion.Provider {
	popts := append([]completion.ProviderOption{completion.WithLogger(h.logger)}, h.opts.ProviderOptions...)
	return completion.NewProvider(r, popts...)
}

// Protocol wires the handler methods into a glsp protocol handler.
func (h *Handler) Protocol() *protocol.Handler {
	return &protocol.Handler{
		Initialize:                      h.Initialize,
		Initialized:                     h.Initialized,
		Shutdown:                        h.Shutdown,
		SetTrace:                        h.SetTrace,
		TextDocumentDidOpen:             h.TextDocumentDidOpen,
		TextDocumentDidChange:           h.TextDocumentDidChange,
		TextDocumentDidClose:            h.TextDocumentDidClose,
		TextDocumentCompletion:          h.TextDocumentCompletion,
		WorkspaceDidChangeConfiguration: h.WorkspaceDidChangeConfiguration,
	}
}

// Initialize reports capabilities and applies initialization options.
func (h *Handler) Initialize(_ *glsp.Context, params *protocol.InitializeParams) (any, error) {
	h.logger.Info("LSP client initializing", "client", clientName(params))

	if params.InitializationOptions != nil {
		var init initOptions
		if err := decodeSettings(params.InitializationOptions, &init); err != nil {
			h.logger.Error(err, "ignoring malformed initialization options")
		} else if err := h.configure(init); err != nil {
			return nil, err
		}
	}

	syncKind := protocol.TextDocumentSyncKindIncremental
	openClose := true
	return protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: &openClose,
				Change:    &syncKind,
			},
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{"[", "'"},
			},
		},
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    h.opts.Name,
			Version: &h.opts.Version,
		},
	}, nil
}

// Initialized is called after the client receives the InitializeResult.
func (h *Handler) Initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	h.logger.V(1).Info("LSP client initialized")
	return nil
}

// Shutdown handles the shutdown request.
func (h *Handler) Shutdown(_ *glsp.Context) error {
	h.logger.Info("LSP client shutting down", "documents", h.documents.len())
	return h.Close()
}

// Close stops watching the data file.
func (h *Handler) Close() error {
	h.mu.Lock()
	w := h.watcher
	h.watcher = nil
	h.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Close()
}

// LoadDataFile replaces the resolver with one built from path.
func (h *Handler) LoadDataFile(path string) error {
	return h.configure(initOptions{DataFile: path})
}

// SetTrace accepts trace level changes; exprsense logs through its own logger.
func (h *Handler) SetTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	h.logger.V(1).Info("trace level changed", "value", params.Value)
	return nil
}

// TextDocumentDidOpen caches the opened document.
func (h *Handler) TextDocumentDidOpen(_ *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	if err := h.documents.open(uri, params.TextDocument.Text); err != nil {
		h.logger.Error(err, "rejecting document", "uri", uri)
		return err
	}
	h.logger.V(1).Info("document opened", "uri", uri, "length", len(params.TextDocument.Text))
	return nil
}

// TextDocumentDidChange applies full or incremental changes.
func (h *Handler) TextDocumentDidChange(_ *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	if err := h.documents.apply(uri, params.ContentChanges); err != nil {
		h.logger.Error(err, "document change failed", "uri", uri)
		return err
	}
	h.logger.V(2).Info("document changed", "uri", uri, "changes", len(params.ContentChanges))
	return nil
}

// TextDocumentDidClose drops the document from the cache.
func (h *Handler) TextDocumentDidClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	h.documents.close(uri)
	h.logger.V(1).Info("document closed", "uri", uri)
	return nil
}

// WorkspaceDidChangeConfiguration picks up a new target node or data file.
// Settings may be flat or nested under an "exprsense" key.
func (h *Handler) WorkspaceDidChangeConfiguration(_ *glsp.Context, params *protocol.DidChangeConfigurationParams) error {
	var nested struct {
		Exprsense *initOptions `json:"exprsense"`
	}
	var flat initOptions
	if err := decodeSettings(params.Settings, &nested); err == nil && nested.Exprsense != nil {
		flat = *nested.Exprsense
	} else if err := decodeSettings(params.Settings, &flat); err != nil {
		h.logger.Error(err, "ignoring malformed settings")
		return nil
	}
	return h.configure(flat)
}

func (h *Handler) configure(o initOptions) error {
	var provider *completion.Provider
	if o.DataFile != "" {
		if h.opts.LoadResolver == nil {
			return errors.New("data files are not supported by this server")
		}
		r, err := h.opts.LoadResolver(o.DataFile)
		if err != nil {
			return err
		}
		provider = h.newProvider(r)
		h.logger.Info("loaded data file", "path", o.DataFile)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if provider != nil {
		h.provider = provider
		if err := h.watchLocked(o.DataFile); err != nil {
			h.logger.Error(err, "not watching data file", "path", o.DataFile)
		}
	}
	if o.TargetNode != "" {
		h.target = o.TargetNode
		h.logger.V(1).Info("target node changed", "node", o.TargetNode)
	}
	return nil
}

// watchLocked moves the data file watch to path. h.mu must be held.
func (h *Handler) watchLocked(path string) error {
	if !h.opts.WatchData || (path == h.dataFile && h.watcher != nil) {
		h.dataFile = path
		return nil
	}
	if h.watcher != nil {
		_ = h.watcher.Close()
		h.watcher = nil
	}
	h.dataFile = path
	w, err := newFileWatcher(path, h.opts.WatchDebounce, h.logger, h.reload)
	if err != nil {
		return err
	}
	h.watcher = w
	return nil
}

// reload rebuilds the provider after the data file changed. A file that no
// longer loads keeps the previous provider.
func (h *Handler) reload(path string) {
	r, err := h.opts.LoadResolver(path)
	if err != nil {
		h.logger.Error(err, "reloading data file failed, keeping previous snapshot", "path", path)
		return
	}
	provider := h.newProvider(r)
	h.mu.Lock()
	h.provider = provider
	h.mu.Unlock()
	h.logger.Info("reloaded data file", "path", path)
}

// TextDocumentCompletion answers with bracket-access options, or nil when
// there are none.
func (h *Handler) TextDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error(errors.Newf("%v", r), "panic in completion handler", "uri", params.TextDocument.URI)
			result, err = nil, nil
		}
	}()

	uri := string(params.TextDocument.URI)
	text, ok := h.documents.get(uri)
	if !ok {
		return nil, nil
	}

	h.mu.RLock()
	provider, target := h.provider, h.target
	h.mu.RUnlock()
	if provider == nil {
		return nil, nil
	}

	cursor := params.Position.IndexIn(text)
	explicit := params.Context != nil && params.Context.TriggerKind == protocol.CompletionTriggerKindInvoked
	res := provider.Complete(completion.Request{
		Text:       text,
		Cursor:     cursor,
		Explicit:   explicit,
		TargetNode: target,
	})
	if res == nil {
		h.logger.V(2).Info("no completions", "uri", uri, "line", params.Position.Line)
		return nil, nil
	}
	h.logger.V(1).Info("completion", "uri", uri, "count", len(res.Options))
	return toCompletionList(res, params.Position), nil
}

// toCompletionList maps a result to LSP items whose edits replace the tail.
func toCompletionList(res *completion.Result, pos protocol.Position) *protocol.CompletionList {
	start := pos
	start.Character -= protocol.UInteger(utf16Len(res.Tail))
	editRange := protocol.Range{Start: start, End: pos}
	kind := protocol.CompletionItemKindKeyword

	items := make([]protocol.CompletionItem, len(res.Options))
	for i, opt := range res.Options {
		label := opt.Label
		sortText := fmt.Sprintf("%05d", i)
		items[i] = protocol.CompletionItem{
			Label:      label,
			Kind:       &kind,
			FilterText: &label,
			SortText:   &sortText,
			TextEdit:   protocol.TextEdit{Range: editRange, NewText: label},
		}
	}
	return &protocol.CompletionList{IsIncomplete: false, Items: items}
}

// decodeSettings converts loosely typed JSON settings into out.
func decodeSettings(in any, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func clientName(params *protocol.InitializeParams) string {
	if params.ClientInfo == nil {
		return "unknown"
	}
	return params.ClientInfo.Name
}
