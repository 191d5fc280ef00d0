package lsp

import (
	glspserver "github.com/tliron/glsp/server"
)

// ServeStdio runs the language server over stdin and stdout until the client
// disconnects.
func ServeStdio(h *Handler, debug bool) error {
	h.logger.Info("serving LSP over stdio", "name", h.opts.Name, "version", h.opts.Version)
	server := glspserver.NewServer(h.Protocol(), h.opts.Name, debug)
	return server.RunStdio()
}
