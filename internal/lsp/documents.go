package lsp

import (
	"sync"
	"unicode/utf16"

	"github.com/cockroachdb/errors"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// maxDocuments caps how many open documents one client may hold.
const maxDocuments = 100

// ErrTooManyDocuments is returned when a client opens more than maxDocuments.
var ErrTooManyDocuments = errors.Newf("document cache limit reached (%d documents open)", maxDocuments)

// documentStore caches the text of open documents by URI.
type documentStore struct {
	mu   sync.RWMutex
	docs map[string]string
}

func newDocumentStore() *documentStore {
	return &documentStore{docs: make(map[string]string)}
}

func (s *documentStore) open(uri, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[uri]; !exists && len(s.docs) >= maxDocuments {
		return ErrTooManyDocuments
	}
	s.docs[uri] = text
	return nil
}

func (s *documentStore) get(uri string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.docs[uri]
	return text, ok
}

func (s *documentStore) close(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
}

func (s *documentStore) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// apply applies content changes in order. Whole-document events replace the
// text; ranged events splice it.
func (s *documentStore) apply(uri string, changes []any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.docs[uri]
	if !ok {
		return errors.Newf("document %s is not open", uri)
	}
	for i, change := range changes {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			text = c.Text
		case protocol.TextDocumentContentChangeEvent:
			if c.Range == nil {
				text = c.Text
				continue
			}
			start, end := c.Range.IndexesIn(text)
			if start > end {
				return errors.Newf("change %d has an inverted range", i)
			}
			text = text[:start] + c.Text + text[end:]
		default:
			return errors.Newf("change %d has unsupported type %T", i, change)
		}
	}
	s.docs[uri] = text
	return nil
}

// utf16Len is the length of s in UTF-16 code units, the unit of LSP columns.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
