// Package memory keeps the document in process memory.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/tweetvault/internal/domain"
	"github.com/MrSnakeDoc/tweetvault/internal/store/persist"
)

// Store holds a snapshot of the document. Reads and writes copy it, so
// callers never share state with the store.
type Store struct {
	mu     sync.RWMutex
	doc    *domain.Document
	writes int
	now    func() time.Time
}

// New creates an empty memory store. The document is seeded on first Read.
func New() *Store {
	return &Store{now: time.Now}
}

// NewWith creates a memory store holding a copy of doc.
func NewWith(doc *domain.Document) (*Store, error) {
	s := New()
	if err := s.Write(context.Background(), doc); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Read(_ context.Context) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		s.doc = domain.NewDocument(s.now())
	}
	doc, err := s.doc.Clone()
	return doc, persist.Classify("read document", err)
}

func (s *Store) Write(_ context.Context, doc *domain.Document) error {
	clone, err := doc.Clone()
	if err != nil {
		return persist.Classify("write document", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc = clone
	s.writes++
	return nil
}

func (s *Store) Close() error { return nil }

// Writes returns how many times the document was written.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.writes
}
