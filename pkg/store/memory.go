package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps documents in a map. Stored documents are copied on the
// way in and out, so callers may mutate what they pass or receive.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*Document)}
}

func (s *MemoryStore) Save(ctx context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var prev time.Time
	if old, ok := s.docs[doc.ID]; ok && doc.ID != "" {
		prev = old.CreatedAt
	}
	stamp(doc, prev)
	s.docs[doc.ID] = clone(doc)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(doc), nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Summary, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, d.Summarize())
	}
	sortSummaries(out)
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func clone(d *Document) *Document {
	c := *d
	c.Graph = d.Graph.Clone()
	return &c
}

var _ Store = (*MemoryStore)(nil)
