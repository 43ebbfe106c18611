// Package memstore is an in-process implementation of the document store
// contract. It backs tests and `backend: memory` runs, and can inject a
// commit failure so callers can assert that a rejected batch leaves no
// partial state behind.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/offthechainak/hourbank/pkg/db"
)

// Store holds all collections in memory behind one mutex, which makes every
// commit trivially serializable.
type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]any
	failCommit  error
}

// New creates an empty store.
func New() *Store {
	return &Store{collections: make(map[string]map[string]map[string]any)}
}

// FailNextCommit makes the next BatchCommit or RunTransaction fail with err
// before applying anything.
func (s *Store) FailNextCommit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCommit = err
}

// Get returns a copy of the document, or db.ErrNotFound.
func (s *Store) Get(ctx context.Context, collection, id string) (*db.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(collection, id)
}

func (s *Store) getLocked(collection, id string) (*db.Document, error) {
	fields, ok := s.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, db.ErrNotFound)
	}
	return &db.Document{ID: id, Fields: copyFields(fields)}, nil
}

// Put merges fields into the document, creating it if absent.
func (s *Store) Put(ctx context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(db.Write{Collection: collection, ID: id, Op: db.OpSet, Fields: fields})
	return nil
}

// ListAll returns copies of every document in the collection.
func (s *Store) ListAll(ctx context.Context, collection string) ([]db.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := make([]db.Document, 0, len(s.collections[collection]))
	for id, fields := range s.collections[collection] {
		docs = append(docs, db.Document{ID: id, Fields: copyFields(fields)})
	}
	return docs, nil
}

// BatchCommit validates every write first and only then applies them, so a
// rejected batch changes nothing.
func (s *Store) BatchCommit(ctx context.Context, writes []db.Write) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(writes)
}

// RunTransaction holds the store lock for the whole read-modify-write, then
// commits the buffered writes all-or-nothing.
func (s *Store) RunTransaction(ctx context.Context, fn func(tx db.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memTx{store: s}
	if err := fn(tx); err != nil {
		return err
	}
	return s.commitLocked(tx.writes)
}

func (s *Store) commitLocked(writes []db.Write) error {
	if s.failCommit != nil {
		err := s.failCommit
		s.failCommit = nil
		return err
	}
	for _, w := range writes {
		_, exists := s.collections[w.Collection][w.ID]
		switch w.Op {
		case db.OpCreate:
			if exists {
				return fmt.Errorf("%s/%s: %w", w.Collection, w.ID, db.ErrConflict)
			}
		case db.OpUpdate:
			if !exists {
				return fmt.Errorf("%s/%s: %w", w.Collection, w.ID, db.ErrNotFound)
			}
		}
	}
	for _, w := range writes {
		s.applyLocked(w)
	}
	return nil
}

func (s *Store) applyLocked(w db.Write) {
	col, ok := s.collections[w.Collection]
	if !ok {
		col = make(map[string]map[string]any)
		s.collections[w.Collection] = col
	}
	doc, ok := col[w.ID]
	if !ok {
		doc = make(map[string]any)
		col[w.ID] = doc
	}
	for k, v := range copyFields(w.Fields) {
		doc[k] = v
	}
}

type memTx struct {
	store  *Store
	writes []db.Write
}

func (t *memTx) Get(collection, id string) (*db.Document, error) {
	return t.store.getLocked(collection, id)
}

func (t *memTx) Write(w db.Write) {
	t.writes = append(t.writes, w)
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if nested, ok := v.(map[string]any); ok {
			out[k] = copyFields(nested)
			continue
		}
		out[k] = v
	}
	return out
}
