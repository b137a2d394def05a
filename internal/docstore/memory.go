package docstore

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps documents in process memory. It backs tests and
// single-instance development runs.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]map[string]any)}
}

func (s *MemoryStore) collection(name string) map[string]map[string]any {
	c, ok := s.collections[name]
	if !ok {
		c = make(map[string]map[string]any)
		s.collections[name] = c
	}
	return c
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	snap, err := newSnapshot(document{id: id, data: data})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *MemoryStore) Create(ctx context.Context, collection, id string, doc any) error {
	data, err := encode(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection)
	if _, exists := c[id]; exists {
		return ErrAlreadyExists
	}
	c[id] = data
	return nil
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, doc any) error {
	data, err := encode(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection(collection)[id] = data
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(collection, id, fields, nil)
}

func (s *MemoryStore) UpdateIfVersion(ctx context.Context, collection, id string, version int64, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(collection, id, fields, &version)
}

// update must be called with the write lock held. The stored document is
// replaced, never mutated, so snapshots taken earlier stay consistent.
func (s *MemoryStore) update(collection, id string, fields map[string]any, expected *int64) error {
	current, ok := s.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	if expected != nil && versionOf(current) != *expected {
		return ErrVersionMismatch
	}

	next := make(map[string]any, len(current)+len(fields))
	for k, v := range current {
		next[k] = v
	}
	if err := applyFields(next, fields); err != nil {
		return err
	}
	if expected != nil {
		next[VersionField] = float64(*expected + 1)
	}
	s.collections[collection][id] = next
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections[collection], id)
	return nil
}

func (s *MemoryStore) Find(ctx context.Context, collection string, q Query) ([]Snapshot, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	docs, err := s.filter(collection, q.Filters)
	if err != nil {
		return nil, err
	}
	return finalize(docs, q)
}

func (s *MemoryStore) Count(ctx context.Context, collection string, filters ...Filter) (int, error) {
	if err := validateQuery(Query{Filters: filters}); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	docs, err := s.filter(collection, filters)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (s *MemoryStore) filter(collection string, filters []Filter) ([]document, error) {
	var docs []document
	for id, data := range s.collections[collection] {
		ok, err := matches(data, filters)
		if err != nil {
			return nil, err
		}
		if ok {
			docs = append(docs, document{id: id, data: data})
		}
	}
	return docs, nil
}

// Batch validates every write before applying any of them.
func (s *MemoryStore) Batch(ctx context.Context, writes []Write) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	encoded := make([]map[string]any, len(writes))
	for i, w := range writes {
		switch w.Kind {
		case WriteSet:
			data, err := encode(w.Doc)
			if err != nil {
				return err
			}
			encoded[i] = data
		case WriteUpdate:
			if _, ok := s.collections[w.Collection][w.ID]; !ok && !setEarlier(writes[:i], w) {
				return fmt.Errorf("batch update %s/%s: %w", w.Collection, w.ID, ErrNotFound)
			}
		case WriteDelete:
		default:
			return fmt.Errorf("batch write %d: unknown kind %d", i, w.Kind)
		}
	}

	for i, w := range writes {
		switch w.Kind {
		case WriteSet:
			s.collection(w.Collection)[w.ID] = encoded[i]
		case WriteUpdate:
			if err := s.update(w.Collection, w.ID, w.Fields, nil); err != nil {
				return err
			}
		case WriteDelete:
			delete(s.collections[w.Collection], w.ID)
		}
	}
	return nil
}

func setEarlier(prev []Write, w Write) bool {
	for _, p := range prev {
		if p.Kind == WriteSet && p.Collection == w.Collection && p.ID == w.ID {
			return true
		}
	}
	return false
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
