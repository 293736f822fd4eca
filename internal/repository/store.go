package repository

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrNotFound is returned when no entity exists for the requested key.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict is returned when a unique key is already taken.
	ErrConflict = errors.New("repository: conflict")
)

// Identifiable is implemented by entities whose id is assigned by the store.
type Identifiable[T any] interface {
	WithID(id int64) T
}

// MemoryStore is a keyed in-memory collection with insertion ordering.
// Ids come from a counter guarded by the same lock as the map, so they are
// unique and strictly increasing in assignment order and never reused.
type MemoryStore[T Identifiable[T]] struct {
	mu     sync.RWMutex
	lastID int64
	items  map[int64]T
	order  []int64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore[T Identifiable[T]]() *MemoryStore[T] {
	return &MemoryStore[T]{items: make(map[int64]T)}
}

// List returns a snapshot of all entities in insertion order.
func (s *MemoryStore[T]) List(_ context.Context) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out, nil
}

// Get returns the entity stored under id.
func (s *MemoryStore[T]) Get(_ context.Context, id int64) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return item, nil
}

// Create stores the entity under a freshly assigned id. Any id carried by
// the payload is overwritten.
func (s *MemoryStore[T]) Create(_ context.Context, item T) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	created := item.WithID(s.lastID)
	s.items[s.lastID] = created
	s.order = append(s.order, s.lastID)
	return created, nil
}

// Update replaces the entity stored under id, keeping the id.
func (s *MemoryStore[T]) Update(_ context.Context, id int64, item T) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		var zero T
		return zero, ErrNotFound
	}
	updated := item.WithID(id)
	s.items[id] = updated
	return updated, nil
}

// Delete removes the entity stored under id.
func (s *MemoryStore[T]) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of stored entities.
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
