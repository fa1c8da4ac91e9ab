package store

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process Store implementation. It backs tests and
// short-lived tooling; durable deployments use store/filestore.
type Memory[T Record] struct {
	mu     sync.RWMutex
	order  []string
	items  map[string]T
	unique UniqueKey[T]
}

// NewMemory creates an empty in-memory store. unique may be nil when the
// entity kind has no alternate uniqueness constraint.
func NewMemory[T Record](unique UniqueKey[T]) *Memory[T] {
	return &Memory[T]{
		items:  make(map[string]T),
		unique: unique,
	}
}

func (m *Memory[T]) ListAll(ctx context.Context) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]T, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.items[id])
	}
	return out, nil
}

func (m *Memory[T]) GetByID(ctx context.Context, id string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.items[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("id %q: %w", id, ErrNotFound)
	}
	return rec, nil
}

func (m *Memory[T]) Append(ctx context.Context, rec T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := rec.RecordID()
	if _, exists := m.items[id]; exists {
		return fmt.Errorf("id %q: %w", id, ErrDuplicate)
	}
	if key := m.uniqueKeyOf(rec); key != "" {
		for _, other := range m.items {
			if m.uniqueKeyOf(other) == key {
				return fmt.Errorf("key %q: %w", key, ErrDuplicate)
			}
		}
	}
	m.items[id] = rec
	m.order = append(m.order, id)
	return nil
}

func (m *Memory[T]) UpdateByID(ctx context.Context, rec T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := rec.RecordID()
	if _, exists := m.items[id]; !exists {
		return fmt.Errorf("id %q: %w", id, ErrNotFound)
	}
	// Full-snapshot replacement: last writer wins by contract.
	m.items[id] = rec
	return nil
}

func (m *Memory[T]) uniqueKeyOf(rec T) string {
	if m.unique == nil {
		return ""
	}
	return m.unique(rec)
}
