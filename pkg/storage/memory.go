package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/absmach/tabula/pkg/errors"
)

// memory keeps values in a map and their keys in a sorted slice, so paging
// walks keys in order without sorting on every List.
type memory struct {
	mu     sync.RWMutex
	keys   []string
	values map[string]any
}

// NewInMemoryStorage returns a process-local Storage. Values are stored as
// given, not copied.
func NewInMemoryStorage() Storage {
	return &memory{values: make(map[string]any)}
}

func (m *memory) Create(_ context.Context, key string, value any) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	pos, found := slices.BinarySearch(m.keys, key)
	if found {
		return errors.ErrEntityExists
	}
	m.keys = slices.Insert(m.keys, pos, key)
	m.values[key] = value

	return nil
}

func (m *memory) Get(_ context.Context, key string) (any, error) {
	if key == "" {
		return nil, errors.ErrEmptyKey
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	val, ok := m.values[key]
	if !ok {
		return nil, errors.ErrNotFound
	}

	return val, nil
}

func (m *memory) Update(_ context.Context, key string, value any) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.values[key]; !ok {
		return errors.ErrNotFound
	}
	m.values[key] = value

	return nil
}

// List returns at most limit values in key order, starting at offset, and
// the total number of stored values.
func (m *memory) List(_ context.Context, offset, limit uint64) ([]any, uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := uint64(len(m.keys))
	if offset >= total {
		return nil, total, nil
	}

	page := m.keys[offset:min(offset+limit, total)]
	out := make([]any, len(page))
	for i, k := range page {
		out[i] = m.values[k]
	}

	return out, total, nil
}

func (m *memory) Delete(_ context.Context, key string) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	pos, found := slices.BinarySearch(m.keys, key)
	if !found {
		return errors.ErrNotFound
	}
	m.keys = slices.Delete(m.keys, pos, pos+1)
	delete(m.values, key)

	return nil
}
