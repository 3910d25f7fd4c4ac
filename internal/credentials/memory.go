package credentials

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store backed by sync.Map.
type MemoryStore struct {
	items sync.Map
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.items.Load(key)
	if !ok {
		return "", ErrNotFound
	}
	return v.(string), nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.items.Store(key, value)
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.items.Delete(key)
	return nil
}
