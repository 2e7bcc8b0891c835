package store

import (
	"context"
	"sync"
)

// MemoryIndex keeps tokens for the lifetime of the process
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

var _ Index = (*MemoryIndex)(nil)

// NewMemoryIndex creates an empty in-memory index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[string]Entry)}
}

// Put registers an entry
func (m *MemoryIndex) Put(ctx context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[entry.Token]; exists {
		return ErrDuplicateToken
	}
	m.entries[entry.Token] = entry
	return nil
}

// Get resolves a token
func (m *MemoryIndex) Get(ctx context.Context, token string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[token]
	if !ok {
		return nil, ErrNotFound
	}
	return &entry, nil
}

// Close is a no-op
func (m *MemoryIndex) Close() error {
	return nil
}
