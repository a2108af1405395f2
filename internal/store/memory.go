package store

import (
	"context"
	"sync"

	"github.com/evcraddock/safety-report/internal/takeaway"
)

// Memory keeps takeaways in a map. Get returns the stored pointer, so a
// hit yields the same instance that was put.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*takeaway.Takeaway
}

// NewMemory creates an empty memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*takeaway.Takeaway)}
}

// Get returns the entry for key or takeaway.ErrNotFound.
func (m *Memory) Get(_ context.Context, key string) (*takeaway.Takeaway, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.entries[key]
	if !ok {
		return nil, takeaway.ErrNotFound
	}
	return t, nil
}

// Put replaces the entry for key.
func (m *Memory) Put(_ context.Context, key string, t *takeaway.Takeaway) error {
	if err := validatePut(key, t); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = t
	return nil
}

// Len returns the number of entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}
