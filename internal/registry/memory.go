package registry

import (
	"context"
	"sync"
)

// Memory is an in-memory Registry for tests and local development.
type Memory struct {
	mu      sync.RWMutex
	records map[string]Record
	failErr error
}

// NewMemory returns an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]Record)}
}

// Seed adds or replaces a record.
func (m *Memory) Seed(rec Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.IndexNumber] = rec
}

// FailWith makes every subsequent Lookup return err, simulating an
// unreachable registry. Pass nil to restore normal behavior.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

// Lookup implements Registry.
func (m *Memory) Lookup(ctx context.Context, indexNumber string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failErr != nil {
		return nil, m.failErr
	}

	rec, ok := m.records[indexNumber]
	if !ok {
		return nil, ErrNotFound
	}
	out := rec
	return &out, nil
}
