package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu        sync.RWMutex
	companies map[string]string // email -> company ID
	keys      []Key
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{companies: make(map[string]string)}
}

// AddCompany registers a company and returns its generated ID.
func (s *MemoryStore) AddCompany(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.companies[email] = id
	return id
}

// Deactivate marks every key for a company inactive.
func (s *MemoryStore) Deactivate(companyID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.keys {
		if s.keys[i].CompanyID == companyID {
			s.keys[i].Active = false
		}
	}
}

func (s *MemoryStore) CompanyIDByEmail(ctx context.Context, email string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.companies[email]
	if !ok {
		return "", fmt.Errorf("no company registered for %s", email)
	}
	return id, nil
}

func (s *MemoryStore) InsertKey(ctx context.Context, key *Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key.ID == "" {
		key.ID = uuid.NewString()
	}
	s.keys = append(s.keys, *key)
	return nil
}

func (s *MemoryStore) ActiveKeysByPrefix(ctx context.Context, prefix string) ([]Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Key
	for _, k := range s.keys {
		if k.Active && k.Prefix == prefix {
			out = append(out, k)
		}
	}
	return out, nil
}
