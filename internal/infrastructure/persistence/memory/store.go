// Package memory provides an in-memory PersistedStore implementation
package memory

import (
	"context"
	"sync"

	"github.com/snackhack/client/internal/ports/outbound"
)

// Store keeps values in a map. Nothing survives the process, which makes
// it the backend for tests and throwaway sessions.
type Store struct {
	data  map[string][]byte
	mutex sync.RWMutex
}

var _ outbound.PersistedStore = (*Store)(nil)

// NewStore creates a new in-memory store
func NewStore() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Save stores a copy of value under key
func (s *Store) Save(ctx context.Context, key string, value []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.data[key] = append([]byte(nil), value...)
	return nil
}

// Load returns a copy of the value stored under key
func (s *Store) Load(ctx context.Context, key string) ([]byte, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	value, exists := s.data[key]
	if !exists {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Clear removes keys
func (s *Store) Clear(ctx context.Context, keys ...string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}
