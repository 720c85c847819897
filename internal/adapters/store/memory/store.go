package memory

import (
	"context"
	"sync"

	"github.com/bnema/partage-cli/internal/domain"
	"github.com/bnema/partage-cli/internal/ports"
)

// Store keeps the session namespace in process memory.
type Store struct {
	mu     sync.RWMutex
	values map[domain.ConfigKey]string
}

var _ ports.ConfigStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{values: map[domain.ConfigKey]string{}}
}

func (s *Store) Get(_ context.Context, key domain.ConfigKey) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

func (s *Store) Set(_ context.Context, key domain.ConfigKey, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if value == "" {
		delete(s.values, key)
		return
	}
	s.values[key] = value
}

func (s *Store) Clear(context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = map[domain.ConfigKey]string{}
}
