package memory

import (
	"context"
	"sync"

	"github.com/ferrobraz/parley/pkg/domain"
)

// Store implements ports.StateStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[domain.ConversationKey]*domain.ConversationState
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[domain.ConversationKey]*domain.ConversationState),
	}
}

// Save persists the state in memory. Stored as a deep copy for isolation,
// mirroring what serialization would do.
func (s *Store) Save(ctx context.Context, key domain.ConversationKey, state *domain.ConversationState) error {
	copied := state.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = copied
	return nil
}

// Load retrieves the state from memory. Returns a copy so the caller can't
// mutate store state through the pointer.
func (s *Store) Load(ctx context.Context, key domain.ConversationKey) (*domain.ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[key]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	return state.Clone(), nil
}

// Delete removes the state.
func (s *Store) Delete(ctx context.Context, key domain.ConversationKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns the keys of stored conversations.
func (s *Store) List(ctx context.Context) ([]domain.ConversationKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]domain.ConversationKey, 0, len(s.data))
	for key := range s.data {
		keys = append(keys, key)
	}
	return keys, nil
}
