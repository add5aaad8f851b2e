package ports

import (
	"context"

	"github.com/ferrobraz/parley/pkg/domain"
)

// StateStore defines the interface for persisting conversation state.
// Implementations must be last-write-wins consistent for a single caller;
// the session manager guarantees there is never more than one writer per
// conversation at a time.
type StateStore interface {
	// Save persists the state for a conversation key.
	Save(ctx context.Context, key domain.ConversationKey, state *domain.ConversationState) error

	// Load retrieves the state for a conversation key.
	// Returns domain.ErrConversationNotFound if no state exists yet.
	Load(ctx context.Context, key domain.ConversationKey) (*domain.ConversationState, error)

	// Delete removes the state for a conversation key.
	Delete(ctx context.Context, key domain.ConversationKey) error

	// List returns the keys of all stored conversations.
	List(ctx context.Context) ([]domain.ConversationKey, error)
}
