package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ferrobraz/parley/pkg/domain"
)

// Store implements ports.StateStore on the local filesystem. Each
// conversation lives at <base>/<user>/<partner>.json.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".parley/conversations".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".parley", "conversations")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(key domain.ConversationKey) string {
	return filepath.Join(s.BasePath, key.UserID, key.PartnerID+".json")
}

// Save persists the conversation state to a JSON file atomically: write to a
// temp file in the same directory, fsync, then rename over the destination.
func (s *Store) Save(ctx context.Context, key domain.ConversationKey, state *domain.ConversationState) error {
	if err := key.Validate(); err != nil {
		return err
	}

	dir := filepath.Join(s.BasePath, key.UserID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to ensure conversation directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	// Same directory as the destination so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(dir, "tmp-"+key.PartnerID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path(key)); err != nil {
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}
	return nil
}

// Load retrieves the conversation state from its JSON file.
func (s *Store) Load(ctx context.Context, key domain.ConversationKey) (*domain.ConversationState, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to read conversation file: %w", err)
	}

	var state domain.ConversationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation state: %w", err)
	}
	return &state, nil
}

// Delete removes the conversation file.
func (s *Store) Delete(ctx context.Context, key domain.ConversationKey) error {
	if err := key.Validate(); err != nil {
		return err
	}

	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete conversation file: %w", err)
	}
	return nil
}

// List returns the keys of all stored conversations.
func (s *Store) List(ctx context.Context) ([]domain.ConversationKey, error) {
	users, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.ConversationKey{}, nil
		}
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	var keys []domain.ConversationKey
	for _, user := range users {
		if !user.IsDir() {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(s.BasePath, user.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to list conversations for %s: %w", user.Name(), err)
		}
		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
				continue
			}
			name := entry.Name()
			keys = append(keys, domain.ConversationKey{
				UserID:    user.Name(),
				PartnerID: name[:len(name)-len(".json")],
			})
		}
	}
	return keys, nil
}
