package ports

import (
	"context"
	"testing"
	"time"

	"github.com/ferrobraz/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests verifying that a StateStore
// implementation adheres to the interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	key := domain.ConversationKey{
		UserID:    "contract-user-" + time.Now().Format("20060102150405"),
		PartnerID: "mira",
	}

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewConversationState("start", time.Now().UTC())
		state.History = append(state.History, domain.Message{Speaker: "mira", Text: "hello"})
		state.CurrentNodeID = "mid"

		err := store.Save(ctx, key, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state.CurrentNodeID, loaded.CurrentNodeID)
		require.Len(t, loaded.History, 1)
		assert.Equal(t, "hello", loaded.History[0].Text)
		assert.False(t, loaded.Blocked)
	})

	t.Run("Load Isolation", func(t *testing.T) {
		state := domain.NewConversationState("start", time.Now().UTC())
		require.NoError(t, store.Save(ctx, key, state))

		first, err := store.Load(ctx, key)
		require.NoError(t, err)
		first.History = append(first.History, domain.Message{Speaker: "mira", Text: "mutated"})
		first.Blocked = true

		second, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Empty(t, second.History, "mutating a loaded state must not leak into the store")
		assert.False(t, second.Blocked)
	})

	t.Run("Last Write Wins", func(t *testing.T) {
		older := domain.NewConversationState("start", time.Now().UTC())
		newer := older.Clone()
		newer.CurrentNodeID = "end"
		newer.History = append(newer.History, domain.Message{Speaker: "mira", Text: "bye"})

		require.NoError(t, store.Save(ctx, key, older))
		require.NoError(t, store.Save(ctx, key, newer))

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "end", loaded.CurrentNodeID)
		assert.Len(t, loaded.History, 1)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, domain.ConversationKey{UserID: "nobody", PartnerID: "ghost"})
		assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, domain.NewConversationState("start", time.Now().UTC())))

		err := store.Delete(ctx, key)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrConversationNotFound, "Load after Delete should return ErrConversationNotFound")
	})

	t.Run("List", func(t *testing.T) {
		k1 := domain.ConversationKey{UserID: key.UserID, PartnerID: "mira"}
		k2 := domain.ConversationKey{UserID: key.UserID, PartnerID: "rex"}
		_ = store.Save(ctx, k1, domain.NewConversationState("start", time.Now().UTC()))
		_ = store.Save(ctx, k2, domain.NewConversationState("start", time.Now().UTC()))

		defer func() {
			_ = store.Delete(ctx, k1)
			_ = store.Delete(ctx, k2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, k1)
		assert.Contains(t, keys, k2)
	})
}
