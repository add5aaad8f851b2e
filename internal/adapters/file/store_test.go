package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ferrobraz/parley/pkg/domain"
	"github.com/ferrobraz/parley/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, New(t.TempDir()))
}

func TestStore_SurvivesProcessRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	key := domain.ConversationKey{UserID: "u1", PartnerID: "mira"}

	state := domain.NewConversationState("mid", time.Now().UTC())
	state.History = append(state.History, domain.Message{Speaker: "Mira", Text: "hello"})
	require.NoError(t, New(dir).Save(ctx, key, state))

	// A fresh store over the same directory sees the persisted conversation.
	loaded, err := New(dir).Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "mid", loaded.CurrentNodeID)
	require.Len(t, loaded.History, 1)
	assert.Equal(t, "hello", loaded.History[0].Text)
}

func TestStore_LayoutIsOneFilePerPartner(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	store := New(dir)

	require.NoError(t, store.Save(ctx, domain.ConversationKey{UserID: "u1", PartnerID: "mira"}, domain.NewConversationState("root", time.Now())))
	require.NoError(t, store.Save(ctx, domain.ConversationKey{UserID: "u1", PartnerID: "rex"}, domain.NewConversationState("root", time.Now())))

	assert.FileExists(t, filepath.Join(dir, "u1", "mira.json"))
	assert.FileExists(t, filepath.Join(dir, "u1", "rex.json"))

	// No temp files left behind after a successful save.
	entries, err := os.ReadDir(filepath.Join(dir, "u1"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestStore_ListIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	store := New(dir)

	require.NoError(t, store.Save(ctx, domain.ConversationKey{UserID: "u1", PartnerID: "mira"}, domain.NewConversationState("root", time.Now())))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "u1", "notes.md"), []byte("x"), 0o644))

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.ConversationKey{{UserID: "u1", PartnerID: "mira"}}, keys)
}

func TestStore_ListOnEmptyBase(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "never-created"))

	keys, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestStore_RejectsIncompleteKey(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	err := store.Save(ctx, domain.ConversationKey{UserID: "u1"}, domain.NewConversationState("root", time.Now()))
	assert.Error(t, err)

	_, err = store.Load(ctx, domain.ConversationKey{PartnerID: "mira"})
	assert.Error(t, err)
}
