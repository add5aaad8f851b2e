package middleware

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/ferrobraz/parley/pkg/adapters/memory"
	"github.com/ferrobraz/parley/pkg/domain"
	"github.com/ferrobraz/parley/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() EncryptionConfig {
	return EncryptionConfig{ActiveKey: bytes.Repeat([]byte("k"), 32)}
}

func testState() *domain.ConversationState {
	state := domain.NewConversationState("mid", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	state.History = append(state.History,
		domain.Message{Speaker: "Mira", Text: "something personal"},
		domain.Message{Speaker: domain.SpeakerUser, Text: "something private"},
	)
	return state
}

func TestEncryption_Contract(t *testing.T) {
	store := NewEncryptionMiddleware(testConfig())(memory.NewStore())
	ports.RunStateStoreContract(t, store)
}

func TestEncryption_RoundTrip(t *testing.T) {
	store := NewEncryptionMiddleware(testConfig())(memory.NewStore())
	ctx := context.Background()
	key := domain.ConversationKey{UserID: "u1", PartnerID: "mira"}

	state := testState()
	require.NoError(t, store.Save(ctx, key, state))

	loaded, err := store.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, state, loaded)
}

func TestEncryption_InnerStoreNeverSeesPlaintext(t *testing.T) {
	inner := memory.NewStore()
	store := NewEncryptionMiddleware(testConfig())(inner)
	ctx := context.Background()
	key := domain.ConversationKey{UserID: "u1", PartnerID: "mira"}

	state := testState()
	state.Blocked = true
	require.NoError(t, store.Save(ctx, key, state))

	raw, err := inner.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "__encrypted__", raw.CurrentNodeID)
	require.Len(t, raw.History, 1)
	assert.NotContains(t, raw.History[0].Text, "something personal")
	assert.NotContains(t, raw.History[0].Text, "mid")
	assert.True(t, raw.Blocked, "the blocked flag stays visible for monitoring")
}

func TestEncryption_KeyRotation(t *testing.T) {
	oldKey := bytes.Repeat([]byte("o"), 32)
	newKey := bytes.Repeat([]byte("n"), 32)
	inner := memory.NewStore()
	ctx := context.Background()
	key := domain.ConversationKey{UserID: "u1", PartnerID: "mira"}

	oldStore := NewEncryptionMiddleware(EncryptionConfig{ActiveKey: oldKey})(inner)
	require.NoError(t, oldStore.Save(ctx, key, testState()))

	// After rotation the old key moves to the fallback list and reads keep
	// working.
	rotated := NewEncryptionMiddleware(EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(inner)

	loaded, err := rotated.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, testState(), loaded)

	// A re-save upgrades the record to the new key; the fallback is no longer
	// needed for it.
	require.NoError(t, rotated.Save(ctx, key, loaded))
	fresh := NewEncryptionMiddleware(EncryptionConfig{ActiveKey: newKey})(inner)
	_, err = fresh.Load(ctx, key)
	require.NoError(t, err)
}

func TestEncryption_WrongKeyFails(t *testing.T) {
	inner := memory.NewStore()
	ctx := context.Background()
	key := domain.ConversationKey{UserID: "u1", PartnerID: "mira"}

	require.NoError(t, NewEncryptionMiddleware(testConfig())(inner).Save(ctx, key, testState()))

	other := NewEncryptionMiddleware(EncryptionConfig{ActiveKey: bytes.Repeat([]byte("x"), 32)})(inner)
	_, err := other.Load(ctx, key)
	assert.Error(t, err)
}

func TestEncryption_RejectsShortKey(t *testing.T) {
	assert.Panics(t, func() {
		NewEncryptionMiddleware(EncryptionConfig{ActiveKey: []byte("short")})
	})
}

func TestEncryption_RejectsPlaintextRecord(t *testing.T) {
	inner := memory.NewStore()
	ctx := context.Background()
	key := domain.ConversationKey{UserID: "u1", PartnerID: "mira"}

	// A record written before encryption was enabled.
	require.NoError(t, inner.Save(ctx, key, testState()))

	store := NewEncryptionMiddleware(testConfig())(inner)
	_, err := store.Load(ctx, key)
	assert.Error(t, err)
}
