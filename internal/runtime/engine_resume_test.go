package runtime

import (
	"context"
	"testing"

	"github.com/ferrobraz/parley/pkg/domain"
	"github.com/ferrobraz/parley/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_OpenIsIdempotent(t *testing.T) {
	f := newFixture(t, scenarioGraph())
	ctx := context.Background()
	key := domain.ConversationKey{UserID: "u1", PartnerID: "mira"}

	first, pending1, err := f.engine.Open(ctx, key)
	require.NoError(t, err)
	second, pending2, err := f.engine.Open(ctx, key)
	require.NoError(t, err)

	assert.Equal(t, first, second, "repeated opens yield identical state")
	assert.Equal(t, pending1, pending2)
}

func TestEngine_RevealIsIdempotent(t *testing.T) {
	f := newFixture(t, scenarioGraph())
	ctx := context.Background()
	key := domain.ConversationKey{UserID: "u1", PartnerID: "mira"}

	_, _, err := f.engine.Open(ctx, key)
	require.NoError(t, err)

	first, err := f.engine.Reveal(ctx, key)
	require.NoError(t, err)
	second, err := f.engine.Reveal(ctx, key)
	require.NoError(t, err)

	assert.Equal(t, first, second, "a second reveal appends nothing")
	assert.Equal(t, []string{"A"}, texts(second.History))
}

// An abandoned session may have persisted the reveal mid-cycle. The next open
// detects the undelivered node and the protocol restarts cleanly.
func TestEngine_ResumeAfterInterruptedReveal(t *testing.T) {
	f := newFixture(t, scenarioGraph())
	ctx := context.Background()
	key := domain.ConversationKey{UserID: "u1", PartnerID: "mira"}

	_, pending, err := f.engine.Open(ctx, key)
	require.NoError(t, err)
	require.True(t, pending)

	// Session dies here, before Reveal. A fresh open sees the same picture.
	state, pending, err := f.engine.Open(ctx, key)
	require.NoError(t, err)
	assert.True(t, pending)
	assert.Empty(t, state.History)

	state, err = f.engine.Reveal(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, texts(state.History))

	// Once delivered and settled on the branch, open reports nothing pending.
	_, pending, err = f.engine.Open(ctx, key)
	require.NoError(t, err)
	assert.False(t, pending)
}

func TestEngine_ResumeMidConversation(t *testing.T) {
	f := newFixture(t, scenarioGraph())
	ctx := context.Background()
	key := domain.ConversationKey{UserID: "u1", PartnerID: "mira"}

	_, _, err := f.engine.Open(ctx, key)
	require.NoError(t, err)
	_, err = f.engine.Reveal(ctx, key)
	require.NoError(t, err)
	_, err = f.engine.SelectOption(ctx, key, domain.Option{Label: "ok", Target: "end"})
	require.NoError(t, err)

	// A new session picks up exactly where the last one persisted.
	state, pending, err := f.engine.Open(ctx, key)
	require.NoError(t, err)
	assert.False(t, pending, "the farewell was already delivered")
	assert.Equal(t, "end", state.CurrentNodeID)
	assert.Equal(t, []string{"A", "ok", "bye"}, texts(state.History))
}

func TestEngine_HistoryOnlyEverExtends(t *testing.T) {
	f := newFixture(t, scenarioGraph())
	ctx := context.Background()
	key := domain.ConversationKey{UserID: "u1", PartnerID: "mira"}

	var snapshots [][]domain.Message
	record := func() {
		state, err := f.store.Load(ctx, key)
		require.NoError(t, err)
		snapshots = append(snapshots, state.History)
	}

	_, _, err := f.engine.Open(ctx, key)
	require.NoError(t, err)
	record()
	_, err = f.engine.Reveal(ctx, key)
	require.NoError(t, err)
	record()
	_, err = f.engine.SelectOption(ctx, key, domain.Option{Label: "ok", Target: "end"})
	require.NoError(t, err)
	record()
	f.ranks.Set("u1", domain.RankC)
	_, _, err = f.engine.CheckProgression(ctx, key)
	require.NoError(t, err)
	record()

	for i := 1; i < len(snapshots); i++ {
		prev, curr := snapshots[i-1], snapshots[i]
		require.GreaterOrEqual(t, len(curr), len(prev))
		assert.Equal(t, prev, curr[:len(prev)], "earlier history is a strict prefix of later history")
	}
}

func TestEngine_MissingCurrentNodeActsAsTerminal(t *testing.T) {
	// Content was edited between sessions and the persisted node vanished.
	g := graph.New("mira", "root", "", []domain.Node{
		{ID: "root", Speaker: "Mira", Text: "A", Terminal: true},
	})
	f := newFixture(t, g)
	ctx := context.Background()
	key := domain.ConversationKey{UserID: "u1", PartnerID: "mira"}

	stale := domain.NewConversationState("removed", f.clock.Now())
	require.NoError(t, f.store.Save(ctx, key, stale))

	state, pending, err := f.engine.Open(ctx, key)
	require.NoError(t, err)
	assert.False(t, pending)
	assert.Equal(t, "removed", state.CurrentNodeID)

	pres, err := f.engine.Presentation(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, pres.Options)
	assert.False(t, pres.Typing)

	state, err = f.engine.Reveal(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, state.History)

	_, advanced, err := f.engine.CheckProgression(ctx, key)
	require.NoError(t, err)
	assert.False(t, advanced)
}
