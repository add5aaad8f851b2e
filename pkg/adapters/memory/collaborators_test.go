package memory

import (
	"context"
	"testing"

	"github.com/ferrobraz/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankSource(t *testing.T) {
	ctx := context.Background()
	src := NewRankSource()

	rank, err := src.Rank(ctx, "stranger")
	require.NoError(t, err)
	assert.Equal(t, domain.RankE, rank, "unknown users start at the bottom")

	src.Set("u1", domain.RankB)
	rank, err = src.Rank(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.RankB, rank)
}

func TestTitleLedger_GrantIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ledger := NewTitleLedger()
	charm := domain.Reward{Name: "Mira's Charm", Rarity: "rare"}

	require.NoError(t, ledger.Grant(ctx, "u1", charm))
	require.NoError(t, ledger.Grant(ctx, "u1", charm))
	require.NoError(t, ledger.Grant(ctx, "u1", charm))

	assert.Equal(t, 1, ledger.Grants())
	assert.Len(t, ledger.Titles("u1"), 1)
}

func TestTitleLedger_ScopedPerUser(t *testing.T) {
	ctx := context.Background()
	ledger := NewTitleLedger()
	charm := domain.Reward{Name: "Mira's Charm", Rarity: "rare"}

	require.NoError(t, ledger.Grant(ctx, "u1", charm))

	has, err := ledger.HasTitle(ctx, "u1", "Mira's Charm")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = ledger.HasTitle(ctx, "u2", "Mira's Charm")
	require.NoError(t, err)
	assert.False(t, has, "titles do not leak between users")

	assert.Empty(t, ledger.Titles("u2"))
}

func TestTitleLedger_DistinctTitlesAccumulate(t *testing.T) {
	ctx := context.Background()
	ledger := NewTitleLedger()

	require.NoError(t, ledger.Grant(ctx, "u1", domain.Reward{Name: "Mira's Charm", Rarity: "rare"}))
	require.NoError(t, ledger.Grant(ctx, "u1", domain.Reward{Name: "Backed by Rex", Rarity: "epic"}))

	assert.Equal(t, 2, ledger.Grants())
	assert.Len(t, ledger.Titles("u1"), 2)
}
