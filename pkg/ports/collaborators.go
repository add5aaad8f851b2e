package ports

import (
	"context"

	"github.com/ferrobraz/parley/pkg/domain"
)

// RankProvider supplies the user's current achievement rank, used as gate
// context. The engine queries it on every transition so a rank raised since
// the last write is picked up by the next recheck.
type RankProvider interface {
	Rank(ctx context.Context, userID string) (domain.Rank, error)
}

// RewardGranter persists title rewards. Grant MUST be idempotent: the same
// reward granted twice for the same user must not duplicate it. Reward
// dispatch is best-effort and decoupled from conversation correctness; a
// failed grant is logged, not rolled back.
type RewardGranter interface {
	Grant(ctx context.Context, userID string, reward domain.Reward) error
}

// TitleHolder is an optional extension of RewardGranter. When implemented,
// the engine uses it to filter options that require a title the user does
// not hold yet.
type TitleHolder interface {
	HasTitle(ctx context.Context, userID, title string) (bool, error)
}
