package memory

import (
	"context"
	"sync"

	"github.com/ferrobraz/parley/pkg/domain"
)

// RankSource implements ports.RankProvider with a settable in-memory rank
// per user. Intended for tests and demos; production deployments plug in the
// real scoring service.
type RankSource struct {
	mu    sync.RWMutex
	ranks map[string]domain.Rank
}

// NewRankSource creates an empty rank source. Unknown users report RankE.
func NewRankSource() *RankSource {
	return &RankSource{ranks: make(map[string]domain.Rank)}
}

// Set assigns a user's current rank.
func (r *RankSource) Set(userID string, rank domain.Rank) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ranks[userID] = rank
}

// Rank returns the user's current rank.
func (r *RankSource) Rank(ctx context.Context, userID string) (domain.Rank, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rank, ok := r.ranks[userID]; ok {
		return rank, nil
	}
	return domain.RankE, nil
}

// TitleLedger implements ports.RewardGranter and ports.TitleHolder with an
// explicitly user-scoped set of granted titles. Granting is idempotent: the
// same title granted twice is recorded once, and the grant count only moves
// on the first grant.
type TitleLedger struct {
	mu     sync.RWMutex
	titles map[string]map[string]domain.Reward // userID -> title name -> reward
	grants int
}

// NewTitleLedger creates an empty ledger.
func NewTitleLedger() *TitleLedger {
	return &TitleLedger{titles: make(map[string]map[string]domain.Reward)}
}

// Grant records the reward for the user. Safe to call more than once for the
// same reward without duplicating it.
func (l *TitleLedger) Grant(ctx context.Context, userID string, reward domain.Reward) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	owned, ok := l.titles[userID]
	if !ok {
		owned = make(map[string]domain.Reward)
		l.titles[userID] = owned
	}
	if _, exists := owned[reward.Name]; exists {
		return nil
	}
	owned[reward.Name] = reward
	l.grants++
	return nil
}

// HasTitle reports whether the user holds the title.
func (l *TitleLedger) HasTitle(ctx context.Context, userID, title string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.titles[userID][title]
	return ok, nil
}

// Titles returns the titles the user has seen, for notification purposes.
func (l *TitleLedger) Titles(userID string) []domain.Reward {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rewards := make([]domain.Reward, 0, len(l.titles[userID]))
	for _, reward := range l.titles[userID] {
		rewards = append(rewards, reward)
	}
	return rewards
}

// Grants returns the total number of effective (non-duplicate) grants.
func (l *TitleLedger) Grants() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.grants
}
