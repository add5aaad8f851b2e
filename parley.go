package parley

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/ferrobraz/parley/internal/logging"
	"github.com/ferrobraz/parley/internal/runtime"
	"github.com/ferrobraz/parley/pkg/adapters/memory"
	"github.com/ferrobraz/parley/pkg/domain"
	"github.com/ferrobraz/parley/pkg/graph"
	"github.com/ferrobraz/parley/pkg/ports"
	"github.com/ferrobraz/parley/pkg/session"
)

// Version is the library version reported by the CLI and adapters.
var Version = "0.3.0"

// Engine is the high-level entry point for the Parley library.
// It wraps the internal progression runtime and provides a simplified API
// for consumers.
type Engine struct {
	registry *graph.Registry
	sessions *session.Manager
	runtime  *runtime.Engine

	store   ports.StateStore
	locker  ports.DistributedLocker
	ranks   ports.RankProvider
	rewards ports.RewardGranter
	hooks   domain.Hooks
	logger  *slog.Logger
	clock   func() time.Time
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithRegistry injects pre-built graphs, bypassing content loading from disk.
func WithRegistry(reg *graph.Registry) Option {
	return func(e *Engine) {
		e.registry = reg
	}
}

// WithStore sets the persistence adapter (default: in-memory).
func WithStore(store ports.StateStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables distributed locking for multi-replica deployments.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithRankProvider sets the external rank collaborator.
func WithRankProvider(ranks ports.RankProvider) Option {
	return func(e *Engine) {
		e.ranks = ranks
	}
}

// WithRewardGranter sets the external reward collaborator.
func WithRewardGranter(rewards ports.RewardGranter) Option {
	return func(e *Engine) {
		e.rewards = rewards
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.Hooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the engine time source, making wait gates testable.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.clock = now
	}
}

// New initializes a new Parley Engine.
// By default it loads partner graphs from contentDir (one YAML file per
// partner, validated against the node-reference invariant, failing fast on
// dangling references). If WithRegistry is provided, contentDir can be empty.
func New(contentDir string, opts ...Option) (*Engine, error) {
	eng := &Engine{}

	for _, opt := range opts {
		opt(eng)
	}

	if eng.registry == nil {
		if contentDir == "" {
			return nil, fmt.Errorf("contentDir is required when no registry is provided")
		}
		reg, err := graph.LoadDir(contentDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load dialogue content: %w", err)
		}
		eng.registry = reg
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.ranks == nil {
		eng.ranks = memory.NewRankSource()
	}
	if eng.rewards == nil {
		eng.rewards = memory.NewTitleLedger()
	}
	if eng.clock == nil {
		eng.clock = time.Now
	}

	sessionOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker))
	}
	eng.sessions = session.NewManager(eng.store, sessionOpts...)

	eng.runtime = runtime.NewEngine(
		eng.registry,
		eng.sessions,
		eng.ranks,
		eng.rewards,
		runtime.WithLogger(eng.logger),
		runtime.WithHooks(eng.hooks),
		runtime.WithClock(eng.clock),
	)

	return eng, nil
}

// Open loads or initializes the conversation for a user/partner pair.
// The boolean reports whether the current node still awaits its one-shot
// reveal (see Reveal).
func (e *Engine) Open(ctx context.Context, key domain.ConversationKey) (*domain.ConversationState, bool, error) {
	return e.runtime.Open(ctx, key)
}

// Reveal delivers the current node's message, once, and walks any linear
// continuation to the next branch point or terminal. Idempotent; safe to
// repeat after an interrupted session.
func (e *Engine) Reveal(ctx context.Context, key domain.ConversationKey) (*domain.ConversationState, error) {
	return e.runtime.Reveal(ctx, key)
}

// SelectOption applies a user's chosen branch option and returns the
// resulting presentation.
func (e *Engine) SelectOption(ctx context.Context, key domain.ConversationKey, option domain.Option) (domain.Presentation, error) {
	return e.runtime.SelectOption(ctx, key, option)
}

// CheckProgression re-checks a gated continuation with the current rank and
// elapsed time. Safe to call on every open or on a timer.
func (e *Engine) CheckProgression(ctx context.Context, key domain.ConversationKey) (domain.Presentation, bool, error) {
	return e.runtime.CheckProgression(ctx, key)
}

// Presentation returns the UI-facing projection of the conversation.
func (e *Engine) Presentation(ctx context.Context, key domain.ConversationKey) (domain.Presentation, error) {
	return e.runtime.Presentation(ctx, key)
}

// Partners returns the registered dialogue partner names.
func (e *Engine) Partners() []string {
	return e.registry.Partners()
}

// Registry returns the underlying graph registry, for introspection tools.
func (e *Engine) Registry() *graph.Registry {
	return e.registry
}

// Sessions returns the session manager, for administrative tooling.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}
