package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/ferrobraz/parley/internal/logging"
	"github.com/ferrobraz/parley/pkg/domain"
	"github.com/ferrobraz/parley/pkg/graph"
	"github.com/ferrobraz/parley/pkg/ports"
	"github.com/ferrobraz/parley/pkg/session"
)

// ErrOptionNotOffered is returned when a selection does not match any option
// currently offered by the conversation. A retried selection lands here,
// which is what keeps a retry from double-appending or double-granting.
var ErrOptionNotOffered = errors.New("option not offered at current node")

// Engine is the progression service. It orchestrates cold load and resume,
// option application, periodic gate rechecks, and reward dispatch.
//
// Every entry point runs under the session manager's per-conversation lock
// and ends by persisting the resulting state before returning; a second read
// never observes a partial write.
type Engine struct {
	registry *graph.Registry
	sessions *session.Manager
	ranks    ports.RankProvider
	rewards  ports.RewardGranter

	hooks  domain.Hooks
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine creates the progression service with its collaborators.
func NewEngine(registry *graph.Registry, sessions *session.Manager, ranks ports.RankProvider, rewards ports.RewardGranter, opts ...EngineOption) *Engine {
	e := &Engine{
		registry: registry,
		sessions: sessions,
		ranks:    ranks,
		rewards:  rewards,
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Open loads the persisted conversation, or initializes it at the graph root
// on first contact. It never walks the chain: the root message is delivered
// by a single Reveal cycle so the user sees it arrive, not pre-filled.
//
// The second return value reports whether the current node still awaits that
// one-shot reveal.
func (e *Engine) Open(ctx context.Context, key domain.ConversationKey) (*domain.ConversationState, bool, error) {
	if err := key.Validate(); err != nil {
		return nil, false, err
	}
	g, err := e.registry.Graph(key.PartnerID)
	if err != nil {
		return nil, false, err
	}

	state, err := e.sessions.LoadOrStart(ctx, key, g.Root, e.now().UTC())
	if err != nil {
		return nil, false, err
	}

	return state, e.pendingReveal(g, state), nil
}

// Reveal performs the reveal-then-persist cycle for the current node: its
// message is delivered once, and if the node is a linear pass-through the
// chain is resolved onward to the next branch point or terminal. Idempotent:
// if the node's message is already the last history entry and the node is not
// linear, nothing changes. Safe to restart after an abandoned session.
func (e *Engine) Reveal(ctx context.Context, key domain.ConversationKey) (*domain.ConversationState, error) {
	g, err := e.registry.Graph(key.PartnerID)
	if err != nil {
		return nil, err
	}

	var state *domain.ConversationState
	err = e.sessions.WithLock(ctx, key, func(ctx context.Context) error {
		var err error
		state, err = e.sessions.Store().Load(ctx, key)
		if err != nil {
			return err
		}

		node := g.Node(state.CurrentNodeID)
		if node == nil {
			return nil
		}

		dirty := false
		var revealed []revealRecord

		if node.Text != "" {
			msg := messageOf(node)
			if !state.Delivered(msg) {
				state.History = append(state.History, msg)
				revealed = append(revealed, revealRecord{nodeID: node.ID, msg: msg})
				dirty = true
			}
		}

		if node.IsLinear() {
			next := g.Node(node.Next)
			if next != nil && !CanEnter(next, e.gateContext(ctx, key.UserID, state)) {
				e.fireGateBlocked(ctx, key, next.ID)
			} else {
				res, err := e.resolve(ctx, g, key, state, node.Next)
				if err != nil {
					return err
				}
				state.History = append(state.History, res.Revealed...)
				for _, msg := range res.Revealed {
					revealed = append(revealed, revealRecord{nodeID: res.StoppedAt, msg: msg})
				}
				state.CurrentNodeID = res.StoppedAt
				dirty = true
			}
		}

		if !dirty {
			return nil
		}
		if err := e.sessions.Store().Save(ctx, key, state); err != nil {
			return fmt.Errorf("failed to persist reveal: %w", err)
		}
		for _, r := range revealed {
			e.fireReveal(ctx, key, r.nodeID, r.msg)
		}
		return nil
	})
	return state, err
}

// revealRecord pairs a delivered message with the node it settled on, for
// hook emission after the persist succeeds.
type revealRecord struct {
	nodeID string
	msg    domain.Message
}

// SelectOption applies a user's chosen branch: echo the label into history,
// dispatch the reward (best-effort), resolve the chain from the target, and
// persist. Returns the resulting presentation.
//
// The selection must match an option offered by the current node; anything
// else returns ErrOptionNotOffered. Since applying an option moves the
// current node, a retried selection is rejected rather than re-applied.
func (e *Engine) SelectOption(ctx context.Context, key domain.ConversationKey, selected domain.Option) (domain.Presentation, error) {
	g, err := e.registry.Graph(key.PartnerID)
	if err != nil {
		return domain.Presentation{}, err
	}

	var pres domain.Presentation
	err = e.sessions.WithLock(ctx, key, func(ctx context.Context) error {
		state, err := e.sessions.Store().Load(ctx, key)
		if err != nil {
			return err
		}

		option, err := e.offeredOption(g, state, selected)
		if err != nil {
			return err
		}

		state.History = append(state.History, domain.Message{
			Speaker: domain.SpeakerUser,
			Text:    option.Label,
		})
		e.fireSelect(ctx, key, state.CurrentNodeID, option)

		// Rewards fire exactly once, here at selection time, never during
		// chain resolution. Dispatch failure is logged and does not roll
		// back the transition; the granter is idempotent and independently
		// retryable.
		if option.Reward != nil {
			e.dispatchReward(ctx, key, *option.Reward)
		}

		if g.BlockID != "" && option.Target == g.BlockID {
			state.Blocked = true
		}

		res, err := e.resolve(ctx, g, key, state, option.Target)
		if err != nil {
			return err
		}

		state.History = append(state.History, res.Revealed...)
		state.CurrentNodeID = res.StoppedAt
		state.LastInteraction = e.now().UTC()

		if err := e.sessions.Store().Save(ctx, key, state); err != nil {
			return fmt.Errorf("failed to persist selection: %w", err)
		}
		for _, msg := range res.Revealed {
			e.fireReveal(ctx, key, res.StoppedAt, msg)
		}

		pres = e.project(ctx, g, key, state)
		return nil
	})
	return pres, err
}

// CheckProgression re-evaluates a previously blocked continuation with the
// current rank and elapsed time. Only applicable when the conversation rests
// on a terminal node with a next pointer. Idempotent and side-effect-free
// unless the gate has newly opened; safe to invoke on every session open or
// on a timer.
//
// The boolean reports whether the conversation advanced.
func (e *Engine) CheckProgression(ctx context.Context, key domain.ConversationKey) (domain.Presentation, bool, error) {
	g, err := e.registry.Graph(key.PartnerID)
	if err != nil {
		return domain.Presentation{}, false, err
	}

	var pres domain.Presentation
	advanced := false
	err = e.sessions.WithLock(ctx, key, func(ctx context.Context) error {
		state, err := e.sessions.Store().Load(ctx, key)
		if err != nil {
			return err
		}
		pres = e.project(ctx, g, key, state)

		if state.Blocked {
			return nil
		}
		node := g.Node(state.CurrentNodeID)
		if node == nil || !node.Terminal || node.Next == "" {
			return nil
		}
		next := g.Node(node.Next)
		if next == nil {
			return nil
		}

		gctx := e.gateContext(ctx, key.UserID, state)
		if !CanEnter(next, gctx) {
			e.fireGateBlocked(ctx, key, next.ID)
			return nil
		}

		res, err := e.resolve(ctx, g, key, state, node.Next)
		if err != nil {
			return err
		}

		state.History = append(state.History, res.Revealed...)
		state.CurrentNodeID = res.StoppedAt

		if err := e.sessions.Store().Save(ctx, key, state); err != nil {
			return fmt.Errorf("failed to persist progression: %w", err)
		}
		for _, msg := range res.Revealed {
			e.fireReveal(ctx, key, res.StoppedAt, msg)
		}

		advanced = true
		pres = e.project(ctx, g, key, state)
		return nil
	})
	return pres, advanced, err
}

// Presentation returns the UI-facing projection of the conversation.
func (e *Engine) Presentation(ctx context.Context, key domain.ConversationKey) (domain.Presentation, error) {
	g, err := e.registry.Graph(key.PartnerID)
	if err != nil {
		return domain.Presentation{}, err
	}
	state, err := e.sessions.Load(ctx, key)
	if err != nil {
		return domain.Presentation{}, err
	}
	return e.project(ctx, g, key, state), nil
}

// Project derives the presentation from a state without collaborator access.
// Pure; option title requirements are not filtered here.
func Project(g *graph.Graph, state *domain.ConversationState) domain.Presentation {
	pres := domain.Presentation{
		History: state.History,
		Options: []domain.Option{},
		Blocked: state.Blocked,
	}
	node := g.Node(state.CurrentNodeID)
	if node == nil {
		return pres
	}
	if !state.Blocked {
		pres.Options = append(pres.Options, node.Options...)
	}
	if node.Text != "" && !state.Delivered(messageOf(node)) {
		pres.Typing = true
	}
	return pres
}

// project applies the title-requirement filter on top of Project when the
// reward collaborator can answer title queries.
func (e *Engine) project(ctx context.Context, g *graph.Graph, key domain.ConversationKey, state *domain.ConversationState) domain.Presentation {
	pres := Project(g, state)

	holder, ok := e.rewards.(ports.TitleHolder)
	if !ok {
		return pres
	}

	filtered := pres.Options[:0]
	for _, opt := range pres.Options {
		if opt.RequiredTitle != "" {
			has, err := holder.HasTitle(ctx, key.UserID, opt.RequiredTitle)
			if err != nil {
				e.logger.Warn("title lookup failed, hiding gated option",
					"conversation", key.String(),
					"title", opt.RequiredTitle,
					"err", err,
				)
				continue
			}
			if !has {
				continue
			}
		}
		filtered = append(filtered, opt)
	}
	pres.Options = filtered
	return pres
}

// resolve runs the chain resolver and reports traversal anomalies.
func (e *Engine) resolve(ctx context.Context, g *graph.Graph, key domain.ConversationKey, state *domain.ConversationState, startID string) (ChainResult, error) {
	res, err := ResolveChain(g, startID, e.gateContext(ctx, key.UserID, state))
	if err != nil {
		return res, fmt.Errorf("conversation %s: %w", key.String(), err)
	}
	if res.Malformed {
		e.logger.Error("malformed graph: traversal stopped at dead-end node",
			"partner", g.Partner,
			"node", res.StoppedAt,
		)
	}
	if res.GateClosedAt != "" {
		e.fireGateBlocked(ctx, key, res.GateClosedAt)
	}
	return res, nil
}

// offeredOption matches the selection against the options the current node
// actually offers.
func (e *Engine) offeredOption(g *graph.Graph, state *domain.ConversationState, selected domain.Option) (domain.Option, error) {
	if state.Blocked {
		return domain.Option{}, fmt.Errorf("%w: conversation is blocked", ErrOptionNotOffered)
	}
	node := g.Node(state.CurrentNodeID)
	if node == nil {
		return domain.Option{}, fmt.Errorf("%w: no current node", ErrOptionNotOffered)
	}
	for _, opt := range node.Options {
		if opt.Label == selected.Label && opt.Target == selected.Target {
			return opt, nil
		}
	}
	return domain.Option{}, fmt.Errorf("%w: %q at node %q", ErrOptionNotOffered, selected.Label, node.ID)
}

// gateContext assembles the measurable state gates are evaluated against.
// A rank lookup failure closes rank gates rather than opening them.
func (e *Engine) gateContext(ctx context.Context, userID string, state *domain.ConversationState) GateContext {
	gctx := GateContext{
		HoursSinceLastInteraction: e.now().UTC().Sub(state.LastInteraction).Hours(),
	}
	rank, err := e.ranks.Rank(ctx, userID)
	if err != nil {
		e.logger.Warn("rank lookup failed, rank gates stay closed", "user", userID, "err", err)
		return gctx
	}
	gctx.Rank = rank
	return gctx
}

// dispatchReward calls the external granter, best-effort.
func (e *Engine) dispatchReward(ctx context.Context, key domain.ConversationKey, reward domain.Reward) {
	err := e.rewards.Grant(ctx, key.UserID, reward)
	if err != nil {
		e.logger.Error("reward dispatch failed, conversation still advances",
			"conversation", key.String(),
			"reward", reward.Name,
			"err", err,
		)
	}
	e.fireReward(ctx, key, reward, err != nil)
}

func messageOf(node *domain.Node) domain.Message {
	return domain.Message{
		Speaker:  node.Speaker,
		Text:     node.Text,
		AudioRef: node.AudioRef,
	}
}

func (e *Engine) pendingReveal(g *graph.Graph, state *domain.ConversationState) bool {
	node := g.Node(state.CurrentNodeID)
	if node == nil {
		return false
	}
	if node.IsLinear() {
		return true
	}
	if node.Text == "" {
		return false
	}
	return !state.Delivered(messageOf(node))
}

// Hook emitters. All tolerate missing hooks.

func (e *Engine) fireReveal(ctx context.Context, key domain.ConversationKey, nodeID string, msg domain.Message) {
	if e.hooks.OnReveal == nil {
		return
	}
	e.hooks.OnReveal(ctx, &domain.RevealEvent{
		EventBase: e.eventBase(domain.EventReveal, key),
		NodeID:    nodeID,
		Message:   msg,
	})
}

func (e *Engine) fireSelect(ctx context.Context, key domain.ConversationKey, nodeID string, option domain.Option) {
	if e.hooks.OnSelect == nil {
		return
	}
	e.hooks.OnSelect(ctx, &domain.SelectEvent{
		EventBase: e.eventBase(domain.EventSelect, key),
		NodeID:    nodeID,
		Option:    option,
	})
}

func (e *Engine) fireGateBlocked(ctx context.Context, key domain.ConversationKey, nodeID string) {
	if e.hooks.OnGateBlocked == nil {
		return
	}
	e.hooks.OnGateBlocked(ctx, &domain.GateEvent{
		EventBase: e.eventBase(domain.EventGateBlocked, key),
		NodeID:    nodeID,
	})
}

func (e *Engine) fireReward(ctx context.Context, key domain.ConversationKey, reward domain.Reward, isErr bool) {
	if e.hooks.OnReward == nil {
		return
	}
	e.hooks.OnReward(ctx, &domain.RewardEvent{
		EventBase: e.eventBase(domain.EventReward, key),
		Reward:    reward,
		IsError:   isErr,
	})
}

func (e *Engine) eventBase(t domain.EventType, key domain.ConversationKey) domain.EventBase {
	return domain.EventBase{
		Timestamp: e.now().UTC(),
		Type:      t,
		Key:       key,
	}
}
