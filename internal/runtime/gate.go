package runtime

import "github.com/ferrobraz/parley/pkg/domain"

// GateContext is the user's measurable state a gate is evaluated against.
type GateContext struct {
	// Rank is the user's current achievement rank.
	Rank domain.Rank

	// HoursSinceLastInteraction is the elapsed time since the conversation
	// state was last written.
	HoursSinceLastInteraction float64
}

// CanEnter decides whether a node may be revealed given the context.
// Both gate conditions must pass when both are present. Pure; no side
// effects, no persistence access.
func CanEnter(node *domain.Node, gctx GateContext) bool {
	if node.RequiredRank != "" && !gctx.Rank.AtLeast(node.RequiredRank) {
		return false
	}
	if node.RequiredWaitHours > 0 && gctx.HoursSinceLastInteraction < node.RequiredWaitHours {
		return false
	}
	return true
}
