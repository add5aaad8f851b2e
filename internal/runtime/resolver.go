package runtime

import (
	"github.com/ferrobraz/parley/pkg/domain"
	"github.com/ferrobraz/parley/pkg/graph"
)

// ChainResult is the outcome of one resolver pass.
type ChainResult struct {
	// Revealed is the ordered list of newly delivered messages.
	Revealed []domain.Message

	// StoppedAt is the next authoritative node id for the conversation.
	StoppedAt string

	// Options are the choices awaiting the user, when stopped at a branch.
	Options []domain.Option

	// GateClosedAt is the id of the gated node the walk refused to enter,
	// empty if the walk stopped for another reason. StoppedAt then remains
	// the node before it; the gated node is never partially entered.
	GateClosedAt string

	// Malformed flags a dead-end node (no text continuation, no options, no
	// terminal marker). Callers log it; traversal stops there either way.
	Malformed bool
}

// ResolveChain walks the graph from startID, auto-advancing through linear
// nodes and collecting their messages, until it hits a branch point, a
// terminal marker, a closed gate, or a missing node (implicit terminal).
//
// Gates are evaluated only on nodes being entered, never on the start node:
// the caller already stands on startID by virtue of a selection or an open
// gate. Iterations are bounded by the graph's node count; exceeding the
// bound means an unconditioned cycle and fails loudly rather than hanging.
func ResolveChain(g *graph.Graph, startID string, gctx GateContext) (ChainResult, error) {
	res := ChainResult{StoppedAt: startID}

	nodeID := startID
	prevID := startID
	for hops := 0; ; hops++ {
		if hops > g.Len() {
			return res, domain.ErrChainTooLong
		}

		node := g.Node(nodeID)
		if node == nil {
			// Missing reference: implicit terminal, no options.
			res.StoppedAt = nodeID
			return res, nil
		}

		if hops > 0 && !CanEnter(node, gctx) {
			res.StoppedAt = prevID
			res.GateClosedAt = node.ID
			return res, nil
		}

		if node.Text != "" {
			res.Revealed = append(res.Revealed, domain.Message{
				Speaker:  node.Speaker,
				Text:     node.Text,
				AudioRef: node.AudioRef,
			})
		}

		if node.IsBranch() || node.Terminal {
			res.StoppedAt = node.ID
			res.Options = node.Options
			return res, nil
		}

		if node.Next != "" {
			prevID = node.ID
			nodeID = node.Next
			continue
		}

		res.StoppedAt = node.ID
		res.Malformed = true
		return res, nil
	}
}
