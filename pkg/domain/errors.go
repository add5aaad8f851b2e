package domain

import "errors"

// ErrConversationNotFound is returned by stores when no state exists for a key.
var ErrConversationNotFound = errors.New("conversation not found")

// ErrPartnerNotFound is returned when no graph is registered for a partner.
var ErrPartnerNotFound = errors.New("dialogue partner not found")

// ErrChainTooLong is returned when a chain walk exceeds the graph's node
// count, which can only happen on an unconditioned cycle.
var ErrChainTooLong = errors.New("chain walk exceeded node count, graph has a cycle")
