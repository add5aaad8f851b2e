/*
Package parley is a branching dialogue progression engine.

Each dialogue partner is a directed graph of nodes: linear nodes the engine
advances through automatically, branch nodes that wait for the user to pick
an option, and terminal nodes that pause the conversation until an external
condition changes. Nodes can be gated on an achievement rank or on elapsed
time; a closed gate simply stops the chain walk until a later recheck finds
it open.

Conversation progress is persisted per (user, partner) pair after every
authoritative transition, so a conversation survives disconnects and resumes
exactly where it stopped. History is append-only: replaying it reproduces
the exact sequence of messages a user has seen.

The engine is the state-machine core only. Rank scoring, reward storage, and
presentation timing (the "typing" delay before a reveal) belong to the host,
which plugs in through the interfaces in pkg/ports. Adapters for common
hosts ship in this module: an in-memory store, an atomic file store, a Redis
store with distributed locking, a chi HTTP API, an MCP server, and a
terminal player.

Basic usage:

	eng, err := parley.New("content")
	if err != nil {
		log.Fatal(err)
	}
	key := domain.ConversationKey{UserID: "ren", PartnerID: "mira"}
	state, pending, err := eng.Open(ctx, key)
	if pending {
		state, err = eng.Reveal(ctx, key)
	}
*/
package parley
