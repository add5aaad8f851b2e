// Package graph holds the immutable dialogue graphs, one per partner, and
// the YAML loader that builds them from authored content files.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ferrobraz/parley/pkg/domain"
)

// Graph is an immutable mapping from node id to node for one dialogue
// partner. Built once by the loader, never mutated afterwards.
type Graph struct {
	Partner string
	Root    string

	// BlockID is the partner-specific sentinel: an option targeting this node
	// marks the conversation as blocked.
	BlockID string

	nodes map[string]*domain.Node
}

// New builds a graph from a node list. Callers should Validate before use.
func New(partner, root, blockID string, nodes []domain.Node) *Graph {
	m := make(map[string]*domain.Node, len(nodes))
	for i := range nodes {
		n := nodes[i]
		m[n.ID] = &n
	}
	return &Graph{
		Partner: partner,
		Root:    root,
		BlockID: blockID,
		nodes:   m,
	}
}

// Node returns the node for the id, or nil if absent. The resolver treats a
// nil node as an implicit terminal, so a single bad reference never crashes
// a session.
func (g *Graph) Node(id string) *domain.Node {
	return g.nodes[id]
}

// Len returns the node count. Used to bound chain walks.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// NodeIDs returns all node ids in deterministic order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Validate checks the node-reference invariant: every next pointer and every
// option target must resolve within the graph, and the root must exist.
// Shipped content must pass this at load time; the runtime's implicit-terminal
// fallback exists only as a last line of defense.
func (g *Graph) Validate() error {
	var problems []string

	if g.Root == "" {
		problems = append(problems, "graph has no root node id")
	} else if g.nodes[g.Root] == nil {
		problems = append(problems, fmt.Sprintf("root node %q not found", g.Root))
	}
	if g.BlockID != "" && g.nodes[g.BlockID] == nil {
		problems = append(problems, fmt.Sprintf("block sentinel %q not found", g.BlockID))
	}

	for _, id := range g.NodeIDs() {
		n := g.nodes[id]
		if n.Next != "" && g.nodes[n.Next] == nil {
			problems = append(problems, fmt.Sprintf("node %q: next %q not found", id, n.Next))
		}
		for _, opt := range n.Options {
			if opt.Target == "" {
				problems = append(problems, fmt.Sprintf("node %q: option %q has no target", id, opt.Label))
				continue
			}
			if g.nodes[opt.Target] == nil {
				problems = append(problems, fmt.Sprintf("node %q: option %q targets missing node %q", id, opt.Label, opt.Target))
			}
		}
		if n.Text == "" && !n.IsBranch() && !n.Terminal && n.Next == "" {
			problems = append(problems, fmt.Sprintf("node %q: dead end (no text, options, terminal flag, or next)", id))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("graph %q: found %d problems:\n- %s",
			g.Partner, len(problems), strings.Join(problems, "\n- "))
	}
	return nil
}

// Registry maps partner names to their graphs. Static configuration, loaded
// once at startup.
type Registry struct {
	graphs map[string]*Graph
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{graphs: make(map[string]*Graph)}
}

// Add registers a graph under its partner name.
func (r *Registry) Add(g *Graph) {
	r.graphs[g.Partner] = g
}

// Graph returns the graph for a partner.
// Returns domain.ErrPartnerNotFound if none is registered.
func (r *Registry) Graph(partner string) (*Graph, error) {
	g, ok := r.graphs[partner]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrPartnerNotFound, partner)
	}
	return g, nil
}

// Partners returns the registered partner names in deterministic order.
func (r *Registry) Partners() []string {
	names := make([]string, 0, len(r.graphs))
	for name := range r.graphs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
