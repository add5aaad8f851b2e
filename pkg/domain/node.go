package domain

// Node is a single unit of a dialogue graph.
//
// Exactly one of three shapes drives traversal:
//   - linear: Next is set, no Options, not Terminal; the resolver passes
//     through automatically.
//   - branch: Options is non-empty; traversal stops and awaits a choice.
//   - terminal: Terminal is true; traversal stops. A terminal node may still
//     carry Next pointing at a gated future continuation, reachable once the
//     gate opens.
type Node struct {
	ID      string `json:"id" yaml:"id"`
	Speaker string `json:"speaker,omitempty" yaml:"speaker,omitempty"`

	// Text is the line delivered when the node is entered. Nodes with empty
	// text are silent pass-throughs (pure routing).
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	// AudioRef is an opaque reference to attached media. Playback is not the
	// engine's concern.
	AudioRef string `json:"audio_ref,omitempty" yaml:"audio,omitempty"`

	// Next is the id of the follow-up node, either the automatic continuation
	// (linear nodes) or the gated future continuation (terminal nodes).
	Next string `json:"next,omitempty" yaml:"next,omitempty"`

	Options []Option `json:"options,omitempty" yaml:"options,omitempty"`

	// Gates. Evaluated only when the node is being entered, never on the node
	// traversal departs from. Both must pass when both are present.
	RequiredRank      Rank    `json:"required_rank,omitempty" yaml:"required_rank,omitempty"`
	RequiredWaitHours float64 `json:"required_wait_hours,omitempty" yaml:"required_wait_hours,omitempty"`

	Terminal bool `json:"terminal,omitempty" yaml:"terminal,omitempty"`
}

// IsBranch reports whether the node offers user-selectable options.
func (n *Node) IsBranch() bool {
	return len(n.Options) > 0
}

// IsLinear reports whether the resolver should pass through automatically.
func (n *Node) IsLinear() bool {
	return n.Next != "" && !n.IsBranch() && !n.Terminal
}

// Gated reports whether entering the node is subject to any precondition.
func (n *Node) Gated() bool {
	return n.RequiredRank != "" || n.RequiredWaitHours > 0
}

// Option is a user-selectable branch. Selecting an option is the only
// user-initiated transition and is irreversible once persisted.
type Option struct {
	Label  string `json:"label" yaml:"label"`
	Target string `json:"target" yaml:"target"`

	// RequiredTitle hides the option unless the user already holds the title.
	RequiredTitle string `json:"required_title,omitempty" yaml:"required_title,omitempty"`

	// Reward is granted once, at selection time.
	Reward *Reward `json:"reward,omitempty" yaml:"reward,omitempty"`
}

// Reward is a title granted as a side effect of selecting an option.
type Reward struct {
	Name   string `json:"name" yaml:"name"`
	Rarity string `json:"rarity" yaml:"rarity"`
}
