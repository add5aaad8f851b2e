package domain

import (
	"fmt"
	"time"
)

// SpeakerUser is the speaker recorded for messages authored by the user
// (option labels echoed into history).
const SpeakerUser = "user"

// Message is a delivered, immutable record. Once appended to a conversation's
// history it is never edited or removed.
type Message struct {
	Speaker  string `json:"speaker"`
	Text     string `json:"text"`
	AudioRef string `json:"audio_ref,omitempty"`
}

// ConversationKey identifies the unit of persistence: one user talking to one
// dialogue partner.
type ConversationKey struct {
	UserID    string
	PartnerID string
}

// String returns the canonical storage key form "user/partner".
func (k ConversationKey) String() string {
	return k.UserID + "/" + k.PartnerID
}

// Validate checks that both components are present.
func (k ConversationKey) Validate() error {
	if k.UserID == "" || k.PartnerID == "" {
		return fmt.Errorf("conversation key requires user and partner: %q", k.String())
	}
	return nil
}

// ConversationState is the persisted progress of one conversation.
// CurrentNodeID is the single source of truth for where traversal resumes.
// History is append-only; replaying it reproduces exactly what the user saw.
type ConversationState struct {
	CurrentNodeID   string    `json:"current_node_id"`
	History         []Message `json:"history"`
	LastInteraction time.Time `json:"last_interaction"`
	Blocked         bool      `json:"blocked"`
}

// NewConversationState creates the initial state for first contact with a
// partner, positioned at the graph root with nothing delivered yet.
func NewConversationState(rootID string, now time.Time) *ConversationState {
	return &ConversationState{
		CurrentNodeID:   rootID,
		History:         []Message{},
		LastInteraction: now,
	}
}

// Clone returns an independent copy. Stores and the engine copy on every
// boundary crossing so callers can never mutate shared state by pointer.
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	next := *s
	next.History = make([]Message, len(s.History))
	copy(next.History, s.History)
	return &next
}

// Delivered reports whether the message for the given node text is already
// the last entry of history. Used to decide if the current node still needs
// its one-shot reveal.
func (s *ConversationState) Delivered(msg Message) bool {
	if len(s.History) == 0 {
		return false
	}
	return s.History[len(s.History)-1] == msg
}

// Presentation is the UI-facing projection of a conversation. It is derived,
// never persisted.
type Presentation struct {
	History []Message `json:"history"`
	Options []Option  `json:"options"`
	Blocked bool      `json:"blocked"`
	Typing  bool      `json:"typing"`
}
