package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventReveal      EventType = "reveal"
	EventSelect      EventType = "select"
	EventGateBlocked EventType = "gate_blocked"
	EventReward      EventType = "reward"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time       `json:"timestamp"`
	Type      EventType       `json:"type"`
	Key       ConversationKey `json:"key"`
}

// RevealEvent fires once per message appended to history.
type RevealEvent struct {
	EventBase
	NodeID  string  `json:"node_id"`
	Message Message `json:"message"`
}

// SelectEvent fires when a user picks a branch option.
type SelectEvent struct {
	EventBase
	NodeID string `json:"node_id"`
	Option Option `json:"option"`
}

// GateEvent fires when a chain walk stops at a closed gate.
type GateEvent struct {
	EventBase
	NodeID string `json:"node_id"`
}

// RewardEvent fires on reward dispatch, successful or not.
type RewardEvent struct {
	EventBase
	Reward  Reward `json:"reward"`
	IsError bool   `json:"is_error,omitempty"`
}

// Hooks defines callbacks for engine observability. All fields are optional.
type Hooks struct {
	OnReveal      func(context.Context, *RevealEvent)
	OnSelect      func(context.Context, *SelectEvent)
	OnGateBlocked func(context.Context, *GateEvent)
	OnReward      func(context.Context, *RewardEvent)
}
