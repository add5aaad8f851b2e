package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankOrdering(t *testing.T) {
	ordered := []Rank{RankE, RankD, RankC, RankB, RankA, RankS}
	for i := 1; i < len(ordered); i++ {
		assert.True(t, ordered[i].AtLeast(ordered[i-1]),
			"%s should outrank %s", ordered[i], ordered[i-1])
		assert.False(t, ordered[i-1].AtLeast(ordered[i]),
			"%s should not outrank %s", ordered[i-1], ordered[i])
	}
}

func TestRankAtLeastSelf(t *testing.T) {
	assert.True(t, RankC.AtLeast(RankC))
}

func TestUnknownRankNeverSatisfiesGates(t *testing.T) {
	unknown := Rank("Z")
	assert.False(t, unknown.Valid())
	assert.False(t, unknown.AtLeast(RankE), "malformed rank must order below E")
	assert.True(t, RankE.AtLeast(unknown))
}

func TestConversationKeyString(t *testing.T) {
	key := ConversationKey{UserID: "ren", PartnerID: "mira"}
	assert.Equal(t, "ren/mira", key.String())
	assert.NoError(t, key.Validate())
	assert.Error(t, ConversationKey{UserID: "ren"}.Validate())
	assert.Error(t, ConversationKey{PartnerID: "mira"}.Validate())
}

func TestStateCloneIsolation(t *testing.T) {
	state := &ConversationState{
		CurrentNodeID: "mid",
		History:       []Message{{Speaker: "mira", Text: "hi"}},
	}

	clone := state.Clone()
	clone.History = append(clone.History, Message{Speaker: SpeakerUser, Text: "yo"})
	clone.History[0].Text = "mutated"
	clone.CurrentNodeID = "end"

	assert.Equal(t, "mid", state.CurrentNodeID)
	assert.Len(t, state.History, 1)
	assert.Equal(t, "hi", state.History[0].Text)
}

func TestDelivered(t *testing.T) {
	msg := Message{Speaker: "mira", Text: "hello"}
	state := &ConversationState{}
	assert.False(t, state.Delivered(msg), "empty history delivers nothing")

	state.History = append(state.History, msg)
	assert.True(t, state.Delivered(msg))

	state.History = append(state.History, Message{Speaker: SpeakerUser, Text: "hey"})
	assert.False(t, state.Delivered(msg), "only the last entry counts")
}
