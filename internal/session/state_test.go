package session

import (
	"encoding/json"
	"testing"

	"adventure-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStates_ShouldContinue(t *testing.T) {
	waitingStates := map[string]bool{
		"Idle":                        true,
		"CharacterIdle":               true,
		"AwaitingPlayerTradeResponse": true,
		"AwaitingPlayerGiftResponse":  true,
	}
	seen := map[string]bool{}
	for _, s := range States() {
		require.False(t, seen[s.Name()], "duplicate state %s", s.Name())
		seen[s.Name()] = true
		assert.Equal(t, !waitingStates[s.Name()], s.ShouldContinue(), s.Name())
	}
	for name := range waitingStates {
		assert.True(t, seen[name], "missing state %s", name)
	}
}

func TestResumeState(t *testing.T) {
	gs := &models.GameState{}
	assert.Equal(t, Idle{}, ResumeState(gs))

	gs.CharacterInteraction = &models.CharacterInteraction{CharacterID: "bob"}
	assert.Equal(t, CharacterIdle{}, ResumeState(gs))

	gs.CharacterInteraction.Offer = &models.Offer{Kind: models.OfferTrade}
	assert.Equal(t, AwaitingPlayerTradeResponse{}, ResumeState(gs))

	gs.CharacterInteraction.Offer = &models.Offer{Kind: models.OfferGift}
	assert.Equal(t, AwaitingPlayerGiftResponse{}, ResumeState(gs))
}

func TestFallbackState(t *testing.T) {
	assert.Equal(t, Idle{}, FallbackState(&models.GameState{}))
	assert.Equal(t, CharacterIdle{}, FallbackState(&models.GameState{CharacterInteraction: &models.CharacterInteraction{}}))
}

func TestToolTables_Specs(t *testing.T) {
	names := func(tt ToolTable) []string {
		var out []string
		for _, s := range tt.Specs() {
			out = append(out, s.Name)
		}
		return out
	}
	assert.Equal(t, []string{"add_item", "character_interact", "end_game", "new_scene", "remove_item"}, names(NarratorTools))
	assert.Equal(t, []string{"give_item", "trade_items"}, names(CharacterTools))

	raw, err := json.Marshal(CharacterTools["trade_items"].Spec.Parameters)
	require.NoError(t, err)
	var schema struct {
		Schema     string                     `json:"$schema"`
		Type       string                     `json:"type"`
		Properties map[string]json.RawMessage `json:"properties"`
		Required   []string                   `json:"required"`
	}
	require.NoError(t, json.Unmarshal(raw, &schema))
	assert.Empty(t, schema.Schema)
	assert.Equal(t, "object", schema.Type)
	assert.Contains(t, schema.Properties, "to_player")
	assert.ElementsMatch(t, []string{"to_player", "from_player"}, schema.Required)
}

func TestToolTable_Dispatch(t *testing.T) {
	call := models.Continuation{Scope: models.ScopeNarrator, ThreadID: "t", RunID: "r", ToolCallID: "c"}

	s, err := NarratorTools.dispatch(call, fnCall("c", "new_scene", `{"scene_name":" Tower "}`))
	require.NoError(t, err)
	assert.Equal(t, ProcessNewScene{toolCall: toolCall{Call: call}, SceneName: "Tower"}, s)

	_, err = NarratorTools.dispatch(call, fnCall("c", "give_item", `{"item":"key"}`))
	assert.ErrorIs(t, err, ErrUnknownFunction)

	_, err = NarratorTools.dispatch(call, fnCall("c", "add_item", `{"item":`))
	assert.ErrorIs(t, err, ErrInvalidArguments)

	_, err = NarratorTools.dispatch(call, fnCall("c", "add_item", `{}`))
	assert.ErrorIs(t, err, ErrInvalidArguments)
}
