package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWorld() *World {
	return &World{
		ID:            "lighthouse",
		Intro:         "Fog rolls over the harbor.",
		StartingScene: "dock",
		Scenes: []Scene{
			{ID: "dock", Name: "The Dock", Characters: []string{"bob"}, Items: []string{"rope", "lantern"}},
			{ID: "tower", Name: "Lighthouse Tower"},
		},
		Characters: []Character{{ID: "bob", Name: "Bob", Inventory: []string{"key"}}},
	}
}

func TestNewGameState(t *testing.T) {
	w := testWorld()
	gs := NewGameState(w, "asst_1", "thread_1")

	require.NotNil(t, gs.CurrentSceneID)
	assert.Equal(t, "dock", *gs.CurrentSceneID)
	assert.Equal(t, []string{"rope", "lantern"}, gs.SceneItems["dock"])
	assert.Equal(t, []string{"key"}, gs.CharacterInventories["bob"])
	assert.Equal(t, []TranscriptEntry{{Role: RoleNarrator, Text: "Fog rolls over the harbor."}}, gs.Transcript)
	assert.Nil(t, gs.CharacterInteraction)
	assert.False(t, gs.IsOver())

	// world data must not be aliased
	gs.SceneItems["dock"][0] = "changed"
	assert.Equal(t, "rope", w.Scenes[0].Items[0])
}

func TestGameState_CloneIsDeep(t *testing.T) {
	gs := NewGameState(testWorld(), "a", "t")
	gs.Inventory = []string{"coin"}
	gs.CharacterInteraction = &CharacterInteraction{
		CharacterID: "bob",
		Log:         []string{"Bob: hi"},
		Offer:       &Offer{Kind: OfferGift, ToPlayer: "key"},
	}

	c := gs.Clone()
	gs.Inventory[0] = "stone"
	gs.CharacterInteraction.Log[0] = "changed"
	gs.CharacterInteraction.Offer.ToPlayer = "changed"
	gs.CharacterInventories["bob"][0] = "changed"
	*gs.CurrentSceneID = "tower"

	assert.Equal(t, []string{"coin"}, c.Inventory)
	assert.Equal(t, "Bob: hi", c.CharacterInteraction.Log[0])
	assert.Equal(t, "key", c.CharacterInteraction.Offer.ToPlayer)
	assert.Equal(t, "key", c.CharacterInventories["bob"][0])
	assert.Equal(t, "dock", *c.CurrentSceneID)
}

func TestGameState_JSONKeepsNullInteraction(t *testing.T) {
	gs := NewGameState(testWorld(), "a", "t")
	raw, err := json.Marshal(gs)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"character_interaction":null`)
}

func TestRemoveItem(t *testing.T) {
	items := []string{"rope", "Coin", "coin"}

	out, ok := RemoveItem(items, " coin ")
	assert.True(t, ok)
	assert.Equal(t, []string{"rope", "coin"}, out)
	assert.Equal(t, []string{"rope", "Coin", "coin"}, items, "input must not be modified")

	out, ok = RemoveItem(items, "sword")
	assert.False(t, ok)
	assert.Equal(t, items, out)
}

func TestTakeItem_ReturnsStoredSpelling(t *testing.T) {
	rest, taken, ok := TakeItem([]string{"Brass Key", "rope"}, "brass key")
	assert.True(t, ok)
	assert.Equal(t, "Brass Key", taken)
	assert.Equal(t, []string{"rope"}, rest)

	_, taken, ok = TakeItem(nil, "rope")
	assert.False(t, ok)
	assert.Empty(t, taken)
}

func TestWorld_Lookups(t *testing.T) {
	w := testWorld()
	require.NoError(t, w.Validate())

	assert.Equal(t, "tower", w.SceneByName("  lighthouse tower ").ID)
	assert.Equal(t, "tower", w.SceneByName("tower").ID)
	assert.Nil(t, w.SceneByName("cellar"))
	assert.Equal(t, "bob", w.FindCharacter("BOB").ID)
	assert.Equal(t, []string{"Bob"}, w.CharacterNames(w.SceneByID("dock")))

	w.StartingScene = "nowhere"
	assert.ErrorIs(t, w.Validate(), ErrInvalidWorld)
}
