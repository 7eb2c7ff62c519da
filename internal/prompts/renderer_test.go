package prompts

import (
	"testing"

	"adventure-server/internal/models"
	"adventure-server/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ session.Prompts = (*Renderer)(nil)

func testWorld() *models.World {
	return &models.World{
		ID:            "harbor",
		Title:         "The Harbor Light",
		NarratorHint:  "Keep it quiet.",
		StartingScene: "dock",
		Scenes: []models.Scene{
			{ID: "dock", Name: "The Dock", Narrative: "Wet planks.", Characters: []string{"bob"}, Items: []string{"rope", "lantern"}},
		},
		Characters: []models.Character{
			{ID: "bob", Name: "Bob", Description: "An old fisherman.", Personality: "Gruff.", Inventory: []string{"tower key"}},
		},
	}
}

func TestRenderer_Narrator(t *testing.T) {
	r := MustNewRenderer()
	out, err := r.NarratorInstructions(testWorld())
	require.NoError(t, err)

	assert.Contains(t, out, `"The Harbor Light"`)
	assert.Contains(t, out, "Keep it quiet.")
	assert.Contains(t, out, "- The Dock: Wet planks. Items here: rope, lantern. People here: Bob.")
	assert.Contains(t, out, `Bob (id "bob")`)
	for _, fn := range []string{"new_scene", "add_item", "remove_item", "character_interact", "end_game"} {
		assert.Contains(t, out, fn)
	}

	cue, err := r.OpeningCue(testWorld())
	require.NoError(t, err)
	assert.Contains(t, cue, `"The Dock"`)
}

func TestRenderer_Character(t *testing.T) {
	r := MustNewRenderer()
	w := testWorld()
	bob := w.CharacterByID("bob")

	out, err := r.CharacterInstructions(w, bob, &models.CharacterSave{PreviousConversations: []string{"Sold the player a net."}}, []string{"tower key", "pipe"})
	require.NoError(t, err)
	assert.Contains(t, out, "You are Bob")
	assert.Contains(t, out, "Personality: Gruff.")
	assert.Contains(t, out, "You carry: tower key, pipe.")
	assert.Contains(t, out, "- Sold the player a net.")
	assert.Contains(t, out, "$summarize")

	out, err = r.CharacterInstructions(w, bob, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "You carry nothing.")
	assert.NotContains(t, out, "met the player before")
}

func TestRenderer_SummaryRequest(t *testing.T) {
	assert.Contains(t, MustNewRenderer().SummaryRequest("Mara"), "As Mara,")
}
