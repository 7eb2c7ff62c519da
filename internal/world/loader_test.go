package world

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"adventure-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const harborYAML = `
title: Harbor
intro: Fog rolls over the harbor.
starting_scene: dock
scenes:
  - id: dock
    name: The Dock
    narrative: Waves slap the pier.
    characters: [bob]
    items: [rope]
  - id: tower
    name: Lighthouse Tower
    narrative: A spiral staircase.
characters:
  - id: bob
    name: Bob
    description: An old fisherman.
    inventory: [key]
`

func writeGame(t *testing.T, dir, id, file, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, id), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, id, file), []byte(content), 0o644))
}

func TestLoader_LoadYAML(t *testing.T) {
	dir := t.TempDir()
	writeGame(t, dir, "harbor", "game.yaml", harborYAML)

	w, err := NewLoader(dir, zap.NewNop()).Load(context.Background(), "harbor")
	require.NoError(t, err)

	assert.Equal(t, "harbor", w.ID)
	assert.Equal(t, "dock", w.StartingScene)
	require.Len(t, w.Scenes, 2)
	assert.Equal(t, []string{"rope"}, w.Scenes[0].Items)
	assert.Equal(t, "tower", w.SceneByName("  lighthouse TOWER ").ID)
	assert.Equal(t, []string{"key"}, w.CharacterByID("bob").Inventory)
}

func TestLoader_LoadJSON(t *testing.T) {
	dir := t.TempDir()
	writeGame(t, dir, "cave", "game.json", `{"id":"cave","starting_scene":"mouth","scenes":[{"id":"mouth","name":"Cave Mouth","narrative":"Dark."}]}`)

	w, err := NewLoader(dir, zap.NewNop()).Load(context.Background(), "cave")
	require.NoError(t, err)
	assert.Equal(t, "Cave Mouth", w.Scenes[0].Name)
}

func TestLoader_Errors(t *testing.T) {
	dir := t.TempDir()
	writeGame(t, dir, "broken", "game.yaml", "scenes: [")
	writeGame(t, dir, "orphan", "game.yaml", "starting_scene: nowhere\nscenes:\n  - id: dock\n    name: Dock\n")
	l := NewLoader(dir, zap.NewNop())

	_, err := l.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrGameNotFound)

	_, err = l.Load(context.Background(), "broken")
	assert.ErrorIs(t, err, models.ErrInvalidWorld)

	_, err = l.Load(context.Background(), "orphan")
	assert.ErrorIs(t, err, models.ErrInvalidWorld)

	_, err = l.Load(context.Background(), "../etc")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestLoader_List(t *testing.T) {
	dir := t.TempDir()
	writeGame(t, dir, "harbor", "game.yaml", harborYAML)
	writeGame(t, dir, "cave", "game.json", "{}")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0o755))

	ids, err := NewLoader(dir, zap.NewNop()).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"cave", "harbor"}, ids)

	ids, err = NewLoader(filepath.Join(dir, "nope"), zap.NewNop()).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
