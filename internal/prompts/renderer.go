// Package prompts renders the instructions sent to narrator and character assistants.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"adventure-server/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Renderer renders the embedded prompt templates.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("prompts").
		Funcs(template.FuncMap{
			"join":           strings.Join,
			"characterNames": func(w *models.World, s models.Scene) []string { return w.CharacterNames(&s) },
		}).
		ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse prompt templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// MustNewRenderer panics when the embedded templates do not parse.
func MustNewRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Renderer) NarratorInstructions(world *models.World) (string, error) {
	return r.render("narrator.tmpl", struct{ World *models.World }{world})
}

// OpeningCue is the first message posted to a fresh narrator thread.
func (r *Renderer) OpeningCue(world *models.World) (string, error) {
	scene := world.SceneByID(world.StartingScene)
	if scene == nil {
		return "", fmt.Errorf("%w: %s", models.ErrSceneNotFound, world.StartingScene)
	}
	return r.render("opening.tmpl", struct{ Scene *models.Scene }{scene})
}

func (r *Renderer) CharacterInstructions(world *models.World, character *models.Character, save *models.CharacterSave, inventory []string) (string, error) {
	if save == nil {
		save = &models.CharacterSave{}
	}
	return r.render("character.tmpl", struct {
		World     *models.World
		Character *models.Character
		Save      *models.CharacterSave
		Inventory []string
	}{world, character, save, inventory})
}

func (r *Renderer) SummaryRequest(characterName string) string {
	out, err := r.render("summary.tmpl", struct{ Name string }{characterName})
	if err != nil {
		return fmt.Sprintf("The conversation is over. As %s, summarize it in two or three sentences.", characterName)
	}
	return out
}

func (r *Renderer) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
