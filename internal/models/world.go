package models

import (
	"fmt"
	"strings"
)

// World - сгенерированный мир игры, загружаемый перед началом сессии.
type World struct {
	ID            string      `yaml:"id" json:"id"`
	Title         string      `yaml:"title" json:"title"`
	Intro         string      `yaml:"intro" json:"intro"`
	NarratorHint  string      `yaml:"narrator_hint,omitempty" json:"narrator_hint,omitempty"`
	StartingScene string      `yaml:"starting_scene" json:"starting_scene"`
	Scenes        []Scene     `yaml:"scenes" json:"scenes"`
	Characters    []Character `yaml:"characters" json:"characters"`
}

// Scene описывает одну локацию мира.
type Scene struct {
	ID         string   `yaml:"id" json:"id"`
	Name       string   `yaml:"name" json:"name"`
	Narrative  string   `yaml:"narrative" json:"narrative"`
	Characters []string `yaml:"characters,omitempty" json:"characters,omitempty"` // ID персонажей
	Items      []string `yaml:"items,omitempty" json:"items,omitempty"`
}

// Character - профиль персонажа, с которым игрок может поговорить.
type Character struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Personality string   `yaml:"personality,omitempty" json:"personality,omitempty"`
	Inventory   []string `yaml:"inventory,omitempty" json:"inventory,omitempty"`
}

// Validate проверяет ссылочную целостность мира.
func (w *World) Validate() error {
	if len(w.Scenes) == 0 {
		return fmt.Errorf("%w: no scenes", ErrInvalidWorld)
	}
	if w.SceneByID(w.StartingScene) == nil {
		return fmt.Errorf("%w: starting scene '%s' does not exist", ErrInvalidWorld, w.StartingScene)
	}
	for _, s := range w.Scenes {
		for _, id := range s.Characters {
			if w.CharacterByID(id) == nil {
				return fmt.Errorf("%w: scene '%s' references unknown character '%s'", ErrInvalidWorld, s.ID, id)
			}
		}
	}
	return nil
}

func (w *World) SceneByID(id string) *Scene {
	for i := range w.Scenes {
		if w.Scenes[i].ID == id {
			return &w.Scenes[i]
		}
	}
	return nil
}

// SceneByName ищет сцену по имени без учета регистра и пробелов по краям.
// Модель иногда передает ID вместо имени, поэтому ID тоже принимается.
func (w *World) SceneByName(name string) *Scene {
	name = strings.TrimSpace(name)
	for i := range w.Scenes {
		if strings.EqualFold(w.Scenes[i].Name, name) {
			return &w.Scenes[i]
		}
	}
	return w.SceneByID(name)
}

func (w *World) CharacterByID(id string) *Character {
	for i := range w.Characters {
		if w.Characters[i].ID == id {
			return &w.Characters[i]
		}
	}
	return nil
}

// FindCharacter ищет персонажа по ID, затем по имени.
func (w *World) FindCharacter(ref string) *Character {
	ref = strings.TrimSpace(ref)
	if c := w.CharacterByID(ref); c != nil {
		return c
	}
	for i := range w.Characters {
		if strings.EqualFold(w.Characters[i].Name, ref) {
			return &w.Characters[i]
		}
	}
	return nil
}

// CharacterNames возвращает имена персонажей сцены.
func (w *World) CharacterNames(s *Scene) []string {
	names := make([]string, 0, len(s.Characters))
	for _, id := range s.Characters {
		if c := w.CharacterByID(id); c != nil {
			names = append(names, c.Name)
		}
	}
	return names
}
