// Package world loads generated game worlds from disk.
package world

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"adventure-server/internal/models"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var worldFiles = []string{"game.yaml", "game.yml", "game.json"}

// Loader reads worlds from <dir>/<game_id>/game.yaml (or game.json).
type Loader struct {
	dir    string
	logger *zap.Logger
}

func NewLoader(dir string, logger *zap.Logger) *Loader {
	return &Loader{dir: dir, logger: logger.Named("WorldLoader")}
}

// Load reads and validates the world of gameID.
func (l *Loader) Load(ctx context.Context, gameID string) (*models.World, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validGameID(gameID) {
		return nil, fmt.Errorf("%w: invalid game id %q", models.ErrInvalidInput, gameID)
	}

	for _, name := range worldFiles {
		path := filepath.Join(l.dir, gameID, name)
		raw, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read world %s: %w", path, err)
		}

		var w models.World
		if filepath.Ext(name) == ".json" {
			err = json.Unmarshal(raw, &w)
		} else {
			err = yaml.Unmarshal(raw, &w)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: parse %s: %w", models.ErrInvalidWorld, path, err)
		}
		if w.ID == "" {
			w.ID = gameID
		}
		if err := w.Validate(); err != nil {
			return nil, err
		}
		l.logger.Info("World loaded",
			zap.String("game_id", gameID),
			zap.String("file", name),
			zap.Int("scenes", len(w.Scenes)),
			zap.Int("characters", len(w.Characters)))
		return &w, nil
	}
	return nil, fmt.Errorf("%w: %s", models.ErrGameNotFound, gameID)
}

// List returns the IDs of all games that have a world file, sorted.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list games in %s: %w", l.dir, err)
	}
	ids := []string{}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.IsDir() {
			continue
		}
		for _, name := range worldFiles {
			if _, err := os.Stat(filepath.Join(l.dir, e.Name(), name)); err == nil {
				ids = append(ids, e.Name())
				break
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func validGameID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}
