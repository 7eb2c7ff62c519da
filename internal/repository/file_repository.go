package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"adventure-server/internal/models"

	"go.uber.org/zap"
)

// FileGameStateRepository хранит состояние в <dir>/<game_id>/state.json.
type FileGameStateRepository struct {
	dir    string
	logger *zap.Logger
}

var _ GameStateRepository = (*FileGameStateRepository)(nil)

func NewFileGameStateRepository(dir string, logger *zap.Logger) *FileGameStateRepository {
	return &FileGameStateRepository{dir: dir, logger: logger.Named("FileGameStateRepo")}
}

func (r *FileGameStateRepository) Save(ctx context.Context, gs *models.GameState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := safeJoin(r.dir, gs.GameID, "state.json")
	if err != nil {
		return err
	}
	gs.UpdatedAt = time.Now().UTC()
	if err := writeJSONAtomic(path, gs); err != nil {
		r.logger.Error("Failed to save game state", zap.String("game_id", gs.GameID), zap.Error(err))
		return err
	}
	r.logger.Debug("Game state saved", zap.String("game_id", gs.GameID), zap.String("path", path))
	return nil
}

func (r *FileGameStateRepository) Get(ctx context.Context, gameID string) (*models.GameState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := safeJoin(r.dir, gameID, "state.json")
	if err != nil {
		return nil, err
	}
	var gs models.GameState
	if err := readJSON(path, &gs); err != nil {
		return nil, err
	}
	return &gs, nil
}

// FileCharacterSaveRepository хранит сохранения в <dir>/<game_id>/characters/<character_id>.json.
type FileCharacterSaveRepository struct {
	dir    string
	logger *zap.Logger
}

var _ CharacterSaveRepository = (*FileCharacterSaveRepository)(nil)

func NewFileCharacterSaveRepository(dir string, logger *zap.Logger) *FileCharacterSaveRepository {
	return &FileCharacterSaveRepository{dir: dir, logger: logger.Named("FileCharacterSaveRepo")}
}

func (r *FileCharacterSaveRepository) Get(ctx context.Context, gameID, characterID string) (*models.CharacterSave, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := safeJoin(r.dir, gameID, "characters", characterID+".json")
	if err != nil {
		return nil, err
	}
	save := emptySave()
	if err := readJSON(path, save); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return emptySave(), nil
		}
		return nil, err
	}
	return save, nil
}

func (r *FileCharacterSaveRepository) Save(ctx context.Context, gameID, characterID string, save *models.CharacterSave) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := safeJoin(r.dir, gameID, "characters", characterID+".json")
	if err != nil {
		return err
	}
	if err := writeJSONAtomic(path, save); err != nil {
		r.logger.Error("Failed to save character", zap.String("game_id", gameID), zap.String("character_id", characterID), zap.Error(err))
		return err
	}
	return nil
}

// safeJoin собирает путь внутри dir, отклоняя идентификаторы с разделителями пути.
func safeJoin(dir string, parts ...string) (string, error) {
	for _, p := range parts {
		if p == "" || p == "." || p == ".." || strings.ContainsAny(p, `/\`) || strings.HasPrefix(p, "..") {
			return "", fmt.Errorf("%w: invalid path element %q", models.ErrInvalidInput, p)
		}
	}
	return filepath.Join(append([]string{dir}, parts...)...), nil
}

func readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// writeJSONAtomic пишет во временный файл рядом и переименовывает его.
func writeJSONAtomic(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp.Name(), err)
	}
	return nil
}
