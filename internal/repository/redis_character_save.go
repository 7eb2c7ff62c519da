package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"adventure-server/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCharacterSaveRepository хранит сохранения под ключом character_save:<game_id>:<character_id>.
type RedisCharacterSaveRepository struct {
	client *redis.Client
	logger *zap.Logger
}

var _ CharacterSaveRepository = (*RedisCharacterSaveRepository)(nil)

func NewRedisCharacterSaveRepository(client *redis.Client, logger *zap.Logger) *RedisCharacterSaveRepository {
	return &RedisCharacterSaveRepository{client: client, logger: logger.Named("RedisCharacterSaveRepo")}
}

func characterSaveKey(gameID, characterID string) string {
	return fmt.Sprintf("character_save:%s:%s", gameID, characterID)
}

func (r *RedisCharacterSaveRepository) Get(ctx context.Context, gameID, characterID string) (*models.CharacterSave, error) {
	raw, err := r.client.Get(ctx, characterSaveKey(gameID, characterID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return emptySave(), nil
	}
	if err != nil {
		r.logger.Error("Failed to get character save from redis",
			zap.String("game_id", gameID), zap.String("character_id", characterID), zap.Error(err))
		return nil, fmt.Errorf("failed to get character save: %w", err)
	}
	save := emptySave()
	if err := json.Unmarshal(raw, save); err != nil {
		return nil, fmt.Errorf("failed to decode character save: %w", err)
	}
	return save, nil
}

func (r *RedisCharacterSaveRepository) Save(ctx context.Context, gameID, characterID string, save *models.CharacterSave) error {
	raw, err := json.Marshal(save)
	if err != nil {
		return fmt.Errorf("failed to encode character save: %w", err)
	}
	if err := r.client.Set(ctx, characterSaveKey(gameID, characterID), raw, 0).Err(); err != nil {
		r.logger.Error("Failed to store character save in redis",
			zap.String("game_id", gameID), zap.String("character_id", characterID), zap.Error(err))
		return fmt.Errorf("failed to store character save: %w", err)
	}
	r.logger.Debug("Character save stored", zap.String("game_id", gameID), zap.String("character_id", characterID))
	return nil
}
