package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"adventure-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	upsertGameStateQuery = `
		INSERT INTO game_states (game_id, state, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (game_id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`
	getGameStateQuery = `SELECT game_id, state, updated_at FROM game_states WHERE game_id = $1`
)

type gameStateRow struct {
	GameID    string          `db:"game_id"`
	State     json.RawMessage `db:"state"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// PostgresGameStateRepository хранит состояние в таблице game_states (JSONB).
type PostgresGameStateRepository struct {
	db     DBTX
	logger *zap.Logger
}

var _ GameStateRepository = (*PostgresGameStateRepository)(nil)

func NewPostgresGameStateRepository(db DBTX, logger *zap.Logger) *PostgresGameStateRepository {
	return &PostgresGameStateRepository{db: db, logger: logger.Named("PgGameStateRepo")}
}

func (r *PostgresGameStateRepository) Save(ctx context.Context, gs *models.GameState) error {
	gs.UpdatedAt = time.Now().UTC()
	state, err := json.Marshal(gs)
	if err != nil {
		return fmt.Errorf("failed to marshal game state %s: %w", gs.GameID, err)
	}
	if _, err := r.db.Exec(ctx, upsertGameStateQuery, gs.GameID, state, gs.UpdatedAt); err != nil {
		r.logger.Error("Failed to upsert game state", zap.String("game_id", gs.GameID), zap.Error(err))
		return fmt.Errorf("failed to save game state %s: %w", gs.GameID, err)
	}
	return nil
}

func (r *PostgresGameStateRepository) Get(ctx context.Context, gameID string) (*models.GameState, error) {
	var row gameStateRow
	if err := pgxscan.Get(ctx, r.db, &row, getGameStateQuery, gameID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get game state", zap.String("game_id", gameID), zap.Error(err))
		return nil, fmt.Errorf("failed to get game state %s: %w", gameID, err)
	}
	var gs models.GameState
	if err := json.Unmarshal(row.State, &gs); err != nil {
		return nil, fmt.Errorf("failed to decode game state %s: %w", gameID, err)
	}
	gs.UpdatedAt = row.UpdatedAt
	return &gs, nil
}
