package repository

import (
	"context"

	"adventure-server/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// GameStateRepository хранит состояние прохождения, по одному на игру.
type GameStateRepository interface {
	Save(ctx context.Context, gs *models.GameState) error
	// Get возвращает models.ErrNotFound, если сохранения нет.
	Get(ctx context.Context, gameID string) (*models.GameState, error)
}

// CharacterSaveRepository хранит память и инвентарь персонажей между разговорами.
type CharacterSaveRepository interface {
	// Get возвращает пустое сохранение, если персонаж еще не встречался.
	Get(ctx context.Context, gameID, characterID string) (*models.CharacterSave, error)
	Save(ctx context.Context, gameID, characterID string, save *models.CharacterSave) error
}

// DBTX - общий интерфейс пула и транзакции pgx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func emptySave() *models.CharacterSave {
	return &models.CharacterSave{PreviousConversations: []string{}, Inventory: []string{}}
}
