//go:build integration

package repository_test

import (
	"context"
	"testing"
	"time"

	"adventure-server/internal/database"
	"adventure-server/internal/models"
	"adventure-server/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

type RepositoryIntegrationSuite struct {
	suite.Suite
	ctx         context.Context
	logger      *zap.Logger
	pgContainer *postgres.PostgresContainer
	rdContainer *tcredis.RedisContainer
	pool        *pgxpool.Pool
	redisClient *redis.Client
}

func (s *RepositoryIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = zap.NewNop()
	var err error

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("adventure_test"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start postgres container")

	dsn, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)
	s.pool, err = database.Connect(s.ctx, database.PoolConfig{DSN: dsn, MaxConns: 4}, s.logger)
	require.NoError(s.T(), err, "Failed to connect and migrate")

	s.rdContainer, err = tcredis.Run(s.ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").
				WithOccurrence(1).
				WithStartupTimeout(1*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start redis container")
	addr, err := s.rdContainer.Endpoint(s.ctx, "")
	require.NoError(s.T(), err)
	s.redisClient = redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(s.T(), s.redisClient.Ping(s.ctx).Err())
}

func (s *RepositoryIntegrationSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.redisClient != nil {
		s.redisClient.Close()
	}
	if s.pgContainer != nil {
		_ = s.pgContainer.Terminate(s.ctx)
	}
	if s.rdContainer != nil {
		_ = s.rdContainer.Terminate(s.ctx)
	}
}

func (s *RepositoryIntegrationSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, "TRUNCATE game_states")
	s.Require().NoError(err)
	s.Require().NoError(s.redisClient.FlushDB(s.ctx).Err())
}

func (s *RepositoryIntegrationSuite) TestPostgresGameState_Upsert() {
	repo := repository.NewPostgresGameStateRepository(s.pool, s.logger)

	_, err := repo.Get(s.ctx, "harbor")
	s.ErrorIs(err, models.ErrNotFound)

	scene := "dock"
	gs := &models.GameState{GameID: "harbor", CurrentSceneID: &scene, Inventory: []string{"rope"}}
	s.Require().NoError(repo.Save(s.ctx, gs))

	gs.Inventory = append(gs.Inventory, "key")
	gs.CharacterInteraction = &models.CharacterInteraction{CharacterID: "bob", Log: []string{"Player: hi"}}
	s.Require().NoError(repo.Save(s.ctx, gs))

	loaded, err := repo.Get(s.ctx, "harbor")
	s.Require().NoError(err)
	s.Equal([]string{"rope", "key"}, loaded.Inventory)
	s.Equal("bob", loaded.CharacterInteraction.CharacterID)

	var count int
	s.Require().NoError(s.pool.QueryRow(s.ctx, "SELECT COUNT(*) FROM game_states").Scan(&count))
	s.Equal(1, count)
}

func (s *RepositoryIntegrationSuite) TestRedisCharacterSave() {
	repo := repository.NewRedisCharacterSaveRepository(s.redisClient, s.logger)

	save, err := repo.Get(s.ctx, "harbor", "bob")
	s.Require().NoError(err)
	s.Empty(save.PreviousConversations)

	s.Require().NoError(repo.Save(s.ctx, "harbor", "bob", &models.CharacterSave{
		PreviousConversations: []string{"Met on the dock."},
		Inventory:             []string{"key"},
	}))
	save, err = repo.Get(s.ctx, "harbor", "bob")
	s.Require().NoError(err)
	s.Equal([]string{"Met on the dock."}, save.PreviousConversations)

	s.Equal(int64(1), s.redisClient.Exists(s.ctx, "character_save:harbor:bob").Val())
}

func TestRepositoryIntegration(t *testing.T) {
	suite.Run(t, new(RepositoryIntegrationSuite))
}
