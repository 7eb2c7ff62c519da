package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"adventure-server/internal/config"
	"adventure-server/internal/conversation"
	"adventure-server/internal/database"
	"adventure-server/internal/handler"
	"adventure-server/internal/hub"
	"adventure-server/internal/logger"
	"adventure-server/internal/messaging"
	"adventure-server/internal/middleware"
	"adventure-server/internal/prompts"
	"adventure-server/internal/repository"
	"adventure-server/internal/service"
	"adventure-server/internal/session"
	"adventure-server/internal/world"

	"github.com/cenkalti/backoff/v4"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	issueToken := flag.String("issue-token", "", "print a player token signed with JWT_SECRET and exit")
	tokenTTL := flag.Duration("token-ttl", 30*24*time.Hour, "lifetime of a token printed by -issue-token")
	flag.Parse()

	// .env необязателен
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	if *issueToken != "" {
		if cfg.JWTSecret == "" {
			log.Fatal("JWT_SECRET is not configured, tokens are not checked")
		}
		token, err := middleware.IssueToken(cfg.JWTSecret, *issueToken, *tokenTTL)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Println(token)
		return
	}

	appLogger, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		log.Fatalf("Ошибка инициализации логгера: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()
	zap.ReplaceGlobals(appLogger)

	appLogger.Info("Starting adventure server...")
	appLogger.Info("Configuration loaded", cfg.LogFields()...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	states, saves, cleanup, err := setupStorage(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to set up storage", zap.Error(err))
	}
	defer cleanup()

	backend := conversation.NewOpenAIBackend(conversation.OpenAIConfig{
		APIKey:  cfg.AIAPIKey,
		BaseURL: cfg.AIBaseURL,
		Model:   cfg.AIModel,
		Timeout: cfg.AITimeout,
	}, appLogger)

	snapshotHub := hub.New(cfg.CORSAllowedOrigins, appLogger)
	defer snapshotHub.Close()
	publishers := []service.SnapshotPublisher{snapshotHub}

	if cfg.RabbitMQURL != "" {
		conn, err := connectRabbitMQ(ctx, cfg.RabbitMQURL, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer conn.Close()
		publisher, err := messaging.NewRabbitMQSnapshotPublisher(conn, cfg.SnapshotQueue, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to create snapshot publisher", zap.Error(err))
		}
		defer publisher.Close()
		publishers = append(publishers, publisher)
	}

	worlds := world.NewLoader(cfg.GamesDir, appLogger)
	gameService := service.NewGameService(
		backend,
		worlds,
		states,
		saves,
		prompts.MustNewRenderer(),
		publishers,
		service.Options{
			Poll:           session.PollPolicy{Interval: cfg.PollInterval, MaxAttempts: cfg.PollMaxAttempts},
			SnapshotBuffer: cfg.SnapshotBuffer,
		},
		appLogger,
	)
	defer gameService.Close()

	gameHandler := handler.NewGameHandler(gameService, worlds, appLogger)
	router := handler.NewRouter(gameHandler, handler.RouterConfig{
		Env:            cfg.Env,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		JWTSecret:      cfg.JWTSecret,
		Metrics:        true,
		WebSocket:      snapshotHub.ServeWS,
	}, appLogger)

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// ход может ждать ответа модели несколько минут
		WriteTimeout: cfg.PollInterval*time.Duration(cfg.PollMaxAttempts) + cfg.AITimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exiting")
}

// setupStorage выбирает хранилища Game State и сохранений персонажей.
func setupStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.GameStateRepository, repository.CharacterSaveRepository, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var states repository.GameStateRepository
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		pool, err := database.Connect(ctx, database.PoolConfig{
			DSN:         cfg.GetDSN(),
			MaxConns:    int32(cfg.DBMaxConns),
			IdleTimeout: cfg.DBIdleTimeout,
		}, logger)
		if err != nil {
			return nil, nil, cleanup, err
		}
		closers = append(closers, pool.Close)
		states = repository.NewPostgresGameStateRepository(pool, logger)
	default:
		states = repository.NewFileGameStateRepository(cfg.SavesDir, logger)
	}

	var saves repository.CharacterSaveRepository
	switch cfg.CharacterStore {
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			cleanup()
			return nil, nil, func() {}, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
		}
		closers = append(closers, func() { _ = client.Close() })
		saves = repository.NewRedisCharacterSaveRepository(client, logger)
	default:
		saves = repository.NewFileCharacterSaveRepository(cfg.SavesDir, logger)
	}

	logger.Info("Storage ready",
		zap.String("game_states", cfg.StorageDriver),
		zap.String("character_saves", cfg.CharacterStore))
	return states, saves, cleanup, nil
}

func connectRabbitMQ(ctx context.Context, url string, logger *zap.Logger) (*amqp.Connection, error) {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(5*time.Second), 4), ctx)
	return backoff.RetryNotifyWithData(func() (*amqp.Connection, error) {
		return amqp.Dial(url)
	}, policy, func(err error, next time.Duration) {
		logger.Warn("Не удалось подключиться к RabbitMQ", zap.Duration("retry_delay", next), zap.Error(err))
	})
}
