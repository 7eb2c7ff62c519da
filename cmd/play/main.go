package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"adventure-server/internal/client"
	"adventure-server/internal/config"
	"adventure-server/internal/logger"
	"adventure-server/internal/models"
	"adventure-server/internal/tui"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "play.yaml", "client config file")
	gameID := flag.String("game", "", "game to start, overrides the config")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadClientConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *gameID != "" {
		cfg.GameID = *gameID
	}
	if cfg.GameID == "" {
		fmt.Println("No game selected: pass -game or set ADVENTURE_GAME_ID")
		os.Exit(1)
	}

	// терминал занят интерфейсом, поэтому лог пишется в файл
	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: "console", OutputPath: cfg.LogFile})
	if err != nil {
		fmt.Printf("Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	api := client.New(cfg.ServerURL, cfg.Token, cfg.Timeout, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var snapshots <-chan models.GameState
	if cfg.UseWebsocket {
		snapshots, err = api.Subscribe(ctx)
		if err != nil {
			log.Warn("Snapshot stream unavailable, continuing without live updates", zap.Error(err))
		}
	}

	if err := tui.Run(api, cfg.GameID, cfg.Timeout, snapshots); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
