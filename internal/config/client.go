package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// ClientConfig - настройки терминального клиента.
type ClientConfig struct {
	ServerURL    string        `yaml:"server_url" env:"ADVENTURE_SERVER_URL" env-default:"http://localhost:8090"`
	GameID       string        `yaml:"game_id" env:"ADVENTURE_GAME_ID"`
	Token        string        `yaml:"token" env:"ADVENTURE_TOKEN"`
	Timeout      time.Duration `yaml:"timeout" env:"ADVENTURE_TIMEOUT" env-default:"15m"`
	LogLevel     string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"warn"`
	LogFile      string        `yaml:"log_file" env:"ADVENTURE_LOG_FILE" env-default:"adventure.log"`
	UseWebsocket bool          `yaml:"use_websocket" env:"ADVENTURE_USE_WEBSOCKET" env-default:"true"`
}

// LoadClientConfig читает необязательный YAML файл и переопределяет его
// значения переменными окружения.
func LoadClientConfig(path string) (*ClientConfig, error) {
	var cfg ClientConfig
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return nil, fmt.Errorf("read client config %s: %w", path, err)
			}
			return &cfg, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat client config %s: %w", path, err)
		}
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read client env: %w", err)
	}
	return &cfg, nil
}
