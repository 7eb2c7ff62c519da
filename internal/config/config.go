package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
	StoreRedis      = "redis"
)

// Config содержит конфигурацию игрового сервера
type Config struct {
	// Настройки сервера
	Port        string `envconfig:"GAME_SERVER_PORT" default:"8090"`
	Env         string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`

	// Настройки AI API
	AIBaseURL string        `envconfig:"AI_BASE_URL" default:"https://api.openai.com/v1"`
	AIModel   string        `envconfig:"AI_MODEL" default:"gpt-4o-mini"`
	AITimeout time.Duration `envconfig:"AI_TIMEOUT" default:"60s"`
	// Секретное поле БЕЗ envconfig тега
	AIAPIKey string `ignored:"true"`

	// Опрос run
	PollInterval    time.Duration `envconfig:"POLL_INTERVAL" default:"250ms"`
	PollMaxAttempts int           `envconfig:"POLL_MAX_ATTEMPTS" default:"2400"`
	SnapshotBuffer  int           `envconfig:"SNAPSHOT_BUFFER" default:"32"`

	// Игры и сохранения
	GamesDir       string `envconfig:"GAMES_DIR" default:"./games"`
	SavesDir       string `envconfig:"SAVES_DIR" default:"./saves"`
	StorageDriver  string `envconfig:"STORAGE_DRIVER" default:"file"`
	CharacterStore string `envconfig:"CHARACTER_STORE" default:"file"`

	// Настройки PostgreSQL (только для STORAGE_DRIVER=postgres)
	DBHost        string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" default:"postgres"`
	DBName        string        `envconfig:"DB_NAME" default:"adventure"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	DBPassword    string        `ignored:"true"`

	// Настройки Redis (только для CHARACTER_STORE=redis)
	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`

	// Настройки RabbitMQ, публикация снимков отключена при пустом URL
	RabbitMQURL   string `envconfig:"RABBITMQ_URL"`
	SnapshotQueue string `envconfig:"SNAPSHOT_QUEUE" default:"game_snapshots"`

	// Пустой секрет отключает проверку токена
	JWTSecret          string   `ignored:"true"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// GetDSN возвращает строку подключения (DSN) для PostgreSQL
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// LoadConfig загружает конфигурацию из переменных окружения и секретов
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации game server: %w", err)
	}

	var err error
	if cfg.AIAPIKey, err = ReadSecret("ai_api_key"); err != nil {
		return nil, err
	}
	if cfg.StorageDriver == StoragePostgres {
		if cfg.DBPassword, err = ReadSecret("db_password"); err != nil {
			return nil, err
		}
	}
	cfg.JWTSecret = ReadOptionalSecret("jwt_secret")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет значения, которые envconfig не может проверить сам.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageFile, StoragePostgres:
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	switch c.CharacterStore {
	case StorageFile, StoreRedis:
	default:
		return fmt.Errorf("unsupported CHARACTER_STORE %q", c.CharacterStore)
	}
	if c.PollInterval <= 0 || c.PollMaxAttempts <= 0 {
		return fmt.Errorf("POLL_INTERVAL and POLL_MAX_ATTEMPTS must be positive")
	}
	if c.SnapshotBuffer < 0 {
		return fmt.Errorf("SNAPSHOT_BUFFER must not be negative")
	}
	return nil
}

// LogFields возвращает поля для журнала запуска, без секретов.
func (c *Config) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("port", c.Port),
		zap.String("env", c.Env),
		zap.String("ai_base_url", c.AIBaseURL),
		zap.String("ai_model", c.AIModel),
		zap.Duration("poll_interval", c.PollInterval),
		zap.Int("poll_max_attempts", c.PollMaxAttempts),
		zap.String("games_dir", c.GamesDir),
		zap.String("storage_driver", c.StorageDriver),
		zap.String("character_store", c.CharacterStore),
		zap.Bool("rabbitmq_enabled", c.RabbitMQURL != ""),
		zap.Bool("auth_enabled", c.JWTSecret != ""),
		zap.String("cors_allowed_origins", strings.Join(c.CORSAllowedOrigins, ",")),
	}
}
