package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"ledgerbot"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"ledgerbot"`
	}

	Redis struct {
		// Empty keeps sessions in process memory.
		URL string `envconfig:"REDIS_URL"`
	}

	Telegram struct {
		Token       string        `envconfig:"TELEGRAM_TOKEN"`
		BaseURL     string        `envconfig:"TELEGRAM_API_URL" default:"https://api.telegram.org"`
		PollTimeout time.Duration `envconfig:"TELEGRAM_POLL_TIMEOUT" default:"30s"`
	}

	Bot struct {
		Language     string   `envconfig:"BOT_LANGUAGE" default:"es"`
		Admins       []string `envconfig:"BOT_ADMINS"`
		OperatorChat string   `envconfig:"BOT_OPERATOR_CHAT"`
	}

	Session struct {
		Timeout time.Duration `envconfig:"SESSION_TIMEOUT" default:"5m"`
		// MaxRejections is how many invalid answers in a row end a flow.
		MaxRejections int `envconfig:"SESSION_MAX_REJECTIONS" default:"3"`
	}

	Ledger struct {
		Primary string   `envconfig:"LEDGER_PRIMARY" default:"main"`
		Agents  []string `envconfig:"LEDGER_AGENTS"`
	}

	Sync struct {
		Interval time.Duration `envconfig:"SYNC_INTERVAL" default:"1m"`
		Epsilon  float64       `envconfig:"SYNC_EPSILON" default:"0.05"`
	}

	Auth struct {
		Secret   string        `envconfig:"AUTH_SECRET"`
		TokenTTL time.Duration `envconfig:"AUTH_TOKEN_TTL" default:"720h"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	CORS struct {
		AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.Ledger.Primary == "" {
		return nil, fmt.Errorf("LEDGER_PRIMARY must not be empty")
	}

	for _, agent := range cfg.Ledger.Agents {
		if agent == cfg.Ledger.Primary {
			return nil, fmt.Errorf("agent ledger %q shadows the primary ledger", agent)
		}
	}

	return &cfg, nil
}
