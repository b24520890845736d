package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr    string     `env:"HTTP_ADDR" envDefault:":8000"`
	LogLevel    slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	DBPath      string     `env:"DB_PATH" envDefault:"data/bingo.db"`
	Ledger      bool       `env:"LEDGER_ENABLED" envDefault:"true"`
	AdminSecret string     `env:"ADMIN_SECRET,required,notEmpty"`
	StaticDir   string     `env:"STATIC_DIR" envDefault:"public"`

	FirstDrawDelay time.Duration `env:"FIRST_DRAW_DELAY" envDefault:"1s"`
	DrawInterval   time.Duration `env:"DRAW_INTERVAL" envDefault:"7s"`
	DefaultStake   int64         `env:"DEFAULT_STAKE" envDefault:"25"`
	SendBuffer     int           `env:"SEND_BUFFER" envDefault:"32"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.DrawInterval <= 0 || cfg.FirstDrawDelay < 0 {
		return nil, fmt.Errorf("draw timing must be positive: first=%s interval=%s", cfg.FirstDrawDelay, cfg.DrawInterval)
	}
	if cfg.DefaultStake < 0 {
		return nil, fmt.Errorf("DEFAULT_STAKE must not be negative: %d", cfg.DefaultStake)
	}
	if cfg.SendBuffer < 1 {
		return nil, fmt.Errorf("SEND_BUFFER must be at least 1: %d", cfg.SendBuffer)
	}
	return &cfg, nil
}
