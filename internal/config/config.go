package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	DatabaseURL string `env:"DATABASE_URL,required"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP API
	Port int `env:"PORT" envDefault:"8080"`

	// Telegram bot (cmd/bot only)
	BotToken string `env:"BOT_TOKEN"`

	// Workflow execution
	WorkflowBaseURL string        `env:"WORKFLOW_BASE_URL"`
	WorkflowDocPath string        `env:"WORKFLOW_DOC"`
	WorkflowTimeout time.Duration `env:"WORKFLOW_TIMEOUT" envDefault:"30s"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SlogLevel maps the configured log level string to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
