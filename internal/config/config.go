package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Audio backends.
const (
	AudioNone  = "none"
	AudioLog   = "log"
	AudioRedis = "redis"
)

type Config struct {
	Environment  string `env:"ENVIRONMENT" envDefault:"development"`
	RawLogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	StoryDir     string `env:"STORY_DIR" envDefault:"./data/stories"`
	StoryFile    string `env:"STORY_FILE"`
	RedisURL     string `env:"REDIS_URL"`
	AudioBackend string `env:"AUDIO_BACKEND" envDefault:"log"`
	AudioQueue   int    `env:"AUDIO_QUEUE" envDefault:"16"`
	WrapWidth    int    `env:"WRAP_WIDTH" envDefault:"0"`
	Strict       bool   `env:"STRICT" envDefault:"true"`

	// LogLevel is parsed from RawLogLevel.
	LogLevel slog.Level
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.LogLevel = parseLogLevel(cfg.RawLogLevel)
	cfg.AudioBackend = strings.ToLower(cfg.AudioBackend)

	switch cfg.AudioBackend {
	case AudioNone, AudioLog:
	case AudioRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("AUDIO_BACKEND=redis requires REDIS_URL")
		}
	default:
		return nil, fmt.Errorf("unknown AUDIO_BACKEND %q (want none, log or redis)", cfg.AudioBackend)
	}
	if cfg.WrapWidth < 0 {
		return nil, fmt.Errorf("WRAP_WIDTH must not be negative, got %d", cfg.WrapWidth)
	}

	return &cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
