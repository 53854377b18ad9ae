package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "./data/stories", cfg.StoryDir)
	assert.Equal(t, AudioLog, cfg.AudioBackend)
	assert.Equal(t, 16, cfg.AudioQueue)
	assert.Equal(t, 0, cfg.WrapWidth)
	assert.True(t, cfg.Strict)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("STORY_FILE", "night_drive.yaml")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("AUDIO_BACKEND", "Redis")
	t.Setenv("WRAP_WIDTH", "72")
	t.Setenv("STRICT", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, "night_drive.yaml", cfg.StoryFile)
	assert.Equal(t, AudioRedis, cfg.AudioBackend)
	assert.Equal(t, 72, cfg.WrapWidth)
	assert.False(t, cfg.Strict)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		msg  string
	}{
		{name: "redis backend without url", env: map[string]string{"AUDIO_BACKEND": "redis"}, msg: "requires REDIS_URL"},
		{name: "unknown backend", env: map[string]string{"AUDIO_BACKEND": "openal"}, msg: "unknown AUDIO_BACKEND"},
		{name: "negative wrap", env: map[string]string{"WRAP_WIDTH": "-1"}, msg: "WRAP_WIDTH"},
		{name: "non-numeric queue", env: map[string]string{"AUDIO_QUEUE": "lots"}, msg: "parse env"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), in)
	}
}
