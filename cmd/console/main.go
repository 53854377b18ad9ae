package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/branch-engine/internal/config"
	"github.com/jwebster45206/branch-engine/internal/events"
	"github.com/jwebster45206/branch-engine/internal/logger"
	"github.com/jwebster45206/branch-engine/pkg/audio"
	"github.com/jwebster45206/branch-engine/pkg/story"
)

// LogFile receives the console's logs; the terminal belongs to the UI.
var LogFile = filepath.Join(os.TempDir(), "story-console.log")

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logOut, err := os.OpenFile(LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logOut.Close() // Ignore error in defer
	}()
	log := logger.New(cfg, logOut)

	ctx := context.Background()

	var client *events.Client
	if cfg.RedisURL != "" {
		client, err = events.NewClient(ctx, cfg.RedisURL, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not connect to Redis at REDIS_URL: %v\n", err)
			os.Exit(1)
		}
		defer func() {
			_ = client.Close() // Ignore error in defer
		}()
	}

	ui := NewConsoleUI(ctx, cfg, log)
	ui.backend = backendFor(cfg, client, log)
	if client != nil {
		ui.observer = func(storyName string) story.Observer {
			return events.NewBroadcaster(client, storyName, log)
		}
	}

	p := tea.NewProgram(ui, tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if m, ok := final.(ConsoleUI); ok {
		m.closeAudio()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// backendFor returns a constructor for the configured audio backend of a
// story.
func backendFor(cfg *config.Config, client *events.Client, log *slog.Logger) func(storyName string) audio.Player {
	return func(storyName string) audio.Player {
		switch cfg.AudioBackend {
		case config.AudioNone:
			return audio.Nop
		case config.AudioRedis:
			return events.NewCuePlayer(client, storyName)
		default:
			return audio.NewLogPlayer(log.With("story", storyName))
		}
	}
}
