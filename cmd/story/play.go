package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jwebster45206/branch-engine/internal/config"
	"github.com/jwebster45206/branch-engine/internal/events"
	"github.com/jwebster45206/branch-engine/pkg/audio"
	"github.com/jwebster45206/branch-engine/pkg/story"
	"github.com/jwebster45206/branch-engine/pkg/storyfile"
)

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play [story]",
		Short: "Play a story on the terminal",
		Long: `Play a story file. The story may be a path, a file name inside STORY_DIR,
or omitted when STORY_FILE is set or STORY_DIR holds exactly one story.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runPlay,
	}
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path, err := resolveStoryPath(cfg, args, log)
	if err != nil {
		return err
	}
	f, err := storyfile.Load(path)
	if err != nil {
		return err
	}

	var client *events.Client
	if cfg.RedisURL != "" {
		client, err = events.NewClient(ctx, cfg.RedisURL, log)
		if err != nil {
			return err
		}
		defer client.Close()
	}

	player, closePlayer := buildPlayer(cfg, client, f.Name, log)
	defer closePlayer()

	opts := append(f.EngineOptions(),
		story.WithInput(cmd.InOrStdin()),
		story.WithOutput(cmd.OutOrStdout()),
		story.WithWrapWidth(cfg.WrapWidth),
		story.WithAudio(player),
		story.WithLogger(log.With("story", f.Name)),
	)
	if client != nil {
		b := events.NewBroadcaster(client, f.Name, log)
		defer b.Close()
		opts = append(opts, story.WithObserver(b))
	}
	if cfg.Strict {
		opts = append(opts, story.WithStrictValidation())
	}

	e := story.NewEngine(opts...)
	if err := f.Register(e, audio.DefaultCatalog()); err != nil {
		return err
	}

	if err := e.Play(ctx); err != nil {
		if errors.Is(err, story.ErrInputClosed) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Input closed, leaving the story.")
		}
		return err
	}
	return nil
}

// buildPlayer returns the configured audio chain and a function that
// drains it.
func buildPlayer(cfg *config.Config, client *events.Client, storyName string, log *slog.Logger) (audio.Player, func()) {
	var backend audio.Player
	switch cfg.AudioBackend {
	case config.AudioNone:
		return audio.Nop, func() {}
	case config.AudioRedis:
		backend = audio.Multi(events.NewCuePlayer(client, storyName), audio.NewLogPlayer(log))
	default:
		backend = audio.NewLogPlayer(log)
	}

	async := audio.NewAsyncPlayer(backend, cfg.AudioQueue, log)
	return async, func() { _ = async.Close() }
}

// resolveStoryPath picks the story file from the argument, STORY_FILE, or
// the only story in STORY_DIR.
func resolveStoryPath(cfg *config.Config, args []string, log *slog.Logger) (string, error) {
	name := cfg.StoryFile
	if len(args) > 0 {
		name = args[0]
	}

	if name != "" {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
		inDir := filepath.Join(cfg.StoryDir, name)
		if _, err := os.Stat(inDir); err == nil {
			return inDir, nil
		}
		return "", fmt.Errorf("story not found: %s (also tried %s)", name, inDir)
	}

	stories, err := storyfile.List(cfg.StoryDir, log)
	if err != nil {
		return "", err
	}
	switch len(stories) {
	case 0:
		return "", fmt.Errorf("no stories found in %s", cfg.StoryDir)
	case 1:
		for _, path := range stories {
			return path, nil
		}
	}
	var choices []string
	for _, n := range storyfile.SortedNames(stories) {
		choices = append(choices, filepath.Base(stories[n]))
	}
	return "", fmt.Errorf("several stories found in %s, pick one of: %s", cfg.StoryDir, strings.Join(choices, ", "))
}
