package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jwebster45206/branch-engine/internal/config"
	"github.com/jwebster45206/branch-engine/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "story",
		Short: "Play and check branching stories",
		Long: `story plays branching narrative files on the terminal.

Configuration comes from the environment:
  STORY_DIR      directory searched for stories (default ./data/stories)
  STORY_FILE     story played when none is given
  AUDIO_BACKEND  none, log or redis (default log)
  REDIS_URL      Redis used for cue and scene events
  LOG_LEVEL      debug, info, warn or error
  WRAP_WIDTH     wrap narrative text at this many columns
  STRICT         refuse to play stories with graph errors (default true)`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newPlayCmd(),
		newValidateCmd(),
		newListCmd(),
		newCuesCmd(),
		newListenCmd(),
	)
	return root
}

// setup loads configuration and installs the logger.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, logger.Setup(cfg), nil
}
