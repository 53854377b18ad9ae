package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwebster45206/branch-engine/internal/events"
)

const (
	listenAttempts   = 30
	listenRetryDelay = time.Second
)

// newListenCmd subscribes to cue events and prints them. It stands in for
// a sound daemon when AUDIO_BACKEND=redis.
func newListenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Print cue events published over Redis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			if cfg.RedisURL == "" {
				return errors.New("listen requires REDIS_URL")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, err := events.Dial(cfg.RedisURL, log)
			if err != nil {
				return err
			}
			defer client.Close()
			if err := client.WaitForConnection(ctx, listenAttempts, listenRetryDelay); err != nil {
				return err
			}

			received, err := client.Subscribe(ctx, events.CueChannel)
			if err != nil {
				return err
			}
			log.Info("Listening for cues", "channel", events.CueChannel)

			for ev := range received {
				if ev.Cue == nil {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ev.Time.Format("15:04:05"), ev.Story, ev.Cue)
			}
			return nil
		},
	}
}
