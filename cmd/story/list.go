package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jwebster45206/branch-engine/pkg/audio"
	"github.com/jwebster45206/branch-engine/pkg/storyfile"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the stories in STORY_DIR",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}

			stories, err := storyfile.List(cfg.StoryDir, log)
			if err != nil {
				return err
			}
			if len(stories) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No stories in %s\n", cfg.StoryDir)
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Available Stories:")
			for i, name := range storyfile.SortedNames(stories) {
				fmt.Fprintf(cmd.OutOrStdout(), "  %d - %s (%s)\n", i+1, name, filepath.Base(stories[name]))
			}
			return nil
		},
	}
}

func newCuesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cues",
		Short: "List the sound cues a story may reference",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, cue := range audio.DefaultCatalog().Cues() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", cue.ID, cue.Channel)
			}
		},
	}
}
