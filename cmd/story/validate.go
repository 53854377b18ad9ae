package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jwebster45206/branch-engine/pkg/story"
	"github.com/jwebster45206/branch-engine/pkg/storyfile"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <story>...",
		Short: "Check story files for schema and graph problems",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				if err := validateFile(cmd.OutOrStdout(), path); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Validation failed: %v\n", err)
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d story files failed validation", failed, len(args))
			}
			return nil
		},
	}
}

// validateFile loads path, builds its graph and prints every issue.
// Warnings are printed but only errors fail the file.
func validateFile(w io.Writer, path string) error {
	fmt.Fprintf(w, "Validating %s...\n", path)

	f, err := storyfile.Load(path)
	if err != nil {
		return err
	}

	e := story.NewEngine(f.EngineOptions()...)
	if err := f.Register(e, nil); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	for _, issue := range e.Check() {
		fmt.Fprintf(w, "  - %s\n", issue)
	}
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fmt.Fprintf(w, "%s is valid! (%d scenes)\n", f.Name, len(e.Labels()))
	return nil
}
