package storyfile

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
)

// List walks dir for story files and maps each story name to its file path.
// Files that fail to load are logged and skipped.
func List(dir string, logger *slog.Logger) (map[string]string, error) {
	stories := make(map[string]string)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ferr := FormatFromPath(path); ferr != nil {
			return nil
		}

		f, lerr := Load(path)
		if lerr != nil {
			logger.Warn("Failed to load story file", "path", path, "error", lerr)
			return nil
		}
		stories[f.Name] = path
		return nil
	})
	if err != nil {
		logger.Error("Failed to walk stories directory", "dir", dir, "error", err)
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}

	return stories, nil
}

// SortedNames returns the keys of a List result in order.
func SortedNames(stories map[string]string) []string {
	names := make([]string, 0, len(stories))
	for name := range stories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
