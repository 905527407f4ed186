package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jackzampolin/bedtime/internal/story"
)

// WriteRecovery stores the last generated story so it survives a crash
// before the user saves it.
func WriteRecovery(path string, st *story.Story) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode recovery story: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create recovery directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write recovery story: %w", err)
	}
	return nil
}

// ReadRecovery returns the recovered story, or nil if there is none.
func ReadRecovery(path string) (*story.Story, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read recovery story: %w", err)
	}

	var st story.Story
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to decode recovery story: %w", err)
	}
	return &st, nil
}

// ClearRecovery removes the recovery file if present.
func ClearRecovery(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove recovery story: %w", err)
	}
	return nil
}
