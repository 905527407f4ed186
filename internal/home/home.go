package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the bedtime home directory.
	DefaultDirName = ".bedtime"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// LibraryFileName holds saved stories.
	LibraryFileName = "stories.json"

	// SettingsFileName holds user settings.
	SettingsFileName = "settings.json"

	// CatalogFileName is the optional content catalog override.
	CatalogFileName = "catalog.json"

	// RecoveryFileName holds the last generated, unsaved story.
	RecoveryFileName = "recovery.json"
)

// Dir represents the bedtime home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.bedtime).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// LibraryPath returns the path to the story library file.
func (d *Dir) LibraryPath() string {
	return filepath.Join(d.path, LibraryFileName)
}

// SettingsPath returns the path to the settings file.
func (d *Dir) SettingsPath() string {
	return filepath.Join(d.path, SettingsFileName)
}

// CatalogPath returns the path where a catalog override is looked for.
func (d *Dir) CatalogPath() string {
	return filepath.Join(d.path, CatalogFileName)
}

// RecoveryPath returns the path of the unsaved-story recovery file.
func (d *Dir) RecoveryPath() string {
	return filepath.Join(d.path, RecoveryFileName)
}

// ExportsDir returns the directory for exported stories.
func (d *Dir) ExportsDir() string {
	return filepath.Join(d.path, "exports")
}

// LogsDir returns the directory for log files.
func (d *Dir) LogsDir() string {
	return filepath.Join(d.path, "logs")
}

// LogPath returns the path of the rotating log file.
func (d *Dir) LogPath() string {
	return filepath.Join(d.LogsDir(), "bedtime.log")
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.path, d.ExportsDir(), d.LogsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
