package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNoDefault is returned when no default value exists for a config key.
var ErrNoDefault = errors.New("no default exists")

// Setting keys.
const (
	KeyDefaultLanguage = "generation.default_language"
	KeyDefaultTone     = "generation.default_tone"
	KeyDefaultLength   = "generation.default_length"
	KeyCalmClosure     = "generation.calm_closure"
	KeyGuardNgram      = "generation.guard_ngram"
	KeyFilenamePattern = "export.filename_pattern"
	KeyExportPath      = "export.path"
	KeyUILanguage      = "ui.language"
	KeyUITheme         = "ui.theme"
	KeyAutosaveSeconds = "ui.autosave_seconds"
)

// DefaultEntries returns the default settings entries.
// These are seeded into the settings file on first run.
func DefaultEntries() []Entry {
	return []Entry{
		// Generation
		{
			Key:         KeyDefaultLanguage,
			Value:       "en",
			Description: "Language used when a request does not name one",
		},
		{
			Key:         KeyDefaultTone,
			Value:       "gentle",
			Description: "Tone used when a request does not name one (gentle, funny, adventurous, calm)",
		},
		{
			Key:         KeyDefaultLength,
			Value:       "medium",
			Description: "Length used when a request does not name one (short, medium, long)",
		},
		{
			Key:         KeyCalmClosure,
			Value:       true,
			Description: "End every story with a soothing closing line",
		},
		{
			Key:         KeyGuardNgram,
			Value:       3,
			Description: "N-gram size used for the uniqueness ratio reported with each story",
		},

		// Export
		{
			Key:         KeyFilenamePattern,
			Value:       "{date}_{name}_{topic}_{lang}",
			Description: "Export filename pattern; tokens: {date} {time} {name} {topic} {lang} {theme} {title} {id}",
		},
		{
			Key:         KeyExportPath,
			Value:       "",
			Description: "Directory for exported files; empty means {home}/exports",
		},

		// UI shell
		{
			Key:         KeyUILanguage,
			Value:       "en",
			Description: "Language of the UI shell",
		},
		{
			Key:         KeyUITheme,
			Value:       "light",
			Description: "Colour scheme of the UI shell (light, dark)",
		},
		{
			Key:         KeyAutosaveSeconds,
			Value:       30,
			Description: "Seconds between recovery snapshots of the story being edited",
		},
	}
}

// SeedDefaults seeds default entries into the store.
// This is idempotent - existing entries are not overwritten.
func SeedDefaults(ctx context.Context, store Store, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	seeded := 0
	skipped := 0
	for _, entry := range DefaultEntries() {
		existing, err := store.Get(ctx, entry.Key)
		if err != nil {
			return fmt.Errorf("failed to check key %q: %w", entry.Key, err)
		}
		if existing != nil {
			skipped++
			continue
		}
		if err := store.Set(ctx, entry.Key, entry.Value, entry.Description); err != nil {
			return fmt.Errorf("failed to seed key %q: %w", entry.Key, err)
		}
		seeded++
	}

	if seeded > 0 {
		logger.Info("seeded default settings", "seeded", seeded, "skipped", skipped)
	}
	return nil
}

// GetDefault returns the default entry for a key, or nil.
func GetDefault(key string) *Entry {
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return &entry
		}
	}
	return nil
}

// ResetToDefault resets a key to its default value.
// Returns ErrNoDefault if no default exists for the key.
func ResetToDefault(ctx context.Context, store Store, key string) error {
	def := GetDefault(key)
	if def == nil {
		return fmt.Errorf("%w for key %q", ErrNoDefault, key)
	}
	return store.Set(ctx, key, def.Value, def.Description)
}
