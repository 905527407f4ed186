package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"
)

var (
	// ErrInvalidKey is returned when a config key contains invalid characters.
	ErrInvalidKey = errors.New("invalid config key")

	// ErrInvalidValue is returned when a value does not fit its key.
	ErrInvalidValue = errors.New("invalid config value")
)

// ValidateKey checks if a config key contains only allowed characters.
// Valid keys contain: letters, digits, dots, underscores, and hyphens.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	for i, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' && r != '-' {
			return fmt.Errorf("%w: invalid character %q at position %d", ErrInvalidKey, r, i)
		}
	}
	if key[0] == '.' || key[len(key)-1] == '.' {
		return fmt.Errorf("%w: key cannot start or end with a dot", ErrInvalidKey)
	}
	return nil
}

// Store provides access to user settings.
type Store interface {
	// Get returns a single entry by key, or nil when the key is unset.
	Get(ctx context.Context, key string) (*Entry, error)

	// Set creates or updates an entry.
	Set(ctx context.Context, key string, value any, description string) error

	// GetAll returns all entries.
	GetAll(ctx context.Context) (map[string]Entry, error)

	// GetByPrefix returns entries whose key starts with prefix.
	GetByPrefix(ctx context.Context, prefix string) (map[string]Entry, error)

	// Delete removes an entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Entry represents a single settings entry.
type Entry struct {
	Key         string `json:"key"`
	Value       any    `json:"value"`
	Description string `json:"description"`
}

type storedEntry struct {
	Value       any    `json:"value"`
	Description string `json:"description,omitempty"`
}

// JSONStore implements Store over a single JSON object on disk, keyed by
// setting name. Every mutation rewrites the file.
type JSONStore struct {
	mu      sync.RWMutex
	path    string
	entries map[string]storedEntry
	logger  *slog.Logger
}

// OpenJSONStore loads path, or starts empty when the file does not exist.
// A corrupt file is logged and replaced on the next write.
func OpenJSONStore(path string, logger *slog.Logger) (*JSONStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &JSONStore{path: path, entries: make(map[string]storedEntry), logger: logger}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		logger.Warn("settings file is corrupt, starting empty", "path", path, "error", err)
		s.entries = make(map[string]storedEntry)
	}
	return s, nil
}

// Path returns the backing file.
func (s *JSONStore) Path() string { return s.path }

func (s *JSONStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	return &Entry{Key: key, Value: e.Value, Description: e.Description}, nil
}

func (s *JSONStore) Set(_ context.Context, key string, value any, description string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	// Round-trip so stored values look the same before and after a reload.
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	var normalized any
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return fmt.Errorf("failed to normalize value: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.entries[key]
	if description == "" && had {
		description = prev.Description
	}
	s.entries[key] = storedEntry{Value: normalized, Description: description}
	if err := s.persist(); err != nil {
		if had {
			s.entries[key] = prev
		} else {
			delete(s.entries, key)
		}
		return err
	}
	return nil
}

func (s *JSONStore) GetAll(ctx context.Context) (map[string]Entry, error) {
	return s.GetByPrefix(ctx, "")
}

func (s *JSONStore) GetByPrefix(_ context.Context, prefix string) (map[string]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]Entry)
	for key, e := range s.entries {
		if strings.HasPrefix(key, prefix) {
			result[key] = Entry{Key: key, Value: e.Value, Description: e.Description}
		}
	}
	return result, nil
}

func (s *JSONStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.entries[key]
	if !ok {
		return nil
	}
	delete(s.entries, key)
	if err := s.persist(); err != nil {
		s.entries[key] = prev
		return err
	}
	return nil
}

// persist writes entries to a temp file and renames it over the target.
// Caller holds the write lock.
func (s *JSONStore) persist() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}

// SortedKeys returns the keys of entries in lexical order.
func SortedKeys(entries map[string]Entry) []string {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetString reads key as a string, falling back to the registered default
// and then to fallback.
func GetString(ctx context.Context, store Store, key, fallback string) string {
	if v, ok := lookup(ctx, store, key).(string); ok {
		return v
	}
	return fallback
}

// GetInt reads key as an int. JSON numbers arrive as float64.
func GetInt(ctx context.Context, store Store, key string, fallback int) int {
	switch v := lookup(ctx, store, key).(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return fallback
}

// GetBool reads key as a bool.
func GetBool(ctx context.Context, store Store, key string, fallback bool) bool {
	if v, ok := lookup(ctx, store, key).(bool); ok {
		return v
	}
	return fallback
}

func lookup(ctx context.Context, store Store, key string) any {
	if store != nil {
		e, err := store.Get(ctx, key)
		if err != nil {
			slog.Debug("settings lookup failed", "key", key, "error", err)
		} else if e != nil {
			return e.Value
		}
	}
	if def := GetDefault(key); def != nil {
		return def.Value
	}
	return nil
}
