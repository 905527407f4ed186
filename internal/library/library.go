// Package library keeps saved stories in a JSON file.
//
// The file is a JSON array, newest story first. Every write first copies
// the previous file to a .bak sibling and then replaces the file through a
// temporary file and rename. A corrupt library file is recovered from the
// backup on load.
package library

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/jackzampolin/bedtime/internal/schema"
	"github.com/jackzampolin/bedtime/internal/story"
)

var (
	// ErrNotFound is returned when no story has the requested id.
	ErrNotFound = errors.New("story not found")

	// ErrNothingToUndo is returned by UndoDelete when nothing was deleted.
	ErrNothingToUndo = errors.New("nothing to undo")
)

// BackupSuffix is appended to the library path for the backup copy.
const BackupSuffix = ".bak"

// Filter narrows List and Export.
type Filter struct {
	FavoritesOnly bool   `json:"favorites_only"`
	Language      string `json:"language,omitempty"`
	Query         string `json:"query,omitempty"`
}

func (f Filter) match(st *story.Story) bool {
	if f.FavoritesOnly && !st.Favorite {
		return false
	}
	if f.Language != "" && !strings.EqualFold(f.Language, st.Language) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		for _, field := range []string{st.Title, st.Body, st.Topic(), st.ChildName()} {
			if strings.Contains(strings.ToLower(field), q) {
				return true
			}
		}
		return false
	}
	return true
}

// Store is a mutex-guarded story library backed by one JSON file.
type Store struct {
	path   string
	logger *slog.Logger

	retryAttempts uint
	retryDelay    time.Duration

	mu          sync.RWMutex
	stories     []story.Story
	lastDeleted *story.Story
	// skipBackup is set when the main file was unreadable at load, so the
	// first write keeps the good .bak instead of overwriting it.
	skipBackup bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithRetry sets how often a failed file replace is retried.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(s *Store) {
		s.retryAttempts = attempts
		s.retryDelay = delay
	}
}

// Open loads the library at path. A missing file is an empty library.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:          path,
		retryAttempts: 3,
		retryDelay:    50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the library file path.
func (s *Store) Path() string {
	return s.path
}

// BackupPath returns the backup file path.
func (s *Store) BackupPath() string {
	return s.path + BackupSuffix
}

// Len returns the number of saved stories.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.stories)
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read library: %w", err)
	}

	stories, err := decode(data)
	if err == nil {
		s.stories = stories
		s.logger.Debug("library loaded", "path", s.path, "stories", len(stories))
		return nil
	}

	s.logger.Warn("library file unreadable, trying backup", "path", s.path, "error", err)
	s.skipBackup = true

	backup, bakErr := os.ReadFile(s.BackupPath())
	if bakErr == nil {
		if stories, bakErr = decode(backup); bakErr == nil {
			s.stories = stories
			s.logger.Info("library restored from backup", "path", s.BackupPath(), "stories", len(stories))
			return nil
		}
	}

	s.logger.Warn("library backup unusable, starting empty", "path", s.BackupPath(), "error", bakErr)
	return nil
}

func decode(data []byte) ([]story.Story, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	if err := schema.Validate(schema.Library, data); err != nil {
		return nil, err
	}
	var stories []story.Story
	if err := json.Unmarshal(data, &stories); err != nil {
		return nil, fmt.Errorf("failed to decode library: %w", err)
	}
	return stories, nil
}

// persist writes the library. Callers hold the write lock.
func (s *Store) persist(ctx context.Context) error {
	data, err := json.MarshalIndent(s.stories, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode library: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create library directory: %w", err)
	}

	if !s.skipBackup {
		if err := copyFile(s.path, s.BackupPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("library backup failed", "path", s.BackupPath(), "error", err)
		}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write library: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync library: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close library: %w", err)
	}

	err = retry.Do(
		func() error {
			return os.Rename(tmpPath, s.path)
		},
		retry.Context(ctx),
		retry.Attempts(s.retryAttempts),
		retry.Delay(s.retryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Debug("retrying library replace", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to replace library: %w", err)
	}

	s.skipBackup = false
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

func (s *Store) index(id string) int {
	for i := range s.stories {
		if s.stories[i].ID == id {
			return i
		}
	}
	return -1
}

// Save inserts a story at the front of the library, or, if a story with the
// same id is already saved, updates its favorite flag. A saved story's
// text never changes.
func (s *Store) Save(ctx context.Context, st *story.Story) error {
	if st == nil || st.ID == "" {
		return fmt.Errorf("cannot save a story without an id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := append([]story.Story{}, s.stories...)
	s.upsert(*st)
	if err := s.persist(ctx); err != nil {
		s.stories = before
		return err
	}
	s.logger.Info("story saved", "id", st.ID, "title", st.Title)
	return nil
}

func (s *Store) upsert(st story.Story) (inserted bool) {
	if i := s.index(st.ID); i >= 0 {
		s.stories[i].Favorite = st.Favorite
		return false
	}
	s.stories = append([]story.Story{st}, s.stories...)
	return true
}

// Get returns a copy of the story with the given id.
func (s *Store) Get(id string) (*story.Story, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	st := s.stories[i]
	return &st, nil
}

// List returns copies of the matching stories, newest first.
func (s *Store) List(f Filter) []*story.Story {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*story.Story, 0, len(s.stories))
	for i := range s.stories {
		if f.match(&s.stories[i]) {
			st := s.stories[i]
			out = append(out, &st)
		}
	}
	return out
}

// SetFavorite sets a story's favorite flag.
func (s *Store) SetFavorite(ctx context.Context, id string, favorite bool) (*story.Story, error) {
	return s.updateFavorite(ctx, id, func(bool) bool { return favorite })
}

// ToggleFavorite flips a story's favorite flag.
func (s *Store) ToggleFavorite(ctx context.Context, id string) (*story.Story, error) {
	return s.updateFavorite(ctx, id, func(cur bool) bool { return !cur })
}

func (s *Store) updateFavorite(ctx context.Context, id string, next func(bool) bool) (*story.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	prev := s.stories[i].Favorite
	s.stories[i].Favorite = next(prev)
	if err := s.persist(ctx); err != nil {
		s.stories[i].Favorite = prev
		return nil, err
	}

	st := s.stories[i]
	return &st, nil
}

// Delete removes a story. The most recently deleted story can be restored
// with UndoDelete.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	removed := s.stories[i]
	before := s.stories
	s.stories = append(append([]story.Story{}, s.stories[:i]...), s.stories[i+1:]...)
	if err := s.persist(ctx); err != nil {
		s.stories = before
		return err
	}

	s.lastDeleted = &removed
	s.logger.Info("story deleted", "id", id)
	return nil
}

// UndoDelete restores the most recently deleted story at the front of the
// library.
func (s *Store) UndoDelete(ctx context.Context) (*story.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastDeleted == nil {
		return nil, ErrNothingToUndo
	}

	restored := *s.lastDeleted
	before := append([]story.Story{}, s.stories...)
	s.upsert(restored)
	if err := s.persist(ctx); err != nil {
		s.stories = before
		return nil, err
	}

	s.lastDeleted = nil
	s.logger.Info("story restored", "id", restored.ID)
	return &restored, nil
}

// Import merges a JSON array of stories into the library. The document is
// validated against the library schema first; nothing is imported if it
// fails. It returns how many stories were new.
func (s *Store) Import(ctx context.Context, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("failed to read import: %w", err)
	}
	incoming, err := decode(data)
	if err != nil {
		return 0, fmt.Errorf("import rejected: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := append([]story.Story{}, s.stories...)
	added := 0
	// Reverse so the first story of the import ends up first in the library.
	for i := len(incoming) - 1; i >= 0; i-- {
		if s.upsert(incoming[i]) {
			added++
		}
	}
	if err := s.persist(ctx); err != nil {
		s.stories = before
		return 0, err
	}

	s.logger.Info("library imported", "received", len(incoming), "added", added)
	return added, nil
}

// Export writes the matching stories as a JSON array that Import accepts.
func (s *Store) Export(w io.Writer, f Filter) error {
	list := s.List(f)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(list); err != nil {
		return fmt.Errorf("failed to export library: %w", err)
	}
	return nil
}
