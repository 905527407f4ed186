package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
)

// BuiltinSource is the Source reported by the embedded catalog.
const BuiltinSource = "builtin"

//go:embed builtin.json
var builtinJSON []byte

var builtin = sync.OnceValues(func() (*Catalog, error) {
	return Parse(builtinJSON, BuiltinSource)
})

// Builtin returns the embedded default catalog.
func Builtin() (*Catalog, error) {
	return builtin()
}

// BuiltinJSON returns a copy of the embedded catalog document, useful as a
// starting point for an override file.
func BuiltinJSON() []byte {
	out := make([]byte, len(builtinJSON))
	copy(out, builtinJSON)
	return out
}

// Load reads a catalog override file. An empty path or a file that does not
// exist yields the built-in catalog. A file that exists but is invalid is an
// error.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Builtin()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Builtin()
		}
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	return Parse(data, path)
}

// LoadOrDefault is Load that logs a broken override file and falls back to
// the built-in catalog.
func LoadOrDefault(path string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c, err := Load(path)
	if err == nil {
		logger.Info("catalog loaded", "source", c.Source(), "languages", c.Languages())
		return c, nil
	}

	logger.Warn("catalog override rejected, using built-in catalog", "path", path, "error", err)
	return Builtin()
}
