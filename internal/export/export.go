// Package export renders stories into files.
package export

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jackzampolin/bedtime/internal/story"
)

// ErrUnknownFormat is returned for a format no exporter handles.
var ErrUnknownFormat = errors.New("unknown export format")

// DefaultPattern is the file name pattern used when none is configured.
const DefaultPattern = "{date}_{name}_{topic}_{lang}"

// Exporter renders one story in one format.
type Exporter interface {
	Format() string
	Extension() string
	ContentType() string
	Export(w io.Writer, st *story.Story) error
}

// Registry holds exporters keyed by format.
type Registry struct {
	byFormat map[string]Exporter
	logger   *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{byFormat: map[string]Exporter{}, logger: logger}
}

// DefaultRegistry returns a registry with every built-in format.
func DefaultRegistry(logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	r.Register(TXT{})
	r.Register(HTML{})
	r.Register(PDF{})
	r.Register(RTF{})
	r.Register(EPUB{})
	return r
}

// Register adds an exporter, replacing any with the same format.
func (r *Registry) Register(e Exporter) {
	r.byFormat[strings.ToLower(e.Format())] = e
}

// Get returns the exporter for a format.
func (r *Registry) Get(format string) (Exporter, error) {
	e, ok := r.byFormat[strings.ToLower(strings.TrimPrefix(format, "."))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return e, nil
}

// Formats lists registered formats in sorted order.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.byFormat))
	for f := range r.byFormat {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Filename expands a file name pattern for a story, without extension.
// Supported tokens are {date} {time} {name} {topic} {lang} {theme} {title}
// and {id}. The result is reduced to ASCII letters, digits, '-', '_' and
// '.', so it is safe on every filesystem.
func Filename(pattern string, st *story.Story) string {
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultPattern
	}
	created := st.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	r := strings.NewReplacer(
		"{date}", created.Format("2006-01-02"),
		"{time}", created.Format("150405"),
		"{name}", st.ChildName(),
		"{topic}", st.Topic(),
		"{lang}", st.Language,
		"{theme}", st.Theme,
		"{title}", st.Title,
		"{id}", st.ID,
	)
	name := Sanitize(r.Replace(pattern))
	if name == "" {
		name = "story"
	}
	return name
}

var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Sanitize turns arbitrary text into a portable file name fragment.
func Sanitize(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	lastSep := true
	for _, r := range folded {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			lastSep = false
		case r == '_' || r == '.':
			if !lastSep {
				b.WriteRune(r)
				lastSep = true
			}
		default:
			if !lastSep {
				b.WriteRune('-')
				lastSep = true
			}
		}
	}

	out := strings.Trim(b.String(), "-_.")
	if len(out) > 96 {
		out = strings.TrimRight(out[:96], "-_.")
	}
	return out
}

// WriteFile exports a story into dir using the file name pattern and
// returns the written path. Existing files are never replaced: when the
// name is taken a numeric suffix is added ("name-2.txt", "name-3.txt").
func (r *Registry) WriteFile(dir, pattern string, st *story.Story, format string) (string, error) {
	e, err := r.Get(format)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	f, path, err := createUnique(dir, Filename(pattern, st), e.Extension())
	if err != nil {
		return "", err
	}
	if err := writeTo(f, e, st); err != nil {
		os.Remove(path)
		return "", err
	}

	r.logger.Info("story exported", "id", st.ID, "format", e.Format(), "path", path)
	return path, nil
}

const maxNameSuffix = 1000

// createUnique opens base.ext in dir for writing, failing if it exists,
// and moves on to base-2.ext, base-3.ext and so on until a free name is
// found.
func createUnique(dir, base, ext string) (*os.File, string, error) {
	for n := 1; n <= maxNameSuffix; n++ {
		name := base
		if n > 1 {
			name = fmt.Sprintf("%s-%d", base, n)
		}
		path := filepath.Join(dir, name+"."+ext)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("failed to create %s: %w", path, err)
		}
	}
	return nil, "", fmt.Errorf("no free file name for %s.%s in %s", base, ext, dir)
}

func writeTo(f *os.File, e Exporter, st *story.Story) error {
	if err := e.Export(f, st); err != nil {
		f.Close()
		return fmt.Errorf("failed to export %s: %w", e.Format(), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", f.Name(), err)
	}
	return nil
}

// Combined is the outcome of WriteAll.
type Combined struct {
	Dir    string            `json:"dir"`
	Files  map[string]string `json:"files"`
	Errors map[string]string `json:"errors,omitempty"`
}

// WriteAll exports a story in several formats into one new folder named
// after the pattern plus a timestamp. Formats that fail are recorded in
// Errors; the others are still written. An empty formats list means every
// registered format.
func (r *Registry) WriteAll(dir, pattern string, st *story.Story, formats []string) (*Combined, error) {
	if len(formats) == 0 {
		formats = r.Formats()
	}

	folder := filepath.Join(dir, Filename(pattern, st)+"_"+time.Now().Format("20060102-150405"))
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export folder: %w", err)
	}

	out := &Combined{Dir: folder, Files: map[string]string{}}
	for _, format := range formats {
		path, err := r.WriteFile(folder, pattern, st, format)
		if err != nil {
			r.logger.Warn("combined export format failed", "format", format, "error", err)
			if out.Errors == nil {
				out.Errors = map[string]string{}
			}
			out.Errors[format] = err.Error()
			continue
		}
		out.Files[format] = path
	}

	if len(out.Files) == 0 {
		return out, fmt.Errorf("combined export wrote no files")
	}
	return out, nil
}
