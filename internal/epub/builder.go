// Package epub provides ePub 3.0 generation for story collections.
package epub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Book contains the metadata needed for epub generation.
type Book struct {
	ID        string // Stable identifier; a random one is used if empty
	Title     string
	Author    string
	Language  string // ISO 639-1 code (e.g., "en")
	CreatedAt time.Time
}

// Chapter is one story in the book.
type Chapter struct {
	ID         string // Unique identifier (e.g., "story_001")
	Title      string
	Subtitle   string   // Shown under the title, e.g. theme and date
	Paragraphs []string // Plain text paragraphs
}

// Builder creates ePub 3.0 files.
type Builder struct {
	book     Book
	chapters []Chapter
	uid      string
}

// NewBuilder creates a new epub builder.
func NewBuilder(book Book, chapters []Chapter) *Builder {
	b := &Builder{
		book:     book,
		chapters: chapters,
	}
	if book.ID != "" {
		b.uid = "urn:uuid:" + book.ID
	} else {
		b.uid = "urn:uuid:" + uuid.New().String()
	}
	if b.book.CreatedAt.IsZero() {
		b.book.CreatedAt = time.Now()
	}
	return b
}

// Build generates the epub and writes it to the specified path.
func (b *Builder) Build(outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	return b.WriteTo(f)
}

// WriteTo writes the epub to a writer.
func (b *Builder) WriteTo(w io.Writer) error {
	if len(b.chapters) == 0 {
		return fmt.Errorf("epub needs at least one chapter")
	}

	zw := zip.NewWriter(w)

	// mimetype must be first and stored uncompressed
	header := &zip.FileHeader{Name: "mimetype", Method: zip.Store}
	mw, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create mimetype: %w", err)
	}
	if _, err := mw.Write([]byte("application/epub+zip")); err != nil {
		return err
	}

	type entry struct {
		name    string
		content string
	}
	files := []entry{
		{"META-INF/container.xml", containerXML},
		{"OEBPS/content.opf", b.generatePackage()},
		{"OEBPS/nav.xhtml", b.generateNavigation()},
		{"OEBPS/toc.ncx", b.generateNCX()},
		{"OEBPS/styles/style.css", defaultStylesheet},
	}
	for _, ch := range b.chapters {
		files = append(files, entry{fmt.Sprintf("OEBPS/chapters/%s.xhtml", ch.ID), b.generateChapterXHTML(ch)})
	}

	for _, f := range files {
		fw, err := zw.Create(f.name)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", f.name, err)
		}
		if _, err := io.WriteString(fw, f.content); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
	}

	return zw.Close()
}

// BuildToBuffer generates the epub and returns it as a byte buffer.
func (b *Builder) BuildToBuffer() (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	if err := b.WriteTo(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const defaultStylesheet = `/* Bedtime story ePub stylesheet */

body {
  font-family: Georgia, "Times New Roman", serif;
  font-size: 1.1em;
  line-height: 1.7;
  margin: 1em;
}

h1 {
  font-size: 1.6em;
  text-align: center;
  margin-top: 2em;
  margin-bottom: 0.3em;
}

.subtitle {
  text-align: center;
  font-style: italic;
  color: #666;
  margin-bottom: 2em;
}

p {
  margin: 0.8em 0;
}
`
