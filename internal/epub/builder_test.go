package epub

import (
	"archive/zip"
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testBuilder() *Builder {
	return NewBuilder(
		Book{
			ID:        "0b8f7c1e-0000-4000-8000-000000000001",
			Title:     "Mia's <Favorite> Stories",
			Author:    "Bedtime",
			Language:  "fr",
			CreatedAt: time.Date(2025, 5, 1, 20, 0, 0, 0, time.UTC),
		},
		[]Chapter{
			{ID: "story_001", Title: "Les Dragons", Subtitle: "la Vallée des Dragons", Paragraphs: []string{"Il était une fois.", "", "Fin & bonne nuit."}},
			{ID: "story_002", Title: "Owls", Paragraphs: []string{"Hoot."}},
		},
	)
}

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("not a zip: %v", err)
	}
	files := make(map[string]string)
	for i, f := range zr.File {
		if i == 0 && (f.Name != "mimetype" || f.Method != zip.Store) {
			t.Errorf("first entry = %s (method %d), want stored mimetype", f.Name, f.Method)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		files[f.Name] = string(b)
	}
	return files
}

func TestWriteTo(t *testing.T) {
	buf, err := testBuilder().BuildToBuffer()
	if err != nil {
		t.Fatalf("BuildToBuffer() error = %v", err)
	}
	files := readZip(t, buf.Bytes())

	for _, name := range []string{
		"mimetype",
		"META-INF/container.xml",
		"OEBPS/content.opf",
		"OEBPS/nav.xhtml",
		"OEBPS/toc.ncx",
		"OEBPS/styles/style.css",
		"OEBPS/chapters/story_001.xhtml",
		"OEBPS/chapters/story_002.xhtml",
	} {
		if _, ok := files[name]; !ok {
			t.Errorf("missing %s", name)
		}
	}

	opf := files["OEBPS/content.opf"]
	for _, want := range []string{
		"urn:uuid:0b8f7c1e-0000-4000-8000-000000000001",
		"Mia&apos;s &lt;Favorite&gt; Stories",
		"<dc:language>fr</dc:language>",
		"2025-05-01T20:00:00Z",
		`<itemref idref="story_002"/>`,
	} {
		if !strings.Contains(opf, want) {
			t.Errorf("content.opf missing %q", want)
		}
	}

	ch := files["OEBPS/chapters/story_001.xhtml"]
	if strings.Count(ch, "<p>") != 2 {
		t.Errorf("expected 2 paragraphs, got:\n%s", ch)
	}
	if !strings.Contains(ch, "Fin &amp; bonne nuit.") || !strings.Contains(ch, `class="subtitle"`) {
		t.Errorf("chapter not rendered as expected:\n%s", ch)
	}

	if !strings.Contains(files["OEBPS/nav.xhtml"], `href="chapters/story_002.xhtml"`) {
		t.Error("nav.xhtml missing chapter link")
	}
}

func TestWriteToNoChapters(t *testing.T) {
	b := NewBuilder(Book{Title: "Empty"}, nil)
	if _, err := b.BuildToBuffer(); err == nil {
		t.Error("expected error for a book without chapters")
	}
}

func TestBuild(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "stories.epub")
	if err := testBuilder().Build(path); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
}

func TestEscapeXML(t *testing.T) {
	got := escapeXML(`<a href="x">Tom & Jerry's</a>`)
	want := "&lt;a href=&quot;x&quot;&gt;Tom &amp; Jerry&apos;s&lt;/a&gt;"
	if got != want {
		t.Errorf("escapeXML() = %q, want %q", got, want)
	}
}
