package export

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/jackzampolin/bedtime/internal/story"
)

func testStory() *story.Story {
	return &story.Story{
		ID:       "6f1c2a9e-3b7d-4c1e-9a55-1d2e3f4a5b6c",
		Title:    "Dragons, un conte de la Vallée des Dragons",
		Body:     "Léa rêvait de dragons.\n\nLe dragon <sourit> & s'envola.\n\nRespirons ensemble {doucement}.",
		Language: "fr",
		Theme:    "dragons",
		Request:  story.Request{Topic: "dragons", ChildName: "Léa", Language: "fr"},
		Sections: []story.Section{
			{Kind: story.SectionIntro, Text: "Léa rêvait de dragons."},
			{Kind: story.SectionClimax, Text: "Le dragon <sourit> & s'envola."},
			{Kind: story.SectionBreathing, Text: "Respirons ensemble {doucement}."},
		},
		CreatedAt: time.Date(2025, 6, 7, 20, 30, 0, 0, time.UTC),
	}
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry(nil)

	want := []string{"epub", "html", "pdf", "rtf", "txt"}
	if got := r.Formats(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Formats() = %v, want %v", got, want)
	}

	for _, f := range []string{"txt", "TXT", ".pdf"} {
		if _, err := r.Get(f); err != nil {
			t.Errorf("Get(%q) error = %v", f, err)
		}
	}
	if _, err := r.Get("docx"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Get(docx) error = %v, want ErrUnknownFormat", err)
	}
}

func TestTXT(t *testing.T) {
	var buf bytes.Buffer
	if err := (TXT{}).Export(&buf, testStory()); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	out := buf.String()
	lines := strings.Split(out, "\n")
	if lines[0] != testStory().Title {
		t.Errorf("first line = %q", lines[0])
	}
	if len([]rune(lines[1])) != len([]rune(lines[0])) {
		t.Error("underline length should match the title")
	}
	if !strings.Contains(out, "\n\nLe dragon <sourit> & s'envola.\n") {
		t.Errorf("paragraph missing:\n%s", out)
	}
}

func TestHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := (HTML{}).Export(&buf, testStory()); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		t.Fatalf("output is not parseable HTML: %v", err)
	}

	if lang, _ := doc.Find("html").Attr("lang"); lang != "fr" {
		t.Errorf("html lang = %q, want fr", lang)
	}
	if got := doc.Find("h1").Text(); got != testStory().Title {
		t.Errorf("h1 = %q", got)
	}
	if got := doc.Find("title").Text(); got != testStory().Title {
		t.Errorf("title = %q", got)
	}

	paras := doc.Find("article p").Not(".meta")
	if paras.Length() != 3 {
		t.Fatalf("found %d story paragraphs, want 3", paras.Length())
	}
	if got := paras.Eq(1).Text(); got != "Le dragon <sourit> & s'envola." {
		t.Errorf("escaped paragraph round-trip = %q", got)
	}
	if !doc.Find("p.breathing").Is("p") {
		t.Error("breathing paragraph should carry its section class")
	}
	if doc.Find("sourit").Length() != 0 {
		t.Error("story text was injected as markup")
	}
}

func TestHTMLWithoutSections(t *testing.T) {
	st := testStory()
	st.Sections = nil

	var buf bytes.Buffer
	if err := (HTML{}).Export(&buf, st); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if n := doc.Find("article p").Not(".meta").Length(); n != 3 {
		t.Errorf("found %d paragraphs, want 3", n)
	}
}

func TestRTF(t *testing.T) {
	var buf bytes.Buffer
	if err := (RTF{}).Export(&buf, testStory()); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, `{\rtf1`) || !strings.HasSuffix(out, "}\n") {
		t.Errorf("not an RTF document:\n%s", out)
	}
	for _, want := range []string{`L\u233?a`, `\{doucement\}`, `\par`} {
		if !strings.Contains(out, want) {
			t.Errorf("RTF missing %q", want)
		}
	}
	if strings.Count(out, "{")-strings.Count(out, `\{`) != strings.Count(out, "}")-strings.Count(out, `\}`) {
		t.Error("unbalanced RTF groups")
	}
}

func TestRTFEscape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{`a\b`, `a\\b`},
		{"é", `\u233?`},
		{"€", `\u8364?`},
		{"�", `\u-3?`},
		{"🐉", `\u-10179?\u-9207?`},
	}
	for _, tt := range tests {
		if got := rtfEscape(tt.in); got != tt.want {
			t.Errorf("rtfEscape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPDF(t *testing.T) {
	var buf bytes.Buffer
	if err := (PDF{}).Export(&buf, testStory()); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatal("output is not a PDF")
	}

	pages, err := api.PageCount(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatalf("PageCount() error = %v", err)
	}
	if pages != 1 {
		t.Errorf("short story has %d pages, want 1", pages)
	}
}

func TestPDFPagination(t *testing.T) {
	st := testStory()
	para := strings.Repeat("The sleepy dragon counted the stars one by one. ", 12)
	st.Body = strings.TrimSpace(strings.Repeat(para+"\n\n", 12))

	doc := layoutPDF(st)
	if len(doc.Pages) < 2 {
		t.Fatalf("layout produced %d pages, want at least 2", len(doc.Pages))
	}
	for num, page := range doc.Pages {
		for _, text := range page.Content.Text {
			if text.Pos[1] < pdfBottom-pdfLineHeight || text.Pos[1] > pdfTop {
				t.Errorf("page %s line at y=%v is outside the margins", num, text.Pos[1])
			}
		}
	}

	var buf bytes.Buffer
	if err := (PDF{}).Export(&buf, st); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	pages, err := api.PageCount(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatalf("PageCount() error = %v", err)
	}
	if pages != len(doc.Pages) {
		t.Errorf("PDF has %d pages, layout planned %d", pages, len(doc.Pages))
	}
}

func TestWrap(t *testing.T) {
	lines := wrap("one two three four five six", 9)
	want := []string{"one two", "three", "four five", "six"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("wrap() = %q, want %q", lines, want)
	}
	if got := wrap("supercalifragilistic word", 5); got[0] != "supercalifragilistic" {
		t.Errorf("long word should keep its own line, got %q", got)
	}
	if got := wrap("   ", 10); len(got) != 0 {
		t.Errorf("blank text wrapped to %q", got)
	}
}

func TestEPUB(t *testing.T) {
	var buf bytes.Buffer
	if err := (EPUB{}).Export(&buf, testStory()); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("not a zip: %v", err)
	}
	if zr.File[0].Name != "mimetype" {
		t.Errorf("first entry = %s, want mimetype", zr.File[0].Name)
	}
}

func TestWriteCollection(t *testing.T) {
	other := testStory()
	other.Title = "Owls"

	var buf bytes.Buffer
	if err := WriteCollection(&buf, "Favorites", "fr", []*story.Story{testStory(), other}); err != nil {
		t.Fatalf("WriteCollection() error = %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatal(err)
	}
	chapters := 0
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "OEBPS/chapters/") {
			chapters++
		}
	}
	if chapters != 2 {
		t.Errorf("collection has %d chapters, want 2", chapters)
	}

	if err := WriteCollection(&buf, "Empty", "en", nil); err == nil {
		t.Error("expected error for empty collection")
	}
}

func TestFilename(t *testing.T) {
	st := testStory()

	tests := []struct {
		pattern string
		want    string
	}{
		{"", "2025-06-07_Lea_dragons_fr"},
		{DefaultPattern, "2025-06-07_Lea_dragons_fr"},
		{"{title}", "Dragons-un-conte-de-la-Vallee-des-Dragons"},
		{"{lang}/{theme}/../{id}", "fr-dragons-6f1c2a9e-3b7d-4c1e-9a55-1d2e3f4a5b6c"},
		{"{date}_{time}", "2025-06-07_203000"},
		{"???", "story"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			if got := Filename(tt.pattern, st); got != tt.want {
				t.Errorf("Filename(%q) = %q, want %q", tt.pattern, got, tt.want)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Léa & Noël", "Lea-Noel"},
		{"  spaces  ", "spaces"},
		{"a/b\\c:d", "a-b-c-d"},
		{"__x__", "x"},
		{strings.Repeat("a", 200), strings.Repeat("a", 96)},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	r := DefaultRegistry(nil)

	path, err := r.WriteFile(dir, "", testStory(), "txt")
	if err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if filepath.Base(path) != "2025-06-07_Lea_dragons_fr.txt" {
		t.Errorf("path = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || !strings.HasPrefix(string(data), "Dragons") {
		t.Errorf("file content = %q, %v", data, err)
	}

	if _, err := r.WriteFile(dir, "", testStory(), "doc"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("WriteFile(doc) error = %v", err)
	}
}

func TestWriteFileKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	r := DefaultRegistry(nil)

	first := testStory()
	first.Body = "first story"
	first.Sections = nil
	second := testStory()
	second.ID = "0d9b8f57-2c1a-4e3b-8f6d-7a6b5c4d3e2f"
	second.Body = "second story"
	second.Sections = nil
	third := testStory()
	third.ID = "4a3b2c1d-0e9f-4a8b-9c7d-6e5f4a3b2c1d"
	third.Body = "third story"
	third.Sections = nil

	var paths []string
	for _, st := range []*story.Story{first, second, third} {
		path, err := r.WriteFile(dir, DefaultPattern, st, "txt")
		if err != nil {
			t.Fatalf("WriteFile(%s) error = %v", st.ID, err)
		}
		paths = append(paths, path)
	}

	want := []string{
		"2025-06-07_Lea_dragons_fr.txt",
		"2025-06-07_Lea_dragons_fr-2.txt",
		"2025-06-07_Lea_dragons_fr-3.txt",
	}
	for i, path := range paths {
		if filepath.Base(path) != want[i] {
			t.Errorf("path[%d] = %s, want %s", i, filepath.Base(path), want[i])
		}
	}

	for i, body := range []string{"first story", "second story", "third story"} {
		data, err := os.ReadFile(paths[i])
		if err != nil {
			t.Fatalf("ReadFile(%s) error = %v", paths[i], err)
		}
		if !strings.Contains(string(data), body) {
			t.Errorf("%s = %q, want it to contain %q", filepath.Base(paths[i]), data, body)
		}
	}
}

func TestWriteFileFailureFreesName(t *testing.T) {
	dir := t.TempDir()
	r := DefaultRegistry(nil)
	r.Register(failing{})

	if _, err := r.WriteFile(dir, "", testStory(), "fail"); err == nil {
		t.Fatal("expected export error")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("failed export left %d files behind", len(entries))
	}
}

type failing struct{}

func (failing) Format() string                       { return "fail" }
func (failing) Extension() string                    { return "fail" }
func (failing) ContentType() string                  { return "text/plain" }
func (failing) Export(io.Writer, *story.Story) error { return errors.New("boom") }

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	r := DefaultRegistry(nil)
	r.Register(failing{})

	res, err := r.WriteAll(dir, "", testStory(), []string{"txt", "html", "rtf", "fail"})
	if err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if len(res.Files) != 3 {
		t.Errorf("wrote %d files, want 3: %v", len(res.Files), res.Files)
	}
	if _, ok := res.Errors["fail"]; !ok {
		t.Errorf("failing format not reported: %v", res.Errors)
	}
	if !strings.HasPrefix(filepath.Base(res.Dir), "2025-06-07_Lea_dragons_fr_") {
		t.Errorf("folder = %s", res.Dir)
	}
	for _, p := range res.Files {
		if filepath.Dir(p) != res.Dir {
			t.Errorf("%s is not inside %s", p, res.Dir)
		}
	}
	if _, err := os.Stat(filepath.Join(res.Dir, "2025-06-07_Lea_dragons_fr.fail")); !os.IsNotExist(err) {
		t.Error("failed export left a partial file behind")
	}

	if _, err := r.WriteAll(dir, "", testStory(), []string{"fail"}); err == nil {
		t.Error("expected error when no format succeeds")
	}
}
