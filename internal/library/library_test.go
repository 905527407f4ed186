package library

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackzampolin/bedtime/internal/schema"
	"github.com/jackzampolin/bedtime/internal/story"
)

func newStory(id, title, lang string) *story.Story {
	return &story.Story{
		ID:        id,
		Title:     title,
		Body:      "Once upon a time " + title + ".",
		Language:  lang,
		Theme:     "ocean",
		Tone:      story.ToneGentle,
		Length:    story.LengthShort,
		Request:   story.Request{Topic: strings.ToLower(title), ChildName: "Mia", Language: lang},
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "stories.json"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s
}

func TestOpenMissingFile(t *testing.T) {
	s := openStore(t)
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Error("Open should not create the file")
	}
}

func TestSaveAndGet(t *testing.T) {
	ctx := t.Context()
	s := openStore(t)

	if err := s.Save(ctx, newStory("a", "Owls", "en")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Save(ctx, newStory("b", "Whales", "fr")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	list := s.List(Filter{})
	if len(list) != 2 || list[0].ID != "b" || list[1].ID != "a" {
		t.Fatalf("List() order = %v, want newest first", ids(list))
	}

	got, err := s.Get("a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "Owls" || got.Request.ChildName != "Mia" {
		t.Errorf("Get() = %+v", got)
	}

	got.Title = "changed"
	again, _ := s.Get("a")
	if again.Title != "Owls" {
		t.Error("Get() must return a copy")
	}

	if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	reopened, err := Open(s.Path())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if reopened.Len() != 2 {
		t.Errorf("reopened Len() = %d, want 2", reopened.Len())
	}
}

func TestSaveUpsertKeepsBody(t *testing.T) {
	ctx := t.Context()
	s := openStore(t)

	orig := newStory("a", "Owls", "en")
	if err := s.Save(ctx, orig); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, newStory("b", "Bears", "en")); err != nil {
		t.Fatal(err)
	}

	edited := *orig
	edited.Body = "rewritten"
	edited.Favorite = true
	if err := s.Save(ctx, &edited); err != nil {
		t.Fatal(err)
	}

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	got, _ := s.Get("a")
	if got.Body != orig.Body {
		t.Errorf("Body = %q, saved bodies must not change", got.Body)
	}
	if !got.Favorite {
		t.Error("Favorite should be updated by upsert")
	}
	if list := s.List(Filter{}); list[0].ID != "b" {
		t.Errorf("upsert moved story: %v", ids(list))
	}
}

func TestSaveFailureRollsBack(t *testing.T) {
	ctx := t.Context()
	path := filepath.Join(t.TempDir(), "stories.json")
	s, err := Open(path, WithRetry(1, 0))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Save(ctx, newStory("a", "Owls", "en")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// A non-empty directory at the library path makes the final rename fail.
	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := os.MkdirAll(filepath.Join(path, "blocker"), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	if err := s.Save(ctx, newStory("b", "Whales", "en")); err == nil {
		t.Fatal("Save() succeeded with an unwritable library")
	}
	if s.Len() != 1 {
		t.Errorf("Len() after failed save = %d, want 1", s.Len())
	}
	if got := ids(s.List(Filter{})); len(got) != 1 || got[0] != "a" {
		t.Errorf("List() after failed save = %v, want [a]", got)
	}
	if _, err := s.Get("b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(b) error = %v, want ErrNotFound", err)
	}

	fav := newStory("a", "Owls", "en")
	fav.Favorite = true
	if err := s.Save(ctx, fav); err == nil {
		t.Fatal("Save() of existing story succeeded with an unwritable library")
	}
	if got, _ := s.Get("a"); got == nil || got.Favorite {
		t.Errorf("favorite flag changed by failed save: %+v", got)
	}

	// Once the path is writable again the failed story does not reappear.
	if err := os.RemoveAll(path); err != nil {
		t.Fatalf("RemoveAll() error = %v", err)
	}
	if err := s.Save(ctx, newStory("c", "Foxes", "en")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := ids(reopened.List(Filter{})); len(got) != 2 || got[0] != "c" || got[1] != "a" {
		t.Errorf("reopened library = %v, want [c a]", got)
	}
}

func TestSaveRejectsMissingID(t *testing.T) {
	s := openStore(t)
	if err := s.Save(t.Context(), &story.Story{Title: "x"}); err == nil {
		t.Error("expected error for story without id")
	}
}

func TestFavorites(t *testing.T) {
	ctx := t.Context()
	s := openStore(t)
	for _, st := range []*story.Story{newStory("a", "Owls", "en"), newStory("b", "Bears", "en")} {
		if err := s.Save(ctx, st); err != nil {
			t.Fatal(err)
		}
	}

	st, err := s.ToggleFavorite(ctx, "a")
	if err != nil || !st.Favorite {
		t.Fatalf("ToggleFavorite() = %v, %v", st, err)
	}
	st, err = s.ToggleFavorite(ctx, "a")
	if err != nil || st.Favorite {
		t.Fatalf("second ToggleFavorite() = %v, %v", st, err)
	}
	if _, err := s.SetFavorite(ctx, "b", true); err != nil {
		t.Fatal(err)
	}

	favs := s.List(Filter{FavoritesOnly: true})
	if len(favs) != 1 || favs[0].ID != "b" {
		t.Errorf("favorites = %v, want [b]", ids(favs))
	}

	if _, err := s.SetFavorite(ctx, "zzz", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetFavorite(missing) error = %v", err)
	}
}

func TestListFilter(t *testing.T) {
	ctx := t.Context()
	s := openStore(t)
	for _, st := range []*story.Story{
		newStory("1", "Sleepy Owls", "en"),
		newStory("2", "Les Baleines", "fr"),
		newStory("3", "Brave Bears", "en"),
	} {
		if err := s.Save(ctx, st); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{}, []string{"3", "2", "1"}},
		{"language", Filter{Language: "EN"}, []string{"3", "1"}},
		{"query title", Filter{Query: "OWLS"}, []string{"1"}},
		{"query body", Filter{Query: "once upon"}, []string{"3", "2", "1"}},
		{"query topic", Filter{Query: "baleines"}, []string{"2"}},
		{"query and language", Filter{Query: "bears", Language: "fr"}, nil},
		{"no match", Filter{Query: "pirates"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(s.List(tt.filter))
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("List(%+v) = %v, want %v", tt.filter, got, tt.want)
			}
		})
	}
}

func TestDeleteAndUndo(t *testing.T) {
	ctx := t.Context()
	s := openStore(t)
	for _, st := range []*story.Story{newStory("a", "Owls", "en"), newStory("b", "Bears", "en")} {
		if err := s.Save(ctx, st); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := s.UndoDelete(ctx); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("UndoDelete() before delete error = %v", err)
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get("a"); !errors.Is(err, ErrNotFound) {
		t.Error("deleted story still present")
	}
	if err := s.Delete(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v", err)
	}

	restored, err := s.UndoDelete(ctx)
	if err != nil {
		t.Fatalf("UndoDelete() error = %v", err)
	}
	if restored.ID != "a" {
		t.Errorf("restored %q, want a", restored.ID)
	}
	if list := s.List(Filter{}); len(list) != 2 || list[0].ID != "a" {
		t.Errorf("List() after undo = %v, want [a b]", ids(list))
	}

	if _, err := s.UndoDelete(ctx); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("second UndoDelete() error = %v", err)
	}
}

func TestBackupAndRecovery(t *testing.T) {
	ctx := t.Context()
	s := openStore(t)

	if err := s.Save(ctx, newStory("a", "Owls", "en")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(s.BackupPath()); !os.IsNotExist(err) {
		t.Error("first save should not create a backup")
	}
	if err := s.Save(ctx, newStory("b", "Bears", "en")); err != nil {
		t.Fatal(err)
	}

	backup, err := os.ReadFile(s.BackupPath())
	if err != nil {
		t.Fatalf("backup missing: %v", err)
	}
	if err := schema.Validate(schema.Library, backup); err != nil {
		t.Fatalf("backup is not a valid library: %v", err)
	}

	if err := os.WriteFile(s.Path(), []byte("{corrupt"), 0o644); err != nil {
		t.Fatal(err)
	}
	recovered, err := Open(s.Path())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if recovered.Len() != 1 {
		t.Fatalf("recovered Len() = %d, want 1 (from backup)", recovered.Len())
	}

	if err := recovered.Save(ctx, newStory("c", "Cats", "en")); err != nil {
		t.Fatal(err)
	}
	backup, _ = os.ReadFile(s.BackupPath())
	if bytes.Contains(backup, []byte("{corrupt")) {
		t.Error("corrupt file overwrote the backup")
	}
}

func TestBothFilesCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stories.json")
	for _, p := range []string{path, path + BackupSuffix} {
		if err := os.WriteFile(p, []byte("nope"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestImportExport(t *testing.T) {
	ctx := t.Context()
	src := openStore(t)
	for _, st := range []*story.Story{newStory("a", "Owls", "en"), newStory("b", "Bears", "fr")} {
		if err := src.Save(ctx, st); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := src.SetFavorite(ctx, "a", true); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := src.Export(&buf, Filter{}); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	dst := openStore(t)
	if err := dst.Save(ctx, newStory("a", "Owls", "en")); err != nil {
		t.Fatal(err)
	}
	added, err := dst.Import(ctx, &buf)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if added != 1 {
		t.Errorf("Import() added %d, want 1", added)
	}
	if got := ids(dst.List(Filter{})); strings.Join(got, ",") != "b,a" {
		t.Errorf("List() after import = %v, want [b a]", got)
	}
	if a, _ := dst.Get("a"); !a.Favorite {
		t.Error("import should carry the favorite flag")
	}

	var favs bytes.Buffer
	if err := src.Export(&favs, Filter{FavoritesOnly: true}); err != nil {
		t.Fatal(err)
	}
	var exported []story.Story
	if err := json.Unmarshal(favs.Bytes(), &exported); err != nil {
		t.Fatal(err)
	}
	if len(exported) != 1 || exported[0].ID != "a" {
		t.Errorf("favorites export = %+v", exported)
	}
}

func TestImportRejectsInvalid(t *testing.T) {
	ctx := t.Context()
	s := openStore(t)

	tests := []string{
		`{"not":"an array"}`,
		`[{"id":"x","title":"no body","language":"en","created_at":"2025-01-01T00:00:00Z"}]`,
		`not json`,
	}
	for _, doc := range tests {
		if _, err := s.Import(ctx, strings.NewReader(doc)); err == nil {
			t.Errorf("Import(%q) should fail", doc)
		}
	}
	if s.Len() != 0 {
		t.Errorf("rejected imports changed the library: Len() = %d", s.Len())
	}
}

func TestConcurrentSaves(t *testing.T) {
	ctx := t.Context()
	s := openStore(t)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := string(rune('a' + i))
			if err := s.Save(ctx, newStory(id, "Story "+id, "en")); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	reopened, err := Open(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Len() != 20 {
		t.Errorf("Len() = %d, want 20", reopened.Len())
	}
}

func TestRecovery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recovery.json")

	st, err := ReadRecovery(path)
	if err != nil || st != nil {
		t.Fatalf("ReadRecovery() on missing file = %v, %v", st, err)
	}

	if err := WriteRecovery(path, newStory("r", "Rabbits", "en")); err != nil {
		t.Fatalf("WriteRecovery() error = %v", err)
	}
	st, err = ReadRecovery(path)
	if err != nil || st == nil || st.ID != "r" {
		t.Fatalf("ReadRecovery() = %v, %v", st, err)
	}

	if err := ClearRecovery(path); err != nil {
		t.Fatalf("ClearRecovery() error = %v", err)
	}
	if err := ClearRecovery(path); err != nil {
		t.Errorf("ClearRecovery() on missing file error = %v", err)
	}
}

func ids(list []*story.Story) []string {
	var out []string
	for _, st := range list {
		out = append(out, st.ID)
	}
	return out
}
