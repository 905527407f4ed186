package svcctx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jackzampolin/bedtime/internal/catalog"
	"github.com/jackzampolin/bedtime/internal/config"
	"github.com/jackzampolin/bedtime/internal/home"
	"github.com/jackzampolin/bedtime/internal/story"
)

func TestBuild(t *testing.T) {
	h, err := home.New(filepath.Join(t.TempDir(), "bedtime"))
	if err != nil {
		t.Fatal(err)
	}

	svc, err := Build(t.Context(), BuildOptions{Home: h})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if !h.Exists() {
		t.Error("home directory was not created")
	}
	if _, err := os.Stat(h.SettingsPath()); err != nil {
		t.Errorf("settings were not seeded: %v", err)
	}
	if got := config.GetString(t.Context(), svc.ConfigStore, config.KeyDefaultLanguage, ""); got != "en" {
		t.Errorf("default language = %q, want en", got)
	}
	if svc.Catalog.Source() != catalog.BuiltinSource {
		t.Errorf("catalog source = %q, want builtin", svc.Catalog.Source())
	}
	if svc.Library.Len() != 0 {
		t.Errorf("library has %d stories, want 0", svc.Library.Len())
	}
	if len(svc.Exporters.Formats()) == 0 {
		t.Error("no exporters registered")
	}

	st, err := svc.Generator.Generate(story.Request{Topic: "owls", Language: "en"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if st.Body == "" {
		t.Error("generated story has no body")
	}
}

func TestBuild_RequiresHome(t *testing.T) {
	if _, err := Build(t.Context(), BuildOptions{}); err == nil {
		t.Error("expected error without a home directory")
	}
}

func TestContextAccessors(t *testing.T) {
	ctx := t.Context()
	if CatalogFrom(ctx) != nil || LibraryFrom(ctx) != nil {
		t.Error("expected nil services on a bare context")
	}
	if LoggerFrom(ctx) == nil {
		t.Error("LoggerFrom should fall back to the default logger")
	}

	h, _ := home.New(t.TempDir())
	svc := &Services{Home: h}
	ctx = WithServices(ctx, svc)
	if HomeFrom(ctx) != h {
		t.Error("HomeFrom did not return the attached home")
	}
	if ServicesFrom(ctx) != svc {
		t.Error("ServicesFrom did not return the attached services")
	}
}
