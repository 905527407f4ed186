package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("with explicit path", func(t *testing.T) {
		dir, err := New("/tmp/test-bedtime")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir.Path() != "/tmp/test-bedtime" {
			t.Errorf("expected path /tmp/test-bedtime, got %s", dir.Path())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		dir, err := New("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, DefaultDirName)
		if dir.Path() != expected {
			t.Errorf("expected path %s, got %s", expected, dir.Path())
		}
	})
}

func TestDir_Paths(t *testing.T) {
	dir, _ := New("/tmp/test-bedtime")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"ConfigPath", dir.ConfigPath(), "/tmp/test-bedtime/config.yaml"},
		{"LibraryPath", dir.LibraryPath(), "/tmp/test-bedtime/stories.json"},
		{"SettingsPath", dir.SettingsPath(), "/tmp/test-bedtime/settings.json"},
		{"CatalogPath", dir.CatalogPath(), "/tmp/test-bedtime/catalog.json"},
		{"RecoveryPath", dir.RecoveryPath(), "/tmp/test-bedtime/recovery.json"},
		{"ExportsDir", dir.ExportsDir(), "/tmp/test-bedtime/exports"},
		{"LogPath", dir.LogPath(), "/tmp/test-bedtime/logs/bedtime.log"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, tt.got)
			}
		})
	}
}

func TestDir_EnsureExists(t *testing.T) {
	tmpDir := t.TempDir()
	bedtimeDir := filepath.Join(tmpDir, "bedtime-test")

	dir, err := New(bedtimeDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dir.Exists() {
		t.Error("directory should not exist before EnsureExists")
	}

	if err := dir.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}

	if !dir.Exists() {
		t.Error("directory should exist after EnsureExists")
	}
	for _, sub := range []string{dir.ExportsDir(), dir.LogsDir()} {
		if _, err := os.Stat(sub); os.IsNotExist(err) {
			t.Errorf("%s should exist after EnsureExists", sub)
		}
	}
}

func TestDir_ConfigExists(t *testing.T) {
	tmpDir := t.TempDir()
	dir, _ := New(tmpDir)

	if dir.ConfigExists() {
		t.Error("config should not exist initially")
	}

	if err := os.WriteFile(dir.ConfigPath(), []byte("log_level: info\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if !dir.ConfigExists() {
		t.Error("config should exist after creation")
	}
}
