package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMatcher_Extensions(t *testing.T) {
	m, err := NewMatcher([]string{".tmp", ".LOG"})
	if err != nil {
		t.Fatalf("NewMatcher() error = %v", err)
	}

	tests := []struct {
		rel  string
		want bool
	}{
		{"notes.tmp", true},
		{"notes.TMP", true},
		{"sub/dir/server.log", true},
		{"notes.txt", false},
		{"tmp", false},
		{"archive.tmp.gz", false},
	}

	for _, tt := range tests {
		if got := m.Excluded(tt.rel); got != tt.want {
			t.Errorf("Excluded(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}
}

func TestMatcher_Globs(t *testing.T) {
	m, err := NewMatcher([]string{"node_modules/**", "*.bak"})
	if err != nil {
		t.Fatalf("NewMatcher() error = %v", err)
	}

	if !m.Excluded("node_modules/lodash/index.js") {
		t.Error("node_modules glob should exclude nested files")
	}
	if !m.Excluded("old.bak") {
		t.Error("*.bak should exclude top-level .bak files")
	}
	if m.Excluded("src/main.go") {
		t.Error("src/main.go should not be excluded")
	}
}

func TestMatcher_InvalidGlob(t *testing.T) {
	if _, err := NewMatcher([]string{"[unclosed"}); err == nil {
		t.Fatal("NewMatcher() with invalid glob: want error, got nil")
	}
}

func TestLoadExclusions_MissingFile(t *testing.T) {
	m, err := LoadExclusions(filepath.Join(t.TempDir(), "nope.txt"))
	if err != nil {
		t.Fatalf("LoadExclusions() error = %v", err)
	}
	if !m.Empty() {
		t.Error("missing file should exclude nothing")
	}
	if m.Excluded("anything.tmp") {
		t.Error("missing file should exclude nothing")
	}
}

func TestSaveExclusions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude_patterns.txt")

	if err := SaveExclusions(path, []string{".tmp", ".log"}); err != nil {
		t.Fatalf("SaveExclusions() error = %v", err)
	}

	m, err := LoadExclusions(path)
	if err != nil {
		t.Fatalf("LoadExclusions() error = %v", err)
	}
	if !m.Excluded("junk.tmp") {
		t.Error(".tmp should be excluded after save/load")
	}

	// An empty entry list deletes the file.
	if err := SaveExclusions(path, nil); err != nil {
		t.Fatalf("SaveExclusions(nil) error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("empty save should delete the exclusion file")
	}
}
