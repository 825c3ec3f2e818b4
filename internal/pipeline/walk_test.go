package pipeline

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSourceFiles(t *testing.T) {
	dir := t.TempDir()
	for _, rel := range []string{
		"zeta.yml",
		"alpha.yaml",
		"nested/beta.yml",
		"nested/readme.md",
		"notes.txt",
		"data.json",
	} {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := sourceFiles(dir)
	if err != nil {
		t.Fatalf("sourceFiles() error = %v", err)
	}

	want := []string{
		filepath.Join(dir, "alpha.yaml"),
		filepath.Join(dir, "nested", "beta.yml"),
		filepath.Join(dir, "zeta.yml"),
	}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("sourceFiles() = %v, want %v", files, want)
	}
}

func TestSourceFiles_MissingDir(t *testing.T) {
	_, err := sourceFiles(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestMatchesInclude(t *testing.T) {
	tests := []struct {
		name     string
		rel      string
		patterns []string
		want     bool
	}{
		{
			name:     "empty patterns match everything",
			rel:      "evocation/fireball.yml",
			patterns: nil,
			want:     true,
		},
		{
			name:     "exact match",
			rel:      "fireball.yml",
			patterns: []string{"fireball.yml"},
			want:     true,
		},
		{
			name:     "doublestar crosses directories",
			rel:      "evocation/third/fireball.yml",
			patterns: []string{"**/fireball.yml"},
			want:     true,
		},
		{
			name:     "subtree pattern",
			rel:      "evocation/fireball.yml",
			patterns: []string{"evocation/**"},
			want:     true,
		},
		{
			name:     "no match",
			rel:      "necromancy/animate-dead.yml",
			patterns: []string{"evocation/**"},
			want:     false,
		},
		{
			name:     "second pattern matches",
			rel:      "necromancy/animate-dead.yml",
			patterns: []string{"evocation/**", "necromancy/**"},
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchesInclude(tt.rel, tt.patterns); got != tt.want {
				t.Errorf("matchesInclude(%q, %v) = %v, want %v", tt.rel, tt.patterns, got, tt.want)
			}
		})
	}
}
