package jsonl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cdmessin/grim-hollow-pack/internal/document"
	"github.com/cdmessin/grim-hollow-pack/internal/packdb"
)

// writeStore writes a raw legacy pack file for tests.
func writeStore(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "legacy.db")
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testDocs() []*document.Document {
	return []*document.Document{
		document.FromMap(map[string]any{
			"_id":  "bbb",
			"_key": "!items!bbb",
			"name": "Shield",
		}),
		document.FromMap(map[string]any{
			"_id":  "aaa",
			"_key": "!items!aaa",
			"name": "Dagger",
			"type": "weapon",
		}),
	}
}

func TestDriver_Registered(t *testing.T) {
	if !packdb.IsRegistered(packdb.TypeJSONL) {
		t.Error("Expected jsonl driver to self-register")
	}
}

func TestDriver_CompileAndExtract(t *testing.T) {
	ctx := context.Background()
	drv := &Driver{}
	packPath := filepath.Join(t.TempDir(), "items.db")

	if err := drv.Compile(ctx, packPath, testDocs()); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if !drv.Exists(packPath) {
		t.Fatal("Exists() = false after compile")
	}

	var keys []string
	err := drv.Extract(ctx, packPath, packdb.ExtractOptions{
		Transform: func(doc *document.Document) (bool, error) {
			keys = append(keys, doc.Key)
			return false, nil
		},
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	want := []string{"!items!aaa", "!items!bbb"}
	if len(keys) != len(want) {
		t.Fatalf("extracted %d documents, want %d", len(keys), len(want))
	}
	for i, key := range keys {
		if key != want[i] {
			t.Errorf("keys[%d] = %v, want %v", i, key, want[i])
		}
	}
}

func TestDriver_CompileWritesSortedLines(t *testing.T) {
	drv := &Driver{}
	packPath := filepath.Join(t.TempDir(), "items.db")

	if err := drv.Compile(context.Background(), packPath, testDocs()); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	data, err := os.ReadFile(packPath)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	// The key rides along inside each line; lines are key-ordered.
	if !strings.Contains(lines[0], `"_key":"!items!aaa"`) {
		t.Errorf("line 0 = %s, want key !items!aaa", lines[0])
	}
	if !strings.Contains(lines[1], `"_key":"!items!bbb"`) {
		t.Errorf("line 1 = %s, want key !items!bbb", lines[1])
	}

	if _, err := os.Stat(packPath + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after compile")
	}
}

func TestDriver_CompileDeterministic(t *testing.T) {
	drv := &Driver{}
	packPath := filepath.Join(t.TempDir(), "items.db")

	if err := drv.Compile(context.Background(), packPath, testDocs()); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	first, err := os.ReadFile(packPath)
	if err != nil {
		t.Fatal(err)
	}

	if err := drv.Compile(context.Background(), packPath, testDocs()); err != nil {
		t.Fatalf("second Compile() error = %v", err)
	}
	second, err := os.ReadFile(packPath)
	if err != nil {
		t.Fatal(err)
	}

	if string(first) != string(second) {
		t.Error("recompiling identical documents changed the pack file")
	}
}

func TestDriver_LastLineWins(t *testing.T) {
	packPath := writeStore(t,
		`{"_id":"aaa","_key":"!items!aaa","name":"First Version"}`,
		`{"_id":"bbb","_key":"!items!bbb","name":"Shield"}`,
		`{"_id":"aaa","_key":"!items!aaa","name":"Second Version"}`,
	)

	drv := &Driver{}
	names := make(map[string]string)
	err := drv.Extract(context.Background(), packPath, packdb.ExtractOptions{
		Transform: func(doc *document.Document) (bool, error) {
			names[doc.ID] = doc.Name
			return false, nil
		},
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if len(names) != 2 {
		t.Fatalf("expected 2 live documents, got %d", len(names))
	}
	if names["aaa"] != "Second Version" {
		t.Errorf("names[aaa] = %v, want the superseding line", names["aaa"])
	}
}

func TestDriver_TombstoneRemovesDocument(t *testing.T) {
	packPath := writeStore(t,
		`{"_id":"aaa","_key":"!items!aaa","name":"Dagger"}`,
		`{"_id":"bbb","_key":"!items!bbb","name":"Shield"}`,
		`{"$$deleted":true,"_id":"bbb"}`,
	)

	drv := &Driver{}
	count, err := drv.Count(context.Background(), packPath)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1 after tombstone", count)
	}
}

func TestDriver_ExtractMissingStore(t *testing.T) {
	drv := &Driver{}
	packPath := filepath.Join(t.TempDir(), "never-compiled.db")

	err := drv.Extract(context.Background(), packPath, packdb.ExtractOptions{})
	if !errors.Is(err, packdb.ErrPackNotFound) {
		t.Errorf("Extract() error = %v, want ErrPackNotFound", err)
	}
}

func TestDriver_ExtractMalformedLine(t *testing.T) {
	packPath := writeStore(t,
		`{"_id":"aaa","_key":"!items!aaa","name":"Dagger"}`,
		`{not json`,
	)

	drv := &Driver{}
	err := drv.Extract(context.Background(), packPath, packdb.ExtractOptions{})
	if err == nil {
		t.Fatal("Expected error for malformed line")
	}
	if !strings.Contains(err.Error(), packPath) {
		t.Errorf("expected error to name the pack file, got %v", err)
	}
}

func TestDriver_CompileRejectsInvalidDocument(t *testing.T) {
	drv := &Driver{}
	packPath := filepath.Join(t.TempDir(), "items.db")

	docs := []*document.Document{
		document.FromMap(map[string]any{"_id": "abc", "name": "No Key"}),
	}

	err := drv.Compile(context.Background(), packPath, docs)
	if !errors.Is(err, document.ErrMissingKey) {
		t.Errorf("Compile() error = %v, want ErrMissingKey", err)
	}
}

func TestDriver_CompileRejectsDuplicateKey(t *testing.T) {
	drv := &Driver{}
	packPath := filepath.Join(t.TempDir(), "items.db")

	docs := []*document.Document{
		document.FromMap(map[string]any{"_id": "a1", "_key": "!items!dup", "name": "First"}),
		document.FromMap(map[string]any{"_id": "a2", "_key": "!items!dup", "name": "Second"}),
	}

	err := drv.Compile(context.Background(), packPath, docs)
	if err == nil {
		t.Fatal("Expected error for duplicate keys")
	}
	if !strings.Contains(err.Error(), "!items!dup") {
		t.Errorf("expected error to name the duplicate key, got %v", err)
	}
}
