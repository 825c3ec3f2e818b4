package document

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestFromMap_KnownFields(t *testing.T) {
	d := FromMap(map[string]any{
		"_id":    "abc123",
		"_key":   "!items!abc123",
		"name":   "Glaive",
		"label":  "Strike",
		"folder": "fld1",
		// float64 is what the JSON decoder produces for numbers.
		"ownership": map[string]any{"default": float64(2), "user1": 3},
		"flags":     map[string]any{"gh": map[string]any{"tier": 1}},
		"_stats":    map[string]any{"systemVersion": "2.4.1"},
		"system":    map[string]any{"rarity": "rare"},
	})

	if d.ID != "abc123" {
		t.Errorf("ID = %q, want abc123", d.ID)
	}
	if d.Key != "!items!abc123" {
		t.Errorf("Key = %q, want !items!abc123", d.Key)
	}
	if d.Name != "Glaive" || d.Label != "Strike" || d.Folder != "fld1" {
		t.Errorf("display fields = %q/%q/%q", d.Name, d.Label, d.Folder)
	}
	if d.Ownership["default"] != 2 || d.Ownership["user1"] != 3 {
		t.Errorf("ownership = %v, want default:2 user1:3", d.Ownership)
	}
	if d.Extra != nil {
		t.Errorf("expected no extra fields, got %v", d.Extra)
	}
}

func TestFromMap_ExtraPreserved(t *testing.T) {
	m := map[string]any{
		"_id":  "abc",
		"_key": "!items!abc",
		"type": "weapon",
		"img":  "icons/weapon.webp",
		"sort": 100000,
	}
	d := FromMap(m)

	if d.Extra["type"] != "weapon" || d.Extra["img"] != "icons/weapon.webp" {
		t.Errorf("expected unknown fields in Extra, got %v", d.Extra)
	}

	out := d.ToMap()
	for _, k := range []string{"_id", "_key", "type", "img", "sort"} {
		if _, ok := out[k]; !ok {
			t.Errorf("ToMap() missing key %q", k)
		}
	}
}

func TestFromMap_NullFolderDropped(t *testing.T) {
	d := FromMap(map[string]any{"_id": "a", "_key": "!items!a", "folder": nil})
	if d.Folder != "" {
		t.Errorf("Folder = %q, want empty", d.Folder)
	}
	if _, ok := d.ToMap()["folder"]; ok {
		t.Errorf("expected null folder omitted from ToMap()")
	}
}

func TestToMap_PresencePreserved(t *testing.T) {
	// An empty-but-present mapping must survive the round trip; an
	// absent one must stay absent.
	d := FromMap(map[string]any{
		"_id":    "a",
		"_key":   "!items!a",
		"_stats": map[string]any{},
		"items":  []any{},
	})
	out := d.ToMap()

	stats, ok := out["_stats"].(map[string]any)
	if !ok || len(stats) != 0 {
		t.Errorf("expected empty _stats preserved, got %v", out["_stats"])
	}
	items, ok := out["items"].([]any)
	if !ok || len(items) != 0 {
		t.Errorf("expected empty items preserved, got %v", out["items"])
	}
	if _, ok := out["effects"]; ok {
		t.Errorf("expected absent effects to stay absent")
	}
	if _, ok := out["system"]; ok {
		t.Errorf("expected absent system to stay absent")
	}
}

func TestDocument_RoundTripNested(t *testing.T) {
	src := map[string]any{
		"_id":  "actor1",
		"_key": "!actors!actor1",
		"name": "Warden",
		"items": []any{
			map[string]any{
				"_id":  "item1",
				"name": "Spear",
				"effects": []any{
					map[string]any{"_id": "fx1", "label": "Pierce"},
				},
			},
		},
	}

	d := FromMap(src)
	if len(d.Items) != 1 || len(d.Items[0].Effects) != 1 {
		t.Fatalf("expected nested documents parsed, got %+v", d)
	}
	if d.Items[0].Effects[0].Label != "Pierce" {
		t.Errorf("nested label = %q, want Pierce", d.Items[0].Effects[0].Label)
	}

	back := FromMap(d.ToMap())
	if !reflect.DeepEqual(d, back) {
		t.Errorf("FromMap(ToMap()) changed the document:\n%+v\nvs\n%+v", d, back)
	}
}

func TestDocument_Validate(t *testing.T) {
	tests := []struct {
		name    string
		doc     Document
		wantErr error
	}{
		{name: "valid", doc: Document{ID: "a", Key: "!items!a"}, wantErr: nil},
		{name: "missing id", doc: Document{Key: "!items!a"}, wantErr: ErrMissingID},
		{name: "missing key", doc: Document{ID: "a"}, wantErr: ErrMissingKey},
		{name: "missing both reports id first", doc: Document{}, wantErr: ErrMissingID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
			if !IsInvalid(err) {
				t.Errorf("IsInvalid(%v) = false, want true", err)
			}
		})
	}
}

func TestDocument_IsFolder(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"!folders!abc123", true},
		{"!items!abc123", false},
		{"!actors!abc123", false},
		{"", false},
	}
	for _, tt := range tests {
		d := Document{Key: tt.key}
		if got := d.IsFolder(); got != tt.want {
			t.Errorf("IsFolder() with key %q = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestWriteFile_ReadFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "spells", "fire-bolt.yml")

	doc := FromMap(map[string]any{
		"_id":   "spell1",
		"_key":  "!items!spell1",
		"name":  "Fire Bolt",
		"flags": map[string]any{},
	})

	if err := WriteFile(path, doc); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("failed to stat written file: %v", err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("file mode = %v, want 0644", info.Mode().Perm())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written file: %v", err)
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		t.Errorf("expected trailing newline")
	}
	if bytes.HasSuffix(data, []byte("\n\n")) {
		t.Errorf("expected exactly one trailing newline, got %q", data)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if got.ID != doc.ID || got.Key != doc.Key || got.Name != doc.Name {
		t.Errorf("ReadFile() = %+v, want %+v", got, doc)
	}
}

func TestWriteFile_Deterministic(t *testing.T) {
	tmpDir := t.TempDir()
	pathA := filepath.Join(tmpDir, "a.yml")
	pathB := filepath.Join(tmpDir, "b.yml")

	doc := FromMap(map[string]any{
		"_id":    "x",
		"_key":   "!items!x",
		"name":   "Order Test",
		"system": map[string]any{"zeta": 1, "alpha": 2, "mid": 3},
	})

	if err := WriteFile(pathA, doc); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	// Rewriting over an existing file must produce identical bytes.
	if err := WriteFile(pathA, doc); err != nil {
		t.Fatalf("WriteFile() rewrite error = %v", err)
	}
	if err := WriteFile(pathB, doc); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	a, err := os.ReadFile(pathA)
	if err != nil {
		t.Fatalf("failed to read %s: %v", pathA, err)
	}
	b, err := os.ReadFile(pathB)
	if err != nil {
		t.Fatalf("failed to read %s: %v", pathB, err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("writes of the same document differ:\n%s\nvs\n%s", a, b)
	}
}

func TestReadFile_ParseError(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "broken.yml")
	if err := os.WriteFile(path, []byte("name: [unclosed\n"), 0644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	_, err := ReadFile(path)
	if err == nil {
		t.Fatalf("ReadFile() expected error for malformed YAML, got nil")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("expected error to name the offending file, got %v", err)
	}
}

func TestDocument_YAMLRoundTrip(t *testing.T) {
	doc := FromMap(map[string]any{
		"_id":       "r1",
		"_key":      "!items!r1",
		"name":      "Round Trip",
		"ownership": map[string]any{"default": 0},
		"flags":     map[string]any{"gh": map[string]any{"tier": 2}},
		"type":      "weapon",
	})

	data, err := yaml.Marshal(doc)
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}

	var back Document
	if err := yaml.Unmarshal(data, &back); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}

	if !reflect.DeepEqual(doc.ToMap(), back.ToMap()) {
		t.Errorf("round trip changed document:\n%v\nvs\n%v", doc.ToMap(), back.ToMap())
	}
}

func TestSortedByKey(t *testing.T) {
	docs := []*Document{
		{ID: "c", Key: "!items!c"},
		{ID: "a", Key: "!items!a"},
		{ID: "b", Key: "!items!b"},
	}

	sorted := SortedByKey(docs)

	want := []string{"!items!a", "!items!b", "!items!c"}
	for i, doc := range sorted {
		if doc.Key != want[i] {
			t.Errorf("sorted[%d].Key = %v, want %v", i, doc.Key, want[i])
		}
	}

	// The input order must survive; callers still hold the original slice.
	if docs[0].Key != "!items!c" {
		t.Error("SortedByKey mutated its input")
	}
}
