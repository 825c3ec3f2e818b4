// Package document models compendium documents: the typed recursive
// structure stored in binary packs and mirrored as YAML source files,
// plus the normalization rules applied before either side is written.
package document

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// FolderKeyPrefix identifies folder documents by their storage key.
const FolderKeyPrefix = "!folders!"

// Document is one compendium record. Known fields are typed; everything
// else a source file or pack carries rides along in Extra so that
// round-trips preserve it. Items and Effects hold embedded sub-documents.
type Document struct {
	// ===== Identity =====
	ID  string // _id
	Key string // _key, collection plus hierarchy position

	// ===== Display =====
	Name   string
	Label  string
	Folder string // parent folder id, empty means pack root

	// ===== Known mappings =====
	Ownership map[string]int
	Flags     map[string]any
	Stats     map[string]any // _stats audit metadata
	System    map[string]any

	// ===== Embedded documents =====
	Items   []*Document
	Effects []*Document

	// Extra holds every top-level field not modeled above.
	Extra map[string]any
}

// Validate checks the fields every pipeline operation requires.
// Documents failing validation are skipped, never fabricated.
func (d *Document) Validate() error {
	if d.ID == "" {
		return ErrMissingID
	}
	if d.Key == "" {
		return ErrMissingKey
	}
	return nil
}

// IsFolder reports whether the document is a folder, identified by its
// storage key prefix.
func (d *Document) IsFolder() bool {
	return strings.HasPrefix(d.Key, FolderKeyPrefix)
}

// FromMap builds a Document from a decoded mapping. Known keys are
// claimed when their values have the expected shape; anything else is
// preserved verbatim in Extra. A nil input yields an empty Document.
func FromMap(m map[string]any) *Document {
	d := &Document{}
	for k, v := range m {
		switch k {
		case "_id":
			if s, ok := v.(string); ok {
				d.ID = s
				continue
			}
		case "_key":
			if s, ok := v.(string); ok {
				d.Key = s
				continue
			}
		case "name":
			if s, ok := v.(string); ok {
				d.Name = s
				continue
			}
		case "label":
			if s, ok := v.(string); ok {
				d.Label = s
				continue
			}
		case "folder":
			// null folder means pack root; drop it rather than keep a
			// typed-vs-null distinction no consumer needs.
			if v == nil {
				continue
			}
			if s, ok := v.(string); ok {
				d.Folder = s
				continue
			}
		case "ownership":
			if raw, ok := v.(map[string]any); ok {
				d.Ownership = ownershipFromMap(raw)
				continue
			}
		case "flags":
			if raw, ok := v.(map[string]any); ok {
				d.Flags = raw
				continue
			}
		case "_stats":
			if raw, ok := v.(map[string]any); ok {
				d.Stats = raw
				continue
			}
		case "system":
			if raw, ok := v.(map[string]any); ok {
				d.System = raw
				continue
			}
		case "items":
			if raw, ok := v.([]any); ok {
				d.Items = docsFromSlice(raw)
				continue
			}
		case "effects":
			if raw, ok := v.([]any); ok {
				d.Effects = docsFromSlice(raw)
				continue
			}
		}
		if d.Extra == nil {
			d.Extra = make(map[string]any)
		}
		d.Extra[k] = v
	}
	return d
}

// ToMap converts the Document back into a plain mapping, recursing into
// Items and Effects. Presence of the known mappings is preserved (a nil
// map is omitted, an empty one is kept), so FromMap followed by ToMap
// is lossless for well-formed input.
func (d *Document) ToMap() map[string]any {
	m := make(map[string]any, len(d.Extra)+12)
	for k, v := range d.Extra {
		m[k] = v
	}
	if d.ID != "" {
		m["_id"] = d.ID
	}
	if d.Key != "" {
		m["_key"] = d.Key
	}
	if d.Name != "" {
		m["name"] = d.Name
	}
	if d.Label != "" {
		m["label"] = d.Label
	}
	if d.Folder != "" {
		m["folder"] = d.Folder
	}
	if d.Ownership != nil {
		m["ownership"] = ownershipToMap(d.Ownership)
	}
	if d.Flags != nil {
		m["flags"] = d.Flags
	}
	if d.Stats != nil {
		m["_stats"] = d.Stats
	}
	if d.System != nil {
		m["system"] = d.System
	}
	if d.Items != nil {
		m["items"] = docsToSlice(d.Items)
	}
	if d.Effects != nil {
		m["effects"] = docsToSlice(d.Effects)
	}
	return m
}

// MarshalYAML emits the document as a plain mapping. yaml.v3 sorts map
// keys, which gives every serialized document a canonical key order.
func (d *Document) MarshalYAML() (any, error) {
	return d.ToMap(), nil
}

// UnmarshalYAML decodes a mapping node into the Document.
func (d *Document) UnmarshalYAML(value *yaml.Node) error {
	var m map[string]any
	if err := value.Decode(&m); err != nil {
		return err
	}
	*d = *FromMap(m)
	return nil
}

// MarshalJSON mirrors MarshalYAML for the JSON-backed stores.
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.ToMap())
}

// UnmarshalJSON decodes a JSON object into the Document.
func (d *Document) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*d = *FromMap(m)
	return nil
}

// ReadFile reads and parses one YAML source file. Parse failures are
// returned with the offending path; validity is the caller's concern.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file %s: %w", path, err)
	}
	var d Document
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse source file %s: %w", path, err)
	}
	return &d, nil
}

// Encode serializes the document to its canonical source form:
// two-space indented YAML with sorted keys and a trailing newline.
// Encoding the same document always yields identical bytes.
func Encode(d *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	if buf.Len() == 0 || buf.Bytes()[buf.Len()-1] != '\n' {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// WriteFile serializes the document to path, creating parent
// directories as needed. Output is in Encode's canonical form with
// fixed 0644 permissions, so repeated writes of the same document are
// byte-identical regardless of prior file state.
func WriteFile(path string, d *Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	data, err := Encode(d)
	if err != nil {
		return fmt.Errorf("failed to serialize document %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write source file %s: %w", path, err)
	}
	// os.WriteFile permissions are filtered by umask; force the mode so
	// checked-in files do not churn between environments.
	if err := os.Chmod(path, 0644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	return nil
}

// SortedByKey returns a copy of docs in ascending key order. Pack
// stores persist documents in this order so compiles are reproducible.
func SortedByKey(docs []*Document) []*Document {
	sorted := make([]*Document, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	return sorted
}

func ownershipFromMap(raw map[string]any) map[string]int {
	out := make(map[string]int, len(raw))
	for k, v := range raw {
		if n, ok := intValue(v); ok {
			out[k] = n
		}
	}
	return out
}

func ownershipToMap(o map[string]int) map[string]any {
	out := make(map[string]any, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

func docsFromSlice(raw []any) []*Document {
	out := make([]*Document, 0, len(raw))
	for _, v := range raw {
		if m, ok := v.(map[string]any); ok {
			out = append(out, FromMap(m))
		}
	}
	return out
}

func docsToSlice(docs []*Document) []any {
	out := make([]any, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ToMap())
	}
	return out
}

// intValue coerces the numeric types the YAML and JSON decoders
// produce for ownership levels.
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
