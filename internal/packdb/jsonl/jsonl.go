// Package jsonl implements the legacy pack store format: a single .db
// file with one JSON document per line.
//
// Legacy stores are append logs. A document may appear on several lines
// with the later line superseding the earlier ones, and a line of the
// form {"$$deleted":true,"_id":...} tombstones a document. Extraction
// resolves the log before emitting anything, so callers only ever see
// the surviving version of each document. Compiles always write the
// resolved form: one line per document, sorted by key.
package jsonl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	json "github.com/goccy/go-json"

	"github.com/cdmessin/grim-hollow-pack/internal/document"
	"github.com/cdmessin/grim-hollow-pack/internal/packdb"
)

func init() {
	packdb.Register(packdb.TypeJSONL, func() packdb.Driver { return &Driver{} })
}

// Driver implements packdb.Driver for single-file legacy packs.
type Driver struct{}

// Name returns the driver's registered type.
func (d *Driver) Name() packdb.Type {
	return packdb.TypeJSONL
}

// Exists reports whether the pack file is present.
func (d *Driver) Exists(packPath string) bool {
	info, err := os.Stat(packPath)
	return err == nil && !info.IsDir()
}

// Count returns the number of live documents in the pack.
func (d *Driver) Count(ctx context.Context, packPath string) (int, error) {
	docs, err := readStore(packPath)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// Compile replaces the pack file with the given documents, one JSON
// line per document in ascending key order. The write is atomic: a
// temp file is renamed over the target, so a failed compile never
// leaves a truncated pack behind.
func (d *Driver) Compile(ctx context.Context, packPath string, docs []*document.Document) error {
	sorted := document.SortedByKey(docs)

	var buf bytes.Buffer
	seen := make(map[string]string, len(sorted))
	for _, doc := range sorted {
		if err := doc.Validate(); err != nil {
			return fmt.Errorf("invalid document in pack %s: %w", packPath, err)
		}
		if prev, dup := seen[doc.Key]; dup {
			return fmt.Errorf("duplicate key %s in pack %s (documents %s and %s)",
				doc.Key, packPath, prev, doc.ID)
		}
		seen[doc.Key] = doc.ID

		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal document %s: %w", doc.Key, err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}

	if err := os.MkdirAll(filepath.Dir(packPath), 0755); err != nil {
		return fmt.Errorf("failed to create pack directory: %w", err)
	}

	// Write atomically via temp file
	tmpPath := packPath + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, packPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Extract visits every live document in ascending key order and hands
// each one to opts.Emit.
func (d *Driver) Extract(ctx context.Context, packPath string, opts packdb.ExtractOptions) error {
	docs, err := readStore(packPath)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(docs))
	for key := range docs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := opts.Emit(docs[key]); err != nil {
			return err
		}
	}
	return nil
}

// readStore parses the pack file and resolves the append log: later
// lines supersede earlier ones with the same key, and tombstone lines
// remove documents by id.
func readStore(packPath string) (map[string]*document.Document, error) {
	// #nosec G304 - controlled path from configuration
	file, err := os.Open(packPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", packdb.ErrPackNotFound, packPath)
		}
		return nil, fmt.Errorf("failed to open pack %s: %w", packPath, err)
	}
	defer file.Close()

	docs := make(map[string]*document.Document)
	decoder := json.NewDecoder(file)
	lineNum := 0

	for {
		var raw map[string]any
		if err := decoder.Decode(&raw); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("invalid JSON at line %d of %s: %w", lineNum+1, packPath, err)
		}
		lineNum++

		if deleted, ok := raw["$$deleted"].(bool); ok && deleted {
			id, _ := raw["_id"].(string)
			for key, doc := range docs {
				if doc.ID == id {
					delete(docs, key)
				}
			}
			continue
		}

		doc := document.FromMap(raw)
		docs[doc.Key] = doc
	}

	return docs, nil
}
