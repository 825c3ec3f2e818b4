// Package packdb defines the storage abstraction for compendium packs.
//
// A pack is the binary, database-backed form of a document collection.
// Two store formats exist in the wild: current releases use a SQLite
// database inside a pack directory, while legacy packs are a single
// append-style file with one JSON document per line. Each format is
// implemented by a driver in a subpackage that registers itself here.
//
// Architecture:
//   - Driver: the interface every store format implements
//   - Registry: named constructors, populated by driver init()
//   - Detect: picks a driver from the shape of the pack path
//
// Callers obtain a driver through New or ForPack and never import the
// driver packages directly (except for the blank import that triggers
// registration):
//
//	import _ "github.com/cdmessin/grim-hollow-pack/internal/packdb/sqlite"
//
//	drv, err := packdb.ForPack("packs/spells", "")
//	if err != nil {
//	    return err
//	}
//	err = drv.Compile(ctx, "packs/spells", docs)
package packdb

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cdmessin/grim-hollow-pack/internal/document"
)

// Type identifies a pack store format.
type Type string

const (
	// TypeSQLite is the current pack format: a directory holding a
	// data.sqlite3 database with one row per document.
	TypeSQLite Type = "sqlite"

	// TypeJSONL is the legacy pack format: a single .db file with one
	// JSON document per line.
	TypeJSONL Type = "jsonl"
)

// String returns the string representation of the type.
func (t Type) String() string {
	return string(t)
}

// SQLiteDataFile is the database filename inside a sqlite pack
// directory.
const SQLiteDataFile = "data.sqlite3"

// JSONLExt is the filename extension of a legacy single-file pack.
const JSONLExt = ".db"

// Driver is the interface implemented by each pack store format.
//
// Compile and Extract are whole-pack operations: a compile replaces the
// complete document set of the store, and an extract visits every
// stored document in ascending key order. Per-document decisions
// (normalization, output naming, skipping invalid documents) belong to
// the ExtractOptions callbacks, not to the driver.
//
// A pack-level failure is returned as an error; drivers do not write
// partial stores. Extract and Count on a pack whose store is missing
// return ErrPackNotFound.
type Driver interface {
	// Name returns the driver's registered type.
	Name() Type

	// Exists reports whether the pack's store is present at packPath.
	Exists(packPath string) bool

	// Count returns the number of documents in the pack.
	Count(ctx context.Context, packPath string) (int, error)

	// Compile replaces the pack's contents with the given documents.
	// The store is created if it does not exist. Every document must
	// carry an id and a key.
	Compile(ctx context.Context, packPath string, docs []*document.Document) error

	// Extract visits every document in the pack in ascending key order
	// and hands each one to opts.Emit.
	Extract(ctx context.Context, packPath string, opts ExtractOptions) error
}

// ExtractOptions carries the per-document callbacks for an extraction.
//
// The extract pipeline runs two passes over a pack: a discovery pass
// that vetoes every write while collecting folder structure, then a
// writing pass that normalizes documents and lays them out on disk.
// Both passes are expressed through these callbacks.
type ExtractOptions struct {
	// OutputDir is the directory that receives serialized documents.
	OutputDir string

	// Transform inspects and may mutate a document before it is
	// written. Returning false vetoes the write for this document.
	// A nil Transform keeps every document unchanged.
	Transform func(doc *document.Document) (bool, error)

	// Name computes the output path for a document, relative to
	// OutputDir. Required unless Transform vetoes every document.
	Name func(doc *document.Document) (string, error)
}

// Emit runs one extracted document through the callbacks: transform,
// veto check, name, write. Drivers call it for every stored document.
func (o ExtractOptions) Emit(doc *document.Document) error {
	if o.Transform != nil {
		keep, err := o.Transform(doc)
		if err != nil {
			return err
		}
		if !keep {
			return nil
		}
	}
	if o.Name == nil {
		return fmt.Errorf("cannot write document %s: no naming callback configured", doc.Key)
	}
	rel, err := o.Name(doc)
	if err != nil {
		return err
	}
	return document.WriteFile(filepath.Join(o.OutputDir, rel), doc)
}
