// Package sqlite implements the current pack store format: a pack
// directory holding a data.sqlite3 database with one row per document.
//
// The database runs embedded via ncruces/go-sqlite3, a pure-Go build of
// SQLite on wazero, so the toolchain stays CGO-free. WAL mode with a
// busy timeout keeps concurrent readers (a game client with the pack
// open) from failing a compile outright.
//
// Row layout:
//   - key: the document key, primary key of the table
//   - value: the document as compact JSON, without the key field
//
// The key lives only in the key column; extraction synthesizes it back
// onto the decoded document.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/tetratelabs/wazero"

	"github.com/cdmessin/grim-hollow-pack/internal/document"
	"github.com/cdmessin/grim-hollow-pack/internal/packdb"
)

func init() {
	// Cap the wasm heap at 256 MiB. Packs are small; a corrupt store
	// must not take the whole process down with it.
	sqlite3.RuntimeConfig = wazero.NewRuntimeConfig().WithMemoryLimitPages(4096)

	packdb.Register(packdb.TypeSQLite, func() packdb.Driver { return &Driver{} })
}

// Driver implements packdb.Driver for sqlite pack directories.
type Driver struct{}

// Name returns the driver's registered type.
func (d *Driver) Name() packdb.Type {
	return packdb.TypeSQLite
}

// Exists reports whether packPath contains a pack database.
func (d *Driver) Exists(packPath string) bool {
	info, err := os.Stat(storePath(packPath))
	return err == nil && !info.IsDir()
}

// Count returns the number of documents in the pack.
func (d *Driver) Count(ctx context.Context, packPath string) (int, error) {
	s, err := openStore(packPath, false)
	if err != nil {
		return 0, err
	}
	defer s.Close()

	var count int
	err = s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents in %s: %w", packPath, err)
	}
	return count, nil
}

// Compile replaces the pack's contents with the given documents inside
// a single transaction. The pack directory and store are created if
// missing. Documents are inserted in ascending key order; a duplicate
// key fails the whole compile.
func (d *Driver) Compile(ctx context.Context, packPath string, docs []*document.Document) error {
	s, err := openStore(packPath, true)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.initSchema(ctx); err != nil {
		return err
	}

	sorted := document.SortedByKey(docs)

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("failed to clear pack %s: %w", packPath, err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO documents (key, value) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, doc := range sorted {
		if err := doc.Validate(); err != nil {
			return fmt.Errorf("invalid document in pack %s: %w", packPath, err)
		}

		value := doc.ToMap()
		delete(value, "_key")
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal document %s: %w", doc.Key, err)
		}

		if _, err := stmt.ExecContext(ctx, doc.Key, string(data)); err != nil {
			return fmt.Errorf("failed to insert document %s: %w", doc.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit pack %s: %w", packPath, err)
	}
	return nil
}

// Extract visits every document in ascending key order and hands each
// one to opts.Emit.
func (d *Driver) Extract(ctx context.Context, packPath string, opts packdb.ExtractOptions) error {
	s, err := openStore(packPath, false)
	if err != nil {
		return err
	}
	defer s.Close()

	rows, err := s.conn.QueryContext(ctx, "SELECT key, value FROM documents ORDER BY key")
	if err != nil {
		return fmt.Errorf("failed to query pack %s: %w", packPath, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("failed to scan document row: %w", err)
		}

		var raw map[string]any
		if err := json.Unmarshal([]byte(value), &raw); err != nil {
			return fmt.Errorf("failed to decode document %s in %s: %w", key, packPath, err)
		}

		doc := document.FromMap(raw)
		doc.Key = key
		if err := opts.Emit(doc); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating pack %s: %w", packPath, err)
	}
	return nil
}

// store wraps one pack database connection.
type store struct {
	conn *sql.DB
	path string
}

func storePath(packPath string) string {
	return filepath.Join(packPath, packdb.SQLiteDataFile)
}

// openStore opens the pack database. With create set, the pack
// directory and store file are created as needed; without it, a missing
// store is reported as packdb.ErrPackNotFound.
//
// WAL and the busy timeout are set through the connection string so
// they apply to every pooled connection.
func openStore(packPath string, create bool) (*store, error) {
	path := storePath(packPath)
	if create {
		if err := os.MkdirAll(packPath, 0755); err != nil {
			return nil, fmt.Errorf("failed to create pack directory %s: %w", packPath, err)
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", packdb.ErrPackNotFound, packPath)
	}

	connStr := "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open pack database %s: %w", path, err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping pack database %s: %w", path, err)
	}

	// Compiles and extracts are sequential whole-pack passes. One
	// connection keeps the transaction and the pragmas on the same
	// handle.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	return &store{conn: conn, path: path}, nil
}

// initSchema creates the documents table if it doesn't exist.
// Idempotent, safe to call on every compile.
func (s *store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`

	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize pack schema: %w", err)
	}
	return nil
}

// Close checkpoints the WAL and closes the connection, leaving the
// store file self-contained.
func (s *store) Close() error {
	if s.conn == nil {
		return nil
	}

	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close pack database: %w", err)
	}

	s.conn = nil
	return nil
}
