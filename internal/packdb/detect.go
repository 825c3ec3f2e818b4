package packdb

import (
	"os"
	"path/filepath"
	"strings"
)

// DetectionResult describes what was found at a pack path.
type DetectionResult struct {
	// Type is the driver the path shape calls for.
	Type Type

	// StorePath is the concrete store location: the data.sqlite3 file
	// inside the pack directory for sqlite, the pack file itself for
	// jsonl.
	StorePath string

	// Exists reports whether the store is already present on disk.
	Exists bool
}

// Detect determines the pack store format from the shape of packPath.
//
// A path that is (or would be) a single file is a legacy jsonl pack:
// either it already exists as a regular file, or it carries the .db
// extension. Everything else is a sqlite pack directory, present or
// not. Detection never fails; compiling a pack that does not exist yet
// still needs a driver.
//
// An explicit driver choice in configuration overrides detection; see
// ForPack.
func Detect(packPath string) *DetectionResult {
	if info, err := os.Stat(packPath); err == nil && !info.IsDir() {
		return &DetectionResult{Type: TypeJSONL, StorePath: packPath, Exists: true}
	}
	if strings.EqualFold(filepath.Ext(packPath), JSONLExt) {
		return &DetectionResult{Type: TypeJSONL, StorePath: packPath, Exists: false}
	}

	store := filepath.Join(packPath, SQLiteDataFile)
	info, err := os.Stat(store)
	return &DetectionResult{
		Type:      TypeSQLite,
		StorePath: store,
		Exists:    err == nil && !info.IsDir(),
	}
}
