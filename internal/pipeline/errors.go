package pipeline

import "errors"

// Sentinel errors for pipeline operations.
// Use errors.Is() to check for these conditions:
//
//	if errors.Is(err, pipeline.ErrFolderCycle) { ... }
var (
	// ErrFolderCycle indicates a folder names one of its own
	// descendants (or itself) as parent. The pack's folder tree cannot
	// be laid out on disk, so the extract is aborted before any file is
	// written.
	ErrFolderCycle = errors.New("folder parent cycle")

	// ErrSourceNotFound indicates a pack's source directory does not
	// exist. Compiling or cleaning a pack that was never extracted
	// returns this error.
	ErrSourceNotFound = errors.New("pack source directory not found")
)
