package packdb

import "errors"

// Sentinel errors for pack store operations.
// Use errors.Is() to check for these conditions:
//
//	if errors.Is(err, packdb.ErrPackNotFound) { ... }
var (
	// ErrPackNotFound indicates no store exists at the pack path.
	// Extracting or counting a pack that was never compiled returns
	// this error.
	ErrPackNotFound = errors.New("pack store not found")

	// ErrDriverUnknown indicates a driver type that is not registered.
	// Usually a typo in configuration or a missing driver import.
	ErrDriverUnknown = errors.New("unknown pack driver")
)

// IsNotFound returns true if the error means the pack's store does not
// exist. Callers that treat a missing pack as "empty" check this before
// reporting a failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPackNotFound)
}
