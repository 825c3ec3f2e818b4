package document

import "errors"

// Sentinel errors for programmatic handling. Callers use errors.Is to
// separate invalid documents (skipped with a diagnostic) from the fatal
// error classes owned by the pipeline.
var (
	ErrMissingID  = errors.New("document missing _id")
	ErrMissingKey = errors.New("document missing _key")
)

// IsInvalid reports whether err marks a document that fails validation.
// Invalid documents are skipped and reported, never fatal on their own.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrMissingID) || errors.Is(err, ErrMissingKey)
}
