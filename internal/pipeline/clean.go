package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cdmessin/grim-hollow-pack/internal/document"
	"github.com/cdmessin/grim-hollow-pack/internal/manifest"
)

// CleanResult reports one pack source cleanup.
type CleanResult struct {
	// Pack is the manifest name of the pack.
	Pack string

	// Rewritten is the number of files whose normalized form differed
	// from what was on disk.
	Rewritten int

	// Unchanged counts files already in normalized form.
	Unchanged int

	// Skipped counts files that parsed but did not form a valid
	// document; they are left untouched.
	Skipped int

	// Errors holds one diagnostic per skipped file.
	Errors []string
}

// CleanPack normalizes one pack's source files in place.
//
// Files already in normalized form are not rewritten, so a clean run
// on a clean tree touches nothing. Include patterns (doublestar
// globs against pack-relative paths) restrict which files are
// considered; an empty list means all of them. The normalizer is the
// same one compile and extract run, which makes clean idempotent.
func (p *Pipeline) CleanPack(ctx context.Context, pack *manifest.Pack, include []string) (*CleanResult, error) {
	src := p.packSourceDir(pack)
	if _, err := os.Stat(src); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, src)
	}

	files, err := sourceFiles(src)
	if err != nil {
		return nil, err
	}

	result := &CleanResult{Pack: pack.Name}
	for _, path := range files {
		rel, err := filepath.Rel(src, path)
		if err != nil {
			rel = path
		}
		if !matchesInclude(rel, include) {
			continue
		}

		original, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read source file %s: %w", path, err)
		}

		doc, err := document.ReadFile(path)
		if err != nil {
			// Malformed source aborts the pack; rewriting around it
			// would hide the breakage.
			return nil, err
		}

		document.Normalize(doc, p.opts.Normalize)

		if err := doc.Validate(); err != nil {
			p.logger.Warn("skipping invalid source file", "path", path, "err", err)
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
			continue
		}

		normalized, err := document.Encode(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize document %s: %w", path, err)
		}
		if bytes.Equal(original, normalized) {
			result.Unchanged++
			continue
		}

		if err := document.WriteFile(path, doc); err != nil {
			return nil, err
		}
		result.Rewritten++
	}

	p.logger.Info("cleaned pack",
		"pack", pack.Name,
		"rewritten", result.Rewritten,
		"unchanged", result.Unchanged,
		"skipped", result.Skipped)
	return result, nil
}

// CleanAll cleans the named packs, or every pack in the manifest when
// names is empty. A pack failure does not stop the run; the returned
// error joins every pack-level failure.
func (p *Pipeline) CleanAll(ctx context.Context, names []string, include []string) ([]*CleanResult, error) {
	packs, err := p.selectPacks(names)
	if err != nil {
		return nil, err
	}
	// A missing source root fails every pack the same way; abort once
	// instead of reporting it per pack.
	if _, err := os.Stat(p.SourceRoot()); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, p.SourceRoot())
	}

	var results []*CleanResult
	var errs []error
	for _, pack := range packs {
		result, err := p.CleanPack(ctx, pack, include)
		if err != nil {
			p.logger.Error("pack clean failed", "pack", pack.Name, "err", err)
			errs = append(errs, fmt.Errorf("pack %s: %w", pack.Name, err))
			continue
		}
		results = append(results, result)
	}
	return results, errors.Join(errs...)
}
