package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/cdmessin/grim-hollow-pack/internal/document"
	"github.com/cdmessin/grim-hollow-pack/internal/manifest"
	"github.com/cdmessin/grim-hollow-pack/internal/packdb"
)

// CompileResult reports one pack compile.
type CompileResult struct {
	// Pack is the manifest name of the pack.
	Pack string

	// Driver is the store format that was written.
	Driver packdb.Type

	// Documents is the number of documents written to the store.
	Documents int

	// Skipped counts source files that parsed but did not form a valid
	// document.
	Skipped int

	// Errors holds one diagnostic per skipped file.
	Errors []string
}

// CompilePack builds one pack from its source tree.
//
// Every YAML file under the pack's source directory is read,
// normalized, and written to the store in a single replace. A source
// file that fails to parse aborts the compile; a file that parses but
// lacks an id or key is skipped and reported in the result.
func (p *Pipeline) CompilePack(ctx context.Context, pack *manifest.Pack) (*CompileResult, error) {
	src := p.packSourceDir(pack)
	if _, err := os.Stat(src); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, src)
	}

	files, err := sourceFiles(src)
	if err != nil {
		return nil, err
	}

	result := &CompileResult{Pack: pack.Name}
	docs := make([]*document.Document, 0, len(files))
	for _, path := range files {
		doc, err := document.ReadFile(path)
		if err != nil {
			// Malformed source aborts the pack; a partial compile
			// would silently drop documents from the store.
			return nil, err
		}

		document.Normalize(doc, p.opts.Normalize)

		if err := doc.Validate(); err != nil {
			p.logger.Warn("skipping invalid source file", "path", path, "err", err)
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		docs = append(docs, doc)
	}

	drv, err := p.driverFor(pack)
	if err != nil {
		return nil, err
	}
	result.Driver = drv.Name()

	if err := drv.Compile(ctx, p.packPath(pack), docs); err != nil {
		return nil, err
	}
	result.Documents = len(docs)

	p.logger.Info("compiled pack",
		"pack", pack.Name,
		"driver", drv.Name(),
		"documents", result.Documents,
		"skipped", result.Skipped)
	return result, nil
}

// CompileAll compiles the named packs, or every pack in the manifest
// when names is empty. A pack failure does not stop the run; the
// returned error joins every pack-level failure.
func (p *Pipeline) CompileAll(ctx context.Context, names []string) ([]*CompileResult, error) {
	packs, err := p.selectPacks(names)
	if err != nil {
		return nil, err
	}
	// A missing source root fails every pack the same way; abort once
	// instead of reporting it per pack.
	if _, err := os.Stat(p.SourceRoot()); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, p.SourceRoot())
	}

	var results []*CompileResult
	var errs []error
	for _, pack := range packs {
		result, err := p.CompilePack(ctx, pack)
		if err != nil {
			p.logger.Error("pack compile failed", "pack", pack.Name, "err", err)
			errs = append(errs, fmt.Errorf("pack %s: %w", pack.Name, err))
			continue
		}
		results = append(results, result)
	}
	return results, errors.Join(errs...)
}
