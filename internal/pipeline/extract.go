package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/cdmessin/grim-hollow-pack/internal/document"
	"github.com/cdmessin/grim-hollow-pack/internal/manifest"
	"github.com/cdmessin/grim-hollow-pack/internal/packdb"
)

// ExtractResult reports one pack extraction.
type ExtractResult struct {
	// Pack is the manifest name of the pack.
	Pack string

	// Driver is the store format that was read.
	Driver packdb.Type

	// Documents is the number of source files written.
	Documents int

	// Folders counts the folder documents among them.
	Folders int

	// Skipped counts stored documents that lacked an id or key.
	Skipped int

	// Errors holds one diagnostic per skipped document or output
	// collision.
	Errors []string
}

// ExtractPack regenerates one pack's source tree from its store.
//
// The first pass reads the pack's folder documents and resolves each
// folder to a directory; the second pass normalizes every document and
// writes it under the resolved layout, folders as _folder.yml files
// and everything else named by slug. Two documents mapping to the same
// output path are reported as a collision, with the later key winning.
//
// Stale files from earlier extractions are left alone; the source tree
// is never cleared.
func (p *Pipeline) ExtractPack(ctx context.Context, pack *manifest.Pack) (*ExtractResult, error) {
	drv, err := p.driverFor(pack)
	if err != nil {
		return nil, err
	}
	result := &ExtractResult{Pack: pack.Name, Driver: drv.Name()}

	packPath := p.packPath(pack)

	// Discovery pass: collect the folder tree without writing anything.
	folders := make(map[string]folderInfo)
	err = drv.Extract(ctx, packPath, packdb.ExtractOptions{
		Transform: func(doc *document.Document) (bool, error) {
			if doc.IsFolder() {
				folders[doc.ID] = folderInfo{slug: fileSlug(doc), parent: doc.Folder}
			}
			return false, nil
		},
	})
	if err != nil {
		return nil, err
	}

	folderPaths, err := resolveFolderPaths(folders)
	if err != nil {
		return nil, err
	}

	// Writing pass: normalize and lay out every document.
	written := make(map[string]string)
	err = drv.Extract(ctx, packPath, packdb.ExtractOptions{
		OutputDir: p.packSourceDir(pack),
		Transform: func(doc *document.Document) (bool, error) {
			document.Normalize(doc, p.opts.Normalize)
			if err := doc.Validate(); err != nil {
				p.logger.Warn("skipping invalid document", "pack", pack.Name, "key", doc.Key, "err", err)
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", doc.Key, err))
				return false, nil
			}
			return true, nil
		},
		Name: func(doc *document.Document) (string, error) {
			rel := outputName(doc, folderPaths)
			if prev, dup := written[rel]; dup {
				p.logger.Warn("output collision", "pack", pack.Name, "path", rel, "keys", prev+", "+doc.Key)
				result.Errors = append(result.Errors,
					fmt.Sprintf("output collision: %s and %s both map to %s", prev, doc.Key, rel))
			}
			written[rel] = doc.Key

			if doc.IsFolder() {
				result.Folders++
			}
			result.Documents++
			return rel, nil
		},
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("extracted pack",
		"pack", pack.Name,
		"driver", drv.Name(),
		"documents", result.Documents,
		"folders", result.Folders,
		"skipped", result.Skipped)
	return result, nil
}

// ExtractAll extracts the named packs, or every pack in the manifest
// when names is empty. A pack failure does not stop the run; the
// returned error joins every pack-level failure.
func (p *Pipeline) ExtractAll(ctx context.Context, names []string) ([]*ExtractResult, error) {
	packs, err := p.selectPacks(names)
	if err != nil {
		return nil, err
	}

	var results []*ExtractResult
	var errs []error
	for _, pack := range packs {
		result, err := p.ExtractPack(ctx, pack)
		if err != nil {
			p.logger.Error("pack extract failed", "pack", pack.Name, "err", err)
			errs = append(errs, fmt.Errorf("pack %s: %w", pack.Name, err))
			continue
		}
		results = append(results, result)
	}
	return results, errors.Join(errs...)
}
