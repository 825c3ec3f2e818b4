package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/cdmessin/grim-hollow-pack/internal/document"
	"github.com/cdmessin/grim-hollow-pack/internal/manifest"
	"github.com/cdmessin/grim-hollow-pack/internal/packdb"
)

// folderFileName is the filename that holds a folder document inside
// the directory the folder resolves to.
const folderFileName = "_folder.yml"

// Options configures a Pipeline.
type Options struct {
	// RootDir is the project root. Manifest pack paths and SourceDir
	// are resolved relative to it.
	RootDir string

	// SourceDir is the YAML source root, holding one subdirectory per
	// pack name. Defaults to packs/_source.
	SourceDir string

	// Driver forces a store format for every pack. Empty means each
	// pack's path shape decides.
	Driver packdb.Type

	// Normalize configures the document normalizer applied on both
	// compile and extract.
	Normalize document.Options

	// Logger receives per-document warnings and per-pack progress.
	// If nil, a default logger writing to stderr is used.
	Logger *log.Logger
}

// Pipeline runs pack operations against a project layout described by
// its manifest.
type Pipeline struct {
	manifest *manifest.Manifest
	opts     Options
	logger   *log.Logger
}

// New creates a Pipeline for the given manifest.
//
// Example:
//
//	m, err := manifest.Load("module.json")
//	if err != nil {
//	    return err
//	}
//	p := pipeline.New(m, pipeline.Options{RootDir: "."})
func New(m *manifest.Manifest, opts Options) *Pipeline {
	if opts.SourceDir == "" {
		opts.SourceDir = filepath.Join("packs", "_source")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	return &Pipeline{
		manifest: m,
		opts:     opts,
		logger:   logger,
	}
}

// selectPacks resolves pack names against the manifest. An empty list
// selects every pack; an unknown name fails the whole operation.
func (p *Pipeline) selectPacks(names []string) ([]*manifest.Pack, error) {
	if len(names) == 0 {
		packs := make([]*manifest.Pack, len(p.manifest.Packs))
		for i := range p.manifest.Packs {
			packs[i] = &p.manifest.Packs[i]
		}
		return packs, nil
	}

	packs := make([]*manifest.Pack, 0, len(names))
	for _, name := range names {
		pack, err := p.manifest.Pack(name)
		if err != nil {
			return nil, err
		}
		packs = append(packs, pack)
	}
	return packs, nil
}

// Manifest returns the manifest the pipeline operates on.
func (p *Pipeline) Manifest() *manifest.Manifest {
	return p.manifest
}

// SourceRoot returns the resolved YAML source root.
func (p *Pipeline) SourceRoot() string {
	return filepath.Join(p.opts.RootDir, p.opts.SourceDir)
}

// packPath returns the store location for a pack.
func (p *Pipeline) packPath(pack *manifest.Pack) string {
	return filepath.Join(p.opts.RootDir, pack.Path)
}

// packSourceDir returns the YAML source directory for a pack.
func (p *Pipeline) packSourceDir(pack *manifest.Pack) string {
	return filepath.Join(p.opts.RootDir, p.opts.SourceDir, pack.Name)
}

// fileSlug returns the filesystem name for a document: the slug of its
// canonicalized display name, falling back to the lowercased id when
// the name slugs to nothing. Both extract passes use it, so folder
// paths and file names always agree.
func fileSlug(doc *document.Document) string {
	s := document.Slug(document.CanonicalText(doc.Name))
	if s == "" {
		s = strings.ToLower(doc.ID)
	}
	return s
}

// outputName returns a document's path relative to the pack source
// directory. Folders become <their path>/_folder.yml; every other
// document is named by its slug inside its parent folder's directory.
func outputName(doc *document.Document, folderPaths map[string]string) string {
	if doc.IsFolder() {
		return filepath.Join(folderPaths[doc.ID], folderFileName)
	}
	return filepath.Join(folderPaths[doc.Folder], fileSlug(doc)+".yml")
}

// driverFor picks the store driver for a pack, honoring the configured
// format override.
func (p *Pipeline) driverFor(pack *manifest.Pack) (packdb.Driver, error) {
	drv, err := packdb.ForPack(p.packPath(pack), p.opts.Driver)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", pack.Name, err)
	}
	return drv, nil
}
