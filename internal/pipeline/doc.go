// Package pipeline orchestrates the transforms between binary packs
// and their YAML source trees.
//
// Overview
//
// The pipeline implements the three project operations: compile builds
// packs from source, extract regenerates source from packs, and clean
// renormalizes source files in place. All three share the same
// normalizer, so a round trip through any of them converges on
// identical bytes.
//
// Architecture
//
// Documents flow between two representations:
//
//	Source tree (packs/_source)
//	     ├── spells/fireball.yml          → document.Document
//	     └── spells/evocation/_folder.yml → folder documents
//	                      ↓ compile                ↑ extract
//	                         Pipeline + Normalize
//	                      ↓                        ↑
//	                  packdb driver (sqlite or jsonl)
//	                      ↓                        ↑
//	                  Pack store (packs/spells/data.sqlite3)
//
// Extraction runs two passes over a pack: a discovery pass collects the
// folder documents and resolves each folder to a directory path, then a
// writing pass normalizes every document and lays it out under the
// resolved folder structure.
//
// Error Handling
//
// The pipeline distinguishes three failure levels:
//
//   - Invalid documents (missing id or key) are skipped and reported in
//     the per-pack result; the operation continues.
//   - A malformed source file or a store failure aborts the affected
//     pack; sibling packs still run.
//   - A missing source root, an unknown pack name, or a folder parent
//     cycle aborts the whole operation.
//
// Usage
//
// Basic usage:
//
//	m, err := manifest.Load("module.json")
//	if err != nil {
//	    return err
//	}
//
//	p := pipeline.New(m, pipeline.Options{
//	    RootDir:   ".",
//	    SourceDir: "packs/_source",
//	})
//
//	results, err := p.CompileAll(ctx, nil) // nil means every pack
package pipeline
