package benchmark

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cdmessin/grim-hollow-pack/internal/manifest"
	"github.com/cdmessin/grim-hollow-pack/internal/packdb"
	"github.com/cdmessin/grim-hollow-pack/internal/pipeline"
)

// Run measures compile and extract latency for one store driver.
//
// The synthetic documents are seeded straight into a throwaway store,
// extracted once to lay out a canonical source tree, then each round
// times a full extract and compile through the pipeline. The workspace
// is a temporary directory that is removed afterwards.
func Run(ctx context.Context, driver packdb.Type, cfg Config) (*Result, error) {
	if !packdb.IsRegistered(driver) {
		return nil, fmt.Errorf("%w: %s", packdb.ErrDriverUnknown, driver)
	}
	if cfg.Rounds <= 0 {
		cfg.Rounds = 1
	}

	root, err := os.MkdirTemp("", "grimpack-bench-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create benchmark workspace: %w", err)
	}
	defer os.RemoveAll(root)

	m := &manifest.Manifest{
		ID:      "grimpack-bench",
		Title:   "Benchmark",
		Version: "0.0.0",
		Packs: []manifest.Pack{
			{Name: "bench", Label: "Benchmark", Path: filepath.Join("packs", "bench"), Type: "Item"},
		},
	}
	pack := &m.Packs[0]
	storePath := filepath.Join(root, pack.Path)

	drv, err := packdb.New(driver)
	if err != nil {
		return nil, err
	}
	docs := GenerateDocuments(cfg)
	if err := drv.Compile(ctx, storePath, docs); err != nil {
		return nil, fmt.Errorf("failed to seed benchmark store: %w", err)
	}

	p := pipeline.New(m, pipeline.Options{
		RootDir: root,
		Driver:  driver,
		Logger:  log.New(io.Discard),
	})

	// Untimed extract to materialize the source tree; every timed round
	// then overwrites the same converged layout.
	if _, err := p.ExtractPack(ctx, pack); err != nil {
		return nil, fmt.Errorf("failed to extract seed store: %w", err)
	}

	result := &Result{Driver: driver, Config: cfg}
	compileTimes := make([]time.Duration, 0, cfg.Rounds)
	extractTimes := make([]time.Duration, 0, cfg.Rounds)

	totalStart := time.Now()
	for round := 0; round < cfg.Rounds; round++ {
		start := time.Now()
		compiled, err := p.CompilePack(ctx, pack)
		if err != nil {
			return nil, fmt.Errorf("compile round %d failed: %w", round+1, err)
		}
		compileTimes = append(compileTimes, time.Since(start))
		result.DocumentCount = compiled.Documents

		start = time.Now()
		if _, err := p.ExtractPack(ctx, pack); err != nil {
			return nil, fmt.Errorf("extract round %d failed: %w", round+1, err)
		}
		extractTimes = append(extractTimes, time.Since(start))
	}
	result.TotalDuration = time.Since(totalStart)

	result.Compile = ComputeStats(compileTimes)
	result.Extract = ComputeStats(extractTimes)
	result.StoreBytes = storeSize(storePath)
	return result, nil
}

// storeSize returns the on-disk size of a store, which is a single file
// for jsonl packs and a directory for sqlite packs.
func storeSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	if !info.IsDir() {
		return info.Size()
	}

	var total int64
	filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if fi, err := d.Info(); err == nil {
			total += fi.Size()
		}
		return nil
	})
	return total
}
