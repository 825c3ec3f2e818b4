package main

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/cdmessin/grim-hollow-pack/internal/config"
	"github.com/cdmessin/grim-hollow-pack/internal/logger"
	"github.com/cdmessin/grim-hollow-pack/internal/manifest"
	"github.com/cdmessin/grim-hollow-pack/internal/packdb"
	"github.com/cdmessin/grim-hollow-pack/internal/pipeline"
	"github.com/cdmessin/grim-hollow-pack/internal/ui"

	_ "github.com/cdmessin/grim-hollow-pack/internal/packdb/jsonl"
	_ "github.com/cdmessin/grim-hollow-pack/internal/packdb/sqlite"
)

var (
	flagDir     string
	flagVerbose bool
	flagNoColor bool

	rootCmd = &cobra.Command{
		Use:   "grimpack",
		Short: "Compendium pack tooling for Grim Hollow",
		Long: `grimpack converts between binary compendium packs and the YAML
source trees they are built from.

Binary packs are what the game loads; YAML sources are what authors
edit and review. grimpack keeps the two in sync:

  grimpack compile          Build every pack from its YAML sources
  grimpack extract          Unpack stores back into YAML sources
  grimpack clean            Normalize YAML sources in place
  grimpack watch            Recompile packs as sources change
  grimpack serve            Watch plus a live-reload websocket server
  grimpack status           Show manifest and per-pack state
  grimpack init             Scaffold a new pack project

Configuration lives in grimpack.toml next to the module manifest;
commands look for it upward from the working directory.`,
	}
)

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "pack", Title: "Pack commands:"},
		&cobra.Group{ID: "dev", Title: "Development commands:"},
		&cobra.Group{ID: "maint", Title: "Maintenance commands:"},
	)
	rootCmd.PersistentFlags().StringVarP(&flagDir, "dir", "C", "",
		"project directory (default: nearest grimpack.toml above the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false,
		"disable styled output")
}

// project bundles everything a command needs to operate on a pack
// workspace.
type project struct {
	Root     string
	Config   *config.Config
	Runtime  *config.Runtime
	Manifest *manifest.Manifest
	Logger   *log.Logger
}

// loadProject resolves the project root, loads configuration and the
// module manifest, and builds the logger the commands share.
func loadProject() (*project, error) {
	dir := flagDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = wd
	}
	root := config.Find(dir)
	if root == "" {
		root = dir
	}

	cfg, err := config.Load(filepath.Join(root, config.ProjectFile))
	if err != nil {
		return nil, err
	}
	rt := config.LoadRuntime(cfg)
	if flagVerbose {
		rt.LogLevel = "debug"
	}
	if flagNoColor {
		rt.NoColor = true
	}
	if rt.NoColor {
		ui.Disable()
	}

	m, err := manifest.Load(filepath.Join(root, cfg.Manifest))
	if err != nil {
		return nil, err
	}

	return &project{
		Root:     root,
		Config:   cfg,
		Runtime:  rt,
		Manifest: m,
		Logger:   logger.FromRuntime(rt),
	}, nil
}

// pipeline builds the pack pipeline configured by the project.
func (p *project) pipeline() *pipeline.Pipeline {
	return pipeline.New(p.Manifest, pipeline.Options{
		RootDir:   p.Root,
		SourceDir: p.Config.Packs.Source,
		Driver:    packdb.Type(p.Config.Packs.Driver),
		Normalize: p.Config.NormalizeOptions(),
		Logger:    p.Logger,
	})
}
