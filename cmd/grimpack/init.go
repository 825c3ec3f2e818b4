package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/cdmessin/grim-hollow-pack/internal/config"
	"github.com/cdmessin/grim-hollow-pack/internal/manifest"
	"github.com/cdmessin/grim-hollow-pack/internal/ui"
)

var (
	initForce bool
	initYes   bool
)

// initData collects the answers the scaffolding form asks for.
type initData struct {
	ID        string
	Title     string
	PackDir   string
	SourceDir string
	Driver    string
}

var initCmd = &cobra.Command{
	Use:     "init",
	GroupID: "maint",
	Short:   "Scaffold a new pack project",
	Long: `Create a pack project in the current directory.

init writes:
1. grimpack.toml with the chosen layout and driver
2. A starter module manifest, unless one already exists
3. The pack and source directories

Run with --yes to accept the defaults without prompting. An existing
grimpack.toml is never overwritten unless --force is given.`,
	Run: func(cmd *cobra.Command, args []string) {
		root := flagDir
		if root == "" {
			wd, err := os.Getwd()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			root = wd
		}

		configPath := filepath.Join(root, config.ProjectFile)
		if _, err := os.Stat(configPath); err == nil && !initForce {
			fmt.Fprintf(os.Stderr, "Error: %s already exists (use --force to overwrite)\n", configPath)
			os.Exit(1)
		}

		cfg := config.Default()
		data := &initData{
			ID:        filepath.Base(root),
			PackDir:   cfg.Packs.Dir,
			SourceDir: cfg.Packs.Source,
			Driver:    "sqlite",
		}
		data.Title = data.ID

		if !initYes {
			if err := newInitForm(data).Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					os.Exit(1)
				}
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}

		cfg.Packs.Dir = data.PackDir
		cfg.Packs.Source = data.SourceDir
		cfg.Packs.Driver = data.Driver

		if err := cfg.Save(configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s wrote %s\n", ui.Pass(ui.Check), config.ProjectFile)

		for _, dir := range []string{cfg.Packs.Dir, cfg.Packs.Source} {
			if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}
		fmt.Printf("%s created %s and %s\n", ui.Pass(ui.Check), cfg.Packs.Dir, cfg.Packs.Source)

		manifestPath := filepath.Join(root, cfg.Manifest)
		if _, err := os.Stat(manifestPath); os.IsNotExist(err) {
			if err := writeStarterManifest(manifestPath, data); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("%s wrote starter %s\n", ui.Pass(ui.Check), cfg.Manifest)
		} else {
			fmt.Printf("%s keeping existing %s\n", ui.Pass(ui.Check), cfg.Manifest)
		}

		fmt.Println()
		fmt.Printf("Add packs to %s, then:\n", cfg.Manifest)
		fmt.Printf("  grimpack extract   # unpack existing stores into %s\n", cfg.Packs.Source)
		fmt.Printf("  grimpack compile   # build stores from YAML sources\n")
	},
}

// newInitForm builds the interactive scaffolding form.
func newInitForm(data *initData) *huh.Form {
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Module ID").
			Description("Identifier the game uses for this module").
			Value(&data.ID).
			Validate(validateModuleID),
		huh.NewInput().
			Title("Module title").
			Description("Display name shown to players").
			Value(&data.Title),
		huh.NewInput().
			Title("Pack directory").
			Description("Where compiled stores live").
			Value(&data.PackDir),
		huh.NewInput().
			Title("Source directory").
			Description("Where YAML sources live").
			Value(&data.SourceDir),
		huh.NewSelect[string]().
			Title("Store driver").
			Description("sqlite for current clients, jsonl for legacy ones").
			Options(huh.NewOptions("sqlite", "jsonl")...).
			Value(&data.Driver),
	))
}

func validateModuleID(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("module id is required")
	}
	if strings.ContainsAny(s, " \t") {
		return errors.New("module id cannot contain spaces")
	}
	return nil
}

// writeStarterManifest writes a minimal manifest with no packs.
func writeStarterManifest(path string, data *initData) error {
	m := manifest.Manifest{
		ID:      data.ID,
		Title:   data.Title,
		Version: "0.0.0",
		Packs:   []manifest.Pack{},
	}
	buf, err := json.MarshalIndent(&m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(buf, '\n'), 0o644)
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false,
		"overwrite an existing grimpack.toml")
	initCmd.Flags().BoolVar(&initYes, "yes", false,
		"accept defaults without prompting")
	rootCmd.AddCommand(initCmd)
}
