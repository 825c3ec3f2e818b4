package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cdmessin/grim-hollow-pack/internal/packdb"
	"github.com/cdmessin/grim-hollow-pack/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "maint",
	Short:   "Show manifest and per-pack state",
	Long: `Display the module manifest identity and the state of every pack.

For each pack, status reports the store driver, the number of
documents in the store, and the number of YAML source files. Packs
whose store has not been compiled yet are flagged.`,
	Run: func(cmd *cobra.Command, args []string) {
		p, err := loadProject()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("\n%s %s\n", ui.Header(p.Manifest.Title), ui.Muted("("+p.Manifest.ID+")"))
		fmt.Printf("Version:  %s", p.Manifest.Version)
		if !p.Manifest.VersionValid() {
			fmt.Printf(" %s", ui.Warn("(not semver)"))
		}
		fmt.Println()
		fmt.Printf("Manifest: %s\n", p.Config.Manifest)
		fmt.Printf("Source:   %s\n", p.Config.Packs.Source)
		fmt.Printf("Packs:    %d\n\n", len(p.Manifest.Packs))

		for i := range p.Manifest.Packs {
			pack := &p.Manifest.Packs[i]
			packPath := filepath.Join(p.Root, pack.Path)
			sourceDir := filepath.Join(p.Root, p.Config.Packs.Source, pack.Name)
			sources := countSourceFiles(sourceDir)

			drv, err := packdb.ForPack(packPath, packdb.Type(p.Config.Packs.Driver))
			if err != nil {
				fmt.Printf("  %s %s: %v\n", ui.Fail(ui.Cross), pack.Name, err)
				continue
			}

			if !drv.Exists(packPath) {
				fmt.Printf("  %s %s (%s, %s): store not compiled, %d source files\n",
					ui.Warn("!"), pack.Name, pack.Type, drv.Name(), sources)
				continue
			}

			count, err := drv.Count(cmd.Context(), packPath)
			if err != nil {
				fmt.Printf("  %s %s (%s, %s): %v\n", ui.Fail(ui.Cross), pack.Name, pack.Type, drv.Name(), err)
				continue
			}
			fmt.Printf("  %s %s (%s, %s): %d documents in store, %d source files\n",
				ui.Pass(ui.Check), pack.Name, pack.Type, drv.Name(), count, sources)
		}
		fmt.Println()
	},
}

// countSourceFiles returns the number of YAML files under dir. A
// missing directory counts as zero.
func countSourceFiles(dir string) int {
	count := 0
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yml", ".yaml":
			count++
		}
		return nil
	})
	return count
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
