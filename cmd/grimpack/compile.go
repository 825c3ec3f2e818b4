package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cdmessin/grim-hollow-pack/internal/ui"
)

var compileCmd = &cobra.Command{
	Use:     "compile [pack...]",
	GroupID: "pack",
	Short:   "Build binary packs from YAML sources",
	Long: `Compile YAML source trees into binary pack stores.

Each pack's source directory is read in full, every document is
normalized, and the store contents are replaced in one shot:
  1. Walk the pack's source directory for .yml files
  2. Validate and normalize each document
  3. Write the complete set through the pack's store driver

Source files that do not form a valid document are skipped and
reported; a malformed file aborts that pack without touching its
store. Without arguments every pack in the manifest is compiled.`,
	Run: func(cmd *cobra.Command, args []string) {
		p, err := loadProject()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		start := time.Now()
		results, err := p.pipeline().CompileAll(cmd.Context(), args)

		for _, res := range results {
			fmt.Printf("%s compiled %s: %d documents", ui.Pass(ui.Check), res.Pack, res.Documents)
			if res.Skipped > 0 {
				fmt.Printf(", %s", ui.Warn(fmt.Sprintf("%d skipped", res.Skipped)))
			}
			fmt.Println()
			for _, msg := range res.Errors {
				fmt.Printf("    %s %s\n", ui.Warn(ui.Bullet), msg)
			}
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", ui.Fail(ui.Cross), err)
			os.Exit(1)
		}
		fmt.Printf("%d pack(s) compiled in %v\n", len(results), time.Since(start).Round(time.Millisecond))
	},
}

func init() {
	rootCmd.AddCommand(compileCmd)
}
