package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cdmessin/grim-hollow-pack/internal/ui"
)

var extractCmd = &cobra.Command{
	Use:     "extract [pack...]",
	GroupID: "pack",
	Short:   "Unpack binary stores into YAML sources",
	Long: `Extract binary pack stores back into their YAML source trees.

Documents come out normalized and deterministically laid out:
  1. Read every document from the store in key order
  2. Normalize ownership, names and provenance metadata
  3. Write one YAML file per document, folders as directories

Running extract twice in a row produces byte-identical trees, so
diffs after an extract show real content changes only. Without
arguments every pack in the manifest is extracted.`,
	Run: func(cmd *cobra.Command, args []string) {
		p, err := loadProject()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		start := time.Now()
		results, err := p.pipeline().ExtractAll(cmd.Context(), args)

		for _, res := range results {
			fmt.Printf("%s extracted %s: %d documents (%d folders)", ui.Pass(ui.Check), res.Pack, res.Documents, res.Folders)
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
		fmt.Printf("%d pack(s) extracted in %v\n", len(results), time.Since(start).Round(time.Millisecond))
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
