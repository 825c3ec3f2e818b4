package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cdmessin/grim-hollow-pack/internal/ui"
)

var cleanInclude []string

var cleanCmd = &cobra.Command{
	Use:     "clean [pack...]",
	GroupID: "pack",
	Short:   "Normalize YAML sources in place",
	Long: `Rewrite YAML source files into their normalized form without
touching any store.

Clean applies the same normalization compile and extract use, so a
tree that has been cleaned compiles without diffs. Files already in
normalized form are left alone; invalid files are reported and kept
as they are.

Use --include to restrict the run to files matching doublestar
patterns, relative to each pack's source directory:

  grimpack clean spells --include 'evocation/**'`,
	Run: func(cmd *cobra.Command, args []string) {
		p, err := loadProject()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		start := time.Now()
		results, err := p.pipeline().CleanAll(cmd.Context(), args, cleanInclude)

		for _, res := range results {
			fmt.Printf("%s cleaned %s: %d rewritten, %d unchanged", ui.Pass(ui.Check), res.Pack, res.Rewritten, res.Unchanged)
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
		fmt.Printf("%d pack(s) cleaned in %v\n", len(results), time.Since(start).Round(time.Millisecond))
	},
}

func init() {
	cleanCmd.Flags().StringSliceVar(&cleanInclude, "include", nil,
		"only clean files matching these patterns")
	rootCmd.AddCommand(cleanCmd)
}
