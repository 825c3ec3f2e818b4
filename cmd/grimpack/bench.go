package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cdmessin/grim-hollow-pack/internal/benchmark"
	"github.com/cdmessin/grim-hollow-pack/internal/packdb"
)

var (
	benchDocs     int
	benchFolders  int
	benchEmbedded int
	benchRounds   int
	benchDriver   string
)

var benchCmd = &cobra.Command{
	Use:     "bench",
	GroupID: "maint",
	Short:   "Benchmark the store drivers",
	Long: `Measure compile and extract latency against generated documents.

The benchmark:
1. Generates a synthetic pack of documents with folders and embeds
2. Compiles and extracts it for the configured number of rounds
3. Reports min, median, mean, p95, and max per phase

With --driver it measures a single driver. Without it, both drivers
run against the same workload and the results are compared. The
benchmark works in a temporary directory and needs no project.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := benchmark.Config{
			Documents: benchDocs,
			Folders:   benchFolders,
			Embedded:  benchEmbedded,
			Rounds:    benchRounds,
		}

		if benchDriver != "" {
			result, err := benchmark.Run(cmd.Context(), packdb.Type(benchDriver), cfg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			benchmark.PrintResult(result)
			return
		}

		result, err := benchmark.Compare(cmd.Context(), cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		benchmark.PrintComparison(result)
	},
}

func init() {
	defaults := benchmark.DefaultConfig()
	benchCmd.Flags().IntVar(&benchDocs, "docs", defaults.Documents,
		"number of documents to generate")
	benchCmd.Flags().IntVar(&benchFolders, "folders", defaults.Folders,
		"number of folders to spread documents across")
	benchCmd.Flags().IntVar(&benchEmbedded, "embedded", defaults.Embedded,
		"embedded items per document")
	benchCmd.Flags().IntVar(&benchRounds, "rounds", defaults.Rounds,
		"measurement rounds per phase")
	benchCmd.Flags().StringVar(&benchDriver, "driver", "",
		"benchmark a single driver (sqlite or jsonl) instead of comparing")
	rootCmd.AddCommand(benchCmd)
}
