package benchmark

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cdmessin/grim-hollow-pack/internal/packdb"
)

// ComparisonResult contains the results of comparing the two store
// formats over the same synthetic pack.
type ComparisonResult struct {
	SQLite *Result
	JSONL  *Result

	// Improvement percentages, positive when sqlite is better. Keys are
	// compile_p50, compile_mean, compile_p95, extract_p50, extract_mean,
	// extract_p95 and store_size.
	Improvement map[string]float64

	// WinCount tallies metrics won by each driver.
	WinCount map[string]int

	// OverallWinner is "sqlite", "jsonl" or "tie".
	OverallWinner string
}

// Compare benchmarks both store formats and computes their relative
// performance.
func Compare(ctx context.Context, cfg Config) (*ComparisonResult, error) {
	sqliteResult, err := Run(ctx, packdb.TypeSQLite, cfg)
	if err != nil {
		return nil, fmt.Errorf("sqlite benchmark failed: %w", err)
	}
	jsonlResult, err := Run(ctx, packdb.TypeJSONL, cfg)
	if err != nil {
		return nil, fmt.Errorf("jsonl benchmark failed: %w", err)
	}

	result := &ComparisonResult{
		SQLite:      sqliteResult,
		JSONL:       jsonlResult,
		Improvement: make(map[string]float64),
		WinCount:    make(map[string]int),
	}

	result.Improvement["compile_p50"] = improvement(sqliteResult.Compile.P50.Seconds(), jsonlResult.Compile.P50.Seconds())
	result.Improvement["compile_mean"] = improvement(sqliteResult.Compile.Mean.Seconds(), jsonlResult.Compile.Mean.Seconds())
	result.Improvement["compile_p95"] = improvement(sqliteResult.Compile.P95.Seconds(), jsonlResult.Compile.P95.Seconds())
	result.Improvement["extract_p50"] = improvement(sqliteResult.Extract.P50.Seconds(), jsonlResult.Extract.P50.Seconds())
	result.Improvement["extract_mean"] = improvement(sqliteResult.Extract.Mean.Seconds(), jsonlResult.Extract.Mean.Seconds())
	result.Improvement["extract_p95"] = improvement(sqliteResult.Extract.P95.Seconds(), jsonlResult.Extract.P95.Seconds())
	result.Improvement["store_size"] = improvement(float64(sqliteResult.StoreBytes), float64(jsonlResult.StoreBytes))

	for _, v := range result.Improvement {
		if v > 0 {
			result.WinCount["sqlite"]++
		} else if v < 0 {
			result.WinCount["jsonl"]++
		}
	}

	switch {
	case result.WinCount["sqlite"] > result.WinCount["jsonl"]:
		result.OverallWinner = "sqlite"
	case result.WinCount["jsonl"] > result.WinCount["sqlite"]:
		result.OverallWinner = "jsonl"
	default:
		result.OverallWinner = "tie"
	}
	return result, nil
}

// improvement calculates the percentage by which sqlite beats jsonl.
// Positive means sqlite is better.
func improvement(sqliteValue, jsonlValue float64) float64 {
	if jsonlValue == 0 {
		return 0
	}
	return (jsonlValue - sqliteValue) / jsonlValue * 100
}

// PrintComparison outputs a formatted comparison report.
func PrintComparison(result *ComparisonResult) {
	separator := strings.Repeat("=", 72)
	fmt.Printf("\n%s\n", separator)
	fmt.Printf("STORE FORMAT COMPARISON: sqlite vs jsonl\n")
	fmt.Printf("%s\n\n", separator)

	fmt.Printf("Configuration:\n")
	fmt.Printf("  Documents:          %d\n", result.SQLite.Config.Documents)
	fmt.Printf("  Folders:            %d\n", result.SQLite.Config.Folders)
	fmt.Printf("  Embedded per doc:   %d\n", result.SQLite.Config.Embedded)
	fmt.Printf("  Rounds:             %d\n\n", result.SQLite.Config.Rounds)

	fmt.Printf("LATENCY COMPARISON:\n")
	fmt.Printf("%-14s | %-12s | %-12s | %-15s\n", "Metric", "SQLite", "JSONL", "Improvement")
	fmt.Printf("%s\n", strings.Repeat("-", 62))
	printComparisonRow("Compile P50", result.SQLite.Compile.P50, result.JSONL.Compile.P50, result.Improvement["compile_p50"])
	printComparisonRow("Compile Mean", result.SQLite.Compile.Mean, result.JSONL.Compile.Mean, result.Improvement["compile_mean"])
	printComparisonRow("Compile P95", result.SQLite.Compile.P95, result.JSONL.Compile.P95, result.Improvement["compile_p95"])
	printComparisonRow("Extract P50", result.SQLite.Extract.P50, result.JSONL.Extract.P50, result.Improvement["extract_p50"])
	printComparisonRow("Extract Mean", result.SQLite.Extract.Mean, result.JSONL.Extract.Mean, result.Improvement["extract_mean"])
	printComparisonRow("Extract P95", result.SQLite.Extract.P95, result.JSONL.Extract.P95, result.Improvement["extract_p95"])
	fmt.Printf("\n")

	fmt.Printf("STORE SIZE:\n")
	fmt.Printf("  SQLite:     %s\n", FormatBytes(result.SQLite.StoreBytes))
	fmt.Printf("  JSONL:      %s\n", FormatBytes(result.JSONL.StoreBytes))
	fmt.Printf("  Difference: %s%.1f%%\n\n", formatSign(result.Improvement["store_size"]), result.Improvement["store_size"])

	fmt.Printf("SUMMARY:\n")
	fmt.Printf("  SQLite Wins:    %d metrics\n", result.WinCount["sqlite"])
	fmt.Printf("  JSONL Wins:     %d metrics\n", result.WinCount["jsonl"])
	fmt.Printf("  Overall Winner: %s\n\n", strings.ToUpper(result.OverallWinner))

	fmt.Printf("KEY INSIGHTS:\n")
	if result.Improvement["extract_p50"] > 0 {
		fmt.Printf("  ✓ SQLite extraction is %.1f%% faster (key-ordered index scan)\n", result.Improvement["extract_p50"])
	}
	if result.Improvement["compile_p50"] < 0 {
		fmt.Printf("  ✓ JSONL compile is %.1f%% faster (append-only rewrite)\n", -result.Improvement["compile_p50"])
	}
	if result.Improvement["store_size"] < 0 {
		fmt.Printf("  ✓ JSONL stores are %.1f%% smaller on disk\n", -result.Improvement["store_size"])
	}
	if result.SQLite.DocumentCount != result.JSONL.DocumentCount {
		fmt.Printf("  ✗ Document counts differ: sqlite=%d jsonl=%d\n",
			result.SQLite.DocumentCount, result.JSONL.DocumentCount)
	}
	fmt.Printf("\n%s\n\n", separator)
}

// printComparisonRow prints a single row in the latency comparison
// table.
func printComparisonRow(metric string, sqliteVal, jsonlVal time.Duration, improvement float64) {
	improvementStr := fmt.Sprintf("%s%.1f%%", formatSign(improvement), improvement)
	if improvement > 0 {
		improvementStr += " ✓"
	}
	fmt.Printf("%-14s | %-12s | %-12s | %-15s\n",
		metric,
		FormatDuration(sqliteVal),
		FormatDuration(jsonlVal),
		improvementStr)
}

// formatSign returns a + sign for positive values for display.
func formatSign(value float64) string {
	if value > 0 {
		return "+"
	}
	return ""
}
