// Package benchmark measures pack codec performance. It generates a
// synthetic pack of configurable size, runs timed compile and extract
// rounds through the real pipeline for each store driver, and reports
// latency percentiles alongside store size so the formats can be
// compared on equal footing.
package benchmark

import (
	"fmt"
	"sort"
	"time"

	"github.com/cdmessin/grim-hollow-pack/internal/packdb"
)

// Config defines the shape of the synthetic pack and the measurement
// parameters for a benchmark run.
type Config struct {
	// Documents is the number of top-level documents in the pack.
	Documents int

	// Folders is how many folder documents the pack is spread across.
	Folders int

	// Embedded is how many embedded items each document carries.
	Embedded int

	// Rounds is how many timed compile/extract cycles to run.
	Rounds int
}

// DefaultConfig returns a benchmark configuration sized like a mid-size
// compendium.
func DefaultConfig() Config {
	return Config{
		Documents: 500,
		Folders:   10,
		Embedded:  3,
		Rounds:    5,
	}
}

// Result captures the metrics of benchmarking one driver.
type Result struct {
	// Driver is the store format that was measured.
	Driver packdb.Type

	// Config is the configuration used for this run.
	Config Config

	// Compile holds latency statistics for the compile rounds.
	Compile PhaseMetrics

	// Extract holds latency statistics for the extract rounds.
	Extract PhaseMetrics

	// StoreBytes is the on-disk size of the compiled store.
	StoreBytes int64

	// DocumentCount is the number of documents the store reported.
	DocumentCount int

	// TotalDuration covers all timed rounds.
	TotalDuration time.Duration
}

// PhaseMetrics captures latency statistics for one pipeline phase.
type PhaseMetrics struct {
	Min  time.Duration
	P50  time.Duration
	Mean time.Duration
	P95  time.Duration
	Max  time.Duration

	// Durations holds the raw per-round timings, sorted ascending.
	Durations []time.Duration
}

// ComputeStats calculates latency statistics from raw durations.
func ComputeStats(durations []time.Duration) PhaseMetrics {
	if len(durations) == 0 {
		return PhaseMetrics{}
	}

	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}

	return PhaseMetrics{
		Min:       sorted[0],
		P50:       sorted[len(sorted)*50/100],
		Mean:      sum / time.Duration(len(sorted)),
		P95:       sorted[len(sorted)*95/100],
		Max:       sorted[len(sorted)-1],
		Durations: sorted,
	}
}

// FormatBytes formats bytes into a human-readable string.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatDuration formats a duration into a human-readable string.
func FormatDuration(d time.Duration) string {
	if d < time.Microsecond {
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
	if d < time.Millisecond {
		return fmt.Sprintf("%.2fµs", float64(d.Nanoseconds())/1000.0)
	}
	if d < time.Second {
		return fmt.Sprintf("%.2fms", float64(d.Microseconds())/1000.0)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// PrintResult outputs a formatted benchmark result.
func PrintResult(result *Result) {
	fmt.Printf("\n=== Benchmark Results (%s driver) ===\n\n", result.Driver)

	fmt.Printf("Configuration:\n")
	fmt.Printf("  Documents:          %d\n", result.Config.Documents)
	fmt.Printf("  Folders:            %d\n", result.Config.Folders)
	fmt.Printf("  Embedded per doc:   %d\n", result.Config.Embedded)
	fmt.Printf("  Rounds:             %d\n", result.Config.Rounds)
	fmt.Printf("\n")

	printPhase("Compile", result.Compile)
	printPhase("Extract", result.Extract)

	fmt.Printf("Store:\n")
	fmt.Printf("  Size:               %s\n", FormatBytes(result.StoreBytes))
	fmt.Printf("  Documents:          %d\n", result.DocumentCount)
	fmt.Printf("\n")

	fmt.Printf("Overall:\n")
	fmt.Printf("  Total Duration:     %s\n", FormatDuration(result.TotalDuration))
	fmt.Printf("\n")
}

func printPhase(name string, m PhaseMetrics) {
	fmt.Printf("%s latency:\n", name)
	fmt.Printf("  Min:                %s\n", FormatDuration(m.Min))
	fmt.Printf("  P50:                %s\n", FormatDuration(m.P50))
	fmt.Printf("  Mean:               %s\n", FormatDuration(m.Mean))
	fmt.Printf("  P95:                %s\n", FormatDuration(m.P95))
	fmt.Printf("  Max:                %s\n", FormatDuration(m.Max))
	fmt.Printf("\n")
}
