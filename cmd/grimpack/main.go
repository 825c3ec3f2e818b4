package main

import (
	"context"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
)

// Version is the semantic version (set via -ldflags).
var Version = "dev"

func main() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		os.Exit(1)
	}
}
