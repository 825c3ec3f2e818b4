package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cdmessin/grim-hollow-pack/internal/logger"
	"github.com/cdmessin/grim-hollow-pack/internal/ui"
	"github.com/cdmessin/grim-hollow-pack/internal/watch"
)

var (
	watchDebounce time.Duration
	watchPIDFile  string
	watchLogFile  string
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	GroupID: "dev",
	Short:   "Recompile packs as YAML sources change",
	Long: `Watch the YAML source tree and recompile packs when files settle.

The watcher:
1. Compiles every pack once on startup
2. Watches the source tree recursively for YAML changes
3. Debounces rapid edits so each burst compiles once
4. Recompiles only the packs whose sources changed

Edits are detected by content hash, so touching a file without
changing it does not trigger a rebuild. The watcher runs until
interrupted.`,
	Run: func(cmd *cobra.Command, args []string) {
		p, err := loadProject()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if watchLogFile != "" {
			p.Runtime.LogFile = watchLogFile
			p.Logger = logger.FromRuntime(p.Runtime)
		}
		debounce := watchDebounce
		if debounce <= 0 {
			debounce = p.Runtime.Debounce
		}

		if watchPIDFile != "" {
			if err := watch.WritePIDFile(watchPIDFile); err != nil {
				if errors.Is(err, watch.ErrDaemonRunning) {
					fmt.Fprintf(os.Stderr, "Error: %v\nStop the running watcher or remove %s.\n", err, watchPIDFile)
				} else {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				}
				os.Exit(1)
			}
			defer watch.RemovePIDFile(watchPIDFile)
		}

		d, err := watch.New(p.pipeline(), p.Config.Watch.Ignore, &watch.Config{
			Debounce:       debounce,
			InitialCompile: true,
			OpLogSize:      256,
			Logger:         p.Logger,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("\n%s\n", ui.Header("grimpack watch"))
		fmt.Printf("Watching %s (debounce %v)\n", p.Config.Packs.Source, debounce)
		fmt.Println("Press Ctrl+C to stop")
		fmt.Println()

		if err := d.Run(cmd.Context()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0,
		"settle time before recompiling (default: config value)")
	watchCmd.Flags().StringVar(&watchPIDFile, "pidfile", "",
		"write the watcher pid to this file and refuse to start if one is running")
	watchCmd.Flags().StringVar(&watchLogFile, "log-file", "",
		"also write logs to this file")
	rootCmd.AddCommand(watchCmd)
}
