package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cdmessin/grim-hollow-pack/internal/reload"
	"github.com/cdmessin/grim-hollow-pack/internal/ui"
	"github.com/cdmessin/grim-hollow-pack/internal/watch"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "dev",
	Short:   "Watch sources and serve live-reload notifications",
	Long: `Run the watcher together with a development reload server.

The server exposes:
  /ws         websocket stream of compile operations as they finish
  /api/ops    recent operations as JSON (newest first, ?n= to limit)
  /healthz    server health and connected client count

Game clients subscribe to /ws and re-fetch compendium data whenever a
pack they care about recompiles. The server runs until interrupted.`,
	Run: func(cmd *cobra.Command, args []string) {
		p, err := loadProject()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		addr := serveAddr
		if addr == "" {
			addr = p.Runtime.ServeAddr
		}

		cfg := &watch.Config{
			Debounce:       p.Runtime.Debounce,
			InitialCompile: true,
			OpLogSize:      256,
			Logger:         p.Logger,
		}
		d, err := watch.New(p.pipeline(), p.Config.Watch.Ignore, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		srv := reload.New(addr, d.OpLog(), p.Logger)
		cfg.OnOperation = srv.Broadcast

		if err := srv.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer srv.Stop()

		fmt.Printf("\n%s\n", ui.Header("grimpack serve"))
		fmt.Printf("Watching %s (debounce %v)\n", p.Config.Packs.Source, cfg.Debounce)
		fmt.Printf("Reload server on http://%s\n", srv.Addr())
		fmt.Println("Press Ctrl+C to stop")
		fmt.Println()

		if err := d.Run(cmd.Context()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"listen address for the reload server (default: config value)")
	rootCmd.AddCommand(serveCmd)
}
