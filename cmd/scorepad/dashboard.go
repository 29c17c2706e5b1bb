package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scorepadhq/scorepad/internal/dashboard"
	"github.com/scorepadhq/scorepad/internal/logging"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	GroupID: "sync",
	Short:   "Start the venue-ops WebSocket dashboard",
	Long: `Start a WebSocket server that broadcasts this device's sync state to
connected clients, for venue-ops screens that watch judging devices
without touching them.

WebSocket messages include:
- score_recorded: a queued score was delivered (or abandoned)
- queue_update: the offline backlog depth changed
- sync_complete: a drain pass finished
- connectivity: the device went online or offline

Note: 'scorepad sync --watch' serves the same dashboard alongside the
drain daemon; this command serves it standalone.

Connect with a WebSocket client:
  ws://localhost:8990/ws`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := buildApp()
		if err != nil {
			fatalf("%v", err)
		}
		defer a.Close()

		port, _ := cmd.Flags().GetInt("port")
		if port == 0 {
			port = cfg.DashboardPort
		}

		server := dashboard.NewServer(&dashboard.Config{
			Port:   port,
			Logger: logging.New(logging.Output(cfg.LogFile), "dashboard"),
		})

		if err := server.Start(); err != nil {
			fatalf("failed to start dashboard: %v", err)
		}

		bridge := dashboard.NewBridge(server, a.store)
		bridge.WatchConnectivity(a.monitor)

		if a.fileMon != nil {
			if err := a.fileMon.Start(); err != nil {
				fatalf("%v", err)
			}
			defer a.fileMon.Stop()
		}

		fmt.Printf("Dashboard server started on http://localhost:%d\n", port)
		fmt.Printf("WebSocket endpoint: ws://localhost:%d/ws\n", port)
		fmt.Printf("Health check: http://localhost:%d/health\n", port)
		fmt.Println("\nPress Ctrl+C to stop...")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		<-ctx.Done()

		fmt.Println("\nShutting down dashboard server...")
		bridge.Stop()
		if err := server.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("Dashboard server stopped")
	},
}

func init() {
	dashboardCmd.Flags().IntP("port", "p", 0, "port to listen on (default: configured dashboard.port)")

	rootCmd.AddCommand(dashboardCmd)
}
