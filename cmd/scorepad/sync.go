package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/scorepadhq/scorepad/internal/dashboard"
	"github.com/scorepadhq/scorepad/internal/logging"
	"github.com/scorepadhq/scorepad/internal/syncer"
	"github.com/scorepadhq/scorepad/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Drain the offline queue now",
	Long: `Submit queued writes to the scoring service, oldest first.

One drain pass walks the queue in enqueue order. Delivered entries are
removed; entries that fail on the network stay for the next pass; an
entry that fails three passes is abandoned and its cached score marked
failed.

With --watch, sync runs as a foreground daemon: it drains on reconnect
and on a periodic check while a backlog exists, and (unless --no-dashboard)
serves the venue-ops dashboard.`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := buildApp()
		if err != nil {
			fatalf("%v", err)
		}
		defer a.Close()

		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			runWatch(cmd, a)
			return
		}

		s, err := buildSyncer(a, nil)
		if err != nil {
			fatalf("%v", err)
		}

		depth, err := s.Backlog(cmd.Context())
		if err != nil {
			fatalf("%v", err)
		}
		if depth == 0 {
			fmt.Printf("%s Queue is empty\n", ui.RenderPass("✓"))
			return
		}

		fmt.Printf("%s Draining %d queued write(s)...\n", ui.RenderAccent("🔄"), depth)
		start := time.Now()

		results, err := s.SyncNow(cmd.Context())
		if err != nil {
			if errors.Is(err, syncer.ErrSyncInProgress) {
				fatalf("a sync is already running")
			}
			fatalf("%v", err)
		}

		delivered, abandoned := 0, 0
		for _, res := range results {
			switch {
			case res.Success:
				delivered++
			case res.Terminal:
				abandoned++
				fmt.Printf("%s Abandoned %s %s after %d attempts\n",
					ui.RenderFail("✗"), res.Method, res.Target, res.RetryCount)
			}
		}

		remaining, _ := s.Backlog(cmd.Context())
		elapsed := time.Since(start)

		fmt.Printf("%s Sync complete in %v\n", ui.RenderPass("✓"), elapsed.Round(time.Millisecond))
		fmt.Printf("   Delivered: %d\n", delivered)
		if abandoned > 0 {
			fmt.Printf("   Abandoned: %d\n", abandoned)
		}
		if remaining > 0 {
			fmt.Printf("   Remaining: %d (will retry)\n", remaining)
		}
	},
}

// runWatch runs the sync daemon in the foreground until interrupted.
func runWatch(cmd *cobra.Command, a *app) {
	var (
		server *dashboard.Server
		bridge *dashboard.Bridge
		onPass func([]syncer.Result)
	)

	if noDash, _ := cmd.Flags().GetBool("no-dashboard"); !noDash {
		server = dashboard.NewServer(&dashboard.Config{
			Port:   cfg.DashboardPort,
			Logger: logging.New(logging.Output(cfg.LogFile), "dashboard"),
		})
		if err := server.Start(); err != nil {
			fatalf("%v", err)
		}
		bridge = dashboard.NewBridge(server, a.store)
		bridge.WatchConnectivity(a.monitor)
		onPass = bridge.OnPass
	}

	s, err := buildSyncer(a, onPass)
	if err != nil {
		fatalf("%v", err)
	}
	if bridge != nil {
		s.AddListener(bridge)
	}

	if a.fileMon != nil {
		if err := a.fileMon.Start(); err != nil {
			fatalf("%v", err)
		}
		defer a.fileMon.Stop()
		fmt.Printf("   Connectivity: watching %s\n", cfg.NetStateFile)
	} else {
		fmt.Printf("   Connectivity: assumed online (no net.state_file configured)\n")
	}

	fmt.Printf("%s Sync daemon running\n", ui.RenderAccent("🚀"))
	fmt.Printf("   Server: %s\n", cfg.ServerURL)
	fmt.Printf("   Interval: %v\n", cfg.SyncInterval)
	if server != nil {
		fmt.Printf("   Dashboard: ws://%s/ws\n", server.Addr())
	}
	fmt.Printf("\nPress Ctrl+C to stop\n\n")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s.Run(ctx)

	fmt.Println("\nShutting down...")
	if bridge != nil {
		bridge.Stop()
	}
	if server != nil {
		if err := server.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error during dashboard shutdown: %v\n", err)
		}
	}
}

func init() {
	syncCmd.Flags().Bool("watch", false, "run as a foreground daemon")
	syncCmd.Flags().Bool("no-dashboard", false, "disable the venue-ops dashboard in watch mode")

	rootCmd.AddCommand(syncCmd)
}
