package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/scorepadhq/scorepad/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "sync",
	Short:   "Show device sync status",
	Long: `Display the device's current state.

Shows:
  - Connectivity (per the host state file, when configured)
  - Session (logged-in judge and seat)
  - Offline queue depth
  - Cached scores awaiting confirmation`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := buildApp()
		if err != nil {
			fatalf("%v", err)
		}
		defer a.Close()

		ctx := cmd.Context()

		fmt.Printf("\n%s scorepad status\n\n", ui.RenderAccent("📊"))

		if a.monitor.Online() {
			fmt.Printf("Connectivity: %s\n", ui.RenderPass("online"))
		} else {
			fmt.Printf("Connectivity: %s\n", ui.RenderWarn("offline"))
		}

		if a.keeper.LoggedIn() {
			claims, err := a.keeper.Claims()
			switch {
			case err != nil:
				fmt.Printf("Session: logged in (token unreadable: %v)\n", err)
			default:
				fmt.Printf("Session: %s", claims.Judge)
				if claims.SeatID != "" {
					fmt.Printf(" (seat %s)", claims.SeatID)
				}
				if !claims.ExpiresAt.IsZero() {
					if time.Now().After(claims.ExpiresAt) {
						fmt.Printf(" %s", ui.RenderFail("[expired]"))
					} else {
						fmt.Printf(", expires %s", claims.ExpiresAt.Format("2006-01-02 15:04"))
					}
				}
				fmt.Println()
			}
		} else {
			fmt.Printf("Session: %s\n", ui.RenderDim("not logged in"))
		}

		depth, err := a.store.QueueDepth(ctx)
		if err != nil {
			fatalf("%v", err)
		}
		if depth == 0 {
			fmt.Printf("Queue: %s\n", ui.RenderPass("empty"))
		} else {
			fmt.Printf("Queue: %s\n", ui.RenderWarn(fmt.Sprintf("%d write(s) waiting", depth)))
		}

		pending, err := a.store.PendingScoreCount(ctx)
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("Unconfirmed scores: %d\n", pending)

		if info, err := os.Stat(cfg.DBPath); err == nil {
			fmt.Printf("Database: %s (%s)\n", cfg.DBPath, formatSize(info.Size()))
		}
		fmt.Println()
	},
}

func formatSize(size int64) string {
	switch {
	case size > 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	case size > 1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
