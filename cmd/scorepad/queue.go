package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scorepadhq/scorepad/internal/ui"
)

var queueCmd = &cobra.Command{
	Use:     "queue",
	GroupID: "sync",
	Short:   "List queued offline writes",
	Long: `List the writes waiting in the offline queue, oldest first.

Each entry shows its method, target path, enqueue time, and how many
drain passes have already failed (entries are abandoned after 3).`,
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openStore()
		if err != nil {
			fatalf("%v", err)
		}
		defer st.Close()

		reqs, err := st.PendingRequests(cmd.Context())
		if err != nil {
			fatalf("%v", err)
		}

		if len(reqs) == 0 {
			fmt.Printf("%s Queue is empty\n", ui.RenderPass("✓"))
			return
		}

		fmt.Printf("\n%d queued write(s):\n\n", len(reqs))
		for i, req := range reqs {
			fmt.Printf("%2d. %s %s\n", i+1, req.Method, req.Target)
			fmt.Printf("    Enqueued: %s", req.EnqueuedAt.Format("2006-01-02 15:04:05"))
			if req.RetryCount > 0 {
				fmt.Printf("  %s", ui.RenderWarn(fmt.Sprintf("(%d failed attempt(s))", req.RetryCount)))
			}
			fmt.Println()
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(queueCmd)
}
