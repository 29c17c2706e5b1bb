package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scorepadhq/scorepad/internal/store"
	"github.com/scorepadhq/scorepad/internal/ui"
)

var scoresCmd = &cobra.Command{
	Use:     "scores [submission-id]",
	GroupID: "judging",
	Short:   "List cached scores",
	Long: `List scores cached on this device.

With a submission id, shows that submission's scores. With --pending,
shows only scores still awaiting server confirmation.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openStore()
		if err != nil {
			fatalf("%v", err)
		}
		defer st.Close()

		ctx := cmd.Context()

		var scores []*store.CachedScore
		pending, _ := cmd.Flags().GetBool("pending")
		switch {
		case len(args) == 1:
			scores, err = st.ScoresBySubmission(ctx, args[0])
		case pending:
			scores, err = st.ScoresByStatus(ctx, store.SyncPending)
		default:
			scores, err = st.ScoresByStatus(ctx, store.SyncSynced)
			if err == nil {
				var rest []*store.CachedScore
				for _, status := range []store.SyncStatus{store.SyncPending, store.SyncFailed} {
					rest, err = st.ScoresByStatus(ctx, status)
					if err != nil {
						break
					}
					scores = append(scores, rest...)
				}
			}
		}
		if err != nil {
			fatalf("%v", err)
		}

		if len(scores) == 0 {
			fmt.Printf("%s No cached scores\n", ui.RenderDim("·"))
			return
		}

		fmt.Printf("\n%d score(s):\n\n", len(scores))
		for _, sc := range scores {
			fmt.Printf("  %s %s %s = %.1f  %s\n",
				renderScoreStatus(sc.SyncStatus), sc.SubmissionID, sc.CriterionID, sc.ScoreValue,
				ui.RenderDim(sc.UpdatedAt.Format("2006-01-02 15:04:05")))
			if sc.Comment != "" {
				fmt.Printf("      %s\n", ui.RenderDim(sc.Comment))
			}
		}
		fmt.Println()
	},
}

func renderScoreStatus(status store.SyncStatus) string {
	switch status {
	case store.SyncSynced:
		return ui.RenderPass("✓")
	case store.SyncPending:
		return ui.RenderWarn("…")
	case store.SyncFailed:
		return ui.RenderFail("✗")
	default:
		return "?"
	}
}

func init() {
	scoresCmd.Flags().Bool("pending", false, "show only unconfirmed scores")

	rootCmd.AddCommand(scoresCmd)
}
