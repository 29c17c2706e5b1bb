package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/scorepadhq/scorepad/internal/judging"
	"github.com/scorepadhq/scorepad/internal/store"
	"github.com/scorepadhq/scorepad/internal/ui"
)

var scoreCmd = &cobra.Command{
	Use:     "score <submission-id>",
	GroupID: "judging",
	Short:   "Record a score for a submission",
	Long: `Record a scoring decision. The score is cached on the device
immediately; delivery to the scoring service depends on connectivity:

  - online and accepted: confirmed (synced)
  - offline or network failure: queued, drains on reconnect (pending)
  - rejected by the server: kept locally for review (failed)

Re-scoring the same submission/criterion overwrites the cached value.

Example:
  scorepad score sub-104 --criterion technique --value 8.5
  scorepad score sub-104 --interactive`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := buildApp()
		if err != nil {
			fatalf("%v", err)
		}
		defer a.Close()

		input := judging.ScoreInput{
			SubmissionID: args[0],
			SeatID:       cfg.SeatID,
		}
		input.CriterionID, _ = cmd.Flags().GetString("criterion")
		input.Phase, _ = cmd.Flags().GetString("phase")
		input.Value, _ = cmd.Flags().GetFloat64("value")
		input.Comment, _ = cmd.Flags().GetString("comment")
		if seat, _ := cmd.Flags().GetString("seat"); seat != "" {
			input.SeatID = seat
		}

		if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
			if err := promptScore(&input); err != nil {
				fatalf("%v", err)
			}
		}

		receipt, err := a.service.RecordScore(cmd.Context(), input)
		if err != nil {
			fatalf("%v", err)
		}

		switch {
		case receipt.Status == store.SyncSynced:
			fmt.Printf("%s Score confirmed: %s %s = %.1f\n",
				ui.RenderPass("✓"), input.SubmissionID, input.CriterionID, input.Value)
		case receipt.Queued:
			fmt.Printf("%s Score saved offline: %s %s = %.1f\n",
				ui.RenderWarn("⚠"), input.SubmissionID, input.CriterionID, input.Value)
			fmt.Printf("   Queued for sync (entry %s). Run 'scorepad sync' or wait for reconnect.\n", receipt.QueueID)
		default:
			fmt.Printf("%s Score rejected by server: %s\n", ui.RenderFail("✗"), receipt.Message)
			fmt.Printf("   Kept locally as failed; re-score to try again.\n")
		}
	},
}

// promptScore fills the missing fields of input via a terminal form.
// Flag values become the form's initial values.
func promptScore(input *judging.ScoreInput) error {
	value := ""
	if input.Value != 0 {
		value = strconv.FormatFloat(input.Value, 'f', -1, 64)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Criterion").
				Value(&input.CriterionID),
			huh.NewInput().
				Title("Phase").
				Value(&input.Phase),
			huh.NewInput().
				Title("Value (0-10)").
				Value(&value).
				Validate(func(s string) error {
					v, err := strconv.ParseFloat(s, 64)
					if err != nil {
						return fmt.Errorf("enter a number")
					}
					if v < 0 || v > 10 {
						return fmt.Errorf("must be between 0 and 10")
					}
					return nil
				}),
			huh.NewText().
				Title("Comment (optional)").
				CharLimit(500).
				Value(&input.Comment),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("scoring cancelled: %w", err)
	}

	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value %q", value)
	}
	input.Value = v
	return nil
}

func init() {
	scoreCmd.Flags().String("criterion", "", "criterion id")
	scoreCmd.Flags().String("phase", "", "competition phase")
	scoreCmd.Flags().Float64("value", 0, "score value (0-10)")
	scoreCmd.Flags().String("comment", "", "optional comment")
	scoreCmd.Flags().String("seat", "", "judging seat (default: configured judge.seat)")
	scoreCmd.Flags().BoolP("interactive", "i", false, "fill in the score via a terminal form")

	rootCmd.AddCommand(scoreCmd)
}
