package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scorepadhq/scorepad/internal/api"
	"github.com/scorepadhq/scorepad/internal/ui"
)

var submissionsCmd = &cobra.Command{
	Use:     "submissions",
	GroupID: "judging",
	Short:   "Manage the device's submission roster",
}

var submissionsPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Fetch the seat's assigned submissions from the server",
	Long: `Fetch this seat's assigned submissions and cache them locally.

Requires connectivity. The cached roster keeps judging possible when the
network drops mid-event; 'scorepad submissions list' reads it without
touching the network.`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := buildApp()
		if err != nil {
			fatalf("%v", err)
		}
		defer a.Close()

		subs, err := a.service.PullSubmissions(cmd.Context())
		if err != nil {
			if errors.Is(err, api.ErrOffline) {
				fatalf("device is offline; cached roster unchanged (see 'scorepad submissions list')")
			}
			fatalf("%v", err)
		}

		fmt.Printf("%s Pulled %d submission(s)\n", ui.RenderPass("✓"), len(subs))
	},
}

var submissionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached submissions",
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openStore()
		if err != nil {
			fatalf("%v", err)
		}
		defer st.Close()

		category, _ := cmd.Flags().GetString("category")

		subs, err := st.SubmissionsByCategory(cmd.Context(), category)
		if err != nil {
			fatalf("%v", err)
		}

		if len(subs) == 0 {
			fmt.Printf("%s No cached submissions. Run 'scorepad submissions pull' while online.\n", ui.RenderWarn("⚠"))
			return
		}

		fmt.Printf("\n%d submission(s):\n\n", len(subs))
		for _, sub := range subs {
			fmt.Printf("  %s  %s", sub.ID, sub.Title)
			if sub.CategoryID != "" {
				fmt.Printf("  %s", ui.RenderDim("["+sub.CategoryID+"]"))
			}
			fmt.Printf("  %s\n", renderSubmissionStatus(sub.Status))
		}
		fmt.Println()
	},
}

var submissionsImportCmd = &cobra.Command{
	Use:   "import <manifest.yaml>",
	Short: "Seed the roster from a manifest file",
	Long: `Load submissions from a YAML manifest into the local cache.

Organizers hand out manifests for venues with no pre-event connectivity;
judging can start from the file and reconcile with the server later.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := buildApp()
		if err != nil {
			fatalf("%v", err)
		}
		defer a.Close()

		f, err := os.Open(args[0])
		if err != nil {
			fatalf("failed to open manifest: %v", err)
		}
		defer f.Close()

		count, err := a.service.ImportSubmissions(cmd.Context(), f)
		if err != nil {
			fatalf("%v", err)
		}

		fmt.Printf("%s Imported %d submission(s) from %s\n", ui.RenderPass("✓"), count, args[0])
	},
}

func renderSubmissionStatus(status string) string {
	switch status {
	case "scored":
		return ui.RenderPass(status)
	case "awaiting_scores":
		return ui.RenderDim(status)
	default:
		return status
	}
}

func init() {
	submissionsListCmd.Flags().String("category", "", "filter by category id")

	submissionsCmd.AddCommand(submissionsPullCmd)
	submissionsCmd.AddCommand(submissionsListCmd)
	submissionsCmd.AddCommand(submissionsImportCmd)
	rootCmd.AddCommand(submissionsCmd)
}
