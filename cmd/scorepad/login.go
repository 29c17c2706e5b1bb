package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/scorepadhq/scorepad/internal/auth"
	"github.com/scorepadhq/scorepad/internal/ui"
)

var loginCmd = &cobra.Command{
	Use:     "login <username>",
	GroupID: "session",
	Short:   "Log in to the scoring service",
	Long: `Authenticate against the scoring service and store the session token
on the device.

The token is kept in the local database, so the session survives app
restarts and is available to queued writes when the network returns.
Login itself requires connectivity and is never queued.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		username := args[0]

		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			fmt.Fprint(os.Stderr, "Password: ")
			raw, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				fatalf("failed to read password: %v", err)
			}
			password = string(raw)
		}

		st, err := openStore()
		if err != nil {
			fatalf("%v", err)
		}
		defer st.Close()

		keeper, err := auth.NewKeeper(st)
		if err != nil {
			fatalf("%v", err)
		}

		if err := keeper.Login(cmd.Context(), httpClient(), cfg.ServerURL, username, password); err != nil {
			fatalf("%v", err)
		}

		fmt.Printf("%s Logged in as %s\n", ui.RenderPass("✓"), username)

		if claims, err := keeper.Claims(); err == nil && claims.SeatID != "" {
			fmt.Printf("   Seat: %s\n", claims.SeatID)
		}
	},
}

var logoutCmd = &cobra.Command{
	Use:     "logout",
	GroupID: "session",
	Short:   "Clear the stored session token",
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openStore()
		if err != nil {
			fatalf("%v", err)
		}
		defer st.Close()

		keeper, err := auth.NewKeeper(st)
		if err != nil {
			fatalf("%v", err)
		}

		if err := keeper.Clear(cmd.Context()); err != nil {
			fatalf("%v", err)
		}

		fmt.Printf("%s Logged out\n", ui.RenderPass("✓"))
	},
}

func init() {
	loginCmd.Flags().String("password", "", "password (prompted when omitted)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
