package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// sessionCmd represents the session command
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Show or clear the stored session",
	Long: `Show or clear the session assigned by the live channel.

The session links your questions to replies from support agents. Clearing it
starts a fresh conversation; the server assigns a new one on the next
connection.`,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, identity, err := openIdentity(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		token := identity.Current()
		if token == "" {
			fmt.Fprintln(cmd.OutOrStdout(), warningStyle.Render("No session yet"))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, identity, err := openIdentity(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		previous := identity.Current()
		if err := identity.Forget(cmd.Context()); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
		if previous == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No session to clear")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✅ Session "+previous+" cleared"))
		return nil
	},
}

func init() {
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionClearCmd)
	rootCmd.AddCommand(sessionCmd)
}
