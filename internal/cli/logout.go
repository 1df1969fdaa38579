package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget stored credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !store.Load().Authenticated() {
			fmt.Println("Not logged in.")
			return nil
		}
		if err := store.Clear(); err != nil {
			return fmt.Errorf("clear credentials: %w", err)
		}
		fmt.Println("Logged out.")
		return nil
	},
}
