package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cred := store.Load()
		if !cred.Authenticated() {
			fmt.Println("Not logged in.")
			return nil
		}
		if cred.User != nil {
			fmt.Println(cred.User.Username)
			if cred.User.Email != "" {
				fmt.Println(cred.User.Email)
			}
			return nil
		}
		fmt.Println("Logged in (no stored profile).")
		return nil
	},
}
