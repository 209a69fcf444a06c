package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/simplechat/internal/client"
)

var usersCmd = &cobra.Command{
	Use:   "users <query>",
	Short: "Search other users by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, token, err := loadIdentity()
		if err != nil {
			return err
		}

		users, err := client.NewAPI(cfg.Client.ServerURL, nil).WithToken(token).SearchUsers(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no users found")
			return nil
		}
		for _, u := range users {
			fmt.Fprintln(cmd.OutOrStdout(), u.Username)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
}
