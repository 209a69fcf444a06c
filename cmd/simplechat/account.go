package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/simplechat/internal/client"
	"github.com/vovakirdan/simplechat/internal/identity"
)

var (
	accountUsername string
	accountPassword string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and remember it as the local identity",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return authenticate(cmd, true)
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to an existing account and remember it as the local identity",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return authenticate(cmd, false)
	},
}

func init() {
	for _, c := range []*cobra.Command{registerCmd, loginCmd} {
		c.Flags().StringVarP(&accountUsername, "username", "u", "", "account name (prompted when empty)")
		c.Flags().StringVarP(&accountPassword, "password", "p", "", "account password (prompted when empty)")
		rootCmd.AddCommand(c)
	}
}

func authenticate(cmd *cobra.Command, register bool) error {
	if err := promptCredentials(register); err != nil {
		return err
	}

	api := client.NewAPI(cfg.Client.ServerURL, nil)
	call := api.Login
	if register {
		call = api.Register
	}
	session, err := call(cmd.Context(), strings.TrimSpace(accountUsername), accountPassword)
	switch {
	case errors.Is(err, client.ErrUserExists):
		return fmt.Errorf("username %q is taken, pick another or run `simplechat login`", accountUsername)
	case errors.Is(err, client.ErrUnauthorized):
		return errors.New("wrong username or password")
	case err != nil:
		return err
	}

	id, err := identity.Open(cfg.Client.IdentityPath)
	if err != nil {
		return err
	}
	if err := id.SetMany(map[string]string{
		identity.KeyRegistered: session.User.Username,
		identity.KeyToken:      session.Token,
	}); err != nil {
		return fmt.Errorf("save identity: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (identity saved to %s)\n", session.User.Username, id.Path())
	return nil
}

func promptCredentials(register bool) error {
	var fields []huh.Field
	if accountUsername == "" {
		fields = append(fields, huh.NewInput().
			Title("Username").
			Description("3-32 characters, no spaces").
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("username is required")
				}
				return nil
			}).
			Value(&accountUsername))
	}
	if accountPassword == "" {
		title := "Password"
		if register {
			title = "Choose a password"
		}
		fields = append(fields, huh.NewInput().
			Title(title).
			EchoMode(huh.EchoModePassword).
			Validate(func(s string) error {
				if s == "" {
					return errors.New("password is required")
				}
				return nil
			}).
			Value(&accountPassword))
	}
	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...)).Run()
}
