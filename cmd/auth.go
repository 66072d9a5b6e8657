package cmd

import (
	"fmt"

	"github.com/fcastdev/fcast-cli/internal/adapters/api"
	"github.com/fcastdev/fcast-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newLoginCmd(app *app) *cobra.Command {
	var displayName string
	var password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := app.sessions.Login(cmd.Context(), api.LoginRequest{
				DisplayName: displayName,
				Password:    password,
			})
			if err != nil {
				return err
			}

			printSession(cmd, session, "Signed in")
			return nil
		},
	}

	cmd.Flags().StringVar(&displayName, "name", "", "Display name")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newRegisterCmd(app *app) *cobra.Command {
	var displayName string
	var password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := app.sessions.Register(cmd.Context(), api.RegisterRequest{
				DisplayName: displayName,
				Password:    password,
			})
			if err != nil {
				return err
			}

			printSession(cmd, session, "Registered")
			return nil
		},
	}

	cmd.Flags().StringVar(&displayName, "name", "", "Display name")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Drop the persisted session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app.sessions.Logout()
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return err
		},
	}
}

func newWhoamiCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := app.sessions.Bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			if session == nil {
				return domain.ErrNotAuthenticated
			}

			printSession(cmd, session, "Signed in")
			return nil
		},
	}
}

func printSession(cmd *cobra.Command, session *domain.Session, verb string) {
	admin := ""
	if session.User.IsAdmin {
		admin = " (admin)"
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s as %s%s with %d chips.\n",
		verb, session.User.DisplayName, admin, session.User.Chips)
}
