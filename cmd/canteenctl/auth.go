package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			res, err := a.api.Login(ctx, email, password)
			if err != nil {
				return err
			}
			if err := a.session.SaveProfile(ctx, res.Profile, res.AccessToken); err != nil {
				return err
			}
			a.log.Debug("signed in", zap.String("user_id", res.Profile.UserID))
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", res.Profile.Name, res.Profile.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok, err := a.session.Profile(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("not signed in")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> %s\n", p.Name, p.Email, p.Role)
			return nil
		},
	}
}
