package commands

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/goblog/internal/api"
)

func newRegisterCommand(a *app) *cobra.Command {
	var p api.Profile

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := a.gw.Register(cmd.Context(), p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (id %s). Now run `blogctl login`.\n", acct.Email, acct.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&p.Email, "email", "", "email address")
	cmd.Flags().StringVar(&p.Password, "password", "", "password (at least 8 characters)")
	cmd.Flags().StringVar(&p.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&p.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&p.Phone, "phone", "", "phone number")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLoginCommand(a *app) *cobra.Command {
	var cr api.Credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session cookie",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.gw.Login(cmd.Context(), cr)
			if err != nil {
				return err
			}
			msg := res.Message
			if msg == "" {
				msg = "Logged in"
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			if s := a.resolver.Current(); s != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "user %s, session until %s\n", s.UserID, expiry(s.ExpiresAt))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cr.Email, "email", "", "email address")
	cmd.Flags().StringVar(&cr.Password, "password", "", "password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.gw.Logout(cmd.Context()); err != nil {
				log.Warn().Err(err).Msg("server logout failed; clearing local session anyway")
			}
			a.resolver.ClearSession()
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.resolver.Current()
			if s == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "not logged in")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s, session until %s\n", s.UserID, expiry(s.ExpiresAt))
			return nil
		},
	}
}

func expiry(t time.Time) string {
	if t.IsZero() {
		return "(no expiry)"
	}
	return t.Local().Format(time.RFC1123)
}
