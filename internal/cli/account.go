package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/talk2dom/web/internal/access"
	"github.com/talk2dom/web/internal/backend"
)

func (a *app) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password and save the backend token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email = strings.TrimSpace(email)
			if email == "" {
				return errors.New("--email is required")
			}
			if password == "" {
				fmt.Fprint(a.err, "Password: ")
				sc := bufio.NewScanner(a.in)
				if !sc.Scan() {
					return errors.New("password is required")
				}
				password = strings.TrimSpace(sc.Text())
			}

			tok, err := a.anonymous().EmailLogin(cmd.Context(), backend.Credentials{Email: email, Password: password})
			if err != nil {
				return errors.New(backend.UserMessage(err, "Login failed"))
			}

			cfg := a.cfg
			cfg.BackendURL = a.backendURL
			cfg.Token = tok.AccessToken
			cfg.Email = email
			if err := SaveConfig(a.configPath, cfg); err != nil {
				return err
			}
			a.logger.Info("saved credentials", "path", a.configPath)
			fmt.Fprintf(a.out, "Logged in as %s\n", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved backend token",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			cfg := a.cfg
			cfg.Token = ""
			if err := SaveConfig(a.configPath, cfg); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

func (a *app) meCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in user and plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			u, err := a.currentUser(cmd.Context(), c)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Name\t%s\n", u.Name)
			fmt.Fprintf(tw, "Email\t%s\n", u.Email)
			fmt.Fprintf(tw, "Plan\t%s\n", u.Plan)
			fmt.Fprintf(tw, "Credits\t%d subscription, %d one-time\n", u.SubscriptionCredits, u.OneTimeCredits)
			if u.SubscriptionStatus != nil {
				fmt.Fprintf(tw, "Subscription\t%s\n", subscription(u))
			}
			fmt.Fprintf(tw, "Projects\t%s\n", limitText(access.ProjectLimit(u.Plan)))
			fmt.Fprintf(tw, "Members per project\t%s\n", limitText(access.MemberLimit(u.Plan)))
			return tw.Flush()
		},
	}
}

func subscription(u backend.User) string {
	s := *u.SubscriptionStatus
	if u.SubscriptionEndDate != nil {
		s += " until " + *u.SubscriptionEndDate
	}
	return s
}

func limitText(limit int) string {
	if limit == access.Unlimited {
		return "unlimited"
	}
	return fmt.Sprintf("up to %d", limit)
}
