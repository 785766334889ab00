package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/jira-data-client/pkg/config"
	"github.com/Sternrassler/jira-data-client/pkg/credentials"
)

func newAuthCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the API token stored in the system keyring",
	}

	var email string
	cmd.PersistentFlags().StringVar(&email, "email", "", "account email (default "+config.EnvEmail+")")

	account := func() (string, error) {
		if e := strings.TrimSpace(email); e != "" {
			return e, nil
		}
		if a.cfg.Email != "" {
			return a.cfg.Email, nil
		}
		return "", fmt.Errorf("no account email: use --email or set %s", config.EnvEmail)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "login",
			Short: "Store an API token for the account",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				acct, err := account()
				if err != nil {
					return err
				}
				token, err := a.deps.ReadSecret(fmt.Sprintf("API token for %s: ", acct))
				if err != nil {
					return err
				}
				if token == "" {
					return errors.New("no token provided")
				}
				if err := a.deps.Tokens.SetToken(acct, token); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Token stored in %s for %s\n", a.deps.Tokens.Description(), acct)
				return nil
			},
		},
		&cobra.Command{
			Use:   "logout",
			Short: "Remove the stored API token",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				acct, err := account()
				if err != nil {
					return err
				}
				if err := a.deps.Tokens.DeleteToken(acct); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Token removed for %s\n", acct)
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show where the API token comes from",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				acct, err := account()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Account: %s\n", acct)
				if a.cfg.Host != "" {
					fmt.Fprintf(out, "Host:    %s\n", a.cfg.BaseURL())
				}

				_, err = a.deps.Tokens.Token(acct)
				switch {
				case err == nil:
					fmt.Fprintf(out, "Token:   stored in %s\n", a.deps.Tokens.Description())
				case errors.Is(err, credentials.ErrNotFound) && a.cfg.APIToken != "":
					fmt.Fprintf(out, "Token:   from %s\n", config.EnvAPIToken)
				case errors.Is(err, credentials.ErrNotFound):
					fmt.Fprintln(out, "Token:   not configured")
				default:
					return err
				}
				return nil
			},
		},
	)
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "jira-query %s (commit %s)\n", version, commit)
		},
	}
}
