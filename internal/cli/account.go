package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account management commands",
	}

	cmd.AddCommand(newAccountCreateCmd())
	cmd.AddCommand(newAccountLoginCmd())
	cmd.AddCommand(newAccountShowCmd())

	return cmd
}

func newAccountCreateCmd() *cobra.Command {
	var user, pass string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"username": user,
				"password": pass,
			}
			var result AccountGrant

			if err := client.Post("/account", req, &result); err != nil {
				return err
			}
			result.Username = user

			// Save credentials
			if err := cfg.SaveCredentials(result.UserID, result.Secret); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Username (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newAccountLoginCmd() *cobra.Command {
	var user, pass string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the account secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"username": user,
				"password": pass,
			}
			var result AccountGrant

			if err := client.Post("/login", req, &result); err != nil {
				return err
			}

			// Save credentials
			if err := cfg.SaveCredentials(result.UserID, result.Secret); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Username (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newAccountShowCmd() *cobra.Command {
	var pass string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show username, coins and purchase history",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if pass != "" {
				if cfg.UserID == "" {
					return fmt.Errorf("--user-id is required")
				}
				query.Set("password", pass)
			} else {
				if err := cfg.RequireCredentials(); err != nil {
					return err
				}
				query.Set("secret", cfg.Secret)
			}
			query.Set("user_id", cfg.UserID)

			var result Account
			if err := client.Get("/account", query, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&pass, "pass", "", "Authenticate with the password instead of the stored secret")

	return cmd
}
