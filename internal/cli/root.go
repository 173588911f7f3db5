package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "shopctl",
		Short: "CLI tool for the game shop API",
		Long: `shopctl is a CLI tool for interacting with the game shop JSON API.

It covers account registration and login, coin balance changes, profile data,
the product catalog and purchases. The user id and secret returned on
registration or login are stored in a credentials file for later commands.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load credentials from file if not provided via flag/env
			if err := cfg.LoadCredentials(); err != nil {
				return err
			}

			// Create HTTP client
			client = NewClient(cfg.ServerURL)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: SHOPCTL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.UserID, "user-id", cfg.UserID, "Account user id (env: SHOPCTL_USER_ID)")
	rootCmd.PersistentFlags().StringVar(&cfg.Secret, "secret", cfg.Secret, "Account secret (env: SHOPCTL_SECRET)")
	rootCmd.PersistentFlags().StringVar(&cfg.CredentialsFile, "credentials-file", cfg.CredentialsFile, "Credentials file path (env: SHOPCTL_CREDENTIALS_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")

	// Add subcommands
	rootCmd.AddCommand(newAccountCmd())
	rootCmd.AddCommand(newCoinsCmd())
	rootCmd.AddCommand(newDataCmd())
	rootCmd.AddCommand(newProductsCmd())
	rootCmd.AddCommand(newPurchaseCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
