package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newCoinsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coins",
		Short: "Coin balance commands",
	}

	cmd.AddCommand(newCoinsMutateCmd("add", "Add coins to the balance"))
	cmd.AddCommand(newCoinsMutateCmd("deduct", "Deduct coins from the balance"))

	return cmd
}

func newCoinsMutateCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <amount>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.RequireCredentials(); err != nil {
				return err
			}

			amount, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("amount must be an integer: %w", err)
			}

			req := map[string]any{
				"user_id": cfg.UserID,
				"secret":  cfg.Secret,
				"action":  action,
				"amount":  amount,
			}
			var result CoinsResult

			if err := client.Put("/account", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
