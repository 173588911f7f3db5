package cli

import (
	"github.com/spf13/cobra"
)

func newProductsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Catalog commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List purchasable products",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result ProductList

			if err := client.Get("/product", nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	})

	return cmd
}

func newPurchaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purchase <product-id>",
		Short: "Buy a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.RequireCredentials(); err != nil {
				return err
			}

			req := map[string]string{
				"user_id":    cfg.UserID,
				"secret":     cfg.Secret,
				"product_id": args[0],
			}
			var result PurchaseResult

			if err := client.Post("/purchase", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
