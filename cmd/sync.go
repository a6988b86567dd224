package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tripletex-bridge/internal/client"
	"tripletex-bridge/internal/logger"
	"tripletex-bridge/internal/repository"
	"tripletex-bridge/internal/service"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror Shopify customers, products, orders, transactions and refunds",
	Example: `  # Everything the store has
  tripletex-bridge sync

  # A bounded window
  tripletex-bridge sync --from 2024-01-01 --to 2024-01-31`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringP("from", "f", "", "date of the first data to retrieve (YYYY-MM-DD)")
	syncCmd.Flags().StringP("to", "t", "", "date of the last data to retrieve (YYYY-MM-DD)")
}

func runSync(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("sync")

	window, err := windowFromFlags(cmd)
	if err != nil {
		return err
	}
	if cfg.Shopify.Store == "" || cfg.Shopify.APIKey == "" {
		return fmt.Errorf("SHOPIFY_STORE and SHOPIFY_API_KEY must be set")
	}

	db, err := openDatabase()
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	shopify := client.NewShopifyClient(&cfg.Shopify)
	syncService := service.NewSyncService(
		shopify,
		repository.NewCustomerRepository(db),
		repository.NewProductRepository(db),
		repository.NewOrderRepository(db),
		repository.NewLineItemRepository(db),
		repository.NewShippingRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewRefundRepository(db),
	)

	log.Info().Str("store", cfg.Shopify.Store).Msg("Starting sync")
	if err := syncService.SyncAll(cmd.Context(), window); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	log.Info().Msg("Sync completed")
	return nil
}

func windowFromFlags(cmd *cobra.Command) (client.Window, error) {
	var window client.Window
	if v, _ := cmd.Flags().GetString("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return window, fmt.Errorf("invalid from date %q, use YYYY-MM-DD", v)
		}
		window.CreatedAtMin = &t
	}
	if v, _ := cmd.Flags().GetString("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return window, fmt.Errorf("invalid to date %q, use YYYY-MM-DD", v)
		}
		window.CreatedAtMax = &t
	}
	return window, nil
}
