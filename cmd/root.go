package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"tripletex-bridge/internal/client"
	"tripletex-bridge/internal/config"
	"tripletex-bridge/internal/logger"
	"tripletex-bridge/internal/repository"
	"tripletex-bridge/internal/service"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "tripletex-bridge",
	Short: "Mirror a Shopify store locally and generate Tripletex invoice imports",
	Long: `tripletex-bridge keeps a local database of a Shopify store's customers,
orders, transactions and refunds, and derives reconciled invoice lines in the
CSV format accepted by Tripletex's invoice import.

Configuration is read from the environment (optionally a .env file):
SHOPIFY_STORE, SHOPIFY_API_KEY, SHOPIFY_PASSWORD, DATABASE_PATH, LOG_LEVEL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// No .env file is fine; the environment may be set directly.
		_ = godotenv.Load()
		if err := env.Parse(&cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			cfg.Log.Level = "debug"
		}
		if err := logger.Setup(cfg.Log); err != nil {
			return fmt.Errorf("setup logger: %w", err)
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

func openDatabase() (*gorm.DB, error) {
	return client.InitSqliteClient(cfg.DatabasePath)
}

func newInvoiceService(db *gorm.DB) service.InvoiceService {
	return service.NewInvoiceService(
		repository.NewCustomerRepository(db),
		repository.NewOrderRepository(db),
		repository.NewLineItemRepository(db),
		repository.NewShippingRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewRefundRepository(db),
	)
}

// addGatewayFlags registers the two ways of supplying the gateway mapping:
// repeated old:label pairs, or a YAML file with one mapping per key.
func addGatewayFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("gateway", "g", nil,
		"case sensitive <gateway>:<label> pair to rename gateways; any other gateway is flagged (repeatable)")
	cmd.Flags().String("gateway-file", "",
		"YAML file mapping gateway identifiers to display labels")
}

func gatewayMapping(cmd *cobra.Command) (map[string]string, error) {
	mapping := map[string]string{}

	if path, _ := cmd.Flags().GetString("gateway-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read gateway file: %w", err)
		}
		if err := yaml.Unmarshal(data, &mapping); err != nil {
			return nil, fmt.Errorf("parse gateway file %s: %w", path, err)
		}
	}

	pairs, _ := cmd.Flags().GetStringArray("gateway")
	for _, pair := range pairs {
		from, to, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("gateway mapping %q must be <gateway>:<label>", pair)
		}
		mapping[from] = to
	}

	if len(mapping) == 0 {
		return nil, nil
	}
	return mapping, nil
}
