package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tripletex-bridge/internal/csvio"
	"tripletex-bridge/internal/invoice"
	"tripletex-bridge/internal/logger"
)

var generateCmd = &cobra.Command{
	Use:   "generate <file>",
	Short: "Generate a Tripletex invoice import file for a date window",
	Long: `Generate derives reconciled invoice lines from the mirrored store data,
verifies them and writes the semicolon separated file Tripletex expects.

The start number should be one greater than the id of the latest invoice
already in Tripletex.`,
	Example: `  tripletex-bridge generate invoices.csv --from 2024-01-01 --to 2024-01-31 \
      --start-number 1041 -g stripe:Stripe -g vipps:Vipps`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().String("from", "", "date of the first invoice to include (YYYY-MM-DD)")
	generateCmd.Flags().String("to", "", "date of the last invoice to include (YYYY-MM-DD)")
	generateCmd.Flags().Int("start-number", 0, "id of the first invoice to be generated")
	addGatewayFlags(generateCmd)
	generateCmd.MarkFlagRequired("from")
	generateCmd.MarkFlagRequired("to")
	generateCmd.MarkFlagRequired("start-number")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("generate")
	outPath := args[0]

	exportCfg, err := exportConfigFromFlags(cmd)
	if err != nil {
		return err
	}

	db, err := openDatabase()
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	log.Info().
		Str("from", exportCfg.From.Format("2006-01-02")).
		Str("to", exportCfg.To.Format("2006-01-02")).
		Int("start_number", exportCfg.StartNumber).
		Msg("Generating invoices")

	lines, warnings, err := newInvoiceService(db).Generate(cmd.Context(), exportCfg)
	if err != nil {
		return fmt.Errorf("generate invoices: %w", err)
	}

	// Warnings never block the export; the file is written regardless.
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	writeErr := csvio.Write(out, lines)
	if closeErr := out.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		return fmt.Errorf("write %s: %w", outPath, writeErr)
	}

	for _, w := range warnings {
		log.Warn().Str("rule", w.Rule).Str("order", w.OrderNo).Msg(w.Detail)
	}
	if len(warnings) == 0 {
		log.Info().Msg("No irregularities detected in the invoices")
	} else {
		log.Warn().Int("warnings", len(warnings)).
			Msg("Invoices contain one or more notices that should be checked manually")
	}

	log.Info().
		Str("store", cfg.Shopify.Store).
		Str("file", outPath).
		Int("lines", len(lines)).
		Msg("Tripletex invoices written. To upload, navigate to 'Faktura' > 'Fakturaimport', " +
			"tick the box to include VAT and upload the file")
	return nil
}

func exportConfigFromFlags(cmd *cobra.Command) (invoice.Config, error) {
	var exportCfg invoice.Config

	fromStr, _ := cmd.Flags().GetString("from")
	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return exportCfg, fmt.Errorf("invalid from date %q, use YYYY-MM-DD", fromStr)
	}
	toStr, _ := cmd.Flags().GetString("to")
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		return exportCfg, fmt.Errorf("invalid to date %q, use YYYY-MM-DD", toStr)
	}
	if to.Before(from) {
		return exportCfg, fmt.Errorf("to date %s is before from date %s", toStr, fromStr)
	}

	mapping, err := gatewayMapping(cmd)
	if err != nil {
		return exportCfg, err
	}
	start, _ := cmd.Flags().GetInt("start-number")

	exportCfg.From = from
	exportCfg.To = to
	exportCfg.StartNumber = start
	exportCfg.GatewayLabels = mapping
	return exportCfg, nil
}
