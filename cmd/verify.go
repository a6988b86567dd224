package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tripletex-bridge/internal/csvio"
	"tripletex-bridge/internal/invoice"
	"tripletex-bridge/internal/logger"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Verify a generated or hand-edited invoice file",
	Long: `Verify re-reads an invoice file and runs the same consistency checks the
generator applies, so manual edits can be sanity checked before uploading.`,
	Example: `  tripletex-bridge verify invoices.csv -g stripe:Stripe -g vipps:Vipps`,
	Args:    cobra.ExactArgs(1),
	RunE:    runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	addGatewayFlags(verifyCmd)
	verifyCmd.Flags().Int("start-number", 0, "expected first invoice number (0 disables the check)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("verify")
	path := args[0]

	mapping, err := gatewayMapping(cmd)
	if err != nil {
		return err
	}
	start, _ := cmd.Flags().GetInt("start-number")

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	lines, err := csvio.Read(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	ordinary, refunds := countOrders(lines)
	log.Info().
		Int("ordinary_orders", ordinary).
		Int("refund_orders", refunds).
		Msg("Verifying invoices")

	warnings := invoice.Verify(lines, invoice.Config{
		GatewayLabels: mapping,
		StartNumber:   start,
	})
	for _, w := range warnings {
		log.Warn().Str("rule", w.Rule).Str("order", w.OrderNo).Msg(w.Detail)
	}
	if len(warnings) == 0 {
		log.Info().Msg("No irregularities detected in the invoices")
	} else {
		log.Warn().Int("warnings", len(warnings)).
			Msg("Invoices contain one or more notices that should be checked manually")
	}
	return nil
}

func countOrders(lines []invoice.Line) (ordinary, refunds int) {
	seenOrdinary := map[string]bool{}
	seenRefund := map[string]bool{}
	for _, l := range lines {
		if l.PaidAmount.IsNegative() {
			seenRefund[l.OrderNo] = true
		} else {
			seenOrdinary[l.OrderNo] = true
		}
	}
	return len(seenOrdinary), len(seenRefund)
}
