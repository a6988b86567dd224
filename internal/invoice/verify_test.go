package invoice

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// paymentLine is a minimal consistent payment line: one unit, no discount,
// unit price equal to the paid amount.
func paymentLine(orderNo string, invoiceNo int, amount string) Line {
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	return Line{
		PaymentTag:   TagPayment,
		CustomerNo:   700,
		CustomerName: "Kari Nordmann",
		OrderNo:      orderNo,
		PaidAmount:   d(amount),
		Count:        1,
		UnitPrice:    d(amount),
		Discount:     decimal.Zero,
		VATCode:      VATCodeStandard,
		ProductNo:    "MUG-1",
		PaymentType:  "Stripe",
		InvoiceDate:  date,
		DeliveryDate: date,
		OrderDate:    date,
		DueDate:      date.AddDate(0, 0, 14),
		InvoiceNo:    invoiceNo,
	}
}

func rulesOf(warnings []Warning) []string {
	var rules []string
	for _, w := range warnings {
		rules = append(rules, w.Rule)
	}
	return rules
}

func TestVerifyCleanInvoices(t *testing.T) {
	lines := []Line{
		paymentLine("#1001", 1000, "90.00"),
		paymentLine("#1002", 1001, "150.00"),
	}
	warnings := Verify(lines, Config{
		GatewayLabels: map[string]string{"stripe": "Stripe"},
		StartNumber:   1000,
	})
	assert.Empty(t, warnings)
}

func TestVerifyPriceMismatch(t *testing.T) {
	l := paymentLine("#1001", 1000, "90.00")
	l.UnitPrice = d("50.00") // 1 * 50.00 deviates from 90.00 by far more than 1%
	warnings := Verify([]Line{l}, Config{StartNumber: 1000})
	assert.Contains(t, rulesOf(warnings), RulePriceMismatch)
}

func TestVerifyPriceWithinTolerance(t *testing.T) {
	l := paymentLine("#1001", 1000, "100.00")
	l.UnitPrice = d("99.50") // 0.5% deviation is acceptable rounding noise
	warnings := Verify([]Line{l}, Config{StartNumber: 1000})
	assert.NotContains(t, rulesOf(warnings), RulePriceMismatch)
}

func TestVerifyRefundLinesReconcile(t *testing.T) {
	l := paymentLine("#1001-1", 1000, "-30.00")
	l.PaymentTag = TagRefund
	l.Count = -1
	l.UnitPrice = d("30.00")
	warnings := Verify([]Line{l}, Config{StartNumber: 1000})
	assert.NotContains(t, rulesOf(warnings), RulePriceMismatch)
	// Refund-only orders are flagged for manual review.
	assert.Contains(t, rulesOf(warnings), RuleRefundOrder)
}

func TestVerifyUnknownGateway(t *testing.T) {
	l := paymentLine("#1001", 1000, "90.00")
	l.PaymentType = "klarna"
	warnings := Verify([]Line{l}, Config{
		GatewayLabels: map[string]string{"stripe": "Stripe"},
		StartNumber:   1000,
	})
	require.Contains(t, rulesOf(warnings), RuleUnknownGateway)

	// Without a mapping the check cannot run and stays silent.
	warnings = Verify([]Line{l}, Config{StartNumber: 1000})
	assert.NotContains(t, rulesOf(warnings), RuleUnknownGateway)
}

func TestVerifyInvoiceNumberGap(t *testing.T) {
	lines := []Line{
		paymentLine("#1001", 1000, "90.00"),
		paymentLine("#1002", 1003, "80.00"),
	}
	warnings := Verify(lines, Config{StartNumber: 1000})
	assert.Contains(t, rulesOf(warnings), RuleInvoiceGap)
}

func TestVerifyInvoiceNumberStartMismatch(t *testing.T) {
	lines := []Line{paymentLine("#1001", 1005, "90.00")}
	warnings := Verify(lines, Config{StartNumber: 1000})
	assert.Contains(t, rulesOf(warnings), RuleInvoiceGap)
}

func TestVerifyInvoiceNumberDuplicate(t *testing.T) {
	lines := []Line{
		paymentLine("#1001", 1000, "90.00"),
		paymentLine("#1002", 1000, "80.00"),
	}
	warnings := Verify(lines, Config{StartNumber: 1000})
	assert.Contains(t, rulesOf(warnings), RuleInvoiceDuplicate)
}

func TestVerifySharedInvoiceNumberWithinOrder(t *testing.T) {
	// Two lines of the same order share an invoice number; that is not a
	// duplicate.
	a := paymentLine("#1001", 1000, "90.00")
	a.UnitPrice = d("40.00")
	b := paymentLine("#1001", 1000, "90.00")
	b.UnitPrice = d("50.00")
	warnings := Verify([]Line{a, b}, Config{StartNumber: 1000})
	assert.NotContains(t, rulesOf(warnings), RuleInvoiceDuplicate)
}

func TestVerifyOrderNumberGap(t *testing.T) {
	lines := []Line{
		paymentLine("#1001", 1000, "90.00"),
		paymentLine("#1004", 1001, "80.00"),
	}
	warnings := Verify(lines, Config{StartNumber: 1000})
	require.Contains(t, rulesOf(warnings), RuleOrderGap)
	for _, w := range warnings {
		if w.Rule == RuleOrderGap {
			assert.Contains(t, w.Detail, "#1002")
			assert.Contains(t, w.Detail, "#1003")
		}
	}
}

func TestVerifyMissingRequired(t *testing.T) {
	l := paymentLine("#1001", 1000, "90.00")
	l.CustomerNo = 0
	l.PaymentType = ""
	warnings := Verify([]Line{l}, Config{StartNumber: 1000})
	require.Contains(t, rulesOf(warnings), RuleMissingRequired)
}

func TestVerifyMissingDescriptionAndProductNo(t *testing.T) {
	l := paymentLine("#1001", 1000, "90.00")
	l.ProductNo = ""
	l.Description = ""
	warnings := Verify([]Line{l}, Config{StartNumber: 1000})
	assert.Contains(t, rulesOf(warnings), RuleMissingReference)
}

func TestVerifyGiftCardNotice(t *testing.T) {
	l := paymentLine("#1001", 1000, "90.00")
	l.ProductNo = ProductNoGiftCard
	warnings := Verify([]Line{l}, Config{StartNumber: 1000})
	assert.Contains(t, rulesOf(warnings), RuleGiftCard)
}

func TestVerifyNegativeVATCode(t *testing.T) {
	l := paymentLine("#1001", 1000, "90.00")
	l.VATCode = -1
	warnings := Verify([]Line{l}, Config{StartNumber: 1000})
	assert.Contains(t, rulesOf(warnings), RuleNegativeVAT)
}

func TestVerifyDateWindow(t *testing.T) {
	l := paymentLine("#1001", 1000, "90.00") // order date 2024-03-05
	cfg := Config{
		StartNumber: 1000,
		From:        time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		To:          time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
	}
	warnings := Verify([]Line{l}, cfg)
	assert.Contains(t, rulesOf(warnings), RuleDateWindow)

	cfg.From = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	cfg.To = time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	warnings = Verify([]Line{l}, cfg)
	assert.NotContains(t, rulesOf(warnings), RuleDateWindow)
}

func TestVerifyNeverAborts(t *testing.T) {
	// A thoroughly broken sequence still only yields warnings.
	broken := Line{OrderNo: "#9999", PaidAmount: d("-1.00"), UnitPrice: decimal.Zero, VATCode: -3}
	warnings := Verify([]Line{broken}, Config{StartNumber: 1})
	assert.NotEmpty(t, warnings)
}
