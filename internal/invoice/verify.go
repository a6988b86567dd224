package invoice

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Verification rule names, one per consistency check.
const (
	RuleMissingRequired   = "missing-required"
	RuleMissingReference  = "missing-product-reference"
	RuleOrderGap          = "order-gap"
	RuleInvoiceGap        = "invoice-gap"
	RuleInvoiceDuplicate  = "invoice-duplicate"
	RulePriceMismatch     = "price-mismatch"
	RuleRefundOrder       = "refund-order"
	RuleGiftCard          = "gift-card"
	RuleUnknownGateway    = "unknown-gateway"
	RuleNegativeVAT       = "negative-vat"
	RuleDateWindow        = "date-window"
	RuleRefundBreakdown   = "refund-breakdown"
	RuleCustomerCollision = "customer-collision"
)

// Warning is one failed consistency check. Warnings are advisory: the export
// completes regardless, and the operator decides what to do.
type Warning struct {
	OrderNo string
	Rule    string
	Detail  string
}

func (w Warning) String() string {
	if w.OrderNo == "" {
		return fmt.Sprintf("[%s] %s", w.Rule, w.Detail)
	}
	return fmt.Sprintf("[%s] order %s: %s", w.Rule, w.OrderNo, w.Detail)
}

// Allowed relative deviation between an order's paid amount and the sum of
// its lines.
var priceTolerance = decimal.NewFromFloat(0.01)

// Verify runs the full battery of consistency checks over a finalized invoice
// line sequence, either freshly generated or re-read from a hand-edited
// export. It never fails; every irregularity becomes a warning.
func Verify(lines []Line, cfg Config) []Warning {
	var warnings []Warning
	checks := []func([]Line, Config) []Warning{
		checkRequired,
		checkDescriptionOrProductNo,
		checkOrderNumberGaps,
		checkInvoiceNumbers,
		checkPrices,
		checkRefundOrders,
		checkGiftCards,
		checkGateways,
		checkVATCodes,
		checkDateWindow,
	}
	for _, check := range checks {
		warnings = append(warnings, check(lines, cfg)...)
	}
	return warnings
}

func checkRequired(lines []Line, _ Config) []Warning {
	var warnings []Warning
	seen := map[string]bool{}
	for _, l := range lines {
		var missing []string
		if l.CustomerNo == 0 {
			missing = append(missing, "CUSTOMER NO")
		}
		if l.OrderNo == "" {
			missing = append(missing, "ORDER NO")
		}
		if l.Count == 0 {
			missing = append(missing, "ORDER LINE - COUNT")
		}
		if l.PaymentType == "" {
			missing = append(missing, "PAYMENT TYPE")
		}
		if l.InvoiceDate.IsZero() || l.DeliveryDate.IsZero() || l.OrderDate.IsZero() || l.DueDate.IsZero() {
			missing = append(missing, "dates")
		}
		if l.InvoiceNo == 0 {
			missing = append(missing, "INVOICE NO")
		}
		if len(missing) == 0 {
			continue
		}
		key := l.OrderNo + ":" + strings.Join(missing, ",")
		if seen[key] {
			continue
		}
		seen[key] = true
		warnings = append(warnings, Warning{
			OrderNo: l.OrderNo,
			Rule:    RuleMissingRequired,
			Detail:  "missing required column(s): " + strings.Join(missing, ", "),
		})
	}
	return warnings
}

func checkDescriptionOrProductNo(lines []Line, _ Config) []Warning {
	var warnings []Warning
	seen := map[string]bool{}
	for _, l := range lines {
		if l.ProductNo != "" || l.Description != "" || seen[l.OrderNo] {
			continue
		}
		seen[l.OrderNo] = true
		warnings = append(warnings, Warning{
			OrderNo: l.OrderNo,
			Rule:    RuleMissingReference,
			Detail:  "line has neither ORDER LINE - PROD NO nor ORDER LINE - DESCRIPTION",
		})
	}
	return warnings
}

// checkOrderNumberGaps flags order numbers absent from the contiguous range
// spanned by the export's payment lines; a gap usually means an order was
// dropped somewhere upstream.
func checkOrderNumberGaps(lines []Line, _ Config) []Warning {
	nums := map[int]bool{}
	for _, l := range lines {
		if l.PaidAmount.IsNegative() {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(l.OrderNo, "#"))
		if err != nil {
			continue
		}
		nums[n] = true
	}
	if len(nums) == 0 {
		return nil
	}
	keys := lo.Keys(nums)
	sort.Ints(keys)
	var missing []string
	for n := keys[0] + 1; n < keys[len(keys)-1]; n++ {
		if !nums[n] {
			missing = append(missing, "#"+strconv.Itoa(n))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return []Warning{{
		Rule:   RuleOrderGap,
		Detail: fmt.Sprintf("%d orders are missing: %s", len(missing), strings.Join(missing, ", ")),
	}}
}

// checkInvoiceNumbers requires the assigned numbers to be unique per (order
// number, payment tag) group and contiguous from the configured start value.
func checkInvoiceNumbers(lines []Line, cfg Config) []Warning {
	var warnings []Warning
	byNumber := map[int]map[[2]string]bool{}
	for _, l := range lines {
		if l.InvoiceNo == 0 {
			continue
		}
		if byNumber[l.InvoiceNo] == nil {
			byNumber[l.InvoiceNo] = map[[2]string]bool{}
		}
		byNumber[l.InvoiceNo][[2]string{l.OrderNo, l.PaymentTag}] = true
	}
	if len(byNumber) == 0 {
		return nil
	}

	nums := lo.Keys(byNumber)
	sort.Ints(nums)

	for _, n := range nums {
		if len(byNumber[n]) > 1 {
			warnings = append(warnings, Warning{
				Rule:   RuleInvoiceDuplicate,
				Detail: fmt.Sprintf("invoice number %d is assigned to %d orders", n, len(byNumber[n])),
			})
		}
	}

	lowest := nums[0]
	if cfg.StartNumber != 0 && lowest != cfg.StartNumber {
		warnings = append(warnings, Warning{
			Rule:   RuleInvoiceGap,
			Detail: fmt.Sprintf("first invoice number is %d, expected %d", lowest, cfg.StartNumber),
		})
	}
	var missing []string
	for n := lowest + 1; n < nums[len(nums)-1]; n++ {
		if byNumber[n] == nil {
			missing = append(missing, strconv.Itoa(n))
		}
	}
	if len(missing) > 0 {
		warnings = append(warnings, Warning{
			Rule:   RuleInvoiceGap,
			Detail: fmt.Sprintf("%d invoice numbers are missing: %s", len(missing), strings.Join(missing, ", ")),
		})
	}
	return warnings
}

// checkPrices reconciles each order's recorded paid amount against the sum of
// its lines, count * unit price * (100 - discount) / 100, allowing 1%
// deviation for rounding.
func checkPrices(lines []Line, _ Config) []Warning {
	type orderSum struct {
		paid  decimal.Decimal
		total decimal.Decimal
	}
	sums := map[string]*orderSum{}
	var orderNos []string
	for _, l := range lines {
		s, ok := sums[l.OrderNo]
		if !ok {
			s = &orderSum{paid: l.PaidAmount}
			sums[l.OrderNo] = s
			orderNos = append(orderNos, l.OrderNo)
		}
		lineTotal := decimal.NewFromInt(l.Count).
			Mul(l.UnitPrice).
			Mul(decimal.NewFromInt(100).Sub(l.Discount)).
			Div(decimal.NewFromInt(100))
		s.total = s.total.Add(lineTotal)
	}

	var warnings []Warning
	for _, no := range orderNos {
		s := sums[no]
		diff := s.paid.Sub(s.total).Abs()
		if diff.LessThanOrEqual(s.paid.Abs().Mul(priceTolerance)) {
			continue
		}
		warnings = append(warnings, Warning{
			OrderNo: no,
			Rule:    RulePriceMismatch,
			Detail: fmt.Sprintf("paid amount %s deviates from line total %s by %s",
				s.paid.StringFixed(2), s.total.StringFixed(2), diff.StringFixed(2)),
		})
	}
	return warnings
}

// checkRefundOrders lists orders whose lines only subtract from revenue, so
// the operator can double check them against the store.
func checkRefundOrders(lines []Line, _ Config) []Warning {
	var refunds []string
	seen := map[string]bool{}
	for _, l := range lines {
		if l.PaidAmount.IsPositive() || seen[l.OrderNo] {
			continue
		}
		seen[l.OrderNo] = true
		refunds = append(refunds, l.OrderNo)
	}
	if len(refunds) == 0 {
		return nil
	}
	sort.Strings(refunds)
	return []Warning{{
		Rule:   RuleRefundOrder,
		Detail: fmt.Sprintf("%d orders are refunds: %s", len(refunds), strings.Join(refunds, ", ")),
	}}
}

func checkGiftCards(lines []Line, _ Config) []Warning {
	var orders []string
	seen := map[string]bool{}
	for _, l := range lines {
		if l.ProductNo != ProductNoGiftCard || seen[l.OrderNo] {
			continue
		}
		seen[l.OrderNo] = true
		orders = append(orders, l.OrderNo)
	}
	if len(orders) == 0 {
		return nil
	}
	sort.Strings(orders)
	return []Warning{{
		Rule:   RuleGiftCard,
		Detail: fmt.Sprintf("%d orders include gift cards: %s", len(orders), strings.Join(orders, ", ")),
	}}
}

// checkGateways reports payment types outside the configured label set rather
// than silently dropping them. With no mapping configured the check is moot.
func checkGateways(lines []Line, cfg Config) []Warning {
	if len(cfg.GatewayLabels) == 0 {
		return nil
	}
	known := map[string]bool{}
	for _, label := range cfg.GatewayLabels {
		known[label] = true
	}
	var warnings []Warning
	seen := map[string]bool{}
	for _, l := range lines {
		if known[l.PaymentType] {
			continue
		}
		key := l.OrderNo + ":" + l.PaymentType
		if seen[key] {
			continue
		}
		seen[key] = true
		warnings = append(warnings, Warning{
			OrderNo: l.OrderNo,
			Rule:    RuleUnknownGateway,
			Detail:  fmt.Sprintf("unknown payment gateway %q", l.PaymentType),
		})
	}
	return warnings
}

func checkVATCodes(lines []Line, _ Config) []Warning {
	var warnings []Warning
	for _, l := range lines {
		if l.VATCode >= 0 {
			continue
		}
		warnings = append(warnings, Warning{
			OrderNo: l.OrderNo,
			Rule:    RuleNegativeVAT,
			Detail:  fmt.Sprintf("negative VAT code %d", l.VATCode),
		})
	}
	return warnings
}

func checkDateWindow(lines []Line, cfg Config) []Warning {
	if cfg.From.IsZero() || cfg.To.IsZero() {
		return nil
	}
	var warnings []Warning
	seen := map[string]bool{}
	for _, l := range lines {
		if !l.OrderDate.Before(cfg.From) && !l.OrderDate.After(cfg.To) {
			continue
		}
		if seen[l.OrderNo] {
			continue
		}
		seen[l.OrderNo] = true
		warnings = append(warnings, Warning{
			OrderNo: l.OrderNo,
			Rule:    RuleDateWindow,
			Detail: fmt.Sprintf("order date %s falls outside the export window %s to %s",
				l.OrderDate.Format("2006-01-02"), cfg.From.Format("2006-01-02"), cfg.To.Format("2006-01-02")),
		})
	}
	return warnings
}
