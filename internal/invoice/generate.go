package invoice

import (
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"tripletex-bridge/internal/model"
)

// Payment terms applied when deriving the due date.
const dueDays = 14

// Generate derives the export-ready invoice lines for the dataset. The result
// is deterministic: re-running on an unchanged dataset yields an identical
// sequence. Irregularities (customer number collisions, refund rows without a
// matching line item) surface as warnings, never as errors.
func Generate(ds Dataset, cfg Config) ([]Line, []Warning) {
	customers := lo.KeyBy(ds.Customers, func(c model.Customer) int64 { return c.ID })
	orders := lo.KeyBy(ds.Orders, func(o model.Order) int64 { return o.ID })
	itemsByOrder := lo.GroupBy(ds.LineItems, func(li model.LineItemProduct) int64 { return li.OrderID })
	txnsByOrder := lo.GroupBy(ds.Transactions, func(t model.Transaction) int64 { return t.OrderID })
	shippingByOrder := lo.GroupBy(ds.Shipping, func(s model.Shipping) int64 { return s.OrderID })
	items := lo.KeyBy(ds.LineItems, func(li model.LineItemProduct) int64 { return li.ID })
	refundsByTxn := lo.GroupBy(ds.Refunds, func(r model.Refund) int64 { return r.TransactionID })
	refundItemsByRefund := lo.GroupBy(ds.RefundLineItems, func(rli model.LineItemProductRefund) int64 { return rli.RefundID })

	authoritative := make(map[int64]model.Transaction, len(orders))
	for orderID, txns := range txnsByOrder {
		if tx, ok := authoritativeTransaction(txns); ok {
			authoritative[orderID] = tx
		}
	}

	var candidates []Line
	var warnings []Warning

	for _, order := range ds.Orders {
		tx, ok := authoritative[order.ID]
		if !ok {
			continue
		}
		customer := customers[valueOr(order.CustomerID)]
		candidates = append(candidates,
			productLines(order, customer, tx, itemsByOrder[order.ID], cfg)...)
		candidates = append(candidates,
			shippingLines(order, customer, tx, shippingByOrder[order.ID], cfg)...)
	}

	for _, t := range ds.Transactions {
		switch {
		case t.Kind == "refund" && t.Status == "success":
			order, ok := orders[t.OrderID]
			if !ok {
				continue
			}
			customer := customers[valueOr(order.CustomerID)]
			lines, ws := refundLines(order, customer, t, refundsByTxn[t.ID], refundItemsByRefund, items, cfg)
			candidates = append(candidates, lines...)
			warnings = append(warnings, ws...)
		case t.Gateway == GiftCardGateway && t.Status == "success" && isMonetaryKind(t.Kind):
			order, ok := orders[t.OrderID]
			if !ok {
				continue
			}
			customer := customers[valueOr(order.CustomerID)]
			candidates = append(candidates, giftCardLine(order, customer, t, authoritative[order.ID], cfg))
		}
	}

	warnings = append(warnings, customerCollisions(ds.Customers)...)

	final := merge(candidates)
	assignInvoiceNumbers(final, cfg.StartNumber)
	return final, warnings
}

// productLines emits one payment line per product on the order. The paid
// amount is the authoritative transaction amount, shared across all lines of
// the order rather than apportioned per item.
func productLines(order model.Order, customer model.Customer, tx model.Transaction, items []model.LineItemProduct, cfg Config) []Line {
	lines := make([]Line, 0, len(items))
	for _, li := range items {
		l := baseLine(order, customer, tx, cfg)
		l.Count = li.Quantity
		l.ProductName = productName(li)
		l.ProductNo = li.SKU
		l.UnitPrice = decimal.NewFromFloat(li.UnitPrice)
		l.Discount = discountPercent(li.TotalPrice, li.TotalDiscountAmount)
		l.priority = priorityProduct
		l.dedupKey = lineKey{orderID: order.ID, kind: "product", sourceID: li.ID}
		lines = append(lines, l)
	}
	return lines
}

// refundLines emits one refund line per refunded line item, or a single
// coarse line from the transaction amount when the refund carries no line
// item breakdown (or the breakdown points at a product we do not know).
func refundLines(
	order model.Order,
	customer model.Customer,
	tx model.Transaction,
	refunds []model.Refund,
	refundItemsByRefund map[int64][]model.LineItemProductRefund,
	items map[int64]model.LineItemProduct,
	cfg Config,
) ([]Line, []Warning) {
	var lines []Line
	var warnings []Warning

	base := func(r model.Refund) Line {
		l := baseLine(order, customer, tx, cfg)
		l.PaymentTag = TagRefund
		l.OrderNo = order.Name + refundOrderSuffix
		l.PaidAmount = decimal.NewFromFloat(tx.Amount).Neg()
		l.Description = r.Note
		if l.Description == "" {
			l.Description = refundDefaultDescription
		}
		l.Discount = decimal.Zero
		l.priority = priorityRefund
		when := r.CreatedAt
		if r.ProcessedAt != nil {
			when = *r.ProcessedAt
		}
		l.InvoiceDate = day(when)
		l.DeliveryDate = day(when)
		l.DueDate = day(when).AddDate(0, 0, dueDays)
		return l
	}

	for _, r := range refunds {
		emitted := false
		for _, rli := range refundItemsByRefund[r.ID] {
			li, ok := items[rli.LineItemProductID]
			if !ok {
				warnings = append(warnings, Warning{
					OrderNo: order.Name,
					Rule:    RuleRefundBreakdown,
					Detail: fmt.Sprintf(
						"refund %d references unknown line item product %d, using transaction amount",
						r.ID, rli.LineItemProductID),
				})
				continue
			}
			l := base(r)
			l.Count = -rli.Quantity
			l.ProductName = productName(li)
			l.ProductNo = li.SKU
			if rli.Quantity > 0 {
				l.UnitPrice = decimal.NewFromFloat(rli.RefundAmount).
					Div(decimal.NewFromInt(rli.Quantity)).Round(2)
			} else {
				l.UnitPrice = decimal.NewFromFloat(rli.RefundAmount)
			}
			l.dedupKey = lineKey{orderID: order.ID, kind: "refund", sourceID: rli.ID}
			lines = append(lines, l)
			emitted = true
		}
		if !emitted {
			l := base(r)
			l.Count = -1
			l.UnitPrice = decimal.NewFromFloat(tx.Amount)
			l.dedupKey = lineKey{orderID: order.ID, kind: "refund", sourceID: r.ID}
			lines = append(lines, l)
		}
	}

	// A successful refund transaction with no refund record at all still
	// subtracts from revenue; fall back to the transaction alone.
	if len(refunds) == 0 {
		r := model.Refund{CreatedAt: tx.CreatedAt, ProcessedAt: tx.ProcessedAt}
		l := base(r)
		l.Count = -1
		l.UnitPrice = decimal.NewFromFloat(tx.Amount)
		l.dedupKey = lineKey{orderID: order.ID, kind: "refund", sourceID: tx.ID}
		lines = append(lines, l)
	}

	return lines, warnings
}

// shippingLines emits one candidate per shipping row; the merge step keeps a
// single winner per order (orders occasionally carry duplicated shipping rows
// from upstream).
func shippingLines(order model.Order, customer model.Customer, tx model.Transaction, rows []model.Shipping, cfg Config) []Line {
	lines := make([]Line, 0, len(rows))
	for _, s := range rows {
		l := baseLine(order, customer, tx, cfg)
		l.Count = 1
		l.ProductNo = ProductNoShipping
		l.Description = s.Title
		l.UnitPrice = decimal.NewFromFloat(s.Price)
		l.Discount = discountPercent(s.Price, s.Price-s.DiscountedPrice)
		l.priority = priorityShipping
		l.dedupKey = lineKey{orderID: order.ID, kind: "shipping", sourceID: s.ID}
		lines = append(lines, l)
	}
	return lines
}

// giftCardLine models a gift card redemption as a negative-price line
// reducing the invoice total. The paid amount is shared with the order's
// authoritative non-gift-card transaction.
func giftCardLine(order model.Order, customer model.Customer, tx model.Transaction, paid model.Transaction, cfg Config) Line {
	l := baseLine(order, customer, paid, cfg)
	l.TransactionID = tx.ID
	l.PaymentType = cfg.Label(tx.Gateway)
	l.Count = 1
	l.ProductNo = ProductNoGiftCard
	l.Description = "Gift card"
	l.UnitPrice = decimal.NewFromFloat(tx.Amount).Neg()
	l.Discount = decimal.Zero
	l.priority = priorityGiftCard
	l.dedupKey = lineKey{orderID: order.ID, kind: "giftcard", sourceID: tx.ID}
	return l
}

func baseLine(order model.Order, customer model.Customer, tx model.Transaction, cfg Config) Line {
	invoiceDate := day(order.CreatedAt)
	if order.ProcessedAt != nil {
		invoiceDate = day(*order.ProcessedAt)
	}
	deliveryDate := invoiceDate
	if order.ClosedAt != nil {
		deliveryDate = day(*order.ClosedAt)
	}
	return Line{
		TransactionID: tx.ID,
		OrderID:       order.ID,
		PaymentTag:    TagPayment,
		CustomerNo:    ExternalCustomerNo(customer.ID),
		CustomerName:  customer.Name,
		OrderNo:       order.Name,
		PaidAmount:    decimal.NewFromFloat(tx.Amount),
		VATCode:       VATCodeStandard,
		PaymentType:   cfg.Label(tx.Gateway),
		InvoiceDate:   invoiceDate,
		DeliveryDate:  deliveryDate,
		OrderDate:     day(order.CreatedAt),
		DueDate:       invoiceDate.AddDate(0, 0, dueDays),
	}
}

func productName(li model.LineItemProduct) string {
	if li.Title != "" && li.VariantTitle != "" {
		return li.Title + " - " + li.VariantTitle
	}
	return li.Title
}

// discountPercent is 100 * (1 - (total - discount) / total), or zero when the
// total is zero.
func discountPercent(total, discount float64) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	t := decimal.NewFromFloat(total)
	d := decimal.NewFromFloat(discount)
	return decimal.NewFromInt(100).Mul(decimal.NewFromInt(1).Sub(t.Sub(d).Div(t)))
}

func customerCollisions(customers []model.Customer) []Warning {
	byExternal := make(map[int64][]int64)
	for _, c := range customers {
		ext := ExternalCustomerNo(c.ID)
		byExternal[ext] = append(byExternal[ext], c.ID)
	}
	externals := make([]int64, 0, len(byExternal))
	for ext := range byExternal {
		externals = append(externals, ext)
	}
	sort.Slice(externals, func(i, j int) bool { return externals[i] < externals[j] })

	var warnings []Warning
	for _, ext := range externals {
		ids := byExternal[ext]
		if len(ids) < 2 {
			continue
		}
		warnings = append(warnings, Warning{
			Rule:   RuleCustomerCollision,
			Detail: fmt.Sprintf("customers %v truncate to the same customer number %d", ids, ext),
		})
	}
	return warnings
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func valueOr(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
