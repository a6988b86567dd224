package invoice

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripletex-bridge/internal/model"
)

func ts(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 10, 30, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func testConfig() Config {
	return Config{
		GatewayLabels: map[string]string{"stripe": "Stripe", "vipps": "Vipps"},
		StartNumber:   1000,
	}
}

// mugOrder is the canonical one-product order: two mugs at 50.00 with a
// 10.00 discount, paid with a single sale transaction of 90.00.
func mugOrder() Dataset {
	return Dataset{
		Customers: []model.Customer{
			{ID: 700, Name: "Kari Nordmann"},
		},
		Orders: []model.Order{
			{ID: 1, CustomerID: ptr(int64(700)), Name: "#1001", CreatedAt: ts(2024, 3, 5), Currency: "NOK"},
		},
		LineItems: []model.LineItemProduct{
			{
				ID: 21, OrderID: 1, Title: "Mug", SKU: "MUG-1",
				UnitPrice: 50.00, TotalPrice: 100.00, TotalDiscountAmount: 10.00, Quantity: 2,
			},
		},
		Transactions: []model.Transaction{
			{ID: 31, OrderID: 1, Status: "success", Kind: "sale", Gateway: "stripe", Amount: 90.00, CreatedAt: ts(2024, 3, 5)},
		},
	}
}

func TestGenerateProductLine(t *testing.T) {
	lines, warnings := Generate(mugOrder(), testConfig())
	require.Empty(t, warnings)
	require.Len(t, lines, 1)

	l := lines[0]
	assert.Equal(t, TagPayment, l.PaymentTag)
	assert.Equal(t, "#1001", l.OrderNo)
	assert.Equal(t, int64(700), l.CustomerNo)
	assert.Equal(t, "Kari Nordmann", l.CustomerName)
	assert.Equal(t, "90.00", l.PaidAmount.StringFixed(2))
	assert.Equal(t, int64(2), l.Count)
	assert.Equal(t, "Mug", l.ProductName)
	assert.Equal(t, "MUG-1", l.ProductNo)
	assert.Equal(t, "50.00", l.UnitPrice.StringFixed(2))
	assert.Equal(t, "10.00", l.Discount.StringFixed(2))
	assert.Equal(t, VATCodeStandard, l.VATCode)
	assert.Equal(t, "Stripe", l.PaymentType)
	assert.Equal(t, int64(31), l.TransactionID)
	assert.Equal(t, 1000, l.InvoiceNo)
}

func TestGenerateProductNameVariant(t *testing.T) {
	ds := mugOrder()
	ds.LineItems[0].VariantTitle = "Blue"
	lines, _ := Generate(ds, testConfig())
	require.Len(t, lines, 1)
	assert.Equal(t, "Mug - Blue", lines[0].ProductName)
}

func TestGenerateZeroTotalPriceDiscount(t *testing.T) {
	ds := mugOrder()
	ds.LineItems[0].TotalPrice = 0
	lines, _ := Generate(ds, testConfig())
	require.Len(t, lines, 1)
	assert.Equal(t, "0.00", lines[0].Discount.StringFixed(2))
}

func TestGenerateRefundWithoutBreakdown(t *testing.T) {
	ds := Dataset{
		Customers: []model.Customer{{ID: 701, Name: "Ola Nordmann"}},
		Orders: []model.Order{
			{ID: 2, CustomerID: ptr(int64(701)), Name: "#1002", CreatedAt: ts(2024, 3, 7)},
		},
		Transactions: []model.Transaction{
			{ID: 40, OrderID: 2, Status: "success", Kind: "refund", Gateway: "stripe", Amount: 30.00, CreatedAt: ts(2024, 3, 9)},
		},
		Refunds: []model.Refund{
			{ID: 50, OrderID: 2, TransactionID: 40, Note: "", CreatedAt: ts(2024, 3, 9)},
		},
	}

	lines, warnings := Generate(ds, testConfig())
	require.Empty(t, warnings)
	require.Len(t, lines, 1)

	l := lines[0]
	assert.Equal(t, TagRefund, l.PaymentTag)
	assert.Equal(t, "#1002-1", l.OrderNo)
	assert.Equal(t, "-30.00", l.PaidAmount.StringFixed(2))
	assert.Equal(t, int64(-1), l.Count)
	assert.Equal(t, "30.00", l.UnitPrice.StringFixed(2))
	assert.Equal(t, "Refund with unspecified reason", l.Description)
	assert.Equal(t, "0.00", l.Discount.StringFixed(2))
}

func TestGenerateRefundWithBreakdown(t *testing.T) {
	ds := mugOrder()
	ds.Transactions = append(ds.Transactions, model.Transaction{
		ID: 32, OrderID: 1, Status: "success", Kind: "refund", Gateway: "stripe", Amount: 45.00, CreatedAt: ts(2024, 3, 10),
	})
	ds.Refunds = []model.Refund{
		{ID: 60, OrderID: 1, TransactionID: 32, Note: "damaged in transit", CreatedAt: ts(2024, 3, 10)},
	}
	ds.RefundLineItems = []model.LineItemProductRefund{
		{ID: 61, RefundID: 60, LineItemProductID: 21, Quantity: 1, RefundAmount: 45.00},
	}

	lines, warnings := Generate(ds, testConfig())
	require.Empty(t, warnings)
	require.Len(t, lines, 2)

	var refund Line
	for _, l := range lines {
		if l.PaymentTag == TagRefund {
			refund = l
		}
	}
	assert.Equal(t, "#1001-1", refund.OrderNo)
	assert.Equal(t, int64(-1), refund.Count)
	assert.Equal(t, "45.00", refund.UnitPrice.StringFixed(2))
	assert.Equal(t, "-45.00", refund.PaidAmount.StringFixed(2))
	assert.Equal(t, "Mug", refund.ProductName)
	assert.Equal(t, "damaged in transit", refund.Description)
}

func TestGenerateRefundBreakdownFallsBack(t *testing.T) {
	ds := mugOrder()
	ds.Transactions = append(ds.Transactions, model.Transaction{
		ID: 32, OrderID: 1, Status: "success", Kind: "refund", Gateway: "stripe", Amount: 45.00, CreatedAt: ts(2024, 3, 10),
	})
	ds.Refunds = []model.Refund{
		{ID: 60, OrderID: 1, TransactionID: 32, CreatedAt: ts(2024, 3, 10)},
	}
	// The breakdown points at a line item that does not exist.
	ds.RefundLineItems = []model.LineItemProductRefund{
		{ID: 61, RefundID: 60, LineItemProductID: 9999, Quantity: 1, RefundAmount: 45.00},
	}

	lines, warnings := Generate(ds, testConfig())
	require.Len(t, lines, 2)
	require.Len(t, warnings, 1)
	assert.Equal(t, RuleRefundBreakdown, warnings[0].Rule)

	var refund Line
	for _, l := range lines {
		if l.PaymentTag == TagRefund {
			refund = l
		}
	}
	// Coarse fallback: the raw transaction amount.
	assert.Equal(t, int64(-1), refund.Count)
	assert.Equal(t, "45.00", refund.UnitPrice.StringFixed(2))
}

func TestGenerateShippingLineDeduplicated(t *testing.T) {
	ds := mugOrder()
	// Upstream duplication: two shipping rows on one order.
	ds.Shipping = []model.Shipping{
		{ID: 81, OrderID: 1, Title: "Posten", Price: 79.00, DiscountedPrice: 79.00},
		{ID: 82, OrderID: 1, Title: "Posten duplicate", Price: 79.00, DiscountedPrice: 79.00},
	}

	lines, _ := Generate(ds, testConfig())
	var shipping []Line
	for _, l := range lines {
		if l.ProductNo == ProductNoShipping {
			shipping = append(shipping, l)
		}
	}
	require.Len(t, shipping, 1)
	assert.Equal(t, "Posten", shipping[0].Description)
	assert.Equal(t, "79.00", shipping[0].UnitPrice.StringFixed(2))
	assert.Equal(t, int64(1), shipping[0].Count)
	assert.Equal(t, "0.00", shipping[0].Discount.StringFixed(2))
}

func TestGenerateShippingDiscount(t *testing.T) {
	ds := mugOrder()
	ds.Shipping = []model.Shipping{
		{ID: 81, OrderID: 1, Title: "Posten", Price: 100.00, DiscountedPrice: 75.00},
	}
	lines, _ := Generate(ds, testConfig())
	for _, l := range lines {
		if l.ProductNo == ProductNoShipping {
			assert.Equal(t, "25.00", l.Discount.StringFixed(2))
			return
		}
	}
	t.Fatal("no shipping line generated")
}

func TestGenerateGiftCardLine(t *testing.T) {
	ds := mugOrder()
	ds.Transactions = append(ds.Transactions, model.Transaction{
		ID: 33, OrderID: 1, Status: "success", Kind: "sale", Gateway: GiftCardGateway, Amount: 20.00, CreatedAt: ts(2024, 3, 5),
	})

	lines, _ := Generate(ds, testConfig())
	var gift []Line
	for _, l := range lines {
		if l.ProductNo == ProductNoGiftCard {
			gift = append(gift, l)
		}
	}
	require.Len(t, gift, 1)
	l := gift[0]
	assert.Equal(t, TagPayment, l.PaymentTag)
	assert.Equal(t, "Gift card", l.Description)
	assert.Equal(t, int64(1), l.Count)
	assert.True(t, l.UnitPrice.IsNegative(), "gift card unit price must be negative")
	assert.Equal(t, "-20.00", l.UnitPrice.StringFixed(2))
	// Paid amount is shared with the authoritative transaction.
	assert.Equal(t, "90.00", l.PaidAmount.StringFixed(2))
	assert.Equal(t, int64(33), l.TransactionID)
}

func TestGeneratePaidAmountReconciles(t *testing.T) {
	// Two products plus shipping; all payment lines must sum to the
	// authoritative amount within a cent.
	ds := Dataset{
		Customers: []model.Customer{{ID: 700, Name: "Kari Nordmann"}},
		Orders: []model.Order{
			{ID: 1, CustomerID: ptr(int64(700)), Name: "#1001", CreatedAt: ts(2024, 3, 5)},
		},
		LineItems: []model.LineItemProduct{
			{ID: 21, OrderID: 1, Title: "Mug", UnitPrice: 50.00, TotalPrice: 100.00, TotalDiscountAmount: 10.00, Quantity: 2},
			{ID: 22, OrderID: 1, Title: "Poster", UnitPrice: 150.00, TotalPrice: 150.00, Quantity: 1},
		},
		Transactions: []model.Transaction{
			{ID: 31, OrderID: 1, Status: "success", Kind: "sale", Gateway: "stripe", Amount: 319.00, CreatedAt: ts(2024, 3, 5)},
		},
		Shipping: []model.Shipping{
			{ID: 81, OrderID: 1, Title: "Posten", Price: 79.00, DiscountedPrice: 79.00},
		},
	}

	lines, _ := Generate(ds, testConfig())
	require.Len(t, lines, 3)

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(decimal.NewFromInt(l.Count).
			Mul(l.UnitPrice).
			Mul(decimal.NewFromInt(100).Sub(l.Discount)).
			Div(decimal.NewFromInt(100)))
	}
	diff := total.Sub(decimal.NewFromFloat(319.00)).Abs()
	assert.True(t, diff.LessThanOrEqual(decimal.NewFromFloat(0.01)),
		"line total %s deviates from paid amount 319.00", total.StringFixed(2))
}

func TestGenerateAuthorizationThenCapture(t *testing.T) {
	ds := mugOrder()
	ds.Transactions = []model.Transaction{
		{ID: 31, OrderID: 1, Status: "success", Kind: "authorization", Gateway: "stripe", Amount: 90.00, CreatedAt: ts(2024, 3, 5)},
		{ID: 32, OrderID: 1, Status: "success", Kind: "capture", Gateway: "stripe", Amount: 90.00, CreatedAt: ts(2024, 3, 6)},
	}

	lines, _ := Generate(ds, testConfig())
	require.Len(t, lines, 1, "order must not be double counted")
	assert.Equal(t, int64(32), lines[0].TransactionID)
}

func TestGenerateOrdering(t *testing.T) {
	ds := Dataset{
		Customers: []model.Customer{{ID: 700, Name: "Kari Nordmann"}},
		Orders: []model.Order{
			{ID: 1, CustomerID: ptr(int64(700)), Name: "#1001", CreatedAt: ts(2024, 3, 5)},
			{ID: 2, CustomerID: ptr(int64(700)), Name: "#1002", CreatedAt: ts(2024, 3, 8)},
		},
		LineItems: []model.LineItemProduct{
			{ID: 21, OrderID: 1, Title: "Mug", UnitPrice: 90.00, TotalPrice: 90.00, Quantity: 1},
			{ID: 22, OrderID: 2, Title: "Poster", UnitPrice: 150.00, TotalPrice: 150.00, Quantity: 1},
		},
		Transactions: []model.Transaction{
			{ID: 31, OrderID: 1, Status: "success", Kind: "sale", Gateway: "stripe", Amount: 90.00, CreatedAt: ts(2024, 3, 5)},
			{ID: 32, OrderID: 2, Status: "success", Kind: "sale", Gateway: "stripe", Amount: 150.00, CreatedAt: ts(2024, 3, 8)},
		},
		Shipping: []model.Shipping{
			{ID: 81, OrderID: 2, Title: "Posten", Price: 0, DiscountedPrice: 0},
		},
	}

	lines, _ := Generate(ds, testConfig())
	require.Len(t, lines, 3)
	// Newest order first; within an order, products before shipping.
	assert.Equal(t, "#1002", lines[0].OrderNo)
	assert.Equal(t, "Poster", lines[0].ProductName)
	assert.Equal(t, ProductNoShipping, lines[1].ProductNo)
	assert.Equal(t, "#1001", lines[2].OrderNo)
}

func TestGenerateInvoiceNumbers(t *testing.T) {
	ds := mugOrder()
	ds.Orders = append(ds.Orders, model.Order{
		ID: 2, CustomerID: ptr(int64(700)), Name: "#1002", CreatedAt: ts(2024, 3, 8),
	})
	ds.LineItems = append(ds.LineItems, model.LineItemProduct{
		ID: 22, OrderID: 2, Title: "Poster", UnitPrice: 150.00, TotalPrice: 150.00, Quantity: 1,
	})
	ds.Transactions = append(ds.Transactions,
		model.Transaction{ID: 32, OrderID: 2, Status: "success", Kind: "sale", Gateway: "stripe", Amount: 150.00, CreatedAt: ts(2024, 3, 8)},
		model.Transaction{ID: 33, OrderID: 2, Status: "success", Kind: "refund", Gateway: "stripe", Amount: 150.00, CreatedAt: ts(2024, 3, 9)},
	)
	ds.Refunds = append(ds.Refunds, model.Refund{
		ID: 70, OrderID: 2, TransactionID: 33, CreatedAt: ts(2024, 3, 9),
	})

	lines, _ := Generate(ds, testConfig())
	require.Len(t, lines, 3)

	numbers := map[int]string{}
	for _, l := range lines {
		key := l.OrderNo + "/" + l.PaymentTag
		if existing, ok := numbers[l.InvoiceNo]; ok {
			assert.Equal(t, existing, key, "invoice number %d reused across groups", l.InvoiceNo)
		}
		numbers[l.InvoiceNo] = key
	}
	assert.Len(t, numbers, 3)
	for _, n := range []int{1000, 1001, 1002} {
		assert.Contains(t, numbers, n)
	}
}

func TestGenerateIdempotent(t *testing.T) {
	ds := mugOrder()
	ds.Shipping = []model.Shipping{
		{ID: 81, OrderID: 1, Title: "Posten", Price: 79.00, DiscountedPrice: 79.00},
	}
	ds.Transactions = append(ds.Transactions, model.Transaction{
		ID: 33, OrderID: 1, Status: "success", Kind: "sale", Gateway: GiftCardGateway, Amount: 20.00, CreatedAt: ts(2024, 3, 5),
	})

	first, firstWarnings := Generate(ds, testConfig())
	second, secondWarnings := Generate(ds, testConfig())
	require.Equal(t, first, second)
	require.Equal(t, firstWarnings, secondWarnings)
}

func TestGenerateCustomerCollisionWarning(t *testing.T) {
	ds := mugOrder()
	// Both ids end in the same nine digits.
	ds.Customers = []model.Customer{
		{ID: 1123456789, Name: "Kari Nordmann"},
		{ID: 2123456789, Name: "Ola Nordmann"},
	}
	ds.Orders[0].CustomerID = ptr(int64(1123456789))

	_, warnings := Generate(ds, testConfig())
	require.Len(t, warnings, 1)
	assert.Equal(t, RuleCustomerCollision, warnings[0].Rule)
}

func TestGenerateOrderWithoutPayment(t *testing.T) {
	ds := mugOrder()
	ds.Transactions = nil
	lines, warnings := Generate(ds, testConfig())
	assert.Empty(t, lines)
	assert.Empty(t, warnings)
}
