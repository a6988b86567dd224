package invoice

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment tags on an invoice line.
const (
	TagPayment = "payment"
	TagRefund  = "refund"
)

// Fixed Tripletex codes and defaults.
const (
	VATCodeStandard = 3

	ProductNoShipping = "SHIPPING"
	ProductNoGiftCard = "GIFTCARD"

	// Refund lines re-use the order number with this suffix so Tripletex
	// treats them as a separate order.
	refundOrderSuffix = "-1"

	refundDefaultDescription = "Refund with unspecified reason"

	// Shopify's gateway identifier for gift card redemptions.
	GiftCardGateway = "gift_card"
)

// Output ordering among lines that share an order.
const (
	priorityProduct  = 1
	priorityRefund   = 2
	priorityShipping = 3
	priorityGiftCard = 4
)

// Line is one row of the Tripletex import file.
type Line struct {
	TransactionID int64
	OrderID       int64
	PaymentTag    string

	CustomerNo   int64
	CustomerName string
	OrderNo      string
	PaidAmount   decimal.Decimal
	Count        int64 // negative on refund lines
	ProductName  string
	UnitPrice    decimal.Decimal
	Discount     decimal.Decimal // percent
	VATCode      int
	Description  string
	ProductNo    string
	PaymentType  string

	InvoiceDate  time.Time
	DeliveryDate time.Time
	OrderDate    time.Time
	DueDate      time.Time

	InvoiceNo int

	// priority orders lines within one order; dedupKey collapses duplicate
	// representations of the same logical line (see merge.go).
	priority int
	dedupKey lineKey
}

// lineKey identifies the logical line a candidate represents. Shipping
// candidates of one order share a key so duplicated upstream shipping rows
// collapse; every other kind is keyed by its source row.
type lineKey struct {
	orderID  int64
	kind     string
	sourceID int64
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
