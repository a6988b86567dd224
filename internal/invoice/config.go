package invoice

import (
	"time"

	"tripletex-bridge/internal/model"
)

// Config carries the export settings. It is threaded explicitly through the
// pipeline; the package keeps no ambient state.
type Config struct {
	// GatewayLabels maps Shopify gateway identifiers to the display labels
	// expected by the accounting system (e.g. "stripe" -> "Stripe").
	GatewayLabels map[string]string

	// StartNumber is the invoice number assigned to the first generated
	// invoice; one greater than the latest invoice already in Tripletex.
	StartNumber int

	// From and To bound the orders included in the export, inclusive.
	From time.Time
	To   time.Time
}

// Label resolves a gateway identifier to its display label, falling back to
// the raw identifier so unmapped gateways stay visible to the verifier.
func (c Config) Label(gateway string) string {
	if l, ok := c.GatewayLabels[gateway]; ok {
		return l
	}
	return gateway
}

// Dataset is the window of entity records the pipeline works on. Records are
// read-only inputs; the pipeline never mutates them.
type Dataset struct {
	Customers       []model.Customer
	Orders          []model.Order
	LineItems       []model.LineItemProduct
	Transactions    []model.Transaction
	Refunds         []model.Refund
	RefundLineItems []model.LineItemProductRefund
	Shipping        []model.Shipping
}
