package invoice

import (
	"sort"

	"tripletex-bridge/internal/model"
)

// kindSignificance orders transaction kinds by how authoritative they are as
// the payment of an order. A gateway may report both an authorization and a
// later capture for the same order; ranking prevents counting the order twice.
func kindSignificance(kind string) int {
	switch kind {
	case "sale":
		return 1
	case "capture":
		return 2
	case "authorization":
		return 3
	default:
		return 10
	}
}

func isMonetaryKind(kind string) bool {
	switch kind {
	case "sale", "capture", "authorization":
		return true
	}
	return false
}

// rankTransactions returns an order's successful monetary transactions in
// rank order: most significant kind first, ties broken by ascending
// transaction id so re-runs are stable. Gift card redemptions are excluded;
// they become separate lines of their own.
func rankTransactions(txns []model.Transaction) []model.Transaction {
	ranked := make([]model.Transaction, 0, len(txns))
	for _, t := range txns {
		if t.Status != "success" || !isMonetaryKind(t.Kind) || t.Gateway == GiftCardGateway {
			continue
		}
		ranked = append(ranked, t)
	}
	sort.Slice(ranked, func(i, j int) bool {
		si, sj := kindSignificance(ranked[i].Kind), kindSignificance(ranked[j].Kind)
		if si != sj {
			return si < sj
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked
}

// authoritativeTransaction returns the rank-1 payment for an order, if any.
func authoritativeTransaction(txns []model.Transaction) (model.Transaction, bool) {
	ranked := rankTransactions(txns)
	if len(ranked) == 0 {
		return model.Transaction{}, false
	}
	return ranked[0], true
}
