package invoice

import "sort"

// merge collapses duplicate representations of the same logical line and
// orders the final sequence. Duplicates are grouped by their line key (only
// shipping rows can actually collide, since every other kind is keyed by its
// source row) and resolved by an explicit comparator: the candidate with the
// lowest source id wins. Monetary fields are rounded to two decimals here, at
// the output boundary.
func merge(candidates []Line) []Line {
	winners := make(map[lineKey]Line, len(candidates))
	order := make([]lineKey, 0, len(candidates))
	for _, c := range candidates {
		key := c.dedupKey
		if key.kind == "shipping" {
			key.sourceID = 0
		}
		current, ok := winners[key]
		if !ok {
			winners[key] = c
			order = append(order, key)
			continue
		}
		if c.dedupKey.sourceID < current.dedupKey.sourceID {
			winners[key] = c
		}
	}

	lines := make([]Line, 0, len(winners))
	for _, key := range order {
		l := winners[key]
		l.PaidAmount = round2(l.PaidAmount)
		l.UnitPrice = round2(l.UnitPrice)
		l.Discount = round2(l.Discount)
		lines = append(lines, l)
	}

	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if !a.OrderDate.Equal(b.OrderDate) {
			return a.OrderDate.After(b.OrderDate)
		}
		if a.OrderID != b.OrderID {
			return a.OrderID < b.OrderID
		}
		if a.CustomerName != b.CustomerName {
			return a.CustomerName < b.CustomerName
		}
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		return a.dedupKey.sourceID < b.dedupKey.sourceID
	})
	return lines
}

// assignInvoiceNumbers gives each distinct (order number, payment tag) group
// a sequential invoice number starting at start, in final sequence order. All
// lines of a group share the number, so an order and its refund get separate
// invoices.
func assignInvoiceNumbers(lines []Line, start int) {
	numbers := make(map[[2]string]int)
	next := start
	for i := range lines {
		key := [2]string{lines[i].OrderNo, lines[i].PaymentTag}
		n, ok := numbers[key]
		if !ok {
			n = next
			numbers[key] = n
			next++
		}
		lines[i].InvoiceNo = n
	}
}
