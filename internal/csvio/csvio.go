// Package csvio reads and writes the semicolon separated invoice file
// accepted by Tripletex's invoice import.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"tripletex-bridge/internal/invoice"
)

const dateFormat = "2006-01-02"

// Column order is fixed: the columns Tripletex requires first, then the
// optional ones it accepts.
var columns = []string{
	"CUSTOMER NO",
	"ORDER NO",
	"PAID AMOUNT",
	"ORDER LINE - COUNT",
	"ORDER LINE - UNIT PRICE",
	"ORDER LINE - VAT CODE",
	"PAYMENT TYPE",
	"INVOICE DATE",
	"DELIVERY DATE",
	"ORDER DATE",
	"DUE DATE",
	"INVOICE NO",
	"CUSTOMER NAME",
	"ORDER LINE - PROD NAME",
	"ORDER LINE - DISCOUNT",
	"ORDER LINE - DESCRIPTION",
	"ORDER LINE - PROD NO",
}

// Write serializes the lines in Tripletex column order. Numeric fields are
// written with two decimals.
func Write(w io.Writer, lines []invoice.Line) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, l := range lines {
		record := []string{
			strconv.FormatInt(l.CustomerNo, 10),
			l.OrderNo,
			l.PaidAmount.StringFixed(2),
			strconv.FormatInt(l.Count, 10),
			l.UnitPrice.StringFixed(2),
			strconv.Itoa(l.VATCode),
			l.PaymentType,
			l.InvoiceDate.Format(dateFormat),
			l.DeliveryDate.Format(dateFormat),
			l.OrderDate.Format(dateFormat),
			l.DueDate.Format(dateFormat),
			strconv.Itoa(l.InvoiceNo),
			l.CustomerName,
			l.ProductName,
			l.Discount.StringFixed(2),
			l.Description,
			l.ProductNo,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write line for order %s: %w", l.OrderNo, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// Read parses a previously exported (possibly hand-edited) invoice file back
// into lines for verification. The payment tag is not a file column; it is
// recovered from the sign of the paid amount.
func Read(r io.Reader) ([]invoice.Line, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, name := range columns[:12] {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var lines []invoice.Line
	for rowNo := 2; ; rowNo++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", rowNo, err)
		}

		var l invoice.Line
		l.CustomerNo, _ = strconv.ParseInt(field(record, "CUSTOMER NO"), 10, 64)
		l.OrderNo = field(record, "ORDER NO")
		l.PaidAmount, err = decimal.NewFromString(field(record, "PAID AMOUNT"))
		if err != nil {
			return nil, fmt.Errorf("row %d: parse PAID AMOUNT: %w", rowNo, err)
		}
		l.Count, _ = strconv.ParseInt(field(record, "ORDER LINE - COUNT"), 10, 64)
		l.UnitPrice, err = decimal.NewFromString(field(record, "ORDER LINE - UNIT PRICE"))
		if err != nil {
			return nil, fmt.Errorf("row %d: parse ORDER LINE - UNIT PRICE: %w", rowNo, err)
		}
		l.VATCode, _ = strconv.Atoi(field(record, "ORDER LINE - VAT CODE"))
		l.PaymentType = field(record, "PAYMENT TYPE")
		l.InvoiceDate = parseDate(field(record, "INVOICE DATE"))
		l.DeliveryDate = parseDate(field(record, "DELIVERY DATE"))
		l.OrderDate = parseDate(field(record, "ORDER DATE"))
		l.DueDate = parseDate(field(record, "DUE DATE"))
		l.InvoiceNo, _ = strconv.Atoi(field(record, "INVOICE NO"))
		l.CustomerName = field(record, "CUSTOMER NAME")
		l.ProductName = field(record, "ORDER LINE - PROD NAME")
		if d := field(record, "ORDER LINE - DISCOUNT"); d != "" {
			l.Discount, err = decimal.NewFromString(d)
			if err != nil {
				return nil, fmt.Errorf("row %d: parse ORDER LINE - DISCOUNT: %w", rowNo, err)
			}
		}
		l.Description = field(record, "ORDER LINE - DESCRIPTION")
		l.ProductNo = field(record, "ORDER LINE - PROD NO")

		l.PaymentTag = invoice.TagPayment
		if l.PaidAmount.IsNegative() {
			l.PaymentTag = invoice.TagRefund
		}
		lines = append(lines, l)
	}
	return lines, nil
}

func parseDate(s string) time.Time {
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
