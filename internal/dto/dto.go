package dto

import "tripletex-bridge/internal/invoice"

type InvoiceLine struct {
	TransactionID int64  `json:"transaction_id"`
	OrderID       int64  `json:"order_id"`
	PaymentTag    string `json:"payment_tag"`
	CustomerNo    int64  `json:"customer_no"`
	CustomerName  string `json:"customer_name"`
	OrderNo       string `json:"order_no"`
	PaidAmount    string `json:"paid_amount"`
	Count         int64  `json:"count"`
	ProductName   string `json:"product_name"`
	UnitPrice     string `json:"unit_price"`
	Discount      string `json:"discount"`
	VATCode       int    `json:"vat_code"`
	Description   string `json:"description"`
	ProductNo     string `json:"product_no"`
	PaymentType   string `json:"payment_type"`
	InvoiceDate   string `json:"invoice_date"`
	DeliveryDate  string `json:"delivery_date"`
	OrderDate     string `json:"order_date"`
	DueDate       string `json:"due_date"`
	InvoiceNo     int    `json:"invoice_no"`
}

type GenerateResponse struct {
	Lines    []InvoiceLine `json:"lines"`
	Warnings []string      `json:"warnings"`
}

type VerifyResponse struct {
	Warnings []string `json:"warnings"`
}

const dateFormat = "2006-01-02"

func FromLine(l invoice.Line) InvoiceLine {
	return InvoiceLine{
		TransactionID: l.TransactionID,
		OrderID:       l.OrderID,
		PaymentTag:    l.PaymentTag,
		CustomerNo:    l.CustomerNo,
		CustomerName:  l.CustomerName,
		OrderNo:       l.OrderNo,
		PaidAmount:    l.PaidAmount.StringFixed(2),
		Count:         l.Count,
		ProductName:   l.ProductName,
		UnitPrice:     l.UnitPrice.StringFixed(2),
		Discount:      l.Discount.StringFixed(2),
		VATCode:       l.VATCode,
		Description:   l.Description,
		ProductNo:     l.ProductNo,
		PaymentType:   l.PaymentType,
		InvoiceDate:   l.InvoiceDate.Format(dateFormat),
		DeliveryDate:  l.DeliveryDate.Format(dateFormat),
		OrderDate:     l.OrderDate.Format(dateFormat),
		DueDate:       l.DueDate.Format(dateFormat),
		InvoiceNo:     l.InvoiceNo,
	}
}

func WarningStrings(warnings []invoice.Warning) []string {
	out := make([]string, len(warnings))
	for i, w := range warnings {
		out[i] = w.String()
	}
	return out
}
