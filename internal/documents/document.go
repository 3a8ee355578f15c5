// Package documents builds printable invoices and receipts. Building is a pure
// function of the record; rendering to HTML or PDF is separate.
package documents

import (
	"strings"

	"etech-backend/internal/models"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindInvoice Kind = "invoice"
	KindReceipt Kind = "receipt"
)

// Paper widths in millimetres.
const (
	WidthA4      = 210.0
	WidthReceipt = 80.0
)

type Letterhead struct {
	CompanyName         string
	PaymentInstructions string
	Currency            string
}

type Field struct {
	Label string
	Value string
}

type Line struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
}

type Document struct {
	Kind     Kind
	Number   string
	Title    string
	Company  string
	Currency string
	WidthMM  float64
	Fields   []Field
	Lines    []Line
	Total    decimal.Decimal
	Footer   []string
}

func documentNumber(prefix, id string) string {
	short := strings.ReplaceAll(id, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}
	return prefix + "-" + strings.ToUpper(short)
}

// InvoiceFromBill describes the A4 invoice for a pending bill.
func InvoiceFromBill(b models.PendingBill, lh Letterhead) Document {
	footer := []string{"Payment Upon Receipt"}
	if lh.PaymentInstructions != "" {
		footer = append(footer, lh.PaymentInstructions)
	}
	return Document{
		Kind:     KindInvoice,
		Number:   documentNumber("INV", b.ID),
		Title:    "Invoice",
		Company:  lh.CompanyName,
		Currency: lh.Currency,
		WidthMM:  WidthA4,
		Fields: []Field{
			{Label: "Bill To", Value: b.PayerName},
			{Label: "Due Date", Value: models.FormatDate(b.DueDate)},
			{Label: "Status", Value: strings.ToUpper(string(b.Status))},
		},
		Lines: []Line{{
			Description: b.ServiceDescription,
			Quantity:    1,
			UnitPrice:   b.Amount,
			Amount:      b.Amount,
		}},
		Total:  b.Amount,
		Footer: footer,
	}
}

// ReceiptFromSale describes the 80 mm receipt for a sale.
func ReceiptFromSale(s models.SaleRecord, lh Letterhead) Document {
	desc := s.ItemName
	if s.Description != "" {
		desc += " (" + s.Description + ")"
	}
	fields := []Field{
		{Label: "Date", Value: s.OccurredAt.UTC().Format("2006-01-02 15:04")},
		{Label: "Payment", Value: s.PaymentMethod},
		{Label: "Status", Value: string(s.PaymentStatus)},
	}
	if s.SoldBy != "" {
		fields = append(fields, Field{Label: "Served By", Value: s.SoldBy})
	}
	return Document{
		Kind:     KindReceipt,
		Number:   documentNumber("RCPT", s.ID),
		Title:    "Sales Receipt",
		Company:  lh.CompanyName,
		Currency: lh.Currency,
		WidthMM:  WidthReceipt,
		Fields:   fields,
		Lines: []Line{{
			Description: desc,
			Quantity:    s.QuantitySold,
			UnitPrice:   s.SellingPrice,
			Amount:      s.Amount(),
		}},
		Total:  s.Amount(),
		Footer: []string{"Thank you for your business"},
	}
}

// Money formats an amount with the document's currency label.
func (d Document) Money(v decimal.Decimal) string {
	if d.Currency == "" {
		return v.StringFixed(2)
	}
	return d.Currency + " " + v.StringFixed(2)
}
