package documents

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"etech-backend/internal/models"

	"github.com/shopspring/decimal"
)

var letterhead = Letterhead{CompanyName: "Etech Solutions", PaymentInstructions: "M-Pesa Paybill 123456", Currency: "KES"}

func testBill(t *testing.T) models.PendingBill {
	t.Helper()
	due, err := models.ParseDate("2024-03-15")
	if err != nil {
		t.Fatal(err)
	}
	return models.PendingBill{
		ID:                 "0f8e7d6c-1111-2222-3333-444455556666",
		PayerName:          "Acme <Ltd>",
		ServiceDescription: "Network setup",
		Amount:             decimal.RequireFromString("4500"),
		Status:             models.BillUnpaid,
		DueDate:            due,
	}
}

func TestInvoiceFromBill(t *testing.T) {
	d := InvoiceFromBill(testBill(t), letterhead)

	if d.Number != "INV-0F8E7D6C" {
		t.Errorf("Number = %q, want INV-0F8E7D6C", d.Number)
	}
	if d.WidthMM != WidthA4 {
		t.Errorf("WidthMM = %v, want %v", d.WidthMM, WidthA4)
	}
	if !d.Total.Equal(decimal.NewFromInt(4500)) {
		t.Errorf("Total = %s, want 4500", d.Total)
	}
	wantFields := map[string]string{"Bill To": "Acme <Ltd>", "Due Date": "2024-03-15", "Status": "UNPAID"}
	for _, f := range d.Fields {
		if want, ok := wantFields[f.Label]; ok && f.Value != want {
			t.Errorf("%s = %q, want %q", f.Label, f.Value, want)
		}
	}
	if len(d.Footer) != 2 || d.Footer[0] != "Payment Upon Receipt" {
		t.Errorf("Footer = %v", d.Footer)
	}
}

func TestReceiptFromSale(t *testing.T) {
	sale := models.SaleRecord{
		ID:            "abcdef12-0000-0000-0000-000000000000",
		ItemName:      "Toner",
		Description:   "HP 85A",
		QuantitySold:  3,
		SellingPrice:  decimal.RequireFromString("1200.50"),
		PaymentMethod: "Cash",
		PaymentStatus: models.PaymentPaid,
		SoldBy:        "Jane",
		OccurredAt:    time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	}
	d := ReceiptFromSale(sale, letterhead)

	if d.Kind != KindReceipt || d.WidthMM != WidthReceipt {
		t.Errorf("kind/width = %s/%v", d.Kind, d.WidthMM)
	}
	if got := d.Money(d.Total); got != "KES 3601.50" {
		t.Errorf("total = %q, want KES 3601.50", got)
	}
	if d.Lines[0].Description != "Toner (HP 85A)" {
		t.Errorf("line = %q", d.Lines[0].Description)
	}
	if last := d.Fields[len(d.Fields)-1]; last.Value != "Jane" {
		t.Errorf("last field = %+v, want served by Jane", last)
	}
}

func TestRenderHTML_Escapes(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, InvoiceFromBill(testBill(t), letterhead)); err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "Acme <Ltd>") {
		t.Error("payer name not escaped")
	}
	for _, want := range []string{"Acme &lt;Ltd&gt;", "KES 4500.00", "Payment Upon Receipt", "INV-0F8E7D6C"} {
		if !strings.Contains(out, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestRenderPDF(t *testing.T) {
	for _, d := range []Document{
		InvoiceFromBill(testBill(t), letterhead),
		ReceiptFromSale(models.SaleRecord{ID: "r1", ItemName: "Cable", QuantitySold: 1, SellingPrice: decimal.NewFromInt(50)}, letterhead),
	} {
		b, err := RenderPDF(d)
		if err != nil {
			t.Fatalf("RenderPDF(%s): %v", d.Kind, err)
		}
		if !bytes.HasPrefix(b, []byte("%PDF-")) {
			t.Errorf("%s output is not a PDF", d.Kind)
		}
	}
}
