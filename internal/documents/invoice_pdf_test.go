package documents

import (
	"bytes"
	"testing"
	"time"

	services "github.com/buildkart/api/internal/services"
)

func sampleDocument() services.InvoiceDocument {
	return services.InvoiceDocument{
		InvoiceNumber: "INV-0812XK41",
		OrderID:       "ORD20260812XK41",
		IssuedOn:      time.Date(2026, time.August, 12, 9, 30, 0, 0, time.UTC),
		IssuedOnF:     "12 Aug 2026",
		Business: services.BusinessProfile{
			Name:  "BuildKart Traders",
			GSTIN: "29ABCDE1234F1Z5",
			City:  "Bengaluru",
		},
		BillTo: services.InvoiceParty{Name: "Ravi Kumar", Address: "14 MG Road, Bengaluru, Karnataka 560001"},
		Lines: []services.InvoiceLine{
			{Index: 1, Description: "TMT Steel Bar 12mm", HSNCode: "7214", Quantity: 60, Unit: "piece", UnitPrice: 100_000, Amount: 6_000_000},
		},
		Totals: services.InvoiceTotals{
			Subtotal:       6_000_000,
			CGST:           540_000,
			SGST:           540_000,
			BulkDiscount:   300_000,
			GrandTotal:     6_780_000,
			Savings:        315_000,
			DeliveryWaived: true,
		},
		Currency: "INR",
	}
}

func TestBuildInvoicePDF(t *testing.T) {
	out, err := BuildInvoicePDF(sampleDocument())
	if err != nil {
		t.Fatalf("BuildInvoicePDF error: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected PDF bytes")
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output does not start with a PDF header")
	}
}

func TestBuildInvoicePDF_EmptyDocument(t *testing.T) {
	out, err := BuildInvoicePDF(services.InvoiceDocument{InvoiceNumber: "INV-", Business: services.BusinessProfile{Name: "BuildKart Traders"}})
	if err != nil {
		t.Fatalf("BuildInvoicePDF error: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output does not start with a PDF header")
	}
}
