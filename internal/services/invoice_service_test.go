package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	domain "github.com/buildkart/api/internal/domain"
	repositories "github.com/buildkart/api/internal/repositories"
)

func invoiceFixtureOrder() domain.Order {
	return domain.Order{
		ID:       "ORD20260812XK41",
		Status:   "shipped",
		Currency: "INR",
		Contact:  domain.OrderContact{Name: "Ravi Kumar", Phone: "+91 98765 43210", Email: "ravi@example.com"},
		BillingAddress: &domain.Address{
			Line1:      "14 MG Road",
			City:       "Bengaluru",
			State:      "Karnataka",
			PostalCode: "560001",
		},
		ShippingAddress: &domain.Address{
			Recipient: "Site Office",
			Line1:     "Plot 7, Industrial Area",
			City:      "Bengaluru",
		},
		Items: []domain.LineItem{
			{Description: "TMT Steel Bar 12mm", HSNCode: "7214", Unit: "piece", Quantity: 60, UnitPrice: 100_000},
		},
		CreatedAt: time.Date(2026, time.August, 12, 9, 30, 0, 0, time.UTC),
	}
}

func newTestInvoiceService(t *testing.T, orders map[string]domain.Order) *InvoiceService {
	t.Helper()
	svc, err := NewInvoiceService(InvoiceServiceDeps{
		Orders:   &fakeOrderRepo{orders: orders},
		Pricing:  newTestEngine(t),
		Business: BusinessProfile{Name: "BuildKart Traders", GSTIN: "29ABCDE1234F1Z5", City: "Bengaluru"},
	})
	if err != nil {
		t.Fatalf("NewInvoiceService error: %v", err)
	}
	return svc
}

func TestInvoiceNumber(t *testing.T) {
	cases := []struct {
		orderID string
		want    string
	}{
		{orderID: "ORD20260812XK41", want: "INV-0812XK41"},
		{orderID: "abc", want: "INV-ABC"},
		{orderID: "", want: "INV-"},
	}
	for _, tc := range cases {
		if got := InvoiceNumber(tc.orderID); got != tc.want {
			t.Errorf("InvoiceNumber(%q) = %q, want %q", tc.orderID, got, tc.want)
		}
	}
}

func TestInvoiceService_Invoice(t *testing.T) {
	order := invoiceFixtureOrder()
	svc := newTestInvoiceService(t, map[string]domain.Order{order.ID: order})

	doc, err := svc.Invoice(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("Invoice error: %v", err)
	}

	if doc.InvoiceNumber != "INV-0812XK41" {
		t.Errorf("invoice number = %s", doc.InvoiceNumber)
	}
	if doc.Business.Name != "BuildKart Traders" {
		t.Errorf("business name = %s", doc.Business.Name)
	}
	if doc.IssuedOnF != "12 Aug 2026" {
		t.Errorf("issued on = %s", doc.IssuedOnF)
	}

	if len(doc.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(doc.Lines))
	}
	line := doc.Lines[0]
	if line.Amount != 6_000_000 || line.AmountF != "₹60,000.00" {
		t.Errorf("line amount = %d / %s", line.Amount, line.AmountF)
	}
	if line.HSNCode != "7214" {
		t.Errorf("hsn code = %s", line.HSNCode)
	}

	totals := doc.Totals
	if totals.CGST != 540_000 || totals.SGST != 540_000 {
		t.Errorf("gst halves = %d/%d, want 540000 each", totals.CGST, totals.SGST)
	}
	if totals.CGST+totals.SGST != 1_080_000 {
		t.Errorf("gst halves must sum to the full tax amount")
	}
	if totals.GrandTotal != 6_780_000 || totals.GrandTotalF != "₹67,800.00" {
		t.Errorf("grand total = %d / %s", totals.GrandTotal, totals.GrandTotalF)
	}
	if !totals.DeliveryWaived || totals.Delivery != 0 {
		t.Errorf("expected waived delivery, got %d", totals.Delivery)
	}

	if doc.BillTo.Name != "Ravi Kumar" {
		t.Errorf("bill-to name = %s", doc.BillTo.Name)
	}
	if !strings.Contains(doc.BillTo.Address, "Karnataka 560001") {
		t.Errorf("bill-to address = %q", doc.BillTo.Address)
	}
	if doc.ShipTo.Name != "Site Office" {
		t.Errorf("ship-to recipient should override the contact name, got %s", doc.ShipTo.Name)
	}
}

func TestInvoiceService_InvoiceMissingFieldsDegrade(t *testing.T) {
	order := domain.Order{ID: "BARE1234", Status: "placed"}
	svc := newTestInvoiceService(t, map[string]domain.Order{order.ID: order})

	doc, err := svc.Invoice(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("Invoice error: %v", err)
	}
	if doc.BillTo.Name != "" || doc.BillTo.Address != "" {
		t.Errorf("expected empty bill-to block, got %+v", doc.BillTo)
	}
	if len(doc.Lines) != 0 {
		t.Errorf("expected no lines, got %d", len(doc.Lines))
	}
	if doc.Totals.GrandTotal != 0 {
		t.Errorf("grand total = %d, want 0", doc.Totals.GrandTotal)
	}
}

func TestInvoiceService_InvoiceNotFound(t *testing.T) {
	svc := newTestInvoiceService(t, nil)

	if _, err := svc.Invoice(context.Background(), "missing"); !errors.Is(err, repositories.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestInvoiceService_Share(t *testing.T) {
	order := invoiceFixtureOrder()
	svc := newTestInvoiceService(t, map[string]domain.Order{order.ID: order})

	payload, err := svc.Share(context.Background(), order.ID, "https://buildkart.example")
	if err != nil {
		t.Fatalf("Share error: %v", err)
	}

	if !strings.Contains(payload.Text, "INV-0812XK41") {
		t.Errorf("share text missing invoice number: %q", payload.Text)
	}
	if !strings.Contains(payload.Text, "Order: ORD20260812XK41") {
		t.Errorf("share text missing order id: %q", payload.Text)
	}
	if !strings.Contains(payload.Text, "Customer: Ravi Kumar") {
		t.Errorf("share text missing customer name: %q", payload.Text)
	}
	if !strings.Contains(payload.Text, "TMT Steel Bar 12mm x 60 piece = ₹60,000.00") {
		t.Errorf("share text missing itemized line: %q", payload.Text)
	}
	if !strings.Contains(payload.Text, "₹67,800.00") {
		t.Errorf("share text missing grand total: %q", payload.Text)
	}

	wantCopy := "https://buildkart.example/invoice/ORD20260812XK41"
	if payload.CopyLink != wantCopy {
		t.Errorf("copy link = %s, want %s", payload.CopyLink, wantCopy)
	}

	if !strings.HasPrefix(payload.WhatsAppLink, "https://wa.me/?text=") {
		t.Fatalf("whatsapp link = %s", payload.WhatsAppLink)
	}
	encoded := strings.TrimPrefix(payload.WhatsAppLink, "https://wa.me/?text=")
	decoded, err := url.QueryUnescape(encoded)
	if err != nil {
		t.Fatalf("whatsapp link not query-escaped: %v", err)
	}
	if decoded != payload.Text {
		t.Errorf("decoded whatsapp text differs from share text")
	}
}

func TestInvoiceService_ShareWithoutOrigin(t *testing.T) {
	order := invoiceFixtureOrder()
	svc := newTestInvoiceService(t, map[string]domain.Order{order.ID: order})

	payload, err := svc.Share(context.Background(), order.ID, "")
	if err != nil {
		t.Fatalf("Share error: %v", err)
	}
	if payload.CopyLink != "" {
		t.Errorf("expected no copy link without an origin, got %s", payload.CopyLink)
	}
	if strings.Contains(payload.Text, "View:") {
		t.Errorf("share text must omit the view line without an origin: %q", payload.Text)
	}
	if !strings.Contains(payload.Text, "Order: ORD20260812XK41") {
		t.Errorf("order id must survive without an origin: %q", payload.Text)
	}
}
