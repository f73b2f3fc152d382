package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/buildkart/api/internal/domain"
	"github.com/buildkart/api/internal/repositories/memory"
	"github.com/buildkart/api/internal/services"
)

func fixtureOrders() []domain.Order {
	return []domain.Order{
		{
			ID:       "ORD20260812XK41",
			Status:   "shipped",
			Currency: "INR",
			Contact:  domain.OrderContact{Name: "Ravi Kumar", Phone: "+91 98765 43210"},
			BillingAddress: &domain.Address{
				Line1: "14 MG Road", City: "Bengaluru", State: "Karnataka", PostalCode: "560001",
			},
			Items: []domain.LineItem{
				{Description: "TMT Steel Bar 12mm", HSNCode: "7214", Unit: "piece", Quantity: 60, UnitPrice: 100_000},
			},
			CreatedAt: time.Date(2026, time.August, 12, 9, 30, 0, 0, time.UTC),
		},
		{
			ID:        "ORDCANCEL01",
			Status:    "cancelled",
			CreatedAt: time.Date(2026, time.August, 10, 9, 0, 0, 0, time.UTC),
		},
	}
}

func fixtureProducts() []domain.Product {
	return []domain.Product{
		{ID: "cem-ultratech", Name: "UltraTech OPC 53", Brand: "UltraTech", Category: "Cement", Unit: "bag", Price: 42_000, MinOrderQty: 10, Stock: 120},
		{ID: "cem-acc", Name: "ACC Gold 53", Brand: "ACC", Category: "Cement", Unit: "bag", Price: 39_500, MinOrderQty: 10, Stock: 8},
		{ID: "tmt-12", Name: "TMT Bar 12mm", Brand: "Tata", Category: "Steel", Unit: "piece", Price: 100_000, Stock: 0},
	}
}

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()

	orders := memory.NewOrderRepository(fixtureOrders())
	products := memory.NewProductRepository(fixtureProducts())
	store := memory.NewSubscriptionStore()

	pricing, err := services.NewPricingEngine(services.PricingEngineDeps{Config: services.DefaultPricingConfig()})
	if err != nil {
		t.Fatalf("pricing engine: %v", err)
	}
	invoices, err := services.NewInvoiceService(services.InvoiceServiceDeps{
		Orders:   orders,
		Pricing:  pricing,
		Business: services.BusinessProfile{Name: "BuildKart Traders"},
	})
	if err != nil {
		t.Fatalf("invoice service: %v", err)
	}
	timeline, err := services.NewTimelineService(services.TimelineServiceDeps{Orders: orders})
	if err != nil {
		t.Fatalf("timeline service: %v", err)
	}
	stock, err := services.NewStockService(services.StockServiceDeps{Products: products, Store: store})
	if err != nil {
		t.Fatalf("stock service: %v", err)
	}
	comparison, err := services.NewComparisonService(services.ComparisonServiceDeps{Products: products})
	if err != nil {
		t.Fatalf("comparison service: %v", err)
	}

	orderHandlers := NewOrderHandlers(OrderHandlersDeps{
		Invoices:          invoices,
		Timeline:          timeline,
		Pricing:           pricing,
		Orders:            orders,
		EnablePDFInvoices: true,
		EnableShareLinks:  true,
	})

	return NewRouter(
		WithOrderRoutes(orderHandlers.Routes),
		WithStockRoutes(NewStockHandlers(stock).Routes),
		WithCompareRoutes(NewCompareHandlers(comparison).Routes),
	)
}

func doRequest(t *testing.T, router chi.Router, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	req.Host = "buildkart.example"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return body
}

func TestRouterHealthz(t *testing.T) {
	router := newTestRouter(t)
	rr := doRequest(t, router, http.MethodGet, "/healthz")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if body := decodeBody(t, rr); body["status"] != "ok" {
		t.Fatalf("expected ok status, got %v", body["status"])
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newTestRouter(t)
	rr := doRequest(t, router, http.MethodGet, "/api/v1/nonsense")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if body := decodeBody(t, rr); body["error"] != "route_not_found" {
		t.Fatalf("expected route_not_found, got %v", body["error"])
	}
}

func TestGetInvoice(t *testing.T) {
	router := newTestRouter(t)
	rr := doRequest(t, router, http.MethodGet, "/api/v1/orders/ORD20260812XK41/invoice")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	body := decodeBody(t, rr)
	if body["invoiceNumber"] != "INV-0812XK41" {
		t.Errorf("invoice number = %v", body["invoiceNumber"])
	}
	totals, ok := body["totals"].(map[string]any)
	if !ok {
		t.Fatalf("missing totals block")
	}
	if totals["grandTotalPaise"] != float64(6_780_000) {
		t.Errorf("grand total = %v, want 6780000", totals["grandTotalPaise"])
	}
	if totals["cgstPaise"] != float64(540_000) || totals["sgstPaise"] != float64(540_000) {
		t.Errorf("gst halves = %v/%v", totals["cgstPaise"], totals["sgstPaise"])
	}
}

func TestGetInvoiceNotFound(t *testing.T) {
	router := newTestRouter(t)
	rr := doRequest(t, router, http.MethodGet, "/api/v1/orders/MISSING/invoice")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if body := decodeBody(t, rr); body["error"] != "order_not_found" {
		t.Fatalf("expected order_not_found, got %v", body["error"])
	}
}

func TestGetInvoicePDF(t *testing.T) {
	router := newTestRouter(t)
	rr := doRequest(t, router, http.MethodGet, "/api/v1/orders/ORD20260812XK41/invoice.pdf")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %s", ct)
	}
	if !strings.HasPrefix(rr.Body.String(), "%PDF") {
		t.Errorf("body is not a PDF")
	}
}

func TestGetInvoiceShare(t *testing.T) {
	router := newTestRouter(t)
	rr := doRequest(t, router, http.MethodGet, "/api/v1/orders/ORD20260812XK41/invoice/share")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	body := decodeBody(t, rr)
	text, _ := body["text"].(string)
	if !strings.Contains(text, "INV-0812XK41") {
		t.Errorf("share text = %q", text)
	}
	link, _ := body["whatsappLink"].(string)
	if !strings.HasPrefix(link, "https://wa.me/?text=") {
		t.Errorf("whatsapp link = %q", link)
	}
	copyLink, _ := body["copyLink"].(string)
	if copyLink != "http://buildkart.example/invoice/ORD20260812XK41" {
		t.Errorf("copy link = %q", copyLink)
	}
}

func TestGetTimeline(t *testing.T) {
	router := newTestRouter(t)
	rr := doRequest(t, router, http.MethodGet, "/api/v1/orders/ORD20260812XK41/timeline")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	body := decodeBody(t, rr)
	if body["currentStage"] != float64(3) {
		t.Errorf("current stage = %v, want 3", body["currentStage"])
	}
	stages, ok := body["stages"].([]any)
	if !ok || len(stages) != 5 {
		t.Fatalf("expected 5 stages, got %v", body["stages"])
	}
}

func TestGetTimelineCancelled(t *testing.T) {
	router := newTestRouter(t)
	rr := doRequest(t, router, http.MethodGet, "/api/v1/orders/ORDCANCEL01/timeline")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	body := decodeBody(t, rr)
	if body["cancelled"] != true {
		t.Errorf("expected cancelled flag")
	}
	if _, ok := body["stages"]; ok {
		t.Errorf("cancelled timeline must omit stages")
	}
	if _, ok := body["estimatedDelivery"]; ok {
		t.Errorf("cancelled timeline must omit the estimate")
	}
}

func TestGetPricing(t *testing.T) {
	router := newTestRouter(t)
	rr := doRequest(t, router, http.MethodGet, "/api/v1/orders/ORD20260812XK41/pricing")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	body := decodeBody(t, rr)
	if body["subtotalPaise"] != float64(6_000_000) {
		t.Errorf("subtotal = %v", body["subtotalPaise"])
	}
	if body["deliveryWaived"] != true {
		t.Errorf("expected waived delivery")
	}
	if body["savingsPaise"] != float64(315_000) {
		t.Errorf("savings = %v", body["savingsPaise"])
	}
}

func TestGetStock(t *testing.T) {
	router := newTestRouter(t)
	rr := doRequest(t, router, http.MethodGet, "/api/v1/stock/cem-acc")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	body := decodeBody(t, rr)
	level, ok := body["level"].(map[string]any)
	if !ok {
		t.Fatalf("missing level block")
	}
	if level["tier"] != "critical" {
		t.Errorf("tier = %v, want critical", level["tier"])
	}
	if body["subscribed"] != false {
		t.Errorf("expected unsubscribed product")
	}
}

func TestGetStockUnknownProduct(t *testing.T) {
	router := newTestRouter(t)
	rr := doRequest(t, router, http.MethodGet, "/api/v1/stock/nope")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestToggleSubscriptionRoundTrip(t *testing.T) {
	router := newTestRouter(t)

	rr := doRequest(t, router, http.MethodPost, "/api/v1/stock/tmt-12/subscription")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if body := decodeBody(t, rr); body["subscribed"] != true {
		t.Fatalf("expected subscribed=true, got %v", body["subscribed"])
	}

	rr = doRequest(t, router, http.MethodGet, "/api/v1/stock/subscriptions")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := decodeBody(t, rr)
	ids, ok := body["productIds"].([]any)
	if !ok || len(ids) != 1 || ids[0] != "tmt-12" {
		t.Fatalf("subscriptions = %v", body["productIds"])
	}

	rr = doRequest(t, router, http.MethodPost, "/api/v1/stock/tmt-12/subscription")
	if body := decodeBody(t, rr); body["subscribed"] != false {
		t.Fatalf("expected subscribed=false after second toggle, got %v", body["subscribed"])
	}
}

func TestCompare(t *testing.T) {
	router := newTestRouter(t)
	rr := doRequest(t, router, http.MethodGet, "/api/v1/compare?ids=cem-ultratech,cem-acc")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	body := decodeBody(t, rr)
	columns, ok := body["columns"].([]any)
	if !ok || len(columns) != 2 {
		t.Fatalf("columns = %v", body["columns"])
	}
	summary, ok := body["summary"].(map[string]any)
	if !ok {
		t.Fatalf("missing summary")
	}
	if summary["lowestPricePaise"] != float64(39_500) {
		t.Errorf("lowest price = %v", summary["lowestPricePaise"])
	}
}

func TestCompareRequiresIDs(t *testing.T) {
	router := newTestRouter(t)
	rr := doRequest(t, router, http.MethodGet, "/api/v1/compare")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCompareNoneResolved(t *testing.T) {
	router := newTestRouter(t)
	rr := doRequest(t, router, http.MethodGet, "/api/v1/compare?ids=ghost,phantom")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
