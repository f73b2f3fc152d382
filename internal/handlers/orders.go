package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/buildkart/api/internal/domain"
	"github.com/buildkart/api/internal/documents"
	"github.com/buildkart/api/internal/platform/httpx"
	"github.com/buildkart/api/internal/platform/metrics"
	"github.com/buildkart/api/internal/repositories"
	"github.com/buildkart/api/internal/services"
)

// OrderHandlers exposes the read-only order surfaces: invoice, share,
// timeline and price breakdown.
type OrderHandlers struct {
	invoices *services.InvoiceService
	timeline *services.TimelineService
	pricing  *services.PricingEngine
	orders   repositories.OrderRepository

	pdfEnabled   bool
	shareEnabled bool
}

// OrderHandlersDeps bundles the collaborators required to construct order handlers.
type OrderHandlersDeps struct {
	Invoices *services.InvoiceService
	Timeline *services.TimelineService
	Pricing  *services.PricingEngine
	Orders   repositories.OrderRepository

	EnablePDFInvoices bool
	EnableShareLinks  bool
}

// NewOrderHandlers constructs a new OrderHandlers instance.
func NewOrderHandlers(deps OrderHandlersDeps) *OrderHandlers {
	return &OrderHandlers{
		invoices:     deps.Invoices,
		timeline:     deps.Timeline,
		pricing:      deps.Pricing,
		orders:       deps.Orders,
		pdfEnabled:   deps.EnablePDFInvoices,
		shareEnabled: deps.EnableShareLinks,
	}
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/{orderID}/invoice", h.getInvoice)
	r.Get("/{orderID}/invoice.pdf", h.getInvoicePDF)
	r.Get("/{orderID}/invoice/share", h.getInvoiceShare)
	r.Get("/{orderID}/timeline", h.getTimeline)
	r.Get("/{orderID}/pricing", h.getPricing)
}

func (h *OrderHandlers) getInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, ok := h.orderIDParam(ctx, w, r)
	if !ok {
		return
	}
	if h.invoices == nil {
		writeServiceUnavailable(ctx, w, "invoice")
		return
	}

	doc, err := h.invoices.Invoice(ctx, orderID)
	if err != nil {
		writeOrderError(ctx, w, orderID, err)
		return
	}

	metrics.ObserveInvoiceRender("json")
	writeJSONResponse(w, http.StatusOK, doc)
}

func (h *OrderHandlers) getInvoicePDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, ok := h.orderIDParam(ctx, w, r)
	if !ok {
		return
	}
	if h.invoices == nil {
		writeServiceUnavailable(ctx, w, "invoice")
		return
	}
	if !h.pdfEnabled {
		httpx.WriteError(ctx, w, httpx.NotFound("pdf_disabled", "PDF invoices are disabled"))
		return
	}

	doc, err := h.invoices.Invoice(ctx, orderID)
	if err != nil {
		writeOrderError(ctx, w, orderID, err)
		return
	}

	out, err := documents.BuildInvoicePDF(doc)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("pdf_render_failed", "failed to render invoice PDF", http.StatusInternalServerError))
		return
	}

	metrics.ObserveInvoiceRender("pdf")
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.InvoiceNumber+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (h *OrderHandlers) getInvoiceShare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, ok := h.orderIDParam(ctx, w, r)
	if !ok {
		return
	}
	if h.invoices == nil {
		writeServiceUnavailable(ctx, w, "invoice")
		return
	}
	if !h.shareEnabled {
		httpx.WriteError(ctx, w, httpx.NotFound("share_disabled", "invoice sharing is disabled"))
		return
	}

	payload, err := h.invoices.Share(ctx, orderID, requestOrigin(r))
	if err != nil {
		writeOrderError(ctx, w, orderID, err)
		return
	}

	metrics.ObserveInvoiceRender("share")
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *OrderHandlers) getTimeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, ok := h.orderIDParam(ctx, w, r)
	if !ok {
		return
	}
	if h.timeline == nil {
		writeServiceUnavailable(ctx, w, "timeline")
		return
	}

	timeline, err := h.timeline.Timeline(ctx, orderID)
	if err != nil {
		writeOrderError(ctx, w, orderID, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, timeline)
}

func (h *OrderHandlers) getPricing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, ok := h.orderIDParam(ctx, w, r)
	if !ok {
		return
	}
	if h.pricing == nil || h.orders == nil {
		writeServiceUnavailable(ctx, w, "pricing")
		return
	}

	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		writeOrderError(ctx, w, orderID, err)
		return
	}

	breakdown := h.pricing.Quote(ctx, order.Items)
	metrics.ObservePricingQuote()
	writeJSONResponse(w, http.StatusOK, toPricingResponse(orderID, breakdown))
}

type pricingLineResponse struct {
	Index       int    `json:"index"`
	ProductRef  string `json:"productRef,omitempty"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Unit        string `json:"unit,omitempty"`
	UnitPrice   int64  `json:"unitPricePaise"`
	Amount      int64  `json:"amountPaise"`
}

type pricingResponse struct {
	OrderID           string                `json:"orderId"`
	Currency          string                `json:"currency"`
	Subtotal          int64                 `json:"subtotalPaise"`
	Tax               int64                 `json:"taxPaise"`
	CGST              int64                 `json:"cgstPaise"`
	SGST              int64                 `json:"sgstPaise"`
	Delivery          int64                 `json:"deliveryPaise"`
	BulkDiscount      int64                 `json:"bulkDiscountPaise"`
	GrandTotal        int64                 `json:"grandTotalPaise"`
	Savings           int64                 `json:"savingsPaise"`
	DeliveryWaived    bool                  `json:"deliveryWaived"`
	DiscountRateBps   int                   `json:"discountRateBps"`
	AggregateQuantity int                   `json:"aggregateQuantity"`
	Lines             []pricingLineResponse `json:"lines"`
}

func toPricingResponse(orderID string, b domain.PricingBreakdown) pricingResponse {
	lines := make([]pricingLineResponse, 0, len(b.Lines))
	for _, line := range b.Lines {
		lines = append(lines, pricingLineResponse{
			Index:       line.Index,
			ProductRef:  line.ProductRef,
			Description: line.Description,
			Quantity:    line.Quantity,
			Unit:        line.Unit,
			UnitPrice:   line.UnitPrice,
			Amount:      line.Amount,
		})
	}
	return pricingResponse{
		OrderID:           orderID,
		Currency:          b.Currency,
		Subtotal:          b.Subtotal,
		Tax:               b.Tax,
		CGST:              b.TaxFirstHalf,
		SGST:              b.TaxSecondHalf,
		Delivery:          b.Delivery,
		BulkDiscount:      b.BulkDiscount,
		GrandTotal:        b.Total,
		Savings:           b.Savings,
		DeliveryWaived:    b.DeliveryWaived,
		DiscountRateBps:   b.DiscountRateBps,
		AggregateQuantity: b.AggregateQuantity,
		Lines:             lines,
	}
}

func (h *OrderHandlers) orderIDParam(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, bool) {
	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.BadRequest("order id is required"))
		return "", false
	}
	return orderID, true
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, orderID string, err error) {
	if errors.Is(err, repositories.ErrOrderNotFound) {
		httpx.WriteError(ctx, w, httpx.NotFound("order_not_found", fmt.Sprintf("order %s not found", orderID)))
		return
	}
	httpx.WriteError(ctx, w, httpx.Internal())
}

func writeServiceUnavailable(ctx context.Context, w http.ResponseWriter, name string) {
	httpx.WriteError(ctx, w, httpx.Unavailable(name))
}

// requestOrigin derives the public origin for share links, preferring proxy
// headers over the direct connection.
func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")); proto != "" {
		scheme = proto
	}
	host := r.Host
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-Host")); forwarded != "" {
		host = forwarded
	}
	if host == "" {
		return ""
	}
	return scheme + "://" + host
}
