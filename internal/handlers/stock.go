package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/buildkart/api/internal/platform/httpx"
	"github.com/buildkart/api/internal/platform/metrics"
	"github.com/buildkart/api/internal/repositories"
	"github.com/buildkart/api/internal/services"
)

// StockHandlers exposes stock classification and restock subscription
// endpoints.
type StockHandlers struct {
	stock *services.StockService
}

// NewStockHandlers constructs a new StockHandlers instance.
func NewStockHandlers(stock *services.StockService) *StockHandlers {
	return &StockHandlers{stock: stock}
}

// Routes registers the /stock endpoints.
func (h *StockHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/subscriptions", h.listSubscriptions)
	r.Get("/{productID}", h.getStock)
	r.Post("/{productID}/subscription", h.toggleSubscription)
}

func (h *StockHandlers) getStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.stock == nil {
		writeServiceUnavailable(ctx, w, "stock")
		return
	}
	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.BadRequest("product id is required"))
		return
	}

	view, err := h.stock.ProductStock(ctx, productID)
	if err != nil {
		writeProductError(ctx, w, productID, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, view)
}

func (h *StockHandlers) toggleSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.stock == nil {
		writeServiceUnavailable(ctx, w, "stock")
		return
	}
	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.BadRequest("product id is required"))
		return
	}

	subscribed, err := h.stock.ToggleSubscription(ctx, productID)
	metrics.ObserveSubscriptionToggle(err)
	if err != nil && errors.Is(err, repositories.ErrProductNotFound) {
		writeProductError(ctx, w, productID, err)
		return
	}

	// A persistence failure still flips the in-memory state; report the
	// resulting membership along with the degraded persistence.
	payload := map[string]any{
		"productId":  productID,
		"subscribed": subscribed,
	}
	if err != nil {
		payload["persisted"] = false
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *StockHandlers) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.stock == nil {
		writeServiceUnavailable(ctx, w, "stock")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"productIds": h.stock.Subscriptions(ctx),
	})
}

func writeProductError(ctx context.Context, w http.ResponseWriter, productID string, err error) {
	if errors.Is(err, repositories.ErrProductNotFound) {
		httpx.WriteError(ctx, w, httpx.NotFound("product_not_found", fmt.Sprintf("product %s not found", productID)))
		return
	}
	httpx.WriteError(ctx, w, httpx.Internal())
}
