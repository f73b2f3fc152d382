package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	domain "github.com/buildkart/api/internal/domain"
	repositories "github.com/buildkart/api/internal/repositories"
)

// ErrStockConfig signals an invalid stock service configuration.
var ErrStockConfig = errors.New("stock service: invalid configuration")

// Classification thresholds, inclusive upper bounds. Anything at or below
// zero is out of stock; anything above the moderate bound is healthy.
const (
	criticalThreshold = 10
	lowThreshold      = 25
	moderateThreshold = 50
)

// StockLevel is the classification view model for a single stock count.
type StockLevel struct {
	Tier     domain.StockTier `json:"tier"`
	Label    string           `json:"label"`
	Severity int              `json:"severity"`
	Message  string           `json:"message"`
	Fill     float64          `json:"fill"`
}

// ProductStock pairs a product with its classification and the caller's
// restock subscription state.
type ProductStock struct {
	ProductID  string     `json:"productId"`
	Name       string     `json:"name"`
	Count      int        `json:"count"`
	Level      StockLevel `json:"level"`
	Subscribed bool       `json:"subscribed"`
}

// ClassifyStock maps a raw stock count to its severity tier. The mapping is a
// pure function of the count and the fixed thresholds.
func ClassifyStock(count int) StockLevel {
	level := StockLevel{Fill: stockFill(count)}
	switch {
	case count <= 0:
		level.Tier = domain.StockOut
		level.Label = "Out of Stock"
		level.Severity = 4
		level.Message = "Currently unavailable. Subscribe to be notified when restocked."
	case count <= criticalThreshold:
		level.Tier = domain.StockCritical
		level.Label = "Critical"
		level.Severity = 3
		level.Message = fmt.Sprintf("Only %d left. Order now to avoid delays.", count)
	case count <= lowThreshold:
		level.Tier = domain.StockLow
		level.Label = "Low Stock"
		level.Severity = 2
		level.Message = fmt.Sprintf("Only %d left in stock.", count)
	case count <= moderateThreshold:
		level.Tier = domain.StockModerate
		level.Label = "Limited"
		level.Severity = 1
		level.Message = "Limited stock available."
	default:
		level.Tier = domain.StockHealthy
		level.Label = "In Stock"
		level.Severity = 0
		level.Message = "In stock and ready to ship."
	}
	return level
}

// stockFill converts a count into a progress fraction against the healthy
// threshold, clamped to [0, 1].
func stockFill(count int) float64 {
	if count <= 0 {
		return 0
	}
	fill := float64(count) / float64(moderateThreshold)
	if fill > 1 {
		return 1
	}
	return fill
}

// StockServiceDeps bundles the collaborators required to construct a stock service.
type StockServiceDeps struct {
	Products repositories.ProductRepository
	Store    repositories.SubscriptionStore
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

// StockService classifies product stock levels and owns the restock
// subscription list. The list is cached in memory and written through to the
// store on every toggle; a store failure keeps the in-memory state so the
// session stays consistent even when persistence is degraded.
type StockService struct {
	products repositories.ProductRepository
	store    repositories.SubscriptionStore
	logger   func(context.Context, string, map[string]any)

	mu            sync.Mutex
	loaded        bool
	subscriptions []string
}

// NewStockService validates dependencies and wires the service.
func NewStockService(deps StockServiceDeps) (*StockService, error) {
	if deps.Products == nil {
		return nil, fmt.Errorf("%w: product repository is required", ErrStockConfig)
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("%w: subscription store is required", ErrStockConfig)
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &StockService{products: deps.Products, store: deps.Store, logger: logger}, nil
}

// ProductStock loads the product and returns its stock classification along
// with the caller's subscription state.
func (s *StockService) ProductStock(ctx context.Context, productID string) (ProductStock, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return ProductStock{}, err
	}

	return ProductStock{
		ProductID:  product.ID,
		Name:       product.Name,
		Count:      product.Stock,
		Level:      ClassifyStock(product.Stock),
		Subscribed: s.IsSubscribed(ctx, product.ID),
	}, nil
}

// ToggleSubscription flips the restock opt-in for the product and persists
// the whole list. It reports the resulting membership. The toggle is
// idempotent per state: toggling twice restores the original list.
func (s *StockService) ToggleSubscription(ctx context.Context, productID string) (bool, error) {
	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx)

	subscribed := false
	next := make([]string, 0, len(s.subscriptions)+1)
	for _, id := range s.subscriptions {
		if id == productID {
			continue
		}
		next = append(next, id)
	}
	if len(next) == len(s.subscriptions) {
		next = append(next, productID)
		subscribed = true
	}
	s.subscriptions = next

	if err := s.store.Save(ctx, next); err != nil {
		// The in-memory list already reflects the toggle; losing the write is
		// survivable, losing the session state is not.
		s.logger(ctx, "subscription_save_failed", map[string]any{
			"productId": productID,
			"error":     err.Error(),
		})
		return subscribed, err
	}

	s.logger(ctx, "subscription_toggled", map[string]any{
		"productId":  productID,
		"subscribed": subscribed,
	})
	return subscribed, nil
}

// Subscriptions returns the current subscription list, sorted for stable
// output.
func (s *StockService) Subscriptions(ctx context.Context) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx)

	out := make([]string, len(s.subscriptions))
	copy(out, s.subscriptions)
	sort.Strings(out)
	return out
}

// IsSubscribed reports whether the product is on the subscription list.
func (s *StockService) IsSubscribed(ctx context.Context, productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx)

	for _, id := range s.subscriptions {
		if id == productID {
			return true
		}
	}
	return false
}

// ensureLoadedLocked lazily hydrates the cache from the store. Duplicates in
// a stored list collapse on load so membership stays a set. A load failure is
// logged and treated as an empty list.
func (s *StockService) ensureLoadedLocked(ctx context.Context) {
	if s.loaded {
		return
	}
	s.loaded = true

	stored, err := s.store.Load(ctx)
	if err != nil {
		s.logger(ctx, "subscription_load_failed", map[string]any{"error": err.Error()})
		return
	}

	seen := make(map[string]struct{}, len(stored))
	for _, id := range stored {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		s.subscriptions = append(s.subscriptions, id)
	}
}
