// Package memory provides map-backed repositories seeded at startup. They
// serve the read-only order/product projections and double as test fixtures.
package memory

import (
	"context"
	"sync"

	domain "github.com/buildkart/api/internal/domain"
	"github.com/buildkart/api/internal/repositories"
)

// OrderRepository is a map-backed read-only order projection.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
}

// NewOrderRepository constructs a repository seeded with the provided orders.
func NewOrderRepository(orders []domain.Order) *OrderRepository {
	m := make(map[string]domain.Order, len(orders))
	for _, order := range orders {
		if order.ID == "" {
			continue
		}
		m[order.ID] = order
	}
	return &OrderRepository{orders: m}
}

// GetOrder implements repositories.OrderRepository.
func (r *OrderRepository) GetOrder(_ context.Context, orderID string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[orderID]
	if !ok {
		return domain.Order{}, repositories.ErrOrderNotFound
	}
	return order, nil
}

// ProductRepository is a map-backed read-only catalog.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

// NewProductRepository constructs a repository seeded with the provided products.
func NewProductRepository(products []domain.Product) *ProductRepository {
	m := make(map[string]domain.Product, len(products))
	for _, product := range products {
		if product.ID == "" {
			continue
		}
		m[product.ID] = product
	}
	return &ProductRepository{products: m}
}

// GetProduct implements repositories.ProductRepository.
func (r *ProductRepository) GetProduct(_ context.Context, productID string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	product, ok := r.products[productID]
	if !ok {
		return domain.Product{}, repositories.ErrProductNotFound
	}
	return product, nil
}

// ListProducts implements repositories.ProductRepository. Unknown identifiers
// are skipped rather than failing the whole lookup; absent data suppresses
// rendering downstream.
func (r *ProductRepository) ListProducts(_ context.Context, productIDs []string) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Product, 0, len(productIDs))
	for _, id := range productIDs {
		if product, ok := r.products[id]; ok {
			out = append(out, product)
		}
	}
	return out, nil
}

// SubscriptionStore keeps the subscription list in memory. Useful for tests
// and ephemeral deployments.
type SubscriptionStore struct {
	mu  sync.Mutex
	ids []string
}

// NewSubscriptionStore constructs an empty memory-backed subscription store.
func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{}
}

// Load implements repositories.SubscriptionStore.
func (s *SubscriptionStore) Load(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out, nil
}

// Save implements repositories.SubscriptionStore.
func (s *SubscriptionStore) Save(_ context.Context, productIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make([]string, len(productIDs))
	copy(s.ids, productIDs)
	return nil
}
