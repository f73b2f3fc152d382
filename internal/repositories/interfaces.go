package repositories

import (
	"context"

	domain "github.com/buildkart/api/internal/domain"
)

// OrderRepository exposes read-only access to order projections. Orders are
// owned elsewhere; this service never writes them.
type OrderRepository interface {
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
}

// ProductRepository exposes read-only catalog lookups for stock and
// comparison surfaces.
type ProductRepository interface {
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	ListProducts(ctx context.Context, productIDs []string) ([]domain.Product, error)
}

// SubscriptionStore persists the restock subscription list as a whole under a
// fixed storage key. Implementations do not need to deduplicate; callers own
// membership semantics.
type SubscriptionStore interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, productIDs []string) error
}
