package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	domain "github.com/buildkart/api/internal/domain"
)

// ErrPricingConfig signals an invalid engine configuration.
var ErrPricingConfig = errors.New("pricing engine: invalid configuration")

// DiscountTier pairs a minimum aggregate quantity with the discount rate
// applied to the pre-tax subtotal. Rates are basis points.
type DiscountTier struct {
	MinQuantity int
	RateBps     int
}

// PricingConfig holds the fixed constants the engine prices against.
// Amounts are paise, rates basis points.
type PricingConfig struct {
	Currency              string
	TaxRateBps            int
	FreeDeliveryThreshold int64
	DeliveryFee           int64
	Tiers                 []DiscountTier
}

// DefaultPricingConfig returns the storefront defaults: 18% GST split as
// CGST/SGST, free delivery from ₹5,000, flat ₹150 fee below it, and bulk
// tiers at 20, 50 and 100 aggregate units.
func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		Currency:              "INR",
		TaxRateBps:            1800,
		FreeDeliveryThreshold: 500_000,
		DeliveryFee:           15_000,
		Tiers: []DiscountTier{
			{MinQuantity: 20, RateBps: 200},
			{MinQuantity: 50, RateBps: 500},
			{MinQuantity: 100, RateBps: 1000},
		},
	}
}

// PricingEngineDeps bundles the collaborators required to construct a pricing engine.
type PricingEngineDeps struct {
	Config PricingConfig
	Logger func(ctx context.Context, event string, fields map[string]any)
}

// PricingEngine derives a full monetary breakdown from a list of line items.
// It is a pure computation over its inputs and fixed constants, safe to call
// concurrently from independent call sites.
type PricingEngine struct {
	cfg    PricingConfig
	logger func(context.Context, string, map[string]any)
}

// NewPricingEngine validates the configuration and wires the engine.
func NewPricingEngine(deps PricingEngineDeps) (*PricingEngine, error) {
	cfg := deps.Config
	if strings.TrimSpace(cfg.Currency) == "" {
		return nil, fmt.Errorf("%w: currency is required", ErrPricingConfig)
	}
	if cfg.TaxRateBps < 0 || cfg.TaxRateBps > 10_000 {
		return nil, fmt.Errorf("%w: tax rate %d out of range", ErrPricingConfig, cfg.TaxRateBps)
	}
	if cfg.FreeDeliveryThreshold < 0 || cfg.DeliveryFee < 0 {
		return nil, fmt.Errorf("%w: negative delivery constants", ErrPricingConfig)
	}

	tiers := make([]DiscountTier, len(cfg.Tiers))
	copy(tiers, cfg.Tiers)
	for _, tier := range tiers {
		if tier.MinQuantity <= 0 || tier.RateBps < 0 || tier.RateBps > 10_000 {
			return nil, fmt.Errorf("%w: tier %+v out of range", ErrPricingConfig, tier)
		}
	}
	// Ascending order so the highest qualifying tier wins via last match.
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinQuantity < tiers[j].MinQuantity })
	cfg.Tiers = tiers

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &PricingEngine{cfg: cfg, logger: logger}, nil
}

// Config returns a copy of the engine configuration.
func (e *PricingEngine) Config() PricingConfig {
	cfg := e.cfg
	cfg.Tiers = make([]DiscountTier, len(e.cfg.Tiers))
	copy(cfg.Tiers, e.cfg.Tiers)
	return cfg
}

// Quote computes the breakdown for the given items. An empty list yields an
// all-zero breakdown; malformed items (negative price or quantity) are
// coerced to zero and logged rather than rejected, so the pricing path never
// fails.
func (e *PricingEngine) Quote(ctx context.Context, items []domain.LineItem) domain.PricingBreakdown {
	breakdown := domain.PricingBreakdown{Currency: e.cfg.Currency}
	if len(items) == 0 {
		return breakdown
	}

	var subtotal int64
	var aggregateQty int
	lines := make([]domain.LineAmount, 0, len(items))

	for i, item := range items {
		quantity := item.Quantity
		unitPrice := item.UnitPrice
		if quantity < 0 || unitPrice < 0 {
			e.logger(ctx, "pricing_item_coerced", map[string]any{
				"index":     i,
				"quantity":  item.Quantity,
				"unitPrice": item.UnitPrice,
			})
			if quantity < 0 {
				quantity = 0
			}
			if unitPrice < 0 {
				unitPrice = 0
			}
		}

		amount := unitPrice * int64(quantity)
		subtotal += amount
		aggregateQty += quantity

		lines = append(lines, domain.LineAmount{
			Index:       i + 1,
			ProductRef:  item.ProductRef,
			Description: item.Description,
			HSNCode:     item.HSNCode,
			Unit:        item.Unit,
			Quantity:    quantity,
			UnitPrice:   unitPrice,
			Amount:      amount,
		})
	}

	tax := roundRate(subtotal, e.cfg.TaxRateBps)
	// The second half absorbs the odd paisa so the halves always reconcile.
	firstHalf := tax / 2
	secondHalf := tax - firstHalf

	var delivery int64
	deliveryWaived := false
	if subtotal >= e.cfg.FreeDeliveryThreshold {
		deliveryWaived = true
	} else {
		delivery = e.cfg.DeliveryFee
	}

	rateBps := 0
	for _, tier := range e.cfg.Tiers {
		if aggregateQty >= tier.MinQuantity {
			rateBps = tier.RateBps
		}
	}
	discount := roundRate(subtotal, rateBps)

	savings := discount
	if deliveryWaived {
		savings += e.cfg.DeliveryFee
	}

	breakdown.Subtotal = subtotal
	breakdown.Tax = tax
	breakdown.TaxFirstHalf = firstHalf
	breakdown.TaxSecondHalf = secondHalf
	breakdown.Delivery = delivery
	breakdown.BulkDiscount = discount
	breakdown.Total = subtotal + tax + delivery - discount
	breakdown.Savings = savings
	breakdown.DeliveryWaived = deliveryWaived
	breakdown.DiscountRateBps = rateBps
	breakdown.AggregateQuantity = aggregateQty
	breakdown.Lines = lines

	return breakdown
}

// roundRate applies a basis-point rate to a paise amount, rounding half away
// from zero exactly once.
func roundRate(amount int64, rateBps int) int64 {
	if rateBps == 0 || amount == 0 {
		return 0
	}
	product := amount * int64(rateBps)
	if product >= 0 {
		return (product + 5_000) / 10_000
	}
	return (product - 5_000) / 10_000
}
