package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	domain "github.com/buildkart/api/internal/domain"
	format "github.com/buildkart/api/internal/format"
	repositories "github.com/buildkart/api/internal/repositories"
)

// ErrComparisonConfig signals an invalid comparison service configuration.
var ErrComparisonConfig = errors.New("comparison service: invalid configuration")

// ErrNoProducts is returned when none of the requested identifiers resolve.
var ErrNoProducts = errors.New("comparison service: no products resolved")

// maxCompareProducts caps the table width. Extra identifiers are dropped
// after resolution, keeping request order.
const maxCompareProducts = 4

// ComparisonColumn heads one product column of the table.
type ComparisonColumn struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
}

// ComparisonCell is a single attribute value for one product. Best marks the
// winning value where the attribute has one (lowest price; every tie wins).
type ComparisonCell struct {
	ProductID string `json:"productId"`
	Value     string `json:"value"`
	Best      bool   `json:"best,omitempty"`
}

// ComparisonRow is one attribute across all compared products.
type ComparisonRow struct {
	Attribute string           `json:"attribute"`
	Label     string           `json:"label"`
	Cells     []ComparisonCell `json:"cells"`
}

// ComparisonSummary aggregates the table: the price spread and the distinct
// brands represented.
type ComparisonSummary struct {
	LowestPrice  int64    `json:"lowestPricePaise"`
	HighestPrice int64    `json:"highestPricePaise"`
	PriceRange   string   `json:"priceRange"`
	Brands       []string `json:"brands"`
}

// ComparisonTable is the full comparison view model.
type ComparisonTable struct {
	Columns []ComparisonColumn `json:"columns"`
	Rows    []ComparisonRow    `json:"rows"`
	Summary ComparisonSummary  `json:"summary"`
}

// ComparisonServiceDeps bundles the collaborators required to construct a comparison service.
type ComparisonServiceDeps struct {
	Products repositories.ProductRepository
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

// ComparisonService builds side-by-side product comparison tables.
type ComparisonService struct {
	products repositories.ProductRepository
	logger   func(context.Context, string, map[string]any)
}

// NewComparisonService validates dependencies and wires the service.
func NewComparisonService(deps ComparisonServiceDeps) (*ComparisonService, error) {
	if deps.Products == nil {
		return nil, fmt.Errorf("%w: product repository is required", ErrComparisonConfig)
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &ComparisonService{products: deps.Products, logger: logger}, nil
}

// Compare resolves the requested products and derives the comparison table.
// Unknown identifiers are skipped; if nothing resolves the call fails with
// ErrNoProducts.
func (s *ComparisonService) Compare(ctx context.Context, productIDs []string) (ComparisonTable, error) {
	products, err := s.products.ListProducts(ctx, productIDs)
	if err != nil {
		return ComparisonTable{}, err
	}
	if len(products) == 0 {
		return ComparisonTable{}, ErrNoProducts
	}
	if len(products) > maxCompareProducts {
		s.logger(ctx, "comparison_truncated", map[string]any{
			"requested": len(products),
			"kept":      maxCompareProducts,
		})
		products = products[:maxCompareProducts]
	}

	table := ComparisonTable{
		Columns: make([]ComparisonColumn, 0, len(products)),
	}
	for _, p := range products {
		table.Columns = append(table.Columns, ComparisonColumn{ProductID: p.ID, Name: p.Name})
	}

	lowest := products[0].Price
	highest := products[0].Price
	for _, p := range products[1:] {
		if p.Price < lowest {
			lowest = p.Price
		}
		if p.Price > highest {
			highest = p.Price
		}
	}

	priceRow := ComparisonRow{Attribute: "price", Label: "Price"}
	for _, p := range products {
		priceRow.Cells = append(priceRow.Cells, ComparisonCell{
			ProductID: p.ID,
			Value:     format.Paise(p.Price),
			Best:      p.Price == lowest,
		})
	}
	table.Rows = append(table.Rows, priceRow)

	table.Rows = append(table.Rows,
		attributeRow("brand", "Brand", products, func(p domain.Product) string { return p.Brand }),
		attributeRow("unit", "Unit", products, func(p domain.Product) string { return p.Unit }),
		attributeRow("minOrderQty", "Minimum Order", products, func(p domain.Product) string {
			if p.MinOrderQty <= 0 {
				return ""
			}
			return fmt.Sprintf("%d %s", p.MinOrderQty, p.Unit)
		}),
		attributeRow("stock", "Availability", products, func(p domain.Product) string {
			return ClassifyStock(p.Stock).Label
		}),
		attributeRow("category", "Category", products, func(p domain.Product) string { return p.Category }),
	)

	table.Summary = ComparisonSummary{
		LowestPrice:  lowest,
		HighestPrice: highest,
		PriceRange:   priceRange(lowest, highest),
		Brands:       distinctBrands(products),
	}

	return table, nil
}

func attributeRow(attribute, label string, products []domain.Product, value func(domain.Product) string) ComparisonRow {
	row := ComparisonRow{Attribute: attribute, Label: label}
	for _, p := range products {
		row.Cells = append(row.Cells, ComparisonCell{ProductID: p.ID, Value: value(p)})
	}
	return row
}

func priceRange(lowest, highest int64) string {
	if lowest == highest {
		return format.Paise(lowest)
	}
	return format.Paise(lowest) + " - " + format.Paise(highest)
}

func distinctBrands(products []domain.Product) []string {
	seen := make(map[string]struct{}, len(products))
	brands := make([]string, 0, len(products))
	for _, p := range products {
		if p.Brand == "" {
			continue
		}
		if _, ok := seen[p.Brand]; ok {
			continue
		}
		seen[p.Brand] = struct{}{}
		brands = append(brands, p.Brand)
	}
	sort.Strings(brands)
	return brands
}
