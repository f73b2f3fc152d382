// Package catalog loads the YAML data file seeding products and order
// projections for the storefront surfaces.
package catalog

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	domain "github.com/buildkart/api/internal/domain"
)

// Catalog holds the seeded storefront data.
type Catalog struct {
	Products []domain.Product
	Orders   []domain.Order
}

type fileDTO struct {
	Products []productDTO `yaml:"products"`
	Orders   []orderDTO   `yaml:"orders"`
}

type productDTO struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Brand       string `yaml:"brand"`
	Category    string `yaml:"category"`
	Unit        string `yaml:"unit"`
	HSNCode     string `yaml:"hsnCode"`
	PricePaise  int64  `yaml:"pricePaise"`
	MinOrderQty int    `yaml:"minOrderQty"`
	Stock       int    `yaml:"stock"`
}

type orderDTO struct {
	ID        string       `yaml:"id"`
	Status    string       `yaml:"status"`
	Currency  string       `yaml:"currency"`
	CreatedAt string       `yaml:"createdAt"`
	Customer  contactDTO   `yaml:"customer"`
	Billing   *addressDTO  `yaml:"billingAddress"`
	Shipping  *addressDTO  `yaml:"shippingAddress"`
	Items     []lineDTO    `yaml:"items"`
}

type contactDTO struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Phone string `yaml:"phone"`
}

type addressDTO struct {
	Recipient  string `yaml:"recipient"`
	Line1      string `yaml:"line1"`
	Line2      string `yaml:"line2"`
	City       string `yaml:"city"`
	State      string `yaml:"state"`
	PostalCode string `yaml:"postalCode"`
	Country    string `yaml:"country"`
	Phone      string `yaml:"phone"`
}

type lineDTO struct {
	ProductRef  string `yaml:"productRef"`
	Description string `yaml:"description"`
	HSNCode     string `yaml:"hsnCode"`
	Unit        string `yaml:"unit"`
	Quantity    int    `yaml:"quantity"`
	UnitPrice   int64  `yaml:"unitPricePaise"`
}

// Load reads and maps the YAML data file. An empty path yields an empty catalog.
func Load(path string) (Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Catalog{}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse maps raw YAML bytes into domain values.
func Parse(raw []byte) (Catalog, error) {
	var dto fileDTO
	if err := yaml.Unmarshal(raw, &dto); err != nil {
		return Catalog{}, fmt.Errorf("catalog: decode: %w", err)
	}

	out := Catalog{
		Products: make([]domain.Product, 0, len(dto.Products)),
		Orders:   make([]domain.Order, 0, len(dto.Orders)),
	}

	for _, p := range dto.Products {
		if strings.TrimSpace(p.ID) == "" {
			return Catalog{}, fmt.Errorf("catalog: product without id (name %q)", p.Name)
		}
		out.Products = append(out.Products, domain.Product{
			ID:          p.ID,
			Name:        p.Name,
			Brand:       p.Brand,
			Category:    p.Category,
			Unit:        p.Unit,
			HSNCode:     p.HSNCode,
			Price:       p.PricePaise,
			MinOrderQty: p.MinOrderQty,
			Stock:       p.Stock,
		})
	}

	for _, o := range dto.Orders {
		if strings.TrimSpace(o.ID) == "" {
			return Catalog{}, fmt.Errorf("catalog: order without id")
		}
		order := domain.Order{
			ID:       o.ID,
			Status:   o.Status,
			Currency: o.Currency,
			Contact: domain.OrderContact{
				Name:  o.Customer.Name,
				Email: o.Customer.Email,
				Phone: o.Customer.Phone,
			},
			BillingAddress:  mapAddress(o.Billing),
			ShippingAddress: mapAddress(o.Shipping),
		}
		if raw := strings.TrimSpace(o.CreatedAt); raw != "" {
			ts, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return Catalog{}, fmt.Errorf("catalog: order %s createdAt: %w", o.ID, err)
			}
			order.CreatedAt = ts
		}
		for _, line := range o.Items {
			order.Items = append(order.Items, domain.LineItem{
				ProductRef:  line.ProductRef,
				Description: line.Description,
				HSNCode:     line.HSNCode,
				Unit:        line.Unit,
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
			})
		}
		out.Orders = append(out.Orders, order)
	}

	return out, nil
}

func mapAddress(dto *addressDTO) *domain.Address {
	if dto == nil {
		return nil
	}
	return &domain.Address{
		Recipient:  dto.Recipient,
		Line1:      dto.Line1,
		Line2:      dto.Line2,
		City:       dto.City,
		State:      dto.State,
		PostalCode: dto.PostalCode,
		Country:    dto.Country,
		Phone:      dto.Phone,
	}
}
