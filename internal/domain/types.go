package domain

import (
	"time"
)

// LineItem is a priced order or cart entry. It is owned by the caller; the
// pricing layer never mutates it.
type LineItem struct {
	ProductRef  string
	Description string
	HSNCode     string
	Unit        string
	Quantity    int
	UnitPrice   int64
}

// OrderContact stores the customer snapshot used on invoices and share text.
type OrderContact struct {
	Name  string
	Email string
	Phone string
}

// Address represents postal address structures shared by invoice and order layers.
type Address struct {
	Recipient  string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
}

// Order captures the read-only order projection consumed by the invoice and
// timeline surfaces. Status is the raw token reported by the order's owner;
// this service never mutates an order.
type Order struct {
	ID              string
	Status          string
	Currency        string
	Contact         OrderContact
	BillingAddress  *Address
	ShippingAddress *Address
	Items           []LineItem
	CreatedAt       time.Time
}

// StageKey identifies one position in the fixed fulfillment sequence.
type StageKey string

const (
	// StagePlaced is the initial stage every unknown status resolves to.
	StagePlaced StageKey = "placed"
	// StageConfirmed indicates the seller accepted the order.
	StageConfirmed StageKey = "confirmed"
	// StageProcessing indicates the order is being picked and packed.
	StageProcessing StageKey = "processing"
	// StageShipped indicates the order left the warehouse.
	StageShipped StageKey = "shipped"
	// StageDelivered is the terminal stage of the ordered sequence.
	StageDelivered StageKey = "delivered"
)

// CancelledStage is the sentinel index for cancelled orders. It sits outside
// the ordered stage sequence and suppresses stage rendering.
const CancelledStage = -1

// FulfillmentStage pairs a stage key with its display copy.
type FulfillmentStage struct {
	Key         StageKey
	Label       string
	Description string
}

var fulfillmentStages = []FulfillmentStage{
	{Key: StagePlaced, Label: "Order Placed", Description: "We have received your order."},
	{Key: StageConfirmed, Label: "Confirmed", Description: "Your order has been confirmed by the seller."},
	{Key: StageProcessing, Label: "Processing", Description: "Materials are being picked and packed."},
	{Key: StageShipped, Label: "Shipped", Description: "Your order is on its way."},
	{Key: StageDelivered, Label: "Delivered", Description: "Your order has been delivered."},
}

// FulfillmentStages returns the fixed ordered stage sequence.
func FulfillmentStages() []FulfillmentStage {
	out := make([]FulfillmentStage, len(fulfillmentStages))
	copy(out, fulfillmentStages)
	return out
}

// StockTier classifies a numeric stock count into a severity band.
type StockTier string

const (
	// StockOut indicates zero or negative stock.
	StockOut StockTier = "out_of_stock"
	// StockCritical indicates stock at or below the critical threshold.
	StockCritical StockTier = "critical"
	// StockLow indicates stock at or below the low threshold.
	StockLow StockTier = "low"
	// StockModerate indicates stock at or below the moderate threshold.
	StockModerate StockTier = "moderate"
	// StockHealthy indicates stock above every alert threshold.
	StockHealthy StockTier = "healthy"
)

// Product represents catalog data consumed by stock and comparison surfaces.
type Product struct {
	ID          string
	Name        string
	Brand       string
	Category    string
	Unit        string
	HSNCode     string
	Price       int64
	MinOrderQty int
	Stock       int
}
