package domain

// PricingBreakdown captures the aggregated monetary results of pricing a set
// of line items. All amounts are held in paise; derived fields are rounded
// half away from zero exactly once.
type PricingBreakdown struct {
	Currency          string
	Subtotal          int64
	Tax               int64
	TaxFirstHalf      int64
	TaxSecondHalf     int64
	Delivery          int64
	BulkDiscount      int64
	Total             int64
	Savings           int64
	DeliveryWaived    bool
	DiscountRateBps   int
	AggregateQuantity int
	Lines             []LineAmount
}

// LineAmount stores the per-line pricing outputs after running the engine.
type LineAmount struct {
	Index       int
	ProductRef  string
	Description string
	HSNCode     string
	Unit        string
	Quantity    int
	UnitPrice   int64
	Amount      int64
}
