package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	domain "github.com/buildkart/api/internal/domain"
	format "github.com/buildkart/api/internal/format"
	repositories "github.com/buildkart/api/internal/repositories"
)

// ErrInvoiceConfig signals an invalid invoice service configuration.
var ErrInvoiceConfig = errors.New("invoice service: invalid configuration")

const whatsappShareBase = "https://wa.me/?text="

// BusinessProfile is the seller identity printed on every invoice.
type BusinessProfile struct {
	Name       string `json:"name"`
	GSTIN      string `json:"gstin,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

// InvoiceParty is a bill-to or ship-to block. Missing order fields produce
// empty strings rather than failures; the renderer simply leaves them blank.
type InvoiceParty struct {
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// InvoiceLine is one row of the invoice item table with amounts preformatted
// for display.
type InvoiceLine struct {
	Index       int    `json:"index"`
	Description string `json:"description"`
	HSNCode     string `json:"hsnCode,omitempty"`
	Quantity    int    `json:"quantity"`
	Unit        string `json:"unit,omitempty"`
	UnitPrice   int64  `json:"unitPricePaise"`
	Amount      int64  `json:"amountPaise"`
	UnitPriceF  string `json:"unitPrice"`
	AmountF     string `json:"amount"`
}

// InvoiceTotals is the totals block, paise amounts alongside display strings.
type InvoiceTotals struct {
	Subtotal     int64  `json:"subtotalPaise"`
	CGST         int64  `json:"cgstPaise"`
	SGST         int64  `json:"sgstPaise"`
	Delivery     int64  `json:"deliveryPaise"`
	BulkDiscount int64  `json:"bulkDiscountPaise"`
	GrandTotal   int64  `json:"grandTotalPaise"`
	Savings      int64  `json:"savingsPaise"`
	SubtotalF    string `json:"subtotal"`
	CGSTF        string `json:"cgst"`
	SGSTF        string `json:"sgst"`
	DeliveryF    string `json:"delivery"`
	DiscountF    string `json:"bulkDiscount"`
	GrandTotalF  string `json:"grandTotal"`

	DeliveryWaived bool `json:"deliveryWaived"`
}

// InvoiceDocument is the full invoice view model consumed by the JSON
// surface and the PDF renderer.
type InvoiceDocument struct {
	InvoiceNumber string          `json:"invoiceNumber"`
	OrderID       string          `json:"orderId"`
	IssuedOn      time.Time       `json:"issuedOn"`
	IssuedOnF     string          `json:"issuedOnDisplay"`
	Business      BusinessProfile `json:"business"`
	BillTo        InvoiceParty    `json:"billTo"`
	ShipTo        InvoiceParty    `json:"shipTo"`
	Lines         []InvoiceLine   `json:"lines"`
	Totals        InvoiceTotals   `json:"totals"`
	Currency      string          `json:"currency"`
}

// SharePayload carries the plain-text invoice summary and the links the
// share sheet offers.
type SharePayload struct {
	Text         string `json:"text"`
	WhatsAppLink string `json:"whatsappLink"`
	CopyLink     string `json:"copyLink"`
}

// InvoiceServiceDeps bundles the collaborators required to construct an invoice service.
type InvoiceServiceDeps struct {
	Orders   repositories.OrderRepository
	Pricing  *PricingEngine
	Business BusinessProfile
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

// InvoiceService assembles invoice documents and share payloads from orders.
type InvoiceService struct {
	orders   repositories.OrderRepository
	pricing  *PricingEngine
	business BusinessProfile
	logger   func(context.Context, string, map[string]any)
}

// NewInvoiceService validates dependencies and wires the service.
func NewInvoiceService(deps InvoiceServiceDeps) (*InvoiceService, error) {
	if deps.Orders == nil {
		return nil, fmt.Errorf("%w: order repository is required", ErrInvoiceConfig)
	}
	if deps.Pricing == nil {
		return nil, fmt.Errorf("%w: pricing engine is required", ErrInvoiceConfig)
	}
	if strings.TrimSpace(deps.Business.Name) == "" {
		return nil, fmt.Errorf("%w: business name is required", ErrInvoiceConfig)
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &InvoiceService{
		orders:   deps.Orders,
		pricing:  deps.Pricing,
		business: deps.Business,
		logger:   logger,
	}, nil
}

// InvoiceNumber derives the display invoice number from an order identifier:
// the last eight characters, uppercased, behind a fixed prefix.
func InvoiceNumber(orderID string) string {
	suffix := orderID
	if len(suffix) > 8 {
		suffix = suffix[len(suffix)-8:]
	}
	return "INV-" + strings.ToUpper(suffix)
}

// Invoice loads the order and builds the invoice document. A missing order
// surfaces the repository sentinel unchanged so the transport layer can map
// it to a not-found response.
func (s *InvoiceService) Invoice(ctx context.Context, orderID string) (InvoiceDocument, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return InvoiceDocument{}, err
	}

	breakdown := s.pricing.Quote(ctx, order.Items)

	doc := InvoiceDocument{
		InvoiceNumber: InvoiceNumber(order.ID),
		OrderID:       order.ID,
		IssuedOn:      order.CreatedAt,
		IssuedOnF:     format.Date(order.CreatedAt),
		Business:      s.business,
		BillTo:        invoiceParty(order.Contact, order.BillingAddress),
		ShipTo:        invoiceParty(order.Contact, order.ShippingAddress),
		Currency:      breakdown.Currency,
	}

	doc.Lines = make([]InvoiceLine, 0, len(breakdown.Lines))
	for _, line := range breakdown.Lines {
		doc.Lines = append(doc.Lines, InvoiceLine{
			Index:       line.Index,
			Description: line.Description,
			HSNCode:     line.HSNCode,
			Quantity:    line.Quantity,
			Unit:        line.Unit,
			UnitPrice:   line.UnitPrice,
			Amount:      line.Amount,
			UnitPriceF:  format.Paise(line.UnitPrice),
			AmountF:     format.Paise(line.Amount),
		})
	}

	doc.Totals = InvoiceTotals{
		Subtotal:       breakdown.Subtotal,
		CGST:           breakdown.TaxFirstHalf,
		SGST:           breakdown.TaxSecondHalf,
		Delivery:       breakdown.Delivery,
		BulkDiscount:   breakdown.BulkDiscount,
		GrandTotal:     breakdown.Total,
		Savings:        breakdown.Savings,
		SubtotalF:      format.Paise(breakdown.Subtotal),
		CGSTF:          format.Paise(breakdown.TaxFirstHalf),
		SGSTF:          format.Paise(breakdown.TaxSecondHalf),
		DeliveryF:      format.Paise(breakdown.Delivery),
		DiscountF:      format.Paise(breakdown.BulkDiscount),
		GrandTotalF:    format.Paise(breakdown.Total),
		DeliveryWaived: breakdown.DeliveryWaived,
	}

	s.logger(ctx, "invoice_assembled", map[string]any{
		"orderId":       order.ID,
		"invoiceNumber": doc.InvoiceNumber,
		"grandTotal":    breakdown.Total,
	})
	return doc, nil
}

// Share builds the plain-text summary and share links for an order's
// invoice. The origin is the scheme+host prefix of the copyable link.
func (s *InvoiceService) Share(ctx context.Context, orderID, origin string) (SharePayload, error) {
	doc, err := s.Invoice(ctx, orderID)
	if err != nil {
		return SharePayload{}, err
	}

	copyLink := InvoiceLink(origin, doc.OrderID)

	var b strings.Builder
	fmt.Fprintf(&b, "Invoice %s from %s\n", doc.InvoiceNumber, s.business.Name)
	fmt.Fprintf(&b, "Order: %s\n", doc.OrderID)
	if doc.IssuedOnF != "" {
		fmt.Fprintf(&b, "Date: %s\n", doc.IssuedOnF)
	}
	if strings.TrimSpace(doc.BillTo.Name) != "" {
		fmt.Fprintf(&b, "Customer: %s\n", doc.BillTo.Name)
	}
	for _, line := range doc.Lines {
		if line.Unit != "" {
			fmt.Fprintf(&b, "%s x %d %s = %s\n", line.Description, line.Quantity, line.Unit, line.AmountF)
			continue
		}
		fmt.Fprintf(&b, "%s x %d = %s\n", line.Description, line.Quantity, line.AmountF)
	}
	fmt.Fprintf(&b, "Total: %s\n", doc.Totals.GrandTotalF)
	if copyLink != "" {
		fmt.Fprintf(&b, "View: %s", copyLink)
	}
	text := strings.TrimRight(b.String(), "\n")

	return SharePayload{
		Text:         text,
		WhatsAppLink: whatsappShareBase + url.QueryEscape(text),
		CopyLink:     copyLink,
	}, nil
}

// InvoiceLink returns the public invoice URL for the given origin.
func InvoiceLink(origin, orderID string) string {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin == "" {
		return ""
	}
	return origin + "/invoice/" + url.PathEscape(orderID)
}

func invoiceParty(contact domain.OrderContact, address *domain.Address) InvoiceParty {
	party := InvoiceParty{
		Name:  contact.Name,
		Phone: contact.Phone,
		Email: contact.Email,
	}
	if address != nil {
		if strings.TrimSpace(address.Recipient) != "" {
			party.Name = address.Recipient
		}
		if strings.TrimSpace(address.Phone) != "" {
			party.Phone = address.Phone
		}
		parts := make([]string, 0, 4)
		for _, value := range []string{address.Line1, address.Line2, address.City} {
			if strings.TrimSpace(value) != "" {
				parts = append(parts, value)
			}
		}
		region := strings.TrimSpace(strings.TrimSpace(address.State) + " " + strings.TrimSpace(address.PostalCode))
		if region != "" {
			parts = append(parts, region)
		}
		party.Address = strings.Join(parts, ", ")
	}
	return party
}
