// Package documents renders printable artifacts from invoice view models.
package documents

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	format "github.com/buildkart/api/internal/format"
	services "github.com/buildkart/api/internal/services"
)

// BuildInvoicePDF renders a printable A4 invoice. Amounts use a "Rs." prefix
// because the core PDF fonts cannot encode the rupee sign.
func BuildInvoicePDF(doc services.InvoiceDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Tax Invoice")
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 6, doc.Business.Name)
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 9)
	for _, line := range businessLines(doc.Business) {
		pdf.Cell(0, 5, line)
		pdf.Ln(4)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Invoice No: %s", doc.InvoiceNumber))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Order ID: %s", doc.OrderID))
	pdf.Ln(5)
	if !doc.IssuedOn.IsZero() {
		pdf.Cell(0, 6, fmt.Sprintf("Date: %s", doc.IssuedOnF))
		pdf.Ln(5)
	}

	pdf.Ln(2)
	renderParty(pdf, "Bill To", doc.BillTo)
	renderParty(pdf, "Ship To", doc.ShipTo)

	// Items table
	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(10, 6, "#", "1", 0, "C", false, 0, "")
	pdf.CellFormat(70, 6, "Description", "1", 0, "L", false, 0, "")
	pdf.CellFormat(20, 6, "HSN", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Qty", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Rate", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 6, "Amount", "1", 0, "R", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, line := range doc.Lines {
		quantity := fmt.Sprintf("%d", line.Quantity)
		if line.Unit != "" {
			quantity = fmt.Sprintf("%d %s", line.Quantity, line.Unit)
		}
		pdf.CellFormat(10, 6, fmt.Sprintf("%d", line.Index), "1", 0, "C", false, 0, "")
		pdf.CellFormat(70, 6, line.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, line.HSNCode, "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, quantity, "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, rupees(line.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, rupees(line.Amount), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(3)
	renderTotal(pdf, "Subtotal", doc.Totals.Subtotal, false)
	renderTotal(pdf, "CGST", doc.Totals.CGST, false)
	renderTotal(pdf, "SGST", doc.Totals.SGST, false)
	if doc.Totals.DeliveryWaived {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(155, 6, "Delivery", "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, "FREE", "", 0, "R", false, 0, "")
		pdf.Ln(-1)
	} else if doc.Totals.Delivery > 0 {
		renderTotal(pdf, "Delivery", doc.Totals.Delivery, false)
	}
	if doc.Totals.BulkDiscount > 0 {
		renderTotal(pdf, "Bulk Discount", -doc.Totals.BulkDiscount, false)
	}
	renderTotal(pdf, "Grand Total", doc.Totals.GrandTotal, true)

	if doc.Totals.Savings > 0 {
		pdf.Ln(2)
		pdf.SetFont("Arial", "I", 9)
		pdf.Cell(0, 5, fmt.Sprintf("You saved %s on this order.", rupees(doc.Totals.Savings)))
		pdf.Ln(5)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderParty(pdf *gofpdf.Fpdf, title string, party services.InvoiceParty) {
	if party.Name == "" && party.Address == "" {
		return
	}
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, title)
	pdf.Ln(5)
	pdf.SetFont("Arial", "", 9)
	if party.Name != "" {
		pdf.Cell(0, 5, party.Name)
		pdf.Ln(4)
	}
	if party.Address != "" {
		pdf.MultiCell(0, 5, party.Address, "", "L", false)
	}
	if party.Phone != "" {
		pdf.Cell(0, 5, party.Phone)
		pdf.Ln(4)
	}
	pdf.Ln(2)
}

func renderTotal(pdf *gofpdf.Fpdf, label string, amount int64, emphasis bool) {
	if emphasis {
		pdf.SetFont("Arial", "B", 11)
	} else {
		pdf.SetFont("Arial", "", 10)
	}
	pdf.CellFormat(155, 6, label, "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 6, rupees(amount), "", 0, "R", false, 0, "")
	pdf.Ln(-1)
}

func businessLines(b services.BusinessProfile) []string {
	var lines []string
	if b.Line1 != "" {
		lines = append(lines, b.Line1)
	}
	if b.Line2 != "" {
		lines = append(lines, b.Line2)
	}
	locality := joinNonEmpty(", ", b.City, b.State, b.PostalCode)
	if locality != "" {
		lines = append(lines, locality)
	}
	if b.GSTIN != "" {
		lines = append(lines, "GSTIN: "+b.GSTIN)
	}
	contact := joinNonEmpty(" | ", b.Phone, b.Email)
	if contact != "" {
		lines = append(lines, contact)
	}
	return lines
}

func joinNonEmpty(sep string, parts ...string) string {
	out := ""
	for _, part := range parts {
		if part == "" {
			continue
		}
		if out != "" {
			out += sep
		}
		out += part
	}
	return out
}

func rupees(amount int64) string {
	if amount < 0 {
		return "-Rs. " + format.PaisePlain(-amount)
	}
	return "Rs. " + format.PaisePlain(amount)
}
