// Package format renders money and dates for invoice and share surfaces.
package format

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.MustParse("en-IN"))

// Paise renders a paise amount as rupees with the ₹ symbol, two decimals and
// en-IN digit grouping. Example: Paise(6780000) => "₹67,800.00".
func Paise(amount int64) string {
	if amount < 0 {
		return "-₹" + PaisePlain(-amount)
	}
	return "₹" + PaisePlain(amount)
}

// PaisePlain renders a paise amount as rupees without a currency symbol.
// Used where the output encoding cannot carry ₹ (core-font PDF text).
func PaisePlain(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	major := amount / 100
	minor := amount % 100
	out := printer.Sprintf("%d", major) + fmt.Sprintf(".%02d", minor)
	if neg {
		return "-" + out
	}
	return out
}

// Date renders a timestamp in the short form used on invoices.
func Date(t time.Time) string {
	return t.Format("02 Jan 2006")
}
