// Package export renders a Report as CSV, plain text or an XLSX workbook.
package export

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Money formats an amount as thousands-separated dollars with cents,
// e.g. "$12,345.60". Rounding is half away from zero on the decimal value.
func Money(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	return sign + "$" + printer.Sprintf("%.2f", d.InexactFloat64())
}

// Amount formats v with exactly two decimals and no grouping, for machine
// readable output.
func Amount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Percent formats a percentage with two decimals.
func Percent(v float64) string {
	return Amount(v) + "%"
}

// Points formats a point value, dropping a redundant ".00".
func Points(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	return d.String()
}
