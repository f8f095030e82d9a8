// Package export renders bills to PDF and Excel documents.
//
// Renderers print the values in services.ExportPayload as given. Totals are
// the bill's own totals and row quantities come from the quantity
// calculator; nothing here recomputes either. Money and quantities are
// formatted through Money and Qty so every document agrees to the paisa.
package export

import (
	"fmt"

	"billbook/internal/calc"
	"billbook/pkg/services"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// indian prints numbers with the en-IN grouping: last three digits, then
// every two.
var indian = message.NewPrinter(language.MustParse("en-IN"))

// Money formats an amount with two decimals and Indian digit grouping:
// 1234567.5 → "12,34,567.50". The amount is rounded half away from zero
// before it is printed.
func Money(d decimal.Decimal) string {
	return indian.Sprintf("%.2f", calc.Round(d).InexactFloat64())
}

// Qty formats a quantity with up to two decimals and no trailing zeros.
func Qty(f float64) string {
	return calc.Round(calc.Decimal(f)).String()
}

// Number formats a dimension or rate the same way as Qty, and prints 0 as
// an empty cell.
func Number(f float64) string {
	if f == 0 {
		return ""
	}
	return Qty(f)
}

type totalLine struct {
	label  string
	value  decimal.Decimal
	strong bool
}

// totalLines lists the totals block printed under the item table. Advance
// and balance are only shown once something has been paid.
func totalLines(p *services.ExportPayload) []totalLine {
	t := p.Totals.Rounded()
	lines := []totalLine{{"Sub Total", t.SubTotal, false}}
	if p.GSTEnabled {
		lines = append(lines, totalLine{fmt.Sprintf("GST (%s%%)", Qty(p.GSTRate)), t.GST, false})
	}
	lines = append(lines, totalLine{"Grand Total", t.GrandTotal, true})
	if !t.Advance.IsZero() {
		lines = append(lines,
			totalLine{"Advance / Paid", t.Advance, false},
			totalLine{"Balance", p.DisplayBalance, true})
	}
	return lines
}
