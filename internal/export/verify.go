package export

import (
	"fmt"

	"billbook/internal/calc"
	"billbook/internal/logger"
	"billbook/pkg/services"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Verifier cross-checks the totals carried by a payload against its rows
// and payments before a document is rendered.
type Verifier struct {
	log zerolog.Logger
}

// NewVerifier creates a new payload verifier
func NewVerifier() *Verifier {
	return &Verifier{
		log: logger.WithComponent("export-verify"),
	}
}

// VerifyResult lists every disagreement found. The payload is never
// modified; renderers still print the totals as given.
type VerifyResult struct {
	Warnings       []string
	HasDiscrepancy bool
	MaxDiscrepancy decimal.Decimal // Largest absolute difference seen
}

func (r *VerifyResult) check(field string, got, want decimal.Decimal) {
	if got.Equal(want) {
		return
	}
	diff := got.Sub(want).Abs()
	r.HasDiscrepancy = true
	if diff.GreaterThan(r.MaxDiscrepancy) {
		r.MaxDiscrepancy = diff
	}
	r.Warnings = append(r.Warnings,
		fmt.Sprintf("%s is %s but rows give %s", field, got.StringFixed(2), want.StringFixed(2)))
}

// Verify recomputes the totals from the payload rows and reports where they
// differ from payload.Totals.
func (v *Verifier) Verify(p *services.ExportPayload) *VerifyResult {
	result := &VerifyResult{Warnings: []string{}}

	subTotal := decimal.Zero
	for _, row := range p.Rows {
		subTotal = subTotal.Add(row.Amount)
	}
	gst := decimal.Zero
	if p.GSTEnabled {
		gst = subTotal.Mul(calc.Decimal(p.GSTRate)).Div(hundred)
	}
	advance := decimal.Zero
	for _, pay := range p.Payments {
		advance = advance.Add(calc.Decimal(pay.Amount))
	}

	result.check("subtotal", p.Totals.SubTotal, subTotal)
	result.check("GST", p.Totals.GST, gst)
	result.check("grand total", p.Totals.GrandTotal, p.Totals.SubTotal.Add(p.Totals.GST))
	result.check("advance", p.Totals.Advance, advance)
	result.check("balance", p.Totals.Balance, p.Totals.GrandTotal.Sub(p.Totals.Advance))

	if result.HasDiscrepancy {
		v.log.Warn().
			Str("bill_number", p.BillNumber).
			Strs("warnings", result.Warnings).
			Str("max_discrepancy", result.MaxDiscrepancy.String()).
			Msg("Export totals disagree with bill rows")
	} else {
		v.log.Debug().
			Str("bill_number", p.BillNumber).
			Int("rows", len(p.Rows)).
			Msg("Export totals verified")
	}
	return result
}
