package export

import (
	"time"

	"billbook/internal/bill"
	"billbook/internal/calc"
	"billbook/internal/units"
	"billbook/pkg/services"
)

// BuildPayload collects the export payload for b. Totals come from the bill
// itself; row quantities come from the quantity calculator.
func BuildPayload(b *bill.Bill, policy bill.BalancePolicy) *services.ExportPayload {
	items := b.Items()
	rows := make([]services.ExportRow, 0, len(items))
	for i, item := range items {
		unit := units.Lookup(item.Unit)
		rows = append(rows, services.ExportRow{
			Index:       i + 1,
			Description: item.Description,
			Floor:       item.Floor,
			Length:      item.Length,
			Width:       item.Width,
			Height:      item.Height,
			Quantity:    item.Quantity,
			Unit:        unit.ID,
			UnitLabel:   unit.Label,
			Class:       unit.Class.String(),
			TotalQty:    bill.TotalQuantity(item),
			Rate:        item.Rate,
			Amount:      calc.Decimal(item.Amount),
			Paid:        item.Paid,
		})
	}

	totals := b.Totals()
	return &services.ExportPayload{
		DocumentType:   b.DocumentType(),
		Title:          b.DocumentType().Title(),
		BillNumber:     b.BillNumber,
		BillDate:       b.BillDate,
		StatusLabel:    b.StatusLabel(),
		Contractor:     b.Contractor,
		Client:         b.Client,
		Rows:           rows,
		GSTEnabled:     b.GSTEnabled(),
		GSTRate:        bill.EffectiveGSTRate(b.GSTRate()),
		Payments:       b.Payments(),
		Disclaimer:     b.Disclaimer,
		Totals:         totals,
		DisplayBalance: calc.Round(bill.DisplayBalance(totals, b.DocumentType(), b.PaymentStatus(), policy)),
		GeneratedAt:    time.Now(),
	}
}
