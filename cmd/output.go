package cmd

import (
	"fmt"
	"strings"
	"time"

	"billbook/internal/bill"
	"billbook/internal/export"
	"billbook/internal/session"
	"billbook/internal/units"
	"billbook/pkg/models"
	"github.com/shopspring/decimal"
)

// BillOutput represents the JSON output structure of a bill
type BillOutput struct {
	ID                 string                 `json:"id,omitempty"`
	DocumentType       models.DocumentType    `json:"document_type"`
	BillNumber         string                 `json:"bill_number"`
	BillDate           string                 `json:"bill_date"`
	Status             string                 `json:"status"`
	Contractor         models.Party           `json:"contractor"`
	Client             models.Party           `json:"client"`
	Items              []ItemOutput           `json:"items"`
	GSTEnabled         bool                   `json:"gst_enabled"`
	GSTRate            float64                `json:"gst_rate"`
	Payments           []models.PaymentRecord `json:"payments"`
	Expenses           []models.ExpenseRecord `json:"expenses,omitempty"`
	Totals             models.Totals          `json:"totals"`
	Costs              *CostOutput            `json:"costs,omitempty"`
	Disclaimer         string                 `json:"disclaimer,omitempty"`
	ConvertedInvoiceID string                 `json:"converted_invoice_id,omitempty"`
	SourceEstimateID   string                 `json:"source_estimate_id,omitempty"`
	Saved              bool                   `json:"saved"`
}

// ItemOutput is a line item with its computed total quantity
type ItemOutput struct {
	models.LineItem
	Class    string  `json:"class"`
	TotalQty float64 `json:"total_quantity"`
}

// CostOutput summarises job expenses against the grand total
type CostOutput struct {
	Expenses decimal.Decimal `json:"expenses"`
	Profit   decimal.Decimal `json:"profit"`
}

func buildBillOutput(s *session.Session, withCosts bool) BillOutput {
	b := s.Bill()
	out := BillOutput{
		ID:                 b.ID,
		DocumentType:       b.DocumentType(),
		BillNumber:         b.BillNumber,
		BillDate:           b.BillDate.Format("2006-01-02"),
		Status:             b.StatusLabel(),
		Contractor:         b.Contractor,
		Client:             b.Client,
		GSTEnabled:         b.GSTEnabled(),
		GSTRate:            bill.EffectiveGSTRate(b.GSTRate()),
		Payments:           b.Payments(),
		Totals:             s.DisplayTotals(),
		Disclaimer:         b.Disclaimer,
		ConvertedInvoiceID: b.ConvertedInvoiceID(),
		SourceEstimateID:   b.SourceEstimateID(),
		Saved:              s.Attached(),
	}
	for _, it := range b.Items() {
		out.Items = append(out.Items, ItemOutput{
			LineItem: it,
			Class:    units.ClassOf(it.Unit).String(),
			TotalQty: bill.TotalQuantity(it),
		})
	}
	if withCosts {
		costs := b.Costs()
		out.Expenses = b.Expenses()
		out.Costs = &CostOutput{Expenses: costs.Expenses.Round(2), Profit: costs.Profit.Round(2)}
	}
	return out
}

func (a *app) outputBill(withCosts bool) error {
	if a.json {
		return a.printJSON(buildBillOutput(a.sess, withCosts))
	}

	b := a.sess.Bill()
	p := a.sess.Payload()

	a.printf("%s\n", strings.Repeat("=", 80))
	a.printf("%s %s    Date: %s    Status: %s\n", p.Title, b.BillNumber, b.BillDate.Format("02.01.2006"), b.StatusLabel())
	a.printf("%s\n", strings.Repeat("=", 80))

	if b.Contractor.Name != "" {
		a.printf("From: %s\n", partyLine(b.Contractor))
	}
	if b.Client.Name != "" {
		a.printf("To:   %s\n", partyLine(b.Client))
	}
	if !a.sess.Attached() {
		a.printf("(not saved)\n")
	}
	a.printf("\n")

	if len(p.Rows) == 0 {
		a.printf("No line items. Add one with 'billbook item add'.\n")
	} else {
		a.printf("%-3s %-28s %-8s %7s %7s %7s %10s %-7s %9s %12s\n",
			"#", "Description", "Floor", "L", "W", "H", "Qty", "Unit", "Rate", "Amount")
		a.printf("%s\n", strings.Repeat("-", 108))
		for _, row := range p.Rows {
			paid := ""
			if row.Paid {
				paid = " (paid)"
			}
			a.printf("%-3d %-28s %-8s %7s %7s %7s %10s %-7s %9s %12s%s\n",
				row.Index, truncate(row.Description, 28), truncate(row.Floor, 8),
				export.Number(row.Length), export.Number(row.Width), export.Number(row.Height),
				export.Qty(row.TotalQty), row.Unit, export.Number(row.Rate), export.Money(row.Amount), paid)
		}
	}
	a.printf("\n")

	t := p.Totals.Rounded()
	a.printf("%-20s %14s\n", "Sub Total:", export.Money(t.SubTotal))
	if p.GSTEnabled {
		a.printf("%-20s %14s\n", fmt.Sprintf("GST (%s%%):", export.Qty(p.GSTRate)), export.Money(t.GST))
	}
	a.printf("%-20s %14s\n", "Grand Total:", export.Money(t.GrandTotal))
	if !t.Advance.IsZero() {
		a.printf("%-20s %14s\n", "Advance / Paid:", export.Money(t.Advance))
		a.printf("%-20s %14s\n", "Balance:", export.Money(p.DisplayBalance))
	}

	if payments := b.Payments(); len(payments) > 0 {
		a.printf("\nPayments:\n")
		for i, pay := range payments {
			a.printf("  %d. %s  %12s  %s\n", i+1, pay.Date.Format("02.01.2006"), export.Money(decimal.NewFromFloat(pay.Amount)), pay.Note)
		}
	}

	if withCosts {
		a.printf("\nExpenses:\n")
		for i, e := range b.Expenses() {
			a.printf("  %d. %s  %-12s %12s  %s\n", i+1, e.Date.Format("02.01.2006"), e.Category, export.Money(decimal.NewFromFloat(e.Amount)), e.Description)
		}
		costs := b.Costs()
		a.printf("%-20s %14s\n", "Total expenses:", export.Money(costs.Expenses))
		a.printf("%-20s %14s\n", "Profit:", export.Money(costs.Profit))
	}

	if b.Disclaimer != "" {
		a.printf("\n%s\n", b.Disclaimer)
	}
	return nil
}

func (a *app) outputItem(item models.LineItem, verb string) error {
	if a.json {
		return a.printJSON(ItemOutput{
			LineItem: item,
			Class:    units.ClassOf(item.Unit).String(),
			TotalQty: bill.TotalQuantity(item),
		})
	}
	a.printf("%s %s: %s %s × %s = %s\n", verb, a.sess.Bill().BillNumber, item.Description,
		export.Qty(bill.TotalQuantity(item)), item.Unit, export.Money(decimal.NewFromFloat(item.Amount)))
	return a.printTotalsLine()
}

func (a *app) printTotalsLine() error {
	t := a.sess.DisplayTotals()
	a.printf("Grand total %s, balance %s\n", export.Money(t.GrandTotal), export.Money(t.Balance))
	return nil
}

// SavedOutput is the JSON output of save, convert and list
type SavedOutput struct {
	ID           string              `json:"id"`
	DocumentType models.DocumentType `json:"document_type"`
	BillNumber   string              `json:"bill_number"`
	BillDate     string              `json:"bill_date"`
	Client       string              `json:"client,omitempty"`
	Status       string              `json:"status"`
	GrandTotal   decimal.Decimal     `json:"grand_total"`
	SavedAt      time.Time           `json:"saved_at"`
}

func savedOutput(rec models.SavedBill) SavedOutput {
	b := bill.FromRecord(rec)
	return SavedOutput{
		ID:           rec.ID,
		DocumentType: rec.DocumentType,
		BillNumber:   rec.BillNumber,
		BillDate:     rec.BillDate.Format("2006-01-02"),
		Client:       rec.Client.Name,
		Status:       b.StatusLabel(),
		GrandTotal:   b.Totals().Rounded().GrandTotal,
		SavedAt:      rec.Timestamp,
	}
}

func (a *app) outputRecords(recs []models.SavedBill) error {
	rows := make([]SavedOutput, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, savedOutput(rec))
	}
	if a.json {
		return a.printJSON(rows)
	}
	if len(rows) == 0 {
		a.printf("No bills found.\n")
		return nil
	}
	a.printf("%-8s %-9s %-12s %-10s %-24s %-16s %14s\n", "ID", "Type", "Number", "Date", "Client", "Status", "Grand Total")
	a.printf("%s\n", strings.Repeat("-", 99))
	for _, r := range rows {
		a.printf("%-8s %-9s %-12s %-10s %-24s %-16s %14s\n",
			shortID(r.ID), r.DocumentType, r.BillNumber, r.BillDate, truncate(r.Client, 24), r.Status, export.Money(r.GrandTotal))
	}
	return nil
}

func partyLine(p models.Party) string {
	parts := []string{p.Name}
	for _, s := range []string{p.Phone, p.Address} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if p.GSTIN != "" {
		parts = append(parts, "GSTIN "+p.GSTIN)
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
