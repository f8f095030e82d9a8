package bill

import (
	"fmt"
	"math"
	"strings"

	"billbook/internal/calc"
	"billbook/pkg/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// EffectiveGSTRate returns rate, or DefaultGSTRate when rate is unset.
// Every consumer of a stored rate goes through here, including records
// saved before the rate was stored.
func EffectiveGSTRate(rate float64) float64 {
	if rate == 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return DefaultGSTRate
	}
	return rate
}

// ComputeTotals derives the bill totals from its parts:
//
//	SubTotal   = Σ item.Amount
//	GST        = SubTotal × rate / 100 when enabled, else 0
//	GrandTotal = SubTotal + GST
//	Advance    = Σ payment.Amount
//	Balance    = GrandTotal − Advance
//
// Balance is negative when the client has overpaid. Nothing is rounded
// here; see models.Totals.Rounded.
func ComputeTotals(items []models.LineItem, gstEnabled bool, gstRate float64, payments []models.PaymentRecord) models.Totals {
	subTotal := decimal.Zero
	for _, item := range items {
		subTotal = subTotal.Add(calc.Decimal(item.Amount))
	}

	gst := decimal.Zero
	if gstEnabled {
		rate := decimal.NewFromFloat(EffectiveGSTRate(gstRate))
		gst = subTotal.Mul(rate).Div(hundred)
	}

	advance := decimal.Zero
	for _, p := range payments {
		advance = advance.Add(calc.Decimal(p.Amount))
	}

	grandTotal := subTotal.Add(gst)
	return models.Totals{
		SubTotal:   subTotal,
		GST:        gst,
		GrandTotal: grandTotal,
		Advance:    advance,
		Balance:    grandTotal.Sub(advance),
	}
}

// Totals derives the current totals of the bill.
func (b *Bill) Totals() models.Totals {
	return ComputeTotals(b.items, b.gstEnabled, b.gstRate, b.payments)
}

// CostSummary compares job expenses with the amount billed.
type CostSummary struct {
	Expenses decimal.Decimal
	Profit   decimal.Decimal // GrandTotal − Expenses
}

// Costs sums the recorded expenses against the grand total.
func (b *Bill) Costs() CostSummary {
	spent := decimal.Zero
	for _, e := range b.expenses {
		spent = spent.Add(calc.Decimal(e.Amount))
	}
	return CostSummary{
		Expenses: spent,
		Profit:   b.Totals().GrandTotal.Sub(spent),
	}
}

// SuggestPaymentStatus proposes a status from the totals. Status changes
// stay user driven; this only feeds prompts.
func SuggestPaymentStatus(t models.Totals) models.PaymentStatus {
	switch {
	case t.GrandTotal.IsPositive() && !t.Balance.IsPositive():
		return models.PaymentPaid
	case t.Advance.IsPositive():
		return models.PaymentPartial
	default:
		return models.PaymentPending
	}
}

// BalancePolicy decides how the balance is shown to the user. The stored
// balance is never altered.
type BalancePolicy string

const (
	// BalanceFloor shows negative balances as 0.
	BalanceFloor BalancePolicy = "floor"
	// BalanceRaw shows overpayment as a negative balance.
	BalanceRaw BalancePolicy = "raw"
	// BalancePaidZero shows 0 once an invoice is marked Paid, else floors.
	BalancePaidZero BalancePolicy = "paid-zero"
)

// ParseBalancePolicy validates a configured policy name.
func ParseBalancePolicy(s string) (BalancePolicy, error) {
	switch p := BalancePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return BalanceFloor, nil
	case BalanceFloor, BalanceRaw, BalancePaidZero:
		return p, nil
	default:
		return "", fmt.Errorf("unknown balance display policy %q (want floor, raw or paid-zero)", s)
	}
}

// DisplayBalance applies policy to the balance of t.
func DisplayBalance(t models.Totals, docType models.DocumentType, status models.PaymentStatus, policy BalancePolicy) decimal.Decimal {
	switch policy {
	case BalanceRaw:
		return t.Balance
	case BalancePaidZero:
		if docType == models.Invoice && status == models.PaymentPaid {
			return decimal.Zero
		}
	}
	if t.Balance.IsNegative() {
		return decimal.Zero
	}
	return t.Balance
}
