// Package calc turns line item dimensions into a billable quantity and amount.
//
// This is the only place the per-unit formulas live. The item form preview,
// item commit, and every exporter call into it so that a line item always
// shows the same quantity and amount wherever it is rendered.
//
// Arithmetic is done with decimals: 10 × 12 × 4 / 100 is exactly 4.8 and
// 4.8 × 4000 is exactly 19200. Amounts are rounded half away from zero to
// two decimal places. Bad numbers (NaN, ±Inf) are treated as 0; the
// calculator never returns an error.
package calc

import (
	"math"

	"billbook/internal/units"
	"github.com/shopspring/decimal"
)

// AmountPlaces is the number of decimal places kept on currency amounts.
const AmountPlaces = 2

var (
	one          = decimal.NewFromInt(1)
	brassDivisor = decimal.NewFromInt(units.BrassDivisor)
)

// Dimensions is the raw numeric input of one line item.
type Dimensions struct {
	Length   float64
	Width    float64
	Height   float64
	Quantity float64 // repeat multiplier, or the count itself for COUNT_LIKE units
	Rate     float64
	Unit     string
}

// Result is the derived quantity and amount for a set of dimensions.
type Result struct {
	Unit     units.Unit
	Quantity float64 // pre-rate quantity in the unit's natural measure
	Amount   float64 // Quantity × Rate, rounded to AmountPlaces
}

// Decimal converts a float into a decimal, mapping NaN and ±Inf to zero.
func Decimal(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// Round rounds a currency value to AmountPlaces.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountPlaces)
}

// QuantityDecimal is Quantity without the conversion back to float64.
func QuantityDecimal(length, width, height, repeatCount float64, class units.Class) decimal.Decimal {
	l, w, h, q := Decimal(length), Decimal(width), Decimal(height), Decimal(repeatCount)

	if class == units.CountLike {
		return q
	}
	if q.IsZero() {
		q = one
	}

	switch class {
	case units.Area:
		return l.Mul(w).Mul(q)
	case units.Volume:
		return l.Mul(w).Mul(h).Mul(q)
	case units.VolumeScaled:
		return l.Mul(w).Mul(h).Mul(q).Div(brassDivisor)
	case units.Linear:
		return l.Mul(q)
	default:
		return q
	}
}

// Quantity maps dimensions to the billable quantity for a unit class.
//
// repeatCount multiplies AREA, VOLUME, VOLUME_SCALED and LINEAR results and
// is read as 1 when zero. For COUNT_LIKE it is the quantity.
func Quantity(length, width, height, repeatCount float64, class units.Class) float64 {
	return QuantityDecimal(length, width, height, repeatCount, class).InexactFloat64()
}

// Amount is Quantity × rate for the named unit, rounded to two places.
func Amount(length, width, height, repeatCount, rate float64, unit string) float64 {
	return Compute(Dimensions{
		Length:   length,
		Width:    width,
		Height:   height,
		Quantity: repeatCount,
		Rate:     rate,
		Unit:     unit,
	}).Amount
}

// Compute resolves the unit and derives both quantity and amount.
func Compute(d Dimensions) Result {
	u := units.Lookup(d.Unit)
	qty := QuantityDecimal(d.Length, d.Width, d.Height, d.Quantity, u.Class)
	amount := Round(qty.Mul(Decimal(d.Rate)))

	return Result{
		Unit:     u,
		Quantity: qty.InexactFloat64(),
		Amount:   amount.InexactFloat64(),
	}
}
