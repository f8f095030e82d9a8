package calc

import (
	"math"
	"testing"

	"billbook/internal/units"
	"github.com/stretchr/testify/assert"
)

func TestAmountByClass(t *testing.T) {
	tests := []struct {
		name                string
		l, w, h, q, rate    float64
		unit                string
		wantQty, wantAmount float64
	}{
		{"area", 10, 12, 0, 1, 45, "sq.ft", 120, 5400},
		{"area ignores height", 10, 12, 99, 1, 45, "sq.ft", 120, 5400},
		{"area repeat", 10, 12, 0, 3, 45, "sq.ft", 360, 16200},
		{"volume", 10, 12, 4, 1, 50, "cu.ft", 480, 24000},
		{"brass", 10, 12, 4, 1, 4000, "brass", 4.8, 19200},
		{"linear ignores width and height", 50, 999, 7, 1, 120, "rft", 50, 6000},
		{"count uses quantity only", 13, 17, 19, 4, 250, "nos", 4, 1000},
		{"unknown unit counts", 10, 10, 10, 3, 7, "unobtainium", 3, 21},
		{"zero repeat is one for area", 10, 12, 0, 0, 45, "sq.ft", 120, 5400},
		{"zero count stays zero", 0, 0, 0, 0, 250, "nos", 0, 0},
		{"missing width zeroes area", 10, 0, 0, 1, 45, "sq.ft", 0, 0},
		{"missing height zeroes volume", 10, 12, 0, 1, 50, "cu.ft", 0, 0},
		{"negative is multiplied through", -2, 5, 0, 1, 10, "sq.ft", -10, -100},
		{"rounded to two places", 1, 1, 0, 1, 0.125, "sq.ft", 1, 0.13},
		{"rounded negative away from zero", 1, 1, 0, 1, -0.125, "sq.ft", 1, -0.13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Compute(Dimensions{Length: tt.l, Width: tt.w, Height: tt.h, Quantity: tt.q, Rate: tt.rate, Unit: tt.unit})
			assert.Equal(t, tt.wantQty, res.Quantity)
			assert.Equal(t, tt.wantAmount, res.Amount)
			assert.Equal(t, tt.wantAmount, Amount(tt.l, tt.w, tt.h, tt.q, tt.rate, tt.unit))
		})
	}
}

func TestAreaMatchesProduct(t *testing.T) {
	for _, l := range []float64{1, 2.5, 10, 33} {
		for _, w := range []float64{1, 4, 12.25} {
			for _, q := range []float64{1, 2, 5} {
				for _, r := range []float64{1, 45, 99.5} {
					assert.InDelta(t, l*w*q*r, Amount(l, w, 0, q, r, "sq.ft"), 0.005)
				}
			}
		}
	}
}

func TestBrassMatchesScaledVolume(t *testing.T) {
	for _, h := range []float64{1, 3, 4.5} {
		got := Amount(10, 12, h, 2, 4000, "brass")
		assert.InDelta(t, (10*12*h*2/100)*4000, got, 0.005)
	}
}

func TestQuantityDoesNotResolveUnits(t *testing.T) {
	assert.Equal(t, 4.8, Quantity(10, 12, 4, 1, units.VolumeScaled))
	assert.Equal(t, 50.0, Quantity(50, 999, 0, 1, units.Linear))
	assert.Equal(t, 4.0, Quantity(1, 2, 3, 4, units.CountLike))
}

func TestBadNumbersAreZero(t *testing.T) {
	assert.Equal(t, 0.0, Amount(math.NaN(), 12, 0, 1, 45, "sq.ft"))
	assert.Equal(t, 0.0, Amount(10, 12, 0, 1, math.Inf(1), "sq.ft"))
	assert.Equal(t, 5400.0, Amount(10, 12, 0, math.NaN(), 45, "sq.ft"))
}

func TestCoerce(t *testing.T) {
	tests := map[string]float64{
		"":               0,
		"   ":            0,
		"12":             12,
		"12.5":           12.5,
		"1,23,450.50":    123450.5,
		"₹ 4,000":        4000,
		"Rs. 250/-":      250,
		"INR 99":         99,
		"-3":             -3,
		"abc":            0,
		"NaN":            0,
		"inf":            0,
		"12 ft":          0,
		" 7 ":            7,
	}

	for in, want := range tests {
		assert.Equal(t, want, Coerce(in), "Coerce(%q)", in)
	}
}
