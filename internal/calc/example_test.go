package calc_test

import (
	"fmt"

	"billbook/internal/calc"
)

// Example prices a brass of sand: 10 ft × 12 ft × 4 ft at 4000 per brass.
func Example() {
	res := calc.Compute(calc.Dimensions{
		Length:   10,
		Width:    12,
		Height:   4,
		Quantity: 1,
		Rate:     4000,
		Unit:     "brass",
	})

	fmt.Printf("%s: %.2f × 4000 = %.2f\n", res.Unit.ID, res.Quantity, res.Amount)
	// Output: brass: 4.80 × 4000 = 19200.00
}

// ExampleAmount shows that a linear unit ignores width.
func ExampleAmount() {
	fmt.Println(calc.Amount(50, 999, 0, 1, 120, "rft"))
	// Output: 6000
}

// ExampleCoerce shows how raw form text becomes a number.
func ExampleCoerce() {
	fmt.Println(calc.Coerce("₹ 1,250.50"), calc.Coerce("twelve"))
	// Output: 1250.5 0
}
