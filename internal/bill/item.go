package bill

import (
	"math"
	"strings"

	"billbook/internal/calc"
	"billbook/internal/units"
	"billbook/pkg/models"
)

// DefaultUnit is used when an item is submitted without a unit.
const DefaultUnit = "nos"

// ItemInput is the raw content of the add/edit item form. Every submission
// carries the full set of fields; there are no partial patches.
type ItemInput struct {
	Description string
	Length      float64
	Width       float64
	Height      float64
	Quantity    float64
	Rate        float64
	Unit        string
	Floor       string
	Paid        bool
}

// ItemInputFromParsed adapts a voice or automated entry to the form path.
func ItemInputFromParsed(p models.ParsedItem) ItemInput {
	return ItemInput{
		Description: p.Description,
		Length:      p.Length,
		Width:       p.Width,
		Height:      p.Height,
		Quantity:    p.Quantity,
		Rate:        p.Rate,
		Unit:        p.Unit,
		Floor:       p.Floor,
	}
}

// ItemInputFromLineItem returns the form content that produced an item,
// used when an existing row is opened for editing.
func ItemInputFromLineItem(item models.LineItem) ItemInput {
	return ItemInput{
		Description: item.Description,
		Length:      item.Length,
		Width:       item.Width,
		Height:      item.Height,
		Quantity:    item.Quantity,
		Rate:        item.Rate,
		Unit:        item.Unit,
		Floor:       item.Floor,
		Paid:        item.Paid,
	}
}

// Preview computes the quantity and amount the form would commit.
func (in ItemInput) Preview() calc.Result {
	item := normalizeItem(in, "")
	return calc.Compute(dimensionsOf(item))
}

// Build validates the input and produces the line item stored on a bill.
func (in ItemInput) Build(id string) (models.LineItem, error) {
	if strings.TrimSpace(in.Description) == "" {
		return models.LineItem{}, NewValidationError("description", in.Description, ErrMissingDescription)
	}
	return normalizeItem(in, id), nil
}

// normalizeItem applies the unit class field rules and recomputes the amount.
func normalizeItem(in ItemInput, id string) models.LineItem {
	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = DefaultUnit
	}
	u := units.Lookup(unit)

	item := models.LineItem{
		ID:          id,
		Description: strings.TrimSpace(in.Description),
		Quantity:    finite(in.Quantity),
		Unit:        u.ID,
		Rate:        finite(in.Rate),
		Floor:       strings.TrimSpace(in.Floor),
		Paid:        in.Paid,
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if u.Class.UsesLength() {
		item.Length = finite(in.Length)
	}
	if u.Class.UsesWidth() {
		item.Width = finite(in.Width)
	}
	if u.Class.UsesHeight() {
		item.Height = finite(in.Height)
	}

	item.Amount = calc.Compute(dimensionsOf(item)).Amount
	return item
}

func dimensionsOf(item models.LineItem) calc.Dimensions {
	return calc.Dimensions{
		Length:   item.Length,
		Width:    item.Width,
		Height:   item.Height,
		Quantity: item.Quantity,
		Rate:     item.Rate,
		Unit:     item.Unit,
	}
}

// TotalQuantity is the pre-rate quantity of a stored item.
func TotalQuantity(item models.LineItem) float64 {
	return calc.Compute(dimensionsOf(item)).Quantity
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
