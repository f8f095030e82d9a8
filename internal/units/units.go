// Package units provides the registry of measurement units used on line items.
//
// Every unit identifier resolves to exactly one dimensional class. The class
// decides which formula turns an item's dimensions into a billable quantity:
//   - AREA: length × width × quantity (sq.ft, sq.m ...)
//   - VOLUME: length × width × height × quantity (cu.ft, cu.m ...)
//   - VOLUME_SCALED: volume divided by BrassDivisor (brass)
//   - LINEAR: length × quantity (rft, rmt ...)
//   - COUNT_LIKE: quantity only (nos, kg, bag ...)
//
// Identifiers that are not in the registry resolve to COUNT_LIKE. Lookups
// never fail, so legacy or hand-typed units can always be priced.
package units

import "strings"

// Class is the formula family a unit belongs to.
type Class int

const (
	// CountLike is the zero value so that an unset class prices by count.
	CountLike Class = iota
	Area
	Volume
	VolumeScaled
	Linear
)

// BrassDivisor converts cubic feet into brass (1 brass = 100 cu.ft).
const BrassDivisor = 100

func (c Class) String() string {
	switch c {
	case Area:
		return "AREA"
	case Volume:
		return "VOLUME"
	case VolumeScaled:
		return "VOLUME_SCALED"
	case Linear:
		return "LINEAR"
	default:
		return "COUNT_LIKE"
	}
}

// UsesLength reports whether the length field feeds the quantity.
func (c Class) UsesLength() bool {
	return c != CountLike
}

// UsesWidth reports whether the width field feeds the quantity.
func (c Class) UsesWidth() bool {
	return c == Area || c == Volume || c == VolumeScaled
}

// UsesHeight reports whether the height field feeds the quantity.
func (c Class) UsesHeight() bool {
	return c == Volume || c == VolumeScaled
}

// Unit is an immutable measurement unit.
type Unit struct {
	ID    string // canonical identifier, e.g. "sq.ft"
	Label string // human readable name
	Class Class
	Known bool // false when the identifier was not found in the registry
}

type entry struct {
	unit    Unit
	aliases []string
}

var registry = []entry{
	{Unit{ID: "sq.ft", Label: "Square feet", Class: Area}, []string{"sqft", "sq ft", "sft", "sq.feet", "square feet"}},
	{Unit{ID: "sq.m", Label: "Square metre", Class: Area}, []string{"sqm", "sq m", "sq.mt", "square metre", "square meter"}},
	{Unit{ID: "sq.yd", Label: "Square yard", Class: Area}, []string{"sqyd", "sq yd", "square yard"}},
	{Unit{ID: "sq.in", Label: "Square inch", Class: Area}, []string{"sqin", "sq in", "square inch"}},

	{Unit{ID: "cu.ft", Label: "Cubic feet", Class: Volume}, []string{"cft", "cuft", "cu ft", "cubic feet"}},
	{Unit{ID: "cu.m", Label: "Cubic metre", Class: Volume}, []string{"cum", "cbm", "cu m", "cubic metre", "cubic meter"}},
	{Unit{ID: "cu.yd", Label: "Cubic yard", Class: Volume}, []string{"cuyd", "cu yd", "cubic yard"}},

	{Unit{ID: "brass", Label: "Brass (100 cu.ft)", Class: VolumeScaled}, nil},

	{Unit{ID: "rft", Label: "Running feet", Class: Linear}, []string{"r.ft", "running ft", "running feet", "rft."}},
	{Unit{ID: "rmt", Label: "Running metre", Class: Linear}, []string{"r.m", "r.mt", "running m", "running metre", "running meter"}},
	{Unit{ID: "ft", Label: "Feet", Class: Linear}, []string{"feet", "foot"}},
	{Unit{ID: "m", Label: "Metre", Class: Linear}, []string{"mtr", "metre", "meter"}},
	{Unit{ID: "inch", Label: "Inch", Class: Linear}, []string{"in", "inches"}},

	{Unit{ID: "nos", Label: "Numbers", Class: CountLike}, []string{"no", "no.", "nos.", "number", "numbers"}},
	{Unit{ID: "pcs", Label: "Pieces", Class: CountLike}, []string{"pc", "piece", "pieces"}},
	{Unit{ID: "kg", Label: "Kilogram", Class: CountLike}, []string{"kgs", "kilogram", "kilo"}},
	{Unit{ID: "ton", Label: "Tonne", Class: CountLike}, []string{"tons", "tonne", "mt"}},
	{Unit{ID: "bag", Label: "Bag", Class: CountLike}, []string{"bags"}},
	{Unit{ID: "ltr", Label: "Litre", Class: CountLike}, []string{"l", "litre", "liter", "litres"}},
	{Unit{ID: "point", Label: "Point", Class: CountLike}, []string{"points", "pt"}},
	{Unit{ID: "set", Label: "Set", Class: CountLike}, []string{"sets"}},
	{Unit{ID: "job", Label: "Job", Class: CountLike}, []string{"jobs"}},
	{Unit{ID: "lumpsum", Label: "Lump sum", Class: CountLike}, []string{"ls", "l.s", "lump sum"}},
	{Unit{ID: "day", Label: "Day", Class: CountLike}, []string{"days"}},
	{Unit{ID: "hour", Label: "Hour", Class: CountLike}, []string{"hours", "hr", "hrs"}},
	{Unit{ID: "trip", Label: "Trip", Class: CountLike}, []string{"trips"}},
}

var index = buildIndex()

func buildIndex() map[string]Unit {
	idx := make(map[string]Unit, len(registry)*4)
	for _, e := range registry {
		u := e.unit
		u.Known = true
		idx[u.ID] = u
		for _, alias := range e.aliases {
			idx[alias] = u
		}
	}
	return idx
}

func normalize(id string) string {
	return strings.Join(strings.Fields(strings.ToLower(id)), " ")
}

// Lookup resolves a unit identifier. Unknown identifiers come back as a
// COUNT_LIKE unit carrying the caller's identifier.
func Lookup(id string) Unit {
	if u, ok := index[normalize(id)]; ok {
		return u
	}
	trimmed := strings.TrimSpace(id)
	return Unit{ID: trimmed, Label: trimmed, Class: CountLike}
}

// ClassOf returns the dimensional class of a unit identifier.
func ClassOf(id string) Class {
	return Lookup(id).Class
}

// Canonical returns the registry id for a known unit, or the trimmed input.
func Canonical(id string) string {
	return Lookup(id).ID
}

// All returns the registry in display order.
func All() []Unit {
	out := make([]Unit, 0, len(registry))
	for _, e := range registry {
		u := e.unit
		u.Known = true
		out = append(out, u)
	}
	return out
}

// Identifiers returns every canonical id and alias the registry accepts.
func Identifiers() []string {
	out := make([]string, 0, len(index))
	for _, e := range registry {
		out = append(out, e.unit.ID)
		out = append(out, e.aliases...)
	}
	return out
}
