package calc

import (
	"math"
	"strconv"
	"strings"
)

var currencyMarkers = []string{"₹", "rs.", "rs", "inr", "/-"}

// Coerce parses raw form text into a number. Currency markers, spaces and
// thousands separators are stripped ("₹ 1,23,450.50" → 123450.5). Empty or
// unparsable text becomes 0.
func Coerce(raw string) float64 {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0
	}

	for _, marker := range currencyMarkers {
		cleaned = strings.ReplaceAll(cleaned, marker, "")
	}
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
