package bill

import (
	"fmt"
	"strconv"

	"billbook/pkg/models"
)

// Numbering generates bill numbers. Invoices and estimates are sequenced
// independently.
type Numbering struct {
	InvoicePrefix  string
	EstimatePrefix string
	Width          int // zero padding used when no previous number can be incremented
}

// DefaultNumbering numbers bills INV-001, EST-001 ...
func DefaultNumbering() Numbering {
	return Numbering{InvoicePrefix: "INV-", EstimatePrefix: "EST-", Width: 3}
}

// Prefix returns the prefix for a document type.
func (n Numbering) Prefix(t models.DocumentType) string {
	if t == models.Estimate {
		return n.EstimatePrefix
	}
	return n.InvoicePrefix
}

// Next returns the number following the most recent record of type t in
// history. When that record has no trailing digits, or there is none, it
// falls back to prefix + zero padded (count of type t + 1). A number
// already held by any record of type t in history is never returned;
// history should include trashed records so a restore cannot collide.
func (n Numbering) Next(t models.DocumentType, history []models.SavedBill) string {
	var latest *models.SavedBill
	taken := make(map[string]bool)
	for i := range history {
		rec := &history[i]
		if rec.DocumentType != t {
			continue
		}
		taken[rec.BillNumber] = true
		if latest == nil || rec.Timestamp.After(latest.Timestamp) {
			latest = rec
		}
	}

	next, ok := "", false
	if latest != nil {
		next, ok = Increment(latest.BillNumber)
	}
	if !ok {
		width := n.Width
		if width <= 0 {
			width = 1
		}
		next = fmt.Sprintf("%s%0*d", n.Prefix(t), width, len(taken)+1)
	}

	for taken[next] {
		next, _ = Increment(next)
	}
	return next
}

// Increment adds one to the trailing digits of number, keeping the zero
// padding width: "INV-007" → "INV-008", "EST-099" → "EST-100".
func Increment(number string) (string, bool) {
	i := len(number)
	for i > 0 && number[i-1] >= '0' && number[i-1] <= '9' {
		i--
	}
	digits := number[i:]
	if digits == "" {
		return "", false
	}

	v, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%s%0*d", number[:i], len(digits), v+1), true
}
