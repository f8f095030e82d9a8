package bill

import (
	"testing"
	"time"

	"billbook/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestIncrement(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"INV-007", "INV-008", true},
		{"EST-099", "EST-100", true},
		{"INV-999", "INV-1000", true},
		{"2024/15", "2024/16", true},
		{"42", "43", true},
		{"A-0009", "A-0010", true},
		{"INV-", "", false},
		{"", "", false},
		{"INV-7A", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Increment(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextUsesMostRecentOfSameType(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	history := []models.SavedBill{
		{DocumentType: models.Invoice, BillNumber: "INV-007", Timestamp: base.Add(2 * time.Hour)},
		{DocumentType: models.Invoice, BillNumber: "INV-012", Timestamp: base},
		{DocumentType: models.Estimate, BillNumber: "EST-099", Timestamp: base.Add(3 * time.Hour)},
	}

	n := DefaultNumbering()
	assert.Equal(t, "INV-008", n.Next(models.Invoice, history))
	assert.Equal(t, "EST-100", n.Next(models.Estimate, history))
}

func TestNextFallsBackToCount(t *testing.T) {
	n := DefaultNumbering()
	assert.Equal(t, "INV-001", n.Next(models.Invoice, nil))
	assert.Equal(t, "EST-001", n.Next(models.Estimate, []models.SavedBill{{DocumentType: models.Invoice, BillNumber: "INV-004"}}))

	history := []models.SavedBill{
		{DocumentType: models.Estimate, BillNumber: "EST-001", Timestamp: time.Unix(1, 0)},
		{DocumentType: models.Estimate, BillNumber: "Kitchen job", Timestamp: time.Unix(2, 0)},
	}
	assert.Equal(t, "EST-003", n.Next(models.Estimate, history))

	custom := Numbering{InvoicePrefix: "B", Width: 0}
	assert.Equal(t, "B1", custom.Next(models.Invoice, nil))
}

func TestNextSkipsNumbersInUse(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	n := DefaultNumbering()

	// INV-001 was re-saved after INV-002 and INV-003 were created.
	history := []models.SavedBill{
		{DocumentType: models.Invoice, BillNumber: "INV-002", Timestamp: base},
		{DocumentType: models.Invoice, BillNumber: "INV-003", Timestamp: base.Add(time.Hour)},
		{DocumentType: models.Invoice, BillNumber: "INV-001", Timestamp: base.Add(2 * time.Hour)},
	}
	assert.Equal(t, "INV-004", n.Next(models.Invoice, history))

	fallback := []models.SavedBill{
		{DocumentType: models.Estimate, BillNumber: "Kitchen job", Timestamp: base.Add(time.Hour)},
		{DocumentType: models.Estimate, BillNumber: "EST-002", Timestamp: base},
	}
	assert.Equal(t, "EST-003", n.Next(models.Estimate, fallback))

	// Same number on the other type does not count.
	other := []models.SavedBill{{DocumentType: models.Estimate, BillNumber: "INV-001"}}
	assert.Equal(t, "INV-001", n.Next(models.Invoice, other))
}
