package bill

import (
	"slices"

	"billbook/pkg/models"
)

// ToRecord returns the persistence shape of the bill. Timestamp is left
// for the caller to set at save time.
func (b *Bill) ToRecord() models.SavedBill {
	rec := models.SavedBill{
		ID:                 b.ID,
		DocumentType:       b.docType,
		BillNumber:         b.BillNumber,
		BillDate:           b.BillDate,
		Contractor:         b.Contractor,
		Client:             b.Client,
		Items:              slices.Clone(b.items),
		GSTEnabled:         b.gstEnabled,
		GSTRate:            b.gstRate,
		Payments:           slices.Clone(b.payments),
		Expenses:           slices.Clone(b.expenses),
		Disclaimer:         b.Disclaimer,
		ConvertedInvoiceID: b.convertedInvoiceID,
		SourceEstimateID:   b.sourceEstimateID,
	}
	if b.docType == models.Estimate {
		rec.EstimateStatus = b.estimateStatus
	} else {
		rec.PaymentStatus = b.paymentStatus
	}
	if rec.Items == nil {
		rec.Items = []models.LineItem{}
	}
	if rec.Payments == nil {
		rec.Payments = []models.PaymentRecord{}
	}
	if rec.Expenses == nil {
		rec.Expenses = []models.ExpenseRecord{}
	}
	return rec
}

// FromRecord rebuilds a bill from its persistence shape. Item amounts are
// recomputed so a stored amount can never disagree with its dimensions.
func FromRecord(rec models.SavedBill) *Bill {
	docType := rec.DocumentType
	if !docType.Valid() {
		docType = models.Invoice
	}

	b := &Bill{
		ID:                 rec.ID,
		BillNumber:         rec.BillNumber,
		BillDate:           rec.BillDate,
		Contractor:         rec.Contractor,
		Client:             rec.Client,
		Disclaimer:         rec.Disclaimer,
		docType:            docType,
		paymentStatus:      rec.PaymentStatus,
		estimateStatus:     rec.EstimateStatus,
		convertedInvoiceID: rec.ConvertedInvoiceID,
		sourceEstimateID:   rec.SourceEstimateID,
		payments:           slices.Clone(rec.Payments),
		expenses:           slices.Clone(rec.Expenses),
		gstEnabled:         rec.GSTEnabled,
		gstRate:            finite(rec.GSTRate),
	}
	if _, ok := ParsePaymentStatus(string(b.paymentStatus)); !ok {
		b.paymentStatus = ""
	}
	if _, ok := ParseEstimateStatus(string(b.estimateStatus)); !ok {
		b.estimateStatus = ""
	}
	b.defaultStatuses()

	b.items = make([]models.LineItem, 0, len(rec.Items))
	for _, item := range rec.Items {
		id := item.ID
		if id == "" {
			id = newID()
		}
		b.items = append(b.items, normalizeItem(ItemInputFromLineItem(item), id))
	}
	return b
}
