package bill

import (
	"strings"

	"billbook/pkg/models"
)

// ParsePaymentStatus matches a payment status case-insensitively.
func ParsePaymentStatus(s string) (models.PaymentStatus, bool) {
	for _, st := range models.PaymentStatuses {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, true
		}
	}
	return "", false
}

// ParseEstimateStatus matches an estimate status case-insensitively,
// accepting "pending-approval" and "in_review" spellings.
func ParseEstimateStatus(s string) (models.EstimateStatus, bool) {
	norm := strings.NewReplacer("-", " ", "_", " ").Replace(strings.TrimSpace(s))
	for _, st := range models.EstimateStatuses {
		if strings.EqualFold(string(st), norm) {
			return st, true
		}
	}
	return "", false
}

// PaymentStatus returns the invoice payment status.
func (b *Bill) PaymentStatus() models.PaymentStatus {
	return b.paymentStatus
}

// EstimateStatus returns the estimate approval status.
func (b *Bill) EstimateStatus() models.EstimateStatus {
	return b.estimateStatus
}

// SetPaymentStatus sets the status of an invoice. Any status may follow any other.
func (b *Bill) SetPaymentStatus(s models.PaymentStatus) error {
	if b.docType != models.Invoice {
		return NewValidationError("paymentStatus", s, ErrInvalidStatus)
	}
	if _, ok := ParsePaymentStatus(string(s)); !ok {
		return NewValidationError("paymentStatus", s, ErrInvalidStatus)
	}
	b.paymentStatus = s
	return nil
}

// SetEstimateStatus sets the status of an estimate. Any status may follow any other.
func (b *Bill) SetEstimateStatus(s models.EstimateStatus) error {
	if b.docType != models.Estimate {
		return NewValidationError("estimateStatus", s, ErrInvalidStatus)
	}
	if _, ok := ParseEstimateStatus(string(s)); !ok {
		return NewValidationError("estimateStatus", s, ErrInvalidStatus)
	}
	b.estimateStatus = s
	return nil
}

// SetStatus parses raw against the status set of the bill's type.
func (b *Bill) SetStatus(raw string) error {
	if b.docType == models.Estimate {
		st, ok := ParseEstimateStatus(raw)
		if !ok {
			return NewValidationError("estimateStatus", raw, ErrInvalidStatus)
		}
		return b.SetEstimateStatus(st)
	}
	st, ok := ParsePaymentStatus(raw)
	if !ok {
		return NewValidationError("paymentStatus", raw, ErrInvalidStatus)
	}
	return b.SetPaymentStatus(st)
}

// StatusLabel returns the status relevant to the bill's type.
func (b *Bill) StatusLabel() string {
	if b.docType == models.Estimate {
		return string(b.estimateStatus)
	}
	return string(b.paymentStatus)
}

// ConvertedInvoiceID is the id of the invoice created from this estimate.
func (b *Bill) ConvertedInvoiceID() string {
	return b.convertedInvoiceID
}

// SourceEstimateID is the id of the estimate this invoice was created from.
func (b *Bill) SourceEstimateID() string {
	return b.sourceEstimateID
}

// CanConvert reports whether the bill is an approved, unconverted estimate.
func (b *Bill) CanConvert() bool {
	return b.docType == models.Estimate &&
		b.estimateStatus == models.EstimateApproved &&
		b.convertedInvoiceID == ""
}

// ConvertToInvoice builds an unsaved invoice from an approved estimate.
// Payments and expenses stay with the estimate. The caller saves the
// invoice and then calls LinkConversion with its id.
func (b *Bill) ConvertToInvoice(number string) (*Bill, error) {
	if b.docType == models.Estimate && b.convertedInvoiceID != "" {
		return nil, ErrAlreadyConverted
	}
	if !b.CanConvert() {
		return nil, ErrConversionNotAllowed
	}

	inv := New(models.Invoice)
	inv.BillNumber = number
	inv.Contractor = b.Contractor
	inv.Client = b.Client
	inv.Disclaimer = b.Disclaimer
	inv.gstEnabled = b.gstEnabled
	inv.gstRate = b.gstRate
	inv.sourceEstimateID = b.ID
	for _, item := range b.items {
		item.Paid = false
		inv.items = append(inv.items, item)
	}
	return inv, nil
}

// LinkConversion records the invoice created from this estimate. The link
// is set once and never cleared.
func (b *Bill) LinkConversion(invoiceID string) error {
	if b.convertedInvoiceID != "" {
		return ErrAlreadyConverted
	}
	if strings.TrimSpace(invoiceID) == "" {
		return NewValidationError("convertedInvoiceId", invoiceID, ErrConversionNotAllowed)
	}
	b.convertedInvoiceID = invoiceID
	return nil
}
