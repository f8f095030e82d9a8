package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType distinguishes invoices from estimates. Bill numbers are
// sequenced independently per type.
type DocumentType string

const (
	Invoice  DocumentType = "invoice"
	Estimate DocumentType = "estimate"
)

// Valid reports whether t is a known document type.
func (t DocumentType) Valid() bool {
	return t == Invoice || t == Estimate
}

// Title returns the heading printed on documents.
func (t DocumentType) Title() string {
	if t == Estimate {
		return "ESTIMATE"
	}
	return "INVOICE"
}

// ParseDocumentType accepts "invoice"/"estimate" in any case, plus "inv"/"est".
func ParseDocumentType(s string) (DocumentType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "invoice", "inv":
		return Invoice, true
	case "estimate", "est", "quotation", "quote":
		return Estimate, true
	}
	return "", false
}

// PaymentStatus applies to invoices only.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
	PaymentPartial PaymentStatus = "Partial"
)

// PaymentStatuses lists every payment status in display order.
var PaymentStatuses = []PaymentStatus{PaymentPending, PaymentPaid, PaymentPartial}

// EstimateStatus applies to estimates only.
type EstimateStatus string

const (
	EstimateDraft           EstimateStatus = "Draft"
	EstimatePendingApproval EstimateStatus = "Pending Approval"
	EstimateInReview        EstimateStatus = "In Review"
	EstimateApproved        EstimateStatus = "Approved"
	EstimateRejected        EstimateStatus = "Rejected"
)

// EstimateStatuses lists every estimate status in display order.
var EstimateStatuses = []EstimateStatus{
	EstimateDraft,
	EstimatePendingApproval,
	EstimateInReview,
	EstimateApproved,
	EstimateRejected,
}

// Party is the contractor or the client printed on a bill.
type Party struct {
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
	GSTIN   string `json:"gstin,omitempty"`
}

// LineItem is one billable row. Amount is always derived from the
// dimensions, quantity, rate and unit; it is never entered by hand.
type LineItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Length      float64 `json:"length"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
	Floor       string  `json:"floor,omitempty"`
	Paid        bool    `json:"paid,omitempty"`
}

// PaymentRecord is an advance or payment received against a bill.
type PaymentRecord struct {
	ID     string    `json:"id"`
	Amount float64   `json:"amount"`
	Date   time.Time `json:"date"`
	Note   string    `json:"note,omitempty"`
}

// ExpenseRecord tracks a cost incurred on the job. It does not affect the
// bill's totals.
type ExpenseRecord struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Amount      float64   `json:"amount"`
	Date        time.Time `json:"date"`
}

// SavedBill is the persistence shape of a bill.
type SavedBill struct {
	ID                 string          `json:"id"`
	Timestamp          time.Time       `json:"timestamp"`
	DocumentType       DocumentType    `json:"documentType"`
	BillNumber         string          `json:"billNumber"`
	BillDate           time.Time       `json:"billDate"`
	PaymentStatus      PaymentStatus   `json:"paymentStatus,omitempty"`
	EstimateStatus     EstimateStatus  `json:"estimateStatus,omitempty"`
	Contractor         Party           `json:"contractor"`
	Client             Party           `json:"client"`
	Items              []LineItem      `json:"items"`
	GSTEnabled         bool            `json:"gstEnabled"`
	GSTRate            float64         `json:"gstRate"`
	Payments           []PaymentRecord `json:"payments"`
	Expenses           []ExpenseRecord `json:"expenses"`
	Disclaimer         string          `json:"disclaimer,omitempty"`
	ConvertedInvoiceID string          `json:"convertedInvoiceId,omitempty"`
	SourceEstimateID   string          `json:"sourceEstimateId,omitempty"`
}

// Draft is the in-progress editor state kept between commands. Bill.ID is
// empty while the draft is not attached to a saved record; LoadedType is
// the document type the attached record was stored with.
type Draft struct {
	Bill       SavedBill    `json:"bill"`
	LoadedType DocumentType `json:"loadedType,omitempty"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// ParsedItem is a line item extracted from spoken or free text.
type ParsedItem struct {
	Description string  `json:"description"`
	Length      float64 `json:"length"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	Unit        string  `json:"unit"`
	Floor       string  `json:"floor,omitempty"`
}

// Totals is the authoritative set of derived bill totals handed to
// renderers and exporters.
type Totals struct {
	SubTotal   decimal.Decimal `json:"subTotal"`
	GST        decimal.Decimal `json:"gst"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
	Balance    decimal.Decimal `json:"balance"`
	Advance    decimal.Decimal `json:"advance"`
}

// Rounded returns t with every amount rounded half away from zero to
// paise. Totals keep full precision until they are shown.
func (t Totals) Rounded() Totals {
	return Totals{
		SubTotal:   t.SubTotal.Round(2),
		GST:        t.GST.Round(2),
		GrandTotal: t.GrandTotal.Round(2),
		Balance:    t.Balance.Round(2),
		Advance:    t.Advance.Round(2),
	}
}
