// Package bill implements the bill aggregate: the ordered line items, GST
// settings, payments and expenses of one invoice or estimate, and the totals
// derived from them.
//
// Totals are never cached. Every call to Totals walks the current items and
// payments, so a change to any of them is visible on the next read. The
// collections are owned by the Bill; accessors hand out copies.
package bill

import (
	"math"
	"slices"
	"strings"
	"time"

	"billbook/pkg/models"
	"github.com/google/uuid"
)

// DefaultGSTRate is the GST percentage used when a bill has none set.
const DefaultGSTRate = 18.0

// DefaultExpenseCategory is used for expenses recorded without a category.
const DefaultExpenseCategory = "General"

var newID = uuid.NewString

// Bill is one invoice or estimate being edited.
type Bill struct {
	ID         string // permanent record id, empty while unsaved
	BillNumber string
	BillDate   time.Time
	Contractor models.Party
	Client     models.Party
	Disclaimer string

	docType            models.DocumentType
	paymentStatus      models.PaymentStatus
	estimateStatus     models.EstimateStatus
	convertedInvoiceID string
	sourceEstimateID   string

	items    []models.LineItem
	payments []models.PaymentRecord
	expenses []models.ExpenseRecord

	gstEnabled bool
	gstRate    float64
}

// New returns an empty bill of the given type dated today.
func New(docType models.DocumentType) *Bill {
	if !docType.Valid() {
		docType = models.Invoice
	}
	now := time.Now()
	b := &Bill{
		BillDate: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
		docType:  docType,
		gstRate:  DefaultGSTRate,
	}
	b.defaultStatuses()
	return b
}

func (b *Bill) defaultStatuses() {
	if b.paymentStatus == "" {
		b.paymentStatus = models.PaymentPending
	}
	if b.estimateStatus == "" {
		b.estimateStatus = models.EstimateDraft
	}
}

// DocumentType returns whether the bill is an invoice or an estimate.
func (b *Bill) DocumentType() models.DocumentType {
	return b.docType
}

// SetDocumentType changes the document type. Detaching from a saved record
// and renumbering are the editor session's concern.
func (b *Bill) SetDocumentType(t models.DocumentType) {
	if !t.Valid() {
		return
	}
	b.docType = t
	b.defaultStatuses()
}

// Items returns a copy of the line items in display order.
func (b *Bill) Items() []models.LineItem {
	return slices.Clone(b.items)
}

// Item returns the line item with the given id.
func (b *Bill) Item(id string) (models.LineItem, bool) {
	i := b.itemIndex(id)
	if i < 0 {
		return models.LineItem{}, false
	}
	return b.items[i], true
}

func (b *Bill) itemIndex(id string) int {
	return slices.IndexFunc(b.items, func(it models.LineItem) bool { return it.ID == id })
}

// AddItem appends a new line item built from in.
func (b *Bill) AddItem(in ItemInput) (models.LineItem, error) {
	item, err := in.Build(newID())
	if err != nil {
		return models.LineItem{}, err
	}
	b.items = append(b.items, item)
	return item, nil
}

// UpdateItem replaces the item with the given id by a resubmitted form,
// keeping its position.
func (b *Bill) UpdateItem(id string, in ItemInput) (models.LineItem, error) {
	i := b.itemIndex(id)
	if i < 0 {
		return models.LineItem{}, NewValidationError("id", id, ErrItemNotFound)
	}
	item, err := in.Build(id)
	if err != nil {
		return models.LineItem{}, err
	}
	b.items[i] = item
	return item, nil
}

// RemoveItem deletes a line item.
func (b *Bill) RemoveItem(id string) error {
	i := b.itemIndex(id)
	if i < 0 {
		return NewValidationError("id", id, ErrItemNotFound)
	}
	b.items = slices.Delete(b.items, i, i+1)
	return nil
}

// MoveItem moves a line item to position to, clamped to the list bounds.
func (b *Bill) MoveItem(id string, to int) error {
	i := b.itemIndex(id)
	if i < 0 {
		return NewValidationError("id", id, ErrItemNotFound)
	}
	item := b.items[i]
	b.items = slices.Delete(b.items, i, i+1)
	to = max(0, min(to, len(b.items)))
	b.items = slices.Insert(b.items, to, item)
	return nil
}

// Payments returns a copy of the recorded payments.
func (b *Bill) Payments() []models.PaymentRecord {
	return slices.Clone(b.payments)
}

// AddPayment records a payment received against the bill.
func (b *Bill) AddPayment(amount float64, date time.Time, note string) (models.PaymentRecord, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return models.PaymentRecord{}, NewValidationError("amount", amount, ErrInvalidPayment)
	}
	if date.IsZero() {
		date = time.Now()
	}
	p := models.PaymentRecord{
		ID:     newID(),
		Amount: amount,
		Date:   date,
		Note:   strings.TrimSpace(note),
	}
	b.payments = append(b.payments, p)
	return p, nil
}

// RemovePayment deletes a payment. Payments are otherwise immutable.
func (b *Bill) RemovePayment(id string) error {
	i := slices.IndexFunc(b.payments, func(p models.PaymentRecord) bool { return p.ID == id })
	if i < 0 {
		return NewValidationError("id", id, ErrPaymentNotFound)
	}
	b.payments = slices.Delete(b.payments, i, i+1)
	return nil
}

// Expenses returns a copy of the recorded job expenses.
func (b *Bill) Expenses() []models.ExpenseRecord {
	return slices.Clone(b.expenses)
}

// AddExpense records a cost incurred on the job.
func (b *Bill) AddExpense(category, description string, amount float64, date time.Time) (models.ExpenseRecord, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return models.ExpenseRecord{}, NewValidationError("amount", amount, ErrInvalidExpense)
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = DefaultExpenseCategory
	}
	if date.IsZero() {
		date = time.Now()
	}
	e := models.ExpenseRecord{
		ID:          newID(),
		Category:    category,
		Description: strings.TrimSpace(description),
		Amount:      amount,
		Date:        date,
	}
	b.expenses = append(b.expenses, e)
	return e, nil
}

// RemoveExpense deletes an expense.
func (b *Bill) RemoveExpense(id string) error {
	i := slices.IndexFunc(b.expenses, func(e models.ExpenseRecord) bool { return e.ID == id })
	if i < 0 {
		return NewValidationError("id", id, ErrExpenseNotFound)
	}
	b.expenses = slices.Delete(b.expenses, i, i+1)
	return nil
}

// GSTEnabled reports whether GST is charged on the bill.
func (b *Bill) GSTEnabled() bool {
	return b.gstEnabled
}

// GSTRate returns the stored GST percentage, which may be 0 on old records.
// Use EffectiveGSTRate for arithmetic.
func (b *Bill) GSTRate() float64 {
	return b.gstRate
}

// SetGST toggles GST and sets its percentage.
func (b *Bill) SetGST(enabled bool, rate float64) {
	b.gstEnabled = enabled
	b.gstRate = finite(rate)
}

// Clone returns a deep copy that shares no collections with b.
func (b *Bill) Clone() *Bill {
	c := *b
	c.items = slices.Clone(b.items)
	c.payments = slices.Clone(b.payments)
	c.expenses = slices.Clone(b.expenses)
	return &c
}

// Detach turns the bill into a new unsaved document. The record id and the
// conversion links belong to the saved record and are dropped.
func (b *Bill) Detach() {
	b.ID = ""
	b.convertedInvoiceID = ""
	b.sourceEstimateID = ""
}
