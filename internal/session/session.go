// Package session holds the editor state for one bill being worked on.
//
// A Session replaces the "current draft" that an editor would otherwise
// keep in global state. It owns the bill, knows whether that bill is
// attached to a saved record, drives the add/edit item form and resolves
// which stored record a save should land on. Storage is injected through
// the Store and DraftStore interfaces.
//
// Save resolves its target in two explicit steps:
//
//  1. The attached record id, if it still exists with the same type.
//  2. A stored record with the same (bill number, document type).
//
// When neither matches, a new record with a fresh id is created. Switching
// the document type of an attached bill detaches it first, so the original
// record is never overwritten with a different type.
package session

import (
	"context"
	"errors"
	"time"

	"billbook/internal/bill"
	"billbook/internal/export"
	"billbook/internal/logger"
	"billbook/internal/store"
	"billbook/pkg/models"
	"billbook/pkg/services"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store is the saved bill history.
type Store interface {
	Load(ctx context.Context, id string) (*models.SavedBill, error)
	FindByNumber(ctx context.Context, docType models.DocumentType, number string) (*models.SavedBill, error)
	Save(ctx context.Context, rec *models.SavedBill) error
	List(ctx context.Context, docType models.DocumentType) ([]models.SavedBill, error)
	ListTrash(ctx context.Context) ([]models.SavedBill, error)
}

// DraftStore adds the autosaved editor draft to Store.
type DraftStore interface {
	Store
	SaveDraft(ctx context.Context, d *models.Draft) error
	LoadDraft(ctx context.Context) (*models.Draft, error)
	ClearDraft(ctx context.Context) error
}

// Options are the defaults applied to new bills.
type Options struct {
	Numbering  bill.Numbering
	Contractor models.Party
	Disclaimer string
	Balance    bill.BalancePolicy
}

// DefaultOptions returns options with the standard numbering and the floor
// balance policy.
func DefaultOptions() Options {
	return Options{
		Numbering: bill.DefaultNumbering(),
		Balance:   bill.BalanceFloor,
	}
}

// Session is the editor state for one bill.
type Session struct {
	store DraftStore
	opts  Options
	log   zerolog.Logger

	bill       *bill.Bill
	loadedType models.DocumentType // type of the attached record
	form       *ItemForm
}

var (
	newRecordID = uuid.NewString
	now         = time.Now
)

func newSession(st DraftStore, opts Options) *Session {
	if opts.Numbering == (bill.Numbering{}) {
		opts.Numbering = bill.DefaultNumbering()
	}
	if opts.Balance == "" {
		opts.Balance = bill.BalanceFloor
	}
	return &Session{
		store: st,
		opts:  opts,
		log:   logger.WithComponent("session"),
	}
}

// New starts a blank bill of the given type with the next bill number.
func New(ctx context.Context, st DraftStore, docType models.DocumentType, opts Options) (*Session, error) {
	const op = "New"

	s := newSession(st, opts)
	if err := s.startBlank(ctx, docType); err != nil {
		return nil, WrapSessionError(op, err, "could not number new bill")
	}
	return s, nil
}

func (s *Session) startBlank(ctx context.Context, docType models.DocumentType) error {
	b := bill.New(docType)
	number, err := s.nextNumber(ctx, b.DocumentType())
	if err != nil {
		return err
	}
	b.BillNumber = number
	b.Contractor = s.opts.Contractor
	b.Disclaimer = s.opts.Disclaimer

	s.bill = b
	s.loadedType = ""
	s.form = nil

	s.log.Debug().
		Str("type", string(b.DocumentType())).
		Str("bill_number", number).
		Msg("Started new bill")
	return nil
}

// Resume restores the autosaved draft, or starts a new invoice when there
// is none.
func Resume(ctx context.Context, st DraftStore, opts Options) (*Session, error) {
	const op = "Resume"

	s := newSession(st, opts)
	draft, err := st.LoadDraft(ctx)
	if errors.Is(err, store.ErrNotFound) {
		if err := s.startBlank(ctx, models.Invoice); err != nil {
			return nil, WrapSessionError(op, err, "could not number new bill")
		}
		return s, nil
	}
	if err != nil {
		return nil, WrapSessionError(op, err, "could not load draft")
	}

	s.bill = bill.FromRecord(draft.Bill)
	s.loadedType = draft.LoadedType
	if s.bill.ID == "" {
		s.loadedType = ""
	}
	return s, nil
}

// Open replaces the current bill with a saved record.
func (s *Session) Open(ctx context.Context, id string) error {
	const op = "Open"

	rec, err := s.store.Load(ctx, id)
	if err != nil {
		return WrapSessionError(op, err, "bill "+id)
	}

	s.bill = bill.FromRecord(*rec)
	s.loadedType = s.bill.DocumentType()
	s.form = nil

	s.log.Info().
		Str("id", rec.ID).
		Str("bill_number", rec.BillNumber).
		Msg("Opened saved bill")
	return nil
}

// Reset discards the current bill and starts a blank one of docType.
func (s *Session) Reset(ctx context.Context, docType models.DocumentType) error {
	const op = "Reset"
	return WrapSessionError(op, s.startBlank(ctx, docType), "")
}

// Bill returns the bill being edited.
func (s *Session) Bill() *bill.Bill {
	return s.bill
}

// Options returns the options the session was created with.
func (s *Session) Options() Options {
	return s.opts
}

// Attached reports whether the bill is linked to a saved record.
func (s *Session) Attached() bool {
	return s.bill.ID != ""
}

// LoadedType is the stored type of the attached record, empty when detached.
func (s *Session) LoadedType() models.DocumentType {
	return s.loadedType
}

// SetDocumentType switches between invoice and estimate. An attached bill
// whose record has a different type is detached; in every case the bill is
// renumbered in the sequence of the new type.
func (s *Session) SetDocumentType(ctx context.Context, t models.DocumentType) error {
	const op = "SetDocumentType"

	if !t.Valid() {
		return NewSessionError(op, ErrInvalidDocumentType, string(t))
	}
	if t == s.bill.DocumentType() {
		return nil
	}

	number, err := s.nextNumber(ctx, t)
	if err != nil {
		return WrapSessionError(op, err, "could not renumber bill")
	}

	if s.Attached() && s.loadedType != t {
		s.log.Info().
			Str("id", s.bill.ID).
			Str("from", string(s.loadedType)).
			Str("to", string(t)).
			Msg("Detaching bill from saved record")
		s.bill.Detach()
		s.loadedType = ""
	}

	s.bill.SetDocumentType(t)
	s.bill.BillNumber = number
	return nil
}

// Save writes the bill to the store and attaches the session to the
// written record.
func (s *Session) Save(ctx context.Context) (*models.SavedBill, error) {
	const op = "Save"

	rec := s.bill.ToRecord()
	target, err := s.resolveTarget(ctx, rec)
	if err != nil {
		return nil, WrapSessionError(op, err, "could not resolve saved record")
	}

	created := target == nil
	if created {
		rec.ID = newRecordID()
	} else {
		rec.ID = target.ID
	}
	rec.Timestamp = now()

	if err := s.store.Save(ctx, &rec); err != nil {
		return nil, WrapSessionError(op, err, "bill "+rec.BillNumber)
	}

	s.bill.ID = rec.ID
	s.loadedType = rec.DocumentType

	s.log.Info().
		Str("id", rec.ID).
		Str("type", string(rec.DocumentType)).
		Str("bill_number", rec.BillNumber).
		Bool("created", created).
		Msg("Bill saved")
	return &rec, nil
}

func (s *Session) resolveTarget(ctx context.Context, rec models.SavedBill) (*models.SavedBill, error) {
	if rec.ID != "" {
		found, err := s.store.Load(ctx, rec.ID)
		switch {
		case err == nil && found.DocumentType == rec.DocumentType:
			return found, nil
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return nil, err
		}
	}

	found, err := s.store.FindByNumber(ctx, rec.DocumentType, rec.BillNumber)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return found, nil
}

// ConvertToInvoice creates and saves an invoice from the attached approved
// estimate, links the estimate to it and saves the estimate. The session
// stays on the estimate.
func (s *Session) ConvertToInvoice(ctx context.Context) (*models.SavedBill, error) {
	const op = "ConvertToInvoice"

	if !s.Attached() {
		return nil, NewSessionError(op, ErrNotSaved, "save the estimate before converting")
	}
	if !s.bill.CanConvert() {
		_, err := s.bill.ConvertToInvoice("")
		return nil, WrapSessionError(op, err, "")
	}

	number, err := s.nextNumber(ctx, models.Invoice)
	if err != nil {
		return nil, WrapSessionError(op, err, "could not number invoice")
	}
	inv, err := s.bill.ConvertToInvoice(number)
	if err != nil {
		return nil, WrapSessionError(op, err, "")
	}

	rec := inv.ToRecord()
	rec.ID = newRecordID()
	rec.Timestamp = now()
	if err := s.store.Save(ctx, &rec); err != nil {
		return nil, WrapSessionError(op, err, "invoice "+rec.BillNumber)
	}

	if err := s.bill.LinkConversion(rec.ID); err != nil {
		return nil, WrapSessionError(op, err, "")
	}
	if _, err := s.Save(ctx); err != nil {
		return nil, WrapSessionError(op, err, "estimate "+s.bill.BillNumber)
	}

	s.log.Info().
		Str("estimate", s.bill.BillNumber).
		Str("invoice", rec.BillNumber).
		Str("invoice_id", rec.ID).
		Msg("Estimate converted to invoice")
	return &rec, nil
}

// History lists saved bills of docType, newest first. An empty docType
// lists every type.
func (s *Session) History(ctx context.Context, docType models.DocumentType) ([]models.SavedBill, error) {
	const op = "History"

	recs, err := s.store.List(ctx, docType)
	if err != nil {
		return nil, WrapSessionError(op, err, "")
	}
	return recs, nil
}

// nextNumber numbers against live and trashed records, so neither a
// restore nor a later save by number can land on another bill.
func (s *Session) nextNumber(ctx context.Context, t models.DocumentType) (string, error) {
	history, err := s.store.List(ctx, t)
	if err != nil {
		return "", err
	}
	trashed, err := s.store.ListTrash(ctx)
	if err != nil {
		return "", err
	}
	return s.opts.Numbering.Next(t, append(history, trashed...)), nil
}

// Persist autosaves the current bill as the draft.
func (s *Session) Persist(ctx context.Context) error {
	const op = "Persist"

	d := &models.Draft{
		Bill:       s.bill.ToRecord(),
		LoadedType: s.loadedType,
	}
	return WrapSessionError(op, s.store.SaveDraft(ctx, d), "")
}

// Close drops the autosaved draft. The next Resume starts a new bill.
func (s *Session) Close(ctx context.Context) error {
	const op = "Close"
	return WrapSessionError(op, s.store.ClearDraft(ctx), "")
}

// Payload returns the export payload of the current bill.
func (s *Session) Payload() *services.ExportPayload {
	return export.BuildPayload(s.bill, s.opts.Balance)
}

// DisplayTotals returns the bill totals rounded to paise, with the
// balance replaced by the balance shown under the session's policy.
func (s *Session) DisplayTotals() models.Totals {
	t := s.bill.Totals().Rounded()
	t.Balance = bill.DisplayBalance(t, s.bill.DocumentType(), s.bill.PaymentStatus(), s.opts.Balance)
	return t
}
