package session

import (
	"billbook/internal/bill"
	"billbook/internal/calc"
	"billbook/pkg/models"
)

// ItemForm is the open add/edit item form. EditingID is empty when the
// form adds a new row.
type ItemForm struct {
	EditingID string
	Input     bill.ItemInput
}

// Preview returns the quantity and amount the form would commit.
func (f *ItemForm) Preview() calc.Result {
	return f.Input.Preview()
}

// Editing reports whether the form edits an existing row.
func (f *ItemForm) Editing() bool {
	return f.EditingID != ""
}

// BeginItem opens an empty form for a new row, replacing any open form.
func (s *Session) BeginItem() *ItemForm {
	s.form = &ItemForm{Input: bill.ItemInput{Unit: bill.DefaultUnit}}
	return s.form
}

// EditItem opens the form on an existing row.
func (s *Session) EditItem(id string) (*ItemForm, error) {
	const op = "EditItem"

	item, ok := s.bill.Item(id)
	if !ok {
		return nil, NewSessionError(op, bill.ErrItemNotFound, id)
	}
	s.form = &ItemForm{
		EditingID: id,
		Input:     bill.ItemInputFromLineItem(item),
	}
	return s.form, nil
}

// Form returns the open form, if any.
func (s *Session) Form() (*ItemForm, bool) {
	return s.form, s.form != nil
}

// CommitItem adds or updates the row described by the open form and closes
// the form. A rejected form stays open.
func (s *Session) CommitItem() (models.LineItem, error) {
	const op = "CommitItem"

	if s.form == nil {
		return models.LineItem{}, NewSessionError(op, ErrNoOpenForm, "")
	}

	var (
		item models.LineItem
		err  error
	)
	if s.form.Editing() {
		item, err = s.bill.UpdateItem(s.form.EditingID, s.form.Input)
	} else {
		item, err = s.bill.AddItem(s.form.Input)
	}
	if err != nil {
		return models.LineItem{}, WrapSessionError(op, err, "")
	}

	s.form = nil
	s.log.Debug().
		Str("item_id", item.ID).
		Str("unit", item.Unit).
		Float64("amount", item.Amount).
		Msg("Line item committed")
	return item, nil
}

// DiscardItem closes the form without touching the bill.
func (s *Session) DiscardItem() {
	s.form = nil
}
