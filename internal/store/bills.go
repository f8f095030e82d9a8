package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"billbook/pkg/models"
)

type billRow struct {
	ID           string        `db:"id"`
	DocumentType string        `db:"document_type"`
	BillNumber   string        `db:"bill_number"`
	SavedAt      int64         `db:"saved_at"`
	TrashedAt    sql.NullInt64 `db:"trashed_at"`
	Data         string        `db:"data"`
}

func (r billRow) decode() (models.SavedBill, error) {
	var rec models.SavedBill
	if err := json.Unmarshal([]byte(r.Data), &rec); err != nil {
		return models.SavedBill{}, fmt.Errorf("decode bill %s: %w", r.ID, err)
	}
	return rec, nil
}

func decodeRows(rows []billRow) ([]models.SavedBill, error) {
	out := make([]models.SavedBill, 0, len(rows))
	for _, row := range rows {
		rec, err := row.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Load returns the saved bill with the given id.
func (s *Store) Load(ctx context.Context, id string) (*models.SavedBill, error) {
	const op = "Load"

	var row billRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM bills WHERE id = ? AND trashed_at IS NULL`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: bill %s: %w", op, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query bill %s: %w", op, id, err)
	}

	rec, err := row.decode()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &rec, nil
}

// FindByNumber returns the most recently saved bill of the given type and
// number.
func (s *Store) FindByNumber(ctx context.Context, docType models.DocumentType, number string) (*models.SavedBill, error) {
	const op = "FindByNumber"

	var row billRow
	err := s.db.GetContext(ctx, &row,
		`SELECT * FROM bills
         WHERE document_type = ? AND bill_number = ? AND trashed_at IS NULL
         ORDER BY saved_at DESC LIMIT 1`,
		string(docType), number)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %s %s: %w", op, docType, number, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query bill %s: %w", op, number, err)
	}

	rec, err := row.decode()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &rec, nil
}

// Save inserts the bill or replaces the stored bill with the same id.
// A zero Timestamp is set to the current time.
func (s *Store) Save(ctx context.Context, rec *models.SavedBill) error {
	const op = "Save"

	if rec.ID == "" {
		return fmt.Errorf("%s: %w", op, ErrMissingID)
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%s: failed to encode bill %s: %w", op, rec.ID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO bills (id, document_type, bill_number, saved_at, data)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             document_type = excluded.document_type,
             bill_number = excluded.bill_number,
             saved_at = excluded.saved_at,
             data = excluded.data`,
		rec.ID, string(rec.DocumentType), rec.BillNumber, rec.Timestamp.UnixNano(), string(data))
	if err != nil {
		return fmt.Errorf("%s: failed to write bill %s: %w", op, rec.ID, err)
	}

	s.log.Debug().
		Str("id", rec.ID).
		Str("type", string(rec.DocumentType)).
		Str("bill_number", rec.BillNumber).
		Msg("Bill saved")
	return nil
}

// List returns saved bills, newest first. An empty docType lists every type.
func (s *Store) List(ctx context.Context, docType models.DocumentType) ([]models.SavedBill, error) {
	const op = "List"

	var rows []billRow
	var err error
	if docType == "" {
		err = s.db.SelectContext(ctx, &rows,
			`SELECT * FROM bills WHERE trashed_at IS NULL ORDER BY saved_at DESC`)
	} else {
		err = s.db.SelectContext(ctx, &rows,
			`SELECT * FROM bills WHERE trashed_at IS NULL AND document_type = ? ORDER BY saved_at DESC`,
			string(docType))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query bills: %w", op, err)
	}

	out, err := decodeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// Trash moves a bill to the trash.
func (s *Store) Trash(ctx context.Context, id string) error {
	const op = "Trash"
	return s.setTrashed(ctx, op, id, sql.NullInt64{Int64: time.Now().UnixNano(), Valid: true}, "trashed_at IS NULL")
}

// Restore brings a trashed bill back into the history.
func (s *Store) Restore(ctx context.Context, id string) error {
	const op = "Restore"
	return s.setTrashed(ctx, op, id, sql.NullInt64{}, "trashed_at IS NOT NULL")
}

func (s *Store) setTrashed(ctx context.Context, op, id string, at sql.NullInt64, cond string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE bills SET trashed_at = ? WHERE id = ? AND `+cond, at, id)
	if err != nil {
		return fmt.Errorf("%s: failed to update bill %s: %w", op, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to update bill %s: %w", op, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: bill %s: %w", op, id, ErrNotFound)
	}

	s.log.Info().Str("id", id).Str("op", op).Msg("Bill trash state changed")
	return nil
}

// ListTrash returns trashed bills, most recently trashed first.
func (s *Store) ListTrash(ctx context.Context) ([]models.SavedBill, error) {
	const op = "ListTrash"

	var rows []billRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM bills WHERE trashed_at IS NOT NULL ORDER BY trashed_at DESC`); err != nil {
		return nil, fmt.Errorf("%s: failed to query trash: %w", op, err)
	}

	out, err := decodeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// Purge permanently deletes a trashed bill.
func (s *Store) Purge(ctx context.Context, id string) error {
	const op = "Purge"

	res, err := s.db.ExecContext(ctx, `DELETE FROM bills WHERE id = ? AND trashed_at IS NOT NULL`, id)
	if err != nil {
		return fmt.Errorf("%s: failed to delete bill %s: %w", op, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: trashed bill %s: %w", op, id, ErrNotFound)
	}
	return nil
}
