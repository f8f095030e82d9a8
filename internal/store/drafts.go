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

const currentDraft = "current"

// SaveDraft replaces the stored editor draft.
func (s *Store) SaveDraft(ctx context.Context, d *models.Draft) error {
	const op = "SaveDraft"

	d.UpdatedAt = time.Now()
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("%s: failed to encode draft: %w", op, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO drafts (slot, data, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(slot) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		currentDraft, string(data), d.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("%s: failed to write draft: %w", op, err)
	}
	return nil
}

// LoadDraft returns the stored editor draft.
func (s *Store) LoadDraft(ctx context.Context) (*models.Draft, error) {
	const op = "LoadDraft"

	var data string
	err := s.db.GetContext(ctx, &data, `SELECT data FROM drafts WHERE slot = ?`, currentDraft)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query draft: %w", op, err)
	}

	var d models.Draft
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, fmt.Errorf("%s: failed to decode draft: %w", op, err)
	}
	return &d, nil
}

// ClearDraft removes the stored editor draft. Clearing a missing draft is
// not an error.
func (s *Store) ClearDraft(ctx context.Context) error {
	const op = "ClearDraft"

	if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE slot = ?`, currentDraft); err != nil {
		return fmt.Errorf("%s: failed to delete draft: %w", op, err)
	}
	return nil
}
