package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"billbook/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "bills.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func record(id string, t models.DocumentType, number string, at time.Time) *models.SavedBill {
	return &models.SavedBill{
		ID:           id,
		Timestamp:    at,
		DocumentType: t,
		BillNumber:   number,
		Items: []models.LineItem{
			{ID: "i1", Description: "Plaster", Length: 10, Width: 12, Quantity: 1, Unit: "sq.ft", Rate: 45, Amount: 5400},
		},
		Payments: []models.PaymentRecord{},
		Expenses: []models.ExpenseRecord{},
	}
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	rec := record("a", models.Invoice, "INV-001", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.Save(ctx, rec))

	got, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "INV-001", got.BillNumber)
	assert.Equal(t, models.Invoice, got.DocumentType)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 5400.0, got.Items[0].Amount)
	assert.True(t, rec.Timestamp.Equal(got.Timestamp))

	_, err = s.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveReplacesSameID(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	rec := record("a", models.Invoice, "INV-001", time.Now())
	require.NoError(t, s.Save(ctx, rec))
	rec.BillNumber = "INV-001-R"
	require.NoError(t, s.Save(ctx, rec))

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "INV-001-R", all[0].BillNumber)
}

func TestSaveRequiresID(t *testing.T) {
	s := openTestStore(t)
	err := s.Save(context.Background(), &models.SavedBill{BillNumber: "INV-001"})
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestSaveStampsZeroTimestamp(t *testing.T) {
	s := openTestStore(t)
	rec := record("a", models.Invoice, "INV-001", time.Time{})
	require.NoError(t, s.Save(context.Background(), rec))
	assert.False(t, rec.Timestamp.IsZero())
}

func TestListNewestFirstAndByType(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, record("a", models.Invoice, "INV-001", base)))
	require.NoError(t, s.Save(ctx, record("b", models.Estimate, "EST-001", base.Add(time.Hour))))
	require.NoError(t, s.Save(ctx, record("c", models.Invoice, "INV-002", base.Add(2*time.Hour))))

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].ID, all[1].ID, all[2].ID})

	invoices, err := s.List(ctx, models.Invoice)
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.Equal(t, "INV-002", invoices[0].BillNumber)
}

func TestFindByNumberIsScopedByType(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Save(ctx, record("inv", models.Invoice, "001", time.Now())))
	require.NoError(t, s.Save(ctx, record("est", models.Estimate, "001", time.Now())))

	got, err := s.FindByNumber(ctx, models.Estimate, "001")
	require.NoError(t, err)
	assert.Equal(t, "est", got.ID)

	_, err = s.FindByNumber(ctx, models.Invoice, "002")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTrashRestorePurge(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Save(ctx, record("a", models.Invoice, "INV-001", time.Now())))

	require.NoError(t, s.Trash(ctx, "a"))
	_, err := s.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.FindByNumber(ctx, models.Invoice, "INV-001")
	assert.ErrorIs(t, err, ErrNotFound)

	trash, err := s.ListTrash(ctx)
	require.NoError(t, err)
	require.Len(t, trash, 1)
	assert.Equal(t, "a", trash[0].ID)

	assert.ErrorIs(t, s.Trash(ctx, "a"), ErrNotFound)

	require.NoError(t, s.Restore(ctx, "a"))
	_, err = s.Load(ctx, "a")
	require.NoError(t, err)
	assert.ErrorIs(t, s.Restore(ctx, "a"), ErrNotFound)

	assert.ErrorIs(t, s.Purge(ctx, "a"), ErrNotFound, "only trashed bills can be purged")
	require.NoError(t, s.Trash(ctx, "a"))
	require.NoError(t, s.Purge(ctx, "a"))

	trash, err = s.ListTrash(ctx)
	require.NoError(t, err)
	assert.Empty(t, trash)
}

func TestDraftLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.LoadDraft(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	d := &models.Draft{
		Bill:       *record("a", models.Estimate, "EST-004", time.Time{}),
		LoadedType: models.Estimate,
	}
	require.NoError(t, s.SaveDraft(ctx, d))
	assert.False(t, d.UpdatedAt.IsZero())

	got, err := s.LoadDraft(ctx)
	require.NoError(t, err)
	assert.Equal(t, "EST-004", got.Bill.BillNumber)
	assert.Equal(t, models.Estimate, got.LoadedType)

	d.Bill.BillNumber = "EST-005"
	require.NoError(t, s.SaveDraft(ctx, d))
	got, err = s.LoadDraft(ctx)
	require.NoError(t, err)
	assert.Equal(t, "EST-005", got.Bill.BillNumber)

	require.NoError(t, s.ClearDraft(ctx))
	require.NoError(t, s.ClearDraft(ctx))
	_, err = s.LoadDraft(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bills.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, record("a", models.Invoice, "INV-001", time.Now())))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "INV-001", got.BillNumber)
}
