package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"billbook/internal/bill"
	"billbook/pkg/models"
	"billbook/pkg/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func samplePayload(t *testing.T) *services.ExportPayload {
	t.Helper()
	b := bill.New(models.Invoice)
	b.BillNumber = "INV-008"
	b.BillDate = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	b.Contractor = models.Party{Name: "Shree Builders", Phone: "98200 00000", GSTIN: "27ABCDE1234F1Z5"}
	b.Client = models.Party{Name: "Mr. Patil", Address: "Flat 4, Kothrud, Pune"}
	b.Disclaimer = "Material rates are subject to change."

	_, err := b.AddItem(bill.ItemInput{Description: "Wall plaster", Length: 10, Width: 12, Quantity: 1, Rate: 45, Unit: "sq.ft", Floor: "First floor"})
	require.NoError(t, err)
	_, err = b.AddItem(bill.ItemInput{Description: "River sand", Length: 10, Width: 12, Height: 4, Quantity: 1, Rate: 4000, Unit: "brass"})
	require.NoError(t, err)
	b.SetGST(true, 18)
	_, err = b.AddPayment(10000, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), "advance")
	require.NoError(t, err)

	return BuildPayload(b, bill.BalanceFloor)
}

func TestMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"5400", "5,400.00"},
		{"29028", "29,028.00"},
		{"100000", "1,00,000.00"},
		{"1234567.5", "12,34,567.50"},
		{"10000000", "1,00,00,000.00"},
		{"0.285", "0.29"},
		{"-472", "-472.00"},
		{"-123456.789", "-1,23,456.79"},
		{"999.995", "1,000.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Money(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestQty(t *testing.T) {
	assert.Equal(t, "4.8", Qty(4.8))
	assert.Equal(t, "120", Qty(120))
	assert.Equal(t, "0.13", Qty(0.125))
	assert.Equal(t, "", Number(0))
	assert.Equal(t, "12", Number(12))
}

func TestBuildPayload(t *testing.T) {
	p := samplePayload(t)

	assert.Equal(t, "INVOICE", p.Title)
	assert.Equal(t, "Pending", p.StatusLabel)
	require.Len(t, p.Rows, 2)
	assert.Equal(t, "sq.ft", p.Rows[0].Unit)
	assert.Equal(t, 120.0, p.Rows[0].TotalQty)
	assert.Equal(t, "brass", p.Rows[1].Unit)
	assert.InDelta(t, 4.8, p.Rows[1].TotalQty, 1e-9)
	assert.True(t, p.Rows[1].Amount.Equal(decimal.NewFromInt(19200)))

	assert.True(t, p.Totals.SubTotal.Equal(decimal.NewFromInt(24600)))
	assert.True(t, p.Totals.GST.Equal(decimal.NewFromInt(4428)))
	assert.True(t, p.Totals.GrandTotal.Equal(decimal.NewFromInt(29028)))
	assert.True(t, p.DisplayBalance.Equal(decimal.NewFromInt(19028)))
}

func TestVerifyAcceptsBillTotals(t *testing.T) {
	res := NewVerifier().Verify(samplePayload(t))
	assert.False(t, res.HasDiscrepancy)
	assert.Empty(t, res.Warnings)
}

func TestVerifyReportsTamperedTotals(t *testing.T) {
	p := samplePayload(t)
	p.Totals.SubTotal = p.Totals.SubTotal.Add(decimal.NewFromInt(100))

	res := NewVerifier().Verify(p)
	assert.True(t, res.HasDiscrepancy)
	assert.True(t, res.MaxDiscrepancy.Equal(decimal.NewFromInt(100)))
	// subtotal against rows, and grand total against subtotal + GST
	assert.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0], "subtotal")
}

func TestPDFExport(t *testing.T) {
	var buf bytes.Buffer
	e := NewPDF()
	require.NoError(t, e.Export(context.Background(), samplePayload(t), &buf))

	assert.Equal(t, ".pdf", e.Extension())
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestPDFExportManyRowsPaginates(t *testing.T) {
	b := bill.New(models.Estimate)
	b.BillNumber = "EST-001"
	for i := 0; i < 80; i++ {
		_, err := b.AddItem(bill.ItemInput{
			Description: "Skirting tile fixing with adhesive, including cutting and finishing at corners",
			Length:      12, Quantity: 1, Rate: 35, Unit: "rft",
		})
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	require.NoError(t, NewPDF().Export(context.Background(), BuildPayload(b, bill.BalanceFloor), &buf))
	assert.Greater(t, bytes.Count(buf.Bytes(), []byte("/Type /Page\n")), 1)
}

func TestExportHonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	assert.ErrorIs(t, NewPDF().Export(ctx, samplePayload(t), &buf), context.Canceled)
	assert.ErrorIs(t, NewExcel().Export(ctx, samplePayload(t), &buf), context.Canceled)
	assert.Zero(t, buf.Len())
}

func TestExcelExport(t *testing.T) {
	var buf bytes.Buffer
	e := NewExcel()
	require.NoError(t, e.Export(context.Background(), samplePayload(t), &buf))
	assert.Equal(t, ".xlsx", e.Extension())

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Bill", "Payments"}, f.GetSheetList())

	rows, err := f.GetRows("Bill")
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, []string{"INVOICE", "INV-008"}, rows[0])

	var desc []string
	var grand string
	for _, r := range rows {
		if len(r) > 1 && (r[1] == "Wall plaster" || r[1] == "River sand") {
			desc = append(desc, r[1])
		}
		if len(r) > 10 && r[9] == "Grand Total" {
			grand = r[10]
		}
	}
	assert.Equal(t, []string{"Wall plaster", "River sand"}, desc)
	assert.Equal(t, "29,028.00", grand)

	pays, err := f.GetRows("Payments")
	require.NoError(t, err)
	require.Len(t, pays, 2)
	assert.Equal(t, "2024-06-01", pays[1][0])
	assert.Equal(t, "advance", pays[1][2])
}

var _ services.Exporter = (*PDF)(nil)
var _ services.Exporter = (*Excel)(nil)
