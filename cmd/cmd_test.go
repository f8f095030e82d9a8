package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"billbook/internal/logger"
	"billbook/internal/ocr"
	"billbook/internal/receipt"
	"billbook/pkg/models"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.SetGlobal(zerolog.Nop())
	os.Exit(m.Run())
}

// resetFlags restores every flag to its default so commands can run
// repeatedly against the package-level command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

type cli struct {
	t  *testing.T
	db string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	for _, key := range []string{
		"BILLBOOK_DB_PATH", "BALANCE_DISPLAY", "INVOICE_PREFIX", "ESTIMATE_PREFIX", "NUMBER_WIDTH",
		"CONTRACTOR_NAME", "DEFAULT_DISCLAIMER", "OPENAI_API_KEY", "OPENAI_MAX_RETRIES", "GOOGLE_SHEET_URL",
	} {
		t.Setenv(key, "")
	}
	return &cli{t: t, db: filepath.Join(t.TempDir(), "billbook.db")}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--db", c.db}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (c *cli) must(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, "billbook %v\n%s", args, out)
	return out
}

func (c *cli) bill() BillOutput {
	c.t.Helper()
	var b BillOutput
	require.NoError(c.t, json.Unmarshal([]byte(c.must("show", "--json")), &b))
	return b
}

func (c *cli) list(args ...string) []SavedOutput {
	c.t.Helper()
	var recs []SavedOutput
	require.NoError(c.t, json.Unmarshal([]byte(c.must(append([]string{"list", "--json"}, args...)...)), &recs))
	return recs
}

func assertDecimal(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.NewFromInt(want).Equal(got), "want %d, got %s", want, got)
}

func TestBillTotalsAcrossCommands(t *testing.T) {
	c := newCLI(t)

	c.must("new", "--client", "Mr. Patil")
	c.must("item", "add", "-d", "Wall plaster", "-l", "10", "-w", "12", "-u", "sq.ft", "-r", "45", "--floor", "First floor")
	c.must("item", "add", "-d", "River sand", "-l", "10", "-w", "12", "-H", "4", "-u", "brass", "-r", "₹ 4,000")
	c.must("gst", "on")
	c.must("pay", "add", "10000", "--note", "Advance")

	b := c.bill()
	assert.Equal(t, "INV-001", b.BillNumber)
	assert.Equal(t, "Mr. Patil", b.Client.Name)
	require.Len(t, b.Items, 2)
	assert.Equal(t, 5400.0, b.Items[0].Amount)
	assert.Equal(t, 4.8, b.Items[1].TotalQty)
	assert.Equal(t, "VOLUME_SCALED", b.Items[1].Class)
	assert.Equal(t, 19200.0, b.Items[1].Amount)

	assertDecimal(t, 24600, b.Totals.SubTotal)
	assertDecimal(t, 4428, b.Totals.GST)
	assertDecimal(t, 29028, b.Totals.GrandTotal)
	assertDecimal(t, 10000, b.Totals.Advance)
	assertDecimal(t, 19028, b.Totals.Balance)

	c.must("gst", "off")
	b = c.bill()
	assert.True(t, b.Totals.GrandTotal.Equal(b.Totals.SubTotal))
}

func TestItemEditMoveRemove(t *testing.T) {
	c := newCLI(t)

	c.must("item", "add", "-d", "Door fitting", "-q", "4", "-r", "250")
	c.must("item", "add", "-d", "Skirting", "-l", "50", "-w", "999", "-u", "rft", "-r", "120")

	b := c.bill()
	require.Len(t, b.Items, 2)
	assert.Equal(t, "nos", b.Items[0].Unit)
	assert.Equal(t, 1000.0, b.Items[0].Amount)
	assert.Equal(t, 6000.0, b.Items[1].Amount)

	c.must("item", "edit", "1", "-r", "300")
	c.must("item", "move", "2", "1")

	b = c.bill()
	assert.Equal(t, "Skirting", b.Items[0].Description)
	assert.Equal(t, "Door fitting", b.Items[1].Description)
	assert.Equal(t, 1200.0, b.Items[1].Amount)

	c.must("item", "rm", "1")
	b = c.bill()
	require.Len(t, b.Items, 1)
	assert.Equal(t, "Door fitting", b.Items[0].Description)
}

func TestItemParseOffline(t *testing.T) {
	c := newCLI(t)

	c.must("item", "parse", "--offline", "sand 10x12x4 brass @ 4000")

	b := c.bill()
	require.Len(t, b.Items, 1)
	assert.Equal(t, "Sand", b.Items[0].Description)
	assert.Equal(t, "brass", b.Items[0].Unit)
	assert.Equal(t, 19200.0, b.Items[0].Amount)

	out := c.must("item", "parse", "--offline", "--dry-run", "4 nos door fitting at 250 rupees")
	assert.Contains(t, out, "Door fitting")
	assert.Len(t, c.bill().Items, 1)
}

func TestSaveNumberingAndTypePivot(t *testing.T) {
	c := newCLI(t)

	c.must("item", "add", "-d", "Plaster", "-l", "10", "-w", "12", "-u", "sq.ft", "-r", "45")
	c.must("save")
	first := c.bill()
	assert.True(t, first.Saved)

	// Saving again updates the same record.
	c.must("item", "add", "-d", "Putty", "-q", "2", "-r", "500")
	c.must("save")
	recs := c.list()
	require.Len(t, recs, 1)
	assert.Equal(t, first.ID, recs[0].ID)

	c.must("new")
	assert.Equal(t, "INV-002", c.bill().BillNumber)

	c.must("open", "INV-001")
	c.must("type", "estimate")
	pivot := c.bill()
	assert.Equal(t, models.Estimate, pivot.DocumentType)
	assert.Equal(t, "EST-001", pivot.BillNumber)
	assert.False(t, pivot.Saved)

	c.must("save")
	recs = c.list()
	require.Len(t, recs, 2)

	invoices := c.list("--type", "invoice")
	require.Len(t, invoices, 1)
	assert.Equal(t, first.ID, invoices[0].ID)
	assert.Equal(t, "INV-001", invoices[0].BillNumber)
}

func TestConvertApprovedEstimate(t *testing.T) {
	c := newCLI(t)

	c.must("new", "estimate")
	c.must("item", "add", "-d", "Tiling", "-l", "20", "-w", "10", "-u", "sq.ft", "-r", "60")

	_, err := c.run("convert")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save the bill first")

	c.must("save")
	_, err = c.run("convert")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only approved estimates")

	c.must("status", "approved")
	out := c.must("convert")
	assert.Contains(t, out, "INV-001")

	est := c.bill()
	assert.Equal(t, models.Estimate, est.DocumentType)
	assert.NotEmpty(t, est.ConvertedInvoiceID)

	invoices := c.list("--type", "invoice")
	require.Len(t, invoices, 1)
	assert.Equal(t, est.ConvertedInvoiceID, invoices[0].ID)
	assertDecimal(t, 12000, invoices[0].GrandTotal)

	_, err = c.run("convert")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already been converted")
}

func TestTrashAndRestore(t *testing.T) {
	c := newCLI(t)

	c.must("item", "add", "-d", "Painting", "-q", "1", "-r", "8000")
	c.must("save")
	id := c.bill().ID

	c.must("trash", "INV-001")
	assert.Empty(t, c.list())
	assert.Len(t, c.list("--trash"), 1)

	fresh := c.bill()
	assert.False(t, fresh.Saved)
	assert.Equal(t, "INV-002", fresh.BillNumber)
	c.must("item", "add", "-d", "Polish", "-q", "1", "-r", "500")
	c.must("save")

	c.must("restore", id)
	recs := c.list()
	require.Len(t, recs, 2)
	numbers := []string{recs[0].BillNumber, recs[1].BillNumber}
	assert.ElementsMatch(t, []string{"INV-001", "INV-002"}, numbers)
}

func TestUserFacingErrors(t *testing.T) {
	c := newCLI(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing description", []string{"item", "add", "-r", "10"}, "needs a description"},
		{"estimate status on invoice", []string{"status", "approved"}, "invalid status"},
		{"unknown item", []string{"item", "rm", "7"}, "line item not found"},
		{"unknown bill", []string{"open", "INV-404"}, "no saved bill"},
		{"bad payment", []string{"pay", "add", "0"}, "positive number"},
		{"bad type", []string{"type", "receipt"}, "'invoice' or 'estimate'"},
		{"bad date", []string{"details", "--date", "tomorrow"}, "invalid date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.run(tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestExportFiles(t *testing.T) {
	c := newCLI(t)
	dir := t.TempDir()

	c.must("item", "add", "-d", "Plaster", "-l", "10", "-w", "12", "-u", "sq.ft", "-r", "45")

	pdfPath := filepath.Join(dir, "bill.pdf")
	c.must("export", "pdf", "-o", pdfPath)
	data, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	xlsxPath := filepath.Join(dir, "bill.xlsx")
	c.must("export", "excel", "-o", xlsxPath)
	info, err := os.Stat(xlsxPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	_, err = c.run("export", "sheets")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_SHEET_URL")
}

func TestCalcAndUnits(t *testing.T) {
	c := newCLI(t)

	var res CalcOutput
	out := c.must("calc", "--json", "-l", "10", "-w", "12", "-H", "4", "-u", "brass", "-r", "4000")
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "brass", res.Unit)
	assert.Equal(t, 4.8, res.Quantity)
	assert.Equal(t, 19200.0, res.Amount)

	out = c.must("calc", "-q", "3", "-u", "unobtainium", "-r", "10")
	assert.Contains(t, out, "COUNT_LIKE")
	assert.Contains(t, out, "30.00")

	var list []UnitOutput
	require.NoError(t, json.Unmarshal([]byte(c.must("units", "--json")), &list))
	assert.Contains(t, list, UnitOutput{ID: "brass", Label: "Brass (100 cu.ft)", Class: "VOLUME_SCALED"})
}

type fakeSheetReader struct{ text string }

func (f fakeSheetReader) ReadSheet(_ context.Context, r io.Reader) (*ocr.SheetText, error) {
	if _, err := io.ReadAll(r); err != nil {
		return nil, err
	}
	return &ocr.SheetText{Text: f.text, PageCount: 1}, nil
}

func (fakeSheetReader) Close() error { return nil }

type fakeReceiptProcessor struct{ r *receipt.Receipt }

func (f fakeReceiptProcessor) ProcessReceipt(context.Context, io.Reader) (*receipt.Receipt, error) {
	return f.r, nil
}

func (fakeReceiptProcessor) Close() error { return nil }

func writeTempFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("scan"), 0o600))
	return path
}

func TestItemScan(t *testing.T) {
	c := newCLI(t)
	orig := newSheetReader
	t.Cleanup(func() { newSheetReader = orig })
	newSheetReader = func(context.Context) (sheetReader, error) {
		return fakeSheetReader{text: `Patil site
1. sand 10x12x4 brass @ 4000
2. 4 nos door fitting at 250 rupees
3. rate 500
Total 20,200`}, nil
	}
	sheet := writeTempFile(t, "sheet.jpg")

	out := c.must("item", "scan", "--offline", "--dry-run", sheet)
	assert.Contains(t, out, "2 of 3 rows usable")
	assert.Empty(t, c.bill().Items)

	var rows []ScanLineOutput
	require.NoError(t, json.Unmarshal([]byte(c.must("item", "scan", "--offline", "--json", sheet)), &rows))
	require.Len(t, rows, 3)
	require.NotNil(t, rows[0].Item)
	assert.Equal(t, 19200.0, rows[0].Item.Amount)
	require.NotNil(t, rows[1].Item)
	assert.Equal(t, 1000.0, rows[1].Item.Amount)
	assert.Nil(t, rows[2].Item)
	assert.Contains(t, rows[2].Error, "description")

	b := c.bill()
	require.Len(t, b.Items, 2)
	assertDecimal(t, 20200, b.Totals.GrandTotal)
}

func TestItemScanWithoutItemRows(t *testing.T) {
	c := newCLI(t)
	orig := newSheetReader
	t.Cleanup(func() { newSheetReader = orig })
	newSheetReader = func(context.Context) (sheetReader, error) {
		return fakeSheetReader{text: "Patil site\nmeasurements to follow"}, nil
	}

	_, err := c.run("item", "scan", "--offline", writeTempFile(t, "sheet.jpg"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ocr.ErrNoItemRows)
	assert.Empty(t, c.bill().Items)
}

func TestItemScanMissingFile(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("item", "scan", filepath.Join(t.TempDir(), "missing.jpg"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open sheet")
}

func TestExpenseScan(t *testing.T) {
	c := newCLI(t)
	orig := newReceiptProcessor
	t.Cleanup(func() { newReceiptProcessor = orig })
	newReceiptProcessor = func(context.Context, receipt.DocumentAIConfig) (receiptProcessor, error) {
		return fakeReceiptProcessor{r: &receipt.Receipt{
			Supplier: "Shree Hardware",
			Number:   "H-221",
			Date:     time.Date(2024, time.June, 3, 0, 0, 0, 0, time.Local),
			Total:    decimal.NewFromInt(1770),
		}}, nil
	}
	bill := writeTempFile(t, "cement.pdf")

	c.must("item", "add", "-d", "Plaster", "-l", "10", "-w", "12", "-u", "sq.ft", "-r", "45")

	var res ReceiptOutput
	require.NoError(t, json.Unmarshal([]byte(c.must("expense", "scan", "--json", bill)), &res))
	assert.True(t, res.Recorded)
	assert.Equal(t, "2024-06-03", res.Date)
	assert.Equal(t, "1770.00", res.Total)
	assert.Equal(t, "Material", res.Expense.Category)
	assert.Equal(t, "Shree Hardware, bill H-221", res.Expense.Description)

	var b BillOutput
	require.NoError(t, json.Unmarshal([]byte(c.must("show", "--costs", "--json")), &b))
	require.Len(t, b.Expenses, 1)
	require.NotNil(t, b.Costs)
	assertDecimal(t, 1770, b.Costs.Expenses)
	assertDecimal(t, 3630, b.Costs.Profit)
	assertDecimal(t, 5400, b.Totals.GrandTotal)
}
