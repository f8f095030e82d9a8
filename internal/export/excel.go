package export

import (
	"context"
	"fmt"
	"io"

	"billbook/internal/logger"
	"billbook/pkg/services"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	billSheet     = "Bill"
	paymentsSheet = "Payments"

	// Built-in number format "#,##0.00".
	moneyNumFmt = 4
)

var excelHeaders = []interface{}{
	"#", "Description", "Floor", "Length", "Width", "Height", "Qty", "Unit", "Total Qty", "Rate", "Amount",
}

// Excel renders a bill as an .xlsx workbook: one sheet with the bill and,
// when there are any, one with the payments.
type Excel struct {
	log zerolog.Logger
}

// NewExcel creates a new Excel exporter
func NewExcel() *Excel {
	return &Excel{
		log: logger.WithComponent("export-excel"),
	}
}

// Extension implements services.Exporter.
func (e *Excel) Extension() string {
	return ".xlsx"
}

// Export implements services.Exporter.
func (e *Excel) Export(ctx context.Context, p *services.ExportPayload, w io.Writer) error {
	const op = "Excel.Export"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			e.log.Warn().Err(err).Msg("Failed to close workbook")
		}
	}()

	if err := writeBillSheet(f, p); err != nil {
		return fmt.Errorf("%s: failed to build bill sheet: %w", op, err)
	}
	if err := writePaymentsSheet(f, p); err != nil {
		return fmt.Errorf("%s: failed to build payments sheet: %w", op, err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("%s: failed to write workbook: %w", op, err)
	}

	e.log.Info().
		Str("bill_number", p.BillNumber).
		Int("rows", len(p.Rows)).
		Msg("Excel workbook exported")
	return nil
}

type sheetStyles struct {
	bold, header, money, boldMoney int
}

func newSheetStyles(f *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	var err error
	if s.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, err
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E6E6E6"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	}); err != nil {
		return s, err
	}
	if s.money, err = f.NewStyle(&excelize.Style{NumFmt: moneyNumFmt}); err != nil {
		return s, err
	}
	if s.boldMoney, err = f.NewStyle(&excelize.Style{NumFmt: moneyNumFmt, Font: &excelize.Font{Bold: true}}); err != nil {
		return s, err
	}
	return s, nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func writeBillSheet(f *excelize.File, p *services.ExportPayload) error {
	if err := f.SetSheetName("Sheet1", billSheet); err != nil {
		return err
	}
	styles, err := newSheetStyles(f)
	if err != nil {
		return err
	}

	row := 1
	put := func(values ...interface{}) error {
		if err := f.SetSheetRow(billSheet, cell(1, row), &values); err != nil {
			return err
		}
		row++
		return nil
	}

	info := [][]interface{}{
		{p.Title, p.BillNumber},
		{"Date", p.BillDate.Format("2006-01-02")},
		{"Status", p.StatusLabel},
		{"Contractor", p.Contractor.Name},
		{"Contractor GSTIN", p.Contractor.GSTIN},
		{"Client", p.Client.Name},
		{"Client Phone", p.Client.Phone},
		{"Client Address", p.Client.Address},
	}
	for _, kv := range info {
		if err := put(kv...); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(billSheet, "A1", cell(1, row-1), styles.bold); err != nil {
		return err
	}
	row++

	headerRow := row
	if err := put(excelHeaders...); err != nil {
		return err
	}
	if err := f.SetCellStyle(billSheet, cell(1, headerRow), cell(len(excelHeaders), headerRow), styles.header); err != nil {
		return err
	}

	firstItem := row
	for _, r := range p.Rows {
		if err := put(
			r.Index, r.Description, r.Floor,
			r.Length, r.Width, r.Height, r.Quantity,
			r.Unit, r.TotalQty, r.Rate, r.Amount.InexactFloat64(),
		); err != nil {
			return err
		}
	}
	if row > firstItem {
		if err := f.SetCellStyle(billSheet, cell(10, firstItem), cell(11, row-1), styles.money); err != nil {
			return err
		}
	}
	row++

	for _, t := range totalLines(p) {
		if err := f.SetCellValue(billSheet, cell(10, row), t.label); err != nil {
			return err
		}
		if err := f.SetCellValue(billSheet, cell(11, row), t.value.InexactFloat64()); err != nil {
			return err
		}
		style := styles.money
		if t.strong {
			style = styles.boldMoney
		}
		if err := f.SetCellStyle(billSheet, cell(10, row), cell(11, row), style); err != nil {
			return err
		}
		row++
	}

	if p.Disclaimer != "" {
		row++
		if err := f.SetCellValue(billSheet, cell(1, row), p.Disclaimer); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(billSheet, "B", "B", 40); err != nil {
		return err
	}
	return f.SetColWidth(billSheet, "J", "K", 14)
}

func writePaymentsSheet(f *excelize.File, p *services.ExportPayload) error {
	if len(p.Payments) == 0 {
		return nil
	}
	if _, err := f.NewSheet(paymentsSheet); err != nil {
		return err
	}

	header := []interface{}{"Date", "Amount", "Note"}
	if err := f.SetSheetRow(paymentsSheet, "A1", &header); err != nil {
		return err
	}
	for i, pay := range p.Payments {
		date := ""
		if !pay.Date.IsZero() {
			date = pay.Date.Format("2006-01-02")
		}
		values := []interface{}{date, pay.Amount, pay.Note}
		if err := f.SetSheetRow(paymentsSheet, cell(1, i+2), &values); err != nil {
			return err
		}
	}
	return nil
}
