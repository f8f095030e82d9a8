package export

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"billbook/internal/logger"
	"billbook/pkg/services"
	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	pdfMargin = 10.0
	pdfLineH  = 5.0
)

// Item table columns. Widths add up to the printable A4 width.
var pdfColumns = []struct {
	title string
	width float64
	align string
}{
	{"#", 8, "C"},
	{"Description", 58, "L"},
	{"L", 13, "R"},
	{"W", 13, "R"},
	{"H", 13, "R"},
	{"Qty", 12, "R"},
	{"Unit", 16, "C"},
	{"Total Qty", 18, "R"},
	{"Rate", 19, "R"},
	{"Amount", 20, "R"},
}

// PDF renders a bill as an A4 PDF document.
type PDF struct {
	log zerolog.Logger
}

// NewPDF creates a new PDF exporter
func NewPDF() *PDF {
	return &PDF{
		log: logger.WithComponent("export-pdf"),
	}
}

// Extension implements services.Exporter.
func (e *PDF) Extension() string {
	return ".pdf"
}

// Export implements services.Exporter.
func (e *PDF) Export(ctx context.Context, p *services.ExportPayload, w io.Writer) error {
	const op = "PDF.Export"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	doc.SetAutoPageBreak(false, pdfMargin)
	doc.SetTitle(fmt.Sprintf("%s %s", p.Title, p.BillNumber), true)
	doc.SetCreator("billbook", true)
	doc.SetFooterFunc(func() {
		doc.SetY(-pdfMargin - 2)
		doc.SetFont("Helvetica", "I", 8)
		doc.CellFormat(0, 4, fmt.Sprintf("%s %s - page %d", p.Title, p.BillNumber, doc.PageNo()), "", 0, "C", false, 0, "")
	})

	r := &pdfRenderer{doc: doc, tr: doc.UnicodeTranslatorFromDescriptor("")}
	doc.AddPage()
	r.header(p)
	r.parties(p)
	r.items(p)
	r.totals(p)
	r.payments(p)
	r.disclaimer(p)

	if err := doc.Error(); err != nil {
		return fmt.Errorf("%s: failed to render %s: %w", op, p.BillNumber, err)
	}
	if err := doc.Output(w); err != nil {
		return fmt.Errorf("%s: failed to write %s: %w", op, p.BillNumber, err)
	}

	e.log.Info().
		Str("bill_number", p.BillNumber).
		Int("rows", len(p.Rows)).
		Int("pages", doc.PageCount()).
		Msg("PDF exported")
	return nil
}

type pdfRenderer struct {
	doc *fpdf.Fpdf
	tr  func(string) string
}

// rupees is used in place of the rupee sign, which the core fonts lack.
func rupees(d decimal.Decimal) string {
	return "Rs. " + Money(d)
}

func (r *pdfRenderer) ensureSpace(h float64) bool {
	_, pageH := r.doc.GetPageSize()
	if r.doc.GetY()+h <= pageH-pdfMargin-6 {
		return false
	}
	r.doc.AddPage()
	return true
}

func (r *pdfRenderer) header(p *services.ExportPayload) {
	d := r.doc
	c := p.Contractor

	d.SetFont("Helvetica", "B", 16)
	d.CellFormat(120, 8, r.tr(c.Name), "", 0, "L", false, 0, "")
	d.SetFont("Helvetica", "B", 18)
	d.CellFormat(0, 8, p.Title, "", 1, "R", false, 0, "")

	d.SetFont("Helvetica", "", 9)
	left := []string{c.Address, c.Phone, c.Email}
	if c.GSTIN != "" {
		left = append(left, "GSTIN: "+c.GSTIN)
	}
	right := []string{
		"No: " + p.BillNumber,
		"Date: " + p.BillDate.Format("02 Jan 2006"),
	}
	if p.StatusLabel != "" {
		right = append(right, "Status: "+p.StatusLabel)
	}

	left = nonEmpty(left)
	for i := 0; i < max(len(left), len(right)); i++ {
		var l, rt string
		if i < len(left) {
			l = left[i]
		}
		if i < len(right) {
			rt = right[i]
		}
		d.CellFormat(120, pdfLineH, r.tr(l), "", 0, "L", false, 0, "")
		d.CellFormat(0, pdfLineH, r.tr(rt), "", 1, "R", false, 0, "")
	}
	d.Ln(3)
}

func (r *pdfRenderer) parties(p *services.ExportPayload) {
	d := r.doc
	c := p.Client

	d.SetFont("Helvetica", "B", 10)
	d.CellFormat(0, pdfLineH, "Bill To", "B", 1, "L", false, 0, "")
	d.SetFont("Helvetica", "", 9)
	lines := []string{c.Name, c.Address, c.Phone, c.Email}
	if c.GSTIN != "" {
		lines = append(lines, "GSTIN: "+c.GSTIN)
	}
	for _, l := range nonEmpty(lines) {
		d.CellFormat(0, pdfLineH, r.tr(l), "", 1, "L", false, 0, "")
	}
	d.Ln(3)
}

func (r *pdfRenderer) tableHeader() {
	d := r.doc
	d.SetFont("Helvetica", "B", 8)
	d.SetFillColor(230, 230, 230)
	for _, col := range pdfColumns {
		d.CellFormat(col.width, 6, col.title, "1", 0, "C", true, 0, "")
	}
	d.Ln(-1)
	d.SetFont("Helvetica", "", 8)
}

func (r *pdfRenderer) items(p *services.ExportPayload) {
	d := r.doc
	r.tableHeader()

	descW := pdfColumns[1].width
	for _, row := range p.Rows {
		desc := row.Description
		if row.Floor != "" {
			desc += " [" + row.Floor + "]"
		}
		if row.Paid {
			desc += " (paid)"
		}
		lines := d.SplitText(r.tr(desc), descW-2)
		h := pdfLineH * float64(max(1, len(lines)))
		if r.ensureSpace(h) {
			r.tableHeader()
		}

		x, y := d.GetXY()
		cells := []string{
			strconv.Itoa(row.Index),
			"",
			Number(row.Length),
			Number(row.Width),
			Number(row.Height),
			Number(row.Quantity),
			r.tr(row.Unit),
			Qty(row.TotalQty),
			Money(decimal.NewFromFloat(row.Rate)),
			Money(row.Amount),
		}
		cx := x
		for i, col := range pdfColumns {
			if i == 1 {
				d.Rect(cx, y, col.width, h, "D")
				d.SetXY(cx+1, y)
				d.MultiCell(col.width-2, pdfLineH, strings.Join(lines, "\n"), "", "L", false)
			} else {
				d.SetXY(cx, y)
				d.CellFormat(col.width, h, cells[i], "1", 0, col.align, false, 0, "")
			}
			cx += col.width
		}
		d.SetXY(x, y+h)
	}
	d.Ln(2)
}

func (r *pdfRenderer) totals(p *services.ExportPayload) {
	d := r.doc
	lines := totalLines(p)

	r.ensureSpace(float64(len(lines)) * 6)
	labelW, valueW := 40.0, 35.0
	pageW, _ := d.GetPageSize()
	x := pageW - pdfMargin - labelW - valueW
	for _, l := range lines {
		style := ""
		if l.strong {
			style = "B"
		}
		d.SetX(x)
		d.SetFont("Helvetica", style, 9)
		d.CellFormat(labelW, 6, l.label, "1", 0, "L", false, 0, "")
		d.CellFormat(valueW, 6, rupees(l.value), "1", 1, "R", false, 0, "")
	}
	d.Ln(3)
}

func (r *pdfRenderer) payments(p *services.ExportPayload) {
	if len(p.Payments) == 0 {
		return
	}
	d := r.doc
	r.ensureSpace(float64(len(p.Payments)+1) * pdfLineH)

	d.SetFont("Helvetica", "B", 9)
	d.CellFormat(0, pdfLineH, "Payments received", "B", 1, "L", false, 0, "")
	d.SetFont("Helvetica", "", 8)
	for _, pay := range p.Payments {
		date := ""
		if !pay.Date.IsZero() {
			date = pay.Date.Format("02 Jan 2006")
		}
		d.CellFormat(30, pdfLineH, date, "", 0, "L", false, 0, "")
		d.CellFormat(35, pdfLineH, rupees(decimal.NewFromFloat(pay.Amount)), "", 0, "R", false, 0, "")
		d.CellFormat(0, pdfLineH, "  "+r.tr(pay.Note), "", 1, "L", false, 0, "")
	}
	d.Ln(3)
}

func (r *pdfRenderer) disclaimer(p *services.ExportPayload) {
	if strings.TrimSpace(p.Disclaimer) == "" {
		return
	}
	d := r.doc
	r.ensureSpace(4 * pdfLineH)
	d.SetFont("Helvetica", "I", 8)
	d.MultiCell(0, 4, r.tr(p.Disclaimer), "", "L", false)
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
