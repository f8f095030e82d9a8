package services

import (
	"context"
	"io"
	"time"

	"billbook/pkg/models"
	"github.com/shopspring/decimal"
)

// Exporter defines the interface for rendering a bill into a document format
type Exporter interface {
	// Export writes the rendered bill to w
	Export(ctx context.Context, payload *ExportPayload, w io.Writer) error

	// Extension is the file extension of the rendered document, including the dot
	Extension() string
}

// ExportRow is one line item as printed on an exported bill
type ExportRow struct {
	Index       int             `json:"index"`       // 1-based position on the bill
	Description string          `json:"description"` // Work description
	Floor       string          `json:"floor,omitempty"`
	Length      float64         `json:"length"`
	Width       float64         `json:"width"`
	Height      float64         `json:"height"`
	Quantity    float64         `json:"quantity"`   // Repeat count as entered
	Unit        string          `json:"unit"`       // Canonical unit id
	UnitLabel   string          `json:"unit_label"` // Printed unit name
	Class       string          `json:"class"`      // Unit class name
	TotalQty    float64         `json:"total_qty"`  // Quantity the rate was applied to
	Rate        float64         `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
	Paid        bool            `json:"paid,omitempty"`
}

// ExportPayload is everything an exporter needs to render a bill. Exporters
// print Totals as given and never recompute them.
type ExportPayload struct {
	// Document identity
	DocumentType models.DocumentType `json:"document_type"`
	Title        string              `json:"title"` // INVOICE or ESTIMATE
	BillNumber   string              `json:"bill_number"`
	BillDate     time.Time           `json:"bill_date"`
	StatusLabel  string              `json:"status_label"`

	// Parties
	Contractor models.Party `json:"contractor"`
	Client     models.Party `json:"client"`

	// Content
	Rows       []ExportRow            `json:"rows"`
	GSTEnabled bool                   `json:"gst_enabled"`
	GSTRate    float64                `json:"gst_rate"` // Effective rate, never 0
	Payments   []models.PaymentRecord `json:"payments"`
	Disclaimer string                 `json:"disclaimer,omitempty"`

	// Totals as computed by the bill, and the balance to show
	Totals         models.Totals   `json:"totals"`
	DisplayBalance decimal.Decimal `json:"display_balance"`

	// Metadata
	GeneratedAt time.Time `json:"generated_at"`
}
