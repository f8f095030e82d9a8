// Package receipt reads supplier bills and receipts (cement, sand,
// hardware, transport) with Google Document AI and turns them into job
// expenses.
//
// Required Environment Variables:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//   - GOOGLE_PROJECT_ID: Google Cloud project ID
//   - DOCUMENT_AI_PROCESSOR_ID: ID of an invoice or expense parser processor
//   - GOOGLE_LOCATION: Processing location (optional, "us" or "eu")
//
// Document AI API Limitations:
//   - Maximum file size: 20MB for synchronous processing
//   - Supported formats: PDF, GIF, JPEG, PNG, BMP, WEBP
package receipt

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Processor extracts a supplier receipt from a document.
type Processor interface {
	ProcessReceipt(ctx context.Context, data io.Reader) (*Receipt, error)
}

// Receipt is the data extracted from a supplier bill. Amounts are in the
// bill currency; Total always includes tax.
type Receipt struct {
	Supplier string
	Number   string
	Date     time.Time
	Net      decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal

	// Confidence maps Document AI entity types to scores (0.0-1.0).
	Confidence map[string]float32
}

// Description is the text recorded on the expense.
func (r *Receipt) Description() string {
	parts := make([]string, 0, 2)
	if r.Supplier != "" {
		parts = append(parts, r.Supplier)
	}
	if r.Number != "" {
		parts = append(parts, "bill "+r.Number)
	}
	return strings.Join(parts, ", ")
}

// DocumentAIConfig holds configuration for Google Document AI processing.
type DocumentAIConfig struct {
	// ProjectID is the Google Cloud project ID where Document AI is enabled.
	ProjectID string

	// Location is the processing location (e.g., "us", "eu").
	Location string

	// ProcessorID is the Document AI processor ID.
	ProcessorID string

	// ProcessorVersion pins a processor version. Empty uses the default.
	ProcessorVersion string

	// Timeout is the maximum time to wait for processing.
	Timeout time.Duration
}

// DefaultConfig returns a DocumentAIConfig with sensible defaults.
func DefaultConfig() DocumentAIConfig {
	return DocumentAIConfig{
		Location: "us",
		Timeout:  60 * time.Second,
	}
}
