// Package ocr reads handwritten or printed measurement sheets using the
// Google Cloud Vision API.
//
// Site measurements are usually noted on paper, one work item per line
// ("plaster hall 10x12 sqft @45"). A photo or a scanned PDF of such a sheet
// is sent to Vision document text detection and the recognised text is
// split into candidate item lines, which the voice parsers turn into
// line items.
//
// Required Environment Variables:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//
// Cloud Vision API Limitations:
//   - Maximum file size: 20MB for synchronous processing
//   - Maximum pages: 5 pages for synchronous processing of PDFs
//   - Supported formats: JPEG, PNG, GIF, WEBP, BMP, PDF
package ocr

import (
	"context"
	"io"
	"time"
)

// SheetReader extracts the text of a measurement sheet.
type SheetReader interface {
	// ReadSheet recognises the text of an image or PDF.
	ReadSheet(ctx context.Context, data io.Reader) (*SheetText, error)
}

// SheetText is the recognised text of a measurement sheet.
type SheetText struct {
	// Text is the recognised text of all pages in reading order.
	Text string `json:"text"`

	// PageCount is 1 for images and the number of pages for PDFs.
	PageCount int `json:"page_count"`

	// Confidence is the average confidence score across all detected text (0.0 to 1.0).
	Confidence float32 `json:"confidence"`

	// MimeType is the detected format of the input.
	MimeType string `json:"mime_type"`

	ProcessedAt        time.Time     `json:"processed_at"`
	ProcessingDuration time.Duration `json:"processing_duration"`
}

// Lines returns the candidate item lines of the sheet.
func (s *SheetText) Lines() []string {
	return ItemLines(s.Text)
}
