package receipt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"billbook/internal/calc"
	"billbook/internal/logger"
	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MaxDocumentSizeBytes is the maximum document size for processing (20MB)
const MaxDocumentSizeBytes = 20 * 1024 * 1024

var supportedFormats = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"image/bmp":       true,
}

// mentionDateLayouts are tried when Document AI returns no normalized date.
var mentionDateLayouts = []string{
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"2006-01-02",
	"02-Jan-2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
}

// DocumentAIProcessor implements Processor using Google Document AI.
type DocumentAIProcessor struct {
	client *documentai.DocumentProcessorClient
	config DocumentAIConfig
	log    zerolog.Logger
}

// NewDocumentAIProcessor creates a processor for cfg with credentials from
// the environment.
func NewDocumentAIProcessor(ctx context.Context, cfg DocumentAIConfig) (*DocumentAIProcessor, error) {
	const op = "NewDocumentAIProcessor"

	if cfg.ProjectID == "" {
		return nil, WrapProcessingError(op, ErrInvalidConfiguration, "GOOGLE_PROJECT_ID is required")
	}
	if cfg.ProcessorID == "" {
		return nil, WrapProcessingError(op, ErrInvalidConfiguration, "DOCUMENT_AI_PROCESSOR_ID is required")
	}
	if cfg.Location == "" {
		cfg.Location = DefaultConfig().Location
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	var clientOptions []option.ClientOption

	// Processors outside "us" are served from regional endpoints
	if cfg.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		return nil, WrapProcessingError(op, ErrMissingCredentials, err.Error())
	}

	return NewDocumentAIProcessorWithClient(cfg, client), nil
}

// NewDocumentAIProcessorWithClient creates processor with explicit config and client (for testing).
func NewDocumentAIProcessorWithClient(cfg DocumentAIConfig, client *documentai.DocumentProcessorClient) *DocumentAIProcessor {
	return &DocumentAIProcessor{
		client: client,
		config: cfg,
		log:    logger.WithComponent("document-ai"),
	}
}

// ProcessReceipt extracts supplier, bill number, date and amounts from a
// supplier bill.
func (p *DocumentAIProcessor) ProcessReceipt(ctx context.Context, data io.Reader) (*Receipt, error) {
	const op = "ProcessReceipt"

	raw, err := io.ReadAll(data)
	if err != nil {
		return nil, WrapProcessingError(op, err, "failed to read document")
	}
	if len(raw) > MaxDocumentSizeBytes {
		return nil, WrapProcessingError(op, ErrDocumentTooLarge, fmt.Sprintf("file size: %d bytes", len(raw)))
	}

	mime := http.DetectContentType(raw)
	if !supportedFormats[mime] {
		return nil, WrapProcessingError(op, ErrUnsupportedFormat, mime)
	}

	processCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: p.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  raw,
				MimeType: mime,
			},
		},
	}

	resp, err := p.client.ProcessDocument(processCtx, req)
	if err != nil {
		return nil, p.handleProcessingError(op, err)
	}
	if resp.GetDocument() == nil {
		return nil, WrapProcessingError(op, ErrProcessingFailed, "no document in response")
	}

	r, err := receiptFromDocument(resp.GetDocument(), p.log)
	if err != nil {
		return nil, WrapProcessingError(op, err, "failed to extract receipt data")
	}

	p.log.Info().
		Str("supplier", r.Supplier).
		Str("number", r.Number).
		Str("total", r.Total.StringFixed(calc.AmountPlaces)).
		Msg("Receipt extracted")
	return r, nil
}

func (p *DocumentAIProcessor) processorName() string {
	name := fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		p.config.ProjectID, p.config.Location, p.config.ProcessorID)
	if p.config.ProcessorVersion != "" {
		name += "/processorVersions/" + p.config.ProcessorVersion
	}
	return name
}

// handleProcessingError maps Document AI status codes to receipt errors.
func (p *DocumentAIProcessor) handleProcessingError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return WrapProcessingError(op, err, "processing did not finish")
	}

	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated:
		return WrapProcessingError(op, ErrInvalidCredentials, "insufficient permissions for Document AI")
	case codes.ResourceExhausted:
		return WrapProcessingError(op, ErrQuotaExceeded, "")
	case codes.NotFound:
		return WrapProcessingError(op, ErrProcessorNotFound, p.config.ProcessorID)
	case codes.InvalidArgument:
		return WrapProcessingError(op, ErrUnsupportedFormat, "document rejected by Document AI")
	case codes.DeadlineExceeded:
		return WrapProcessingError(op, context.DeadlineExceeded, "processing timeout")
	case codes.Canceled:
		return WrapProcessingError(op, context.Canceled, "")
	default:
		return WrapProcessingError(op, ErrProcessingFailed, err.Error())
	}
}

// receiptFromDocument converts Document AI entities into a Receipt. Invoice
// parser and expense parser entity names are both understood.
func receiptFromDocument(doc *documentaipb.Document, log zerolog.Logger) (*Receipt, error) {
	r := &Receipt{Confidence: make(map[string]float32)}

	for _, entity := range doc.GetEntities() {
		entityType := entity.GetType()
		value := strings.TrimSpace(entity.GetMentionText())
		r.Confidence[entityType] = entity.GetConfidence()

		log.Debug().
			Str("entity_type", entityType).
			Str("value", value).
			Float32("confidence", entity.GetConfidence()).
			Msg("Processing Document AI entity")

		switch entityType {
		case "supplier_name", "vendor_name":
			r.Supplier = value
		case "invoice_id", "receipt_id", "invoice_number":
			r.Number = value
		case "invoice_date", "receipt_date", "purchase_date":
			if d, ok := entityDate(entity); ok {
				r.Date = d
			}
		case "net_amount", "subtotal_amount":
			r.Net = entityMoney(entity)
		case "total_tax_amount", "vat_amount":
			r.Tax = entityMoney(entity)
		case "total_amount", "gross_amount":
			r.Total = entityMoney(entity)
		}
	}

	if r.Total.IsZero() && r.Net.IsPositive() {
		r.Total = r.Net.Add(r.Tax)
	}
	if r.Net.IsZero() && r.Total.IsPositive() {
		r.Net = r.Total.Sub(r.Tax)
	}
	if !r.Total.IsPositive() {
		return nil, fmt.Errorf("%w: total_amount", ErrMissingRequiredField)
	}
	return r, nil
}

// entityMoney prefers the normalized money value and falls back to the
// printed text, which may carry currency marks and grouping.
func entityMoney(entity *documentaipb.Document_Entity) decimal.Decimal {
	if m := entity.GetNormalizedValue().GetMoneyValue(); m != nil {
		return decimal.New(m.GetUnits(), 0).Add(decimal.New(int64(m.GetNanos()), -9))
	}
	return calc.Decimal(calc.Coerce(entity.GetMentionText()))
}

func entityDate(entity *documentaipb.Document_Entity) (time.Time, bool) {
	if d := entity.GetNormalizedValue().GetDateValue(); d != nil && d.GetYear() > 0 {
		return time.Date(int(d.GetYear()), time.Month(d.GetMonth()), int(d.GetDay()), 0, 0, 0, 0, time.Local), true
	}
	text := strings.TrimSpace(entity.GetMentionText())
	for _, layout := range mentionDateLayouts {
		if t, err := time.ParseInLocation(layout, text, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Close closes the underlying Document AI client.
func (p *DocumentAIProcessor) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
