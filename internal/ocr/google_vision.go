package ocr

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"billbook/internal/logger"
	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

const (
	// MaxFileSizeBytes is the maximum file size for synchronous processing (20MB)
	MaxFileSizeBytes = 20 * 1024 * 1024

	// MaxPagesSync is the maximum number of PDF pages for synchronous processing
	MaxPagesSync = 5

	mimePDF = "application/pdf"
)

var supportedImages = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// GoogleVisionOCRService implements SheetReader using Google Cloud Vision API.
type GoogleVisionOCRService struct {
	client *vision.ImageAnnotatorClient
	log    zerolog.Logger
}

// NewGoogleVisionOCRService creates a new OCR service with credentials from environment.
// It expects either GOOGLE_APPLICATION_CREDENTIALS path or GOOGLE_CREDENTIALS JSON in env.
func NewGoogleVisionOCRService(ctx context.Context) (*GoogleVisionOCRService, error) {
	const op = "NewGoogleVisionOCRService"

	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, wrapSheetError(op, fmt.Errorf("client from GOOGLE_CREDENTIALS: %w", err))
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, wrapSheetError(op, fmt.Errorf("client from GOOGLE_APPLICATION_CREDENTIALS: %w", err))
		}
	} else {
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, wrapSheetError(op, ErrMissingCredentials)
		}
	}

	return NewGoogleVisionOCRServiceWithClient(client), nil
}

// NewGoogleVisionOCRServiceWithClient creates a new OCR service with an explicit client (for testing).
func NewGoogleVisionOCRServiceWithClient(client *vision.ImageAnnotatorClient) *GoogleVisionOCRService {
	return &GoogleVisionOCRService{
		client: client,
		log:    logger.WithComponent("ocr"),
	}
}

// DetectFormat returns the MIME type of data when Vision can read it,
// or "" otherwise.
func DetectFormat(data []byte) string {
	mime := http.DetectContentType(data)
	if mime == mimePDF || supportedImages[mime] {
		return mime
	}
	return ""
}

// ReadSheet recognises the text of a photographed or scanned measurement sheet.
func (g *GoogleVisionOCRService) ReadSheet(ctx context.Context, data io.Reader) (*SheetText, error) {
	const op = "ReadSheet"
	startTime := time.Now()

	raw, err := io.ReadAll(data)
	if err != nil {
		return nil, wrapSheetError(op, fmt.Errorf("failed to read input: %w", err))
	}
	if len(raw) > MaxFileSizeBytes {
		return nil, wrapSheetError(op, fmt.Errorf("%w (%d bytes)", ErrSheetTooLarge, len(raw)))
	}

	mime := DetectFormat(raw)
	if mime == "" {
		return nil, wrapSheetError(op, fmt.Errorf("%w, got %s", ErrUnsupportedFormat, http.DetectContentType(raw)))
	}
	if err := ctx.Err(); err != nil {
		return nil, wrapSheetError(op, err)
	}

	var pages []*visionpb.AnnotateImageResponse
	if mime == mimePDF {
		pages, err = g.annotateFile(ctx, raw)
	} else {
		pages, err = g.annotateImage(ctx, raw)
	}
	if err != nil {
		return nil, wrapSheetError(op, err)
	}

	result, err := sheetFromResponses(pages)
	if err != nil {
		return nil, wrapSheetError(op, err)
	}
	result.MimeType = mime
	result.ProcessedAt = time.Now()
	result.ProcessingDuration = result.ProcessedAt.Sub(startTime)

	g.log.Debug().
		Str("mime_type", mime).
		Int("pages", result.PageCount).
		Float32("confidence", result.Confidence).
		Dur("duration", result.ProcessingDuration).
		Msg("Sheet recognised")

	return result, nil
}

func (g *GoogleVisionOCRService) annotateImage(ctx context.Context, raw []byte) ([]*visionpb.AnnotateImageResponse, error) {
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image:    &visionpb.Image{Content: raw},
				Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
			},
		},
	}

	resp, err := g.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: Vision API call failed: %v", ErrRecognitionFailed, err)
	}
	if len(resp.Responses) == 0 {
		return nil, fmt.Errorf("%w: no response from Vision API", ErrRecognitionFailed)
	}
	return resp.Responses, nil
}

func (g *GoogleVisionOCRService) annotateFile(ctx context.Context, raw []byte) ([]*visionpb.AnnotateImageResponse, error) {
	req := &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{
			{
				InputConfig: &visionpb.InputConfig{
					Content:  raw,
					MimeType: mimePDF,
				},
				Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
			},
		},
	}

	resp, err := g.client.BatchAnnotateFiles(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: Vision API call failed: %v", ErrRecognitionFailed, err)
	}
	if len(resp.Responses) == 0 {
		return nil, fmt.Errorf("%w: no response from Vision API", ErrRecognitionFailed)
	}

	fileResp := resp.Responses[0]
	if fileResp.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrRecognitionFailed, fileResp.Error.GetMessage())
	}
	return fileResp.Responses, nil
}

// sheetFromResponses joins the per-page annotations in page order.
func sheetFromResponses(pages []*visionpb.AnnotateImageResponse) (*SheetText, error) {
	if len(pages) == 0 {
		return nil, ErrBlankSheet
	}
	if len(pages) > MaxPagesSync {
		return nil, fmt.Errorf("%w (got %d)", ErrTooManyPages, len(pages))
	}

	var (
		texts           []string
		confidenceSum   float32
		confidenceCount int
	)
	for i, page := range pages {
		if page.GetError() != nil {
			return nil, &SheetError{Op: "annotate", Page: i + 1, Err: fmt.Errorf("%w: %s", ErrRecognitionFailed, page.GetError().GetMessage())}
		}
		annotation := page.GetFullTextAnnotation()
		if annotation == nil {
			continue
		}
		texts = append(texts, strings.TrimRight(annotation.GetText(), "\n"))
		for _, p := range annotation.GetPages() {
			if p.GetConfidence() > 0 {
				confidenceSum += p.GetConfidence()
				confidenceCount++
			}
		}
	}

	text := strings.Join(texts, "\n")
	if strings.TrimSpace(text) == "" {
		return nil, ErrBlankSheet
	}

	var avg float32
	if confidenceCount > 0 {
		avg = confidenceSum / float32(confidenceCount)
	}
	return &SheetText{
		Text:       text,
		PageCount:  len(pages),
		Confidence: avg,
	}, nil
}

// Close closes the underlying Vision client.
func (g *GoogleVisionOCRService) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
