package ocr

import (
	"bytes"
	"context"
	"testing"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	rpcstatus "google.golang.org/genproto/googleapis/rpc/status"
)

func TestItemLines(t *testing.T) {
	text := `Patil residence - measurements
1. Plaster hall 10x12 sqft @45
2) sand brass @4000
10 x 12 x 4
- door fitting 4 nos at 250

Total 24,600
Date 03.06.2024`

	assert.Equal(t, []string{
		"Plaster hall 10x12 sqft @45",
		"sand brass @4000 10 x 12 x 4",
		"door fitting 4 nos at 250",
	}, ItemLines(text))
}

func TestItemLinesEmpty(t *testing.T) {
	assert.Empty(t, ItemLines(""))
	assert.Empty(t, ItemLines("Measurement sheet\nClient: Mr. Patil"))
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"pdf", []byte("%PDF-1.4\n"), "application/pdf"},
		{"png", []byte("\x89PNG\x0D\x0A\x1A\x0A\x00\x00\x00\x0DIHDR"), "image/png"},
		{"jpeg", []byte("\xFF\xD8\xFF\xE0\x00\x10JFIF"), "image/jpeg"},
		{"text", []byte("plaster 10x12"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.data))
		})
	}
}

func TestSheetFromResponses(t *testing.T) {
	pages := []*visionpb.AnnotateImageResponse{
		{FullTextAnnotation: &visionpb.TextAnnotation{
			Text:  "plaster 10x12 sqft @45\n",
			Pages: []*visionpb.Page{{Confidence: 0.9}},
		}},
		{FullTextAnnotation: &visionpb.TextAnnotation{
			Text:  "putty 2 bags @500\n",
			Pages: []*visionpb.Page{{Confidence: 0.7}},
		}},
	}

	sheet, err := sheetFromResponses(pages)
	require.NoError(t, err)
	assert.Equal(t, 2, sheet.PageCount)
	assert.InDelta(t, 0.8, sheet.Confidence, 1e-6)
	assert.Equal(t, []string{"plaster 10x12 sqft @45", "putty 2 bags @500"}, sheet.Lines())
}

func TestSheetFromResponsesErrors(t *testing.T) {
	_, err := sheetFromResponses(nil)
	assert.ErrorIs(t, err, ErrBlankSheet)

	blank := []*visionpb.AnnotateImageResponse{{FullTextAnnotation: &visionpb.TextAnnotation{Text: "  \n"}}}
	_, err = sheetFromResponses(blank)
	assert.ErrorIs(t, err, ErrBlankSheet)

	many := make([]*visionpb.AnnotateImageResponse, MaxPagesSync+1)
	_, err = sheetFromResponses(many)
	assert.ErrorIs(t, err, ErrTooManyPages)

	failedPage := []*visionpb.AnnotateImageResponse{
		{FullTextAnnotation: &visionpb.TextAnnotation{Text: "plaster 10x12 @45"}},
		{Error: &rpcstatus.Status{Message: "image too blurry"}},
	}
	_, err = sheetFromResponses(failedPage)
	assert.ErrorIs(t, err, ErrRecognitionFailed)
	var sheetErr *SheetError
	require.ErrorAs(t, err, &sheetErr)
	assert.Equal(t, 2, sheetErr.Page)
	assert.Contains(t, err.Error(), "page 2")
}

func TestReadSheetRejectsBeforeCallingVision(t *testing.T) {
	svc := NewGoogleVisionOCRServiceWithClient(nil)

	_, err := svc.ReadSheet(context.Background(), bytes.NewReader([]byte("just some text")))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	big := make([]byte, MaxFileSizeBytes+1)
	_, err = svc.ReadSheet(context.Background(), bytes.NewReader(big))
	assert.ErrorIs(t, err, ErrSheetTooLarge)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.ReadSheet(ctx, bytes.NewReader([]byte("%PDF-1.4\n")))
	assert.ErrorIs(t, err, context.Canceled)
}
