package ocr

import (
	"errors"
	"fmt"
)

// Measurement sheet errors. The messages are shown to the contractor as is.
var (
	ErrSheetTooLarge      = errors.New("sheet file is larger than 20MB, photograph it at a lower resolution")
	ErrUnsupportedFormat  = errors.New("sheet must be a photo (JPEG, PNG, GIF, WebP, BMP) or a PDF")
	ErrMissingCredentials = errors.New("reading sheets needs Google Cloud Vision: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS")
	ErrTooManyPages       = errors.New("sheet PDF has more than 5 pages, split it and scan each part")

	// ErrRecognitionFailed covers Vision rejecting the request or a page.
	ErrRecognitionFailed = errors.New("could not recognise the sheet")

	// ErrBlankSheet means Vision found no writing at all.
	ErrBlankSheet = errors.New("no writing found on the sheet")

	// ErrNoItemRows means there was writing but no row with a measurement
	// or amount in it.
	ErrNoItemRows = errors.New("no item rows found on the sheet")
)

// SheetError records the step that failed while reading a sheet and, for
// PDFs, the page it failed on.
type SheetError struct {
	Op   string
	Page int // 1-based, 0 when not page specific
	Err  error
}

func (e *SheetError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("reading sheet: %s: page %d: %v", e.Op, e.Page, e.Err)
	}
	return fmt.Sprintf("reading sheet: %s: %v", e.Op, e.Err)
}

func (e *SheetError) Unwrap() error {
	return e.Err
}

// wrapSheetError tags err with op unless it already carries a step.
func wrapSheetError(op string, err error) error {
	if err == nil {
		return nil
	}
	var sheetErr *SheetError
	if errors.As(err, &sheetErr) {
		return err
	}
	return &SheetError{Op: op, Err: err}
}
