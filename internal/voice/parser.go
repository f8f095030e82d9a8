// Package voice turns a spoken or typed line item ("plaster 10 by 12
// square feet rate 45") into a models.ParsedItem.
//
// Two parsers are provided. HeuristicParser works offline with regular
// expressions; ChatGPTParser asks an OpenAI model for structured output and
// falls back to the heuristic parser when the model is unavailable or
// returns something unusable. Either result goes through
// bill.ItemInputFromParsed, so parsed items are validated and priced
// exactly like items entered through the form.
package voice

import (
	"context"
	"errors"

	"billbook/pkg/models"
)

// ErrEmptyInput is returned when there is no text to parse.
var ErrEmptyInput = errors.New("no text to parse")

// Parser extracts a line item from free text.
type Parser interface {
	Parse(ctx context.Context, text string) (models.ParsedItem, error)
}
