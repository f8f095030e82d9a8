package ocr

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// "1.", "2)", "(3)", "-", "*" or "•" in front of a sheet row
	rowMarker = regexp.MustCompile(`^(?:[-*•]|\(?\d{1,2}[.)])\s+`)

	summaryRow = regexp.MustCompile(`(?i)^(?:sub\s*total|grand\s*total|total|balance|advance|date|page)\b`)

	// a row holding only measurements, e.g. "10 x 12 x 4"
	measureOnly = regexp.MustCompile(`^[\d\s.,xX×*@/-]+$`)
)

// ItemLines splits recognised sheet text into one candidate line item
// per entry. Row markers are removed, and summary rows and lines without
// any number are dropped. A line holding only measurements continues
// the line above it, which is how handwriting wraps.
func ItemLines(text string) []string {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.Join(strings.Fields(raw), " ")
		line = rowMarker.ReplaceAllString(line, "")
		if line == "" || summaryRow.MatchString(line) {
			continue
		}
		if measureOnly.MatchString(line) && len(lines) > 0 {
			lines[len(lines)-1] += " " + line
			continue
		}
		lines = append(lines, line)
	}

	out := lines[:0]
	for _, line := range lines {
		if strings.ContainsFunc(line, unicode.IsDigit) {
			out = append(out, line)
		}
	}
	return out
}
