package voice

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"billbook/internal/logger"
	"billbook/internal/units"
	"billbook/pkg/models"
	"github.com/rs/zerolog"
)

const num = `(\d+(?:\.\d+)?)`

var (
	dimsPattern     = regexp.MustCompile(num + `\s*(?:x|×|\*|by|into)\s*` + num + `(?:\s*(?:x|×|\*|by|into)\s*` + num + `)?`)
	floorPattern    = regexp.MustCompile(`\b(ground|first|second|third|fourth|fifth|sixth|top|\d+(?:st|nd|rd|th))\s+floor\b`)
	ratePattern     = regexp.MustCompile(`(?:\brate\s*(?:of\s*)?|@\s*|\bat\s+|₹\s*|\brs\.?\s*)` + num + `(?:\s*(?:rupees|rs\.?|/-))?`)
	rupeesPattern   = regexp.MustCompile(num + `\s*(?:rupees|/-)`)
	quantityPattern = regexp.MustCompile(`\b(?:qty|quantity)\s*(?:of\s*)?` + num + `|` + num + `\s*times\b`)
	numberPattern   = regexp.MustCompile(`^` + num + `$`)
)

var numberWords = map[string]string{
	"zero": "0", "one": "1", "two": "2", "three": "3", "four": "4", "five": "5",
	"six": "6", "seven": "7", "eight": "8", "nine": "9", "ten": "10",
	"eleven": "11", "twelve": "12", "thirteen": "13", "fourteen": "14", "fifteen": "15",
	"sixteen": "16", "seventeen": "17", "eighteen": "18", "nineteen": "19", "twenty": "20",
	"thirty": "30", "forty": "40", "fifty": "50", "sixty": "60", "seventy": "70",
	"eighty": "80", "ninety": "90", "hundred": "100", "half": "0.5",
}

// Unit words that only count as a unit right after a number ("10 ft",
// "3 days"); on their own they are ordinary description words.
var standaloneUnits = map[string]bool{
	"sq.ft": true, "sqft": true, "sft": true, "sq.m": true, "sqm": true, "sq.yd": true, "sqyd": true,
	"cu.ft": true, "cft": true, "cuft": true, "cu.m": true, "cum": true, "cbm": true,
	"brass": true, "rft": true, "r.ft": true, "rmt": true,
	"nos": true, "nos.": true, "pcs": true, "kg": true, "kgs": true, "bag": true, "bags": true,
	"lumpsum": true,
}

var fillerWords = map[string]bool{
	"rate": true, "at": true, "of": true, "rs": true, "rs.": true, "rupees": true,
	"per": true, "each": true, "@": true, "₹": true, "/-": true, "qty": true, "quantity": true,
}

type unitPattern struct {
	unit       units.Unit
	pattern    *regexp.Regexp
	needNumber bool
}

var unitPatterns = buildUnitPatterns()

// buildUnitPatterns matches every registry identifier, longest first so
// "running feet" wins over "feet".
func buildUnitPatterns() []unitPattern {
	ids := units.Identifiers()
	sort.SliceStable(ids, func(i, j int) bool { return len(ids[i]) > len(ids[j]) })

	out := make([]unitPattern, 0, len(ids))
	for _, id := range ids {
		alias := strings.ToLower(id)
		out = append(out, unitPattern{
			unit:       units.Lookup(alias),
			pattern:    regexp.MustCompile(`(?:^|\s)(?:` + num + `\s*)?` + regexp.QuoteMeta(alias) + `(?:\s|$)`),
			needNumber: !strings.Contains(alias, " ") && !standaloneUnits[alias],
		})
	}
	return out
}

// HeuristicParser extracts line items with regular expressions. It never
// calls out to a service.
type HeuristicParser struct {
	log zerolog.Logger
}

// NewHeuristicParser creates a new offline parser
func NewHeuristicParser() *HeuristicParser {
	return &HeuristicParser{
		log: logger.WithComponent("voice-heuristic"),
	}
}

// Parse implements Parser. Dimensions ("10 by 12", "10x12x4"), floor,
// rate, unit and quantity are pulled out in that order; the words left over
// become the description.
func (p *HeuristicParser) Parse(_ context.Context, text string) (models.ParsedItem, error) {
	s := normalizeSpoken(text)
	if s == "" {
		return models.ParsedItem{}, ErrEmptyInput
	}

	var item models.ParsedItem
	dims := 0

	if m := dimsPattern.FindStringSubmatchIndex(s); m != nil {
		item.Length = parseNum(s, m, 1)
		item.Width = parseNum(s, m, 2)
		dims = 2
		if m[6] >= 0 {
			item.Height = parseNum(s, m, 3)
			dims = 3
		}
		s = cut(s, m)
	}

	if m := floorPattern.FindStringSubmatchIndex(s); m != nil {
		item.Floor = capitalize(s[m[2]:m[3]]) + " floor"
		s = cut(s, m)
	}

	if m := ratePattern.FindStringSubmatchIndex(s); m != nil {
		item.Rate = parseNum(s, m, 1)
		s = cut(s, m)
	} else if m := rupeesPattern.FindStringSubmatchIndex(s); m != nil {
		item.Rate = parseNum(s, m, 1)
		s = cut(s, m)
	}

	var unitCount float64
	for _, up := range unitPatterns {
		m := up.pattern.FindStringSubmatchIndex(s)
		if m == nil {
			continue
		}
		hasNumber := m[2] >= 0
		if up.needNumber && !hasNumber {
			continue
		}
		item.Unit = up.unit.ID
		if hasNumber {
			unitCount = parseNum(s, m, 1)
		}
		s = " " + cut(s, m) + " "
		break
	}

	if m := quantityPattern.FindStringSubmatchIndex(s); m != nil {
		if m[2] >= 0 {
			item.Quantity = parseNum(s, m, 1)
		} else {
			item.Quantity = parseNum(s, m, 2)
		}
		s = cut(s, m)
	}

	if item.Unit == "" {
		switch dims {
		case 3:
			item.Unit = "cu.ft"
		case 2:
			item.Unit = "sq.ft"
		default:
			item.Unit = "nos"
		}
	}

	var words []string
	for _, w := range strings.Fields(s) {
		if fillerWords[w] {
			continue
		}
		if numberPattern.MatchString(w) {
			if unitCount == 0 && item.Quantity == 0 {
				unitCount, _ = strconv.ParseFloat(w, 64)
			}
			continue
		}
		words = append(words, w)
	}

	if unitCount > 0 {
		applyCount(&item, unitCount, dims)
	}

	item.Description = capitalize(strings.Trim(strings.Join(words, " "), " ,.-"))

	p.log.Debug().
		Str("text", text).
		Str("description", item.Description).
		Str("unit", item.Unit).
		Float64("rate", item.Rate).
		Msg("Parsed spoken item")
	return item, nil
}

// applyCount places a bare number spoken next to the unit. For count units
// it is the quantity; for measured units without spoken dimensions it is
// the measure itself ("120 sq ft" is 120 × 1).
func applyCount(item *models.ParsedItem, n float64, dims int) {
	class := units.ClassOf(item.Unit)
	switch {
	case class == units.CountLike:
		if item.Quantity == 0 {
			item.Quantity = n
		}
	case dims == 0:
		item.Length = n
		if class.UsesWidth() {
			item.Width = 1
		}
		if class.UsesHeight() {
			item.Height = 1
		}
	case item.Quantity == 0:
		item.Quantity = n
	}
}

func normalizeSpoken(text string) string {
	fields := strings.Fields(strings.ToLower(text))
	for i, f := range fields {
		if d, ok := numberWords[f]; ok {
			fields[i] = d
		}
	}
	s := strings.Join(fields, " ")
	s = strings.ReplaceAll(s, ",", " ")
	s = strings.ReplaceAll(s, "@", " @ ")
	return strings.Join(strings.Fields(s), " ")
}

func parseNum(s string, m []int, group int) float64 {
	start, end := m[2*group], m[2*group+1]
	if start < 0 {
		return 0
	}
	f, err := strconv.ParseFloat(s[start:end], 64)
	if err != nil {
		return 0
	}
	return f
}

func cut(s string, m []int) string {
	return strings.TrimSpace(s[:m[0]] + " " + s[m[1]:])
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
