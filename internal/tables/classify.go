package tables

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ironsheep/snip-tools-mcp/internal/numparse"
)

type cellType int

const (
	cellEmpty cellType = iota
	cellNumeric
	cellDate
	cellBoolean
	cellText
)

var (
	datePattern = regexp.MustCompile(
		`^\d{1,4}[/.\-]\d{1,2}[/.\-]\d{1,4}$` +
			`|(?i)^(\d{1,2}\s+)?(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?(\s+\d{1,2})?,?(\s+\d{2,4})?$`)

	financialPattern = regexp.MustCompile(
		`[$€£¥₹]\s*\d|\(\s*\d[\d,]*(\.\d+)?\s*\)|^\d{1,3}(,\d{3})+(\.\d{2})?$|^-?\d+\.\d{2}$`)

	booleans = map[string]bool{
		"yes": true, "no": true, "true": true, "false": true,
		"y": true, "n": true, "x": true, "✓": true, "✗": true,
	}
)

func classify(cell string) cellType {
	cell = strings.TrimSpace(cell)
	switch {
	case cell == "":
		return cellEmpty
	case datePattern.MatchString(cell):
		return cellDate
	case booleans[strings.ToLower(cell)]:
		return cellBoolean
	case numparse.LooksNumeric(cell):
		return cellNumeric
	default:
		return cellText
	}
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// isHeaderKeyword reports whether any word of cell is a known header word.
func isHeaderKeyword(cell string, keywords []string) bool {
	words := strings.FieldsFunc(strings.ToLower(cell), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		for _, k := range keywords {
			if w == k {
				return true
			}
		}
	}
	return false
}

// headerCellScore awards one point each for letters, a header keyword, a
// short length and a non-numeric value.
func headerCellScore(cell string, cfg Config) int {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0
	}
	score := 0
	if hasLetter(cell) {
		score++
	}
	if isHeaderKeyword(cell, cfg.HeaderKeywords) {
		score++
	}
	if utf8.RuneCountInString(cell) < cfg.MaxHeaderLength {
		score++
	}
	if !numparse.LooksNumeric(cell) {
		score++
	}
	return score
}

// looksLikeHeader decides whether the first of rows is a header row.
func looksLikeHeader(rows [][]string, cfg Config) bool {
	if len(rows) <= 1 || len(rows[0]) == 0 {
		return false
	}
	total := 0
	for _, cell := range rows[0] {
		total += headerCellScore(cell, cfg)
	}
	return float64(total) > cfg.HeaderScoreMultiplier*float64(len(rows[0]))
}
