package numparse

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Match is one numeric substring found in free text.
type Match struct {
	// Text is the substring as it appeared in the input.
	Text string `json:"text"`

	// Value is the parsed number, sign and percent applied.
	Value float64 `json:"value"`

	// Decimals is the number of fractional digits the token carried.
	Decimals int `json:"decimals"`
}

// numberToken matches, in priority order, parenthesized negatives and
// optionally signed, optionally currency-prefixed digit runs with separators.
var numberToken = regexp.MustCompile(
	`\(\s*-?(?:[$€£¥₹]\s*)?\d[\d,.]*\s*\)` +
		`|-?(?:[$€£¥₹]\s*)?\d[\d,.]*%?`)

// FindNumbers extracts every number in text, in order of appearance.
//
// Unlike TryParse, a comma-only token in thousands shape ("1,200") is read as
// a grouped integer here: in running text the grouped reading is the
// overwhelmingly common one. Trailing sentence punctuation is not part of a
// token, and a '-' glued to a preceding letter or digit ("2024-01") is a
// hyphen, not a sign.
func FindNumbers(text string) []Match {
	locs := numberToken.FindAllStringIndex(text, -1)
	matches := make([]Match, 0, len(locs))

	for _, loc := range locs {
		token := text[loc[0]:loc[1]]
		if !strings.HasPrefix(token, "(") {
			token = strings.TrimRight(token, ".,")
		}
		if strings.HasPrefix(token, "-") && loc[0] > 0 {
			prev, _ := utf8.DecodeLastRuneInString(text[:loc[0]])
			if unicode.IsLetter(prev) || unicode.IsDigit(prev) {
				token = token[1:]
			}
		}

		candidate := token
		if digits := bareDigits(token); groupedOnly.MatchString(digits) {
			candidate = strings.ReplaceAll(token, ",", "")
		}

		canon, _, _, ok := canonicalize(candidate)
		if !ok {
			continue
		}
		value, ok := TryParse(candidate)
		if !ok {
			continue
		}

		decimals := 0
		if i := strings.IndexByte(canon, '.'); i >= 0 {
			decimals = len(canon) - i - 1
		}
		matches = append(matches, Match{
			Text:     strings.TrimSpace(token),
			Value:    value,
			Decimals: decimals,
		})
	}
	return matches
}

// Sum adds the values of matches and reports whether any carried decimals.
func Sum(matches []Match) (total float64, fractional bool) {
	for _, m := range matches {
		total += m.Value
		if m.Decimals > 0 {
			fractional = true
		}
	}
	return total, fractional
}

// Values returns the parsed values of matches in order.
func Values(matches []Match) []float64 {
	values := make([]float64, len(matches))
	for i, m := range matches {
		values[i] = m.Value
	}
	return values
}

// bareDigits strips everything but digits, commas and dots.
func bareDigits(token string) string {
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' {
			return r
		}
		return -1
	}, token)
}
