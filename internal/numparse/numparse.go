// Package numparse interprets numeric strings the way they show up in OCR
// output: currency symbols, percentages, accounting-style negatives and both
// dot- and comma-decimal conventions.
//
// All functions are pure and safe for concurrent use.
package numparse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// CurrencySymbols are stripped before parsing.
const CurrencySymbols = "$€£¥₹"

var (
	plainNumber = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)$`)
	groupedOnly = regexp.MustCompile(`^\d{1,3}(,\d{3})+$`)

	// cellNumber is a plain number as a spreadsheet would show it: optional
	// sign, comma thousands groups, dot decimals and no padding zeros.
	cellNumber = regexp.MustCompile(`^-?(?:0|[1-9]\d{0,2}(?:,\d{3})+|[1-9]\d*)(?:\.\d+)?$`)
)

// TryParse interprets input as a number. It reports false, never panics, when
// input carries no usable numeric content.
//
// Rules, applied in order:
//   - currency symbols, whitespace and percent signs are removed; a percent sign
//     divides the result by 100
//   - a value wrapped in parentheses is negative, as is a leading or trailing '-'
//   - when both ',' and '.' occur, whichever comes last is the decimal separator
//     and the other is a thousands separator
//   - a single ',' without any '.' is a decimal separator ("12,50" is 12.5)
//   - repeated separators of one kind ("1,234,567", "1.234.567") are thousands
//     separators
func TryParse(input string) (float64, bool) {
	canon, negative, percent, ok := canonicalize(input)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(canon, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	if negative {
		v = -v
	}
	if percent {
		v /= 100
	}
	return v, true
}

// Format renders v in canonical dot-decimal form with the fewest digits that
// parse back to the same value.
func Format(v float64) string {
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatSum renders a sum for a spreadsheet cell: no decimals for whole sums
// built from whole inputs, two decimals otherwise.
func FormatSum(sum float64, fractionalInputs bool) string {
	if sum == 0 {
		sum = 0
	}
	if !fractionalInputs && sum == math.Trunc(sum) {
		return strconv.FormatFloat(sum, 'f', 0, 64)
	}
	return strconv.FormatFloat(sum, 'f', 2, 64)
}

// ParseCell reports the value of s when it is safe to store as a number
// without changing what the cell shows. Commas are thousands separators, as
// FindNumbers reads them. Currency, percent, accounting negatives and
// zero-padded codes such as "00123" are not numbers here.
func ParseCell(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !cellNumber.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// LooksNumeric reports whether s parses as a number.
func LooksNumeric(s string) bool {
	_, ok := TryParse(s)
	return ok
}

// canonicalize strips decoration from input and returns the unsigned
// dot-decimal digits along with the sign and percent flags.
func canonicalize(input string) (canon string, negative, percent bool, ok bool) {
	var b strings.Builder
	for _, r := range input {
		switch {
		case strings.ContainsRune(CurrencySymbols, r):
		case unicode.IsSpace(r):
		case r == '%':
			percent = true
		case r == '\u2212':
			b.WriteByte('-')
		default:
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return "", false, false, false
	}

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") && len(s) > 2 {
		negative = true
		s = s[1 : len(s)-1]
	}
	switch {
	case strings.HasPrefix(s, "-"):
		negative = !negative
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	case strings.HasSuffix(s, "-"):
		negative = !negative
		s = s[:len(s)-1]
	}

	s, ok = normalizeSeparators(s)
	if !ok || !plainNumber.MatchString(s) {
		return "", false, false, false
	}
	return s, negative, percent, true
}

func normalizeSeparators(s string) (string, bool) {
	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")

	switch {
	case commas > 0 && dots > 0:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			if commas > 1 {
				return "", false
			}
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1), true
		}
		if dots > 1 {
			return "", false
		}
		return strings.ReplaceAll(s, ",", ""), true
	case commas == 1:
		return strings.Replace(s, ",", ".", 1), true
	case commas > 1:
		if !isGrouped(s, ",") {
			return "", false
		}
		return strings.ReplaceAll(s, ",", ""), true
	case dots > 1:
		if !isGrouped(s, ".") {
			return "", false
		}
		return strings.ReplaceAll(s, ".", ""), true
	}
	return s, true
}

// isGrouped reports whether s is digits in thousands groups split by sep.
func isGrouped(s, sep string) bool {
	parts := strings.Split(s, sep)
	if len(parts[0]) == 0 || len(parts[0]) > 3 {
		return false
	}
	for _, p := range parts {
		for _, r := range p {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	for _, p := range parts[1:] {
		if len(p) != 3 {
			return false
		}
	}
	return true
}
