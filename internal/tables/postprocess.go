package tables

import (
	"strings"
	"unicode"

	"github.com/ironsheep/snip-tools-mcp/internal/numparse"
)

// ocrDigits maps letters OCR commonly confuses with digits.
var ocrDigits = map[rune]rune{
	'O': '0', 'o': '0', 'l': '1', 'I': '1', '|': '1', 'S': '5', 'B': '8',
}

// postProcess cleans cell text, repairs OCR digit confusion in numeric cells
// and drops empty rows. ColumnCount is recomputed so that it is zero exactly
// when there are no rows; a table without rows has no header either.
func postProcess(t *Table) *Table {
	rows := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		cleaned := make([]string, len(row))
		for i, cell := range row {
			cleaned[i] = fixDigits(collapseWhitespace(cell))
		}
		if countNonEmpty(cleaned) > 0 {
			rows = append(rows, cleaned)
		}
	}
	t.Rows = rows

	if t.HasHeader {
		for i, h := range t.Headers {
			t.Headers[i] = collapseWhitespace(h)
		}
	}

	if len(rows) == 0 {
		t.ColumnCount = 0
		t.HasHeader = false
		t.Headers = nil
		return t
	}
	t.ColumnCount = len(rows[0])
	return t
}

// fixDigits replaces confusable letters in a cell that is mostly digits. The
// repair is kept only if the result parses as a number.
func fixDigits(cell string) string {
	digits, confusable := 0, 0
	for _, r := range cell {
		switch {
		case unicode.IsDigit(r):
			digits++
		case ocrDigits[r] != 0:
			confusable++
		case strings.ContainsRune(numparse.CurrencySymbols+"%(),.+- ", r):
		default:
			return cell
		}
	}
	if confusable == 0 || digits <= confusable {
		return cell
	}

	fixed := strings.Map(func(r rune) rune {
		if d, ok := ocrDigits[r]; ok {
			return d
		}
		return r
	}, cell)
	if !numparse.LooksNumeric(fixed) {
		return cell
	}
	return fixed
}
