package registry

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SplitCellRef splits a reference such as "B3", "Sheet1!$B$3" or
// "'Q1 Totals'!B3" into its sheet and cell parts. The sheet is empty when the
// reference names none; the cell comes back upper-cased without '$' anchors.
func SplitCellRef(ref string) (sheet, cell string, err error) {
	ref = strings.TrimSpace(ref)
	if i := strings.LastIndex(ref, "!"); i >= 0 {
		sheet = ref[:i]
		ref = ref[i+1:]
		if len(sheet) >= 2 && strings.HasPrefix(sheet, "'") && strings.HasSuffix(sheet, "'") {
			sheet = strings.ReplaceAll(sheet[1:len(sheet)-1], "''", "'")
		}
		if sheet == "" {
			return "", "", fmt.Errorf("empty sheet name in cell reference")
		}
	}

	cell = strings.ToUpper(strings.ReplaceAll(ref, "$", ""))
	if _, _, err := excelize.CellNameToCoordinates(cell); err != nil {
		return "", "", fmt.Errorf("invalid cell reference %q: %w", ref, err)
	}
	return sheet, cell, nil
}

// sameCell reports whether two references name the same cell. A reference
// without a sheet matches that cell on any sheet. Unparseable references
// fall back to a case-insensitive comparison.
func sameCell(a, b string) bool {
	sa, ca, errA := SplitCellRef(a)
	sb, cb, errB := SplitCellRef(b)
	if errA != nil || errB != nil {
		return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
	}
	if ca != cb {
		return false
	}
	return sa == "" || sb == "" || strings.EqualFold(sa, sb)
}
