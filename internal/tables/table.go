package tables

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// Table is the structured result of table extraction.
//
// Every row in Rows has exactly ColumnCount cells. ColumnCount is zero if and
// only if Rows is empty. Headers is set only when HasHeader is true.
type Table struct {
	Rows        [][]string `json:"rows"`
	Headers     []string   `json:"headers,omitempty"`
	HasHeader   bool       `json:"has_header"`
	ColumnCount int        `json:"column_count"`

	// Strategy names the parsing strategy that produced the table.
	Strategy string `json:"strategy,omitempty"`

	// Score is the quality score the table won with.
	Score float64 `json:"score,omitempty"`
}

// Empty returns a table with no rows.
func Empty() *Table {
	return &Table{Rows: [][]string{}}
}

// IsEmpty reports whether the table has no data rows.
func (t *Table) IsEmpty() bool {
	return t == nil || len(t.Rows) == 0
}

// RowCount returns the number of data rows, excluding the header.
func (t *Table) RowCount() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnNames returns the detected headers, or generic "Column N" names when
// the table has no header row.
func (t *Table) ColumnNames() []string {
	if t.HasHeader && len(t.Headers) > 0 {
		return append([]string(nil), t.Headers...)
	}
	names := make([]string, t.ColumnCount)
	for i := range names {
		names[i] = fmt.Sprintf("Column %d", i+1)
	}
	return names
}

// Dimensions returns a human readable size such as "Table (4×3)". The row
// count includes the header row when there is one, matching what gets
// written to the sheet.
func (t *Table) Dimensions() string {
	rows := t.RowCount()
	if t.HasHeader {
		rows++
	}
	return fmt.Sprintf("Table (%d×%d)", rows, t.ColumnCount)
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	c := *t
	c.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		c.Rows[i] = append([]string(nil), row...)
	}
	if t.Headers != nil {
		c.Headers = append([]string(nil), t.Headers...)
	}
	return &c
}

// ToCSV renders the table, header first, as RFC 4180 CSV.
func (t *Table) ToCSV() string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if t.HasHeader {
		_ = w.Write(t.Headers)
	}
	for _, row := range t.Rows {
		_ = w.Write(row)
	}
	w.Flush()
	return buf.String()
}

// ToMarkdown renders the table as a markdown pipe table. Tables without a
// header row get generic column names.
func (t *Table) ToMarkdown() string {
	if t.ColumnCount == 0 {
		return ""
	}
	var sb strings.Builder
	writeRow := func(cells []string) {
		sb.WriteString("|")
		for _, c := range cells {
			sb.WriteString(" ")
			sb.WriteString(strings.ReplaceAll(c, "|", "\\|"))
			sb.WriteString(" |")
		}
		sb.WriteString("\n")
	}

	writeRow(t.ColumnNames())
	sb.WriteString("|")
	for i := 0; i < t.ColumnCount; i++ {
		sb.WriteString("---|")
	}
	sb.WriteString("\n")
	for _, row := range t.Rows {
		writeRow(row)
	}
	return sb.String()
}

// normalizeRows forces every row to the modal column count. Short rows are
// padded with empty cells; long rows have their overflow merged into the last
// retained cell.
func normalizeRows(rows [][]string) ([][]string, int) {
	if len(rows) == 0 {
		return [][]string{}, 0
	}
	width := modalWidth(widthsOf(rows))

	out := make([][]string, len(rows))
	for i, row := range rows {
		switch {
		case len(row) == width:
			out[i] = append([]string(nil), row...)
		case len(row) < width:
			padded := make([]string, width)
			copy(padded, row)
			out[i] = padded
		default:
			merged := append([]string(nil), row[:width-1]...)
			merged = append(merged, joinNonEmpty(row[width-1:]))
			out[i] = merged
		}
	}
	return out, width
}

func widthsOf(rows [][]string) []int {
	widths := make([]int, len(rows))
	for i, row := range rows {
		widths[i] = len(row)
	}
	return widths
}

// modalWidth returns the most common width; ties go to the wider one.
func modalWidth(widths []int) int {
	counts := make(map[int]int)
	best, bestCount := 0, 0
	for _, w := range widths {
		counts[w]++
	}
	for w, n := range counts {
		if n > bestCount || (n == bestCount && w > best) {
			best, bestCount = w, n
		}
	}
	return best
}

func joinNonEmpty(cells []string) string {
	parts := make([]string, 0, len(cells))
	for _, c := range cells {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " ")
}
