package tables

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRows_MajorityWidth(t *testing.T) {
	rows, width := normalizeRows([][]string{
		{"a", "b"},
		{"c", "d", "e"},
		{"f", "g"},
	})

	assert.Equal(t, 2, width)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d e"}, {"f", "g"}}, rows)
}

func TestNormalizeRows_PadsShortRows(t *testing.T) {
	rows, width := normalizeRows([][]string{
		{"a", "b", "c"},
		{"d"},
		{"e", "f", "g"},
	})

	assert.Equal(t, 3, width)
	assert.Equal(t, []string{"d", "", ""}, rows[1])
}

func TestNormalizeRows_TiePrefersWider(t *testing.T) {
	_, width := normalizeRows([][]string{{"a", "b"}, {"c", "d", "e"}})
	assert.Equal(t, 3, width)

	rows, width := normalizeRows(nil)
	assert.Zero(t, width)
	assert.NotNil(t, rows)
}

func TestTable_ColumnNames(t *testing.T) {
	withHeader := &Table{Headers: []string{"Name", "Age"}, HasHeader: true, ColumnCount: 2, Rows: [][]string{{"a", "1"}}}
	assert.Equal(t, []string{"Name", "Age"}, withHeader.ColumnNames())

	generic := &Table{ColumnCount: 3, Rows: [][]string{{"a", "b", "c"}}}
	assert.Equal(t, []string{"Column 1", "Column 2", "Column 3"}, generic.ColumnNames())
	assert.Equal(t, "Table (1×3)", generic.Dimensions())
}

func TestTable_CloneIsDeep(t *testing.T) {
	orig := &Table{Headers: []string{"H"}, HasHeader: true, ColumnCount: 1, Rows: [][]string{{"x"}}}
	c := orig.Clone()
	c.Rows[0][0] = "changed"
	c.Headers[0] = "changed"

	assert.Equal(t, "x", orig.Rows[0][0])
	assert.Equal(t, "H", orig.Headers[0])
	assert.Nil(t, (*Table)(nil).Clone())
}

func TestTable_ToCSV(t *testing.T) {
	table := &Table{
		Headers:     []string{"Name", "Amount"},
		HasHeader:   true,
		ColumnCount: 2,
		Rows:        [][]string{{"Smith, John", "1,200.00"}},
	}
	assert.Equal(t, "Name,Amount\n\"Smith, John\",\"1,200.00\"\n", table.ToCSV())
}

func TestTable_ToMarkdown(t *testing.T) {
	table := &Table{ColumnCount: 2, Rows: [][]string{{"a|b", "1"}}}
	want := "| Column 1 | Column 2 |\n|---|---|\n| a\\|b | 1 |\n"
	assert.Equal(t, want, table.ToMarkdown())
	assert.Empty(t, Empty().ToMarkdown())
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims", "  hello  ", "hello"},
		{"collapses lines", "first\r\nsecond\n\nthird", "first second third"},
		{"nbsp", "a\u00a0 b", "a b"},
		{"box drawing", "Name │ Age", "Name | Age"},
		{"fullwidth", "\uff21\uff22\uff23\uff11\uff12\uff13", "ABC123"},
		{"zero width", "ab\u200bc", "abc"},
		{"empty", " \t\n ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.input))
		})
	}
}

func TestPostProcess_NoRowsDropsHeader(t *testing.T) {
	table := postProcess(&Table{
		Headers:     []string{"|-)-"},
		HasHeader:   true,
		Rows:        [][]string{{" \t "}},
		ColumnCount: 1,
	})

	assert.Empty(t, table.Rows)
	assert.False(t, table.HasHeader)
	assert.Nil(t, table.Headers)
	assert.Zero(t, table.ColumnCount)
}

func TestFixDigits(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1O5", "105"},
		{"l00", "100"},
		{"$1,2OO.00", "$1,200.00"},
		{"3S5", "355"},
		{"B2", "B2"},
		{"Bob", "Bob"},
		{"SOS", "SOS"},
		{"12.5", "12.5"},
		{"Total 1O", "Total 1O"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, fixDigits(tt.input))
		})
	}
}

func TestLooksLikeHeader(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, looksLikeHeader([][]string{{"Name", "Amount"}, {"x", "1"}}, cfg))
	assert.False(t, looksLikeHeader([][]string{{"12", "34"}, {"56", "78"}}, cfg))
	assert.False(t, looksLikeHeader([][]string{{"Name", "Amount"}}, cfg), "a lone row is never a header")
}

func TestClassify(t *testing.T) {
	assert.Equal(t, cellEmpty, classify("  "))
	assert.Equal(t, cellNumeric, classify("$1,200.00"))
	assert.Equal(t, cellDate, classify("2024-01-15"))
	assert.Equal(t, cellDate, classify("Mar 3, 2024"))
	assert.Equal(t, cellBoolean, classify("Yes"))
	assert.Equal(t, cellText, classify("Coffee"))
}

func TestIsBorderLine(t *testing.T) {
	assert.True(t, isBorderLine("+----+----+"))
	assert.True(t, isBorderLine("|:---|---:|"))
	assert.True(t, isBorderLine("======"))
	assert.False(t, isBorderLine("-5"))
	assert.False(t, isBorderLine("| a |"))
	assert.False(t, isBorderLine("***"))
}
