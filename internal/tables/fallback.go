package tables

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var listMarker = regexp.MustCompile(`^([-*•·>]|\d{1,3}[.)]|[a-zA-Z][.)]|\(\d{1,3}\)|\([a-zA-Z]\))\s+`)

// fallback groups physical lines into logical rows of a single-column table.
// A new row starts at a list marker, after a line ending a sentence when the
// next line starts upper-case, or when indentation shifts by more than
// IndentChangeThreshold.
func (e *Extractor) fallback(doc document) *Table {
	var (
		rows       [][]string
		current    []string
		prevText   string
		prevIndent int
	)
	flush := func() {
		if len(current) > 0 {
			rows = append(rows, []string{strings.Join(current, " ")})
			current = nil
		}
	}

	for i, line := range doc.lines {
		text := strings.TrimSpace(line)
		indent := indentOf(doc.layout[i])
		if len(current) > 0 {
			switch {
			case listMarker.MatchString(text),
				endsSentence(prevText) && startsUpper(text),
				abs(indent-prevIndent) > e.cfg.IndentChangeThreshold:
				flush()
			}
		}
		current = append(current, text)
		prevText, prevIndent = text, indent
	}
	flush()

	if len(rows) == 0 {
		return Empty()
	}
	return &Table{Rows: rows, ColumnCount: 1, Strategy: StrategySingleColumn}
}

func endsSentence(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return strings.ContainsRune(".!?:;", r)
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}
