package tables

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// document is normalized OCR text in three aligned views. lines and layout
// always have the same length and index the same physical lines.
type document struct {
	// raw keeps border rows; the markdown strategy needs its separator row.
	raw []string

	// lines drops border rows and collapses runs of spaces. Tabs survive.
	lines []string

	// layout drops border rows but keeps the original spacing, with tabs
	// expanded, for strategies that work on character positions.
	layout []string
}

// artefacts maps box-drawing characters and common OCR misreads of table
// rules onto the plain ASCII the strategies understand.
var artefacts = strings.NewReplacer(
	"│", "|", "┃", "|", "║", "|", "¦", "|", "ǀ", "|",
	"─", "-", "━", "-", "═", "=", "\u2014", "-", "\u2013", "-", "\u2012", "-",
	"┌", "+", "┐", "+", "└", "+", "┘", "+", "├", "+", "┤", "+",
	"┬", "+", "┴", "+", "┼", "+", "╔", "+", "╗", "+", "╚", "+",
	"╝", "+", "╠", "+", "╣", "+", "╦", "+", "╩", "+", "╬", "+",
	"\u00a0", " ", "\u2007", " ", "\u2009", " ", "\u202f", " ", "\u3000", " ",
	"\u200b", "", "\ufeff", "",
	"\r\n", "\n", "\r", "\n", "\f", "\n", "\v", "\n",
)

// prepare applies the text-level normalization shared by every view.
func prepare(raw string) string {
	return artefacts.Replace(norm.NFKC.String(raw))
}

func normalize(raw string, tabWidth int) document {
	var doc document
	for _, line := range strings.Split(prepare(raw), "\n") {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if strings.TrimSpace(line) == "" {
			continue
		}
		doc.raw = append(doc.raw, line)
		if isBorderLine(line) {
			continue
		}
		doc.lines = append(doc.lines, collapseSpaces(line))
		doc.layout = append(doc.layout, expandTabs(line, tabWidth))
	}
	return doc
}

// isBorderLine reports whether line is a pure rule such as "+---+---+" or
// "|====|".
func isBorderLine(line string) bool {
	rule := false
	for _, r := range line {
		switch r {
		case '-', '=', '+', '|', '_':
			rule = true
		case ' ', '\t', ':', '~', '*':
		default:
			return false
		}
	}
	return rule
}

// collapseSpaces trims line and squeezes runs of spaces to one. Tabs are
// delimiters and are left alone.
func collapseSpaces(line string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.TrimSpace(line) {
		if r == ' ' {
			if !space {
				b.WriteRune(r)
			}
			space = true
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

func expandTabs(line string, width int) string {
	if !strings.ContainsRune(line, '\t') {
		return line
	}
	if width <= 0 {
		width = 8
	}
	var b strings.Builder
	col := 0
	for _, r := range line {
		if r == '\t' {
			n := width - col%width
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}

// collapseWhitespace trims s and squeezes every run of whitespace, newlines
// included, to a single space.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CleanText normalizes OCR text for a single cell: Unicode NFKC, OCR artefacts
// mapped to ASCII, all whitespace collapsed to single spaces and trimmed.
func CleanText(raw string) string {
	return collapseWhitespace(prepare(raw))
}

// indentOf returns the number of leading spaces in a layout line.
func indentOf(line string) int {
	return utf8.RuneCountInString(line) - utf8.RuneCountInString(strings.TrimLeft(line, " "))
}
