package tables

import (
	"math"
	"strings"

	"github.com/montanaflynn/stats"
)

// candidate is a normalized strategy result awaiting selection.
type candidate struct {
	strategy string
	table    *Table

	// widths are the per-row cell counts before normalization, header
	// included.
	widths []int

	score float64
	err   error
}

// score computes the quality score of c. lineCount is the number of content
// lines in the source document.
func (e *Extractor) score(c *candidate, lineCount int) float64 {
	t := c.table
	if t == nil || len(t.Rows) == 0 || t.ColumnCount == 0 {
		return 0
	}
	cfg := e.cfg
	w := cfg.Weights

	cells := collectCells(t)
	total := w.RowConsistency*rowConsistency(c.widths) +
		w.TypeConsistency*typeConsistency(t) +
		w.HeaderQuality*headerQuality(t, cfg) +
		w.ContentQuality*contentQuality(cells) +
		w.Structure*structuralIntegrity(t, c.widths, lineCount)

	if cells.financial > 0 {
		total += cfg.Bonuses.FinancialPattern
	}
	if cells.dates > 0 {
		total += cfg.Bonuses.DatePattern
	}
	if cells.consistentDecimals() {
		total += cfg.Bonuses.NumericFormat
	}
	rows := len(t.Rows)
	if rows >= 2 && rows <= 50 && t.ColumnCount >= 2 && t.ColumnCount <= 20 {
		total += cfg.Bonuses.ReasonableSize
	}

	if cells.emptyRatio() > 0.5 {
		total -= cfg.Penalties.MostlyEmpty
	}
	if t.ColumnCount == 1 {
		total -= cfg.Penalties.SingleColumn
	}
	if rows > 100 {
		total -= cfg.Penalties.TooManyRows
	}
	if rows == 1 {
		total -= cfg.Penalties.SingleRow
	}
	return math.Max(0, total)
}

// cellSummary counts data cells by shape.
type cellSummary struct {
	total     int
	empty     int
	numeric   int
	dates     int
	financial int
	decimals  map[int]int
}

func collectCells(t *Table) cellSummary {
	s := cellSummary{decimals: make(map[int]int)}
	for _, row := range t.Rows {
		for _, cell := range row {
			s.total++
			cell = strings.TrimSpace(cell)
			switch classify(cell) {
			case cellEmpty:
				s.empty++
				continue
			case cellNumeric:
				s.numeric++
				s.decimals[decimalPlaces(cell)]++
			case cellDate:
				s.dates++
			}
			if financialPattern.MatchString(cell) {
				s.financial++
			}
		}
	}
	return s
}

func (s cellSummary) emptyRatio() float64 {
	if s.total == 0 {
		return 1
	}
	return float64(s.empty) / float64(s.total)
}

// consistentDecimals reports whether at least two numeric cells exist and all
// share the same number of decimal places.
func (s cellSummary) consistentDecimals() bool {
	return s.numeric >= 2 && len(s.decimals) == 1
}

func decimalPlaces(cell string) int {
	cell = strings.TrimRight(cell, "%) ")
	i := strings.LastIndexAny(cell, ".,")
	if i < 0 {
		return 0
	}
	digits := len(cell) - i - 1
	// A trailing three-digit group is a thousands separator.
	if digits == 3 {
		return 0
	}
	return digits
}

// rowConsistency is the share of rows whose original width equals the mode.
func rowConsistency(widths []int) float64 {
	if len(widths) == 0 {
		return 0
	}
	mode := modalWidth(widths)
	n := 0
	for _, w := range widths {
		if w == mode {
			n++
		}
	}
	return float64(n) / float64(len(widths))
}

// typeConsistency averages, over columns, the share of non-empty cells that
// have the column's dominant type.
func typeConsistency(t *Table) float64 {
	sum := 0.0
	for col := 0; col < t.ColumnCount; col++ {
		counts := make(map[cellType]int)
		nonEmpty := 0
		for _, row := range t.Rows {
			ct := classify(row[col])
			if ct == cellEmpty {
				continue
			}
			counts[ct]++
			nonEmpty++
		}
		if nonEmpty == 0 {
			continue
		}
		best := 0
		for _, n := range counts {
			if n > best {
				best = n
			}
		}
		sum += float64(best) / float64(nonEmpty)
	}
	return sum / float64(t.ColumnCount)
}

// headerQuality rates the header row; tables without one get a neutral 0.25.
func headerQuality(t *Table, cfg Config) float64 {
	if !t.HasHeader || len(t.Headers) == 0 {
		return 0.25
	}
	points := 0
	distinct := make(map[string]bool)
	for _, h := range t.Headers {
		points += headerCellScore(h, cfg)
		distinct[strings.ToLower(strings.TrimSpace(h))] = true
	}
	quality := float64(points) / float64(4*len(t.Headers))
	return quality * float64(len(distinct)) / float64(len(t.Headers))
}

// contentQuality favours a mix of numbers and text with few empty cells.
func contentQuality(s cellSummary) float64 {
	nonEmpty := s.total - s.empty
	if nonEmpty == 0 {
		return 0
	}
	mix := 0.5
	if s.numeric > 0 && s.numeric < nonEmpty {
		mix = 1
	}
	q := 0.5*mix + 0.5*(1-s.emptyRatio())
	if s.financial > 0 || s.dates > 0 {
		q += 0.1
	}
	return math.Min(1, q)
}

// structuralIntegrity compares the row count with the source line count and
// penalizes widely varying raw row widths.
func structuralIntegrity(t *Table, widths []int, lineCount int) float64 {
	rows := len(t.Rows)
	if t.HasHeader {
		rows++
	}
	coverage := 0.0
	if lineCount > 0 && rows > 0 {
		coverage = float64(min(rows, lineCount)) / float64(max(rows, lineCount))
	}

	data := stats.LoadRawData(widths)
	mean, err := stats.Mean(data)
	if err != nil || mean == 0 {
		return 0.5 * coverage
	}
	sd, err := stats.StandardDeviation(data)
	if err != nil {
		return 0.5 * coverage
	}
	uniformity := math.Max(0, 1-sd/mean)
	return 0.5*coverage + 0.5*uniformity
}
