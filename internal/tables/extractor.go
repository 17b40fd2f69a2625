package tables

import (
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/snip-tools-mcp/internal/logging"
)

// Extractor turns OCR text into a [Table]. It holds no mutable state and is
// safe for concurrent use.
type Extractor struct {
	cfg        Config
	strategies []strategy
	log        *logging.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger used for per-strategy debug output.
func WithLogger(l *logging.Logger) Option {
	return func(e *Extractor) { e.log = l.Named("tables") }
}

// NewExtractor creates an extractor with the given tuning.
func NewExtractor(cfg Config, opts ...Option) *Extractor {
	e := &Extractor{cfg: cfg, strategies: defaultStrategies()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewDefaultExtractor creates an extractor with [DefaultConfig].
func NewDefaultExtractor() *Extractor {
	return NewExtractor(DefaultConfig())
}

// Config returns the extractor's tuning.
func (e *Extractor) Config() Config {
	return e.cfg
}

// CandidateScore reports how one strategy fared on a piece of text.
type CandidateScore struct {
	Strategy string  `json:"strategy"`
	Score    float64 `json:"score"`
	Rows     int     `json:"rows"`
	Columns  int     `json:"columns"`
	Error    string  `json:"error,omitempty"`
}

// Extract parses raw into a table. It never returns nil and never panics:
// text without usable content yields an empty table, and text no strategy
// reads well becomes a single-column table of logical rows.
func (e *Extractor) Extract(raw string) (result *Table) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorf("table extraction panicked: %v", r)
			result = Empty()
		}
	}()

	doc := normalize(raw, e.cfg.TabWidth)
	if len(doc.lines) == 0 {
		return Empty()
	}

	best := e.best(e.evaluate(doc))
	if best != nil && best.score >= e.cfg.MinQualityScore {
		table := best.table
		table.Strategy = best.strategy
		table.Score = best.score
		if table = postProcess(table); len(table.Rows) > 0 {
			return table
		}
		e.log.Debugf("strategy %s kept no rows after cleanup, using fallback", best.strategy)
	}
	return postProcess(e.fallback(doc))
}

// Analyze scores every strategy against raw without choosing one.
func (e *Extractor) Analyze(raw string) []CandidateScore {
	doc := normalize(raw, e.cfg.TabWidth)
	if len(doc.lines) == 0 {
		return nil
	}
	candidates := e.evaluate(doc)
	out := make([]CandidateScore, len(candidates))
	for i, c := range candidates {
		out[i] = CandidateScore{Strategy: c.strategy, Score: c.score}
		if c.table != nil {
			out[i].Rows = len(c.table.Rows)
			out[i].Columns = c.table.ColumnCount
		}
		if c.err != nil {
			out[i].Error = c.err.Error()
		}
	}
	return out
}

// evaluate runs every strategy and returns one scored candidate per strategy,
// in strategy order.
func (e *Extractor) evaluate(doc document) []*candidate {
	results := make([]*candidate, len(e.strategies))
	if e.cfg.Parallel {
		var g errgroup.Group
		for i, s := range e.strategies {
			g.Go(func() error {
				results[i] = e.run(s, doc)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, s := range e.strategies {
			results[i] = e.run(s, doc)
		}
	}

	for _, c := range results {
		if c.err != nil {
			e.log.Warnf("strategy %s failed: %v", c.strategy, c.err)
			continue
		}
		e.log.Debugf("strategy %s scored %.1f", c.strategy, c.score)
	}
	return results
}

// run parses and scores a single strategy. A panic inside the strategy is
// recovered and reported as a zero-score candidate.
func (e *Extractor) run(s strategy, doc document) (c *candidate) {
	c = &candidate{strategy: s.name}
	defer func() {
		if r := recover(); r != nil {
			c = &candidate{strategy: s.name, err: fmt.Errorf("strategy %s panicked: %v", s.name, r)}
		}
	}()

	p := s.parse(doc, e.cfg)
	if p == nil {
		return c
	}
	c.table, c.widths = e.build(p)
	c.score = e.score(c, len(doc.lines))
	return c
}

// best returns the highest scoring candidate with rows. Ties keep the earlier
// strategy.
func (e *Extractor) best(candidates []*candidate) *candidate {
	var best *candidate
	for _, c := range candidates {
		if c == nil || c.err != nil || c.table == nil || len(c.table.Rows) == 0 {
			continue
		}
		if best == nil || c.score > best.score {
			best = c
		}
	}
	return best
}

// build turns parsed rows into a normalized table, detecting a header row
// when the strategy asked for it.
func (e *Extractor) build(p *parsed) (*Table, []int) {
	var rows [][]string
	if p.headers != nil {
		rows = append(rows, p.headers)
	}
	for _, row := range p.rows {
		if countNonEmpty(row) > 0 {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return Empty(), nil
	}

	widths := widthsOf(rows)
	rows, width := normalizeRows(rows)
	rows, width = dropRuleColumns(rows, width)

	t := &Table{ColumnCount: width}
	switch {
	case p.headers != nil:
		t.HasHeader = true
		t.Headers, t.Rows = rows[0], rows[1:]
	case p.detect && looksLikeHeader(rows, e.cfg):
		t.HasHeader = true
		t.Headers, t.Rows = rows[0], rows[1:]
	default:
		t.Rows = rows
	}
	return t, widths
}

// dropRuleColumns removes columns holding nothing but table rules or blanks,
// left behind when a position-based strategy splits on "|".
func dropRuleColumns(rows [][]string, width int) ([][]string, int) {
	keep := make([]bool, width)
	kept := 0
	for col := 0; col < width; col++ {
		for _, row := range rows {
			if strings.Trim(row[col], "|+-=: ") != "" {
				keep[col] = true
				kept++
				break
			}
		}
	}
	if kept == width || kept == 0 {
		return rows, width
	}

	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = make([]string, 0, kept)
		for col, cell := range row {
			if keep[col] {
				out[i] = append(out[i], cell)
			}
		}
	}
	return out, kept
}
