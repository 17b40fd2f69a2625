package tables

import (
	"encoding/csv"
	"regexp"
	"sort"
	"strings"
)

// parsed is the raw output of a strategy, before row normalization.
type parsed struct {
	rows [][]string

	// headers is set by strategies whose format carries an explicit header
	// row. When nil and detect is true, header detection runs on rows.
	headers []string
	detect  bool
}

// strategy is one way of reading a table out of a document. parse returns nil
// when the document does not look like its format at all.
type strategy struct {
	name  string
	parse func(doc document, cfg Config) *parsed
}

// Strategy names in evaluation order. On equal scores the earlier one wins.
const (
	StrategyMarkdown     = "markdown"
	StrategyTab          = "tab"
	StrategyPipe         = "pipe"
	StrategyComma        = "comma"
	StrategySemicolon    = "semicolon"
	StrategySpaceAligned = "space-aligned"
	StrategyFixedWidth   = "fixed-width"
	StrategyStructured   = "structured"
	StrategySingleColumn = "single-column"
)

func defaultStrategies() []strategy {
	return []strategy{
		{name: StrategyMarkdown, parse: parseMarkdown},
		{name: StrategyTab, parse: parseTabs},
		{name: StrategyPipe, parse: parsePipes},
		{name: StrategyComma, parse: func(doc document, _ Config) *parsed { return parseDelimited(doc.lines, ',') }},
		{name: StrategySemicolon, parse: func(doc document, _ Config) *parsed { return parseDelimited(doc.lines, ';') }},
		{name: StrategySpaceAligned, parse: parseSpaceAligned},
		{name: StrategyFixedWidth, parse: parseFixedWidth},
		{name: StrategyStructured, parse: parseStructured},
	}
}

// atLeastHalf reports whether hits is at least half of total.
func atLeastHalf(hits, total int) bool {
	return hits > 0 && hits*2 >= total
}

var (
	markdownSeparator = regexp.MustCompile(`^[|+]?\s*:?-+:?\s*([|+]\s*:?-+:?\s*)*[|+]?$`)
	tabRun            = regexp.MustCompile(`\t+`)
)

// parseMarkdown reads a pipe table whose header row is followed by a
// "|---|---|" separator row.
func parseMarkdown(doc document, _ Config) *parsed {
	sep := -1
	for i := 1; i < len(doc.raw); i++ {
		if strings.Contains(doc.raw[i-1], "|") && markdownSeparator.MatchString(strings.TrimSpace(doc.raw[i])) {
			sep = i
			break
		}
	}
	if sep < 0 {
		return nil
	}

	p := &parsed{headers: splitPipes(doc.raw[sep-1])}
	for _, line := range doc.raw[sep+1:] {
		if markdownSeparator.MatchString(strings.TrimSpace(line)) {
			continue
		}
		if !strings.Contains(line, "|") {
			break
		}
		p.rows = append(p.rows, splitPipes(line))
	}
	return p
}

// splitPipes splits a pipe-delimited line, ignoring the outer pipes.
func splitPipes(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	cells := strings.Split(line, "|")
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

func parseTabs(doc document, _ Config) *parsed {
	hits := 0
	for _, line := range doc.lines {
		if strings.ContainsRune(line, '\t') {
			hits++
		}
	}
	if !atLeastHalf(hits, len(doc.lines)) {
		return nil
	}

	p := &parsed{detect: true}
	for _, line := range doc.lines {
		cells := tabRun.Split(line, -1)
		for i, c := range cells {
			cells[i] = strings.TrimSpace(c)
		}
		p.rows = append(p.rows, cells)
	}
	return p
}

// parsePipes reads pipe-delimited rows without requiring a markdown
// separator. Lines with fewer than two non-empty cells are skipped.
func parsePipes(doc document, _ Config) *parsed {
	p := &parsed{detect: true}
	for _, line := range doc.lines {
		if !strings.Contains(line, "|") {
			continue
		}
		cells := splitPipes(line)
		if countNonEmpty(cells) < 2 {
			continue
		}
		p.rows = append(p.rows, cells)
	}
	if len(p.rows) == 0 {
		return nil
	}
	return p
}

// parseDelimited reads comma or semicolon separated values, one record per
// line, honouring quoted fields.
func parseDelimited(lines []string, sep rune) *parsed {
	p := &parsed{detect: true}
	for _, line := range lines {
		if !strings.ContainsRune(line, sep) {
			continue
		}
		r := csv.NewReader(strings.NewReader(line))
		r.Comma = sep
		r.FieldsPerRecord = -1
		r.LazyQuotes = true
		r.TrimLeadingSpace = true
		record, err := r.Read()
		if err != nil || len(record) < 2 {
			continue
		}
		for i, c := range record {
			record[i] = strings.TrimSpace(c)
		}
		p.rows = append(p.rows, record)
	}
	if !atLeastHalf(len(p.rows), len(lines)) {
		return nil
	}
	return p
}

// token is a word group on a layout line and the column it starts at.
type token struct {
	start int
	text  string
}

// tokenize splits line on runs of at least gap spaces.
func tokenize(line string, gap int) []token {
	runes := []rune(line)
	var tokens []token
	start, spaces := -1, 0
	flush := func(end int) {
		if start >= 0 {
			tokens = append(tokens, token{start: start, text: strings.TrimSpace(string(runes[start:end]))})
		}
		start = -1
	}
	for i, r := range runes {
		if r == ' ' {
			spaces++
			if spaces == gap {
				flush(i - gap + 1)
			}
			continue
		}
		if start < 0 {
			start = i
		}
		spaces = 0
	}
	flush(len(runes))
	return tokens
}

// parseSpaceAligned finds columns as word-start positions that recur, within
// PositionTolerance, in at least SpaceAlignedLineRatio of the lines.
func parseSpaceAligned(doc document, cfg Config) *parsed {
	if len(doc.layout) < 2 {
		return nil
	}
	gap := cfg.MinColumnGap
	if gap < 1 {
		gap = 2
	}

	lineTokens := make([][]token, len(doc.layout))
	seen := make(map[int]bool)
	for i, line := range doc.layout {
		lineTokens[i] = tokenize(line, gap)
		for _, t := range lineTokens[i] {
			seen[t.start] = true
		}
	}

	var positions []int
	for pos := range seen {
		positions = append(positions, pos)
	}
	sort.Ints(positions)

	support := func(pos int) int {
		n := 0
		for _, tokens := range lineTokens {
			for _, t := range tokens {
				if abs(t.start-pos) <= cfg.PositionTolerance {
					n++
					break
				}
			}
		}
		return n
	}

	need := cfg.SpaceAlignedLineRatio * float64(len(doc.layout))
	var boundaries []int
	bestSupport := 0
	for _, pos := range positions {
		s := support(pos)
		if float64(s) < need {
			continue
		}
		last := len(boundaries) - 1
		if last >= 0 && pos-boundaries[last] <= cfg.PositionTolerance {
			if s > bestSupport {
				boundaries[last], bestSupport = pos, s
			}
			continue
		}
		boundaries = append(boundaries, pos)
		bestSupport = s
	}
	if len(boundaries) < 2 {
		return nil
	}

	p := &parsed{detect: true}
	for _, tokens := range lineTokens {
		if len(tokens) == 0 {
			continue
		}
		row := make([]string, len(boundaries))
		for _, t := range tokens {
			col := 0
			for j, b := range boundaries {
				if t.start+cfg.PositionTolerance >= b {
					col = j
				}
			}
			row[col] = joinNonEmpty([]string{row[col], t.text})
		}
		p.rows = append(p.rows, row)
	}
	return p
}

// parseFixedWidth treats character positions that hold a space in at least
// FixedWidthLineRatio of the lines as blank. A run of at least MinColumnGap
// blank positions between text separates two columns, which lets
// right-aligned numbers line up even when their start positions differ.
func parseFixedWidth(doc document, cfg Config) *parsed {
	if len(doc.layout) < 2 {
		return nil
	}
	gap := max(cfg.MinColumnGap, 1)

	lines := make([][]rune, len(doc.layout))
	width := 0
	for i, line := range doc.layout {
		lines[i] = []rune(line)
		width = max(width, len(lines[i]))
	}

	need := cfg.FixedWidthLineRatio * float64(len(lines))
	blank := make([]bool, width)
	for c := 0; c < width; c++ {
		n := 0
		for _, line := range lines {
			if c < len(line) && line[c] == ' ' {
				n++
			}
		}
		blank[c] = float64(n) >= need
	}

	starts := []int{0}
	for c := 0; c < width; {
		if !blank[c] {
			c++
			continue
		}
		end := c
		for end < width && blank[end] {
			end++
		}
		if c > 0 && end < width && end-c >= gap {
			starts = append(starts, end)
		}
		c = end
	}
	if len(starts) < 2 {
		return nil
	}

	p := &parsed{detect: true}
	multi := 0
	for _, line := range lines {
		cuts := wordCuts(line, starts)
		row := make([]string, len(starts))
		for j, start := range cuts {
			end := len(line)
			if j+1 < len(cuts) && cuts[j+1] < end {
				end = cuts[j+1]
			}
			if start < end {
				row[j] = strings.TrimSpace(string(line[start:end]))
			}
		}
		if countNonEmpty(row) >= 2 {
			multi++
		}
		p.rows = append(p.rows, row)
	}
	if !atLeastHalf(multi, len(lines)) {
		return nil
	}
	return p
}

// wordCuts moves each column start left to the beginning of a word that
// straddles it, so a line intruding into a gap is not split mid-word.
func wordCuts(line []rune, starts []int) []int {
	cuts := make([]int, len(starts))
	for j, s := range starts {
		cut := s
		floor := 0
		if j > 0 {
			floor = cuts[j-1] + 1
		}
		if cut > floor && cut < len(line) && line[cut] != ' ' {
			for cut > floor && line[cut-1] != ' ' {
				cut--
			}
		}
		cuts[j] = cut
	}
	return cuts
}

var (
	keyValue   = regexp.MustCompile(`^([^:]{1,60}?)\s*:\s*(\S.*)$`)
	gapped     = regexp.MustCompile(`^(\S.*?)\s{2,}(\S.*)$`)
	textNumber = regexp.MustCompile(`^(.*[^\d\s.,].*?)\s+(\(?[-+]?[$€£¥₹]?\s?\d[\d,.]*%?\)?)$`)
	numberText = regexp.MustCompile(`^(\(?[-+]?[$€£¥₹]?\d[\d,.]*%?\)?)\s+(.*\S)$`)
)

// parseStructured reads label/value pairs: "key: value", "text  value",
// "text 123" and "123 text". Lines matching none of them become one-cell
// rows.
func parseStructured(doc document, _ Config) *parsed {
	p := &parsed{}
	matched := 0
	for i, line := range doc.lines {
		pair := splitPair(line, strings.TrimLeft(doc.layout[i], " "))
		if pair == nil {
			p.rows = append(p.rows, []string{line})
			continue
		}
		matched++
		p.rows = append(p.rows, pair)
	}
	if !atLeastHalf(matched, len(doc.lines)) {
		return nil
	}
	return p
}

func splitPair(line, layout string) []string {
	if m := keyValue.FindStringSubmatch(line); m != nil {
		return []string{strings.TrimSpace(m[1]), strings.TrimSpace(m[2])}
	}
	if m := gapped.FindStringSubmatch(layout); m != nil {
		return []string{strings.TrimSpace(m[1]), strings.TrimSpace(m[2])}
	}
	if m := textNumber.FindStringSubmatch(line); m != nil {
		return []string{strings.TrimSpace(m[1]), m[2]}
	}
	if m := numberText.FindStringSubmatch(line); m != nil {
		return []string{m[1], strings.TrimSpace(m[2])}
	}
	return nil
}

func countNonEmpty(cells []string) int {
	n := 0
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
