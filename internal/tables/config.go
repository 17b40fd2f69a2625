package tables

// Config holds the tuning constants for table extraction. The defaults were
// hand-tuned against OCR output of financial documents; treat them as
// heuristics, not derived values.
type Config struct {
	// MinQualityScore is the score below which the best candidate is discarded
	// in favour of the single-column fallback.
	MinQualityScore float64

	// HeaderScoreMultiplier: the first row becomes the header when its header
	// score exceeds this multiple of the column count.
	HeaderScoreMultiplier float64

	// MaxHeaderLength is the rune length under which a cell counts as a
	// plausibly short header.
	MaxHeaderLength int

	// SpaceAlignedLineRatio is the share of lines a word-start position must
	// recur in to become a column boundary.
	SpaceAlignedLineRatio float64

	// FixedWidthLineRatio is the share of lines that must be blank at a
	// character position for it to count as a column gap.
	FixedWidthLineRatio float64

	// MinColumnGap is the number of spaces separating columns in
	// space-aligned text.
	MinColumnGap int

	// PositionTolerance is the slack, in characters, when matching column
	// start positions across lines.
	PositionTolerance int

	// IndentChangeThreshold: an indentation change larger than this starts a
	// new logical row in the single-column fallback.
	IndentChangeThreshold int

	// TabWidth is used to expand tabs for the column-position strategies.
	TabWidth int

	// Parallel evaluates strategies concurrently.
	Parallel bool

	// HeaderKeywords are words typical of column headers.
	HeaderKeywords []string

	Weights   Weights
	Bonuses   Bonuses
	Penalties Penalties
}

// Weights scale the five base score components, each measured in [0,1].
type Weights struct {
	RowConsistency  float64
	TypeConsistency float64
	HeaderQuality   float64
	ContentQuality  float64
	Structure       float64
}

// Bonuses are flat additions to the base score.
type Bonuses struct {
	FinancialPattern float64
	DatePattern      float64
	NumericFormat    float64
	ReasonableSize   float64
}

// Penalties are flat deductions from the base score.
type Penalties struct {
	MostlyEmpty  float64
	SingleColumn float64
	TooManyRows  float64
	SingleRow    float64
}

// DefaultConfig returns the default tuning.
func DefaultConfig() Config {
	return Config{
		MinQualityScore:       50,
		HeaderScoreMultiplier: 1.5,
		MaxHeaderLength:       20,
		SpaceAlignedLineRatio: 0.5,
		FixedWidthLineRatio:   0.7,
		MinColumnGap:          2,
		PositionTolerance:     1,
		IndentChangeThreshold: 2,
		TabWidth:              8,
		Parallel:              true,
		HeaderKeywords:        defaultHeaderKeywords(),
		Weights: Weights{
			RowConsistency:  300,
			TypeConsistency: 250,
			HeaderQuality:   200,
			ContentQuality:  150,
			Structure:       100,
		},
		Bonuses: Bonuses{
			FinancialPattern: 50,
			DatePattern:      30,
			NumericFormat:    40,
			ReasonableSize:   50,
		},
		Penalties: Penalties{
			MostlyEmpty:  100,
			SingleColumn: 200,
			TooManyRows:  100,
			SingleRow:    150,
		},
	}
}

func defaultHeaderKeywords() []string {
	return []string{
		"name", "date", "amount", "total", "subtotal", "description", "item",
		"qty", "quantity", "price", "cost", "unit", "rate", "tax", "value",
		"id", "no", "number", "ref", "reference", "code", "type", "category",
		"account", "balance", "debit", "credit", "invoice", "status", "year",
		"month", "period", "age", "sum", "percent", "fee", "vendor", "customer",
	}
}
