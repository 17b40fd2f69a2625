package registry

import (
	"fmt"
	"strings"
	"time"

	"github.com/ironsheep/snip-tools-mcp/internal/tables"
)

// Kind is the extraction mode a snip was taken in.
type Kind string

const (
	KindText       Kind = "Text"
	KindSum        Kind = "Sum"
	KindTable      Kind = "Table"
	KindValidation Kind = "Validation"
	KindException  Kind = "Exception"
	KindImage      Kind = "Image"
)

// Kinds lists every valid kind.
var Kinds = []Kind{KindText, KindSum, KindTable, KindValidation, KindException, KindImage}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseKind converts a case-insensitive name to a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(string(k), strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown snip kind %q", s)
}

// Bounds is a rectangle in source-page pixel space.
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsEmpty reports whether the rectangle has no area.
func (b Bounds) IsEmpty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// SnipRecord links a spreadsheet cell to the document region it was
// extracted from.
type SnipRecord struct {
	ID             string `json:"id"`
	Kind           Kind   `json:"kind"`
	SourceDocument string `json:"source_document"`
	SourcePage     int    `json:"source_page"`
	SourceBounds   Bounds `json:"source_bounds"`
	ExtractedValue string `json:"extracted_value"`

	// Numbers holds the parsed addends of a Sum snip, in source order.
	Numbers []float64 `json:"numbers,omitempty"`

	// Table holds the structured result of a Table snip.
	Table *tables.Table `json:"table,omitempty"`

	TargetCellReference string `json:"target_cell_reference"`

	// Confidence is the advisory OCR confidence in [0,1]; zero when no OCR
	// ran.
	Confidence float64 `json:"confidence,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// clone returns a deep copy with empty Numbers normalized to nil.
func (r SnipRecord) clone() SnipRecord {
	c := r
	if len(r.Numbers) > 0 {
		c.Numbers = append([]float64(nil), r.Numbers...)
	} else {
		c.Numbers = nil
	}
	c.Table = r.Table.Clone()
	return c
}

func (r SnipRecord) validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("invalid snip kind %q", r.Kind)
	}
	if r.SourcePage < 1 {
		return fmt.Errorf("source page must be at least 1, got %d", r.SourcePage)
	}
	return nil
}
