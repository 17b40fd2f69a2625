// Package navigate links spreadsheet cells back to the document regions they
// were snipped from.
//
// Cells written from a snip hold a reference formula such as
// =DS.TEXTS("3f0c...") naming the snip id. [ResolveReference] recovers the id
// from cell content and a [Resolver] turns it into a [Target] the document
// viewer can scroll to and highlight.
package navigate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/snip-tools-mcp/internal/apperr"
	"github.com/ironsheep/snip-tools-mcp/internal/logging"
	"github.com/ironsheep/snip-tools-mcp/internal/registry"
)

// functions maps each kind to the worksheet function of its reference
// formula.
var functions = map[registry.Kind]string{
	registry.KindText:       "DS.TEXTS",
	registry.KindSum:        "DS.SUMS",
	registry.KindTable:      "DS.TABLE",
	registry.KindValidation: "DS.VALIDATION",
	registry.KindException:  "DS.EXCEPTION",
	registry.KindImage:      "DS.IMAGE",
}

var reference = regexp.MustCompile(`(?i)\bDS\.(TEXTS|SUMS|TABLE|VALIDATION|EXCEPTION|IMAGE)\s*\(\s*(?:"([^"]+)"|'([^']+)')\s*\)`)

// FunctionFor returns the worksheet function name for kind.
func FunctionFor(kind registry.Kind) (string, bool) {
	fn, ok := functions[kind]
	return fn, ok
}

// FormatReference builds the reference formula for a snip, for example
// =DS.SUMS("abc-123"). Unknown kinds fall back to DS.TEXTS.
func FormatReference(kind registry.Kind, id string) string {
	fn, ok := functions[kind]
	if !ok {
		fn = functions[registry.KindText]
	}
	return fmt.Sprintf(`=%s("%s")`, fn, id)
}

// ResolveReference extracts the snip id from cell content holding a
// reference formula. The function name matches case-insensitively anywhere in
// the content and the id may use single or double quotes.
func ResolveReference(content string) (string, bool) {
	m := reference.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	id := m[2]
	if id == "" {
		id = m[3]
	}
	id = strings.TrimSpace(id)
	return id, id != ""
}

// Target is everything a viewer needs to show a snip's source region.
type Target struct {
	SnipID         string          `json:"snip_id"`
	Kind           registry.Kind   `json:"kind"`
	Document       string          `json:"document"`
	Page           int             `json:"page"`
	Bounds         registry.Bounds `json:"bounds"`
	TargetCell     string          `json:"target_cell"`
	HighlightColor string          `json:"highlight_color"`
}

// Viewer displays a document region.
type Viewer interface {
	Show(target Target) error
}

// Resolver looks snips up in a registry.
type Resolver struct {
	registry *registry.Registry
	log      *logging.Logger
}

// NewResolver creates a resolver over reg.
func NewResolver(reg *registry.Registry, log *logging.Logger) *Resolver {
	return &Resolver{registry: reg, log: log.Named("navigate")}
}

// Navigate returns the source location of the snip with the given id. It
// reports false when the id is unknown, for instance after the snip was
// deleted.
func (r *Resolver) Navigate(id string) (Target, bool) {
	rec, ok := r.registry.Get(id)
	if !ok {
		r.log.Debugf("snip %s not found", id)
		return Target{}, false
	}
	return targetFor(rec), true
}

// NavigateCell resolves cell content to a target. When the content holds no
// reference formula, or names an unknown snip, the registry is searched for a
// snip written to cellRef.
func (r *Resolver) NavigateCell(content, cellRef string) (Target, bool) {
	if id, ok := ResolveReference(content); ok {
		if target, ok := r.Navigate(id); ok {
			return target, true
		}
	}
	if cellRef == "" {
		return Target{}, false
	}
	rec, ok := r.registry.FindByCell(cellRef)
	if !ok {
		return Target{}, false
	}
	return targetFor(rec), true
}

// Jump resolves a cell and hands the target to viewer.
func (r *Resolver) Jump(viewer Viewer, content, cellRef string) (Target, error) {
	target, ok := r.NavigateCell(content, cellRef)
	if !ok {
		return Target{}, apperr.Newf(apperr.CodeNotFound, "no snip linked to cell %s", cellRef)
	}
	if err := viewer.Show(target); err != nil {
		return Target{}, fmt.Errorf("failed to show snip %s: %w", target.SnipID, err)
	}
	return target, nil
}

func targetFor(rec registry.SnipRecord) Target {
	return Target{
		SnipID:         rec.ID,
		Kind:           rec.Kind,
		Document:       rec.SourceDocument,
		Page:           rec.SourcePage,
		Bounds:         rec.SourceBounds,
		TargetCell:     rec.TargetCellReference,
		HighlightColor: HighlightColor(rec.Kind),
	}
}

// hues spreads the kinds around the colour wheel.
var hues = map[registry.Kind]float64{
	registry.KindText:       210,
	registry.KindSum:        130,
	registry.KindTable:      275,
	registry.KindValidation: 95,
	registry.KindException:  0,
	registry.KindImage:      35,
}

// HighlightColor returns the hex colour used to outline snips of kind.
// Colours are blended in CIE L*C*h° so the kinds read as equally bright.
func HighlightColor(kind registry.Kind) string {
	hue, ok := hues[kind]
	if !ok {
		return colorful.Hcl(0, 0, 0.6).Clamped().Hex()
	}
	return colorful.Hcl(hue, 0.55, 0.65).Clamped().Hex()
}
