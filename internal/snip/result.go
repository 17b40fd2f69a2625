package snip

import (
	"image"

	"github.com/ironsheep/snip-tools-mcp/internal/registry"
	"github.com/ironsheep/snip-tools-mcp/internal/tables"
)

// Placeholder values written when a snip yields nothing usable.
const (
	NoTextPlaceholder    = "[No text detected]"
	NoNumbersPlaceholder = "[No numbers detected]"
	NoTableMessage       = "No table structure detected"
	ImagePlaceholder     = "[Image]"
	ValidationMark       = "✓"
	ExceptionMark        = "✗"
)

// Status is the outcome class of a snip.
type Status int

const (
	// StatusSuccess means the value was extracted as intended.
	StatusSuccess Status = iota

	// StatusSoftFailure means extraction found nothing usable; Value holds a
	// placeholder and the snip was still registered.
	StatusSoftFailure

	// StatusFailure means nothing was registered or written.
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusSoftFailure:
		return "soft_failure"
	case StatusFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Request describes one snip.
type Request struct {
	// Mode overrides the active mode when not ModeNone.
	Mode Mode

	Document string
	Page     int
	Bounds   registry.Bounds

	// TargetCell is an A1 reference, optionally sheet-qualified.
	TargetCell string

	// Text is already-recognized text. When empty and Image is set, Image is
	// run through OCR.
	Text string

	// Image is the snipped region.
	Image image.Image
}

// Result is the tagged outcome of ProcessSnip.
type Result struct {
	Status Status `json:"status"`
	Mode   Mode   `json:"mode"`

	// Value is what was (or would be) written to the target cell.
	Value string `json:"value"`

	// Formula is the reference formula linking the cell back to the snip.
	Formula string `json:"formula,omitempty"`

	// Message describes a soft failure or failure.
	Message string `json:"message,omitempty"`

	Record  *registry.SnipRecord `json:"record,omitempty"`
	Table   *tables.Table        `json:"table,omitempty"`
	Numbers []float64            `json:"numbers,omitempty"`

	// Confidence is the advisory OCR confidence, 0 when no OCR ran.
	Confidence float64 `json:"confidence,omitempty"`

	// Image is the cleaned bitmap of an Image snip.
	Image image.Image `json:"-"`

	Err error `json:"-"`
}

// Success reports whether the snip produced a registered value, including
// soft failures.
func (r Result) Success() bool {
	return r.Status != StatusFailure
}

func failure(mode Mode, err error) Result {
	return Result{Status: StatusFailure, Mode: mode, Message: err.Error(), Err: err}
}
