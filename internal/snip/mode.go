package snip

import (
	"fmt"
	"strings"

	"github.com/ironsheep/snip-tools-mcp/internal/registry"
)

// Mode is the extraction behaviour currently armed.
type Mode int

const (
	ModeNone Mode = iota
	ModeText
	ModeSum
	ModeTable
	ModeValidation
	ModeException
	ModeImage
)

// Modes lists every armable mode, in menu order.
var Modes = []Mode{ModeText, ModeSum, ModeTable, ModeValidation, ModeException, ModeImage}

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeText:
		return "text"
	case ModeSum:
		return "sum"
	case ModeTable:
		return "table"
	case ModeValidation:
		return "validation"
	case ModeException:
		return "exception"
	case ModeImage:
		return "image"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a case-insensitive mode name to a Mode. The empty string
// is ModeNone.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ModeNone, nil
	case "text":
		return ModeText, nil
	case "sum":
		return ModeSum, nil
	case "table":
		return ModeTable, nil
	case "validation":
		return ModeValidation, nil
	case "exception":
		return ModeException, nil
	case "image":
		return ModeImage, nil
	default:
		return ModeNone, fmt.Errorf("unknown snip mode %q", s)
	}
}

// Kind returns the registry kind recorded for snips taken in m. ModeNone has
// no kind.
func (m Mode) Kind() (registry.Kind, bool) {
	switch m {
	case ModeText:
		return registry.KindText, true
	case ModeSum:
		return registry.KindSum, true
	case ModeTable:
		return registry.KindTable, true
	case ModeValidation:
		return registry.KindValidation, true
	case ModeException:
		return registry.KindException, true
	case ModeImage:
		return registry.KindImage, true
	default:
		return "", false
	}
}

// NeedsSource reports whether m extracts from the snipped content, which then
// has to be present and have an area.
func (m Mode) NeedsSource() bool {
	switch m {
	case ModeText, ModeSum, ModeTable:
		return true
	default:
		return false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
