// Package workbook writes snip output into .xlsx files and stores the snip
// registry inside the workbook as a custom document property, so the links
// between cells and source regions travel with the file.
package workbook

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/ironsheep/snip-tools-mcp/internal/apperr"
	"github.com/ironsheep/snip-tools-mcp/internal/logging"
	"github.com/ironsheep/snip-tools-mcp/internal/numparse"
	"github.com/ironsheep/snip-tools-mcp/internal/registry"
	"github.com/ironsheep/snip-tools-mcp/internal/tables"
)

// RegistryProperty is the custom document property holding the registry blob.
const RegistryProperty = "SnipRegistry"

// Options configures Open.
type Options struct {
	// Sheet is used for references that name no sheet. Empty means the
	// workbook's active sheet.
	Sheet string

	// Create starts a new workbook when path does not exist.
	Create bool

	Logger *logging.Logger
}

// Workbook is an open spreadsheet. It is safe for concurrent use.
type Workbook struct {
	mu    sync.Mutex
	f     *excelize.File
	path  string
	sheet string
	log   *logging.Logger
}

// Open opens the workbook at path, or creates an empty one when it is missing
// and opts.Create is set. Nothing is written to disk until Save.
func Open(path string, opts Options) (*Workbook, error) {
	if strings.TrimSpace(path) == "" {
		return nil, apperr.Validation("workbook path is empty")
	}

	var f *excelize.File
	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		opened, err := excelize.OpenFile(path)
		if err != nil {
			return nil, apperr.WithCode(apperr.CodePersistence, fmt.Errorf("failed to open workbook %s: %w", path, err))
		}
		f = opened
	case errors.Is(statErr, os.ErrNotExist) && opts.Create:
		f = excelize.NewFile()
	case errors.Is(statErr, os.ErrNotExist):
		return nil, apperr.NotFound("workbook " + path)
	default:
		return nil, apperr.WithCode(apperr.CodePersistence, fmt.Errorf("failed to stat workbook %s: %w", path, statErr))
	}

	sheet := opts.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}

	w := &Workbook{f: f, path: path, sheet: sheet, log: opts.Logger.Named("workbook")}
	w.log.Infof("opened %s (default sheet %q)", path, sheet)
	return w, nil
}

// Path returns the file the workbook saves to.
func (w *Workbook) Path() string {
	return w.path
}

// Sheets lists the sheet names in order.
func (w *Workbook) Sheets() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.GetSheetList()
}

// resolve splits ref and fills in the default sheet. When create is set a
// missing sheet is added; otherwise it is an error.
func (w *Workbook) resolve(ref string, create bool) (string, string, error) {
	sheet, cell, err := registry.SplitCellRef(ref)
	if err != nil {
		return "", "", apperr.Validation(err.Error())
	}
	if sheet == "" {
		sheet = w.sheet
	}

	idx, err := w.f.GetSheetIndex(sheet)
	if err != nil {
		return "", "", apperr.Validation(err.Error())
	}
	if idx == -1 {
		if !create {
			return "", "", apperr.NotFound("sheet " + sheet)
		}
		if _, err := w.f.NewSheet(sheet); err != nil {
			return "", "", fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
	}
	return sheet, cell, nil
}

// cellValue stores plain numbers as numbers so the sheet can compute with
// them. Anything else stays the text it was.
func cellValue(s string) interface{} {
	if v, ok := numparse.ParseCell(s); ok {
		return v
	}
	return s
}

// WriteValue writes a single value. A plain number ("1,200", "900.00") is
// written as a number.
func (w *Workbook) WriteValue(ref, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	sheet, cell, err := w.resolve(ref, true)
	if err != nil {
		return err
	}
	if err := w.f.SetCellValue(sheet, cell, cellValue(value)); err != nil {
		return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
	}
	return nil
}

// WriteText writes value as a string cell, exactly as given.
func (w *Workbook) WriteText(ref, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	sheet, cell, err := w.resolve(ref, true)
	if err != nil {
		return err
	}
	if err := w.f.SetCellStr(sheet, cell, value); err != nil {
		return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
	}
	return nil
}

// WriteFormula writes a formula. The leading '=' is optional.
func (w *Workbook) WriteFormula(ref, formula string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	sheet, cell, err := w.resolve(ref, true)
	if err != nil {
		return err
	}
	if err := w.f.SetCellFormula(sheet, cell, strings.TrimPrefix(formula, "=")); err != nil {
		return fmt.Errorf("failed to write formula to %s!%s: %w", sheet, cell, err)
	}
	return nil
}

// WriteTable writes t with its top-left corner at ref: the header row first
// when present, then the data rows.
func (w *Workbook) WriteTable(ref string, t *tables.Table) error {
	if t.IsEmpty() {
		return apperr.Validation("table is empty")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	sheet, cell, err := w.resolve(ref, true)
	if err != nil {
		return err
	}
	col, row, err := excelize.CellNameToCoordinates(cell)
	if err != nil {
		return apperr.Validation(err.Error())
	}

	rows := t.Rows
	if t.HasHeader {
		rows = append([][]string{t.Headers}, rows...)
	}

	for r, cells := range rows {
		values := make([]interface{}, len(cells))
		for c, v := range cells {
			values[c] = cellValue(v)
		}
		start, err := excelize.CoordinatesToCellName(col, row+r)
		if err != nil {
			return apperr.Validation(err.Error())
		}
		if err := w.f.SetSheetRow(sheet, start, &values); err != nil {
			return fmt.Errorf("failed to write table row %d at %s!%s: %w", r+1, sheet, start, err)
		}
	}
	return nil
}

// WriteImage anchors img as a PNG picture at ref.
func (w *Workbook) WriteImage(ref string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode snip image: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	sheet, cell, err := w.resolve(ref, true)
	if err != nil {
		return err
	}
	pic := &excelize.Picture{
		Extension: ".png",
		File:      buf.Bytes(),
		Format:    &excelize.GraphicOptions{AltText: "snip", LockAspectRatio: true},
	}
	if err := w.f.AddPictureFromBytes(sheet, cell, pic); err != nil {
		return fmt.Errorf("failed to add picture at %s!%s: %w", sheet, cell, err)
	}
	return nil
}

// ClearCell removes the value, formula and any picture anchored at ref. It
// satisfies registry.CellClearer.
func (w *Workbook) ClearCell(ref string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	sheet, cell, err := w.resolve(ref, false)
	if err != nil {
		return err
	}
	if err := w.f.SetCellFormula(sheet, cell, ""); err != nil {
		return fmt.Errorf("failed to clear formula at %s!%s: %w", sheet, cell, err)
	}
	if err := w.f.SetCellValue(sheet, cell, nil); err != nil {
		return fmt.Errorf("failed to clear %s!%s: %w", sheet, cell, err)
	}
	if err := w.f.DeletePicture(sheet, cell); err != nil {
		return fmt.Errorf("failed to remove picture at %s!%s: %w", sheet, cell, err)
	}
	w.log.Debugf("cleared %s!%s", sheet, cell)
	return nil
}

// CellContent returns the cell's formula (with a leading '=') when it has
// one, otherwise its displayed value.
func (w *Workbook) CellContent(ref string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	sheet, cell, err := w.resolve(ref, false)
	if err != nil {
		return "", err
	}
	formula, err := w.f.GetCellFormula(sheet, cell)
	if err != nil {
		return "", fmt.Errorf("failed to read formula at %s!%s: %w", sheet, cell, err)
	}
	if formula != "" {
		return "=" + formula, nil
	}
	value, err := w.f.GetCellValue(sheet, cell)
	if err != nil {
		return "", fmt.Errorf("failed to read %s!%s: %w", sheet, cell, err)
	}
	return value, nil
}

// LoadRegistry replaces reg's contents with the blob stored in the workbook
// and returns the number of records restored. A missing or unreadable blob
// leaves reg empty; it is logged, not returned.
func (w *Workbook) LoadRegistry(reg *registry.Registry) int {
	blob, err := w.registryBlob()
	if err != nil {
		w.log.Warnf("failed to read snip registry from %s: %v", w.path, err)
	}
	n := reg.Deserialize(blob)
	w.log.Infof("restored %d snips from %s", n, w.path)
	return n
}

func (w *Workbook) registryBlob() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	props, err := w.f.GetCustomProps()
	if err != nil {
		return "", err
	}
	for _, p := range props {
		if p.Name != RegistryProperty {
			continue
		}
		if s, ok := p.Value.(string); ok {
			return s, nil
		}
		return "", fmt.Errorf("property %s has type %T, want string", RegistryProperty, p.Value)
	}
	return "", nil
}

// SaveRegistry stores reg in the workbook's custom properties. It takes
// effect on the next Save.
func (w *Workbook) SaveRegistry(reg *registry.Registry) error {
	blob, err := reg.Serialize()
	if err != nil {
		return apperr.WithCode(apperr.CodePersistence, fmt.Errorf("failed to serialize snip registry: %w", err))
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.f.SetCustomProps(excelize.CustomProperty{Name: RegistryProperty, Value: blob}); err != nil {
		return apperr.WithCode(apperr.CodePersistence, fmt.Errorf("failed to store snip registry: %w", err))
	}
	return nil
}

// Save writes the workbook to its path.
func (w *Workbook) Save() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.f.SaveAs(w.path); err != nil {
		return apperr.WithCode(apperr.CodePersistence, fmt.Errorf("failed to save workbook %s: %w", w.path, err))
	}
	w.log.Infof("saved %s", w.path)
	return nil
}

// Close releases the workbook. Unsaved changes are lost.
func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}
