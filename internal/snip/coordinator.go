package snip

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/ironsheep/snip-tools-mcp/internal/apperr"
	"github.com/ironsheep/snip-tools-mcp/internal/imaging"
	"github.com/ironsheep/snip-tools-mcp/internal/logging"
	"github.com/ironsheep/snip-tools-mcp/internal/navigate"
	"github.com/ironsheep/snip-tools-mcp/internal/numparse"
	"github.com/ironsheep/snip-tools-mcp/internal/ocr"
	"github.com/ironsheep/snip-tools-mcp/internal/registry"
	"github.com/ironsheep/snip-tools-mcp/internal/tables"
)

// DefaultOCRTimeout bounds a single OCR call.
const DefaultOCRTimeout = 30 * time.Second

// CellWriter puts snip output into the spreadsheet.
type CellWriter interface {
	// WriteValue writes a computed value, numeric when it looks like one.
	WriteValue(ref, value string) error
	// WriteText writes value verbatim as text.
	WriteText(ref, value string) error
	WriteFormula(ref, formula string) error
	WriteTable(ref string, t *tables.Table) error
	WriteImage(ref string, img image.Image) error
}

// Coordinator owns the active mode and turns snips into registered values.
//
// Mode changes and ProcessSnip are serialized, matching the single logical
// writer the workbook session has. Listeners run synchronously after the
// state change, outside the lock, and may call back into the Coordinator.
type Coordinator struct {
	mu   sync.Mutex
	mode Mode

	registry      *registry.Registry
	extractor     *tables.Extractor
	recognizer    ocr.Recognizer
	writer        CellWriter
	embedFormulas bool
	ocrTimeout    time.Duration
	log           *logging.Logger

	listenMu      sync.RWMutex
	modeListeners []func(from, to Mode)
	doneListeners []func(Result)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRecognizer sets the OCR engine used when a request carries an image
// but no text.
func WithRecognizer(r ocr.Recognizer) Option {
	return func(c *Coordinator) { c.recognizer = r }
}

// WithExtractor replaces the default table extractor.
func WithExtractor(e *tables.Extractor) Option {
	return func(c *Coordinator) { c.extractor = e }
}

// WithCellWriter sets where values are written. Without one, results are
// only registered and returned.
func WithCellWriter(w CellWriter) Option {
	return func(c *Coordinator) { c.writer = w }
}

// WithEmbedFormulas writes the reference formula instead of the plain value
// for single-cell kinds.
func WithEmbedFormulas(embed bool) Option {
	return func(c *Coordinator) { c.embedFormulas = embed }
}

// WithOCRTimeout bounds each OCR call. Non-positive values keep the default.
func WithOCRTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.ocrTimeout = d
		}
	}
}

func WithLogger(l *logging.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// NewCoordinator creates a Coordinator registering snips into reg.
func NewCoordinator(reg *registry.Registry, opts ...Option) *Coordinator {
	c := &Coordinator{
		registry:   reg,
		ocrTimeout: DefaultOCRTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.extractor == nil {
		c.extractor = tables.NewDefaultExtractor()
	}
	return c
}

// SetCellWriter swaps the cell writer, e.g. when another workbook is opened.
func (c *Coordinator) SetCellWriter(w CellWriter) {
	c.mu.Lock()
	c.writer = w
	c.mu.Unlock()
}

// Registry returns the registry snips are recorded in.
func (c *Coordinator) Registry() *registry.Registry {
	return c.registry
}

// Mode returns the active mode.
func (c *Coordinator) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetMode arms m and notifies mode listeners, even when m is already active.
func (c *Coordinator) SetMode(m Mode) {
	c.mu.Lock()
	from := c.mode
	c.mode = m
	c.mu.Unlock()

	c.log.Debugf("snip mode %s -> %s", from, m)
	c.notifyMode(from, m)
}

// ClearMode returns to ModeNone.
func (c *Coordinator) ClearMode() {
	c.SetMode(ModeNone)
}

// OnModeChanged registers a listener for mode transitions.
func (c *Coordinator) OnModeChanged(fn func(from, to Mode)) {
	c.listenMu.Lock()
	c.modeListeners = append(c.modeListeners, fn)
	c.listenMu.Unlock()
}

// OnCompleted registers a listener for snips that were registered, including
// soft failures.
func (c *Coordinator) OnCompleted(fn func(Result)) {
	c.listenMu.Lock()
	c.doneListeners = append(c.doneListeners, fn)
	c.listenMu.Unlock()
}

func (c *Coordinator) notifyMode(from, to Mode) {
	c.listenMu.RLock()
	listeners := append([]func(Mode, Mode){}, c.modeListeners...)
	c.listenMu.RUnlock()
	for _, fn := range listeners {
		fn(from, to)
	}
}

func (c *Coordinator) notifyDone(res Result) {
	c.listenMu.RLock()
	listeners := append([]func(Result){}, c.doneListeners...)
	c.listenMu.RUnlock()
	for _, fn := range listeners {
		fn(res)
	}
}

// ProcessSnip extracts a value from one snip, registers it, writes it to the
// target cell and clears the active mode.
//
// Invalid requests and hard failures come back as StatusFailure with Err set
// and nothing registered; the mode stays armed so the user can retry. Empty
// OCR output for Text and Sum is a StatusSoftFailure carrying a placeholder
// value, registered like a success. ProcessSnip never panics.
func (c *Coordinator) ProcessSnip(ctx context.Context, req Request) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			err := apperr.Newf(apperr.CodeInternal, "snip processing panicked: %v", r)
			c.log.Errorf("%v", err)
			res = failure(req.Mode, err)
		}
	}()

	c.mu.Lock()
	mode := req.Mode
	if mode == ModeNone {
		mode = c.mode
	}
	writer := c.writer
	c.mu.Unlock()

	kind, err := validate(mode, req)
	if err != nil {
		c.log.Debugf("snip rejected: %v", err)
		return failure(mode, err)
	}

	res = c.extract(ctx, mode, req)
	if res.Status == StatusFailure {
		c.log.Infof("snip %s into %s failed: %s", mode, req.TargetCell, res.Message)
		return res
	}

	rec := registry.SnipRecord{
		Kind:                kind,
		SourceDocument:      req.Document,
		SourcePage:          req.Page,
		SourceBounds:        req.Bounds,
		ExtractedValue:      res.Value,
		Numbers:             res.Numbers,
		Table:               res.Table,
		TargetCellReference: strings.TrimSpace(req.TargetCell),
		Confidence:          res.Confidence,
	}
	id, err := c.registry.Create(rec)
	if err != nil {
		return failure(mode, apperr.Wrap(err, "failed to register snip"))
	}
	stored, _ := c.registry.Get(id)
	res.Record = &stored
	res.Formula = navigate.FormatReference(kind, id)

	if writer != nil {
		if err := c.write(writer, rec.TargetCellReference, res); err != nil {
			// Roll back so the registry never points at a cell that was not
			// written. The cell keeps whatever it held before.
			c.registry.Remove(id)
			return failure(mode, apperr.WithCode(apperr.CodePersistence,
				fmt.Errorf("failed to write snip to %s: %w", rec.TargetCellReference, err)))
		}
	}

	c.log.Infof("snip %s registered as %s into %s (%s)", mode, id, rec.TargetCellReference, res.Status)

	c.ClearMode()
	c.notifyDone(res)
	return res
}

func validate(mode Mode, req Request) (registry.Kind, error) {
	if mode == ModeNone {
		return "", apperr.Validation("no snip mode selected")
	}
	kind, ok := mode.Kind()
	if !ok {
		return "", apperr.Validation(fmt.Sprintf("unsupported snip mode %s", mode))
	}
	if strings.TrimSpace(req.TargetCell) == "" {
		return "", apperr.Validation("no target cell selected")
	}
	if _, _, err := registry.SplitCellRef(req.TargetCell); err != nil {
		return "", apperr.Validation(err.Error())
	}
	if req.Page < 1 {
		return "", apperr.Validation(fmt.Sprintf("page must be at least 1, got %d", req.Page))
	}
	if mode.NeedsSource() {
		if strings.TrimSpace(req.Text) == "" && req.Image == nil {
			return "", apperr.Validation(fmt.Sprintf("%s snip has no text or image", mode))
		}
		if req.Bounds.IsEmpty() {
			return "", apperr.Validation("snip bounds must have a positive width and height")
		}
	}
	return kind, nil
}

func (c *Coordinator) extract(ctx context.Context, mode Mode, req Request) Result {
	switch mode {
	case ModeText:
		text, conf, err := c.sourceText(ctx, req)
		cleaned := tables.CleanText(text)
		if err != nil || cleaned == "" {
			return softFailure(mode, NoTextPlaceholder, conf, err)
		}
		return Result{Status: StatusSuccess, Mode: mode, Value: cleaned, Confidence: conf}

	case ModeSum:
		text, conf, err := c.sourceText(ctx, req)
		matches := numparse.FindNumbers(text)
		if err != nil || len(matches) == 0 {
			return softFailure(mode, NoNumbersPlaceholder, conf, err)
		}
		total, fractional := numparse.Sum(matches)
		return Result{
			Status:     StatusSuccess,
			Mode:       mode,
			Value:      numparse.FormatSum(total, fractional),
			Numbers:    numparse.Values(matches),
			Confidence: conf,
		}

	case ModeTable:
		text, conf, err := c.sourceText(ctx, req)
		if err != nil {
			return failure(mode, apperr.Wrap(err, NoTableMessage))
		}
		table := c.extractor.Extract(text)
		if table.IsEmpty() {
			return failure(mode, apperr.New(apperr.CodeExtraction, NoTableMessage))
		}
		return Result{
			Status:     StatusSuccess,
			Mode:       mode,
			Value:      table.Dimensions(),
			Table:      table,
			Confidence: conf,
		}

	case ModeValidation:
		return Result{Status: StatusSuccess, Mode: mode, Value: ValidationMark}

	case ModeException:
		return Result{Status: StatusSuccess, Mode: mode, Value: ExceptionMark}

	case ModeImage:
		res := Result{Status: StatusSuccess, Mode: mode, Value: ImagePlaceholder}
		if req.Image != nil {
			res.Image = imaging.Clean(req.Image)
		}
		return res

	default:
		return failure(mode, apperr.Validation(fmt.Sprintf("unsupported snip mode %s", mode)))
	}
}

func softFailure(mode Mode, placeholder string, conf float64, cause error) Result {
	msg := strings.Trim(placeholder, "[]")
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return Result{
		Status:     StatusSoftFailure,
		Mode:       mode,
		Value:      placeholder,
		Message:    msg,
		Confidence: conf,
		Err:        cause,
	}
}

// sourceText returns the request text, running OCR on the image when no text
// was supplied.
func (c *Coordinator) sourceText(ctx context.Context, req Request) (string, float64, error) {
	if strings.TrimSpace(req.Text) != "" || req.Image == nil {
		return req.Text, 0, nil
	}
	if c.recognizer == nil {
		return "", 0, apperr.New(apperr.CodeOCRFailed, "no OCR engine configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.ocrTimeout)
	defer cancel()

	start := time.Now()
	result, err := c.recognizer.Recognize(ctx, req.Image)
	c.log.Debugf("OCR finished in %v", time.Since(start))

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "", 0, apperr.Newf(apperr.CodeOCRTimeout, "OCR timed out after %v", c.ocrTimeout)
	case err != nil:
		return "", 0, apperr.WithCode(apperr.CodeOCRFailed, fmt.Errorf("OCR failed: %w", err))
	case result == nil:
		return "", 0, apperr.New(apperr.CodeOCRFailed, "OCR returned no result")
	case !result.Success:
		msg := result.ErrorMessage
		if msg == "" {
			msg = "no text recognized"
		}
		return "", result.Confidence, apperr.New(apperr.CodeOCRFailed, msg)
	}
	return result.Text, result.Confidence, nil
}

func (c *Coordinator) write(w CellWriter, ref string, res Result) error {
	switch {
	case res.Mode == ModeTable && res.Table != nil:
		return w.WriteTable(ref, res.Table)
	case res.Mode == ModeImage && res.Image != nil:
		return w.WriteImage(ref, res.Image)
	case c.embedFormulas && res.Status == StatusSuccess:
		return w.WriteFormula(ref, res.Formula)
	case res.Mode == ModeSum && res.Status == StatusSuccess:
		return w.WriteValue(ref, res.Value)
	default:
		return w.WriteText(ref, res.Value)
	}
}
