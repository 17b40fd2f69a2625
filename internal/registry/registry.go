package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/snip-tools-mcp/internal/apperr"
	"github.com/ironsheep/snip-tools-mcp/internal/logging"
)

// CellClearer clears a spreadsheet cell when the snip written to it is
// deleted.
type CellClearer interface {
	ClearCell(ref string) error
}

// Registry stores snip records by id.
type Registry struct {
	mu      sync.RWMutex
	snips   map[string]SnipRecord
	clearer CellClearer
	log     *logging.Logger
	newID   func() string
	now     func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithCellClearer sets the collaborator notified on delete.
func WithCellClearer(c CellClearer) Option {
	return func(r *Registry) { r.clearer = c }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Registry) { r.log = l.Named("registry") }
}

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(f func() string) Option {
	return func(r *Registry) { r.newID = f }
}

// WithClock replaces time.Now.
func WithClock(f func() time.Time) Option {
	return func(r *Registry) { r.now = f }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		snips: make(map[string]SnipRecord),
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetCellClearer replaces the delete collaborator, typically when a workbook
// is opened after the registry was created.
func (r *Registry) SetCellClearer(c CellClearer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearer = c
}

// Create stores rec under a fresh id and returns the id. Any ID or CreatedAt
// on rec is ignored.
func (r *Registry) Create(rec SnipRecord) (string, error) {
	if err := rec.validate(); err != nil {
		return "", apperr.WithCode(apperr.CodeValidation, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.newID()
	for {
		if _, taken := r.snips[id]; !taken && id != "" {
			break
		}
		id = uuid.NewString()
	}

	rec = rec.clone()
	rec.ID = id
	rec.CreatedAt = r.now().UTC().Round(0)
	r.snips[id] = rec

	r.log.Debugf("created %s snip %s for %s", rec.Kind, id, rec.TargetCellReference)
	return id, nil
}

// Get returns the record with the given id.
func (r *Registry) Get(id string) (SnipRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.snips[id]
	if !ok {
		return SnipRecord{}, false
	}
	return rec.clone(), true
}

// Update replaces the record with the given id. The id and creation time of
// the stored record are kept.
func (r *Registry) Update(id string, rec SnipRecord) error {
	if err := rec.validate(); err != nil {
		return apperr.WithCode(apperr.CodeValidation, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.snips[id]
	if !ok {
		return apperr.NotFound("snip " + id)
	}
	rec = rec.clone()
	rec.ID = old.ID
	rec.CreatedAt = old.CreatedAt
	r.snips[id] = rec
	return nil
}

// Delete removes the record with the given id and asks the cell clearer to
// clear its target cell. It reports whether a record was removed.
func (r *Registry) Delete(id string) bool {
	rec, clearer, ok := r.take(id)
	if !ok {
		return false
	}
	if clearer != nil && rec.TargetCellReference != "" {
		if err := clearer.ClearCell(rec.TargetCellReference); err != nil {
			r.log.Warnf("failed to clear cell %s for snip %s: %v", rec.TargetCellReference, id, err)
		}
	}
	r.log.Debugf("deleted snip %s", id)
	return true
}

// Remove drops the record with the given id without touching its cell.
func (r *Registry) Remove(id string) bool {
	_, _, ok := r.take(id)
	if ok {
		r.log.Debugf("removed snip %s", id)
	}
	return ok
}

func (r *Registry) take(id string) (SnipRecord, CellClearer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.snips[id]
	if ok {
		delete(r.snips, id)
	}
	return rec, r.clearer, ok
}

// FindByCell returns the oldest record targeting ref. References compare
// case-insensitively with '$' anchors and sheet quoting ignored.
func (r *Registry) FindByCell(ref string) (SnipRecord, bool) {
	for _, rec := range r.All() {
		if sameCell(rec.TargetCellReference, ref) {
			return rec, true
		}
	}
	return SnipRecord{}, false
}

// DeleteByCell deletes the oldest record targeting ref.
func (r *Registry) DeleteByCell(ref string) bool {
	rec, ok := r.FindByCell(ref)
	if !ok {
		return false
	}
	return r.Delete(rec.ID)
}

// All returns a copy of every record, oldest first, ties broken by id.
func (r *Registry) All() []SnipRecord {
	r.mu.RLock()
	out := make([]SnipRecord, 0, len(r.snips))
	for _, rec := range r.snips {
		out = append(out, rec.clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.snips)
}

// Reset removes every record without touching any cells.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snips = make(map[string]SnipRecord)
}
