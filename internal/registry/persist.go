package registry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

const (
	blobFormat  = "snip-registry"
	blobVersion = 1
)

type envelope struct {
	Format  string       `json:"format"`
	Version int          `json:"version"`
	SavedAt time.Time    `json:"saved_at"`
	Snips   []SnipRecord `json:"snips"`
}

// Serialize encodes every record into a blob for document metadata.
func (r *Registry) Serialize() (string, error) {
	env := envelope{
		Format:  blobFormat,
		Version: blobVersion,
		SavedAt: r.now().UTC().Round(0),
		Snips:   r.All(),
	}
	data, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to encode registry: %w", err)
	}
	return string(data), nil
}

// Deserialize replaces the registry contents with the records in blob and
// returns how many were loaded. A missing or unreadable blob leaves the
// registry empty and is logged, never returned as an error. Records with an
// invalid kind or page, no id, or a duplicate id are skipped.
func (r *Registry) Deserialize(blob string) int {
	snips := make(map[string]SnipRecord)
	defer func() {
		r.mu.Lock()
		r.snips = snips
		r.mu.Unlock()
	}()

	if blob == "" {
		return 0
	}
	if !gjson.Valid(blob) {
		r.log.Warnf("discarding registry blob: not valid JSON")
		return 0
	}
	header := gjson.GetMany(blob, "format", "version", "snips")
	if header[0].String() != blobFormat || header[1].Int() != blobVersion || !header[2].IsArray() {
		r.log.Warnf("discarding registry blob: unsupported format %q version %s", header[0].String(), header[1].Raw)
		return 0
	}

	var env envelope
	if err := json.Unmarshal([]byte(blob), &env); err != nil {
		r.log.Warnf("discarding registry blob: %v", err)
		return 0
	}

	for _, rec := range env.Snips {
		if rec.ID == "" {
			r.log.Warnf("skipping snip without id")
			continue
		}
		if err := rec.validate(); err != nil {
			r.log.Warnf("skipping snip %s: %v", rec.ID, err)
			continue
		}
		if _, dup := snips[rec.ID]; dup {
			r.log.Warnf("skipping duplicate snip %s", rec.ID)
			continue
		}
		snips[rec.ID] = rec.clone()
	}
	r.log.Infof("loaded %d snips", len(snips))
	return len(snips)
}
