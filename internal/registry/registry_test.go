package registry

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/snip-tools-mcp/internal/apperr"
	"github.com/ironsheep/snip-tools-mcp/internal/tables"
)

type fakeClearer struct {
	mu      sync.Mutex
	cleared []string
	err     error
}

func (f *fakeClearer) ClearCell(ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, ref)
	return f.err
}

// steppingClock returns a clock that advances one second per call.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.FixedZone("CET", 3600))
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func sampleRecords() []SnipRecord {
	return []SnipRecord{
		{
			Kind: KindText, SourceDocument: "invoice.pdf", SourcePage: 1,
			SourceBounds:        Bounds{X: 10.5, Y: 20, Width: 300.25, Height: 40},
			ExtractedValue:      "ACME Corp",
			TargetCellReference: "Sheet1!A1",
			Confidence:          0.87,
		},
		{
			Kind: KindSum, SourceDocument: "invoice.pdf", SourcePage: 2,
			SourceBounds:        Bounds{X: 1, Y: 2, Width: 3, Height: 4},
			ExtractedValue:      "900.00",
			Numbers:             []float64{1200, -300},
			TargetCellReference: "B3",
		},
		{
			Kind: KindTable, SourceDocument: "report.png", SourcePage: 1,
			SourceBounds:   Bounds{Width: 640, Height: 480},
			ExtractedValue: "Table (3×2)",
			Table: &tables.Table{
				Headers: []string{"Name", "Age"}, HasHeader: true, ColumnCount: 2,
				Rows:     [][]string{{"Alice", "30"}, {"Bob", "25"}},
				Strategy: tables.StrategyTab, Score: 1090,
			},
			TargetCellReference: "'Q1 Totals'!C5",
		},
		{Kind: KindValidation, SourceDocument: "a.pdf", SourcePage: 3, ExtractedValue: "✓", TargetCellReference: "D1"},
		{Kind: KindException, SourceDocument: "a.pdf", SourcePage: 3, ExtractedValue: "✗", TargetCellReference: "D2"},
		{
			Kind: KindImage, SourceDocument: "scan.tiff", SourcePage: 7,
			SourceBounds:        Bounds{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.4},
			ExtractedValue:      "[Image]",
			TargetCellReference: "E9",
		},
	}
}

func TestRoundTrip(t *testing.T) {
	all := sampleRecords()
	tests := []struct {
		name    string
		records []SnipRecord
	}{
		{"empty", nil},
		{"single", all[:1]},
		{"one of each kind", all},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := New(WithClock(steppingClock()))
			for _, rec := range tt.records {
				_, err := src.Create(rec)
				require.NoError(t, err)
			}

			blob, err := src.Serialize()
			require.NoError(t, err)

			dst := New()
			n := dst.Deserialize(blob)

			assert.Equal(t, len(tt.records), n)
			assert.Equal(t, src.All(), dst.All())
			for _, rec := range src.All() {
				got, ok := dst.Get(rec.ID)
				require.True(t, ok)
				assert.Equal(t, rec, got)
			}
		})
	}
}

func TestCreate_AssignsIDAndTimestamp(t *testing.T) {
	r := New(WithClock(steppingClock()), WithIDGenerator(func() string { return "fixed-id" }))

	id, err := r.Create(SnipRecord{ID: "ignored", Kind: KindText, SourcePage: 1})
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", id)

	rec, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, time.UTC, rec.CreatedAt.Location())
	assert.Equal(t, 2026, rec.CreatedAt.Year())

	// A colliding generator falls back to a fresh uuid.
	second, err := r.Create(SnipRecord{Kind: KindText, SourcePage: 1})
	require.NoError(t, err)
	assert.NotEqual(t, id, second)
	assert.Equal(t, 2, r.Len())
}

func TestCreate_Validation(t *testing.T) {
	r := New()

	_, err := r.Create(SnipRecord{Kind: "Bogus", SourcePage: 1})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	_, err = r.Create(SnipRecord{Kind: KindText, SourcePage: 0})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
	assert.Zero(t, r.Len())
}

func TestGet_ReturnsCopy(t *testing.T) {
	r := New()
	id, err := r.Create(sampleRecords()[1])
	require.NoError(t, err)

	rec, _ := r.Get(id)
	rec.Numbers[0] = 0
	rec.ExtractedValue = "tampered"

	again, _ := r.Get(id)
	assert.Equal(t, []float64{1200, -300}, again.Numbers)
	assert.Equal(t, "900.00", again.ExtractedValue)

	_, ok := r.Get("missing")
	assert.False(t, ok)
}

func TestUpdate(t *testing.T) {
	r := New(WithClock(steppingClock()))
	id, err := r.Create(sampleRecords()[0])
	require.NoError(t, err)
	before, _ := r.Get(id)

	replacement := sampleRecords()[1]
	replacement.ID = "other"
	replacement.CreatedAt = time.Time{}
	require.NoError(t, r.Update(id, replacement))

	after, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, id, after.ID)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	assert.Equal(t, KindSum, after.Kind)
	assert.Equal(t, "900.00", after.ExtractedValue)

	err = r.Update("missing", replacement)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	assert.Equal(t, 1, r.Len())
}

func TestDelete(t *testing.T) {
	clearer := &fakeClearer{}
	r := New(WithCellClearer(clearer))
	keep, err := r.Create(sampleRecords()[0])
	require.NoError(t, err)
	gone, err := r.Create(sampleRecords()[1])
	require.NoError(t, err)

	assert.True(t, r.Delete(gone))

	_, ok := r.Get(gone)
	assert.False(t, ok)
	require.Len(t, r.All(), 1)
	assert.Equal(t, keep, r.All()[0].ID)
	assert.Equal(t, []string{"B3"}, clearer.cleared)

	assert.False(t, r.Delete(gone))
	assert.False(t, r.Delete("never-existed"))
	assert.Equal(t, []string{"B3"}, clearer.cleared, "a no-op delete must not clear cells")
}

func TestRemove_LeavesCell(t *testing.T) {
	clearer := &fakeClearer{}
	r := New(WithCellClearer(clearer))
	id, err := r.Create(sampleRecords()[0])
	require.NoError(t, err)

	assert.True(t, r.Remove(id))
	assert.Zero(t, r.Len())
	assert.Empty(t, clearer.cleared)
	assert.False(t, r.Remove(id))
}

func TestDelete_ClearerErrorStillDeletes(t *testing.T) {
	r := New(WithCellClearer(&fakeClearer{err: errors.New("sheet locked")}))
	id, err := r.Create(sampleRecords()[0])
	require.NoError(t, err)

	assert.True(t, r.Delete(id))
	assert.Zero(t, r.Len())
}

func TestFindByCell(t *testing.T) {
	r := New(WithClock(steppingClock()))
	id, err := r.Create(SnipRecord{Kind: KindText, SourcePage: 1, TargetCellReference: "Sheet1!$B$3"})
	require.NoError(t, err)
	quoted, err := r.Create(SnipRecord{Kind: KindText, SourcePage: 1, TargetCellReference: "'Q1 Totals'!C5"})
	require.NoError(t, err)

	tests := []struct {
		ref  string
		want string
	}{
		{"b3", id},
		{"Sheet1!B3", id},
		{"'Sheet1'!$b$3", id},
		{"sheet1!B3", id},
		{"Sheet2!B3", ""},
		{"C3", ""},
		{"Q1 Totals!C5", quoted},
		{"C5", quoted},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			rec, ok := r.FindByCell(tt.ref)
			if tt.want == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, rec.ID)
		})
	}
}

func TestDeleteByCell(t *testing.T) {
	clearer := &fakeClearer{}
	r := New(WithCellClearer(clearer))
	_, err := r.Create(SnipRecord{Kind: KindSum, SourcePage: 1, TargetCellReference: "A1"})
	require.NoError(t, err)

	assert.False(t, r.DeleteByCell("A2"))
	assert.True(t, r.DeleteByCell("$A$1"))
	assert.Zero(t, r.Len())
	assert.Equal(t, []string{"A1"}, clearer.cleared)
}

func TestDeserialize_CorruptBlobYieldsEmptyRegistry(t *testing.T) {
	blobs := []string{
		"",
		"not json",
		`{"format":"other","version":1,"snips":[]}`,
		`{"format":"snip-registry","version":2,"snips":[]}`,
		`{"format":"snip-registry","version":1,"snips":{}}`,
		`{"format":"snip-registry","version":1,"snips":[{"id":5}]}`,
		`[1,2,3]`,
	}

	for i, blob := range blobs {
		t.Run(fmt.Sprintf("blob%d", i), func(t *testing.T) {
			r := New()
			_, err := r.Create(sampleRecords()[0])
			require.NoError(t, err)

			assert.NotPanics(t, func() {
				assert.Zero(t, r.Deserialize(blob))
			})
			assert.Zero(t, r.Len())
		})
	}
}

func TestDeserialize_SkipsInvalidRecords(t *testing.T) {
	blob := `{"format":"snip-registry","version":1,"snips":[
		{"id":"a","kind":"Text","source_page":1},
		{"id":"","kind":"Text","source_page":1},
		{"id":"b","kind":"Nope","source_page":1},
		{"id":"c","kind":"Sum","source_page":0},
		{"id":"a","kind":"Sum","source_page":2}
	]}`

	r := New()
	assert.Equal(t, 1, r.Deserialize(blob))
	rec, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, KindText, rec.Kind)
}

func TestConcurrentCreate(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.Create(SnipRecord{Kind: KindText, SourcePage: 1, ExtractedValue: fmt.Sprint(i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, r.Len())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("table")
	require.NoError(t, err)
	assert.Equal(t, KindTable, k)

	_, err = ParseKind("spreadsheet")
	assert.Error(t, err)
}

func TestSplitCellRef(t *testing.T) {
	tests := []struct {
		ref, sheet, cell string
		wantErr          bool
	}{
		{ref: "B3", cell: "B3"},
		{ref: "$b$3", cell: "B3"},
		{ref: "Sheet1!C10", sheet: "Sheet1", cell: "C10"},
		{ref: "'It''s Q1'!A1", sheet: "It's Q1", cell: "A1"},
		{ref: "", wantErr: true},
		{ref: "!A1", wantErr: true},
		{ref: "Sheet1!", wantErr: true},
		{ref: "hello", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			sheet, cell, err := SplitCellRef(tt.ref)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.sheet, sheet)
			assert.Equal(t, tt.cell, cell)
		})
	}
}
