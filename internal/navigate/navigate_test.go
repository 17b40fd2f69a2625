package navigate

import (
	"errors"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/snip-tools-mcp/internal/apperr"
	"github.com/ironsheep/snip-tools-mcp/internal/registry"
)

func TestResolveReference(t *testing.T) {
	tests := []struct {
		content string
		want    string
		ok      bool
	}{
		{`=DS.TEXTS("abc-123")`, "abc-123", true},
		{`DS.TEXTS("abc-123")`, "abc-123", true},
		{`=ds.sums('xyz')`, "xyz", true},
		{`=IF(A1>0, DS.Table( "t-1" ), "")`, "t-1", true},
		{`=DS.IMAGE("")`, "", false},
		{`=DS.UNKNOWN("abc")`, "", false},
		{`=SUM(A1:A3)`, "", false},
		{"plain text", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			got, ok := ResolveReference(tt.content)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatReference_RoundTrip(t *testing.T) {
	for _, kind := range registry.Kinds {
		t.Run(string(kind), func(t *testing.T) {
			formula := FormatReference(kind, "id-42")
			fn, ok := FunctionFor(kind)
			require.True(t, ok)
			assert.Equal(t, `=`+fn+`("id-42")`, formula)

			id, ok := ResolveReference(formula)
			require.True(t, ok)
			assert.Equal(t, "id-42", id)
		})
	}
	assert.Equal(t, `=DS.SUMS("abc")`, FormatReference(registry.KindSum, "abc"))
}

type recordingViewer struct {
	shown []Target
	err   error
}

func (v *recordingViewer) Show(target Target) error {
	v.shown = append(v.shown, target)
	return v.err
}

func newResolver(t *testing.T) (*Resolver, *registry.Registry, string) {
	t.Helper()
	reg := registry.New()
	id, err := reg.Create(registry.SnipRecord{
		Kind:                registry.KindSum,
		SourceDocument:      "invoice.pdf",
		SourcePage:          2,
		SourceBounds:        registry.Bounds{X: 10, Y: 20, Width: 100, Height: 50},
		ExtractedValue:      "900.00",
		TargetCellReference: "Sheet1!B3",
	})
	require.NoError(t, err)
	return NewResolver(reg, nil), reg, id
}

func TestNavigate(t *testing.T) {
	r, reg, id := newResolver(t)

	target, ok := r.Navigate(id)
	require.True(t, ok)
	assert.Equal(t, id, target.SnipID)
	assert.Equal(t, "invoice.pdf", target.Document)
	assert.Equal(t, 2, target.Page)
	assert.Equal(t, registry.Bounds{X: 10, Y: 20, Width: 100, Height: 50}, target.Bounds)
	assert.Equal(t, HighlightColor(registry.KindSum), target.HighlightColor)

	reg.Delete(id)
	_, ok = r.Navigate(id)
	assert.False(t, ok)
}

func TestNavigateCell(t *testing.T) {
	r, _, id := newResolver(t)

	target, ok := r.NavigateCell(FormatReference(registry.KindSum, id), "")
	require.True(t, ok)
	assert.Equal(t, id, target.SnipID)

	// Plain values fall back to the cell lookup.
	target, ok = r.NavigateCell("900.00", "$B$3")
	require.True(t, ok)
	assert.Equal(t, id, target.SnipID)

	// A stale formula still finds the snip by cell.
	target, ok = r.NavigateCell(`=DS.SUMS("stale")`, "B3")
	require.True(t, ok)
	assert.Equal(t, id, target.SnipID)

	_, ok = r.NavigateCell("900.00", "C3")
	assert.False(t, ok)
	_, ok = r.NavigateCell("plain text", "")
	assert.False(t, ok)
}

func TestJump(t *testing.T) {
	r, _, id := newResolver(t)
	viewer := &recordingViewer{}

	target, err := r.Jump(viewer, "", "B3")
	require.NoError(t, err)
	assert.Equal(t, id, target.SnipID)
	require.Len(t, viewer.shown, 1)

	_, err = r.Jump(viewer, "", "Z99")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	viewer.err = errors.New("viewer closed")
	_, err = r.Jump(viewer, "", "B3")
	assert.ErrorIs(t, err, viewer.err)
}

func TestHighlightColor(t *testing.T) {
	seen := make(map[string]bool)
	for _, kind := range registry.Kinds {
		hex := HighlightColor(kind)
		c, err := colorful.Hex(hex)
		require.NoError(t, err, hex)
		assert.True(t, c.IsValid())
		assert.False(t, seen[hex], "kinds must have distinct colours")
		seen[hex] = true
	}
	assert.NotEmpty(t, HighlightColor("Unknown"))
}
