package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/snip-tools-mcp/internal/navigate"
	"github.com/ironsheep/snip-tools-mcp/internal/registry"
	"github.com/ironsheep/snip-tools-mcp/internal/tables"
	"github.com/ironsheep/snip-tools-mcp/internal/workbook"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTableCmd_Stdin(t *testing.T) {
	out, err := run(t, "Name\tAge\nAlice\t30\nBob\t25", "table")
	require.NoError(t, err)

	var table tables.Table
	require.NoError(t, json.Unmarshal([]byte(out), &table))
	assert.Equal(t, []string{"Name", "Age"}, table.Headers)
	assert.Equal(t, [][]string{{"Alice", "30"}, {"Bob", "25"}}, table.Rows)
}

func TestTableCmd_FileAndFormats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snip.txt")
	require.NoError(t, os.WriteFile(path, []byte("Name\tAge\nAlice\t30\nBob\t25"), 0o644))

	out, err := run(t, "", "table", "--format", "csv", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Name,Age\n"), out)

	out, err = run(t, "", "table", "-f", "markdown", path)
	require.NoError(t, err)
	assert.Contains(t, out, "| Name | Age |")

	_, err = run(t, "", "table", "--format", "xml", path)
	assert.Error(t, err)

	_, err = run(t, "", "table", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestNumberCmd(t *testing.T) {
	out, err := run(t, "", "number", "Revenue:", "$1,200.00", "Expenses:", "($300.00)")
	require.NoError(t, err)
	assert.Contains(t, out, "sum              900.00")

	out, err = run(t, "", "number", "nothing", "here")
	require.NoError(t, err)
	assert.Equal(t, "[No numbers detected]\n", out)
}

// saveWorkbook writes a workbook holding one sum snip at B3 and returns its
// path and the snip id.
func saveWorkbook(t *testing.T) (string, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.xlsx")

	wb, err := workbook.Open(path, workbook.Options{Create: true})
	require.NoError(t, err)
	defer wb.Close()

	reg := registry.New()
	id, err := reg.Create(registry.SnipRecord{
		Kind: registry.KindSum, SourceDocument: "report.pdf", SourcePage: 2,
		SourceBounds:   registry.Bounds{X: 10, Y: 20, Width: 200, Height: 40},
		ExtractedValue: "900.00", TargetCellReference: "B3",
	})
	require.NoError(t, err)
	_, err = reg.Create(registry.SnipRecord{
		Kind: registry.KindText, SourceDocument: "report.pdf", SourcePage: 1,
		SourceBounds:   registry.Bounds{Width: 50, Height: 10},
		ExtractedValue: "Invoice", TargetCellReference: "A1",
	})
	require.NoError(t, err)

	require.NoError(t, wb.WriteFormula("B3", navigate.FormatReference(registry.KindSum, id)))
	require.NoError(t, wb.SaveRegistry(reg))
	require.NoError(t, wb.Save())
	return path, id
}

func TestListCmd(t *testing.T) {
	path, id := saveWorkbook(t)

	out, err := run(t, "", "list", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, out, id)

	out, err = run(t, "", "list", "--kind", "text", path)
	require.NoError(t, err)
	assert.NotContains(t, out, id)
	assert.Contains(t, out, `"Invoice"`)

	_, err = run(t, "", "list", "--kind", "bogus", path)
	assert.Error(t, err)

	_, err = run(t, "", "list", filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestNavigateCmd(t *testing.T) {
	path, id := saveWorkbook(t)

	out, err := run(t, "", "navigate", path, "B3")
	require.NoError(t, err)

	var target navigate.Target
	require.NoError(t, json.Unmarshal([]byte(out), &target))
	assert.Equal(t, id, target.SnipID)
	assert.Equal(t, 2, target.Page)
	assert.Equal(t, navigate.HighlightColor(registry.KindSum), target.HighlightColor)

	// A1 holds no formula; the registry finds it by cell.
	out, err = run(t, "", "navigate", path, "A1")
	require.NoError(t, err)
	var byCell navigate.Target
	require.NoError(t, json.Unmarshal([]byte(out), &byCell))
	assert.Equal(t, registry.KindText, byCell.Kind)
	assert.Equal(t, "A1", byCell.TargetCell)

	_, err = run(t, "", "navigate", path, "Z9")
	assert.Error(t, err)
}
