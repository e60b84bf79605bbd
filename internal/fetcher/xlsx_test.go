package fetcher

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "instance_a_2024-01-10.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSX_Basic(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"Cart Number", "Status", "Sub-State"},
			{"C100", "In PO Creation", "On Hold"},
			{"C200", "Completed", "Provider PO Assigned"},
		},
	})

	tbl, err := ReadXLSX(context.Background(), path, XLSXOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Cart Number", "Status", "Sub-State"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"C100", "In PO Creation", "On Hold"}, tbl.Rows[0])
}

func TestReadXLSX_NumericCellsKeepStoredValue(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	header := sheet.AddRow()
	header.AddCell().SetString("cart_id")
	header.AddCell().SetString("total")
	row := sheet.AddRow()
	row.AddCell().SetString("C1")
	row.AddCell().SetFloat(100.02)
	path := filepath.Join(t.TempDir(), "numbers.xlsx")
	require.NoError(t, f.Save(path))

	tbl, err := ReadXLSX(context.Background(), path, XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "100.02", tbl.Rows[0][1])
}

func TestReadXLSX_SkipRows(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"Export generated 2024-01-10"},
			{"cart_id", "status"},
			{"C1", "Completed"},
		},
	})

	tbl, err := ReadXLSX(context.Background(), path, XLSXOptions{SkipRows: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"cart_id", "status"}, tbl.Header)
	require.Len(t, tbl.Rows, 1)
}

func TestReadXLSX_SheetName(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"First":  {{"a", "b"}},
		"Second": {{"x", "y"}, {"1", "2"}},
	})

	tbl, err := ReadXLSX(context.Background(), path, XLSXOptions{SheetName: "Second"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, tbl.Header)
	assert.Equal(t, [][]string{{"1", "2"}}, tbl.Rows)
}

func TestReadXLSX_SheetNameNotFound(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {{"a"}},
	})

	_, err := ReadXLSX(context.Background(), path, XLSXOptions{SheetName: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestReadXLSX_SheetIndexOutOfRange(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {{"a"}},
	})

	_, err := ReadXLSX(context.Background(), path, XLSXOptions{SheetIndex: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestReadXLSX_NotAWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xlsx")
	require.NoError(t, writeFile(path, "not a zip"))

	_, err := ReadXLSX(context.Background(), path, XLSXOptions{})
	assert.Error(t, err)
}

func TestReadXLSX_Cancelled(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {{"a"}, {"1"}},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ReadXLSX(ctx, path, XLSXOptions{})
	assert.Error(t, err)
}
