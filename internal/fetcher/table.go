package fetcher

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Table is a raw dump: a header row and ragged data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

func newTable(records [][]string) *Table {
	t := &Table{}
	if len(records) == 0 {
		return t
	}
	t.Header = records[0]
	t.Rows = records[1:]
	return t
}

// Cell returns the value at column idx of row, or "" when the row is short.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// BlankRow reports whether every cell of row is empty after trimming.
func BlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ReadDump reads a dump file, picking the parser from the file extension.
func ReadDump(ctx context.Context, path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadXLSX(ctx, path, XLSXOptions{})
	case ".csv":
		return ReadCSV(ctx, path, CSVOptions{LazyQuotes: true})
	case ".tsv":
		return ReadCSV(ctx, path, CSVOptions{Delimiter: '\t', LazyQuotes: true})
	default:
		return nil, eris.Errorf("fetcher: unsupported dump format %q", filepath.Ext(path))
	}
}
