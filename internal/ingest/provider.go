package ingest

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/cart-monitor/internal/model"
	"github.com/sells-group/cart-monitor/internal/tabular"
)

// CleanDir serves normalized record sets from a directory of clean files.
type CleanDir struct {
	Dir string
}

// Dates lists every snapshot date for which either source has a clean file.
func (c CleanDir) Dates(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	for _, src := range []model.Source{model.SourceA, model.SourceB} {
		matches, err := filepath.Glob(filepath.Join(c.Dir, "clean_"+src.Tag()+"_*.csv"))
		if err != nil {
			return nil, eris.Wrap(err, "ingest: list clean files")
		}
		for _, m := range matches {
			if d, ok := FileDate(filepath.Base(m)); ok {
				seen[d] = true
			}
		}
	}

	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates, nil
}

// Load returns the record set one source reported for a date. A source with
// no clean file for the date yields nil and no error.
func (c CleanDir) Load(ctx context.Context, src model.Source, date string) (*model.RecordSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "ingest: load cancelled")
	}

	path := CleanPath(c.Dir, src, date)
	if !tabular.Exists(path) {
		return nil, nil
	}

	records, header, err := tabular.ReadFile[model.SourceRecord](path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: load %s", filepath.Base(path))
	}

	columns := make(map[string]bool, len(header))
	for _, col := range header {
		if !provenanceColumns[col] {
			columns[col] = true
		}
	}
	return &model.RecordSet{Source: src, Date: date, Columns: columns, Records: records}, nil
}
