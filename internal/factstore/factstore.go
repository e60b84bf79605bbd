// Package factstore persists the fact table: one row per (snapshot_date,
// cart_id) across every matched date.
package factstore

import (
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/cart-monitor/internal/match"
	"github.com/sells-group/cart-monitor/internal/model"
	"github.com/sells-group/cart-monitor/internal/tabular"
)

// ErrNotFound means no fact table has been built yet.
var ErrNotFound = errors.New("factstore: fact table not found")

// annotatedMarker is a column only the rule engine writes.
const annotatedMarker = "has_issue"

// Store is a fact table file.
type Store struct {
	Path string
}

// New returns a Store backed by path.
func New(path string) *Store {
	return &Store{Path: path}
}

// Exists reports whether the fact table has been written.
func (s *Store) Exists() bool {
	return tabular.Exists(s.Path)
}

// Load reads every fact row. annotated reports whether the file carries the
// rule engine's columns; when it does not, Flags are left at their zero
// (Unknown) value.
func (s *Store) Load() (rows []model.FactRow, annotated bool, err error) {
	if !s.Exists() {
		return nil, false, eris.Wrapf(ErrNotFound, "path %s", s.Path)
	}
	rows, header, err := tabular.ReadFile[model.FactRow](s.Path)
	if err != nil {
		return nil, false, eris.Wrap(err, "factstore: load")
	}
	for _, col := range header {
		if col == annotatedMarker {
			annotated = true
			break
		}
	}
	return rows, annotated, nil
}

// LoadMatched reads only the matcher columns.
func (s *Store) LoadMatched() ([]model.Matched, error) {
	if !s.Exists() {
		return nil, eris.Wrapf(ErrNotFound, "path %s", s.Path)
	}
	rows, _, err := tabular.ReadFile[model.Matched](s.Path)
	if err != nil {
		return nil, eris.Wrap(err, "factstore: load matched")
	}
	return rows, nil
}

// SaveMatched replaces the fact table with matcher output. Any rule columns
// from a previous run are dropped; they are rederived by the rule engine.
func (s *Store) SaveMatched(rows []model.Matched) error {
	if err := checkUnique(len(rows), func(i int) model.FactKey { return rows[i].Key() }); err != nil {
		return err
	}
	if err := tabular.WriteFile(s.Path, rows); err != nil {
		return eris.Wrap(err, "factstore: save matched")
	}
	return nil
}

// SaveAnnotated replaces the fact table with rule-annotated rows.
func (s *Store) SaveAnnotated(rows []model.FactRow) error {
	if err := checkUnique(len(rows), func(i int) model.FactKey { return rows[i].Key() }); err != nil {
		return err
	}
	if err := tabular.WriteFile(s.Path, rows); err != nil {
		return eris.Wrap(err, "factstore: save annotated")
	}
	return nil
}

func checkUnique(n int, key func(i int) model.FactKey) error {
	seen := make(map[model.FactKey]bool, n)
	for i := range n {
		k := key(i)
		if seen[k] {
			return eris.Errorf("factstore: duplicate key %s/%s", k.SnapshotDate, k.CartID)
		}
		seen[k] = true
	}
	return nil
}

// Merge replaces every row of existing whose date is in dates with the rows
// of fresh. Rows of other dates are kept untouched. The result is unique on
// (snapshot_date, cart_id), fresh rows winning, and sorted by date then key.
func Merge(existing, fresh []model.Matched, dates []string) []model.Matched {
	rebuilt := make(map[string]bool, len(dates))
	for _, d := range dates {
		rebuilt[d] = true
	}
	for _, r := range fresh {
		rebuilt[r.SnapshotDate] = true
	}

	out := make([]model.Matched, 0, len(existing)+len(fresh))
	for _, r := range existing {
		if !rebuilt[r.SnapshotDate] {
			out = append(out, r)
		}
	}
	return match.Dedupe(append(out, fresh...))
}
