// Package match outer-joins the per-day record sets of the two sources into
// fact rows.
package match

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sells-group/cart-monitor/internal/model"
	"github.com/sells-group/cart-monitor/internal/taxonomy"
)

// DefaultTolerance is the absolute difference above which two total values
// are considered different.
var DefaultTolerance = decimal.RequireFromString("0.01")

// Options configures a Matcher.
type Options struct {
	Tolerance   decimal.Decimal
	Concurrency int
}

// Matcher joins one snapshot date at a time.
type Matcher struct {
	tol decimal.Decimal
}

// New returns a Matcher. A negative tolerance is treated as zero.
func New(opts Options) *Matcher {
	tol := opts.Tolerance
	if tol.IsNegative() {
		tol = decimal.Zero
	}
	return &Matcher{tol: tol}
}

// MatchDay produces one row per distinct cart ID found in either set. A nil
// set is an empty source. Rows are ordered by cart ID.
func (m *Matcher) MatchDay(date string, a, b *model.RecordSet) []model.Matched {
	rows := make(map[string]*model.Matched)
	var keys []string

	join := func(rs *model.RecordSet, src model.Source) {
		if rs == nil {
			return
		}
		for _, r := range rs.Records {
			key := strings.TrimSpace(r.CartID)
			row, ok := rows[key]
			if !ok {
				row = &model.Matched{SnapshotDate: date, CartID: key}
				rows[key] = row
				keys = append(keys, key)
			}
			if src == model.SourceA {
				row.ExistsInA = true
			} else {
				row.ExistsInB = true
			}
			row.SetSide(src, model.SideOf(r))
		}
	}
	join(a, model.SourceA)
	join(b, model.SourceB)

	sort.Strings(keys)
	out := make([]model.Matched, 0, len(keys))
	for _, key := range keys {
		row := rows[key]
		m.flag(row, a, b)
		out = append(out, *row)
	}
	return out
}

// flag sets the mismatch columns. A mismatch is only defined for rows present
// in both sources and for columns both dumps carried; otherwise it stays
// Unknown.
func (m *Matcher) flag(row *model.Matched, a, b *model.RecordSet) {
	row.StatusMismatch, row.SubstatusMismatch, row.ValueMismatch = model.Unknown, model.Unknown, model.Unknown
	if row.InBoth() {
		if a.Has(model.ColStatus) && b.Has(model.ColStatus) {
			row.StatusMismatch = model.TriOf(taxonomy.Normalize(row.StatusA) != taxonomy.Normalize(row.StatusB))
		}
		if a.Has(model.ColSubstatus) && b.Has(model.ColSubstatus) {
			row.SubstatusMismatch = model.TriOf(taxonomy.Normalize(row.SubstatusA) != taxonomy.Normalize(row.SubstatusB))
		}
		row.ValueMismatch = m.valueMismatch(row.TotalValueA, row.TotalValueB)
	}
	row.AnyMismatch = row.StatusMismatch.True() || row.SubstatusMismatch.True() || row.ValueMismatch.True()
}

func (m *Matcher) valueMismatch(a, b model.Amount) model.Tri {
	if !a.Valid || !b.Valid {
		return model.Unknown
	}
	return model.TriOf(a.Value.Sub(b.Value).Abs().GreaterThan(m.tol))
}
