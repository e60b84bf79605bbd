// Package aggregate collapses the rule-annotated fact table into the four
// reporting views.
package aggregate

import (
	"cmp"
	"slices"
	"strings"

	"github.com/sells-group/cart-monitor/internal/model"
	"github.com/sells-group/cart-monitor/internal/rules"
)

// Age bucket labels, lowest first.
const (
	BucketUpToOneDay = "0-1d"
	BucketUpToFour   = "1-4d"
	BucketUpToThirty = "4-30d"
	BucketOverThirty = ">30d"
)

const (
	reasonMissingInA = "missing_in_a"
	reasonMissingInB = "missing_in_b"
)

// Views holds every generated view.
type Views struct {
	DailyKPIs          []model.DailyKPI
	StatusDistribution []model.StatusCount
	AgingBuckets       []model.AgingCount
	IssueCases         []model.IssueCase
}

// Build generates all four views from the fact table.
func Build(rows []model.FactRow) Views {
	return Views{
		DailyKPIs:          DailyKPIs(rows),
		StatusDistribution: StatusDistribution(rows),
		AgingBuckets:       AgingBuckets(rows),
		IssueCases:         IssueCases(rows),
	}
}

// DailyKPIs counts rows per snapshot date and derives the issue rates. A rate
// whose denominator is zero is 0.
func DailyKPIs(rows []model.FactRow) []model.DailyKPI {
	byDate := make(map[string]*model.DailyKPI)
	for i := range rows {
		r := &rows[i]
		k, ok := byDate[r.SnapshotDate]
		if !ok {
			k = &model.DailyKPI{SnapshotDate: r.SnapshotDate}
			byDate[r.SnapshotDate] = k
		}
		k.Rows++
		k.OrdersA += count(r.ExistsInA)
		k.OrdersB += count(r.ExistsInB)
		k.MissingInB += count(r.MissingInB())
		k.MissingInA += count(r.MissingInA())
		k.AnyMismatch += count(r.AnyMismatch)
		k.HardIssue += count(r.HardIssue.True())
		k.Warning += count(r.Warning.True())
		k.HasIssue += count(r.HasIssue.True())
	}

	out := make([]model.DailyKPI, 0, len(byDate))
	for _, k := range byDate {
		k.IssueRate = rate(k.HasIssue, k.Rows)
		k.HardIssueRate = rate(k.HardIssue, k.Rows)
		k.WarningRate = rate(k.Warning, k.Rows)
		k.MismatchRate = rate(k.AnyMismatch, k.Rows)
		k.MissingInBRate = rate(k.MissingInB, k.OrdersA)
		out = append(out, *k)
	}
	slices.SortFunc(out, func(a, b model.DailyKPI) int { return strings.Compare(a.SnapshotDate, b.SnapshotDate) })
	return out
}

// StatusDistribution counts rows per (date, A-side status, A-side substatus).
// Empty values form their own group.
func StatusDistribution(rows []model.FactRow) []model.StatusCount {
	type key struct{ date, status, sub string }
	counts := make(map[key]int)
	for i := range rows {
		counts[key{rows[i].SnapshotDate, rows[i].StatusA, rows[i].SubstatusA}]++
	}

	out := make([]model.StatusCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, model.StatusCount{SnapshotDate: k.date, Status: k.status, Substatus: k.sub, Count: n})
	}
	slices.SortFunc(out, func(a, b model.StatusCount) int {
		return cmp.Or(
			strings.Compare(a.SnapshotDate, b.SnapshotDate),
			strings.Compare(a.Status, b.Status),
			strings.Compare(a.Substatus, b.Substatus),
		)
	})
	return out
}

// Bucket places an age into its right-closed bucket. Undefined ages fall in
// the lowest bucket.
func Bucket(age model.Age) string {
	switch {
	case !age.Defined() || age.Days() <= 1:
		return BucketUpToOneDay
	case age.Days() <= 4:
		return BucketUpToFour
	case age.Days() <= 30:
		return BucketUpToThirty
	default:
		return BucketOverThirty
	}
}

var bucketOrder = map[string]int{BucketUpToOneDay: 0, BucketUpToFour: 1, BucketUpToThirty: 2, BucketOverThirty: 3}

// AgingBuckets counts rows per (date, A-side status, A-side substatus, age
// bucket). Only observed groups are emitted.
func AgingBuckets(rows []model.FactRow) []model.AgingCount {
	type key struct{ date, status, sub, bucket string }
	counts := make(map[key]int)
	for i := range rows {
		r := &rows[i]
		counts[key{r.SnapshotDate, r.StatusA, r.SubstatusA, Bucket(r.AgeDays)}]++
	}

	out := make([]model.AgingCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, model.AgingCount{
			SnapshotDate: k.date, Status: k.status, Substatus: k.sub, AgeBucket: k.bucket, Count: n,
		})
	}
	slices.SortFunc(out, func(a, b model.AgingCount) int {
		return cmp.Or(
			strings.Compare(a.SnapshotDate, b.SnapshotDate),
			strings.Compare(a.Status, b.Status),
			strings.Compare(a.Substatus, b.Substatus),
			cmp.Compare(bucketOrder[a.AgeBucket], bucketOrder[b.AgeBucket]),
		)
	})
	return out
}

// IssueCases lists every row that has an issue, a mismatch or exists in only
// one source. Hard issues take precedence for the case type.
func IssueCases(rows []model.FactRow) []model.IssueCase {
	var out []model.IssueCase
	for i := range rows {
		r := &rows[i]
		if !r.HasIssue.True() && !r.AnyMismatch && !r.OneSided() {
			continue
		}
		ct := model.CaseWarning
		if r.HardIssue.True() {
			ct = model.CaseHard
		}
		out = append(out, model.IssueCase{
			SnapshotDate: r.SnapshotDate,
			CaseType:     ct,
			CartID:       r.CartID,
			StatusA:      r.StatusA,
			SubstatusA:   r.SubstatusA,
			StatusB:      r.StatusB,
			SubstatusB:   r.SubstatusB,
			AgeDays:      r.AgeDays,
			ExistsInA:    r.ExistsInA,
			ExistsInB:    r.ExistsInB,
			HardIssue:    r.HardIssue.True(),
			Warning:      r.Warning.True(),
			HasIssue:     r.HasIssue.True(),
			AnyMismatch:  r.AnyMismatch,
			Reasons:      Reasons(r),
			SourceFileA:  r.SourceFileA,
			SourceFileB:  r.SourceFileB,
		})
	}
	slices.SortStableFunc(out, func(a, b model.IssueCase) int {
		return cmp.Or(strings.Compare(a.SnapshotDate, b.SnapshotDate), strings.Compare(a.CartID, b.CartID))
	})
	return out
}

// Reasons joins the triggered rule names, in rule order, followed by the
// one-sided existence token if any.
func Reasons(r *model.FactRow) string {
	parts := rules.Triggered(r)
	if r.MissingInB() {
		parts = append(parts, reasonMissingInB)
	}
	if r.MissingInA() {
		parts = append(parts, reasonMissingInA)
	}
	return strings.Join(parts, ",")
}

func count(b bool) int {
	if b {
		return 1
	}
	return 0
}

func rate(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
