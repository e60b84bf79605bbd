package match

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/cart-monitor/internal/model"
)

// Provider supplies normalized per-source, per-day record sets.
type Provider interface {
	// Dates lists every snapshot date known to either source.
	Dates(ctx context.Context) ([]string, error)
	// Load returns one source's records for a date, or nil when the source
	// did not report that date.
	Load(ctx context.Context, src model.Source, date string) (*model.RecordSet, error)
}

// Result is the outcome of a multi-date build.
type Result struct {
	Rows    []model.Matched
	Matched []string
	Skipped []string
}

// Builder runs the Matcher across many snapshot dates.
type Builder struct {
	provider    Provider
	matcher     *Matcher
	concurrency int
}

// NewBuilder wires a Builder to a record provider.
func NewBuilder(p Provider, opts Options) *Builder {
	c := opts.Concurrency
	if c <= 0 {
		c = 1
	}
	return &Builder{provider: p, matcher: New(opts), concurrency: c}
}

// Build matches the given dates, or every date the provider knows when dates
// is empty. Dates are matched concurrently. A source that cannot be loaded is
// treated as empty for that date; a date where neither source loads is
// skipped. The result is deduplicated on (snapshot_date, cart_id), keeping the
// row computed last in date order, and sorted by date then cart ID.
func (b *Builder) Build(ctx context.Context, dates []string) (*Result, error) {
	log := zap.L().With(zap.String("component", "match"))

	if len(dates) == 0 {
		all, err := b.provider.Dates(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "match: list dates")
		}
		dates = all
	}
	if len(dates) == 0 {
		log.Warn("no snapshot dates to match")
		return &Result{}, nil
	}

	parts := make([][]model.Matched, len(dates))
	ok := make([]bool, len(dates))
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, date := range dates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows, err := b.matchDate(gctx, date)
			if err != nil {
				failed.Add(1)
				log.Error("snapshot skipped", zap.String("date", date), zap.Error(err))
				return nil
			}
			parts[i], ok[i] = rows, true
			log.Info("snapshot matched", zap.String("date", date), zap.Int("rows", len(rows)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "match: build")
	}

	res := &Result{}
	var all []model.Matched
	for i, date := range dates {
		if !ok[i] {
			res.Skipped = append(res.Skipped, date)
			continue
		}
		res.Matched = append(res.Matched, date)
		all = append(all, parts[i]...)
	}
	res.Rows = Dedupe(all)

	log.Info("match complete",
		zap.Int("dates", len(res.Matched)),
		zap.Int64("skipped", failed.Load()),
		zap.Int("rows", len(res.Rows)),
	)
	return res, nil
}

func (b *Builder) matchDate(ctx context.Context, date string) ([]model.Matched, error) {
	a, errA := b.provider.Load(ctx, model.SourceA, date)
	if errA != nil {
		zap.L().Warn("source unreadable, treated as empty",
			zap.String("source", string(model.SourceA)), zap.String("date", date), zap.Error(errA))
	}
	bs, errB := b.provider.Load(ctx, model.SourceB, date)
	if errB != nil {
		zap.L().Warn("source unreadable, treated as empty",
			zap.String("source", string(model.SourceB)), zap.String("date", date), zap.Error(errB))
	}
	if errA != nil && errB != nil {
		return nil, eris.Errorf("match: no readable source for %s", date)
	}
	return b.matcher.MatchDay(date, a, bs), nil
}

// Dedupe keeps one row per (snapshot_date, cart_id), the last in input order,
// and sorts the survivors by date then cart ID.
func Dedupe(rows []model.Matched) []model.Matched {
	last := make(map[model.FactKey]int, len(rows))
	for i := range rows {
		last[rows[i].Key()] = i
	}
	out := make([]model.Matched, 0, len(last))
	for i := range rows {
		if last[rows[i].Key()] == i {
			out = append(out, rows[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SnapshotDate != out[j].SnapshotDate {
			return out[i].SnapshotDate < out[j].SnapshotDate
		}
		return out[i].CartID < out[j].CartID
	})
	return out
}
