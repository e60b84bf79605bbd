package aggregate

import (
	"errors"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/cart-monitor/internal/factstore"
	"github.com/sells-group/cart-monitor/internal/tabular"
)

// ErrNotAnnotated means the fact table has not been through the rule engine.
var ErrNotAnnotated = errors.New("aggregate: fact table has no rule columns")

// View file names inside the report directory.
const (
	DailyKPIsFile          = "daily_kpis.csv"
	StatusDistributionFile = "status_distribution_daily.csv"
	AgingBucketsFile       = "aging_buckets.csv"
	IssueCasesFile         = "issue_cases.csv"
)

// Write stages all four views in dir and swaps them in together. On error
// none of the previous files is replaced.
func Write(dir string, v Views) error {
	var b tabular.Batch
	if err := stageViews(&b, dir, v); err != nil {
		b.Discard()
		return eris.Wrap(err, "aggregate: stage views")
	}
	if err := b.Commit(); err != nil {
		return eris.Wrap(err, "aggregate: replace views")
	}
	return nil
}

func stageViews(b *tabular.Batch, dir string, v Views) error {
	if err := tabular.Stage(b, filepath.Join(dir, DailyKPIsFile), v.DailyKPIs); err != nil {
		return err
	}
	if err := tabular.Stage(b, filepath.Join(dir, StatusDistributionFile), v.StatusDistribution); err != nil {
		return err
	}
	if err := tabular.Stage(b, filepath.Join(dir, AgingBucketsFile), v.AgingBuckets); err != nil {
		return err
	}
	return tabular.Stage(b, filepath.Join(dir, IssueCasesFile), v.IssueCases)
}

// Generate rebuilds every view from the fact table in store and writes them
// to dir.
func Generate(store *factstore.Store, dir string) (Views, error) {
	rows, annotated, err := store.Load()
	if err != nil {
		return Views{}, err
	}
	if !annotated {
		return Views{}, eris.Wrapf(ErrNotAnnotated, "path %s", store.Path)
	}

	v := Build(rows)
	if err := Write(dir, v); err != nil {
		return Views{}, err
	}

	zap.L().Info("views written",
		zap.String("component", "aggregate"),
		zap.String("dir", dir),
		zap.Int("days", len(v.DailyKPIs)),
		zap.Int("status_groups", len(v.StatusDistribution)),
		zap.Int("aging_groups", len(v.AgingBuckets)),
		zap.Int("issue_cases", len(v.IssueCases)),
	)
	return v, nil
}
