package pipeline

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/cart-monitor/internal/aggregate"
	"github.com/sells-group/cart-monitor/internal/factstore"
	"github.com/sells-group/cart-monitor/internal/ingest"
	"github.com/sells-group/cart-monitor/internal/match"
	"github.com/sells-group/cart-monitor/internal/model"
	"github.com/sells-group/cart-monitor/internal/monitoring"
	"github.com/sells-group/cart-monitor/internal/rules"
	"github.com/sells-group/cart-monitor/internal/tabular"
)

// Stage names.
const (
	StageIngest    = "ingest"
	StageMatch     = "match"
	StageRules     = "rules"
	StageAggregate = "aggregate"
	StageAlert     = "alert"
)

// IngestStage cleans raw dumps.
type IngestStage struct {
	Ingester *ingest.Ingester
}

// Name implements Stage.
func (s *IngestStage) Name() string { return StageIngest }

// Run implements Stage.
func (s *IngestStage) Run(ctx context.Context, opts Options) (Outcome, error) {
	sum, err := s.Ingester.Run(ctx, opts.Force)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Metadata: map[string]any{
		"written": sum.Written,
		"skipped": sum.Skipped,
		"failed":  sum.Failed,
	}}, nil
}

// MatchStage builds the fact table from clean records.
type MatchStage struct {
	Builder *match.Builder
	Store   *factstore.Store
}

// Name implements Stage.
func (s *MatchStage) Name() string { return StageMatch }

// Run implements Stage. A full rebuild is skipped when the fact table exists
// and Force is off. With Dates set, only those dates are rebuilt and merged
// into the existing table.
func (s *MatchStage) Run(ctx context.Context, opts Options) (Outcome, error) {
	incremental := len(opts.Dates) > 0
	if !incremental && !opts.Force && s.Store.Exists() {
		zap.L().Info("fact table exists, skipping match", zap.String("path", s.Store.Path))
		return Outcome{Skipped: true}, nil
	}

	res, err := s.Builder.Build(ctx, opts.Dates)
	if err != nil {
		return Outcome{}, err
	}

	rows := res.Rows
	if incremental {
		existing, err := s.Store.LoadMatched()
		if err != nil && !errors.Is(err, factstore.ErrNotFound) {
			return Outcome{}, err
		}
		rows = factstore.Merge(existing, res.Rows, res.Matched)
	} else if len(res.Matched) == 0 {
		zap.L().Warn("no snapshot dates matched, fact table left unchanged")
		return Outcome{Skipped: true}, nil
	}

	if err := s.Store.SaveMatched(rows); err != nil {
		return Outcome{}, err
	}
	zap.L().Info("wrote fact table", zap.String("path", s.Store.Path), zap.Int("rows", len(rows)))

	return Outcome{Metadata: map[string]any{
		"rows":          len(rows),
		"dates_matched": len(res.Matched),
		"dates_skipped": len(res.Skipped),
	}}, nil
}

// RulesStage annotates the fact table in place.
type RulesStage struct {
	Engine *rules.Engine
	Store  *factstore.Store
}

// Name implements Stage.
func (s *RulesStage) Name() string { return StageRules }

// Run implements Stage. Rules are always re-evaluated over the whole table.
func (s *RulesStage) Run(_ context.Context, _ Options) (Outcome, error) {
	rows, _, err := s.Store.Load()
	if err != nil {
		return Outcome{}, eris.Wrap(err, "rules: load fact table")
	}

	sum := s.Engine.Apply(rows)
	if err := s.Store.SaveAnnotated(rows); err != nil {
		return Outcome{}, err
	}

	return Outcome{Metadata: map[string]any{
		"rows":        sum.Rows,
		"hard_issues": sum.HardIssues,
		"warnings":    sum.Warnings,
		"issues":      sum.Issues,
	}}, nil
}

// AggregateStage regenerates the reporting views.
type AggregateStage struct {
	Store     *factstore.Store
	ReportDir string
}

// Name implements Stage.
func (s *AggregateStage) Name() string { return StageAggregate }

// Run implements Stage. Views are always fully regenerated.
func (s *AggregateStage) Run(_ context.Context, _ Options) (Outcome, error) {
	v, err := aggregate.Generate(s.Store, s.ReportDir)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Metadata: map[string]any{
		"days":        len(v.DailyKPIs),
		"issue_cases": len(v.IssueCases),
	}}, nil
}

// AlertStage checks the freshly written KPIs against alert thresholds.
// Alert delivery failures are logged and never fail the run.
type AlertStage struct {
	Alerter   *monitoring.Alerter
	ReportDir string
}

// Name implements Stage.
func (s *AlertStage) Name() string { return StageAlert }

// Run implements Stage.
func (s *AlertStage) Run(ctx context.Context, _ Options) (Outcome, error) {
	kpis, _, err := tabular.ReadFile[model.DailyKPI](filepath.Join(s.ReportDir, aggregate.DailyKPIsFile))
	if err != nil {
		return Outcome{}, eris.Wrap(err, "alert: read kpis")
	}

	alerts := s.Alerter.Evaluate(kpis)
	sent := s.Alerter.SendAlerts(ctx, alerts)
	return Outcome{Metadata: map[string]any{
		"alerts": len(alerts),
		"sent":   sent,
	}}, nil
}

// Deps are the wired components the stages run on. Alerter is optional.
type Deps struct {
	Ingester  *ingest.Ingester
	Builder   *match.Builder
	Engine    *rules.Engine
	Store     *factstore.Store
	ReportDir string
	Alerter   *monitoring.Alerter
}

// Stages returns the stages in pipeline order: ingest, match, rules,
// aggregate, then alert when an Alerter is configured.
func Stages(d Deps) []Stage {
	stages := []Stage{
		&IngestStage{Ingester: d.Ingester},
		&MatchStage{Builder: d.Builder, Store: d.Store},
		&RulesStage{Engine: d.Engine, Store: d.Store},
		&AggregateStage{Store: d.Store, ReportDir: d.ReportDir},
	}
	if d.Alerter != nil {
		stages = append(stages, &AlertStage{Alerter: d.Alerter, ReportDir: d.ReportDir})
	}
	return stages
}

var (
	_ Stage = (*IngestStage)(nil)
	_ Stage = (*MatchStage)(nil)
	_ Stage = (*RulesStage)(nil)
	_ Stage = (*AggregateStage)(nil)
	_ Stage = (*AlertStage)(nil)
)
