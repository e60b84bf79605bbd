package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/cart-monitor/internal/config"
	"github.com/sells-group/cart-monitor/internal/factstore"
	"github.com/sells-group/cart-monitor/internal/ingest"
	"github.com/sells-group/cart-monitor/internal/match"
	"github.com/sells-group/cart-monitor/internal/model"
	"github.com/sells-group/cart-monitor/internal/monitoring"
	"github.com/sells-group/cart-monitor/internal/pipeline"
	"github.com/sells-group/cart-monitor/internal/rules"
	"github.com/sells-group/cart-monitor/internal/taxonomy"
)

// initDeps validates the pipeline settings and wires every stage component
// from c.
func initDeps(c *config.Config) (pipeline.Deps, error) {
	if err := c.Validate("pipeline"); err != nil {
		return pipeline.Deps{}, err
	}

	tol, err := c.Match.Tolerance()
	if err != nil {
		return pipeline.Deps{}, err
	}

	rulesCfg := rules.DefaultConfig()
	rulesCfg.HoldPreparationDays = c.Rules.HoldPreparationDays
	rulesCfg.HoldPOCreationDays = c.Rules.HoldPOCreationDays
	rulesCfg.StuckInErrorDays = c.Rules.StuckInErrorDays
	if c.Rules.TaxonomyFile != "" {
		tax, err := taxonomy.LoadFile(c.Rules.TaxonomyFile)
		if err != nil {
			return pipeline.Deps{}, eris.Wrap(err, "load taxonomy")
		}
		rulesCfg.Taxonomy = tax
	}

	deps := pipeline.Deps{
		Ingester: ingest.New(ingestOptions(c)),
		Builder: match.NewBuilder(
			ingest.CleanDir{Dir: c.Paths.CleanDir},
			match.Options{Tolerance: tol, Concurrency: c.Match.Concurrency},
		),
		Engine:    rules.NewEngine(rulesCfg),
		Store:     factstore.New(c.Paths.FactPath()),
		ReportDir: c.Paths.ReportDir,
	}
	if c.Monitoring.Enabled {
		deps.Alerter = monitoring.NewAlerter(c.Monitoring)
	}
	return deps, nil
}

func ingestOptions(c *config.Config) ingest.Options {
	opts := ingest.Options{
		RawDirs: map[model.Source]string{
			model.SourceA: c.Paths.RawADir,
			model.SourceB: c.Paths.RawBDir,
		},
		Globs: map[model.Source][]string{
			model.SourceA: c.Ingest.GlobsA,
			model.SourceB: c.Ingest.GlobsB,
		},
		CleanDir: c.Paths.CleanDir,
	}
	if len(c.Ingest.Synonyms) > 0 {
		opts.Synonyms = c.Ingest.Synonyms
	}
	if len(c.Ingest.RequiredA) > 0 || len(c.Ingest.RequiredB) > 0 {
		opts.Required = ingest.DefaultRequired()
		if len(c.Ingest.RequiredA) > 0 {
			opts.Required[model.SourceA] = c.Ingest.RequiredA
		}
		if len(c.Ingest.RequiredB) > 0 {
			opts.Required[model.SourceB] = c.Ingest.RequiredB
		}
	}
	return opts
}

// runStages wires the pipeline from the loaded config and runs the named
// stages in pipeline order.
func runStages(ctx context.Context, opts pipeline.Options, names ...string) (*pipeline.RunResult, error) {
	deps, err := initDeps(cfg)
	if err != nil {
		return nil, err
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var stages []pipeline.Stage
	for _, st := range pipeline.Stages(deps) {
		if len(names) == 0 || want[st.Name()] {
			stages = append(stages, st)
		}
	}

	return pipeline.NewRunner(stages...).Run(ctx, opts)
}
