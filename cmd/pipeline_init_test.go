package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/cart-monitor/internal/config"
	"github.com/sells-group/cart-monitor/internal/ingest"
	"github.com/sells-group/cart-monitor/internal/model"
	"github.com/sells-group/cart-monitor/internal/pipeline"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	c := &config.Config{
		Paths: config.PathsConfig{
			RawADir:   filepath.Join(root, "raw", "a"),
			RawBDir:   filepath.Join(root, "raw", "b"),
			CleanDir:  filepath.Join(root, "clean"),
			ModelDir:  filepath.Join(root, "model"),
			ReportDir: filepath.Join(root, "pbi"),
			FactFile:  "fact_orders.csv",
		},
		Ingest: config.IngestConfig{
			GlobsA: []string{"instance_a_*.csv"},
			GlobsB: []string{"instance_b_*.csv"},
		},
		Match: config.MatchConfig{ValueTolerance: "0.01", Concurrency: 2},
		Rules: config.RulesConfig{HoldPreparationDays: 30, HoldPOCreationDays: 4, StuckInErrorDays: 4},
	}
	require.NoError(t, os.MkdirAll(c.Paths.RawADir, 0o755))
	require.NoError(t, os.MkdirAll(c.Paths.RawBDir, 0o755))
	return c
}

func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func TestInitDeps_InvalidConfig(t *testing.T) {
	c := testConfig(t)
	c.Match.ValueTolerance = "lots"

	_, err := initDeps(c)
	assert.Error(t, err)
}

func TestInitDeps_TaxonomyFile(t *testing.T) {
	c := testConfig(t)
	c.Rules.TaxonomyFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := initDeps(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load taxonomy")

	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("taxonomy:\n  statuses: [Draft]\n"), 0o644))
	c.Rules.TaxonomyFile = path

	deps, err := initDeps(c)
	require.NoError(t, err)
	assert.NotNil(t, deps.Engine)
	assert.Equal(t, filepath.Join(c.Paths.ModelDir, "fact_orders.csv"), deps.Store.Path)
	assert.Nil(t, deps.Alerter)

	c.Monitoring.Enabled = true
	deps, err = initDeps(c)
	require.NoError(t, err)
	assert.NotNil(t, deps.Alerter)
	assert.Len(t, pipeline.Stages(deps), 5)
}

func TestIngestOptions_Overrides(t *testing.T) {
	c := testConfig(t)
	opts := ingestOptions(c)
	assert.Nil(t, opts.Synonyms)
	assert.Nil(t, opts.Required)

	c.Ingest.RequiredB = []string{model.ColCartID}
	c.Ingest.Synonyms = map[string][]string{model.ColCartID: {"Warenkorb"}}
	opts = ingestOptions(c)
	assert.Equal(t, []string{model.ColCartID}, opts.Required[model.SourceB])
	assert.Equal(t, ingest.DefaultRequired()[model.SourceA], opts.Required[model.SourceA])
	assert.Equal(t, []string{"Warenkorb"}, opts.Synonyms[model.ColCartID])
}

func TestRunStages(t *testing.T) {
	c := testConfig(t)
	withConfig(t, c)
	require.NoError(t, os.WriteFile(filepath.Join(c.Paths.RawBDir, "instance_b_2024-01-10.csv"),
		[]byte("cart_id,updated_at\nC1,2024-01-09\n"), 0o644))

	res, err := runStages(context.Background(), pipeline.Options{}, pipeline.StageIngest)
	require.NoError(t, err)
	require.Len(t, res.Phases, 1)
	assert.Equal(t, pipeline.StageIngest, res.Phases[0].Name)

	res, err = runStages(context.Background(), pipeline.Options{})
	require.NoError(t, err)
	require.Len(t, res.Phases, 4)
	assert.FileExists(t, filepath.Join(c.Paths.ReportDir, "daily_kpis.csv"))
}

func TestRunStages_RulesWithoutFactTable(t *testing.T) {
	withConfig(t, testConfig(t))

	_, err := runStages(context.Background(), pipeline.Options{}, pipeline.StageRules)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage rules")
}
