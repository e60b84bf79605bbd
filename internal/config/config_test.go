package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/raw/instance_a", cfg.Paths.RawADir)
	assert.Equal(t, "data/raw/instance_b", cfg.Paths.RawBDir)
	assert.Equal(t, "data/clean", cfg.Paths.CleanDir)
	assert.Equal(t, "data/pbi", cfg.Paths.ReportDir)
	assert.Equal(t, filepath.Join("data/model", "fact_orders.csv"), cfg.Paths.FactPath())
	assert.Equal(t, []string{"instance_a_*.xlsx", "instance_a_*.csv"}, cfg.Ingest.GlobsA)
	assert.Equal(t, []string{"instance_b_*.xlsx", "instance_b_*.csv"}, cfg.Ingest.GlobsB)
	assert.Empty(t, cfg.Ingest.Synonyms)
	assert.Equal(t, 4, cfg.Match.Concurrency)
	assert.InDelta(t, 30, cfg.Rules.HoldPreparationDays, 0.001)
	assert.InDelta(t, 4, cfg.Rules.HoldPOCreationDays, 0.001)
	assert.InDelta(t, 4, cfg.Rules.StuckInErrorDays, 0.001)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Monitoring.Enabled)
	assert.InDelta(t, 0.05, cfg.Monitoring.HardIssueRateThreshold, 0.0001)
	assert.Equal(t, 10, cfg.Monitoring.MinRows)

	tol, err := cfg.Match.Tolerance()
	require.NoError(t, err)
	assert.Equal(t, "0.01", tol.String())

	assert.NoError(t, cfg.Validate("pipeline"))
	assert.NoError(t, cfg.Validate("serve"))
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
paths:
  clean_dir: /srv/cart/clean
log:
  level: debug
  format: console
match:
  value_tolerance: 0.05
  concurrency: 8
rules:
  hold_po_creation_days: 7
ingest:
  required_b: [cart_id]
  synonyms:
    cart_id: [Warenkorb]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/cart/clean", cfg.Paths.CleanDir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 8, cfg.Match.Concurrency)
	assert.InDelta(t, 7, cfg.Rules.HoldPOCreationDays, 0.001)
	assert.Equal(t, []string{"cart_id"}, cfg.Ingest.RequiredB)
	assert.Equal(t, []string{"Warenkorb"}, cfg.Ingest.Synonyms["cart_id"])

	tol, err := cfg.Match.Tolerance()
	require.NoError(t, err)
	assert.Equal(t, "0.05", tol.String())

	// Defaults still apply for unset values
	assert.Equal(t, "data/raw/instance_a", cfg.Paths.RawADir)
	assert.InDelta(t, 30, cfg.Rules.HoldPreparationDays, 0.001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
paths:
  report_dir: /srv/pbi
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("CARTMON_PATHS_REPORT_DIR", "/tmp/pbi")
	t.Setenv("CARTMON_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "/tmp/pbi", cfg.Paths.ReportDir)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("CARTMON_SERVER_PORT", "3000")
	t.Setenv("CARTMON_MATCH_VALUE_TOLERANCE", "0.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "0.5", cfg.Match.ValueTolerance)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("paths: [unclosed"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Paths = PathsConfig{
		RawADir:   "raw/a",
		RawBDir:   "raw/b",
		CleanDir:  "clean",
		ModelDir:  "model",
		ReportDir: "pbi",
		FactFile:  "fact_orders.csv",
	}
	cfg.Match = MatchConfig{ValueTolerance: "0.01", Concurrency: 4}
	cfg.Rules = RulesConfig{HoldPreparationDays: 30, HoldPOCreationDays: 4, StuckInErrorDays: 4}
	cfg.Server.Port = 8080
	return cfg
}

func TestValidatePipeline_AllPresent(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("pipeline"))
}

func TestValidatePipeline_MissingPaths(t *testing.T) {
	cfg := validDefaults()
	cfg.Paths.RawADir = ""
	cfg.Paths.FactFile = ""

	err := cfg.Validate("pipeline")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "paths.raw_a_dir is required")
	assert.Contains(t, err.Error(), "paths.fact_file is required")
}

func TestValidatePipeline_Tolerance(t *testing.T) {
	cfg := validDefaults()

	cfg.Match.ValueTolerance = "abc"
	err := cfg.Validate("pipeline")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "match.value_tolerance must be a decimal")

	cfg.Match.ValueTolerance = "-0.01"
	err = cfg.Validate("pipeline")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "match.value_tolerance must be >= 0")
}

func TestValidateConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Match.Concurrency = 0
	err := cfg.Validate("pipeline")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "match.concurrency must be between 1 and 64")

	cfg.Match.Concurrency = 65
	err = cfg.Validate("pipeline")
	assert.Error(t, err)

	cfg.Match.Concurrency = 64
	assert.NoError(t, cfg.Validate("pipeline"))
}

func TestValidateThresholds(t *testing.T) {
	cfg := validDefaults()
	cfg.Rules.StuckInErrorDays = -1

	err := cfg.Validate("pipeline")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rules thresholds must be >= 0")
}

func TestValidateMonitoringThresholds(t *testing.T) {
	cfg := validDefaults()
	cfg.Monitoring.IssueRateThreshold = 1.5
	assert.NoError(t, cfg.Validate("pipeline"))

	cfg.Monitoring.Enabled = true
	err := cfg.Validate("pipeline")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "monitoring thresholds must be between 0 and 1")
}

func TestValidateServe_ValidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 9090

	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
