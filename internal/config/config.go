package config

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Paths      PathsConfig      `yaml:"paths" mapstructure:"paths"`
	Ingest     IngestConfig     `yaml:"ingest" mapstructure:"ingest"`
	Match      MatchConfig      `yaml:"match" mapstructure:"match"`
	Rules      RulesConfig      `yaml:"rules" mapstructure:"rules"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// PathsConfig locates the raw dumps and every generated artifact.
type PathsConfig struct {
	RawADir   string `yaml:"raw_a_dir" mapstructure:"raw_a_dir"`
	RawBDir   string `yaml:"raw_b_dir" mapstructure:"raw_b_dir"`
	CleanDir  string `yaml:"clean_dir" mapstructure:"clean_dir"`
	ModelDir  string `yaml:"model_dir" mapstructure:"model_dir"`
	ReportDir string `yaml:"report_dir" mapstructure:"report_dir"`
	FactFile  string `yaml:"fact_file" mapstructure:"fact_file"`
}

// FactPath returns the fact table location.
func (p PathsConfig) FactPath() string {
	return filepath.Join(p.ModelDir, p.FactFile)
}

// IngestConfig configures dump discovery and column normalization. Empty
// synonym or required-column settings fall back to the built-in tables.
type IngestConfig struct {
	GlobsA    []string            `yaml:"globs_a" mapstructure:"globs_a"`
	GlobsB    []string            `yaml:"globs_b" mapstructure:"globs_b"`
	RequiredA []string            `yaml:"required_a" mapstructure:"required_a"`
	RequiredB []string            `yaml:"required_b" mapstructure:"required_b"`
	Synonyms  map[string][]string `yaml:"synonyms" mapstructure:"synonyms"`
}

// MatchConfig configures the matcher.
type MatchConfig struct {
	ValueTolerance string `yaml:"value_tolerance" mapstructure:"value_tolerance"`
	Concurrency    int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// Tolerance parses the configured value tolerance.
func (m MatchConfig) Tolerance() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(m.ValueTolerance))
	if err != nil {
		return decimal.Zero, eris.Wrapf(err, "config: invalid match.value_tolerance %q", m.ValueTolerance)
	}
	return d, nil
}

// RulesConfig holds SLA thresholds in days and an optional taxonomy file.
type RulesConfig struct {
	HoldPreparationDays float64 `yaml:"hold_preparation_days" mapstructure:"hold_preparation_days"`
	HoldPOCreationDays  float64 `yaml:"hold_po_creation_days" mapstructure:"hold_po_creation_days"`
	StuckInErrorDays    float64 `yaml:"stuck_in_error_days" mapstructure:"stuck_in_error_days"`
	TaxonomyFile        string  `yaml:"taxonomy_file" mapstructure:"taxonomy_file"`
}

// ServerConfig configures the report server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// MonitoringConfig configures KPI threshold alerts raised after a pipeline
// run. Rates are fractions; zero disables a check.
type MonitoringConfig struct {
	Enabled                 bool    `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL              string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	IssueRateThreshold      float64 `yaml:"issue_rate_threshold" mapstructure:"issue_rate_threshold"`
	HardIssueRateThreshold  float64 `yaml:"hard_issue_rate_threshold" mapstructure:"hard_issue_rate_threshold"`
	MissingInBRateThreshold float64 `yaml:"missing_in_b_rate_threshold" mapstructure:"missing_in_b_rate_threshold"`
	MinRows                 int     `yaml:"min_rows" mapstructure:"min_rows"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CARTMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("paths.raw_a_dir", "data/raw/instance_a")
	v.SetDefault("paths.raw_b_dir", "data/raw/instance_b")
	v.SetDefault("paths.clean_dir", "data/clean")
	v.SetDefault("paths.model_dir", "data/model")
	v.SetDefault("paths.report_dir", "data/pbi")
	v.SetDefault("paths.fact_file", "fact_orders.csv")
	v.SetDefault("ingest.globs_a", []string{"instance_a_*.xlsx", "instance_a_*.csv"})
	v.SetDefault("ingest.globs_b", []string{"instance_b_*.xlsx", "instance_b_*.csv"})
	v.SetDefault("match.value_tolerance", "0.01")
	v.SetDefault("match.concurrency", 4)
	v.SetDefault("rules.hold_preparation_days", 30)
	v.SetDefault("rules.hold_po_creation_days", 4)
	v.SetDefault("rules.stuck_in_error_days", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.issue_rate_threshold", 0.20)
	v.SetDefault("monitoring.hard_issue_rate_threshold", 0.05)
	v.SetDefault("monitoring.missing_in_b_rate_threshold", 0.10)
	v.SetDefault("monitoring.min_rows", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes are
// "pipeline" and "serve".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "pipeline":
		for _, p := range []struct{ name, dir string }{
			{"paths.raw_a_dir", c.Paths.RawADir},
			{"paths.raw_b_dir", c.Paths.RawBDir},
			{"paths.clean_dir", c.Paths.CleanDir},
			{"paths.model_dir", c.Paths.ModelDir},
		} {
			if strings.TrimSpace(p.dir) == "" {
				problems = append(problems, p.name+" is required")
			}
		}
		if c.Paths.FactFile == "" {
			problems = append(problems, "paths.fact_file is required")
		}
		if tol, err := c.Match.Tolerance(); err != nil {
			problems = append(problems, "match.value_tolerance must be a decimal")
		} else if tol.IsNegative() {
			problems = append(problems, "match.value_tolerance must be >= 0")
		}
		if c.Match.Concurrency < 1 || c.Match.Concurrency > 64 {
			problems = append(problems, "match.concurrency must be between 1 and 64")
		}
		if c.Rules.HoldPreparationDays < 0 || c.Rules.HoldPOCreationDays < 0 || c.Rules.StuckInErrorDays < 0 {
			problems = append(problems, "rules thresholds must be >= 0")
		}
		if c.Monitoring.Enabled {
			for _, r := range []float64{c.Monitoring.IssueRateThreshold, c.Monitoring.HardIssueRateThreshold, c.Monitoring.MissingInBRateThreshold} {
				if r < 0 || r > 1 {
					problems = append(problems, "monitoring thresholds must be between 0 and 1")
					break
				}
			}
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Paths.ReportDir == "" {
		problems = append(problems, "paths.report_dir is required")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
