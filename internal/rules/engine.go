// Package rules derives age, business-rule flags and issue roll-ups for every
// fact row.
package rules

import (
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/cart-monitor/internal/model"
	"github.com/sells-group/cart-monitor/internal/taxonomy"
)

// Config holds the thresholds and vocabulary the rules evaluate against.
type Config struct {
	Taxonomy            taxonomy.Taxonomy
	HoldPreparationDays float64
	HoldPOCreationDays  float64
	StuckInErrorDays    float64
}

// DefaultConfig returns the built-in vocabulary and SLA thresholds.
func DefaultConfig() Config {
	return Config{
		Taxonomy:            taxonomy.Default(),
		HoldPreparationDays: 30,
		HoldPOCreationDays:  4,
		StuckInErrorDays:    4,
	}
}

// Summary counts the outcome of one Apply.
type Summary struct {
	Rows         int
	HardIssues   int
	Warnings     int
	Issues       int
	UndefinedAge int
	Triggered    map[string]int
}

// Engine applies the rule set. It holds no per-run state, so Apply is
// idempotent.
type Engine struct {
	cfg   Config
	vocab *taxonomy.Vocabulary
}

// NewEngine compiles cfg into an Engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg, vocab: cfg.Taxonomy.Compile()}
}

// Apply overwrites the derived columns of every row in place. Rows are never
// added, removed or reordered and matcher columns are never changed.
func (e *Engine) Apply(rows []model.FactRow) Summary {
	sum := Summary{Rows: len(rows), Triggered: make(map[string]int)}

	for i := range rows {
		row := &rows[i]
		e.evaluate(row)

		if !row.AgeDays.Defined() {
			sum.UndefinedAge++
		}
		if row.HardIssue.True() {
			sum.HardIssues++
		}
		if row.Warning.True() {
			sum.Warnings++
		}
		if row.HasIssue.True() {
			sum.Issues++
		}
		for _, name := range Triggered(row) {
			sum.Triggered[name]++
		}
	}

	zap.L().Info("rules applied",
		zap.String("component", "rules"),
		zap.Int("rows", sum.Rows),
		zap.Int("hard_issues", sum.HardIssues),
		zap.Int("warnings", sum.Warnings),
		zap.Int("issues", sum.Issues),
		zap.Int("undefined_age", sum.UndefinedAge),
	)
	return sum
}

func (e *Engine) evaluate(row *model.FactRow) {
	row.AgeDays = AgeDays(&row.Matched)
	s := &subject{
		row:       row,
		status:    taxonomy.Normalize(row.StatusA),
		substatus: taxonomy.Normalize(row.SubstatusA),
		age:       row.AgeDays,
	}

	var hard, warn bool
	for _, r := range registry {
		flag := r.Flag(row)
		if r.eval != nil {
			*flag = model.TriOf(r.eval(e, s))
		}
		if !flag.True() {
			continue
		}
		switch r.Severity {
		case Hard:
			hard = true
		case Warn:
			warn = true
		}
	}

	warning := row.OneSided() || (row.InBoth() && warn)
	row.HardIssue = model.TriOf(hard)
	row.Warning = model.TriOf(warning)
	row.HasIssue = model.TriOf(hard || warning)
}

// AgeDays is the time from the latest known update (A's, else B's) to the
// start of the snapshot date, in days. It is undefined when neither side has
// an update timestamp or the snapshot date does not parse.
func AgeDays(m *model.Matched) model.Age {
	updated := m.UpdatedAtA
	if !updated.Valid {
		updated = m.UpdatedAtB
	}
	if !updated.Valid {
		return model.Age{}
	}
	snap, err := time.ParseInLocation(time.DateOnly, m.SnapshotDate, time.UTC)
	if err != nil {
		return model.Age{}
	}
	return model.AgeOf(snap.Sub(updated.Time).Seconds() / 86400)
}
