// Package pipeline runs the daily stages in their fixed order: ingest, match,
// rules, aggregate.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Options control a pipeline or single-stage run.
type Options struct {
	// Force reruns stages whose output already exists.
	Force bool
	// Dates restricts matching to the given snapshot dates and merges the
	// result into the existing fact table.
	Dates []string
}

// Outcome is what a stage reports back to the runner.
type Outcome struct {
	Skipped  bool
	Metadata map[string]any
}

// Stage is one step of the pipeline.
type Stage interface {
	Name() string
	Run(ctx context.Context, opts Options) (Outcome, error)
}

// PhaseStatus is the final state of a stage within a run.
type PhaseStatus string

const (
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// PhaseResult holds the outcome of a stage.
type PhaseResult struct {
	Name     string         `json:"name"`
	Status   PhaseStatus    `json:"status"`
	Duration int64          `json:"duration_ms"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// RunResult is the record of one pipeline run.
type RunResult struct {
	RunID  string        `json:"run_id"`
	Phases []PhaseResult `json:"phases"`
}

// Runner executes stages in order.
type Runner struct {
	stages []Stage
}

// NewRunner returns a runner over stages, which run in the given order.
func NewRunner(stages ...Stage) *Runner {
	return &Runner{stages: stages}
}

// Run executes every stage and stops at the first failure, so later stages
// never run on stale artifacts. The returned error names the failing stage.
func (r *Runner) Run(ctx context.Context, opts Options) (*RunResult, error) {
	res := &RunResult{RunID: uuid.New().String()}
	log := zap.L().With(zap.String("run_id", res.RunID))
	log.Info("pipeline: starting run", zap.Int("stages", len(r.stages)), zap.Bool("force", opts.Force))

	for _, st := range r.stages {
		if err := ctx.Err(); err != nil {
			return res, eris.Wrap(err, "pipeline: cancelled")
		}

		start := time.Now()
		out, err := st.Run(ctx, opts)
		phase := PhaseResult{
			Name:     st.Name(),
			Duration: time.Since(start).Milliseconds(),
			Metadata: out.Metadata,
		}

		switch {
		case err != nil:
			phase.Status = PhaseStatusFailed
			phase.Error = err.Error()
			res.Phases = append(res.Phases, phase)
			log.Error("pipeline: stage failed",
				zap.String("stage", phase.Name),
				zap.Int64("duration_ms", phase.Duration),
				zap.Error(err),
			)
			return res, eris.Wrapf(err, "pipeline: stage %s failed", phase.Name)
		case out.Skipped:
			phase.Status = PhaseStatusSkipped
			log.Info("pipeline: stage skipped, output up to date", zap.String("stage", phase.Name))
		default:
			phase.Status = PhaseStatusComplete
			log.Info("pipeline: stage complete",
				zap.String("stage", phase.Name),
				zap.Int64("duration_ms", phase.Duration),
			)
		}
		res.Phases = append(res.Phases, phase)
	}

	log.Info("pipeline: run finished")
	return res, nil
}
