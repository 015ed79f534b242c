package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/couponcheck/internal/match"
	"github.com/nao1215/couponcheck/internal/model"
)

// Run is the state shared by the steps of one reconciliation.
type Run struct {
	// Report accumulates the outcome of the run.
	Report *model.RunReport

	// Database is the reference collection, set by DatabaseStep.
	Database model.Collection

	// Index is Database prepared for matching, set by DatabaseStep.
	Index *match.Index
}

// NewRun creates an empty run with a fresh report.
func NewRun() *Run {
	return &Run{
		Report:   model.NewRunReport(),
		Database: make(model.Collection, 0),
	}
}

// Step is one phase of a run.
type Step interface {
	// Do executes the step. Item-level failures are recorded in run.Report;
	// a returned error aborts the run.
	Do(ctx context.Context, run *Run) error

	// Name returns the step's name for logging.
	Name() string
}

// Pipeline executes steps in order.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a Pipeline running steps in the given order.
func New(steps []Step, opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: append([]Step(nil), steps...),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// Execute runs every step in order and stops at the first error or when
// ctx is cancelled between steps. The run's duration is stamped either way.
func (p *Pipeline) Execute(ctx context.Context, run *Run) error {
	defer run.Report.Finish()

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("run cancelled", "step", step.Name(), "reason", err)
			return err
		}

		p.logger.Debug("executing step", "step", step.Name())
		start := time.Now()

		if err := step.Do(ctx, run); err != nil {
			p.logger.Error("step failed", "step", step.Name(), "error", err)
			return err
		}

		p.logger.Debug("step completed", "step", step.Name(), "elapsed", time.Since(start))
	}
	return nil
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
