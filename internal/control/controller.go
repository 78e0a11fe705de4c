package control

import (
	"context"
	"errors"

	"github.com/jonathan/resume-compressor/internal/compress"
	"github.com/jonathan/resume-compressor/internal/planning"
	"github.com/jonathan/resume-compressor/internal/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "resume-compressor/control"

// Renderer turns resume data into document source under a directive
type Renderer interface {
	Render(data types.ResumeData, directive planning.Directive) (string, error)
}

// Compiler compiles document source and returns the artifact path
type Compiler interface {
	Compile(ctx context.Context, source string) (artifactPath string, err error)
}

// ArtifactDiscarder is implemented by compilers that can delete an artifact
// they produced. The controller discards artifacts that can no longer be
// returned or rolled back to.
type ArtifactDiscarder interface {
	Discard(artifactPath string) error
}

// PageCounter inspects a compiled artifact
type PageCounter interface {
	CountPages(ctx context.Context, artifactPath string) (int, error)
}

// Reviewer scores a rendered document. It may fail; the fallback scorer
// takes over when it does.
type Reviewer interface {
	Review(ctx context.Context, source, role string, pageCount int, pressure float64) (types.Review, error)
}

// Scorer is the infallible rule-based fallback reviewer
type Scorer interface {
	Score(data types.ResumeData, source, role string) types.Review
}

// Observer is notified after every evaluation and once per finished run
type Observer interface {
	ObserveEvaluation(ctx context.Context, s State, e types.Evaluation)
	ObserveRun(ctx context.Context, s State)
}

// Dependencies are the collaborators a Controller drives. Renderer, Compiler
// and Fallback are required.
type Dependencies struct {
	Renderer    Renderer
	Compiler    Compiler
	PageCounter PageCounter
	Reviewer    Reviewer
	Fallback    Scorer
	Compressor  *compress.Compressor
	Planner     *planning.Planner
	Tiers       planning.TierTable
	Pressure    planning.PressureConfig
	Observers   []Observer
	Logger      *zap.Logger
	Tracer      trace.Tracer
}

// Controller runs the compression loop. It holds no per-run state and may
// serve concurrent runs.
type Controller struct {
	policy   Policy
	deps     Dependencies
	logger   *zap.Logger
	tracer   trace.Tracer
	observer []Observer
}

// New creates a Controller
func New(policy Policy, deps Dependencies) (*Controller, error) {
	if deps.Renderer == nil {
		return nil, errors.New("control: renderer is required")
	}
	if deps.Compiler == nil {
		return nil, errors.New("control: compiler is required")
	}
	if deps.Fallback == nil {
		return nil, errors.New("control: fallback scorer is required")
	}
	if deps.Compressor == nil {
		deps.Compressor = compress.New(nil, nil, deps.Logger)
	}
	if deps.Planner == nil {
		deps.Planner = planning.NewPlanner(nil, nil)
	}
	if deps.Tiers.Limits == nil {
		deps.Tiers = planning.DefaultTierTable()
	}
	if deps.Pressure == (planning.PressureConfig{}) {
		deps.Pressure = planning.DefaultPressureConfig()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &Controller{
		policy:   policy.withDefaults(),
		deps:     deps,
		logger:   logger,
		tracer:   tracer,
		observer: deps.Observers,
	}, nil
}

// Policy returns the active policy
func (c *Controller) Policy() Policy {
	return c.policy
}

// ShouldContinue decides whether s warrants another iteration
func (c *Controller) ShouldContinue(s State) bool {
	return c.policy.ShouldContinue(s)
}

// Start builds the initial state for data
func (c *Controller) Start(runID string, data types.ResumeData, role string) State {
	s := NewState(runID, data, role, c.policy.MaxIterations, c.deps.Pressure.Initial, c.deps.Planner.Estimator().TargetTotalLines())
	s.EstimatedLines = c.deps.Planner.Estimator().Estimate(s.Data).Total
	return s
}

// Run drives one resume through the loop and returns the final state.
// Recoverable failures are absorbed; fatal ones end up in State.Error.
func (c *Controller) Run(ctx context.Context, runID string, data types.ResumeData, role string) State {
	ctx, span := c.tracer.Start(ctx, "run", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.String("role", role),
	))
	defer span.End()

	s := c.Start(runID, data, role)
	log := c.logger.With(zap.String("run_id", runID))

	if data.IsEmpty() {
		s = fail(s, &InputError{Message: "no resume data to compress"})
		span.SetStatus(codes.Error, s.Error)
		log.Error("run aborted", zap.String("error", s.Error))
		c.finish(ctx, s)
		return s
	}

	s = c.optimize(ctx, s)
	for {
		if err := ctx.Err(); err != nil {
			s = fail(s, &StageError{Stage: s.Status, Message: "run cancelled", Cause: err})
			break
		}
		s = c.generate(ctx, s)
		if s.Status == StatusError {
			break
		}
		s = c.compile(ctx, s)
		if s.Status == StatusError {
			break
		}
		s = c.Evaluate(ctx, s)
		if !c.ShouldContinue(s) {
			break
		}
		s = c.prepareNext(ctx, s)
	}

	if s.Checkpoint != nil && s.Checkpoint.ArtifactPath != s.ArtifactPath {
		// no rollback is possible once the loop has stopped
		cp := *s.Checkpoint
		cp.ArtifactPath = ""
		stale := s.Checkpoint.ArtifactPath
		s.Checkpoint = &cp
		c.discard(s, stale)
	}

	if s.Status != StatusError && s.Status != StatusComplete {
		if c.policy.Stagnated(s.ScoreHistory) {
			s.Issues = append(s.Issues, "Stopped: score did not improve over the last iterations")
		}
		s.Status = StatusComplete
	}

	span.SetAttributes(
		attribute.String("status", string(s.Status)),
		attribute.Int("iterations", s.Iteration),
		attribute.Int("final_score", s.FinalScore()),
		attribute.Int("pages", s.PageCount()),
	)
	if s.Status == StatusError {
		span.SetStatus(codes.Error, s.Error)
	}
	log.Info("run finished",
		zap.String("status", string(s.Status)),
		zap.Int("iterations", s.Iteration),
		zap.Int("score", s.FinalScore()),
		zap.Int("pages", s.PageCount()),
		zap.Float64("pressure", s.Pressure),
		zap.String("level", s.Level.String()))
	c.finish(ctx, s)
	return s
}

func (c *Controller) finish(ctx context.Context, s State) {
	for _, o := range c.observer {
		o.ObserveRun(ctx, s)
	}
}

// directive combines the state's pressure tier and escalation level
func (c *Controller) directive(s State) planning.Directive {
	return planning.NewDirective(s.Pressure, s.Level, c.deps.Tiers).WithFeedback(s.Feedback)
}

// optimize applies the initial tier compression before the first render
func (c *Controller) optimize(ctx context.Context, s State) State {
	ctx, span := c.tracer.Start(ctx, "compress", trace.WithAttributes(
		attribute.Float64("pressure", s.Pressure),
		attribute.String("level", s.Level.String()),
	))
	defer span.End()

	s = s.Clone()
	s.Status = StatusOptimizing
	d := c.directive(s)
	data, report := c.deps.Compressor.CompressForTier(ctx, s.Data, d, s.Role)
	s.Data = data
	s.Tier = d.Tier
	s.CompressionAttempts++
	s.Issues = append(s.Issues, report.Issues...)
	s.EstimatedLines = c.deps.Planner.Estimator().Estimate(s.Data).Total
	s.Status = StatusGenerating
	return s
}

func (c *Controller) generate(ctx context.Context, s State) State {
	_, span := c.tracer.Start(ctx, "render", trace.WithAttributes(
		attribute.Int("iteration", s.Iteration+1),
		attribute.String("tier", s.Tier.String()),
	))
	defer span.End()

	s = s.Clone()
	s.Status = StatusGenerating
	source, err := c.deps.Renderer.Render(s.Data, c.directive(s))
	if err != nil {
		span.RecordError(err)
		return fail(s, &StageError{Stage: StatusGenerating, Message: "failed to render document", Cause: err})
	}
	s.Source = source
	s.Status = StatusCompiling
	return s
}

func (c *Controller) compile(ctx context.Context, s State) State {
	ctx, span := c.tracer.Start(ctx, "compile")
	defer span.End()

	s = s.Clone()
	s.Status = StatusCompiling
	path, err := c.deps.Compiler.Compile(ctx, s.Source)
	if err != nil {
		span.RecordError(err)
		c.logger.Error("compilation failed, keeping generated source",
			zap.String("run_id", s.RunID), zap.Int("iteration", s.Iteration+1), zap.Error(err))
		return fail(s, &StageError{Stage: StatusCompiling, Message: "failed to compile document", Cause: err})
	}
	s.ArtifactPath = path
	s.Status = StatusEvaluating
	return s
}

// prepareNext saves a checkpoint and compresses according to the status the
// evaluation left behind
func (c *Controller) prepareNext(ctx context.Context, s State) State {
	ctx, span := c.tracer.Start(ctx, "compress", trace.WithAttributes(
		attribute.Float64("pressure", s.Pressure),
		attribute.String("level", s.Level.String()),
		attribute.String("status", string(s.Status)),
	))
	defer span.End()

	s = s.Clone()
	var superseded string
	if s.Checkpoint != nil {
		superseded = s.Checkpoint.ArtifactPath
	}
	s.Checkpoint = &Checkpoint{
		Data:         s.Data.Clone(),
		Source:       s.Source,
		ArtifactPath: s.ArtifactPath,
		Score:        s.FinalScore(),
	}
	c.discard(s, superseded)

	data := s.Data
	if s.Status == StatusNeedsRegeneration {
		plan := c.deps.Planner.ReductionPlan(data, s.Level)
		if !plan.Empty() {
			var report compress.Report
			data, report = c.deps.Compressor.ApplyPlan(ctx, data, plan)
			s.Feedback = append(s.Feedback, report.Hints...)
			c.logger.Info("structural plan applied",
				zap.String("run_id", s.RunID),
				zap.String("level", s.Level.String()),
				zap.Int("overflow_lines", plan.OverflowLines),
				zap.Int("actions", len(plan.Actions)))
		}
	}

	d := c.directive(s)
	data, report := c.deps.Compressor.CompressForTier(ctx, data, d, s.Role)

	s.Data = data
	s.Tier = d.Tier
	s.CompressionAttempts++
	s.Issues = append(s.Issues, report.Issues...)
	s.EstimatedLines = c.deps.Planner.Estimator().Estimate(s.Data).Total
	s.Feedback = nil
	s.Status = StatusGenerating
	return s
}

// discard deletes path unless s still references it as its artifact or
// its checkpoint's
func (c *Controller) discard(s State, path string) {
	if path == "" || path == s.ArtifactPath || (s.Checkpoint != nil && path == s.Checkpoint.ArtifactPath) {
		return
	}
	d, ok := c.deps.Compiler.(ArtifactDiscarder)
	if !ok {
		return
	}
	if err := d.Discard(path); err != nil {
		c.logger.Warn("failed to discard artifact",
			zap.String("run_id", s.RunID), zap.String("artifact", path), zap.Error(err))
	}
}

func fail(s State, err error) State {
	s.Status = StatusError
	s.Error = err.Error()
	return s
}
