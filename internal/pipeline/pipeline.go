// Package pipeline wires configuration into a compression controller and
// runs single resumes or batches of them.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-compressor/internal/cache"
	"github.com/jonathan/resume-compressor/internal/compress"
	"github.com/jonathan/resume-compressor/internal/config"
	"github.com/jonathan/resume-compressor/internal/control"
	"github.com/jonathan/resume-compressor/internal/db"
	"github.com/jonathan/resume-compressor/internal/estimate"
	"github.com/jonathan/resume-compressor/internal/llm"
	"github.com/jonathan/resume-compressor/internal/metrics"
	"github.com/jonathan/resume-compressor/internal/planning"
	"github.com/jonathan/resume-compressor/internal/quality"
	"github.com/jonathan/resume-compressor/internal/rendering"
	"github.com/jonathan/resume-compressor/internal/review"
	"github.com/jonathan/resume-compressor/internal/types"
	"github.com/jonathan/resume-compressor/internal/validation"
)

// ProgressEvent represents a progress update during a run
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when run progress occurs. Batches call it from
// several goroutines.
type ProgressCallback func(event ProgressEvent)

// Options configures New. Config is required; the collaborator overrides
// replace the pdflatex, pdfinfo and Gemini defaults.
type Options struct {
	Config *config.Config
	Logger *zap.Logger
	// NoLLM uses the rule-based reviewer and skips bullet rewriting
	NoLLM        bool
	TemplatePath string
	Metrics      *metrics.Metrics
	OnProgress   ProgressCallback

	Client      llm.Client
	Renderer    control.Renderer
	Compiler    control.Compiler
	PageCounter control.PageCounter
}

// Input is one resume to compress
type Input struct {
	// Name labels the input in batch results, usually the file path
	Name string
	Data types.ResumeData
	Role string
	// OutDir receives resume.tex, resume.pdf and report.json; empty skips writing
	OutDir string
	// OnProgress receives this run's events in addition to Options.OnProgress
	OnProgress ProgressCallback
}

// Result is the outcome of one run
type Result struct {
	Name  string        `json:"name,omitempty"`
	RunID string        `json:"run_id"`
	State control.State `json:"state"`
	Files []string      `json:"files,omitempty"`
}

// Pipeline owns the long-lived collaborators shared by every run
type Pipeline struct {
	cfg        *config.Config
	logger     *zap.Logger
	controller *control.Controller
	compiler   control.Compiler
	planner    *planning.Planner
	assessor   *quality.Assessor
	client     llm.Client
	redis      *cache.RedisCache
	database   *db.DB
	workDir    string
	onProgress ProgressCallback
	listeners  sync.Map // run id -> ProgressCallback
}

// New builds a Pipeline. Redis and PostgreSQL are optional: when configured
// but unreachable, a warning is logged and the run continues without them.
func New(ctx context.Context, opts Options) (*Pipeline, error) {
	if opts.Config == nil {
		return nil, errors.New("pipeline: config is required")
	}
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{cfg: cfg, logger: logger, onProgress: opts.OnProgress}

	estimator := estimate.New(EstimatorConfig(cfg.Estimator))
	p.planner = planning.NewPlanner(estimator, planning.DefaultEscalationTable())
	p.assessor = quality.NewAssessor(quality.DefaultRules())

	deps := control.Dependencies{
		Renderer:    opts.Renderer,
		Compiler:    opts.Compiler,
		PageCounter: opts.PageCounter,
		Fallback:    review.NewScorer(review.DefaultConfig(), p.assessor),
		Planner:     p.planner,
		Tiers:       planning.DefaultTierTable(),
		Pressure:    PressureConfig(cfg.Control),
		Logger:      logger,
	}

	if deps.Renderer == nil {
		r, err := newRenderer(opts.TemplatePath)
		if err != nil {
			return nil, err
		}
		deps.Renderer = r
	}
	if deps.Compiler == nil {
		cc := CompilerConfig(cfg.Compile)
		if cc.WorkDir == "" {
			dir, err := os.MkdirTemp("", "resume-compressor-*")
			if err != nil {
				return nil, fmt.Errorf("failed to create work directory: %w", err)
			}
			p.workDir = dir
			cc.WorkDir = dir
		}
		deps.Compiler = validation.NewCompiler(cc, logger)
	}
	if deps.PageCounter == nil {
		deps.PageCounter = validation.NewPageCounter()
	}

	var rewriter compress.Rewriter
	if !opts.NoLLM {
		client, err := p.modelClient(ctx, opts.Client)
		if err != nil {
			p.Close()
			return nil, err
		}
		if client != nil {
			p.client = client
			deps.Reviewer = llm.NewReviewer(client, logger)
			rewriter = p.cachedRewriter(ctx, llm.NewRewriter(client, logger))
		}
	}
	deps.Compressor = compress.New(p.assessor, rewriter, logger)

	if opts.Metrics != nil {
		deps.Observers = append(deps.Observers, opts.Metrics)
	}
	if store := p.connectDatabase(ctx); store != nil {
		deps.Observers = append(deps.Observers, db.NewRecorder(store, logger))
	}
	deps.Observers = append(deps.Observers, progressObserver{emit: p.emit})

	controller, err := control.New(Policy(cfg.Control), deps)
	if err != nil {
		p.Close()
		return nil, err
	}
	p.controller = controller
	p.compiler = deps.Compiler
	return p, nil
}

func newRenderer(templatePath string) (*rendering.Renderer, error) {
	if templatePath != "" {
		return rendering.NewRendererFromFile(templatePath)
	}
	return rendering.NewRenderer()
}

// modelClient returns override, a guarded Gemini client, or nil when no API
// key is configured
func (p *Pipeline) modelClient(ctx context.Context, override llm.Client) (llm.Client, error) {
	if override != nil {
		return override, nil
	}
	if p.cfg.LLM.APIKey == "" {
		p.logger.Info("no model API key configured; using rule-based review without rewriting")
		return nil, nil
	}
	return llm.NewClient(ctx, LLMConfig(p.cfg.LLM), p.cfg.LLM.APIKey, p.logger)
}

func (p *Pipeline) cachedRewriter(ctx context.Context, next compress.Rewriter) compress.Rewriter {
	if p.cfg.Cache.RedisURL == "" {
		return next
	}
	rc, err := cache.NewRedis(p.cfg.Cache.RedisURL)
	if err == nil {
		err = rc.Ping(ctx)
		if err != nil {
			_ = rc.Close()
		}
	}
	if err != nil {
		p.logger.Warn("rewrite cache unavailable; continuing without it", zap.Error(err))
		return next
	}
	p.redis = rc
	return cache.NewRewriter(next, rc, p.cfg.Cache.TTL, p.logger)
}

func (p *Pipeline) connectDatabase(ctx context.Context) db.RunStore {
	if p.cfg.Database.URL == "" {
		return nil
	}
	database, err := db.Connect(ctx, p.cfg.Database.URL)
	if err != nil {
		p.logger.Warn("run history unavailable; continuing without it", zap.Error(err))
		return nil
	}
	if err := database.EnsureSchema(ctx); err != nil {
		p.logger.Warn("run history schema setup failed; continuing without it", zap.Error(err))
		database.Close()
		return nil
	}
	p.database = database
	return database
}

// Database returns the run history database, or nil when not configured
func (p *Pipeline) Database() *db.DB {
	return p.database
}

// Planner returns the planner built from the estimator configuration
func (p *Pipeline) Planner() *planning.Planner {
	return p.planner
}

// Assessor returns the bullet quality assessor
func (p *Pipeline) Assessor() *quality.Assessor {
	return p.assessor
}

// Extractor returns a model-backed resume extractor, or nil without a model
func (p *Pipeline) Extractor() *llm.ResumeExtractor {
	if p.client == nil {
		return nil
	}
	return llm.NewResumeExtractor(p.client, p.logger)
}

// Close releases the model client, cache, database and work directory
func (p *Pipeline) Close() {
	if p.client != nil {
		if err := p.client.Close(); err != nil {
			p.logger.Warn("failed to close model client", zap.Error(err))
		}
	}
	if p.redis != nil {
		if err := p.redis.Close(); err != nil {
			p.logger.Warn("failed to close rewrite cache", zap.Error(err))
		}
	}
	if p.database != nil {
		p.database.Close()
	}
	if p.workDir != "" {
		_ = os.RemoveAll(p.workDir)
	}
}

// Run compresses one resume. A failed run is reported through
// Result.State.Error; the returned error covers writing the artifacts only.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	runID := uuid.NewString()
	if in.OnProgress != nil {
		p.listeners.Store(runID, in.OnProgress)
		defer p.listeners.Delete(runID)
	}
	p.emit(ProgressEvent{
		Step:     "start",
		Category: "run",
		Message:  fmt.Sprintf("Compressing resume for %s", roleOrDefault(in.Role)),
		RunID:    runID,
	})

	s := p.controller.Run(ctx, runID, in.Data, roleOrDefault(in.Role))
	result := &Result{Name: in.Name, RunID: runID, State: s}
	if in.OutDir == "" {
		p.releaseArtifact(result, "")
		return result, nil
	}

	files, err := WriteArtifacts(in.OutDir, s)
	result.Files = files
	kept := ""
	if pdf := filepath.Join(in.OutDir, PDFFile); slices.Contains(files, pdf) {
		kept = pdf
	}
	p.releaseArtifact(result, kept)
	if err != nil {
		return result, err
	}
	p.emit(ProgressEvent{
		Step:     "artifacts",
		Category: "output",
		Message:  fmt.Sprintf("Wrote %d files to %s", len(files), in.OutDir),
		RunID:    runID,
		Content:  files,
	})
	return result, nil
}

// releaseArtifact points the result at kept (the copied PDF, or nothing)
// and deletes the compiler's working copy, which no caller can reach after
// the run.
func (p *Pipeline) releaseArtifact(res *Result, kept string) {
	compiled := res.State.ArtifactPath
	res.State.ArtifactPath = kept
	if compiled == "" || compiled == kept {
		return
	}
	d, ok := p.compiler.(control.ArtifactDiscarder)
	if !ok {
		return
	}
	if err := d.Discard(compiled); err != nil {
		p.logger.Warn("failed to discard compiled artifact",
			zap.String("run_id", res.RunID), zap.String("artifact", compiled), zap.Error(err))
	}
}

// RunBatch compresses independent resumes with at most concurrency runs in
// flight. Results keep the order of inputs. A run that fails still yields a
// result; the first artifact write error is returned after all runs finish.
func (p *Pipeline) RunBatch(ctx context.Context, inputs []Input, concurrency int) ([]Result, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]Result, len(inputs))

	var (
		mu       sync.Mutex
		firstErr error
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, in := range inputs {
		g.Go(func() error {
			res, err := p.Run(gCtx, in)
			if res != nil {
				results[i] = *res
			}
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("%s: %w", in.Name, err)
				}
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, firstErr
}

func (p *Pipeline) emit(event ProgressEvent) {
	if p.onProgress != nil {
		p.onProgress(event)
	}
	if fn, ok := p.listeners.Load(event.RunID); ok {
		fn.(ProgressCallback)(event)
	}
}

func roleOrDefault(role string) string {
	if role == "" {
		return llm.DefaultRole
	}
	return role
}

// progressObserver turns control loop notifications into progress events
type progressObserver struct {
	emit ProgressCallback
}

func (o progressObserver) ObserveEvaluation(_ context.Context, s control.State, e types.Evaluation) {
	o.emit(ProgressEvent{
		Step:     "evaluate",
		Category: "evaluation",
		Message: fmt.Sprintf("Iteration %d: score %d on %d page(s), pressure %.2f (%s)",
			s.Iteration, e.AdjustedScore, e.PageCount, s.Pressure, s.Tier),
		RunID:   s.RunID,
		Content: e,
	})
}

func (o progressObserver) ObserveRun(_ context.Context, s control.State) {
	msg := fmt.Sprintf("Finished after %d iteration(s) with score %d", s.Iteration, s.FinalScore())
	if s.Error != "" {
		msg = "Run failed: " + s.Error
	}
	o.emit(ProgressEvent{
		Step:     "complete",
		Category: "run",
		Message:  msg,
		RunID:    s.RunID,
	})
}
