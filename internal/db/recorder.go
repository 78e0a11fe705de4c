package db

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/resume-compressor/internal/control"
	"github.com/jonathan/resume-compressor/internal/types"
)

// RunStore is the write side of DB used by Recorder
type RunStore interface {
	StartRun(ctx context.Context, id uuid.UUID, role string) error
	SaveIteration(ctx context.Context, runID uuid.UUID, it Iteration) error
	CompleteRun(ctx context.Context, run Run) error
}

// Recorder writes control loop progress to a RunStore. History is best
// effort: write failures are logged and never stop a run.
type Recorder struct {
	store  RunStore
	logger *zap.Logger
}

var _ control.Observer = (*Recorder)(nil)

// NewRecorder creates a Recorder
func NewRecorder(store RunStore, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{store: store, logger: logger}
}

// ObserveEvaluation stores the iteration, creating the run row on first use
func (r *Recorder) ObserveEvaluation(ctx context.Context, s control.State, e types.Evaluation) {
	id, ok := r.runID(s)
	if !ok {
		return
	}
	if s.Iteration <= 1 {
		if err := r.store.StartRun(ctx, id, s.Role); err != nil {
			r.logger.Warn("run history write failed", zap.String("run_id", s.RunID), zap.Error(err))
			return
		}
	}
	err := r.store.SaveIteration(ctx, id, Iteration{
		Iteration:       s.Iteration,
		RawScore:        e.RawScore,
		AdjustedScore:   e.AdjustedScore,
		PageCount:       e.PageCount,
		Pressure:        s.Pressure,
		EscalationLevel: int(s.Level),
		Passed:          e.Passed,
		RolledBack:      e.RolledBack,
		ReviewSource:    e.ReviewSource,
	})
	if err != nil {
		r.logger.Warn("run history write failed", zap.String("run_id", s.RunID), zap.Error(err))
	}
}

// ObserveRun stores the final outcome
func (r *Recorder) ObserveRun(ctx context.Context, s control.State) {
	id, ok := r.runID(s)
	if !ok {
		return
	}
	if err := r.store.CompleteRun(ctx, RunFromState(id, s)); err != nil {
		r.logger.Warn("run history write failed", zap.String("run_id", s.RunID), zap.Error(err))
	}
}

func (r *Recorder) runID(s control.State) (uuid.UUID, bool) {
	id, err := uuid.Parse(s.RunID)
	if err != nil {
		r.logger.Warn("run id is not a UUID; skipping history", zap.String("run_id", s.RunID))
		return uuid.Nil, false
	}
	return id, true
}

// RunFromState summarizes a finished state as a history row
func RunFromState(id uuid.UUID, s control.State) Run {
	run := Run{
		ID:              id,
		Role:            s.Role,
		Status:          string(s.Status),
		Iterations:      s.Iteration,
		Pressure:        s.Pressure,
		Tier:            s.Tier.String(),
		EscalationLevel: int(s.Level),
	}
	if s.Evaluation != nil {
		run.FinalScore = s.Evaluation.AdjustedScore
		run.PageCount = s.Evaluation.PageCount
	}
	if s.Error != "" {
		msg := s.Error
		run.ErrorMessage = &msg
	}
	return run
}
