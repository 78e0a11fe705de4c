package db

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-compressor/internal/control"
	"github.com/jonathan/resume-compressor/internal/planning"
	"github.com/jonathan/resume-compressor/internal/types"
)

type fakeStore struct {
	started    []uuid.UUID
	iterations []Iteration
	completed  []Run
	err        error
}

func (f *fakeStore) StartRun(_ context.Context, id uuid.UUID, _ string) error {
	f.started = append(f.started, id)
	return f.err
}

func (f *fakeStore) SaveIteration(_ context.Context, _ uuid.UUID, it Iteration) error {
	f.iterations = append(f.iterations, it)
	return f.err
}

func (f *fakeStore) CompleteRun(_ context.Context, run Run) error {
	f.completed = append(f.completed, run)
	return f.err
}

func TestRecorder_RecordsIterationsAndRun(t *testing.T) {
	store := &fakeStore{}
	r := NewRecorder(store, nil)
	ctx := context.Background()
	id := uuid.New()

	s := control.State{RunID: id.String(), Role: "SRE", Iteration: 1, Pressure: 0.6, Level: planning.LevelReduceBullets}
	r.ObserveEvaluation(ctx, s, types.Evaluation{RawScore: 90, AdjustedScore: 84, PageCount: 2, PagePenalty: -6, ReviewSource: "llm"})
	s.Iteration = 2
	r.ObserveEvaluation(ctx, s, types.Evaluation{RawScore: 91, AdjustedScore: 91, PageCount: 1, Passed: true, ReviewSource: "llm"})

	require.Len(t, store.started, 1, "run row is created once")
	assert.Equal(t, id, store.started[0])
	require.Len(t, store.iterations, 2)
	assert.Equal(t, Iteration{Iteration: 1, RawScore: 90, AdjustedScore: 84, PageCount: 2, Pressure: 0.6, EscalationLevel: 1, ReviewSource: "llm"}, store.iterations[0])
	assert.True(t, store.iterations[1].Passed)

	s.Status = control.StatusComplete
	s.Tier = planning.TierMedium
	s.Evaluation = &types.Evaluation{AdjustedScore: 91, PageCount: 1}
	r.ObserveRun(ctx, s)

	require.Len(t, store.completed, 1)
	run := store.completed[0]
	assert.Equal(t, "complete", run.Status)
	assert.Equal(t, 91, run.FinalScore)
	assert.Equal(t, 1, run.PageCount)
	assert.Equal(t, 2, run.Iterations)
	assert.Equal(t, "medium", run.Tier)
	assert.Nil(t, run.ErrorMessage)
}

func TestRecorder_SkipsNonUUIDRuns(t *testing.T) {
	store := &fakeStore{}
	r := NewRecorder(store, nil)

	r.ObserveEvaluation(context.Background(), control.State{RunID: "run-1", Iteration: 1}, types.Evaluation{})
	r.ObserveRun(context.Background(), control.State{RunID: "run-1"})

	assert.Empty(t, store.started)
	assert.Empty(t, store.completed)
}

func TestRecorder_StoreErrorsAreAbsorbed(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	r := NewRecorder(store, nil)
	s := control.State{RunID: uuid.NewString(), Iteration: 1}

	assert.NotPanics(t, func() {
		r.ObserveEvaluation(context.Background(), s, types.Evaluation{})
		r.ObserveRun(context.Background(), s)
	})
	assert.Empty(t, store.iterations, "iteration is skipped when the run row could not be created")
}

func TestRunFromState_Error(t *testing.T) {
	run := RunFromState(uuid.New(), control.State{Status: control.StatusError, Error: "input error: no resume data to compress"})
	require.NotNil(t, run.ErrorMessage)
	assert.Equal(t, "input error: no resume data to compress", *run.ErrorMessage)
	assert.Equal(t, 0, run.FinalScore)
}
