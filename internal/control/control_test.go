package control

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jonathan/resume-compressor/internal/planning"
	"github.com/jonathan/resume-compressor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scoresFor spreads total across the five dimensions without exceeding caps
func scoresFor(total int) types.Scores {
	take := func(limit int) int {
		n := total
		if n > limit {
			n = limit
		}
		total -= n
		return n
	}
	return types.Scores{
		RoleAlignment:     take(types.MaxRoleAlignment),
		ClarityImpact:     take(types.MaxClarityImpact),
		ATSOptimization:   take(types.MaxATSOptimization),
		FormattingDensity: take(types.MaxFormattingDensity),
		GrammarSafety:     take(types.MaxGrammarSafety),
	}
}

type fakeRenderer struct {
	calls int
	err   error
}

func (f *fakeRenderer) Render(data types.ResumeData, d planning.Directive) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("source-%d tier=%s", f.calls, d.Tier), nil
}

type fakeCompiler struct {
	calls     int
	err       error
	discarded []string
}

func (f *fakeCompiler) Compile(_ context.Context, source string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("/tmp/artifact-%d.pdf", f.calls), nil
}

func (f *fakeCompiler) Discard(path string) error {
	f.discarded = append(f.discarded, path)
	return nil
}

type fakeCounter struct {
	pages []int
	calls int
	err   error
}

func (f *fakeCounter) CountPages(_ context.Context, _ string) (int, error) {
	defer func() { f.calls++ }()
	if f.err != nil {
		return 0, f.err
	}
	if f.calls >= len(f.pages) {
		return f.pages[len(f.pages)-1], nil
	}
	return f.pages[f.calls], nil
}

type fakeReviewer struct {
	totals    []int
	justified bool
	calls     int
	err       error
}

func (f *fakeReviewer) Review(_ context.Context, _, _ string, _ int, _ float64) (types.Review, error) {
	defer func() { f.calls++ }()
	if f.err != nil {
		return types.Review{}, f.err
	}
	total := f.totals[len(f.totals)-1]
	if f.calls < len(f.totals) {
		total = f.totals[f.calls]
	}
	return types.Review{
		Scores:            scoresFor(total),
		Suggestions:       []string{"Quantify more bullets"},
		NeedsImprovement:  total < 90,
		TwoPagesJustified: f.justified,
		Source:            "llm",
	}, nil
}

type fixedScorer struct {
	total int
	calls int
}

func (f *fixedScorer) Score(types.ResumeData, string, string) types.Review {
	f.calls++
	return types.Review{Scores: scoresFor(f.total)}
}

type countingObserver struct {
	evaluations int
	runs        int
}

func (o *countingObserver) ObserveEvaluation(context.Context, State, types.Evaluation) {
	o.evaluations++
}

func (o *countingObserver) ObserveRun(context.Context, State) {
	o.runs++
}

type harness struct {
	renderer *fakeRenderer
	compiler *fakeCompiler
	counter  *fakeCounter
	reviewer *fakeReviewer
	fallback *fixedScorer
	observer *countingObserver
}

func newHarness(pages, totals []int) *harness {
	return &harness{
		renderer: &fakeRenderer{},
		compiler: &fakeCompiler{},
		counter:  &fakeCounter{pages: pages},
		reviewer: &fakeReviewer{totals: totals},
		fallback: &fixedScorer{total: 70},
		observer: &countingObserver{},
	}
}

func (h *harness) controller(t *testing.T, policy Policy) *Controller {
	t.Helper()
	c, err := New(policy, Dependencies{
		Renderer:    h.renderer,
		Compiler:    h.compiler,
		PageCounter: h.counter,
		Reviewer:    h.reviewer,
		Fallback:    h.fallback,
		Observers:   []Observer{h.observer},
	})
	require.NoError(t, err)
	return c
}

func sampleResume() types.ResumeData {
	return types.ResumeData{
		Personal: types.PersonalInfo{Name: "Jane Doe"},
		Experience: []types.Experience{{
			Company: "Acme",
			Title:   "Backend Engineer",
			Bullets: []string{
				"Built API serving 10K requests/day in Go",
				"Reduced p99 latency by 40% with Redis caching",
			},
		}},
	}
}

func TestPagePenalty(t *testing.T) {
	assert.Equal(t, 0, PagePenalty(1))
	assert.Equal(t, -6, PagePenalty(2))
	assert.Equal(t, -15, PagePenalty(3))
	assert.Equal(t, -20, PagePenalty(4))
	assert.Equal(t, -25, PagePenalty(5))
}

func TestPolicyPasses(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name      string
		pages     int
		score     int
		pressure  float64
		justified bool
		want      bool
	}{
		{"one page at threshold", 1, 90, 0.4, false, true},
		{"one page below", 1, 89, 0.4, false, false},
		{"two pages all conditions", 2, 92, 0.85, true, true},
		{"two pages not justified", 2, 95, 0.95, false, false},
		{"two pages low pressure", 2, 95, 0.8, true, false},
		{"two pages low score", 2, 91, 0.95, true, false},
		{"three pages never", 3, 100, 0.95, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Passes(tt.pages, tt.score, tt.pressure, tt.justified))
		})
	}
}

func TestShouldContinue(t *testing.T) {
	p := DefaultPolicy()
	base := State{Status: StatusNeedsImprovement, Iteration: 1, MaxIterations: 5, ScoreHistory: []int{80}}

	tests := []struct {
		name   string
		mutate func(*State)
		want   bool
	}{
		{"needs improvement", func(*State) {}, true},
		{"needs regeneration", func(s *State) { s.Status = StatusNeedsRegeneration }, true},
		{"complete", func(s *State) { s.Status = StatusComplete }, false},
		{"error", func(s *State) { s.Error = "boom" }, false},
		{"out of iterations", func(s *State) { s.Iteration = 5 }, false},
		{"passed", func(s *State) { s.Evaluation = &types.Evaluation{Passed: true} }, false},
		{"stagnated", func(s *State) { s.ScoreHistory = []int{80, 80, 80} }, false},
		{"declining", func(s *State) { s.ScoreHistory = []int{85, 82, 80} }, false},
		{"improving", func(s *State) { s.ScoreHistory = []int{80, 80, 81} }, true},
		{"too short to judge", func(s *State) { s.ScoreHistory = []int{80, 80} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base.Clone()
			tt.mutate(&s)
			assert.Equal(t, tt.want, p.ShouldContinue(s))
		})
	}
}

func TestEvaluate_RollsBackRegression(t *testing.T) {
	h := newHarness([]int{1}, []int{85})
	c := h.controller(t, DefaultPolicy())

	before := sampleResume()
	after := sampleResume()
	after.Experience[0].Bullets = after.Experience[0].Bullets[:1]

	s := c.Start("run-1", after, "Backend Engineer")
	s.Iteration = 1
	s.Source = "compressed source"
	s.ArtifactPath = "/tmp/compressed.pdf"
	s.ScoreHistory = []int{90}
	s.PreviousScore = 90
	s.Checkpoint = &Checkpoint{Data: before, Source: "checkpoint source", ArtifactPath: "/tmp/checkpoint.pdf", Score: 90}

	out := c.Evaluate(context.Background(), s)

	assert.Equal(t, []int{90, 90}, out.ScoreHistory)
	assert.Equal(t, 90, out.PreviousScore)
	assert.Equal(t, before, out.Data)
	assert.Equal(t, "checkpoint source", out.Source)
	assert.Equal(t, "/tmp/checkpoint.pdf", out.ArtifactPath)
	require.NotNil(t, out.Evaluation)
	assert.True(t, out.Evaluation.RolledBack)
	assert.Equal(t, 85, out.Evaluation.RawScore)
	assert.False(t, out.Evaluation.Passed)
	assert.Contains(t, out.Issues[len(out.Issues)-1], "rolled back")

	assert.Equal(t, "compressed source", s.Source, "input state must not change")
}

func TestEvaluate_RegressionWithoutCheckpointKeepsScore(t *testing.T) {
	h := newHarness([]int{1}, []int{85})
	c := h.controller(t, DefaultPolicy())

	s := c.Start("run-1", sampleResume(), "")
	s.ScoreHistory = []int{90}
	s.PreviousScore = 90

	out := c.Evaluate(context.Background(), s)

	assert.Equal(t, []int{90, 85}, out.ScoreHistory)
	assert.False(t, out.Evaluation.RolledBack)
	assert.Contains(t, out.Evaluation.Issues, "Score regressed from 90 to 85")
}

func TestEvaluate_EscalatesOnOverflow(t *testing.T) {
	h := newHarness([]int{2}, []int{80})
	c := h.controller(t, Policy{MaxIterations: 10})

	s := c.Start("run-1", sampleResume(), "")
	var levels []planning.Level
	var pressures []float64
	for i := 0; i < 4; i++ {
		s = c.Evaluate(context.Background(), s)
		levels = append(levels, s.Level)
		pressures = append(pressures, s.Pressure)
		assert.Equal(t, StatusNeedsRegeneration, s.Status)
	}

	assert.Equal(t, []planning.Level{1, 2, 3, 3}, levels)
	assert.Equal(t, []float64{0.6, 0.8, 0.95, 0.95}, pressures)
	assert.Equal(t, 4, s.Iteration)
	assert.Equal(t, 74, s.Evaluation.AdjustedScore)
	assert.Equal(t, -6, s.Evaluation.PagePenalty)
}

func TestEvaluate_OnePageEasesPressureAndCarriesFeedback(t *testing.T) {
	h := newHarness([]int{1}, []int{80})
	c := h.controller(t, DefaultPolicy())

	s := c.Start("run-1", sampleResume(), "")
	s.Pressure = 0.8

	out := c.Evaluate(context.Background(), s)

	assert.Equal(t, 0.75, out.Pressure)
	assert.Equal(t, planning.LevelRewrite, out.Level)
	assert.Equal(t, StatusNeedsImprovement, out.Status)
	assert.Equal(t, []string{"Quantify more bullets"}, out.Feedback)
}

func TestEvaluate_TwoPagesPassWhenJustified(t *testing.T) {
	h := newHarness([]int{2}, []int{99})
	h.reviewer.justified = true
	c := h.controller(t, DefaultPolicy())

	s := c.Start("run-1", sampleResume(), "")
	s.Pressure = 0.8

	out := c.Evaluate(context.Background(), s)

	assert.Equal(t, 0.95, out.Pressure)
	assert.Equal(t, 93, out.Evaluation.AdjustedScore)
	assert.True(t, out.Evaluation.Passed)
	assert.Equal(t, StatusComplete, out.Status)
}

func TestEvaluate_FallsBackWhenCollaboratorsFail(t *testing.T) {
	h := newHarness([]int{1}, []int{95})
	h.counter.err = errors.New("pdfinfo missing")
	h.reviewer.err = errors.New("quota exceeded")
	c := h.controller(t, DefaultPolicy())

	out := c.Evaluate(context.Background(), c.Start("run-1", sampleResume(), ""))

	assert.Equal(t, 1, out.Evaluation.PageCount)
	assert.Equal(t, "rules", out.Evaluation.ReviewSource)
	assert.Equal(t, 70, out.Evaluation.AdjustedScore)
	assert.Equal(t, 1, h.fallback.calls)
}

func TestRun_ConvergesToOnePage(t *testing.T) {
	h := newHarness([]int{2, 2, 1}, []int{95, 97, 95})
	c := h.controller(t, DefaultPolicy())

	s := c.Run(context.Background(), "run-1", sampleResume(), "Backend Engineer")

	assert.Equal(t, StatusComplete, s.Status)
	assert.Empty(t, s.Error)
	assert.Equal(t, 3, s.Iteration)
	assert.Equal(t, []int{89, 91, 95}, s.ScoreHistory)
	assert.True(t, s.Passed())
	assert.Equal(t, planning.LevelReduceItems, s.Level)
	assert.Equal(t, 0.75, s.Pressure)
	assert.Equal(t, 3, s.CompressionAttempts)
	require.NotNil(t, s.Checkpoint)
	assert.Equal(t, "source-2 tier=aggressive", s.Checkpoint.Source)
	assert.Equal(t, "source-3 tier=maximum", s.Source)
	assert.Equal(t, 3, h.observer.evaluations)
	assert.Equal(t, 1, h.observer.runs)
}

// shortTwoPager is well under the line target, yet the fakes report two pages
func shortTwoPager() types.ResumeData {
	exp := func(company string) types.Experience {
		return types.Experience{
			Company: company,
			Title:   "Engineer",
			Bullets: []string{"Built Go services", "Ran Postgres"},
		}
	}
	return types.ResumeData{
		Personal:   types.PersonalInfo{Name: "Jane Doe"},
		Experience: []types.Experience{exp("Acme"), exp("Globex"), exp("Initech")},
		Education: []types.Education{
			{Institution: "MIT", Degree: "MS", Achievements: []string{"Thesis award"}},
			{Institution: "CMU", Degree: "BS", Coursework: []string{"Compilers"}},
		},
		Certifications: []types.Certification{{Name: "CKA"}},
	}
}

func TestRun_MeasuredOverflowAppliesCapsWhateverTheEstimate(t *testing.T) {
	data := shortTwoPager()
	planner := planning.NewPlanner(nil, nil)
	require.Less(t, planner.Estimator().Estimate(data).Total, planner.Estimator().TargetTotalLines())
	require.True(t, planner.StructuralPlan(data, planning.LevelTrimSections).Empty())

	h := newHarness([]int{2}, []int{80, 82, 84, 86})
	c := h.controller(t, Policy{MaxIterations: 4})

	s := c.Run(context.Background(), "run-1", data, "")

	assert.Equal(t, 4, s.Iteration)
	assert.Equal(t, planning.LevelTrimSections, s.Level)
	assert.Len(t, s.Data.Experience, 2)
	require.Len(t, s.Data.Education, 1)
	assert.Empty(t, s.Data.Education[0].Achievements)
	assert.Empty(t, s.Data.Certifications)
}

func TestRun_DiscardsUnreachableArtifacts(t *testing.T) {
	h := newHarness([]int{2}, []int{80, 85, 70, 90})
	c := h.controller(t, Policy{MaxIterations: 4})

	s := c.Run(context.Background(), "run-1", shortTwoPager(), "")

	require.Equal(t, 4, s.Iteration)
	assert.Equal(t, "/tmp/artifact-4.pdf", s.ArtifactPath)
	// 1 is superseded by the 2 checkpoint, 3 is rolled back, and 2 goes once the loop stops
	assert.Equal(t, []string{
		"/tmp/artifact-1.pdf",
		"/tmp/artifact-3.pdf",
		"/tmp/artifact-2.pdf",
	}, h.compiler.discarded)
	require.NotNil(t, s.Checkpoint)
	assert.Empty(t, s.Checkpoint.ArtifactPath)
}

func TestRun_ReleasesCheckpointArtifactWhenLoopStops(t *testing.T) {
	h := newHarness([]int{2}, []int{80, 85})
	c := h.controller(t, Policy{MaxIterations: 2})

	s := c.Run(context.Background(), "run-1", shortTwoPager(), "")

	require.Equal(t, 2, s.Iteration)
	assert.Equal(t, "/tmp/artifact-2.pdf", s.ArtifactPath)
	assert.Equal(t, []string{"/tmp/artifact-1.pdf"}, h.compiler.discarded)
}

func TestRun_StopsOnStagnation(t *testing.T) {
	h := newHarness([]int{1}, []int{80})
	c := h.controller(t, DefaultPolicy())

	s := c.Run(context.Background(), "run-1", sampleResume(), "")

	assert.Equal(t, 3, s.Iteration)
	assert.Equal(t, []int{80, 80, 80}, s.ScoreHistory)
	assert.Equal(t, StatusComplete, s.Status)
	assert.False(t, s.Passed())
	assert.Contains(t, s.Issues, "Stopped: score did not improve over the last iterations")
}

func TestRun_StopsAtMaxIterations(t *testing.T) {
	h := newHarness([]int{3}, []int{70, 72, 74, 76})
	c := h.controller(t, Policy{MaxIterations: 2})

	s := c.Run(context.Background(), "run-1", sampleResume(), "")

	assert.Equal(t, 2, s.Iteration)
	assert.Equal(t, StatusComplete, s.Status)
	assert.Equal(t, []int{55, 57}, s.ScoreHistory)
}

func TestRun_EmptyDataIsFatal(t *testing.T) {
	h := newHarness([]int{1}, []int{95})
	c := h.controller(t, DefaultPolicy())

	s := c.Run(context.Background(), "run-1", types.ResumeData{}, "")

	assert.Equal(t, StatusError, s.Status)
	assert.Equal(t, "input error: no resume data to compress", s.Error)
	assert.Zero(t, s.Iteration)
	assert.Zero(t, h.renderer.calls)
	assert.Equal(t, 1, h.observer.runs)
}

func TestRun_CompileFailureKeepsSource(t *testing.T) {
	h := newHarness([]int{1}, []int{95})
	h.compiler.err = errors.New("undefined control sequence")
	c := h.controller(t, DefaultPolicy())

	s := c.Run(context.Background(), "run-1", sampleResume(), "")

	assert.Equal(t, StatusError, s.Status)
	assert.Contains(t, s.Error, "undefined control sequence")
	assert.Equal(t, "source-1 tier=light", s.Source)
	assert.Zero(t, s.Iteration)
}

func TestRun_CancelledContext(t *testing.T) {
	h := newHarness([]int{1}, []int{95})
	c := h.controller(t, DefaultPolicy())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := c.Run(ctx, "run-1", sampleResume(), "")

	assert.Equal(t, StatusError, s.Status)
	assert.Contains(t, s.Error, "run cancelled")
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(DefaultPolicy(), Dependencies{})
	assert.Error(t, err)

	_, err = New(DefaultPolicy(), Dependencies{Renderer: &fakeRenderer{}, Compiler: &fakeCompiler{}})
	assert.Error(t, err)
}

func TestState_CloneIsIndependent(t *testing.T) {
	s := NewState("run", sampleResume(), "", 5, 0.4, 48)
	s.ScoreHistory = append(s.ScoreHistory, 80)
	s.Checkpoint = &Checkpoint{Data: sampleResume()}

	c := s.Clone()
	c.ScoreHistory[0] = 10
	c.Data.Experience[0].Bullets[0] = "changed"
	c.Checkpoint.Data.Experience[0].Company = "Other"

	assert.Equal(t, 80, s.ScoreHistory[0])
	assert.NotEqual(t, "changed", s.Data.Experience[0].Bullets[0])
	assert.Equal(t, "Acme", s.Checkpoint.Data.Experience[0].Company)
}
