// Package control runs the adaptive compression loop: render, compile, count
// pages, review, then adjust page pressure and escalation until the resume
// fits on one page with an acceptable score or the loop gives up.
package control

import (
	"github.com/jonathan/resume-compressor/internal/planning"
	"github.com/jonathan/resume-compressor/internal/types"
)

// Status is a control loop state
type Status string

// Loop states
const (
	StatusOptimizing        Status = "optimizing"
	StatusGenerating        Status = "generating"
	StatusCompiling         Status = "compiling"
	StatusEvaluating        Status = "evaluating"
	StatusNeedsRegeneration Status = "needs_regeneration"
	StatusNeedsImprovement  Status = "needs_improvement"
	StatusComplete          Status = "complete"
	StatusError             Status = "error"
)

// Checkpoint is the rollback point: the data and rendered source as they
// stood immediately before the most recent compression.
type Checkpoint struct {
	Data         types.ResumeData `json:"data"`
	Source       string           `json:"source"`
	ArtifactPath string           `json:"artifact_path,omitempty"`
	Score        int              `json:"score"`
}

// State is the full run state. Stage functions take a State by value and
// return the next one; use Clone before mutating shared slices.
type State struct {
	RunID  string `json:"run_id"`
	Role   string `json:"role"`
	Status Status `json:"status"`

	Data         types.ResumeData `json:"data"`
	Source       string           `json:"source,omitempty"`
	ArtifactPath string           `json:"artifact_path,omitempty"`

	Pressure            float64        `json:"page_pressure"`
	Tier                planning.Tier  `json:"tier"`
	Level               planning.Level `json:"escalation_level"`
	Iteration           int            `json:"iteration_count"`
	MaxIterations       int            `json:"max_iterations"`
	ScoreHistory        []int          `json:"score_history"`
	PreviousScore       int            `json:"previous_score"`
	CompressionAttempts int            `json:"compression_attempts"`
	EstimatedLines      int            `json:"estimated_lines"`
	TargetTotalLines    int            `json:"target_total_lines"`

	Checkpoint *Checkpoint        `json:"-"`
	Evaluation *types.Evaluation  `json:"evaluation,omitempty"`
	History    []types.Evaluation `json:"history,omitempty"`
	// Feedback is reviewer guidance carried into the next compression pass
	Feedback []string `json:"feedback,omitempty"`
	Issues   []string `json:"issues,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// NewState returns the initial state for a run
func NewState(runID string, data types.ResumeData, role string, maxIterations int, pressure float64, targetLines int) State {
	return State{
		RunID:            runID,
		Role:             role,
		Status:           StatusOptimizing,
		Data:             data.Clone(),
		Pressure:         pressure,
		Tier:             planning.CompressionTier(pressure),
		Level:            planning.LevelRewrite,
		MaxIterations:    maxIterations,
		ScoreHistory:     []int{},
		TargetTotalLines: targetLines,
	}
}

// Clone returns a copy that shares no mutable memory with s
func (s State) Clone() State {
	out := s
	out.Data = s.Data.Clone()
	out.ScoreHistory = append([]int{}, s.ScoreHistory...)
	out.History = append([]types.Evaluation(nil), s.History...)
	out.Feedback = append([]string(nil), s.Feedback...)
	out.Issues = append([]string(nil), s.Issues...)
	if s.Checkpoint != nil {
		cp := *s.Checkpoint
		cp.Data = s.Checkpoint.Data.Clone()
		out.Checkpoint = &cp
	}
	if s.Evaluation != nil {
		ev := *s.Evaluation
		out.Evaluation = &ev
	}
	return out
}

// Passed reports whether the latest evaluation passed
func (s State) Passed() bool {
	return s.Evaluation != nil && s.Evaluation.Passed
}

// FinalScore is the last recorded adjusted score
func (s State) FinalScore() int {
	if len(s.ScoreHistory) == 0 {
		return 0
	}
	return s.ScoreHistory[len(s.ScoreHistory)-1]
}

// PageCount is the page count of the latest evaluation, 0 before any
func (s State) PageCount() int {
	if s.Evaluation == nil {
		return 0
	}
	return s.Evaluation.PageCount
}

func (s State) iterationsRemain() bool {
	return s.Iteration < s.MaxIterations
}
