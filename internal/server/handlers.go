package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/resume-compressor/internal/control"
	"github.com/jonathan/resume-compressor/internal/estimate"
	"github.com/jonathan/resume-compressor/internal/pipeline"
)

// maxBodyBytes bounds request bodies; resumes are a few kilobytes
const maxBodyBytes = 1 << 20

// CompressRequest represents the request body for /compress
type CompressRequest struct {
	Resume json.RawMessage `json:"resume" validate:"required"`
	Role   string          `json:"role,omitempty" validate:"max=200"`
	// Strict rejects resumes that do not match the resume schema
	Strict bool `json:"strict,omitempty"`
}

// CompressResponse represents the response for /compress
type CompressResponse struct {
	RunID    string        `json:"run_id"`
	Status   string        `json:"status"`
	Score    int           `json:"score"`
	Pages    int           `json:"pages"`
	Passed   bool          `json:"passed"`
	Warnings []string      `json:"warnings,omitempty"`
	Report   control.State `json:"report"`
}

// EstimateRequest represents the request body for /estimate
type EstimateRequest struct {
	Resume json.RawMessage `json:"resume" validate:"required"`
	// Target overrides the configured one-page line target
	Target int `json:"target,omitempty" validate:"omitempty,min=1,max=500"`
}

// EstimateResponse represents the response for /estimate
type EstimateResponse struct {
	Sections   map[estimate.Section]int `json:"sections"`
	Total      int                      `json:"total"`
	Target     int                      `json:"target"`
	Overflow   int                      `json:"overflow"`
	OverBudget []estimate.BudgetOverrun `json:"over_budget"`
	Warnings   []string                 `json:"warnings,omitempty"`
}

// decode reads and validates a JSON request body
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &ErrValidation{Field: "body", Message: "invalid request body: " + err.Error()}
	}
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ErrValidation{Field: jsonField(fe.Field()), Message: fmt.Sprintf("failed %s", fe.Tag())}
		}
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	return nil
}

func jsonField(name string) string {
	return strings.ToLower(name)
}

// load turns the raw resume into data, mapping loader failures to 400s
func (s *Server) load(raw json.RawMessage, strict bool) (*pipeline.Loaded, error) {
	loaded, err := pipeline.LoadResume(raw, strict)
	if err != nil {
		return nil, &ErrValidation{Field: "resume", Message: err.Error()}
	}
	return loaded, nil
}

func newCompressResponse(res *pipeline.Result, warnings []string) CompressResponse {
	return CompressResponse{
		RunID:    res.RunID,
		Status:   string(res.State.Status),
		Score:    res.State.FinalScore(),
		Pages:    res.State.PageCount(),
		Passed:   res.State.Passed(),
		Warnings: warnings,
		Report:   res.State,
	}
}

// handleCompress runs the compression loop synchronously
func (s *Server) handleCompress(w http.ResponseWriter, r *http.Request) {
	var req CompressRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, err)
		return
	}
	loaded, err := s.load(req.Resume, req.Strict)
	if err != nil {
		s.fail(w, err)
		return
	}

	res, err := s.pipeline.Run(r.Context(), pipeline.Input{Data: loaded.Data, Role: req.Role})
	if err != nil {
		s.fail(w, err)
		return
	}

	status := http.StatusOK
	if res.State.Status == control.StatusError {
		status = http.StatusUnprocessableEntity
	}
	s.jsonResponse(w, status, newCompressResponse(res, loaded.Warnings))
}

// handleCompressStream runs the compression loop and streams progress as
// server-sent events, ending with a result event
func (s *Server) handleCompressStream(w http.ResponseWriter, r *http.Request) {
	var req CompressRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, err)
		return
	}
	loaded, err := s.load(req.Resume, req.Strict)
	if err != nil {
		s.fail(w, err)
		return
	}

	stream, err := newEventStream(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	// progress callbacks run on this goroutine, so writes never interleave
	res, err := s.pipeline.Run(r.Context(), pipeline.Input{
		Data: loaded.Data,
		Role: req.Role,
		OnProgress: func(e pipeline.ProgressEvent) {
			stream.progress(e) //nolint:errcheck
		},
	})
	if err != nil {
		stream.fail(err) //nolint:errcheck
		return
	}
	if err := stream.result(newCompressResponse(res, loaded.Warnings)); err != nil {
		s.logger.Debug("stream client went away", zap.String("run_id", res.RunID), zap.Error(err))
		return
	}
	stream.complete(res.RunID, string(res.State.Status)) //nolint:errcheck
}

// handleEstimate returns per-section line estimates without rendering
func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, err)
		return
	}
	loaded, err := s.load(req.Resume, false)
	if err != nil {
		s.fail(w, err)
		return
	}

	estimator := s.pipeline.Planner().Estimator()
	if req.Target > 0 {
		cfg := estimator.Config()
		cfg.TargetTotalLines = req.Target
		estimator = estimate.New(cfg)
	}

	est := estimator.Estimate(loaded.Data)
	over := estimator.SectionsOverBudget(loaded.Data)
	if over == nil {
		over = []estimate.BudgetOverrun{}
	}
	s.jsonResponse(w, http.StatusOK, EstimateResponse{
		Sections:   est.Sections,
		Total:      est.Total,
		Target:     estimator.TargetTotalLines(),
		Overflow:   estimator.Overflow(loaded.Data),
		OverBudget: over,
		Warnings:   loaded.Warnings,
	})
}

// handleGetRun returns a stored run with its iterations
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		s.fail(w, &ErrValidation{Field: "id", Message: "invalid run ID"})
		return
	}
	if s.runs == nil {
		s.fail(w, &ErrUnavailable{Feature: "run history"})
		return
	}

	run, err := s.runs.GetRun(r.Context(), id)
	if err != nil {
		s.fail(w, fmt.Errorf("failed to load run: %w", err))
		return
	}
	if run == nil {
		s.fail(w, &ErrNotFound{Resource: "run", ID: idStr})
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}
