package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-compressor/internal/config"
	"github.com/jonathan/resume-compressor/internal/db"
	"github.com/jonathan/resume-compressor/internal/metrics"
	"github.com/jonathan/resume-compressor/internal/pipeline"
)

const resumeJSON = `{
  "personal": {"name": "Ada Lovelace", "email": "ada@example.com"},
  "experience": [
    {
      "company": "Analytical Engines",
      "title": "Software Engineer",
      "bullets": [
        "Built a REST API in Go serving 2M requests per day",
        "Reduced deploy time by 40% by migrating CI to GitHub Actions"
      ]
    }
  ],
  "skills": {"languages": ["Go", "SQL"]}
}`

type fakeCompiler struct {
	dir string
	mu  sync.Mutex
	n   int
}

func (c *fakeCompiler) Compile(context.Context, string) (string, error) {
	c.mu.Lock()
	c.n++
	path := filepath.Join(c.dir, fmt.Sprintf("%d.pdf", c.n))
	c.mu.Unlock()
	return path, os.WriteFile(path, []byte("%PDF-1.4"), 0o644)
}

type onePage struct{}

func (onePage) CountPages(context.Context, string) (int, error) { return 1, nil }

// fakeRuns implements RunReader
type fakeRuns struct {
	runs map[uuid.UUID]*db.Run
	err  error
}

func (f *fakeRuns) GetRun(_ context.Context, id uuid.UUID) (*db.Run, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.runs[id], nil
}

type testServer struct {
	*Server
}

func newTestServer(t *testing.T, mutate func(*Config)) *testServer {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	p, err := pipeline.New(context.Background(), pipeline.Options{
		Config:      config.Default(),
		NoLLM:       true,
		Metrics:     m,
		Compiler:    &fakeCompiler{dir: t.TempDir()},
		PageCounter: onePage{},
	})
	require.NoError(t, err)
	t.Cleanup(p.Close)

	cfg := Config{
		RateLimitPerMinute: 100,
		RateLimitBurst:     100,
		Pipeline:           p,
		Metrics:            m,
		Gatherer:           reg,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(s.rateLimiter.Stop)
	return &testServer{Server: s}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestNew_RequiresPipeline(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody[map[string]string](t, w)["status"])
}

func TestCompressEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodPost, "/compress", `{"role": "Backend Engineer", "resume": `+resumeJSON+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeBody[CompressResponse](t, w)
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, "complete", resp.Status)
	assert.Equal(t, 1, resp.Pages)
	assert.Equal(t, "Backend Engineer", resp.Report.Role)
	assert.Contains(t, resp.Report.Source, "Ada Lovelace")
	assert.Empty(t, resp.Warnings)
}

func TestCompressEndpoint_BadRequests(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"invalid json", `{invalid json}`, "invalid request body"},
		{"missing resume", `{"role": "SRE"}`, "resume"},
		{"role too long", `{"resume": {}, "role": "` + strings.Repeat("x", 201) + `"}`, "role"},
		{"resume not an object", `{"resume": [1, 2]}`, "expected a JSON object"},
		{"strict schema", `{"strict": true, "resume": {"personal": {"name": "A"}, "skills": "Go, SQL"}}`, "schema validation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/compress", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeBody[map[string]string](t, w)["error"], tt.want)
		})
	}
}

func TestCompressEndpoint_LooseResumeWarns(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodPost, "/compress", `{"resume": {"personal": {"name": "A"}, "experience": [{"company": "C", "title": "T", "bullets": "Built X"}], "skills": "Go, SQL"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, decodeBody[CompressResponse](t, w).Warnings)
}

func TestCompressEndpoint_EmptyResume(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodPost, "/compress", `{"resume": {}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	resp := decodeBody[CompressResponse](t, w)
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Report.Error, "no resume data")
}

func TestCompressStreamEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodPost, "/compress/stream", `{"resume": `+resumeJSON+`}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, "event: progress")
	assert.Contains(t, body, `"step":"evaluate"`)
	assert.Contains(t, body, "event: result")
	assert.Contains(t, body, "event: complete")
	assert.Less(t, strings.Index(body, "event: result"), strings.Index(body, "event: complete"))
}

func TestEstimateEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodPost, "/estimate", `{"resume": `+resumeJSON+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody[EstimateResponse](t, w)
	assert.Equal(t, 48, resp.Target)
	assert.Greater(t, resp.Total, 0)
	assert.Equal(t, 4, resp.Sections["header"])
	assert.NotNil(t, resp.OverBudget)

	w = s.do(http.MethodPost, "/estimate", `{"target": 5, "resume": `+resumeJSON+`}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeBody[EstimateResponse](t, w)
	assert.Equal(t, 5, resp.Target)
	assert.Equal(t, resp.Total-5, resp.Overflow)

	w = s.do(http.MethodPost, "/estimate", `{"target": -1, "resume": {}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRunEndpoint(t *testing.T) {
	id := uuid.New()
	runs := &fakeRuns{runs: map[uuid.UUID]*db.Run{
		id: {ID: id, Role: "SRE", Status: "complete", FinalScore: 93, PageCount: 1},
	}}
	s := newTestServer(t, func(c *Config) { c.Runs = runs })

	w := s.do(http.MethodGet, "/runs/"+id.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	run := decodeBody[db.Run](t, w)
	assert.Equal(t, id, run.ID)
	assert.Equal(t, 93, run.FinalScore)

	w = s.do(http.MethodGet, "/runs/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/runs/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	runs.err = errors.New("connection reset")
	w = s.do(http.MethodGet, "/runs/"+id.String(), "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetRunEndpoint_NoHistory(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodGet, "/runs/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, decodeBody[map[string]string](t, w)["error"], "run history")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	s.do(http.MethodGet, "/health", "")
	s.do(http.MethodPost, "/compress", `{"resume": `+resumeJSON+`}`)

	w := s.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `resume_compression_http_requests_total{code="200",route="GET /health"} 1`)
	assert.Contains(t, body, `resume_compression_runs_total{status="complete"} 1`)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(c *Config) {
		c.RateLimitPerMinute = 1
		c.RateLimitBurst = 1
	})

	w := s.do(http.MethodPost, "/compress", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = s.do(http.MethodPost, "/compress", `{}`)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limit_exceeded", decodeBody[map[string]any](t, w)["error"])

	w = s.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code, "health is never limited")
}

func TestCORSMiddleware(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodGet, "/health", "")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))

	w = s.do(http.MethodOptions, "/compress", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&ErrValidation{Field: "f", Message: "m"}, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", &ErrNotFound{Resource: "run", ID: "x"}), http.StatusNotFound},
		{&ErrUnavailable{Feature: "run history"}, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}
