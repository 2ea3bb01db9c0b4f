package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"macroedge/internal/domain"
	"macroedge/internal/pipeline"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

func newTestRouter(q QueryService, runner PipelineRunner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(testTracer, q, runner)
	h.now = func() time.Time { return time.Date(2024, 6, 3, 21, 0, 0, 0, time.UTC) }
	h.RegisterRoutes(r)
	return r
}

func do(r http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, target, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&stubQuery{}, nil)

	w := do(r, "GET", "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	if body != "{\"status\":\"ok\"}\n" && body != "{\"status\":\"ok\"}" {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestReady(t *testing.T) {
	r := newTestRouter(&stubQuery{}, nil)
	w := do(r, "GET", "/ready")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["database"] != "connected" {
		t.Fatalf("unexpected body: %v", body)
	}

	r = newTestRouter(&stubQuery{pingErr: errors.New("dial tcp: refused")}, nil)
	w = do(r, "GET", "/ready")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", w.Code)
	}
}

type stubQuery struct {
	mu        sync.Mutex
	pingErr   error
	err       error
	summary   *domain.BiasSummary
	indices   []domain.Index
	history   []domain.BiasHistoryPoint
	filter    domain.BiasHistoryFilter
	macroDays int
}

func (s *stubQuery) Ping(ctx context.Context) error { return s.pingErr }

func (s *stubQuery) Indices(ctx context.Context) ([]domain.Index, error) {
	return s.indices, s.err
}

func (s *stubQuery) Summary(ctx context.Context) (*domain.BiasSummary, error) {
	return s.summary, s.err
}

func (s *stubQuery) History(ctx context.Context, f domain.BiasHistoryFilter) ([]domain.BiasHistoryPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
	return s.history, s.err
}

func (s *stubQuery) MacroLatest(ctx context.Context, days int) ([]domain.MacroLatest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.macroDays = days
	return []domain.MacroLatest{}, s.err
}

type stubRunner struct {
	opts   []pipeline.Options
	result domain.PipelineRunResult
	err    error
}

func (s *stubRunner) Run(ctx context.Context, opts pipeline.Options) (domain.PipelineRunResult, error) {
	s.opts = append(s.opts, opts)
	return s.result, s.err
}
