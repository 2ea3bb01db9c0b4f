package handler

import (
	"context"
	"time"

	"macroedge/internal/domain"
	"macroedge/internal/pipeline"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
)

type QueryService interface {
	Ping(ctx context.Context) error
	Indices(ctx context.Context) ([]domain.Index, error)
	Summary(ctx context.Context) (*domain.BiasSummary, error)
	History(ctx context.Context, f domain.BiasHistoryFilter) ([]domain.BiasHistoryPoint, error)
	MacroLatest(ctx context.Context, days int) ([]domain.MacroLatest, error)
}

type PipelineRunner interface {
	Run(ctx context.Context, opts pipeline.Options) (domain.PipelineRunResult, error)
}

type Handler struct {
	tracer trace.Tracer
	query  QueryService
	runner PipelineRunner
	apiKey string
	now    func() time.Time
}

func New(tracer trace.Tracer, query QueryService, runner PipelineRunner) *Handler {
	return &Handler{
		tracer: tracer,
		query:  query,
		runner: runner,
		now:    time.Now,
	}
}

// WithAPIKey requires key in X-API-Key on the pipeline trigger.
func (h *Handler) WithAPIKey(key string) *Handler {
	h.apiKey = key
	return h
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)

	api := r.Group("/api/v1")
	api.GET("/indices", h.ListIndices)
	api.GET("/bias/summary", h.BiasSummary)
	api.GET("/bias/history", h.BiasHistory)
	api.GET("/macro/latest", h.MacroLatest)
	api.POST("/pipeline/run", APIKeyAuth(h.apiKey), h.RunPipeline)
}

// RegisterMetrics exposes the collectors of g at /metrics.
func RegisterMetrics(r *gin.Engine, g prometheus.Gatherer) {
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
}

func errorJSON(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}
