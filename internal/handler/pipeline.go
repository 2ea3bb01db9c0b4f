package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"macroedge/internal/pipeline"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RunPipeline godoc
// @Summary      Run the scoring pipeline
// @Description  Ingests, normalizes and scores synchronously for one day
// @Tags         pipeline
// @Produce      json
// @Param        X-API-Key       header  string  false  "API key, required when API_KEY is set"
// @Param        date            query   string  false  "As-of date (YYYY-MM-DD), default today UTC"
// @Param        seed            query   bool    false  "Seed indices and weights first"
// @Param        skip_ingestion  query   bool    false  "Skip the FRED ingestion stage"
// @Success      200  {object}  domain.PipelineRunResult
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      500  {object}  map[string]interface{}
// @Router       /api/v1/pipeline/run [post]
func (h *Handler) RunPipeline(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.run-pipeline")
	defer span.End()

	if h.runner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pipeline is not configured"})
		return
	}

	opts := pipeline.Options{AsOf: h.now().UTC()}
	date, err := parseDateParam(c, "date")
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	if date != nil {
		opts.AsOf = *date
	}
	if opts.Seed, err = parseBoolParam(c, "seed"); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	if opts.SkipIngestion, err = parseBoolParam(c, "skip_ingestion"); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}

	result, err := h.runner.Run(ctx, opts)
	if errors.Is(err, pipeline.ErrRunInProgress) {
		errorJSON(c, http.StatusConflict, err)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("pipeline run via API failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "result": result})
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseBoolParam(c *gin.Context, name string) (bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.New(name + " must be a boolean")
	}
	return v, nil
}
