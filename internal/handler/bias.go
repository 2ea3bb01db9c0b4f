package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"macroedge/internal/domain"
	"macroedge/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// ListIndices godoc
// @Summary      List tracked indices
// @Tags         indices
// @Produce      json
// @Success      200  {array}   domain.Index
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/indices [get]
func (h *Handler) ListIndices(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.list-indices")
	defer span.End()

	indices, err := h.query.Indices(ctx)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, indices)
}

// BiasSummary godoc
// @Summary      Latest bias per index
// @Description  Scores of the most recent scored day. Without any score the date is null and a message is set.
// @Tags         bias
// @Produce      json
// @Success      200  {object}  domain.BiasSummary
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/bias/summary [get]
func (h *Handler) BiasSummary(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.bias-summary")
	defer span.End()

	summary, err := h.query.Summary(ctx)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// BiasHistory godoc
// @Summary      Bias score history
// @Tags         bias
// @Produce      json
// @Param        index      query  string  false  "Index code (e.g. US500)"
// @Param        from_date  query  string  false  "Inclusive start date (YYYY-MM-DD)"
// @Param        to_date    query  string  false  "Inclusive end date (YYYY-MM-DD)"
// @Param        limit      query  int     false  "Max rows (1-1000, default 365)"
// @Success      200  {array}   domain.BiasHistoryPoint
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/bias/history [get]
func (h *Handler) BiasHistory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.bias-history")
	defer span.End()

	filter := domain.BiasHistoryFilter{
		IndexCode: strings.ToUpper(strings.TrimSpace(c.Query("index"))),
		Limit:     service.DefaultHistoryLimit,
	}
	span.SetAttributes(attribute.String("index", filter.IndexCode))

	var err error
	if filter.From, err = parseDateParam(c, "from_date"); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	if filter.To, err = parseDateParam(c, "to_date"); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from_date must not be after to_date"})
		return
	}
	if filter.Limit, err = parseIntParam(c, "limit", service.DefaultHistoryLimit, 1, service.MaxHistoryLimit); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}

	points, err := h.query.History(ctx, filter)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, points)
}

func parseDateParam(c *gin.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be YYYY-MM-DD", name)
	}
	return &t, nil
}

func parseIntParam(c *gin.Context, name string, def, lo, hi int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", name, lo, hi)
	}
	return n, nil
}
