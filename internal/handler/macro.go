package handler

import (
	"net/http"

	"macroedge/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// MacroLatest godoc
// @Summary      Latest macro observations
// @Description  Newest observation of every indicator released within the window
// @Tags         macro
// @Produce      json
// @Param        days  query  int  false  "Lookback in days (1-365, default 30)"
// @Success      200  {array}   domain.MacroLatest
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/macro/latest [get]
func (h *Handler) MacroLatest(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.macro-latest")
	defer span.End()

	days, err := parseIntParam(c, "days", service.DefaultMacroDays, 1, service.MaxMacroDays)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	span.SetAttributes(attribute.Int("days", days))

	rows, err := h.query.MacroLatest(ctx, days)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
