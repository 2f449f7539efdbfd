package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary Operations context
// @Description Ops counters, weather, resolved pricing forecast and routed advisories for the next 24 hours
// @Tags context
// @Produce json
// @Param hotelId path string true "Hotel ID"
// @Success 200 {object} models.OpsContextView
// @Failure 400 {object} map[string]any
// @Router /api/hotels/{hotelId}/operations-context [get]
func (h *Handler) OperationsContext(c *gin.Context) {
	view, err := h.Context.Get(c.Request.Context(), c.Param("hotelId"))
	if err != nil {
		h.respondError(c, err, "Failed to build operations context")
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary Weather advisories
// @Tags context
// @Produce json
// @Param hotelId path string true "Hotel ID"
// @Success 200 {object} service.AdvisoryView
// @Failure 400 {object} map[string]any
// @Router /api/hotels/{hotelId}/advisories [get]
func (h *Handler) Advisories(c *gin.Context) {
	view, err := h.Context.Advisories(c.Request.Context(), c.Param("hotelId"))
	if err != nil {
		h.respondError(c, err, "Failed to derive advisories")
		return
	}
	c.JSON(http.StatusOK, view)
}
