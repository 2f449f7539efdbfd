package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hotelops/backend/internal/apierr"
)

// @Summary Live pricing forecast
// @Description Computes the forecast calendar without persisting it
// @Tags pricing
// @Produce json
// @Param hotelId path string true "Hotel ID"
// @Param days query int false "Nights to forecast"
// @Success 200 {object} models.PricingForecastResult
// @Failure 400 {object} map[string]any
// @Router /api/hotels/{hotelId}/pricing/forecast [get]
func (h *Handler) PricingForecast(c *gin.Context) {
	days := h.ForecastDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || (h.MaxDays > 0 && n > h.MaxDays) {
			h.respondError(c, apierr.Validation("days", "must be a positive integer within the forecast horizon"), "")
			return
		}
		days = n
	}
	res, err := h.Forecasts.Generate(c.Request.Context(), c.Param("hotelId"), days)
	if err != nil {
		h.respondError(c, err, "Failed to generate forecast")
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary Resolved pricing forecast
// @Description Newest snapshot while fresh, otherwise a newly computed and stored forecast
// @Tags pricing
// @Produce json
// @Param hotelId path string true "Hotel ID"
// @Success 200 {object} models.ResolvedForecast
// @Failure 400 {object} map[string]any
// @Router /api/hotels/{hotelId}/pricing/snapshot [get]
func (h *Handler) PricingSnapshot(c *gin.Context) {
	res, err := h.Snapshots.Resolve(c.Request.Context(), c.Param("hotelId"))
	if err != nil {
		if apierr.KindOf(err) == apierr.KindPersistence && res.Forecast != nil {
			h.Logger.Warn().Err(err).Str("hotel_id", c.Param("hotelId")).Msg("serving unpersisted forecast")
			c.Header("X-Snapshot-Persisted", "false")
			c.JSON(http.StatusOK, res)
			return
		}
		h.respondError(c, err, "Failed to resolve forecast")
		return
	}
	c.JSON(http.StatusOK, res)
}
