package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary Geocode hotel
// @Description Resolves the hotel address and stores its coordinates for the weather provider
// @Tags admin
// @Produce json
// @Param hotelId path string true "Hotel ID"
// @Success 200 {object} models.HotelLocation
// @Failure 400 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /api/admin/hotels/{hotelId}/geocode [post]
func (h *Handler) GeocodeHotel(c *gin.Context) {
	loc, err := h.Locator.Refresh(c.Request.Context(), c.Param("hotelId"))
	if err != nil {
		h.respondError(c, err, "Geocoding failed")
		return
	}
	c.JSON(http.StatusOK, loc)
}
