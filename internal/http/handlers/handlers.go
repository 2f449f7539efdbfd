package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hotelops/backend/internal/apierr"
	"github.com/hotelops/backend/internal/models"
	"github.com/hotelops/backend/internal/service"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type ContextService interface {
	Get(ctx context.Context, hotelID string) (models.OpsContextView, error)
	Advisories(ctx context.Context, hotelID string) (service.AdvisoryView, error)
}

type ForecastGenerator interface {
	Generate(ctx context.Context, hotelID string, daysAhead int) (models.PricingForecastResult, error)
}

type SnapshotResolver interface {
	Resolve(ctx context.Context, hotelID string) (models.ResolvedForecast, error)
}

type TicketCreator interface {
	CreateFromAdvisory(ctx context.Context, in service.AdvisoryTicketInput) (service.TicketResult, error)
	CreateFromPricingAction(ctx context.Context, in service.PricingActionInput) (service.TicketResult, error)
}

type HotelLocator interface {
	Refresh(ctx context.Context, hotelID string) (models.HotelLocation, error)
}

type Handler struct {
	Store        Pinger
	Context      ContextService
	Forecasts    ForecastGenerator
	Snapshots    SnapshotResolver
	Tickets      TicketCreator
	Locator      HotelLocator
	Logger       zerolog.Logger
	ForecastDays int
	MaxDays      int
}

// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]any
// @Router /healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// respondError maps service error kinds onto the error envelope.
func (h *Handler) respondError(c *gin.Context, err error, message string) {
	switch apierr.KindOf(err) {
	case apierr.KindValidation:
		writeError(c, http.StatusBadRequest, string(apierr.KindValidation), err.Error(), gin.H{"field": apierr.FieldOf(err)})
	case apierr.KindNotFound:
		writeError(c, http.StatusNotFound, string(apierr.KindNotFound), err.Error(), nil)
	case apierr.KindDependency:
		h.Logger.Warn().Err(err).Str("path", c.FullPath()).Msg(message)
		writeError(c, http.StatusServiceUnavailable, string(apierr.KindDependency), message, err.Error())
	case apierr.KindPersistence:
		h.Logger.Error().Err(err).Str("path", c.FullPath()).Msg(message)
		writeError(c, http.StatusInternalServerError, string(apierr.KindPersistence), message, err.Error())
	default:
		h.Logger.Error().Err(err).Str("path", c.FullPath()).Msg(message)
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, err.Error())
	}
}
