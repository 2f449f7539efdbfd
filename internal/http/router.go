package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/hotelops/backend/internal/config"
	"github.com/hotelops/backend/internal/http/handlers"
	"github.com/hotelops/backend/internal/http/middleware"
	"github.com/hotelops/backend/internal/metrics"

	_ "github.com/hotelops/backend/docs"
)

type Services struct {
	Store     handlers.Pinger
	Context   handlers.ContextService
	Forecasts handlers.ForecastGenerator
	Snapshots handlers.SnapshotResolver
	Tickets   handlers.TicketCreator
	Locator   handlers.HotelLocator
}

func Router(cfg config.Config, svc Services, collector *metrics.Collector, gatherer prometheus.Gatherer, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(collector))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id", "X-Snapshot-Persisted"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:        svc.Store,
		Context:      svc.Context,
		Forecasts:    svc.Forecasts,
		Snapshots:    svc.Snapshots,
		Tickets:      svc.Tickets,
		Locator:      svc.Locator,
		Logger:       logger,
		ForecastDays: cfg.ForecastDays,
		MaxDays:      config.MaxForecastDays,
	}

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	{
		api.GET("/hotels/:hotelId/operations-context", h.OperationsContext)
		api.GET("/hotels/:hotelId/advisories", h.Advisories)
		api.GET("/hotels/:hotelId/pricing/forecast", h.PricingForecast)
		api.GET("/hotels/:hotelId/pricing/snapshot", h.PricingSnapshot)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/advisory/create-ticket", h.CreateAdvisoryTicket)
		admin.POST("/pricing-action/create-ticket", h.CreatePricingTicket)
		admin.POST("/admin/hotels/:hotelId/geocode", h.GeocodeHotel)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
