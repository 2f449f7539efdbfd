package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hotelops/backend/internal/config"
	"github.com/hotelops/backend/internal/db"
	"github.com/hotelops/backend/internal/geocode"
	httpapi "github.com/hotelops/backend/internal/http"
	"github.com/hotelops/backend/internal/metrics"
	"github.com/hotelops/backend/internal/pricing"
	"github.com/hotelops/backend/internal/service"
	"github.com/hotelops/backend/internal/weather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "hotelops-backend").Str("env", cfg.Env).Logger()

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	if cfg.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to apply schema")
		}
		logger.Info().Msg("schema applied")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(cfg.MetricsNamespace, reg)

	locator := geocode.HotelLocator{
		Store:    store,
		Geocoder: geocode.NewNominatimGeocoder(cfg.GeocoderBaseURL, cfg.GeocoderUserAgent),
		Country:  cfg.CountryDefault,
		Logger:   logger,
	}

	var weatherSource interface {
		weather.Provider
		weather.ReadingSource
	}
	switch cfg.WeatherSource {
	case "open-meteo":
		weatherSource = weather.OpenMeteoProvider{
			BaseURL:    cfg.WeatherBaseURL,
			Client:     &http.Client{Timeout: cfg.DependencyTimeout},
			Locator:    locator,
			StaleAfter: cfg.WeatherStaleAfter,
		}
		logger.Info().Str("base_url", cfg.WeatherBaseURL).Msg("using open-meteo weather provider")
	default:
		weatherSource = weather.StoreProvider{Store: store, StaleAfter: cfg.WeatherStaleAfter}
	}
	var weatherProvider weather.Provider = weatherSource
	if cfg.RedisAddr != "" {
		rdb, err := weather.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, weather cache disabled")
		} else {
			defer rdb.Close()
			weatherProvider = weather.CachedProvider{
				Next:       weatherSource,
				Redis:      rdb,
				TTL:        cfg.WeatherCacheTTL,
				StaleAfter: cfg.WeatherStaleAfter,
				Logger:     logger,
			}
			logger.Info().Str("addr", cfg.RedisAddr).Msg("weather cache enabled")
		}
	}

	generator := &pricing.Generator{
		Bookings: store,
		Rooms:    store,
		Market:   store,
		Weather:  weatherProvider,
		Logger:   logger,
		Metrics:  collector,
		Timeout:  cfg.DependencyTimeout,
		Version:  cfg.ForecastVersion,
	}
	snapshots := &pricing.SnapshotCache{
		Store:      store,
		Forecaster: generator,
		MaxAge:     cfg.SnapshotMaxAge,
		Version:    cfg.ForecastVersion,
		DaysAhead:  cfg.ForecastDays,
		Timeout:    cfg.DependencyTimeout,
		Logger:     logger,
		Metrics:    collector,
	}
	opsContext := &service.OpsContextService{
		Ops:             store,
		Tickets:         store,
		Weather:         weatherProvider,
		Pricing:         snapshots,
		Logger:          logger,
		Metrics:         collector,
		Timeout:         cfg.DependencyTimeout,
		PricingTimeout:  cfg.PricingTimeout,
		DedupWindow:     cfg.AdvisoryDedupWindow,
		ForecastVersion: cfg.ForecastVersion,
	}
	ticketing := &service.TicketingService{
		Store:       store,
		Validator:   service.NewValidator(),
		Logger:      logger,
		Metrics:     collector,
		DedupWindow: cfg.AdvisoryDedupWindow,
	}

	router := httpapi.Router(cfg, httpapi.Services{
		Store:     store,
		Context:   opsContext,
		Forecasts: generator,
		Snapshots: snapshots,
		Tickets:   ticketing,
		Locator:   locator,
	}, collector, reg, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
