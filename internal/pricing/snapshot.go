package pricing

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hotelops/backend/internal/apierr"
	"github.com/hotelops/backend/internal/metrics"
	"github.com/hotelops/backend/internal/models"
)

const DefaultSnapshotMaxAge = 90 * time.Minute

type SnapshotStore interface {
	LatestSnapshot(ctx context.Context, hotelID, version string) (*models.PricingSnapshot, error)
	AppendSnapshot(ctx context.Context, snap models.PricingSnapshot) error
}

type Forecaster interface {
	Generate(ctx context.Context, hotelID string, daysAhead int) (models.PricingForecastResult, error)
}

// SnapshotCache serves the newest persisted forecast while it is young enough and otherwise
// computes a new one and appends it. Rows are never updated. Two callers missing at the same
// time may both append; readers only ever look at the newest row.
type SnapshotCache struct {
	Store      SnapshotStore
	Forecaster Forecaster
	MaxAge     time.Duration
	Version    string
	DaysAhead  int
	Timeout    time.Duration
	Logger     zerolog.Logger
	Metrics    *metrics.Collector
	Now        func() time.Time
}

// Resolve never drops a computed forecast: when the append fails the live result is
// returned together with a persistence error.
func (c *SnapshotCache) Resolve(ctx context.Context, hotelID string) (models.ResolvedForecast, error) {
	if hotelID == "" {
		return models.ResolvedForecast{}, apierr.Validation("hotelId", "is required")
	}
	now := c.now().UTC()
	maxAge := c.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultSnapshotMaxAge
	}

	lookupCtx, cancel := c.storeContext(ctx)
	snap, err := c.Store.LatestSnapshot(lookupCtx, hotelID, c.Version)
	cancel()
	switch {
	case err != nil:
		c.Metrics.RecordSnapshotLookup("error")
		c.Logger.Warn().Err(err).Str("hotel_id", hotelID).Msg("snapshot lookup failed, recomputing")
	case snap != nil && now.Sub(snap.GeneratedAtUTC) <= maxAge:
		c.Metrics.RecordSnapshotLookup("hit")
		result := snap.Result
		return models.ResolvedForecast{
			Mode:       models.ForecastModeSnapshot,
			AgeMinutes: ageMinutes(now, snap.GeneratedAtUTC),
			Forecast:   &result,
		}, nil
	default:
		c.Metrics.RecordSnapshotLookup("miss")
	}

	forecast, err := c.Forecaster.Generate(ctx, hotelID, c.DaysAhead)
	if err != nil {
		return models.ResolvedForecast{}, err
	}
	if forecast.Version == "" {
		forecast.Version = c.Version
	}
	resolved := models.ResolvedForecast{
		Mode:       models.ForecastModeLiveFallback,
		AgeMinutes: ageMinutes(now, forecast.GeneratedAtUTC),
		Forecast:   &forecast,
	}

	appendCtx, cancel := c.storeContext(ctx)
	defer cancel()
	err = c.Store.AppendSnapshot(appendCtx, models.PricingSnapshot{
		ID:             uuid.NewString(),
		HotelID:        hotelID,
		Version:        c.Version,
		GeneratedAtUTC: forecast.GeneratedAtUTC,
		Result:         forecast,
		CreatedAt:      now,
	})
	if err != nil {
		c.Logger.Error().Err(err).Str("hotel_id", hotelID).Msg("failed to append pricing snapshot")
		return resolved, apierr.Persistence("failed to persist pricing snapshot", err)
	}
	return resolved, nil
}

// storeContext bounds a single snapshot store call.
func (c *SnapshotCache) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}

func (c *SnapshotCache) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func ageMinutes(now, generated time.Time) float64 {
	age := now.Sub(generated).Minutes()
	if age < 0 {
		age = 0
	}
	return math.Round(age*10) / 10
}
