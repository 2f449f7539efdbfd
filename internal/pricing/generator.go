package pricing

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hotelops/backend/internal/apierr"
	"github.com/hotelops/backend/internal/metrics"
	"github.com/hotelops/backend/internal/models"
	"github.com/hotelops/backend/internal/weather"
)

const (
	DefaultDaysAhead = 30
	SourceLive       = "live"
	SourceFallback   = "fallback"
)

type BookingStore interface {
	FindOverlapping(ctx context.Context, hotelID string, start, end time.Time, statuses []string) ([]models.Booking, error)
}

type RoomStore interface {
	CountActiveRooms(ctx context.Context, hotelID string) (int, error)
}

type MarketStore interface {
	CompetitorRates(ctx context.Context, hotelID string, start, end time.Time) ([]models.RateSample, error)
}

// Generator computes the forecast calendar. It never persists anything and never fails
// because a source is down: each source falls back to its default on error.
type Generator struct {
	Bookings BookingStore
	Rooms    RoomStore
	Market   MarketStore
	Weather  weather.Provider
	Logger   zerolog.Logger
	Metrics  *metrics.Collector
	Timeout  time.Duration
	Version  string
	Now      func() time.Time
}

// inputs are the fetched sources with defaults already applied.
type inputs struct {
	weather  *models.WeatherContext
	bookings []models.Booking
	capacity int
	rates    []models.RateSample
}

func (g *Generator) Generate(ctx context.Context, hotelID string, daysAhead int) (models.PricingForecastResult, error) {
	if hotelID == "" {
		return models.PricingForecastResult{}, apierr.Validation("hotelId", "is required")
	}
	if daysAhead <= 0 {
		daysAhead = DefaultDaysAhead
	}

	started := time.Now()
	now := g.now().UTC()
	start := startOfDay(now)
	end := start.AddDate(0, 0, daysAhead)

	in := g.fetch(ctx, hotelID, start, end)

	calendar := buildCalendar(start, daysAhead, in)
	result := models.PricingForecastResult{
		HotelID:        hotelID,
		GeneratedAtUTC: now,
		WindowStartUTC: start,
		WindowEndUTC:   end,
		Source:         SourceLive,
		Version:        g.Version,
		Summary:        summarize(calendar, in.weather),
		Calendar:       calendar,
	}
	g.Metrics.ObserveForecast(time.Since(started))
	g.Logger.Debug().
		Str("hotel_id", hotelID).
		Int("nights", len(calendar)).
		Str("confidence", string(result.Summary.Confidence)).
		Dur("took", time.Since(started)).
		Msg("pricing forecast generated")
	return result, nil
}

// fetch loads the four sources concurrently. Errors are swallowed into defaults, so the
// group never returns one.
func (g *Generator) fetch(ctx context.Context, hotelID string, start, end time.Time) inputs {
	in := inputs{capacity: 1}
	var eg errgroup.Group

	if g.Weather != nil {
		eg.Go(func() error {
			callCtx, cancel := g.callContext(ctx)
			defer cancel()
			wc, err := g.Weather.Context(callCtx, hotelID)
			if err != nil {
				g.degrade(hotelID, "weather", err)
				return nil
			}
			in.weather = wc
			return nil
		})
	}
	eg.Go(func() error {
		callCtx, cancel := g.callContext(ctx)
		defer cancel()
		bookings, err := g.Bookings.FindOverlapping(callCtx, hotelID, start, end, models.ActiveBookingStatuses)
		if err != nil {
			g.degrade(hotelID, "bookings", err)
			return nil
		}
		in.bookings = bookings
		return nil
	})
	eg.Go(func() error {
		callCtx, cancel := g.callContext(ctx)
		defer cancel()
		n, err := g.Rooms.CountActiveRooms(callCtx, hotelID)
		if err != nil {
			g.degrade(hotelID, "rooms", err)
			return nil
		}
		in.capacity = max(n, 1)
		return nil
	})
	if g.Market != nil {
		eg.Go(func() error {
			callCtx, cancel := g.callContext(ctx)
			defer cancel()
			rates, err := g.Market.CompetitorRates(callCtx, hotelID, start, end)
			if err != nil {
				g.degrade(hotelID, "market", err)
				return nil
			}
			in.rates = rates
			return nil
		})
	}
	_ = eg.Wait()
	return in
}

func (g *Generator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.Timeout)
}

func (g *Generator) degrade(hotelID, dependency string, err error) {
	g.Metrics.RecordDependencyFailure(dependency)
	g.Logger.Warn().Err(err).Str("hotel_id", hotelID).Str("dependency", dependency).Msg("forecast source unavailable, using default")
}

func (g *Generator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// FallbackForecast is the empty low-confidence forecast served when no forecast could be resolved at all.
func FallbackForecast(hotelID, version string, now time.Time) models.PricingForecastResult {
	start := startOfDay(now.UTC())
	return models.PricingForecastResult{
		HotelID:        hotelID,
		GeneratedAtUTC: now.UTC(),
		WindowStartUTC: start,
		WindowEndUTC:   start,
		Source:         SourceFallback,
		Version:        version,
		Summary: models.PricingSummary{
			DemandTrend: models.DemandTrendFlat,
			Confidence:  models.ConfidenceLow,
		},
		Calendar: []models.PricingCalendarNight{},
	}
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
