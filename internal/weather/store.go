package weather

import (
	"context"
	"time"

	"github.com/hotelops/backend/internal/db"
	"github.com/hotelops/backend/internal/models"
)

type SyncReader interface {
	LatestWeatherSync(ctx context.Context, hotelID string) (*db.WeatherSync, error)
}

// StoreProvider reads the readings an external sync job writes to weather_syncs.
type StoreProvider struct {
	Store      SyncReader
	StaleAfter time.Duration
	Now        func() time.Time
}

func (p StoreProvider) Context(ctx context.Context, hotelID string) (*models.WeatherContext, error) {
	reading, err := p.Reading(ctx, hotelID)
	if err != nil || reading == nil {
		return nil, err
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	return Normalize(*reading, now().UTC(), p.StaleAfter), nil
}

func (p StoreProvider) Reading(ctx context.Context, hotelID string) (*Reading, error) {
	sync, err := p.Store.LatestWeatherSync(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	if sync == nil {
		return nil, nil
	}
	reading := Reading{
		SyncedAt:          sync.SyncedAt,
		Location:          sync.Location,
		Summary:           sync.Summary,
		PrecipProbability: sync.PrecipProbability,
		HighC:             sync.HighC,
		LowC:              sync.LowC,
	}
	if sync.RainRisk != nil {
		reading.RainRisk = *sync.RainRisk
	}
	return &reading, nil
}
