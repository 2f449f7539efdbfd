package weather

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/hotelops/backend/internal/models"
)

// Provider returns the normalized weather state for a hotel. A nil context with a nil error
// means the hotel has no reading yet.
type Provider interface {
	Context(ctx context.Context, hotelID string) (*models.WeatherContext, error)
}

// ReadingSource returns the raw reading behind a Provider. A nil reading with a nil error
// means the hotel has no reading yet.
type ReadingSource interface {
	Reading(ctx context.Context, hotelID string) (*Reading, error)
}

// Reading is a raw next-24h reading before freshness is applied.
type Reading struct {
	SyncedAt          time.Time `json:"synced_at"`
	Location          string    `json:"location"`
	Summary           string    `json:"summary"`
	PrecipProbability *float64  `json:"precip_probability"`
	RainRisk          string    `json:"rain_risk"`
	HighC             *float64  `json:"high_c"`
	LowC              *float64  `json:"low_c"`
}

// Normalize turns a reading into a WeatherContext as seen at now.
func Normalize(r Reading, now time.Time, staleAfter time.Duration) *models.WeatherContext {
	age := now.Sub(r.SyncedAt)
	if age < 0 {
		age = 0
	}
	risk := models.ParseRainRisk(r.RainRisk)
	if strings.TrimSpace(r.RainRisk) == "" {
		risk = RainRiskFromProbability(r.PrecipProbability)
	}
	return &models.WeatherContext{
		SyncedAtUTC: r.SyncedAt.UTC(),
		IsFresh:     age <= staleAfter,
		StaleHours:  math.Round(age.Hours()*10) / 10,
		Location:    r.Location,
		Next24h: models.WeatherNext24h{
			Summary:  strings.TrimSpace(r.Summary),
			RainRisk: risk,
			HighC:    r.HighC,
			LowC:     r.LowC,
		},
	}
}

// RainRiskFromProbability buckets a precipitation probability in percent.
func RainRiskFromProbability(p *float64) models.RainRisk {
	if p == nil {
		return models.RainRiskLow
	}
	switch {
	case *p >= 60:
		return models.RainRiskHigh
	case *p >= 30:
		return models.RainRiskMedium
	default:
		return models.RainRiskLow
	}
}
