package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hotelops/backend/internal/models"
)

// WeatherSync is a raw provider reading as stored by the weather sync job.
type WeatherSync struct {
	HotelID           string
	SyncedAt          time.Time
	Location          string
	Summary           string
	PrecipProbability *float64
	RainRisk          *string
	HighC             *float64
	LowC              *float64
}

// LatestWeatherSync returns nil when the hotel has never been synced.
func (s *Store) LatestWeatherSync(ctx context.Context, hotelID string) (*WeatherSync, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT hotel_id, synced_at, location, summary, precip_probability, rain_risk, high_c, low_c
		FROM weather_syncs
		WHERE hotel_id = $1
		ORDER BY synced_at DESC
		LIMIT 1
	`, hotelID)

	var w WeatherSync
	if err := row.Scan(&w.HotelID, &w.SyncedAt, &w.Location, &w.Summary, &w.PrecipProbability, &w.RainRisk, &w.HighC, &w.LowC); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

func (s *Store) GetHotelLocation(ctx context.Context, hotelID string) (models.HotelLocation, error) {
	var h models.HotelLocation
	err := s.Pool.QueryRow(ctx, `
		SELECT id, name, city, address, lat, lon FROM hotels WHERE id = $1
	`, hotelID).Scan(&h.ID, &h.Name, &h.City, &h.Address, &h.Lat, &h.Lon)
	return h, err
}

func (s *Store) UpdateHotelCoordinates(ctx context.Context, hotelID string, lat, lon float64) error {
	_, err := s.Pool.Exec(ctx, `UPDATE hotels SET lat = $1, lon = $2, updated_at = NOW() WHERE id = $3`, lat, lon, hotelID)
	return err
}
