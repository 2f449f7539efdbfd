package geocode

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/hotelops/backend/internal/apierr"
	"github.com/hotelops/backend/internal/models"
)

type HotelStore interface {
	GetHotelLocation(ctx context.Context, hotelID string) (models.HotelLocation, error)
	UpdateHotelCoordinates(ctx context.Context, hotelID string, lat, lon float64) error
}

// HotelLocator returns stored hotel coordinates, geocoding and saving them on first use.
type HotelLocator struct {
	Store    HotelStore
	Geocoder Geocoder
	Country  string
	Logger   zerolog.Logger
}

func (l HotelLocator) Locate(ctx context.Context, hotelID string) (models.HotelLocation, error) {
	return l.resolve(ctx, hotelID, false)
}

// Refresh geocodes the hotel even when coordinates are already stored.
func (l HotelLocator) Refresh(ctx context.Context, hotelID string) (models.HotelLocation, error) {
	return l.resolve(ctx, hotelID, true)
}

func (l HotelLocator) resolve(ctx context.Context, hotelID string, force bool) (models.HotelLocation, error) {
	hotel, err := l.Store.GetHotelLocation(ctx, hotelID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.HotelLocation{}, apierr.NotFound(fmt.Sprintf("hotel %s not found", hotelID))
		}
		return models.HotelLocation{}, err
	}
	if !ShouldGeocode(hotel, force) {
		return hotel, nil
	}

	query := BuildGeocodeQuery(l.Country, hotel.City, hotel.Address)
	if query == "" {
		return hotel, apierr.Validation("address", "hotel has no address to geocode")
	}
	res, err := l.Geocoder.Geocode(ctx, query)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return hotel, apierr.NotFound(fmt.Sprintf("no geocoding match for hotel %s", hotelID))
		}
		return hotel, apierr.Dependency("geocoder", err)
	}
	if err := l.Store.UpdateHotelCoordinates(ctx, hotelID, res.Lat, res.Lon); err != nil {
		l.Logger.Warn().Err(err).Str("hotel_id", hotelID).Msg("failed to store hotel coordinates")
	}
	hotel.Lat, hotel.Lon = &res.Lat, &res.Lon
	l.Logger.Info().Str("hotel_id", hotelID).Str("display_name", res.DisplayName).Msg("hotel geocoded")
	return hotel, nil
}
