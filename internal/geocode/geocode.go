package geocode

import (
	"context"
	"errors"
	"strings"

	"github.com/hotelops/backend/internal/models"
)

var ErrNotFound = errors.New("geocode not found")

type Result struct {
	Lat         float64
	Lon         float64
	DisplayName string
	Confidence  float64
}

type Geocoder interface {
	Geocode(ctx context.Context, query string) (Result, error)
}

func BuildGeocodeQuery(country string, city string, address string) string {
	parts := []string{}
	for _, p := range []string{address, city, country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func ShouldGeocode(hotel models.HotelLocation, force bool) bool {
	if force {
		return true
	}
	return hotel.Lat == nil || hotel.Lon == nil
}
