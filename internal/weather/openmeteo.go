package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hotelops/backend/internal/models"
)

const windyThresholdKmh = 40.0

// Locator resolves a hotel to coordinates for coordinate-based providers.
type Locator interface {
	Locate(ctx context.Context, hotelID string) (models.HotelLocation, error)
}

type OpenMeteoProvider struct {
	BaseURL    string
	Client     *http.Client
	Locator    Locator
	StaleAfter time.Duration
	Now        func() time.Time
}

type openMeteoResponse struct {
	Daily struct {
		Time          []string   `json:"time"`
		WeatherCode   []int      `json:"weather_code"`
		TempMax       []*float64 `json:"temperature_2m_max"`
		TempMin       []*float64 `json:"temperature_2m_min"`
		PrecipProbMax []*float64 `json:"precipitation_probability_max"`
		WindSpeedMax  []*float64 `json:"wind_speed_10m_max"`
	} `json:"daily"`
}

func (p OpenMeteoProvider) Context(ctx context.Context, hotelID string) (*models.WeatherContext, error) {
	reading, err := p.Reading(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	return Normalize(*reading, p.now().UTC(), p.StaleAfter), nil
}

func (p OpenMeteoProvider) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p OpenMeteoProvider) Reading(ctx context.Context, hotelID string) (*Reading, error) {
	if p.Client == nil {
		p.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if p.BaseURL == "" {
		p.BaseURL = "https://api.open-meteo.com"
	}

	loc, err := p.Locator.Locate(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	if loc.Lat == nil || loc.Lon == nil {
		return nil, fmt.Errorf("hotel %s has no coordinates", hotelID)
	}

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(*loc.Lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(*loc.Lon, 'f', 4, 64))
	q.Set("daily", "weather_code,temperature_2m_max,temperature_2m_min,precipitation_probability_max,wind_speed_10m_max")
	q.Set("forecast_days", "1")
	q.Set("timezone", "UTC")
	endpoint := strings.TrimRight(p.BaseURL, "/") + "/v1/forecast?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("open-meteo http error: %s", resp.Status)
	}

	var body openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	reading, err := readingFromOpenMeteo(body, p.now().UTC())
	if err != nil {
		return nil, err
	}
	reading.Location = loc.Name
	if loc.City != "" {
		reading.Location = loc.Name + ", " + loc.City
	}
	return &reading, nil
}

func readingFromOpenMeteo(body openMeteoResponse, fetchedAt time.Time) (Reading, error) {
	d := body.Daily
	if len(d.Time) == 0 {
		return Reading{}, errors.New("open-meteo response has no daily data")
	}
	r := Reading{
		SyncedAt:          fetchedAt,
		HighC:             first(d.TempMax),
		LowC:              first(d.TempMin),
		PrecipProbability: first(d.PrecipProbMax),
	}
	code := -1
	if len(d.WeatherCode) > 0 {
		code = d.WeatherCode[0]
	}
	r.Summary = describeWeatherCode(code)
	if wind := first(d.WindSpeedMax); wind != nil && *wind >= windyThresholdKmh {
		r.Summary += ", windy"
	}
	return r, nil
}

func first(values []*float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	return values[0]
}

// describeWeatherCode maps WMO weather interpretation codes to a short summary.
func describeWeatherCode(code int) string {
	switch {
	case code == 0:
		return "Clear sky"
	case code >= 1 && code <= 3:
		return "Partly cloudy"
	case code == 45 || code == 48:
		return "Fog"
	case code >= 51 && code <= 57:
		return "Drizzle"
	case code >= 61 && code <= 67:
		return "Rain"
	case code >= 71 && code <= 77:
		return "Snow"
	case code >= 80 && code <= 82:
		return "Rain showers"
	case code == 85 || code == 86:
		return "Snow showers"
	case code == 95:
		return "Thunderstorm"
	case code == 96 || code == 99:
		return "Thunderstorm with hail"
	default:
		return "Unknown conditions"
	}
}
