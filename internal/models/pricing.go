package models

import "time"

type WeatherNext24h struct {
	Summary  string   `json:"summary"`
	RainRisk RainRisk `json:"rain_risk"`
	HighC    *float64 `json:"high_c"`
	LowC     *float64 `json:"low_c"`
}

type WeatherContext struct {
	SyncedAtUTC time.Time      `json:"synced_at_utc"`
	IsFresh     bool           `json:"is_fresh"`
	StaleHours  float64        `json:"stale_hours"`
	Location    string         `json:"location"`
	Next24h     WeatherNext24h `json:"next_24h"`
}

// Synced reports whether the provider has ever produced a reading for the hotel.
func (w *WeatherContext) Synced() bool {
	return w != nil && !w.SyncedAtUTC.IsZero()
}

// NightWeather is the weather copy attached to a calendar night.
type NightWeather struct {
	IsFresh  bool     `json:"is_fresh"`
	Summary  string   `json:"summary"`
	RainRisk RainRisk `json:"rain_risk"`
	HighC    *float64 `json:"high_c"`
	LowC     *float64 `json:"low_c"`
}

type PricingCalendarNight struct {
	Date                   string        `json:"date"`
	DaysAheadFromNow       int           `json:"days_ahead_from_now"`
	BookingsCount          int           `json:"bookings_count"`
	Arrivals               int           `json:"arrivals"`
	Departures             int           `json:"departures"`
	OccupancyForecast      float64       `json:"occupancy_forecast"`
	ADREstimate            *float64      `json:"adr_estimate"`
	Weather                *NightWeather `json:"weather"`
	SuggestedAdjustmentPct int           `json:"suggested_adjustment_pct"`
	Confidence             Confidence    `json:"confidence"`
	Reasons                []string      `json:"reasons"`
	MarketMedian           *float64      `json:"market_median"`
	MarketMin              *float64      `json:"market_min"`
	MarketMax              *float64      `json:"market_max"`
	MarketSamples          int           `json:"market_samples"`
	PositionVsMarketPct    *int          `json:"position_vs_market_pct"`
}

type DemandTrend string

const (
	DemandTrendUp   DemandTrend = "up"
	DemandTrendDown DemandTrend = "down"
	DemandTrendFlat DemandTrend = "flat"
)

type PricingSummary struct {
	Nights             int         `json:"nights"`
	OccupancyNext7dAvg float64     `json:"occupancy_next_7d_avg"`
	DemandTrend        DemandTrend `json:"demand_trend"`
	OpportunityPct     int         `json:"opportunity_pct"`
	Confidence         Confidence  `json:"confidence"`
	MarketCoveragePct  int         `json:"market_coverage_pct"`
	WeatherFresh       bool        `json:"weather_fresh"`
	HighDemandNights   int         `json:"high_demand_nights"`
	LowDemandNights    int         `json:"low_demand_nights"`
}

type PricingForecastResult struct {
	HotelID        string                 `json:"hotel_id"`
	GeneratedAtUTC time.Time              `json:"generated_at_utc"`
	WindowStartUTC time.Time              `json:"window_start_utc"`
	WindowEndUTC   time.Time              `json:"window_end_utc"`
	Source         string                 `json:"source"`
	Version        string                 `json:"version"`
	Summary        PricingSummary         `json:"summary"`
	Calendar       []PricingCalendarNight `json:"calendar"`
}

type PricingSnapshot struct {
	ID             string                `json:"id"`
	HotelID        string                `json:"hotel_id"`
	Version        string                `json:"version"`
	GeneratedAtUTC time.Time             `json:"generated_at_utc"`
	Result         PricingForecastResult `json:"result"`
	CreatedAt      time.Time             `json:"created_at"`
}

type ForecastMode string

const (
	ForecastModeSnapshot     ForecastMode = "SNAPSHOT"
	ForecastModeLiveFallback ForecastMode = "LIVE_FALLBACK"
)

type ResolvedForecast struct {
	Mode       ForecastMode           `json:"mode"`
	AgeMinutes float64                `json:"age_minutes"`
	Forecast   *PricingForecastResult `json:"forecast"`
}

type OpsContextView struct {
	HotelID        string           `json:"hotel_id"`
	GeneratedAtUTC time.Time        `json:"generated_at_utc"`
	Ops            OpsWindow        `json:"ops"`
	Weather        *WeatherContext  `json:"weather"`
	Pricing        ResolvedForecast `json:"pricing"`
	Advisories     []RoutedAdvisory `json:"advisories"`
	Degraded       []string         `json:"degraded"`
}
