package pricing

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hotelops/backend/internal/models"
)

const (
	maxAdjustmentPct   = 15
	lowConfidenceAfter = 21
	maxReasons         = 5
	dateLayout         = "2006-01-02"
)

type marketStats struct {
	median  decimal.Decimal
	min     decimal.Decimal
	max     decimal.Decimal
	samples int
}

func buildCalendar(start time.Time, days int, in inputs) []models.PricingCalendarNight {
	ratesByNight := map[string][]decimal.Decimal{}
	for _, r := range in.rates {
		key := r.NightDate.UTC().Format(dateLayout)
		ratesByNight[key] = append(ratesByNight[key], r.Rate)
	}

	calendar := make([]models.PricingCalendarNight, 0, days)
	for i := 0; i < days; i++ {
		night := start.AddDate(0, 0, i)
		key := night.Format(dateLayout)
		calendar = append(calendar, computeNight(night, i, in, ratesByNight[key]))
	}
	return calendar
}

func computeNight(night time.Time, daysAhead int, in inputs, rates []decimal.Decimal) models.PricingCalendarNight {
	var (
		count, arrivals, departures int
		rateSum                     decimal.Decimal
		rated                       int
	)
	for _, b := range in.bookings {
		checkIn := startOfDay(b.CheckIn)
		checkOut := startOfDay(b.CheckOut)
		if checkIn.Equal(night) {
			arrivals++
		}
		if checkOut.Equal(night) {
			departures++
		}
		if !checkIn.After(night) && night.Before(checkOut) {
			count++
			if b.RoomRate.IsPositive() {
				rateSum = rateSum.Add(b.RoomRate)
				rated++
			}
		}
	}

	occupancy := math.Min(1, float64(count)/float64(in.capacity))

	out := models.PricingCalendarNight{
		Date:              night.Format(dateLayout),
		DaysAheadFromNow:  daysAhead,
		BookingsCount:     count,
		Arrivals:          arrivals,
		Departures:        departures,
		OccupancyForecast: math.Round(occupancy*1000) / 1000,
		MarketSamples:     len(rates),
	}

	var adr decimal.Decimal
	if rated > 0 {
		adr = rateSum.Div(decimal.NewFromInt(int64(rated))).Round(2)
		out.ADREstimate = money(adr)
	}

	if stats, ok := computeMarket(rates); ok {
		out.MarketMedian = money(stats.median)
		out.MarketMin = money(stats.min)
		out.MarketMax = money(stats.max)
		if rated > 0 && stats.median.IsPositive() {
			pct := int(math.Round(adr.Sub(stats.median).Div(stats.median).InexactFloat64() * 100))
			out.PositionVsMarketPct = &pct
		}
	}

	fresh := in.weather != nil && in.weather.IsFresh
	if in.weather != nil {
		out.Weather = &models.NightWeather{
			IsFresh:  in.weather.IsFresh,
			Summary:  in.weather.Next24h.Summary,
			RainRisk: in.weather.Next24h.RainRisk,
			HighC:    in.weather.Next24h.HighC,
			LowC:     in.weather.Next24h.LowC,
		}
	}

	score := demandScore(occupancy, arrivals, departures) + weatherScore(in.weather)
	out.SuggestedAdjustmentPct = clampInt(int(math.Round(score)), -maxAdjustmentPct, maxAdjustmentPct)
	out.Confidence = nightConfidence(daysAhead, in.capacity, occupancy, count, fresh)
	out.Reasons = nightReasons(out, in.capacity, in.weather)
	return out
}

// demandScore is driven by occupancy with a small nudge from arrival/departure balance.
func demandScore(occupancy float64, arrivals, departures int) float64 {
	var score float64
	switch {
	case occupancy >= 0.85:
		score = 9
	case occupancy >= 0.70:
		score = 6
	case occupancy >= 0.55:
		score = 3
	case occupancy <= 0.25:
		score = -7
	case occupancy <= 0.40:
		score = -4
	}
	switch {
	case arrivals > departures:
		score += 2
	case arrivals < departures:
		score--
	}
	return score
}

// weatherScore only applies to fresh readings and stays small relative to demand.
func weatherScore(w *models.WeatherContext) float64 {
	if w == nil || !w.IsFresh {
		return 0
	}
	var score float64
	switch w.Next24h.RainRisk {
	case models.RainRiskHigh:
		score -= 2
	case models.RainRiskMedium:
		score--
	}
	summary := strings.ToLower(w.Next24h.Summary)
	if strings.Contains(summary, "storm") || strings.Contains(summary, "thunder") {
		score -= 2
	}
	if strings.Contains(summary, "snow") {
		score -= 2
	}
	return score
}

func nightConfidence(daysAhead, capacity int, occupancy float64, bookings int, freshWeather bool) models.Confidence {
	if daysAhead > lowConfidenceAfter || capacity <= 1 {
		return models.ConfidenceLow
	}
	score := 0
	switch {
	case occupancy >= 0.75:
		score += 2
	case occupancy >= 0.5:
		score++
	}
	switch {
	case bookings >= 10:
		score += 2
	case bookings >= 5:
		score++
	}
	if !freshWeather {
		score--
	}
	switch {
	case score >= 3:
		return models.ConfidenceHigh
	case score >= 1:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

func nightReasons(n models.PricingCalendarNight, capacity int, w *models.WeatherContext) []string {
	reasons := []string{
		fmt.Sprintf("Occupancy forecast %d%% (%d of %d rooms)", int(math.Round(n.OccupancyForecast*100)), n.BookingsCount, capacity),
		fmt.Sprintf("%d arrivals vs %d departures", n.Arrivals, n.Departures),
	}
	switch {
	case w == nil:
		reasons = append(reasons, "No weather data; weather not factored")
	case !w.IsFresh:
		reasons = append(reasons, fmt.Sprintf("Weather data is %.1fh old; weather not factored", w.StaleHours))
	default:
		reasons = append(reasons, fmt.Sprintf("Fresh weather: %s rain risk", w.Next24h.RainRisk))
	}
	if n.PositionVsMarketPct != nil {
		reasons = append(reasons, fmt.Sprintf("ADR %+d%% vs market median (%d samples)", *n.PositionVsMarketPct, n.MarketSamples))
	}
	switch {
	case n.DaysAheadFromNow > lowConfidenceAfter:
		reasons = append(reasons, fmt.Sprintf("Confidence %s: more than %d days out", n.Confidence, lowConfidenceAfter))
	case capacity <= 1:
		reasons = append(reasons, fmt.Sprintf("Confidence %s: room inventory unknown", n.Confidence))
	default:
		reasons = append(reasons, fmt.Sprintf("Confidence %s", n.Confidence))
	}
	if len(reasons) > maxReasons {
		reasons = reasons[:maxReasons]
	}
	return reasons
}

func computeMarket(rates []decimal.Decimal) (marketStats, bool) {
	if len(rates) == 0 {
		return marketStats{}, false
	}
	sorted := append([]decimal.Decimal(nil), rates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2))
	}
	return marketStats{
		median:  median,
		min:     sorted[0],
		max:     sorted[len(sorted)-1],
		samples: len(sorted),
	}, true
}

func money(d decimal.Decimal) *float64 {
	f := d.Round(2).InexactFloat64()
	return &f
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
