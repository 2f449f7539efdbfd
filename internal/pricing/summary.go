package pricing

import (
	"math"
	"sort"

	"github.com/hotelops/backend/internal/models"
)

const summaryNights = 7

func summarize(calendar []models.PricingCalendarNight, w *models.WeatherContext) models.PricingSummary {
	fresh := w != nil && w.IsFresh
	summary := models.PricingSummary{
		Nights:       len(calendar),
		DemandTrend:  models.DemandTrendFlat,
		Confidence:   models.ConfidenceLow,
		WeatherFresh: fresh,
	}
	for _, n := range calendar {
		switch {
		case n.OccupancyForecast >= 0.70:
			summary.HighDemandNights++
		case n.OccupancyForecast <= 0.40:
			summary.LowDemandNights++
		}
	}
	if len(calendar) == 0 {
		return summary
	}

	head := calendar[:min(summaryNights, len(calendar))]
	var (
		occSum, weightSum float64
		covered           int
		adjustments       = make([]int, 0, len(head))
	)
	for _, n := range head {
		occSum += n.OccupancyForecast
		weightSum += n.Confidence.Weight()
		adjustments = append(adjustments, n.SuggestedAdjustmentPct)
		if n.MarketSamples > 0 {
			covered++
		}
	}

	avg := occSum / float64(len(head))
	summary.OccupancyNext7dAvg = math.Round(avg*1000) / 1000
	switch {
	case avg >= 0.70:
		summary.DemandTrend = models.DemandTrendUp
	case avg <= 0.40:
		summary.DemandTrend = models.DemandTrendDown
	}
	summary.OpportunityPct = medianInt(adjustments)
	summary.MarketCoveragePct = int(math.Round(float64(covered) / float64(len(head)) * 100))

	weight := weightSum / float64(len(head))
	switch {
	case weight >= 1.5:
		summary.Confidence = models.ConfidenceHigh
	case weight >= 0.75:
		summary.Confidence = models.ConfidenceMedium
	}
	if !fresh && summary.Confidence == models.ConfidenceHigh {
		summary.Confidence = models.ConfidenceMedium
	}
	return summary
}

func medianInt(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return int(math.Round(float64(sorted[mid-1]+sorted[mid]) / 2))
}
