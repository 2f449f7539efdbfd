// Package advisory turns a weather reading and the next-24h operations window into a short
// list of staff actions. Everything here is pure.
package advisory

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hotelops/backend/internal/models"
)

const MaxActions = 5

const (
	hotDayC            = 32.0
	coldDayC           = 5.0
	peakArrivals       = 20
	peakDepartures     = 15
	highInhouse        = 40
	categoryOperations = "operations"
	categoryGuest      = "guest_experience"
	categoryFood       = "food_beverage"
	categorySafety     = "safety"
	categoryMaint      = "maintenance"
	categoryStaffing   = "staffing"
)

type Result struct {
	Actions        []models.WeatherOpsAction `json:"actions"`
	GeneratedAtUTC time.Time                 `json:"generated_at_utc"`
}

type builder struct {
	actions []models.WeatherOpsAction
	seen    map[string]struct{}
}

func (b *builder) add(title, reason string, priority models.AdvisoryPriority, category string) {
	key := strings.ToLower(strings.TrimSpace(title))
	if _, ok := b.seen[key]; ok {
		return
	}
	b.seen[key] = struct{}{}
	b.actions = append(b.actions, models.WeatherOpsAction{
		Title:    title,
		Reason:   reason,
		Priority: priority,
		Category: category,
	})
}

// Derive evaluates the rules in a fixed order. The result is ordered by priority, rule order
// breaking ties, and holds at most MaxActions entries. ops may be nil.
func Derive(weather *models.WeatherContext, ops *models.OpsWindow, now time.Time) Result {
	res := Result{Actions: []models.WeatherOpsAction{}, GeneratedAtUTC: now.UTC()}
	if !weather.Synced() {
		return res
	}

	b := &builder{seen: map[string]struct{}{}}
	next := weather.Next24h
	summary := strings.ToLower(next.Summary)
	stormy := strings.Contains(summary, "storm") || strings.Contains(summary, "thunder")
	windy := strings.Contains(summary, "wind")
	cold := next.LowC != nil && *next.LowC <= coldDayC

	if !weather.IsFresh {
		b.add("Refresh weather forecast now",
			fmt.Sprintf("Weather data is %.1f hours old; advisories may be outdated", weather.StaleHours),
			models.AdvisoryPriorityHigh, categoryOperations)
	}

	switch next.RainRisk {
	case models.RainRiskHigh:
		b.add("Stage umbrellas at reception", "High rain risk in the next 24 hours", models.AdvisoryPriorityHigh, categoryGuest)
		b.add("Prioritize indoor seating", "High rain risk; move outdoor reservations indoors", models.AdvisoryPriorityMedium, categoryFood)
	case models.RainRiskMedium:
		b.add("Post rain contingency signage", "Moderate rain risk in the next 24 hours", models.AdvisoryPriorityMedium, categoryGuest)
	}

	if stormy {
		b.add("Issue weather safety advisory at check-in", fmt.Sprintf("Forecast mentions storms: %s", next.Summary), models.AdvisoryPriorityHigh, categorySafety)
	}
	if windy {
		b.add("Secure outdoor furniture", fmt.Sprintf("Forecast mentions wind: %s", next.Summary), models.AdvisoryPriorityMedium, categoryMaint)
	}
	if next.HighC != nil && *next.HighC >= hotDayC {
		b.add("Increase hydration station checks", fmt.Sprintf("High of %.0f°C expected", *next.HighC), models.AdvisoryPriorityMedium, categoryGuest)
	}
	if cold {
		b.add("Prepare cold-weather arrival support", fmt.Sprintf("Low of %.0f°C expected", *next.LowC), models.AdvisoryPriorityMedium, categoryGuest)
	}

	if ops != nil {
		rainy := next.RainRisk == models.RainRiskHigh || next.RainRisk == models.RainRiskMedium
		if ops.ArrivalsNext24h >= peakArrivals && rainy {
			b.add("Add lobby arrival coverage for peak check-in",
				fmt.Sprintf("%d arrivals expected with %s rain risk", ops.ArrivalsNext24h, next.RainRisk),
				models.AdvisoryPriorityHigh, categoryStaffing)
		}
		if ops.DeparturesNext24h >= peakDepartures && cold {
			b.add("Confirm departure transport readiness",
				fmt.Sprintf("%d departures expected in cold weather", ops.DeparturesNext24h),
				models.AdvisoryPriorityMedium, categoryGuest)
		}
		if ops.InhouseNow >= highInhouse && (stormy || windy) {
			b.add("Pre-brief maintenance on weather response",
				fmt.Sprintf("%d guests in-house with severe weather forecast", ops.InhouseNow),
				models.AdvisoryPriorityMedium, categoryMaint)
		}
	}

	if len(b.actions) == 0 {
		b.add("Proceed with standard operations plan", "No weather or occupancy triggers fired", models.AdvisoryPriorityLow, categoryOperations)
	}

	sort.SliceStable(b.actions, func(i, j int) bool {
		return b.actions[i].Priority.Rank() > b.actions[j].Priority.Rank()
	})
	if len(b.actions) > MaxActions {
		b.actions = b.actions[:MaxActions]
	}
	res.Actions = b.actions
	return res
}
