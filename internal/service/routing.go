package service

import (
	"fmt"
	"strings"

	"github.com/hotelops/backend/internal/models"
	"github.com/hotelops/backend/internal/utils"
)

const AdvisorySourceWeather = "weather"

type departmentRule struct {
	department models.Department
	keywords   []string
}

// departmentRules is evaluated in order; the first rule with a matching keyword wins.
var departmentRules = []departmentRule{
	{models.DepartmentFrontDesk, []string{"umbrella", "check-in", "check in", "reception", "lobby", "arrival", "signage"}},
	{models.DepartmentFoodBeverage, []string{"seating", "restaurant", "dining", "hydration", "breakfast", "terrace"}},
	{models.DepartmentMaintenance, []string{"furniture", "maintenance", "repair", "leak", "generator", "hvac", "roof"}},
	{models.DepartmentHousekeeping, []string{"housekeeping", "towel", "linen", "cleaning"}},
	{models.DepartmentSecurity, []string{"security", "evacuat", "emergency", "intruder"}},
	{models.DepartmentRevenue, []string{"pricing", "room rate", "adr", "revenue", "discount"}},
	{models.DepartmentFrontDesk, []string{"transport", "shuttle", "taxi", "departure"}},
}

var safetyKeywords = []string{"safety", "storm", "thunder", "emergency", "evacuat", "lightning"}

type RouteRequest struct {
	Title          string
	Reason         string
	Priority       models.TicketPriority
	Category       models.TicketCategory
	DepartmentHint string
}

type Routing struct {
	Department models.Department
	Priority   models.TicketPriority
	Category   models.TicketCategory
}

// Route picks department, priority and category for a ticket. A department hint wins over the
// keyword table. Safety keywords escalate to URGENT/SAFETY and nothing lowers that afterwards.
func Route(req RouteRequest) Routing {
	text := strings.ToLower(req.Title + " " + req.Reason)
	out := Routing{
		Department: models.DepartmentManagement,
		Priority:   req.Priority,
		Category:   req.Category,
	}
	if out.Priority == "" {
		out.Priority = models.TicketPriorityMedium
	}
	if out.Category == "" {
		out.Category = models.TicketCategoryWeatherAdvisory
	}

	if strings.TrimSpace(req.DepartmentHint) != "" {
		out.Department = models.ParseDepartment(req.DepartmentHint)
	} else {
		for _, rule := range departmentRules {
			if containsAny(text, rule.keywords) {
				out.Department = rule.department
				break
			}
		}
	}

	if containsAny(text, safetyKeywords) {
		out.Priority = models.TicketPriorityUrgent
		out.Category = models.TicketCategorySafety
	}
	return out
}

// AdvisoryID is stable across generations for the same title and priority.
func AdvisoryID(title string, priority models.AdvisoryPriority) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(title)), " ")
	return fmt.Sprintf("adv_%016x", utils.HashStringToUint64(normalized+"|"+string(priority)))
}

func RouteAdvisory(action models.WeatherOpsAction) models.RoutedAdvisory {
	r := Route(RouteRequest{
		Title:    action.Title,
		Reason:   action.Reason,
		Priority: action.Priority.TicketPriority(),
		Category: models.ParseTicketCategory(action.Category),
	})
	return models.RoutedAdvisory{
		ID:         AdvisoryID(action.Title, action.Priority),
		Title:      action.Title,
		Reason:     action.Reason,
		Priority:   action.Priority,
		Department: r.Department,
		Category:   action.Category,
		Source:     AdvisorySourceWeather,
	}
}

func RouteAdvisories(actions []models.WeatherOpsAction) []models.RoutedAdvisory {
	out := make([]models.RoutedAdvisory, 0, len(actions))
	for _, a := range actions {
		out = append(out, RouteAdvisory(a))
	}
	return out
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
