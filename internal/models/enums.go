package models

import "strings"

type Department string

const (
	DepartmentFrontDesk    Department = "FRONT_DESK"
	DepartmentHousekeeping Department = "HOUSEKEEPING"
	DepartmentMaintenance  Department = "MAINTENANCE"
	DepartmentFoodBeverage Department = "FOOD_BEVERAGE"
	DepartmentSecurity     Department = "SECURITY"
	DepartmentRevenue      Department = "REVENUE"
	DepartmentManagement   Department = "MANAGEMENT"
)

// ParseDepartment accepts the canonical names plus the spellings staff tend to type.
// Anything unrecognized routes to MANAGEMENT.
func ParseDepartment(value string) Department {
	v := strings.ToUpper(strings.TrimSpace(value))
	v = strings.NewReplacer("-", "_", " ", "_", "&", "_").Replace(v)
	switch v {
	case "FRONT_DESK", "FRONTDESK", "RECEPTION", "FRONT_OFFICE":
		return DepartmentFrontDesk
	case "HOUSEKEEPING", "HK":
		return DepartmentHousekeeping
	case "MAINTENANCE", "ENGINEERING":
		return DepartmentMaintenance
	case "FOOD_BEVERAGE", "F_B", "FNB", "F__B", "RESTAURANT":
		return DepartmentFoodBeverage
	case "SECURITY", "SAFETY":
		return DepartmentSecurity
	case "REVENUE", "REVENUE_MANAGEMENT", "SALES":
		return DepartmentRevenue
	default:
		return DepartmentManagement
	}
}

type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

func (p TicketPriority) Rank() int {
	switch p {
	case TicketPriorityUrgent:
		return 3
	case TicketPriorityHigh:
		return 2
	case TicketPriorityMedium:
		return 1
	default:
		return 0
	}
}

type TicketCategory string

const (
	TicketCategoryWeatherAdvisory TicketCategory = "WEATHER_ADVISORY"
	TicketCategoryPricingAction   TicketCategory = "PRICING_ACTION"
	TicketCategoryOperations      TicketCategory = "OPERATIONS"
	TicketCategorySafety          TicketCategory = "SAFETY"
)

// ParseTicketCategory maps advisory categories onto ticket categories.
func ParseTicketCategory(value string) TicketCategory {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "safety":
		return TicketCategorySafety
	case "pricing", "pricing_action", "revenue":
		return TicketCategoryPricingAction
	case "operations", "staffing", "maintenance", "guest_experience", "food_beverage":
		return TicketCategoryOperations
	default:
		return TicketCategoryWeatherAdvisory
	}
}

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

func (s TicketStatus) Live() bool {
	return s == TicketStatusOpen || s == TicketStatusInProgress
}

type AdvisoryPriority string

const (
	AdvisoryPriorityLow    AdvisoryPriority = "low"
	AdvisoryPriorityMedium AdvisoryPriority = "medium"
	AdvisoryPriorityHigh   AdvisoryPriority = "high"
)

// ParseAdvisoryPriority reports false for anything outside low/medium/high.
func ParseAdvisoryPriority(value string) (AdvisoryPriority, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "low":
		return AdvisoryPriorityLow, true
	case "medium":
		return AdvisoryPriorityMedium, true
	case "high":
		return AdvisoryPriorityHigh, true
	default:
		return "", false
	}
}

func (p AdvisoryPriority) Rank() int {
	switch p {
	case AdvisoryPriorityHigh:
		return 2
	case AdvisoryPriorityMedium:
		return 1
	default:
		return 0
	}
}

func (p AdvisoryPriority) TicketPriority() TicketPriority {
	switch p {
	case AdvisoryPriorityHigh:
		return TicketPriorityHigh
	case AdvisoryPriorityMedium:
		return TicketPriorityMedium
	default:
		return TicketPriorityLow
	}
}

type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

func (c Confidence) Weight() float64 {
	switch c {
	case ConfidenceHigh:
		return 2
	case ConfidenceMedium:
		return 1
	default:
		return 0
	}
}

type RainRisk string

const (
	RainRiskLow    RainRisk = "low"
	RainRiskMedium RainRisk = "medium"
	RainRiskHigh   RainRisk = "high"
)

func ParseRainRisk(value string) RainRisk {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "high":
		return RainRiskHigh
	case "medium", "moderate":
		return RainRiskMedium
	default:
		return RainRiskLow
	}
}

const (
	BookingStatusPending    = "PENDING"
	BookingStatusConfirmed  = "CONFIRMED"
	BookingStatusCheckedIn  = "CHECKED_IN"
	BookingStatusCheckedOut = "CHECKED_OUT"
	BookingStatusCancelled  = "CANCELLED"
	BookingStatusNoShow     = "NO_SHOW"
)

// ActiveBookingStatuses are the statuses that occupy inventory for forecasting.
var ActiveBookingStatuses = []string{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusCheckedIn,
	BookingStatusCheckedOut,
}
