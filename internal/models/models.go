package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Booking struct {
	ID       string          `json:"id"`
	HotelID  string          `json:"hotel_id"`
	Status   string          `json:"status"`
	CheckIn  time.Time       `json:"check_in"`
	CheckOut time.Time       `json:"check_out"`
	RoomRate decimal.Decimal `json:"room_rate"`
}

type RateSample struct {
	HotelID    string          `json:"hotel_id"`
	Competitor string          `json:"competitor"`
	NightDate  time.Time       `json:"night_date"`
	Rate       decimal.Decimal `json:"rate"`
	CapturedAt time.Time       `json:"captured_at"`
}

type HotelLocation struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	City    string   `json:"city"`
	Address string   `json:"address"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

type OpsWindow struct {
	WindowStartUTC    time.Time `json:"window_start_utc"`
	WindowEndUTC      time.Time `json:"window_end_utc"`
	ArrivalsNext24h   int       `json:"arrivals_next_24h"`
	DeparturesNext24h int       `json:"departures_next_24h"`
	InhouseNow        int       `json:"inhouse_now"`
}

type WeatherOpsAction struct {
	Title    string           `json:"title"`
	Reason   string           `json:"reason"`
	Priority AdvisoryPriority `json:"priority"`
	Category string           `json:"category"`
}

type TicketRef struct {
	TicketID   string       `json:"ticket_id"`
	Status     TicketStatus `json:"status"`
	AdvisoryID string       `json:"advisory_id,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

type RoutedAdvisory struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Reason        string           `json:"reason"`
	Priority      AdvisoryPriority `json:"priority"`
	Department    Department       `json:"department"`
	Category      string           `json:"category"`
	Source        string           `json:"source"`
	CreatedTicket *TicketRef       `json:"created_ticket,omitempty"`
}

type Ticket struct {
	ID             string         `json:"id"`
	HotelID        string         `json:"hotel_id"`
	ConversationID string         `json:"conversation_id"`
	Title          string         `json:"title"`
	Department     Department     `json:"department"`
	Category       TicketCategory `json:"category"`
	Priority       TicketPriority `json:"priority"`
	Status         TicketStatus   `json:"status"`
	AssignedToID   *string        `json:"assigned_to_id"`
	SourceKey      *string        `json:"source_key,omitempty"`
	Details        []byte         `json:"details"`
	CreatedAt      time.Time      `json:"created_at"`
}

type Conversation struct {
	ID        string    `json:"id"`
	HotelID   string    `json:"hotel_id"`
	Subject   string    `json:"subject"`
	Channel   string    `json:"channel"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderType     string    `json:"sender_type"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}

type AuditEntry struct {
	ID         string    `json:"id"`
	HotelID    string    `json:"hotel_id"`
	ActorID    *string   `json:"actor_id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Metadata   []byte    `json:"metadata"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	AuditActionAdvisoryTicket = "ADVISORY_TICKET_CREATED"
	AuditActionPricingTicket  = "PRICING_TICKET_CREATED"
)

// StaffMember is a candidate assignee; OpenTickets is the live ticket count used as load.
type StaffMember struct {
	ID          string     `json:"id"`
	HotelID     string     `json:"hotel_id"`
	Name        string     `json:"name"`
	Department  Department `json:"department"`
	OpenTickets int        `json:"open_tickets"`
}
