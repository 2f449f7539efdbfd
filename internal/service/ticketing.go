package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hotelops/backend/internal/apierr"
	"github.com/hotelops/backend/internal/db"
	"github.com/hotelops/backend/internal/metrics"
	"github.com/hotelops/backend/internal/models"
)

const (
	DefaultAdvisoryDedupWindow = 6 * time.Hour

	ticketSourceAdvisory = "advisory"
	ticketSourcePricing  = "pricing"

	conversationChannel = "INTERNAL"
	senderSystem        = "SYSTEM"
)

type TicketStore interface {
	FindTicketBySourceKey(ctx context.Context, hotelID, sourceKey string) (*models.Ticket, error)
	FindAdvisoryTicket(ctx context.Context, hotelID, advisoryID string, since time.Time) (*models.Ticket, error)
	WithTicketTx(ctx context.Context, fn func(tx db.TicketTx) error) error
}

type AdvisoryTicketInput struct {
	HotelID    string  `json:"hotel_id" validate:"required"`
	Title      string  `json:"title" validate:"required,max=200"`
	Reason     string  `json:"reason" validate:"max=2000"`
	Priority   string  `json:"priority" validate:"required,oneof=low medium high"`
	Category   string  `json:"category"`
	Department string  `json:"department"`
	ActorID    *string `json:"actor_id"`
}

type PricingActionInput struct {
	HotelID                string  `json:"hotel_id" validate:"required"`
	NightDate              string  `json:"night_date" validate:"required,datetime=2006-01-02"`
	Action                 string  `json:"action" validate:"required,max=200"`
	Reason                 string  `json:"reason" validate:"max=2000"`
	SuggestedAdjustmentPct int     `json:"suggested_adjustment_pct" validate:"min=-15,max=15"`
	Department             string  `json:"department"`
	ActorID                *string `json:"actor_id"`
}

type TicketResult struct {
	TicketID       string                `json:"ticket_id"`
	ConversationID string                `json:"conversation_id"`
	Department     models.Department     `json:"department"`
	Priority       models.TicketPriority `json:"priority"`
	AssignedTo     *string               `json:"assigned_to"`
	Deduped        bool                  `json:"deduped"`
	AdvisoryID     string                `json:"advisory_id,omitempty"`
	SourceKey      string                `json:"source_key,omitempty"`
}

type TicketingService struct {
	Store       TicketStore
	Validator   *validator.Validate
	Logger      zerolog.Logger
	Metrics     *metrics.Collector
	DedupWindow time.Duration
	Now         func() time.Time
}

type ticketDraft struct {
	source      string
	hotelID     string
	title       string
	reason      string
	routing     Routing
	sourceKey   *string
	actorID     *string
	auditAction string
	details     map[string]any
}

// CreateFromAdvisory opens a ticket for an advisory unless a live one was opened for the same
// advisory inside the dedup window. The window check reads the audit log outside the write
// transaction, so two simultaneous requests can both create a ticket.
func (s *TicketingService) CreateFromAdvisory(ctx context.Context, in AdvisoryTicketInput) (TicketResult, error) {
	in.HotelID = strings.TrimSpace(in.HotelID)
	in.Title = strings.TrimSpace(in.Title)
	in.Reason = strings.TrimSpace(in.Reason)
	in.Priority = strings.ToLower(strings.TrimSpace(in.Priority))
	if err := s.validator().Struct(in); err != nil {
		return TicketResult{}, validationError(err)
	}
	priority, _ := models.ParseAdvisoryPriority(in.Priority)
	advisoryID := AdvisoryID(in.Title, priority)

	since := s.now().Add(-s.dedupWindow())
	existing, err := s.Store.FindAdvisoryTicket(ctx, in.HotelID, advisoryID, since)
	if err != nil {
		s.Metrics.RecordTicket(ticketSourceAdvisory, "failed")
		return TicketResult{}, apierr.Persistence("failed to look up existing advisory tickets", err)
	}
	if existing != nil && existing.Status.Live() {
		s.Metrics.RecordTicket(ticketSourceAdvisory, "deduped")
		res := dedupedResult(existing)
		res.AdvisoryID = advisoryID
		return res, nil
	}

	routing := Route(RouteRequest{
		Title:          in.Title,
		Reason:         in.Reason,
		Priority:       priority.TicketPriority(),
		Category:       models.ParseTicketCategory(in.Category),
		DepartmentHint: in.Department,
	})
	res, err := s.create(ctx, ticketDraft{
		source:      ticketSourceAdvisory,
		hotelID:     in.HotelID,
		title:       in.Title,
		reason:      in.Reason,
		routing:     routing,
		actorID:     in.ActorID,
		auditAction: models.AuditActionAdvisoryTicket,
		details: map[string]any{
			"advisory_id":       advisoryID,
			"advisory_priority": string(priority),
			"advisory_category": in.Category,
		},
	})
	if err != nil {
		return TicketResult{}, err
	}
	res.AdvisoryID = advisoryID
	return res, nil
}

// CreateFromPricingAction is idempotent per (hotel, night, adjustment). The unique index on
// source_key settles concurrent requests: the loser re-reads and returns the winner's ticket.
func (s *TicketingService) CreateFromPricingAction(ctx context.Context, in PricingActionInput) (TicketResult, error) {
	in.HotelID = strings.TrimSpace(in.HotelID)
	in.NightDate = strings.TrimSpace(in.NightDate)
	in.Action = strings.TrimSpace(in.Action)
	in.Reason = strings.TrimSpace(in.Reason)
	if err := s.validator().Struct(in); err != nil {
		return TicketResult{}, validationError(err)
	}
	sourceKey := PricingSourceKey(in.NightDate, in.SuggestedAdjustmentPct)

	existing, err := s.Store.FindTicketBySourceKey(ctx, in.HotelID, sourceKey)
	if err != nil {
		s.Metrics.RecordTicket(ticketSourcePricing, "failed")
		return TicketResult{}, apierr.Persistence("failed to look up existing pricing tickets", err)
	}
	if existing != nil {
		s.Metrics.RecordTicket(ticketSourcePricing, "deduped")
		return dedupedResult(existing), nil
	}

	hint := in.Department
	if strings.TrimSpace(hint) == "" {
		hint = string(models.DepartmentRevenue)
	}
	routing := Route(RouteRequest{
		Title:          in.Action,
		Reason:         in.Reason,
		Priority:       pricingPriority(in.SuggestedAdjustmentPct),
		Category:       models.TicketCategoryPricingAction,
		DepartmentHint: hint,
	})

	res, err := s.create(ctx, ticketDraft{
		source:      ticketSourcePricing,
		hotelID:     in.HotelID,
		title:       fmt.Sprintf("%s (%s, %+d%%)", in.Action, in.NightDate, in.SuggestedAdjustmentPct),
		reason:      in.Reason,
		routing:     routing,
		sourceKey:   &sourceKey,
		actorID:     in.ActorID,
		auditAction: models.AuditActionPricingTicket,
		details: map[string]any{
			"night_date":               in.NightDate,
			"action":                   in.Action,
			"suggested_adjustment_pct": in.SuggestedAdjustmentPct,
		},
	})
	if errors.Is(err, db.ErrDuplicateSourceKey) {
		winner, findErr := s.Store.FindTicketBySourceKey(ctx, in.HotelID, sourceKey)
		if findErr != nil || winner == nil {
			s.Metrics.RecordTicket(ticketSourcePricing, "failed")
			return TicketResult{}, apierr.Persistence("failed to read concurrently created pricing ticket", errors.Join(err, findErr))
		}
		s.Logger.Info().Str("hotel_id", in.HotelID).Str("source_key", sourceKey).Msg("pricing ticket created concurrently, returning existing")
		s.Metrics.RecordTicket(ticketSourcePricing, "deduped")
		return dedupedResult(winner), nil
	}
	return res, err
}

func PricingSourceKey(nightDate string, pct int) string {
	return fmt.Sprintf("PRICING:%s:%d", nightDate, pct)
}

func pricingPriority(pct int) models.TicketPriority {
	if pct >= 10 || pct <= -10 {
		return models.TicketPriorityHigh
	}
	return models.TicketPriorityMedium
}

// create writes conversation, system message, ticket and audit entry in one transaction.
func (s *TicketingService) create(ctx context.Context, d ticketDraft) (TicketResult, error) {
	now := s.now().UTC()
	ticketID := uuid.NewString()
	conversationID := uuid.NewString()

	var assignment Assignment
	err := s.Store.WithTicketTx(ctx, func(tx db.TicketTx) error {
		var err error
		assignment, err = assignInTx(ctx, tx, d.hotelID, d.routing.Department, ticketID)
		if err != nil {
			return fmt.Errorf("pick assignee: %w", err)
		}

		if err := tx.InsertConversation(ctx, models.Conversation{
			ID:        conversationID,
			HotelID:   d.hotelID,
			Subject:   d.title,
			Channel:   conversationChannel,
			Status:    string(models.TicketStatusOpen),
			CreatedAt: now,
		}); err != nil {
			return fmt.Errorf("insert conversation: %w", err)
		}

		body := d.reason
		if body == "" {
			body = d.title
		}
		if err := tx.InsertMessage(ctx, models.Message{
			ID:             uuid.NewString(),
			ConversationID: conversationID,
			SenderType:     senderSystem,
			Body:           body,
			CreatedAt:      now,
		}); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}

		details, err := json.Marshal(d.details)
		if err != nil {
			return err
		}
		if err := tx.InsertTicket(ctx, models.Ticket{
			ID:             ticketID,
			HotelID:        d.hotelID,
			ConversationID: conversationID,
			Title:          d.title,
			Department:     d.routing.Department,
			Category:       d.routing.Category,
			Priority:       d.routing.Priority,
			Status:         models.TicketStatusOpen,
			AssignedToID:   assignment.AssigneeID,
			SourceKey:      d.sourceKey,
			Details:        details,
			CreatedAt:      now,
		}); err != nil {
			return fmt.Errorf("insert ticket: %w", err)
		}

		meta := map[string]any{
			"department":        d.routing.Department,
			"priority":          d.routing.Priority,
			"assigned_to":       assignment.AssigneeID,
			"assignee_fallback": assignment.Fallback,
		}
		for k, v := range d.details {
			meta[k] = v
		}
		if d.sourceKey != nil {
			meta["source_key"] = *d.sourceKey
		}
		metadata, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		if err := tx.InsertAuditEntry(ctx, models.AuditEntry{
			ID:         uuid.NewString(),
			HotelID:    d.hotelID,
			ActorID:    d.actorID,
			Action:     d.auditAction,
			EntityType: "ticket",
			EntityID:   ticketID,
			Metadata:   metadata,
			CreatedAt:  now,
		}); err != nil {
			return fmt.Errorf("insert audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, db.ErrDuplicateSourceKey) {
			return TicketResult{}, err
		}
		s.Metrics.RecordTicket(d.source, "failed")
		s.Logger.Error().Err(err).Str("hotel_id", d.hotelID).Str("source", d.source).Msg("ticket creation rolled back")
		return TicketResult{}, apierr.Persistence("failed to create ticket", err)
	}

	s.Metrics.RecordTicket(d.source, "created")
	s.Logger.Info().
		Str("hotel_id", d.hotelID).
		Str("ticket_id", ticketID).
		Str("department", string(d.routing.Department)).
		Str("priority", string(d.routing.Priority)).
		Bool("assigned", assignment.AssigneeID != nil).
		Msg("ticket created")

	return TicketResult{
		TicketID:       ticketID,
		ConversationID: conversationID,
		Department:     d.routing.Department,
		Priority:       d.routing.Priority,
		AssignedTo:     assignment.AssigneeID,
		SourceKey:      derefString(d.sourceKey),
	}, nil
}

func dedupedResult(t *models.Ticket) TicketResult {
	return TicketResult{
		TicketID:       t.ID,
		ConversationID: t.ConversationID,
		Department:     t.Department,
		Priority:       t.Priority,
		AssignedTo:     t.AssignedToID,
		Deduped:        true,
		SourceKey:      derefString(t.SourceKey),
	}
}

func (s *TicketingService) validator() *validator.Validate {
	if s.Validator == nil {
		return defaultValidator
	}
	return s.Validator
}

func (s *TicketingService) dedupWindow() time.Duration {
	if s.DedupWindow <= 0 {
		return DefaultAdvisoryDedupWindow
	}
	return s.DedupWindow
}

func (s *TicketingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
