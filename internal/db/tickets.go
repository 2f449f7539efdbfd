package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hotelops/backend/internal/models"
)

// TicketTx is the set of writes that make up one ticket creation. All calls share a transaction.
type TicketTx interface {
	ListDepartmentStaff(ctx context.Context, hotelID string, department models.Department) ([]models.StaffMember, error)
	InsertConversation(ctx context.Context, c models.Conversation) error
	InsertMessage(ctx context.Context, m models.Message) error
	InsertTicket(ctx context.Context, t models.Ticket) error
	InsertAuditEntry(ctx context.Context, a models.AuditEntry) error
}

// WithTicketTx runs fn inside one transaction; any error rolls back every write fn made.
func (s *Store) WithTicketTx(ctx context.Context, fn func(tx TicketTx) error) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(ticketTx{tx: tx})
	})
}

type ticketTx struct {
	tx pgx.Tx
}

func (t ticketTx) ListDepartmentStaff(ctx context.Context, hotelID string, department models.Department) ([]models.StaffMember, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT s.id, s.hotel_id, s.name, s.department,
			COUNT(tk.id) FILTER (WHERE tk.status IN ('OPEN', 'IN_PROGRESS')) AS open_tickets
		FROM staff s
		LEFT JOIN tickets tk ON tk.assigned_to_id = s.id
		WHERE s.hotel_id = $1 AND s.department = $2 AND s.is_active
		GROUP BY s.id, s.hotel_id, s.name, s.department
		ORDER BY open_tickets ASC, s.id ASC
	`, hotelID, string(department))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.StaffMember
	for rows.Next() {
		var (
			m    models.StaffMember
			dept string
		)
		if err := rows.Scan(&m.ID, &m.HotelID, &m.Name, &dept, &m.OpenTickets); err != nil {
			return nil, err
		}
		m.Department = models.ParseDepartment(dept)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (t ticketTx) InsertConversation(ctx context.Context, c models.Conversation) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO conversations (id, hotel_id, subject, channel, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.HotelID, c.Subject, c.Channel, c.Status, c.CreatedAt)
	return err
}

func (t ticketTx) InsertMessage(ctx context.Context, m models.Message) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO messages (id, conversation_id, sender_type, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, m.ID, m.ConversationID, m.SenderType, m.Body, m.CreatedAt)
	return err
}

func (t ticketTx) InsertTicket(ctx context.Context, tk models.Ticket) error {
	details := tk.Details
	if len(details) == 0 {
		details = []byte("{}")
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO tickets (id, hotel_id, conversation_id, title, department, category, priority, status, assigned_to_id, source_key, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, tk.ID, tk.HotelID, tk.ConversationID, tk.Title, string(tk.Department), string(tk.Category), string(tk.Priority),
		string(tk.Status), tk.AssignedToID, tk.SourceKey, details, tk.CreatedAt)
	if isUniqueViolation(err, sourceKeyConstraint) {
		return ErrDuplicateSourceKey
	}
	return err
}

func (t ticketTx) InsertAuditEntry(ctx context.Context, a models.AuditEntry) error {
	metadata := a.Metadata
	if len(metadata) == 0 {
		metadata = []byte("{}")
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO audit_log (id, hotel_id, actor_id, action, entity_type, entity_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, a.ID, a.HotelID, a.ActorID, a.Action, a.EntityType, a.EntityID, metadata, a.CreatedAt)
	return err
}

const ticketColumns = `id, hotel_id, conversation_id, title, department, category, priority, status, assigned_to_id, source_key, details, created_at`

func scanTicket(row pgx.Row) (*models.Ticket, error) {
	var (
		t                                      models.Ticket
		department, category, priority, status string
	)
	err := row.Scan(&t.ID, &t.HotelID, &t.ConversationID, &t.Title, &department, &category, &priority, &status,
		&t.AssignedToID, &t.SourceKey, &t.Details, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	t.Department = models.ParseDepartment(department)
	t.Category = models.TicketCategory(category)
	t.Priority = models.TicketPriority(priority)
	t.Status = models.TicketStatus(status)
	return &t, nil
}

// FindTicketBySourceKey returns nil when no ticket carries the key.
func (s *Store) FindTicketBySourceKey(ctx context.Context, hotelID, sourceKey string) (*models.Ticket, error) {
	return scanTicket(s.Pool.QueryRow(ctx, `
		SELECT `+ticketColumns+` FROM tickets WHERE hotel_id = $1 AND source_key = $2
	`, hotelID, sourceKey))
}

// FindAdvisoryTicket looks for a live ticket created from the advisory since the given time.
// The lookup goes through the audit log, so two concurrent creations can both miss.
func (s *Store) FindAdvisoryTicket(ctx context.Context, hotelID, advisoryID string, since time.Time) (*models.Ticket, error) {
	return scanTicket(s.Pool.QueryRow(ctx, `
		SELECT t.id, t.hotel_id, t.conversation_id, t.title, t.department, t.category, t.priority, t.status,
			t.assigned_to_id, t.source_key, t.details, t.created_at
		FROM audit_log a
		JOIN tickets t ON t.id = a.entity_id
		WHERE a.hotel_id = $1
			AND a.action = $2
			AND a.metadata->>'advisory_id' = $3
			AND a.created_at >= $4
			AND t.status IN ('OPEN', 'IN_PROGRESS')
		ORDER BY a.created_at DESC
		LIMIT 1
	`, hotelID, models.AuditActionAdvisoryTicket, advisoryID, since))
}

// OpenAdvisoryTickets lists live advisory tickets created since the given time, newest first.
func (s *Store) OpenAdvisoryTickets(ctx context.Context, hotelID string, since time.Time) ([]models.TicketRef, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT t.id, t.status, a.metadata->>'advisory_id', t.created_at
		FROM audit_log a
		JOIN tickets t ON t.id = a.entity_id
		WHERE a.hotel_id = $1
			AND a.action = $2
			AND a.created_at >= $3
			AND t.status IN ('OPEN', 'IN_PROGRESS')
		ORDER BY a.created_at DESC
	`, hotelID, models.AuditActionAdvisoryTicket, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TicketRef
	for rows.Next() {
		var (
			ref        models.TicketRef
			status     string
			advisoryID *string
		)
		if err := rows.Scan(&ref.TicketID, &status, &advisoryID, &ref.CreatedAt); err != nil {
			return nil, err
		}
		ref.Status = models.TicketStatus(status)
		ref.AdvisoryID = derefString(advisoryID)
		out = append(out, ref)
	}
	return out, rows.Err()
}
