package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/hotelops/backend/internal/db"
	"github.com/hotelops/backend/internal/models"
)

// fakeTicketStore mimics the pgx store: writes made inside WithTicketTx are only visible
// after fn returns nil, and source keys are unique per hotel.
type fakeTicketStore struct {
	mu            sync.Mutex
	staff         []models.StaffMember
	conversations []models.Conversation
	messages      []models.Message
	tickets       []models.Ticket
	audit         []models.AuditEntry
	failOn        string
	lookupErr     error
	// beforeInsert runs inside the transaction right before the ticket insert.
	beforeInsert func()
}

func newFakeTicketStore() *fakeTicketStore {
	return &fakeTicketStore{}
}

func (s *fakeTicketStore) FindTicketBySourceKey(ctx context.Context, hotelID, sourceKey string) (*models.Ticket, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tickets {
		if t.HotelID == hotelID && t.SourceKey != nil && *t.SourceKey == sourceKey {
			t := t
			return &t, nil
		}
	}
	return nil, nil
}

func (s *fakeTicketStore) FindAdvisoryTicket(ctx context.Context, hotelID, advisoryID string, since time.Time) (*models.Ticket, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.audit) - 1; i >= 0; i-- {
		a := s.audit[i]
		if a.HotelID != hotelID || a.Action != models.AuditActionAdvisoryTicket || a.CreatedAt.Before(since) {
			continue
		}
		if metaString(a.Metadata, "advisory_id") != advisoryID {
			continue
		}
		for _, t := range s.tickets {
			if t.ID == a.EntityID && t.Status.Live() {
				t := t
				return &t, nil
			}
		}
	}
	return nil, nil
}

func (s *fakeTicketStore) OpenAdvisoryTickets(ctx context.Context, hotelID string, since time.Time) ([]models.TicketRef, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TicketRef
	for i := len(s.audit) - 1; i >= 0; i-- {
		a := s.audit[i]
		if a.HotelID != hotelID || a.Action != models.AuditActionAdvisoryTicket || a.CreatedAt.Before(since) {
			continue
		}
		for _, t := range s.tickets {
			if t.ID == a.EntityID && t.Status.Live() {
				out = append(out, models.TicketRef{TicketID: t.ID, Status: t.Status, AdvisoryID: metaString(a.Metadata, "advisory_id"), CreatedAt: t.CreatedAt})
			}
		}
	}
	return out, nil
}

func (s *fakeTicketStore) WithTicketTx(ctx context.Context, fn func(tx db.TicketTx) error) error {
	tx := &fakeTx{store: s}
	if err := fn(tx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tx.tickets {
		for _, existing := range s.tickets {
			if t.SourceKey != nil && existing.SourceKey != nil && t.HotelID == existing.HotelID && *t.SourceKey == *existing.SourceKey {
				return db.ErrDuplicateSourceKey
			}
		}
	}
	s.conversations = append(s.conversations, tx.conversations...)
	s.messages = append(s.messages, tx.messages...)
	s.tickets = append(s.tickets, tx.tickets...)
	s.audit = append(s.audit, tx.audit...)
	return nil
}

type fakeTx struct {
	store         *fakeTicketStore
	conversations []models.Conversation
	messages      []models.Message
	tickets       []models.Ticket
	audit         []models.AuditEntry
}

var errInjected = errors.New("injected failure")

func (t *fakeTx) ListDepartmentStaff(ctx context.Context, hotelID string, department models.Department) ([]models.StaffMember, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	var out []models.StaffMember
	for _, m := range t.store.staff {
		if m.HotelID == hotelID && m.Department == department {
			out = append(out, m)
		}
	}
	return out, nil
}

func (t *fakeTx) InsertConversation(ctx context.Context, c models.Conversation) error {
	if t.store.failOn == "conversation" {
		return errInjected
	}
	t.conversations = append(t.conversations, c)
	return nil
}

func (t *fakeTx) InsertMessage(ctx context.Context, m models.Message) error {
	if t.store.failOn == "message" {
		return errInjected
	}
	t.messages = append(t.messages, m)
	return nil
}

func (t *fakeTx) InsertTicket(ctx context.Context, tk models.Ticket) error {
	if t.store.beforeInsert != nil {
		t.store.beforeInsert()
	}
	if t.store.failOn == "ticket" {
		return errInjected
	}
	t.tickets = append(t.tickets, tk)
	return nil
}

func (t *fakeTx) InsertAuditEntry(ctx context.Context, a models.AuditEntry) error {
	if t.store.failOn == "audit" {
		return errInjected
	}
	t.audit = append(t.audit, a)
	return nil
}

func metaString(raw []byte, key string) string {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
