package services

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"eventpass/internal/status"
	"eventpass/models"
)

// MemStore is the in-memory Store used when the backing database is
// unavailable and as the test double. Each operation is atomic under a
// single mutex; transactions are best effort (no rollback), mirroring
// the original product's local-storage fallback.
type MemStore struct {
	mu      sync.Mutex
	events  map[string]*models.Event
	tickets map[string]*models.Ticket
	seq     int
}

func NewMemStore() *MemStore {
	return &MemStore{
		events:  make(map[string]*models.Event),
		tickets: make(map[string]*models.Ticket),
	}
}

func (s *MemStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%06d", prefix, s.seq)
}

func (s *MemStore) CreateEvent(ctx context.Context, event *models.Event) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *event
	stored.ID = s.nextID("evt")
	stored.SoldSeats = 0
	stored.Attendees = nil
	s.events[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (s *MemStore) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok {
		return nil, status.ErrEventNotFound
	}
	out := *event
	out.Attendees = slices.Clone(event.Attendees)
	return &out, nil
}

func (s *MemStore) ListEvents(ctx context.Context) ([]*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]*models.Event, 0, len(s.events))
	for _, event := range s.events {
		out := *event
		out.Attendees = slices.Clone(event.Attendees)
		events = append(events, &out)
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].ISODate != events[j].ISODate {
			return events[i].ISODate < events[j].ISODate
		}
		return events[i].ID < events[j].ID
	})
	return events, nil
}

func (s *MemStore) SetCapacity(ctx context.Context, id string, maxSeats int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok {
		return status.ErrEventNotFound
	}
	event.MaxSeats = maxSeats
	return nil
}

func (s *MemStore) RecordSale(ctx context.Context, eventID, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[eventID]
	if !ok {
		return 0, status.ErrEventNotFound
	}
	if event.MaxSeats > 0 && event.SoldSeats >= event.MaxSeats {
		return 0, status.ErrEventSoldOut
	}

	event.SoldSeats++
	if !slices.Contains(event.Attendees, userID) {
		event.Attendees = append(event.Attendees, userID)
	}
	return event.SoldSeats, nil
}

func (s *MemStore) CreateTicket(ctx context.Context, ticket *models.Ticket) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *ticket
	stored.ID = s.nextID("tkt")
	s.tickets[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (s *MemStore) GetTicket(ctx context.Context, id string) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return nil, status.ErrTicketNotFound
	}
	out := *ticket
	return &out, nil
}

func (s *MemStore) FindTicketByLegacyID(ctx context.Context, legacyID string) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ticket := range s.tickets {
		if ticket.LegacyID != "" && ticket.LegacyID == legacyID {
			out := *ticket
			return &out, nil
		}
	}
	return nil, status.ErrTicketNotFound
}

func (s *MemStore) FindTicketForEventUser(ctx context.Context, eventID, userID string) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ticket := range s.tickets {
		if ticket.EventID == eventID && ticket.UserID == userID {
			out := *ticket
			return &out, nil
		}
	}
	return nil, status.ErrTicketNotFound
}

func (s *MemStore) ListTicketsForUser(ctx context.Context, userID string) ([]*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tickets []*models.Ticket
	for _, ticket := range s.tickets {
		if ticket.UserID == userID {
			out := *ticket
			tickets = append(tickets, &out)
		}
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].ID < tickets[j].ID })
	return tickets, nil
}

func (s *MemStore) ListTicketsForEvent(ctx context.Context, eventID string) ([]*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tickets []*models.Ticket
	for _, ticket := range s.tickets {
		if ticket.EventID == eventID {
			out := *ticket
			tickets = append(tickets, &out)
		}
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].ID < tickets[j].ID })
	return tickets, nil
}

func (s *MemStore) SetQRCodeData(ctx context.Context, id, payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return status.ErrTicketNotFound
	}
	ticket.QRCodeData = payload
	return nil
}

func (s *MemStore) MarkUsed(ctx context.Context, id string, redeemedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return status.ErrTicketNotFound
	}
	if ticket.Status == models.TicketUsed || ticket.RedeemedAt != nil {
		return status.ErrTicketAlreadyUsed
	}
	ticket.Status = models.TicketUsed
	at := redeemedAt
	ticket.RedeemedAt = &at
	return nil
}

// InTransaction runs fn against the store itself. Individual operations
// stay atomic, but a half-applied fn is not rolled back.
func (s *MemStore) InTransaction(ctx context.Context, fn func(tx Store) error) error {
	return fn(s)
}
