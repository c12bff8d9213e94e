package services

import (
	"context"
	"time"

	"eventpass/models"
)

// EventStore persists event records and their capacity counters.
type EventStore interface {
	// CreateEvent assigns an id, persists the record with sold seats
	// starting at zero and returns the stored copy.
	CreateEvent(ctx context.Context, event *models.Event) (*models.Event, error)
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context) ([]*models.Event, error)

	// SetCapacity overwrites max seats. It intentionally performs no
	// validation against the current sold count; the original product
	// allows a host to shrink capacity below it.
	SetCapacity(ctx context.Context, id string, maxSeats int) error

	// RecordSale atomically increments the sold-seat counter and adds
	// userID to the attendee set without duplicates. It returns the
	// post-increment count, which doubles as the buyer's seat number.
	// Returns status.ErrEventSoldOut once max seats is reached on a
	// capped event.
	RecordSale(ctx context.Context, eventID, userID string) (int, error)
}

// TicketStore persists issued tickets.
type TicketStore interface {
	CreateTicket(ctx context.Context, ticket *models.Ticket) (*models.Ticket, error)
	GetTicket(ctx context.Context, id string) (*models.Ticket, error)

	// FindTicketByLegacyID resolves scans whose payload carries a
	// pre-assignment placeholder reference instead of the canonical id.
	FindTicketByLegacyID(ctx context.Context, legacyID string) (*models.Ticket, error)

	// FindTicketForEventUser backs the caller layer's existing-ticket
	// check. The store itself does not enforce (event, user) uniqueness.
	FindTicketForEventUser(ctx context.Context, eventID, userID string) (*models.Ticket, error)

	ListTicketsForUser(ctx context.Context, userID string) ([]*models.Ticket, error)
	ListTicketsForEvent(ctx context.Context, eventID string) ([]*models.Ticket, error)

	// SetQRCodeData writes the QR payload once the canonical id exists.
	SetQRCodeData(ctx context.Context, id, payload string) error

	// MarkUsed performs the one-way active -> used transition. It
	// refuses to overwrite redeemed_at once set.
	MarkUsed(ctx context.Context, id string, redeemedAt time.Time) error
}

// Store is the persistence boundary for the ticketing core. Issuance
// runs its increment-and-create sequence inside InTransaction so a
// failed ticket write can never leave the counters ahead of the
// tickets.
type Store interface {
	EventStore
	TicketStore

	InTransaction(ctx context.Context, fn func(tx Store) error) error
}
