package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventpass/models"
	"eventpass/monitoring"
)

// IssuanceService is the single entry point for "a user joins an
// event". One call produces exactly one ticket.
type IssuanceService struct {
	store    Store
	codec    *QRCodec
	stats    *StatsService
	notifier *Notifier
}

func NewIssuanceService(store Store, codec *QRCodec, stats *StatsService, notifier *Notifier) *IssuanceService {
	return &IssuanceService{
		store:    store,
		codec:    codec,
		stats:    stats,
		notifier: notifier,
	}
}

// JoinEvent issues a ticket for user against event.
//
// Externally-discovered events (search results, AI suggestions) arrive
// without a store record; they are persisted first so attendee lists
// and host dashboards stay consistent. The capacity-guarded increment,
// the ticket write and the QR payload write then run in one store
// transaction: the seat number comes from the increment's
// post-increment value, and a failed ticket write rolls the counter
// back instead of leaving stats ahead of the tickets.
func (s *IssuanceService) JoinEvent(ctx context.Context, event *models.Event, user models.User, clientRef string) (*models.Ticket, error) {
	start := time.Now()

	persisted, err := s.ensureEvent(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("join event: %w", err)
	}

	var ticket *models.Ticket
	err = s.store.InTransaction(ctx, func(tx Store) error {
		seat, err := tx.RecordSale(ctx, persisted.ID, user.ID)
		if err != nil {
			return err
		}

		created, err := tx.CreateTicket(ctx, &models.Ticket{
			EventID:      persisted.ID,
			UserID:       user.ID,
			UserName:     user.Name,
			Status:       models.TicketActive,
			PurchaseDate: time.Now(),
			SeatNumber:   seat,
			PricePaid:    persisted.PriceValue,
			LegacyID:     clientRef,
		})
		if err != nil {
			return err
		}

		payload, err := s.codec.Encode(created)
		if err != nil {
			return err
		}
		if err := tx.SetQRCodeData(ctx, created.ID, payload); err != nil {
			return err
		}

		created.QRCodeData = payload
		ticket = created
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("join event: %w", err)
	}

	// Best-effort side channels; the sale is already durable.
	s.stats.SyncSale(ctx, persisted.ID, user.ID, ticket.SeatNumber)
	s.notifier.TicketIssued(ticket)
	monitoring.TrackIssuance(persisted.ID, time.Since(start))

	slog.Info("ticket issued",
		"ticketId", ticket.ID,
		"eventId", persisted.ID,
		"userId", user.ID,
		"seat", ticket.SeatNumber,
	)
	return ticket, nil
}

// ensureEvent resolves the event in the store, creating it lazily when
// it was sourced outside the store. A failure here aborts the whole
// workflow: a ticket cannot be sold for an event that cannot be
// tracked.
func (s *IssuanceService) ensureEvent(ctx context.Context, event *models.Event) (*models.Event, error) {
	if event.ID != "" {
		if persisted, err := s.store.GetEvent(ctx, event.ID); err == nil {
			return persisted, nil
		}
	}

	created, err := s.store.CreateEvent(ctx, event)
	if err != nil {
		return nil, err
	}
	slog.Info("event persisted on first ticket", "eventId", created.ID, "title", created.Title)
	return created, nil
}
