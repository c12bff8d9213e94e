package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"eventpass/internal/status"
	"eventpass/models"
	"eventpass/monitoring"
)

// Scan result messages shown to the door operator.
const (
	msgValidTicket      = "Valid Ticket"
	msgAlreadyCheckedIn = "Already Checked In"
	msgTicketNotFound   = "Ticket not found"
	msgInvalidCode      = "Invalid ticket code"
)

// CheckinService is the two-phase scan protocol: Verify resolves a
// scanned payload without mutating anything, Confirm performs the
// one-way redemption. The split keeps a flaky scanner re-triggering on
// the same frame from double-redeeming a ticket.
type CheckinService struct {
	store    Store
	codec    *QRCodec
	notifier *Notifier
}

func NewCheckinService(store Store, codec *QRCodec, notifier *Notifier) *CheckinService {
	return &CheckinService{
		store:    store,
		codec:    codec,
		notifier: notifier,
	}
}

// Verify decodes rawPayload and reports the referenced ticket's state.
// Read-only: scanning the same code any number of times is safe.
func (s *CheckinService) Verify(ctx context.Context, rawPayload string) (*models.ScanResult, error) {
	ref, err := s.codec.Decode(rawPayload)
	if err != nil {
		monitoring.TrackCheckin("invalid_payload")
		return &models.ScanResult{Valid: false, Message: msgInvalidCode}, nil
	}

	ticket, err := s.store.GetTicket(ctx, ref)
	if errors.Is(err, status.ErrTicketNotFound) {
		// Older payloads carry a pre-assignment placeholder reference.
		ticket, err = s.store.FindTicketByLegacyID(ctx, ref)
	}
	if err != nil {
		if errors.Is(err, status.ErrTicketNotFound) {
			monitoring.TrackCheckin("not_found")
			return &models.ScanResult{Valid: false, Message: msgTicketNotFound}, nil
		}
		return nil, err
	}

	if ticket.Redeemed() {
		monitoring.TrackCheckin("already_used")
		return &models.ScanResult{Valid: true, Ticket: ticket, Message: msgAlreadyCheckedIn}, nil
	}

	monitoring.TrackCheckin("verified")
	return &models.ScanResult{Valid: true, Ticket: ticket, Message: msgValidTicket}, nil
}

// Confirm transitions the ticket to used and stamps redeemed_at. Only
// reachable from a verified-valid scan; a repeat confirm is refused by
// the store and surfaces ErrTicketAlreadyUsed. On storage failure the
// ticket stays active and the operator may retry.
func (s *CheckinService) Confirm(ctx context.Context, ticketID string) error {
	if err := s.store.MarkUsed(ctx, ticketID, time.Now()); err != nil {
		monitoring.TrackCheckin("confirm_failed")
		return err
	}

	monitoring.TrackCheckin("confirmed")

	if ticket, err := s.store.GetTicket(ctx, ticketID); err == nil {
		s.notifier.CheckinConfirmed(ticket)
	} else {
		slog.Error("checkin: reload after confirm failed", "ticketId", ticketID, "error", err)
	}
	return nil
}
