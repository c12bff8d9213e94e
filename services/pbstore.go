package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"eventpass/internal/status"
	"eventpass/models"
)

const (
	eventsCollection  = "events"
	ticketsCollection = "tickets"
)

// PBStore is the PocketBase-backed Store. The conditional sold-seat
// increment runs as raw SQL so racing buyers contend on a single
// server-side update instead of read-modify-write from the client.
type PBStore struct {
	app core.App
}

func NewPBStore(app core.App) *PBStore {
	return &PBStore{app: app}
}

func (s *PBStore) InTransaction(ctx context.Context, fn func(tx Store) error) error {
	return s.app.RunInTransaction(func(txApp core.App) error {
		return fn(&PBStore{app: txApp})
	})
}

// --- events ---

func (s *PBStore) CreateEvent(ctx context.Context, event *models.Event) (*models.Event, error) {
	collection, err := s.app.FindCollectionByNameOrId(eventsCollection)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("title", event.Title)
	record.Set("description", event.Description)
	record.Set("location", event.Location)
	record.Set("category", event.Category)
	record.Set("date", event.Date)
	record.Set("iso_date", event.ISODate)
	record.Set("image_url", event.ImageURL)
	record.Set("source_url", event.SourceURL)
	record.Set("price_value", event.PriceValue.InexactFloat64())
	record.Set("max_seats", event.MaxSeats)
	record.Set("sold_seats", 0)
	record.Set("attendees", []string{})
	record.Set("creator_id", event.CreatorID)
	record.Set("user_created", event.UserCreated)

	if err := s.app.Save(record); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return eventFromRecord(record), nil
}

func (s *PBStore) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	record, err := s.app.FindRecordById(eventsCollection, id)
	if err != nil {
		return nil, status.ErrEventNotFound
	}
	return eventFromRecord(record), nil
}

func (s *PBStore) ListEvents(ctx context.Context) ([]*models.Event, error) {
	records, err := s.app.FindRecordsByFilter(eventsCollection, "id != ''", "iso_date", -1, 0)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := make([]*models.Event, 0, len(records))
	for _, record := range records {
		events = append(events, eventFromRecord(record))
	}
	return events, nil
}

func (s *PBStore) SetCapacity(ctx context.Context, id string, maxSeats int) error {
	record, err := s.app.FindRecordById(eventsCollection, id)
	if err != nil {
		return status.ErrEventNotFound
	}

	record.Set("max_seats", maxSeats)
	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("set capacity: %w", err)
	}
	return nil
}

func (s *PBStore) RecordSale(ctx context.Context, eventID, userID string) (int, error) {
	res, err := s.app.DB().NewQuery(
		"UPDATE events SET sold_seats = sold_seats + 1" +
			" WHERE id = {:id} AND (max_seats <= 0 OR sold_seats < max_seats)",
	).Bind(dbx.Params{"id": eventID}).WithContext(ctx).Execute()
	if err != nil {
		return 0, fmt.Errorf("record sale: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("record sale: %w", err)
	}
	if affected == 0 {
		if _, err := s.app.FindRecordById(eventsCollection, eventID); err != nil {
			return 0, status.ErrEventNotFound
		}
		return 0, status.ErrEventSoldOut
	}

	// Re-read for the post-increment count and the attendee union.
	record, err := s.app.FindRecordById(eventsCollection, eventID)
	if err != nil {
		return 0, fmt.Errorf("record sale: %w", err)
	}

	sold := record.GetInt("sold_seats")

	var attendees []string
	if err := record.UnmarshalJSONField("attendees", &attendees); err != nil {
		attendees = nil
	}
	if !slices.Contains(attendees, userID) {
		record.Set("attendees", append(attendees, userID))
		if err := s.app.Save(record); err != nil {
			return 0, fmt.Errorf("record sale: %w", err)
		}
	}

	return sold, nil
}

// --- tickets ---

func (s *PBStore) CreateTicket(ctx context.Context, ticket *models.Ticket) (*models.Ticket, error) {
	collection, err := s.app.FindCollectionByNameOrId(ticketsCollection)
	if err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("event_id", ticket.EventID)
	record.Set("user_id", ticket.UserID)
	record.Set("user_name", ticket.UserName)
	record.Set("qr_code_data", ticket.QRCodeData)
	record.Set("status", string(ticket.Status))
	record.Set("purchase_date", ticket.PurchaseDate)
	record.Set("seat_number", ticket.SeatNumber)
	record.Set("price_paid", ticket.PricePaid.InexactFloat64())
	record.Set("legacy_id", ticket.LegacyID)

	if err := s.app.Save(record); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	return ticketFromRecord(record), nil
}

func (s *PBStore) GetTicket(ctx context.Context, id string) (*models.Ticket, error) {
	record, err := s.app.FindRecordById(ticketsCollection, id)
	if err != nil {
		return nil, status.ErrTicketNotFound
	}
	return ticketFromRecord(record), nil
}

func (s *PBStore) FindTicketByLegacyID(ctx context.Context, legacyID string) (*models.Ticket, error) {
	if legacyID == "" {
		return nil, status.ErrTicketNotFound
	}
	record, err := s.app.FindFirstRecordByFilter(
		ticketsCollection,
		"legacy_id = {:legacyId}",
		dbx.Params{"legacyId": legacyID},
	)
	if err != nil {
		return nil, status.ErrTicketNotFound
	}
	return ticketFromRecord(record), nil
}

func (s *PBStore) FindTicketForEventUser(ctx context.Context, eventID, userID string) (*models.Ticket, error) {
	record, err := s.app.FindFirstRecordByFilter(
		ticketsCollection,
		"event_id = {:eventId} && user_id = {:userId}",
		dbx.Params{"eventId": eventID, "userId": userID},
	)
	if err != nil {
		return nil, status.ErrTicketNotFound
	}
	return ticketFromRecord(record), nil
}

func (s *PBStore) ListTicketsForUser(ctx context.Context, userID string) ([]*models.Ticket, error) {
	records, err := s.app.FindRecordsByFilter(
		ticketsCollection,
		"user_id = {:userId}",
		"-purchase_date",
		-1,
		0,
		dbx.Params{"userId": userID},
	)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return ticketsFromRecords(records), nil
}

func (s *PBStore) ListTicketsForEvent(ctx context.Context, eventID string) ([]*models.Ticket, error) {
	records, err := s.app.FindRecordsByFilter(
		ticketsCollection,
		"event_id = {:eventId}",
		"seat_number",
		-1,
		0,
		dbx.Params{"eventId": eventID},
	)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return ticketsFromRecords(records), nil
}

func (s *PBStore) SetQRCodeData(ctx context.Context, id, payload string) error {
	record, err := s.app.FindRecordById(ticketsCollection, id)
	if err != nil {
		return status.ErrTicketNotFound
	}
	record.Set("qr_code_data", payload)
	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("set qr data: %w", err)
	}
	return nil
}

func (s *PBStore) MarkUsed(ctx context.Context, id string, redeemedAt time.Time) error {
	record, err := s.app.FindRecordById(ticketsCollection, id)
	if err != nil {
		return status.ErrTicketNotFound
	}

	// Keep audit integrity: a stamped redeemed_at is never overwritten.
	if record.GetString("status") == string(models.TicketUsed) ||
		!record.GetDateTime("redeemed_at").IsZero() {
		return status.ErrTicketAlreadyUsed
	}

	record.Set("status", string(models.TicketUsed))
	record.Set("redeemed_at", redeemedAt)
	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("mark used: %w", err)
	}
	return nil
}

// --- record mapping ---

func eventFromRecord(record *core.Record) *models.Event {
	var attendees []string
	if err := record.UnmarshalJSONField("attendees", &attendees); err != nil {
		attendees = nil
	}

	return &models.Event{
		ID:          record.Id,
		Title:       record.GetString("title"),
		Description: record.GetString("description"),
		Location:    record.GetString("location"),
		Category:    record.GetString("category"),
		Date:        record.GetString("date"),
		ISODate:     record.GetString("iso_date"),
		ImageURL:    record.GetString("image_url"),
		SourceURL:   record.GetString("source_url"),
		PriceValue:  decimal.NewFromFloat(record.GetFloat("price_value")),
		MaxSeats:    record.GetInt("max_seats"),
		SoldSeats:   record.GetInt("sold_seats"),
		Attendees:   attendees,
		CreatorID:   record.GetString("creator_id"),
		UserCreated: record.GetBool("user_created"),
	}
}

func ticketFromRecord(record *core.Record) *models.Ticket {
	ticket := &models.Ticket{
		ID:           record.Id,
		EventID:      record.GetString("event_id"),
		UserID:       record.GetString("user_id"),
		UserName:     record.GetString("user_name"),
		QRCodeData:   record.GetString("qr_code_data"),
		Status:       models.TicketStatus(record.GetString("status")),
		PurchaseDate: record.GetDateTime("purchase_date").Time(),
		SeatNumber:   record.GetInt("seat_number"),
		PricePaid:    decimal.NewFromFloat(record.GetFloat("price_paid")),
		LegacyID:     record.GetString("legacy_id"),
	}

	if redeemed := record.GetDateTime("redeemed_at"); !redeemed.IsZero() {
		at := redeemed.Time()
		ticket.RedeemedAt = &at
	}
	return ticket
}

func ticketsFromRecords(records []*core.Record) []*models.Ticket {
	tickets := make([]*models.Ticket, 0, len(records))
	for _, record := range records {
		tickets = append(tickets, ticketFromRecord(record))
	}
	return tickets
}
