package models

import (
	"github.com/shopspring/decimal"
)

type Event struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	ISODate     string          `json:"iso_date"`
	ImageURL    string          `json:"image_url,omitempty"`
	SourceURL   string          `json:"source_url,omitempty"`
	PriceValue  decimal.Decimal `json:"price_value"`
	MaxSeats    int             `json:"max_seats"`
	SoldSeats   int             `json:"sold_seats"`
	Attendees   []string        `json:"attendees"`
	CreatorID   string          `json:"creator_id,omitempty"`
	UserCreated bool            `json:"user_created"`
}

// IsFree reports whether joining the event requires no payment.
func (e *Event) IsFree() bool {
	return e.PriceValue.LessThanOrEqual(decimal.Zero)
}

// IsSoldOut reports whether every seat has been sold. Events with
// MaxSeats == 0 are uncapped and never sell out.
func (e *Event) IsSoldOut() bool {
	return e.MaxSeats > 0 && e.SoldSeats >= e.MaxSeats
}

// SeatsLeft returns the remaining capacity, or -1 for uncapped events.
func (e *Event) SeatsLeft() int {
	if e.MaxSeats == 0 {
		return -1
	}
	left := e.MaxSeats - e.SoldSeats
	if left < 0 {
		return 0
	}
	return left
}

// EventStats is the host-dashboard view of an event's capacity state.
type EventStats struct {
	EventID   string `json:"event_id"`
	SoldSeats int    `json:"sold_seats"`
	MaxSeats  int    `json:"max_seats"`
	Attendees int    `json:"attendees"`
}

// EventDetails is the enrichment shape returned by the external
// detail-lookup collaborator. The ticketing core only ever reads the
// embedded base Event fields.
type EventDetails struct {
	Event

	PriceRange     string   `json:"price_range,omitempty"`
	AgeRestriction string   `json:"age_restriction,omitempty"`
	Organizer      string   `json:"organizer,omitempty"`
	FullAddress    string   `json:"full_address,omitempty"`
	TicketURL      string   `json:"ticket_url,omitempty"`
	Lineup         []string `json:"lineup,omitempty"`
	Highlights     []string `json:"highlights,omitempty"`
}
