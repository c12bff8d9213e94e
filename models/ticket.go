package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TicketStatus string

const (
	TicketActive TicketStatus = "active"
	TicketUsed   TicketStatus = "used"
)

type Ticket struct {
	ID           string          `json:"id"`
	EventID      string          `json:"event_id"`
	UserID       string          `json:"user_id"`
	UserName     string          `json:"user_name"`
	QRCodeData   string          `json:"qr_code_data"`
	Status       TicketStatus    `json:"status"`
	PurchaseDate time.Time       `json:"purchase_date"`
	RedeemedAt   *time.Time      `json:"redeemed_at,omitempty"`
	SeatNumber   int             `json:"seat_number,omitempty"`
	PricePaid    decimal.Decimal `json:"price_paid"`
	// LegacyID carries the client-side placeholder reference from older
	// apps whose QR payloads were generated before the store assigned
	// the canonical id. Kept only so those codes still scan.
	LegacyID string `json:"legacy_id,omitempty"`
}

// Redeemed reports whether the ticket has gone through check-in.
func (t *Ticket) Redeemed() bool {
	return t.Status == TicketUsed
}

// ScanResult is the outcome of the read-only verification phase.
// Valid means the payload resolved to a ticket; the ticket status tells
// the operator whether entry may still be confirmed.
type ScanResult struct {
	Valid   bool    `json:"valid"`
	Ticket  *Ticket `json:"ticket,omitempty"`
	Message string  `json:"message,omitempty"`
}
