package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// PaymentSession is the short-lived charge attached to a priced join.
// Sessions expire unpaid; a completed session unlocks ticket issuance.
type PaymentSession struct {
	ID        string          `json:"payment_id"`
	UserID    string          `json:"user_id"`
	EventID   string          `json:"event_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    PaymentStatus   `json:"status"`
	QRCode    string          `json:"qr_code,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

func (p *PaymentSession) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
