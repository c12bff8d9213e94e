package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEvent_IsFree(t *testing.T) {
	tests := []struct {
		name  string
		price decimal.Decimal
		want  bool
	}{
		{"zero price", decimal.Zero, true},
		{"priced", decimal.NewFromFloat(25.50), false},
		{"negative treated as free", decimal.NewFromInt(-1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := &Event{PriceValue: tt.price}
			assert.Equal(t, tt.want, event.IsFree())
		})
	}
}

func TestEvent_IsSoldOut(t *testing.T) {
	tests := []struct {
		name     string
		maxSeats int
		sold     int
		want     bool
	}{
		{"seats remaining", 10, 4, false},
		{"exactly full", 10, 10, true},
		{"oversold after capacity cut", 5, 8, true},
		{"uncapped never sells out", 0, 100000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := &Event{MaxSeats: tt.maxSeats, SoldSeats: tt.sold}
			assert.Equal(t, tt.want, event.IsSoldOut())
		})
	}
}

func TestEvent_SeatsLeft(t *testing.T) {
	assert.Equal(t, 6, (&Event{MaxSeats: 10, SoldSeats: 4}).SeatsLeft())
	assert.Equal(t, 0, (&Event{MaxSeats: 10, SoldSeats: 10}).SeatsLeft())

	// Oversold clamps at zero rather than going negative
	assert.Equal(t, 0, (&Event{MaxSeats: 5, SoldSeats: 8}).SeatsLeft())

	// Uncapped events report -1
	assert.Equal(t, -1, (&Event{MaxSeats: 0, SoldSeats: 3}).SeatsLeft())
}

func TestTicket_Redeemed(t *testing.T) {
	assert.False(t, (&Ticket{Status: TicketActive}).Redeemed())
	assert.True(t, (&Ticket{Status: TicketUsed}).Redeemed())
}

func TestPaymentSession_Expired(t *testing.T) {
	now := time.Now()
	session := &PaymentSession{ExpiresAt: now.Add(10 * time.Minute)}

	assert.False(t, session.Expired(now))
	assert.False(t, session.Expired(now.Add(10*time.Minute)))
	assert.True(t, session.Expired(now.Add(11*time.Minute)))
}
