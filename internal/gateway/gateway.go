// Package gateway defines the payment-provider boundary. The ticketing
// core only ever talks to the PaymentProvider interface; the bundled
// implementation is a mock because payment correctness is out of scope.
package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

type Provider string

const (
	ProviderMock Provider = "mock"
)

// PaymentRequest is a provider-agnostic charge request.
type PaymentRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	UUID            string          `json:"uuid"`
	ReferenceNumber string          `json:"reference_number"`
	Description     string          `json:"description,omitempty"`
}

// TransactionStatus reports the state of a charge.
type TransactionStatus struct {
	UUID      string          `json:"uuid"`
	RefID     string          `json:"ref_id"`
	Status    string          `json:"status"` // pending, success, failed
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Timestamp int64           `json:"timestamp"`
}

// Transaction is the notification pushed when a charge settles.
type Transaction struct {
	UUID   string          `json:"uuid"`
	RefID  string          `json:"ref_id"`
	Status string          `json:"status"`
	Amount decimal.Decimal `json:"amount"`
}

// PaymentProvider is the common surface for payment backends.
type PaymentProvider interface {
	GetProvider() Provider

	// GenerateQR returns the payment QR payload string for a request.
	GenerateQR(ctx context.Context, req *PaymentRequest) (string, error)

	// CheckTransaction reports the status of a charge by its UUID.
	CheckTransaction(ctx context.Context, uuid string) (*TransactionStatus, error)

	// SetTransactionChannel registers the channel receiving settlement
	// notifications.
	SetTransactionChannel(ch chan *Transaction)

	// Close gracefully shuts the provider down.
	Close(ctx context.Context) error
}
