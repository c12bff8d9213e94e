package status

import "errors"

var (
	ErrEventNotFound     = errors.New("event: event not found")
	ErrEventSoldOut      = errors.New("event: sold out")
	ErrTicketNotFound    = errors.New("ticket: ticket not found")
	ErrTicketAlreadyUsed = errors.New("ticket: already checked in")
	ErrInvalidPayload    = errors.New("checkin: invalid scan payload")
	ErrPaymentNotFound   = errors.New("payment: session not found")
	ErrPaymentExpired    = errors.New("payment: session expired")
	ErrFailedPayment     = errors.New("payment: payment failed")
)
