package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventpass/internal/status"
	"eventpass/models"
)

func setupCheckin(t *testing.T) (*CheckinService, *MemStore, *models.Ticket) {
	t.Helper()

	store := NewMemStore()
	codec := NewQRCodec("test-secret")
	ctx := context.Background()

	ticket, err := store.CreateTicket(ctx, &models.Ticket{
		EventID:  "evt-000001",
		UserID:   "user-1",
		UserName: "Ana",
		Status:   models.TicketActive,
	})
	require.NoError(t, err)

	payload, err := codec.Encode(ticket)
	require.NoError(t, err)
	require.NoError(t, store.SetQRCodeData(ctx, ticket.ID, payload))
	ticket.QRCodeData = payload

	return NewCheckinService(store, codec, NewNotifier(nil)), store, ticket
}

func TestCheckinService_VerifyActiveTicket(t *testing.T) {
	service, _, ticket := setupCheckin(t)

	result, err := service.Verify(context.Background(), ticket.QRCodeData)
	require.NoError(t, err)

	assert.True(t, result.Valid)
	assert.Equal(t, "Valid Ticket", result.Message)
	require.NotNil(t, result.Ticket)
	assert.Equal(t, ticket.ID, result.Ticket.ID)
}

func TestCheckinService_VerifyIsReadOnly(t *testing.T) {
	service, store, ticket := setupCheckin(t)
	ctx := context.Background()

	// A flaky scanner re-reads the same frame; nothing changes
	for i := 0; i < 3; i++ {
		result, err := service.Verify(ctx, ticket.QRCodeData)
		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.Equal(t, "Valid Ticket", result.Message)
	}

	stored, _ := store.GetTicket(ctx, ticket.ID)
	assert.Equal(t, models.TicketActive, stored.Status)
	assert.Nil(t, stored.RedeemedAt)
}

func TestCheckinService_ConfirmThenVerify(t *testing.T) {
	service, store, ticket := setupCheckin(t)
	ctx := context.Background()

	require.NoError(t, service.Confirm(ctx, ticket.ID))

	stored, err := store.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketUsed, stored.Status)
	require.NotNil(t, stored.RedeemedAt)

	// Re-scanning a used ticket still resolves, flagged as already in
	result, err := service.Verify(ctx, ticket.QRCodeData)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, "Already Checked In", result.Message)
}

func TestCheckinService_ConfirmIsIdempotentGuarded(t *testing.T) {
	service, store, ticket := setupCheckin(t)
	ctx := context.Background()

	require.NoError(t, service.Confirm(ctx, ticket.ID))
	first, _ := store.GetTicket(ctx, ticket.ID)

	err := service.Confirm(ctx, ticket.ID)
	assert.ErrorIs(t, err, status.ErrTicketAlreadyUsed)

	// The original redemption stamp is untouched
	second, _ := store.GetTicket(ctx, ticket.ID)
	assert.Equal(t, first.RedeemedAt.Unix(), second.RedeemedAt.Unix())
}

func TestCheckinService_VerifyUnknownTicket(t *testing.T) {
	service, _, _ := setupCheckin(t)

	result, err := service.Verify(context.Background(), `{"id":"tkt-999999"}`)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Equal(t, "Ticket not found", result.Message)
	assert.Nil(t, result.Ticket)
}

func TestCheckinService_VerifyMalformedPayload(t *testing.T) {
	service, _, _ := setupCheckin(t)

	result, err := service.Verify(context.Background(), `{"id": "broken`)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Equal(t, "Invalid ticket code", result.Message)
}

func TestCheckinService_VerifyLegacyReference(t *testing.T) {
	service, store, _ := setupCheckin(t)
	ctx := context.Background()

	// Older app builds printed QR codes carrying the client-side
	// placeholder id instead of the store id.
	legacy, err := store.CreateTicket(ctx, &models.Ticket{
		EventID:  "evt-000001",
		UserID:   "user-2",
		Status:   models.TicketActive,
		LegacyID: "local-1700000000",
	})
	require.NoError(t, err)

	result, err := service.Verify(ctx, `{"id":"local-1700000000"}`)
	require.NoError(t, err)

	assert.True(t, result.Valid)
	assert.Equal(t, "Valid Ticket", result.Message)
	assert.Equal(t, legacy.ID, result.Ticket.ID)
}

func TestCheckinService_ConfirmUnknownTicket(t *testing.T) {
	service, _, _ := setupCheckin(t)

	err := service.Confirm(context.Background(), "tkt-999999")
	assert.ErrorIs(t, err, status.ErrTicketNotFound)
}
