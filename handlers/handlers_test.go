package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventpass/internal/gateway"
	"eventpass/models"
	"eventpass/services"
	"eventpass/utils"
)

func newRequestEvent(method, url string, body io.Reader) (*core.RequestEvent, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	event := &core.RequestEvent{}
	event.Request = req
	event.Response = rec
	return event, rec
}

func authAs(e *core.RequestEvent, userID string) {
	collection := core.NewBaseCollection("users")
	record := core.NewRecord(collection)
	record.Id = userID
	e.Auth = record
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func newTestStack(t *testing.T) (*services.MemStore, *TicketHandler, *CheckinHandler) {
	t.Helper()

	store := services.NewMemStore()
	codec := services.NewQRCodec("test-secret")
	stats := services.NewStatsService(store, nil)
	notifier := services.NewNotifier(nil)

	provider, err := gateway.NewMockProvider(&gateway.MockConfig{MerchantID: "eventpass-test"})
	require.NoError(t, err)
	payments := services.NewPaymentService(nil, provider, utils.NewCircuitBreaker("test"), 10*time.Minute)

	issuance := services.NewIssuanceService(store, codec, stats, notifier)
	checkin := services.NewCheckinService(store, codec, notifier)

	ticketHandler := NewTicketHandler(nil, store, issuance, payments)
	checkinHandler := NewCheckinHandler(nil, store, checkin)
	return store, ticketHandler, checkinHandler
}

func TestTicketHandler_JoinEvent_Unauthorized(t *testing.T) {
	_, handler, _ := newTestStack(t)

	e, _ := newRequestEvent(http.MethodPost, "/api/v1/events/join", nil)

	err := handler.JoinEvent(e)
	assert.Error(t, err)
}

func TestTicketHandler_JoinEvent_InvalidJSON(t *testing.T) {
	_, handler, _ := newTestStack(t)

	e, _ := newRequestEvent(http.MethodPost, "/api/v1/events/join", bytes.NewReader([]byte("invalid json")))
	authAs(e, "user-1")

	err := handler.JoinEvent(e)
	assert.Error(t, err)
}

func TestTicketHandler_JoinEvent_FreeEvent(t *testing.T) {
	store, handler, _ := newTestStack(t)
	ctx := context.Background()

	event, err := store.CreateEvent(ctx, &models.Event{Title: "Park Run", MaxSeats: 10})
	require.NoError(t, err)

	e, rec := newRequestEvent(http.MethodPost, "/api/v1/events/join", jsonBody(t, map[string]any{
		"event": event,
	}))
	authAs(e, "user-1")

	require.NoError(t, handler.JoinEvent(e))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Ticket models.Ticket `json:"ticket"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, event.ID, resp.Ticket.EventID)
	assert.Equal(t, "user-1", resp.Ticket.UserID)
	assert.NotEmpty(t, resp.Ticket.QRCodeData)
}

func TestTicketHandler_JoinEvent_DuplicateReturnsExistingTicket(t *testing.T) {
	store, handler, _ := newTestStack(t)
	ctx := context.Background()

	event, err := store.CreateEvent(ctx, &models.Event{Title: "Park Run", MaxSeats: 10})
	require.NoError(t, err)

	first, rec1 := newRequestEvent(http.MethodPost, "/api/v1/events/join", jsonBody(t, map[string]any{"event": event}))
	authAs(first, "user-1")
	require.NoError(t, handler.JoinEvent(first))
	require.Equal(t, http.StatusOK, rec1.Code)

	second, rec2 := newRequestEvent(http.MethodPost, "/api/v1/events/join", jsonBody(t, map[string]any{"event": event}))
	authAs(second, "user-1")
	require.NoError(t, handler.JoinEvent(second))

	var resp struct {
		Ticket        models.Ticket `json:"ticket"`
		AlreadyJoined bool          `json:"already_joined"`
	}
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &resp))
	assert.True(t, resp.AlreadyJoined)

	// No second sale went through
	stored, _ := store.GetEvent(ctx, event.ID)
	assert.Equal(t, 1, stored.SoldSeats)
}

func TestTicketHandler_JoinEvent_PricedEventRequiresPayment(t *testing.T) {
	store, handler, _ := newTestStack(t)
	ctx := context.Background()

	event, err := store.CreateEvent(ctx, &models.Event{
		Title:      "Gala Dinner",
		MaxSeats:   10,
		PriceValue: decimal.NewFromFloat(49.99),
	})
	require.NoError(t, err)

	e, _ := newRequestEvent(http.MethodPost, "/api/v1/events/join", jsonBody(t, map[string]any{"event": event}))
	authAs(e, "user-1")

	err = handler.JoinEvent(e)
	assert.Error(t, err)

	stored, _ := store.GetEvent(ctx, event.ID)
	assert.Equal(t, 0, stored.SoldSeats)
}

func TestTicketHandler_MyTickets(t *testing.T) {
	store, handler, _ := newTestStack(t)
	ctx := context.Background()

	_, err := store.CreateTicket(ctx, &models.Ticket{EventID: "evt-a", UserID: "user-1"})
	require.NoError(t, err)
	_, err = store.CreateTicket(ctx, &models.Ticket{EventID: "evt-b", UserID: "user-2"})
	require.NoError(t, err)

	e, rec := newRequestEvent(http.MethodGet, "/api/v1/tickets/mine", nil)
	authAs(e, "user-1")

	require.NoError(t, handler.MyTickets(e))

	var tickets []models.Ticket
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tickets))
	require.Len(t, tickets, 1)
	assert.Equal(t, "evt-a", tickets[0].EventID)
}

func TestCheckinHandler_Verify_Unauthorized(t *testing.T) {
	_, _, handler := newTestStack(t)

	e, _ := newRequestEvent(http.MethodPost, "/api/v1/checkin/verify", nil)

	err := handler.Verify(e)
	assert.Error(t, err)
}

func TestCheckinHandler_Verify(t *testing.T) {
	store, _, handler := newTestStack(t)
	ctx := context.Background()

	ticket, err := store.CreateTicket(ctx, &models.Ticket{
		EventID: "evt-000001",
		UserID:  "user-1",
		Status:  models.TicketActive,
	})
	require.NoError(t, err)

	e, rec := newRequestEvent(http.MethodPost, "/api/v1/checkin/verify", jsonBody(t, map[string]any{
		"payload": `{"id":"` + ticket.ID + `"}`,
	}))
	authAs(e, "host-1")

	require.NoError(t, handler.Verify(e))
	assert.Equal(t, http.StatusOK, rec.Code)

	var result models.ScanResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Valid)
	assert.Equal(t, "Valid Ticket", result.Message)
}

func TestCheckinHandler_Confirm_HostOnly(t *testing.T) {
	store, _, handler := newTestStack(t)
	ctx := context.Background()

	event, err := store.CreateEvent(ctx, &models.Event{Title: "Gala", MaxSeats: 10, CreatorID: "host-1"})
	require.NoError(t, err)
	ticket, err := store.CreateTicket(ctx, &models.Ticket{
		EventID: event.ID,
		UserID:  "user-1",
		Status:  models.TicketActive,
	})
	require.NoError(t, err)

	// Someone other than the host may not confirm entry
	intruder, _ := newRequestEvent(http.MethodPost, "/api/v1/checkin/confirm", jsonBody(t, map[string]any{
		"ticket_id": ticket.ID,
	}))
	authAs(intruder, "user-9")
	assert.Error(t, handler.Confirm(intruder))

	stored, _ := store.GetTicket(ctx, ticket.ID)
	assert.Equal(t, models.TicketActive, stored.Status)

	// The host can
	host, rec := newRequestEvent(http.MethodPost, "/api/v1/checkin/confirm", jsonBody(t, map[string]any{
		"ticket_id": ticket.ID,
	}))
	authAs(host, "host-1")
	require.NoError(t, handler.Confirm(host))
	assert.Equal(t, http.StatusOK, rec.Code)

	stored, _ = store.GetTicket(ctx, ticket.ID)
	assert.Equal(t, models.TicketUsed, stored.Status)
}

func TestCheckinHandler_Confirm_AlreadyUsed(t *testing.T) {
	store, _, handler := newTestStack(t)
	ctx := context.Background()

	event, err := store.CreateEvent(ctx, &models.Event{Title: "Gala", MaxSeats: 10, CreatorID: "host-1"})
	require.NoError(t, err)
	ticket, err := store.CreateTicket(ctx, &models.Ticket{
		EventID: event.ID,
		UserID:  "user-1",
		Status:  models.TicketActive,
	})
	require.NoError(t, err)

	first, _ := newRequestEvent(http.MethodPost, "/api/v1/checkin/confirm", jsonBody(t, map[string]any{"ticket_id": ticket.ID}))
	authAs(first, "host-1")
	require.NoError(t, handler.Confirm(first))

	second, _ := newRequestEvent(http.MethodPost, "/api/v1/checkin/confirm", jsonBody(t, map[string]any{"ticket_id": ticket.ID}))
	authAs(second, "host-1")
	err = handler.Confirm(second)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Already Checked In")
}
