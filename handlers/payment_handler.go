package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"eventpass/internal/gateway"
	"eventpass/services"
)

type PaymentHandler struct {
	app      *pocketbase.PocketBase
	store    services.Store
	payments *services.PaymentService
	provider gateway.PaymentProvider
}

func NewPaymentHandler(app *pocketbase.PocketBase, store services.Store, payments *services.PaymentService, provider gateway.PaymentProvider) *PaymentHandler {
	return &PaymentHandler{
		app:      app,
		store:    store,
		payments: payments,
		provider: provider,
	}
}

// CreateSession - open a charge for a priced event join
func (h *PaymentHandler) CreateSession(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		EventID string `json:"event_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	ctx := e.Request.Context()

	event, err := h.store.GetEvent(ctx, req.EventID)
	if err != nil {
		return apis.NewNotFoundError("Event not found", err)
	}
	if event.IsFree() {
		return apis.NewBadRequestError("Event is free to join", nil)
	}

	session, err := h.payments.CreateSession(ctx, e.Auth.Id, event)
	if err != nil {
		return apis.NewBadRequestError("Failed to create payment", err)
	}
	return e.JSON(http.StatusOK, session)
}

// CheckStatus - poll a session while the client waits for settlement
func (h *PaymentHandler) CheckStatus(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	paymentID := e.Request.PathValue("paymentId")

	session, err := h.payments.GetSession(e.Request.Context(), paymentID)
	if err != nil {
		return apis.NewNotFoundError("Payment not found", err)
	}
	if session.UserID != e.Auth.Id {
		return apis.NewForbiddenError("Not your payment", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"payment_id": session.ID,
		"status":     session.Status,
	})
}

// SimulatePayment - development-only settlement trigger for the mock
// gateway
func (h *PaymentHandler) SimulatePayment(e *core.RequestEvent) error {
	var req struct {
		PaymentID string `json:"payment_id"`
		Status    string `json:"status"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Status == "" {
		req.Status = "success"
	}

	mock, ok := h.provider.(*gateway.MockProvider)
	if !ok {
		return apis.NewBadRequestError("Simulation requires the mock gateway", nil)
	}

	tx, err := mock.Simulate(e.Request.Context(), req.PaymentID, req.Status)
	if err != nil {
		return apis.NewNotFoundError("Payment not found", err)
	}
	return e.JSON(http.StatusOK, tx)
}
