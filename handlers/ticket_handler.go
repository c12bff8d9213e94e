package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"eventpass/internal/status"
	"eventpass/models"
	"eventpass/services"
)

type TicketHandler struct {
	app      *pocketbase.PocketBase
	store    services.Store
	issuance *services.IssuanceService
	payments *services.PaymentService
}

func NewTicketHandler(app *pocketbase.PocketBase, store services.Store, issuance *services.IssuanceService, payments *services.PaymentService) *TicketHandler {
	return &TicketHandler{
		app:      app,
		store:    store,
		issuance: issuance,
		payments: payments,
	}
}

// JoinEvent - issue a ticket for the authenticated user. The request
// carries the full event object because discovered events may not be
// persisted yet. Priced events need a completed payment session first.
func (h *TicketHandler) JoinEvent(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		Event     models.Event `json:"event"`
		ClientRef string       `json:"client_ref,omitempty"`
		PaymentID string       `json:"payment_id,omitempty"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	ctx := e.Request.Context()
	user := models.User{
		ID:   e.Auth.Id,
		Name: e.Auth.GetString("name"),
	}

	// One ticket per (event, user): hand back the existing one instead
	// of double-booking. The store does not enforce this; the check
	// lives here at the caller layer.
	if req.Event.ID != "" {
		if existing, err := h.store.FindTicketForEventUser(ctx, req.Event.ID, user.ID); err == nil {
			return e.JSON(http.StatusOK, map[string]any{
				"ticket":         existing,
				"already_joined": true,
			})
		}
	}

	if !req.Event.IsFree() {
		if req.PaymentID == "" || !h.payments.IsCompleted(ctx, req.PaymentID, user.ID, req.Event.ID) {
			return apis.NewBadRequestError("Payment required", status.ErrFailedPayment)
		}
	}

	ticket, err := h.issuance.JoinEvent(ctx, &req.Event, user, req.ClientRef)
	if err != nil {
		if errors.Is(err, status.ErrEventSoldOut) {
			return apis.NewBadRequestError("Event is sold out", err)
		}
		return apis.NewBadRequestError("Error booking ticket", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"ticket": ticket})
}

// MyTickets - the authenticated user's tickets, newest first
func (h *TicketHandler) MyTickets(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	tickets, err := h.store.ListTicketsForUser(e.Request.Context(), e.Auth.Id)
	if err != nil {
		return apis.NewBadRequestError("Failed to list tickets", err)
	}
	return e.JSON(http.StatusOK, tickets)
}
