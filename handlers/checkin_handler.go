package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"eventpass/internal/status"
	"eventpass/services"
)

type CheckinHandler struct {
	app     *pocketbase.PocketBase
	store   services.Store
	checkin *services.CheckinService
}

func NewCheckinHandler(app *pocketbase.PocketBase, store services.Store, checkin *services.CheckinService) *CheckinHandler {
	return &CheckinHandler{
		app:     app,
		store:   store,
		checkin: checkin,
	}
}

// Verify - phase 1 of the scan protocol, read-only. Returns the ticket
// state so the operator can decide whether to confirm entry. Safe to
// call repeatedly for the same code.
func (h *CheckinHandler) Verify(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		Payload string `json:"payload"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	result, err := h.checkin.Verify(e.Request.Context(), req.Payload)
	if err != nil {
		return apis.NewBadRequestError("Verification unavailable", err)
	}
	return e.JSON(http.StatusOK, result)
}

// Confirm - phase 2, the one-way redemption write. Restricted to the
// host of the ticket's event.
func (h *CheckinHandler) Confirm(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		TicketID string `json:"ticket_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	ctx := e.Request.Context()

	ticket, err := h.store.GetTicket(ctx, req.TicketID)
	if err != nil {
		return apis.NewNotFoundError("Ticket not found", err)
	}
	event, err := h.store.GetEvent(ctx, ticket.EventID)
	if err != nil {
		return apis.NewNotFoundError("Event not found", err)
	}
	if event.CreatorID != e.Auth.Id {
		return apis.NewForbiddenError("Only the host can check in guests", nil)
	}

	if err := h.checkin.Confirm(ctx, req.TicketID); err != nil {
		if errors.Is(err, status.ErrTicketAlreadyUsed) {
			return apis.NewBadRequestError("Already Checked In", err)
		}
		return apis.NewBadRequestError("Failed to confirm check-in", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"ticket_id": req.TicketID,
	})
}
