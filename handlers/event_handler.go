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

type EventHandler struct {
	app   *pocketbase.PocketBase
	store services.Store
	stats *services.StatsService
}

func NewEventHandler(app *pocketbase.PocketBase, store services.Store, stats *services.StatsService) *EventHandler {
	return &EventHandler{
		app:   app,
		store: store,
		stats: stats,
	}
}

// CreateEvent - host posts a new event
func (h *EventHandler) CreateEvent(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req models.Event
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Title == "" {
		return apis.NewBadRequestError("Title is required", nil)
	}
	if req.PriceValue.IsNegative() {
		return apis.NewBadRequestError("Price cannot be negative", nil)
	}
	if req.MaxSeats < 0 {
		return apis.NewBadRequestError("Capacity cannot be negative", nil)
	}

	req.ID = ""
	req.CreatorID = e.Auth.Id
	req.UserCreated = true

	event, err := h.store.CreateEvent(e.Request.Context(), &req)
	if err != nil {
		return apis.NewBadRequestError("Failed to create event", err)
	}

	return e.JSON(http.StatusOK, event)
}

// ListEvents - all stored events in schedule order
func (h *EventHandler) ListEvents(e *core.RequestEvent) error {
	events, err := h.store.ListEvents(e.Request.Context())
	if err != nil {
		return apis.NewBadRequestError("Failed to list events", err)
	}
	return e.JSON(http.StatusOK, events)
}

func (h *EventHandler) GetEvent(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")

	event, err := h.store.GetEvent(e.Request.Context(), eventID)
	if err != nil {
		return apis.NewNotFoundError("Event not found", err)
	}
	return e.JSON(http.StatusOK, event)
}

// SetCapacity - host edits max seats. Lowering below the sold count is
// permitted; the dashboard just shows the event as oversold.
func (h *EventHandler) SetCapacity(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	eventID := e.Request.PathValue("eventId")

	var req struct {
		MaxSeats int `json:"max_seats"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.MaxSeats < 0 {
		return apis.NewBadRequestError("Capacity cannot be negative", nil)
	}

	ctx := e.Request.Context()

	event, err := h.store.GetEvent(ctx, eventID)
	if err != nil {
		return apis.NewNotFoundError("Event not found", err)
	}
	if event.CreatorID != e.Auth.Id {
		return apis.NewForbiddenError("Only the host can edit capacity", nil)
	}

	if err := h.stats.SetCapacity(ctx, eventID, req.MaxSeats); err != nil {
		return apis.NewBadRequestError("Failed to update capacity", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"event_id":  eventID,
		"max_seats": req.MaxSeats,
	})
}

// GetEventStats - live sold/capacity/attendee counters
func (h *EventHandler) GetEventStats(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")

	stats, err := h.stats.EventStats(e.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, status.ErrEventNotFound) {
			return apis.NewNotFoundError("Event not found", err)
		}
		return apis.NewBadRequestError("Failed to load stats", err)
	}
	return e.JSON(http.StatusOK, stats)
}

// ListEventTickets - host-only guest list for the scanner view
func (h *EventHandler) ListEventTickets(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	eventID := e.Request.PathValue("eventId")
	ctx := e.Request.Context()

	event, err := h.store.GetEvent(ctx, eventID)
	if err != nil {
		return apis.NewNotFoundError("Event not found", err)
	}
	if event.CreatorID != e.Auth.Id {
		return apis.NewForbiddenError("Only the host can view the guest list", nil)
	}

	tickets, err := h.store.ListTicketsForEvent(ctx, eventID)
	if err != nil {
		return apis.NewBadRequestError("Failed to list tickets", err)
	}
	return e.JSON(http.StatusOK, tickets)
}
