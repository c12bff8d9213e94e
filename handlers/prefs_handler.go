package handlers

import (
	"net/http"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"eventpass/models"
)

// PrefsHandler syncs per-user preference blobs (history, saved events,
// reminders). Writes merge field by field so a client that only sends
// reminders does not wipe the saved-events list.
type PrefsHandler struct {
	app *pocketbase.PocketBase
}

func NewPrefsHandler(app *pocketbase.PocketBase) *PrefsHandler {
	return &PrefsHandler{app: app}
}

func (h *PrefsHandler) findRecord(userID string) (*core.Record, error) {
	return h.app.FindFirstRecordByFilter(
		"preferences",
		"user_id = {:userId}",
		dbx.Params{"userId": userID},
	)
}

func (h *PrefsHandler) GetPreferences(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	record, err := h.findRecord(e.Auth.Id)
	if err != nil {
		// No sync record yet: an empty blob, not an error.
		return e.JSON(http.StatusOK, &models.Preferences{UserID: e.Auth.Id})
	}

	prefs := &models.Preferences{UserID: e.Auth.Id}
	record.UnmarshalJSONField("history", &prefs.History)
	record.UnmarshalJSONField("saved_events", &prefs.SavedEvents)
	record.UnmarshalJSONField("reminders", &prefs.Reminders)
	prefs.UpdatedAt = record.GetDateTime("updated").Time()

	return e.JSON(http.StatusOK, prefs)
}

func (h *PrefsHandler) SyncPreferences(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		History     []models.HistoryItem `json:"history"`
		SavedEvents []models.Event       `json:"saved_events"`
		Reminders   []string             `json:"reminders"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	record, err := h.findRecord(e.Auth.Id)
	if err != nil {
		collection, err := h.app.FindCollectionByNameOrId("preferences")
		if err != nil {
			return apis.NewBadRequestError("Failed to sync preferences", err)
		}
		record = core.NewRecord(collection)
		record.Set("user_id", e.Auth.Id)
	}

	if req.History != nil {
		record.Set("history", req.History)
	}
	if req.SavedEvents != nil {
		record.Set("saved_events", req.SavedEvents)
	}
	if req.Reminders != nil {
		record.Set("reminders", req.Reminders)
	}

	if err := h.app.Save(record); err != nil {
		return apis.NewBadRequestError("Failed to sync preferences", err)
	}
	return e.JSON(http.StatusOK, map[string]any{"synced": true})
}
