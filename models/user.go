package models

import "time"

// User is owned by the auth collaborator. The ticketing core reads only
// the id and the displayable name.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

type HistoryItem struct {
	ID        string `json:"id"`
	Type      string `json:"type"` // search, view, itinerary
	Title     string `json:"title"`
	Timestamp int64  `json:"timestamp"`
}

// Preferences is the per-user sync blob: search/view history, saved
// events and reminder subscriptions. Merged on write, never replaced
// wholesale.
type Preferences struct {
	UserID      string        `json:"user_id"`
	History     []HistoryItem `json:"history,omitempty"`
	SavedEvents []Event       `json:"saved_events,omitempty"`
	Reminders   []string      `json:"reminders,omitempty"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
