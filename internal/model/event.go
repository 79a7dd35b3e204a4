package model

import (
	"time"
)

// EventType represents the type of session event.
type EventType string

const (
	EventSessionReset       EventType = "session_reset"
	EventRoomResolved       EventType = "room_resolved"
	EventHistoryLoaded      EventType = "history_loaded"
	EventExchangePending    EventType = "exchange_pending"
	EventExchangeReconciled EventType = "exchange_reconciled"
	EventExchangeRolledBack EventType = "exchange_rolled_back"
	EventRoomUpdated        EventType = "room_updated"
	EventRoomsListed        EventType = "rooms_listed"
	EventError              EventType = "error"
	EventAuthRequired       EventType = "auth_required"
	EventSignedIn           EventType = "signed_in"
)

// SessionEvent notifies presentation layers of a controller state change.
type SessionEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Generation uint64         `json:"generation"`
	RoomID     int64          `json:"room_id,omitempty"`
	Ticker     string         `json:"ticker,omitempty"`
	Messages   []Message      `json:"messages,omitempty"`
	Room       *Room          `json:"room,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
