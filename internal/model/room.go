// Package model defines data structures for the Alpha Bot client.
package model

import (
	"encoding/json"
	"fmt"
)

// TrashState is the soft-delete flag of a room.
type TrashState string

const (
	TrashActive  TrashState = "active"
	TrashTrashed TrashState = "trashed"
)

// Wire values of the backend trash_can column. "out" means out of the trash can.
const (
	trashWireOut = "out"
	trashWireIn  = "in"
)

// WireValue returns the backend representation of the state.
func (s TrashState) WireValue() string {
	if s == TrashTrashed {
		return trashWireIn
	}
	return trashWireOut
}

// MarshalJSON encodes the backend representation.
func (s TrashState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.WireValue())
}

// UnmarshalJSON accepts the backend values and the client names.
func (s *TrashState) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw {
	case trashWireOut, string(TrashActive), "":
		*s = TrashActive
	case trashWireIn, string(TrashTrashed):
		*s = TrashTrashed
	default:
		return fmt.Errorf("unknown trash state %q", raw)
	}
	return nil
}

// Room is a persistent chat thread, optionally bound to a stock ticker.
type Room struct {
	ID         int64      `json:"chat_id"`
	Title      string     `json:"title"`
	StockCode  string     `json:"stock_code,omitempty"`
	Trash      TrashState `json:"trash_can"`
	CreatedAt  Timestamp  `json:"created_at"`
	LastChatAt Timestamp  `json:"lastchat_at"`
}

// Trashed reports whether the room sits in the trash can.
func (r *Room) Trashed() bool {
	return r.Trash == TrashTrashed
}

// ResolvedRoom is the result of resolving a ticker to a room.
type ResolvedRoom struct {
	Room
	Existed bool `json:"existed"`
}

// UpdateRoomRequest is a partial room update. Nil fields are left unchanged.
type UpdateRoomRequest struct {
	Title *string     `json:"title,omitempty"`
	Trash *TrashState `json:"trash_can,omitempty"`
}
