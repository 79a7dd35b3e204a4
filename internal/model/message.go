package model

import (
	"encoding/json"
	"strconv"
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MessageStatus marks transient presentation state of a message.
type MessageStatus string

const (
	StatusNone       MessageStatus = ""
	StatusGenerating MessageStatus = "generating"
)

// GeneratingText is the placeholder body of a pending assistant reply.
const GeneratingText = "generating..."

// MessageRef identifies a message. It is either a ConfirmedID assigned by the
// server or a ProvisionalID generated locally before confirmation.
type MessageRef interface {
	isMessageRef()
	String() string
}

// ConfirmedID is a server-assigned message identifier.
type ConfirmedID int64

func (ConfirmedID) isMessageRef() {}

func (id ConfirmedID) String() string { return strconv.FormatInt(int64(id), 10) }

// ProvisionalID is a client-generated identifier for a pending message.
type ProvisionalID string

func (ProvisionalID) isMessageRef() {}

func (id ProvisionalID) String() string { return string(id) }

// Message is one entry of a room transcript.
type Message struct {
	Ref       MessageRef
	RoomID    int64
	Role      Role
	Text      string
	Status    MessageStatus
	CreatedAt time.Time
}

// Confirmed returns the server ID and true when the message is confirmed.
func (m Message) Confirmed() (ConfirmedID, bool) {
	id, ok := m.Ref.(ConfirmedID)
	return id, ok
}

// Provisional returns the temporary ID and true when the message is pending.
func (m Message) Provisional() (ProvisionalID, bool) {
	id, ok := m.Ref.(ProvisionalID)
	return id, ok
}

type messageJSON struct {
	ID          string        `json:"id"`
	Provisional bool          `json:"provisional"`
	RoomID      int64         `json:"room_id"`
	Role        Role          `json:"role"`
	Text        string        `json:"text"`
	Status      MessageStatus `json:"status,omitempty"`
	CreatedAt   *time.Time    `json:"created_at,omitempty"`
}

// MarshalJSON flattens the reference into an id plus a provisional flag.
func (m Message) MarshalJSON() ([]byte, error) {
	out := messageJSON{
		RoomID: m.RoomID,
		Role:   m.Role,
		Text:   m.Text,
		Status: m.Status,
	}
	if m.Ref != nil {
		out.ID = m.Ref.String()
	}
	_, out.Provisional = m.Provisional()
	if !m.CreatedAt.IsZero() {
		t := m.CreatedAt
		out.CreatedAt = &t
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores the tagged reference.
func (m *Message) UnmarshalJSON(data []byte) error {
	var in messageJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Provisional {
		m.Ref = ProvisionalID(in.ID)
	} else {
		id, err := strconv.ParseInt(in.ID, 10, 64)
		if err != nil {
			return err
		}
		m.Ref = ConfirmedID(id)
	}
	m.RoomID = in.RoomID
	m.Role = in.Role
	m.Text = in.Text
	m.Status = in.Status
	if in.CreatedAt != nil {
		m.CreatedAt = *in.CreatedAt
	}
	return nil
}

// SessionPhase is the state of the send state machine.
type SessionPhase string

const (
	PhaseIdle    SessionPhase = "idle"
	PhaseSending SessionPhase = "sending"
)

// SessionSnapshot is a read-only copy of the controller state.
type SessionSnapshot struct {
	Generation uint64       `json:"generation"`
	Ticker     string       `json:"ticker,omitempty"`
	Room       *Room        `json:"room,omitempty"`
	Messages   []Message    `json:"messages"`
	Phase      SessionPhase `json:"phase"`
	Loading    bool         `json:"loading"`
	LastError  string       `json:"last_error,omitempty"`
}
