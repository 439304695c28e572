package models

import "encoding/json"

// EventType represents the type of a relay protocol event
type EventType string

const (
	// EventInitialShapes bootstraps a joining client with the room's full
	// shape log. Sent to the joining connection only, before any relays.
	EventInitialShapes EventType = "initial-shapes"
	// EventDraw carries one committed shape
	EventDraw EventType = "draw"
	// EventCursorMove carries an ephemeral cursor position; never persisted
	EventCursorMove EventType = "cursor-move"
	// EventClear empties the room's shape log on every member
	EventClear EventType = "clear"
	// EventMemberLeft announces a disconnected member to the remaining ones
	EventMemberLeft EventType = "member-left"
)

// Event is the envelope for every message on a board connection. Payload
// stays raw: the server routes on Type and From only and relays payloads
// verbatim, it never inspects shape geometry.
type Event struct {
	Type    EventType       `json:"type"`
	From    string          `json:"from,omitempty"`
	RoomID  string          `json:"roomId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEvent builds an envelope, marshaling payload in place
func NewEvent(t EventType, payload interface{}) (Event, error) {
	ev := Event{Type: t}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Event{}, err
		}
		ev.Payload = data
	}
	return ev, nil
}

// Cursor is the ephemeral last-known pointer position of one member.
// Overwritten on every update, removed on disconnect.
type Cursor struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color,omitempty"`
}
