package board

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/Abhishekmadoliya/collaborative-whiteboard/internal/models"
)

// Sender queues one encoded event for delivery to a single member.
// Implementations must not block; they report false when the event was
// dropped (e.g. a full outbound buffer).
type Sender interface {
	Send(data []byte) bool
}

// Room holds the authoritative state of one board: the append-only shape
// log and the currently connected members. Shapes are kept as raw JSON:
// the server routes events and keeps order, it never decodes geometry.
type Room struct {
	ID      string
	mu      sync.Mutex
	shapes  []json.RawMessage
	members map[string]Sender
}

// Registry owns the mapping from room ID to Room. It is created by the
// server process and passed to the connection handler; there is no
// package-level room state, so tests can run independent registries
// side by side.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

func (reg *Registry) getRoom(roomID string) *Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.rooms[roomID]
}

// Join adds memberID to the room, creating the room if it does not exist
// yet, and queues the initial-shapes snapshot on the member's sender. The
// snapshot and the membership update happen under the room lock, so a
// late joiner sees every shape appended so far exactly once: relays
// ordered after the join can only follow the snapshot on the same queue.
func (reg *Registry) Join(roomID, memberID string, s Sender) {
	reg.mu.Lock()
	room, exists := reg.rooms[roomID]
	if !exists {
		room = &Room{
			ID:      roomID,
			shapes:  make([]json.RawMessage, 0),
			members: make(map[string]Sender),
		}
		reg.rooms[roomID] = room
		log.Printf("Created new room: %s", roomID)
	}
	// Take the room lock before releasing the registry lock. The reap in
	// Leave locks in the same order, so a room looked up here cannot be
	// removed from the map before the new member is inserted.
	room.mu.Lock()
	reg.mu.Unlock()
	defer room.mu.Unlock()

	snapshot, err := json.Marshal(room.shapes)
	if err != nil {
		log.Printf("Failed to marshal snapshot for room %s: %v", roomID, err)
		snapshot = []byte("[]")
	}
	room.send(memberID, s, models.Event{
		Type:    models.EventInitialShapes,
		RoomID:  roomID,
		Payload: snapshot,
	})
	room.members[memberID] = s
}

// AppendAndRelay appends one shape to the room's log and relays it
// verbatim to every member except the sender. Holding the room lock for
// the whole append-and-relay sequence is the single serialization point
// that keeps the log order well-defined under concurrent senders and
// keeps snapshots consistent with relays. No-op if the room is unknown.
func (reg *Registry) AppendAndRelay(roomID, from string, shape json.RawMessage) {
	room := reg.getRoom(roomID)
	if room == nil {
		// Defensive: join precedes any append in correct operation
		log.Printf("Dropping draw for unknown room %s", roomID)
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	room.shapes = append(room.shapes, shape)
	room.relay(from, models.Event{
		Type:    models.EventDraw,
		From:    from,
		RoomID:  roomID,
		Payload: shape,
	})
}

// RelayCursor forwards a cursor position to every member except the
// sender, stamping the sender's ID on the envelope. Cursors are
// ephemeral: nothing is recorded in the room.
func (reg *Registry) RelayCursor(roomID, from string, payload json.RawMessage) {
	room := reg.getRoom(roomID)
	if room == nil {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	room.relay(from, models.Event{
		Type:    models.EventCursorMove,
		From:    from,
		RoomID:  roomID,
		Payload: payload,
	})
}

// ClearAndRelay empties the room's shape log and relays the clear to
// every member except the initiator, who has already cleared locally.
func (reg *Registry) ClearAndRelay(roomID, from string) {
	room := reg.getRoom(roomID)
	if room == nil {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	room.shapes = room.shapes[:0]
	room.relay(from, models.Event{
		Type:   models.EventClear,
		From:   from,
		RoomID: roomID,
	})
}

// Leave removes memberID from the room and announces member-left to the
// remaining members. The shape log is untouched. The room itself is
// removed once its last member leaves.
func (reg *Registry) Leave(roomID, memberID string) {
	room := reg.getRoom(roomID)
	if room == nil {
		return
	}

	room.mu.Lock()
	delete(room.members, memberID)
	empty := len(room.members) == 0
	if !empty {
		room.relay(memberID, models.Event{
			Type:   models.EventMemberLeft,
			From:   memberID,
			RoomID: roomID,
		})
	}
	room.mu.Unlock()

	if empty {
		reg.mu.Lock()
		// Re-check under the registry lock: a concurrent Join may have
		// revived the room since we released its lock.
		room.mu.Lock()
		if len(room.members) == 0 && reg.rooms[roomID] == room {
			delete(reg.rooms, roomID)
			log.Printf("Removed empty room: %s", roomID)
		}
		room.mu.Unlock()
		reg.mu.Unlock()
	}
}

// Shapes returns a copy of the room's current shape log, nil if the room
// does not exist
func (reg *Registry) Shapes(roomID string) []json.RawMessage {
	room := reg.getRoom(roomID)
	if room == nil {
		return nil
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	shapes := make([]json.RawMessage, len(room.shapes))
	copy(shapes, room.shapes)
	return shapes
}

// MemberCount returns the number of connected members, 0 for unknown rooms
func (reg *Registry) MemberCount(roomID string) int {
	room := reg.getRoom(roomID)
	if room == nil {
		return 0
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	return len(room.members)
}

// RoomCount returns the number of live rooms
func (reg *Registry) RoomCount() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// relay fans out one event to every member except excludeID.
// Caller holds room.mu.
func (r *Room) relay(excludeID string, ev models.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Failed to marshal event: %v", err)
		return
	}

	for memberID, s := range r.members {
		if memberID == excludeID {
			continue
		}
		if !s.Send(data) {
			log.Printf("Failed to send event to member %s, buffer full", memberID)
		}
	}
}

// send queues one event for a single member. Caller holds room.mu.
func (r *Room) send(memberID string, s Sender, ev models.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Failed to marshal event: %v", err)
		return
	}
	if !s.Send(data) {
		log.Printf("Failed to send event to member %s, buffer full", memberID)
	}
}
