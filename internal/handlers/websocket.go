package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Abhishekmadoliya/collaborative-whiteboard/internal/board"
	"github.com/Abhishekmadoliya/collaborative-whiteboard/internal/models"
	"github.com/Abhishekmadoliya/collaborative-whiteboard/internal/redis"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is handled by middleware
		return true
	},
}

// Board serves the whiteboard endpoints against one injected registry
type Board struct {
	Registry *board.Registry
}

// NewBoard creates a handler set bound to the given registry
func NewBoard(reg *board.Registry) *Board {
	return &Board{Registry: reg}
}

// Client represents a WebSocket client connection
type Client struct {
	ID     string
	RoomID string
	Conn   *websocket.Conn
	send   chan []byte
}

// Send queues an encoded event for the write pump. Never blocks; reports
// false when the buffer is full and the event was dropped.
func (c *Client) Send(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// HandleBoard handles WebSocket connections for a drawing room
func (b *Board) HandleBoard(c *gin.Context) {
	roomIdentifier := c.Param("roomId")
	if roomIdentifier == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roomId is required"})
		return
	}

	// Shared codes map to a room ID; anything else is an opaque room ID
	// created lazily on first join.
	roomID := resolveRoomID(roomIdentifier)

	// Upgrade HTTP connection to WebSocket
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	// Generate unique member ID
	memberID := uuid.New().String()

	client := &Client{
		ID:     memberID,
		RoomID: roomID,
		Conn:   conn,
		send:   make(chan []byte, 256),
	}

	// Register membership; the initial-shapes snapshot is queued first
	b.Registry.Join(roomID, memberID, client)

	// Track presence in Redis for the room info API
	if rdb := redis.GetClient(); rdb != nil {
		ctx := redis.GetContext()
		rdb.SAdd(ctx, "room:"+roomID+":peers", memberID)
		rdb.Expire(ctx, "room:"+roomID+":peers", 24*time.Hour)
	}

	log.Printf("Member %s joined room %s - %d members", memberID, roomID, b.Registry.MemberCount(roomID))

	// Start goroutines for reading and writing
	go client.writePump()
	go client.readPump(b.Registry)
}

// resolveRoomID maps a shared room code to its room ID when one exists.
// Unknown identifiers pass through unchanged: a room is created lazily
// when its first member joins.
func resolveRoomID(roomIdentifier string) string {
	if len(roomIdentifier) != roomCodeLength {
		return roomIdentifier
	}
	rdb := redis.GetClient()
	if rdb == nil {
		return roomIdentifier
	}
	if id, err := rdb.Get(redis.GetContext(), "code:"+roomIdentifier).Result(); err == nil {
		return id
	}
	return roomIdentifier
}

func (c *Client) readPump(reg *board.Registry) {
	defer func() {
		// Removes membership and broadcasts member-left to the remaining
		// members; empty rooms are reaped by the registry.
		reg.Leave(c.RoomID, c.ID)
		c.Conn.Close()

		if rdb := redis.GetClient(); rdb != nil {
			rdb.SRem(redis.GetContext(), "room:"+c.RoomID+":peers", c.ID)
		}

		log.Printf("Member %s left room %s", c.ID, c.RoomID)
	}()

	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		// Parse the envelope only. Shape payloads are relayed verbatim;
		// geometry is a client concern.
		var ev models.Event
		if err := json.Unmarshal(message, &ev); err != nil {
			log.Printf("Failed to parse event: %v", err)
			continue
		}

		switch ev.Type {
		case models.EventDraw:
			reg.AppendAndRelay(c.RoomID, c.ID, ev.Payload)
		case models.EventCursorMove:
			reg.RelayCursor(c.RoomID, c.ID, ev.Payload)
		case models.EventClear:
			reg.ClearAndRelay(c.RoomID, c.ID)
		default:
			log.Printf("Unknown event type: %s", ev.Type)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Failed to write message: %v", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
