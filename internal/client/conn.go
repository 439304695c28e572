package client

import (
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Abhishekmadoliya/collaborative-whiteboard/internal/models"
)

// ErrConnClosed is returned by the send methods once the connection has
// been closed or dropped by the server.
var ErrConnClosed = errors.New("connection closed")

// Conn is the websocket binding between one session and the board
// server: an ordered, reliable, bidirectional event channel. Outbound
// events go through a buffered queue drained by a write pump; inbound
// events are dispatched into the session by Listen.
type Conn struct {
	ws       *websocket.Conn
	send     chan []byte
	done     chan struct{}
	quit     chan struct{}
	quitOnce sync.Once
}

// Dial connects to the board server and joins the given room. The room
// identifier travels in the URL path; membership is established by the
// connection itself, there is no explicit join message.
func Dial(serverURL, roomID string) (*Conn, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u = u.JoinPath("ws", "board", roomID)

	ws, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}

	c := &Conn{
		ws:   ws,
		send: make(chan []byte, 256),
		done: make(chan struct{}),
		quit: make(chan struct{}),
	}
	go c.writePump()
	return c, nil
}

// Listen consumes server events and applies them to the session until
// the connection drops. Run it on its own goroutine.
func (c *Conn) Listen(s *Session) {
	defer close(c.done)
	// A server-side drop must release the write pump too
	defer c.shutdown()

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		var ev models.Event
		if err := json.Unmarshal(message, &ev); err != nil {
			log.Printf("Failed to parse event: %v", err)
			continue
		}

		switch ev.Type {
		case models.EventInitialShapes:
			var shapes []models.Shape
			if err := json.Unmarshal(ev.Payload, &shapes); err != nil {
				log.Printf("Failed to parse initial shapes: %v", err)
				continue
			}
			s.ReceiveInitialShapes(shapes)
		case models.EventDraw:
			var shape models.Shape
			if err := json.Unmarshal(ev.Payload, &shape); err != nil {
				log.Printf("Failed to parse shape: %v", err)
				continue
			}
			s.ReceiveRemoteDraw(shape)
		case models.EventCursorMove:
			var cursor models.Cursor
			if err := json.Unmarshal(ev.Payload, &cursor); err != nil {
				log.Printf("Failed to parse cursor: %v", err)
				continue
			}
			s.ReceiveCursorMove(ev.From, cursor)
		case models.EventMemberLeft:
			s.ReceiveMemberLeft(ev.From)
		case models.EventClear:
			s.ReceiveClear()
		default:
			log.Printf("Unknown event type: %s", ev.Type)
		}
	}
}

// SendDraw transmits one committed shape
func (c *Conn) SendDraw(shape models.Shape) error {
	payload, err := json.Marshal(shape)
	if err != nil {
		return err
	}
	return c.enqueue(models.Event{Type: models.EventDraw, Payload: payload})
}

// SendCursor transmits the local cursor position
func (c *Conn) SendCursor(cursor models.Cursor) error {
	payload, err := json.Marshal(cursor)
	if err != nil {
		return err
	}
	return c.enqueue(models.Event{Type: models.EventCursorMove, Payload: payload})
}

// SendClear broadcasts a full canvas clear
func (c *Conn) SendClear() error {
	return c.enqueue(models.Event{Type: models.EventClear})
}

// Done is closed once the server connection has dropped
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Close tears the connection down; the server handles it like any other
// disconnect and announces member-left to the room
func (c *Conn) Close() error {
	c.shutdown()
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.ws.Close()
}

// shutdown stops the write pump and fails subsequent sends. Safe to call
// from both Close and the Listen exit path.
func (c *Conn) shutdown() {
	c.quitOnce.Do(func() { close(c.quit) })
}

func (c *Conn) enqueue(ev models.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	select {
	case <-c.quit:
		return ErrConnClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errors.New("send buffer full")
	}
}

func (c *Conn) writePump() {
	for {
		select {
		case message := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Failed to write message: %v", err)
				return
			}
		case <-c.quit:
			return
		}
	}
}
