package client

import (
	"errors"
	"log"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/Abhishekmadoliya/collaborative-whiteboard/internal/models"
)

// Tool identifies the active drawing tool
type Tool string

const (
	ToolPencil Tool = "pencil"
	ToolRect   Tool = "rect"
	ToolCircle Tool = "circle"
	ToolLine   Tool = "line"
	ToolText   Tool = "text"
)

// ErrDraftActive is returned by BeginShape while another shape is still
// building. One shape may build at a time; the UI layer is expected to
// finish or discard the current gesture first.
var ErrDraftActive = errors.New("another shape is already building")

// ErrNoDraft is returned by UpdateShape and CommitShape outside a gesture
var ErrNoDraft = errors.New("no shape is building")

// Frame is the input to rendering: the committed shapes that passed
// validation, the in-progress draft overlaid last, and the last-known
// remote cursors.
type Frame struct {
	Shapes  []models.Shape
	Cursors map[string]models.Cursor
}

// RenderFunc rasterizes one frame. It is invoked after every change to
// visible state and must be a pure function of the frame: the session
// always redraws from the full log, there is no incremental path.
// It runs on the session's event path and must not call back into it.
type RenderFunc func(Frame)

// Transport sends locally produced events to the server. The connection
// is assumed ordered and reliable; no acknowledgments are awaited.
type Transport interface {
	SendDraw(shape models.Shape) error
	SendCursor(cursor models.Cursor) error
	SendClear() error
}

// Session is the client-side mirror of one room: the merged shape log,
// remote cursor positions and at most one in-progress local shape.
// Local commits are optimistic: the shape is appended and rendered
// before the server has seen it; remote draws are appended in receipt
// order. Shapes are immutable once committed, so reconciliation is pure
// append with no merging.
type Session struct {
	mu        sync.Mutex
	transport Transport
	render    RenderFunc

	shapes  []models.Shape
	cursors map[string]models.Cursor
	draft   *models.Shape

	color       string
	strokeWidth float64
	text        string
}

// NewSession creates a session bound to a transport and a renderer
func NewSession(t Transport, render RenderFunc) *Session {
	return &Session{
		transport:   t,
		render:      render,
		shapes:      make([]models.Shape, 0),
		cursors:     make(map[string]models.Cursor),
		color:       "#000000",
		strokeWidth: 2,
	}
}

// SetColor sets the color applied to new drafts
func (s *Session) SetColor(color string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.color = color
}

// SetStrokeWidth sets the stroke width applied to new drafts
func (s *Session) SetStrokeWidth(w float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strokeWidth = w
}

// SetText sets the string placed by the text tool
func (s *Session) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
}

// BeginShape starts a new draft seeded from the gesture's start point.
// The draft is the one place geometry stays mutable: UpdateShape rewrites
// it in place until CommitShape freezes it.
func (s *Session) BeginShape(tool Tool, start models.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft != nil {
		return ErrDraftActive
	}

	draft := models.Shape{
		ID:          uuid.New().String(),
		Color:       s.color,
		StrokeWidth: s.strokeWidth,
	}

	switch tool {
	case ToolPencil:
		draft.Type = models.ShapeTypePencil
		draft.Geom = models.PencilGeometry{Points: []models.Point{start}}
	case ToolRect:
		draft.Type = models.ShapeTypeRect
		draft.Geom = models.RectGeometry{X: start.X, Y: start.Y}
	case ToolCircle:
		draft.Type = models.ShapeTypeCircle
		draft.Geom = models.CircleGeometry{X: start.X, Y: start.Y}
	case ToolLine:
		draft.Type = models.ShapeTypeLine
		draft.Geom = models.LineGeometry{StartX: start.X, StartY: start.Y, EndX: start.X, EndY: start.Y}
	case ToolText:
		draft.Type = models.ShapeTypeText
		draft.Geom = models.TextGeometry{X: start.X, Y: start.Y, Text: s.text}
	default:
		return errors.New("unknown tool: " + string(tool))
	}

	s.draft = &draft
	s.renderLocked()
	return nil
}

// UpdateShape extends the draft's geometry to the given point and
// re-renders with the draft overlaid on the committed log
func (s *Session) UpdateShape(p models.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft == nil {
		return ErrNoDraft
	}

	switch g := s.draft.Geom.(type) {
	case models.PencilGeometry:
		g.Points = append(g.Points, p)
		s.draft.Geom = g
	case models.RectGeometry:
		g.Width = p.X - g.X
		g.Height = p.Y - g.Y
		s.draft.Geom = g
	case models.CircleGeometry:
		g.Radius = math.Hypot(p.X-g.X, p.Y-g.Y)
		s.draft.Geom = g
	case models.LineGeometry:
		g.EndX, g.EndY = p.X, p.Y
		s.draft.Geom = g
	case models.TextGeometry:
		g.X, g.Y = p.X, p.Y
		s.draft.Geom = g
	}

	s.renderLocked()
	return nil
}

// CommitShape freezes the draft into an immutable shape, appends it to
// the local log and transmits it. The append happens before the server
// has acknowledged anything: the local view is optimistic and converges
// as relays arrive at the other clients.
func (s *Session) CommitShape() (models.Shape, error) {
	s.mu.Lock()

	if s.draft == nil {
		s.mu.Unlock()
		return models.Shape{}, ErrNoDraft
	}

	shape := *s.draft
	s.draft = nil
	s.shapes = append(s.shapes, shape)
	s.renderLocked()
	s.mu.Unlock()

	if err := s.transport.SendDraw(shape); err != nil {
		return shape, err
	}
	return shape, nil
}

// AbortShape discards the draft without committing
func (s *Session) AbortShape() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft == nil {
		return
	}
	s.draft = nil
	s.renderLocked()
}

// MoveCursor reports the local pointer position to the other members
func (s *Session) MoveCursor(p models.Point) error {
	s.mu.Lock()
	cursor := models.Cursor{X: p.X, Y: p.Y, Color: s.color}
	s.mu.Unlock()
	return s.transport.SendCursor(cursor)
}

// Clear empties the local log optimistically and broadcasts the clear
func (s *Session) Clear() error {
	s.mu.Lock()
	s.shapes = s.shapes[:0]
	s.renderLocked()
	s.mu.Unlock()
	return s.transport.SendClear()
}

// ReceiveInitialShapes replaces the mirrored log wholesale. Sent by the
// server once, right after joining.
func (s *Session) ReceiveInitialShapes(shapes []models.Shape) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shapes = append(s.shapes[:0], shapes...)
	s.renderLocked()
}

// ReceiveRemoteDraw appends a relayed shape in receipt order. Shapes are
// immutable and keyed by an ID assigned at the originating client, so no
// merge is needed; malformed ones stay in the log and are skipped when
// the frame is built.
func (s *Session) ReceiveRemoteDraw(shape models.Shape) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shapes = append(s.shapes, shape)
	s.renderLocked()
}

// ReceiveCursorMove upserts the cursor of a remote member. Last write
// wins; a member removed by ReceiveMemberLeft reappears on its next move.
func (s *Session) ReceiveCursorMove(memberID string, cursor models.Cursor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cursors[memberID] = cursor
	s.renderLocked()
}

// ReceiveMemberLeft drops a remote member's cursor
func (s *Session) ReceiveMemberLeft(memberID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.cursors, memberID)
	s.renderLocked()
}

// ReceiveClear empties the mirrored log in lockstep with the room
func (s *Session) ReceiveClear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shapes = s.shapes[:0]
	s.renderLocked()
}

// Shapes returns a copy of the committed mirrored log
func (s *Session) Shapes() []models.Shape {
	s.mu.Lock()
	defer s.mu.Unlock()

	shapes := make([]models.Shape, len(s.shapes))
	copy(shapes, s.shapes)
	return shapes
}

// Cursors returns a copy of the remote cursor map
func (s *Session) Cursors() map[string]models.Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()

	cursors := make(map[string]models.Cursor, len(s.cursors))
	for id, c := range s.cursors {
		cursors[id] = c
	}
	return cursors
}

// renderLocked builds the frame and invokes the renderer. This is the
// render boundary: shapes that fail validation are skipped here, the
// rest of the frame still renders. Caller holds s.mu.
func (s *Session) renderLocked() {
	if s.render == nil {
		return
	}

	frame := Frame{
		Shapes:  make([]models.Shape, 0, len(s.shapes)+1),
		Cursors: make(map[string]models.Cursor, len(s.cursors)),
	}
	for _, shape := range s.shapes {
		if err := shape.Validate(); err != nil {
			log.Printf("Skipping malformed shape: %v", err)
			continue
		}
		frame.Shapes = append(frame.Shapes, shape)
	}
	if s.draft != nil {
		frame.Shapes = append(frame.Shapes, *s.draft)
	}
	for id, c := range s.cursors {
		frame.Cursors[id] = c
	}

	s.render(frame)
}
