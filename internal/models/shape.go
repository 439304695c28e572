package models

import (
	"encoding/json"
	"fmt"
)

// ShapeType is the closed set of drawable primitives
type ShapeType string

const (
	ShapeTypePencil ShapeType = "pencil"
	ShapeTypeRect   ShapeType = "rect"
	ShapeTypeCircle ShapeType = "circle"
	ShapeTypeLine   ShapeType = "line"
	ShapeTypeText   ShapeType = "text"
)

// Point is a single canvas coordinate
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Geometry is implemented by the per-kind geometry variants. Exactly one
// variant is valid for a given ShapeType; Shape.Validate checks the pairing.
type Geometry interface {
	shapeGeometry()
}

// PencilGeometry is a freehand stroke through an ordered point sequence
type PencilGeometry struct {
	Points []Point
}

// RectGeometry is an axis-aligned rectangle
type RectGeometry struct {
	X, Y          float64
	Width, Height float64
}

// CircleGeometry is a circle centered at X,Y
type CircleGeometry struct {
	X, Y   float64
	Radius float64
}

// LineGeometry is a straight segment between two points
type LineGeometry struct {
	StartX, StartY float64
	EndX, EndY     float64
}

// TextGeometry places a text string at X,Y
type TextGeometry struct {
	X, Y float64
	Text string
}

func (PencilGeometry) shapeGeometry() {}
func (RectGeometry) shapeGeometry()   {}
func (CircleGeometry) shapeGeometry() {}
func (LineGeometry) shapeGeometry()   {}
func (TextGeometry) shapeGeometry()   {}

// Shape is an immutable drawn primitive. Once committed and broadcast its
// fields never change; edits are new shapes. Geom is nil when the wire
// record was missing the geometry fields for its declared type. Such
// shapes stay in the log and are skipped at the render boundary.
type Shape struct {
	ID          string
	Type        ShapeType
	Color       string
	StrokeWidth float64
	Geom        Geometry
}

// shapeWire is the flat wire representation: geometry fields live directly
// on the shape object, which fields are present depends on "type".
type shapeWire struct {
	ID          string    `json:"id"`
	Type        ShapeType `json:"type"`
	Color       string    `json:"color,omitempty"`
	StrokeWidth float64   `json:"strokeWidth,omitempty"`
	Points      []Point   `json:"points,omitempty"`
	X           *float64  `json:"x,omitempty"`
	Y           *float64  `json:"y,omitempty"`
	Width       *float64  `json:"width,omitempty"`
	Height      *float64  `json:"height,omitempty"`
	Radius      *float64  `json:"radius,omitempty"`
	StartX      *float64  `json:"startX,omitempty"`
	StartY      *float64  `json:"startY,omitempty"`
	EndX        *float64  `json:"endX,omitempty"`
	EndY        *float64  `json:"endY,omitempty"`
	Text        *string   `json:"text,omitempty"`
}

// MarshalJSON flattens the geometry variant into the shape object
func (s Shape) MarshalJSON() ([]byte, error) {
	w := shapeWire{
		ID:          s.ID,
		Type:        s.Type,
		Color:       s.Color,
		StrokeWidth: s.StrokeWidth,
	}

	switch g := s.Geom.(type) {
	case PencilGeometry:
		w.Points = g.Points
	case RectGeometry:
		w.X, w.Y = &g.X, &g.Y
		w.Width, w.Height = &g.Width, &g.Height
	case CircleGeometry:
		w.X, w.Y = &g.X, &g.Y
		w.Radius = &g.Radius
	case LineGeometry:
		w.StartX, w.StartY = &g.StartX, &g.StartY
		w.EndX, w.EndY = &g.EndX, &g.EndY
	case TextGeometry:
		w.X, w.Y = &g.X, &g.Y
		w.Text = &g.Text
	case nil:
		// No geometry to flatten
	}

	return json.Marshal(w)
}

// UnmarshalJSON decodes the flat wire record. Missing or mismatched
// geometry fields are not an error here: the shape is decoded with a nil
// Geom and rejected later by Validate, so a malformed shape never breaks
// the relay or the rest of the log.
func (s *Shape) UnmarshalJSON(data []byte) error {
	var w shapeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	s.ID = w.ID
	s.Type = w.Type
	s.Color = w.Color
	s.StrokeWidth = w.StrokeWidth
	s.Geom = nil

	switch w.Type {
	case ShapeTypePencil:
		if len(w.Points) > 0 {
			s.Geom = PencilGeometry{Points: w.Points}
		}
	case ShapeTypeRect:
		if w.X != nil && w.Y != nil && w.Width != nil && w.Height != nil {
			s.Geom = RectGeometry{X: *w.X, Y: *w.Y, Width: *w.Width, Height: *w.Height}
		}
	case ShapeTypeCircle:
		if w.X != nil && w.Y != nil && w.Radius != nil {
			s.Geom = CircleGeometry{X: *w.X, Y: *w.Y, Radius: *w.Radius}
		}
	case ShapeTypeLine:
		if w.StartX != nil && w.StartY != nil && w.EndX != nil && w.EndY != nil {
			s.Geom = LineGeometry{StartX: *w.StartX, StartY: *w.StartY, EndX: *w.EndX, EndY: *w.EndY}
		}
	case ShapeTypeText:
		if w.X != nil && w.Y != nil && w.Text != nil {
			s.Geom = TextGeometry{X: *w.X, Y: *w.Y, Text: *w.Text}
		}
	}

	return nil
}

// Validate reports whether the shape carries the geometry its type
// requires. Called at the render boundary only: invalid shapes are
// skipped there, never removed from the log.
func (s Shape) Validate() error {
	switch s.Type {
	case ShapeTypePencil:
		g, ok := s.Geom.(PencilGeometry)
		if !ok {
			return fmt.Errorf("pencil shape %s has no point sequence", s.ID)
		}
		if len(g.Points) == 0 {
			return fmt.Errorf("pencil shape %s has an empty point sequence", s.ID)
		}
	case ShapeTypeRect:
		if _, ok := s.Geom.(RectGeometry); !ok {
			return fmt.Errorf("rect shape %s is missing x/y/width/height", s.ID)
		}
	case ShapeTypeCircle:
		if _, ok := s.Geom.(CircleGeometry); !ok {
			return fmt.Errorf("circle shape %s is missing x/y/radius", s.ID)
		}
	case ShapeTypeLine:
		if _, ok := s.Geom.(LineGeometry); !ok {
			return fmt.Errorf("line shape %s is missing start/end coordinates", s.ID)
		}
	case ShapeTypeText:
		if _, ok := s.Geom.(TextGeometry); !ok {
			return fmt.Errorf("text shape %s is missing x/y/text", s.ID)
		}
	default:
		return fmt.Errorf("shape %s has unknown type %q", s.ID, s.Type)
	}
	return nil
}
