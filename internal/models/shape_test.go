package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Abhishekmadoliya/collaborative-whiteboard/internal/models"
)

func TestShapeWireFormatIsFlat(t *testing.T) {
	shape := models.Shape{
		ID:          "s1",
		Type:        models.ShapeTypeRect,
		Color:       "#ff0000",
		StrokeWidth: 2,
		Geom:        models.RectGeometry{X: 10, Y: 10, Width: 50, Height: 30},
	}

	data, err := json.Marshal(shape)
	require.NoError(t, err)
	require.JSONEq(t,
		`{"id":"s1","type":"rect","color":"#ff0000","strokeWidth":2,"x":10,"y":10,"width":50,"height":30}`,
		string(data))

	var decoded models.Shape
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, shape, decoded)
	require.NoError(t, decoded.Validate())
}

func TestPencilRoundTrip(t *testing.T) {
	shape := models.Shape{
		ID:    "s2",
		Type:  models.ShapeTypePencil,
		Color: "#000000",
		Geom: models.PencilGeometry{
			Points: []models.Point{{X: 1, Y: 2}, {X: 3, Y: 4}},
		},
	}

	data, err := json.Marshal(shape)
	require.NoError(t, err)

	var decoded models.Shape
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, shape, decoded)
}

func TestLineAndCircleAndTextRoundTrip(t *testing.T) {
	shapes := []models.Shape{
		{ID: "l", Type: models.ShapeTypeLine, Geom: models.LineGeometry{StartX: 0, StartY: 1, EndX: 2, EndY: 3}},
		{ID: "c", Type: models.ShapeTypeCircle, Geom: models.CircleGeometry{X: 5, Y: 6, Radius: 7}},
		{ID: "t", Type: models.ShapeTypeText, Geom: models.TextGeometry{X: 8, Y: 9, Text: "hi"}},
	}

	for _, shape := range shapes {
		data, err := json.Marshal(shape)
		require.NoError(t, err)

		var decoded models.Shape
		require.NoError(t, json.Unmarshal(data, &decoded))
		require.Equal(t, shape, decoded)
		require.NoError(t, decoded.Validate())
	}
}

func TestMissingGeometryDecodesButFailsValidation(t *testing.T) {
	// A rect without width/height still decodes: malformed shapes are
	// only rejected at the render boundary, never at the relay.
	var shape models.Shape
	require.NoError(t, json.Unmarshal([]byte(`{"id":"bad","type":"rect","x":1,"y":2}`), &shape))
	require.Nil(t, shape.Geom)
	require.Error(t, shape.Validate())
}

func TestGeometryTypeMismatchFailsValidation(t *testing.T) {
	shape := models.Shape{
		ID:   "odd",
		Type: models.ShapeTypeCircle,
		Geom: models.RectGeometry{X: 1, Y: 2, Width: 3, Height: 4},
	}
	require.Error(t, shape.Validate())
}

func TestUnknownTypeFailsValidation(t *testing.T) {
	var shape models.Shape
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","type":"hexagon","x":1}`), &shape))
	require.Error(t, shape.Validate())
}

func TestEmptyPencilFailsValidation(t *testing.T) {
	var shape models.Shape
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p","type":"pencil","points":[]}`), &shape))
	require.Error(t, shape.Validate())
}
