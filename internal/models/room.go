package models

import "time"

// RoomMetadata stores information about a board room created through the
// management API. Rooms joined with a client-generated token have no
// metadata record; only shared codes are tracked here.
type RoomMetadata struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`      // Short, shareable room code (e.g., "ABCD123")
	CreatorID   string    `json:"creatorId"` // User ID from JWT who created the room
	CreatedAt   time.Time `json:"createdAt"`
	Name        string    `json:"name,omitempty"`
	MemberCount int       `json:"memberCount"`
}

// CreateRoomRequest is the request body for creating a room
type CreateRoomRequest struct {
	Name string `json:"name,omitempty" binding:"max=64"`
}

// CreateRoomResponse is the response for creating a room
type CreateRoomResponse struct {
	RoomID string `json:"roomId"`
	Code   string `json:"code"`
}
