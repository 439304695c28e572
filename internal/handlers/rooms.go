package handlers

import (
	"crypto/rand"
	"encoding/json"
	"log"
	"math/big"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Abhishekmadoliya/collaborative-whiteboard/internal/models"
	"github.com/Abhishekmadoliya/collaborative-whiteboard/internal/redis"
)

const (
	roomCodeLength = 6
	roomTTL        = 24 * time.Hour
	codeChars      = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // Removed ambiguous chars
)

// CreateRoom creates a shareable room code (requires authentication).
// Only the code-to-room mapping lives in Redis; the shape log is held in
// memory by the registry and starts empty on first join.
func (b *Board) CreateRoom(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req models.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rdb := redis.GetClient()
	if rdb == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Room codes unavailable"})
		return
	}
	ctx := redis.GetContext()

	// Generate unique room ID and code
	roomID := uuid.New().String()
	roomCode := generateRoomCode()

	room := models.RoomMetadata{
		ID:        roomID,
		Code:      roomCode,
		CreatorID: userID.(string),
		CreatedAt: time.Now(),
		Name:      req.Name,
	}

	roomData, err := json.Marshal(room)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create room"})
		return
	}

	if err := rdb.Set(ctx, "room:"+roomID, roomData, roomTTL).Err(); err != nil {
		log.Printf("Failed to store room in Redis: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create room"})
		return
	}

	// Store code-to-ID mapping for easy lookup
	if err := rdb.Set(ctx, "code:"+roomCode, roomID, roomTTL).Err(); err != nil {
		log.Printf("Failed to store room code in Redis: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create room"})
		return
	}

	log.Printf("Room created: %s (code: %s) by user %s", roomID, roomCode, userID)

	c.JSON(http.StatusCreated, models.CreateRoomResponse{
		RoomID: roomID,
		Code:   roomCode,
	})
}

// GetRoom gets room information by code or ID (public)
func (b *Board) GetRoom(c *gin.Context) {
	roomIdentifier := c.Param("roomId")

	rdb := redis.GetClient()
	if rdb == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Room codes unavailable"})
		return
	}
	ctx := redis.GetContext()

	// Try to find room by code first, then by ID
	roomID := roomIdentifier
	if len(roomIdentifier) == roomCodeLength {
		id, err := rdb.Get(ctx, "code:"+roomIdentifier).Result()
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}
		roomID = id
	}

	roomData, err := rdb.Get(ctx, "room:"+roomID).Result()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}

	var room models.RoomMetadata
	if err := json.Unmarshal([]byte(roomData), &room); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse room data"})
		return
	}

	// Live count from the registry; Redis presence covers members on
	// other instances of this process's lifetime.
	room.MemberCount = b.Registry.MemberCount(roomID)
	if room.MemberCount == 0 {
		count, _ := rdb.SCard(ctx, "room:"+roomID+":peers").Result()
		room.MemberCount = int(count)
	}

	c.JSON(http.StatusOK, room)
}

// DeleteRoom deletes a room code (requires authentication and creator)
func (b *Board) DeleteRoom(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	roomID := c.Param("roomId")

	rdb := redis.GetClient()
	if rdb == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Room codes unavailable"})
		return
	}
	ctx := redis.GetContext()

	// Get room metadata to verify creator
	roomData, err := rdb.Get(ctx, "room:"+roomID).Result()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}

	var room models.RoomMetadata
	if err := json.Unmarshal([]byte(roomData), &room); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse room data"})
		return
	}

	// Verify user is the creator
	if room.CreatorID != userID.(string) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the room creator can delete the room"})
		return
	}

	rdb.Del(ctx, "room:"+roomID)
	rdb.Del(ctx, "code:"+room.Code)
	rdb.Del(ctx, "room:"+roomID+":peers")

	log.Printf("Room deleted: %s by user %s", roomID, userID)

	c.JSON(http.StatusOK, gin.H{"message": "Room deleted"})
}

// generateRoomCode generates a random room code
func generateRoomCode() string {
	code := make([]byte, roomCodeLength)
	for i := range code {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(codeChars))))
		code[i] = codeChars[n.Int64()]
	}
	return string(code)
}
