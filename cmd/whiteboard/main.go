package main

import (
	"log"

	"github.com/Abhishekmadoliya/collaborative-whiteboard/config"
	"github.com/Abhishekmadoliya/collaborative-whiteboard/internal/board"
	"github.com/Abhishekmadoliya/collaborative-whiteboard/internal/handlers"
	"github.com/Abhishekmadoliya/collaborative-whiteboard/internal/middleware"
	"github.com/Abhishekmadoliya/collaborative-whiteboard/internal/redis"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Connect to Redis (presence and shareable room codes). The board
	// relay itself has no Redis dependency.
	if cfg.Redis.Enabled {
		if err := redis.Connect(cfg.Redis); err != nil {
			log.Printf("Redis unavailable, room codes and presence disabled: %v", err)
		} else {
			defer redis.Close()
			log.Println("Redis connection established")
		}
	}

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Global CORS middleware (runs before routing)
	router.Use(handlers.OriginFilter(cfg.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// One registry owns every room in this process
	boardHandlers := handlers.NewBoard(board.NewRegistry())

	// Room management API
	apiGroup := router.Group("/api")
	{
		// Login endpoint (public)
		apiGroup.POST("/auth/login", handlers.Login(cfg.JWTSecret))

		// Create a shareable room code (requires JWT)
		apiGroup.POST("/rooms", middleware.JWTAuth(cfg.JWTSecret), boardHandlers.CreateRoom)

		// Get room info (public)
		apiGroup.GET("/rooms/:roomId", boardHandlers.GetRoom)

		// Delete a room code (requires JWT, creator only)
		apiGroup.DELETE("/rooms/:roomId", middleware.JWTAuth(cfg.JWTSecret), boardHandlers.DeleteRoom)
	}

	// WebSocket drawing endpoint - accepts room code or opaque room ID
	wsGroup := router.Group("/ws")
	{
		wsGroup.GET("/board/:roomId", boardHandlers.HandleBoard)
	}

	// Start server
	log.Printf("Starting whiteboard server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
