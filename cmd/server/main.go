package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"github.com/mohidul32/Chat-Application/internal/cache"
	"github.com/mohidul32/Chat-Application/internal/handlers"
	"github.com/mohidul32/Chat-Application/internal/middleware"
	"github.com/mohidul32/Chat-Application/internal/repository"
	"github.com/mohidul32/Chat-Application/internal/service"
	"github.com/mohidul32/Chat-Application/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET is required")
	}

	app := fiber.New(fiber.Config{
		AppName: "Chat Application",
	})

	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     os.Getenv("ALLOWED_ORIGINS"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	db, err := repository.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if parsedDB, err := strconv.Atoi(dbStr); err == nil {
			redisDB = parsedDB
		}
	}
	redisCache := cache.NewRedisCache(redisAddr, os.Getenv("REDIS_PASSWORD"), redisDB)
	if err := redisCache.Ping(); err != nil {
		log.Printf("WARNING: Redis connection failed: %v. Running without cache.", err)
		redisCache = nil
	} else {
		log.Println("Redis cache connected successfully")
	}
	messageCache := cache.NewMessageCache(redisCache)
	presenceCache := cache.NewPresenceCache(redisCache)

	userRepo := repository.NewUserRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	reactionRepo := repository.NewReactionRepository(db)

	userService := service.NewUserService(userRepo)
	roomService := service.NewRoomService(roomRepo, membershipRepo, userRepo)
	messageService := service.NewMessageService(messageRepo, membershipRepo, reactionRepo)

	// Best-effort blob store; attachment endpoints return 503 if missing.
	var blobs *storage.BlobStore
	if cfg, err := storage.LoadS3ConfigFromEnv(); err != nil {
		log.Printf("WARNING: S3 storage not configured: %v", err)
	} else if st, err := storage.NewBlobStore(cfg); err != nil {
		log.Printf("WARNING: Failed to initialize S3 storage: %v", err)
	} else {
		blobs = st
		log.Printf("S3 storage initialized successfully (bucket=%s)", cfg.Bucket)
	}

	echoSender := true
	if v := os.Getenv("ECHO_SENDER"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			echoSender = b
		}
	}

	wsHandler := handlers.NewWebSocketHandler(roomService, userService, messageService, messageCache, presenceCache, echoSender)
	roomHandler := handlers.NewRoomHandler(roomService, messageService, messageCache, presenceCache, wsHandler.Registry())
	messageHandler := handlers.NewMessageHandler(messageService, roomService, wsHandler.Sessions(), messageCache, blobs)
	attachmentHandler := handlers.NewAttachmentHandler(blobs)

	api := app.Group("/api", middleware.OriginAllowed(), middleware.IdentityRequired())
	api.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
	}))

	api.Get("/rooms", roomHandler.GetMyRooms)
	api.Post("/rooms/private/:peer_id", roomHandler.StartPrivateChat)
	api.Post("/rooms/group", roomHandler.CreateGroup)
	api.Post("/rooms/:id/leave", roomHandler.LeaveRoom)
	api.Get("/rooms/:id/members", roomHandler.GetMembers)
	api.Get("/rooms/:id/messages", messageHandler.GetRoomMessages)
	api.Post("/rooms/:id/messages", messageHandler.SendRoomMessage)
	api.Post("/rooms/:id/read", messageHandler.MarkRoomRead)
	api.Get("/rooms/:id/unread", messageHandler.GetUnreadCount)
	api.Delete("/messages/:id", messageHandler.DeleteMessage)
	api.Put("/messages/:id", messageHandler.EditMessage)
	api.Post("/messages/:id/reactions", messageHandler.ToggleReaction)
	api.Get("/attachments/*", attachmentHandler.GetAttachmentURL)

	// Websocket upgrade needs special handling.
	app.Use(
		"/ws/chat/:room_id",
		middleware.OriginAllowed(),
		middleware.IdentityRequired(),
		func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		},
	)
	app.Get("/ws/chat/:room_id", websocket.New(wsHandler.HandleWebSocket))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Chat Application is running",
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s...", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
