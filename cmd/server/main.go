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

	"github.com/wavelength-chat/wavelength-backend/internal/cache"
	"github.com/wavelength-chat/wavelength-backend/internal/handlers"
	"github.com/wavelength-chat/wavelength-backend/internal/httpx"
	"github.com/wavelength-chat/wavelength-backend/internal/middleware"
	"github.com/wavelength-chat/wavelength-backend/internal/repository"
	"github.com/wavelength-chat/wavelength-backend/internal/service"
	"github.com/wavelength-chat/wavelength-backend/internal/storage"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	app := fiber.New(fiber.Config{
		AppName: "Wavelength Chat Backend",
		// Support avatar uploads up to 5MB + overhead.
		BodyLimit: 8 * 1024 * 1024, // 8MB
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     os.Getenv("ALLOWED_ORIGINS"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// Initialize database connection
	db, err := repository.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize Redis cache
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if parsedDB, err := strconv.Atoi(dbStr); err == nil {
			redisDB = parsedDB
		}
	}

	redisCache := cache.NewRedisCache(redisAddr, redisPassword, redisDB)
	if err := redisCache.Ping(); err != nil {
		log.Printf("WARNING: Redis connection failed: %v. Running without cache.", err)
		redisCache = nil
	} else {
		log.Println("Redis cache connected successfully")
	}

	chatCache := cache.NewChatCache(redisCache)
	presenceCache := cache.NewPresenceCache(redisCache)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	chatRepo := repository.NewChatRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// Initialize services
	chatService := service.NewChatService(chatRepo, userRepo, chatCache)
	messageService := service.NewMessageService(messageRepo, chatRepo, chatCache)

	// Initialize S3/MinIO storage (best-effort; avatar endpoints return 503 if missing)
	var blobStore *storage.BlobStore
	if cfg, err := storage.LoadS3ConfigFromEnv(); err != nil {
		log.Printf("WARNING: S3 storage not configured: %v", err)
	} else if st, err := storage.NewBlobStore(cfg); err != nil {
		log.Printf("WARNING: Failed to initialize S3 storage: %v", err)
	} else {
		blobStore = st
		log.Printf("S3 storage initialized successfully (bucket=%s)", cfg.Bucket)
	}

	avatarService := service.NewAvatarService(userRepo, blobStore)

	// Initialize handlers
	wsHandler := handlers.NewWebSocketHandler(chatService, messageService, presenceCache)
	userHandler := handlers.NewUserHandler(userRepo, presenceCache)
	avatarHandler := handlers.NewAvatarHandler(avatarService)
	mediaHandler := handlers.NewMediaHandler(blobStore)
	chatHandler := handlers.NewChatHandler(chatService)
	messageHandler := handlers.NewMessageHandler(messageService)

	// Protected routes
	api := app.Group("/api", middleware.OriginAllowed())
	protected := api.Group("/", middleware.AuthRequired())

	protected.Get("/users/me", userHandler.GetCurrentUser)
	protected.Get("/users/search", userHandler.SearchUsers)
	protected.Post(
		"/users/me/avatar",
		limiter.New(limiter.Config{
			Max:        10,
			Expiration: 10 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				if uid, err := httpx.LocalUserID(c, "userID"); err == nil {
					return "avatar:" + uid
				}
				return c.IP()
			},
		}),
		avatarHandler.UploadMyAvatar,
	)
	protected.Delete("/users/me/avatar", avatarHandler.DeleteMyAvatar)
	protected.Get("/media/avatars/*", mediaHandler.GetAvatar)

	// Chat routes
	protected.Get("/chats", chatHandler.GetChats)
	protected.Post("/chats", chatHandler.CreateDirectChat)
	protected.Post("/chats/group", chatHandler.CreateGroupChat)
	protected.Put("/chats/group/rename", chatHandler.RenameGroupChat)
	protected.Put("/chats/group/add-member", chatHandler.AddMember)
	protected.Put("/chats/group/remove-member", chatHandler.RemoveMember)
	protected.Put("/chats/group/users", chatHandler.ReplaceMembers)
	protected.Put("/chats/group/admins", chatHandler.ReplaceAdmins)

	// Message routes
	protected.Get("/messages", messageHandler.GetMessages)
	protected.Post("/messages", messageHandler.SendMessage)
	protected.Put("/messages/readBy", messageHandler.MarkRead)

	// WebSocket route (websocket upgrade needs special handling)
	app.Use(
		"/ws",
		middleware.OriginAllowed(),
		middleware.AuthRequired(),
		func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		},
	)
	app.Get("/ws", websocket.New(wsHandler.HandleWebSocket))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Wavelength is running",
		})
	})

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s...", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
