package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/thomasvn/keyforge/pkg/keyforge/apikeys"
	"github.com/thomasvn/keyforge/pkg/keyforge/auth"
	"github.com/thomasvn/keyforge/pkg/keyforge/database"
	"github.com/thomasvn/keyforge/pkg/keyforge/keys"
	"github.com/thomasvn/keyforge/pkg/keyforge/logs"
	"github.com/thomasvn/keyforge/pkg/keyforge/models"
	"github.com/thomasvn/keyforge/pkg/keyforge/settings"
	"github.com/thomasvn/keyforge/pkg/keyforge/shorturl"
	"github.com/thomasvn/keyforge/pkg/keyforge/stats"
	"github.com/thomasvn/keyforge/pkg/keyforge/store"
	"github.com/thomasvn/keyforge/pkg/keyforge/sweeper"
)

func main() {
	// Load .env if present; real environment variables take precedence
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	// Get database path from environment or use default
	dbPath := os.Getenv("KEYFORGE_DB_PATH")
	if dbPath == "" {
		dbPath = "keyforge.db"
	}

	// Connect to database
	db, err := database.Connect(dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run auto-migrations
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	s := store.New(db)

	// Create default admin user if no admin exists
	if err := ensureAdminExists(s); err != nil {
		log.Fatalf("Failed to ensure admin user exists: %v", err)
	}

	// Background sweeper: expires stale keys and rolls the daily free key
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweeper.New(s, sweepInterval()).Start(ctx)

	// Set up Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "ok",
				"service": "keyforge",
			})
		})

		// Auth routes (public)
		authHandler := auth.NewHandler(s)
		authHandler.RegisterRoutes(api.Group("/auth"))

		// Public key verification routes (no auth; a valid JWT suppresses
		// usage logging on the free-key endpoint)
		keysHandler := keys.NewHandler(s)
		keysHandler.RegisterPublicRoutes(api.Group(""))

		// Key management routes (JWT required)
		keysHandler.RegisterRoutes(api.Group("", auth.AuthMiddleware()))

		// API keys routes (JWT only - need to be logged in to manage keys)
		apiKeysHandler := apikeys.NewHandler(s)
		apiKeysHandler.RegisterRoutes(api.Group("", auth.AuthMiddleware()))

		// Usage log routes (JWT required)
		logsHandler := logs.NewHandler(s)
		logsHandler.RegisterRoutes(api.Group("", auth.AuthMiddleware()))

		// Dashboard stats (JWT required)
		statsHandler := stats.NewHandler(s)
		statsHandler.RegisterRoutes(api.Group("", auth.AuthMiddleware()))

		// Settings routes (JWT required)
		settingsHandler := settings.NewHandler(s)
		settingsHandler.RegisterRoutes(api.Group("", auth.AuthMiddleware()))

		// Short URL creation (JWT required)
		shortURLHandler := shorturl.NewHandler(s)
		shortURLHandler.RegisterRoutes(api.Group("", auth.AuthMiddleware()))

		// Programmatic verification (X-API-Key, read-only is enough)
		v1 := api.Group("/v1")
		v1.Use(apikeys.Middleware(s, models.PermissionsReadOnly))
		keysHandler.RegisterPublicRoutes(v1)
	}

	// Redirect routes (public, must be registered LAST to avoid conflicts)
	shorturl.NewHandler(s).RegisterPublicRoutes(r)

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting keyforge server on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// sweepInterval reads KEYFORGE_SWEEP_INTERVAL (a Go duration string,
// e.g. "30m") and falls back to the default when unset or invalid.
func sweepInterval() time.Duration {
	raw := os.Getenv("KEYFORGE_SWEEP_INTERVAL")
	if raw == "" {
		return sweeper.DefaultCleanupInterval
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Ignoring invalid KEYFORGE_SWEEP_INTERVAL %q", raw)
		return sweeper.DefaultCleanupInterval
	}
	return d
}

// ensureAdminExists creates a default admin account on first boot so
// the API is usable immediately. The password comes from
// KEYFORGE_ADMIN_PASSWORD and should be changed in production.
func ensureAdminExists(s *store.Store) error {
	var count int64
	if err := s.DB().Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := os.Getenv("KEYFORGE_ADMIN_PASSWORD")
	if password == "" {
		password = "changeme"
		log.Println("WARNING: using default admin password - set KEYFORGE_ADMIN_PASSWORD")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	admin := models.User{
		Username:     "admin",
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := s.CreateUser(&admin); err != nil {
		return err
	}

	log.Printf("Created default admin user (ID: %d)", admin.ID)
	return nil
}
