package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/user/corral/backend/internal/api"
	"github.com/user/corral/backend/internal/config"
	"github.com/user/corral/backend/internal/database"
	"github.com/user/corral/backend/internal/jobs"
	"github.com/user/corral/backend/internal/middleware"
	"github.com/user/corral/backend/internal/pubsub"
	"github.com/user/corral/backend/internal/repository"
	"github.com/user/corral/backend/internal/service"
	"github.com/user/corral/backend/pkg/jwt"
)

func main() {
	// Load .env file if it exists (for local development)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Initialize JWT manager
	jwtManager := jwt.NewManager(cfg.JWTSecret)

	// Initialize pub/sub hub for change notices
	hub := pubsub.NewHub()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	conflictRepo := repository.NewConflictRepository(db)
	entityStore := repository.NewEntityStore(db)
	eventRepo := repository.NewSyncEventRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)

	// Initialize services
	syncService := service.NewSyncService(sessionRepo, conflictRepo, entityStore, eventRepo, deviceRepo, hub)

	// Initialize handlers
	syncHandler := api.NewSyncHandler(syncService, userRepo)
	deviceHandler := api.NewDeviceHandler(deviceRepo)
	wsHandler := api.NewWSHandler(hub)

	// Set up Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.CORSMiddleware())

	// Rate limiter: 100 requests per minute
	rateLimiter := middleware.NewRateLimiter(100, time.Minute)
	r.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "app": "corral"})
	})

	// Cron endpoint for timing out stale sync sessions
	// Called by GCP Cloud Scheduler every few minutes
	sessionTimeoutJob := jobs.NewSessionTimeoutJob(sessionRepo)
	r.POST("/api/cron/session-timeout", func(c *gin.Context) {
		// Verify cron secret
		authHeader := c.GetHeader("Authorization")
		if authHeader != "Bearer "+cfg.CronSecret {
			c.JSON(401, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 55*time.Second)
		defer cancel()

		window := time.Duration(cfg.SessionTimeoutMinutes) * time.Minute
		count, err := sessionTimeoutJob.SweepStaleSessions(ctx, window)
		if err != nil {
			log.Printf("Error sweeping stale sessions: %v", err)
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}

		c.JSON(200, gin.H{"timedOut": count})
	})

	// Cron endpoint for purging old sync events
	// Called by GCP Cloud Scheduler daily
	eventCleanupJob := jobs.NewSyncEventCleanupJob(eventRepo)
	r.POST("/api/cron/event-cleanup", func(c *gin.Context) {
		// Verify cron secret
		authHeader := c.GetHeader("Authorization")
		if authHeader != "Bearer "+cfg.CronSecret {
			c.JSON(401, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 55*time.Second)
		defer cancel()

		count, err := eventCleanupJob.PurgeOldEvents(ctx, cfg.EventRetentionDays)
		if err != nil {
			log.Printf("Error purging sync events: %v", err)
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}

		c.JSON(200, gin.H{"purged": count})
	})

	// Sync API
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(jwtManager))
	{
		v1.POST("/sync/initiate", syncHandler.InitiateSync)
		v1.POST("/sync/:sessionId/changes", syncHandler.ApplyChanges)
		v1.GET("/sync/status/:deviceId", syncHandler.GetSyncStatus)
		v1.GET("/sync/history", syncHandler.GetSyncHistory)
		v1.GET("/sync/changes", syncHandler.PullChanges)
		v1.GET("/sync/conflicts", syncHandler.ListUnresolvedConflicts)
		v1.POST("/sync/conflicts/:conflictId/resolve", syncHandler.ResolveConflict)
		v1.GET("/sync/subscribe", wsHandler.Subscribe)
		v1.GET("/devices", deviceHandler.ListDevices)
	}

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting Corral sync server on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
