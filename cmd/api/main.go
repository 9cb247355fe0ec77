package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/teamdeck/teamdeck-backend/internal/api/handlers"
	"github.com/teamdeck/teamdeck-backend/internal/api/middleware"
	"github.com/teamdeck/teamdeck-backend/internal/config"
	"github.com/teamdeck/teamdeck-backend/internal/cron"
	"github.com/teamdeck/teamdeck-backend/internal/db"
	"github.com/teamdeck/teamdeck-backend/internal/email"
	"github.com/teamdeck/teamdeck-backend/internal/events"
	"github.com/teamdeck/teamdeck-backend/internal/repository"
	"github.com/teamdeck/teamdeck-backend/internal/seed"
	"github.com/teamdeck/teamdeck-backend/internal/service"
	"github.com/teamdeck/teamdeck-backend/internal/socket"
	"github.com/teamdeck/teamdeck-backend/internal/teams"
)

func main() {
	// ============================================
	// Load environment variables
	// ============================================
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment variables")
	}

	// ============================================
	// Load configuration
	// ============================================
	cfg := config.Load()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
		log.SetFormatter(&log.JSONFormatter{})
	}

	// ============================================
	// Run Database Migrations FIRST
	// ============================================
	log.Info("🔄 Running database migrations...")
	if err := db.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	// ============================================
	// Initialize PostgreSQL
	// ============================================
	postgres, err := db.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to PostgreSQL: %v", err)
	}
	defer postgres.Close()

	// ============================================
	// Initialize Repositories
	// ============================================
	repos := repository.NewRepositories(postgres.Pool, postgres.SQLX)
	log.Info("📦 Repositories initialized")

	// ============================================
	// Initialize Redis (optional, mirrors events)
	// ============================================
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisDB, err := db.NewRedisDB(cfg.RedisURL)
		if err != nil {
			log.WithError(err).Warn("⚠️ Failed to connect to Redis (continuing without event mirror)")
		} else {
			defer redisDB.Close()
			redisClient = redisDB.Client
		}
	}

	// ============================================
	// Initialize Email Service (optional)
	// ============================================
	var sender service.InvitationSender
	if cfg.SMTPHost != "" {
		sender = email.NewService(&email.Config{
			Host:        cfg.SMTPHost,
			Port:        cfg.SMTPPort,
			User:        cfg.SMTPUser,
			Password:    cfg.SMTPPassword,
			From:        cfg.SMTPFrom,
			FromName:    cfg.SMTPFromName,
			UseTLS:      cfg.SMTPUseTLS,
			FrontendURL: cfg.FrontendURL,
		})
		log.Info("📧 Email service initialized")
	} else {
		log.Warn("⚠️  Email not configured (SMTP_HOST not set)")
	}

	// ============================================
	// Role Catalog and Event Dispatcher
	// ============================================
	catalog := teams.DefaultCatalog()
	catalog.SetInvitationDays(cfg.InvitationDays)

	dispatcher := events.NewDispatcher(redisClient)

	// ============================================
	// Initialize All Services
	// ============================================
	services := service.NewServices(
		repos,
		catalog,
		dispatcher,
		sender,
		cfg.JWTSecret,
		time.Duration(cfg.JWTExpiry)*time.Hour,
	)
	log.Info("✨ All services initialized")

	// ============================================
	// Initialize WebSocket Hub
	// ============================================
	hub := socket.NewHub()
	go hub.Run()

	socket.NewBroadcaster(hub).Listen(dispatcher)
	wsHandler := socket.NewHandler(hub, services.AuthService)
	log.Info("🔌 WebSocket hub initialized")

	// ============================================
	// Seed Data (for development)
	// ============================================
	if cfg.Environment != "production" {
		log.Info("🌱 Seeding development data...")
		seed.SeedData(repos, services)
	}

	// ============================================
	// Initialize Cron Scheduler
	// ============================================
	scheduler := cron.NewScheduler(repos.InvitationRepo)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("❌ Failed to start cron scheduler: %v", err)
	}
	defer scheduler.Stop()

	// ============================================
	// Create Gin Router
	// ============================================
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	// Configure CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL, "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	h := handlers.NewHandlers(services, repos.UserRepo)

	// API routes
	api := r.Group("/api")
	{
		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
		}

		// WebSocket route
		api.GET("/ws", wsHandler.HandleWebSocket)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(services.AuthService))
		{
			protected.GET("/users/me", h.Auth.Me)
			protected.PUT("/users/me/current-team", h.Team.SwitchTeam)

			protected.GET("/roles", h.Role.List)
			protected.GET("/permissions", h.Role.Permissions)

			teamRoutes := protected.Group("/teams")
			{
				teamRoutes.GET("", h.Team.List)
				teamRoutes.POST("", h.Team.Create)
				teamRoutes.GET("/:id", h.Team.Get)
				teamRoutes.PUT("/:id", h.Team.UpdateName)
				teamRoutes.DELETE("/:id", h.Team.Delete)

				teamRoutes.GET("/:id/members", h.Team.ListMembers)
				teamRoutes.POST("/:id/members", h.Team.AddMember)
				teamRoutes.PUT("/:id/members/:userId", h.Team.UpdateMemberRole)
				teamRoutes.DELETE("/:id/members/:userId", h.Team.RemoveMember)

				teamRoutes.GET("/:id/invitations", h.Invitation.ListByTeam)
				teamRoutes.POST("/:id/invitations", h.Invitation.Invite)
			}

			invitations := protected.Group("/invitations")
			{
				invitations.POST("/:id/accept", h.Invitation.Accept)
				invitations.POST("/:id/decline", h.Invitation.Decline)
			}
		}
	}

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		log.Infof("🚀 Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
