// Package server contains the HTTP and WebSocket handlers for the composer API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"postdeck/internal/cache"
	"postdeck/internal/config"
	"postdeck/internal/database"
	"postdeck/internal/media"
	"postdeck/internal/middleware"
	"postdeck/internal/models"
	"postdeck/internal/notifications"
	"postdeck/internal/observability"
	"postdeck/internal/repository"
	"postdeck/internal/service"
	"postdeck/internal/session"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// bodyLimitFiles is how many maximum-size files one request body may carry.
const bodyLimitFiles = 4

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	sessions *session.Manager
	registry *media.Registry
	filter   *media.Filter
	renderer *media.Renderer
	notifier *notifications.Notifier
	hub      *notifications.Hub

	dashboard *service.DashboardService
	publisher *service.PublishService
	settings  *service.SettingsService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil Redis client runs the server without cache, pub/sub and rate limits.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	maxUpload, err := cfg.MaxUploadBytes()
	if err != nil {
		return nil, err
	}

	registry := media.NewRegistry(nil)
	registry.OnCount = func(n int) {
		observability.PreviewHandlesActive.Set(float64(n))
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("postdeck-api"),
		registry:       registry,
		filter:         media.NewFilter(maxUpload),
		renderer:       media.NewRenderer(cfg.PreviewMaxDimension),
		notifier:       notifications.NewNotifier(redisClient),
		hub:            notifications.NewHub(),
	}

	s.sessions = session.NewManager(registry, session.Config{
		IdleTimeout: cfg.SessionIdleTimeout,
		MaxSessions: cfg.MaxSessions,
		Logger:      middleware.Logger,
	}, session.Hooks{
		OnChange: s.onDraftChange,
		OnEnd:    s.onSessionEnd,
		OnCount: func(n int) {
			observability.SessionsActive.Set(float64(n))
		},
	})

	posts := repository.NewScheduledPostRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	s.dashboard = service.NewDashboardService(
		repository.NewAccountRepository(db),
		posts,
		repository.NewAnalyticsRepository(db),
	)
	s.publisher = service.NewPublishService(posts, settingsRepo,
		service.LogGateway{Logger: middleware.Logger}, eventSink{s: s})
	s.settings = service.NewSettingsService(settingsRepo)

	return s, nil
}

// Sessions exposes the session manager.
func (s *Server) Sessions() *session.Manager { return s.sessions }

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate request and session IDs
	app.Use(middleware.ContextMiddleware())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers. Previews are embedded by the dashboard origin.
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	// CORS runs before middlewares that can short-circuit so error
	// responses still carry CORS headers.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (300 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "postdeck Metrics Dashboard",
	}))

	api.Get("/platforms", s.GetPlatforms)

	sessions := api.Group("/sessions")
	sessions.Post("/", middleware.RateLimit(s.redis, 20, time.Minute, "create_session"), s.CreateSession)
	sessions.Get("/", s.ListSessions)
	// Specific /:id/:resource routes before the generic /:id routes
	sessions.Post("/:id/platforms/:platform/toggle", s.TogglePlatform)
	sessions.Put("/:id/post-type", s.SetPostType)
	sessions.Put("/:id/body", s.SetBody)
	sessions.Put("/:id/title", s.SetTitle)
	sessions.Put("/:id/description", s.SetDescription)
	sessions.Post("/:id/media", middleware.RateLimit(s.redis, 60, time.Minute, "upload"), s.UploadMedia)
	sessions.Delete("/:id/media/:index", s.RemoveMedia)
	sessions.Put("/:id/thumbnail", middleware.RateLimit(s.redis, 60, time.Minute, "upload"), s.SetThumbnail)
	sessions.Delete("/:id/thumbnail", s.ClearThumbnail)
	sessions.Put("/:id/tag-input", s.SetTagInput)
	sessions.Post("/:id/tags/commit", s.CommitTag)
	sessions.Post("/:id/tags", s.AddTag)
	sessions.Delete("/:id/tags/:tag", s.RemoveTag)
	sessions.Get("/:id/preview", s.GetPreview)
	sessions.Post("/:id/submit", middleware.RateLimit(s.redis, 10, time.Minute, "submit"), s.SubmitDraft)
	sessions.Get("/:id", s.GetSession)
	sessions.Delete("/:id", s.EndSession)

	api.Get("/previews/:token", s.ServePreview)

	// Dashboard state provider
	api.Get("/dashboard", s.GetDashboard)
	api.Get("/accounts", s.GetAccounts)
	api.Get("/analytics", s.GetAnalytics)
	api.Get("/calendar", s.GetCalendar)
	api.Get("/posts/upcoming", s.GetUpcomingPosts)

	settings := api.Group("/settings/platforms")
	settings.Get("/", s.ListPlatformSettings)
	settings.Get("/:platform", s.GetPlatformSettings)
	settings.Put("/:platform", s.UpdatePlatformSettings)

	ws := api.Group("/ws")
	ws.Get("/sessions/:id", s.requireWebSocketUpgrade, s.WebSocketDraftHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so
// only the database decides readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != "healthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"sessions": s.sessions.Len(),
		"time":     time.Now(),
	})
}

// NewApp builds the Fiber app with middleware and routes.
func (s *Server) NewApp() *fiber.App {
	maxUpload := s.filter.MaxSize
	app := fiber.New(fiber.Config{
		AppName:   "postdeck",
		BodyLimit: int(maxUpload)*bodyLimitFiles + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return models.RespondWithError(c, fe.Code, &models.AppError{Code: models.CodeValidation, Message: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()
	s.sessions.StartReaper(ctx)

	// Wire the hub to the Redis subscriber if available
	if s.notifier.Enabled() {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start hub wiring",
					slog.String("hub", s.hub.Name()),
					slog.String("error", err.Error()),
				)
			}
		}()
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the reaper and wiring
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	// Ending sessions releases every preview handle.
	s.sessions.Shutdown()

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down hub", slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
