package api

import (
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/nexacrm/crm-backend/internal/api/handlers"
	"github.com/nexacrm/crm-backend/internal/api/middleware"
	"github.com/nexacrm/crm-backend/internal/repository"
	ws "github.com/nexacrm/crm-backend/internal/websocket"
)

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	DB     *gorm.DB
	Logger *slog.Logger
	Hub    *ws.Hub
	Job    handlers.JobRunner
	// Security configuration
	APIKey         string   // API key for authentication (empty = disabled)
	AllowedOrigins []string // Allowed CORS origins
	RateLimit      int      // Requests per second (0 = use env default)
	RateBurst      int      // Burst size for rate limiter
	EnableAuth     bool     // Enable API key authentication
}

// NewRouter creates and configures the Echo router with all routes
func NewRouter(cfg *RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Security Middleware (applied in correct order)
	// 1. Recover from panics
	e.Use(middleware.Recover())

	// 2. Security headers (applied to all responses)
	e.Use(middleware.SecureHeaders())

	// 3. CORS - Set environment variable if origins provided in config
	if len(cfg.AllowedOrigins) > 0 {
		os.Setenv("ALLOWED_ORIGINS", strings.Join(cfg.AllowedOrigins, ","))
	}
	e.Use(middleware.SecureCORS())

	// 4. Rate limiting - use RateLimiterWithConfig if custom values provided
	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiterWithConfig(float64(cfg.RateLimit), cfg.RateBurst, cfg.Logger))
	} else {
		e.Use(middleware.RateLimiter(cfg.Logger))
	}

	// 5. Request logging
	if cfg.Logger != nil {
		e.Use(middleware.RequestLogger(cfg.Logger))
	}

	// Initialize repositories
	historyRepo := repository.NewEmailHistoryRepository(cfg.DB)
	replyRepo := repository.NewReplyRepository(cfg.DB)
	notificationRepo := repository.NewNotificationRepository(cfg.DB)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB)
	emailHandler := handlers.NewEmailHandler(historyRepo, replyRepo)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)

	// Health routes (no auth required)
	e.GET("/health", healthHandler.Health)
	e.GET("/ready", healthHandler.Ready)

	// WebSocket endpoint for live notifications (no auth; origin-checked)
	if cfg.Hub != nil {
		upgrader := ws.NewSecureUpgrader(cfg.Logger)
		e.GET("/ws", func(c echo.Context) error {
			conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "websocket upgrade failed")
			}
			client := ws.NewClient(cfg.Hub, conn, cfg.Logger)
			cfg.Hub.Register(client)
			go client.WritePump()
			go client.ReadPump()
			return nil
		})
	}

	// API routes
	api := e.Group("/api")

	// Apply API key authentication if enabled
	// Set API_KEY env var if provided in config
	if cfg.EnableAuth && cfg.APIKey != "" {
		os.Setenv("API_KEY", cfg.APIKey)
	}
	api.Use(middleware.APIKeyAuth(cfg.Logger))

	// Reply reconciliation job trigger. Any method runs the job except
	// OPTIONS, which the CORS middleware answers as a preflight. The route is
	// always registered; an unconfigured pipeline reports its failure as the
	// job error payload rather than a 404.
	jobHandler := handlers.NewReplyJobHandler(cfg.Job)
	api.Match([]string{
		http.MethodGet, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodHead,
	}, "/jobs/check-email-replies", jobHandler.Run)

	// Sent email routes
	emails := api.Group("/emails")
	emails.GET("/:id", emailHandler.Get)
	emails.GET("/:id/replies", emailHandler.ListReplies)

	// Notification routes
	users := api.Group("/users")
	users.GET("/:user_id/notifications", notificationHandler.ListByUser)
	users.GET("/:user_id/notifications/unread-count", notificationHandler.UnreadCount)

	notifications := api.Group("/notifications")
	notifications.PATCH("/:id/read", notificationHandler.MarkRead)

	return e
}
