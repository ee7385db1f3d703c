package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nexacrm/crm-backend/internal/api"
	"github.com/nexacrm/crm-backend/internal/config"
	"github.com/nexacrm/crm-backend/internal/database"
	"github.com/nexacrm/crm-backend/internal/graph"
	"github.com/nexacrm/crm-backend/internal/logger"
	"github.com/nexacrm/crm-backend/internal/replysync"
	"github.com/nexacrm/crm-backend/internal/repository"
	ws "github.com/nexacrm/crm-backend/internal/websocket"
)

func main() {
	// Load configuration first; the log level comes from it
	cfg, err := config.LoadWithValidation()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	secLogger := logger.NewSecurityLoggerWithLevel(cfg.LogLevel)
	log := secLogger.GetLogger()
	slog.SetDefault(log)

	log.Info("Starting CRM Backend Server...")
	cfg.LogConfig(log)

	// Database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Repositories
	historyRepo := repository.NewEmailHistoryRepository(db)
	replyRepo := repository.NewReplyRepository(db)
	crmRepo := repository.NewCRMRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// WebSocket hub for live reply notifications
	hub := ws.NewHub(log)
	go hub.Run()

	// Reply reconciliation pipeline. The job is always wired so the HTTP
	// trigger exists regardless of configuration; with incomplete Azure
	// credentials every run fails at token acquisition and reports it.
	tokens := graph.TokenProviderFor(graph.AzureCredentials{
		TenantID:     cfg.AzureTenantID,
		ClientID:     cfg.AzureClientID,
		ClientSecret: cfg.AzureClientSecret,
	})
	graphClient := graph.NewClient(log)
	updater := replysync.NewUpdater(replyRepo, historyRepo, crmRepo, notificationRepo, hub, log)
	job := replysync.NewJob(tokens, graphClient, historyRepo, updater, cfg.ReplyLookbackDays, log)

	var scheduler *replysync.Scheduler
	switch {
	case !cfg.HasAzureCredentials():
		log.Warn("Azure credentials not configured; reply sync runs will fail until they are set")
	case cfg.ReplySyncEnabled:
		scheduler = replysync.NewScheduler(job, replysync.SchedulerConfig{
			Interval: cfg.ReplySyncInterval,
		}, log)
		scheduler.Start()
	default:
		log.Info("reply sync scheduler disabled; job available via API only")
	}

	// HTTP server
	routerCfg := &api.RouterConfig{
		DB:         db,
		Logger:     log,
		Hub:        hub,
		Job:        job,
		APIKey:     cfg.APIKey,
		RateLimit:  int(cfg.RateLimitRequests),
		RateBurst:  cfg.RateLimitBurst,
		EnableAuth: cfg.APIKey != "",
	}
	if cfg.AllowedOrigins != "" {
		routerCfg.AllowedOrigins = strings.Split(cfg.AllowedOrigins, ",")
	}
	e := api.NewRouter(routerCfg)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.APIPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Error("http server stopped", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Shutting down server...")

	if scheduler != nil {
		scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("http server shutdown failed", slog.Any("error", err))
	}

	log.Info("Server stopped")
}
