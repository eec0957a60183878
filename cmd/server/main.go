package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/broadcast"
	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/relay"
	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/server"
	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/store"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.DBDriver == "postgres" && cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database: the service must not start without it.
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// ERROR+ records also go to system_logs
	dbLogHandler := logging.NewDBHandler(db, 5*time.Second)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.StdoutHandler(),
		dbLogHandler,
	)))

	cleanup, err := logging.StartCleanup(db, cfg.LogRetentionDays)
	if err != nil {
		slog.Error("log cleanup scheduling failed", "error", err)
		os.Exit(1)
	}

	// Store, hub, service
	applicationStore := store.New(db, cfg.StoreTimeout)
	hub := broadcast.NewHub(func(ctx context.Context) ([]models.Application, error) {
		return applicationStore.Find(ctx, store.Filter{})
	}, cfg.ObserverBuffer)

	var publisher broadcast.Publisher = hub
	relayCtx, stopRelay := context.WithCancel(context.Background())
	if cfg.RedisURL != "" {
		client, err := relay.Connect(relayCtx, cfg.RedisURL)
		if err != nil {
			slog.Error("redis relay unavailable", "error", err)
			os.Exit(1)
		}
		defer client.Close()

		r := relay.NewRedis(client, cfg.RedisChannel, hub)
		go func() {
			if err := r.Run(relayCtx); err != nil {
				slog.Error("redis relay stopped", "error", err)
			}
		}()
		publisher = r
	}

	applicationService := services.NewApplicationService(applicationStore, publisher)
	applicationService.BroadcastAdmissions = cfg.BroadcastSyncAdmissions

	// Handlers
	applicationHandler := handlers.NewApplicationHandler(applicationService)
	healthHandler := handlers.NewHealthHandler(applicationStore, applicationStore, hub)
	wsHandler := handlers.NewWSHandler(hub, cfg.ObserverWriteTimeout, cfg.StoreTimeout)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	app := server.New()
	if cfg.SentryDSN != "" {
		app.Use(sentryfiber.New(sentryfiber.Options{
			Repanic:         true,
			WaitForDelivery: false,
		}))
	}
	server.UseDefaults(app, cfg)
	routes.Setup(app, cfg, applicationHandler, healthHandler, wsHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	stopRelay()
	hub.Close()
	<-cleanup.Stop().Done()
	dbLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}
