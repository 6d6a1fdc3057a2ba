package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/bracket-sync/internal/api"
	"github.com/dom/bracket-sync/internal/config"
	"github.com/dom/bracket-sync/internal/repository"
	"github.com/dom/bracket-sync/internal/repository/postgres"
	"github.com/dom/bracket-sync/internal/service"
	"github.com/dom/bracket-sync/internal/startgg"
	"github.com/dom/bracket-sync/internal/telemetry"
	"github.com/dom/bracket-sync/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := telemetry.NewLogger(cfg.Environment, os.Stdout)
	slog.SetDefault(logger)

	metrics := telemetry.NewMetrics()

	ctx := context.Background()
	client := startgg.NewClient(cfg.StartGG.APIURL, cfg.TokenSource(ctx),
		startgg.WithRateLimit(cfg.StartGG.RateLimitPerMinute),
		startgg.WithTimeout(cfg.StartGG.Timeout),
		startgg.WithLogger(logger),
		startgg.WithMetrics(metrics),
	)

	// Initialize database; without one the lookup cache is memory only
	var repos *repository.Repositories
	if cfg.DatabaseURL != "" {
		db, err := postgres.NewConnection(cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", slog.Any("error", err))
			os.Exit(1)
		}
		repos = postgres.NewRepositories(db)
	} else {
		logger.Warn("DATABASE_URL not set, player cache will not persist")
	}

	// Initialize WebSocket hub
	hub := websocket.NewHub(logger)
	go hub.Run()

	// Initialize services
	services := service.NewServices(client, repos, hub, cfg, logger, metrics)

	// Initialize router
	router := api.NewRouter(services, hub, cfg, metrics, logger)

	// Create server. Writes wait on start.gg, so the write timeout covers
	// the client timeout of a write plus its re-fetch.
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*cfg.StartGG.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", slog.String("port", cfg.Port), slog.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", slog.Any("error", err))
	}
	hub.Stop()
	services.Lookup.Wait()

	logger.Info("server stopped")
}
