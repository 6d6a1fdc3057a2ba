package main

import (
	"log/slog"
	"os"

	"github.com/dom/bracket-sync/internal/config"
	"github.com/dom/bracket-sync/internal/service"
	"github.com/dom/bracket-sync/internal/startgg"
	"github.com/dom/bracket-sync/internal/telemetry"
	"github.com/urfave/cli/v2"
)

// newServices builds the services in-process from the same configuration
// the server reads. Without --verbose only warnings reach stderr.
func newServices(c *cli.Context) (*service.Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	var logger *slog.Logger
	if c.Bool("verbose") {
		logger = telemetry.NewLogger(cfg.Environment, os.Stderr)
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	slog.SetDefault(logger)

	client := startgg.NewClient(cfg.StartGG.APIURL, cfg.TokenSource(c.Context),
		startgg.WithRateLimit(cfg.StartGG.RateLimitPerMinute),
		startgg.WithTimeout(cfg.StartGG.Timeout),
		startgg.WithLogger(logger),
	)
	return service.NewServices(client, nil, nil, cfg, logger, nil), nil
}
