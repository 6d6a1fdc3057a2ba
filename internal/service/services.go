package service

import (
	"log/slog"

	"github.com/dom/bracket-sync/internal/bracket"
	"github.com/dom/bracket-sync/internal/config"
	"github.com/dom/bracket-sync/internal/repository"
	"github.com/dom/bracket-sync/internal/telemetry"
)

type Services struct {
	Bracket    *BracketService
	Lookup     *LookupService
	Tournament *TournamentService
}

// NewServices wires the services around one gateway. repos and notifier may
// be nil.
func NewServices(
	gateway Gateway,
	repos *repository.Repositories,
	notifier SetNotifier,
	cfg *config.Config,
	logger *slog.Logger,
	metrics *telemetry.Metrics,
) *Services {
	concurrency := 0
	if cfg != nil {
		concurrency = cfg.LookupConcurrency
	}
	lookup := NewLookupService(gateway, logger, metrics,
		WithRepositories(repos),
		WithConcurrency(concurrency),
	)

	return &Services{
		Bracket:    NewBracketService(gateway, bracket.NewStore(), lookup, notifier, logger, metrics),
		Lookup:     lookup,
		Tournament: NewTournamentService(gateway, logger, metrics),
	}
}
