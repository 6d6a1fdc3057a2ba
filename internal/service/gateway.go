package service

import (
	"context"

	"github.com/dom/bracket-sync/internal/domain"
	"github.com/dom/bracket-sync/internal/startgg"
)

// Gateway is the part of the start.gg client the services depend on.
type Gateway interface {
	EventSets(ctx context.Context, eventID string) (*startgg.Event, error)
	SetDetails(ctx context.Context, setID string) (*startgg.Set, error)
	MarkSetInProgress(ctx context.Context, setID string) (*startgg.Set, error)
	ResetSet(ctx context.Context, setID string, resetDependentSets bool) (*startgg.Set, error)
	UpdateBracketSet(ctx context.Context, in startgg.UpdateBracketSetInput) (*startgg.Set, error)
	ReportBracketSet(ctx context.Context, in startgg.ReportBracketSetInput) ([]startgg.Set, error)

	Player(ctx context.Context, playerID string) (*startgg.Player, error)
	CurrentUser(ctx context.Context) (*startgg.User, error)
	AdminTournaments(ctx context.Context) ([]startgg.Tournament, error)
	TournamentEvents(ctx context.Context, tournamentID string) (*startgg.Tournament, error)
	EventEntrants(ctx context.Context, eventID string) ([]startgg.Entrant, error)
}

var _ Gateway = (*startgg.Client)(nil)

// SetNotifier receives set changes for push to connected clients.
type SetNotifier interface {
	SetsLoaded(eventID string, sets []*domain.Set)
	SetUpdated(set *domain.Set)
	SetSaved(set *domain.Set)
	SetSubmitted(set *domain.Set)
	SetError(setID string, err error)
}

type nopNotifier struct{}

func (nopNotifier) SetsLoaded(string, []*domain.Set) {}
func (nopNotifier) SetUpdated(*domain.Set)           {}
func (nopNotifier) SetSaved(*domain.Set)             {}
func (nopNotifier) SetSubmitted(*domain.Set)         {}
func (nopNotifier) SetError(string, error)           {}
