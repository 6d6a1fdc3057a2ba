package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/dom/bracket-sync/internal/domain"
	"github.com/dom/bracket-sync/internal/startgg"
	"github.com/dom/bracket-sync/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

const maxParallelTournamentFetches = 4

// TournamentService browses what the token's user administers.
type TournamentService struct {
	gateway Gateway
	instrumentation
}

func NewTournamentService(gateway Gateway, logger *slog.Logger, metrics *telemetry.Metrics) *TournamentService {
	return &TournamentService{gateway: gateway, instrumentation: newInstrumentation(logger, metrics)}
}

func (s *TournamentService) ListTournaments(ctx context.Context) ([]domain.Tournament, error) {
	return withTelemetry(s.instrumentation, ctx, "ListTournaments", "", func(ctx context.Context) ([]domain.Tournament, error) {
		raw, err := s.gateway.AdminTournaments(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]domain.Tournament, 0, len(raw))
		for _, t := range raw {
			out = append(out, convertTournament(t))
		}
		return out, nil
	})
}

// ListEvents flattens the events of several tournaments, keeping the order
// of tournamentIDs. Any failed tournament fails the whole call.
func (s *TournamentService) ListEvents(ctx context.Context, tournamentIDs []string) ([]domain.EventSummary, error) {
	return withTelemetry(s.instrumentation, ctx, "ListEvents", "", func(ctx context.Context) ([]domain.EventSummary, error) {
		perTournament := make([][]domain.EventSummary, len(tournamentIDs))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxParallelTournamentFetches)
		for i, id := range tournamentIDs {
			g.Go(func() error {
				t, err := s.gateway.TournamentEvents(gctx, id)
				if err != nil {
					return err
				}
				events := make([]domain.EventSummary, 0, len(t.Events))
				for _, ev := range t.Events {
					events = append(events, domain.EventSummary{
						ID:             ev.ID.String(),
						Name:           ev.Name,
						TournamentID:   t.ID.String(),
						TournamentName: t.Name,
					})
				}
				perTournament[i] = events
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		var out []domain.EventSummary
		for _, events := range perTournament {
			out = append(out, events...)
		}
		return out, nil
	})
}

// ListAttendees returns the players registered in an event, one entry per
// player id in registration order.
func (s *TournamentService) ListAttendees(ctx context.Context, eventID string) ([]domain.Attendee, error) {
	return withTelemetry(s.instrumentation, ctx, "ListAttendees", "", func(ctx context.Context) ([]domain.Attendee, error) {
		entrants, err := s.gateway.EventEntrants(ctx, eventID)
		if err != nil {
			return nil, err
		}

		seen := make(map[string]struct{})
		var out []domain.Attendee
		for _, e := range entrants {
			for _, p := range e.Participants {
				if p.Player == nil || p.Player.ID == "" {
					continue
				}
				playerID := p.Player.ID.String()
				if _, dup := seen[playerID]; dup {
					continue
				}
				seen[playerID] = struct{}{}

				a := domain.Attendee{
					PlayerID:  playerID,
					GamerTag:  p.Player.GamerTag,
					Prefix:    p.Player.Prefix,
					EntrantID: e.ID.String(),
				}
				if p.User != nil {
					a.UserID = p.User.ID.String()
					a.UserSlug = p.User.Slug
				}
				out = append(out, a)
			}
		}
		return out, nil
	})
}

func (s *TournamentService) CurrentUserID(ctx context.Context) (string, error) {
	return withTelemetry(s.instrumentation, ctx, "CurrentUser", "", func(ctx context.Context) (string, error) {
		u, err := s.gateway.CurrentUser(ctx)
		if err != nil {
			return "", err
		}
		return u.ID.String(), nil
	})
}

func (s *TournamentService) SetURL(setID string) string {
	return startgg.SetURL(setID)
}

func convertTournament(t startgg.Tournament) domain.Tournament {
	out := domain.Tournament{
		ID:   t.ID.String(),
		Name: t.Name,
		Slug: t.Slug,
	}
	if len(t.Images) > 0 && t.Images[0].URL != "" {
		url := t.Images[0].URL
		out.ImageURL = &url
	}
	if t.StartAt != nil {
		ts := time.Unix(*t.StartAt, 0).UTC()
		out.StartAt = &ts
	}
	if t.EndAt != nil {
		ts := time.Unix(*t.EndAt, 0).UTC()
		out.EndAt = &ts
	}
	return out
}
