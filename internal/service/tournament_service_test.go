package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dom/bracket-sync/internal/domain"
	"github.com/dom/bracket-sync/internal/service"
	"github.com/dom/bracket-sync/internal/startgg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTournamentService_ListTournaments(t *testing.T) {
	gw := NewFakeGateway()
	start := int64(1_735_689_600)
	gw.AdminTournamentsFunc = func(ctx context.Context) ([]startgg.Tournament, error) {
		return []startgg.Tournament{
			{ID: "1", Name: "Weekly #12", Slug: "tournament/weekly-12", StartAt: &start,
				Images: []startgg.Image{{URL: "https://img/t1.png"}}},
			{ID: "2", Name: "Monthly", Slug: "tournament/monthly"},
		}, nil
	}
	svc := service.NewTournamentService(gw, discardLogger(), nil)

	got, err := svc.ListTournaments(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Weekly #12", got[0].Name)
	require.NotNil(t, got[0].ImageURL)
	assert.Equal(t, "https://img/t1.png", *got[0].ImageURL)
	require.NotNil(t, got[0].StartAt)
	assert.Equal(t, time.Unix(start, 0).UTC(), *got[0].StartAt)
	assert.Nil(t, got[0].EndAt)
	assert.Nil(t, got[1].ImageURL)
}

func TestTournamentService_ListEventsKeepsTournamentOrder(t *testing.T) {
	gw := NewFakeGateway()
	gw.TournamentEventsFunc = func(ctx context.Context, id string) (*startgg.Tournament, error) {
		// Later tournaments answer first.
		if id == "1" {
			time.Sleep(20 * time.Millisecond)
		}
		return &startgg.Tournament{
			ID:   startgg.ID(id),
			Name: "T" + id,
			Events: []startgg.Event{
				{ID: startgg.ID(id + "01"), Name: "Singles"},
				{ID: startgg.ID(id + "02"), Name: "Doubles"},
			},
		}, nil
	}
	svc := service.NewTournamentService(gw, discardLogger(), nil)

	got, err := svc.ListEvents(context.Background(), []string{"1", "2", "3"})
	require.NoError(t, err)

	want := []domain.EventSummary{
		{ID: "101", Name: "Singles", TournamentID: "1", TournamentName: "T1"},
		{ID: "102", Name: "Doubles", TournamentID: "1", TournamentName: "T1"},
		{ID: "201", Name: "Singles", TournamentID: "2", TournamentName: "T2"},
		{ID: "202", Name: "Doubles", TournamentID: "2", TournamentName: "T2"},
		{ID: "301", Name: "Singles", TournamentID: "3", TournamentName: "T3"},
		{ID: "302", Name: "Doubles", TournamentID: "3", TournamentName: "T3"},
	}
	assert.Equal(t, want, got)
}

func TestTournamentService_ListEventsFailsAsAWhole(t *testing.T) {
	gw := NewFakeGateway()
	gw.TournamentEventsFunc = func(ctx context.Context, id string) (*startgg.Tournament, error) {
		if id == "2" {
			return nil, &domain.NetworkError{Op: "tournamentEvents", Err: errors.New("bad gateway")}
		}
		return &startgg.Tournament{ID: startgg.ID(id)}, nil
	}
	svc := service.NewTournamentService(gw, discardLogger(), nil)

	got, err := svc.ListEvents(context.Background(), []string{"1", "2"})
	assert.Nil(t, got)
	assert.True(t, domain.IsNetwork(err))
}

func TestTournamentService_ListAttendeesDedupesPlayers(t *testing.T) {
	gw := NewFakeGateway()
	gw.EventEntrantsFunc = func(ctx context.Context, id string) ([]startgg.Entrant, error) {
		doubles := *rawEntrant("e3", "p1", "Alpha")
		doubles.Participants = append(doubles.Participants, startgg.Participant{
			ID:     "part-x",
			Player: &startgg.Player{ID: "p3", GamerTag: "Charlie", Prefix: "TSM"},
			User:   &startgg.User{ID: "u3", Slug: "user/charlie"},
		})
		return []startgg.Entrant{
			*rawEntrant("e1", "p1", "Alpha"),
			*rawEntrant("e2", "p2", "Bravo"),
			doubles,
			{ID: "e4", Participants: []startgg.Participant{{ID: "ghost"}}},
		}, nil
	}
	svc := service.NewTournamentService(gw, discardLogger(), nil)

	got, err := svc.ListAttendees(context.Background(), eventID)
	require.NoError(t, err)

	want := []domain.Attendee{
		{PlayerID: "p1", GamerTag: "Alpha", EntrantID: "e1"},
		{PlayerID: "p2", GamerTag: "Bravo", EntrantID: "e2"},
		{PlayerID: "p3", GamerTag: "Charlie", Prefix: "TSM", UserID: "u3", UserSlug: "user/charlie", EntrantID: "e3"},
	}
	assert.Equal(t, want, got)
	assert.Equal(t, "TSM | Charlie", got[2].DisplayName())
}

func TestTournamentService_CurrentUserAndSetURL(t *testing.T) {
	gw := NewFakeGateway()
	gw.CurrentUserFunc = func(ctx context.Context) (*startgg.User, error) {
		return &startgg.User{ID: "42"}, nil
	}
	svc := service.NewTournamentService(gw, discardLogger(), nil)

	id, err := svc.CurrentUserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "42", id)
	assert.Equal(t, "https://start.gg/set/500", svc.SetURL(setID))
}
