package handlers_test

import (
	"net/http"
	"testing"

	"github.com/dom/bracket-sync/internal/domain"
	"github.com/dom/bracket-sync/internal/startgg"
	"github.com/dom/bracket-sync/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTournamentServer(t *testing.T) *testutil.TestServer {
	t.Helper()
	ts := testutil.NewTestServer(t)
	ts.StartGG.SetUser(&startgg.User{ID: "u1", Slug: "user/abc123"})
	ts.StartGG.AddTournament(startgg.Tournament{
		ID:   "t1",
		Name: "Genesis",
		Slug: "tournament/genesis",
		Events: []startgg.Event{
			{ID: "700", Name: "Ultimate Singles"},
			{ID: "701", Name: "Ultimate Doubles"},
		},
	})
	ts.StartGG.AddTournament(startgg.Tournament{
		ID:     "t2",
		Name:   "Pound",
		Events: []startgg.Event{{ID: "800", Name: "Melee Singles"}},
	})
	return ts
}

func TestTournamentHandler_List(t *testing.T) {
	ts := newTournamentServer(t)

	resp := ts.Do(t, http.MethodGet, "/tournaments", nil)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var tournaments []domain.Tournament
	testutil.AssertJSONResponse(t, resp, &tournaments)
	require.Len(t, tournaments, 2)
	assert.Equal(t, "Genesis", tournaments[0].Name)
	assert.Equal(t, "t2", tournaments[1].ID)
}

func TestTournamentHandler_Events(t *testing.T) {
	ts := newTournamentServer(t)

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name:           "flattens in the order asked",
			query:          "?ids=t2,t1",
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var events []domain.EventSummary
				testutil.AssertJSONResponse(t, resp, &events)
				require.Len(t, events, 3)
				assert.Equal(t, domain.EventSummary{ID: "800", Name: "Melee Singles", TournamentID: "t2", TournamentName: "Pound"}, events[0])
				assert.Equal(t, "Genesis", events[1].TournamentName)
				assert.Equal(t, "701", events[2].ID)
			},
		},
		{
			name:           "missing ids",
			query:          "",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "blank ids",
			query:          "?ids=,,",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown tournament fails the call",
			query:          "?ids=t1,t9",
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.Do(t, http.MethodGet, "/tournaments/events"+tt.query, nil)
			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestTournamentHandler_Attendees(t *testing.T) {
	ts := newTournamentServer(t)
	testutil.NewEventBuilder("700", 7).
		WithSet(domain.SetStateInProgress, 0).
		WithUnresolvedSet().
		BuildInto(ts.StartGG)

	resp := ts.Do(t, http.MethodGet, "/events/700/attendees", nil)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var attendees []domain.Attendee
	testutil.AssertJSONResponse(t, resp, &attendees)
	require.Len(t, attendees, 3)
	assert.Equal(t, "p700011", attendees[0].PlayerID)
	assert.Equal(t, "700011", attendees[0].EntrantID)
	assert.NotEmpty(t, attendees[0].GamerTag)
}

func TestTournamentHandler_Me(t *testing.T) {
	ts := newTournamentServer(t)

	resp := ts.Do(t, http.MethodGet, "/me", nil)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var me struct {
		UserID string `json:"userId"`
	}
	testutil.AssertJSONResponse(t, resp, &me)
	assert.Equal(t, "u1", me.UserID)

	req, ok := ts.StartGG.LastRequest("CurrentUser")
	require.True(t, ok)
	assert.Equal(t, "Bearer test-token", req.Auth)
}

func TestTournamentHandler_Unauthorized(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ts.StartGG.Fail("AdminTournaments", "Invalid authentication token")

	resp := ts.Do(t, http.MethodGet, "/tournaments", nil)
	testutil.AssertErrorResponse(t, resp, http.StatusBadGateway, "Invalid authentication token")
}
