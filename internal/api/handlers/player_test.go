package handlers_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/dom/bracket-sync/internal/domain"
	"github.com/dom/bracket-sync/internal/startgg"
	"github.com/dom/bracket-sync/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerHandler_Get(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ts.StartGG.AddPlayer(&startgg.Player{ID: "p1", GamerTag: "Sparg0", Prefix: "FaZe"})

	resp := ts.Do(t, http.MethodGet, "/players/p1", nil)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var player struct {
		ID          string  `json:"id"`
		GamerTag    string  `json:"gamerTag"`
		DisplayName string  `json:"displayName"`
		ImageURL    *string `json:"imageUrl"`
	}
	testutil.AssertJSONResponse(t, resp, &player)
	assert.Equal(t, "Sparg0", player.GamerTag)
	assert.Equal(t, "FaZe | Sparg0", player.DisplayName)
	assert.Nil(t, player.ImageURL)

	// Cached: the second read makes no request.
	ts.Do(t, http.MethodGet, "/players/p1", nil)
	count := 0
	for _, op := range ts.StartGG.Operations() {
		if op == "Player" {
			count++
		}
	}
	assert.Equal(t, 1, count)

	resp = ts.Do(t, http.MethodGet, "/players/p404", nil)
	testutil.AssertStatusCode(t, resp, http.StatusNotFound)
}

func TestPlayerHandler_Image(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ts.StartGG.AddPlayer(&startgg.Player{
		ID:       "p1",
		GamerTag: "Tweek",
		User:     &startgg.User{ID: "u1", Images: []startgg.Image{{URL: "https://images.start.gg/tweek.png", Type: "profile"}}},
	})
	ts.StartGG.AddPlayer(&startgg.Player{ID: "p2", GamerTag: "NoPic"})

	// First sight schedules a fetch and answers 202 until it lands.
	resp := ts.Do(t, http.MethodGet, "/players/p1/image", nil)
	require.Contains(t, []int{http.StatusAccepted, http.StatusOK}, resp.StatusCode)

	var image struct {
		PlayerID string `json:"playerId"`
		URL      string `json:"url"`
	}
	deadline := time.Now().Add(2 * time.Second)
	for resp.StatusCode != http.StatusOK && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
		resp = ts.Do(t, http.MethodGet, "/players/p1/image", nil)
	}
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	testutil.AssertJSONResponse(t, resp, &image)
	assert.Equal(t, "https://images.start.gg/tweek.png", image.URL)

	// Known player without an image is a 404, not a 202.
	testutil.AssertStatusCode(t, ts.Do(t, http.MethodGet, "/players/p2", nil), http.StatusOK)
	resp = ts.Do(t, http.MethodGet, "/players/p2/image", nil)
	testutil.AssertErrorResponse(t, resp, http.StatusNotFound, "no image")
}

func TestPlayerHandler_Characters(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ev := testutil.NewEventBuilder("700", 3).
		WithCharacters(5).
		WithSet(domain.SetStatePending, 0).
		BuildInto(ts.StartGG)
	testutil.AssertStatusCode(t, ts.Do(t, http.MethodPost, "/events/700/sets", nil), http.StatusOK)

	resp := ts.Do(t, http.MethodGet, "/videogames/1386/characters", nil)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var all []domain.Character
	testutil.AssertJSONResponse(t, resp, &all)
	assert.Len(t, all, 5)

	want := ev.Videogame.Characters[2]
	resp = ts.Do(t, http.MethodGet, "/videogames/1386/characters?q="+url.QueryEscape(want.Name), nil)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var found []domain.Character
	testutil.AssertJSONResponse(t, resp, &found)
	require.NotEmpty(t, found)

	ids := make([]string, len(found))
	for i, c := range found {
		ids[i] = c.ID
	}
	assert.Contains(t, ids, want.ID.String())
}

func TestPlayerHandler_DatabaseBackedCache(t *testing.T) {
	db := testutil.NewTestDB(t)

	first := testutil.NewTestServer(t, testutil.WithDatabase(db))
	first.StartGG.AddPlayer(&startgg.Player{ID: "p7", GamerTag: "Light"})
	testutil.AssertStatusCode(t, first.Do(t, http.MethodGet, "/players/p7", nil), http.StatusOK)

	stored, err := first.Repos.Player.GetByID(context.Background(), "p7")
	require.NoError(t, err)
	assert.Equal(t, "Light", stored.GamerTag)

	// A fresh process sharing the database never asks start.gg.
	second := testutil.NewTestServer(t, testutil.WithDatabase(db))
	resp := second.Do(t, http.MethodGet, "/players/p7", nil)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	assert.NotContains(t, second.StartGG.Operations(), "Player")
}
