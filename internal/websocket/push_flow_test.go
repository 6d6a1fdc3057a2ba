package websocket_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/dom/bracket-sync/internal/domain"
	"github.com/dom/bracket-sync/internal/testutil"
	"github.com/dom/bracket-sync/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultTimeout = 5 * time.Second

// newPushServer serves event 300 with sets 30001 (two games) and 30002.
func newPushServer(t *testing.T) *testutil.TestServer {
	t.Helper()
	ts := testutil.NewTestServer(t)
	testutil.NewEventBuilder("300", 11).
		WithSet(domain.SetStateInProgress, 2).
		WithSet(domain.SetStatePending, 0).
		BuildInto(ts.StartGG)
	return ts
}

// connect opens a client and waits until the hub has registered it.
func connect(t *testing.T, ts *testutil.TestServer, setIDs ...string) *testutil.WSClient {
	t.Helper()
	client := testutil.NewWSClient(t, ts.WebSocketURL())
	client.Subscribe(setIDs...)
	return client
}

// expectSetWithGames skips set updates until one carries n games.
func expectSetWithGames(t *testing.T, client *testutil.WSClient, msgType websocket.MessageType, n int) *domain.Set {
	t.Helper()
	deadline := time.Now().Add(defaultTimeout)
	for time.Now().Before(deadline) {
		payload := client.ExpectSet(msgType, time.Until(deadline))
		if len(payload.Set.Games) == n {
			return payload.Set
		}
	}
	t.Fatalf("no %s with %d games", msgType, n)
	return nil
}

func TestPushFlow_LoadEditSave(t *testing.T) {
	ts := newPushServer(t)
	client := connect(t, ts)

	testutil.AssertStatusCode(t, ts.Do(t, http.MethodPost, "/events/300/sets", nil), http.StatusOK)

	msg := client.ExpectMessage(websocket.MessageTypeSetsLoaded, defaultTimeout)
	var loaded websocket.SetsLoadedPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &loaded))
	assert.Equal(t, "300", loaded.EventID)
	require.Len(t, loaded.Sets, 2)

	testutil.AssertStatusCode(t, ts.Do(t, http.MethodPost, "/sets/30001/expand", nil), http.StatusOK)
	expanded := expectSetWithGames(t, client, websocket.MessageTypeSetUpdated, 2)
	assert.False(t, expanded.IsDirty)

	testutil.AssertStatusCode(t, ts.Do(t, http.MethodPost, "/sets/30001/games", nil), http.StatusOK)
	edited := expectSetWithGames(t, client, websocket.MessageTypeSetUpdated, 3)
	assert.True(t, edited.IsDirty)

	testutil.AssertStatusCode(t, ts.Do(t, http.MethodPost, "/sets/30001/save", nil), http.StatusOK)
	saved := client.ExpectSet(websocket.MessageTypeSetSaved, defaultTimeout)
	assert.Equal(t, "30001", saved.Set.ID)
	assert.False(t, saved.Set.IsDirty)
	assert.Nil(t, saved.Set.WinnerID)
}

func TestPushFlow_SubmitAndErrors(t *testing.T) {
	ts := newPushServer(t)
	client := connect(t, ts)
	testutil.AssertStatusCode(t, ts.Do(t, http.MethodPost, "/events/300/sets", nil), http.StatusOK)
	testutil.AssertStatusCode(t, ts.Do(t, http.MethodPost, "/sets/30001/expand", nil), http.StatusOK)

	// Two games split 1-1: no winner can be derived, nothing is sent.
	resp := ts.Do(t, http.MethodPost, "/sets/30001/submit", nil)
	testutil.AssertStatusCode(t, resp, http.StatusUnprocessableEntity)

	testutil.AssertStatusCode(t, ts.Do(t, http.MethodPost, "/sets/30001/games", nil), http.StatusOK)
	testutil.AssertStatusCode(t, ts.Do(t, http.MethodPut, "/sets/30001/games/2/winner",
		map[string]string{"entrantId": "300011"}), http.StatusOK)

	testutil.AssertStatusCode(t, ts.Do(t, http.MethodPost, "/sets/30001/submit", nil), http.StatusOK)
	submitted := client.ExpectSet(websocket.MessageTypeSetSubmitted, defaultTimeout)
	assert.Equal(t, domain.SetStateComplete, submitted.Set.State)
	require.NotNil(t, submitted.Set.WinnerID)
	assert.Equal(t, "300011", *submitted.Set.WinnerID)

	ts.StartGG.Fail("MarkSetInProgress", "Set is already complete")
	testutil.AssertStatusCode(t, ts.Do(t, http.MethodPost, "/sets/30001/start", nil), http.StatusBadGateway)

	errPayload := client.ExpectError(defaultTimeout)
	assert.Equal(t, "NETWORK_ERROR", errPayload.Code)
	assert.Equal(t, "30001", errPayload.SetID)
	assert.Contains(t, errPayload.Message, "Set is already complete")
}

func TestPushFlow_SubscriptionFilter(t *testing.T) {
	ts := newPushServer(t)
	watching := connect(t, ts, "30002")
	everything := connect(t, ts)

	testutil.AssertStatusCode(t, ts.Do(t, http.MethodPost, "/events/300/sets", nil), http.StatusOK)

	// Event loads reach every client.
	watching.ExpectMessage(websocket.MessageTypeSetsLoaded, defaultTimeout)
	everything.ExpectMessage(websocket.MessageTypeSetsLoaded, defaultTimeout)

	testutil.AssertStatusCode(t, ts.Do(t, http.MethodPost, "/sets/30001/games", nil), http.StatusOK)
	everything.ExpectSet(websocket.MessageTypeSetUpdated, defaultTimeout)
	watching.ExpectNoMessage(200 * time.Millisecond)

	testutil.AssertStatusCode(t, ts.Do(t, http.MethodPost, "/sets/30002/games", nil), http.StatusOK)
	got := watching.ExpectSet(websocket.MessageTypeSetUpdated, defaultTimeout)
	assert.Equal(t, "30002", got.Set.ID)
}

func TestPushFlow_ClientMessages(t *testing.T) {
	ts := newPushServer(t)
	client := connect(t, ts)

	client.Send(websocket.MessageTypePing, nil)
	reply := client.ExpectAnyMessage(defaultTimeout)
	assert.Equal(t, websocket.MessageTypePong, reply.Type)

	client.Send(websocket.MessageType("JOIN_ROOM"), map[string]string{"roomId": "x"})
	errPayload := client.ExpectError(defaultTimeout)
	assert.Equal(t, "UNSUPPORTED", errPayload.Code)

	assert.Equal(t, 1, ts.Hub.ClientCount())
}

func TestPushFlow_StopClosesClients(t *testing.T) {
	ts := newPushServer(t)
	client := connect(t, ts)

	ts.Hub.Stop()
	client.ExpectClosed(defaultTimeout)
	assert.Equal(t, 0, ts.Hub.ClientCount())
}
