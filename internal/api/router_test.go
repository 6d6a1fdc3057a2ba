package api_test

import (
	"io"
	"net/http"
	"testing"

	"github.com/dom/bracket-sync/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_Health(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp, err := http.Get(ts.BaseURL() + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestRouter_MetricsUseRoutePatterns(t *testing.T) {
	ts := testutil.NewTestServer(t)

	testutil.AssertStatusCode(t, ts.Do(t, http.MethodGet, "/sets/123", nil), http.StatusNotFound)
	testutil.AssertStatusCode(t, ts.Do(t, http.MethodGet, "/sets/456", nil), http.StatusNotFound)

	resp, err := http.Get(ts.BaseURL() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `bracket_sync_http_request_duration_seconds_count{method="GET",route="/api/v1/sets/{setId}`)
	assert.Contains(t, text, `status="404"} 2`)
	assert.NotContains(t, text, `route="/api/v1/sets/123"`)
}

func TestRouter_CORSPreflight(t *testing.T) {
	ts := testutil.NewTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.APIURL("/sets/1/save"), nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
}
