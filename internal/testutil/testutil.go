package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dom/bracket-sync/internal/api"
	"github.com/dom/bracket-sync/internal/config"
	"github.com/dom/bracket-sync/internal/repository"
	repoPostgres "github.com/dom/bracket-sync/internal/repository/postgres"
	"github.com/dom/bracket-sync/internal/service"
	"github.com/dom/bracket-sync/internal/startgg"
	"github.com/dom/bracket-sync/internal/telemetry"
	"github.com/dom/bracket-sync/internal/websocket"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB creates a new PostgreSQL testcontainer and returns a migrated
// connection. It is skipped in -short mode.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_bracket_sync"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	if err := repoPostgres.Migrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	testDB := &TestDB{
		Container: container,
		DB:        db,
		DSN:       dsn,
	}

	t.Cleanup(func() {
		testDB.Cleanup()
	})

	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		ctx := context.Background()
		tdb.Container.Terminate(ctx)
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	for _, table := range []string{"player_infos", "characters"} {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig(apiURL string) *config.Config {
	return &config.Config{
		Port:        "0", // Random port
		Environment: "test",
		CORSOrigins: []string{"*"},
		StartGG: config.StartGGConfig{
			APIURL:  apiURL,
			Token:   "test-token",
			Timeout: 5 * time.Second,
		},
		LookupConcurrency: 4,
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	StartGG  *FakeStartGG
	DB       *TestDB
	Repos    *repository.Repositories
	Services *service.Services
	Hub      *websocket.Hub
	Metrics  *telemetry.Metrics
	Config   *config.Config
}

type serverOptions struct {
	db *TestDB
}

type ServerOption func(*serverOptions)

// WithDatabase backs the lookup cache with db.
func WithDatabase(db *TestDB) ServerOption {
	return func(o *serverOptions) { o.db = db }
}

// NewTestServer creates a complete test server in front of a fake start.gg.
// Without WithDatabase the lookup cache is memory only.
func NewTestServer(t *testing.T, opts ...ServerOption) *TestServer {
	t.Helper()

	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}

	fake := NewFakeStartGG(t)
	cfg := TestConfig(fake.URL())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := telemetry.NewMetrics()

	client := startgg.NewClient(cfg.StartGG.APIURL, cfg.TokenSource(context.Background()),
		startgg.WithRateLimit(0),
		startgg.WithTimeout(cfg.StartGG.Timeout),
		startgg.WithLogger(log),
		startgg.WithMetrics(metrics),
	)

	var repos *repository.Repositories
	if o.db != nil {
		repos = repoPostgres.NewRepositories(o.db.DB)
	}

	hub := websocket.NewHub(log)
	go hub.Run()

	services := service.NewServices(client, repos, hub, cfg, log, metrics)
	router := api.NewRouter(services, hub, cfg, metrics, log)

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		StartGG:  fake,
		DB:       o.db,
		Repos:    repos,
		Services: services,
		Hub:      hub,
		Metrics:  metrics,
		Config:   cfg,
	}

	t.Cleanup(func() {
		server.Close()
		hub.Stop()
		services.Lookup.Wait()
	})

	return ts
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api/v1%s", ts.Server.URL, path)
}

// WebSocketURL returns the push channel URL
func (ts *TestServer) WebSocketURL() string {
	return "ws" + ts.Server.URL[4:] + "/api/v1/ws"
}

// Do sends body, JSON encoded unless nil, to the API path.
func (ts *TestServer) Do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.APIURL(path), reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// GameView is a game as the API renders it.
type GameView struct {
	ID           string     `json:"id"`
	OrderNum     int        `json:"orderNum"`
	WinnerID     *string    `json:"winnerId"`
	Scores       [2]*int    `json:"scores"`
	CharacterIDs [2]*string `json:"characterIds"`
}

// SetView is a set as the API renders it.
type SetView struct {
	ID         string     `json:"id"`
	State      int        `json:"state"`
	WinnerID   *string    `json:"winnerId"`
	Games      []GameView `json:"games"`
	IsExpanded bool       `json:"isExpanded"`
	IsDirty    bool       `json:"isDirty"`
	URL        string     `json:"url"`
	StateLabel string     `json:"stateLabel"`
	ScoreLine  string     `json:"scoreLine"`
	WinnerName string     `json:"winnerName"`
	Slots      [2]struct {
		Entrant *struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"entrant"`
	} `json:"slots"`
}

// DecodeSet asserts a 200 and decodes the set in resp.
func DecodeSet(t *testing.T, resp *http.Response) SetView {
	t.Helper()
	AssertStatusCode(t, resp, http.StatusOK)
	var set SetView
	AssertJSONResponse(t, resp, &set)
	return set
}
