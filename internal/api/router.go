package api

import (
	"log/slog"
	"net/http"

	"github.com/dom/bracket-sync/internal/api/handlers"
	"github.com/dom/bracket-sync/internal/api/middleware"
	"github.com/dom/bracket-sync/internal/config"
	"github.com/dom/bracket-sync/internal/service"
	"github.com/dom/bracket-sync/internal/telemetry"
	"github.com/dom/bracket-sync/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(services *service.Services, hub *websocket.Hub, cfg *config.Config, metrics *telemetry.Metrics, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Warning"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Metrics(metrics))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", metrics.Handler())

	// Initialize handlers
	setHandler := handlers.NewSetHandler(services.Bracket, logger)
	tournamentHandler := handlers.NewTournamentHandler(services.Tournament, logger)
	playerHandler := handlers.NewPlayerHandler(services.Lookup, logger)
	wsHandler := handlers.NewWebSocketHandler(hub, cfg.CORSOrigins, logger)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/me", tournamentHandler.Me)

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", tournamentHandler.List)
			r.Get("/events", tournamentHandler.Events)
		})

		r.Route("/events/{eventId}", func(r chi.Router) {
			r.Get("/attendees", tournamentHandler.Attendees)
			r.Post("/sets", setHandler.Load)
		})

		r.Route("/sets", func(r chi.Router) {
			r.Get("/", setHandler.List)

			r.Route("/{setId}", func(r chi.Router) {
				r.Get("/", setHandler.Get)
				r.Post("/expand", setHandler.Expand)
				r.Post("/collapse", setHandler.Collapse)
				r.Post("/refresh", setHandler.Refresh)

				// Local edits
				r.Post("/games", setHandler.AddGame)
				r.Delete("/games/{index}", setHandler.DeleteGame)
				r.Put("/games/{index}/winner", setHandler.SetWinner)
				r.Put("/games/{index}/score", setHandler.SetScore)
				r.Put("/games/{index}/character", setHandler.SelectCharacter)

				// Writes to start.gg
				r.Post("/save", setHandler.Save)
				r.Post("/submit", setHandler.Submit)
				r.Post("/start", setHandler.Start)
				r.Post("/reset", setHandler.Reset)
			})
		})

		r.Route("/players/{playerId}", func(r chi.Router) {
			r.Get("/", playerHandler.Get)
			r.Get("/image", playerHandler.Image)
		})

		r.Get("/videogames/{videogameId}/characters", playerHandler.Characters)

		// WebSocket endpoint
		r.Get("/ws", wsHandler.Handle)
	})

	return r
}
