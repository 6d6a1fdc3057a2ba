package handlers

import (
	"log/slog"
	"net/http"

	"github.com/dom/bracket-sync/internal/domain"
	"github.com/dom/bracket-sync/internal/service"
	"github.com/go-chi/chi/v5"
)

type PlayerHandler struct {
	responder
	lookupService *service.LookupService
}

func NewPlayerHandler(lookupService *service.LookupService, logger *slog.Logger) *PlayerHandler {
	return &PlayerHandler{responder: newResponder(logger), lookupService: lookupService}
}

type PlayerResponse struct {
	ID          string  `json:"id"`
	GamerTag    string  `json:"gamerTag"`
	Prefix      string  `json:"prefix,omitempty"`
	DisplayName string  `json:"displayName"`
	ImageURL    *string `json:"imageUrl"`
}

type ImageResponse struct {
	PlayerID string `json:"playerId"`
	URL      string `json:"url"`
}

// Get returns a player profile, fetching it on a cache miss.
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	player, err := h.lookupService.Player(r.Context(), chi.URLParam(r, "playerId"))
	if err != nil {
		h.writeError(w, r, "PlayerHandler.Get", err)
		return
	}
	h.writeJSON(w, http.StatusOK, PlayerResponse{
		ID:          player.ID,
		GamerTag:    player.GamerTag,
		Prefix:      player.Prefix,
		DisplayName: player.DisplayName(),
		ImageURL:    player.ImageURL,
	})
}

// Image never blocks on start.gg. An unknown player answers 202 and is
// fetched in the background; clients poll until 200 or 404.
func (h *PlayerHandler) Image(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerId")

	if url, ok := h.lookupService.ImageURLSnapshot(playerID); ok {
		h.writeJSON(w, http.StatusOK, ImageResponse{PlayerID: playerID, URL: url})
		return
	}
	if _, known := h.lookupService.PeekPlayer(playerID); known {
		http.Error(w, "Player has no image", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// Characters lists a videogame's characters, filtered by ?q= when given.
func (h *PlayerHandler) Characters(w http.ResponseWriter, r *http.Request) {
	videogameID := chi.URLParam(r, "videogameId")
	query := r.URL.Query().Get("q")

	var err error
	var characters []domain.Character
	if query == "" {
		characters, err = h.lookupService.Characters(r.Context(), videogameID)
	} else {
		characters, err = h.lookupService.FindCharacter(r.Context(), videogameID, query)
	}
	if err != nil {
		h.writeError(w, r, "PlayerHandler.Characters", err)
		return
	}
	h.writeJSON(w, http.StatusOK, characters)
}
