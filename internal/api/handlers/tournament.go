package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dom/bracket-sync/internal/service"
	"github.com/go-chi/chi/v5"
)

type TournamentHandler struct {
	responder
	tournamentService *service.TournamentService
}

func NewTournamentHandler(tournamentService *service.TournamentService, logger *slog.Logger) *TournamentHandler {
	return &TournamentHandler{responder: newResponder(logger), tournamentService: tournamentService}
}

type MeResponse struct {
	UserID string `json:"userId"`
}

// List returns the tournaments the configured account administers.
func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.tournamentService.ListTournaments(r.Context())
	if err != nil {
		h.writeError(w, r, "TournamentHandler.List", err)
		return
	}
	h.writeJSON(w, http.StatusOK, tournaments)
}

// Events flattens the events of ?ids=1,2,3.
func (h *TournamentHandler) Events(w http.ResponseWriter, r *http.Request) {
	var ids []string
	for _, id := range strings.Split(r.URL.Query().Get("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		http.Error(w, "ids query parameter required", http.StatusBadRequest)
		return
	}

	events, err := h.tournamentService.ListEvents(r.Context(), ids)
	if err != nil {
		h.writeError(w, r, "TournamentHandler.Events", err)
		return
	}
	h.writeJSON(w, http.StatusOK, events)
}

func (h *TournamentHandler) Attendees(w http.ResponseWriter, r *http.Request) {
	attendees, err := h.tournamentService.ListAttendees(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		h.writeError(w, r, "TournamentHandler.Attendees", err)
		return
	}
	h.writeJSON(w, http.StatusOK, attendees)
}

func (h *TournamentHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := h.tournamentService.CurrentUserID(r.Context())
	if err != nil {
		h.writeError(w, r, "TournamentHandler.Me", err)
		return
	}
	h.writeJSON(w, http.StatusOK, MeResponse{UserID: userID})
}
