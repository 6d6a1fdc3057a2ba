package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dom/bracket-sync/internal/domain"
	"github.com/dom/bracket-sync/internal/service"
	"github.com/dom/bracket-sync/internal/startgg"
	"github.com/go-chi/chi/v5"
)

type SetHandler struct {
	responder
	bracketService *service.BracketService
}

func NewSetHandler(bracketService *service.BracketService, logger *slog.Logger) *SetHandler {
	return &SetHandler{responder: newResponder(logger), bracketService: bracketService}
}

// SetResponse is a set plus the display fields clients would otherwise
// derive themselves.
type SetResponse struct {
	*domain.Set
	URL        string `json:"url"`
	StateLabel string `json:"stateLabel"`
	ScoreLine  string `json:"scoreLine"`
	WinnerName string `json:"winnerName,omitempty"`
}

func toSetResponse(set *domain.Set) SetResponse {
	resp := SetResponse{
		Set:        set,
		URL:        startgg.SetURL(set.ID),
		StateLabel: set.State.String(),
		ScoreLine:  set.ScoreLine(),
	}
	if name, ok := set.WinnerName(); ok {
		resp.WinnerName = name
	}
	return resp
}

func toSetResponses(sets []*domain.Set) []SetResponse {
	out := make([]SetResponse, len(sets))
	for i, set := range sets {
		out[i] = toSetResponse(set)
	}
	return out
}

type SetWinnerRequest struct {
	EntrantID string `json:"entrantId"`
}

type SetScoreRequest struct {
	EntrantIndex int  `json:"entrantIndex"`
	Score        *int `json:"score"`
}

type SelectCharacterRequest struct {
	EntrantIndex int    `json:"entrantIndex"`
	CharacterID  string `json:"characterId"`
}

type SaveRequest struct {
	IsDQ bool `json:"isDQ"`
}

type ResetRequest struct {
	ResetDependentSets bool `json:"resetDependentSets"`
}

// Load replaces the working sets with the sets of an event.
func (h *SetHandler) Load(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	sets, err := h.bracketService.LoadSets(r.Context(), eventID)
	if err != nil {
		h.writeError(w, r, "SetHandler.Load", err)
		return
	}
	h.writeJSON(w, http.StatusOK, toSetResponses(sets))
}

func (h *SetHandler) List(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, toSetResponses(h.bracketService.ListSets()))
}

func (h *SetHandler) Get(w http.ResponseWriter, r *http.Request) {
	set, err := h.bracketService.GetSet(chi.URLParam(r, "setId"))
	h.respond(w, r, "SetHandler.Get", set, err)
}

func (h *SetHandler) Expand(w http.ResponseWriter, r *http.Request) {
	set, err := h.bracketService.ExpandSet(r.Context(), chi.URLParam(r, "setId"))
	h.respond(w, r, "SetHandler.Expand", set, err)
}

func (h *SetHandler) Collapse(w http.ResponseWriter, r *http.Request) {
	set, err := h.bracketService.CollapseSet(chi.URLParam(r, "setId"))
	h.respond(w, r, "SetHandler.Collapse", set, err)
}

// Refresh re-fetches the set's details from start.gg.
func (h *SetHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	set, err := h.bracketService.FetchSetDetails(r.Context(), chi.URLParam(r, "setId"))
	h.respond(w, r, "SetHandler.Refresh", set, err)
}

func (h *SetHandler) AddGame(w http.ResponseWriter, r *http.Request) {
	set, err := h.bracketService.AddGame(r.Context(), chi.URLParam(r, "setId"))
	h.respond(w, r, "SetHandler.AddGame", set, err)
}

func (h *SetHandler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(r, "index")
	if !ok {
		http.Error(w, "Invalid game index", http.StatusBadRequest)
		return
	}

	set, err := h.bracketService.DeleteGame(r.Context(), chi.URLParam(r, "setId"), index)
	h.respond(w, r, "SetHandler.DeleteGame", set, err)
}

func (h *SetHandler) SetWinner(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(r, "index")
	if !ok {
		http.Error(w, "Invalid game index", http.StatusBadRequest)
		return
	}

	var req SetWinnerRequest
	if err := readJSON(w, r, &req); err != nil || req.EntrantID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	set, err := h.bracketService.SetGameWinner(r.Context(), chi.URLParam(r, "setId"), index, req.EntrantID)
	h.respond(w, r, "SetHandler.SetWinner", set, err)
}

func (h *SetHandler) SetScore(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(r, "index")
	if !ok {
		http.Error(w, "Invalid game index", http.StatusBadRequest)
		return
	}

	var req SetScoreRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	set, err := h.bracketService.SetGameScore(r.Context(), chi.URLParam(r, "setId"), index, req.EntrantIndex, req.Score)
	h.respond(w, r, "SetHandler.SetScore", set, err)
}

func (h *SetHandler) SelectCharacter(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(r, "index")
	if !ok {
		http.Error(w, "Invalid game index", http.StatusBadRequest)
		return
	}

	var req SelectCharacterRequest
	if err := readJSON(w, r, &req); err != nil || req.CharacterID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	set, err := h.bracketService.SelectCharacter(r.Context(), chi.URLParam(r, "setId"), index, req.EntrantIndex, req.CharacterID)
	h.respond(w, r, "SetHandler.SelectCharacter", set, err)
}

// Save accepts an empty body.
func (h *SetHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	set, err := h.bracketService.SaveSet(r.Context(), chi.URLParam(r, "setId"), service.SaveOptions{IsDQ: req.IsDQ})
	h.respond(w, r, "SetHandler.Save", set, err)
}

func (h *SetHandler) Submit(w http.ResponseWriter, r *http.Request) {
	set, err := h.bracketService.SubmitSet(r.Context(), chi.URLParam(r, "setId"))
	h.respond(w, r, "SetHandler.Submit", set, err)
}

func (h *SetHandler) Start(w http.ResponseWriter, r *http.Request) {
	set, err := h.bracketService.StartSet(r.Context(), chi.URLParam(r, "setId"))
	h.respond(w, r, "SetHandler.Start", set, err)
}

func (h *SetHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	set, err := h.bracketService.ResetSet(r.Context(), chi.URLParam(r, "setId"), req.ResetDependentSets)
	h.respond(w, r, "SetHandler.Reset", set, err)
}

// respond writes set, or err. A write whose follow-up fetch failed still
// succeeded, so it is reported as 200 with a Warning header.
func (h *SetHandler) respond(w http.ResponseWriter, r *http.Request, op string, set *domain.Set, err error) {
	if err != nil && errors.Is(err, domain.ErrRefetchFailed) && set != nil {
		w.Header().Set("Warning", refetchWarning)
		err = nil
	}
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toSetResponse(set))
}
