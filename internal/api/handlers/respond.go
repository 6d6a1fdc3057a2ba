package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dom/bracket-sync/internal/domain"
	"github.com/dom/bracket-sync/internal/startgg"
	"github.com/go-chi/chi/v5"
)

// refetchWarning is sent when a write succeeded but the follow-up detail
// fetch did not; the body still carries the reconciled set.
const refetchWarning = `199 - "set details could not be refreshed"`

// responder writes responses and logs failures through the handler's logger.
type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (h responder) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSetNotFound), errors.Is(err, startgg.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidGameIndex),
		errors.Is(err, domain.ErrInvalidEntrantIndex),
		errors.Is(err, domain.ErrUnknownCharacter),
		errors.Is(err, domain.ErrCandidateNotEntrant):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrWriteInProgress), errors.Is(err, domain.ErrStaleResponse):
		return http.StatusConflict
	case domain.IsNetwork(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h responder) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", slog.String("op", op), slog.Any("error", err))
		http.Error(w, "Internal server error", status)
		return
	}
	h.logger.WarnContext(r.Context(), "request rejected",
		slog.String("op", op),
		slog.Int("status", status),
		slog.Any("error", err),
	)
	http.Error(w, err.Error(), status)
}

func pathIndex(r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, false
	}
	return n, true
}
