package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/utakatalp/prem-predictor/internal/game"
	"github.com/utakatalp/prem-predictor/internal/league"
	"github.com/utakatalp/prem-predictor/internal/odds"
	"github.com/utakatalp/prem-predictor/internal/scoring"
	"github.com/utakatalp/prem-predictor/internal/store"
)

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, scoring.ErrMalformedPrediction),
		errors.Is(err, league.ErrMalformedTable),
		errors.Is(err, game.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, game.ErrUnknownUser):
		return http.StatusNotFound
	case errors.Is(err, game.ErrPredictionsLocked),
		errors.Is(err, game.ErrNotAdmin):
		return http.StatusForbidden
	case errors.Is(err, game.ErrChallengeClosed):
		return http.StatusConflict
	case errors.Is(err, odds.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError maps a service error onto a status code. Unexpected
// errors are logged and hidden from the client.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
		respondError(w, status, "internal error")
		return
	}
	respondError(w, status, err.Error())
}
