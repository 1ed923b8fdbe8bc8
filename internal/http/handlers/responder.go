package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/padelhub/score-service/internal/http/middleware"
	"github.com/padelhub/score-service/internal/logging"
	"github.com/padelhub/score-service/internal/scoring"
)

func writeJSON(w http.ResponseWriter, status int, payload any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Error("failed to encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string, logger *slog.Logger) {
	reqID := middleware.RequestIDFromContext(r.Context())
	if reqID == "" {
		reqID = r.Header.Get("X-Request-ID")
	}
	body := map[string]string{"error": message}
	if reqID != "" {
		body["requestId"] = reqID
	}
	writeJSON(w, status, body, logger)
}

// writeScoringError maps the scoring error taxonomy onto HTTP statuses:
// unknown match 404, bad teams 422, lifecycle conflicts 409, busy 503.
func writeScoringError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	var (
		notFound *scoring.MatchNotFoundError
		teams    *scoring.InvalidTeamsError
		active   *scoring.MatchAlreadyActiveError
		sequence *scoring.GameSequenceError
		complete *scoring.MatchCompleteError
		busy     *scoring.BusyError
	)
	switch {
	case errors.As(err, &notFound):
		writeError(w, r, http.StatusNotFound, err.Error(), logger)
	case errors.As(err, &teams):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error(), logger)
	case errors.As(err, &active), errors.As(err, &sequence), errors.As(err, &complete):
		writeError(w, r, http.StatusConflict, err.Error(), logger)
	case errors.As(err, &busy):
		w.Header().Set("Retry-After", "1")
		writeError(w, r, http.StatusServiceUnavailable, err.Error(), logger)
	default:
		logging.Error(logger, "scoring operation failed", err)
		writeError(w, r, http.StatusInternalServerError, "internal error", logger)
	}
}

func loggerFromContext(r *http.Request, fallback *slog.Logger) *slog.Logger {
	if r == nil {
		return fallback
	}
	return logging.FromContext(r.Context(), fallback)
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string, logger *slog.Logger) bool {
	if r.Method != method {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed", logger)
		return false
	}
	return true
}
