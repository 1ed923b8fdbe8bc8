package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/padelhub/score-service/internal/domain"
	"github.com/padelhub/score-service/internal/logging"
)

// stream serves the live score changefeed as Server-Sent Events. Each
// event carries a complete snapshot; clients replace their whole view on
// every message, so dropped or reordered deliveries need no repair.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request, matchID string) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}
	if h.live == nil {
		writeError(w, r, http.StatusServiceUnavailable, "live channel not configured", h.logger)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "streaming unsupported", h.logger)
		return
	}

	// The match must exist before we hold the connection open. The
	// snapshot doubles as the first event: the broker cache is empty
	// after a restart, so the store-backed view is the reliable source
	// for the initial delivery.
	logger := loggerFromContext(r, h.logger)
	current, err := h.svc.Snapshot(r.Context(), matchID)
	if err != nil {
		writeScoringError(w, r, err, logger)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sub := h.live.Subscribe(matchID)
	defer h.live.Unsubscribe(sub)

	// The broker preloads its cached snapshot on subscribe; fold it
	// into the initial event rather than sending both.
	select {
	case snap := <-sub.C():
		if snap.Seq >= current.Seq {
			current = snap
		}
	default:
	}
	if !writeEvent(w, flusher, current, logger) {
		return
	}

	logging.Info(logger, "live stream opened", slog.String(logging.FieldMatchID, matchID))

	for {
		select {
		case <-r.Context().Done():
			logging.Info(logger, "live stream closed", slog.String(logging.FieldMatchID, matchID))
			return
		case snap, open := <-sub.C():
			if !open {
				return
			}
			if !writeEvent(w, flusher, snap, logger) {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, snap domain.MatchScoreSnapshot, logger *slog.Logger) bool {
	payload, err := json.Marshal(snap)
	if err != nil {
		logging.Error(logger, "encode snapshot for stream", err)
		return true
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return false
	}
	flusher.Flush()
	return true
}
