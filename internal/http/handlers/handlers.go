package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/padelhub/score-service/internal/domain"
	"github.com/padelhub/score-service/internal/live"
)

// ScoringService is the scoring surface the handlers call into.
type ScoringService interface {
	StartMatch(ctx context.Context, matchID, teamAID, teamBID string) (domain.MatchScoreSnapshot, error)
	StartGame(ctx context.Context, matchID string, gameNumber int, teamAID, teamBID string) (domain.MatchScoreSnapshot, error)
	RecordPoint(ctx context.Context, matchID, gameID, teamID, idempotencyKey string) (domain.MatchScoreSnapshot, bool, error)
	Snapshot(ctx context.Context, matchID string) (domain.MatchScoreSnapshot, error)
}

// LiveChannel hands out per-match snapshot subscriptions for streaming.
type LiveChannel interface {
	Subscribe(matchID string) *live.Subscription
	Unsubscribe(sub *live.Subscription)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler wires HTTP routes to the scoring service and the live broker.
type Handler struct {
	svc    ScoringService
	live   LiveChannel
	pinger Pinger
	logger *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(svc ScoringService, live LiveChannel, pinger Pinger, logger *slog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		live:   live,
		pinger: pinger,
		logger: logger,
	}
}

// Health reports the service health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}
	if err := r.Context().Err(); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "shutting down", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

// Ready reports readiness for traffic: the database must be reachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			writeError(w, r, http.StatusServiceUnavailable, "store unavailable", h.logger)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"}, h.logger)
}

// Matches dispatches /matches/{id}/{action} routes.
func (h *Handler) Matches(w http.ResponseWriter, r *http.Request) {
	matchID, action, ok := splitMatchPath(r.URL.Path)
	if !ok {
		writeError(w, r, http.StatusNotFound, "not found", h.logger)
		return
	}

	switch action {
	case "start":
		h.startMatch(w, r, matchID)
	case "games":
		h.startGame(w, r, matchID)
	case "points":
		h.recordPoint(w, r, matchID)
	case "score":
		h.liveScore(w, r, matchID)
	case "live":
		h.stream(w, r, matchID)
	default:
		writeError(w, r, http.StatusNotFound, "not found", h.logger)
	}
}

type startMatchRequest struct {
	TeamAID string `json:"teamAId"`
	TeamBID string `json:"teamBId"`
}

func (h *Handler) startMatch(w http.ResponseWriter, r *http.Request, matchID string) {
	if !requireMethod(w, r, http.MethodPost, h.logger) {
		return
	}
	var req startMatchRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}
	if req.TeamAID == "" || req.TeamBID == "" {
		writeError(w, r, http.StatusBadRequest, "teamAId and teamBId are required", h.logger)
		return
	}

	snap, err := h.svc.StartMatch(r.Context(), matchID, req.TeamAID, req.TeamBID)
	if err != nil {
		writeScoringError(w, r, err, loggerFromContext(r, h.logger))
		return
	}
	writeJSON(w, http.StatusOK, snap, h.logger)
}

type startGameRequest struct {
	GameNumber int    `json:"gameNumber"`
	TeamAID    string `json:"teamAId"`
	TeamBID    string `json:"teamBId"`
}

func (h *Handler) startGame(w http.ResponseWriter, r *http.Request, matchID string) {
	if !requireMethod(w, r, http.MethodPost, h.logger) {
		return
	}
	var req startGameRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}
	if req.GameNumber <= 0 {
		writeError(w, r, http.StatusBadRequest, "gameNumber must be positive", h.logger)
		return
	}

	snap, err := h.svc.StartGame(r.Context(), matchID, req.GameNumber, req.TeamAID, req.TeamBID)
	if err != nil {
		writeScoringError(w, r, err, loggerFromContext(r, h.logger))
		return
	}
	writeJSON(w, http.StatusOK, snap, h.logger)
}

type recordPointRequest struct {
	GameID         string `json:"gameId"`
	TeamID         string `json:"teamId"`
	IdempotencyKey string `json:"idempotencyKey"`
}

type recordPointResponse struct {
	Snapshot         domain.MatchScoreSnapshot `json:"snapshot"`
	IdempotentReplay bool                      `json:"idempotentReplay"`
}

func (h *Handler) recordPoint(w http.ResponseWriter, r *http.Request, matchID string) {
	if !requireMethod(w, r, http.MethodPost, h.logger) {
		return
	}
	var req recordPointRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}
	if req.GameID == "" || req.TeamID == "" || req.IdempotencyKey == "" {
		writeError(w, r, http.StatusBadRequest, "gameId, teamId, and idempotencyKey are required", h.logger)
		return
	}

	snap, replayed, err := h.svc.RecordPoint(r.Context(), matchID, req.GameID, req.TeamID, req.IdempotencyKey)
	if err != nil {
		writeScoringError(w, r, err, loggerFromContext(r, h.logger))
		return
	}
	writeJSON(w, http.StatusOK, recordPointResponse{Snapshot: snap, IdempotentReplay: replayed}, h.logger)
}

func (h *Handler) liveScore(w http.ResponseWriter, r *http.Request, matchID string) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}
	snap, err := h.svc.Snapshot(r.Context(), matchID)
	if err != nil {
		writeScoringError(w, r, err, loggerFromContext(r, h.logger))
		return
	}
	writeJSON(w, http.StatusOK, snap, h.logger)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any, logger *slog.Logger) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body", logger)
		return false
	}
	return true
}

// splitMatchPath parses "/matches/{id}/{action}" into its parts.
func splitMatchPath(path string) (matchID, action string, ok bool) {
	rest := strings.TrimPrefix(path, "/matches/")
	if rest == path {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
