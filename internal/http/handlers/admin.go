package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/padelhub/score-service/internal/domain"
	"github.com/padelhub/score-service/internal/http/requestutil"
	"github.com/padelhub/score-service/internal/logging"
)

// MatchCreator persists new teams and scheduled matches.
type MatchCreator interface {
	CreateTeam(ctx context.Context, t domain.Team) error
	CreateMatch(ctx context.Context, m domain.Match) error
}

// AdminHandler exposes admin-only endpoints (match registration).
type AdminHandler struct {
	store  MatchCreator
	token  string
	logger *slog.Logger
	now    func() time.Time
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(store MatchCreator, token string, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		store:  store,
		token:  token,
		logger: logger,
		now:    time.Now,
	}
}

type adminTeamRequest struct {
	Name    string   `json:"name"`
	Color   string   `json:"color"`
	Players []string `json:"players"`
}

type createMatchRequest struct {
	TeamA adminTeamRequest `json:"teamA"`
	TeamB adminTeamRequest `json:"teamB"`
}

// CreateMatch registers two teams and a scheduled match between them.
// Guarded by ADMIN_TOKEN env; returns 401 if missing/invalid.
func (h *AdminHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost, h.logger) {
		return
	}
	if !h.authorize(r) {
		logging.Warn(h.logger, "admin unauthorized",
			slog.String("path", r.URL.Path),
			slog.String("client_ip", requestutil.ClientIP(r)),
		)
		writeError(w, r, http.StatusUnauthorized, "unauthorized", h.logger)
		return
	}
	if h.store == nil {
		writeError(w, r, http.StatusServiceUnavailable, "store not configured", h.logger)
		return
	}

	logger := loggerFromContext(r, h.logger)
	var req createMatchRequest
	if !decodeBody(w, r, &req, logger) {
		return
	}
	for _, t := range []adminTeamRequest{req.TeamA, req.TeamB} {
		if strings.TrimSpace(t.Name) == "" {
			writeError(w, r, http.StatusBadRequest, "team name is required", logger)
			return
		}
		if len(t.Players) > 2 {
			writeError(w, r, http.StatusBadRequest, "teams hold at most 2 players", logger)
			return
		}
	}

	teamA := domain.Team{ID: uuid.NewString(), Name: req.TeamA.Name, Color: req.TeamA.Color, Players: req.TeamA.Players}
	teamB := domain.Team{ID: uuid.NewString(), Name: req.TeamB.Name, Color: req.TeamB.Color, Players: req.TeamB.Players}
	now := h.now().UTC()
	match := domain.Match{
		ID:        uuid.NewString(),
		TeamA:     teamA,
		TeamB:     teamB,
		Status:    domain.MatchScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}

	ctx := r.Context()
	for _, t := range []domain.Team{teamA, teamB} {
		if err := h.store.CreateTeam(ctx, t); err != nil {
			logging.Error(logger, "admin create team", err)
			writeError(w, r, http.StatusInternalServerError, "failed to create team", logger)
			return
		}
	}
	if err := h.store.CreateMatch(ctx, match); err != nil {
		logging.Error(logger, "admin create match", err)
		writeError(w, r, http.StatusInternalServerError, "failed to create match", logger)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"matchId": match.ID,
		"teamAId": teamA.ID,
		"teamBId": teamB.ID,
		"status":  string(match.Status),
	}, logger)
	logging.Info(logger, "admin match created",
		slog.String(logging.FieldMatchID, match.ID),
		slog.String("team_a", teamA.Name),
		slog.String("team_b", teamB.Name),
	)
}

func (h *AdminHandler) authorize(r *http.Request) bool {
	if h.token == "" {
		return false
	}
	return r.Header.Get("Authorization") == "Bearer "+h.token
}
