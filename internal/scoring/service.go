// Package scoring orchestrates score writes: it validates point and game
// submissions against match invariants, serializes them per match, runs
// the pure engine, persists the result atomically, and publishes the new
// snapshot.
package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/padelhub/score-service/internal/domain"
	"github.com/padelhub/score-service/internal/engine"
	"github.com/padelhub/score-service/internal/logging"
	"github.com/padelhub/score-service/internal/metrics"
	"github.com/padelhub/score-service/internal/store/sqlstore"
)

const defaultLockTimeout = 3 * time.Second

// Store is the persistence contract the service writes through. The
// service is the sole writer for games, point events, and match
// completion.
type Store interface {
	GetMatch(ctx context.Context, id string) (domain.Match, error)
	ListGames(ctx context.Context, matchID string) ([]domain.Game, error)
	GetGame(ctx context.Context, id string) (domain.Game, error)
	ActivateMatch(ctx context.Context, m domain.Match, first domain.Game) error
	InsertGame(ctx context.Context, g domain.Game) error
	PointEventByKey(ctx context.Context, gameID, key string) (domain.PointEvent, []byte, bool, error)
	NextSeq(ctx context.Context, matchID string) (int64, error)
	ApplyPoint(ctx context.Context, ev domain.PointEvent, snapshot []byte, game domain.Game, match *domain.Match) error
}

// Publisher receives every new snapshot after a successful write.
type Publisher interface {
	Publish(snap domain.MatchScoreSnapshot)
}

// Service coordinates scoring operations using a Store and a Publisher.
type Service struct {
	store       Store
	publisher   Publisher
	logger      *slog.Logger
	metrics     *metrics.Recorder
	locks       *lockManager
	lockTimeout time.Duration
	now         func() time.Time
	newID       func() string
}

// New constructs a Service. A non-positive lockTimeout falls back to the
// 3s default.
func New(store Store, publisher Publisher, logger *slog.Logger, recorder *metrics.Recorder, lockTimeout time.Duration) *Service {
	if lockTimeout <= 0 {
		lockTimeout = defaultLockTimeout
	}
	return &Service{
		store:       store,
		publisher:   publisher,
		logger:      logger,
		metrics:     recorder,
		locks:       newLockManager(),
		lockTimeout: lockTimeout,
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
}

// StartMatch transitions a scheduled match to ACTIVE and opens game #1.
func (s *Service) StartMatch(ctx context.Context, matchID, teamAID, teamBID string) (domain.MatchScoreSnapshot, error) {
	release, err := s.lock(ctx, matchID)
	if err != nil {
		return domain.MatchScoreSnapshot{}, err
	}
	defer release()

	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return domain.MatchScoreSnapshot{}, err
	}
	if match.Status != domain.MatchScheduled {
		return domain.MatchScoreSnapshot{}, &MatchAlreadyActiveError{MatchID: matchID, Status: match.Status}
	}
	if err := s.checkTeams(match, teamAID, teamBID); err != nil {
		return domain.MatchScoreSnapshot{}, err
	}

	match.Status = domain.MatchActive
	match.UpdatedAt = s.now().UTC()
	first := domain.Game{
		ID:      s.newID(),
		MatchID: matchID,
		Number:  1,
		Status:  domain.GameActive,
	}
	if err := s.store.ActivateMatch(ctx, match, first); err != nil {
		return domain.MatchScoreSnapshot{}, err
	}

	logging.Info(s.logger, "match started",
		slog.String(logging.FieldMatchID, matchID),
		slog.String(logging.FieldTeamID, teamAID),
	)
	snap := BuildSnapshot(match, []domain.Game{first}, 0)
	s.publish(snap)
	return snap, nil
}

// StartGame opens the next game for an active match. The requested game
// number must be exactly (completed games)+1 and no other game may be
// active.
func (s *Service) StartGame(ctx context.Context, matchID string, gameNumber int, teamAID, teamBID string) (domain.MatchScoreSnapshot, error) {
	release, err := s.lock(ctx, matchID)
	if err != nil {
		return domain.MatchScoreSnapshot{}, err
	}
	defer release()

	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return domain.MatchScoreSnapshot{}, err
	}
	if match.Status == domain.MatchCompleted {
		return domain.MatchScoreSnapshot{}, &MatchCompleteError{MatchID: matchID, WinnerTeamID: match.WinnerTeamID}
	}
	if match.Status != domain.MatchActive {
		return domain.MatchScoreSnapshot{}, &GameSequenceError{MatchID: matchID, Reason: "match has not started"}
	}
	if err := s.checkTeams(match, teamAID, teamBID); err != nil {
		return domain.MatchScoreSnapshot{}, err
	}

	games, err := s.store.ListGames(ctx, matchID)
	if err != nil {
		return domain.MatchScoreSnapshot{}, err
	}
	completed := 0
	for _, g := range games {
		if g.Status == domain.GameActive {
			return domain.MatchScoreSnapshot{}, &GameSequenceError{
				MatchID: matchID,
				Reason:  fmt.Sprintf("game %d is still active", g.Number),
			}
		}
		completed++
	}
	expected := completed + 1
	if gameNumber != expected {
		return domain.MatchScoreSnapshot{}, &GameSequenceError{MatchID: matchID, Requested: gameNumber, Expected: expected}
	}

	game := domain.Game{
		ID:      s.newID(),
		MatchID: matchID,
		Number:  gameNumber,
		Status:  domain.GameActive,
	}
	if err := s.store.InsertGame(ctx, game); err != nil {
		return domain.MatchScoreSnapshot{}, err
	}
	games = append(games, game)

	logging.Info(s.logger, "game started",
		slog.String(logging.FieldMatchID, matchID),
		slog.Int(logging.FieldGameNumber, gameNumber),
	)
	seq, err := s.currentSeq(ctx, matchID)
	if err != nil {
		return domain.MatchScoreSnapshot{}, err
	}
	snap := BuildSnapshot(match, games, seq)
	s.publish(snap)
	return snap, nil
}

// RecordPoint applies one awarded point. A submission whose idempotency
// key was already seen returns the original resulting snapshot with
// replayed=true and has no further effect.
func (s *Service) RecordPoint(ctx context.Context, matchID, gameID, teamID, idempotencyKey string) (domain.MatchScoreSnapshot, bool, error) {
	if idempotencyKey == "" {
		return domain.MatchScoreSnapshot{}, false, errors.New("idempotency key required")
	}

	start := s.now()
	release, err := s.lock(ctx, matchID)
	if err != nil {
		return domain.MatchScoreSnapshot{}, false, err
	}
	defer release()

	snap, replayed, err := s.applyPoint(ctx, matchID, gameID, teamID, idempotencyKey)
	if s.metrics != nil && !replayed {
		s.metrics.RecordPointApplied(matchID, time.Since(start), err)
	}
	return snap, replayed, err
}

func (s *Service) applyPoint(ctx context.Context, matchID, gameID, teamID, idempotencyKey string) (domain.MatchScoreSnapshot, bool, error) {
	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return domain.MatchScoreSnapshot{}, false, err
	}

	game, err := s.store.GetGame(ctx, gameID)
	if errors.Is(err, sqlstore.ErrNotFound) {
		return domain.MatchScoreSnapshot{}, false, &GameSequenceError{MatchID: matchID, Reason: fmt.Sprintf("game %s not found", gameID)}
	}
	if err != nil {
		return domain.MatchScoreSnapshot{}, false, err
	}
	if game.MatchID != matchID {
		return domain.MatchScoreSnapshot{}, false, &GameSequenceError{MatchID: matchID, Reason: fmt.Sprintf("game %s belongs to another match", gameID)}
	}
	if _, ok := match.TeamByID(teamID); !ok {
		return domain.MatchScoreSnapshot{}, false, &InvalidTeamsError{MatchID: matchID, TeamID: teamID, Reason: "team is not part of this match"}
	}

	// Idempotent replay: answer with the snapshot produced by the
	// original write, not the current state. This must run before the
	// completion rejections below so a retry of the point that closed
	// the game or the match still reads as a success.
	if snap, ok, err := s.replaySnapshot(ctx, gameID, idempotencyKey); err != nil {
		return domain.MatchScoreSnapshot{}, false, err
	} else if ok {
		return snap, true, nil
	}

	if match.Status == domain.MatchCompleted {
		return domain.MatchScoreSnapshot{}, false, &MatchCompleteError{MatchID: matchID, WinnerTeamID: match.WinnerTeamID}
	}
	if game.Status != domain.GameActive {
		return domain.MatchScoreSnapshot{}, false, &GameSequenceError{MatchID: matchID, Reason: fmt.Sprintf("game %d is already completed", game.Number)}
	}

	scorer := engine.SideA
	if teamID == match.TeamB.ID {
		scorer = engine.SideB
	}
	result := engine.Apply(game.TeamAPoints, game.TeamBPoints, scorer)
	game.TeamAPoints = result.TeamAPoints
	game.TeamBPoints = result.TeamBPoints

	var matchUpdate *domain.Match
	if result.GameOver {
		game.Status = domain.GameCompleted
		game.WinnerTeamID = teamID
	}

	games, err := s.store.ListGames(ctx, matchID)
	if err != nil {
		return domain.MatchScoreSnapshot{}, false, err
	}
	for i := range games {
		if games[i].ID == game.ID {
			games[i] = game
		}
	}

	if result.GameOver {
		sets := engine.TallySets(games, match.TeamA.ID)
		if sets.MatchOver {
			match.Status = domain.MatchCompleted
			match.WinnerTeamID = teamID
			match.UpdatedAt = s.now().UTC()
			matchUpdate = &match
		}
	}

	seq, err := s.store.NextSeq(ctx, matchID)
	if err != nil {
		return domain.MatchScoreSnapshot{}, false, err
	}
	snap := BuildSnapshot(match, games, seq)

	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return domain.MatchScoreSnapshot{}, false, fmt.Errorf("encode snapshot: %w", err)
	}
	ev := domain.PointEvent{
		ID:             s.newID(),
		MatchID:        matchID,
		GameID:         gameID,
		TeamID:         teamID,
		IdempotencyKey: idempotencyKey,
		Seq:            seq,
		CreatedAt:      s.now().UTC(),
	}

	err = s.store.ApplyPoint(ctx, ev, snapJSON, game, matchUpdate)
	if errors.Is(err, sqlstore.ErrDuplicatePoint) {
		// Backstop for a key that raced past the lookup above.
		if snap, ok, lookupErr := s.replaySnapshot(ctx, gameID, idempotencyKey); lookupErr == nil && ok {
			return snap, true, nil
		}
		return domain.MatchScoreSnapshot{}, false, err
	}
	if err != nil {
		return domain.MatchScoreSnapshot{}, false, err
	}

	logging.Info(s.logger, "point recorded",
		slog.String(logging.FieldMatchID, matchID),
		slog.String(logging.FieldTeamID, teamID),
		slog.Int64(logging.FieldSeq, seq),
		slog.Bool("game_over", result.GameOver),
	)
	if matchUpdate != nil {
		logging.Info(s.logger, "match completed",
			slog.String(logging.FieldMatchID, matchID),
			slog.String(logging.FieldTeamID, teamID),
		)
	}
	s.publish(snap)
	return snap, false, nil
}

// LiveScore returns all of a match's games ordered by game number.
func (s *Service) LiveScore(ctx context.Context, matchID string) ([]domain.Game, error) {
	if _, err := s.loadMatch(ctx, matchID); err != nil {
		return nil, err
	}
	return s.store.ListGames(ctx, matchID)
}

// Snapshot derives the current full score view for a match.
func (s *Service) Snapshot(ctx context.Context, matchID string) (domain.MatchScoreSnapshot, error) {
	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return domain.MatchScoreSnapshot{}, err
	}
	games, err := s.store.ListGames(ctx, matchID)
	if err != nil {
		return domain.MatchScoreSnapshot{}, err
	}
	seq, err := s.currentSeq(ctx, matchID)
	if err != nil {
		return domain.MatchScoreSnapshot{}, err
	}
	return BuildSnapshot(match, games, seq), nil
}

func (s *Service) replaySnapshot(ctx context.Context, gameID, key string) (domain.MatchScoreSnapshot, bool, error) {
	_, snapJSON, ok, err := s.store.PointEventByKey(ctx, gameID, key)
	if err != nil || !ok {
		return domain.MatchScoreSnapshot{}, false, err
	}
	var snap domain.MatchScoreSnapshot
	if err := json.Unmarshal(snapJSON, &snap); err != nil {
		return domain.MatchScoreSnapshot{}, false, fmt.Errorf("decode stored snapshot: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordIdempotentReplay(snap.MatchID)
	}
	return snap, true, nil
}

func (s *Service) lock(ctx context.Context, matchID string) (func(), error) {
	release, waited, err := s.locks.acquire(ctx, matchID, s.lockTimeout)
	if s.metrics != nil {
		s.metrics.RecordLockWait(matchID, waited, err)
	}
	if err != nil {
		var busy *BusyError
		if errors.As(err, &busy) {
			logging.Warn(s.logger, "match busy",
				slog.String(logging.FieldMatchID, matchID),
				slog.Int64(logging.FieldDurationMS, waited.Milliseconds()),
			)
		}
		return nil, err
	}
	return release, nil
}

func (s *Service) loadMatch(ctx context.Context, matchID string) (domain.Match, error) {
	match, err := s.store.GetMatch(ctx, matchID)
	if errors.Is(err, sqlstore.ErrNotFound) {
		return domain.Match{}, &MatchNotFoundError{MatchID: matchID}
	}
	return match, err
}

func (s *Service) checkTeams(match domain.Match, teamAID, teamBID string) error {
	if teamAID != match.TeamA.ID {
		return &InvalidTeamsError{MatchID: match.ID, TeamID: teamAID, Reason: "team is not side A of this match"}
	}
	if teamBID != match.TeamB.ID {
		return &InvalidTeamsError{MatchID: match.ID, TeamID: teamBID, Reason: "team is not side B of this match"}
	}
	if !match.TeamA.HasPlayers() || !match.TeamB.HasPlayers() {
		return &InvalidTeamsError{MatchID: match.ID, Reason: "both teams need registered players"}
	}
	return nil
}

func (s *Service) currentSeq(ctx context.Context, matchID string) (int64, error) {
	next, err := s.store.NextSeq(ctx, matchID)
	if err != nil {
		return 0, fmt.Errorf("read point sequence for match %s: %w", matchID, err)
	}
	return next - 1, nil
}

func (s *Service) publish(snap domain.MatchScoreSnapshot) {
	if s.publisher != nil {
		s.publisher.Publish(snap)
	}
}
