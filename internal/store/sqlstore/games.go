package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/padelhub/score-service/internal/domain"
)

type gameRow struct {
	ID           string `db:"id"`
	MatchID      string `db:"match_id"`
	GameNumber   int    `db:"game_number"`
	TeamAPoints  int    `db:"team_a_points"`
	TeamBPoints  int    `db:"team_b_points"`
	Status       string `db:"status"`
	WinnerTeamID string `db:"winner_team_id"`
}

func (r gameRow) toDomain() domain.Game {
	return domain.Game{
		ID:           r.ID,
		MatchID:      r.MatchID,
		Number:       r.GameNumber,
		TeamAPoints:  r.TeamAPoints,
		TeamBPoints:  r.TeamBPoints,
		Status:       domain.GameStatus(r.Status),
		WinnerTeamID: r.WinnerTeamID,
	}
}

// GetGame loads a single game by id.
func (s *Store) GetGame(ctx context.Context, id string) (domain.Game, error) {
	var row gameRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM games WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Game{}, fmt.Errorf("game %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Game{}, fmt.Errorf("get game %s: %w", id, err)
	}
	return row.toDomain(), nil
}

// ListGames returns all games for a match ordered by game number.
func (s *Store) ListGames(ctx context.Context, matchID string) ([]domain.Game, error) {
	var rows []gameRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM games WHERE match_id = ? ORDER BY game_number
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("list games for match %s: %w", matchID, err)
	}
	games := make([]domain.Game, 0, len(rows))
	for _, r := range rows {
		games = append(games, r.toDomain())
	}
	return games, nil
}

// InsertGame appends a new game for a match. The partial unique index on
// active games rejects a second ACTIVE game for the same match.
func (s *Store) InsertGame(ctx context.Context, g domain.Game) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		return insertGame(ctx, tx, g)
	})
}

func insertGame(ctx context.Context, tx *sqlx.Tx, g domain.Game) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO games (id, match_id, game_number, team_a_points, team_b_points, status, winner_team_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, g.ID, g.MatchID, g.Number, g.TeamAPoints, g.TeamBPoints, string(g.Status), g.WinnerTeamID)
	if err != nil {
		return fmt.Errorf("insert game %d for match %s: %w", g.Number, g.MatchID, err)
	}
	return nil
}

func updateGame(ctx context.Context, tx *sqlx.Tx, g domain.Game) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE games SET team_a_points = ?, team_b_points = ?, status = ?, winner_team_id = ?
		WHERE id = ?
	`, g.TeamAPoints, g.TeamBPoints, string(g.Status), g.WinnerTeamID, g.ID)
	if err != nil {
		return fmt.Errorf("update game %s: %w", g.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update game %s: %w", g.ID, ErrNotFound)
	}
	return nil
}
