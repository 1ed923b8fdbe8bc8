package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/padelhub/score-service/internal/domain"
)

type teamRow struct {
	ID      string `db:"id"`
	Name    string `db:"name"`
	Color   string `db:"color"`
	Player1 string `db:"player1"`
	Player2 string `db:"player2"`
}

func (r teamRow) toDomain() domain.Team {
	players := make([]string, 0, 2)
	if r.Player1 != "" {
		players = append(players, r.Player1)
	}
	if r.Player2 != "" {
		players = append(players, r.Player2)
	}
	return domain.Team{ID: r.ID, Name: r.Name, Color: r.Color, Players: players}
}

type matchRow struct {
	ID           string    `db:"id"`
	TeamAID      string    `db:"team_a_id"`
	TeamBID      string    `db:"team_b_id"`
	Status       string    `db:"status"`
	WinnerTeamID string    `db:"winner_team_id"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// CreateTeam inserts a team record. Teams are owned by the bracket flow;
// the store only ever reads them back during scoring.
func (s *Store) CreateTeam(ctx context.Context, t domain.Team) error {
	if len(t.Players) > 2 {
		return fmt.Errorf("create team %s: doubles teams hold at most 2 players", t.ID)
	}
	var p1, p2 string
	if len(t.Players) > 0 {
		p1 = t.Players[0]
	}
	if len(t.Players) > 1 {
		p2 = t.Players[1]
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO teams (id, name, color, player1, player2)
		VALUES (?, ?, ?, ?, ?)
	`, t.ID, t.Name, t.Color, p1, p2)
	if err != nil {
		return fmt.Errorf("create team %s: %w", t.ID, err)
	}
	return nil
}

// CreateMatch inserts a scheduled match referencing two existing teams.
func (s *Store) CreateMatch(ctx context.Context, m domain.Match) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO matches (id, team_a_id, team_b_id, status, winner_team_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.TeamA.ID, m.TeamB.ID, string(m.Status), m.WinnerTeamID, m.CreatedAt.UTC(), m.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create match %s: %w", m.ID, err)
	}
	return nil
}

// ListMatchIDs returns every match id in creation order.
func (s *Store) ListMatchIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids, `SELECT id FROM matches ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list match ids: %w", err)
	}
	return ids, nil
}

// GetMatch loads a match with both teams resolved.
func (s *Store) GetMatch(ctx context.Context, id string) (domain.Match, error) {
	var row matchRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM matches WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Match{}, fmt.Errorf("match %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Match{}, fmt.Errorf("get match %s: %w", id, err)
	}
	return s.hydrateMatch(ctx, row)
}

func (s *Store) hydrateMatch(ctx context.Context, row matchRow) (domain.Match, error) {
	teamA, err := s.getTeam(ctx, row.TeamAID)
	if err != nil {
		return domain.Match{}, err
	}
	teamB, err := s.getTeam(ctx, row.TeamBID)
	if err != nil {
		return domain.Match{}, err
	}
	return domain.Match{
		ID:           row.ID,
		TeamA:        teamA,
		TeamB:        teamB,
		Status:       domain.MatchStatus(row.Status),
		WinnerTeamID: row.WinnerTeamID,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}

func (s *Store) getTeam(ctx context.Context, id string) (domain.Team, error) {
	var row teamRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM teams WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Team{}, fmt.Errorf("team %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Team{}, fmt.Errorf("get team %s: %w", id, err)
	}
	return row.toDomain(), nil
}

// ActivateMatch flips a match to ACTIVE and creates its first game in one
// transaction.
func (s *Store) ActivateMatch(ctx context.Context, m domain.Match, first domain.Game) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := updateMatch(ctx, tx, m); err != nil {
			return err
		}
		return insertGame(ctx, tx, first)
	})
}

func updateMatch(ctx context.Context, tx *sqlx.Tx, m domain.Match) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE matches SET status = ?, winner_team_id = ?, updated_at = ?
		WHERE id = ?
	`, string(m.Status), m.WinnerTeamID, m.UpdatedAt.UTC(), m.ID)
	if err != nil {
		return fmt.Errorf("update match %s: %w", m.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update match %s: %w", m.ID, ErrNotFound)
	}
	return nil
}
