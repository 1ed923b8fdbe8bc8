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

type eventRow struct {
	ID             string    `db:"id"`
	MatchID        string    `db:"match_id"`
	GameID         string    `db:"game_id"`
	TeamID         string    `db:"team_id"`
	IdempotencyKey string    `db:"idempotency_key"`
	Seq            int64     `db:"seq"`
	Snapshot       string    `db:"snapshot"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r eventRow) toDomain() domain.PointEvent {
	return domain.PointEvent{
		ID:             r.ID,
		MatchID:        r.MatchID,
		GameID:         r.GameID,
		TeamID:         r.TeamID,
		IdempotencyKey: r.IdempotencyKey,
		Seq:            r.Seq,
		CreatedAt:      r.CreatedAt,
	}
}

// PointEventByKey looks up a point event by its idempotency key within a
// game. The stored snapshot JSON is returned alongside so a replayed
// submission can answer with the exact result of the original write.
func (s *Store) PointEventByKey(ctx context.Context, gameID, key string) (domain.PointEvent, []byte, bool, error) {
	var row eventRow
	err := s.db.GetContext(ctx, &row, `
		SELECT * FROM point_events WHERE game_id = ? AND idempotency_key = ?
	`, gameID, key)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PointEvent{}, nil, false, nil
	}
	if err != nil {
		return domain.PointEvent{}, nil, false, fmt.Errorf("lookup point event: %w", err)
	}
	return row.toDomain(), []byte(row.Snapshot), true, nil
}

// NextSeq returns the next server-assigned sequence number for a match.
// Only called while holding the match's serialization lock.
func (s *Store) NextSeq(ctx context.Context, matchID string) (int64, error) {
	var max sql.NullInt64
	err := s.db.GetContext(ctx, &max, `
		SELECT MAX(seq) FROM point_events WHERE match_id = ?
	`, matchID)
	if err != nil {
		return 0, fmt.Errorf("next seq for match %s: %w", matchID, err)
	}
	return max.Int64 + 1, nil
}

// ListPointEvents returns a match's full point log in sequence order.
// The log is append-only; rows are never updated or deleted.
func (s *Store) ListPointEvents(ctx context.Context, matchID string) ([]domain.PointEvent, error) {
	var rows []eventRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM point_events WHERE match_id = ? ORDER BY seq
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("list point events for match %s: %w", matchID, err)
	}
	events := make([]domain.PointEvent, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.toDomain())
	}
	return events, nil
}

// ApplyPoint persists one scored point atomically: the event row, the
// updated game counters, and (when the point closed a set or the match)
// the updated match row all land in a single transaction. A duplicate
// idempotency key aborts the transaction with ErrDuplicatePoint and
// leaves every table untouched.
func (s *Store) ApplyPoint(ctx context.Context, ev domain.PointEvent, snapshot []byte, game domain.Game, match *domain.Match) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO point_events
			(id, match_id, game_id, team_id, idempotency_key, seq, snapshot, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (game_id, idempotency_key) DO NOTHING
		`, ev.ID, ev.MatchID, ev.GameID, ev.TeamID, ev.IdempotencyKey, ev.Seq, string(snapshot), ev.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("append point event: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrDuplicatePoint
		}

		if err := updateGame(ctx, tx, game); err != nil {
			return err
		}
		if match != nil {
			return updateMatch(ctx, tx, *match)
		}
		return nil
	})
}
