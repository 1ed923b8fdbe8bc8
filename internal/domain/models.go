package domain

import "time"

// MatchStatus mirrors the shared contract for match lifecycle states.
type MatchStatus string

const (
	MatchScheduled MatchStatus = "SCHEDULED"
	MatchActive    MatchStatus = "ACTIVE"
	MatchCompleted MatchStatus = "COMPLETED"
)

// GameStatus is the lifecycle of a single game within a match.
type GameStatus string

const (
	GameActive    GameStatus = "ACTIVE"
	GameCompleted GameStatus = "COMPLETED"
)

// Team represents one side of a padel match. Teams are assembled by the
// bracket flow and are read-only to the scoring engine.
type Team struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Color   string   `json:"color,omitempty"`
	Players []string `json:"players"`
}

// HasPlayers reports whether the team can take the court.
func (t Team) HasPlayers() bool {
	return len(t.Players) > 0
}

// Match is the canonical match shape exposed by the service.
// Immutable once Status is MatchCompleted.
type Match struct {
	ID           string      `json:"id"`
	TeamA        Team        `json:"teamA"`
	TeamB        Team        `json:"teamB"`
	Status       MatchStatus `json:"status"`
	WinnerTeamID string      `json:"winnerTeamId,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// TeamByID resolves one of the match's two teams.
func (m Match) TeamByID(id string) (Team, bool) {
	switch id {
	case m.TeamA.ID:
		return m.TeamA, true
	case m.TeamB.ID:
		return m.TeamB, true
	}
	return Team{}, false
}

// Game is one unit of play within a match. Game numbers are 1-based and
// gapless; at most one game per match is ACTIVE at any time.
type Game struct {
	ID           string     `json:"id"`
	MatchID      string     `json:"matchId"`
	Number       int        `json:"number"`
	TeamAPoints  int        `json:"teamAPoints"`
	TeamBPoints  int        `json:"teamBPoints"`
	Status       GameStatus `json:"status"`
	WinnerTeamID string     `json:"winnerTeamId,omitempty"`
}

// PointEvent is an append-only log entry recording one awarded point.
// Seq is server-assigned and strictly increasing within a match; the
// idempotency key is client-generated, unique per (game, tap).
type PointEvent struct {
	ID             string    `json:"id"`
	MatchID        string    `json:"matchId"`
	GameID         string    `json:"gameId"`
	TeamID         string    `json:"teamId"`
	IdempotencyKey string    `json:"idempotencyKey"`
	Seq            int64     `json:"seq"`
	CreatedAt      time.Time `json:"createdAt"`
}
