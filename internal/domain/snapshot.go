package domain

// GameScore is the per-game view inside a snapshot: raw counters plus the
// display strings the scoreboard renders ("0"/"15"/"30"/"40"/"AD").
type GameScore struct {
	GameID       string     `json:"gameId"`
	Number       int        `json:"number"`
	TeamAPoints  int        `json:"teamAPoints"`
	TeamBPoints  int        `json:"teamBPoints"`
	TeamADisplay string     `json:"teamADisplay"`
	TeamBDisplay string     `json:"teamBDisplay"`
	Status       GameStatus `json:"status"`
	WinnerTeamID string     `json:"winnerTeamId,omitempty"`
}

// Tally is a pair of per-team counters (sets won, games in the current set).
type Tally struct {
	TeamA int `json:"teamA"`
	TeamB int `json:"teamB"`
}

// MatchScoreSnapshot is the derived, read-only view pushed to subscribers.
// Every delivery is a complete replacement of the consumer's local state;
// it is never stored independently and is recomputed on each change.
type MatchScoreSnapshot struct {
	MatchID        string      `json:"matchId"`
	Status         MatchStatus `json:"status"`
	TeamA          Team        `json:"teamA"`
	TeamB          Team        `json:"teamB"`
	CompletedGames []GameScore `json:"completedGames"`
	CurrentGame    *GameScore  `json:"currentGame,omitempty"`
	Sets           Tally       `json:"sets"`
	CurrentSet     Tally       `json:"currentSet"`
	WinnerTeamID   string      `json:"winnerTeamId,omitempty"`
	Seq            int64       `json:"seq"`
}
