// Package engine holds the pure padel scoring rules: point application,
// score display mapping, and set/match tallying. Nothing in here performs
// I/O or keeps state; callers own persistence and serialization.
package engine

import "github.com/padelhub/score-service/internal/domain"

const (
	// pointsToWin is the raw count a team must reach before a game can end.
	pointsToWin = 4
	// winBy is the margin required to take a game or a set.
	winBy = 2
	// GamesToWinSet is the completed-game count that can close a set.
	GamesToWinSet = 6
	// SetsToWinMatch closes the match.
	SetsToWinMatch = 2
)

// Side identifies one of the two teams in a game.
type Side int

const (
	SideA Side = iota
	SideB
)

// Result is the outcome of applying a single point.
type Result struct {
	TeamAPoints int
	TeamBPoints int
	GameOver    bool
	Winner      Side
}

// Apply awards one point to scorer and evaluates the win condition.
// The win rule is checked on every point: advantage can be lost and
// regained any number of times, so a game ends exactly when the scorer
// reaches >=4 points with a margin of >=2.
func Apply(teamAPoints, teamBPoints int, scorer Side) Result {
	a, b := teamAPoints, teamBPoints
	if scorer == SideA {
		a++
	} else {
		b++
	}

	res := Result{TeamAPoints: a, TeamBPoints: b}
	switch {
	case a >= pointsToWin && a-b >= winBy:
		res.GameOver = true
		res.Winner = SideA
	case b >= pointsToWin && b-a >= winBy:
		res.GameOver = true
		res.Winner = SideB
	}
	return res
}

var pointNames = [...]string{"0", "15", "30", "40"}

// Display maps a raw point count to its scoreboard string, given the
// opponent's count. "AD" only appears in deuce territory when the team is
// exactly one point ahead; a team simply leading 40-15 never shows "AD".
// Display is presentation only and is never consulted by the win rule.
func Display(own, opponent int) string {
	if own < len(pointNames) {
		return pointNames[own]
	}
	if own > opponent {
		return "AD"
	}
	return "40"
}

// Score renders both sides of a game for a snapshot.
func Score(g domain.Game) (teamA, teamB string) {
	return Display(g.TeamAPoints, g.TeamBPoints), Display(g.TeamBPoints, g.TeamAPoints)
}
