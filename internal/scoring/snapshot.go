package scoring

import (
	"github.com/padelhub/score-service/internal/domain"
	"github.com/padelhub/score-service/internal/engine"
)

// BuildSnapshot derives the full read-only score view from a match and its
// games. Games must be ordered by game number. The snapshot is always a
// complete replacement for whatever the consumer held before.
func BuildSnapshot(match domain.Match, games []domain.Game, seq int64) domain.MatchScoreSnapshot {
	snap := domain.MatchScoreSnapshot{
		MatchID:        match.ID,
		Status:         match.Status,
		TeamA:          match.TeamA,
		TeamB:          match.TeamB,
		CompletedGames: make([]domain.GameScore, 0, len(games)),
		WinnerTeamID:   match.WinnerTeamID,
		Seq:            seq,
	}

	for _, g := range games {
		score := gameScore(g)
		if g.Status == domain.GameCompleted {
			snap.CompletedGames = append(snap.CompletedGames, score)
			continue
		}
		current := score
		snap.CurrentGame = &current
	}

	sets := engine.TallySets(games, match.TeamA.ID)
	snap.Sets = domain.Tally{TeamA: sets.SetsA, TeamB: sets.SetsB}
	snap.CurrentSet = domain.Tally{TeamA: sets.CurrentA, TeamB: sets.CurrentB}
	return snap
}

func gameScore(g domain.Game) domain.GameScore {
	displayA, displayB := engine.Score(g)
	return domain.GameScore{
		GameID:       g.ID,
		Number:       g.Number,
		TeamAPoints:  g.TeamAPoints,
		TeamBPoints:  g.TeamBPoints,
		TeamADisplay: displayA,
		TeamBDisplay: displayB,
		Status:       g.Status,
		WinnerTeamID: g.WinnerTeamID,
	}
}
