package scoring

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padelhub/score-service/internal/domain"
)

func fixtureMatch() domain.Match {
	return domain.Match{
		ID:     "match-1",
		TeamA:  domain.Team{ID: "team-a", Name: "Net Rushers", Color: "blue", Players: []string{"ana", "bea"}},
		TeamB:  domain.Team{ID: "team-b", Name: "Baseliners", Color: "red", Players: []string{"cai", "dre"}},
		Status: domain.MatchActive,
	}
}

func TestBuildSnapshotMidMatch(t *testing.T) {
	match := fixtureMatch()
	games := []domain.Game{
		{ID: "game-1", MatchID: match.ID, Number: 1, TeamAPoints: 4, TeamBPoints: 2, Status: domain.GameCompleted, WinnerTeamID: "team-a"},
		{ID: "game-2", MatchID: match.ID, Number: 2, TeamAPoints: 3, TeamBPoints: 3, Status: domain.GameActive},
	}

	snap := BuildSnapshot(match, games, 12)

	assert.Equal(t, "match-1", snap.MatchID)
	require.Len(t, snap.CompletedGames, 1)
	require.NotNil(t, snap.CurrentGame)
	assert.Equal(t, "40", snap.CurrentGame.TeamADisplay)
	assert.Equal(t, "40", snap.CurrentGame.TeamBDisplay)
	assert.Equal(t, domain.Tally{TeamA: 0, TeamB: 0}, snap.Sets)
	assert.Equal(t, domain.Tally{TeamA: 1, TeamB: 0}, snap.CurrentSet)
	assert.Equal(t, int64(12), snap.Seq)
}

func TestBuildSnapshotCompletedMatchHasNoCurrentGame(t *testing.T) {
	match := fixtureMatch()
	match.Status = domain.MatchCompleted
	match.WinnerTeamID = "team-a"
	games := make([]domain.Game, 0, 12)
	for i := 1; i <= 12; i++ {
		games = append(games, domain.Game{
			ID: "game", MatchID: match.ID, Number: i,
			TeamAPoints: 4, TeamBPoints: 0,
			Status: domain.GameCompleted, WinnerTeamID: "team-a",
		})
	}

	snap := BuildSnapshot(match, games, 48)

	assert.Nil(t, snap.CurrentGame)
	assert.Equal(t, domain.Tally{TeamA: 2, TeamB: 0}, snap.Sets)
	assert.Equal(t, "team-a", snap.WinnerTeamID)
	assert.Len(t, snap.CompletedGames, 12)
}

func TestSnapshotGolden(t *testing.T) {
	match := fixtureMatch()
	games := []domain.Game{
		{ID: "game-1", MatchID: match.ID, Number: 1, TeamAPoints: 4, TeamBPoints: 2, Status: domain.GameCompleted, WinnerTeamID: "team-a"},
		{ID: "game-2", MatchID: match.ID, Number: 2, TeamAPoints: 5, TeamBPoints: 4, Status: domain.GameActive},
	}

	snap := BuildSnapshot(match, games, 15)
	payload, err := json.MarshalIndent(snap, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "snapshot_mid_match", payload)
}
