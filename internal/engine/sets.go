package engine

import "github.com/padelhub/score-service/internal/domain"

// SetState is the derived set standing of a match. Games carry no set
// column; sets are reconstructed by walking completed games in order and
// resetting the running counters each time a set closes.
type SetState struct {
	SetsA int
	SetsB int
	// CurrentA/CurrentB are completed games in the set in progress.
	CurrentA int
	CurrentB int
	// MatchOver is true once a team has taken SetsToWinMatch sets.
	MatchOver bool
	Winner    Side
}

// TallySets folds the match's completed games into a SetState. Games must
// be ordered by game number; games that are not completed are ignored.
// A set closes when a team reaches >=6 games with a margin of >=2. There
// is no game cap and no tiebreak, a set runs until the margin is made.
func TallySets(games []domain.Game, teamAID string) SetState {
	var st SetState
	for _, g := range games {
		if g.Status != domain.GameCompleted {
			continue
		}
		if g.WinnerTeamID == teamAID {
			st.CurrentA++
		} else {
			st.CurrentB++
		}

		switch {
		case setWon(st.CurrentA, st.CurrentB):
			st.SetsA++
			st.CurrentA, st.CurrentB = 0, 0
		case setWon(st.CurrentB, st.CurrentA):
			st.SetsB++
			st.CurrentA, st.CurrentB = 0, 0
		}

		if st.SetsA >= SetsToWinMatch {
			st.MatchOver = true
			st.Winner = SideA
			return st
		}
		if st.SetsB >= SetsToWinMatch {
			st.MatchOver = true
			st.Winner = SideB
			return st
		}
	}
	return st
}

func setWon(own, opponent int) bool {
	return own >= GamesToWinSet && own-opponent >= winBy
}
