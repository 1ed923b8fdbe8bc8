package scoring

import (
	"fmt"
	"time"

	"github.com/padelhub/score-service/internal/domain"
)

// Validation errors are caller-caused and terminal: the service never
// retries them and the transport surfaces them verbatim. BusyError is the
// one retryable error; a retry with the same idempotency key is always
// safe.

// MatchNotFoundError reports an operation against an unknown match.
type MatchNotFoundError struct {
	MatchID string
}

func (e *MatchNotFoundError) Error() string {
	return fmt.Sprintf("match %s not found", e.MatchID)
}

// InvalidTeamsError reports a team precondition failure: an empty roster
// or a team id that does not belong to the match.
type InvalidTeamsError struct {
	MatchID string
	TeamID  string
	Reason  string
}

func (e *InvalidTeamsError) Error() string {
	if e.TeamID != "" {
		return fmt.Sprintf("match %s: team %s: %s", e.MatchID, e.TeamID, e.Reason)
	}
	return fmt.Sprintf("match %s: %s", e.MatchID, e.Reason)
}

// MatchAlreadyActiveError reports a startMatch call against a match that
// already left the SCHEDULED state.
type MatchAlreadyActiveError struct {
	MatchID string
	Status  domain.MatchStatus
}

func (e *MatchAlreadyActiveError) Error() string {
	return fmt.Sprintf("match %s is already %s", e.MatchID, e.Status)
}

// GameSequenceError reports a game lifecycle violation: a second active
// game, a gap in game numbers, or a point for a finished game.
type GameSequenceError struct {
	MatchID   string
	Requested int
	Expected  int
	Reason    string
}

func (e *GameSequenceError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("match %s: %s", e.MatchID, e.Reason)
	}
	return fmt.Sprintf("match %s: game number %d out of sequence, expected %d", e.MatchID, e.Requested, e.Expected)
}

// MatchCompleteError rejects writes against a completed match.
type MatchCompleteError struct {
	MatchID      string
	WinnerTeamID string
}

func (e *MatchCompleteError) Error() string {
	return fmt.Sprintf("match %s is complete (winner %s)", e.MatchID, e.WinnerTeamID)
}

// BusyError reports that the match's serialization lock could not be
// acquired in time. Callers may retry with backoff.
type BusyError struct {
	MatchID string
	Timeout time.Duration
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("match %s is busy (lock not acquired within %s)", e.MatchID, e.Timeout)
}
