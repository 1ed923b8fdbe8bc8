package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/padelhub/score-service/internal/domain"
	"github.com/padelhub/score-service/internal/engine"
	"github.com/padelhub/score-service/internal/store/sqlstore"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	MatchID  string
	JSON     bool
}

// ReplayMatchResult holds the verification result for a single match.
type ReplayMatchResult struct {
	MatchID    string   `json:"matchId"`
	Events     int      `json:"events"`
	Games      int      `json:"games"`
	Consistent bool     `json:"consistent"`
	Mismatches []string `json:"mismatches,omitempty"`
}

// ReplayResult holds the overall verification result.
type ReplayResult struct {
	Matches       []ReplayMatchResult `json:"matches"`
	TotalMatches  int                 `json:"totalMatches"`
	AllConsistent bool                `json:"allConsistent"`
}

// NewReplayCommand creates the replay command. It folds each match's
// point event log back through the scoring rules and checks that the
// rebuilt game states agree with the stored rows.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay the point event log and verify stored scores",
		Long: `Replay re-derives every game's score from the append-only point event
log and compares the result against the persisted game rows.

Exit codes:
  0 - stored scores match the replayed event log
  1 - verification failed (stored state diverges from the log)
  2 - command error (database not found, unknown match, etc.)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.MatchID, "match", "", "verify a specific match only")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "emit JSON output")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := sqlstore.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var matchIDs []string
	if opts.MatchID != "" {
		matchIDs = []string{opts.MatchID}
	} else {
		matchIDs, err = st.ListMatchIDs(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list matches", err)
		}
	}

	result := ReplayResult{
		Matches:       make([]ReplayMatchResult, 0, len(matchIDs)),
		TotalMatches:  len(matchIDs),
		AllConsistent: true,
	}
	for _, id := range matchIDs {
		matchResult, err := replayMatch(ctx, st, id)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay match %s", id), err)
		}
		result.Matches = append(result.Matches, matchResult)
		if !matchResult.Consistent {
			result.AllConsistent = false
		}
	}

	if opts.JSON {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// replayMatch folds the match's event log through the engine and diffs
// the rebuilt per-game counters against the stored game rows.
func replayMatch(ctx context.Context, st *sqlstore.Store, matchID string) (ReplayMatchResult, error) {
	match, err := st.GetMatch(ctx, matchID)
	if err != nil {
		return ReplayMatchResult{}, err
	}
	games, err := st.ListGames(ctx, matchID)
	if err != nil {
		return ReplayMatchResult{}, err
	}
	events, err := st.ListPointEvents(ctx, matchID)
	if err != nil {
		return ReplayMatchResult{}, err
	}

	type counters struct {
		a, b   int
		over   bool
		winner string
	}
	rebuilt := make(map[string]*counters, len(games))
	for _, g := range games {
		rebuilt[g.ID] = &counters{}
	}

	var mismatches []string
	for _, ev := range events {
		c, ok := rebuilt[ev.GameID]
		if !ok {
			mismatches = append(mismatches, fmt.Sprintf("event seq %d references unknown game %s", ev.Seq, ev.GameID))
			continue
		}
		side := engine.SideA
		if ev.TeamID == match.TeamB.ID {
			side = engine.SideB
		}
		res := engine.Apply(c.a, c.b, side)
		c.a, c.b = res.TeamAPoints, res.TeamBPoints
		if res.GameOver {
			c.over = true
			c.winner = ev.TeamID
		}
	}

	for _, g := range games {
		c := rebuilt[g.ID]
		if c.a != g.TeamAPoints || c.b != g.TeamBPoints {
			mismatches = append(mismatches, fmt.Sprintf(
				"game %d: stored %d-%d, replayed %d-%d", g.Number, g.TeamAPoints, g.TeamBPoints, c.a, c.b))
		}
		storedOver := g.Status == domain.GameCompleted
		if c.over != storedOver {
			mismatches = append(mismatches, fmt.Sprintf(
				"game %d: stored status %s disagrees with replayed completion", g.Number, g.Status))
		}
		if c.over && c.winner != g.WinnerTeamID {
			mismatches = append(mismatches, fmt.Sprintf(
				"game %d: stored winner %s, replayed winner %s", g.Number, g.WinnerTeamID, c.winner))
		}
	}

	return ReplayMatchResult{
		MatchID:    matchID,
		Events:     len(events),
		Games:      len(games),
		Consistent: len(mismatches) == 0,
		Mismatches: mismatches,
	}, nil
}

func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return err
	}
	if !result.AllConsistent {
		return NewExitError(ExitFailure, "event log verification failed")
	}
	return nil
}

func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay summary: %d match(es)\n\n", result.TotalMatches)
	for _, m := range result.Matches {
		status := "ok"
		if !m.Consistent {
			status = "FAIL"
		}
		fmt.Fprintf(w, "[%s] match %s: %d events across %d games\n", status, m.MatchID, m.Events, m.Games)
		if verbose || !m.Consistent {
			for _, msg := range m.Mismatches {
				fmt.Fprintf(w, "  %s\n", msg)
			}
		}
	}

	if result.AllConsistent {
		fmt.Fprintln(w, "\nAll stored scores match the event log.")
		return nil
	}
	fmt.Fprintln(w, "\nEvent log verification failed.")
	return NewExitError(ExitFailure, "event log verification failed")
}
