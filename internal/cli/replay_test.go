package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/padelhub/score-service/internal/domain"
	"github.com/padelhub/score-service/internal/scoring"
	"github.com/padelhub/score-service/internal/testutil"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func seedPlayedMatch(t *testing.T) (dbPath string, matchID string) {
	t.Helper()
	st := testutil.NewStore(t)
	match := testutil.SeedMatch(t, st, "m1")
	svc := scoring.New(st, nil, nil, nil, 0)

	ctx := context.Background()
	snap, err := svc.StartMatch(ctx, match.ID, match.TeamA.ID, match.TeamB.ID)
	if err != nil {
		t.Fatalf("start match: %v", err)
	}
	scorers := []string{match.TeamA.ID, match.TeamB.ID, match.TeamA.ID, match.TeamA.ID, match.TeamA.ID}
	for i, teamID := range scorers {
		snap, _, err = svc.RecordPoint(ctx, match.ID, snap.CurrentGame.GameID, teamID, fmt.Sprintf("k-%d", i))
		if err != nil {
			t.Fatalf("record point %d: %v", i, err)
		}
		if snap.CurrentGame == nil {
			break
		}
	}
	return st.Path(), match.ID
}

func TestReplayVerifiesConsistentLog(t *testing.T) {
	dbPath, matchID := seedPlayedMatch(t)

	out, err := execute(t, "replay", "--db", dbPath)
	if err != nil {
		t.Fatalf("replay failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "match "+matchID) {
		t.Fatalf("output missing match line: %s", out)
	}
	if !strings.Contains(out, "All stored scores match the event log.") {
		t.Fatalf("expected success summary, got: %s", out)
	}
}

func TestReplayDetectsDivergence(t *testing.T) {
	dbPath, matchID := seedPlayedMatch(t)

	st := testutil.OpenStore(t, dbPath)
	ghost := domain.Game{
		ID:          "ghost",
		MatchID:     matchID,
		Number:      99,
		TeamAPoints: 3,
		Status:      domain.GameCompleted,
	}
	if err := st.InsertGame(context.Background(), ghost); err != nil {
		t.Fatalf("insert divergent game: %v", err)
	}

	out, err := execute(t, "replay", "--db", dbPath)
	if err == nil {
		t.Fatalf("expected failure, got success:\n%s", out)
	}
	if GetExitCode(err) != ExitFailure {
		t.Fatalf("expected exit code %d, got %d", ExitFailure, GetExitCode(err))
	}
	if !strings.Contains(out, "FAIL") {
		t.Fatalf("expected FAIL marker in output: %s", out)
	}
}

func TestReplayUnknownMatchIsCommandError(t *testing.T) {
	dbPath, _ := seedPlayedMatch(t)

	_, err := execute(t, "replay", "--db", dbPath, "--match", "ghost")
	if err == nil {
		t.Fatal("expected error for unknown match")
	}
	if GetExitCode(err) != ExitCommandError {
		t.Fatalf("expected exit code %d, got %d", ExitCommandError, GetExitCode(err))
	}
}

func TestReplayJSONOutput(t *testing.T) {
	dbPath, _ := seedPlayedMatch(t)

	out, err := execute(t, "replay", "--db", dbPath, "--json")
	if err != nil {
		t.Fatalf("replay failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"allConsistent": true`) {
		t.Fatalf("expected consistent JSON result: %s", out)
	}
}
