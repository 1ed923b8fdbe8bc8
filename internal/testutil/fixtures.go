package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/padelhub/score-service/internal/domain"
	"github.com/padelhub/score-service/internal/store/sqlstore"
)

// SampleTeam returns a doubles team fixture with the provided id.
func SampleTeam(id string) domain.Team {
	return domain.Team{
		ID:      id,
		Name:    "Team " + id,
		Color:   "blue",
		Players: []string{id + "-p1", id + "-p2"},
	}
}

// SampleMatch returns a scheduled match fixture between two sample teams.
func SampleMatch(id string) domain.Match {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	return domain.Match{
		ID:        id,
		TeamA:     SampleTeam(id + "-a"),
		TeamB:     SampleTeam(id + "-b"),
		Status:    domain.MatchScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewStore opens a throwaway sqlite store under the test's temp dir.
func NewStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	return OpenStore(t, filepath.Join(t.TempDir(), "scores.db"))
}

// OpenStore opens a store at path and closes it when the test ends.
func OpenStore(t *testing.T, path string) *sqlstore.Store {
	t.Helper()
	st, err := sqlstore.Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// SeedMatch persists a sample match (and its teams) and returns it.
func SeedMatch(t *testing.T, st *sqlstore.Store, id string) domain.Match {
	t.Helper()
	ctx := context.Background()
	m := SampleMatch(id)
	for _, team := range []domain.Team{m.TeamA, m.TeamB} {
		if err := st.CreateTeam(ctx, team); err != nil {
			t.Fatalf("seed team %s: %v", team.ID, err)
		}
	}
	if err := st.CreateMatch(ctx, m); err != nil {
		t.Fatalf("seed match %s: %v", id, err)
	}
	return m
}
