package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/padelhub/score-service/internal/domain"
)

func TestNowAt(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	clock := NowAt(fixed)
	if !clock().Equal(fixed) {
		t.Fatalf("expected %v, got %v", fixed, clock())
	}
}

func TestServeAndDecode(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	rr := Serve(h, http.MethodGet, "/anything", nil)
	AssertStatus(t, rr, http.StatusOK)

	var resp map[string]string
	DecodeJSON(t, rr, &resp)
	if resp["status"] != "ok" {
		t.Fatalf("unexpected body %v", resp)
	}
}

func TestSeedMatchRoundTrips(t *testing.T) {
	st := NewStore(t)
	seeded := SeedMatch(t, st, "m1")

	got, err := st.GetMatch(context.Background(), "m1")
	if err != nil {
		t.Fatalf("get match: %v", err)
	}
	if got.Status != domain.MatchScheduled {
		t.Fatalf("expected scheduled match, got %s", got.Status)
	}
	if got.TeamA.ID != seeded.TeamA.ID || got.TeamB.ID != seeded.TeamB.ID {
		t.Fatalf("teams not preserved: %+v", got)
	}
}
