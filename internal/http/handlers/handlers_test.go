package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/padelhub/score-service/internal/domain"
	"github.com/padelhub/score-service/internal/scoring"
	"github.com/padelhub/score-service/internal/store/sqlstore"
	"github.com/padelhub/score-service/internal/testutil"
)

func newTestHandler(t *testing.T) (*Handler, *sqlstore.Store, domain.Match) {
	t.Helper()
	st := testutil.NewStore(t)
	match := testutil.SeedMatch(t, st, "m1")
	svc := scoring.New(st, nil, nil, nil, 0)
	return NewHandler(svc, nil, st, nil), st, match
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewReader(data)
}

func startTestMatch(t *testing.T, h *Handler, match domain.Match) domain.MatchScoreSnapshot {
	t.Helper()
	body := jsonBody(t, startMatchRequest{TeamAID: match.TeamA.ID, TeamBID: match.TeamB.ID})
	rr := testutil.Serve(http.HandlerFunc(h.Matches), http.MethodPost, "/matches/"+match.ID+"/start", body)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var snap domain.MatchScoreSnapshot
	testutil.DecodeJSON(t, rr, &snap)
	return snap
}

func TestHealth(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rr := testutil.Serve(http.HandlerFunc(h.Health), http.MethodGet, "/health", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var resp map[string]string
	testutil.DecodeJSON(t, rr, &resp)
	if resp["status"] != "ok" {
		t.Fatalf("expected status ok, got %s", resp["status"])
	}
}

func TestHealthShuttingDownReturnsServiceUnavailable(t *testing.T) {
	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	ctx, cancel := context.WithCancel(req.Context())
	cancel()
	req = req.WithContext(ctx)
	rr := testutil.ServeRequest(http.HandlerFunc(h.Health), req)

	testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
}

func TestReadyPingsStore(t *testing.T) {
	h, st, _ := newTestHandler(t)

	rr := testutil.Serve(http.HandlerFunc(h.Ready), http.MethodGet, "/ready", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)

	_ = st.Close()
	rr = testutil.Serve(http.HandlerFunc(h.Ready), http.MethodGet, "/ready", nil)
	testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
}

func TestStartMatchReturnsOpeningSnapshot(t *testing.T) {
	h, _, match := newTestHandler(t)

	snap := startTestMatch(t, h, match)
	if snap.Status != domain.MatchActive {
		t.Fatalf("expected ACTIVE match, got %s", snap.Status)
	}
	if snap.CurrentGame == nil || snap.CurrentGame.Number != 1 {
		t.Fatalf("expected game 1 open, got %+v", snap.CurrentGame)
	}
	if snap.CurrentGame.TeamADisplay != "0" || snap.CurrentGame.TeamBDisplay != "0" {
		t.Fatalf("expected love all, got %s-%s", snap.CurrentGame.TeamADisplay, snap.CurrentGame.TeamBDisplay)
	}
}

func TestStartMatchUnknownMatchReturns404(t *testing.T) {
	h, _, match := newTestHandler(t)

	body := jsonBody(t, startMatchRequest{TeamAID: match.TeamA.ID, TeamBID: match.TeamB.ID})
	rr := testutil.Serve(http.HandlerFunc(h.Matches), http.MethodPost, "/matches/nope/start", body)
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestStartMatchWrongTeamReturns422(t *testing.T) {
	h, _, match := newTestHandler(t)

	body := jsonBody(t, startMatchRequest{TeamAID: "intruder", TeamBID: match.TeamB.ID})
	rr := testutil.Serve(http.HandlerFunc(h.Matches), http.MethodPost, "/matches/"+match.ID+"/start", body)
	testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)
}

func TestStartMatchTwiceReturns409(t *testing.T) {
	h, _, match := newTestHandler(t)
	startTestMatch(t, h, match)

	body := jsonBody(t, startMatchRequest{TeamAID: match.TeamA.ID, TeamBID: match.TeamB.ID})
	rr := testutil.Serve(http.HandlerFunc(h.Matches), http.MethodPost, "/matches/"+match.ID+"/start", body)
	testutil.AssertStatus(t, rr, http.StatusConflict)
}

func TestStartGameWhileGameActiveReturns409(t *testing.T) {
	h, _, match := newTestHandler(t)
	startTestMatch(t, h, match)

	body := jsonBody(t, startGameRequest{GameNumber: 2, TeamAID: match.TeamA.ID, TeamBID: match.TeamB.ID})
	rr := testutil.Serve(http.HandlerFunc(h.Matches), http.MethodPost, "/matches/"+match.ID+"/games", body)
	testutil.AssertStatus(t, rr, http.StatusConflict)
}

func TestRecordPointAndReplay(t *testing.T) {
	h, _, match := newTestHandler(t)
	snap := startTestMatch(t, h, match)

	req := recordPointRequest{GameID: snap.CurrentGame.GameID, TeamID: match.TeamA.ID, IdempotencyKey: "k-1"}
	rr := testutil.Serve(http.HandlerFunc(h.Matches), http.MethodPost, "/matches/"+match.ID+"/points", jsonBody(t, req))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var first recordPointResponse
	testutil.DecodeJSON(t, rr, &first)
	if first.IdempotentReplay {
		t.Fatal("first submission must not be a replay")
	}
	if first.Snapshot.CurrentGame.TeamADisplay != "15" {
		t.Fatalf("expected 15, got %s", first.Snapshot.CurrentGame.TeamADisplay)
	}

	rr = testutil.Serve(http.HandlerFunc(h.Matches), http.MethodPost, "/matches/"+match.ID+"/points", jsonBody(t, req))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var second recordPointResponse
	testutil.DecodeJSON(t, rr, &second)
	if !second.IdempotentReplay {
		t.Fatal("second submission must be flagged as a replay")
	}
	if second.Snapshot.Seq != first.Snapshot.Seq {
		t.Fatalf("replay changed seq: %d vs %d", second.Snapshot.Seq, first.Snapshot.Seq)
	}
}

func TestRecordPointMissingFieldsReturns400(t *testing.T) {
	h, _, match := newTestHandler(t)
	startTestMatch(t, h, match)

	rr := testutil.Serve(http.HandlerFunc(h.Matches), http.MethodPost,
		"/matches/"+match.ID+"/points", jsonBody(t, recordPointRequest{TeamID: match.TeamA.ID}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestRecordPointUnknownGameReturns409(t *testing.T) {
	h, _, match := newTestHandler(t)
	startTestMatch(t, h, match)

	req := recordPointRequest{GameID: "ghost", TeamID: match.TeamA.ID, IdempotencyKey: "k-1"}
	rr := testutil.Serve(http.HandlerFunc(h.Matches), http.MethodPost, "/matches/"+match.ID+"/points", jsonBody(t, req))
	testutil.AssertStatus(t, rr, http.StatusConflict)
}

func TestLiveScoreReturnsSnapshot(t *testing.T) {
	h, _, match := newTestHandler(t)
	startTestMatch(t, h, match)

	rr := testutil.Serve(http.HandlerFunc(h.Matches), http.MethodGet, "/matches/"+match.ID+"/score", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var snap domain.MatchScoreSnapshot
	testutil.DecodeJSON(t, rr, &snap)
	if snap.MatchID != match.ID {
		t.Fatalf("unexpected match id %s", snap.MatchID)
	}
}

func TestMatchesRejectsMalformedPaths(t *testing.T) {
	h, _, _ := newTestHandler(t)

	for _, path := range []string{"/matches/", "/matches/m1", "/matches/m1/score/extra"} {
		rr := testutil.Serve(http.HandlerFunc(h.Matches), http.MethodGet, path, nil)
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	}
}

type erroringService struct {
	ScoringService
	err error
}

func (s erroringService) Snapshot(ctx context.Context, matchID string) (domain.MatchScoreSnapshot, error) {
	return domain.MatchScoreSnapshot{}, s.err
}

func TestBusyErrorSetsRetryAfter(t *testing.T) {
	h := NewHandler(erroringService{err: &scoring.BusyError{MatchID: "m1"}}, nil, nil, nil)

	rr := testutil.Serve(http.HandlerFunc(h.Matches), http.MethodGet, "/matches/m1/score", nil)
	testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header on busy response")
	}
}

func TestUnknownErrorReturns500(t *testing.T) {
	h := NewHandler(erroringService{err: errors.New("boom")}, nil, nil, nil)

	rr := testutil.Serve(http.HandlerFunc(h.Matches), http.MethodGet, "/matches/m1/score", nil)
	testutil.AssertStatus(t, rr, http.StatusInternalServerError)
}
