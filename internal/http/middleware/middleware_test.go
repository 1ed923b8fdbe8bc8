package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/padelhub/score-service/internal/logging"
	"github.com/padelhub/score-service/internal/metrics"
)

func TestLoggingMiddlewareSetsRequestID(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	h := LoggingMiddleware(logging.NewLogger(logging.Config{}), metrics.NewRecorder(), next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if seen == "" {
		t.Fatal("expected request id in context")
	}
	if got := rec.Header().Get("X-Request-ID"); got != seen {
		t.Fatalf("expected response header %q to match context id %q", got, seen)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status passthrough, got %d", rec.Code)
	}
}

func TestLoggingMiddlewarePreservesIncomingID(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := LoggingMiddleware(nil, nil, next)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "client-id-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "client-id-42" {
		t.Fatalf("expected client id to be kept, got %s", got)
	}
}

func TestRequestIDFromContextMissing(t *testing.T) {
	if got := RequestIDFromContext(nil); got != "" {
		t.Fatalf("expected empty id for nil context, got %s", got)
	}
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/health":             "/health",
		"/matches":            "/matches",
		"/matches/abc":        "/matches/:id",
		"/matches/abc/points": "/matches/:id/points",
		"/matches/abc/live":   "/matches/:id/live",
		"/admin/matches":      "/admin/matches",
		"/somewhere/else":     "/somewhere/else",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}
