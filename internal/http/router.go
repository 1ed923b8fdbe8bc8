package http

import (
	nethttp "net/http"

	"github.com/padelhub/score-service/internal/http/handlers"
)

// NewRouter registers HTTP routes on a ServeMux.
func NewRouter(handler *handlers.Handler, admin *handlers.AdminHandler) nethttp.Handler {
	mux := nethttp.NewServeMux()
	mux.HandleFunc("/health", handler.Health)
	mux.HandleFunc("/ready", handler.Ready)
	mux.HandleFunc("/matches/", handler.Matches)
	if admin != nil {
		mux.HandleFunc("/admin/matches", admin.CreateMatch)
	}
	return mux
}
