package server

import (
	"context"
	"net/http"
)

// httpServer is the slice of *http.Server the service drives: enough to
// launch and drain both the scoring API listener and the optional metrics
// listener, and to swap in a stub so tests never open real sockets.
type httpServer interface {
	ListenAndServe() error
	Shutdown(context.Context) error
	Addr() string
	Handler() http.Handler
}

// stdHTTPServer adapts *http.Server to httpServer. Shutdown drains open
// connections, which for this service includes long-lived live streams.
type stdHTTPServer struct {
	srv *http.Server
}

func (s stdHTTPServer) ListenAndServe() error              { return s.srv.ListenAndServe() }
func (s stdHTTPServer) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }
func (s stdHTTPServer) Addr() string                       { return s.srv.Addr }
func (s stdHTTPServer) Handler() http.Handler              { return s.srv.Handler }
