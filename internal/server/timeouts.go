package server

import "time"

const (
	readTimeout = 10 * time.Second
	// The live stream endpoint holds responses open indefinitely, so the
	// server carries no write timeout.
	writeTimeout = 0
	idleTimeout  = 60 * time.Second
)

// shutdownTimeout remains a var for tests to override.
var shutdownTimeout = 10 * time.Second
