package config

import "time"

const (
	envPort         = "PORT"
	envDatabasePath = "DATABASE_PATH"
	envLockTimeout  = "LOCK_TIMEOUT"
	envAdminToken   = "ADMIN_TOKEN"
	envMetricsPort  = "METRICS_PORT"
	envMetricsOn    = "METRICS_ENABLED"
	envOtelEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOtelService  = "OTEL_SERVICE_NAME"
	envOtelInsecure = "OTEL_EXPORTER_OTLP_INSECURE"

	defaultPort         = "4000"
	defaultDatabasePath = "data/scores.db"
	// Bounded wait for a match's serialization slot; a stuck writer must
	// not wedge all future scoring for the match.
	defaultLockTimeout = 3 * time.Second
	defaultMetricsPort = "9090"
	defaultServiceName = "padel-score-service"
)
