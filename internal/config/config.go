package config

import (
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration for the server.
type Config struct {
	Port         string
	DatabasePath string
	LockTimeout  time.Duration
	AdminToken   string
	Metrics      MetricsConfig
}

// Load reads configuration with the following precedence: environment
// variables win over the optional YAML file at path, which wins over the
// built-in defaults. A .env file next to the binary is read first so
// local development matches production shape.
func Load(path string) Config {
	_ = godotenv.Load()

	base := defaults()
	if path != "" {
		base = mergeFile(base, path)
	}

	return Config{
		Port:         envOrDefault(envPort, base.Port),
		DatabasePath: envOrDefault(envDatabasePath, base.DatabasePath),
		LockTimeout:  durationEnvOrDefault(envLockTimeout, base.LockTimeout),
		AdminToken:   envOrDefault(envAdminToken, base.AdminToken),
		Metrics:      loadMetrics(base.Metrics),
	}
}

func defaults() Config {
	return Config{
		Port:         defaultPort,
		DatabasePath: defaultDatabasePath,
		LockTimeout:  defaultLockTimeout,
		Metrics: MetricsConfig{
			Enabled:     true,
			Port:        defaultMetricsPort,
			ServiceName: defaultServiceName,
		},
	}
}
