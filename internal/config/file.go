package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML shape of the optional config file. All fields
// are optional; zero values keep the defaults.
type fileConfig struct {
	Port         string `yaml:"port"`
	DatabasePath string `yaml:"database_path"`
	LockTimeout  string `yaml:"lock_timeout"`
	AdminToken   string `yaml:"admin_token"`
	Metrics      struct {
		Enabled      *bool  `yaml:"enabled"`
		Port         string `yaml:"port"`
		OtlpEndpoint string `yaml:"otlp_endpoint"`
		ServiceName  string `yaml:"service_name"`
	} `yaml:"metrics"`
}

// mergeFile overlays values from the YAML file at path onto base. An
// unreadable or malformed file is ignored; the file is a convenience, not
// a requirement.
func mergeFile(base Config, path string) Config {
	raw, err := os.ReadFile(path)
	if err != nil {
		return base
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return base
	}

	if fc.Port != "" {
		base.Port = fc.Port
	}
	if fc.DatabasePath != "" {
		base.DatabasePath = fc.DatabasePath
	}
	if fc.LockTimeout != "" {
		if d, err := time.ParseDuration(fc.LockTimeout); err == nil && d > 0 {
			base.LockTimeout = d
		}
	}
	if fc.AdminToken != "" {
		base.AdminToken = fc.AdminToken
	}
	if fc.Metrics.Enabled != nil {
		base.Metrics.Enabled = *fc.Metrics.Enabled
	}
	if fc.Metrics.Port != "" {
		base.Metrics.Port = fc.Metrics.Port
	}
	if fc.Metrics.OtlpEndpoint != "" {
		base.Metrics.OtlpEndpoint = fc.Metrics.OtlpEndpoint
	}
	if fc.Metrics.ServiceName != "" {
		base.Metrics.ServiceName = fc.Metrics.ServiceName
	}
	return base
}
