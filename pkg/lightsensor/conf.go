package lightsensor

import (
	"github.com/Taylor-eOS/light-intensity-sensor/internal/app/config"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// WindowConfig controls the sampling cadence and retry budget.
	WindowConfig = config.WindowConfig
	// OutputConfig points at the CSV log file.
	OutputConfig = config.OutputConfig
	// LoggingConfig selects zap level and encoding.
	LoggingConfig = config.LoggingConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// Conf loads YAML from disk and builds a Runtime, applying any overrides.
func Conf(path string, opts ...Option) (*Runtime, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}
