package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Taylor-eOS/light-intensity-sensor/internal/adapters/bh1750"
)

type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Sensor  bh1750.Config `yaml:"sensor"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type WindowConfig struct {
	Period               time.Duration `yaml:"period"`
	ReadingsPerWindow    int           `yaml:"readings_per_window"`
	SampleDelay          time.Duration `yaml:"sample_delay"`
	ReadTimeout          time.Duration `yaml:"read_timeout"`
	MaxConsecutiveErrors int           `yaml:"max_consecutive_errors"`
	ErrorBackoff         time.Duration `yaml:"error_backoff"`
	DisableStats         bool          `yaml:"disable_stats"`
}

type OutputConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Window.Period == 0 {
		c.Window.Period = 20 * time.Second
	}
	if c.Window.ReadingsPerWindow == 0 {
		c.Window.ReadingsPerWindow = 5
	}
	if c.Window.SampleDelay == 0 {
		// Spread the burst across the window, never polling faster than 5/s.
		delay := c.Window.Period / time.Duration(c.Window.ReadingsPerWindow)
		if delay < 200*time.Millisecond {
			delay = 200 * time.Millisecond
		}
		c.Window.SampleDelay = delay
	}
	if c.Window.ReadTimeout == 0 {
		c.Window.ReadTimeout = 2 * time.Second
	}
	if c.Window.MaxConsecutiveErrors == 0 {
		c.Window.MaxConsecutiveErrors = 5
	}
	if c.Window.ErrorBackoff == 0 {
		c.Window.ErrorBackoff = time.Second
	}
	if c.Output.Path == "" {
		c.Output.Path = fmt.Sprintf("light_data_%s.csv", time.Now().Format("20060102_1504"))
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}

	c.Sensor.ApplyDefaults()
}

func (c *Config) Validate() error {
	if c.Window.Period <= 0 {
		return fmt.Errorf("window.period must be positive")
	}
	if c.Window.ReadingsPerWindow < 1 {
		return fmt.Errorf("window.readings_per_window must be >= 1")
	}
	if c.Window.SampleDelay < 0 {
		return fmt.Errorf("window.sample_delay must not be negative")
	}
	if c.Window.MaxConsecutiveErrors < 1 {
		return fmt.Errorf("window.max_consecutive_errors must be >= 1")
	}
	if c.Output.Path == "" {
		return fmt.Errorf("output.path is required")
	}
	if err := c.Sensor.Validate(); err != nil {
		return fmt.Errorf("sensor config: %w", err)
	}
	return nil
}
