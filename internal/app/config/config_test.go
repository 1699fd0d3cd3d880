package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
output:
  path: ./light.csv
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 20*time.Second, cfg.Window.Period)
	assert.Equal(t, 5, cfg.Window.ReadingsPerWindow)
	assert.Equal(t, 4*time.Second, cfg.Window.SampleDelay, "period/readings")
	assert.Equal(t, 2*time.Second, cfg.Window.ReadTimeout)
	assert.Equal(t, 5, cfg.Window.MaxConsecutiveErrors)
	assert.Equal(t, time.Second, cfg.Window.ErrorBackoff)
	assert.False(t, cfg.Window.DisableStats)
	assert.Equal(t, "1", cfg.Sensor.Bus)
	assert.Equal(t, uint16(0x23), cfg.Sensor.Addr)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
}

func TestLoadClampsSampleDelayFloor(t *testing.T) {
	path := writeConfig(t, `
window:
  period: 500ms
  readings_per_window: 10
output:
  path: ./light.csv
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 200*time.Millisecond, cfg.Window.SampleDelay)
}

func TestLoadExplicitValuesWin(t *testing.T) {
	path := writeConfig(t, `
window:
  period: 1m
  readings_per_window: 8
  sample_delay: 3s
  max_consecutive_errors: 10
  disable_stats: true
sensor:
  addr: 0x5C
  mode: one-time
output:
  path: /var/log/light.csv
metrics:
  addr: ":9200"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.Window.Period)
	assert.Equal(t, 8, cfg.Window.ReadingsPerWindow)
	assert.Equal(t, 3*time.Second, cfg.Window.SampleDelay)
	assert.Equal(t, 10, cfg.Window.MaxConsecutiveErrors)
	assert.True(t, cfg.Window.DisableStats)
	assert.Equal(t, uint16(0x5C), cfg.Sensor.Addr)
	assert.Equal(t, "one-time", cfg.Sensor.Mode)
	assert.Equal(t, "/var/log/light.csv", cfg.Output.Path)
	assert.Equal(t, ":9200", cfg.Metrics.Addr)
}

func TestLoadRejectsBadSensorConfig(t *testing.T) {
	path := writeConfig(t, `
sensor:
  addr: 0x42
output:
  path: ./light.csv
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sensor config")
}

func TestDefaultOutputPathIsGenerated(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.True(t, strings.HasPrefix(cfg.Output.Path, "light_data_"))
	assert.True(t, strings.HasSuffix(cfg.Output.Path, ".csv"))
}
