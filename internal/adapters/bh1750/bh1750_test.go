package bh1750

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, "1", cfg.Bus)
	assert.Equal(t, uint16(0x23), cfg.Addr)
	assert.Equal(t, ModeContinuous, cfg.Mode)
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Bus: "1", Addr: 0x5C, Mode: ModeOneTime}
	require.NoError(t, cfg.Validate())

	cfg.Addr = 0x42
	require.Error(t, cfg.Validate())

	cfg.Addr = 0x23
	cfg.Mode = "burst"
	require.Error(t, cfg.Validate())
}
