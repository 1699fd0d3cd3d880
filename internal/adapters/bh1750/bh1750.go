// Package bh1750 reads the ROHM BH1750 ambient light sensor over I2C.
package bh1750

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/Taylor-eOS/light-intensity-sensor/internal/ports"
)

const (
	cmdPowerOn     = 0x01
	cmdReset       = 0x07
	cmdContHighRes = 0x10
	cmdOnceHighRes = 0x20
	settleDelay    = 10 * time.Millisecond
	measureDelay   = 180 * time.Millisecond
	luxPerRawCount = 1.2
	defaultI2CAddr = 0x23
)

const (
	ModeContinuous = "continuous"
	ModeOneTime    = "one-time"
)

// Config captures the bus details required to open a BH1750 session.
type Config struct {
	Bus  string `yaml:"bus"`
	Addr uint16 `yaml:"addr"`
	Mode string `yaml:"mode"`
}

func (c *Config) ApplyDefaults() {
	if c.Bus == "" {
		c.Bus = "1"
	}
	if c.Addr == 0 {
		c.Addr = defaultI2CAddr
	}
	if c.Mode == "" {
		c.Mode = ModeContinuous
	}
}

func (c *Config) Validate() error {
	switch c.Mode {
	case ModeContinuous, ModeOneTime:
	default:
		return fmt.Errorf("mode must be %q or %q, got %q", ModeContinuous, ModeOneTime, c.Mode)
	}
	// The device strap pin only allows 0x23 or 0x5C.
	if c.Addr != 0x23 && c.Addr != 0x5C {
		return fmt.Errorf("addr must be 0x23 or 0x5C, got %#x", c.Addr)
	}
	return nil
}

// Source polls a BH1750 device. In continuous mode the device keeps
// measuring on its own; in one-time mode each read triggers a measurement
// and waits for it to complete.
type Source struct {
	cfg Config
	mu  sync.Mutex
	bus i2c.BusCloser
	dev *i2c.Dev
}

func New(cfg Config) (*Source, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("bh1750: host init: %w", err)
	}

	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("bh1750: open i2c bus %q: %w", cfg.Bus, err)
	}

	s := &Source{
		cfg: cfg,
		bus: bus,
		dev: &i2c.Dev{Bus: bus, Addr: cfg.Addr},
	}
	if err := s.powerOn(); err != nil {
		_ = bus.Close()
		return nil, err
	}
	return s, nil
}

func (s *Source) Name() string { return "bh1750" }

// Read returns the current illuminance in lux.
func (s *Source) Read(ctx context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev == nil {
		return 0, errors.New("bh1750: source closed")
	}

	if s.cfg.Mode == ModeOneTime {
		if err := s.write(cmdOnceHighRes); err != nil {
			return 0, fmt.Errorf("bh1750: trigger measurement: %w", err)
		}
		if err := sleepCtx(ctx, measureDelay); err != nil {
			return 0, err
		}
	}

	var buf [2]byte
	if err := s.dev.Tx(nil, buf[:]); err != nil {
		return 0, fmt.Errorf("bh1750: read: %w", err)
	}
	raw := uint16(buf[0])<<8 | uint16(buf[1])
	return float64(raw) / luxPerRawCount, nil
}

func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bus == nil {
		return nil
	}
	err := s.bus.Close()
	s.bus = nil
	s.dev = nil
	return err
}

func (s *Source) powerOn() error {
	if err := s.write(cmdPowerOn); err != nil {
		return fmt.Errorf("bh1750: power on: %w", err)
	}
	time.Sleep(settleDelay)

	// Reset clears the data register; some clones NACK it, which is harmless.
	_ = s.write(cmdReset)
	time.Sleep(settleDelay)

	if s.cfg.Mode == ModeContinuous {
		if err := s.write(cmdContHighRes); err != nil {
			return fmt.Errorf("bh1750: set mode: %w", err)
		}
		// First continuous-mode measurement needs a full conversion cycle.
		time.Sleep(measureDelay)
	}
	return nil
}

func (s *Source) write(cmd byte) error {
	return s.dev.Tx([]byte{cmd}, nil)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var _ ports.Source = (*Source)(nil)
