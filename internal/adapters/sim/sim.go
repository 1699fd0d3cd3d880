// Package sim provides a deterministic stand-in for the hardware sensor, for
// examples and development machines without an I2C bus.
package sim

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"github.com/Taylor-eOS/light-intensity-sensor/internal/ports"
)

// Config shapes the simulated signal: gaussian noise around a slow sine
// sweep of Base, with an occasional large spike to exercise the outlier
// rejection downstream.
type Config struct {
	Base       float64 `yaml:"base"`
	Noise      float64 `yaml:"noise"`
	SpikeEvery int     `yaml:"spike_every"`
	Seed       int64   `yaml:"seed"`
}

func (c *Config) ApplyDefaults() {
	if c.Base == 0 {
		c.Base = 250
	}
	if c.Noise == 0 {
		c.Noise = 4
	}
	if c.SpikeEvery == 0 {
		c.SpikeEvery = 40
	}
}

type Source struct {
	cfg   Config
	mu    sync.Mutex
	rng   *rand.Rand
	reads int
}

func New(cfg Config) *Source {
	cfg.ApplyDefaults()
	return &Source{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

func (s *Source) Name() string { return "sim" }

func (s *Source) Read(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++

	drift := 0.1 * s.cfg.Base * math.Sin(float64(s.reads)/60)
	lux := s.cfg.Base + drift + s.rng.NormFloat64()*s.cfg.Noise
	if s.cfg.SpikeEvery > 0 && s.reads%s.cfg.SpikeEvery == 0 {
		lux *= 12
	}
	if lux < 0 {
		lux = 0
	}
	return lux, nil
}

func (s *Source) Close() error { return nil }

var _ ports.Source = (*Source)(nil)
