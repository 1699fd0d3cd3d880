package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadIsDeterministicForSeed(t *testing.T) {
	a := New(Config{Seed: 7})
	b := New(Config{Seed: 7})

	for i := 0; i < 100; i++ {
		va, err := a.Read(context.Background())
		require.NoError(t, err)
		vb, err := b.Read(context.Background())
		require.NoError(t, err)
		assert.Equal(t, va, vb)
	}
}

func TestReadStaysNonNegative(t *testing.T) {
	src := New(Config{Base: 1, Noise: 50, Seed: 3})
	for i := 0; i < 500; i++ {
		v, err := src.Read(context.Background())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestSpikeEveryInjectsOutliers(t *testing.T) {
	src := New(Config{Base: 100, Noise: 1, SpikeEvery: 10, Seed: 1})

	var spikes int
	for i := 0; i < 50; i++ {
		v, err := src.Read(context.Background())
		require.NoError(t, err)
		if v > 500 {
			spikes++
		}
	}
	assert.Equal(t, 5, spikes)
}

func TestReadHonorsCancelledContext(t *testing.T) {
	src := New(Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Read(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
