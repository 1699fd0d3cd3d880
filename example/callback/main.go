package main

import (
	"context"
	"fmt"
	"log"
	"time"

	lightsensor "github.com/Taylor-eOS/light-intensity-sensor"
	"github.com/Taylor-eOS/light-intensity-sensor/internal/adapters/sim"
)

// Runs against the simulated sensor and prints each window's record instead
// of appending to the CSV log.
func main() {
	cfg := &lightsensor.Config{
		Window: lightsensor.WindowConfig{
			Period:            5 * time.Second,
			ReadingsPerWindow: 5,
			SampleDelay:       500 * time.Millisecond,
		},
		Output:  lightsensor.OutputConfig{Path: "unused.csv"},
		Metrics: lightsensor.MetricsConfig{Addr: ":9100"},
	}
	cfg.ApplyDefaults()

	sink := lightsensor.NewCallbackSink("stdout", func(rec lightsensor.Record) error {
		fmt.Printf("%s lux=%d min=%d max=%d spread=%d samples=%d\n",
			rec.At.UTC().Format(time.RFC3339),
			rec.Representative, rec.Min, rec.Max, rec.Spread, rec.SampleCount)
		return nil
	})

	rt, err := lightsensor.New(cfg,
		lightsensor.WithSource(sim.New(sim.Config{})),
		lightsensor.WithSink(sink),
	)
	if err != nil {
		log.Fatalf("build runtime: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := rt.Run(ctx); err != nil {
		log.Fatalf("runtime exited: %v", err)
	}
}
