package main

import (
	"context"
	"fmt"
	"log"
	"time"

	lightsensor "github.com/Taylor-eOS/light-intensity-sensor"
)

func main() {
	sink, records, closeRecords := lightsensor.NewChannelSink("fanout", 32)
	defer closeRecords()

	rt, err := lightsensor.Conf("../basic/config.yaml", lightsensor.WithSink(sink))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go fanoutWorker("ingest", records)

	if err := rt.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}

func fanoutWorker(name string, records <-chan lightsensor.Record) {
	for rec := range records {
		fmt.Printf("[%s] forwarding lux=%d at %s\n", name, rec.Representative, time.Now().Format(time.RFC3339))
		// TODO: forward to downstream DB/API.
	}
}
