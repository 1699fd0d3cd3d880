package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	lightsensor "github.com/Taylor-eOS/light-intensity-sensor"
)

func main() {
	rt, err := lightsensor.Conf("./config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.Run(ctx); err != nil {
		log.Fatalf("runtime exited: %v", err)
	}
}
