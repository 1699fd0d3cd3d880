package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	lightsensor "github.com/Taylor-eOS/light-intensity-sensor"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "lightlog %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "./config.yaml", "Path to configuration file")
	output := fs.String("output", "", "CSV file path (overrides output.path)")
	noStats := fs.Bool("no-stats", false, "Disable the statistics columns")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := lightsensor.LoadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *output != "" {
		cfg.Output.Path = *output
	}
	if *noStats {
		cfg.Window.DisableStats = true
	}

	rt, err := lightsensor.New(cfg)
	if err != nil {
		return err
	}

	// SIGINT and SIGTERM share one stop path.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return rt.Run(ctx)
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./config.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := lightsensor.LoadConfig(*cfgPath)
	if err != nil {
		return err
	}
	fmt.Printf("config %s is valid (window %s, %d readings, log %s)\n",
		*cfgPath, cfg.Window.Period, cfg.Window.ReadingsPerWindow, cfg.Output.Path)
	return nil
}

func statsCommand(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	interval := fs.Duration("interval", 2*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(*url); err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			}
		}
	}
}

func printMetricsSnapshot(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.New("unexpected status " + resp.Status)
	}

	targets := map[string]float64{
		"lightlog_records_written_total": 0,
		"lightlog_sensor_errors_total":   0,
		"lightlog_last_lux":              0,
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for key := range targets {
			if strings.HasPrefix(line, key+" ") {
				var value float64
				if _, err := fmt.Sscanf(line, key+" %f", &value); err == nil {
					targets[key] = value
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	fmt.Printf("[%s] records=%.0f sensor_errors=%.0f last_lux=%.0f\n",
		time.Now().Format(time.RFC3339),
		targets["lightlog_records_written_total"],
		targets["lightlog_sensor_errors_total"],
		targets["lightlog_last_lux"],
	)
	return nil
}

func printUsage() {
	fmt.Printf(`lightlog - windowed BH1750 light sensor logger

Usage:
  lightlog <command> [flags]

Commands:
  run        Sample the sensor and append one record per window to the CSV log
  validate   Load and validate a config file without starting a run
  stats      Poll the Prometheus metrics endpoint and print live counters

Examples:
  lightlog run -config ./config.yaml
  lightlog run -config ./config.yaml -output ./light.csv -no-stats
  lightlog validate -config ./config.yaml
  lightlog stats -url http://localhost:9100/metrics -interval 1s
`)
}
