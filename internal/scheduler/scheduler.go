package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Taylor-eOS/light-intensity-sensor/internal/domain"
	"github.com/Taylor-eOS/light-intensity-sensor/internal/ports"
	"github.com/Taylor-eOS/light-intensity-sensor/internal/stats"
)

// ErrSensorExhausted is returned by Run after MaxConsecutive failed polls in
// a row. Repeated sensor failure is treated as unrecoverable for the run.
var ErrSensorExhausted = errors.New("scheduler: too many consecutive sensor errors")

type Config struct {
	Period            time.Duration
	ReadingsPerWindow int
	SampleDelay       time.Duration
	ReadTimeout       time.Duration
	Retry             ports.RetryPolicy
}

// Scheduler drives fixed-period windows: poll a burst of readings from the
// source, reduce the burst to one robust record, append it to the sink, then
// sleep until the next deadline. Counters are written only by the scheduler
// goroutine and may be read once Run has returned.
type Scheduler struct {
	cfg    Config
	source ports.Source
	sink   ports.RecordSink
	obs    ports.Observability

	tracker        failureTracker
	recordsWritten int
}

func New(cfg Config, source ports.Source, sink ports.RecordSink, obs ports.Observability) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		source:  source,
		sink:    sink,
		obs:     obs,
		tracker: failureTracker{policy: cfg.Retry},
	}
}

// RecordsWritten reports how many records were appended this run. Valid only
// after Run has returned.
func (s *Scheduler) RecordsWritten() int { return s.recordsWritten }

// Run executes windows until ctx is cancelled or the sensor is exhausted.
// Cancellation is checked between polls and sleeps, never during one; a
// partially sampled window is abandoned wholesale.
func (s *Scheduler) Run(ctx context.Context) error {
	deadline := time.Now().Add(s.cfg.Period)

	for {
		burst, err := s.sampleBurst(ctx)
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			s.obs.LogInfo("scheduler_stopping",
				ports.Field{Key: "records_written", Value: s.recordsWritten})
			return nil
		}

		s.closeWindow(burst)

		wait := time.Until(deadline)
		if wait <= 0 {
			// The window overran the period. Realign from now instead of
			// firing back-to-back windows to catch up.
			deadline = time.Now().Add(s.cfg.Period)
			continue
		}
		if !s.sleep(ctx, wait) {
			return nil
		}
		deadline = deadline.Add(s.cfg.Period)
	}
}

// sampleBurst polls the source up to ReadingsPerWindow times, spacing polls
// by SampleDelay. Failed polls shorten the burst; they only end the run once
// the consecutive-failure budget is spent.
func (s *Scheduler) sampleBurst(ctx context.Context) ([]domain.Reading, error) {
	burst := make([]domain.Reading, 0, s.cfg.ReadingsPerWindow)

	for i := 0; i < s.cfg.ReadingsPerWindow; i++ {
		if ctx.Err() != nil {
			return burst, nil
		}

		lux, err := s.readOnce(ctx)
		if ctx.Err() != nil {
			return burst, nil
		}

		delay := s.cfg.SampleDelay
		if err != nil {
			n := s.tracker.Failure()
			s.obs.IncCounter("lightlog_sensor_errors_total", 1)
			s.obs.SetGauge("lightlog_consecutive_errors", float64(n))
			s.obs.LogError("sensor_read_failed", err,
				ports.Field{Key: "consecutive", Value: n},
				ports.Field{Key: "max", Value: s.cfg.Retry.MaxConsecutive})
			if s.tracker.Exhausted() {
				s.obs.LogCritical("sensor_exhausted", ErrSensorExhausted,
					ports.Field{Key: "consecutive", Value: n})
				return nil, fmt.Errorf("%w after %d failures", ErrSensorExhausted, n)
			}
			delay = s.cfg.Retry.ErrorBackoff
		} else {
			s.tracker.Success()
			s.obs.SetGauge("lightlog_consecutive_errors", 0)
			burst = append(burst, domain.Reading{At: time.Now(), Lux: lux})
		}

		if i < s.cfg.ReadingsPerWindow-1 {
			if !s.sleep(ctx, delay) {
				return burst, nil
			}
		}
	}
	return burst, nil
}

func (s *Scheduler) readOnce(ctx context.Context) (float64, error) {
	if s.cfg.ReadTimeout <= 0 {
		return s.source.Read(ctx)
	}
	readCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()
	return s.source.Read(readCtx)
}

// closeWindow aggregates the burst and appends one record. An empty burst is
// an expected outcome under transient sensor unavailability, not an error. A
// sink failure loses this window's record but the run continues; stopping
// collection entirely would be worse.
func (s *Scheduler) closeWindow(burst []domain.Reading) {
	if len(burst) == 0 {
		s.obs.IncCounter("lightlog_empty_windows_total", 1)
		s.obs.LogInfo("window_no_samples",
			ports.Field{Key: "period", Value: s.cfg.Period.String()})
		return
	}

	values := make([]float64, len(burst))
	for i, r := range burst {
		values[i] = r.Lux
	}
	res, err := stats.Aggregate(values)
	if err != nil {
		s.obs.LogError("aggregate_failed", err)
		return
	}
	if rejected := len(burst) - len(res.Filtered); rejected > 0 {
		s.obs.IncCounter("lightlog_outliers_rejected_total", float64(rejected))
	}

	rec := domain.Record{
		At:             burst[len(burst)-1].At,
		Representative: res.Representative,
		Min:            res.Min,
		Max:            res.Max,
		Median:         res.Median,
		Spread:         res.Spread,
		SampleCount:    len(res.Filtered),
	}

	start := time.Now()
	if err := s.sink.Append(rec); err != nil {
		s.obs.IncCounter("lightlog_sink_errors_total", 1)
		s.obs.LogError("sink_append_failed", err,
			ports.Field{Key: "window_ts", Value: rec.At.Unix()})
		return
	}
	s.obs.ObserveLatency("lightlog_persist_latency_seconds", time.Since(start).Seconds())

	s.recordsWritten++
	s.obs.IncCounter("lightlog_records_written_total", 1)
	s.obs.SetGauge("lightlog_last_lux", float64(rec.Representative))
	s.obs.LogInfo("window_recorded",
		ports.Field{Key: "window_ts", Value: rec.At.Unix()},
		ports.Field{Key: "lux", Value: rec.Representative},
		ports.Field{Key: "samples", Value: rec.SampleCount})
}

// sleep blocks for d or until ctx is cancelled, reporting whether the full
// duration elapsed.
func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
