package lightsensor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/Taylor-eOS/light-intensity-sensor/internal/adapters/bh1750"
	"github.com/Taylor-eOS/light-intensity-sensor/internal/adapters/csvlog"
	"github.com/Taylor-eOS/light-intensity-sensor/internal/adapters/observability"
	"github.com/Taylor-eOS/light-intensity-sensor/internal/app/config"
	"github.com/Taylor-eOS/light-intensity-sensor/internal/ports"
	"github.com/Taylor-eOS/light-intensity-sensor/internal/scheduler"
)

// Run states. A run never moves backwards: once stopping, it only ever
// reaches stopped.
const (
	stateIdle int32 = iota
	stateRunning
	stateStopping
	stateStopped
)

// Summary reports what a finished run accomplished.
type Summary struct {
	RecordsWritten int
}

// Option customizes the dependencies used by Runtime.
type Option func(*overrides)

type overrides struct {
	source ports.Source
	sink   ports.RecordSink
	obs    ports.Observability
	logger *zap.Logger
}

// WithSource injects a custom sensor source (simulators, other chips, etc.).
func WithSource(src ports.Source) Option {
	return func(o *overrides) { o.source = src }
}

// WithSink injects a custom record sink instead of the CSV log.
func WithSink(s ports.RecordSink) Option {
	return func(o *overrides) { o.sink = s }
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs ports.Observability) Option {
	return func(o *overrides) { o.obs = obs }
}

// WithLogger overrides the zap logger built from the config.
func WithLogger(l *zap.Logger) Option {
	return func(o *overrides) { o.logger = l }
}

// Runtime owns one sampling run: it wires source → scheduler → sink, exposes
// start/stop lifecycle hooks, and serves the metrics endpoint.
type Runtime struct {
	cfg     *config.Config
	obs     ports.Observability
	source  ports.Source
	sink    ports.RecordSink
	csvSink *csvlog.Sink
	sched   *scheduler.Scheduler

	startMu    sync.Mutex
	state      atomic.Int32
	cancel     context.CancelFunc
	doneCh     chan struct{}
	runErr     error
	metricsSrv *http.Server
}

// New bootstraps the default adapters (BH1750 source, CSV sink, zap +
// Prometheus observability). Options can override any dependency.
func New(cfg *config.Config, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var o overrides
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	obs := o.obs
	if obs == nil {
		logger := o.logger
		if logger == nil {
			var err error
			logger, err = observability.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				return nil, err
			}
		}
		obs = observability.New(logger, nil)
	}

	src := o.source
	if src == nil {
		var err error
		src, err = bh1750.New(cfg.Sensor)
		if err != nil {
			return nil, err
		}
	}

	snk := o.sink
	var csvSink *csvlog.Sink
	if snk == nil {
		csvSink = csvlog.New(cfg.Output.Path, !cfg.Window.DisableStats)
		snk = csvSink
	}

	sched := scheduler.New(scheduler.Config{
		Period:            cfg.Window.Period,
		ReadingsPerWindow: cfg.Window.ReadingsPerWindow,
		SampleDelay:       cfg.Window.SampleDelay,
		ReadTimeout:       cfg.Window.ReadTimeout,
		Retry: ports.RetryPolicy{
			MaxConsecutive: cfg.Window.MaxConsecutiveErrors,
			ErrorBackoff:   cfg.Window.ErrorBackoff,
		},
	}, src, snk, obs)

	return &Runtime{
		cfg:     cfg,
		obs:     obs,
		source:  src,
		sink:    snk,
		csvSink: csvSink,
		sched:   sched,
		doneCh:  make(chan struct{}),
	}, nil
}

// Start initializes the sink and launches the scheduler worker. Calling
// Start while a run is active or finished is a no-op.
func (r *Runtime) Start() error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}
	r.startMu.Lock()
	if r.state.Load() != stateIdle {
		r.startMu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	// cancel must be set before the state leaves idle: Stop may run from the
	// signal path the moment it observes stateRunning.
	r.cancel = cancel
	r.state.Store(stateRunning)
	r.startMu.Unlock()

	if err := r.sink.Init(); err != nil {
		// Forward to stopped, never back to idle; a Stop that raced in is
		// waiting on doneCh.
		cancel()
		r.state.Store(stateStopped)
		close(r.doneCh)
		return fmt.Errorf("init sink: %w", err)
	}
	if r.csvSink != nil {
		if rows := r.csvSink.ExistingRows(); rows > 0 {
			r.obs.LogInfo("log_resumed",
				ports.Field{Key: "path", Value: r.cfg.Output.Path},
				ports.Field{Key: "existing_rows", Value: rows})
		}
	}

	go func() {
		// runErr is published before doneCh closes; readers wait on doneCh.
		r.runErr = r.sched.Run(ctx)
		close(r.doneCh)
	}()

	r.startMetrics()

	r.obs.LogInfo("run_started",
		ports.Field{Key: "period", Value: r.cfg.Window.Period.String()},
		ports.Field{Key: "readings_per_window", Value: r.cfg.Window.ReadingsPerWindow},
		ports.Field{Key: "output", Value: r.cfg.Output.Path},
		ports.Field{Key: "source", Value: r.source.Name()})
	return nil
}

// Stop requests graceful termination, waits for the worker to finish within
// ctx, and reports the run summary. Safe to call more than once and from a
// signal-handling path.
func (r *Runtime) Stop(ctx context.Context) (Summary, error) {
	if r == nil {
		return Summary{}, fmt.Errorf("runtime is nil")
	}
	if r.state.Load() == stateIdle {
		return Summary{}, nil
	}
	if r.state.CompareAndSwap(stateRunning, stateStopping) {
		r.cancel()
	}

	select {
	case <-r.doneCh:
	case <-ctx.Done():
		return Summary{}, fmt.Errorf("waiting for scheduler to stop: %w", ctx.Err())
	}
	r.state.Store(stateStopped)

	var errs []error
	if r.runErr != nil {
		errs = append(errs, r.runErr)
	}

	if r.metricsSrv != nil {
		if err := r.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
		r.metricsSrv = nil
	}
	if err := r.source.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := r.sink.Close(); err != nil {
		errs = append(errs, err)
	}

	summary := Summary{RecordsWritten: r.sched.RecordsWritten()}
	r.obs.LogInfo("run_stopped",
		ports.Field{Key: "records_written", Value: summary.RecordsWritten})
	return summary, errors.Join(errs...)
}

// Run starts the runtime and blocks until ctx is cancelled or the run ends
// on its own (fatal sensor exhaustion), then shuts down.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-r.doneCh:
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := r.Stop(stopCtx)
	return err
}

func (r *Runtime) startMetrics() {
	if r.cfg.Metrics.Addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.metricsSrv = &http.Server{
		Addr:    r.cfg.Metrics.Addr,
		Handler: mux,
	}

	srv := r.metricsSrv
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.obs.LogError("metrics_server_exited", err)
		}
	}()
}
