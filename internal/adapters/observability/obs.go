package observability

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Taylor-eOS/light-intensity-sensor/internal/ports"
)

// Obs backs the Observability port with zap structured logs and Prometheus
// metrics.
type Obs struct {
	log      *zap.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// New registers the pipeline's metrics with reg (the default registerer when
// nil) and logs through logger (a no-op logger when nil).
func New(logger *zap.Logger, reg prometheus.Registerer) *Obs {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	records := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lightlog_records_written_total",
		Help: "Aggregated records appended to the log.",
	})
	sensorErrs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lightlog_sensor_errors_total",
		Help: "Transient sensor read failures.",
	})
	outliers := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lightlog_outliers_rejected_total",
		Help: "Raw readings rejected by MAD outlier filtering.",
	})
	emptyWindows := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lightlog_empty_windows_total",
		Help: "Windows that produced no record because every poll failed.",
	})
	sinkErrs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lightlog_sink_errors_total",
		Help: "Failed record appends.",
	})
	lastLux := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lightlog_last_lux",
		Help: "Representative lux value of the most recent window.",
	})
	consecutive := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lightlog_consecutive_errors",
		Help: "Current consecutive sensor failure streak.",
	})
	persistLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lightlog_persist_latency_seconds",
		Help:    "Latency of appending one record to the sink.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	})

	reg.MustRegister(records, sensorErrs, outliers, emptyWindows, sinkErrs, lastLux, consecutive, persistLatency)

	return &Obs{
		log: logger,
		counters: map[string]prometheus.Counter{
			"lightlog_records_written_total":   records,
			"lightlog_sensor_errors_total":     sensorErrs,
			"lightlog_outliers_rejected_total": outliers,
			"lightlog_empty_windows_total":     emptyWindows,
			"lightlog_sink_errors_total":       sinkErrs,
		},
		gauges: map[string]prometheus.Gauge{
			"lightlog_last_lux":           lastLux,
			"lightlog_consecutive_errors": consecutive,
		},
		histos: map[string]prometheus.Observer{
			"lightlog_persist_latency_seconds": persistLatency,
		},
	}
}

// NewLogger builds the process logger. level is one of debug/info/warn/error,
// format is "json" or "console".
func NewLogger(level, format string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	var cfg zap.Config
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.OutputPaths = []string{"stdout"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		logger = logger.With(zap.String("hostname", hostname))
	}
	return logger, nil
}

func (o *Obs) LogInfo(msg string, fields ...ports.Field) {
	o.log.Info(msg, zapFields(nil, fields)...)
}

func (o *Obs) LogError(msg string, err error, fields ...ports.Field) {
	o.log.Error(msg, zapFields(err, fields)...)
}

func (o *Obs) LogCritical(msg string, err error, fields ...ports.Field) {
	o.log.Error(msg, append(zapFields(err, fields), zap.Bool("fatal", true))...)
}

func (o *Obs) IncCounter(name string, v float64) {
	if c, ok := o.counters[name]; ok {
		c.Add(v)
	}
}

func (o *Obs) ObserveLatency(name string, seconds float64) {
	if h, ok := o.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (o *Obs) SetGauge(name string, v float64) {
	if g, ok := o.gauges[name]; ok {
		g.Set(v)
	}
}

func zapFields(err error, fields []ports.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+1)
	if err != nil {
		out = append(out, zap.Error(err))
	}
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

var _ ports.Observability = (*Obs)(nil)
