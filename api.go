package lightsensor

import (
	"go.uber.org/zap"

	base "github.com/Taylor-eOS/light-intensity-sensor/pkg/lightsensor"
)

// Re-exported errors for convenience.
var (
	ErrSensorExhausted   = base.ErrSensorExhausted
	ErrChannelSinkClosed = base.ErrChannelSinkClosed
)

// Type aliases so consumers can import the module root directly.
type (
	Config        = base.Config
	WindowConfig  = base.WindowConfig
	SensorConfig  = base.SensorConfig
	OutputConfig  = base.OutputConfig
	LoggingConfig = base.LoggingConfig
	MetricsConfig = base.MetricsConfig
	Runtime       = base.Runtime
	Option        = base.Option
	Summary       = base.Summary
	Reading       = base.Reading
	Record        = base.Record
	RecordFunc    = base.RecordFunc
	Source        = base.Source
	RecordSink    = base.RecordSink
	Observability = base.Observability
	Field         = base.Field
	RetryPolicy   = base.RetryPolicy
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Runtime construction.
func New(cfg *Config, opts ...Option) (*Runtime, error) {
	return base.New(cfg, opts...)
}

func Conf(path string, opts ...Option) (*Runtime, error) {
	return base.Conf(path, opts...)
}

func WithSource(src Source) Option {
	return base.WithSource(src)
}

func WithSink(s RecordSink) Option {
	return base.WithSink(s)
}

func WithObservability(obs Observability) Option {
	return base.WithObservability(obs)
}

func WithLogger(l *zap.Logger) Option {
	return base.WithLogger(l)
}

// Sink adapters.
func NewCallbackSink(name string, fn RecordFunc) RecordSink {
	return base.NewCallbackSink(name, fn)
}

func NewChannelSink(name string, buffer int) (RecordSink, <-chan Record, func()) {
	return base.NewChannelSink(name, buffer)
}
