package lightsensor

import (
	"github.com/Taylor-eOS/light-intensity-sensor/internal/adapters/bh1750"
	"github.com/Taylor-eOS/light-intensity-sensor/internal/domain"
	"github.com/Taylor-eOS/light-intensity-sensor/internal/ports"
	"github.com/Taylor-eOS/light-intensity-sensor/internal/scheduler"
)

// ErrSensorExhausted ends a run after too many consecutive failed polls.
var ErrSensorExhausted = scheduler.ErrSensorExhausted

// Reading is a single raw sensor measurement inside one window.
type Reading = domain.Reading

// Record is the persisted per-window summary.
type Record = domain.Record

// Source produces scalar readings on demand.
type Source = ports.Source

// RecordSink consumes one Record per window.
type RecordSink = ports.RecordSink

// Observability emits the pipeline's logs and metrics.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

// RetryPolicy governs transient-failure escalation.
type RetryPolicy = ports.RetryPolicy

// SensorConfig holds the BH1750 bus details.
type SensorConfig = bh1750.Config
