package ports

import "github.com/Taylor-eOS/light-intensity-sensor/internal/domain"

// RecordSink appends aggregated records to durable storage. Init is called
// once before the first window and must leave the header in place.
type RecordSink interface {
	Init() error
	Append(rec domain.Record) error
	Close() error
	Name() string
}
