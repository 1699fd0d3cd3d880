package ports

import "context"

// Source produces one scalar reading on demand. Read must honor the context
// deadline; the scheduler treats every poll as a bounded operation.
type Source interface {
	Read(ctx context.Context) (float64, error)
	Close() error
	Name() string
}
