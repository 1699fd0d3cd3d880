package lightsensor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Taylor-eOS/light-intensity-sensor/internal/domain"
)

// ErrChannelSinkClosed is returned when a channel sink is written to after
// being closed.
var ErrChannelSinkClosed = errors.New("lightsensor: channel sink closed")

// RecordFunc is invoked with each record as its window closes.
type RecordFunc func(Record) error

// NewCallbackSink adapts a RecordFunc into a full RecordSink implementation
// so embedding callers can receive records without defining structs.
func NewCallbackSink(name string, fn RecordFunc) RecordSink {
	if name == "" {
		name = "callback"
	}
	return &callbackSink{name: name, fn: fn}
}

// NewChannelSink exposes records via a channel; it returns the sink, the
// read-only channel, and a close function for shutdown.
func NewChannelSink(name string, buffer int) (RecordSink, <-chan Record, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan Record, buffer)
	s := &channelSink{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return s, ch, func() { s.close() }
}

type callbackSink struct {
	name string
	fn   RecordFunc
}

func (s *callbackSink) Init() error {
	if s.fn == nil {
		return fmt.Errorf("callback sink %q: nil handler", s.name)
	}
	return nil
}

func (s *callbackSink) Append(rec domain.Record) error {
	if s.fn == nil {
		return fmt.Errorf("callback sink %q: nil handler", s.name)
	}
	return s.fn(rec)
}

func (s *callbackSink) Close() error { return nil }
func (s *callbackSink) Name() string { return s.name }

type channelSink struct {
	name    string
	ch      chan Record
	closed  chan struct{}
	mu      sync.Mutex
	sending sync.WaitGroup
	once    sync.Once
}

func (s *channelSink) Init() error { return nil }

func (s *channelSink) Append(rec domain.Record) error {
	// New sends are registered under the lock so close can wait them out
	// before closing ch; a send never races the close.
	s.mu.Lock()
	select {
	case <-s.closed:
		s.mu.Unlock()
		return ErrChannelSinkClosed
	default:
	}
	s.sending.Add(1)
	s.mu.Unlock()
	defer s.sending.Done()

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	case s.ch <- rec:
		return nil
	}
}

func (s *channelSink) Close() error {
	s.close()
	return nil
}

func (s *channelSink) Name() string { return s.name }

func (s *channelSink) close() {
	s.once.Do(func() {
		s.mu.Lock()
		close(s.closed)
		s.mu.Unlock()
		s.sending.Wait()
		close(s.ch)
	})
}
