package lightsensor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func testCfg() *Config {
	return &Config{
		Window: WindowConfig{
			Period:               30 * time.Millisecond,
			ReadingsPerWindow:    2,
			SampleDelay:          time.Millisecond,
			ReadTimeout:          time.Second,
			MaxConsecutiveErrors: 3,
			ErrorBackoff:         time.Millisecond,
		},
		Output: OutputConfig{Path: "unused.csv"},
	}
}

func TestNewRuntimeWithCustomAdapters(t *testing.T) {
	src := &stubSource{lux: 100}
	sink := &stubSink{}
	obs := &stubObs{}

	rt, err := New(testCfg(),
		WithSource(src),
		WithSink(sink),
		WithObservability(obs),
	)
	require.NoError(t, err)

	assert.Same(t, src, rt.source.(*stubSource))
	assert.Same(t, sink, rt.sink.(*stubSink))
	assert.Same(t, obs, rt.obs.(*stubObs))
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestStartStopLifecycle(t *testing.T) {
	src := &stubSource{lux: 150.4}
	sink := &stubSink{}

	rt, err := New(testCfg(), WithSource(src), WithSink(sink), WithObservability(&stubObs{}))
	require.NoError(t, err)

	require.NoError(t, rt.Start())
	require.NoError(t, rt.Start(), "second Start must be a no-op")

	time.Sleep(80 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	summary, err := rt.Stop(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, summary.RecordsWritten, 1)
	assert.Equal(t, len(sink.Records()), summary.RecordsWritten)
	assert.True(t, sink.Initialized(), "Start must initialize the sink")

	// Stop again: idempotent, same outcome.
	summary2, err := rt.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, summary.RecordsWritten, summary2.RecordsWritten)
}

func TestStopBeforeStart(t *testing.T) {
	rt, err := New(testCfg(), WithSource(&stubSource{}), WithSink(&stubSink{}), WithObservability(&stubObs{}))
	require.NoError(t, err)

	summary, err := rt.Stop(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.RecordsWritten)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	rt, err := New(testCfg(), WithSource(&stubSource{lux: 80}), WithSink(&stubSink{}), WithObservability(&stubObs{}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Run(ctx) }()

	time.Sleep(40 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRunReturnsFatalOnSensorExhaustion(t *testing.T) {
	src := &stubSource{err: errors.New("dead bus")}
	rt, err := New(testCfg(), WithSource(src), WithSink(&stubSink{}), WithObservability(&stubObs{}))
	require.NoError(t, err)

	err = rt.Run(context.Background())
	require.ErrorIs(t, err, ErrSensorExhausted)
}

func TestStartFailsWhenSinkInitFails(t *testing.T) {
	sink := &stubSink{initErr: errors.New("permission denied")}
	rt, err := New(testCfg(), WithSource(&stubSource{}), WithSink(sink), WithObservability(&stubObs{}))
	require.NoError(t, err)

	require.Error(t, rt.Start())

	// The runtime is finished, not reset: Start does not retry the sink and
	// Stop returns without hanging.
	require.NoError(t, rt.Start())
	assert.Equal(t, 1, sink.InitCalls())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	summary, err := rt.Stop(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.RecordsWritten)
}

func TestStopDuringStartSinkInit(t *testing.T) {
	sink := &blockingInitSink{entered: make(chan struct{}), release: make(chan struct{})}
	rt, err := New(testCfg(), WithSource(&stubSource{lux: 60}), WithSink(sink), WithObservability(&stubObs{}))
	require.NoError(t, err)

	startDone := make(chan error, 1)
	go func() { startDone <- rt.Start() }()
	<-sink.entered

	// Stop arrives while Start is still inside sink.Init.
	stopDone := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, err := rt.Stop(ctx)
		stopDone <- err
	}()

	require.Eventually(t, func() bool {
		return rt.state.Load() == stateStopping
	}, time.Second, time.Millisecond, "Stop must move the run to stopping while Init is pending")
	close(sink.release)

	require.NoError(t, <-startDone)
	require.NoError(t, <-stopDone)
	assert.Empty(t, sink.Records(), "run was cancelled before its first window closed")
}

type stubSource struct {
	mu  sync.Mutex
	lux float64
	err error
}

func (s *stubSource) Read(context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	return s.lux, nil
}

func (s *stubSource) Close() error { return nil }
func (s *stubSource) Name() string { return "stub" }

type stubSink struct {
	mu        sync.Mutex
	inited    bool
	initErr   error
	initCalls int
	records   []Record
}

func (s *stubSink) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initCalls++
	if s.initErr != nil {
		return s.initErr
	}
	s.inited = true
	return nil
}

func (s *stubSink) InitCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initCalls
}

func (s *stubSink) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *stubSink) Close() error { return nil }
func (s *stubSink) Name() string { return "stub" }

func (s *stubSink) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inited
}

func (s *stubSink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.records...)
}

// blockingInitSink parks Init until release closes, so tests can hold the
// runtime mid-Start.
type blockingInitSink struct {
	stubSink
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *blockingInitSink) Init() error {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	return s.stubSink.Init()
}

type stubObs struct{}

func (s *stubObs) LogInfo(string, ...Field)            {}
func (s *stubObs) LogError(string, error, ...Field)    {}
func (s *stubObs) LogCritical(string, error, ...Field) {}
func (s *stubObs) IncCounter(string, float64)          {}
func (s *stubObs) ObserveLatency(string, float64)      {}
func (s *stubObs) SetGauge(string, float64)            {}
