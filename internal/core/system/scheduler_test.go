package system

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWorld struct {
	mu  sync.Mutex
	dts []float64
}

func (w *recordingWorld) Update(dt float64) {
	w.mu.Lock()
	w.dts = append(w.dts, dt)
	w.mu.Unlock()
}

func (w *recordingWorld) steps() []float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]float64(nil), w.dts...)
}

type frameLog struct {
	mu     sync.Mutex
	frames []Frame
}

func (l *frameLog) OnFrame(f Frame) {
	l.mu.Lock()
	l.frames = append(l.frames, f)
	l.mu.Unlock()
}

func (l *frameLog) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.frames)
}

type fakeClock struct {
	now time.Time
	ch  chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1000, 0), ch: make(chan time.Time)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Tick(time.Duration) (<-chan time.Time, func()) {
	return c.ch, func() {}
}

func newScheduler(t *testing.T, cfg Config, world World, opts ...Option) *Scheduler {
	t.Helper()
	s, err := NewScheduler(cfg, world, opts...)
	require.NoError(t, err)
	return s
}

func TestStepClampsElapsed(t *testing.T) {
	w := &recordingWorld{}
	s := newScheduler(t, DefaultConfig(), w)

	s.Step(0.01)
	s.Step(5)
	s.Step(-1)
	s.Step(math.NaN())

	assert.Equal(t, []float64{0.01, DefaultMaxStep, 0, 0}, w.steps())
	assert.EqualValues(t, 4, s.Ticks())
}

func TestStepNotifiesObservers(t *testing.T) {
	w := &recordingWorld{}
	s := newScheduler(t, DefaultConfig(), w)
	obs := &frameLog{}
	s.AddObserver(obs)
	s.AddObserver(nil)

	s.Step(0.02)
	f := s.Step(0.01)

	require.Equal(t, 2, obs.len())
	assert.Equal(t, uint64(2), f.Tick)
	assert.Equal(t, 1, f.Substeps)
	assert.InDelta(t, 0.03, f.Time, 1e-12)
	assert.Equal(t, f, obs.frames[1])
}

func TestAdvanceFixedStepAccumulates(t *testing.T) {
	w := &recordingWorld{}
	cfg := DefaultConfig()
	cfg.FixedStep = 0.01
	cfg.MaxSubsteps = 3
	s := newScheduler(t, cfg, w)
	obs := &frameLog{}
	s.AddObserver(obs)

	f := s.Advance(0.004)
	assert.Zero(t, f.Substeps)
	assert.Zero(t, obs.len(), "no frame without a step")

	f = s.Advance(0.017)
	assert.Equal(t, 2, f.Substeps)
	assert.InDelta(t, 0.02, f.Delta, 1e-12)
	assert.Equal(t, []float64{0.01, 0.01}, w.steps())

	// A long pause is clamped to MaxStep and capped at MaxSubsteps.
	f = s.Advance(10)
	assert.Equal(t, 3, f.Substeps)
	assert.Len(t, w.steps(), 5)
	assert.Less(t, s.accumulator, cfg.FixedStep)
	assert.Equal(t, 2, obs.len())
}

func TestAdvanceWithoutFixedStepIsStep(t *testing.T) {
	w := &recordingWorld{}
	s := newScheduler(t, DefaultConfig(), w)
	f := s.Advance(0.016)
	assert.Equal(t, 1, f.Substeps)
	assert.Equal(t, []float64{0.016}, w.steps())
}

func TestConfigValidation(t *testing.T) {
	_, err := NewScheduler(DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrNilWorld)

	bad := []Config{
		{TickRate: 0, MaxStep: 0.1},
		{TickRate: 2_000_000_000, MaxStep: 0.1},
		{TickRate: 60, MaxStep: 0},
		{TickRate: 60, MaxStep: 0.01, FixedStep: 0.02, MaxSubsteps: 1},
		{TickRate: 60, MaxStep: 0.1, FixedStep: 0.01},
	}
	for _, cfg := range bad {
		_, err := NewScheduler(cfg, &recordingWorld{})
		assert.ErrorIs(t, err, ErrInvalidConfig, "%+v", cfg)
	}
}

func TestRunDrivesFromClockUntilCancelled(t *testing.T) {
	w := &recordingWorld{}
	clock := newFakeClock()
	s := newScheduler(t, DefaultConfig(), w, WithClock(clock))
	obs := &frameLog{}
	s.AddObserver(obs)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	base := clock.now
	clock.ch <- base.Add(10 * time.Millisecond)
	clock.ch <- base.Add(20 * time.Millisecond)
	// Unbuffered sends return once Run has received; the third send
	// guarantees the second tick has been applied.
	clock.ch <- base.Add(2 * time.Second)

	require.Eventually(t, func() bool { return obs.len() == 3 }, time.Second, time.Millisecond)
	assert.ErrorIs(t, s.Run(ctx), ErrAlreadyRunning)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	steps := w.steps()
	require.Len(t, steps, 3)
	assert.InDelta(t, 0.01, steps[0], 1e-9)
	assert.InDelta(t, 0.01, steps[1], 1e-9)
	assert.Equal(t, DefaultMaxStep, steps[2])
}
