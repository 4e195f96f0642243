// Package system drives the world tick.
package system

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeusync/zoowalk/internal/core/observability/log"
)

var (
	ErrAlreadyRunning = errors.New("system: scheduler already running")
	ErrNilWorld       = errors.New("system: nil world")
	ErrInvalidConfig  = errors.New("system: invalid scheduler config")
)

// DefaultMaxStep bounds the simulated time of one step.
const DefaultMaxStep = 1.0 / 30

type Config struct {
	// TickRate is the number of Run iterations per second.
	TickRate int
	// MaxStep clamps the elapsed time fed into one advance.
	MaxStep float64
	// FixedStep, when positive, makes Advance run whole steps of this size
	// from an accumulator.
	FixedStep float64
	// MaxSubsteps bounds the fixed steps run by one Advance.
	MaxSubsteps int
}

func DefaultConfig() Config {
	return Config{
		TickRate:    60,
		MaxStep:     DefaultMaxStep,
		MaxSubsteps: 4,
	}
}

func (c Config) Validate() error {
	switch {
	case c.TickRate <= 0:
		return fmt.Errorf("%w: tick rate %d", ErrInvalidConfig, c.TickRate)
	case time.Second/time.Duration(c.TickRate) == 0:
		return fmt.Errorf("%w: tick rate %d exceeds one tick per nanosecond", ErrInvalidConfig, c.TickRate)
	case !(c.MaxStep > 0):
		return fmt.Errorf("%w: max step %v", ErrInvalidConfig, c.MaxStep)
	case c.FixedStep < 0 || c.FixedStep > c.MaxStep:
		return fmt.Errorf("%w: fixed step %v outside [0, max step]", ErrInvalidConfig, c.FixedStep)
	case c.FixedStep > 0 && c.MaxSubsteps <= 0:
		return fmt.Errorf("%w: max substeps %d", ErrInvalidConfig, c.MaxSubsteps)
	}
	return nil
}

// Scheduler advances a World from elapsed wall time. Step and Advance must
// be called from one goroutine; Run is that goroutine when used.
type Scheduler struct {
	cfg    Config
	world  World
	clock  Clock
	logger log.Log

	mu        sync.RWMutex
	observers []FrameObserver

	running     atomic.Bool
	ticks       atomic.Uint64
	accumulator float64
	simTime     float64
}

type Option func(*Scheduler)

// WithClock replaces the wall clock used by Run.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithLogger(l log.Log) Option {
	return func(s *Scheduler) { s.logger = l }
}

func NewScheduler(cfg Config, world World, opts ...Option) (*Scheduler, error) {
	if world == nil {
		return nil, ErrNilWorld
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Scheduler{cfg: cfg, world: world, clock: RealClock(), logger: log.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("scheduler")
	return s, nil
}

// AddObserver registers o for frame notifications.
func (s *Scheduler) AddObserver(o FrameObserver) {
	if o == nil {
		return
	}
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
}

// Ticks returns the number of world updates run so far. Safe to call from
// any goroutine.
func (s *Scheduler) Ticks() uint64 { return s.ticks.Load() }

// Clamp bounds elapsed into [0, MaxStep]. NaN becomes 0.
func (s *Scheduler) Clamp(elapsed float64) float64 {
	if !(elapsed > 0) {
		return 0
	}
	return math.Min(elapsed, s.cfg.MaxStep)
}

// Step runs exactly one world update with the clamped elapsed time.
func (s *Scheduler) Step(elapsed float64) Frame {
	dt := s.Clamp(elapsed)
	s.update(dt)
	f := Frame{Tick: s.ticks.Load(), Delta: dt, Substeps: 1, Time: s.simTime}
	s.notify(f)
	return f
}

// Advance feeds elapsed into the loop. Without a fixed step it is Step.
// With one, it runs as many whole steps as the accumulator holds, up to
// MaxSubsteps, and drops the backlog beyond that. Observers are notified
// only when at least one step ran.
func (s *Scheduler) Advance(elapsed float64) Frame {
	if s.cfg.FixedStep <= 0 {
		return s.Step(elapsed)
	}

	fixed := s.cfg.FixedStep
	s.accumulator += s.Clamp(elapsed)
	f := Frame{}
	for s.accumulator >= fixed && f.Substeps < s.cfg.MaxSubsteps {
		s.update(fixed)
		s.accumulator -= fixed
		f.Substeps++
		f.Delta += fixed
	}
	if s.accumulator >= fixed {
		s.logger.Debug("dropping tick backlog", log.Float64("seconds", s.accumulator))
		s.accumulator = math.Mod(s.accumulator, fixed)
	}

	f.Tick = s.ticks.Load()
	f.Time = s.simTime
	if f.Substeps > 0 {
		s.notify(f)
	}
	return f
}

// Run advances the world on every clock tick until ctx is cancelled, which
// is not an error.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	interval := time.Second / time.Duration(s.cfg.TickRate)
	ticks, stop := s.clock.Tick(interval)
	defer stop()

	s.logger.Info("scheduler started",
		log.Int("tick_rate", s.cfg.TickRate),
		log.Float64("max_step", s.cfg.MaxStep),
		log.Float64("fixed_step", s.cfg.FixedStep),
	)

	last := s.clock.Now()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped", log.Uint64("ticks", s.ticks.Load()))
			return nil
		case now := <-ticks:
			elapsed := now.Sub(last).Seconds()
			last = now
			s.Advance(elapsed)
		}
	}
}

func (s *Scheduler) update(dt float64) {
	s.world.Update(dt)
	s.simTime += dt
	s.ticks.Add(1)
}

func (s *Scheduler) notify(f Frame) {
	s.mu.RLock()
	observers := s.observers
	s.mu.RUnlock()
	for _, o := range observers {
		o.OnFrame(f)
	}
}
