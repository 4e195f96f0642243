package system

import "time"

// World is the simulation the scheduler ticks. *models.Manager satisfies it.
type World interface {
	Update(dt float64)
}

// Frame describes one scheduler advance.
type Frame struct {
	// Tick counts simulation steps since the scheduler was created.
	Tick uint64
	// Delta is the simulated time this frame covered, in seconds.
	Delta float64
	// Substeps is the number of world updates run for this frame.
	Substeps int
	// Time is the total simulated time in seconds.
	Time float64
}

// FrameObserver is notified on the tick goroutine after every frame that
// advanced the world. Hosts flush their buffered scene changes here.
type FrameObserver interface {
	OnFrame(f Frame)
}

// Clock abstracts wall time for Run.
type Clock interface {
	Now() time.Time
	// Tick returns a channel delivering the current time every d, and a
	// function that stops it.
	Tick(d time.Duration) (<-chan time.Time, func())
}

type realClock struct{}

// RealClock is the wall clock backed by time.Ticker.
func RealClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Tick(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}
