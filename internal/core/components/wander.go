package components

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/zoowalk/internal/core/models"
	"github.com/zeusync/zoowalk/internal/core/physics"
)

// WanderConfig drives an idle animal around its enclosure.
type WanderConfig struct {
	Speed    float64
	TurnRate float64
	// Waypoints is the length of the patrol loop.
	Waypoints int
	// Radius bounds the loop around the start position when the entity has
	// no Range.
	Radius float64
	// Arrive is the distance at which a waypoint counts as reached.
	Arrive float64
	Seed   uint64
}

func DefaultWanderConfig(seed uint64) WanderConfig {
	return WanderConfig{
		Speed:     1.5,
		TurnRate:  math.Pi,
		Waypoints: 4,
		Radius:    8,
		Arrive:    0.25,
		Seed:      seed,
	}
}

// Wander walks a fixed loop of waypoints generated once at Init. The update
// path itself draws no random numbers.
type Wander struct {
	cfg WanderConfig

	entity *models.Entity
	bounds models.Range
	points []mgl64.Vec2
	next   int
	yaw    float64
}

func NewWander(cfg WanderConfig) *Wander {
	if cfg.Waypoints < 1 {
		cfg.Waypoints = 1
	}
	return &Wander{cfg: cfg}
}

func (w *Wander) Kind() models.Kind { return KindWander }

func (w *Wander) Init(e *models.Entity) error {
	w.entity = e
	w.yaw = physics.Yaw(e.Rotation())

	pos := e.Position()
	if r, ok := e.Range(); ok {
		w.bounds = r
	} else {
		ext := mgl64.Vec3{w.cfg.Radius, 0, w.cfg.Radius}
		w.bounds = models.Range{Min: pos.Sub(ext), Max: pos.Add(ext)}
	}

	rng := rand.New(rand.NewPCG(w.cfg.Seed, w.cfg.Seed^0x9e3779b97f4a7c15))
	lo, hi := w.bounds.Min, w.bounds.Max
	w.points = make([]mgl64.Vec2, w.cfg.Waypoints)
	for i := range w.points {
		w.points[i] = mgl64.Vec2{
			lerp(lo.X(), hi.X(), rng.Float64()),
			lerp(lo.Z(), hi.Z(), rng.Float64()),
		}
	}

	e.Broadcast(models.Message{Type: models.AnimationState, Value: StateWalk})
	e.Broadcast(models.Message{Type: models.AnimationWeights, Value: AnimationWeights{Walk: 1}})
	return nil
}

func (w *Wander) Update(dt float64) {
	if !(dt > 0) || len(w.points) == 0 {
		return
	}
	pos := w.entity.Position()
	here := physics.Planar(pos)

	target := w.points[w.next]
	delta := target.Sub(here)
	dist := delta.Len()
	if dist <= w.cfg.Arrive {
		w.next = (w.next + 1) % len(w.points)
		return
	}

	step := math.Min(w.cfg.Speed*dt, dist)
	moved := here.Add(delta.Mul(step / dist))
	next := physics.Clamp3(physics.Lift(moved, pos.Y()), w.bounds.Min, w.bounds.Max)
	next[1] = pos.Y()
	w.entity.SetPosition(next)

	yaw := physics.TurnToward(w.yaw, physics.Heading(delta), w.cfg.TurnRate*dt)
	if yaw != w.yaw {
		w.yaw = yaw
		w.entity.SetRotation(physics.YawQuat(yaw))
	}
}

// Waypoints returns the patrol loop.
func (w *Wander) Waypoints() []mgl64.Vec2 {
	out := make([]mgl64.Vec2, len(w.points))
	copy(out, w.points)
	return out
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
