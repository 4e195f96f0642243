package components

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/zoowalk/internal/core/events/bus"
	"github.com/zeusync/zoowalk/internal/core/models"
	"github.com/zeusync/zoowalk/internal/core/observability/log"
	"github.com/zeusync/zoowalk/internal/core/physics"
)

// ControllerConfig tunes planar player movement. Rates are per second.
type ControllerConfig struct {
	WalkSpeed    float64
	RunSpeed     float64
	Acceleration float64
	Deceleration float64
	// TurnRate bounds the facing change in radians per second.
	TurnRate float64
	// StopEpsilon is the speed under which a decaying velocity snaps to zero.
	StopEpsilon float64
	// WalkThreshold and RunThreshold select the animation state by speed.
	WalkThreshold float64
	RunThreshold  float64
	// CrossFade is the time a full animation transition takes.
	CrossFade float64
}

func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		WalkSpeed:     4,
		RunSpeed:      10,
		Acceleration:  6,
		Deceleration:  8,
		TurnRate:      2 * math.Pi,
		StopEpsilon:   1e-3,
		WalkThreshold: 0.1,
		RunThreshold:  7,
		CrossFade:     0.25,
	}
}

// PlayerController integrates the sibling PlayerInput intent into the entity
// transform and selects the movement animation.
type PlayerController struct {
	cfg  ControllerConfig
	opts Options

	entity   *models.Entity
	velocity mgl64.Vec2
	yaw      float64
	state    AnimationState
	weights  AnimationWeights
}

func NewPlayerController(cfg ControllerConfig, opts ...Option) *PlayerController {
	return &PlayerController{
		cfg:   cfg,
		opts:  newOptions("controller", opts),
		state: StateIdle,
	}
}

func (c *PlayerController) Kind() models.Kind { return KindPlayerController }

func (c *PlayerController) Init(e *models.Entity) error {
	c.entity = e
	c.yaw = physics.Yaw(e.Rotation())
	c.state = StateIdle
	c.weights = AnimationWeights{Idle: 1}
	return nil
}

func (c *PlayerController) Update(dt float64) {
	var intent Intent
	if in, ok := models.Get[*PlayerInput](c.entity, KindPlayerInput); ok {
		intent = in.Intent()
	}

	c.integrate(intent, dt)
	c.turn(dt)
	c.animate(dt)
}

func (c *PlayerController) Velocity() mgl64.Vec2      { return c.velocity }
func (c *PlayerController) Speed() float64            { return c.velocity.Len() }
func (c *PlayerController) Yaw() float64              { return c.yaw }
func (c *PlayerController) State() AnimationState     { return c.state }
func (c *PlayerController) Weights() AnimationWeights { return c.weights }

func (c *PlayerController) integrate(intent Intent, dt float64) {
	if dir := intent.Direction(); dir != (mgl64.Vec2{}) {
		speed := c.cfg.WalkSpeed
		if intent.Sprint {
			speed = c.cfg.RunSpeed
		}
		c.velocity = physics.Approach2(c.velocity, dir.Mul(speed), c.cfg.Acceleration, dt)
	} else {
		c.velocity = physics.Decay2(c.velocity, c.cfg.Deceleration, dt, c.cfg.StopEpsilon)
	}

	if c.velocity == (mgl64.Vec2{}) || !(dt > 0) {
		return
	}

	pos := c.entity.Position()
	next := pos.Add(physics.Lift(c.velocity.Mul(dt), 0))
	if r, ok := c.entity.Range(); ok {
		clamped := physics.Clamp3(next, r.Min, r.Max)
		// Velocity into a boundary is dropped so it does not build up.
		if clamped.X() != next.X() {
			c.velocity[0] = 0
		}
		if clamped.Z() != next.Z() {
			c.velocity[1] = 0
		}
		next = clamped
	}
	if next != pos {
		c.entity.SetPosition(next)
	}
}

func (c *PlayerController) turn(dt float64) {
	if c.velocity.Len() < c.cfg.WalkThreshold {
		return
	}
	yaw := physics.TurnToward(c.yaw, physics.Heading(c.velocity), c.cfg.TurnRate*dt)
	if yaw == c.yaw {
		return
	}
	c.yaw = yaw
	c.entity.SetRotation(physics.YawQuat(yaw))
}

func (c *PlayerController) animate(dt float64) {
	next := c.selectState(c.velocity.Len())
	if next != c.state {
		prev := c.state
		c.state = next
		c.entity.Broadcast(models.Message{Type: models.AnimationState, Value: next})
		c.opts.publish(bus.AnimationChanged, displayName(c.entity), bus.AnimationChange{
			Entity: displayName(c.entity),
			From:   string(prev),
			To:     string(next),
		})
		c.opts.Logger.Debug("animation state changed",
			log.String("from", string(prev)),
			log.String("to", string(next)),
		)
	}

	c.weights = crossFade(c.weights, c.state, c.cfg.CrossFade, dt)
	c.entity.Broadcast(models.Message{Type: models.AnimationWeights, Value: c.weights})
}

func (c *PlayerController) selectState(speed float64) AnimationState {
	switch {
	case speed >= c.cfg.RunThreshold:
		return StateRun
	case speed >= c.cfg.WalkThreshold:
		return StateWalk
	default:
		return StateIdle
	}
}

// crossFade raises the weight of active by dt/duration and scales the other
// weights so the total stays 1.
func crossFade(w AnimationWeights, active AnimationState, duration, dt float64) AnimationWeights {
	step := 1.0
	if duration > 0 {
		step = math.Max(dt, 0) / duration
	}
	target := math.Min(w.Of(active)+step, 1)
	rest := w.Sum() - w.Of(active)

	scale := 0.0
	if rest > 0 {
		scale = (1 - target) / rest
	} else {
		target = 1
	}

	out := AnimationWeights{
		Idle: w.Idle * scale,
		Walk: w.Walk * scale,
		Run:  w.Run * scale,
	}
	switch active {
	case StateWalk:
		out.Walk = target
	case StateRun:
		out.Run = target
	default:
		out.Idle = target
	}
	return out
}
