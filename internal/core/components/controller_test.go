package components

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/zoowalk/internal/core/events/bus"
	"github.com/zeusync/zoowalk/internal/core/models"
	"github.com/zeusync/zoowalk/internal/core/physics"
)

func TestControllerAcceleratesTowardWalkSpeed(t *testing.T) {
	keys := &fakeKeys{state: KeyState{Forward: true}}
	cfg := DefaultControllerConfig()
	e, ctrl := newPlayer(t, keys, cfg)

	for i := 0; i < 600; i++ {
		e.Update(1.0 / 60)
	}
	assert.InDelta(t, cfg.WalkSpeed, ctrl.Speed(), 1e-6)
	assert.InDelta(t, 0, ctrl.Velocity().X(), 1e-12)
	assert.Greater(t, e.Position().Z(), 0.0)
	assert.Equal(t, StateWalk, ctrl.State())

	keys.state.Sprint = true
	for i := 0; i < 600; i++ {
		e.Update(1.0 / 60)
	}
	assert.InDelta(t, cfg.RunSpeed, ctrl.Speed(), 1e-6)
	assert.Equal(t, StateRun, ctrl.State())
}

func TestControllerVelocityDecaysToExactlyZero(t *testing.T) {
	keys := &fakeKeys{state: KeyState{Forward: true, Left: true, Sprint: true}}
	e, ctrl := newPlayer(t, keys, DefaultControllerConfig())
	for i := 0; i < 120; i++ {
		e.Update(1.0 / 60)
	}
	require.Greater(t, ctrl.Speed(), 1.0)

	keys.state = KeyState{}
	prev := ctrl.Velocity()
	for i := 0; i < 2000 && ctrl.Speed() > 0; i++ {
		e.Update(1.0 / 60)
		v := ctrl.Velocity()
		assert.GreaterOrEqual(t, v.X(), 0.0, "no sign flip on X")
		assert.GreaterOrEqual(t, v.Y(), 0.0, "no sign flip on Z")
		assert.LessOrEqual(t, v.Len(), prev.Len())
		prev = v
	}
	assert.Equal(t, mgl64.Vec2{}, ctrl.Velocity())
	assert.Equal(t, StateIdle, ctrl.State())

	// Large steps decay too and never overshoot.
	keys.state = KeyState{Backward: true}
	e.Update(0.5)
	keys.state = KeyState{}
	e.Update(30)
	assert.Equal(t, mgl64.Vec2{}, ctrl.Velocity())
}

func TestControllerTurnIsBounded(t *testing.T) {
	keys := &fakeKeys{state: KeyState{Backward: true}}
	cfg := DefaultControllerConfig()
	cfg.TurnRate = math.Pi / 2
	e, ctrl := newPlayer(t, keys, cfg)

	dt := 0.1
	prev := ctrl.Yaw()
	for i := 0; i < 40; i++ {
		e.Update(dt)
		step := math.Abs(physics.WrapAngle(ctrl.Yaw() - prev))
		assert.LessOrEqual(t, step, cfg.TurnRate*dt+1e-9)
		prev = ctrl.Yaw()
	}
	// Facing ends up along -Z.
	assert.InDelta(t, math.Pi, math.Abs(ctrl.Yaw()), 1e-9)
	f := e.Rotation().Rotate(mgl64.Vec3{0, 0, 1})
	assert.InDelta(t, 0, f.X(), 1e-9)
	assert.InDelta(t, -1, f.Z(), 1e-9)
}

func TestControllerStaysInRange(t *testing.T) {
	keys := &fakeKeys{state: KeyState{Right: true, Sprint: true}}
	m := newTestManager()
	e := models.NewEntity("player")
	e.SetRange(models.Range{Min: mgl64.Vec3{-3, 0, -3}, Max: mgl64.Vec3{3, 0, 3}})
	_, _ = m.Add(e, "player")
	require.NoError(t, e.AddComponent(NewPlayerInput(keys)))
	ctrl := NewPlayerController(DefaultControllerConfig())
	require.NoError(t, e.AddComponent(ctrl))

	for i := 0; i < 300; i++ {
		e.Update(1.0 / 60)
	}
	assert.Equal(t, -3.0, e.Position().X())
	assert.Equal(t, 0.0, ctrl.Velocity().X())
}

func TestCrossFadeWeightsSumToOne(t *testing.T) {
	w := AnimationWeights{Idle: 1}
	for i := 0; i < 10; i++ {
		w = crossFade(w, StateWalk, 0.25, 0.02)
		assert.InDelta(t, 1, w.Sum(), 1e-12)
	}
	assert.InDelta(t, 0.8, w.Walk, 1e-9)

	w = crossFade(w, StateRun, 0.25, 0.1)
	assert.InDelta(t, 0.4, w.Run, 1e-9)
	assert.InDelta(t, 1, w.Sum(), 1e-12)
	assert.Greater(t, w.Walk, w.Idle)

	w = crossFade(w, StateRun, 0, 0.01)
	assert.Equal(t, AnimationWeights{Run: 1}, w)
	assert.Equal(t, AnimationWeights{Walk: 1}, crossFade(AnimationWeights{}, StateWalk, 1, 0))
}

func TestControllerPublishesStateChanges(t *testing.T) {
	events := bus.New()
	var changes []bus.AnimationChange
	_, _ = events.Subscribe(bus.AnimationChanged, func(ev bus.Event) error {
		changes = append(changes, ev.Data().(bus.AnimationChange))
		return nil
	})

	keys := &fakeKeys{state: KeyState{Forward: true}}
	e, _ := newPlayer(t, keys, DefaultControllerConfig(), WithBus(events))

	var states []AnimationState
	var last AnimationWeights
	e.Subscribe(models.AnimationState, func(msg models.Message) { states = append(states, msg.Value.(AnimationState)) })
	e.Subscribe(models.AnimationWeights, func(msg models.Message) { last = msg.Value.(AnimationWeights) })

	for i := 0; i < 120; i++ {
		e.Update(1.0 / 60)
	}
	keys.state = KeyState{}
	for i := 0; i < 600; i++ {
		e.Update(1.0 / 60)
	}

	assert.Equal(t, []AnimationState{StateWalk, StateIdle}, states)
	require.Len(t, changes, 2)
	assert.Equal(t, bus.AnimationChange{Entity: "player", From: "idle", To: "walk"}, changes[0])
	assert.Equal(t, AnimationWeights{Idle: 1}, last)
}
