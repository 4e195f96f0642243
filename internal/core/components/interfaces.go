// Package components holds the behaviours attached to scene entities and the
// narrow interfaces through which they reach the host: a scene graph, an
// asset loader, a key-state source and a camera sink.
package components

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/zoowalk/internal/core/events/bus"
	"github.com/zeusync/zoowalk/internal/core/models"
	"github.com/zeusync/zoowalk/internal/core/observability/log"
)

const (
	KindModelRenderer    models.Kind = "model_renderer"
	KindSpatialGrid      models.Kind = "spatial_grid_controller"
	KindPlayerInput      models.Kind = "player_input"
	KindPlayerController models.Kind = "player_controller"
	KindThirdPersonCam   models.Kind = "third_person_camera"
	KindProximity        models.Kind = "proximity_trigger"
	KindWander           models.Kind = "wander"
)

// MeshHandle is an opaque reference to a loaded mesh.
type MeshHandle string

// NodeID identifies a node attached to the scene graph.
type NodeID uint64

// Transform is the placement handed to the scene graph.
type Transform struct {
	Position mgl64.Vec3 `json:"position"`
	Rotation mgl64.Quat `json:"rotation"`
	Scale    float64    `json:"scale"`
}

// AnimationState names a movement animation.
type AnimationState string

const (
	StateIdle AnimationState = "idle"
	StateWalk AnimationState = "walk"
	StateRun  AnimationState = "run"
)

// AnimationWeights are cross-fade weights per state. They sum to 1.
type AnimationWeights struct {
	Idle float64 `json:"idle"`
	Walk float64 `json:"walk"`
	Run  float64 `json:"run"`
}

// Of returns the weight of state s.
func (w AnimationWeights) Of(s AnimationState) float64 {
	switch s {
	case StateWalk:
		return w.Walk
	case StateRun:
		return w.Run
	default:
		return w.Idle
	}
}

// Sum returns the total weight.
func (w AnimationWeights) Sum() float64 { return w.Idle + w.Walk + w.Run }

// KeyState is a snapshot of the logical keys.
type KeyState struct {
	Forward  bool `json:"forward"`
	Backward bool `json:"backward"`
	Left     bool `json:"left"`
	Right    bool `json:"right"`
	Sprint   bool `json:"sprint"`
	Action   bool `json:"action"`
}

// CameraPose is the camera placement pushed to the host every tick.
type CameraPose struct {
	Position mgl64.Vec3 `json:"position"`
	LookAt   mgl64.Vec3 `json:"look_at"`
	Rotation mgl64.Quat `json:"rotation"`
}

// SceneGraph receives mesh placement. The core never draws.
type SceneGraph interface {
	Attach(mesh MeshHandle, t Transform) NodeID
	Detach(node NodeID)
	Move(node NodeID, t Transform)
	Blend(node NodeID, w AnimationWeights)
}

// AssetLoader resolves a path and resource name into a mesh.
type AssetLoader interface {
	Load(path, name string) (MeshHandle, error)
}

// KeySource is polled once per tick.
type KeySource interface {
	Keys() KeyState
}

// CameraSink receives the camera pose.
type CameraSink interface {
	SetCamera(pose CameraPose)
}

// Options carries the optional collaborators shared by the components.
type Options struct {
	Logger log.Log
	Bus    bus.Bus
}

type Option func(*Options)

// WithLogger sets the logger used for debug output.
func WithLogger(l log.Log) Option {
	return func(o *Options) { o.Logger = l }
}

// WithBus sets the bus world events are published on.
func WithBus(b bus.Bus) Option {
	return func(o *Options) { o.Bus = b }
}

func newOptions(name string, opts []Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = log.NewNop()
	}
	o.Logger = o.Logger.Named(name)
	return o
}

func (o Options) publish(typ, source string, data any) {
	if o.Bus == nil {
		return
	}
	if err := o.Bus.Publish(bus.NewEvent(typ, source, data)); err != nil {
		o.Logger.Warn("event handler failed", log.String("event", typ), log.Error(err))
	}
}

// displayName is used as the event source for an entity.
func displayName(e *models.Entity) string {
	if e.Name() != "" {
		return e.Name()
	}
	return e.ID().String()
}
