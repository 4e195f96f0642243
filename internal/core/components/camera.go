package components

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/zoowalk/internal/core/models"
	"github.com/zeusync/zoowalk/internal/core/physics"
)

// CameraConfig places the follow camera relative to its target.
type CameraConfig struct {
	// Target is the name of the followed entity.
	Target string
	// Offset is expressed in the target's frame; {0, 5, -10} sits behind and
	// above a target facing +Z.
	Offset    mgl64.Vec3
	EyeHeight float64
	// Damping is the exponential approach rate per second.
	Damping     float64
	SnapEpsilon float64
}

func DefaultCameraConfig(target string) CameraConfig {
	return CameraConfig{
		Target:      target,
		Offset:      mgl64.Vec3{0, 5, -10},
		EyeHeight:   1.5,
		Damping:     4,
		SnapEpsilon: 1e-4,
	}
}

// ThirdPersonCamera smooths its entity toward an offset behind the target.
// The target is looked up by name every tick, so it may be registered after
// the camera or disappear again.
type ThirdPersonCamera struct {
	cfg  CameraConfig
	sink CameraSink

	entity   *models.Entity
	position mgl64.Vec3
	lookAt   mgl64.Vec3
	rotation mgl64.Quat
	aimed    bool
}

func NewThirdPersonCamera(cfg CameraConfig, sink CameraSink) *ThirdPersonCamera {
	return &ThirdPersonCamera{cfg: cfg, sink: sink, rotation: mgl64.QuatIdent()}
}

func (c *ThirdPersonCamera) Kind() models.Kind { return KindThirdPersonCam }

func (c *ThirdPersonCamera) Init(e *models.Entity) error {
	c.entity = e
	c.position = e.Position()
	c.rotation = e.Rotation()
	return nil
}

func (c *ThirdPersonCamera) Update(dt float64) {
	target, ok := c.entity.FindEntity(c.cfg.Target)
	if !ok {
		return
	}

	idealPos, idealLook := c.Ideal(target)
	if !c.aimed {
		// Start looking at the target rather than sweeping in from the origin.
		c.lookAt = idealLook
		c.aimed = true
	}
	c.position = physics.Damp3(c.position, idealPos, c.cfg.Damping, dt, c.cfg.SnapEpsilon)
	c.lookAt = physics.Damp3(c.lookAt, idealLook, c.cfg.Damping, dt, c.cfg.SnapEpsilon)

	if view := c.lookAt.Sub(c.position); view.Len() > 1e-9 {
		c.rotation = physics.LookRotation(view)
	}

	c.entity.SetPosition(c.position)
	c.entity.SetRotation(c.rotation)
	if c.sink != nil {
		c.sink.SetCamera(c.Pose())
	}
}

// Ideal returns where the camera converges to for the target's current
// transform.
func (c *ThirdPersonCamera) Ideal(target *models.Entity) (position, lookAt mgl64.Vec3) {
	base := target.Position()
	position = base.Add(target.Rotation().Rotate(c.cfg.Offset))
	lookAt = base.Add(mgl64.Vec3{0, c.cfg.EyeHeight, 0})
	return position, lookAt
}

func (c *ThirdPersonCamera) Pose() CameraPose {
	return CameraPose{Position: c.position, LookAt: c.lookAt, Rotation: c.rotation}
}
