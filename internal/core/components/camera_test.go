package components

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/zoowalk/internal/core/models"
	"github.com/zeusync/zoowalk/internal/core/physics"
)

func newCameraWorld(t *testing.T, sink CameraSink) (*models.Manager, *models.Entity, *ThirdPersonCamera) {
	t.Helper()
	m := newTestManager()
	player := models.NewEntity("player")
	player.SetPosition(mgl64.Vec3{10, 0, 10})
	_, err := m.Add(player, "player")
	require.NoError(t, err)

	camEntity := models.NewEntity("camera")
	_, err = m.Add(camEntity, "camera")
	require.NoError(t, err)
	cam := NewThirdPersonCamera(DefaultCameraConfig("player"), sink)
	require.NoError(t, camEntity.AddComponent(cam))
	return m, player, cam
}

func TestCameraConvergesUnderVariableStep(t *testing.T) {
	steps := map[string][]float64{
		"144hz":  {1.0 / 144},
		"60hz":   {1.0 / 60},
		"30hz":   {1.0 / 30},
		"jitter": {0.004, 1.0 / 30, 0.011, 0.02},
	}
	for name, pattern := range steps {
		t.Run(name, func(t *testing.T) {
			_, player, cam := newCameraWorld(t, nil)
			wantPos, wantLook := cam.Ideal(player)

			elapsed := 0.0
			ticks := 0
			for elapsed < 5 {
				dt := pattern[ticks%len(pattern)]
				cam.Update(dt)
				elapsed += dt
				ticks++
			}
			assert.Less(t, ticks, 1000)
			assert.Equal(t, wantPos, cam.Pose().Position)
			assert.Equal(t, wantLook, cam.Pose().LookAt)
		})
	}
}

func TestCameraBlendIsFrameRateIndependent(t *testing.T) {
	_, _, fine := newCameraWorld(t, nil)
	_, _, coarse := newCameraWorld(t, nil)

	for i := 0; i < 100; i++ {
		fine.Update(0.005)
	}
	for i := 0; i < 5; i++ {
		coarse.Update(0.1)
	}
	a, b := fine.Pose().Position, coarse.Pose().Position
	assert.InDelta(t, 0, a.Sub(b).Len(), 1e-9)
}

func TestCameraFollowsTargetHeading(t *testing.T) {
	_, player, cam := newCameraWorld(t, nil)
	player.SetRotation(physics.YawQuat(math.Pi / 2))

	pos, look := cam.Ideal(player)
	assert.InDelta(t, 0, pos.X(), 1e-9)
	assert.InDelta(t, 5, pos.Y(), 1e-9)
	assert.InDelta(t, 10, pos.Z(), 1e-9)
	assert.Equal(t, mgl64.Vec3{10, 1.5, 10}, look)
}

func TestCameraPushesPoseAndMovesEntity(t *testing.T) {
	sink := &fakeSink{}
	m, _, cam := newCameraWorld(t, sink)

	m.Update(1.0 / 60)
	require.Len(t, sink.poses, 1)
	camEntity, _ := m.Get("camera")
	assert.Equal(t, cam.Pose().Position, camEntity.Position())

	// The orientation looks from the camera toward the look-at point.
	pose := sink.poses[0]
	forward := pose.Rotation.Rotate(mgl64.Vec3{0, 0, 1})
	toward := pose.LookAt.Sub(pose.Position).Normalize()
	assert.InDelta(t, 1, forward.Dot(toward), 1e-9)
}

func TestCameraWithoutTargetIsNoop(t *testing.T) {
	sink := &fakeSink{}
	m := newTestManager()
	e := models.NewEntity("camera")
	_, _ = m.Add(e, "camera")
	cam := NewThirdPersonCamera(DefaultCameraConfig("nobody"), sink)
	require.NoError(t, e.AddComponent(cam))

	m.Update(0.1)
	assert.Empty(t, sink.poses)
	assert.Equal(t, mgl64.Vec3{}, e.Position())
}
