package components

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/zoowalk/internal/core/models"
)

func TestModelRendererMirrorsTransform(t *testing.T) {
	scene := newFakeScene()
	loader := fakeLoader{"./model/animals/Lion.glb": "lion-mesh"}

	e := models.NewEntity("animal")
	e.SetPosition(mgl64.Vec3{3, 0, 4})
	r := NewModelRenderer(scene, loader, ModelConfig{Path: "./model/animals/", Name: "Lion.glb", Scale: 2})
	require.NoError(t, e.AddComponent(r))

	node, ok := r.Node()
	require.True(t, ok)
	assert.Equal(t, MeshHandle("lion-mesh"), r.Mesh())
	assert.Equal(t, mgl64.Vec3{3, 0, 4}, scene.nodes[node].Position)
	assert.Equal(t, 2.0, scene.nodes[node].Scale)

	e.SetPosition(mgl64.Vec3{5, 0, 5})
	assert.Equal(t, mgl64.Vec3{5, 0, 5}, scene.nodes[node].Position)
	q := mgl64.QuatRotate(0.5, mgl64.Vec3{0, 1, 0})
	e.SetRotation(q)
	assert.Equal(t, q, scene.nodes[node].Rotation)

	w := AnimationWeights{Idle: 0.25, Walk: 0.75}
	e.Broadcast(models.Message{Type: models.AnimationWeights, Value: w})
	assert.Equal(t, w, scene.blends[node])

	r.Destroy()
	r.Destroy()
	assert.Equal(t, []NodeID{node}, scene.detached)
	moves := scene.moves
	e.SetPosition(mgl64.Vec3{})
	assert.Equal(t, moves, scene.moves)
}

func TestModelRendererLoadFailure(t *testing.T) {
	scene := newFakeScene()
	e := models.NewEntity("tree")
	err := e.AddComponent(NewModelRenderer(scene, fakeLoader{}, ModelConfig{Path: "./model/", Name: "Missing.glb"}))
	assert.ErrorIs(t, err, errNoAsset)
	assert.Empty(t, scene.nodes)

	err = e.AddComponent(NewModelRenderer(nil, nil, ModelConfig{}))
	assert.ErrorIs(t, err, ErrNoSceneGraph)
}

func TestModelRendererDetachedWithEntity(t *testing.T) {
	scene := newFakeScene()
	m := newTestManager()
	e := models.NewEntity("tree")
	id, err := m.Add(e, "oak")
	require.NoError(t, err)
	require.NoError(t, e.AddComponent(NewModelRenderer(scene, fakeLoader{"a/b": "m"}, ModelConfig{Path: "a/", Name: "b"})))
	require.Len(t, scene.nodes, 1)

	require.NoError(t, m.Destroy(id))
	assert.Empty(t, scene.nodes)
}
