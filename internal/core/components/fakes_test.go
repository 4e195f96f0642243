package components

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/zoowalk/internal/core/models"
	"github.com/zeusync/zoowalk/internal/core/observability/log"
	"github.com/zeusync/zoowalk/internal/core/spatial"
)

type fakeScene struct {
	next     NodeID
	nodes    map[NodeID]Transform
	blends   map[NodeID]AnimationWeights
	detached []NodeID
	moves    int
}

func newFakeScene() *fakeScene {
	return &fakeScene{nodes: make(map[NodeID]Transform), blends: make(map[NodeID]AnimationWeights)}
}

func (s *fakeScene) Attach(_ MeshHandle, t Transform) NodeID {
	s.next++
	s.nodes[s.next] = t
	return s.next
}

func (s *fakeScene) Detach(n NodeID) {
	delete(s.nodes, n)
	s.detached = append(s.detached, n)
}

func (s *fakeScene) Move(n NodeID, t Transform) {
	s.moves++
	s.nodes[n] = t
}

func (s *fakeScene) Blend(n NodeID, w AnimationWeights) { s.blends[n] = w }

var errNoAsset = errors.New("no such asset")

type fakeLoader map[string]MeshHandle

func (l fakeLoader) Load(path, name string) (MeshHandle, error) {
	if h, ok := l[path+name]; ok {
		return h, nil
	}
	return "", errNoAsset
}

type fakeKeys struct{ state KeyState }

func (k *fakeKeys) Keys() KeyState { return k.state }

type fakeSink struct {
	poses []CameraPose
}

func (s *fakeSink) SetCamera(p CameraPose) { s.poses = append(s.poses, p) }

func newTestGrid(t *testing.T) *Grid {
	t.Helper()
	g, err := spatial.NewGrid[*models.Entity](spatial.Bounds{Min: mgl64.Vec2{-100, -100}, Max: mgl64.Vec2{100, 100}}, 10, 10)
	require.NoError(t, err)
	return g
}

func newTestManager() *models.Manager {
	return models.NewManager(log.NewNop(), nil)
}

// newPlayer builds a player entity with input and controller registered in
// a fresh manager.
func newPlayer(t *testing.T, keys KeySource, cfg ControllerConfig, opts ...Option) (*models.Entity, *PlayerController) {
	t.Helper()
	m := newTestManager()
	e := models.NewEntity("player")
	_, err := m.Add(e, "player")
	require.NoError(t, err)
	require.NoError(t, e.AddComponent(NewPlayerInput(keys)))
	ctrl := NewPlayerController(cfg, opts...)
	require.NoError(t, e.AddComponent(ctrl))
	return e, ctrl
}
