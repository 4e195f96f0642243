package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/zoowalk/internal/config"
	"github.com/zeusync/zoowalk/internal/core/components"
	"github.com/zeusync/zoowalk/internal/core/events/bus"
	"github.com/zeusync/zoowalk/internal/core/observability/log"
	"github.com/zeusync/zoowalk/internal/core/system"
	"github.com/zeusync/zoowalk/internal/scene"
)

const manifest = `
models:
  hero: {path: m/, name: hero.glb}
  lion: {path: m/, name: lion.glb}
placements:
  - {name: lion, type: animal, model: lion, position: [2, 0, 2]}
player: {model: hero}
`

type frames struct {
	mu    sync.Mutex
	count int
	ready chan struct{}
	once  sync.Once
}

func (f *frames) OnFrame(system.Frame) {
	f.mu.Lock()
	f.count++
	n := f.count
	f.mu.Unlock()
	if n >= 3 {
		f.once.Do(func() { close(f.ready) })
	}
}

type nodes struct{ next components.NodeID }

func (n *nodes) Attach(components.MeshHandle, components.Transform) components.NodeID {
	n.next++
	return n.next
}
func (n *nodes) Detach(components.NodeID)                             {}
func (n *nodes) Move(components.NodeID, components.Transform)         {}
func (n *nodes) Blend(components.NodeID, components.AnimationWeights) {}
func (n *nodes) Load(p, name string) (components.MeshHandle, error) {
	return components.MeshHandle(p + name), nil
}

type keys struct{}

func (keys) Keys() components.KeyState { return components.KeyState{} }

var errHostFailed = errors.New("host failed")

func newRuntime(t *testing.T, fe Frontend) *Runtime {
	t.Helper()
	cfg := config.Default()
	logger := log.NewNop()
	events, release := ProvideBus(logger)
	t.Cleanup(release)

	grid, err := ProvideGrid(cfg)
	require.NoError(t, err)
	manager, cleanup := ProvideManager(logger, events)
	t.Cleanup(cleanup)

	m, err := scene.Parse([]byte(manifest))
	require.NoError(t, err)
	world, err := ProvideWorld(cfg, m, manager, grid, fe, events, logger)
	require.NoError(t, err)
	sched, err := ProvideScheduler(cfg, manager, world, fe, logger)
	require.NoError(t, err)
	return NewRuntime(logger, manager, world, sched, fe)
}

func TestRunStopsWhenFrontendFails(t *testing.T) {
	f := &frames{ready: make(chan struct{})}
	n := &nodes{}
	var status []string
	var statusMu sync.Mutex
	fe := Frontend{
		Name:     "test",
		Scene:    n,
		Assets:   n,
		Keys:     keys{},
		Observer: f,
		Status: func(s string) {
			statusMu.Lock()
			status = append(status, s)
			statusMu.Unlock()
		},
		Run: func(ctx context.Context) error {
			select {
			case <-f.ready:
				return errHostFailed
			case <-ctx.Done():
				return nil
			}
		},
	}
	rt := newRuntime(t, fe)

	done := make(chan error, 1)
	go func() { done <- rt.Run(context.Background()) }()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, errHostFailed)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.GreaterOrEqual(t, rt.Scheduler.Ticks(), uint64(3))

	statusMu.Lock()
	defer statusMu.Unlock()
	require.NotEmpty(t, status)
	assert.Contains(t, status[0], "pos (0.0, 0.0)")
	assert.Contains(t, status[0], "near lion")
}

func TestRunReturnsNilOnCancel(t *testing.T) {
	n := &nodes{}
	rt := newRuntime(t, Frontend{Name: "test", Scene: n, Assets: n, Keys: keys{}})
	assert.Equal(t, mgl64.Vec3{}, rt.World.Player.Position())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NoError(t, rt.Run(ctx))
}

func TestBusObserverLogsSlowAndFailedDeliveries(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	events, release := ProvideBus(log.FromZap(zap.New(core)))
	defer release()

	boom := errors.New("boom")
	_, _ = events.Subscribe("fast", func(bus.Event) error { return nil })
	_, _ = events.Subscribe("slow", func(bus.Event) error {
		time.Sleep(2 * slowDelivery)
		return nil
	})
	_, _ = events.Subscribe("broken", func(bus.Event) error { return boom })

	_ = events.Publish(bus.NewEvent("fast", "test", nil))
	assert.Zero(t, logs.Len())

	_ = events.Publish(bus.NewEvent("slow", "test", nil))
	require.Equal(t, 1, logs.FilterMessage("slow event delivery").Len())
	assert.Equal(t, "slow", logs.FilterMessage("slow event delivery").All()[0].ContextMap()["event"])

	_ = events.Publish(bus.NewEvent("broken", "test", nil))
	assert.Equal(t, 1, logs.FilterMessage("event handler failed").Len())

	release()
	_ = events.Publish(bus.NewEvent("slow", "test", nil))
	assert.Equal(t, 1, logs.FilterMessage("slow event delivery").Len())
	assert.EqualValues(t, 4, events.Metrics().Published)
}
