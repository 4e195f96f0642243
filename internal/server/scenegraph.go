package server

import (
	"slices"
	"sync"

	"github.com/zeusync/zoowalk/internal/core/components"
)

var (
	_ components.SceneGraph = (*SceneTable)(nil)
	_ components.CameraSink = (*SceneTable)(nil)
)

type node struct {
	mesh      components.MeshHandle
	transform components.Transform
	weights   components.AnimationWeights
	blended   bool

	// pending frame flags
	added   bool
	changed bool
}

func (n *node) wire(id components.NodeID) Node {
	out := Node{
		ID:       id,
		Mesh:     n.mesh,
		Position: vec3(n.transform.Position),
		Rotation: quat(n.transform.Rotation),
		Scale:    n.transform.Scale,
	}
	if n.blended {
		w := n.weights
		out.Weights = &w
	}
	return out
}

// SceneTable is the remote scene graph: a node table written by the tick
// goroutine and turned into per-frame deltas for websocket clients.
type SceneTable struct {
	mu    sync.Mutex
	next  components.NodeID
	nodes map[components.NodeID]*node

	// touched lists nodes with pending flags in first-touch order.
	touched  []components.NodeID
	detached []components.NodeID

	camera      components.CameraPose
	hasCamera   bool
	cameraDirty bool
}

func NewSceneTable() *SceneTable {
	return &SceneTable{nodes: make(map[components.NodeID]*node)}
}

func (t *SceneTable) Attach(mesh components.MeshHandle, tr components.Transform) components.NodeID {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.next++
	id := t.next
	t.nodes[id] = &node{mesh: mesh, transform: tr, added: true}
	t.touched = append(t.touched, id)
	return id
}

func (t *SceneTable) Detach(id components.NodeID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.nodes[id]
	if !ok {
		return
	}
	delete(t.nodes, id)
	// A node attached and detached within one frame is never sent.
	if !n.added {
		t.detached = append(t.detached, id)
	}
}

func (t *SceneTable) Move(id components.NodeID, tr components.Transform) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n, ok := t.nodes[id]; ok {
		n.transform = tr
		t.touch(id, n)
	}
}

func (t *SceneTable) Blend(id components.NodeID, w components.AnimationWeights) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n, ok := t.nodes[id]; ok {
		n.weights = w
		n.blended = true
		t.touch(id, n)
	}
}

func (t *SceneTable) SetCamera(pose components.CameraPose) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.camera = pose
	t.hasCamera = true
	t.cameraDirty = true
}

// Len returns the number of attached nodes.
func (t *SceneTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.nodes)
}

// Node returns the current state of one node.
func (t *SceneTable) Node(id components.NodeID) (Node, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.wire(id), true
}

func (t *SceneTable) touch(id components.NodeID, n *node) {
	if !n.added && !n.changed {
		t.touched = append(t.touched, id)
	}
	n.changed = true
}

// Frame drains the pending changes into a frame message and hands it to fn
// while the table is still locked, so no change can slip between the frame
// and whatever fn does with it.
func (t *SceneTable) Frame(tick uint64, now float64, fn func(Outbound)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	msg := Outbound{Type: MessageFrame, Tick: tick, Time: now}
	for _, id := range t.touched {
		n, ok := t.nodes[id]
		if !ok {
			continue
		}
		if n.added {
			msg.Attached = append(msg.Attached, n.wire(id))
		} else if n.changed {
			msg.Moved = append(msg.Moved, n.wire(id))
		}
		n.added, n.changed = false, false
	}
	msg.Detached = t.detached
	if t.cameraDirty {
		msg.Camera = cameraOf(t.camera)
	}

	t.touched = t.touched[:0]
	t.detached = nil
	t.cameraDirty = false
	fn(msg)
}

// Snapshot hands fn the full table under the lock. Pending changes stay
// pending, so clients apply attached nodes as upserts and ignore detaches of
// nodes they do not know.
func (t *SceneTable) Snapshot(tick uint64, fn func(Outbound)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	msg := Outbound{Type: MessageSnapshot, Tick: tick, Nodes: make([]Node, 0, len(t.nodes))}
	ids := make([]components.NodeID, 0, len(t.nodes))
	for id := range t.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		msg.Nodes = append(msg.Nodes, t.nodes[id].wire(id))
	}
	if t.hasCamera {
		msg.Camera = cameraOf(t.camera)
	}
	fn(msg)
}
