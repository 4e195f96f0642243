package server

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/zoowalk/internal/core/components"
)

// MessageType tags every JSON message exchanged over /ws.
type MessageType string

const (
	// Server to client.
	MessageSnapshot MessageType = "snapshot"
	MessageFrame    MessageType = "frame"
	MessageEvent    MessageType = "event"

	// Client to server.
	MessageKeys MessageType = "keys"
)

// Node is the wire form of a scene graph node. Rotation is x, y, z, w.
type Node struct {
	ID       components.NodeID            `json:"id"`
	Mesh     components.MeshHandle        `json:"mesh,omitempty"`
	Position [3]float64                   `json:"position"`
	Rotation [4]float64                   `json:"rotation"`
	Scale    float64                      `json:"scale"`
	Weights  *components.AnimationWeights `json:"weights,omitempty"`
}

// Camera is the wire form of a camera pose.
type Camera struct {
	Position [3]float64 `json:"position"`
	LookAt   [3]float64 `json:"look_at"`
	Rotation [4]float64 `json:"rotation"`
}

// Event is a bus event forwarded to clients.
type Event struct {
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// Outbound is every message the server sends. Fields not used by a given
// type are omitted.
type Outbound struct {
	Type MessageType `json:"type"`
	Tick uint64      `json:"tick"`
	Time float64     `json:"time,omitempty"`

	// Nodes is the full node table in a snapshot.
	Nodes []Node `json:"nodes,omitempty"`

	// Frame deltas, in the order they apply.
	Attached []Node              `json:"attached,omitempty"`
	Moved    []Node              `json:"moved,omitempty"`
	Detached []components.NodeID `json:"detached,omitempty"`

	Camera *Camera `json:"camera,omitempty"`
	Event  *Event  `json:"event,omitempty"`
}

// Inbound is what clients send.
type Inbound struct {
	Type MessageType         `json:"type"`
	Keys components.KeyState `json:"keys"`
}

func vec3(v mgl64.Vec3) [3]float64 { return [3]float64(v) }

func quat(q mgl64.Quat) [4]float64 { return [4]float64{q.X(), q.Y(), q.Z(), q.W} }

func cameraOf(p components.CameraPose) *Camera {
	return &Camera{Position: vec3(p.Position), LookAt: vec3(p.LookAt), Rotation: quat(p.Rotation)}
}
