package models

// MessageType routes intra-entity messages.
type MessageType string

const (
	// UpdatePosition carries the new mgl64.Vec3 position.
	UpdatePosition MessageType = "update_position"
	// UpdateRotation carries the new mgl64.Quat rotation.
	UpdateRotation MessageType = "update_rotation"
	// AnimationState carries the new animation state name.
	AnimationState MessageType = "animation_state"
	// AnimationWeights carries the per-state cross-fade weights.
	AnimationWeights MessageType = "animation_weights"
)

type Message struct {
	Type  MessageType
	Value any
}

// Handler receives a broadcast message synchronously.
type Handler func(msg Message)

type handlerEntry struct {
	owner   Kind
	handler Handler
}
