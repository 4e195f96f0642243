package bus

import "github.com/google/uuid"

// World event types.
const (
	EntityAdded      = "entity.added"
	EntityRemoved    = "entity.removed"
	AnimationChanged = "animation.changed"
	ProximityEntered = "proximity.entered"
	ProximityLeft    = "proximity.left"
	ExhibitInspect   = "exhibit.inspect"
)

// EntityInfo is the payload of EntityAdded and EntityRemoved.
type EntityInfo struct {
	ID            uint64    `json:"id"`
	Name          string    `json:"name,omitempty"`
	Type          string    `json:"type,omitempty"`
	CorrelationID uuid.UUID `json:"correlation_id"`
}

// AnimationChange is the payload of AnimationChanged.
type AnimationChange struct {
	Entity string `json:"entity"`
	From   string `json:"from"`
	To     string `json:"to"`
}

// Proximity is the payload of ProximityEntered, ProximityLeft and
// ExhibitInspect.
type Proximity struct {
	Source        string    `json:"source"`
	Target        string    `json:"target"`
	TargetType    string    `json:"target_type,omitempty"`
	CorrelationID uuid.UUID `json:"correlation_id"`
	Distance      float64   `json:"distance"`
}
