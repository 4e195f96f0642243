package components

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/zoowalk/internal/core/models"
)

// Intent is the movement request derived from one key-state snapshot.
type Intent struct {
	Forward  bool
	Backward bool
	Left     bool
	Right    bool
	Sprint   bool
	Action   bool
	// ActionPressed is true only on the tick Action went down.
	ActionPressed bool
}

// Moving reports whether any direction key contributes movement.
func (i Intent) Moving() bool {
	return i.Direction() != (mgl64.Vec2{})
}

// Direction is the normalized planar world direction (X, Z) of the intent.
// Forward is +Z and left is +X. Opposing keys cancel.
func (i Intent) Direction() mgl64.Vec2 {
	var d mgl64.Vec2
	if i.Forward {
		d[1]++
	}
	if i.Backward {
		d[1]--
	}
	if i.Left {
		d[0]++
	}
	if i.Right {
		d[0]--
	}
	if d == (mgl64.Vec2{}) {
		return d
	}
	return d.Normalize()
}

// PlayerInput polls the key source once per tick. It must be added before
// the PlayerController so the intent is fresh when the controller runs.
type PlayerInput struct {
	source KeySource
	intent Intent
}

func NewPlayerInput(source KeySource) *PlayerInput {
	return &PlayerInput{source: source}
}

func (p *PlayerInput) Kind() models.Kind { return KindPlayerInput }

func (p *PlayerInput) Init(*models.Entity) error { return nil }

func (p *PlayerInput) Update(float64) {
	var keys KeyState
	if p.source != nil {
		keys = p.source.Keys()
	}
	wasDown := p.intent.Action
	p.intent = Intent{
		Forward:       keys.Forward,
		Backward:      keys.Backward,
		Left:          keys.Left,
		Right:         keys.Right,
		Sprint:        keys.Sprint,
		Action:        keys.Action,
		ActionPressed: keys.Action && !wasDown,
	}
}

// Intent returns the intent computed by the last Update.
func (p *PlayerInput) Intent() Intent { return p.intent }
