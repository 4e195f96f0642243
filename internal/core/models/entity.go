package models

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

var (
	ErrNilComponent = errors.New("models: nil component")
	ErrEmptyKind    = errors.New("models: component kind is empty")
)

// Range is an axis-aligned box that gameplay components keep the entity in.
type Range struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// Contains reports whether p lies inside r, bounds included.
func (r Range) Contains(p mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		lo, hi := r.Min[i], r.Max[i]
		if lo > hi {
			lo, hi = hi, lo
		}
		if p[i] < lo || p[i] > hi {
			return false
		}
	}
	return true
}

// Entity is a bundle of components sharing one transform.
//
// Entities are not safe for concurrent use; they are mutated only from the
// tick goroutine.
type Entity struct {
	id          ID
	name        string
	typ         string
	correlation uuid.UUID

	position mgl64.Vec3
	rotation mgl64.Quat
	bounds   *Range
	active   bool

	components []Component
	index      map[Kind]int
	handlers   map[MessageType][]handlerEntry
	initKind   Kind

	manager   *Manager
	destroyed bool
	doomed    bool
}

// NewEntity creates an active, unregistered entity of the given type tag at
// the origin.
func NewEntity(typ string) *Entity {
	return &Entity{
		typ:      typ,
		rotation: mgl64.QuatIdent(),
		active:   true,
		index:    make(map[Kind]int),
		handlers: make(map[MessageType][]handlerEntry),
	}
}

func (e *Entity) ID() ID                   { return e.id }
func (e *Entity) Name() string             { return e.name }
func (e *Entity) Type() string             { return e.typ }
func (e *Entity) CorrelationID() uuid.UUID { return e.correlation }
func (e *Entity) Position() mgl64.Vec3     { return e.position }
func (e *Entity) Rotation() mgl64.Quat     { return e.rotation }
func (e *Entity) Active() bool             { return e.active && !e.destroyed }

// Manager returns the registry the entity belongs to, or nil.
func (e *Entity) Manager() *Manager { return e.manager }

func (e *Entity) SetCorrelationID(id uuid.UUID) { e.correlation = id }

// SetActive toggles whether the manager ticks the entity and whether
// proximity queries report it.
func (e *Entity) SetActive(active bool) { e.active = active }

// SetRange constrains roaming to r.
func (e *Entity) SetRange(r Range) { e.bounds = &r }

// Range returns the roaming constraint, if any.
func (e *Entity) Range() (Range, bool) {
	if e.bounds == nil {
		return Range{}, false
	}
	return *e.bounds, true
}

// SetPosition moves the entity and notifies UpdatePosition subscribers before
// returning.
func (e *Entity) SetPosition(p mgl64.Vec3) {
	e.position = p
	e.Broadcast(Message{Type: UpdatePosition, Value: p})
}

// SetRotation rotates the entity and notifies UpdateRotation subscribers
// before returning.
func (e *Entity) SetRotation(q mgl64.Quat) {
	e.rotation = q
	e.Broadcast(Message{Type: UpdateRotation, Value: q})
}

// AddComponent registers c under its kind and initializes it. Adding a kind
// that is already present replaces the old instance in its original slot;
// the old instance is destroyed and its subscriptions dropped first. A
// component whose Init fails is not kept.
func (e *Entity) AddComponent(c Component) error {
	if c == nil {
		return ErrNilComponent
	}
	kind := c.Kind()
	if kind == "" {
		return ErrEmptyKind
	}

	i, replacing := e.index[kind]
	if replacing {
		old := e.components[i]
		e.dropHandlers(kind)
		if d, ok := old.(Destroyer); ok {
			d.Destroy()
		}
		e.components[i] = c
	} else {
		i = len(e.components)
		e.index[kind] = i
		e.components = append(e.components, c)
	}

	prev := e.initKind
	e.initKind = kind
	err := c.Init(e)
	e.initKind = prev
	if err != nil {
		e.dropHandlers(kind)
		e.removeAt(i)
		return fmt.Errorf("init component %q: %w", kind, err)
	}
	return nil
}

// Component returns the component registered under kind.
func (e *Entity) Component(kind Kind) (Component, bool) {
	i, ok := e.index[kind]
	if !ok {
		return nil, false
	}
	return e.components[i], true
}

// Components returns the components in add order.
func (e *Entity) Components() []Component {
	out := make([]Component, len(e.components))
	copy(out, e.components)
	return out
}

// Subscribe registers handler for messages of type t. Subscriptions made from
// a component's Init belong to that component and are dropped when it is
// replaced.
func (e *Entity) Subscribe(t MessageType, handler Handler) {
	if handler == nil {
		return
	}
	e.handlers[t] = append(e.handlers[t], handlerEntry{owner: e.initKind, handler: handler})
}

// Broadcast delivers msg to every subscriber of its type in subscription
// order.
func (e *Entity) Broadcast(msg Message) {
	for _, h := range e.handlers[msg.Type] {
		h.handler(msg)
	}
}

// FindEntity looks up another entity by name through the owning manager.
func (e *Entity) FindEntity(name string) (*Entity, bool) {
	if e.manager == nil {
		return nil, false
	}
	return e.manager.Get(name)
}

// Update ticks the components in add order. Components added during the
// pass run from the next tick.
func (e *Entity) Update(dt float64) {
	n := len(e.components)
	for i := 0; i < n && i < len(e.components) && !e.destroyed; i++ {
		e.components[i].Update(dt)
	}
}

func (e *Entity) removeAt(i int) {
	delete(e.index, e.components[i].Kind())
	e.components = append(e.components[:i], e.components[i+1:]...)
	for j := i; j < len(e.components); j++ {
		e.index[e.components[j].Kind()] = j
	}
}

func (e *Entity) dropHandlers(owner Kind) {
	for t, list := range e.handlers {
		kept := list[:0:0]
		for _, h := range list {
			if h.owner != owner {
				kept = append(kept, h)
			}
		}
		if len(kept) == 0 {
			delete(e.handlers, t)
		} else {
			e.handlers[t] = kept
		}
	}
}

// destroy runs the Destroyer hooks in reverse add order and detaches the
// entity from its subscriptions.
func (e *Entity) destroy() {
	if e.destroyed {
		return
	}
	for i := len(e.components) - 1; i >= 0; i-- {
		if d, ok := e.components[i].(Destroyer); ok {
			d.Destroy()
		}
	}
	e.destroyed = true
	e.handlers = make(map[MessageType][]handlerEntry)
}
