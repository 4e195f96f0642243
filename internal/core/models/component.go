package models

// Kind names a component variant. An entity holds at most one component per
// kind.
type Kind string

// Component is a unit of behaviour owned by one entity.
//
// Init runs once when the component is added and receives the owning entity.
// Components that react to sibling changes call Entity.Subscribe from Init.
// Update runs every tick the entity is active.
type Component interface {
	Kind() Kind
	Init(e *Entity) error
	Update(dt float64)
}

// Destroyer is implemented by components that release external resources
// when they are replaced or their entity is destroyed.
type Destroyer interface {
	Destroy()
}

// Get returns the component of kind on e asserted to T.
func Get[T Component](e *Entity, kind Kind) (T, bool) {
	var zero T
	if e == nil {
		return zero, false
	}
	c, ok := e.Component(kind)
	if !ok {
		return zero, false
	}
	t, ok := c.(T)
	return t, ok
}
