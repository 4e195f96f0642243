package models

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/zoowalk/internal/core/events/bus"
	"github.com/zeusync/zoowalk/internal/core/observability/log"
)

var (
	ErrNilEntity          = errors.New("models: nil entity")
	ErrDuplicateName      = errors.New("models: entity name already registered")
	ErrAlreadyRegistered  = errors.New("models: entity already registered")
	ErrUnknownEntity      = errors.New("models: unknown entity")
	errGenerationOverflow = errors.New("models: arena exhausted")
)

const eventSource = "manager"

type slot struct {
	generation uint32
	entity     *Entity
}

// Manager is the registry of live entities for one world. It ticks them in
// insertion order and owns their teardown.
//
// Manager is not safe for concurrent use.
type Manager struct {
	logger log.Log
	events bus.Bus

	slots []slot
	free  []uint32
	order []*Entity
	names map[string]*Entity

	updating bool
	pending  []*Entity
}

// NewManager creates an empty manager. Both collaborators are optional.
func NewManager(logger log.Log, events bus.Bus) *Manager {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Manager{
		logger: logger.Named("entities"),
		events: events,
		names:  make(map[string]*Entity),
	}
}

// Add registers e under name and returns its handle. An empty name registers
// the entity anonymously. Entities added during Update are ticked from the
// next pass.
func (m *Manager) Add(e *Entity, name string) (ID, error) {
	if e == nil {
		return NoID, ErrNilEntity
	}
	if e.manager != nil || e.destroyed {
		return NoID, ErrAlreadyRegistered
	}
	if name != "" {
		if _, exists := m.names[name]; exists {
			return NoID, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
	}

	id, err := m.allocate(e)
	if err != nil {
		return NoID, err
	}

	e.id = id
	e.name = name
	e.manager = m
	m.order = append(m.order, e)
	if name != "" {
		m.names[name] = e
	}

	m.logger.Debug("entity added",
		log.Stringer("id", id),
		log.String("name", name),
		log.String("type", e.typ),
	)
	m.publish(m.event(bus.EntityAdded, e))
	return id, nil
}

// Get returns the entity registered under name.
func (m *Manager) Get(name string) (*Entity, bool) {
	e, ok := m.names[name]
	return e, ok
}

// Lookup resolves a handle. Handles of destroyed entities are rejected.
func (m *Manager) Lookup(id ID) (*Entity, bool) {
	idx := id.Index()
	if id == NoID || int(idx) >= len(m.slots) {
		return nil, false
	}
	s := m.slots[idx]
	if s.entity == nil || s.generation != id.Generation() {
		return nil, false
	}
	return s.entity, true
}

// Entities returns the registered entities in insertion order.
func (m *Manager) Entities() []*Entity {
	out := make([]*Entity, len(m.order))
	copy(out, m.order)
	return out
}

// Len returns the number of registered entities.
func (m *Manager) Len() int { return len(m.order) }

// Update ticks every active entity once, in insertion order.
func (m *Manager) Update(dt float64) {
	m.updating = true
	n := len(m.order)
	for i := 0; i < n; i++ {
		e := m.order[i]
		if !e.Active() || e.doomed {
			continue
		}
		e.Update(dt)
	}
	m.updating = false

	pending := m.pending
	m.pending = nil
	for _, e := range pending {
		m.publish(m.remove(e))
	}
}

// Destroy removes the entity behind id. Its components' Destroy hooks run,
// it leaves the name map and the tick order, and id becomes stale. During
// Update the removal is deferred to the end of the pass.
func (m *Manager) Destroy(id ID) error {
	e, ok := m.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, id)
	}
	if m.updating {
		if !e.doomed {
			e.doomed = true
			m.pending = append(m.pending, e)
		}
		return nil
	}
	m.publish(m.remove(e))
	return nil
}

// Close destroys every remaining entity in reverse insertion order.
func (m *Manager) Close() {
	removed := make([]bus.Event, 0, len(m.order))
	for len(m.order) > 0 {
		if ev := m.remove(m.order[len(m.order)-1]); ev != nil {
			removed = append(removed, ev)
		}
	}
	m.pending = nil

	if m.events == nil || len(removed) == 0 {
		return
	}
	if err := m.events.PublishBatch(removed...); err != nil {
		m.logger.Warn("entity event handler failed", log.String("event", bus.EntityRemoved), log.Error(err))
	}
}

// Digest hashes entity handles and transform bits in tick order. Two worlds
// with bit-identical state produce the same digest.
func (m *Manager) Digest() uint64 {
	h := xxhash.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}
	for _, e := range m.order {
		put(uint64(e.id))
		for _, v := range e.position {
			put(math.Float64bits(v))
		}
		put(math.Float64bits(e.rotation.W))
		for _, v := range e.rotation.V {
			put(math.Float64bits(v))
		}
	}
	return h.Sum64()
}

func (m *Manager) allocate(e *Entity) (ID, error) {
	if n := len(m.free); n > 0 {
		idx := m.free[n-1]
		m.free = m.free[:n-1]
		s := &m.slots[idx]
		s.entity = e
		return newID(idx, s.generation), nil
	}
	if uint64(len(m.slots)) > math.MaxUint32 {
		return NoID, errGenerationOverflow
	}
	idx := uint32(len(m.slots))
	m.slots = append(m.slots, slot{generation: 1, entity: e})
	return newID(idx, 1), nil
}

// remove unregisters e and returns the EntityRemoved event for the caller to
// publish, or nil if e was not registered here.
func (m *Manager) remove(e *Entity) bus.Event {
	if e.manager != m {
		return nil
	}
	id := e.id

	e.destroy()

	if e.name != "" && m.names[e.name] == e {
		delete(m.names, e.name)
	}
	for i, other := range m.order {
		if other == e {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}

	idx := id.Index()
	s := &m.slots[idx]
	s.entity = nil
	s.generation++
	if s.generation == 0 {
		s.generation = 1
	}
	m.free = append(m.free, idx)

	e.manager = nil
	e.doomed = false

	m.logger.Debug("entity removed", log.Stringer("id", id), log.String("name", e.name))
	return m.event(bus.EntityRemoved, e)
}

func (m *Manager) event(typ string, e *Entity) bus.Event {
	if m.events == nil {
		return nil
	}
	return bus.NewEvent(typ, eventSource, bus.EntityInfo{
		ID:            uint64(e.id),
		Name:          e.name,
		Type:          e.typ,
		CorrelationID: e.correlation,
	})
}

func (m *Manager) publish(ev bus.Event) {
	if m.events == nil || ev == nil {
		return
	}
	if err := m.events.Publish(ev); err != nil {
		m.logger.Warn("entity event handler failed", log.String("event", ev.Type()), log.Error(err))
	}
}
