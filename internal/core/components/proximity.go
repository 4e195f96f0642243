package components

import (
	"slices"

	"github.com/zeusync/zoowalk/internal/core/events/bus"
	"github.com/zeusync/zoowalk/internal/core/models"
	"github.com/zeusync/zoowalk/internal/core/observability/log"
	"github.com/zeusync/zoowalk/internal/core/physics"
)

// ProximityConfig selects which entities a ProximityTrigger reports.
type ProximityConfig struct {
	Radius float64
	// Types lists the watched entity type tags. Empty means "animal".
	Types []string
}

// ProximityTrigger reports watched entities entering and leaving a radius
// around its entity, and publishes an inspect request for the nearest one
// when the action key goes down. It needs a sibling SpatialGridController
// and reads the action edge from a sibling PlayerInput when present.
type ProximityTrigger struct {
	cfg  ProximityConfig
	opts Options

	entity  *models.Entity
	inside  map[*models.Entity]float64
	nearest *models.Entity
}

func NewProximityTrigger(cfg ProximityConfig, opts ...Option) *ProximityTrigger {
	if len(cfg.Types) == 0 {
		cfg.Types = []string{"animal"}
	}
	return &ProximityTrigger{
		cfg:    cfg,
		opts:   newOptions("proximity", opts),
		inside: make(map[*models.Entity]float64),
	}
}

func (p *ProximityTrigger) Kind() models.Kind { return KindProximity }

func (p *ProximityTrigger) Init(e *models.Entity) error {
	p.entity = e
	return nil
}

func (p *ProximityTrigger) Update(float64) {
	grid, ok := models.Get[*SpatialGridController](p.entity, KindSpatialGrid)
	if !ok {
		return
	}

	self := physics.Planar(p.entity.Position())
	current := make(map[*models.Entity]float64)
	for _, other := range grid.FindNearby(p.cfg.Radius) {
		if !slices.Contains(p.cfg.Types, other.Type()) {
			continue
		}
		if d := physics.Distance2(self, physics.Planar(other.Position())); d <= p.cfg.Radius {
			current[other] = d
		}
	}

	for _, other := range sortedByID(p.inside) {
		if _, still := current[other]; !still {
			p.emit(bus.ProximityLeft, other, p.inside[other])
		}
	}
	for _, other := range sortedByID(current) {
		if _, was := p.inside[other]; !was {
			p.emit(bus.ProximityEntered, other, current[other])
		}
	}
	p.inside = current

	p.nearest = nil
	best := 0.0
	for _, other := range sortedByID(current) {
		if d := current[other]; p.nearest == nil || d < best {
			p.nearest, best = other, d
		}
	}

	in, ok := models.Get[*PlayerInput](p.entity, KindPlayerInput)
	if ok && in.Intent().ActionPressed && p.nearest != nil {
		p.emit(bus.ExhibitInspect, p.nearest, best)
	}
}

// Nearest returns the closest watched entity inside the radius.
func (p *ProximityTrigger) Nearest() (*models.Entity, bool) {
	return p.nearest, p.nearest != nil
}

// Inside lists the watched entities inside the radius ordered by handle.
func (p *ProximityTrigger) Inside() []*models.Entity {
	return sortedByID(p.inside)
}

func (p *ProximityTrigger) emit(typ string, target *models.Entity, distance float64) {
	p.opts.Logger.Debug("proximity", log.String("event", typ), log.String("target", displayName(target)))
	p.opts.publish(typ, displayName(p.entity), bus.Proximity{
		Source:        displayName(p.entity),
		Target:        displayName(target),
		TargetType:    target.Type(),
		CorrelationID: target.CorrelationID(),
		Distance:      distance,
	})
}

func sortedByID(set map[*models.Entity]float64) []*models.Entity {
	out := make([]*models.Entity, 0, len(set))
	for e := range set {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *models.Entity) int {
		switch {
		case a.ID() < b.ID():
			return -1
		case a.ID() > b.ID():
			return 1
		default:
			return 0
		}
	})
	return out
}
