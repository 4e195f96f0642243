package components

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/zoowalk/internal/core/models"
	"github.com/zeusync/zoowalk/internal/core/physics"
	"github.com/zeusync/zoowalk/internal/core/spatial"
)

var ErrNoGrid = errors.New("components: spatial grid controller needs a grid")

// Grid is the spatial index shared by every SpatialGridController of a world.
type Grid = spatial.Grid[*models.Entity]

// SpatialGridController keeps its entity's grid membership in step with the
// entity position. Membership is updated from the UpdatePosition message so
// it is consistent as soon as SetPosition returns.
type SpatialGridController struct {
	grid   *Grid
	dims   mgl64.Vec2
	entity *models.Entity
	client *spatial.Client[*models.Entity]
}

// NewSpatialGridController indexes the entity with a box of dims (width,
// depth) on the XZ plane.
func NewSpatialGridController(grid *Grid, dims mgl64.Vec2) *SpatialGridController {
	return &SpatialGridController{grid: grid, dims: dims}
}

func (c *SpatialGridController) Kind() models.Kind { return KindSpatialGrid }

func (c *SpatialGridController) Init(e *models.Entity) error {
	if c.grid == nil {
		return ErrNoGrid
	}
	c.entity = e
	c.client = c.grid.Insert(e, physics.Planar(e.Position()), c.dims)
	e.Subscribe(models.UpdatePosition, func(msg models.Message) {
		if p, ok := msg.Value.(mgl64.Vec3); ok {
			c.grid.Update(c.client, physics.Planar(p))
		}
	})
	return nil
}

func (c *SpatialGridController) Update(float64) {}

func (c *SpatialGridController) Destroy() {
	if c.client != nil {
		c.grid.Remove(c.client)
	}
}

// Client exposes the grid handle.
func (c *SpatialGridController) Client() *spatial.Client[*models.Entity] { return c.client }

// FindNearby returns the active entities sharing a grid cell with the square
// of half width radius around this entity. The entity itself is excluded.
// The result may include entities slightly farther than radius.
func (c *SpatialGridController) FindNearby(radius float64) []*models.Entity {
	if c.client == nil || !c.client.Indexed() {
		return nil
	}
	found := c.grid.FindNearby(physics.Planar(c.entity.Position()), radius)
	out := make([]*models.Entity, 0, len(found))
	for _, client := range found {
		other := client.Value
		if other == c.entity || !other.Active() {
			continue
		}
		out = append(out, other)
	}
	return out
}
