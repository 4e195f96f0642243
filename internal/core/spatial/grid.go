// Package spatial implements a uniform hash grid over a bounded plane for
// proximity queries.
//
// The grid is not safe for concurrent use. It is owned by the tick goroutine
// together with the entities whose controllers keep it in sync.
package spatial

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrInvalidDimensions = errors.New("spatial: cell counts must be positive")
	ErrInvalidBounds     = errors.New("spatial: bounds must have positive extent")
)

// Bounds is an axis-aligned rectangle on the grid plane.
type Bounds struct {
	Min mgl64.Vec2
	Max mgl64.Vec2
}

// Extent returns Max - Min.
func (b Bounds) Extent() mgl64.Vec2 {
	return b.Max.Sub(b.Min)
}

// Cell identifies a grid bucket by integer column and row.
type Cell struct {
	X, Y int
}

// cellRange is an inclusive rectangle of cells.
type cellRange struct {
	min, max Cell
}

// Client is the handle returned by Insert. It carries the indexed value and
// the cached cell range used for O(1) update and removal.
type Client[T any] struct {
	Value T

	position mgl64.Vec2
	dims     mgl64.Vec2
	cells    cellRange
	queryID  uint64
	indexed  bool
}

// Position returns the position last recorded by Insert or Update.
func (c *Client[T]) Position() mgl64.Vec2 { return c.position }

// Dimensions returns the width and depth of the client's bounding box.
func (c *Client[T]) Dimensions() mgl64.Vec2 { return c.dims }

// Indexed reports whether the client is currently stored in the grid.
func (c *Client[T]) Indexed() bool { return c.indexed }

// Grid maps occupied cells to the set of clients overlapping them.
type Grid[T any] struct {
	bounds   Bounds
	cols     int
	rows     int
	cellSize mgl64.Vec2

	cells   map[Cell]map[*Client[T]]struct{}
	clients int
	queryID uint64
}

// NewGrid creates a grid of cols x rows cells covering bounds.
func NewGrid[T any](bounds Bounds, cols, rows int) (*Grid[T], error) {
	if cols <= 0 || rows <= 0 {
		return nil, ErrInvalidDimensions
	}
	extent := bounds.Extent()
	if !(extent.X() > 0) || !(extent.Y() > 0) {
		return nil, ErrInvalidBounds
	}

	return &Grid[T]{
		bounds:   bounds,
		cols:     cols,
		rows:     rows,
		cellSize: mgl64.Vec2{extent.X() / float64(cols), extent.Y() / float64(rows)},
		cells:    make(map[Cell]map[*Client[T]]struct{}),
	}, nil
}

// Bounds returns the grid rectangle.
func (g *Grid[T]) Bounds() Bounds { return g.bounds }

// Dimensions returns the column and row counts.
func (g *Grid[T]) Dimensions() (cols, rows int) { return g.cols, g.rows }

// CellSize returns the extent of one cell on each axis.
func (g *Grid[T]) CellSize() mgl64.Vec2 { return g.cellSize }

// Len returns the number of indexed clients.
func (g *Grid[T]) Len() int { return g.clients }

// CellOf returns the cell containing position. Positions outside the bounds
// are clamped to the nearest edge cell.
func (g *Grid[T]) CellOf(position mgl64.Vec2) Cell {
	return Cell{
		X: clampIndex((position.X()-g.bounds.Min.X())/g.cellSize.X(), g.cols),
		Y: clampIndex((position.Y()-g.bounds.Min.Y())/g.cellSize.Y(), g.rows),
	}
}

// Insert indexes value with a bounding box of dims centred on position.
func (g *Grid[T]) Insert(value T, position, dims mgl64.Vec2) *Client[T] {
	c := &Client[T]{
		Value:    value,
		position: position,
		dims:     dims,
	}
	g.insert(c)
	return c
}

// Update moves client to position. When the covered cell range is unchanged
// only the cached position is refreshed.
func (g *Grid[T]) Update(c *Client[T], position mgl64.Vec2) {
	if c == nil || !c.indexed {
		return
	}
	c.position = position
	next := g.rangeOf(position, c.dims)
	if next == c.cells {
		return
	}
	g.remove(c)
	g.insert(c)
}

// Remove deletes client from every cell it occupies. Removing a client that
// is not indexed does nothing.
func (g *Grid[T]) Remove(c *Client[T]) {
	if c == nil || !c.indexed {
		return
	}
	g.remove(c)
}

// FindNearby returns the clients whose cells intersect the square of half
// width radius around position. The result is a superset of the clients
// within radius; callers filter by exact distance when they need to.
func (g *Grid[T]) FindNearby(position mgl64.Vec2, radius float64) []*Client[T] {
	radius = math.Abs(radius)
	return g.FindNear(position, mgl64.Vec2{2 * radius, 2 * radius})
}

// FindNear returns the clients occupying any cell overlapped by the box of
// dims centred on position. Each client is reported once.
func (g *Grid[T]) FindNear(position, dims mgl64.Vec2) []*Client[T] {
	r := g.rangeOf(position, dims)
	g.queryID++
	query := g.queryID

	result := make([]*Client[T], 0)
	for x := r.min.X; x <= r.max.X; x++ {
		for y := r.min.Y; y <= r.max.Y; y++ {
			for c := range g.cells[Cell{X: x, Y: y}] {
				if c.queryID == query {
					continue
				}
				c.queryID = query
				result = append(result, c)
			}
		}
	}
	return result
}

// Cells lists the cells client currently occupies.
func (g *Grid[T]) Cells(c *Client[T]) []Cell {
	if c == nil || !c.indexed {
		return nil
	}
	out := make([]Cell, 0, (c.cells.max.X-c.cells.min.X+1)*(c.cells.max.Y-c.cells.min.Y+1))
	for x := c.cells.min.X; x <= c.cells.max.X; x++ {
		for y := c.cells.min.Y; y <= c.cells.max.Y; y++ {
			out = append(out, Cell{X: x, Y: y})
		}
	}
	return out
}

// Occupants returns the clients stored in cell, in no particular order.
func (g *Grid[T]) Occupants(cell Cell) []*Client[T] {
	set := g.cells[cell]
	out := make([]*Client[T], 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// OccupiedCells returns every cell holding at least one client.
func (g *Grid[T]) OccupiedCells() []Cell {
	out := make([]Cell, 0, len(g.cells))
	for cell := range g.cells {
		out = append(out, cell)
	}
	return out
}

func (g *Grid[T]) insert(c *Client[T]) {
	c.cells = g.rangeOf(c.position, c.dims)
	for x := c.cells.min.X; x <= c.cells.max.X; x++ {
		for y := c.cells.min.Y; y <= c.cells.max.Y; y++ {
			key := Cell{X: x, Y: y}
			set := g.cells[key]
			if set == nil {
				set = make(map[*Client[T]]struct{})
				g.cells[key] = set
			}
			set[c] = struct{}{}
		}
	}
	c.indexed = true
	g.clients++
}

func (g *Grid[T]) remove(c *Client[T]) {
	for x := c.cells.min.X; x <= c.cells.max.X; x++ {
		for y := c.cells.min.Y; y <= c.cells.max.Y; y++ {
			key := Cell{X: x, Y: y}
			set := g.cells[key]
			if set == nil {
				continue
			}
			delete(set, c)
			if len(set) == 0 {
				delete(g.cells, key)
			}
		}
	}
	c.indexed = false
	g.clients--
}

func (g *Grid[T]) rangeOf(position, dims mgl64.Vec2) cellRange {
	half := mgl64.Vec2{math.Abs(dims.X()) / 2, math.Abs(dims.Y()) / 2}
	return cellRange{
		min: g.CellOf(position.Sub(half)),
		max: g.CellOf(position.Add(half)),
	}
}

// clampIndex floors v and clamps it into [0, n-1]. NaN maps to 0.
func clampIndex(v float64, n int) int {
	if !(v > 0) {
		return 0
	}
	if v >= float64(n) {
		return n - 1
	}
	return int(math.Floor(v))
}
