package grid

import (
	"errors"
	"fmt"
)

// ErrOutOfBounds is returned when a write targets a cell outside the grid.
var ErrOutOfBounds = errors.New("grid: out of bounds")

// TileType is the single code held by every cell.
type TileType uint8

const (
	TileGrass        TileType = iota // Open ground, default for every cell
	TilePath                         // Guest walkway
	TileQueue                        // Ride queue line
	TileRide                         // Ride footprint
	TileRideEntrance                 // Ride boarding point
	TileRideExit                     // Ride unloading point
	TileShop                         // Shop, stall or restroom footprint
	TileShopEntrance                 // Door cell for shops, stalls and restrooms
	TileRestroom                     // Restroom footprint
	TileParkEntrance                 // Park gate
	TileBin                          // Litter bin on a path
)

var tileNames = [...]string{
	TileGrass:        "grass",
	TilePath:         "path",
	TileQueue:        "queue",
	TileRide:         "ride",
	TileRideEntrance: "ride_entrance",
	TileRideExit:     "ride_exit",
	TileShop:         "shop",
	TileShopEntrance: "shop_entrance",
	TileRestroom:     "restroom",
	TileParkEntrance: "park_entrance",
	TileBin:          "bin",
}

func (t TileType) String() string {
	if int(t) < len(tileNames) {
		return tileNames[t]
	}
	return fmt.Sprintf("tile(%d)", uint8(t))
}

// Walkable reports whether guests may stand on this tile type.
func (t TileType) Walkable() bool {
	switch t {
	case TilePath, TileQueue, TileRideEntrance, TileRideExit, TileShopEntrance, TileParkEntrance, TileBin:
		return true
	}
	return false
}

// QueueAnchor reports whether the tile type can sit at either end of a queue
// line: a walkway guests join from or a ride entrance they leave to.
func (t TileType) QueueAnchor() bool {
	switch t {
	case TilePath, TileBin, TileParkEntrance, TileRideEntrance:
		return true
	}
	return false
}

// Footprint reports whether the tile type belongs to a building footprint.
func (t TileType) Footprint() bool {
	return t == TileRide || t == TileShop || t == TileRestroom
}

// Grid holds the tile code of every cell. It is the one structure shared by
// placement, the queue tracer and every agent; all writes go through Set.
type Grid struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	tiles         []TileType
	queueVersion  uint64
	layoutVersion uint64
}

// New creates a grid of the given size filled with grass.
func New(width, height int) *Grid {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return &Grid{
		Width:  width,
		Height: height,
		tiles:  make([]TileType, width*height),
	}
}

// InBounds returns true if (x, y) lies on the grid.
func (g *Grid) InBounds(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < g.Width && p.Y < g.Height
}

func (g *Grid) index(p Point) int {
	return p.Y*g.Width + p.X
}

// Get returns the tile at p. Out-of-bounds cells read as grass with ok=false.
func (g *Grid) Get(p Point) (TileType, bool) {
	if !g.InBounds(p) {
		return TileGrass, false
	}
	return g.tiles[g.index(p)], true
}

// At returns the tile at p, treating out-of-bounds cells as grass.
func (g *Grid) At(p Point) TileType {
	t, _ := g.Get(p)
	return t
}

// Set writes a tile code. Changes to or from TileQueue bump the queue version
// so the queue manager knows to retrace. Changes to or from a queue anchor
// (walkway or ride entrance) next to a queue tile bump the layout version,
// since anchors decide which end of a line is its entrance.
func (g *Grid) Set(p Point, t TileType) error {
	if !g.InBounds(p) {
		return fmt.Errorf("%w: %s", ErrOutOfBounds, p)
	}
	i := g.index(p)
	old := g.tiles[i]
	if old == t {
		return nil
	}
	g.tiles[i] = t
	if old == TileQueue || t == TileQueue {
		g.queueVersion++
	}
	if (old.QueueAnchor() || t.QueueAnchor()) && g.AdjacentTo(p, TileQueue) {
		g.layoutVersion++
	}
	return nil
}

// Clear resets a cell to grass.
func (g *Grid) Clear(p Point) error {
	return g.Set(p, TileGrass)
}

// Walkable reports whether a guest may stand on p.
func (g *Grid) Walkable(p Point) bool {
	t, ok := g.Get(p)
	return ok && t.Walkable()
}

// Is reports whether p is in bounds and holds tile type t.
func (g *Grid) Is(p Point, t TileType) bool {
	got, ok := g.Get(p)
	return ok && got == t
}

// AllOf reports whether every cell of r is in bounds and holds tile type t.
func (g *Grid) AllOf(r Rect, t TileType) bool {
	pts := r.Points()
	if len(pts) == 0 {
		return false
	}
	for _, p := range pts {
		if !g.Is(p, t) {
			return false
		}
	}
	return true
}

// Fill sets every cell of r to t. The whole rectangle must be in bounds.
func (g *Grid) Fill(r Rect, t TileType) error {
	for _, p := range r.Points() {
		if !g.InBounds(p) {
			return fmt.Errorf("%w: %s", ErrOutOfBounds, p)
		}
	}
	for _, p := range r.Points() {
		_ = g.Set(p, t)
	}
	return nil
}

// QueueVersion changes every time a queue tile is added or removed.
func (g *Grid) QueueVersion() uint64 {
	return g.queueVersion
}

// LayoutVersion changes every time a queue anchor next to a queue tile is
// added or removed.
func (g *Grid) LayoutVersion() uint64 {
	return g.layoutVersion
}

// Count returns how many cells hold tile type t.
func (g *Grid) Count(t TileType) int {
	n := 0
	for _, c := range g.tiles {
		if c == t {
			n++
		}
	}
	return n
}

// AdjacentTo reports whether any orthogonal neighbour of p holds tile type t.
func (g *Grid) AdjacentTo(p Point, t TileType) bool {
	for _, n := range p.Neighbors() {
		if g.Is(n, t) {
			return true
		}
	}
	return false
}

// ForEach calls fn for every cell in row-major order.
func (g *Grid) ForEach(fn func(p Point, t TileType)) {
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			p := Point{X: x, Y: y}
			fn(p, g.tiles[g.index(p)])
		}
	}
}

// String returns a summary of the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d, paths=%d, queues=%d)", g.Width, g.Height, g.Count(TilePath), g.Count(TileQueue))
}
