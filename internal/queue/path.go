// Package queue manages ride waiting lines. A queue path is a chain of queue
// tiles ordered from entrance (beside a walkway) to exit (beside a ride
// entrance); each tile holds a few visitors and the whole path behaves like a
// capacity-bounded conveyor.
package queue

import (
	"fmt"

	"github.com/talgya/parkworld/internal/grid"
)

// Per-tile visitor capacity. Turns hold fewer people than straight runs.
const (
	StraightCapacity = 4
	CornerCapacity   = 2
)

// Visitor is anything that can stand in a queue.
type Visitor interface {
	VisitorID() uint64
	// QueueReassigned is called when the queue system moves the visitor to a
	// different path during a rebuild, or with nil when the visitor has been
	// removed by an evacuation or because its tile disappeared.
	QueueReassigned(p *Path)
}

// Tile is one cell of a queue line.
type Tile struct {
	Pos        grid.Point     `json:"pos"`
	Visitors   []Visitor      `json:"-"`
	Capacity   int            `json:"capacity"`
	IsEntrance bool           `json:"is_entrance"`
	IsExit     bool           `json:"is_exit"`
	Corner     bool           `json:"corner"`
	Flow       grid.Direction `json:"flow"`
}

// NewTile returns an empty tile with the given capacity.
func NewTile(pos grid.Point, capacity int) *Tile {
	return &Tile{Pos: pos, Capacity: capacity}
}

// Full reports whether the tile is at capacity.
func (t *Tile) Full() bool {
	return len(t.Visitors) >= t.Capacity
}

// Empty reports whether nobody stands on the tile.
func (t *Tile) Empty() bool {
	return len(t.Visitors) == 0
}

func (t *Tile) indexOf(v Visitor) int {
	id := v.VisitorID()
	for i, o := range t.Visitors {
		if o.VisitorID() == id {
			return i
		}
	}
	return -1
}

// Path is an ordered queue line. Visitors is ordered front first and always
// equals the concatenation of the tiles' visitors read from exit to entrance.
type Path struct {
	ID       uint64    `json:"id"`
	Tiles    []*Tile   `json:"tiles"`
	RideID   uint64    `json:"ride_id,omitempty"` // 0 when not connected
	Visitors []Visitor `json:"-"`
}

// NewPath builds a path from tiles already ordered entrance to exit.
func NewPath(id uint64, tiles []*Tile) *Path {
	p := &Path{ID: id, Tiles: tiles}
	p.markEnds()
	return p
}

func (p *Path) markEnds() {
	for i, t := range p.Tiles {
		t.IsEntrance = i == 0
		t.IsExit = i == len(p.Tiles)-1
	}
}

// Entrance returns the first tile, or nil for an empty path.
func (p *Path) Entrance() *Tile {
	if len(p.Tiles) == 0 {
		return nil
	}
	return p.Tiles[0]
}

// Exit returns the last tile, or nil for an empty path.
func (p *Path) Exit() *Tile {
	if len(p.Tiles) == 0 {
		return nil
	}
	return p.Tiles[len(p.Tiles)-1]
}

// MaxCapacity is the sum of tile capacities.
func (p *Path) MaxCapacity() int {
	total := 0
	for _, t := range p.Tiles {
		total += t.Capacity
	}
	return total
}

// Len returns how many visitors are queued.
func (p *Path) Len() int {
	return len(p.Visitors)
}

// Full reports whether no more visitors can be admitted.
func (p *Path) Full() bool {
	entrance := p.Entrance()
	return entrance == nil || p.Len() >= p.MaxCapacity() || entrance.Full()
}

// Position returns the visitor's place in line (0 = front) or -1.
func (p *Path) Position(v Visitor) int {
	id := v.VisitorID()
	for i, o := range p.Visitors {
		if o.VisitorID() == id {
			return i
		}
	}
	return -1
}

// Contains reports whether the visitor is queued on this path.
func (p *Path) Contains(v Visitor) bool {
	return p.Position(v) >= 0
}

// TileOf returns the tile holding v and its index, or nil and -1.
func (p *Path) TileOf(v Visitor) (*Tile, int) {
	for i, t := range p.Tiles {
		if t.indexOf(v) >= 0 {
			return t, i
		}
	}
	return nil, -1
}

// TileAt returns the tile at pos, or nil.
func (p *Path) TileAt(pos grid.Point) *Tile {
	for _, t := range p.Tiles {
		if t.Pos == pos {
			return t
		}
	}
	return nil
}

// AddVisitor admits v at the entrance tile and walks it forward as far as
// it can go. It fails when the path or its entrance tile is full, or when v
// is already queued.
func (p *Path) AddVisitor(v Visitor) bool {
	if v == nil || p.Full() || p.Contains(v) {
		return false
	}
	entrance := p.Tiles[0]
	entrance.Visitors = append(entrance.Visitors, v)
	p.Visitors = append(p.Visitors, v)
	p.walkForward(v, 0)
	return true
}

// walkForward moves a newly admitted visitor ahead while it is at the front
// of its tile and the next tile has room. Only the front of a tile may step
// forward, which keeps arrival order intact.
func (p *Path) walkForward(v Visitor, i int) {
	id := v.VisitorID()
	for i+1 < len(p.Tiles) {
		cur, next := p.Tiles[i], p.Tiles[i+1]
		if cur.Empty() || cur.Visitors[0].VisitorID() != id || next.Full() {
			return
		}
		cur.Visitors = removeAt(cur.Visitors, 0)
		next.Visitors = append(next.Visitors, v)
		i++
	}
}

// RemoveVisitor takes v out of the line and advances everyone behind it.
func (p *Path) RemoveVisitor(v Visitor) bool {
	pos := p.Position(v)
	if pos < 0 {
		return false
	}
	p.Visitors = removeAt(p.Visitors, pos)
	if t, _ := p.TileOf(v); t != nil {
		t.Visitors = removeAt(t.Visitors, t.indexOf(v))
	}
	p.Advance()
	return true
}

// Advance runs one advancement pass from the exit backwards. The front
// visitor of tile i steps to tile i+1 while tile i+1 has room; tiles are
// visited exit-first so nobody moves more than one tile per pass.
func (p *Path) Advance() {
	for i := len(p.Tiles) - 2; i >= 0; i-- {
		cur, next := p.Tiles[i], p.Tiles[i+1]
		for !cur.Empty() && !next.Full() {
			v := cur.Visitors[0]
			cur.Visitors = removeAt(cur.Visitors, 0)
			next.Visitors = append(next.Visitors, v)
		}
	}
}

// TakeFront removes up to n visitors from the front of the exit tile and
// returns them in line order. Nobody behind them moves; callers run Advance
// once they are done taking.
func (p *Path) TakeFront(n int) []Visitor {
	exit := p.Exit()
	if exit == nil || n <= 0 {
		return nil
	}
	if n > len(exit.Visitors) {
		n = len(exit.Visitors)
	}
	taken := append([]Visitor(nil), exit.Visitors[:n]...)
	exit.Visitors = append([]Visitor(nil), exit.Visitors[n:]...)
	p.Visitors = append([]Visitor(nil), p.Visitors[n:]...)
	return taken
}

// Front returns the visitor at the head of the line, or nil.
func (p *Path) Front() Visitor {
	if len(p.Visitors) == 0 {
		return nil
	}
	return p.Visitors[0]
}

// ExitVisitor returns the front visitor standing on the exit tile, or nil.
// Rides board only from the exit tile.
func (p *Path) ExitVisitor() Visitor {
	exit := p.Exit()
	if exit == nil || exit.Empty() {
		return nil
	}
	return exit.Visitors[0]
}

// Evacuate removes every visitor at once, clears all tiles and tells each
// visitor it no longer has a queue.
func (p *Path) Evacuate() []Visitor {
	out := p.Visitors
	p.Visitors = nil
	for _, t := range p.Tiles {
		t.Visitors = nil
	}
	for _, v := range out {
		v.QueueReassigned(nil)
	}
	return out
}

// CheckInvariants verifies occupancy bookkeeping: per-tile capacity, total
// capacity, one tile per visitor, and front-first ordering.
func (p *Path) CheckInvariants() error {
	total := 0
	seen := make(map[uint64]int)
	var order []uint64
	for i := len(p.Tiles) - 1; i >= 0; i-- {
		t := p.Tiles[i]
		if len(t.Visitors) > t.Capacity {
			return fmt.Errorf("queue %d: tile %s holds %d > capacity %d", p.ID, t.Pos, len(t.Visitors), t.Capacity)
		}
		total += len(t.Visitors)
		for _, v := range t.Visitors {
			seen[v.VisitorID()]++
			order = append(order, v.VisitorID())
		}
	}
	if total != len(p.Visitors) {
		return fmt.Errorf("queue %d: tiles hold %d visitors, path lists %d", p.ID, total, len(p.Visitors))
	}
	if total > p.MaxCapacity() {
		return fmt.Errorf("queue %d: %d visitors exceed capacity %d", p.ID, total, p.MaxCapacity())
	}
	for i, v := range p.Visitors {
		if seen[v.VisitorID()] != 1 {
			return fmt.Errorf("queue %d: visitor %d appears on %d tiles", p.ID, v.VisitorID(), seen[v.VisitorID()])
		}
		if order[i] != v.VisitorID() {
			return fmt.Errorf("queue %d: visitor %d out of order at position %d", p.ID, v.VisitorID(), i)
		}
	}
	return nil
}

func removeAt(s []Visitor, i int) []Visitor {
	if i < 0 || i >= len(s) {
		return s
	}
	out := make([]Visitor, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}
