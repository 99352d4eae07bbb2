package queue

import (
	"log/slog"
	"sort"

	"github.com/talgya/parkworld/internal/grid"
)

// Anchor is a ride entrance a queue path may connect to.
type Anchor struct {
	RideID   uint64
	Entrance grid.Point
}

// Manager owns every queue path in the park and keeps them in step with the
// grid's queue tiles.
type Manager struct {
	paths   []*Path
	chains  []*chain
	nextID  uint64
	version uint64
	layout  uint64
	built   bool
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{}
}

// Paths returns the current queue paths in trace order.
func (m *Manager) Paths() []*Path {
	return m.paths
}

// PathAt returns the path that owns the tile at pos, or nil.
func (m *Manager) PathAt(pos grid.Point) *Path {
	for _, p := range m.paths {
		if p.TileAt(pos) != nil {
			return p
		}
	}
	return nil
}

// PathForRide returns the path connected to a ride, or nil.
func (m *Manager) PathForRide(rideID uint64) *Path {
	if rideID == 0 {
		return nil
	}
	for _, p := range m.paths {
		if p.RideID == rideID {
			return p
		}
	}
	return nil
}

// Sync rebuilds when the grid's queue tiles, or the anchors around them,
// changed since the last build. It returns the visitors that lost their place.
func (m *Manager) Sync(g *grid.Grid) []Visitor {
	if m.built && g.QueueVersion() == m.version && g.LayoutVersion() == m.layout {
		return nil
	}
	return m.Rebuild(g)
}

type seat struct {
	v    Visitor
	pos  grid.Point
	from *Path
}

// Rebuild retraces every queue group from the grid. Existing Path objects are
// reused by greatest tile overlap, and every queued visitor is put back on
// the tile with the same coordinates. Visitors whose tile vanished (or no
// longer has room) are evicted and told so through QueueReassigned(nil).
func (m *Manager) Rebuild(g *grid.Grid) []Visitor {
	var seats []seat
	for _, p := range m.paths {
		for _, v := range p.Visitors {
			if t, _ := p.TileOf(v); t != nil {
				seats = append(seats, seat{v: v, pos: t.Pos, from: p})
			}
		}
	}

	used := make(map[*Path]bool)
	var next []*Path
	for _, group := range Trace(g) {
		order := m.order(g, group)
		path := m.reuse(order, used)
		if path == nil {
			m.nextID++
			path = &Path{ID: m.nextID}
		}
		used[path] = true
		path.Tiles = buildTiles(g, order)
		path.Visitors = nil
		path.markEnds()
		next = append(next, path)
	}

	tiles := make(map[grid.Point]*Tile)
	owner := make(map[grid.Point]*Path)
	for _, p := range next {
		for _, t := range p.Tiles {
			tiles[t.Pos] = t
			owner[t.Pos] = p
		}
	}

	var evicted []Visitor
	placed := make([]bool, len(seats))
	for i, s := range seats {
		t := tiles[s.pos]
		if t == nil || t.Full() {
			evicted = append(evicted, s.v)
			continue
		}
		t.Visitors = append(t.Visitors, s.v)
		placed[i] = true
	}

	for _, p := range next {
		for i := len(p.Tiles) - 1; i >= 0; i-- {
			p.Visitors = append(p.Visitors, p.Tiles[i].Visitors...)
		}
		p.Advance()
	}

	m.paths = next
	m.version = g.QueueVersion()
	m.layout = g.LayoutVersion()
	m.built = true

	for i, s := range seats {
		if placed[i] && owner[s.pos] != s.from {
			s.v.QueueReassigned(owner[s.pos])
		}
	}
	for _, v := range evicted {
		v.QueueReassigned(nil)
	}

	slog.Debug("queues rebuilt", "paths", len(next), "queued", len(seats)-len(evicted), "evicted", len(evicted))
	return evicted
}

// reuse picks the unused old path sharing the most tiles with order.
func (m *Manager) reuse(order []grid.Point, used map[*Path]bool) *Path {
	var best *Path
	bestOverlap := 0
	for _, p := range m.paths {
		if used[p] {
			continue
		}
		overlap := 0
		for _, pos := range order {
			if p.TileAt(pos) != nil {
				overlap++
			}
		}
		if overlap > bestOverlap {
			best, bestOverlap = p, overlap
		}
	}
	return best
}

// Connect associates each path with the nearest ride entrance touching its
// exit tile (Chebyshev distance 1). A ride takes at most one path; paths are
// served in ID order and ties go to the lower ride ID.
func (m *Manager) Connect(anchors []Anchor) {
	sorted := append([]Anchor(nil), anchors...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RideID < sorted[j].RideID })

	byID := append([]*Path(nil), m.paths...)
	sort.Slice(byID, func(i, j int) bool { return byID[i].ID < byID[j].ID })

	taken := make(map[uint64]bool)
	for _, p := range byID {
		p.RideID = 0
		exit := p.Exit()
		if exit == nil {
			continue
		}
		best := -1
		for i, a := range sorted {
			if taken[a.RideID] || grid.Chebyshev(exit.Pos, a.Entrance) > 1 {
				continue
			}
			if best < 0 || grid.Manhattan(exit.Pos, a.Entrance) < grid.Manhattan(exit.Pos, sorted[best].Entrance) {
				best = i
			}
		}
		if best >= 0 {
			p.RideID = sorted[best].RideID
			taken[p.RideID] = true
		}
	}
}

// CheckInvariants verifies every path's bookkeeping.
func (m *Manager) CheckInvariants() error {
	for _, p := range m.paths {
		if err := p.CheckInvariants(); err != nil {
			return err
		}
	}
	return nil
}
