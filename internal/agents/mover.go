package agents

import (
	"github.com/talgya/parkworld/internal/grid"
	"github.com/talgya/parkworld/internal/pathfind"
)

// StepResult reports what a Mover did during one step.
type StepResult uint8

const (
	StepMoving  StepResult = iota // Still travelling
	StepArrived                   // No cells left to visit
	StepBlocked                   // Next cell no longer passes the traversal rule
)

// Mover is the movement primitive shared by guests and staff: it follows a
// precomputed cell path one tile at a time, each tile taking TileTime seconds.
type Mover struct {
	Pos      grid.Point   `json:"pos"`
	X        float64      `json:"x"` // Continuous position for renderers
	Y        float64      `json:"y"`
	Path     []grid.Point `json:"path,omitempty"` // Cells still to visit, current cell excluded
	TileTime float64      `json:"-"`

	traversal pathfind.Traversal
	progress  float64
}

// NewMover places a mover at pos.
func NewMover(pos grid.Point, tileTime float64) Mover {
	return Mover{Pos: pos, X: float64(pos.X), Y: float64(pos.Y), TileTime: tileTime}
}

// Moving reports whether cells remain on the path.
func (m *Mover) Moving() bool { return len(m.Path) > 0 }

// Destination is the last cell of the path, or the current cell.
func (m *Mover) Destination() grid.Point {
	if len(m.Path) == 0 {
		return m.Pos
	}
	return m.Path[len(m.Path)-1]
}

// Stop drops the remaining path.
func (m *Mover) Stop() {
	m.Path = nil
	m.progress = 0
	m.X, m.Y = float64(m.Pos.X), float64(m.Pos.Y)
}

// Teleport moves instantly and drops the path.
func (m *Mover) Teleport(p grid.Point) {
	m.Pos = p
	m.Stop()
}

// SetPath adopts a path as returned by pathfind.FindPath. A leading cell equal
// to the current position is skipped.
func (m *Mover) SetPath(path []grid.Point, t pathfind.Traversal) {
	if len(path) > 0 && path[0] == m.Pos {
		path = path[1:]
	}
	m.Path = append([]grid.Point(nil), path...)
	m.traversal = t
	m.progress = 0
}

// Route finds a path to goal under t and adopts it. It reports false, leaving
// the mover untouched, when no path exists.
func (m *Mover) Route(g *grid.Grid, goal grid.Point, t pathfind.Traversal) bool {
	path, ok := pathfind.FindPath(g, m.Pos, goal, t)
	if !ok {
		return false
	}
	m.SetPath(path, t)
	return true
}

// Step advances along the path by dt seconds. Every cell is checked against
// the traversal rule again before it is entered, since the grid may have been
// edited since the path was planned.
func (m *Mover) Step(g *grid.Grid, dt float64) StepResult {
	if len(m.Path) == 0 {
		m.progress = 0
		return StepArrived
	}
	tileTime := m.TileTime
	if tileTime <= 0 {
		tileTime = 1
	}
	m.progress += dt
	for m.progress >= tileTime && len(m.Path) > 0 {
		next := m.Path[0]
		if m.traversal != nil && !m.traversal(g, next) {
			m.Stop()
			return StepBlocked
		}
		m.Pos = next
		m.Path = m.Path[1:]
		m.progress -= tileTime
	}
	if len(m.Path) == 0 {
		m.progress = 0
		m.X, m.Y = float64(m.Pos.X), float64(m.Pos.Y)
		return StepArrived
	}
	frac := m.progress / tileTime
	next := m.Path[0]
	m.X = float64(m.Pos.X) + float64(next.X-m.Pos.X)*frac
	m.Y = float64(m.Pos.Y) + float64(next.Y-m.Pos.Y)*frac
	return StepMoving
}
