package staff

import (
	"github.com/talgya/parkworld/internal/agents"
	"github.com/talgya/parkworld/internal/config"
	"github.com/talgya/parkworld/internal/grid"
	"github.com/talgya/parkworld/internal/pathfind"
)

// GardenerState is what a gardener is doing.
type GardenerState uint8

const (
	GardenerIdle GardenerState = iota
	GardenerSweeping
	GardenerMowing
)

func (s GardenerState) String() string {
	switch s {
	case GardenerSweeping:
		return "sweeping"
	case GardenerMowing:
		return "mowing"
	}
	return "idle"
}

// Gardener sweeps the grass of its area in a serpentine: rows first, then
// columns, alternating direction on each lane. It mows any cell it stands on
// whose grass is longer than the threshold.
type Gardener struct {
	base
	State    GardenerState
	Cursor   grid.Point // Cell being walked to or mowed
	Vertical bool       // Sweeping columns instead of rows
	Mowed    int
	dir      int
	timer    float64
}

// NewGardener creates an idle gardener whose area is centred on pos.
func NewGardener(id uint64, pos grid.Point, cfg *config.Staff, tileTime float64) *Gardener {
	return &Gardener{base: newBase(id, KindGardener, pos, cfg.GardenerSalary, tileTime), dir: 1}
}

// Idle reports whether the gardener has no sweep in progress.
func (gd *Gardener) Idle() bool { return gd.State == GardenerIdle }

// Area is the rectangle the gardener tends, clipped to the grid.
func (gd *Gardener) Area(g *grid.Grid, radius int) grid.Rect {
	x0, y0 := max(0, gd.home.X-radius), max(0, gd.home.Y-radius)
	x1, y1 := min(g.Width-1, gd.home.X+radius), min(g.Height-1, gd.home.Y+radius)
	return grid.Rect{X: x0, Y: y0, W: x1 - x0 + 1, H: y1 - y0 + 1}
}

func grassIn(g *grid.Grid, area grid.Rect) func(grid.Point) bool {
	return func(p grid.Point) bool { return area.Contains(p) && g.Is(p, grid.TileGrass) }
}

// firstCell is the first grass cell of the current pass, scanning from the
// area's top-left corner along the pass orientation.
func (gd *Gardener) firstCell(g *grid.Grid, area grid.Rect) (grid.Point, bool) {
	grass := grassIn(g, area)
	outer, inner := area.H, area.W
	if gd.Vertical {
		outer, inner = area.W, area.H
	}
	for i := 0; i < outer; i++ {
		for j := 0; j < inner; j++ {
			p := grid.Pt(area.X+j, area.Y+i)
			if gd.Vertical {
				p = grid.Pt(area.X+i, area.Y+j)
			}
			if grass(p) {
				return p, true
			}
		}
	}
	return grid.Point{}, false
}

// nextCell advances the serpentine cursor. At the end of a lane or in front
// of a non-grass cell the direction reverses and the cursor shifts to the
// next lane; when the lanes run out the pass flips orientation and restarts.
func (gd *Gardener) nextCell(g *grid.Grid, area grid.Rect) (grid.Point, bool) {
	grass := grassIn(g, area)
	along, across := grid.Pt(gd.dir, 0), grid.Pt(0, 1)
	if gd.Vertical {
		along, across = grid.Pt(0, gd.dir), grid.Pt(1, 0)
	}
	if next := gd.Cursor.Add(along); grass(next) {
		return next, true
	}
	gd.dir = -gd.dir
	for lane := gd.Cursor.Add(across); area.Contains(lane); lane = lane.Add(across) {
		if grass(lane) {
			return lane, true
		}
	}
	gd.Vertical = !gd.Vertical
	gd.dir = 1
	return gd.firstCell(g, area)
}

func (gd *Gardener) moveTo(env *Env, p grid.Point) bool {
	gd.Cursor = p
	if p == gd.move.Pos {
		gd.move.Stop()
		return true
	}
	if grid.Adjacent(gd.move.Pos, p) {
		gd.move.SetPath([]grid.Point{p}, pathfind.Unrestricted)
		return true
	}
	return gd.move.Route(env.Park.Grid, p, pathfind.Unrestricted)
}

func (gd *Gardener) advance(env *Env) {
	g := env.Park.Grid
	next, ok := gd.nextCell(g, gd.Area(g, env.Cfg.GardenerRadius))
	if !ok || !gd.moveTo(env, next) {
		gd.State = GardenerIdle
		return
	}
	gd.State = GardenerSweeping
}

// Tick advances the gardener by dt seconds.
func (gd *Gardener) Tick(dt float64, env *Env) {
	if gd.striking() {
		gd.move.Stop()
		gd.State = GardenerIdle
		gd.timer = 0
		return
	}
	g := env.Park.Grid

	switch gd.State {
	case GardenerIdle:
		start, ok := gd.firstCell(g, gd.Area(g, env.Cfg.GardenerRadius))
		if ok && gd.moveTo(env, start) {
			gd.State = GardenerSweeping
		}

	case GardenerSweeping:
		switch gd.move.Step(g, dt) {
		case agents.StepMoving:
			return
		case agents.StepBlocked:
			gd.advance(env)
			return
		}
		if g.Is(gd.move.Pos, grid.TileGrass) && env.Park.Lawn.Length(gd.move.Pos) > env.Cfg.MowThreshold {
			gd.State = GardenerMowing
			gd.timer = 0
			return
		}
		gd.advance(env)

	case GardenerMowing:
		gd.timer += gd.work(dt)
		if gd.timer < env.Cfg.MowTime {
			return
		}
		gd.timer = 0
		if env.Park.Lawn.Mow(gd.move.Pos) {
			gd.Mowed++
		}
		gd.advance(env)
	}
}

// Reset implements Employee.
func (gd *Gardener) Reset(*Env) {
	gd.move.Stop()
	gd.State = GardenerIdle
	gd.timer = 0
}

// Info implements Employee.
func (gd *Gardener) Info() Info {
	work := ""
	if gd.State != GardenerIdle {
		work = "lawn at " + gd.Cursor.String()
	}
	return gd.info(gd.State.String(), work)
}
