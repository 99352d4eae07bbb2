package staff

import (
	"cmp"
	"slices"

	"github.com/talgya/parkworld/internal/agents"
	"github.com/talgya/parkworld/internal/config"
	"github.com/talgya/parkworld/internal/grid"
	"github.com/talgya/parkworld/internal/pathfind"
	"github.com/talgya/parkworld/internal/queue"
)

// EntertainerState is what an entertainer is doing.
type EntertainerState uint8

const (
	EntertainerIdle EntertainerState = iota
	EntertainerWalking
	EntertainerEntertaining
)

func (s EntertainerState) String() string {
	switch s {
	case EntertainerWalking:
		return "walking"
	case EntertainerEntertaining:
		return "entertaining"
	}
	return "idle"
}

// Entertainer performs where guests gather, favouring ride queues.
type Entertainer struct {
	base
	State  EntertainerState
	Target grid.Point
	timer  float64
}

// NewEntertainer creates an idle entertainer at pos.
func NewEntertainer(id uint64, pos grid.Point, cfg *config.Staff, tileTime float64) *Entertainer {
	return &Entertainer{base: newBase(id, KindEntertainer, pos, cfg.EntertainerSalary, tileTime)}
}

// Idle reports whether the entertainer is looking for a spot.
func (e *Entertainer) Idle() bool { return e.State == EntertainerIdle }

// Entertaining reports whether the entertainer is performing.
func (e *Entertainer) Entertaining() bool { return e.State == EntertainerEntertaining }

type spot struct {
	pos   grid.Point
	score float64
}

// ChooseSpot scores every non-empty queue by its length times the queue
// weight, and every guest position by the number of guests within the
// entertain radius, then walks to the best reachable one.
func (e *Entertainer) ChooseSpot(env *Env, queues []*queue.Path, guests []GuestSpot) bool {
	if !e.Idle() || e.striking() {
		return false
	}
	g := env.Park.Grid
	radius := env.Cfg.EntertainRadius

	var spots []spot
	for _, q := range queues {
		if q.Len() == 0 || len(q.Tiles) == 0 {
			continue
		}
		mid := q.Tiles[len(q.Tiles)/2].Pos
		spots = append(spots, spot{pos: mid, score: float64(q.Len()) * env.Cfg.QueueWeight})
	}
	for _, gs := range guests {
		if !pathfind.PathOrQueue(g, gs.Pos) {
			continue
		}
		n := 0
		for _, other := range guests {
			if grid.Chebyshev(gs.Pos, other.Pos) <= radius {
				n++
			}
		}
		spots = append(spots, spot{pos: gs.Pos, score: float64(n)})
	}
	slices.SortStableFunc(spots, func(a, b spot) int { return cmp.Compare(b.score, a.score) })

	for _, s := range spots {
		if s.pos == e.move.Pos {
			e.perform(s.pos)
			return true
		}
		if e.move.Route(g, s.pos, pathfind.PathOrQueue) {
			e.Target = s.pos
			e.State = EntertainerWalking
			return true
		}
	}
	return false
}

func (e *Entertainer) perform(at grid.Point) {
	e.move.Stop()
	e.Target = at
	e.State = EntertainerEntertaining
	e.timer = 0
}

// Tick advances the entertainer by dt seconds.
func (e *Entertainer) Tick(dt float64, env *Env) {
	if e.striking() {
		e.move.Stop()
		e.State = EntertainerIdle
		e.timer = 0
		return
	}
	switch e.State {
	case EntertainerWalking:
		switch e.move.Step(env.Park.Grid, dt) {
		case agents.StepMoving:
		case agents.StepBlocked:
			e.State = EntertainerIdle
		default:
			e.perform(e.move.Pos)
		}

	case EntertainerEntertaining:
		e.timer += e.work(dt)
		if e.timer >= env.Cfg.EntertainTime {
			e.State = EntertainerIdle
			e.timer = 0
		}
	}
}

// Reset implements Employee.
func (e *Entertainer) Reset(*Env) {
	e.move.Stop()
	e.State = EntertainerIdle
	e.timer = 0
}

// Info implements Employee.
func (e *Entertainer) Info() Info {
	work := ""
	if e.State != EntertainerIdle {
		work = "crowd at " + e.Target.String()
	}
	return e.info(e.State.String(), work)
}
