package staff

import (
	"github.com/talgya/parkworld/internal/agents"
	"github.com/talgya/parkworld/internal/config"
	"github.com/talgya/parkworld/internal/grid"
	"github.com/talgya/parkworld/internal/park"
	"github.com/talgya/parkworld/internal/pathfind"
)

// JanitorState is what a janitor is doing.
type JanitorState uint8

const (
	JanitorIdle JanitorState = iota
	JanitorWalkingToLitter
	JanitorCleaning
	JanitorWalkingToBin
	JanitorEmptyingBin
	JanitorPatrolling
)

func (s JanitorState) String() string {
	switch s {
	case JanitorWalkingToLitter:
		return "walking_to_litter"
	case JanitorCleaning:
		return "cleaning"
	case JanitorWalkingToBin:
		return "walking_to_bin"
	case JanitorEmptyingBin:
		return "emptying_bin"
	case JanitorPatrolling:
		return "patrolling"
	}
	return "idle"
}

// Janitor picks up litter and empties full bins near its home cell.
type Janitor struct {
	base
	State  JanitorState
	Litter *park.Litter // Claimed litter
	Bin    *park.Bin    // Claimed bin
	timer  float64
}

// NewJanitor creates an idle janitor whose work area is centred on pos.
func NewJanitor(id uint64, pos grid.Point, cfg *config.Staff, tileTime float64) *Janitor {
	return &Janitor{base: newBase(id, KindJanitor, pos, cfg.JanitorSalary, tileTime)}
}

// Idle reports whether the janitor is free for new work. Patrolling counts
// as free.
func (j *Janitor) Idle() bool {
	return j.State == JanitorIdle || j.State == JanitorPatrolling
}

func (j *Janitor) productive() bool {
	switch j.State {
	case JanitorWalkingToLitter, JanitorCleaning, JanitorWalkingToBin, JanitorEmptyingBin:
		return true
	}
	return false
}

// Dispatch finds work for a free janitor: the nearest unclaimed litter on a
// walkable tile within radius, else the nearest full bin, else a patrol
// point. It reports whether the janitor took a job.
func (j *Janitor) Dispatch(env *Env) bool {
	if !j.Idle() || j.striking() {
		return false
	}
	g := env.Park.Grid
	for _, l := range env.Park.LitterNear(j.move.Pos, env.Cfg.JanitorRadius) {
		if l.ClaimedBy != 0 || !g.Walkable(l.Pos) {
			continue
		}
		if j.move.Route(g, l.Pos, pathfind.Standard) {
			l.ClaimedBy = j.id
			j.Litter = l
			j.State = JanitorWalkingToLitter
			return true
		}
	}
	for _, b := range env.Park.Bins {
		if !b.Full() || b.ClaimedBy != 0 || grid.Chebyshev(j.move.Pos, b.Pos) > env.Cfg.JanitorRadius {
			continue
		}
		if j.move.Route(g, b.Pos, pathfind.Standard) {
			b.ClaimedBy = j.id
			j.Bin = b
			j.State = JanitorWalkingToBin
			return true
		}
	}
	if j.State == JanitorIdle {
		j.patrol(env)
	}
	return false
}

func (j *Janitor) patrol(env *Env) {
	g := env.Park.Grid
	target, ok := randomCellNear(env.Rng, g, j.home, env.Cfg.JanitorRadius, g.Walkable)
	if ok && target != j.move.Pos && j.move.Route(g, target, pathfind.Standard) {
		j.State = JanitorPatrolling
	}
}

// Tick advances the janitor by dt seconds.
func (j *Janitor) Tick(dt float64, env *Env) {
	if j.striking() && j.productive() {
		j.release()
		j.move.Stop()
		j.State = JanitorIdle
	}
	g := env.Park.Grid

	switch j.State {
	case JanitorIdle, JanitorPatrolling:
		if !j.striking() && j.claimAdjacentBin(env) {
			return
		}
		if j.State == JanitorPatrolling && j.move.Step(g, dt) != agents.StepMoving {
			j.State = JanitorIdle
		}

	case JanitorWalkingToLitter:
		if j.Litter == nil || env.Park.LitterByID(j.Litter.ID) == nil {
			j.release()
			j.move.Stop()
			j.State = JanitorIdle
			return
		}
		switch j.move.Step(g, dt) {
		case agents.StepMoving:
		case agents.StepBlocked:
			j.release()
			j.State = JanitorIdle
		default:
			j.State = JanitorCleaning
			j.timer = 0
		}

	case JanitorCleaning:
		if j.Litter == nil {
			j.State = JanitorIdle
			return
		}
		j.timer += j.work(dt)
		if j.timer >= env.Cfg.CleanTime {
			env.Park.RemoveLitter(j.Litter.ID)
			j.Litter = nil
			j.State = JanitorIdle
		}

	case JanitorWalkingToBin:
		if j.Bin == nil || env.Park.BinAt(j.Bin.Pos) != j.Bin {
			j.release()
			j.move.Stop()
			j.State = JanitorIdle
			return
		}
		switch j.move.Step(g, dt) {
		case agents.StepMoving:
		case agents.StepBlocked:
			j.release()
			j.State = JanitorIdle
		default:
			j.State = JanitorEmptyingBin
			j.timer = 0
		}

	case JanitorEmptyingBin:
		if j.Bin == nil {
			j.State = JanitorIdle
			return
		}
		j.timer += j.work(dt)
		if j.timer >= env.Cfg.BinEmptyTime {
			j.Bin.Empty()
			j.Bin = nil
			j.State = JanitorIdle
		}
	}
}

// claimAdjacentBin starts emptying a full, unclaimed bin the janitor is
// standing on or next to.
func (j *Janitor) claimAdjacentBin(env *Env) bool {
	for _, b := range env.Park.Bins {
		if b.Full() && b.ClaimedBy == 0 && grid.Chebyshev(j.move.Pos, b.Pos) <= 1 {
			b.ClaimedBy = j.id
			j.Bin = b
			j.move.Stop()
			j.State = JanitorEmptyingBin
			j.timer = 0
			return true
		}
	}
	return false
}

func (j *Janitor) release() {
	if j.Litter != nil && j.Litter.ClaimedBy == j.id {
		j.Litter.ClaimedBy = 0
	}
	if j.Bin != nil && j.Bin.ClaimedBy == j.id {
		j.Bin.ClaimedBy = 0
	}
	j.Litter = nil
	j.Bin = nil
	j.timer = 0
}

// Reset implements Employee.
func (j *Janitor) Reset(*Env) {
	j.release()
	j.move.Stop()
	j.State = JanitorIdle
}

// Info implements Employee.
func (j *Janitor) Info() Info {
	work := ""
	switch {
	case j.Litter != nil:
		work = "litter at " + j.Litter.Pos.String()
	case j.Bin != nil:
		work = "bin at " + j.Bin.Pos.String()
	}
	return j.info(j.State.String(), work)
}
