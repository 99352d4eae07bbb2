package staff

import (
	"log/slog"

	"github.com/talgya/parkworld/internal/agents"
	"github.com/talgya/parkworld/internal/config"
	"github.com/talgya/parkworld/internal/grid"
	"github.com/talgya/parkworld/internal/pathfind"
	"github.com/talgya/parkworld/internal/ride"
)

// EngineerState is the repair cycle of an engineer.
type EngineerState uint8

const (
	EngineerIdle EngineerState = iota
	EngineerMovingToRide
	EngineerWorking
	EngineerRelocating
)

func (s EngineerState) String() string {
	switch s {
	case EngineerMovingToRide:
		return "moving_to_ride"
	case EngineerWorking:
		return "working"
	case EngineerRelocating:
		return "relocating"
	}
	return "idle"
}

// Engineer repairs broken rides. It walks anywhere, over footprints
// included, to reach one.
type Engineer struct {
	base
	State EngineerState
	Ride  *ride.Ride // Claimed ride, nil when free
	timer float64
}

// NewEngineer creates an idle engineer at pos.
func NewEngineer(id uint64, pos grid.Point, cfg *config.Staff, tileTime float64) *Engineer {
	return &Engineer{base: newBase(id, KindEngineer, pos, cfg.EngineerSalary, tileTime)}
}

// Idle reports whether the engineer can take a repair job. Relocating after
// a repair counts as idle.
func (e *Engineer) Idle() bool {
	return e.State == EngineerIdle || e.State == EngineerRelocating
}

// Assign sends the engineer to a broken, unclaimed ride. It fails when the
// engineer is busy or on strike, the ride is not broken or already claimed,
// or no route exists.
func (e *Engineer) Assign(r *ride.Ride, env *Env) bool {
	if !e.Idle() || e.striking() || !r.Broken || r.ClaimedBy != 0 {
		return false
	}
	goal := r.Footprint.Center()
	if p, ok := r.ExitPoint(); ok {
		goal = p
	}
	if !e.move.Route(env.Park.Grid, goal, pathfind.Unrestricted) {
		return false
	}
	if !r.Claim(e.id) {
		e.move.Stop()
		return false
	}
	e.Ride = r
	e.State = EngineerMovingToRide
	e.timer = 0
	slog.Debug("engineer dispatched", "engineer", e.name, "ride", r.String())
	return true
}

// Tick advances the engineer by dt seconds.
func (e *Engineer) Tick(dt float64, env *Env) {
	if e.striking() && (e.State == EngineerMovingToRide || e.State == EngineerWorking) {
		e.release()
		e.move.Stop()
		e.State = EngineerIdle
	}

	switch e.State {
	case EngineerMovingToRide:
		if e.Ride == nil || !e.Ride.Broken || env.Park.Ride(e.Ride.ID) == nil {
			e.release()
			e.move.Stop()
			e.State = EngineerIdle
			return
		}
		if e.move.Step(env.Park.Grid, dt) == agents.StepMoving {
			return
		}
		e.Ride.StartRepair(e.id)
		e.State = EngineerWorking
		e.timer = 0

	case EngineerWorking:
		if e.Ride == nil || !e.Ride.Broken || env.Park.Ride(e.Ride.ID) == nil {
			e.release()
			e.State = EngineerIdle
			return
		}
		e.timer += e.work(dt)
		if e.timer < env.Cfg.RepairTime {
			return
		}
		e.Ride.CompleteRepair()
		e.Ride = nil
		e.relocate(env)

	case EngineerRelocating:
		if e.move.Step(env.Park.Grid, dt) != agents.StepMoving {
			e.State = EngineerIdle
		}
	}
}

// relocate steps away from the finished ride to a random walkable cell
// nearby, so the engineer does not idle on a footprint.
func (e *Engineer) relocate(env *Env) {
	e.State = EngineerIdle
	g := env.Park.Grid
	target, ok := randomCellNear(env.Rng, g, e.move.Pos, env.Cfg.RelocateRadius, g.Walkable)
	if ok && e.move.Route(g, target, pathfind.Unrestricted) {
		e.State = EngineerRelocating
	}
}

func (e *Engineer) release() {
	if e.Ride != nil {
		e.Ride.ReleaseClaim(e.id)
		e.Ride = nil
	}
	e.timer = 0
}

// Reset implements Employee.
func (e *Engineer) Reset(*Env) {
	e.release()
	e.move.Stop()
	e.State = EngineerIdle
}

// Info implements Employee.
func (e *Engineer) Info() Info {
	work := ""
	if e.Ride != nil {
		work = e.Ride.String()
	}
	return e.info(e.State.String(), work)
}
