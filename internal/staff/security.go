package staff

import (
	"github.com/talgya/parkworld/internal/agents"
	"github.com/talgya/parkworld/internal/config"
	"github.com/talgya/parkworld/internal/grid"
	"github.com/talgya/parkworld/internal/pathfind"
)

// GuestSpot is where one guest stands, as seen by staff that react to
// crowds.
type GuestSpot struct {
	ID  uint64
	Pos grid.Point
}

// SecurityState is what a guard is doing.
type SecurityState uint8

const (
	SecurityIdle SecurityState = iota
	SecurityPatrolling
)

func (s SecurityState) String() string {
	if s == SecurityPatrolling {
		return "patrolling"
	}
	return "idle"
}

// Security patrols the walkways near its post. Guests inside its radius
// feel safer.
type Security struct {
	base
	State          SecurityState
	Target         grid.Point
	GuestsInRadius []uint64
}

// NewSecurity creates an idle guard posted at pos.
func NewSecurity(id uint64, pos grid.Point, cfg *config.Staff, tileTime float64) *Security {
	return &Security{base: newBase(id, KindSecurity, pos, cfg.SecuritySalary, tileTime)}
}

// Idle reports whether the guard needs a new patrol target.
func (s *Security) Idle() bool { return s.State == SecurityIdle }

// Patrol picks a random path cell within the patrol radius and walks there.
func (s *Security) Patrol(env *Env) bool {
	if s.striking() {
		return false
	}
	g := env.Park.Grid
	isPath := func(p grid.Point) bool { return g.Is(p, grid.TilePath) }
	target, ok := randomCellNear(env.Rng, g, s.home, env.Cfg.SecurityRadius, isPath)
	if !ok || target == s.move.Pos || !s.move.Route(g, target, pathfind.WalkwayOnly) {
		return false
	}
	s.Target = target
	s.State = SecurityPatrolling
	return true
}

// UpdateGuestsInRadius rebuilds the set of guests within radius of the
// guard. A striking guard watches nobody.
func (s *Security) UpdateGuestsInRadius(guests []GuestSpot, radius int) {
	s.GuestsInRadius = s.GuestsInRadius[:0]
	if s.striking() {
		return
	}
	for _, gs := range guests {
		if grid.Chebyshev(s.move.Pos, gs.Pos) <= radius {
			s.GuestsInRadius = append(s.GuestsInRadius, gs.ID)
		}
	}
}

// Tick advances the guard by dt seconds.
func (s *Security) Tick(dt float64, env *Env) {
	if s.striking() {
		s.move.Stop()
		s.State = SecurityIdle
		s.GuestsInRadius = s.GuestsInRadius[:0]
		return
	}
	if s.State == SecurityPatrolling && s.move.Step(env.Park.Grid, dt) != agents.StepMoving {
		s.State = SecurityIdle
	}
}

// Reset implements Employee.
func (s *Security) Reset(*Env) {
	s.move.Stop()
	s.State = SecurityIdle
	s.GuestsInRadius = s.GuestsInRadius[:0]
}

// Info implements Employee.
func (s *Security) Info() Info {
	work := ""
	if s.State == SecurityPatrolling {
		work = "patrol to " + s.Target.String()
	}
	return s.info(s.State.String(), work)
}
