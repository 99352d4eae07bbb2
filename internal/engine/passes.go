package engine

import (
	"sort"

	"github.com/zyedidia/generic/mapset"

	"github.com/talgya/parkworld/internal/grid"
	"github.com/talgya/parkworld/internal/ride"
	"github.com/talgya/parkworld/internal/staff"
)

// assign hands out work to idle staff: engineers to broken rides, janitors
// to litter and bins, guards to patrol points, entertainers to crowds.
func (s *Simulation) assign(spots []staff.GuestSpot) {
	var engineers []*staff.Engineer
	for _, e := range s.Staff {
		switch e := e.(type) {
		case *staff.Engineer:
			if e.Idle() {
				engineers = append(engineers, e)
			}
		case *staff.Janitor:
			if e.Idle() {
				e.Dispatch(&s.staffEnv)
			}
		case *staff.Security:
			if e.Idle() {
				e.Patrol(&s.staffEnv)
			}
		case *staff.Entertainer:
			if e.Idle() {
				e.ChooseSpot(&s.staffEnv, s.Park.Queues.Paths(), spots)
			}
		}
	}
	s.dispatchEngineers(engineers)
}

// dispatchEngineers sends the nearest free engineer to each broken,
// unclaimed ride, lowest ride ID first.
func (s *Simulation) dispatchEngineers(free []*staff.Engineer) {
	for _, r := range s.Park.Rides {
		if len(free) == 0 {
			return
		}
		if !r.Broken || r.ClaimedBy != 0 {
			continue
		}
		target := rideTarget(r)
		sort.SliceStable(free, func(i, j int) bool {
			return grid.Manhattan(free[i].Mover().Pos, target) < grid.Manhattan(free[j].Mover().Pos, target)
		})
		for i, e := range free {
			if e.Assign(r, &s.staffEnv) {
				s.emit("staff", e.Name()+" dispatched to "+r.Def.Name, map[string]any{"ride_id": r.ID, "staff_id": e.ID()})
				free = append(free[:i:i], free[i+1:]...)
				break
			}
		}
	}
}

func rideTarget(r *ride.Ride) grid.Point {
	if p, ok := r.ExitPoint(); ok {
		return p
	}
	return r.Footprint.Center()
}

// applyEffects runs the area effects of staff and litter on guests. A guest
// covered by several guards or entertainers still gets one bonus.
func (s *Simulation) applyEffects(dt float64, spots []staff.GuestSpot) {
	cfg := &s.cfg.Staff
	guarded := mapset.New[uint64]()
	entertained := mapset.New[uint64]()

	for _, e := range s.Staff {
		switch e := e.(type) {
		case *staff.Security:
			e.UpdateGuestsInRadius(spots, cfg.SecurityRadius)
			for _, id := range e.GuestsInRadius {
				guarded.Put(id)
			}
		case *staff.Entertainer:
			if !e.Entertaining() {
				continue
			}
			at := e.Mover().Pos
			for _, gs := range spots {
				if grid.Chebyshev(at, gs.Pos) <= cfg.EntertainRadius {
					entertained.Put(gs.ID)
				}
			}
		}
	}

	litterRadius, litterPenalty := s.cfg.Park.LitterRadius, s.cfg.Park.LitterPenalty
	for _, gs := range spots {
		g := s.guestIndex[gs.ID]
		if g == nil {
			continue
		}
		if guarded.Has(gs.ID) {
			g.AdjustSatisfaction(cfg.SecurityBonus * dt)
		}
		if entertained.Has(gs.ID) {
			g.AdjustHappiness(cfg.EntertainBonus * dt)
		}
		if litterPenalty > 0 && len(s.Park.Litter) > 0 {
			if n := len(s.Park.LitterNear(gs.Pos, litterRadius)); n > 0 {
				g.AdjustSatisfaction(-litterPenalty * float64(n) * dt)
			}
		}
	}
}
