package agents

import (
	"sort"

	"github.com/talgya/parkworld/internal/entropy"
	"github.com/talgya/parkworld/internal/grid"
	"github.com/talgya/parkworld/internal/park"
	"github.com/talgya/parkworld/internal/pathfind"
	"github.com/talgya/parkworld/internal/ride"
)

// decide is the wandering decision pass. Priority: leave, litter, urgent
// needs (restroom, drink, food), then a weighted ride or shop choice, and a
// stroll when nothing appeals.
func (g *Guest) decide(env *Env) {
	if g.wantsToLeave() {
		g.startLeaving(env)
		return
	}
	if g.litterDue() {
		g.handleLitter(env)
		return
	}
	for _, need := range g.UrgentNeeds() {
		if g.seekFacility(env, facilityFor(need)) {
			return
		}
	}
	if g.chooseAttraction(env) {
		return
	}
	g.stroll(env)
}

func facilityFor(n Need) park.FacilityKind {
	switch n {
	case NeedRestroom:
		return park.KindRestroom
	case NeedDrink:
		return park.KindDrink
	}
	return park.KindFood
}

func walkingStateFor(k park.FacilityKind) GuestState {
	switch k {
	case park.KindRestroom:
		return GuestWalkingToRestroom
	case park.KindDrink:
		return GuestWalkingToDrink
	case park.KindFood:
		return GuestWalkingToFood
	}
	return GuestWalkingToShop
}

// seekFacility routes to the nearest reachable facility of kind the guest
// can use right now.
func (g *Guest) seekFacility(env *Env, kind park.FacilityKind) bool {
	var candidates []*park.Facility
	for _, f := range env.Park.FacilitiesOf(kind) {
		if kind == park.KindRestroom && f.Full() {
			continue
		}
		if kind != park.KindRestroom && g.Money < f.Good.Price {
			continue
		}
		candidates = append(candidates, f)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return grid.Manhattan(g.Pos, candidates[i].Door) < grid.Manhattan(g.Pos, candidates[j].Door)
	})
	for _, f := range candidates {
		if g.Route(env.Park.Grid, f.Door, pathfind.Standard) {
			g.clearTargets()
			g.TargetFacility = f.ID
			g.setState(walkingStateFor(kind))
			return true
		}
	}
	return false
}

type attraction struct {
	score    float64
	ride     *ride.Ride
	facility *park.Facility
	goal     grid.Point
}

// RideScore rates how well a ride suits the guest, before jitter: thrill fit
// minus how far the ride's nausea exceeds the guest's tolerance.
func (g *Guest) RideScore(def ride.Definition) float64 {
	score := 1 - abs(def.Thrill-g.ThrillPref)
	if excess := def.Nausea - g.NauseaTolerance; excess > 0 {
		score -= excess
	}
	return score
}

// chooseAttraction scores every open ride and, now and then, the shops, and
// walks to the best one it can reach.
func (g *Guest) chooseAttraction(env *Env) bool {
	jitter := g.tuning.RideJitter
	var options []attraction
	for _, r := range env.Park.Rides {
		if !r.Operational() || r.Queue == nil || r.Queue.Full() || g.Money < r.Def.TicketPrice {
			continue
		}
		score := g.RideScore(r.Def) + entropyRange(env, -jitter, jitter)
		if score > 0 {
			options = append(options, attraction{score: score, ride: r, goal: r.Queue.Entrance().Pos})
		}
	}
	if entropy.Chance(env.Rng, g.tuning.ShopChance) {
		for _, f := range env.Park.FacilitiesOf(park.KindShop) {
			if g.Money < f.Good.Price {
				continue
			}
			score := 1 - g.Happiness + entropyRange(env, -jitter, jitter)
			if score > 0 {
				options = append(options, attraction{score: score, facility: f, goal: f.Door})
			}
		}
	}
	sort.SliceStable(options, func(i, j int) bool { return options[i].score > options[j].score })

	for _, o := range options {
		if !g.Route(env.Park.Grid, o.goal, pathfind.Standard) {
			continue
		}
		g.clearTargets()
		if o.ride != nil {
			g.TargetRide = o.ride.ID
			g.setState(GuestWalkingToQueue)
		} else {
			g.TargetFacility = o.facility.ID
			g.setState(GuestWalkingToShop)
		}
		return true
	}
	return false
}

// stroll picks a random walkway cell nearby and walks to it.
func (g *Guest) stroll(env *Env) {
	r := g.tuning.StrollRadius
	if r <= 0 || g.Moving() {
		return
	}
	for try := 0; try < 4; try++ {
		target := g.Pos.Add(grid.Pt(env.Rng.IntN(2*r+1)-r, env.Rng.IntN(2*r+1)-r))
		if target == g.Pos || !pathfind.WalkwayOnly(env.Park.Grid, target) {
			continue
		}
		if g.Route(env.Park.Grid, target, pathfind.Standard) {
			return
		}
	}
}

// nearestBins lists bins with room, nearest first.
func nearestBins(p *park.Park, from grid.Point) []*park.Bin {
	var out []*park.Bin
	for _, b := range p.Bins {
		if !b.Full() {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return grid.Manhattan(from, out[i].Pos) < grid.Manhattan(from, out[j].Pos)
	})
	return out
}

func entropyRange(env *Env, lo, hi float64) float64 {
	if env.Rng == nil {
		return lo
	}
	return entropy.Range(env.Rng, lo, hi)
}
