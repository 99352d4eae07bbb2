package agents

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/parkworld/internal/economy"
	"github.com/talgya/parkworld/internal/park"
	"github.com/talgya/parkworld/internal/pathfind"
)

// ErrInconsistent marks a guest whose bookkeeping disagrees with the queue or
// ride it references.
var ErrInconsistent = errors.New("guest state inconsistent")

type guestHandler func(g *Guest, dt float64, env *Env)

// guestHandlers holds one handler per state. Every handler is total: any
// state it cannot make sense of sends the guest back to wandering.
var guestHandlers = [guestStateCount]guestHandler{
	GuestEntering:          (*Guest).tickEntering,
	GuestWandering:         (*Guest).tickWandering,
	GuestWalkingToQueue:    (*Guest).tickWalkingToQueue,
	GuestQueuing:           (*Guest).tickQueuing,
	GuestRiding:            (*Guest).tickRiding,
	GuestExiting:           (*Guest).tickExiting,
	GuestWalkingToShop:     (*Guest).tickWalkingToFacility,
	GuestShopping:          (*Guest).tickShopping,
	GuestWalkingToFood:     (*Guest).tickWalkingToFacility,
	GuestEating:            (*Guest).tickEating,
	GuestWalkingToDrink:    (*Guest).tickWalkingToFacility,
	GuestDrinking:          (*Guest).tickDrinking,
	GuestWalkingToRestroom: (*Guest).tickWalkingToFacility,
	GuestUsingRestroom:     (*Guest).tickUsingRestroom,
	GuestWalkingToBin:      (*Guest).tickWalkingToBin,
	GuestUsingBin:          (*Guest).tickUsingBin,
	GuestLeaving:           (*Guest).tickLeaving,
	GuestLeft:              func(*Guest, float64, *Env) {},
}

// Tick advances the guest by dt seconds.
func (g *Guest) Tick(dt float64, env *Env) {
	if g.State == GuestLeft {
		return
	}
	if g.State >= guestStateCount {
		g.Reset(env)
	}
	g.TimeInPark += dt
	g.decayNeeds(dt)

	if err := g.CheckConsistency(); err != nil {
		slog.Warn("guest reset", "guest", g.String(), "error", err)
		g.Reset(env)
	}

	// Wandering guests deal with litter on their decision pass.
	if g.State.Free() && g.State != GuestWandering && g.litterDue() {
		g.handleLitter(env)
		return
	}
	guestHandlers[g.State](g, dt, env)
}

// CheckConsistency verifies the queue membership and ride invariants.
func (g *Guest) CheckConsistency() error {
	targets := 0
	if g.TargetRide != 0 {
		targets++
	}
	if g.TargetFacility != 0 {
		targets++
	}
	if g.TargetBin != nil {
		targets++
	}
	switch {
	case targets > 1:
		return fmt.Errorf("%w: %s has %d targets", ErrInconsistent, g, targets)
	case g.CurrentQueue != nil && g.State != GuestQueuing:
		return fmt.Errorf("%w: %s holds queue %d while %s", ErrInconsistent, g, g.CurrentQueue.ID, g.State)
	case g.State == GuestQueuing && g.CurrentQueue == nil:
		return fmt.Errorf("%w: %s queuing without a queue", ErrInconsistent, g)
	case g.CurrentQueue != nil && (!g.CurrentQueue.Contains(g) || g.QueueTile() == nil):
		return fmt.Errorf("%w: %s is not a member of queue %d", ErrInconsistent, g, g.CurrentQueue.ID)
	case g.State == GuestRiding && (g.OnRide == nil || !g.OnRide.HasRider(g)):
		return fmt.Errorf("%w: %s riding but not aboard", ErrInconsistent, g)
	case g.OnRide != nil && g.State != GuestRiding:
		return fmt.Errorf("%w: %s aboard %s while %s", ErrInconsistent, g, g.OnRide, g.State)
	}
	return nil
}

// Reset detaches the guest from every queue, ride and facility and returns
// it to wandering. It is the recovery path for consistency violations and
// panics.
func (g *Guest) Reset(env *Env) {
	if env != nil && env.Park != nil {
		for _, p := range env.Park.Queues.Paths() {
			p.RemoveVisitor(g)
		}
		for _, r := range env.Park.Rides {
			r.Unboard(g)
		}
		for _, f := range env.Park.Facilities {
			f.Leave(g.ID)
		}
	}
	g.CurrentQueue = nil
	g.OnRide = nil
	g.clearTargets()
	g.Stop()
	g.setState(GuestWandering)
}

// ForceLeave overrides whatever the guest is doing and sends it to the park
// entrance. Used when the park closes.
func (g *Guest) ForceLeave(env *Env) {
	if g.State == GuestLeft || g.State == GuestLeaving {
		return
	}
	if g.OnRide != nil {
		if exit, ok := g.OnRide.ExitPoint(); ok {
			g.Teleport(exit)
		}
	}
	g.startLeaving(env)
}

func (g *Guest) detach(env *Env) {
	if g.CurrentQueue != nil {
		g.CurrentQueue.RemoveVisitor(g)
		g.CurrentQueue = nil
	}
	if g.OnRide != nil {
		g.OnRide.Unboard(g)
		g.OnRide = nil
	}
	if g.TargetFacility != 0 {
		if f := env.Park.Facility(g.TargetFacility); f != nil {
			f.Leave(g.ID)
		}
	}
}

func (g *Guest) startLeaving(env *Env) {
	g.detach(env)
	g.clearTargets()
	g.Stop()
	g.leaveAttempts = 0
	g.setState(GuestLeaving)
}

// abandon gives up the current target and wanders.
func (g *Guest) abandon() {
	g.clearTargets()
	g.Stop()
	g.setState(GuestWandering)
}

func (g *Guest) pay(env *Env, amount economy.Money, reason string) {
	g.Money -= amount
	g.Spent += amount
	if env.Ledger != nil {
		env.Ledger.AddIncome(amount, reason)
	}
}

func (g *Guest) tickEntering(_ float64, env *Env) {
	fee := env.Park.Config().Park.EntranceFee
	if fee > 0 {
		if g.Money < fee {
			slog.Debug("guest turned away at the gate", "guest", g.String(), "money", g.Money.String())
			g.startLeaving(env)
			return
		}
		g.pay(env, fee, "entrance fee")
	}
	g.setState(GuestWandering)
	g.decisionTimer = g.tuning.DecisionInterval
}

func (g *Guest) tickWandering(dt float64, env *Env) {
	g.Step(env.Park.Grid, dt)
	g.decisionTimer += dt
	if g.decisionTimer < g.tuning.DecisionInterval {
		return
	}
	g.decisionTimer = 0
	g.decide(env)
}

func (g *Guest) tickWalkingToQueue(dt float64, env *Env) {
	r := env.Park.Ride(g.TargetRide)
	if r == nil || !r.Operational() || r.Queue == nil {
		g.abandon()
		return
	}
	switch g.Step(env.Park.Grid, dt) {
	case StepBlocked:
		g.abandon()
		return
	case StepMoving:
		return
	}

	entrance := r.Queue.Entrance()
	if g.Pos != entrance.Pos {
		// The line was rebuilt while we walked.
		if !g.Route(env.Park.Grid, entrance.Pos, pathfind.Standard) {
			g.abandon()
		}
		return
	}
	price := r.Def.TicketPrice
	if g.Money < price || !r.Queue.AddVisitor(g) {
		g.abandon()
		return
	}
	g.pay(env, price, "ride tickets")
	g.CurrentQueue = r.Queue
	g.patienceTimer = 0
	g.setState(GuestQueuing)
	if t := g.QueueTile(); t != nil {
		g.Teleport(t.Pos)
	}
}

func (g *Guest) tickQueuing(dt float64, _ *Env) {
	q := g.CurrentQueue
	if q == nil {
		g.abandon()
		return
	}
	if t := g.QueueTile(); t != nil && t.Pos != g.Pos {
		g.Teleport(t.Pos)
	}
	if q.RideID == 0 {
		q.RemoveVisitor(g)
		g.CurrentQueue = nil
		g.abandon()
		return
	}
	g.patienceTimer += dt
	if g.patienceTimer >= g.tuning.QueuePatience {
		q.RemoveVisitor(g)
		g.CurrentQueue = nil
		g.AdjustSatisfaction(-g.tuning.QueuePenalty)
		g.abandon()
	}
}

func (g *Guest) tickRiding(float64, *Env) {
	if g.OnRide == nil {
		g.abandon()
	}
}

// tickExiting releases a guest standing on the ride exit back to the
// walkways.
func (g *Guest) tickExiting(_ float64, _ *Env) {
	if g.Pos != g.exitTarget {
		g.Teleport(g.exitTarget)
	}
	g.abandon()
}

func (g *Guest) tickWalkingToFacility(dt float64, env *Env) {
	f := env.Park.Facility(g.TargetFacility)
	if f == nil {
		g.abandon()
		return
	}
	if !g.waiting {
		switch g.Step(env.Park.Grid, dt) {
		case StepBlocked:
			g.abandon()
			return
		case StepMoving:
			return
		}
		if g.Pos != f.Door {
			if !g.Route(env.Park.Grid, f.Door, pathfind.Standard) {
				g.abandon()
			}
			return
		}
	}

	if f.Kind() == park.KindRestroom {
		if f.Enter(g.ID) {
			g.setState(GuestUsingRestroom)
			return
		}
		g.waiting = true
		g.stateTimer += dt
		if g.stateTimer >= g.tuning.RestroomWait {
			slog.Debug("guest gave up on a full restroom", "guest", g.String(), "facility", f.ID)
			g.abandon()
		}
		return
	}

	good := f.Good
	if g.Money < good.Price {
		g.abandon()
		return
	}
	g.pay(env, good.Price, f.Kind().String()+" sales")
	f.Sales++
	g.purchase = good
	switch f.Kind() {
	case park.KindFood:
		g.setState(GuestEating)
	case park.KindDrink:
		g.setState(GuestDrinking)
	default:
		g.setState(GuestShopping)
	}
}

func (g *Guest) tickShopping(dt float64, env *Env) {
	g.consumeAfter(dt, g.tuning.ShopTime, env)
}

func (g *Guest) tickEating(dt float64, env *Env) {
	g.consumeAfter(dt, g.tuning.EatTime, env)
}

func (g *Guest) tickDrinking(dt float64, env *Env) {
	g.consumeAfter(dt, g.tuning.DrinkTime, env)
}

// consumeAfter applies the purchased good once the activity has lasted
// duration seconds. Food and drink may leave the guest holding litter.
func (g *Guest) consumeAfter(dt, duration float64, env *Env) {
	g.stateTimer += dt
	if g.stateTimer < duration {
		return
	}
	p := g.purchase
	g.Hunger = clamp01(g.Hunger + p.Hunger)
	g.Thirst = clamp01(g.Thirst + p.Thirst)
	g.AdjustHappiness(p.Happiness)
	g.AdjustSatisfaction(p.Happiness / 2)
	if p.Litter != economy.LitterNone && !g.CarryingLitter {
		g.CarryingLitter = true
		g.LitterKind = p.Litter
		g.litterTimer = 0
		g.litterDelay = entropyRange(env, g.tuning.LitterDelayMin, g.tuning.LitterDelayMax)
	}
	g.purchase = economy.Good{}
	g.abandon()
}

func (g *Guest) tickUsingRestroom(dt float64, env *Env) {
	f := env.Park.Facility(g.TargetFacility)
	if f == nil {
		g.abandon()
		return
	}
	g.stateTimer += dt
	if g.stateTimer < g.tuning.RestroomTime {
		return
	}
	g.Bladder = 0
	f.Leave(g.ID)
	g.abandon()
}

// handleLitter heads for the nearest reachable bin with room, or drops the
// litter where the guest stands.
func (g *Guest) handleLitter(env *Env) {
	g.clearTargets()
	g.Stop()
	for _, b := range nearestBins(env.Park, g.Pos) {
		if g.Route(env.Park.Grid, b.Pos, pathfind.Standard) {
			pos := b.Pos
			g.TargetBin = &pos
			g.setState(GuestWalkingToBin)
			return
		}
	}
	g.dropLitter(env)
	g.setState(GuestWandering)
}

func (g *Guest) dropLitter(env *Env) {
	if !g.CarryingLitter {
		return
	}
	env.Park.DropLitter(g.Pos, g.LitterKind)
	g.CarryingLitter = false
	g.LitterKind = economy.LitterNone
}

func (g *Guest) tickWalkingToBin(dt float64, env *Env) {
	if !g.CarryingLitter || g.TargetBin == nil {
		g.abandon()
		return
	}
	b := env.Park.BinAt(*g.TargetBin)
	if b == nil {
		g.dropLitter(env)
		g.abandon()
		return
	}
	switch g.Step(env.Park.Grid, dt) {
	case StepBlocked:
		g.dropLitter(env)
		g.abandon()
		return
	case StepMoving:
		return
	}
	if g.Pos != b.Pos {
		g.dropLitter(env)
		g.abandon()
		return
	}
	g.setState(GuestUsingBin)
}

func (g *Guest) tickUsingBin(dt float64, env *Env) {
	g.stateTimer += dt
	if g.stateTimer < g.tuning.BinTime {
		return
	}
	var b *park.Bin
	if g.TargetBin != nil {
		b = env.Park.BinAt(*g.TargetBin)
	}
	if b != nil && b.Deposit() {
		g.CarryingLitter = false
		g.LitterKind = economy.LitterNone
	} else {
		g.dropLitter(env)
	}
	g.abandon()
}

func (g *Guest) tickLeaving(dt float64, env *Env) {
	gate, ok := env.Park.ParkEntrance()
	if ok && g.Pos == gate {
		g.depart()
		return
	}
	if g.Moving() {
		res := g.Step(env.Park.Grid, dt)
		if ok && g.Pos == gate {
			g.depart()
			return
		}
		if res != StepBlocked {
			return
		}
	}

	// Retry the route at most once per second.
	g.stateTimer -= dt
	if g.stateTimer > 0 {
		return
	}
	if ok && g.Route(env.Park.Grid, gate, pathfind.Standard) {
		return
	}
	g.leaveAttempts++
	g.stateTimer = 1
	if g.leaveAttempts >= g.tuning.LeaveRetries {
		slog.Debug("guest removed without reaching the gate", "guest", g.String(), "pos", g.Pos.String())
		g.depart()
	}
}

func (g *Guest) depart() {
	g.clearTargets()
	g.Stop()
	g.setState(GuestLeft)
}
