// Package agents defines park guests: their needs, the state machine that
// drives them, and the movement primitive they share with staff.
package agents

import (
	"fmt"

	"github.com/talgya/parkworld/internal/config"
	"github.com/talgya/parkworld/internal/economy"
	"github.com/talgya/parkworld/internal/entropy"
	"github.com/talgya/parkworld/internal/grid"
	"github.com/talgya/parkworld/internal/park"
	"github.com/talgya/parkworld/internal/queue"
	"github.com/talgya/parkworld/internal/ride"
)

// GuestState is the single state tag of a guest.
type GuestState uint8

const (
	GuestEntering GuestState = iota
	GuestWandering
	GuestWalkingToQueue
	GuestQueuing
	GuestRiding
	GuestExiting
	GuestWalkingToShop
	GuestShopping
	GuestWalkingToFood
	GuestEating
	GuestWalkingToDrink
	GuestDrinking
	GuestWalkingToRestroom
	GuestUsingRestroom
	GuestWalkingToBin
	GuestUsingBin
	GuestLeaving
	GuestLeft

	guestStateCount
)

var guestStateNames = [guestStateCount]string{
	GuestEntering:          "entering",
	GuestWandering:         "wandering",
	GuestWalkingToQueue:    "walking_to_queue",
	GuestQueuing:           "queuing",
	GuestRiding:            "riding",
	GuestExiting:           "exiting",
	GuestWalkingToShop:     "walking_to_shop",
	GuestShopping:          "shopping",
	GuestWalkingToFood:     "walking_to_food",
	GuestEating:            "eating",
	GuestWalkingToDrink:    "walking_to_drink",
	GuestDrinking:          "drinking",
	GuestWalkingToRestroom: "walking_to_restroom",
	GuestUsingRestroom:     "using_restroom",
	GuestWalkingToBin:      "walking_to_bin",
	GuestUsingBin:          "using_bin",
	GuestLeaving:           "leaving",
	GuestLeft:              "left",
}

func (s GuestState) String() string {
	if s < guestStateCount {
		return guestStateNames[s]
	}
	return fmt.Sprintf("guest_state(%d)", uint8(s))
}

// MarshalText encodes the state by name for JSON.
func (s GuestState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Free reports whether litter handling may interrupt the state.
func (s GuestState) Free() bool {
	switch s {
	case GuestWandering, GuestWalkingToShop, GuestWalkingToFood, GuestWalkingToDrink:
		return true
	}
	return false
}

// Env is what a guest reads and writes during a tick.
type Env struct {
	Park   *park.Park
	Rng    entropy.Source
	Ledger economy.Ledger
}

// Guest is one park visitor.
type Guest struct {
	ID    uint64     `json:"id"`
	Name  string     `json:"name"`
	State GuestState `json:"state"`
	Mover

	// Needs, each in [0,1]. Hunger and thirst are fullness and fall over
	// time; bladder rises.
	Hunger  float64 `json:"hunger"`
	Thirst  float64 `json:"thirst"`
	Bladder float64 `json:"bladder"`

	Satisfaction float64 `json:"satisfaction"`
	Happiness    float64 `json:"happiness"`
	Excitement   float64 `json:"excitement"`

	Money economy.Money `json:"money"`
	Spent economy.Money `json:"spent"`

	ThrillPref      float64 `json:"thrill_pref"`
	NauseaTolerance float64 `json:"nausea_tolerance"`
	TimeInPark      float64 `json:"time_in_park"`
	MaxStay         float64 `json:"max_stay"`

	CarryingLitter bool               `json:"carrying_litter"`
	LitterKind     economy.LitterKind `json:"litter_kind"`

	// At most one target is set at a time.
	TargetRide     uint64      `json:"target_ride,omitempty"`
	TargetFacility uint64      `json:"target_facility,omitempty"`
	TargetBin      *grid.Point `json:"target_bin,omitempty"`

	CurrentQueue *queue.Path `json:"-"`
	OnRide       *ride.Ride  `json:"-"`

	RidesTaken int `json:"rides_taken"`

	tuning     *config.Guest
	exitTarget grid.Point
	purchase   economy.Good

	stateTimer    float64
	decisionTimer float64
	patienceTimer float64
	litterTimer   float64
	litterDelay   float64
	leaveAttempts int
	waiting       bool // Standing at a full restroom door
}

func (g *Guest) String() string {
	return fmt.Sprintf("%s#%d", g.Name, g.ID)
}

// Active reports whether the guest is still in the park.
func (g *Guest) Active() bool { return g.State != GuestLeft }

// QueueTile returns the queue tile the guest stands on, if queuing.
func (g *Guest) QueueTile() *queue.Tile {
	if g.CurrentQueue == nil {
		return nil
	}
	t, _ := g.CurrentQueue.TileOf(g)
	return t
}

// QueuePosition is the guest's place in line, 0 at the front, or -1.
func (g *Guest) QueuePosition() int {
	if g.CurrentQueue == nil {
		return -1
	}
	return g.CurrentQueue.Position(g)
}

// AdjustSatisfaction adds delta and clamps to [0,1].
func (g *Guest) AdjustSatisfaction(delta float64) {
	g.Satisfaction = clamp01(g.Satisfaction + delta)
}

// AdjustHappiness adds delta and clamps to [0,1].
func (g *Guest) AdjustHappiness(delta float64) {
	g.Happiness = clamp01(g.Happiness + delta)
}

func (g *Guest) setState(s GuestState) {
	g.State = s
	g.stateTimer = 0
	g.waiting = false
}

func (g *Guest) clearTargets() {
	g.TargetRide = 0
	g.TargetFacility = 0
	g.TargetBin = nil
}

// VisitorID implements queue.Visitor.
func (g *Guest) VisitorID() uint64 { return g.ID }

// QueueReassigned implements queue.Visitor. A nil path means the guest was
// evacuated or its tile vanished; it goes back to wandering.
func (g *Guest) QueueReassigned(p *queue.Path) {
	g.CurrentQueue = p
	if p != nil {
		return
	}
	if g.State == GuestQueuing {
		g.clearTargets()
		g.Stop()
		g.setState(GuestWandering)
	}
}

// RiderID implements ride.Rider.
func (g *Guest) RiderID() uint64 { return g.ID }

// BoardedRide implements ride.Rider. The ride has already taken the guest off
// its queue.
func (g *Guest) BoardedRide(r *ride.Ride) {
	g.CurrentQueue = nil
	g.OnRide = r
	g.Teleport(r.Footprint.Center())
	g.setState(GuestRiding)
}

// FinishRide implements ride.Rider. The guest is set down on the ride's
// exit and leaves from there.
func (g *Guest) FinishRide(r *ride.Ride) {
	g.OnRide = nil
	g.RidesTaken++
	g.clearTargets()
	g.Excitement = clamp01(g.Excitement + r.Def.Thrill*g.tuning.RideExcitement)
	fit := 1 - abs(r.Def.Thrill-g.ThrillPref)
	g.AdjustHappiness(0.1 * fit)
	g.AdjustSatisfaction(0.05 * fit)
	if excess := r.Def.Nausea - g.NauseaTolerance; excess > 0 {
		g.AdjustSatisfaction(-excess * 0.2)
	}
	if exit, ok := r.ExitPoint(); ok {
		g.Teleport(exit)
	} else {
		g.Stop()
	}
	g.exitTarget = g.Pos
	g.setState(GuestExiting)
}

// EjectFromRide implements ride.Rider. Eviction is instantaneous: the guest
// appears at the exit and wanders with a satisfaction penalty.
func (g *Guest) EjectFromRide(r *ride.Ride, penalty float64) {
	g.OnRide = nil
	g.clearTargets()
	g.AdjustSatisfaction(-penalty)
	if exit, ok := r.ExitPoint(); ok {
		g.Teleport(exit)
	} else {
		g.Stop()
	}
	g.setState(GuestWandering)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
