// Package ride implements the per-ride lifecycle: boarding, launch, the ride
// cycle, and breakdown with instant evacuation of riders and queue.
package ride

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/parkworld/internal/entropy"
	"github.com/talgya/parkworld/internal/grid"
	"github.com/talgya/parkworld/internal/queue"
)

var (
	ErrBroken         = errors.New("ride is broken")
	ErrFull           = errors.New("ride is full")
	ErrLaunched       = errors.New("ride has launched")
	ErrAlreadyPlaced  = errors.New("access point already placed")
	ErrOverlap        = errors.New("entrance and exit overlap")
	ErrBadAccessPoint = errors.New("access point must touch the footprint edge")
)

// DefaultBreakdownPenalty is the satisfaction lost by a rider thrown off a
// broken ride.
const DefaultBreakdownPenalty = 0.2

// State is the operating phase of a ride.
type State uint8

const (
	StateIdle State = iota
	StateBoarding
	StateLaunched
)

func (s State) String() string {
	switch s {
	case StateBoarding:
		return "boarding"
	case StateLaunched:
		return "launched"
	}
	return "idle"
}

// Rider is anyone who can sit on a ride.
type Rider interface {
	RiderID() uint64
	BoardedRide(r *Ride)
	FinishRide(r *Ride)
	EjectFromRide(r *Ride, penalty float64)
}

// Ride is one placed attraction.
type Ride struct {
	ID            uint64      `json:"id"`
	Def           Definition  `json:"definition"`
	Footprint     grid.Rect   `json:"footprint"`
	Entrance      *grid.Point `json:"entrance,omitempty"`
	Exit          *grid.Point `json:"exit,omitempty"`
	Riders        []Rider     `json:"-"`
	State         State       `json:"state"`
	Broken        bool        `json:"broken"`
	BeingRepaired bool        `json:"being_repaired"`
	ClaimedBy     uint64      `json:"claimed_by,omitempty"` // Engineer ID, 0 if none
	Queue         *queue.Path `json:"-"`
	Penalty       float64     `json:"-"` // Satisfaction penalty on breakdown

	// Lifetime counters.
	Cycles      int `json:"cycles"`
	Breakdowns  int `json:"breakdowns"`
	TotalRiders int `json:"total_riders"`

	boardTimer   float64
	runTimer     float64
	secondsAccum float64
}

// New creates a ride occupying footprint. Entrance and exit are placed later.
func New(id uint64, def Definition, footprint grid.Rect) *Ride {
	return &Ride{
		ID:        id,
		Def:       def,
		Footprint: footprint,
		Penalty:   DefaultBreakdownPenalty,
	}
}

func (r *Ride) String() string {
	return fmt.Sprintf("%s#%d", r.Def.Name, r.ID)
}

// Status summarises the ride for reporting.
func (r *Ride) Status() string {
	switch {
	case r.BeingRepaired:
		return "repairing"
	case r.Broken:
		return "broken"
	}
	return r.State.String()
}

// ValidateAccessPoint checks that p touches the footprint along an edge from
// outside. Outside (diagonal) corners are rejected.
func (r *Ride) ValidateAccessPoint(p grid.Point) error {
	if !r.Footprint.EdgeAdjacent(p) {
		return fmt.Errorf("%s at %s: %w", r, p, ErrBadAccessPoint)
	}
	return nil
}

// CheckEntrance validates a prospective entrance without placing it.
func (r *Ride) CheckEntrance(p grid.Point) error {
	if r.Entrance != nil {
		return fmt.Errorf("%s entrance: %w", r, ErrAlreadyPlaced)
	}
	if r.Exit != nil && *r.Exit == p {
		return fmt.Errorf("%s entrance: %w", r, ErrOverlap)
	}
	return r.ValidateAccessPoint(p)
}

// CheckExit validates a prospective exit without placing it.
func (r *Ride) CheckExit(p grid.Point) error {
	if r.Exit != nil {
		return fmt.Errorf("%s exit: %w", r, ErrAlreadyPlaced)
	}
	if r.Entrance != nil && *r.Entrance == p {
		return fmt.Errorf("%s exit: %w", r, ErrOverlap)
	}
	return r.ValidateAccessPoint(p)
}

// PlaceEntrance records the entrance. It may be placed once.
func (r *Ride) PlaceEntrance(p grid.Point) error {
	if err := r.CheckEntrance(p); err != nil {
		return err
	}
	r.Entrance = &p
	return nil
}

// PlaceExit records the exit. It may be placed once.
func (r *Ride) PlaceExit(p grid.Point) error {
	if err := r.CheckExit(p); err != nil {
		return err
	}
	r.Exit = &p
	return nil
}

// ExitPoint is where riders leave: the exit, or the entrance when no exit has
// been placed.
func (r *Ride) ExitPoint() (grid.Point, bool) {
	switch {
	case r.Exit != nil:
		return *r.Exit, true
	case r.Entrance != nil:
		return *r.Entrance, true
	}
	return grid.Point{}, false
}

// Operational reports whether the ride can run at all.
func (r *Ride) Operational() bool {
	return !r.Broken && !r.BeingRepaired && r.Entrance != nil
}

// CanBoard reports whether a rider would be accepted right now.
func (r *Ride) CanBoard() bool {
	return !r.Broken && !r.BeingRepaired && r.State != StateLaunched && len(r.Riders) < r.Def.Capacity
}

// Board seats a rider. Reaching the launch threshold launches the ride
// within the same call.
func (r *Ride) Board(rider Rider) error {
	switch {
	case r.Broken || r.BeingRepaired:
		return ErrBroken
	case r.State == StateLaunched:
		return ErrLaunched
	case len(r.Riders) >= r.Def.Capacity:
		return ErrFull
	}

	r.Riders = append(r.Riders, rider)
	r.TotalRiders++
	rider.BoardedRide(r)
	if r.State == StateIdle {
		r.State = StateBoarding
		r.boardTimer = 0
	}
	if len(r.Riders) >= r.Def.LaunchThreshold() {
		r.launch()
	}
	return nil
}

// Unboard removes a rider without notifying it. Used when the park closes and
// the rider is already being sent home.
func (r *Ride) Unboard(rider Rider) bool {
	id := rider.RiderID()
	for i, o := range r.Riders {
		if o.RiderID() == id {
			r.Riders = append(r.Riders[:i:i], r.Riders[i+1:]...)
			if len(r.Riders) == 0 && r.State == StateBoarding {
				r.State = StateIdle
			}
			return true
		}
	}
	return false
}

// HasRider reports whether rider is aboard.
func (r *Ride) HasRider(rider Rider) bool {
	id := rider.RiderID()
	for _, o := range r.Riders {
		if o.RiderID() == id {
			return true
		}
	}
	return false
}

func (r *Ride) launch() {
	r.State = StateLaunched
	r.runTimer = 0
	slog.Debug("ride launched", "ride", r.String(), "riders", len(r.Riders))
}

// Tick advances the ride by dt seconds. Breakdown is rolled once per whole
// second of operation; boarding pulls the front visitor off the queue's exit
// tile.
func (r *Ride) Tick(dt float64, rng entropy.Source) {
	if r.Broken {
		return
	}

	r.secondsAccum += dt
	for r.secondsAccum >= 1 {
		r.secondsAccum--
		if r.Def.BreakdownChance > 0 && rng.Float64() < r.Def.BreakdownChance {
			r.Break(r.Penalty)
			return
		}
	}

	switch r.State {
	case StateIdle, StateBoarding:
		r.boardFromQueue()
		if r.State == StateBoarding {
			r.boardTimer += dt
			if r.boardTimer >= r.Def.LaunchWait && len(r.Riders) > 0 {
				r.launch()
			}
		}
	case StateLaunched:
		r.runTimer += dt
		if r.runTimer >= r.Def.RideDuration {
			r.finishCycle()
		}
	}
}

// boardFromQueue seats the visitors standing on the queue's exit tile at the
// start of the tick, up to the launch threshold, then moves the rest of the
// line forward a single step.
func (r *Ride) boardFromQueue() {
	if r.Queue == nil || r.Entrance == nil || !r.CanBoard() {
		return
	}
	seats := r.Def.LaunchThreshold() - len(r.Riders)
	if free := r.Def.Capacity - len(r.Riders); free < seats {
		seats = free
	}
	for _, v := range r.Queue.TakeFront(seats) {
		rider, ok := v.(Rider)
		if !ok {
			v.QueueReassigned(nil)
			continue
		}
		if err := r.Board(rider); err != nil {
			slog.Warn("boarding failed after dequeue", "ride", r.String(), "rider", rider.RiderID(), "error", err)
			v.QueueReassigned(nil)
		}
	}
	r.Queue.Advance()
}

func (r *Ride) finishCycle() {
	riders := r.Riders
	r.Riders = nil
	r.State = StateIdle
	r.runTimer = 0
	r.boardTimer = 0
	r.Cycles++
	for _, rider := range riders {
		rider.FinishRide(r)
	}
}

// Break flags the ride broken, throws every rider off with penalty and
// evacuates the connected queue.
func (r *Ride) Break(penalty float64) {
	if r.Broken {
		return
	}
	r.Broken = true
	r.BeingRepaired = false
	r.ClaimedBy = 0
	r.Breakdowns++

	riders, queued := r.Evacuate(penalty)
	slog.Info("ride broke down", "ride", r.String(), "riders_ejected", riders, "queue_evacuated", queued)
}

// Evacuate ejects every rider instantly with penalty, empties the connected
// queue and resets the cycle. It returns how many riders and queued visitors
// were removed.
func (r *Ride) Evacuate(penalty float64) (riders, queued int) {
	aboard := r.Riders
	r.Riders = nil
	r.State = StateIdle
	r.boardTimer = 0
	r.runTimer = 0
	for _, rider := range aboard {
		rider.EjectFromRide(r, penalty)
	}
	if r.Queue != nil {
		queued = len(r.Queue.Evacuate())
	}
	return len(aboard), queued
}

// Claim reserves a broken ride for one engineer.
func (r *Ride) Claim(engineerID uint64) bool {
	if !r.Broken || (r.ClaimedBy != 0 && r.ClaimedBy != engineerID) {
		return false
	}
	r.ClaimedBy = engineerID
	return true
}

// ReleaseClaim drops an engineer's claim without repairing.
func (r *Ride) ReleaseClaim(engineerID uint64) {
	if r.ClaimedBy == engineerID {
		r.ClaimedBy = 0
		r.BeingRepaired = false
	}
}

// StartRepair marks the ride as being worked on.
func (r *Ride) StartRepair(engineerID uint64) {
	if r.Broken && r.ClaimedBy == engineerID {
		r.BeingRepaired = true
	}
}

// CompleteRepair returns the ride to service.
func (r *Ride) CompleteRepair() {
	r.Broken = false
	r.BeingRepaired = false
	r.ClaimedBy = 0
	r.secondsAccum = 0
	slog.Info("ride repaired", "ride", r.String())
}

// CheckInvariants reports capacity and launch consistency violations.
func (r *Ride) CheckInvariants() error {
	if len(r.Riders) > r.Def.Capacity {
		return fmt.Errorf("%s: %d riders exceed capacity %d", r, len(r.Riders), r.Def.Capacity)
	}
	if r.Broken && len(r.Riders) > 0 {
		return fmt.Errorf("%s: broken with %d riders aboard", r, len(r.Riders))
	}
	return nil
}
