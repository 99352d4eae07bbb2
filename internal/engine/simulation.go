// Simulation ties together the park, its guests and its staff and runs them
// each tick.
package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/talgya/parkworld/internal/agents"
	"github.com/talgya/parkworld/internal/config"
	"github.com/talgya/parkworld/internal/economy"
	"github.com/talgya/parkworld/internal/entropy"
	"github.com/talgya/parkworld/internal/grid"
	"github.com/talgya/parkworld/internal/park"
	"github.com/talgya/parkworld/internal/staff"
)

// maxEvents bounds the in-memory event ring.
const maxEvents = 1000

// Event is a notable occurrence in the park.
type Event struct {
	Tick        uint64         `json:"tick"`
	Time        string         `json:"time"`
	Description string         `json:"description"`
	Category    string         `json:"category"` // "ride", "park", "staff", "guest"
	Meta        map[string]any `json:"meta,omitempty"`
}

// Simulation holds the complete park state and wires systems together.
// Every exported method takes the lock; fields may only be read inside Read.
type Simulation struct {
	Park     *park.Park
	Guests   []*agents.Guest
	Staff    []staff.Employee
	Spawner  *agents.Spawner
	Book     *economy.Book
	Events   []Event // Recent events, oldest first
	Stats    Stats   // Refreshed every sim-minute
	LastTick uint64  // Most recent tick processed
	Elapsed  float64 // Simulated seconds since the run started
	Closed   bool    // No admissions; every guest is heading out
	Admitted int     // Guests spawned so far
	Departed int     // Guests that left so far

	mu         sync.RWMutex
	cfg        *config.Config
	guestIndex map[uint64]*agents.Guest
	guestEnv   agents.Env
	staffEnv   staff.Env
	breakdowns entropy.Source
	spawnTimer float64
	nextStaff  uint64
	wasBroken  map[uint64]bool
	pending    []Event // Not yet handed to storage

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// NewSimulation creates a simulation over p. rng drives guests, staff and
// spawning; breakdowns drives ride failure rolls (nil uses rng).
func NewSimulation(cfg *config.Config, p *park.Park, rng, breakdowns entropy.Source) *Simulation {
	if breakdowns == nil {
		breakdowns = rng
	}
	book := economy.NewBook()
	s := &Simulation{
		Park:       p,
		Spawner:    agents.NewSpawner(rng, &cfg.Guest, cfg.Sim.TileTime),
		Book:       book,
		cfg:        cfg,
		guestIndex: make(map[uint64]*agents.Guest),
		guestEnv:   agents.Env{Park: p, Rng: rng, Ledger: book},
		staffEnv:   staff.Env{Park: p, Rng: rng, Cfg: &cfg.Staff},
		breakdowns: breakdowns,
		wasBroken:  make(map[uint64]bool),
		subs:       make(map[int]chan Event),
	}
	for _, r := range p.Rides {
		r.Penalty = cfg.Park.BreakdownPenalty
	}
	s.hireInitialStaff()
	s.Stats = s.computeStats()
	return s
}

// Config returns the configuration the simulation runs with.
func (s *Simulation) Config() *config.Config { return s.cfg }

// Read runs fn with the simulation locked for reading.
func (s *Simulation) Read(fn func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastTick
}

// SimTime renders the current tick as park clock time.
func (s *Simulation) SimTime() string {
	return SimTime(s.CurrentTick(), s.cfg.Sim.TickRate)
}

// Guest returns the guest with id, or nil. Call inside Read.
func (s *Simulation) Guest(id uint64) *agents.Guest {
	return s.guestIndex[id]
}

// staffPosts spreads n posts over the park's walkway cells, offset so that
// different kinds do not share a start cell.
func staffPosts(g *grid.Grid, n, offset int) []grid.Point {
	var cells []grid.Point
	g.ForEach(func(p grid.Point, t grid.TileType) {
		if t == grid.TilePath {
			cells = append(cells, p)
		}
	})
	if len(cells) == 0 || n <= 0 {
		return nil
	}
	posts := make([]grid.Point, n)
	step := max(1, len(cells)/n)
	for i := range posts {
		posts[i] = cells[(i*step+offset*7)%len(cells)]
	}
	return posts
}

func (s *Simulation) hireInitialStaff() {
	g := s.Park.Grid
	counts := []struct {
		kind staff.Kind
		n    int
	}{
		{staff.KindEngineer, s.cfg.Sim.Engineers},
		{staff.KindJanitor, s.cfg.Sim.Janitors},
		{staff.KindGardener, s.cfg.Sim.Gardeners},
		{staff.KindSecurity, s.cfg.Sim.Security},
		{staff.KindEntertainer, s.cfg.Sim.Entertainers},
	}
	for i, c := range counts {
		for _, pos := range staffPosts(g, c.n, i) {
			s.hire(c.kind, pos)
		}
	}
}

// Hire adds an employee of kind posted at pos.
func (s *Simulation) Hire(kind staff.Kind, pos grid.Point) (staff.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Park.Grid.InBounds(pos) {
		return nil, fmt.Errorf("hire %s: %s is outside the park", kind, pos)
	}
	return s.hire(kind, pos), nil
}

func (s *Simulation) hire(kind staff.Kind, pos grid.Point) staff.Employee {
	s.nextStaff++
	id, cfg, tt := s.nextStaff, &s.cfg.Staff, s.cfg.Sim.TileTime
	var e staff.Employee
	switch kind {
	case staff.KindEngineer:
		e = staff.NewEngineer(id, pos, cfg, tt)
	case staff.KindJanitor:
		e = staff.NewJanitor(id, pos, cfg, tt)
	case staff.KindGardener:
		e = staff.NewGardener(id, pos, cfg, tt)
	case staff.KindSecurity:
		e = staff.NewSecurity(id, pos, cfg, tt)
	default:
		e = staff.NewEntertainer(id, pos, cfg, tt)
	}
	e.SetPenalty(cfg.Penalty)
	s.Staff = append(s.Staff, e)
	slog.Debug("staff hired", "name", e.Name(), "post", pos.String())
	return e
}

// SetStaffPenalty applies an efficiency penalty to every employee. A penalty
// of 1 puts the whole staff on strike.
func (s *Simulation) SetStaffPenalty(p float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.Staff {
		e.SetPenalty(p)
	}
	s.emit("staff", fmt.Sprintf("Staff efficiency penalty set to %.0f%%", p*100), map[string]any{"penalty": p})
}

// Step advances the park by dt simulated seconds. The order is fixed: guests,
// staff, rides, queue rebuild, assignments, area effects, arrivals,
// departures, then lawn growth.
func (s *Simulation) Step(tick uint64, dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastTick = tick
	s.Elapsed += dt

	for _, g := range s.Guests {
		s.tickGuest(g, dt)
	}
	for _, e := range s.Staff {
		s.tickEmployee(e, dt)
	}
	s.tickRides(dt)
	if evicted := s.Park.SyncQueues(); len(evicted) > 0 {
		slog.Debug("queue rebuild evicted visitors", "count", len(evicted))
	}

	spots := s.guestSpots()
	s.assign(spots)
	s.applyEffects(dt, spots)
	s.spawn(dt)
	s.removeDeparted()
	s.Park.Lawn.Grow(s.Park.Grid, dt, s.cfg.Park.LawnGrowthRate)
}

// tickGuest runs one guest tick. A panic in a handler resets the guest
// instead of taking the simulation down.
func (s *Simulation) tickGuest(g *agents.Guest, dt float64) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("guest tick panicked, resetting", "guest", g.String(), "state", g.State.String(), "panic", r)
			g.Reset(&s.guestEnv)
		}
	}()
	g.Tick(dt, &s.guestEnv)
}

func (s *Simulation) tickEmployee(e staff.Employee, dt float64) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("staff tick panicked, resetting", "staff", e.Name(), "panic", r)
			e.Reset(&s.staffEnv)
		}
	}()
	e.Tick(dt, &s.staffEnv)
}

func (s *Simulation) tickRides(dt float64) {
	for _, r := range s.Park.Rides {
		r.Tick(dt, s.breakdowns)
		switch was := s.wasBroken[r.ID]; {
		case r.Broken && !was:
			s.emit("ride", fmt.Sprintf("%s broke down", r.Def.Name), map[string]any{"ride_id": r.ID})
		case !r.Broken && was:
			s.emit("ride", fmt.Sprintf("%s is running again", r.Def.Name), map[string]any{"ride_id": r.ID})
		}
		s.wasBroken[r.ID] = r.Broken
	}
}

// guestSpots lists the position of every guest walking the park. Riders are
// inside a footprint and do not count.
func (s *Simulation) guestSpots() []staff.GuestSpot {
	spots := make([]staff.GuestSpot, 0, len(s.Guests))
	for _, g := range s.Guests {
		if g.Active() && g.State != agents.GuestRiding {
			spots = append(spots, staff.GuestSpot{ID: g.ID, Pos: g.Pos})
		}
	}
	return spots
}

func (s *Simulation) removeDeparted() {
	n := 0
	for _, g := range s.Guests {
		if g.Active() {
			s.Guests[n] = g
			n++
			continue
		}
		delete(s.guestIndex, g.ID)
		s.Departed++
		slog.Debug("guest left", "guest", g.String(), "spent", g.Spent.String(), "rides", g.RidesTaken)
	}
	clear(s.Guests[n:])
	s.Guests = s.Guests[:n]
}

func (s *Simulation) spawn(dt float64) {
	if s.Closed || s.cfg.Sim.SpawnInterval <= 0 {
		return
	}
	gate, ok := s.Park.ParkEntrance()
	if !ok {
		return
	}
	s.spawnTimer += dt
	for s.spawnTimer >= s.cfg.Sim.SpawnInterval {
		s.spawnTimer -= s.cfg.Sim.SpawnInterval
		if len(s.Guests) >= s.cfg.Sim.MaxGuests {
			continue
		}
		g := s.Spawner.Spawn(gate)
		s.Guests = append(s.Guests, g)
		s.guestIndex[g.ID] = g
		s.Admitted++
	}
}

// AddGuest admits an already built guest. Used when seeding a scenario.
func (s *Simulation) AddGuest(g *agents.Guest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Guests = append(s.Guests, g)
	s.guestIndex[g.ID] = g
	s.Admitted++
	if g.ID >= s.Spawner.NextID() {
		s.Spawner.SetNextID(g.ID + 1)
	}
}

// ClosePark stops admissions and sends every guest home, detaching them from
// queues, rides and restrooms.
func (s *Simulation) ClosePark() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed {
		return
	}
	s.Closed = true
	for _, g := range s.Guests {
		g.ForceLeave(&s.guestEnv)
	}
	s.emit("park", "The park is closing", map[string]any{"guests": len(s.Guests)})
	slog.Info("park closed", "guests_leaving", len(s.Guests))
}

// OpenPark resumes admissions after a closure.
func (s *Simulation) OpenPark() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Closed {
		return
	}
	s.Closed = false
	s.emit("park", "The park has reopened", nil)
}

// TickMinute runs every sim-minute: payroll, ride upkeep, the consistency
// audit and the stats refresh.
func (s *Simulation) TickMinute(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.Staff {
		s.Book.AddExpense(e.Salary(), "salaries")
	}
	for _, r := range s.Park.Rides {
		if !r.Broken {
			s.Book.AddExpense(r.Def.RunningCost, "ride upkeep")
		}
	}
	if err := s.Park.CheckInvariants(); err != nil {
		slog.Error("park invariant violated", "tick", tick, "error", err)
		s.emit("park", "Consistency audit failed: "+err.Error(), nil)
	}

	s.Stats = s.computeStats()
	slog.Info("park report",
		"tick", tick,
		"time", SimTime(tick, s.cfg.Sim.TickRate),
		"guests", s.Stats.Guests,
		"queued", s.Stats.Queued,
		"riding", s.Stats.Riding,
		"admitted", humanize.Comma(int64(s.Admitted)),
		"avg_satisfaction", fmt.Sprintf("%.3f", s.Stats.AvgSatisfaction),
		"broken_rides", s.Stats.BrokenRides,
		"litter", s.Stats.Litter,
		"balance", s.Stats.Balance.String(),
	)
}

// TickHour runs every sim-hour: the finance summary.
func (s *Simulation) TickHour(tick uint64) {
	s.Book.LogSummary()
	s.mu.Lock()
	defer s.mu.Unlock()
	income, expenses := s.Book.Income(), s.Book.Expenses()
	s.emit("park", fmt.Sprintf("Hourly finances: %s in, %s out", income, expenses),
		map[string]any{"income": int64(income), "expenses": int64(expenses)})
}

// TakePending returns events recorded since the last call and forgets them.
func (s *Simulation) TakePending() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

// emit records an event. Callers hold the lock.
func (s *Simulation) emit(category, desc string, meta map[string]any) {
	e := Event{
		Tick:        s.LastTick,
		Time:        SimTime(s.LastTick, s.cfg.Sim.TickRate),
		Description: desc,
		Category:    category,
		Meta:        meta,
	}
	s.Events = append(s.Events, e)
	if len(s.Events) > maxEvents {
		s.Events = s.Events[len(s.Events)-maxEvents:]
	}
	s.pending = append(s.pending, e)
	if len(s.pending) > maxEvents {
		s.pending = s.pending[len(s.pending)-maxEvents:]
	}
	s.broadcast(e)
}

// RecentEvents returns up to limit of the newest events, oldest first.
func (s *Simulation) RecentEvents(limit int, category string) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for i := len(s.Events) - 1; i >= 0 && len(out) < limit; i-- {
		if category == "" || s.Events[i].Category == category {
			out = append(out, s.Events[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Tick < out[j].Tick })
	return out
}

// Subscribe registers a listener for new events. The channel is buffered;
// a slow listener misses events rather than stalling the tick.
func (s *Simulation) Subscribe() (int, <-chan Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextSub++
	ch := make(chan Event, 64)
	s.subs[s.nextSub] = ch
	return s.nextSub, ch
}

// Unsubscribe removes a listener and closes its channel.
func (s *Simulation) Unsubscribe(id int) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if ch, ok := s.subs[id]; ok {
		close(ch)
		delete(s.subs, id)
	}
}

func (s *Simulation) broadcast(e Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
