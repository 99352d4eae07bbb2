package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/parkworld/internal/config"
	"github.com/talgya/parkworld/internal/economy"
	"github.com/talgya/parkworld/internal/entropy"
	"github.com/talgya/parkworld/internal/grid"
	"github.com/talgya/parkworld/internal/park"
	"github.com/talgya/parkworld/internal/pathfind"
	"github.com/talgya/parkworld/internal/ride"
)

type fixedSource struct{ v float64 }

func (f fixedSource) Float64() float64 { return f.v }
func (f fixedSource) IntN(int) int     { return 0 }

var calm = fixedSource{v: 0.99}

type fixture struct {
	park     *park.Park
	cfg      *config.Config
	book     *economy.Book
	env      *Env
	carousel *ride.Ride
	restroom *park.Facility
	bin      *park.Bin
}

func facilityDef(t *testing.T, name string) park.FacilityDef {
	t.Helper()
	for _, d := range park.DefaultFacilities() {
		if d.Name == name {
			return d
		}
	}
	t.Fatalf("no facility %q", name)
	return park.FacilityDef{}
}

// newFixture lays out a 20x20 park: a main street on row 10 with a street
// down to the gate at (10,19), a carousel north of the street with a two-tile
// queue, a restroom, a soda fountain, a burger stand and one bin.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.Park.Width, cfg.Park.Height = 20, 20
	cfg.Seed = 3
	p := park.New(cfg)

	require.NoError(t, p.PlacePathLine(grid.Pt(0, 10), grid.Pt(19, 10)))
	require.NoError(t, p.PlacePathLine(grid.Pt(10, 11), grid.Pt(10, 18)))
	require.NoError(t, p.SetParkEntrance(grid.Pt(10, 19)))

	def, ok := ride.DefinitionByName(ride.DefaultDefinitions(), "Carousel")
	require.True(t, ok)
	r, err := p.PlaceRide(def, grid.Pt(4, 4))
	require.NoError(t, err)
	require.NoError(t, p.PlaceRideEntrance(r.ID, grid.Pt(5, 7)))
	require.NoError(t, p.PlaceRideExit(r.ID, grid.Pt(7, 5)))
	require.NoError(t, p.PlaceQueueLine(grid.Pt(5, 9), grid.Pt(5, 8)))
	require.NoError(t, p.PlacePathLine(grid.Pt(8, 5), grid.Pt(8, 9)))

	restroom, err := p.PlaceFacility(facilityDef(t, "Restroom"), grid.Pt(2, 12), grid.Pt(2, 11))
	require.NoError(t, err)
	_, err = p.PlaceFacility(facilityDef(t, "Soda Fountain"), grid.Pt(5, 12), grid.Pt(5, 11))
	require.NoError(t, err)
	_, err = p.PlaceFacility(facilityDef(t, "Burger Stand"), grid.Pt(14, 12), grid.Pt(14, 11))
	require.NoError(t, err)
	bin, err := p.PlaceBin(grid.Pt(12, 10))
	require.NoError(t, err)

	p.SyncQueues()
	require.NotNil(t, r.Queue)

	book := economy.NewBook()
	return &fixture{
		park:     p,
		cfg:      cfg,
		book:     book,
		env:      &Env{Park: p, Rng: entropy.NewSeeded(7), Ledger: book},
		carousel: r,
		restroom: restroom,
		bin:      bin,
	}
}

func (f *fixture) guest(id uint64, pos grid.Point) *Guest {
	g := NewGuest(id, "Test Guest", pos, &f.cfg.Guest, f.cfg.Sim.TileTime)
	g.State = GuestWandering
	g.Money = 10000
	return g
}

func (f *fixture) enqueue(t *testing.T, g *Guest) {
	t.Helper()
	require.True(t, f.carousel.Queue.AddVisitor(g))
	g.CurrentQueue = f.carousel.Queue
	g.State = GuestQueuing
}

// run ticks the guest and the carousel until done returns true or the time
// limit passes, checking invariants every tick.
func (f *fixture) run(t *testing.T, g *Guest, seconds float64, done func() bool) {
	t.Helper()
	const dt = 0.1
	for elapsed := 0.0; elapsed < seconds; elapsed += dt {
		g.Tick(dt, f.env)
		f.carousel.Tick(dt, calm)
		require.NoError(t, g.CheckConsistency())
		require.NoError(t, f.park.CheckInvariants())
		if done() {
			return
		}
	}
}

func TestBladderPreemptsRideChoice(t *testing.T) {
	f := newFixture(t)
	g := f.guest(1, grid.Pt(8, 10))
	g.ThrillPref = f.carousel.Def.Thrill
	g.Bladder = 0.75

	g.Tick(f.cfg.Guest.DecisionInterval, f.env)
	assert.Equal(t, GuestWalkingToRestroom, g.State)
	assert.Equal(t, f.restroom.ID, g.TargetFacility)
	assert.Zero(t, g.TargetRide)
	assert.Equal(t, f.restroom.Door, g.Destination())

	calmGuest := f.guest(2, grid.Pt(8, 10))
	calmGuest.ThrillPref = f.carousel.Def.Thrill
	calmGuest.Bladder = 0.5
	calmGuest.Tick(f.cfg.Guest.DecisionInterval, f.env)
	assert.Equal(t, GuestWalkingToQueue, calmGuest.State)
	assert.Equal(t, f.carousel.ID, calmGuest.TargetRide)
}

func TestNeedsPriorityOrder(t *testing.T) {
	f := newFixture(t)
	g := f.guest(1, grid.Pt(8, 10))
	g.Bladder, g.Thirst, g.Hunger = 0.9, 0.1, 0.1
	assert.Equal(t, []Need{NeedRestroom, NeedDrink, NeedFood}, g.UrgentNeeds())

	// With the restroom full the guest moves on to the next need.
	for id := uint64(100); !f.restroom.Full(); id++ {
		require.True(t, f.restroom.Enter(id))
	}
	g.Tick(f.cfg.Guest.DecisionInterval, f.env)
	assert.Equal(t, GuestWalkingToDrink, g.State)
}

func TestRestroomVisitEmptiesBladder(t *testing.T) {
	f := newFixture(t)
	g := f.guest(1, grid.Pt(8, 10))
	g.Bladder = 0.8

	used := false
	f.run(t, g, 30, func() bool {
		if g.State == GuestUsingRestroom {
			used = true
			assert.True(t, f.restroom.Has(g.ID))
		}
		return used && g.State != GuestUsingRestroom
	})
	require.True(t, used)
	assert.Less(t, g.Bladder, 0.05)
	assert.False(t, f.restroom.Has(g.ID))
}

func TestFullRestroomWaitThenAbandon(t *testing.T) {
	f := newFixture(t)
	for id := uint64(100); !f.restroom.Full(); id++ {
		require.True(t, f.restroom.Enter(id))
	}
	g := f.guest(1, grid.Pt(8, 10))
	g.Bladder = 0.8
	assert.False(t, g.seekFacility(f.env, park.KindRestroom), "the decision pass skips full restrooms")

	// Send the guest anyway, as if the restroom filled up on the way.
	require.True(t, g.Route(f.park.Grid, f.restroom.Door, pathfind.Standard))
	g.setState(GuestWalkingToRestroom)
	g.TargetFacility = f.restroom.ID

	waited := false
	f.run(t, g, 30, func() bool {
		require.NotEqual(t, GuestUsingRestroom, g.State)
		if g.waiting {
			waited = true
		}
		return waited && g.State != GuestWalkingToRestroom
	})
	assert.True(t, waited)
	assert.NotEqual(t, GuestWalkingToRestroom, g.State)
	assert.False(t, f.restroom.Has(g.ID))
}

func TestQueueRideExitCycle(t *testing.T) {
	f := newFixture(t)
	g := f.guest(1, grid.Pt(8, 10))
	g.ThrillPref = f.carousel.Def.Thrill

	seen := map[GuestState]bool{}
	f.run(t, g, 60, func() bool {
		seen[g.State] = true
		if g.State == GuestQueuing {
			require.NotNil(t, g.QueueTile())
			assert.Equal(t, g.QueueTile().Pos, g.Pos)
		}
		return seen[GuestExiting] && g.State == GuestWandering
	})
	for _, s := range []GuestState{GuestWalkingToQueue, GuestQueuing, GuestRiding, GuestExiting} {
		assert.True(t, seen[s], "passed through %s", s)
	}
	assert.Equal(t, 1, g.RidesTaken)
	assert.Equal(t, grid.Pt(7, 5), g.Pos, "ends on the ride exit")
	assert.Equal(t, f.carousel.Def.TicketPrice, f.book.Income())
	assert.Equal(t, economy.Money(10000)-f.carousel.Def.TicketPrice, g.Money)
}

func TestRidersLeaveFromTheExitNotTheFootprint(t *testing.T) {
	f := newFixture(t)
	g := f.guest(1, grid.Pt(5, 8))
	require.NoError(t, f.carousel.Board(g))
	require.Equal(t, GuestRiding, g.State)

	exited := false
	f.run(t, g, f.carousel.Def.LaunchWait+f.carousel.Def.RideDuration+5, func() bool {
		if g.State == GuestExiting {
			exited = true
			assert.Equal(t, grid.Pt(7, 5), g.Pos)
		}
		if g.State != GuestRiding {
			assert.False(t, f.park.Grid.Is(g.Pos, grid.TileRide), "guest stands on the footprint at %s", g.Pos)
		}
		return exited && g.State == GuestWandering
	})
	require.True(t, exited)
	assert.Equal(t, 1, g.RidesTaken)
}

func TestBreakdownEvacuatesRidersAndQueue(t *testing.T) {
	f := newFixture(t)
	r := f.carousel

	var riders, queued []*Guest
	for i := uint64(1); i <= 3; i++ {
		g := f.guest(i, grid.Pt(5, 8))
		require.NoError(t, r.Board(g))
		riders = append(riders, g)
	}
	for i := uint64(4); i <= 7; i++ {
		g := f.guest(i, grid.Pt(5, 9))
		f.enqueue(t, g)
		queued = append(queued, g)
	}
	require.Equal(t, ride.StateBoarding, r.State)
	require.Equal(t, 4, r.Queue.Len())

	r.Break(r.Penalty)

	assert.Empty(t, r.Riders)
	assert.Zero(t, r.Queue.Len())
	for _, g := range append(append([]*Guest{}, riders...), queued...) {
		assert.Equal(t, GuestWandering, g.State, g.String())
		assert.Nil(t, g.CurrentQueue)
		assert.Nil(t, g.OnRide)
		assert.Equal(t, -1, g.QueuePosition())
		require.NoError(t, g.CheckConsistency())
	}
	for _, g := range riders {
		assert.InDelta(t, 0.8-r.Penalty, g.Satisfaction, 1e-9)
		assert.Equal(t, grid.Pt(7, 5), g.Pos)
	}
	for _, g := range queued {
		assert.InDelta(t, 0.8, g.Satisfaction, 1e-9)
	}
	require.NoError(t, f.park.CheckInvariants())
}

func TestQueuePatienceExpires(t *testing.T) {
	f := newFixture(t)
	f.cfg.Guest.QueuePatience = 1
	g := f.guest(1, grid.Pt(5, 9))
	f.enqueue(t, g)

	g.Tick(0.5, f.env)
	assert.Equal(t, GuestQueuing, g.State)
	g.Tick(0.6, f.env)
	assert.Equal(t, GuestWandering, g.State)
	assert.Zero(t, f.carousel.Queue.Len())
	assert.InDelta(t, 0.8-f.cfg.Guest.QueuePenalty, g.Satisfaction, 1e-9)
}

func TestLitterGoesInBin(t *testing.T) {
	f := newFixture(t)
	g := f.guest(1, grid.Pt(8, 10))
	g.CarryingLitter = true
	g.LitterKind = economy.LitterCup

	g.Tick(f.cfg.Guest.DecisionInterval, f.env)
	require.Equal(t, GuestWalkingToBin, g.State)
	f.run(t, g, 10, func() bool { return !g.CarryingLitter })
	assert.False(t, g.CarryingLitter)
	assert.Equal(t, 1, f.bin.Fill)
	assert.Empty(t, f.park.Litter)
}

func TestLitterDroppedWithoutBin(t *testing.T) {
	f := newFixture(t)
	for f.bin.Deposit() {
	}
	g := f.guest(1, grid.Pt(8, 10))
	g.CarryingLitter = true
	g.LitterKind = economy.LitterWrapper

	g.Tick(f.cfg.Guest.DecisionInterval, f.env)
	assert.False(t, g.CarryingLitter)
	require.Len(t, f.park.Litter, 1)
	assert.Equal(t, grid.Pt(8, 10), f.park.Litter[0].Pos)
	assert.Equal(t, economy.LitterWrapper, f.park.Litter[0].Kind)
}

func TestLitterInterruptsWalkToFood(t *testing.T) {
	f := newFixture(t)
	g := f.guest(1, grid.Pt(8, 10))
	g.Hunger = 0.1
	g.Tick(f.cfg.Guest.DecisionInterval, f.env)
	require.Equal(t, GuestWalkingToFood, g.State)

	g.CarryingLitter = true
	g.LitterKind = economy.LitterCup
	g.Tick(0.1, f.env)
	assert.Equal(t, GuestWalkingToBin, g.State)
	assert.Zero(t, g.TargetFacility)
}

func TestEatingRestoresHungerAndLeavesLitter(t *testing.T) {
	f := newFixture(t)
	g := f.guest(1, grid.Pt(14, 11))
	g.Hunger = 0.2
	g.purchase = f.park.Goods[economy.GoodBurger]
	g.setState(GuestEating)

	g.Tick(f.cfg.Guest.EatTime, f.env)
	assert.Equal(t, GuestWandering, g.State)
	assert.Greater(t, g.Hunger, 0.7)
	assert.True(t, g.CarryingLitter)
	assert.Equal(t, economy.LitterWrapper, g.LitterKind)
	assert.GreaterOrEqual(t, g.litterDelay, f.cfg.Guest.LitterDelayMin)
}

func TestBuyingFoodPaysTheLedger(t *testing.T) {
	f := newFixture(t)
	g := f.guest(1, grid.Pt(8, 10))
	g.Hunger = 0.1
	f.run(t, g, 20, func() bool { return g.State == GuestEating })
	require.Equal(t, GuestEating, g.State)
	price := f.park.Goods[economy.GoodBurger].Price
	assert.Equal(t, price, f.book.Income())
	assert.Equal(t, economy.Money(10000)-price, g.Money)
}

func TestEnteringPaysFee(t *testing.T) {
	f := newFixture(t)
	g := f.guest(1, grid.Pt(10, 19))
	g.State = GuestEntering
	g.Money = 5000
	g.Tick(0.1, f.env)
	assert.Equal(t, GuestWandering, g.State)
	assert.Equal(t, economy.Money(5000)-f.cfg.Park.EntranceFee, g.Money)
	assert.Equal(t, f.cfg.Park.EntranceFee, f.book.Income())

	broke := f.guest(2, grid.Pt(10, 19))
	broke.State = GuestEntering
	broke.Money = 100
	broke.Tick(0.1, f.env)
	assert.Equal(t, GuestLeaving, broke.State)
}

func TestLeavingReachesGate(t *testing.T) {
	f := newFixture(t)
	g := f.guest(1, grid.Pt(10, 12))
	g.startLeaving(f.env)
	f.run(t, g, 10, func() bool { return g.State == GuestLeft })
	assert.Equal(t, GuestLeft, g.State)
	assert.Equal(t, grid.Pt(10, 19), g.Pos)
}

func TestStrandedGuestRemovedAfterRetries(t *testing.T) {
	f := newFixture(t)
	g := f.guest(1, grid.Pt(0, 0))
	g.startLeaving(f.env)
	f.run(t, g, 10, func() bool { return g.State == GuestLeft })
	assert.Equal(t, GuestLeft, g.State)
	assert.Equal(t, f.cfg.Guest.LeaveRetries, g.leaveAttempts)
	assert.Equal(t, grid.Pt(0, 0), g.Pos)
}

func TestLowSatisfactionLeaves(t *testing.T) {
	f := newFixture(t)
	g := f.guest(1, grid.Pt(8, 10))
	g.Satisfaction = 0.1
	g.Tick(f.cfg.Guest.DecisionInterval, f.env)
	assert.Equal(t, GuestLeaving, g.State)
}

func TestForceLeaveDetaches(t *testing.T) {
	f := newFixture(t)
	queued := f.guest(1, grid.Pt(5, 9))
	f.enqueue(t, queued)
	rider := f.guest(2, grid.Pt(5, 8))
	require.NoError(t, f.carousel.Board(rider))

	queued.ForceLeave(f.env)
	rider.ForceLeave(f.env)

	assert.Equal(t, GuestLeaving, queued.State)
	assert.Nil(t, queued.CurrentQueue)
	assert.Zero(t, f.carousel.Queue.Len())
	assert.Equal(t, GuestLeaving, rider.State)
	assert.Empty(t, f.carousel.Riders)
	assert.Equal(t, grid.Pt(7, 5), rider.Pos)
	require.NoError(t, f.park.CheckInvariants())
}

func TestInconsistentGuestIsReset(t *testing.T) {
	f := newFixture(t)
	g := f.guest(1, grid.Pt(5, 9))
	g.State = GuestQueuing
	g.CurrentQueue = f.carousel.Queue // never admitted
	require.ErrorIs(t, g.CheckConsistency(), ErrInconsistent)

	g.Tick(0.1, f.env)
	assert.Equal(t, GuestWandering, g.State)
	assert.Nil(t, g.CurrentQueue)
	require.NoError(t, g.CheckConsistency())
}

func TestQueueMembershipInvariantUnderChurn(t *testing.T) {
	f := newFixture(t)
	var guests []*Guest
	for i := uint64(1); i <= 6; i++ {
		g := f.guest(i, grid.Pt(5, 9))
		g.ThrillPref = f.carousel.Def.Thrill
		guests = append(guests, g)
	}
	for step := 0; step < 600; step++ {
		for _, g := range guests {
			g.Tick(0.1, f.env)
			require.NoError(t, g.CheckConsistency())
			if q := g.CurrentQueue; q != nil {
				tile := g.QueueTile()
				require.NotNil(t, tile)
				count := 0
				for _, v := range tile.Visitors {
					if v.VisitorID() == g.ID {
						count++
					}
				}
				require.Equal(t, 1, count)
			}
		}
		f.carousel.Tick(0.1, calm)
		f.park.SyncQueues()
		require.NoError(t, f.park.CheckInvariants())
	}
	assert.Positive(t, f.carousel.Cycles)
}

func TestSpawnerIsDeterministic(t *testing.T) {
	cfg := config.Default()
	a := NewSpawner(entropy.NewSeeded(11), &cfg.Guest, cfg.Sim.TileTime)
	b := NewSpawner(entropy.NewSeeded(11), &cfg.Guest, cfg.Sim.TileTime)
	for i := 0; i < 5; i++ {
		ga, gb := a.Spawn(grid.Pt(1, 1)), b.Spawn(grid.Pt(1, 1))
		assert.Equal(t, ga.Name, gb.Name)
		assert.Equal(t, ga.Money, gb.Money)
		assert.Equal(t, uint64(i+1), ga.ID)
		assert.Equal(t, GuestEntering, ga.State)
		assert.GreaterOrEqual(t, ga.Money, cfg.Guest.BudgetMin)
		assert.LessOrEqual(t, ga.Money, cfg.Guest.BudgetMax)
		assert.GreaterOrEqual(t, ga.MaxStay, cfg.Guest.MaxStayMin)
	}
	a.SetNextID(100)
	assert.Equal(t, uint64(100), a.Spawn(grid.Pt(1, 1)).ID)
}
