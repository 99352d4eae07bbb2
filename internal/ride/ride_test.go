package ride

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/parkworld/internal/entropy"
	"github.com/talgya/parkworld/internal/grid"
	"github.com/talgya/parkworld/internal/queue"
)

type fakeRider struct {
	id       uint64
	onRide   *Ride
	finished int
	penalty  float64
	inQueue  *queue.Path
	evicted  bool
}

func (f *fakeRider) RiderID() uint64   { return f.id }
func (f *fakeRider) VisitorID() uint64 { return f.id }

func (f *fakeRider) BoardedRide(r *Ride) {
	f.onRide = r
	f.inQueue = nil
}

func (f *fakeRider) FinishRide(*Ride) {
	f.onRide = nil
	f.finished++
}

func (f *fakeRider) EjectFromRide(_ *Ride, penalty float64) {
	f.onRide = nil
	f.penalty += penalty
}

func (f *fakeRider) QueueReassigned(p *queue.Path) {
	f.inQueue = p
	if p == nil {
		f.evicted = true
	}
}

// never rolls a breakdown
type fixedSource struct{ v float64 }

func (s fixedSource) Float64() float64 { return s.v }
func (s fixedSource) IntN(int) int     { return 0 }

var calm = fixedSource{v: 0.99}

func testDef(capacity int) Definition {
	return Definition{Name: "Test", Width: 3, Height: 3, Capacity: capacity, RideDuration: 10, LaunchWait: 5, BreakdownChance: 0.01}
}

func riders(n int) []*fakeRider {
	out := make([]*fakeRider, n)
	for i := range out {
		out[i] = &fakeRider{id: uint64(i + 1)}
	}
	return out
}

func TestLaunchThreshold(t *testing.T) {
	assert.Equal(t, 1, Definition{Capacity: 1}.LaunchThreshold())
	assert.Equal(t, 2, Definition{Capacity: 4}.LaunchThreshold())
	assert.Equal(t, 3, Definition{Capacity: 5}.LaunchThreshold())
	assert.Equal(t, 6, Definition{Capacity: 12}.LaunchThreshold())
}

func TestLaunchOnThresholdBoarding(t *testing.T) {
	r := New(1, testDef(5), grid.Rect{X: 2, Y: 2, W: 3, H: 3})
	rs := riders(4)

	require.NoError(t, r.Board(rs[0]))
	require.NoError(t, r.Board(rs[1]))
	assert.Equal(t, StateBoarding, r.State)
	require.NoError(t, r.Board(rs[2]))
	assert.Equal(t, StateLaunched, r.State, "third boarding reaches ceil(5/2)")
	assert.False(t, r.CanBoard())
	assert.ErrorIs(t, r.Board(rs[3]), ErrLaunched)
	assert.Len(t, r.Riders, 3)
	assert.Same(t, r, rs[2].onRide)
}

func TestLaunchWaitForcesPartialCar(t *testing.T) {
	r := New(1, testDef(8), grid.Rect{X: 2, Y: 2, W: 3, H: 3})
	rider := &fakeRider{id: 1}
	require.NoError(t, r.Board(rider))

	for i := 0; i < 4; i++ {
		r.Tick(1, calm)
	}
	assert.Equal(t, StateBoarding, r.State)
	r.Tick(1, calm)
	assert.Equal(t, StateLaunched, r.State)

	for i := 0; i < 10; i++ {
		r.Tick(1, calm)
	}
	assert.Equal(t, StateIdle, r.State)
	assert.Empty(t, r.Riders)
	assert.Equal(t, 1, rider.finished)
	assert.Equal(t, 1, r.Cycles)
}

func TestIdleRideWithoutRidersNeverLaunches(t *testing.T) {
	r := New(1, testDef(4), grid.Rect{X: 0, Y: 0, W: 2, H: 2})
	for i := 0; i < 20; i++ {
		r.Tick(1, calm)
	}
	assert.Equal(t, StateIdle, r.State)
}

func TestBoardingRejections(t *testing.T) {
	r := New(1, testDef(1), grid.Rect{X: 0, Y: 0, W: 2, H: 2})
	r.Broken = true
	assert.ErrorIs(t, r.Board(&fakeRider{id: 1}), ErrBroken)
	r.Broken = false
	r.BeingRepaired = true
	assert.ErrorIs(t, r.Board(&fakeRider{id: 1}), ErrBroken)
	r.BeingRepaired = false

	r.Def.Capacity = 4
	r.Riders = []Rider{&fakeRider{id: 9}, &fakeRider{id: 10}, &fakeRider{id: 11}, &fakeRider{id: 12}}
	assert.ErrorIs(t, r.Board(&fakeRider{id: 1}), ErrFull)
	require.NoError(t, r.CheckInvariants())
}

func TestCapacityNeverExceeded(t *testing.T) {
	r := New(1, testDef(3), grid.Rect{X: 0, Y: 0, W: 2, H: 2})
	for _, rider := range riders(10) {
		_ = r.Board(rider)
		require.LessOrEqual(t, len(r.Riders), r.Def.Capacity)
		require.NoError(t, r.CheckInvariants())
	}
}

func TestAccessPointValidation(t *testing.T) {
	r := New(1, testDef(4), grid.Rect{X: 5, Y: 5, W: 3, H: 2})

	assert.ErrorIs(t, r.ValidateAccessPoint(grid.Pt(4, 4)), ErrBadAccessPoint, "outside corner")
	assert.ErrorIs(t, r.ValidateAccessPoint(grid.Pt(8, 7)), ErrBadAccessPoint, "outside corner")
	assert.ErrorIs(t, r.ValidateAccessPoint(grid.Pt(6, 5)), ErrBadAccessPoint, "inside the footprint")
	assert.ErrorIs(t, r.ValidateAccessPoint(grid.Pt(2, 5)), ErrBadAccessPoint, "too far")
	assert.NoError(t, r.ValidateAccessPoint(grid.Pt(4, 5)))
	assert.NoError(t, r.ValidateAccessPoint(grid.Pt(6, 7)))

	require.NoError(t, r.PlaceEntrance(grid.Pt(4, 5)))
	assert.ErrorIs(t, r.PlaceEntrance(grid.Pt(4, 6)), ErrAlreadyPlaced)
	assert.ErrorIs(t, r.PlaceExit(grid.Pt(4, 5)), ErrOverlap)
	require.NoError(t, r.PlaceExit(grid.Pt(8, 6)))
	assert.ErrorIs(t, r.PlaceExit(grid.Pt(8, 5)), ErrAlreadyPlaced)

	exit, ok := r.ExitPoint()
	require.True(t, ok)
	assert.Equal(t, grid.Pt(8, 6), exit)
}

func TestExitPointFallsBackToEntrance(t *testing.T) {
	r := New(1, testDef(4), grid.Rect{X: 1, Y: 1, W: 2, H: 2})
	_, ok := r.ExitPoint()
	assert.False(t, ok)
	require.NoError(t, r.PlaceEntrance(grid.Pt(0, 1)))
	p, ok := r.ExitPoint()
	require.True(t, ok)
	assert.Equal(t, grid.Pt(0, 1), p)
}

func queuedRide(t *testing.T, capacity, queued int) (*Ride, []*fakeRider) {
	t.Helper()
	r := New(1, testDef(capacity), grid.Rect{X: 5, Y: 0, W: 3, H: 3})
	require.NoError(t, r.PlaceEntrance(grid.Pt(4, 1)))
	tiles := []*queue.Tile{
		queue.NewTile(grid.Pt(1, 1), queue.StraightCapacity),
		queue.NewTile(grid.Pt(2, 1), queue.StraightCapacity),
		queue.NewTile(grid.Pt(3, 1), queue.StraightCapacity),
	}
	r.Queue = queue.NewPath(1, tiles)
	r.Queue.RideID = r.ID
	rs := riders(queued)
	for _, rider := range rs {
		require.True(t, r.Queue.AddVisitor(rider))
		rider.inQueue = r.Queue
	}
	return r, rs
}

func TestTickBoardsFromQueueExit(t *testing.T) {
	r, rs := queuedRide(t, 6, 5)
	r.Tick(0.1, calm)

	assert.Equal(t, StateLaunched, r.State)
	require.Len(t, r.Riders, 3)
	for i := 0; i < 3; i++ {
		assert.Same(t, r, rs[i].onRide, "rider %d boarded in queue order", i)
		assert.False(t, r.Queue.Contains(rs[i]))
	}
	assert.Equal(t, 2, r.Queue.Len())
	require.NoError(t, r.Queue.CheckInvariants())
}

func TestBoardingTakesOnlyTheExitTile(t *testing.T) {
	r, rs := queuedRide(t, 16, 12)
	before := make(map[uint64]int)
	for _, rider := range rs {
		_, i := r.Queue.TileOf(rider)
		before[rider.id] = i
	}

	r.Tick(0.1, calm)

	assert.Equal(t, StateBoarding, r.State)
	require.Len(t, r.Riders, queue.StraightCapacity)
	for _, rider := range rs[:queue.StraightCapacity] {
		assert.Same(t, r, rider.onRide)
	}
	for _, rider := range rs[queue.StraightCapacity:] {
		_, i := r.Queue.TileOf(rider)
		require.GreaterOrEqual(t, i, 0)
		assert.Equal(t, before[rider.id]+1, i, "rider %d moves one tile per tick", rider.id)
	}
	require.NoError(t, r.Queue.CheckInvariants())

	r.Tick(0.1, calm)
	assert.Equal(t, StateLaunched, r.State)
	assert.Len(t, r.Riders, r.Def.LaunchThreshold())
	require.NoError(t, r.Queue.CheckInvariants())
}

func TestBreakdownEvacuatesRidersAndQueue(t *testing.T) {
	r, rs := queuedRide(t, 8, 7)
	onBoard := rs[:3]
	for _, rider := range onBoard {
		require.True(t, r.Queue.RemoveVisitor(rider))
		require.NoError(t, r.Board(rider))
	}
	require.Equal(t, 4, r.Queue.Len())
	require.Len(t, r.Riders, 3)

	r.Tick(1, fixedSource{v: 0})

	assert.True(t, r.Broken)
	assert.Empty(t, r.Riders)
	assert.Zero(t, r.Queue.Len())
	for _, rider := range onBoard {
		assert.Nil(t, rider.onRide)
		assert.Equal(t, DefaultBreakdownPenalty, rider.penalty)
	}
	for _, rider := range rs[3:] {
		assert.True(t, rider.evicted)
		assert.Nil(t, rider.inQueue)
		assert.Zero(t, rider.penalty)
	}
	assert.Equal(t, 1, r.Breakdowns)

	// Broken rides ignore ticks.
	r.Tick(5, calm)
	assert.True(t, r.Broken)
}

func TestBreakdownRollsPerWholeSecond(t *testing.T) {
	r := New(1, testDef(4), grid.Rect{X: 0, Y: 0, W: 2, H: 2})
	src := entropy.NewSeeded(3)
	r.Def.BreakdownChance = 0
	for i := 0; i < 100; i++ {
		r.Tick(0.3, src)
	}
	assert.False(t, r.Broken)

	r.Def.BreakdownChance = 1
	r.Tick(1, src)
	assert.True(t, r.Broken)
}

func TestRepairCycle(t *testing.T) {
	r := New(1, testDef(4), grid.Rect{X: 0, Y: 0, W: 2, H: 2})
	assert.False(t, r.Claim(7), "healthy rides cannot be claimed")

	r.Break(0.1)
	require.True(t, r.Claim(7))
	assert.False(t, r.Claim(8), "claims are exclusive")
	r.StartRepair(8)
	assert.False(t, r.BeingRepaired)
	r.StartRepair(7)
	assert.True(t, r.BeingRepaired)
	assert.Equal(t, "repairing", r.Status())

	r.CompleteRepair()
	assert.False(t, r.Broken)
	assert.False(t, r.BeingRepaired)
	assert.Zero(t, r.ClaimedBy)
	assert.True(t, r.CanBoard())
}

func TestUnboard(t *testing.T) {
	r := New(1, testDef(6), grid.Rect{X: 0, Y: 0, W: 2, H: 2})
	rs := riders(2)
	require.NoError(t, r.Board(rs[0]))
	require.NoError(t, r.Board(rs[1]))
	assert.True(t, r.Unboard(rs[0]))
	assert.False(t, r.Unboard(rs[0]))
	assert.True(t, r.HasRider(rs[1]))
	assert.True(t, r.Unboard(rs[1]))
	assert.Equal(t, StateIdle, r.State)
	assert.Zero(t, rs[0].finished)
}
