package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/parkworld/internal/config"
	"github.com/talgya/parkworld/internal/entropy"
	"github.com/talgya/parkworld/internal/grid"
	"github.com/talgya/parkworld/internal/park"
	"github.com/talgya/parkworld/internal/staff"
)

func TestEngineLayeredCallbacks(t *testing.T) {
	eng := NewEngine(10)
	var ticks, minutes, hours int
	var total float64
	eng.OnTick = func(_ uint64, dt float64) { ticks++; total += dt }
	eng.OnMinute = func(uint64) { minutes++ }
	eng.OnHour = func(uint64) { hours++ }

	for i := 0; i < 1200; i++ {
		eng.Step()
	}
	assert.Equal(t, 1200, ticks)
	assert.Equal(t, 2, minutes)
	assert.Zero(t, hours)
	assert.InDelta(t, 120.0, total, 1e-6)
}

func TestEngineRunStopsOnCancel(t *testing.T) {
	eng := NewEngine(10)
	eng.SetSpeed(100)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		eng.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop")
	}
	assert.False(t, eng.Running())

	eng.Stop()
	eng.Stop()
}

func TestSimTime(t *testing.T) {
	assert.Equal(t, "Day 1, 09:00:00", SimTime(0, 10))
	assert.Equal(t, "Day 1, 09:01:30", SimTime(900, 10))
	assert.Equal(t, "Day 2, 00:00:00", SimTime(15*3600*10, 10))
}

func newDemo(t *testing.T) (*Simulation, *Engine) {
	t.Helper()
	cfg := config.Default()
	cfg.Seed = 42
	p, err := park.BuildDemo(cfg)
	require.NoError(t, err)
	sim := NewSimulation(cfg, p, entropy.NewSeeded(cfg.Seed), nil)
	eng := NewEngine(cfg.Sim.TickRate)
	eng.OnTick = sim.Step
	eng.OnMinute = sim.TickMinute
	eng.OnHour = sim.TickHour
	return sim, eng
}

func runFor(eng *Engine, seconds int, done func() bool) bool {
	for i := 0; i < seconds*eng.TickRate; i++ {
		eng.Step()
		if done != nil && done() {
			return true
		}
	}
	return false
}

func TestSimulationRunsDemoPark(t *testing.T) {
	sim, eng := newDemo(t)
	assert.Len(t, sim.Staff, 10)

	runFor(eng, 300, nil)

	sim.Read(func() {
		require.NoError(t, sim.Park.CheckInvariants())
		for _, g := range sim.Guests {
			require.NoError(t, g.CheckConsistency(), g.String())
		}
	})
	st := sim.CurrentStats()
	assert.Greater(t, st.Admitted, 100)
	assert.LessOrEqual(t, st.Guests, sim.Config().Sim.MaxGuests)
	assert.Greater(t, st.RidesTaken, 0)
	assert.Positive(t, int64(st.Income))
	assert.Positive(t, int64(st.Expenses), "payroll runs every minute")
	assert.Equal(t, st.Income-st.Expenses, st.Balance)
}

func TestClosingEmptiesThePark(t *testing.T) {
	sim, eng := newDemo(t)
	runFor(eng, 120, nil)
	require.NotZero(t, sim.CurrentStats().Guests)

	sim.ClosePark()
	admitted := sim.CurrentStats().Admitted
	emptied := runFor(eng, 600, func() bool { return sim.CurrentStats().Guests == 0 })
	require.True(t, emptied)

	st := sim.CurrentStats()
	assert.Equal(t, admitted, st.Admitted, "no admissions after closing")
	assert.Equal(t, st.Admitted, st.Departed)
	events := sim.RecentEvents(10, "park")
	require.NotEmpty(t, events)
	assert.Equal(t, "The park is closing", events[len(events)-1].Description)
}

func TestBreakdownDispatchesEngineer(t *testing.T) {
	sim, eng := newDemo(t)
	r := sim.Park.Rides[0]
	r.Break(sim.Config().Park.BreakdownPenalty)

	eng.Step()
	assert.NotZero(t, r.ClaimedBy, "an idle engineer takes the job")

	var broke bool
	for _, e := range sim.RecentEvents(20, "ride") {
		broke = broke || strings.Contains(e.Description, "broke down")
	}
	assert.True(t, broke)

	repaired := runFor(eng, 120, func() bool { return !r.Broken })
	assert.True(t, repaired)
}

func TestStrikeLeavesRidesBroken(t *testing.T) {
	sim, eng := newDemo(t)
	sim.SetStaffPenalty(1)
	r := sim.Park.Rides[0]
	r.Break(0)

	runFor(eng, 5, nil)
	assert.True(t, r.Broken)
	assert.Zero(t, r.ClaimedBy)
	assert.Equal(t, len(sim.Staff), sim.CurrentStats().StaffStriking)
}

func TestEventsReachSubscribersAndStorage(t *testing.T) {
	sim, _ := newDemo(t)
	id, ch := sim.Subscribe()
	defer sim.Unsubscribe(id)

	sim.SetStaffPenalty(0.25)
	select {
	case e := <-ch:
		assert.Equal(t, "staff", e.Category)
		assert.Equal(t, 0.25, e.Meta["penalty"])
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	pending := sim.TakePending()
	require.Len(t, pending, 1)
	assert.Empty(t, sim.TakePending())
}

func TestHireOutsideParkFails(t *testing.T) {
	sim, _ := newDemo(t)
	_, err := sim.Hire(staff.KindJanitor, grid.Pt(-1, 3))
	assert.Error(t, err)

	e, err := sim.Hire(staff.KindJanitor, grid.Pt(3, 3))
	require.NoError(t, err)
	assert.Equal(t, "Janitor 11", e.Name())
}
