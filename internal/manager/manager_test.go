package manager

import (
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/parkworld/internal/api"
	"github.com/talgya/parkworld/internal/config"
	"github.com/talgya/parkworld/internal/engine"
	"github.com/talgya/parkworld/internal/entropy"
	"github.com/talgya/parkworld/internal/park"
)

func baseSnapshot() *Snapshot {
	return &Snapshot{
		Stats: Stats{Guests: 100, AvgSatisfaction: 0.8},
		Rides: []RideInfo{
			{ID: 1, Name: "Carousel", Status: "idle", Entrance: &Point{X: 4, Y: 9}},
		},
		Staff: []StaffInfo{
			{ID: 1, Kind: "engineer", State: "idle", Pos: Point{X: 10, Y: 10}},
			{ID: 2, Kind: "janitor", State: "patrolling", Pos: Point{X: 12, Y: 10}},
			{ID: 3, Kind: "entertainer", State: "entertaining", Pos: Point{X: 14, Y: 10}},
		},
	}
}

func TestTriageLevels(t *testing.T) {
	snap := baseSnapshot()
	assert.Equal(t, LevelHealthy, Triage(snap).Level)

	snap.Stats.Litter = 8
	assert.Equal(t, LevelWarning, Triage(snap).Level)

	snap.Stats.Litter = 20
	assert.Equal(t, LevelCritical, Triage(snap).Level)

	snap = baseSnapshot()
	snap.History = []HistoryRow{{AvgSatisfaction: 0.9}, {AvgSatisfaction: 0.8}}
	h := Triage(snap)
	assert.InDelta(t, 0.1, h.SatisfactionDrop, 1e-9)
	assert.Equal(t, LevelWatch, h.Level)

	snap = baseSnapshot()
	snap.Stats.Guests = 0
	snap.Stats.AvgSatisfaction = 0
	assert.Equal(t, LevelHealthy, Triage(snap).Level, "an empty park needs nothing")
}

func TestTriageIgnoresStrikingStaff(t *testing.T) {
	snap := baseSnapshot()
	snap.Rides[0].Status = "broken"
	snap.Staff[0].Penalty = 1

	h := Triage(snap)
	assert.Equal(t, 1, h.UnclaimedBroken)
	assert.Zero(t, h.Workers["engineer"])
	assert.Equal(t, LevelCritical, h.Level)
}

func TestDecideHiresForWorstProblem(t *testing.T) {
	snap := baseSnapshot()
	snap.Rides[0].Status = "broken"
	snap.Staff[0].State = "walking"
	snap.Stats.Litter = 30
	mem := &CycleMemory{}

	d := Decide(snap, Triage(snap), mem, DefaultPolicy())
	require.Equal(t, "hire", d.Action)
	assert.Equal(t, &HireRequest{Kind: "engineer", X: 10, Y: 10}, d.Hire)

	mem.Record(CycleRecord{Action: "hire", Kind: "engineer"})
	d = Decide(snap, Triage(snap), mem, DefaultPolicy())
	require.Equal(t, "hire", d.Action)
	assert.Equal(t, "janitor", d.Hire.Kind, "engineer is on cooldown")
}

func TestDecideRespectsLimits(t *testing.T) {
	snap := baseSnapshot()
	snap.Stats.Litter = 30

	pol := DefaultPolicy()
	pol.MaxStaff = 3
	assert.Equal(t, "none", Decide(snap, Triage(snap), &CycleMemory{}, pol).Action)

	snap.Status.Closed = true
	assert.Equal(t, "none", Decide(snap, Triage(snap), &CycleMemory{}, DefaultPolicy()).Action)
}

func TestHirePositionFallsBackToEntrance(t *testing.T) {
	snap := baseSnapshot()
	pos, ok := hirePosition(snap, "security")
	require.True(t, ok)
	assert.Equal(t, Point{X: 4, Y: 9}, pos)

	_, ok = hirePosition(&Snapshot{}, "security")
	assert.False(t, ok)
}

func TestMemoryPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	mem := LoadMemory(path)
	for i := 0; i < maxRecords+3; i++ {
		mem.Record(CycleRecord{Tick: uint64(i), Action: "none"})
	}
	mem.Record(CycleRecord{Tick: 99, Action: "hire", Kind: "janitor"})
	mem.Save()

	loaded := LoadMemory(path)
	require.Len(t, loaded.Records, maxRecords)
	assert.Equal(t, uint64(99), loaded.Records[maxRecords-1].Tick)
	assert.True(t, loaded.HiredRecently("janitor", 1))
	assert.False(t, loaded.HiredRecently("engineer", 5))
}

func TestCycleAgainstLiveAPI(t *testing.T) {
	cfg := config.Default()
	p, err := park.BuildDemo(cfg)
	require.NoError(t, err)
	sim := engine.NewSimulation(cfg, p, entropy.NewSeeded(9), nil)
	eng := engine.NewEngine(cfg.Sim.TickRate)
	eng.OnTick = sim.Step
	for i := 0; i < 30*cfg.Sim.TickRate; i++ {
		eng.Step()
	}
	sim.SetStaffPenalty(1)
	sim.Park.Rides[0].Break(0)

	srv := httptest.NewServer((&api.Server{Sim: sim, Eng: eng, AdminKey: "k"}).Routes())
	defer srv.Close()

	snap, err := NewObserver(srv.URL).Observe()
	require.NoError(t, err)
	assert.Empty(t, snap.History, "no database behind the server")
	require.NotZero(t, snap.Stats.Guests)

	h := Triage(snap)
	assert.Equal(t, LevelCritical, h.Level)
	d := Decide(snap, h, &CycleMemory{}, DefaultPolicy())
	require.Equal(t, "hire", d.Action)
	require.Equal(t, "engineer", d.Hire.Kind)

	before := len(snap.Staff)
	res, err := NewActor(srv.URL, "k").Hire(d.Hire)
	require.NoError(t, err)
	assert.Equal(t, "engineer", res.Kind)
	assert.Len(t, sim.StaffInfo(), before+1)

	_, err = NewActor(srv.URL, "wrong").Hire(d.Hire)
	assert.Error(t, err)
}
