package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/parkworld/internal/config"
	"github.com/talgya/parkworld/internal/engine"
	"github.com/talgya/parkworld/internal/entropy"
	"github.com/talgya/parkworld/internal/park"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "park.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunsAndMeta(t *testing.T) {
	db := openTemp(t)

	id, err := db.StartRun(42, "seed: 42\n")
	require.NoError(t, err)
	current, err := db.GetMeta("current_run")
	require.NoError(t, err)
	assert.Equal(t, id, current)

	r, err := db.GetRun(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), r.Seed)
	assert.Equal(t, "seed: 42\n", r.ConfigYAML)

	_, err = db.GetRun("missing")
	assert.ErrorIs(t, err, ErrNoRun)

	_, err = db.StartRun(7, "")
	require.NoError(t, err)
	runs, err := db.Runs()
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestEventsRoundTrip(t *testing.T) {
	db := openTemp(t)
	id, err := db.StartRun(1, "")
	require.NoError(t, err)

	require.NoError(t, db.SaveEvents(id, nil))
	require.NoError(t, db.SaveEvents(id, []engine.Event{
		{Tick: 10, Time: "Day 1, 09:00:01", Category: "ride", Description: "Carousel broke down", Meta: map[string]any{"ride_id": 1}},
		{Tick: 20, Time: "Day 1, 09:00:02", Category: "staff", Description: "Engineer 1 dispatched to Carousel"},
	}))

	events, err := db.RecentEvents(id, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "staff", events[0].Category)
	assert.Equal(t, "{}", events[0].MetaJSON)
	assert.JSONEq(t, `{"ride_id":1}`, events[1].MetaJSON)

	other, err := db.RecentEvents("other", 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestStatsHistoryWindow(t *testing.T) {
	db := openTemp(t)
	id, err := db.StartRun(1, "")
	require.NoError(t, err)

	for tick := uint64(600); tick <= 3000; tick += 600 {
		require.NoError(t, db.SaveStats(id, engine.Stats{Tick: tick, Guests: int(tick / 60), Income: 500}))
	}

	rows, err := db.LoadStatsHistory(id, 1200, 2400, 100)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, uint64(1200), rows[0].Tick)
	assert.Equal(t, 20, rows[0].Guests)
	assert.EqualValues(t, 500, rows[2].Income)

	rows, err = db.LoadStatsHistory(id, 0, 10000, 2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestSaveTelemetryDrainsPending(t *testing.T) {
	db := openTemp(t)
	cfg := config.Default()
	p, err := park.BuildDemo(cfg)
	require.NoError(t, err)
	sim := engine.NewSimulation(cfg, p, entropy.NewSeeded(3), nil)
	id, err := db.StartRun(3, "")
	require.NoError(t, err)

	sim.SetStaffPenalty(0.5)
	require.NoError(t, db.SaveTelemetry(id, sim))
	assert.Empty(t, sim.TakePending())

	events, err := db.RecentEvents(id, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "staff", events[0].Category)

	rows, err := db.LoadStatsHistory(id, 0, 0, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	last, err := db.GetMeta("last_tick")
	require.NoError(t, err)
	assert.Equal(t, "0", last)
}
