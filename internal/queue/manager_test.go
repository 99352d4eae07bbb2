package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/parkworld/internal/grid"
)

// lLine builds a walkway at (0,2), an L-shaped queue and a ride entrance:
//
//	W Q Q Q
//	      Q E
var lLine = []grid.Point{grid.Pt(1, 2), grid.Pt(2, 2), grid.Pt(3, 2), grid.Pt(3, 3)}

func lGrid(t *testing.T) *grid.Grid {
	t.Helper()
	g := grid.New(12, 12)
	require.NoError(t, g.Set(grid.Pt(0, 2), grid.TilePath))
	for _, p := range lLine {
		require.NoError(t, g.Set(p, grid.TileQueue))
	}
	require.NoError(t, g.Set(grid.Pt(4, 3), grid.TileRideEntrance))
	return g
}

func positions(p *Path) []grid.Point {
	out := make([]grid.Point, len(p.Tiles))
	for i, t := range p.Tiles {
		out[i] = t.Pos
	}
	return out
}

func TestTraceSeparatesGroups(t *testing.T) {
	g := grid.New(6, 6)
	for _, p := range []grid.Point{grid.Pt(0, 0), grid.Pt(1, 0), grid.Pt(4, 4), grid.Pt(4, 5)} {
		require.NoError(t, g.Set(p, grid.TileQueue))
	}
	groups := Trace(g)
	require.Len(t, groups, 2)
	assert.ElementsMatch(t, []grid.Point{grid.Pt(0, 0), grid.Pt(1, 0)}, groups[0])
	assert.ElementsMatch(t, []grid.Point{grid.Pt(4, 4), grid.Pt(4, 5)}, groups[1])
}

func TestBreadthFirstOrderingRunsWalkwayToRide(t *testing.T) {
	g := lGrid(t)
	m := NewManager()
	m.Rebuild(g)

	require.Len(t, m.Paths(), 1)
	p := m.Paths()[0]
	assert.Equal(t, lLine, positions(p))

	caps := []int{p.Tiles[0].Capacity, p.Tiles[1].Capacity, p.Tiles[2].Capacity, p.Tiles[3].Capacity}
	assert.Equal(t, []int{StraightCapacity, StraightCapacity, CornerCapacity, CornerCapacity}, caps)
	assert.Equal(t, grid.East, p.Tiles[0].Flow)
	assert.Equal(t, grid.South, p.Tiles[2].Flow)
	assert.Equal(t, grid.East, p.Exit().Flow, "exit flows into the ride entrance")
	assert.True(t, p.Exit().IsExit)
}

func TestReverseConstructionIsOriented(t *testing.T) {
	g := lGrid(t)
	m := NewManager()
	for i := len(lLine) - 1; i >= 0; i-- {
		m.RecordPlaced(lLine[i])
	}
	require.Len(t, m.chains, 1)
	m.Rebuild(g)
	assert.Equal(t, lLine, positions(m.Paths()[0]))
}

func TestPlacementOrderDecidesAmbiguousEnds(t *testing.T) {
	g := grid.New(10, 10)
	painted := []grid.Point{grid.Pt(7, 5), grid.Pt(6, 5), grid.Pt(5, 5)}
	m := NewManager()
	for _, p := range painted {
		require.NoError(t, g.Set(p, grid.TileQueue))
		m.RecordPlaced(p)
	}
	m.Rebuild(g)
	assert.Equal(t, painted, positions(m.Paths()[0]), "first painted tile is the entrance")
}

func TestChainPrependAndBridge(t *testing.T) {
	m := NewManager()
	m.RecordPlaced(grid.Pt(2, 0))
	m.RecordPlaced(grid.Pt(3, 0))
	m.RecordPlaced(grid.Pt(1, 0))
	require.Len(t, m.chains, 1)
	assert.Equal(t, []grid.Point{grid.Pt(1, 0), grid.Pt(2, 0), grid.Pt(3, 0)}, m.chains[0].cells)

	m.RecordPlaced(grid.Pt(5, 0))
	require.Len(t, m.chains, 2)
	m.RecordPlaced(grid.Pt(4, 0))
	require.Len(t, m.chains, 1)
	assert.Len(t, m.chains[0].cells, 5)

	m.RecordRemoved(grid.Pt(3, 0))
	require.Len(t, m.chains, 2)
	assert.Equal(t, []grid.Point{grid.Pt(1, 0), grid.Pt(2, 0)}, m.chains[0].cells)
	assert.Equal(t, []grid.Point{grid.Pt(4, 0), grid.Pt(5, 0)}, m.chains[1].cells)
}

func TestRebuildPreservesQueuedVisitors(t *testing.T) {
	g := lGrid(t)
	m := NewManager()
	m.Sync(g)
	p := m.Paths()[0]

	vs := visitors(5)
	for _, v := range vs {
		require.True(t, p.AddVisitor(v))
		v.queue = p
	}
	before := make(map[uint64]grid.Point)
	for _, v := range vs {
		tile, _ := p.TileOf(v)
		before[v.id] = tile.Pos
	}

	require.NoError(t, g.Set(grid.Pt(9, 9), grid.TileQueue))
	evicted := m.Sync(g)

	assert.Empty(t, evicted)
	require.Len(t, m.Paths(), 2)
	assert.Same(t, p, m.PathAt(grid.Pt(1, 2)), "the original path object survives")
	assert.Equal(t, 5, p.Len())
	for _, v := range vs {
		tile, _ := p.TileOf(v)
		require.NotNil(t, tile)
		assert.Equal(t, before[v.id], tile.Pos)
		assert.False(t, v.evicted)
		assert.Same(t, p, v.queue)
	}
	require.NoError(t, m.CheckInvariants())
}

func TestRebuildEvictsVisitorsOnRemovedTiles(t *testing.T) {
	g := lGrid(t)
	m := NewManager()
	m.Sync(g)
	p := m.Paths()[0]

	vs := visitors(11)
	for _, v := range vs {
		require.True(t, p.AddVisitor(v))
	}
	assert.Equal(t, []uint64{9, 10, 11}, ids(p.Entrance().Visitors))

	require.NoError(t, g.Clear(grid.Pt(1, 2)))
	m.RecordRemoved(grid.Pt(1, 2))
	evicted := m.Sync(g)

	assert.ElementsMatch(t, []uint64{9, 10, 11}, ids(evicted))
	for _, v := range vs[8:] {
		assert.True(t, v.evicted)
	}
	assert.Equal(t, 8, p.Len())
	require.NoError(t, m.CheckInvariants())
}

func TestSyncSkipsUnchangedGrid(t *testing.T) {
	g := lGrid(t)
	m := NewManager()
	m.Sync(g)
	p := m.Paths()[0]
	m.Sync(g)
	assert.Same(t, p, m.Paths()[0])
}

func TestConnectPicksAdjacentRide(t *testing.T) {
	g := lGrid(t)
	m := NewManager()
	m.Sync(g)
	m.Connect([]Anchor{
		{RideID: 3, Entrance: grid.Pt(10, 10)},
		{RideID: 7, Entrance: grid.Pt(4, 3)},
	})
	p := m.Paths()[0]
	assert.Equal(t, uint64(7), p.RideID)
	assert.Same(t, p, m.PathForRide(7))
	assert.Nil(t, m.PathForRide(3))

	m.Connect(nil)
	assert.Zero(t, p.RideID)
}

func TestConnectGivesEachRideOnePath(t *testing.T) {
	g := grid.New(8, 8)
	require.NoError(t, g.Set(grid.Pt(3, 3), grid.TileRideEntrance))
	require.NoError(t, g.Set(grid.Pt(2, 3), grid.TileQueue))
	require.NoError(t, g.Set(grid.Pt(4, 3), grid.TileQueue))
	m := NewManager()
	m.Sync(g)
	require.Len(t, m.Paths(), 2)

	m.Connect([]Anchor{{RideID: 1, Entrance: grid.Pt(3, 3)}})
	connected := 0
	for _, p := range m.Paths() {
		if p.RideID == 1 {
			connected++
		}
	}
	assert.Equal(t, 1, connected)
}
