package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/parkworld/internal/grid"
)

type fakeVisitor struct {
	id      uint64
	queue   *Path
	evicted bool
}

func (f *fakeVisitor) VisitorID() uint64 { return f.id }

func (f *fakeVisitor) QueueReassigned(p *Path) {
	f.queue = p
	if p == nil {
		f.evicted = true
	}
}

func visitors(n int) []*fakeVisitor {
	out := make([]*fakeVisitor, n)
	for i := range out {
		out[i] = &fakeVisitor{id: uint64(i + 1)}
	}
	return out
}

func linePath(n, capacity int) *Path {
	tiles := make([]*Tile, n)
	for i := range tiles {
		tiles[i] = NewTile(grid.Pt(i, 0), capacity)
	}
	return NewPath(1, tiles)
}

func ids(vs []Visitor) []uint64 {
	out := make([]uint64, len(vs))
	for i, v := range vs {
		out[i] = v.VisitorID()
	}
	return out
}

func TestEntryFillsFromTheExit(t *testing.T) {
	p := linePath(3, 2)
	vs := visitors(5) // A..E
	for _, v := range vs {
		require.True(t, p.AddVisitor(v))
		require.NoError(t, p.CheckInvariants())
	}

	assert.Equal(t, []uint64{1, 2}, ids(p.Tiles[2].Visitors), "A and B reach the exit tile")
	assert.Equal(t, []uint64{3, 4}, ids(p.Tiles[1].Visitors))
	assert.Equal(t, []uint64{5}, ids(p.Tiles[0].Visitors))
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, ids(p.Visitors))
	assert.True(t, p.Tiles[0].IsEntrance)
	assert.True(t, p.Tiles[2].IsExit)
}

func TestAdmissionRefusedWhenFull(t *testing.T) {
	p := linePath(3, 2)
	for _, v := range visitors(6) {
		require.True(t, p.AddVisitor(v))
	}
	assert.True(t, p.Full())
	assert.False(t, p.AddVisitor(&fakeVisitor{id: 99}))
	assert.Equal(t, 6, p.Len())
	assert.LessOrEqual(t, p.Len(), p.MaxCapacity())
}

func TestAdmissionRefusedForDuplicates(t *testing.T) {
	p := linePath(2, 2)
	v := &fakeVisitor{id: 1}
	require.True(t, p.AddVisitor(v))
	assert.False(t, p.AddVisitor(v))
	assert.Equal(t, 1, p.Len())
}

func TestEntranceTileFullBlocksAdmission(t *testing.T) {
	tiles := []*Tile{NewTile(grid.Pt(0, 0), 1), NewTile(grid.Pt(1, 0), 1)}
	p := NewPath(1, tiles)
	vs := visitors(3)
	require.True(t, p.AddVisitor(vs[0]))
	require.True(t, p.AddVisitor(vs[1]))
	assert.False(t, p.AddVisitor(vs[2]))
}

func TestRemovalCascadesOneStep(t *testing.T) {
	p := linePath(3, 2)
	vs := visitors(5)
	for _, v := range vs {
		require.True(t, p.AddVisitor(v))
	}

	require.True(t, p.RemoveVisitor(vs[0]))
	require.NoError(t, p.CheckInvariants())

	assert.Equal(t, []uint64{2, 3}, ids(p.Tiles[2].Visitors))
	assert.Equal(t, []uint64{4, 5}, ids(p.Tiles[1].Visitors))
	assert.Empty(t, p.Tiles[0].Visitors)
	assert.Equal(t, 0, p.Position(vs[1]))
	assert.Equal(t, -1, p.Position(vs[0]))

	_, tileIdx := p.TileOf(vs[4])
	assert.Equal(t, 1, tileIdx, "E stepped exactly one tile")
}

func TestRemoveFromMiddleKeepsOrder(t *testing.T) {
	p := linePath(4, 2)
	vs := visitors(8)
	for _, v := range vs {
		require.True(t, p.AddVisitor(v))
	}
	require.True(t, p.RemoveVisitor(vs[3]))
	require.NoError(t, p.CheckInvariants())
	assert.Equal(t, []uint64{1, 2, 3, 5, 6, 7, 8}, ids(p.Visitors))
	assert.False(t, p.RemoveVisitor(vs[3]))
}

func TestExitVisitorIsFrontOfLine(t *testing.T) {
	p := linePath(3, 2)
	assert.Nil(t, p.ExitVisitor())
	vs := visitors(3)
	for _, v := range vs {
		require.True(t, p.AddVisitor(v))
	}
	require.NotNil(t, p.ExitVisitor())
	assert.Equal(t, uint64(1), p.ExitVisitor().VisitorID())
	assert.Equal(t, p.Front(), p.ExitVisitor())
}

func TestTakeFrontLeavesTheLineInPlace(t *testing.T) {
	p := linePath(3, 2)
	vs := visitors(6)
	for _, v := range vs {
		require.True(t, p.AddVisitor(v))
	}

	taken := p.TakeFront(5)
	assert.Equal(t, []uint64{1, 2}, ids(taken), "only the exit tile is taken")
	assert.True(t, p.Exit().Empty())
	assert.Equal(t, []uint64{3, 4}, ids(p.Tiles[1].Visitors))
	assert.Equal(t, []uint64{5, 6}, ids(p.Tiles[0].Visitors))
	require.NoError(t, p.CheckInvariants())

	p.Advance()
	assert.Equal(t, []uint64{3, 4}, ids(p.Exit().Visitors))
	assert.Equal(t, []uint64{5, 6}, ids(p.Tiles[1].Visitors))
	assert.Nil(t, p.TakeFront(0))
	require.NoError(t, p.CheckInvariants())
}

func TestEvacuateClearsEverything(t *testing.T) {
	p := linePath(3, 2)
	vs := visitors(4)
	for _, v := range vs {
		require.True(t, p.AddVisitor(v))
		v.queue = p
	}

	out := p.Evacuate()
	assert.Len(t, out, 4)
	assert.Zero(t, p.Len())
	for _, tile := range p.Tiles {
		assert.Empty(t, tile.Visitors)
	}
	for _, v := range vs {
		assert.True(t, v.evicted)
		assert.Nil(t, v.queue)
	}
	require.NoError(t, p.CheckInvariants())
}

func TestInvariantsHoldUnderChurn(t *testing.T) {
	p := NewPath(1, []*Tile{
		NewTile(grid.Pt(0, 0), StraightCapacity),
		NewTile(grid.Pt(1, 0), CornerCapacity),
		NewTile(grid.Pt(1, 1), StraightCapacity),
	})
	vs := visitors(40)
	next := 0
	for round := 0; round < 60; round++ {
		if round%3 != 2 && next < len(vs) {
			p.AddVisitor(vs[next])
			next++
		} else if front := p.ExitVisitor(); front != nil {
			p.RemoveVisitor(front)
		}
		require.NoError(t, p.CheckInvariants(), "round %d", round)
		for _, v := range p.Visitors {
			tile, idx := p.TileOf(v)
			require.NotNil(t, tile)
			require.GreaterOrEqual(t, idx, 0)
		}
	}
}
