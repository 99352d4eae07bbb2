package queue

import (
	"sort"

	"github.com/zyedidia/generic/mapset"

	"github.com/talgya/parkworld/internal/grid"
)

// Trace flood-fills the grid's queue tiles into disjoint 4-connected groups.
// Groups are discovered in row-major order of their first cell.
func Trace(g *grid.Grid) [][]grid.Point {
	visited := mapset.New[grid.Point]()
	var groups [][]grid.Point

	g.ForEach(func(p grid.Point, t grid.TileType) {
		if t != grid.TileQueue || visited.Has(p) {
			return
		}
		group := []grid.Point{}
		frontier := []grid.Point{p}
		visited.Put(p)
		for len(frontier) > 0 {
			current := frontier[0]
			frontier = frontier[1:]
			group = append(group, current)
			for _, n := range current.Neighbors() {
				if visited.Has(n) || !g.Is(n, grid.TileQueue) {
					continue
				}
				visited.Put(n)
				frontier = append(frontier, n)
			}
		}
		groups = append(groups, group)
	})
	return groups
}

// walkwaySide reports whether a queue tile touches a walkway a guest could
// join from.
func walkwaySide(g *grid.Grid, p grid.Point) bool {
	return g.AdjacentTo(p, grid.TilePath) || g.AdjacentTo(p, grid.TileBin) || g.AdjacentTo(p, grid.TileParkEntrance)
}

// rideSide reports whether a queue tile touches a ride entrance.
func rideSide(g *grid.Grid, p grid.Point) bool {
	return g.AdjacentTo(p, grid.TileRideEntrance)
}

// degree counts the tile's neighbours inside the group.
func degree(set mapset.Set[grid.Point], p grid.Point) int {
	n := 0
	for _, q := range p.Neighbors() {
		if set.Has(q) {
			n++
		}
	}
	return n
}

func rowMajor(pts []grid.Point) []grid.Point {
	out := append([]grid.Point(nil), pts...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

func reversed(pts []grid.Point) []grid.Point {
	out := make([]grid.Point, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

// orient flips a physically ordered chain so that it runs walkway to ride.
// When the geometry says nothing, the given order stands: the first tile the
// player painted is the entrance.
func orient(g *grid.Grid, seq []grid.Point) []grid.Point {
	if len(seq) < 2 {
		return seq
	}
	first, last := seq[0], seq[len(seq)-1]
	switch {
	case rideSide(g, first) && !rideSide(g, last):
		return reversed(seq)
	case !rideSide(g, last) && walkwaySide(g, last) && !walkwaySide(g, first):
		return reversed(seq)
	}
	return seq
}

// bfsOrder orders a group without placement history: breadth-first from the
// walkway end to the ride end, keeping only the tiles on that route.
func bfsOrder(g *grid.Grid, group []grid.Point) []grid.Point {
	if len(group) == 1 {
		return group
	}
	set := mapset.New[grid.Point]()
	for _, p := range group {
		set.Put(p)
	}
	cells := rowMajor(group)

	var ends []grid.Point
	for _, p := range cells {
		if degree(set, p) <= 1 {
			ends = append(ends, p)
		}
	}

	start, found := grid.Point{}, false
	for _, pick := range []func(grid.Point) bool{
		func(p grid.Point) bool { return walkwaySide(g, p) && !rideSide(g, p) },
		func(p grid.Point) bool { return walkwaySide(g, p) },
		func(p grid.Point) bool { return !rideSide(g, p) },
	} {
		for _, p := range ends {
			if pick(p) {
				start, found = p, true
				break
			}
		}
		if found {
			break
		}
	}
	if !found {
		start = cells[0]
	}

	parent := map[grid.Point]grid.Point{}
	dist := map[grid.Point]int{start: 0}
	order := []grid.Point{start}
	frontier := []grid.Point{start}
	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]
		for _, n := range current.Neighbors() {
			if !set.Has(n) {
				continue
			}
			if _, seen := dist[n]; seen {
				continue
			}
			dist[n] = dist[current] + 1
			parent[n] = current
			order = append(order, n)
			frontier = append(frontier, n)
		}
	}

	goal, found := grid.Point{}, false
	for _, p := range order[1:] {
		if rideSide(g, p) && (!found || dist[p] > dist[goal]) {
			goal, found = p, true
		}
	}
	if !found {
		goal = start
		for _, p := range order {
			if dist[p] > dist[goal] {
				goal = p
			}
		}
	}

	route := []grid.Point{goal}
	for p := goal; p != start; {
		p = parent[p]
		route = append(route, p)
	}
	return reversed(route)
}

// buildTiles turns an ordered cell sequence into queue tiles with capacity
// and flow derived from each tile's orientation.
func buildTiles(g *grid.Grid, order []grid.Point) []*Tile {
	tiles := make([]*Tile, len(order))
	for i, pos := range order {
		var prev, next *grid.Point
		if i > 0 {
			prev = &order[i-1]
		}
		if i < len(order)-1 {
			next = &order[i+1]
		}
		if prev == nil {
			prev = outsideNeighbor(g, pos, next, walkwayTile)
		}
		if next == nil {
			next = outsideNeighbor(g, pos, prev, func(t grid.TileType) bool { return t == grid.TileRideEntrance })
		}

		t := NewTile(pos, StraightCapacity)
		if prev != nil && next != nil {
			t.Corner = pos.DirectionTo(*prev) != pos.DirectionTo(*next).Opposite()
		}
		if t.Corner {
			t.Capacity = CornerCapacity
		}
		switch {
		case next != nil:
			t.Flow = pos.DirectionTo(*next)
		case prev != nil:
			t.Flow = prev.DirectionTo(pos)
		}
		tiles[i] = t
	}
	return tiles
}

func walkwayTile(t grid.TileType) bool {
	return t == grid.TilePath || t == grid.TileBin || t == grid.TileParkEntrance
}

// outsideNeighbor finds the neighbour of pos (outside the queue) matching
// want, preferring the one that continues straight from other.
func outsideNeighbor(g *grid.Grid, pos grid.Point, other *grid.Point, want func(grid.TileType) bool) *grid.Point {
	if other != nil {
		straight := pos.Add(pos.Sub(*other))
		if want(g.At(straight)) && g.InBounds(straight) {
			return &straight
		}
	}
	for _, n := range pos.Neighbors() {
		if g.InBounds(n) && want(g.At(n)) {
			n := n
			return &n
		}
	}
	return nil
}
