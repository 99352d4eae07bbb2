// Package pathfind finds walkable routes across the park grid.
//
// Search is A* over the four cardinal neighbours with a Manhattan heuristic
// and unit step cost. Open-set ties are broken by discovery order so that the
// same inputs always produce the same route.
package pathfind

import (
	"container/heap"

	"github.com/talgya/parkworld/internal/grid"
)

// Traversal decides whether a cell may be entered during a search.
type Traversal func(g *grid.Grid, p grid.Point) bool

// Standard admits walkable tiles only (paths, queues, entrances, exits, bins).
func Standard(g *grid.Grid, p grid.Point) bool {
	return g.Walkable(p)
}

// Unrestricted admits any in-bounds cell. Engineers use it to reach broken
// rides regardless of terrain.
func Unrestricted(g *grid.Grid, p grid.Point) bool {
	return g.InBounds(p)
}

// PathOrQueue admits walkways and queue lines only, so itinerant staff stay
// where the crowds are.
func PathOrQueue(g *grid.Grid, p grid.Point) bool {
	t, ok := g.Get(p)
	if !ok {
		return false
	}
	switch t {
	case grid.TilePath, grid.TileQueue, grid.TileBin, grid.TileParkEntrance:
		return true
	}
	return false
}

// WalkwayOnly admits plain walkways (paths and bins on them).
func WalkwayOnly(g *grid.Grid, p grid.Point) bool {
	t, ok := g.Get(p)
	return ok && (t == grid.TilePath || t == grid.TileBin || t == grid.TileParkEntrance)
}

type node struct {
	point  grid.Point
	g      int
	f      int
	seq    int
	index  int
	parent *node
}

type openSet []*node

func (pq openSet) Len() int { return len(pq) }

func (pq openSet) Less(i, j int) bool {
	if pq[i].f != pq[j].f {
		return pq[i].f < pq[j].f
	}
	return pq[i].seq < pq[j].seq
}

func (pq openSet) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *openSet) Push(x any) {
	item := x.(*node)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *openSet) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// FindPath returns the cells from start to goal inclusive. The start cell is
// exempt from the traversal rule (an agent may be standing on a ride exit or
// a footprint); the goal is not. ok is false when no route exists, which
// callers treat as "pick another goal", never as a failure.
func FindPath(g *grid.Grid, start, goal grid.Point, t Traversal) ([]grid.Point, bool) {
	if g == nil || t == nil || !g.InBounds(start) || !g.InBounds(goal) {
		return nil, false
	}
	if !t(g, goal) && start != goal {
		return nil, false
	}
	if start == goal {
		return []grid.Point{start}, true
	}

	index := func(p grid.Point) int { return p.Y*g.Width + p.X }

	open := &openSet{}
	heap.Init(open)
	seq := 0
	heap.Push(open, &node{point: start, f: grid.Manhattan(start, goal), seq: seq})
	gScore := map[int]int{index(start): 0}
	closed := make(map[int]struct{})

	for open.Len() > 0 {
		current := heap.Pop(open).(*node)
		currIdx := index(current.point)
		if _, seen := closed[currIdx]; seen {
			continue
		}
		closed[currIdx] = struct{}{}
		if current.point == goal {
			return reconstruct(current), true
		}

		for _, next := range current.point.Neighbors() {
			if !g.InBounds(next) || !t(g, next) {
				continue
			}
			idx := index(next)
			if _, seen := closed[idx]; seen {
				continue
			}
			tentative := current.g + 1
			if prev, ok := gScore[idx]; ok && tentative >= prev {
				continue
			}
			gScore[idx] = tentative
			seq++
			heap.Push(open, &node{
				point:  next,
				g:      tentative,
				f:      tentative + grid.Manhattan(next, goal),
				seq:    seq,
				parent: current,
			})
		}
	}
	return nil, false
}

func reconstruct(end *node) []grid.Point {
	path := make([]grid.Point, 0, end.g+1)
	for n := end; n != nil; n = n.parent {
		path = append(path, n.point)
	}
	for i := 0; i < len(path)/2; i++ {
		j := len(path) - 1 - i
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Reachable reports whether any route exists from start to goal.
func Reachable(g *grid.Grid, start, goal grid.Point, t Traversal) bool {
	_, ok := FindPath(g, start, goal, t)
	return ok
}
